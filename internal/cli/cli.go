// Package cli implements the cellar command-line interface.
//
// Commands are thin wrappers: they load the configuration, wire a
// [pipeline.Installer] against the formula API and print its results.
//
// # Commands
//
//   - install, upgrade, uninstall, autoremove: change what is in the Cellar
//   - link, unlink: manage the symlinks in the prefix
//   - pin, unpin: hold a formula at its installed version
//   - list, leaves, outdated, deps, uses: inspect installed and available formulae
//   - cache, config: inspect and clear local state
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. In verbose
// mode the observability hooks are routed to the same logger, so every
// download, cache hit and link pass is reported.
package cli

import (
	"io"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/cellar/pkg/bottle"
	"github.com/matzehuels/cellar/pkg/config"
	"github.com/matzehuels/cellar/pkg/deps"
	"github.com/matzehuels/cellar/pkg/httputil"
	"github.com/matzehuels/cellar/pkg/integrations"
	"github.com/matzehuels/cellar/pkg/integrations/formulae"
	"github.com/matzehuels/cellar/pkg/pipeline"
)

// appName is the application name used for display.
const appName = "cellar"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// Config is loaded on first use unless set beforehand.
	Config *config.Config

	// Provider overrides the formula API client when set.
	Provider deps.Provider
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// =============================================================================
// Installer Factory
// =============================================================================

func (c *CLI) loadConfig() (*config.Config, error) {
	if c.Config != nil {
		return c.Config, nil
	}
	cfg, err := config.Load(config.LoadOptions{})
	if err != nil {
		return nil, err
	}
	c.Logger.Debug("configuration loaded", "prefix", cfg.Prefix, "cellar", cfg.Cellar, "file", cfg.File)
	c.Config = cfg
	return cfg, nil
}

func (c *CLI) provider(cfg *config.Config) (deps.Provider, error) {
	if c.Provider != nil {
		return c.Provider, nil
	}
	cache, err := httputil.NewCache(cfg.APICacheDir(), cfg.CacheTTL)
	if err != nil {
		c.Logger.Warn("API cache disabled", "dir", cfg.APICacheDir(), "err", err)
		cache = nil
	}
	c.Provider = formulae.NewClient(cache, cfg.APIURL)
	return c.Provider, nil
}

// newInstaller wires a pipeline installer for the running host.
func (c *CLI) newInstaller() (*pipeline.Installer, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, err
	}
	provider, err := c.provider(cfg)
	if err != nil {
		return nil, err
	}
	tag, err := bottle.HostTag(cfg.BottleTag)
	if err != nil {
		return nil, err
	}
	c.Logger.Debug("platform", "tag", tag)

	fetcher := bottle.NewFetcher(
		integrations.NewClient(nil, nil).WithHTTPClient(integrations.NewDownloadClient()),
		c.Logger,
	)
	inst := pipeline.New(cfg, tag, provider, fetcher, c.Logger)
	inst.Layout.Host.OSVersion = bottle.HostOSVersion()
	return inst, nil
}
