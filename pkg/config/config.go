// Package config resolves cellar's process-wide settings.
//
// A [Config] is built once at startup by [Load] and passed explicitly to
// every component; no package below the CLI reads the environment itself.
// Sources are applied in order, later ones winning:
//
//  1. platform defaults ([Defaults])
//  2. the TOML file at $XDG_CONFIG_HOME/cellar/config.toml
//  3. a .env file in the working directory (never overrides real variables)
//  4. CELLAR_* environment variables
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
)

// Environment variable names.
const (
	EnvPrefix           = "CELLAR_PREFIX"
	EnvCellar           = "CELLAR_CELLAR"
	EnvCache            = "CELLAR_CACHE"
	EnvAPIURL           = "CELLAR_API_URL"
	EnvBottleTag        = "CELLAR_BOTTLE_TAG"
	EnvNoInstallCleanup = "CELLAR_NO_INSTALL_CLEANUP"
	EnvCacheTTL         = "CELLAR_CACHE_TTL"
	EnvConfigFile       = "CELLAR_CONFIG"
)

const (
	DefaultAPIURL   = "https://formulae.brew.sh/api"
	DefaultCacheTTL = 24 * time.Hour
)

// Config holds resolved paths and settings.
type Config struct {
	Prefix           string        `toml:"prefix"`             // Shared prefix holding opt/, bin/, ...
	Cellar           string        `toml:"cellar"`             // Package store, default <Prefix>/Cellar
	Cache            string        `toml:"cache"`              // Download and API cache root
	APIURL           string        `toml:"api_url"`            // Formula JSON API base URL
	BottleTag        string        `toml:"bottle_tag"`         // Forces a platform tag when set
	CacheTTL         time.Duration `toml:"-"`                  // API response cache TTL
	CacheTTLString   string        `toml:"cache_ttl"`          // CacheTTL as read from TOML
	NoInstallCleanup bool          `toml:"no_install_cleanup"` // Keep superseded kegs on upgrade

	// File is the config file that was read, empty when none existed.
	File string `toml:"-"`
}

// DefaultPrefix returns the conventional prefix for goos/goarch.
func DefaultPrefix(goos, goarch string) string {
	switch {
	case goos == "darwin" && goarch == "arm64":
		return "/opt/homebrew"
	case goos == "darwin":
		return "/usr/local"
	default:
		return "/home/linuxbrew/.linuxbrew"
	}
}

// Defaults returns the configuration used when nothing is overridden.
func Defaults() Config {
	prefix := DefaultPrefix(runtime.GOOS, runtime.GOARCH)
	return Config{
		Prefix:   prefix,
		Cellar:   filepath.Join(prefix, "Cellar"),
		Cache:    filepath.Join(xdg.CacheHome, "cellar"),
		APIURL:   DefaultAPIURL,
		CacheTTL: DefaultCacheTTL,
	}
}

// DefaultFile returns $XDG_CONFIG_HOME/cellar/config.toml.
func DefaultFile() string {
	return filepath.Join(xdg.ConfigHome, "cellar", "config.toml")
}

// LoadOptions controls where Load looks. Zero values use the process
// environment, the default config file and ".env".
type LoadOptions struct {
	File   string              // Config file; "" uses $CELLAR_CONFIG or DefaultFile
	DotEnv string              // .env path; "" uses ".env", "-" disables
	Getenv func(string) string // Environment lookup; nil uses os.Getenv
}

// Load resolves the configuration. A missing config or .env file is not an
// error; a malformed one is.
func Load(opts LoadOptions) (*Config, error) {
	if opts.DotEnv != "-" {
		path := opts.DotEnv
		if path == "" {
			path = ".env"
		}
		if err := godotenv.Load(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", path, err)
		}
	}
	getenv := opts.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}

	cfg := Defaults()
	defaultPrefix := cfg.Prefix
	cellarSet := false

	file := opts.File
	if file == "" {
		file = getenv(EnvConfigFile)
	}
	if file == "" {
		file = DefaultFile()
	}
	md, err := toml.DecodeFile(file, &cfg)
	switch {
	case err == nil:
		cfg.File = file
		cellarSet = md.IsDefined("cellar")
		if cfg.CacheTTLString != "" {
			if cfg.CacheTTL, err = time.ParseDuration(cfg.CacheTTLString); err != nil {
				return nil, fmt.Errorf("%s: cache_ttl: %w", file, err)
			}
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("parse %s: %w", file, err)
	}

	if v := getenv(EnvPrefix); v != "" {
		cfg.Prefix = v
	}
	if v := getenv(EnvCellar); v != "" {
		cfg.Cellar = v
		cellarSet = true
	}
	if v := getenv(EnvCache); v != "" {
		cfg.Cache = v
	}
	if v := getenv(EnvAPIURL); v != "" {
		cfg.APIURL = v
	}
	if v := getenv(EnvBottleTag); v != "" {
		cfg.BottleTag = v
	}
	if v := getenv(EnvNoInstallCleanup); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", EnvNoInstallCleanup, err)
		}
		cfg.NoInstallCleanup = b
	}
	if v := getenv(EnvCacheTTL); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", EnvCacheTTL, err)
		}
		cfg.CacheTTL = d
	}

	// The store follows a relocated prefix unless it was set explicitly.
	if !cellarSet && cfg.Prefix != defaultPrefix {
		cfg.Cellar = filepath.Join(cfg.Prefix, "Cellar")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks that all paths are absolute.
func (c *Config) Validate() error {
	for name, p := range map[string]string{"prefix": c.Prefix, "cellar": c.Cellar, "cache": c.Cache} {
		if !filepath.IsAbs(p) {
			return fmt.Errorf("config: %s must be an absolute path, got %q", name, p)
		}
	}
	if c.CacheTTL < 0 {
		return fmt.Errorf("config: cache_ttl must not be negative")
	}
	return nil
}

// DownloadsDir is where bottles are cached.
func (c *Config) DownloadsDir() string { return filepath.Join(c.Cache, "downloads") }

// APICacheDir is where registry responses are cached.
func (c *Config) APICacheDir() string { return filepath.Join(c.Cache, "api") }

// Entries returns the settings as ordered key/value pairs for display.
func (c *Config) Entries() [][2]string {
	file := c.File
	if file == "" {
		file = "(none)"
	}
	tag := c.BottleTag
	if tag == "" {
		tag = "(auto)"
	}
	return [][2]string{
		{"prefix", c.Prefix},
		{"cellar", c.Cellar},
		{"cache", c.Cache},
		{"api_url", c.APIURL},
		{"bottle_tag", tag},
		{"cache_ttl", c.CacheTTL.String()},
		{"no_install_cleanup", strconv.FormatBool(c.NoInstallCleanup)},
		{"config_file", file},
	}
}
