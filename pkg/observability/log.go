package observability

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
)

// LogHooks implements every hook interface by writing debug records to a
// charmbracelet logger.
type LogHooks struct {
	logger *log.Logger
}

// NewLogHooks returns hooks that log to logger. A nil logger uses log.Default().
func NewLogHooks(logger *log.Logger) *LogHooks {
	if logger == nil {
		logger = log.Default()
	}
	return &LogHooks{logger: logger}
}

// Register installs h as the install, cache and HTTP hooks.
func (h *LogHooks) Register() {
	SetInstallHooks(h)
	SetCacheHooks(h)
	SetHTTPHooks(h)
}

func (h *LogHooks) OnResolve(_ context.Context, roots []string, nodeCount int) {
	h.logger.Debug("resolved dependency graph", "roots", roots, "nodes", nodeCount)
}

func (h *LogHooks) OnFetch(_ context.Context, name, url string, cached bool) {
	h.logger.Debug("bottle fetched", "formula", name, "url", url, "cached", cached)
}

func (h *LogHooks) OnPour(_ context.Context, name, version string, d time.Duration, err error) {
	if err != nil {
		h.logger.Debug("pour failed", "formula", name, "version", version, "error", err)
		return
	}
	h.logger.Debug("poured", "formula", name, "version", version, "duration", d.Round(time.Millisecond))
}

func (h *LogHooks) OnLink(_ context.Context, name string, count int, err error) {
	h.logger.Debug("link pass", "formula", name, "symlinks", count, "error", err)
}

func (h *LogHooks) OnInstallComplete(_ context.Context, installed, failed int, d time.Duration) {
	h.logger.Debug("install finished", "installed", installed, "failed", failed, "duration", d.Round(time.Millisecond))
}

func (h *LogHooks) OnCacheHit(_ context.Context, keyType string) {
	h.logger.Debug("cache hit", "type", keyType)
}

func (h *LogHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.logger.Debug("cache miss", "type", keyType)
}

func (h *LogHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.logger.Debug("cache set", "type", keyType, "bytes", size)
}

func (h *LogHooks) OnRequest(_ context.Context, method, host, path string) {
	h.logger.Debug("http request", "method", method, "host", host, "path", path)
}

func (h *LogHooks) OnResponse(_ context.Context, method, host, path string, status int, d time.Duration) {
	h.logger.Debug("http response", "method", method, "host", host, "path", path, "status", status, "duration", d.Round(time.Millisecond))
}

func (h *LogHooks) OnError(_ context.Context, method, host, path string, err error) {
	h.logger.Debug("http error", "method", method, "host", host, "path", path, "error", err)
}
