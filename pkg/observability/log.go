package observability

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
)

// LogHooks writes every event to a charmbracelet logger at debug level.
// Failures are logged at warn.
type LogHooks struct {
	Logger *log.Logger
}

// NewLogHooks returns hooks that log to logger.
func NewLogHooks(logger *log.Logger) *LogHooks {
	return &LogHooks{Logger: logger.WithPrefix("hooks")}
}

// Register installs h for every hook category.
func (h *LogHooks) Register() {
	SetComposeHooks(h)
	SetDispatchHooks(h)
	SetCacheHooks(h)
	SetHTTPHooks(h)
}

func (h *LogHooks) OnComposeStart(_ context.Context, gen uint64) {
	h.Logger.Debug("compose start", "generation", gen)
}

func (h *LogHooks) OnComposeComplete(_ context.Context, gen uint64, d time.Duration, err error) {
	if err != nil {
		h.Logger.Warn("compose failed", "generation", gen, "elapsed", d, "error", err)
		return
	}
	h.Logger.Debug("compose done", "generation", gen, "elapsed", d)
}

func (h *LogHooks) OnComposeSuperseded(_ context.Context, gen, latest uint64) {
	h.Logger.Debug("compose superseded", "generation", gen, "latest", latest)
}

func (h *LogHooks) OnDispatchStart(_ context.Context, channel string, n int) {
	h.Logger.Debug("dispatch start", "channel", channel, "recipients", n)
}

func (h *LogHooks) OnDispatchStep(_ context.Context, channel string, index int, skipped bool, err error) {
	if err != nil {
		h.Logger.Warn("dispatch step failed", "channel", channel, "index", index, "error", err)
		return
	}
	h.Logger.Debug("dispatch step", "channel", channel, "index", index, "skipped", skipped)
}

func (h *LogHooks) OnDispatchFinish(_ context.Context, channel string, visited int, aborted bool) {
	h.Logger.Debug("dispatch finish", "channel", channel, "visited", visited, "aborted", aborted)
}

func (h *LogHooks) OnCacheHit(_ context.Context, keyType string) {
	h.Logger.Debug("cache hit", "type", keyType)
}

func (h *LogHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.Logger.Debug("cache miss", "type", keyType)
}

func (h *LogHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.Logger.Debug("cache set", "type", keyType, "bytes", size)
}

func (h *LogHooks) OnRequest(_ context.Context, method, host, path string) {
	h.Logger.Debug("http request", "method", method, "host", host, "path", path)
}

func (h *LogHooks) OnResponse(_ context.Context, method, host, path string, status int, d time.Duration) {
	h.Logger.Debug("http response", "method", method, "host", host, "path", path, "status", status, "elapsed", d)
}

func (h *LogHooks) OnError(_ context.Context, method, host, path string, err error) {
	h.Logger.Warn("http error", "method", method, "host", host, "path", path, "error", err)
}
