package observability

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
)

// LogHooks writes every event to a logger at debug level. It implements
// all four hook interfaces, so one value can be registered for each:
//
//	h := observability.NewLogHooks(logger)
//	observability.SetPipelineHooks(h)
//	observability.SetImageHooks(h)
type LogHooks struct {
	logger *log.Logger
}

// NewLogHooks returns hooks that log through l.
func NewLogHooks(l *log.Logger) *LogHooks {
	return &LogHooks{logger: l.WithPrefix("trace")}
}

// Register installs h for every hook kind.
func (h *LogHooks) Register() {
	SetPipelineHooks(h)
	SetImageHooks(h)
	SetCacheHooks(h)
	SetHTTPHooks(h)
}

func (h *LogHooks) OnLayoutStart(_ context.Context, pageID string, panelCount int) {
	h.logger.Debug("layout start", "page", pageID, "panels", panelCount)
}

func (h *LogHooks) OnLayoutComplete(_ context.Context, pageID string, d time.Duration, err error) {
	h.done("layout", d, err, "page", pageID)
}

func (h *LogHooks) OnCompositeStart(_ context.Context, pageID string, panelCount int) {
	h.logger.Debug("composite start", "page", pageID, "panels", panelCount)
}

func (h *LogHooks) OnCompositeComplete(_ context.Context, pageID string, d time.Duration, err error) {
	h.done("composite", d, err, "page", pageID)
}

func (h *LogHooks) OnRenderStart(_ context.Context, formats []string) {
	h.logger.Debug("render start", "formats", formats)
}

func (h *LogHooks) OnRenderComplete(_ context.Context, formats []string, d time.Duration, err error) {
	h.done("render", d, err, "formats", formats)
}

func (h *LogHooks) OnImageLoad(_ context.Context, url string, d time.Duration, cached bool) {
	h.logger.Debug("image", "url", url, "took", d.Round(time.Millisecond), "cached", cached)
}

func (h *LogHooks) OnImageError(_ context.Context, url string, err error) {
	h.logger.Warn("image failed, using placeholder", "url", url, "err", err)
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
	h.logger.Debug("http response", "method", method, "host", host, "path", path, "status", status, "took", d.Round(time.Millisecond))
}

func (h *LogHooks) OnError(_ context.Context, method, host, path string, err error) {
	h.logger.Debug("http error", "method", method, "host", host, "path", path, "err", err)
}

func (h *LogHooks) done(stage string, d time.Duration, err error, keyvals ...any) {
	keyvals = append(keyvals, "took", d.Round(time.Millisecond))
	if err != nil {
		h.logger.Debug(stage+" failed", append(keyvals, "err", err)...)
		return
	}
	h.logger.Debug(stage+" done", keyvals...)
}
