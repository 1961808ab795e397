package cli

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/unformer/pkg/observability"
)

// debugHooks forwards pipeline, cache and origin events to the CLI logger
// at debug level, so --verbose shows where time goes.
type debugHooks struct {
	observability.NoopPipelineHooks
	logger *log.Logger
}

func (c *CLI) registerHooks() {
	h := debugHooks{logger: c.Logger}
	observability.SetPipelineHooks(h)
	observability.SetCacheHooks(h)
	observability.SetHTTPHooks(h)
}

func (h debugHooks) OnLoadComplete(_ context.Context, model string, nodes int, d time.Duration, err error) {
	h.logger.Debug("loaded tree", "model", model, "nodes", nodes, "duration", d.Round(time.Millisecond), "error", err)
}

func (h debugHooks) OnBuild(_ context.Context, nodes, edges int, d time.Duration) {
	h.logger.Debug("built graph", "nodes", nodes, "edges", edges, "duration", d.Round(time.Millisecond))
}

func (h debugHooks) OnLayoutComplete(_ context.Context, engine string, d time.Duration, err error) {
	h.logger.Debug("layout finished", "engine", engine, "duration", d.Round(time.Millisecond), "error", err)
}

func (h debugHooks) OnLayoutStale(_ context.Context, engine string, token uint64) {
	h.logger.Debug("layout superseded", "engine", engine, "token", token)
}

func (h debugHooks) OnRenderComplete(_ context.Context, formats []string, d time.Duration, err error) {
	h.logger.Debug("rendered", "formats", formats, "duration", d.Round(time.Millisecond), "error", err)
}

func (h debugHooks) OnCacheHit(_ context.Context, keyType string) {
	h.logger.Debug("cache hit", "type", keyType)
}

func (h debugHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.logger.Debug("cache miss", "type", keyType)
}

func (h debugHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.logger.Debug("cache set", "type", keyType, "bytes", size)
}

func (h debugHooks) OnRequest(_ context.Context, method, host, path string) {
	h.logger.Debug("fetch", "method", method, "host", host, "path", path)
}

func (h debugHooks) OnResponse(_ context.Context, method, host, path string, status int, d time.Duration) {
	h.logger.Debug("fetched", "host", host, "path", path, "status", status, "duration", d.Round(time.Millisecond))
}

func (h debugHooks) OnError(_ context.Context, method, host, path string, err error) {
	h.logger.Debug("fetch failed", "host", host, "path", path, "error", err)
}
