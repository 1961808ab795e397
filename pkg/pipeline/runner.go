package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/unformer/pkg/cache"
	"github.com/matzehuels/unformer/pkg/errors"
	"github.com/matzehuels/unformer/pkg/graph"
	"github.com/matzehuels/unformer/pkg/observability"
	"github.com/matzehuels/unformer/pkg/render"
	"github.com/matzehuels/unformer/pkg/source"
	"github.com/matzehuels/unformer/pkg/tree"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and API use it to avoid duplicating caching logic.
//
// The Runner is stateless except for its collaborators; it doesn't store
// pipeline results. Multiple goroutines can safely use the same Runner
// with different options.
type Runner struct {
	Resolver *source.Resolver
	Cache    cache.Cache
	Keyer    cache.Keyer
	Logger   *log.Logger
}

// NewRunner creates a runner. A nil cache disables caching, a nil keyer
// uses the DefaultKeyer and a nil resolver restricts the runner to local
// files.
func NewRunner(resolver *source.Resolver, c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Resolver: resolver,
		Cache:    c,
		Keyer:    keyer,
		Logger:   logger,
	}
}

// Execute runs load → build → layout → render with caching.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	result := &Result{Artifacts: make(map[string][]byte)}

	g, err := r.buildCached(ctx, opts, result)
	if err != nil {
		return nil, err
	}
	result.Stats.NodeCount = len(g.Nodes)
	result.Stats.EdgeCount = len(g.Edges)
	if data, err := graph.MarshalGraph(g); err == nil {
		result.GraphHash = cache.Hash(data)
	}
	r.Logger.Debug("built graph",
		"nodes", len(g.Nodes),
		"edges", len(g.Edges),
		"cached", result.CacheInfo.GraphHit)

	if !opts.SkipLayout {
		start := time.Now()
		laid, hit, err := r.LayoutWithCacheInfo(ctx, g, opts)
		if err != nil {
			return nil, err
		}
		g = laid
		result.Stats.LayoutTime = time.Since(start)
		result.CacheInfo.LayoutHit = hit
		r.Logger.Debug("computed layout",
			"engine", opts.Engine,
			"duration", result.Stats.LayoutTime,
			"cached", hit)
	}
	result.Graph = g

	if len(opts.Formats) > 0 {
		start := time.Now()
		artifacts, err := r.Render(ctx, g, opts)
		if err != nil {
			return nil, err
		}
		result.Artifacts = artifacts
		result.Stats.RenderTime = time.Since(start)
	}
	return result, nil
}

// buildCached returns the built graph, from the cache when possible.
func (r *Runner) buildCached(ctx context.Context, opts Options, result *Result) (*graph.Graph, error) {
	// Model graphs can be looked up before loading; file graphs are keyed
	// by content.
	var key string
	if opts.File == "" && r.Resolver != nil {
		key = r.graphKey(r.modelKey(opts), opts)
		if g, ok := r.cachedGraph(ctx, key, opts); ok {
			result.CacheInfo.GraphHit = true
			return g, nil
		}
	}

	start := time.Now()
	raw, modelKey, err := r.load(ctx, opts)
	if err != nil {
		return nil, err
	}
	result.Stats.LoadTime = time.Since(start)

	if key == "" {
		key = r.graphKey(modelKey, opts)
		if g, ok := r.cachedGraph(ctx, key, opts); ok {
			result.CacheInfo.GraphHit = true
			return g, nil
		}
	}

	start = time.Now()
	root, err := Prepare(raw)
	if err != nil {
		return nil, err
	}
	g, err := r.Build(ctx, root, opts)
	if err != nil {
		return nil, err
	}
	result.Stats.BuildTime = time.Since(start)

	if !opts.Refresh {
		if data, err := graph.MarshalGraph(g); err == nil {
			_ = r.Cache.Set(ctx, key, data, cache.TTLGraph)
		}
	}
	return g, nil
}

func (r *Runner) modelKey(opts Options) string {
	return "model:" + r.Resolver.Origin().String() + "#" + opts.Model
}

func (r *Runner) graphKey(modelKey string, opts Options) string {
	return r.Keyer.GraphKey(modelKey, opts.GraphKeyOpts())
}

func (r *Runner) cachedGraph(ctx context.Context, key string, opts Options) (*graph.Graph, bool) {
	if opts.Refresh {
		return nil, false
	}
	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil || !hit {
		return nil, false
	}
	g, err := graph.ReadGraph(bytes.NewReader(data))
	if err != nil {
		return nil, false
	}
	return g, true
}

// Build compiles a normalized tree into a presentation graph and checks
// its identity constraints.
func (r *Runner) Build(ctx context.Context, root *tree.Node, opts Options) (*graph.Graph, error) {
	if err := opts.ValidateForBuild(); err != nil {
		return nil, err
	}
	start := time.Now()
	g := graph.Build(root, opts.GraphOptions())
	observability.Pipeline().OnBuild(ctx, len(g.Nodes), len(g.Edges), time.Since(start))
	if err := g.Validate(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "built graph")
	}
	return g, nil
}

// LayoutWithCacheInfo positions g and reports whether the result came from
// the cache.
func (r *Runner) LayoutWithCacheInfo(ctx context.Context, g *graph.Graph, opts Options) (*graph.Graph, bool, error) {
	if err := opts.ValidateForLayout(); err != nil {
		return nil, false, err
	}

	graphData, err := graph.MarshalGraph(g)
	if err != nil {
		return nil, false, fmt.Errorf("serialize graph for cache key: %w", err)
	}
	key := r.Keyer.LayoutKey(cache.Hash(graphData), opts.LayoutKeyOpts())

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			if laid, err := graph.ReadGraph(bytes.NewReader(data)); err == nil {
				return laid, true, nil
			}
		}
	}

	adapter, err := NewAdapter(opts.Engine, opts.Margin)
	if err != nil {
		return nil, false, err
	}
	hooks := observability.Pipeline()
	hooks.OnLayoutStart(ctx, opts.Engine, len(g.Nodes))
	start := time.Now()
	laid, err := adapter.Layout(ctx, g)
	hooks.OnLayoutComplete(ctx, opts.Engine, time.Since(start), err)
	if err != nil {
		return nil, false, errors.Wrap(errors.ErrCodeLayoutFailed, err, "layout")
	}

	if data, err := graph.MarshalGraph(laid); err == nil {
		_ = r.Cache.Set(ctx, key, data, cache.TTLLayout)
	}
	return laid, false, nil
}

// Layout is a convenience wrapper that discards the cache hit info.
func (r *Runner) Layout(ctx context.Context, g *graph.Graph, opts Options) (*graph.Graph, error) {
	laid, _, err := r.LayoutWithCacheInfo(ctx, g, opts)
	return laid, err
}

// Render encodes g in every format of opts.
func (r *Runner) Render(ctx context.Context, g *graph.Graph, opts Options) (map[string][]byte, error) {
	if err := opts.ValidateForRender(); err != nil {
		return nil, err
	}
	hooks := observability.Pipeline()
	hooks.OnRenderStart(ctx, opts.Formats)
	start := time.Now()
	artifacts, err := render.RenderAll(ctx, g, opts.Formats, opts.RenderOptions())
	hooks.OnRenderComplete(ctx, opts.Formats, time.Since(start), err)
	return artifacts, err
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}
