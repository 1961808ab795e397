// Package pipeline provides the model-graph pipeline shared by the CLI and
// the HTTP server.
//
// # Architecture
//
// The pipeline runs four stages:
//
//  1. Load: resolve a model id through a [source.Resolver], or read a local
//     file, into a raw module tree
//  2. Build: validate and normalize the tree, then compile it into a
//     presentation graph for the requested view
//  3. Layout: position the graph with a layout engine
//  4. Render: export the positioned graph (JSON, DOT, SVG)
//
// Built and laid-out graphs are cached through a [cache.Cache] under keys
// that hash every option affecting them.
//
// # Usage
//
//	runner := pipeline.NewRunner(resolver, cache, nil, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    Model:   "openai-community/gpt2",
//	    Formats: []string{"svg"},
//	})
//	svg := result.Artifacts["svg"]
package pipeline

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/unformer/pkg/cache"
	"github.com/matzehuels/unformer/pkg/errors"
	"github.com/matzehuels/unformer/pkg/graph"
	"github.com/matzehuels/unformer/pkg/layout"
	"github.com/matzehuels/unformer/pkg/render"
)

// =============================================================================
// Default Values
// =============================================================================

const (
	// DefaultViewMode applies the repeat collapser.
	DefaultViewMode = graph.ViewCompact

	// DefaultAutoDepth expands the root only.
	DefaultAutoDepth = 1

	// DefaultSplitSize is the largest stack that explodes into single
	// elements when expanded.
	DefaultSplitSize = 8

	// DefaultEngine is the layout engine used when none is named.
	DefaultEngine = EngineLayered
)

// =============================================================================
// Options
// =============================================================================

// Options contains all configuration for a pipeline run.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Load options
	Model   string `json:"model,omitempty"`
	File    string `json:"file,omitempty"` // local model document or bare tree
	Refresh bool   `json:"refresh,omitempty"`

	// Build options
	ViewMode  string          `json:"view_mode,omitempty"`
	AutoDepth *int            `json:"auto_depth,omitempty"`
	SplitSize int             `json:"split_size,omitempty"`
	Expanded  map[string]bool `json:"expanded,omitempty"`

	// Layout options
	SkipLayout bool    `json:"skip_layout,omitempty"`
	Engine     string  `json:"engine,omitempty"`
	Margin     float64 `json:"margin,omitempty"`

	// Render options
	Formats  []string `json:"formats,omitempty"`
	Detailed bool     `json:"detailed,omitempty"`

	Logger *log.Logger `json:"-"`

	validated bool
}

// Depth returns a pointer to n, for Options.AutoDepth.
func Depth(n int) *int { return &n }

// Result contains the outputs of a pipeline run.
type Result struct {
	// Graph is the built graph, positioned unless SkipLayout was set.
	Graph *graph.Graph

	// GraphHash is the content hash of the built (unpositioned) graph.
	GraphHash string

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	Stats     Stats
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	NodeCount  int
	EdgeCount  int
	LoadTime   time.Duration
	BuildTime  time.Duration
	LayoutTime time.Duration
	RenderTime time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	GraphHit  bool
	LayoutHit bool
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks the options and applies defaults.
// It is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.Model == "" && o.File == "" {
		return errors.New(errors.ErrCodeInvalidInput, "model or file is required")
	}
	if o.Model != "" {
		if err := errors.ValidateModelID(o.Model); err != nil {
			return err
		}
	}
	if err := o.ValidateForBuild(); err != nil {
		return err
	}
	if err := o.ValidateForLayout(); err != nil {
		return err
	}
	if err := o.ValidateForRender(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// ValidateForBuild validates and sets defaults for graph building.
func (o *Options) ValidateForBuild() error {
	if o.ViewMode == "" {
		o.ViewMode = DefaultViewMode
	}
	if o.AutoDepth == nil {
		o.AutoDepth = Depth(DefaultAutoDepth)
	}
	if o.SplitSize == 0 {
		o.SplitSize = DefaultSplitSize
	}
	o.setLogger()
	if err := errors.ValidateViewMode(o.ViewMode); err != nil {
		return err
	}
	if err := errors.ValidateAutoDepth(*o.AutoDepth); err != nil {
		return err
	}
	return errors.ValidateSplitSize(o.SplitSize)
}

// ValidateForLayout validates and sets defaults for layout computation.
func (o *Options) ValidateForLayout() error {
	if o.Engine == "" {
		o.Engine = DefaultEngine
	}
	if o.Margin == 0 {
		o.Margin = layout.DefaultConfig().Margin
	}
	o.setLogger()
	return ValidateEngine(o.Engine)
}

// ValidateForRender validates the requested formats.
func (o *Options) ValidateForRender() error {
	o.setLogger()
	for _, f := range o.Formats {
		if err := render.ValidateFormat(f); err != nil {
			return errors.New(errors.ErrCodeInvalidFormat, "%v", err)
		}
	}
	return nil
}

func (o *Options) setLogger() {
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// Compact reports whether the compact view is requested.
func (o *Options) Compact() bool {
	return o.ViewMode != graph.ViewFull
}

// GraphOptions returns the builder options.
func (o *Options) GraphOptions() graph.Options {
	depth := DefaultAutoDepth
	if o.AutoDepth != nil {
		depth = *o.AutoDepth
	}
	return graph.Options{
		Expanded:  o.Expanded,
		AutoDepth: depth,
		ViewMode:  o.ViewMode,
		SplitSize: o.SplitSize,
	}
}

// GraphKeyOpts returns cache key options for graph building.
func (o *Options) GraphKeyOpts() cache.GraphKeyOpts {
	g := o.GraphOptions()
	return cache.GraphKeyOpts{
		ViewMode:  g.ViewMode,
		AutoDepth: g.AutoDepth,
		SplitSize: g.SplitSize,
		Expanded:  g.Expanded,
	}
}

// LayoutKeyOpts returns cache key options for layout computation.
func (o *Options) LayoutKeyOpts() cache.LayoutKeyOpts {
	return cache.LayoutKeyOpts{Engine: o.Engine, Margin: o.Margin}
}

// RenderOptions returns the render options.
func (o *Options) RenderOptions() render.Options {
	return render.Options{Detailed: o.Detailed}
}

func (s Stats) String() string {
	return fmt.Sprintf("%d nodes, %d edges (load %s, build %s, layout %s)",
		s.NodeCount, s.EdgeCount, s.LoadTime.Round(time.Millisecond),
		s.BuildTime.Round(time.Millisecond), s.LayoutTime.Round(time.Millisecond))
}
