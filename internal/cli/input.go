package cli

import (
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/unformer/pkg/errors"
	"github.com/matzehuels/unformer/pkg/pipeline"
	"github.com/matzehuels/unformer/pkg/source"
)

// inputFlags are shared by every command that builds a graph.
type inputFlags struct {
	file     string
	origin   string
	view     string
	depth    int
	split    int
	expand   []string
	collapse []string
	engine   string
	noCache  bool
	refresh  bool
}

// register adds the input flags to cmd. Layout flags are only added when
// the command lays the graph out.
func (f *inputFlags) register(cmd *cobra.Command, withLayout bool) {
	flags := cmd.Flags()
	flags.StringVarP(&f.file, "file", "f", "", "read a local model document or tree instead of a model id")
	flags.StringVar(&f.origin, "origin", "", "model directory or http(s) base URL (default from config)")
	flags.StringVar(&f.view, "view", "", "view mode: compact, full (default from config)")
	flags.IntVarP(&f.depth, "depth", "d", -1, "auto-expansion depth (default from config)")
	flags.IntVar(&f.split, "split", 0, "largest stack that explodes into single elements (default from config)")
	flags.StringSliceVarP(&f.expand, "expand", "e", nil, "node paths to expand (repeatable)")
	flags.StringSliceVar(&f.collapse, "collapse", nil, "node paths to keep collapsed (repeatable)")
	flags.BoolVar(&f.noCache, "no-cache", false, "disable caching")
	flags.BoolVar(&f.refresh, "refresh", false, "ignore cached results and recompute")
	if withLayout {
		flags.StringVar(&f.engine, "engine", "", "layout engine: "+strings.Join(pipeline.Engines, ", ")+" (default from config)")
	}
}

// options merges the configuration, the flags and the positional model id.
// Validation is left to the pipeline.
func (c *CLI) options(f *inputFlags, args []string) (pipeline.Options, error) {
	opts := c.cfg().PipelineOptions()
	switch {
	case f.file != "" && len(args) > 0:
		return opts, errors.New(errors.ErrCodeInvalidInput, "give either a model id or --file, not both")
	case f.file != "":
		opts.File = f.file
	case len(args) > 0:
		opts.Model = args[0]
	default:
		return opts, errors.New(errors.ErrCodeInvalidInput, "a model id or --file is required")
	}

	if f.view != "" {
		opts.ViewMode = f.view
	}
	if f.depth >= 0 {
		opts.AutoDepth = pipeline.Depth(f.depth)
	}
	if f.split != 0 {
		opts.SplitSize = f.split
	}
	if f.engine != "" {
		opts.Engine = f.engine
	}
	opts.Refresh = f.refresh
	opts.Logger = c.Logger

	if len(f.expand)+len(f.collapse) > 0 {
		opts.Expanded = make(map[string]bool, len(f.expand)+len(f.collapse))
		for _, id := range f.expand {
			opts.Expanded[id] = true
		}
		for _, id := range f.collapse {
			opts.Expanded[id] = false
		}
	}
	return opts, nil
}

// baseName derives an output file stem from the input.
func baseName(opts pipeline.Options) string {
	if opts.File != "" {
		base := filepath.Base(opts.File)
		for _, ext := range []string{".gz", ".zst", ".json", ".graph", ".layout"} {
			base = strings.TrimSuffix(base, ext)
		}
		return base
	}
	return source.SafeModelDir(opts.Model)
}
