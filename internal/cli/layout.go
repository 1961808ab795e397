package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/unformer/pkg/errors"
	"github.com/matzehuels/unformer/pkg/graph"
	"github.com/matzehuels/unformer/pkg/layout"
	"github.com/matzehuels/unformer/pkg/pipeline"
	"github.com/matzehuels/unformer/pkg/render"
	"github.com/matzehuels/unformer/pkg/watch"
)

// layoutCommand creates the layout command for computing node positions.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		in        inputFlags
		graphPath string
		output    string
		watchMode bool
	)

	cmd := &cobra.Command{
		Use:   "layout [model]",
		Short: "Compute the nested layout of a model graph",
		Long: `Compute the nested layout of a model graph.

Every expanded module becomes a container laid out on its own: sequential
children stack top to bottom, parallel branches sit side by side. The output
is a layout.json file with absolute node positions, edge routes and the
node map used by renderers.

With --watch the input file is laid out again whenever it changes. Layouts
that are overtaken by a newer change are dropped, and a failed layout keeps
the previous output in place.

Results are cached locally for faster subsequent runs.`,
		Example: `  unformer layout openai/gpt2 --expand GPT2Model.h
  unformer layout --graph gpt2.graph.json --engine graphviz
  unformer layout -f model.json --watch`,
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: c.completeModels,
		RunE: func(cmd *cobra.Command, args []string) error {
			if watchMode {
				return c.runLayoutWatch(cmd.Context(), &in, args, graphPath, output)
			}
			return c.runLayout(cmd.Context(), &in, args, graphPath, output)
		},
	}

	in.register(cmd, true)
	cmd.Flags().StringVar(&graphPath, "graph", "", "lay out a graph.json produced by 'graph'")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <model>.layout.json, - for stdout)")
	cmd.Flags().BoolVarP(&watchMode, "watch", "w", false, "re-run the layout when the input file changes")
	return cmd
}

// graphOptions returns the options for a layout-only run over a graph file.
func (c *CLI) graphOptions(in *inputFlags) (pipeline.Options, error) {
	opts := c.cfg().PipelineOptions()
	if in.engine != "" {
		opts.Engine = in.engine
	}
	opts.Refresh = in.refresh
	opts.Logger = c.Logger
	if err := opts.ValidateForLayout(); err != nil {
		return opts, err
	}
	return opts, nil
}

func readGraphFile(path string) (*graph.Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New(errors.ErrCodeNotFound, "graph file %s not found", path)
		}
		return nil, err
	}
	defer f.Close()
	g, err := graph.ReadGraph(f)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "read graph %s", path)
	}
	return g, nil
}

// laidOut is the positioned graph plus what the summary line needs.
type laidOut struct {
	graph    *graph.Graph
	stem     string
	input    string // command-line form of the input, for hints
	cacheHit bool
}

// computeLayout lays out a graph file or a model/file input.
func (c *CLI) computeLayout(ctx context.Context, runner *pipeline.Runner, in *inputFlags, args []string, graphPath string) (*laidOut, error) {
	if graphPath != "" {
		if len(args) > 0 || in.file != "" {
			return nil, errors.New(errors.ErrCodeInvalidInput, "--graph cannot be combined with a model id or --file")
		}
		opts, err := c.graphOptions(in)
		if err != nil {
			return nil, err
		}
		g, err := readGraphFile(graphPath)
		if err != nil {
			return nil, err
		}
		laid, hit, err := runner.LayoutWithCacheInfo(ctx, g, opts)
		if err != nil {
			return nil, err
		}
		return &laidOut{
			graph:    laid,
			stem:     baseName(pipeline.Options{File: graphPath}),
			input:    "--graph " + graphPath,
			cacheHit: hit,
		}, nil
	}

	opts, err := c.options(in, args)
	if err != nil {
		return nil, err
	}
	result, err := runner.Execute(ctx, opts)
	if err != nil {
		return nil, err
	}
	input := opts.Model
	if opts.File != "" {
		input = "-f " + opts.File
	}
	return &laidOut{
		graph:    result.Graph,
		stem:     baseName(opts),
		input:    input,
		cacheHit: result.CacheInfo.LayoutHit,
	}, nil
}

// runLayout computes one layout and writes it.
func (c *CLI) runLayout(ctx context.Context, in *inputFlags, args []string, graphPath, output string) error {
	runner, err := c.newRunner(ctx, in.origin, in.noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	spinner := newSpinnerWithContext(ctx, "Computing layout...")
	spinner.Start()
	res, err := c.computeLayout(ctx, runner, in, args, graphPath)
	if err != nil {
		spinner.StopWithError("Layout failed")
		return err
	}
	spinner.Stop()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	if output == "" {
		output = res.stem + ".layout.json"
	}
	if err := writeLayout(res.graph, output); err != nil {
		return err
	}
	if output == "-" {
		return nil
	}

	printSuccess("Layout complete")
	printFile(output)
	printStats(len(res.graph.Nodes), len(res.graph.Edges), res.cacheHit)
	printNewline()
	printNextStep("Render", "unformer render "+res.input)
	return nil
}

func writeLayout(g *graph.Graph, path string) error {
	data, err := render.JSON(g)
	if err != nil {
		return fmt.Errorf("encode layout: %w", err)
	}
	if err := writeOutput(path, data); err != nil {
		return fmt.Errorf("write output %s: %w", path, err)
	}
	return nil
}

// =============================================================================
// Watch Mode
// =============================================================================

// runLayoutWatch re-lays out a local input on every change. Builds run
// synchronously; layouts run on a [layout.Scheduler] so a slow layout that
// is overtaken by a newer change is dropped instead of overwriting it.
func (c *CLI) runLayoutWatch(ctx context.Context, in *inputFlags, args []string, graphPath, output string) error {
	path := graphPath
	if path == "" {
		path = in.file
	}
	if path == "" || len(args) > 0 {
		return errors.New(errors.ErrCodeInvalidInput, "--watch needs a local input (--file or --graph)")
	}

	var (
		opts pipeline.Options
		err  error
	)
	if graphPath != "" {
		opts, err = c.graphOptions(in)
	} else {
		opts, err = c.options(in, nil)
		if err == nil {
			err = opts.ValidateAndSetDefaults()
		}
	}
	if err != nil {
		return err
	}
	if output == "" {
		output = baseName(pipeline.Options{File: path}) + ".layout.json"
	}

	runner, err := c.newRunner(ctx, in.origin, true)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	adapter, err := pipeline.NewAdapter(opts.Engine, opts.Margin)
	if err != nil {
		return err
	}
	scheduler := layout.NewScheduler(adapter, c.Logger)

	w, err := watch.New(path, watch.WithOnError(func(err error) {
		c.Logger.Warn("watch error", "error", err)
	}))
	if err != nil {
		return err
	}
	watchErr := make(chan error, 1)
	go func() { watchErr <- w.Run(ctx) }()

	rebuild := func() (*graph.Graph, error) {
		if graphPath != "" {
			return readGraphFile(graphPath)
		}
		raw, _, err := pipeline.LoadFile(path, opts.Compact())
		if err != nil {
			return nil, err
		}
		root, err := pipeline.Prepare(raw)
		if err != nil {
			return nil, err
		}
		return runner.Build(ctx, root, opts)
	}

	outcomes := make(chan layout.Outcome, 4)
	submit := func() {
		g, err := rebuild()
		if err != nil {
			printWarning("Rebuild failed, keeping %s: %v", output, err)
			return
		}
		ch := scheduler.Submit(ctx, g)
		go func() {
			o, ok := <-ch
			if !ok {
				return
			}
			select {
			case outcomes <- o:
			case <-ctx.Done():
			}
		}()
	}

	printInfo("Watching %s", path)
	submit()
	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-watchErr:
			return err
		case <-w.Changed():
			c.Logger.Debug("input changed", "path", path)
			submit()
		case o := <-outcomes:
			switch {
			case o.Stale:
				c.Logger.Debug("dropped stale layout", "token", o.Token)
			case o.Err != nil:
				printWarning("Layout failed, keeping %s: %v", output, o.Err)
			default:
				if err := writeLayout(o.Graph, output); err != nil {
					return err
				}
				printSuccess("Layout #%d written", o.Token)
				printFile(output)
			}
		}
	}
}
