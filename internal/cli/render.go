package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/unformer/pkg/errors"
	"github.com/matzehuels/unformer/pkg/graph"
	"github.com/matzehuels/unformer/pkg/pipeline"
	"github.com/matzehuels/unformer/pkg/render"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	graphPath string // render a graph.json instead of a model
	output    string // output file (single format) or base path
	formats   string // comma-separated output formats
	detailed  bool   // class names and parameter counts in labels
	unpinned  bool   // let Graphviz place nodes instead of the computed layout
}

// renderCommand creates the render command, which goes from a model (or a
// graph file) straight to DOT, SVG or JSON output.
func (c *CLI) renderCommand() *cobra.Command {
	var (
		in   inputFlags
		opts renderOpts
	)

	cmd := &cobra.Command{
		Use:   "render [model]",
		Short: "Render a model graph to SVG, DOT or JSON",
		Long: `Render a model graph to SVG, DOT or JSON.

The graph is built and laid out as with 'layout', then written in each
requested format. Containers become Graphviz clusters; SVG output keeps the
computed positions unless --unpinned is given.`,
		Example: `  unformer render openai/gpt2 --format svg,dot
  unformer render -f model.json --detailed -o gpt2.svg
  unformer render --graph gpt2.graph.json --unpinned`,
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: c.completeModels,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runRender(cmd.Context(), &in, args, &opts)
		},
	}

	in.register(cmd, true)
	cmd.Flags().StringVar(&opts.graphPath, "graph", "", "render a graph.json produced by 'graph'")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&opts.formats, "format", "F", "", "output format(s): "+strings.Join(render.Formats, ", ")+" (default svg, comma-separated)")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "show class names and parameter counts")
	cmd.Flags().BoolVar(&opts.unpinned, "unpinned", false, "ignore computed positions and let Graphviz lay out the graph")
	_ = cmd.RegisterFlagCompletionFunc("format", completeFormats)
	return cmd
}

func (c *CLI) runRender(ctx context.Context, in *inputFlags, args []string, ro *renderOpts) error {
	formats := parseFormats(ro.formats)
	for _, f := range formats {
		if err := render.ValidateFormat(f); err != nil {
			return errors.New(errors.ErrCodeInvalidFormat, "%v", err)
		}
	}

	runner, err := c.newRunner(ctx, in.origin, in.noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	spinner := newSpinnerWithContext(ctx, "Rendering...")
	spinner.Start()
	artifacts, stem, err := c.renderArtifacts(ctx, runner, in, args, ro, formats)
	if err != nil {
		spinner.StopWithError("Render failed")
		return err
	}
	spinner.Stop()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	written, err := writeArtifacts(artifacts, formats, ro.output, stem)
	if err != nil {
		return err
	}
	if ro.output == "-" {
		return nil
	}
	printSuccess("Rendered %d file(s)", len(written))
	for _, p := range written {
		printFile(p)
	}
	return nil
}

func (c *CLI) renderArtifacts(ctx context.Context, runner *pipeline.Runner, in *inputFlags, args []string, ro *renderOpts, formats []string) (map[string][]byte, string, error) {
	renderOpts := render.Options{Detailed: ro.detailed, Unpinned: ro.unpinned}

	if ro.graphPath != "" {
		if len(args) > 0 || in.file != "" {
			return nil, "", errors.New(errors.ErrCodeInvalidInput, "--graph cannot be combined with a model id or --file")
		}
		g, err := readGraphFile(ro.graphPath)
		if err != nil {
			return nil, "", err
		}
		if !ro.unpinned && !positioned(g) {
			opts, err := c.graphOptions(in)
			if err != nil {
				return nil, "", err
			}
			if g, err = runner.Layout(ctx, g, opts); err != nil {
				return nil, "", err
			}
		}
		artifacts, err := render.RenderAll(ctx, g, formats, renderOpts)
		return artifacts, baseName(pipeline.Options{File: ro.graphPath}), err
	}

	opts, err := c.options(in, args)
	if err != nil {
		return nil, "", err
	}
	opts.Formats = formats
	opts.Detailed = ro.detailed
	// Unpositioned graphs render unpinned.
	opts.SkipLayout = ro.unpinned
	result, err := runner.Execute(ctx, opts)
	if err != nil {
		return nil, "", err
	}
	return result.Artifacts, baseName(opts), nil
}

func positioned(g *graph.Graph) bool {
	for _, n := range g.Nodes {
		if !n.Positioned {
			return false
		}
	}
	return len(g.Nodes) > 0
}
