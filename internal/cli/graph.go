package cli

import (
	"bytes"
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/unformer/pkg/graph"
)

// graphCommand creates the graph command, which builds a graph without
// laying it out.
func (c *CLI) graphCommand() *cobra.Command {
	var (
		in     inputFlags
		output string
	)

	cmd := &cobra.Command{
		Use:   "graph [model]",
		Short: "Build the node/edge graph of a model",
		Long: `Build the node/edge graph of a model.

The model tree is normalized, repeated siblings are collapsed into stacks
(compact view), sibling sets are classified as sequential or parallel and the
visible part of the tree is emitted as nodes with structure and flow edges.
The output is a graph.json file that 'layout' and 'render' can take with
--graph, or that can be inspected directly.`,
		Example: `  unformer graph openai/gpt2 --depth 2
  unformer graph -f model.json.zst --view full -o gpt2.graph.json`,
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: c.completeModels,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runGraph(cmd.Context(), &in, args, output)
		},
	}

	in.register(cmd, false)
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <model>.graph.json, - for stdout)")
	return cmd
}

func (c *CLI) runGraph(ctx context.Context, in *inputFlags, args []string, output string) error {
	opts, err := c.options(in, args)
	if err != nil {
		return err
	}
	opts.SkipLayout = true

	runner, err := c.newRunner(ctx, in.origin, in.noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	spinner := newSpinnerWithContext(ctx, "Building graph...")
	spinner.Start()
	result, err := runner.Execute(ctx, opts)
	if err != nil {
		spinner.StopWithError("Build failed")
		return err
	}
	spinner.Stop()

	var buf bytes.Buffer
	if err := graph.WriteGraph(result.Graph, &buf); err != nil {
		return fmt.Errorf("encode graph: %w", err)
	}
	if output == "" {
		output = baseName(opts) + ".graph.json"
	}
	if err := writeOutput(output, buf.Bytes()); err != nil {
		return fmt.Errorf("write output %s: %w", output, err)
	}
	if output == "-" {
		return nil
	}

	printSuccess("Graph built")
	printFile(output)
	printStats(result.Stats.NodeCount, result.Stats.EdgeCount, result.CacheInfo.GraphHit)
	printNewline()
	printNextStep("Lay out", "unformer layout --graph "+output)
	return nil
}
