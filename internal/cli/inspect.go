package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/matzehuels/unformer/pkg/flow"
	"github.com/matzehuels/unformer/pkg/pipeline"
	"github.com/matzehuels/unformer/pkg/render"
	"github.com/matzehuels/unformer/pkg/tree"
	"github.com/matzehuels/unformer/pkg/tree/transform"
)

// inspectOpts holds the command-line flags for the inspect command.
type inspectOpts struct {
	outline bool // print an indented module outline
	flat    bool // print the flattened node/edge list as JSON
	asJSON  bool // print the summary as JSON
}

// inspectCommand prints statistics and the module outline of a model tree.
func (c *CLI) inspectCommand() *cobra.Command {
	var (
		in   inputFlags
		opts inspectOpts
	)

	cmd := &cobra.Command{
		Use:   "inspect [model]",
		Short: "Summarize the module tree of a model",
		Long: `Summarize the module tree of a model.

Prints module, leaf and stack counts, the tree depth and the parameter and
buffer totals. With --outline the tree is printed to --depth levels with the
stage of every module and the flow mode of every sibling set.`,
		Example: `  unformer inspect openai/gpt2
  unformer inspect -f model.json --outline --depth 3
  unformer inspect openai/gpt2 --view full --flat > gpt2.flat.json`,
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: c.completeModels,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runInspect(cmd.Context(), &in, args, opts)
		},
	}

	in.register(cmd, false)
	cmd.Flags().BoolVar(&opts.outline, "outline", false, "print the module outline")
	cmd.Flags().BoolVar(&opts.flat, "flat", false, "print the flattened tree as JSON")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "print the summary as JSON")
	return cmd
}

func (c *CLI) runInspect(ctx context.Context, in *inputFlags, args []string, flags inspectOpts) error {
	opts, err := c.options(in, args)
	if err != nil {
		return err
	}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return err
	}

	runner, err := c.newRunner(ctx, in.origin, in.noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	root, err := c.loadTree(ctx, runner, opts)
	if err != nil {
		return err
	}
	if opts.Compact() {
		root = transform.CollapseTree(root)
	}

	switch {
	case flags.flat:
		return writeJSON(stdout, tree.Flatten(root))
	case flags.asJSON:
		return writeJSON(stdout, tree.Summarize(root))
	}

	printSummary(root, opts.ViewMode)
	if flags.outline {
		printNewline()
		fmt.Fprint(stdout, outline(root, *opts.AutoDepth))
	}
	return nil
}

// loadTree loads and normalizes the tree named by opts.
func (c *CLI) loadTree(ctx context.Context, runner *pipeline.Runner, opts pipeline.Options) (*tree.Node, error) {
	var (
		raw  tree.RawNode
		err  error
		prog = newProgress(c.Logger)
	)
	if opts.File != "" {
		raw, _, err = pipeline.LoadFile(opts.File, opts.Compact())
	} else {
		raw, err = runner.Resolver.Tree(ctx, opts.Model, opts.Compact())
	}
	if err != nil {
		return nil, err
	}
	root, err := pipeline.Prepare(raw)
	if err != nil {
		return nil, err
	}
	prog.done("loaded tree", "root", root.Label())
	return root, nil
}

func printSummary(root *tree.Node, view string) {
	s := tree.Summarize(root)
	fmt.Fprintln(stdout, StyleTitle.Render(root.Label()))
	if root.ClassName != "" && root.ClassName != root.Label() {
		printDetail("%s", root.ClassName)
	}
	printNewline()
	printKeyValue("View", view)
	printKeyValue("Modules", fmt.Sprintf("%d (%d leaves)", s.Modules, s.Leaves))
	if s.Collapsed > 0 {
		printKeyValue("Stacks", fmt.Sprintf("%d covering %d repeats", s.Collapsed, s.RepeatUnits))
	}
	printKeyValue("Depth", fmt.Sprintf("%d", s.MaxDepth))
	printKeyValue("Parameters", fmt.Sprintf("%s (%s trainable, %s)",
		render.FormatCount(s.Parameters.Count),
		render.FormatCount(s.Parameters.Trainable),
		formatBytes(s.Parameters.SizeBytes)))
	if s.Buffers.Count > 0 {
		printKeyValue("Buffers", fmt.Sprintf("%s (%s)",
			render.FormatCount(s.Buffers.Count), formatBytes(s.Buffers.SizeBytes)))
	}
}

// outline renders the tree down to maxDepth, one module per line.
func outline(root *tree.Node, maxDepth int) string {
	var b strings.Builder
	classifier := flow.NewClassifier()

	var visit func(n *tree.Node, indent string)
	visit = func(n *tree.Node, indent string) {
		line := indent + n.Label()
		if n.ClassName != "" && n.ClassName != n.Label() {
			line += " " + StyleDim.Render(n.ClassName)
		}
		if r := n.RepeatCount(); n.IsCollapsed() && r > 1 {
			line += " " + StyleHighlight.Render(fmt.Sprintf("×%d", r))
		}
		line += " " + StyleDim.Render(string(classifier.Stage(n)))
		if p := n.TotalParams(); p > 0 {
			line += " " + StyleNumber.Render(render.FormatCount(p))
		}

		if !n.HasChildren() || n.Depth >= maxDepth {
			if n.HasChildren() {
				line += StyleDim.Render(fmt.Sprintf(" (+%d)", len(n.Children)))
			}
			b.WriteString(line + "\n")
			return
		}
		res := flow.ResolveFlowMode(n, n.Children)
		if res.Mode == flow.ModeParallel {
			line += " " + StyleWarning.Render("parallel")
		}
		b.WriteString(line + "\n")
		for _, child := range res.Order {
			visit(child, indent+"  ")
		}
	}
	visit(root, "")
	return b.String()
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
