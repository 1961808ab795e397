package cli

import (
	"context"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/unformer/pkg/render"
)

// completionCommand creates the completion command for generating shell completions.
func (c *CLI) completionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for unformer.

Model ids are completed from the configured origin's index.

Bash:
  $ source <(unformer completion bash)

Zsh:
  $ unformer completion zsh > "${fpath[1]}/_unformer"

Fish:
  $ unformer completion fish > ~/.config/fish/completions/unformer.fish

PowerShell:
  PS> unformer completion powershell | Out-String | Invoke-Expression
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(cmd.OutOrStdout())
			case "zsh":
				return cmd.Root().GenZshCompletion(cmd.OutOrStdout())
			case "fish":
				return cmd.Root().GenFishCompletion(cmd.OutOrStdout(), true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(cmd.OutOrStdout())
			}
			return nil
		},
	}
}

// completionTimeout bounds index lookups during shell completion.
const completionTimeout = 3 * time.Second

// completeModels completes the positional model id from the origin index.
// Completion never fails loudly; without an index nothing is suggested.
func (c *CLI) completeModels(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	if err := c.loadConfig(); err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	origin, _ := cmd.Flags().GetString("origin")

	ctx, cancel := context.WithTimeout(cmd.Context(), completionTimeout)
	defer cancel()
	runner, err := c.newRunner(ctx, origin, false)
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	defer runner.Close()

	idx, err := runner.Resolver.Index(ctx)
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	var out []string
	for _, e := range idx.Models {
		if e.OK() && strings.HasPrefix(e.ID, toComplete) {
			out = append(out, e.ID+"\t"+render.FormatCount(e.ParameterCount)+" params")
		}
	}
	return out, cobra.ShellCompDirectiveNoFileComp
}

// completeFormats completes comma-separated --format values.
func completeFormats(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	prefix := ""
	if i := strings.LastIndex(toComplete, ","); i >= 0 {
		prefix = toComplete[:i+1]
	}
	out := make([]string, 0, len(render.Formats))
	for _, f := range render.Formats {
		out = append(out, prefix+f)
	}
	return out, cobra.ShellCompDirectiveNoFileComp | cobra.ShellCompDirectiveNoSpace
}

// completeEveryModel completes model ids for commands that take several.
func (c *CLI) completeEveryModel(cmd *cobra.Command, _ []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return c.completeModels(cmd, nil, toComplete)
}
