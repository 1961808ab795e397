package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/unformer/pkg/render"
	"github.com/matzehuels/unformer/pkg/source"
)

// modelsCommand lists the models published by an origin.
func (c *CLI) modelsCommand() *cobra.Command {
	var (
		origin  string
		asJSON  bool
		noCache bool
		all     bool
	)

	cmd := &cobra.Command{
		Use:   "models",
		Short: "List the models available at an origin",
		Long: `List the models available at an origin.

The origin's index.json is read and each model is shown with its parameter
and module counts. Models whose generation failed are hidden unless --all is
given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runModels(cmd.Context(), origin, noCache, all, asJSON)
		},
	}

	cmd.Flags().StringVar(&origin, "origin", "", "model directory or http(s) base URL (default from config)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the index as JSON")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVarP(&all, "all", "a", false, "include models that failed to generate")
	return cmd
}

func (c *CLI) runModels(ctx context.Context, origin string, noCache, all, asJSON bool) error {
	runner, err := c.newRunner(ctx, origin, noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	idx, err := runner.Resolver.Index(ctx)
	if err != nil {
		return err
	}

	entries := make([]source.IndexEntry, 0, len(idx.Models))
	for _, e := range idx.Models {
		if all || e.OK() {
			entries = append(entries, e)
		}
	}

	if asJSON {
		return writeJSON(stdout, entries)
	}
	if len(entries) == 0 {
		printInfo("No models at %s", runner.Resolver.Origin())
		return nil
	}
	fmt.Fprintln(stdout, modelTable(entries))
	printDetail("%d of %d models · %s", len(entries), idx.Count, runner.Resolver.Origin())
	return nil
}

func modelTable(entries []source.IndexEntry) string {
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		kind := e.ModelType
		if kind == "" && len(e.Architectures) > 0 {
			kind = strings.Join(e.Architectures, ", ")
		}
		if kind == "" {
			kind = "—"
		}
		status := e.Status
		if status == "" {
			status = "ok"
		}
		rows = append(rows, []string{
			e.ID,
			kind,
			render.FormatCount(e.ParameterCount),
			fmt.Sprintf("%d", e.ModuleCount),
			status,
		})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Model", "Type", "Params", "Modules", "Status").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			base := lipgloss.NewStyle().Padding(0, 1)
			if row < 0 || row >= len(entries) {
				return base
			}
			if !entries[row].OK() {
				return base.Foreground(colorDim)
			}
			switch col {
			case 0:
				return base.Foreground(colorCyan)
			case 2, 3:
				return base.Foreground(colorWhite).Align(lipgloss.Right)
			}
			return base.Foreground(colorGray)
		}).
		Render()
}
