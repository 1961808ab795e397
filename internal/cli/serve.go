package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/matzehuels/unformer/internal/server"
)

// serveCommand starts the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr    string
		origin  string
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve model graphs over HTTP",
		Long: `Serve model graphs over HTTP.

Routes:
  GET /healthz                    liveness probe
  GET /api/models                 the origin's model index
  GET /api/models/{model}/graph   a laid-out graph (query: view, depth, split,
                                  expand, collapse, layout, engine, format)

Model ids containing a slash are path-escaped: /api/models/openai%2Fgpt2/graph.
View and layout defaults come from the config file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), addr, origin, noCache)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8080)")
	cmd.Flags().StringVar(&origin, "origin", "", "model directory or http(s) base URL (default from config)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	return cmd
}

func (c *CLI) runServe(ctx context.Context, addr, origin string, noCache bool) error {
	if addr == "" {
		addr = c.cfg().Server.Addr
	}
	runner, err := c.newRunner(ctx, origin, noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	printInfo("Serving %s on %s", runner.Resolver.Origin(), StyleHighlight.Render(addr))
	srv := server.New(runner, c.cfg().PipelineOptions(), c.Logger)
	err = srv.ListenAndServe(ctx, addr)
	if errors.Is(err, http.ErrServerClosed) || errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
