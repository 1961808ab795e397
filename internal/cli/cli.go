package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/unformer/internal/config"
	"github.com/matzehuels/unformer/pkg/buildinfo"
	"github.com/matzehuels/unformer/pkg/cache"
	"github.com/matzehuels/unformer/pkg/httputil"
	"github.com/matzehuels/unformer/pkg/pipeline"
	"github.com/matzehuels/unformer/pkg/source"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = config.AppName

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	config     *config.Config
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Unformer turns neural network module trees into laid-out diagrams",
		Long: `Unformer compiles the module tree of a neural network into a graph: repeated
blocks collapse into stacks, sibling modules are classified as sequential or
parallel, and the result is laid out with nested containers.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			c.registerHooks()
			return c.loadConfig()
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default: $XDG_CONFIG_HOME/unformer/config.toml)")

	root.AddCommand(c.graphCommand())
	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.exploreCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.modelsCommand())
	root.AddCommand(c.inspectCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

func (c *CLI) loadConfig() error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	if cfg.Path() != "" {
		c.Logger.Debug("loaded config", "path", cfg.Path())
	}
	c.config = cfg
	return nil
}

// cfg returns the loaded configuration, or defaults when a command runs
// without the root's pre-run (tests).
func (c *CLI) cfg() *config.Config {
	if c.config == nil {
		c.config = config.Default()
	}
	return c.config
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use. An empty origin uses the
// configured one.
func (c *CLI) newRunner(ctx context.Context, origin string, noCache bool) (*pipeline.Runner, error) {
	cfg := c.cfg()
	store, err := c.newCache(ctx, noCache)
	if err != nil {
		return nil, err
	}
	if origin == "" {
		origin = cfg.Origin
	}

	client := httputil.NewClient(httputil.Options{
		Cache:     store,
		Namespace: "origin",
	})
	o, err := source.OpenOrigin(origin, client)
	if err != nil {
		store.Close()
		return nil, err
	}

	ttl := cache.TTLChunk
	if cfg.Cache.TTL.Duration > 0 {
		ttl = cfg.Cache.TTL.Duration
	}
	resolver := source.NewResolver(o,
		source.WithChunkCache(source.NewChunkCache(store, nil, ttl)),
		source.WithLogger(c.Logger),
	)
	return pipeline.NewRunner(resolver, store, nil, c.Logger), nil
}

func (c *CLI) newCache(ctx context.Context, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	opts, err := c.cfg().CacheOptions()
	if err != nil {
		c.Logger.Warn("cache unavailable, continuing without it", "error", err)
		return cache.NewNullCache(), nil
	}
	store, err := cache.Open(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("open %s cache: %w", opts.Backend, err)
	}
	return store, nil
}

// =============================================================================
// Options Helpers
// =============================================================================

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string) []string {
	if s == "" {
		return []string{"svg"}
	}
	var out []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}
