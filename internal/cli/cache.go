package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/unformer/internal/config"
	"github.com/matzehuels/unformer/pkg/cache"
	"github.com/matzehuels/unformer/pkg/source"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the local chunk, graph and layout cache",
	}

	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePathCommand())
	cmd.AddCommand(c.cacheInvalidateCommand())
	cmd.AddCommand(c.cacheWarmCommand())

	return cmd
}

// cacheClearCommand creates the "cache clear" subcommand.
func (c *CLI) cacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every entry of the file cache",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := c.cfg().CacheOptions()
			if err != nil {
				return fmt.Errorf("get cache dir: %w", err)
			}
			if opts.Backend != "" && opts.Backend != cache.BackendFile {
				printWarning("The %s cache is shared; use 'cache invalidate <model>' instead", opts.Backend)
				return nil
			}

			fc, err := cache.NewFileCache(opts.Dir)
			if err != nil {
				return err
			}
			count, err := fc.Clear()
			if err != nil {
				return err
			}
			if count == 0 {
				printInfo("Cache is empty")
				return nil
			}
			printSuccess("Cleared %d cached entries", count)
			printDetail("Directory: %s", fc.Dir())
			return nil
		},
	}
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the cache directory path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := c.cfg().Cache.Dir
			if dir == "" {
				var err error
				if dir, err = config.CacheDir(); err != nil {
					return fmt.Errorf("get cache dir: %w", err)
				}
			}
			fmt.Fprintln(stdout, dir)
			return nil
		},
	}
}

// cacheInvalidateCommand drops the cached manifest and chunks of models.
func (c *CLI) cacheInvalidateCommand() *cobra.Command {
	var origin string
	cmd := &cobra.Command{
		Use:               "invalidate <model>...",
		Short:             "Forget the cached manifest and chunks of models",
		Args:              cobra.MinimumNArgs(1),
		ValidArgsFunction: c.completeEveryModel,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			runner, err := c.newRunner(ctx, origin, false)
			if err != nil {
				return fmt.Errorf("initialize runner: %w", err)
			}
			defer runner.Close()

			for _, id := range args {
				if err := runner.Resolver.Invalidate(ctx, id); err != nil {
					return fmt.Errorf("invalidate %s: %w", id, err)
				}
				printSuccess("Invalidated %s", id)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&origin, "origin", "", "model directory or http(s) base URL (default from config)")
	return cmd
}

// cacheWarmCommand fetches the tree chunks of models ahead of time.
func (c *CLI) cacheWarmCommand() *cobra.Command {
	var origin string
	cmd := &cobra.Command{
		Use:               "warm <model>...",
		Short:             "Fetch and cache the module tree chunks of models",
		Args:              cobra.MinimumNArgs(1),
		ValidArgsFunction: c.completeEveryModel,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			runner, err := c.newRunner(ctx, origin, false)
			if err != nil {
				return fmt.Errorf("initialize runner: %w", err)
			}
			defer runner.Close()

			for _, id := range args {
				m, err := runner.Resolver.Resolve(ctx, id)
				if err != nil {
					return err
				}
				if err := runner.Resolver.Prefetch(ctx, m, source.ChunkTree, source.ChunkCompactTree); err != nil {
					return fmt.Errorf("warm %s: %w", id, err)
				}
				printSuccess("Cached %s", id)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&origin, "origin", "", "model directory or http(s) base URL (default from config)")
	return cmd
}
