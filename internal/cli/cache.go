package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/setlistgen/pkg/config"
)

// clearer is implemented by cache backends that can be emptied.
type clearer interface {
	Clear(ctx context.Context) (int, error)
}

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the Spotify response cache",
		Long: `Manage the cache of Spotify responses.

Audio features and artist genres rarely change and are cached for a week;
loaded playlists are cached per playlist snapshot.`,
	}

	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePathCommand())

	return cmd
}

// cacheClearCommand creates the "cache clear" subcommand.
func (c *CLI) cacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Clear all cached responses",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := c.conf().Cache
			if cfg.Backend == config.CacheNone {
				printInfo("Caching is disabled")
				return nil
			}

			backend, err := newCache(ctx, cfg, false)
			if err != nil {
				return err
			}
			defer backend.Close()

			cl, ok := backend.(clearer)
			if !ok {
				return fmt.Errorf("cache backend %q cannot be cleared", cfg.Backend)
			}
			n, err := cl.Clear(ctx)
			if err != nil {
				return err
			}
			printSuccess("Cleared %d cached entries", n)
			printDetail("Backend: %s", cfg.Backend)
			return nil
		},
	}
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the cache directory path",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := c.conf().Cache
			switch cfg.Backend {
			case config.CacheRedis:
				fmt.Fprintln(stdout, cfg.RedisURL)
				return nil
			case config.CacheNone:
				printInfo("Caching is disabled")
				return nil
			}
			dir := cfg.Dir
			if dir == "" {
				d, err := cacheDir()
				if err != nil {
					return fmt.Errorf("get cache dir: %w", err)
				}
				dir = d
			}
			fmt.Fprintln(stdout, dir)
			return nil
		},
	}
}
