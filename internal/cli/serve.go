package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/boxdeck/internal/server"
	"github.com/matzehuels/boxdeck/pkg/cache"
)

// serveCommand creates the serve command for running the HTTP render service.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		cfg     server.Config
		redis   cache.RedisConfig
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP render service",
		Long: `Run an HTTP service that renders decks posted to /v1/render.

Renders are cached in the local cache directory, or in Redis when --redis is
set so that several instances share results. Decks may only reference files
below --assets.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg.Logger = c.Logger

			switch {
			case noCache:
				cfg.Cache = cache.NewNullCache()
			case redis.Addr != "":
				rc, err := cache.NewRedisCache(ctx, redis)
				if err != nil {
					return fmt.Errorf("connect to redis at %s: %w", redis.Addr, err)
				}
				cfg.Cache = rc
				c.Logger.Info("using redis cache", "addr", redis.Addr, "db", redis.DB)
			default:
				fc, err := c.newCache(false)
				if err != nil {
					return fmt.Errorf("open cache: %w", err)
				}
				cfg.Cache = fc
			}
			defer cfg.Cache.Close()

			return server.New(cfg).Run(ctx)
		},
	}

	cmd.Flags().StringVar(&cfg.Addr, "addr", server.DefaultAddr, "listen address")
	cmd.Flags().StringVar(&cfg.AssetsDir, "assets", "", "directory holding images and fonts decks may reference")
	cmd.Flags().IntVar(&cfg.Workers, "workers", 0, "slides laid out in parallel per request (default: number of CPUs)")
	cmd.Flags().Int64Var(&cfg.MaxBodyBytes, "max-body", server.DefaultMaxBodyBytes, "largest accepted deck in bytes")
	cmd.Flags().DurationVar(&cfg.Timeout, "timeout", server.DefaultTimeout, "per-request render timeout")
	cmd.Flags().BoolVar(&cfg.Fixed, "fixed-metrics", false, "measure text with fixed advances (font independent)")
	cmd.Flags().StringVar(&redis.Addr, "redis", "", "redis address (host:port) for a shared cache")
	cmd.Flags().StringVar(&redis.Password, "redis-password", "", "redis password")
	cmd.Flags().IntVar(&redis.DB, "redis-db", 0, "redis database number")
	cmd.Flags().StringVar(&redis.Prefix, "redis-prefix", "boxdeck:", "prefix for redis keys")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}
