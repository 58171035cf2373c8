package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/inkframe/pkg/pipeline"
	"github.com/matzehuels/inkframe/pkg/server"
)

// serveCommand runs the HTTP render service.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr      string
		mongoURI  string
		redisAddr string
		storeDir  string
		noCache   bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve layout and rendering over HTTP",
		Long: `Serve layout and rendering over HTTP.

Routes:
  GET    /healthz
  GET    /v1/templates            GET /v1/templates/{id}
  POST   /v1/layout               POST /v1/render?format=png
  GET    /v1/pages                POST /v1/pages
  GET    /v1/pages/{id}           DELETE /v1/pages/{id}
  GET    /v1/pages/{id}/render?format=svg

Pages are stored in MongoDB when --mongo-uri is set, otherwise as JSON files.
Layouts and artifacts are cached in Redis when --redis-addr is set.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := c.Config
			if addr != "" {
				cfg.Server.Addr = addr
			}
			if mongoURI != "" {
				cfg.Store.MongoURI = mongoURI
			}
			if storeDir != "" {
				cfg.Store.Dir = storeDir
			}
			if redisAddr != "" {
				cfg.Cache.Backend = "redis"
				cfg.Cache.RedisAddr = redisAddr
			}
			return c.runServe(cmd.Context(), cfg, noCache)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default :8080)")
	cmd.Flags().StringVar(&mongoURI, "mongo-uri", "", "MongoDB connection string for the page store")
	cmd.Flags().StringVar(&storeDir, "store-dir", "", "directory for the file page store")
	cmd.Flags().StringVar(&redisAddr, "redis-addr", "", "Redis address for the shared cache")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, cfg Config, noCache bool) error {
	reg, err := c.registry()
	if err != nil {
		return err
	}

	cc, keyer, err := newCache(ctx, cfg.Cache, noCache)
	if err != nil {
		return err
	}
	runner := pipeline.NewRunner(cc, keyer, c.Logger)
	defer runner.Close()

	st, err := newStore(ctx, cfg.Store)
	if err != nil {
		return fmt.Errorf("open page store: %w", err)
	}
	defer st.Close(context.WithoutCancel(ctx))

	defaults := pipeline.Options{}
	cfg.applyRender(&defaults)

	srv := server.New(server.Config{
		Runner:   runner,
		Store:    st,
		Registry: reg,
		Logger:   c.Logger,
		Timeout:  cfg.Server.Timeout,
		Defaults: defaults,
	})

	c.Logger.Info("serving", "addr", cfg.Server.Addr, "cache", cacheLabel(cfg.Cache, noCache), "store", storeLabel(cfg.Store))
	return srv.ListenAndServe(ctx, cfg.Server.Addr)
}

func cacheLabel(cfg CacheConfig, noCache bool) string {
	if noCache {
		return "none"
	}
	if cfg.Backend == "" {
		return "file"
	}
	return cfg.Backend
}

func storeLabel(cfg StoreConfig) string {
	if cfg.MongoURI != "" {
		return "mongo"
	}
	return "file"
}
