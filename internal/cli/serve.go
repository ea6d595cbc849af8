package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/matzehuels/setlistgen/internal/server"
	"github.com/matzehuels/setlistgen/pkg/config"
	"github.com/matzehuels/setlistgen/pkg/errors"
	"github.com/matzehuels/setlistgen/pkg/integrations/spotify"
	"github.com/matzehuels/setlistgen/pkg/observability"
	"github.com/matzehuels/setlistgen/pkg/observability/prom"
	"github.com/matzehuels/setlistgen/pkg/pipeline"
	"github.com/matzehuels/setlistgen/pkg/session"
	"github.com/matzehuels/setlistgen/pkg/store"
)

type serveOptions struct {
	addr    string
	noLogin bool
}

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	opts := serveOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Serve setlist generation over HTTP until interrupted.

Playlists are read with the application's client-credentials token.
Users who log in through /auth/login get their setlists saved; sessions
live in Redis when the cache backend is redis, and setlists in MongoDB
when server.mongo_uri (or MONGODB_URI) is set.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", "", "listen address (default from config, :8080)")
	cmd.Flags().BoolVar(&opts.noLogin, "no-login", false, "disable the /auth routes")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, opts serveOptions) error {
	cfg := c.conf()
	addr := cfg.Server.Addr
	if opts.addr != "" {
		addr = opts.addr
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	defer observability.Register(prom.New(reg))()

	runner, oauth, err := c.newServerRunner(ctx)
	if err != nil {
		return err
	}
	defer runner.Close()

	sessions, states, closeSessions, err := newSessionStores(cfg.Cache)
	if err != nil {
		return err
	}
	defer closeSessions()

	setlists, err := newSetlistStore(ctx, cfg.Server)
	if err != nil {
		return err
	}
	defer setlists.Close()

	srvOpts := server.Options{
		Runner:         runner,
		Setlists:       setlists,
		Sessions:       sessions,
		States:         states,
		SpotifyOptions: c.spotifyOptions(),
		Defaults:       cfg.Setlist,
		Gatherer:       reg,
		RateLimit:      cfg.Server.RateLimit,
		SecureCookie:   strings.HasPrefix(cfg.Server.BaseURL, "https://"),
		Logger:         c.Logger,
	}
	if cfg.Server.RateLimit == 0 {
		srvOpts.RateLimit = -1
	}
	if !opts.noLogin {
		srvOpts.OAuth = oauth
	}

	printInfo("Serving on %s", addr)
	if srvOpts.OAuth != nil {
		printDetail("Spotify redirect URI: %s", oauth.RedirectURI())
	}
	return server.New(srvOpts).Run(ctx, addr, cfg.Server.ShutdownTimeout)
}

// newServerRunner builds a runner on the app token. The server never uses
// the CLI login session.
func (c *CLI) newServerRunner(ctx context.Context) (*pipeline.Runner, *spotify.OAuth, error) {
	cfg := c.conf()
	backend, err := newCache(ctx, cfg.Cache, false)
	if err != nil {
		return nil, nil, err
	}
	oauth, err := c.newOAuth()
	if err != nil {
		if c.source == nil {
			backend.Close()
			return nil, nil, err
		}
		oauth = nil
	}
	if c.source != nil {
		return pipeline.NewRunner(c.source, backend, nil, c.Logger), oauth, nil
	}
	client := spotify.NewClient(backend, spotify.NewClientCredentialsSource(oauth), c.spotifyOptions()...)
	return pipeline.NewRunner(client, backend, nil, c.Logger), oauth, nil
}

// newSessionStores returns Redis-backed stores when the cache is Redis and
// in-memory stores otherwise.
func newSessionStores(cfg config.CacheConfig) (session.Store, session.StateStore, func(), error) {
	if cfg.Backend != config.CacheRedis {
		return session.NewMemoryStore(), session.NewMemoryStateStore(), func() {}, nil
	}
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, nil, nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "redis_url")
	}
	client := redis.NewClient(opts)
	closeFn := func() { _ = client.Close() }
	return session.NewRedisStore(client, appName+":session:"),
		session.NewRedisStateStore(client, appName+":state:"),
		closeFn, nil
}

func newSetlistStore(ctx context.Context, cfg config.ServerConfig) (store.SetlistStore, error) {
	if cfg.MongoURI == "" {
		return store.NewMemoryStore(), nil
	}
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	s, err := store.NewMongoStore(connectCtx, store.MongoConfig{URI: cfg.MongoURI})
	if err != nil {
		return nil, fmt.Errorf("connect setlist store: %w", err)
	}
	return s, nil
}
