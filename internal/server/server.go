// Package server exposes setlist generation over HTTP.
//
// Routes:
//
//	GET    /healthz                       liveness and version
//	GET    /metrics                       Prometheus metrics
//	GET    /auth/login                    redirect to Spotify
//	GET    /auth/callback                 OAuth redirect target, sets the session cookie
//	POST   /auth/logout                   drop the session
//	GET    /api/playlists/{id}/tracks     playable tracks of a playlist
//	POST   /api/setlists                  generate a setlist
//	GET    /api/setlists                  saved setlists of the session user
//	GET    /api/setlists/{id}             one setlist
//	GET    /api/setlists/{id}/export      setlist as txt, json, dot, svg or m3u
//	DELETE /api/setlists/{id}             delete a saved setlist
//
// Errors are returned as JSON bodies carrying the coded error. Anonymous
// callers may generate setlists; those are kept in process memory for
// [AnonymousTTL]. Setlists generated with a session are saved to the
// setlist store under the session user.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matzehuels/setlistgen/pkg/cache"
	"github.com/matzehuels/setlistgen/pkg/integrations/spotify"
	"github.com/matzehuels/setlistgen/pkg/pipeline"
	"github.com/matzehuels/setlistgen/pkg/session"
	"github.com/matzehuels/setlistgen/pkg/setlist"
	"github.com/matzehuels/setlistgen/pkg/store"
)

// Defaults applied by [New].
const (
	DefaultRateLimit       = 60
	DefaultShutdownTimeout = 10 * time.Second
	maxBodyBytes           = 64 << 10

	// AnonymousTTL is how long setlists of anonymous callers stay retrievable.
	AnonymousTTL = cache.TTLSetlist
)

// Options configures a [Server]. Runner is required.
type Options struct {
	Runner   *pipeline.Runner
	Setlists store.SetlistStore
	Sessions session.Store
	States   session.StateStore

	// OAuth enables the /auth routes. Without it every caller is anonymous.
	OAuth *spotify.OAuth
	// SpotifyOptions configure the client used to look up the user after login.
	SpotifyOptions []spotify.Option

	// Defaults are the generation options requests start from.
	Defaults setlist.Options
	// Gatherer is served on /metrics. Defaults to prometheus.DefaultGatherer.
	Gatherer prometheus.Gatherer

	// RateLimit is requests per minute per client IP. Negative disables it.
	RateLimit    int
	SecureCookie bool
	Logger       *log.Logger
}

// Server is the setlistgen HTTP API.
type Server struct {
	opts    Options
	anon    *store.MemoryStore
	logger  *log.Logger
	handler http.Handler
}

// New builds a server, filling in-memory stores for anything not set.
func New(opts Options) *Server {
	if opts.Setlists == nil {
		opts.Setlists = store.NewMemoryStore()
	}
	if opts.Sessions == nil {
		opts.Sessions = session.NewMemoryStore()
	}
	if opts.States == nil {
		opts.States = session.NewMemoryStateStore()
	}
	if opts.Gatherer == nil {
		opts.Gatherer = prometheus.DefaultGatherer
	}
	if opts.RateLimit == 0 {
		opts.RateLimit = DefaultRateLimit
	}
	if opts.Defaults == (setlist.Options{}) {
		opts.Defaults = setlist.DefaultOptions()
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	s := &Server{opts: opts, anon: store.NewExpiringMemoryStore(AnonymousTTL), logger: logger}
	s.handler = s.routes()
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.handler }

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.HandlerFor(s.opts.Gatherer, promhttp.HandlerOpts{}))

	r.Group(func(r chi.Router) {
		if s.opts.RateLimit > 0 {
			r.Use(s.rateLimit(s.opts.RateLimit, time.Minute))
		}
		r.Use(s.loadSession)

		r.Route("/auth", func(r chi.Router) {
			r.Get("/login", s.handleLogin)
			r.Get("/callback", s.handleCallback)
			r.Post("/logout", s.handleLogout)
		})

		r.Route("/api", func(r chi.Router) {
			r.Get("/playlists/{id}/tracks", s.handleTracks)
			r.Post("/setlists", s.handleGenerate)
			r.With(s.requireSession).Get("/setlists", s.handleList)
			r.Get("/setlists/{id}", s.handleGet)
			r.Get("/setlists/{id}/export", s.handleExport)
			r.With(s.requireSession).Delete("/setlists/{id}", s.handleDelete)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, errorBody{Code: "NOT_FOUND", Message: "no route for " + r.URL.Path})
	})
	return r
}

func (s *Server) rateLimit(limit int, window time.Duration) func(http.Handler) http.Handler {
	return httprate.Limit(limit, window,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Retry-After", "60")
			writeJSON(w, http.StatusTooManyRequests, errorBody{
				Code:    "RATE_LIMITED",
				Message: "too many requests, try again later",
			})
		}),
	)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully
// within timeout.
func (s *Server) Run(ctx context.Context, addr string, timeout time.Duration) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln, timeout)
}

// Serve is like Run on an existing listener. The listener is closed on return.
func (s *Server) Serve(ctx context.Context, ln net.Listener, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = DefaultShutdownTimeout
	}
	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()
	s.logger.Info("listening", "addr", ln.Addr().String())

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	s.logger.Info("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func bearer(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(h, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}
