// Package server exposes the page pipeline over HTTP.
//
// The service accepts page records as JSON, lays them out and renders them
// through a shared [pipeline.Runner], so repeated requests for the same page
// are served from cache. Stored pages can be rendered by id through a
// [store.Store].
//
// Routes:
//
//	GET    /healthz
//	GET    /v1/templates
//	GET    /v1/templates/{id}
//	POST   /v1/layout                 page JSON → rendered page JSON
//	POST   /v1/render?format=png      page JSON → artifact
//	GET    /v1/pages                  stored page ids
//	POST   /v1/pages                  store a page
//	GET    /v1/pages/{id}
//	DELETE /v1/pages/{id}
//	GET    /v1/pages/{id}/render?format=svg
//
// Errors are returned as JSON {"code": ..., "message": ...} with the status
// from [errors.HTTPStatus].
package server

import (
	"context"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/inkframe/pkg/httputil"
	"github.com/matzehuels/inkframe/pkg/pipeline"
	"github.com/matzehuels/inkframe/pkg/store"
	"github.com/matzehuels/inkframe/pkg/templates"
)

// Server defaults.
const (
	DefaultAddr         = ":8080"
	DefaultTimeout      = 60 * time.Second
	DefaultMaxBodyBytes = 4 << 20
	ShutdownTimeout     = 10 * time.Second
)

// Config configures a [Server]. Zero values get defaults.
type Config struct {
	Runner       *pipeline.Runner
	Store        store.Store
	Registry     *templates.Registry
	Logger       *log.Logger
	Timeout      time.Duration // per-request bound
	MaxBodyBytes int64

	// Defaults seeds the pipeline options of every request. Query
	// parameters override formats, template and page numbers. A nil
	// Defaults.Fetcher becomes one that fetches public http(s) only.
	Defaults pipeline.Options
}

// Server is the HTTP render service.
type Server struct {
	cfg    Config
	router chi.Router
}

// New creates a server with its routes mounted.
func New(cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	if cfg.Runner == nil {
		cfg.Runner = pipeline.NewRunner(nil, nil, cfg.Logger)
	}
	if cfg.Defaults.Fetcher == nil {
		// Pages come from clients, so their image references must not reach
		// the server's filesystem or its private network.
		cfg.Defaults.Fetcher = httputil.NewFetcher(
			httputil.WithCache(cfg.Runner.Cache, cfg.Runner.Keyer),
			httputil.WithAllowLocal(false),
			httputil.WithPublicOnly(),
		)
	}
	if cfg.Store == nil {
		cfg.Store = store.NewMemoryStore()
	}
	if cfg.Registry == nil {
		cfg.Registry = templates.Builtin()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}

	s := &Server{cfg: cfg}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.cfg.Logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(s.cfg.Timeout))

	r.Get("/healthz", s.handleHealth)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/templates", s.handleListTemplates)
		r.Get("/templates/{id}", s.handleGetTemplate)

		r.Post("/layout", s.handleLayout)
		r.Post("/render", s.handleRender)

		r.Route("/pages", func(r chi.Router) {
			r.Get("/", s.handleListPages)
			r.Post("/", s.handlePutPage)
			r.Get("/{id}", s.handleGetPage)
			r.Delete("/{id}", s.handleDeletePage)
			r.Get("/{id}/render", s.handleRenderStored)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, s.cfg.Logger, errNotFound(r.URL.Path))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, s.cfg.Logger, errMethod(r.Method))
	})
	return r
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	if addr == "" {
		addr = DefaultAddr
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errc := make(chan error, 1)
	go func() {
		s.cfg.Logger.Info("listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	s.cfg.Logger.Info("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}
