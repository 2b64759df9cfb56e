// Package server implements the boxdeck HTTP render service.
//
// # Endpoints
//
//	POST /v1/render?format=pdf|svg|png|json&page=n&syntax=toml|yaml
//	GET  /v1/formats
//	GET  /healthz
//
// The request body is a deck file. Its syntax comes from ?syntax= or the
// Content-Type header (application/toml, application/yaml). svg and png
// render the single page n (0-based, default 0).
//
// Decks are parsed sandboxed: file references must be relative paths below
// the configured assets directory, and are rejected when none is set.
//
// Every response carries an X-Request-ID header. Errors are JSON:
//
//	{"code": "UNKNOWN_ANCHOR", "message": "...", "request_id": "...",
//	 "slides": [{"index": 2, "name": "demo", "code": "...", "message": "..."}]}
package server

import (
	"context"
	stderrors "errors"
	"net/http"
	"regexp"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/boxdeck/pkg/cache"
)

// Defaults for [Config].
const (
	DefaultAddr         = ":8080"
	DefaultMaxBodyBytes = 4 << 20
	DefaultTimeout      = 60 * time.Second
)

// Headers read or written by the service.
const (
	HeaderRequestID = "X-Request-ID"
	HeaderClientID  = "X-Client-ID"
	HeaderCache     = "X-Cache"
	HeaderDeckHash  = "X-Deck-Hash"
)

// Config configures a Server.
type Config struct {
	Addr   string
	Cache  cache.Cache // nil disables caching
	Logger *log.Logger

	// AssetsDir is the root for images and fonts referenced by decks.
	// Empty forbids file references.
	AssetsDir string

	Workers      int
	MaxBodyBytes int64
	Timeout      time.Duration
	// Fixed lays text out with fixed-advance metrics.
	Fixed bool
}

// Server is the HTTP render service.
type Server struct {
	cfg    Config
	router chi.Router
}

// New creates a server and registers its routes.
func New(cfg Config) *Server {
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	if cfg.Cache == nil {
		cfg.Cache = cache.NewNullCache()
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	s := &Server{cfg: cfg}
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(s.observe)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Get("/formats", s.handleFormats)
		r.Post("/render", s.handleRender)
	})
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, errorBody{Code: "NOT_FOUND", Message: "no route for " + r.URL.Path, RequestID: RequestID(r.Context())})
	})
	s.router = r
	return s
}

// Handler returns the server's HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

// Run serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		s.cfg.Logger.Info("listening", "addr", s.cfg.Addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.cfg.Logger.Info("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; err != nil && !stderrors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

var clientIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// clientScope returns the cache key prefix for the calling client.
func clientScope(r *http.Request) string {
	id := r.Header.Get(HeaderClientID)
	if !clientIDPattern.MatchString(id) {
		id = "public"
	}
	return "client:" + id + ":"
}
