// Package server exposes run health, recent articles and metrics over HTTP.
package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"newscycle/internal/config"
	"newscycle/internal/core"
	"newscycle/internal/logger"
	"newscycle/internal/metrics"
	"newscycle/internal/persistence"
)

// JobSchedule reports upcoming scheduled runs
type JobSchedule interface {
	Jobs() []string
	Next(name string) (time.Time, bool)
}

// Option customizes a Server
type Option func(*Server)

// WithSchedule exposes scheduled job times on /api/status
func WithSchedule(s JobSchedule) Option {
	return func(srv *Server) { srv.schedule = s }
}

// WithImages serves a local image directory under prefix
func WithImages(dir, prefix string) Option {
	return func(srv *Server) {
		srv.imageDir = dir
		srv.imagePrefix = "/" + strings.Trim(prefix, "/")
	}
}

// ArticleReader produces spoken audio for an article
type ArticleReader interface {
	Article(ctx context.Context, a *core.Article) ([]byte, error)
}

// WithAudio serves article audio on /api/articles/{id}/audio
func WithAudio(reader ArticleReader) Option {
	return func(srv *Server) { srv.audio = reader }
}

// Server represents the HTTP server
type Server struct {
	router      *chi.Mux
	httpServer  *http.Server
	db          persistence.Database
	config      config.Server
	schedule    JobSchedule
	audio       ArticleReader
	imageDir    string
	imagePrefix string
	started     time.Time
}

// New creates a new HTTP server instance
func New(db persistence.Database, cfg config.Server, opts ...Option) *Server {
	s := &Server{
		router:  chi.NewRouter(),
		db:      db,
		config:  cfg,
		started: time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.setupMiddleware()
	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:         cfg.Addr(),
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return s
}

// setupMiddleware configures middleware for the server
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(requestLogger)
	s.router.Use(middleware.Recoverer)

	timeout := s.config.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	s.router.Use(middleware.Timeout(timeout))
	s.router.Use(securityHeaders)
}

// setupRoutes configures routes for the server
func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)
	s.router.Method(http.MethodGet, "/metrics", metrics.Handler())

	s.router.Route("/api", func(r chi.Router) {
		r.Use(noCache)
		r.Get("/status", s.handleStatus)
		r.Route("/articles", func(r chi.Router) {
			r.Get("/", s.handleListArticles)
			r.Get("/{id}", s.handleGetArticle)
			if s.audio != nil {
				r.Get("/{id}/audio", s.handleArticleAudio)
			}
		})
	})

	if s.imageDir != "" {
		fs := http.StripPrefix(s.imagePrefix, http.FileServer(http.Dir(s.imageDir)))
		s.router.With(cacheStaticAssets).Get(s.imagePrefix+"/*", fs.ServeHTTP)
	}
}

// Start starts the HTTP server
func (s *Server) Start() error {
	logger.Info("Starting HTTP server",
		"addr", s.httpServer.Addr,
		"read_timeout", s.config.ReadTimeout.String(),
		"write_timeout", s.config.WriteTimeout.String(),
	)

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed to start: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	logger.Info("Shutting down HTTP server gracefully...")

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	logger.Info("HTTP server stopped")
	return nil
}

// Router returns the chi router instance (useful for testing)
func (s *Server) Router() *chi.Mux {
	return s.router
}
