// Package server provides the HTTP API for VisionQuery.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/aaryabookseller16/Vision-Query/internal/config"
	"github.com/aaryabookseller16/Vision-Query/internal/embedding"
	"github.com/aaryabookseller16/Vision-Query/internal/vector"
)

// WatchService exposes the directories being auto-ingested, for status
// reporting. Nil when watching is disabled.
type WatchService interface {
	Directories() []string
}

// Server is the HTTP server for the VisionQuery API. It orchestrates the
// lazy embedding loader and the vector index; the model loads on first
// ingest or search, not at startup, so the server accepts connections
// immediately.
type Server struct {
	index   *vector.Index
	loader  *embedding.Loader
	config  *config.Config
	logger  *zap.Logger
	watch   WatchService
	metrics *metrics
	server  *http.Server
}

// NewServer creates a server with the given dependencies. watch may be nil.
func NewServer(
	index *vector.Index,
	loader *embedding.Loader,
	cfg *config.Config,
	logger *zap.Logger,
	watch WatchService,
) *Server {
	return &Server{
		index:   index,
		loader:  loader,
		config:  cfg,
		logger:  logger,
		watch:   watch,
		metrics: newMetrics(),
	}
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.Handler(),
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Handler returns the full API handler with all middleware and routes, for
// serving or for tests.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(middleware.Compress(5))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.config.Server.CORSAllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
	}))
	r.Use(s.metrics.middleware)

	r.Post("/ingest/image", s.handleIngestImage)
	r.Post("/search", s.handleSearch)
	r.Get("/status", s.handleStatus)
	r.Get("/health", s.handleHealth)
	r.Get("/metrics", s.metrics.handler().ServeHTTP)
	return r
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
