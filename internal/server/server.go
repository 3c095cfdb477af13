// Package server exposes the process's readiness over HTTP.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
)

// Config holds server configuration.
type Config struct {
	Port int
}

// Status is the readiness report returned by the health routes. It is
// recomputed per request, never cached.
type Status struct {
	Ready       bool      `json:"ready"`
	LastRefresh time.Time `json:"last_refresh,omitzero"`
	Uptime      string    `json:"uptime"`
	Documents   int       `json:"documents"`
}

// StatusFunc produces the current Status.
type StatusFunc func() Status

// Server is the health/readiness HTTP server. Readiness tracks only
// whether the dispatcher's event loop is running; a stale knowledge base
// is degraded quality, not an outage, and never fails a health check.
type Server struct {
	cfg        Config
	status     StatusFunc
	router     chi.Router
	httpServer *http.Server
	logger     zerolog.Logger
}

// New creates a Server reporting readiness via status.
func New(cfg Config, status StatusFunc, logger zerolog.Logger) *Server {
	s := &Server{
		cfg:    cfg,
		status: status,
		logger: logger.With().Str("component", "server").Logger(),
	}
	s.router = s.buildRouter()
	return s
}

// buildRouter creates and configures the chi router.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(10 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	// Platform health probes hit different paths depending on how the
	// service is deployed; all three answer identically.
	r.Get("/", s.handleHealth)
	r.Get("/health", s.handleHealth)
	r.Get("/healthz", s.handleHealth)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	st := s.status()

	code := http.StatusOK
	if !st.Ready {
		code = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(st)
}

// Router returns the chi router, mainly for tests.
func (s *Server) Router() chi.Router { return s.router }

// Start begins listening on the configured port and blocks until the
// server stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.cfg.Port)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	s.logger.Info().Str("addr", addr).Msg("health server listening")
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}
