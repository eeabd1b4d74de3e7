// Package server wires the chi router, middleware chain and API handlers
// into an http.Server with graceful shutdown.
package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/dataforge/dataforge/internal/config"
	apperrors "github.com/dataforge/dataforge/internal/errors"
	"github.com/dataforge/dataforge/internal/metrics"
	"github.com/dataforge/dataforge/internal/server/handlers"
	servermw "github.com/dataforge/dataforge/internal/server/middleware"
)

// Deps carries everything the HTTP layer needs from the rest of the app.
type Deps struct {
	Generator handlers.Generator
	Datasets  handlers.DatasetReader
	Builder   handlers.ContextBuilder
	Health    []NamedChecker
	Metrics   *metrics.Registry
	Logger    *zap.Logger
	Version   handlers.VersionInfo
}

// NamedChecker pairs a readiness check with its component name.
type NamedChecker struct {
	Name    string
	Checker handlers.HealthChecker
}

// Server is the HTTP front of the service.
type Server struct {
	router *chi.Mux
	server *http.Server
	cfg    config.ServerConfig
	logger *zap.Logger
}

// New builds a server with the full middleware chain and routes registered.
func New(cfg config.ServerConfig, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)

	// Order matters: correlate first, then count, then catch panics.
	r.Use(servermw.RequestID)
	r.Use(servermw.RequestMetrics(deps.Metrics, logger))
	r.Use(servermw.Recovery(logger))

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		handlers.WriteError(w, req, apperrors.NewNotFound("the requested resource was not found"))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		handlers.WriteError(w, req, apperrors.New(apperrors.CodeInvalidInput, "method not allowed for this resource"))
	})

	s := &Server{router: r, cfg: cfg, logger: logger}
	s.registerRoutes(deps)
	return s
}

// Start begins serving and blocks until the listener closes.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		IdleTimeout:  s.cfg.IdleTimeout,
	}

	s.logger.Info("starting http server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Shutdown gracefully drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}
