package server

import (
	"github.com/go-chi/chi/v5"

	"github.com/dataforge/dataforge/internal/server/handlers"
)

// registerRoutes registers all HTTP routes
func (s *Server) registerRoutes(deps Deps) {
	datasets := handlers.NewDatasetHandler(deps.Generator, deps.Datasets, deps.Metrics, s.logger)
	refContext := &handlers.ContextHandler{Builder: deps.Builder}

	health := handlers.NewHealthHandler()
	for _, c := range deps.Health {
		health.RegisterChecker(c.Name, c.Checker)
	}

	version := &handlers.VersionHandler{Info: deps.Version}
	metricsHandler := &handlers.MetricsHandler{Registry: deps.Metrics}

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Post("/datasets/generate", datasets.Generate)
		r.Get("/datasets", datasets.List)
		r.Get("/datasets/{id}", datasets.Get)
		r.Delete("/datasets/{id}", datasets.Delete)
		r.Get("/reference-context", refContext.Get)
	})

	s.router.Get("/healthz", health.Live)
	s.router.Get("/readyz", health.Ready)
	s.router.Get("/version", version.Get)
	s.router.Get("/metrics", metricsHandler.Get)
}
