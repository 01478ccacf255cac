package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/ternarybob/govspend/internal/handlers"
)

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() chi.Router {
	r := chi.NewRouter()

	// Outermost first: request IDs are assigned before logging sees the request
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggingMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.recoveryMiddleware)

	r.NotFound(s.app.APIHandler.NotFoundHandler)
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		handlers.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	r.Route("/api", func(r chi.Router) {
		// System
		r.Get("/health", s.app.APIHandler.HealthHandler)
		r.Get("/version", s.app.APIHandler.VersionHandler)

		// Analysis
		r.Post("/analyze", s.app.AnalysisHandler.AnalyzeHandler)
		r.Get("/companies", s.app.AnalysisHandler.CompaniesHandler)
		r.Get("/companies/{recipient}", s.app.AnalysisHandler.CompanyHandler)
		r.Post("/snapshot/refresh", s.app.AnalysisHandler.RefreshHandler)
		r.Get("/snapshots", s.app.AnalysisHandler.SnapshotsHandler)

		// Scheduler
		r.Get("/scheduler/jobs", s.app.SchedulerHandler.JobsHandler)
		r.Post("/scheduler/jobs/{name}/trigger", s.app.SchedulerHandler.TriggerHandler)
	})

	return r
}
