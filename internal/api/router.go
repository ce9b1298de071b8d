package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/greenhouse-core/internal/auth"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.metricsMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	// Prometheus scrape endpoint (no auth required)
	r.Handle("/metrics", s.metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		// Health check (no auth required)
		r.Get("/health", s.handleHealth)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)

			r.Group(func(r chi.Router) {
				r.Use(s.requirePermission(auth.PermCatalogRead))

				r.Get("/system", s.handleSystem)
				r.Get("/catalog", s.handleGetCatalog)

				r.Route("/zones", func(r chi.Router) {
					r.Get("/", s.handleListZones)
					r.Get("/{id}/descendants", s.handleZoneDescendants)
					r.Get("/{id}/state", s.handleZoneState)
				})

				r.Get("/bus/store", s.handleBusStore)

				r.Get("/reports/day", s.handleDayReport)
				r.Get("/reports/week", s.handleWeekReport)
				r.Get("/reports/stored/{date}", s.handleStoredReport)

				r.Get("/forecast/{zone}", s.handleForecast)

				r.Get("/history/commands", s.handleCommandHistory)
				r.Get("/history/alerts", s.handleAlertHistory)

				r.Get("/ws", s.handleWebSocket)
			})

			r.With(s.requirePermission(auth.PermReadingWrite)).Post("/readings", s.handlePostReading)
			r.With(s.requirePermission(auth.PermBusPublish)).Post("/bus/events/{name}", s.handlePublishEvent)
			r.With(s.requirePermission(auth.PermReportRun)).Post("/reports/day", s.handleRunDayReport)
		})
	})

	return r
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	code := http.StatusOK
	checks := map[string]string{}

	if s.db != nil {
		if err := s.db.HealthCheck(r.Context()); err != nil {
			checks["database"] = err.Error()
			status = "degraded"
			code = http.StatusServiceUnavailable
		} else {
			checks["database"] = "ok"
		}
	}
	if s.mqtt != nil {
		if s.mqtt.IsConnected() {
			checks["mqtt"] = "ok"
		} else {
			checks["mqtt"] = "disconnected"
		}
	}
	if !s.catalog.Loaded() {
		checks["catalog"] = "not loaded"
	}

	writeJSON(w, code, map[string]any{
		"status":  status,
		"version": s.version,
		"checks":  checks,
	})
}
