package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// Health check (no auth required)
		r.Get("/health", s.handleHealth)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)

			// Rule document
			r.Route("/document", func(r chi.Router) {
				r.Get("/", s.handleGetDocument)
				r.Put("/", s.handlePutDocument)
			})

			// Dry-run operations on a candidate document
			r.Route("/rules", func(r chi.Router) {
				r.Post("/preview", s.handlePreview)
				r.Post("/validate", s.handleValidate)
			})

			// Per-entity exposure reasoning
			r.Get("/entities/{id}/reason", s.handleEntityReason)

			// Sync control
			r.Route("/sync", func(r chi.Router) {
				r.Post("/", s.handleSync)
				r.Get("/history", s.handleSyncHistory)
			})
		})
	})

	return r
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
	})
}
