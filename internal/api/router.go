package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func NewRouter(apiHandler *APIHandler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)       // Basic request logging
	r.Use(middleware.Recoverer)    // Recover from panics
	r.Use(middleware.StripSlashes) // Ensure consistent path handling

	// All API routes live under /api
	r.Route("/api", func(r chi.Router) {
		r.Get("/health", apiHandler.HealthHandler)
		r.Get("/stats", apiHandler.StatsHandler)

		r.Post("/sessions", apiHandler.CreateSessionHandler)
		r.Post("/resolutions/{resolutionID}/feedback", apiHandler.FeedbackHandler)
		r.Get("/audio/{key}", apiHandler.AudioHandler)
	})

	return r
}
