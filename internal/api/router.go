package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

func NewRouter(apiHandler *APIHandler) http.Handler {
	r := chi.NewRouter()

	// Any origin is echoed back so credentialed browser requests work.
	r.Use(cors.Handler(cors.Options{
		AllowOriginFunc:  func(_ *http.Request, _ string) bool { return true },
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
		MaxAge:           600,
	}))
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)       // Basic request logging
	r.Use(middleware.Recoverer)    // Recover from panics
	r.Use(middleware.StripSlashes) // Ensure consistent path handling

	// All API routes will be under /api
	r.Route("/api", func(r chi.Router) {
		r.Get("/", apiHandler.RootHandler)
		r.Get("/health", apiHandler.HealthHandler)

		r.Post("/status", apiHandler.CreateStatusHandler)
		r.Get("/status", apiHandler.ListStatusHandler)

		r.Get("/scam-alerts", apiHandler.ScamAlertsHandler)
		r.Post("/chat", apiHandler.ChatHandler)
	})

	return r
}
