package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter wires the JSON routes with logging, recovery and CORS.
func NewRouter(h *Handler, allowedOrigins []string) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(10 * time.Second))

	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"http://localhost:3000"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", h.HealthCheck)
	r.Get("/estimate", h.GetEstimate)
	r.Post("/advance", h.Advance)
	r.Post("/reset", h.Reset)
	r.Post("/start", h.Start)
	r.Post("/pause", h.Pause)
	r.Get("/quote", h.GetQuote)
	r.Get("/fund", h.GetFund)
	r.Put("/needle", h.SetNeedleLength)
	r.Put("/speed", h.SetSpeed)

	r.Route("/wager", func(r chi.Router) {
		r.Get("/", h.GetWager)
		r.Post("/", h.PlaceWager)
		r.Delete("/", h.CancelWager)
		r.Post("/resolve", h.ResolveWager)
	})

	return r
}
