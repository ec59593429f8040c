package routes

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/MrSnakeDoc/bookmarko/internal/httpserver/deps"
	"github.com/MrSnakeDoc/bookmarko/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/bookmarko/internal/httpserver/mw"
)

func init() { Register(registerBoard) }

func registerBoard(r chi.Router, d deps.Deps) {
	r.Route("/api/board", func(r chi.Router) {
		r.Use(mw.EnforceHost(d.AllowedHosts, d.Logger))

		// Long-lived, no request timeout
		r.Get("/events", handlers.Events(d))
		// Keystrokes, debounced per stream rather than rate limited
		r.With(middleware.Timeout(requestTimeout(d))).Put("/events/{client}/query", handlers.SearchQuery(d))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(requestTimeout(d)))
			r.Get("/", handlers.Board(d))

			r.Group(func(r chi.Router) {
				r.Use(mw.RateLimit(mw.RateLimitConfig{
					Burst:             d.RateLimitBurst,
					RefillPerIPPerMin: d.RateLimitPerMin,
					MaxEntries:        10000,
					TrustProxy:        d.TrustProxy,
				}))

				r.Post("/columns", handlers.AddColumn(d))
				r.Patch("/columns/{id}", handlers.UpdateColumn(d))
				r.Delete("/columns/{id}", handlers.DeleteColumn(d))
				r.Post("/columns/{id}/bookmarks", handlers.AddBookmark(d))

				r.Patch("/bookmarks/{id}", handlers.UpdateBookmark(d))
				r.Delete("/bookmarks/{id}", handlers.DeleteBookmark(d))
				r.Post("/bookmarks/{id}/cancel", handlers.CancelEdit(d))

				r.Post("/drop", handlers.Drop(d))
			})
		})
	})
}
