package routes

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/MrSnakeDoc/bookmarko/internal/httpserver/deps"
	"github.com/MrSnakeDoc/bookmarko/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/bookmarko/internal/httpserver/mw"
)

func init() { Register(registerMessages) }

func registerMessages(r chi.Router, d deps.Deps) {
	r.With(
		mw.EnforceHost(d.AllowedHosts, d.Logger),
		middleware.Timeout(requestTimeout(d)),
		mw.RateLimit(mw.RateLimitConfig{
			Burst:             d.RateLimitBurst,
			RefillPerIPPerMin: d.RateLimitPerMin,
			MaxEntries:        10000,
			TrustProxy:        d.TrustProxy,
		}),
	).Post("/api/messages", handlers.Messages(d))
}
