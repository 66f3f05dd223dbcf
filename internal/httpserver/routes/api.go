package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/jobwatch/internal/httpserver/deps"
	"github.com/MrSnakeDoc/jobwatch/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/jobwatch/internal/httpserver/mw"
)

func init() { Register("api", registerAPI) }

func registerAPI(r chi.Router, d deps.Deps) {
	writes := mw.RateLimit(mw.RateLimitConfig{
		Burst:             5,
		RefillPerIPPerMin: 10,
		MaxEntries:        1024,
		TrustProxy:        d.TrustProxy,
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(mw.AllowOnlyCIDRS(d.AllowedCIDRS, d.TrustProxy, d.Logger))
		r.Use(mw.EnforceHost(d.AllowedHosts, d.Logger))

		r.Get("/status", handlers.Status(d))
		r.With(writes).Post("/cycle", handlers.TriggerCycle(d))

		r.Get("/blacklist", handlers.ListBlacklist(d))
		r.With(writes).Post("/blacklist", handlers.AddBlacklist(d))
		r.With(writes).Delete("/blacklist", handlers.RemoveBlacklist(d))
	})
}
