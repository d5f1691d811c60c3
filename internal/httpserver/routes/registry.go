package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/shelf/internal/httpserver/deps"
	"github.com/MrSnakeDoc/shelf/internal/httpserver/mw"
)

type (
	Registrar  func(r chi.Router, d deps.Deps)
	Middleware = func(http.Handler) http.Handler
)

type entry struct {
	reg Registrar
	mws []Middleware
	api bool
}

var registry []entry

// Register a root-level registrar with optional per-route middlewares.
func Register(reg Registrar, mws ...Middleware) {
	registry = append(registry, entry{reg: reg, mws: mws})
}

// RegisterAPI registers under /api, behind the identity middleware and
// the rate limiter.
func RegisterAPI(reg Registrar, mws ...Middleware) {
	registry = append(registry, entry{reg: reg, mws: mws, api: true})
}

// Called once from server.New()
func RegisterAll(r chi.Router, d deps.Deps) {
	mount := func(r chi.Router, e entry) {
		if len(e.mws) == 0 {
			e.reg(r, d)
			return
		}
		e.reg(r.With(e.mws...), d) // apply per-route middlewares
	}

	for _, e := range registry {
		if !e.api {
			mount(r, e)
		}
	}

	r.Route("/api", func(api chi.Router) {
		api.Use(mw.Identity(d.Authenticator, d.Logger))
		api.Use(mw.RateLimit(mw.RateLimitConfig{
			Burst:        d.RateLimitBurst,
			RefillPerMin: d.RateLimitPerMin,
			MaxEntries:   10000,
			TrustProxy:   d.TrustProxy,
		}))
		for _, e := range registry {
			if e.api {
				mount(api, e)
			}
		}
	})
}
