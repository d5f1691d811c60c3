package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/shelf/internal/httpserver/deps"
	"github.com/MrSnakeDoc/shelf/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/shelf/internal/httpserver/mw"
)

func init() { Register(registerOps) }

// registerOps mounts the probes and the manual reload. Liveness stays
// open for orchestrators; the rest sits behind the ops allowlists.
func registerOps(r chi.Router, d deps.Deps) {
	r.Get("/healthz", handlers.Healthz(d))
	r.With(mw.AllowOnlyCIDRS(d.AllowedCIDRS, d.TrustProxy, d.Logger)).Get("/readyz", handlers.Readyz(d))

	r.Group(func(ops chi.Router) {
		ops.Use(mw.OpsAccess(d.AllowedCIDRS, d.AllowedHosts, d.TrustProxy, d.Logger))
		ops.Get("/infra", handlers.Infra(d))
		ops.Post("/reload", handlers.Reload(d))
	})
}
