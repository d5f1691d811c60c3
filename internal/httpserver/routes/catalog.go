package routes

import (
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/MrSnakeDoc/shelf/internal/httpserver/deps"
	"github.com/MrSnakeDoc/shelf/internal/httpserver/handlers"
)

func init() { RegisterAPI(registerCatalog) }

func registerCatalog(r chi.Router, d deps.Deps) {
	// The handler answers by FetchTimeout; the extra margin covers encoding.
	timeout := middleware.Timeout(d.FetchTimeout + 5*time.Second)

	r.With(timeout).Get("/catalog/filters", handlers.Filters(d))
	r.With(timeout).Get("/components", handlers.Components(d))
	r.With(timeout).Post("/components/{id}/use", handlers.UseComponent(d))
	r.With(timeout).Get("/me/entitlement", handlers.Entitlement(d))
}
