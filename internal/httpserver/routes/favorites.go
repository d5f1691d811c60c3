package routes

import (
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/MrSnakeDoc/shelf/internal/httpserver/deps"
	"github.com/MrSnakeDoc/shelf/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/shelf/internal/httpserver/mw"
)

func init() { RegisterAPI(registerFavorites) }

func registerFavorites(r chi.Router, d deps.Deps) {
	timeout := middleware.Timeout(15 * time.Second)

	r.With(timeout).Get("/favorites", handlers.GetFavorites(d))
	r.With(timeout).Put("/favorites", handlers.PutFavorites(d))
	// Long-lived: no request timeout.
	r.With(mw.RequireIdentity).Get("/favorites/stream", handlers.FavoritesStream(d))
}
