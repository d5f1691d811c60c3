package routes

import (
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/MrSnakeDoc/shelf/internal/httpserver/deps"
	"github.com/MrSnakeDoc/shelf/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/shelf/internal/httpserver/mw"
)

func init() { RegisterAPI(registerAuth, middleware.Timeout(15*time.Second)) }

func registerAuth(r chi.Router, d deps.Deps) {
	r.Post("/auth/signin", handlers.SignIn(d))
	r.Post("/auth/signup", handlers.SignUp(d))
	r.With(mw.RequireIdentity).Post("/auth/signout", handlers.SignOut(d))
}
