package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/shelf/internal/httpserver/deps"
	"github.com/MrSnakeDoc/shelf/internal/httpserver/mw"
	"github.com/MrSnakeDoc/shelf/internal/identity"
	"github.com/MrSnakeDoc/shelf/internal/logger"
)

type favoritesResponse struct {
	IDs []string `json:"ids"`
}

type favoritesRequest struct {
	IDs []string `json:"ids"`
}

// GetFavorites returns the caller's favorites. refresh=true forces a
// remote read for signed-in callers.
func GetFavorites(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		force := r.URL.Query().Get("refresh") == "true"

		ids, err := d.Favorites.Get(ctx, mw.Device(r), identity.FromContext(ctx), force)
		if err != nil {
			d.Logger.Error("failed to load favorites", logger.Error(err))
			writeError(w, http.StatusInternalServerError, "favorites_unavailable", err.Error())
			return
		}
		writeJSON(w, http.StatusOK, favoritesResponse{IDs: ids})
	}
}

// PutFavorites replaces the caller's favorites. The local copy is always
// written; synced=false reports a remote failure.
func PutFavorites(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var body favoritesRequest
		if !decodeBody(w, r, &body) {
			return
		}
		if body.IDs == nil {
			body.IDs = []string{}
		}

		res, err := d.Favorites.Save(ctx, mw.Device(r), body.IDs, identity.FromContext(ctx))
		if err != nil {
			d.Logger.Error("failed to save favorites", logger.Error(err))
			writeError(w, http.StatusInternalServerError, "favorites_unavailable", err.Error())
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}
