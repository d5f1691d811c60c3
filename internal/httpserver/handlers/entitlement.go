package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/shelf/internal/httpserver/deps"
	"github.com/MrSnakeDoc/shelf/internal/identity"
)

// Entitlement returns the caller's resolved plan. Anonymous callers are Free.
// refresh=true re-reads profile and license.
func Entitlement(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		refresh := r.URL.Query().Get("refresh") == "true"
		writeJSON(w, http.StatusOK, currentEntitlement(ctx, d, identity.FromContext(ctx), refresh))
	}
}
