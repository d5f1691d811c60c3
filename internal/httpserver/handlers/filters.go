package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/shelf/internal/domain"
	"github.com/MrSnakeDoc/shelf/internal/httpserver/deps"
)

// Filters returns the category options shown for a content type.
func Filters(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ct, err := domain.ParseContentType(r.URL.Query().Get("type"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_type", err.Error())
			return
		}
		group, err := d.Catalog.Categories(ct)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_type", err.Error())
			return
		}
		writeJSON(w, http.StatusOK, group)
	}
}
