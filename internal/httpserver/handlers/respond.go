package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/MrSnakeDoc/shelf/internal/domain"
	"github.com/MrSnakeDoc/shelf/internal/entitlement"
	"github.com/MrSnakeDoc/shelf/internal/httpserver/deps"
)

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Error: code, Message: message})
}

// decodeBody reads a JSON body of at most 64 KiB into v.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 64<<10)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", err.Error())
		return false
	}
	return true
}

// currentEntitlement returns the session entitlement of id. The store is
// read again when the session is empty or stale, or when refresh is set.
func currentEntitlement(ctx context.Context, d deps.Deps, id *domain.Identity, refresh bool) entitlement.Entitlement {
	if id == nil || d.Entitlements == nil {
		return entitlement.Free()
	}
	if d.Sessions == nil {
		return d.Entitlements.Resolve(ctx, id)
	}

	st := d.Sessions.Get(id.ID)
	cur := st.Current()
	if refresh || cur.Identity == nil || cur.Identity.ID != id.ID || !d.Sessions.Fresh(st) {
		st.Apply(d.Entitlements.Resolve(ctx, id))
		cur = st.Current()
	}
	return cur
}
