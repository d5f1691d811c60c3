package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/shelf/internal/httpserver/deps"
	"github.com/MrSnakeDoc/shelf/internal/version"
)

type healthzResponse struct {
	Status        string  `json:"status"`
	UptimeSeconds float64 `json:"uptime_seconds"`
	Backend       string  `json:"backend,omitempty"`
	CacheMode     string  `json:"cache_mode,omitempty"`
	version.Info
}

// Healthz is the liveness probe; it never touches a dependency.
func Healthz(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, healthzResponse{
			Status:        "ok",
			UptimeSeconds: d.Now().Sub(d.StartTime).Seconds(),
			Backend:       d.Backend,
			CacheMode:     d.CacheMode,
			Info:          d.Build,
		})
	}
}

type readyzResponse struct {
	Ready   bool     `json:"ready"`
	Failing []string `json:"failing,omitempty"`
}

// Readyz reports ready when the local store answers. The catalog backend
// and the shared cache have fallbacks, so their failures are listed
// without failing the probe.
func Readyz(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		components := checkDependencies(r.Context(), d)
		resp := readyzResponse{Ready: true, Failing: failing(components)}

		status := http.StatusOK
		if local, ok := components["local"]; ok && !local.OK {
			resp.Ready = false
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, resp)
	}
}
