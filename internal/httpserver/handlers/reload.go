package handlers

import (
	"net/http"
	"strconv"

	"github.com/MrSnakeDoc/shelf/internal/httpserver/deps"
	"github.com/MrSnakeDoc/shelf/internal/logger"
)

type reloadResponse struct {
	Triggered bool   `json:"triggered"`
	Flushed   *int   `json:"flushed,omitempty"`
	Message   string `json:"message"`
}

// Reload triggers a manual catalog warm. With flush=true every cached page
// is dropped first, so the warm starts from an empty cache.
func Reload(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if d.ReloadTrigger == nil {
			writeError(w, http.StatusServiceUnavailable, "reload_unavailable", "catalog warmer not running")
			return
		}

		var flushed *int
		if flush, _ := strconv.ParseBool(r.URL.Query().Get("flush")); flush {
			n, err := d.Catalog.FlushCache(r.Context())
			if err != nil {
				d.Logger.Error("catalog cache flush failed", logger.Error(err))
				writeError(w, http.StatusInternalServerError, "flush_failed", "could not flush the catalog cache")
				return
			}
			flushed = &n
		}

		select {
		case d.ReloadTrigger <- struct{}{}:
			d.Logger.Info("manual catalog reload triggered via endpoint",
				logger.String("remote_ip", r.RemoteAddr))
			writeJSON(w, http.StatusAccepted, reloadResponse{Triggered: true, Flushed: flushed, Message: "catalog reload triggered"})
		default:
			d.Logger.Warn("catalog reload already in progress",
				logger.String("remote_ip", r.RemoteAddr))
			writeJSON(w, http.StatusTooManyRequests, reloadResponse{Flushed: flushed, Message: "reload already in progress, please wait"})
		}
	}
}
