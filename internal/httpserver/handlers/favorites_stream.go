package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/MrSnakeDoc/shelf/internal/favorites"
	"github.com/MrSnakeDoc/shelf/internal/httpserver/deps"
	"github.com/MrSnakeDoc/shelf/internal/httpserver/mw"
	"github.com/MrSnakeDoc/shelf/internal/identity"
	"github.com/MrSnakeDoc/shelf/internal/logger"
)

const (
	streamWriteWait  = 10 * time.Second
	streamPongWait   = 60 * time.Second
	streamPingPeriod = (streamPongWait * 9) / 10
	streamSendBuffer = 8
)

type streamMessage struct {
	Type string   `json:"type"`
	IDs  []string `json:"ids"`
}

// FavoritesStream pushes the caller's favorites over a websocket: the
// current list first, then the full list after every remote change.
func FavoritesStream(d deps.Deps) http.HandlerFunc {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(d.AllowedOrigins),
	}

	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		id := identity.FromContext(ctx)
		device := mw.Device(r)

		initial, err := d.Favorites.Get(ctx, device, id, true)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "favorites_unavailable", err.Error())
			return
		}

		send := make(chan []byte, streamSendBuffer)
		push := func(kind string, ids []string) {
			msg, err := json.Marshal(streamMessage{Type: kind, IDs: ids})
			if err != nil {
				return
			}
			select {
			case send <- msg:
			default:
				// Slow reader; the next change carries the full list anyway.
			}
		}

		sub, err := d.Favorites.Watch(ctx, device, id, func(ids []string) { push("changed", ids) })
		if err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, favorites.ErrNoNotifier) {
				status = http.StatusNotImplemented
			}
			writeError(w, status, "stream_unavailable", err.Error())
			return
		}
		defer sub.Close()

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			d.Logger.Debug("websocket upgrade failed", logger.Error(err))
			return
		}
		defer conn.Close()

		d.Logger.Info("favorites stream opened",
			logger.String("user_id", id.ID),
			logger.String("subscription", sub.ID))

		push("snapshot", initial)

		closed := make(chan struct{})
		go func() {
			defer close(closed)
			conn.SetReadLimit(512)
			_ = conn.SetReadDeadline(time.Now().Add(streamPongWait))
			conn.SetPongHandler(func(string) error {
				return conn.SetReadDeadline(time.Now().Add(streamPongWait))
			})
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		ticker := time.NewTicker(streamPingPeriod)
		defer ticker.Stop()
		for {
			select {
			case msg := <-send:
				_ = conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
				if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
					return
				}
			case <-ticker.C:
				_ = conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			case <-closed:
				d.Logger.Info("favorites stream closed",
					logger.String("user_id", id.ID),
					logger.String("subscription", sub.ID))
				return
			case <-ctx.Done():
				return
			}
		}
	}
}

// originChecker allows same-origin requests and the configured CORS origins.
func originChecker(allowed []string) func(r *http.Request) bool {
	set := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		set[o] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || set["*"] || set[origin] {
			return true
		}
		return origin == "http://"+r.Host || origin == "https://"+r.Host
	}
}
