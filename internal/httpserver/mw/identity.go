package mw

import (
	"net/http"
	"strings"

	"github.com/MrSnakeDoc/shelf/internal/favorites"
	"github.com/MrSnakeDoc/shelf/internal/identity"
	"github.com/MrSnakeDoc/shelf/internal/logger"
)

// DeviceHeader names the local favorites store of the caller.
const DeviceHeader = "X-Shelf-Device"

// Identity resolves the Authorization bearer token into the request
// context. Requests without a token continue anonymously; a token that
// fails verification is rejected with 401. Websocket clients cannot set
// headers, so an access_token query parameter is accepted as well.
func Identity(auth identity.Authenticator, log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := identity.BearerToken(r.Header.Get("Authorization"))
			if !ok {
				token = strings.TrimSpace(r.URL.Query().Get("access_token"))
				ok = token != ""
			}
			if !ok || auth == nil {
				next.ServeHTTP(w, r)
				return
			}

			id, err := auth.Authenticate(r.Context(), token)
			if err != nil {
				log.Debug("bearer token rejected", logger.Error(err))
				reject(w, http.StatusUnauthorized, "invalid_token", "sign in again")
				return
			}
			next.ServeHTTP(w, r.WithContext(identity.WithIdentity(r.Context(), id)))
		})
	}
}

// RequireIdentity rejects anonymous requests with 401.
func RequireIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if identity.FromContext(r.Context()) == nil {
			reject(w, http.StatusUnauthorized, "unauthenticated", "sign in required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Device returns the caller's device id, or the default device.
func Device(r *http.Request) string {
	if d := strings.TrimSpace(r.Header.Get(DeviceHeader)); d != "" {
		return d
	}
	if d := strings.TrimSpace(r.URL.Query().Get("device")); d != "" {
		return d
	}
	return favorites.DefaultDevice
}
