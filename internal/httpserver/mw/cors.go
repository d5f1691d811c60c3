package mw

import (
	"net/http"
	"strings"

	"github.com/go-chi/cors"
)

// CORS answers preflights and sets the CORS headers for allowed origins.
// "*" allows any origin; the request origin is echoed back so credentialed
// calls from plugin iframes keep working. An empty list disables CORS.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	origins := make([]string, 0, len(allowedOrigins))
	allowAll := false
	for _, o := range allowedOrigins {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		switch o {
		case "":
		case "*":
			allowAll = true
		default:
			origins = append(origins, strings.ToLower(o))
		}
	}
	if !allowAll && len(origins) == 0 {
		return passthrough
	}

	opts := cors.Options{
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", DeviceHeader, "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id", "Retry-After", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           600,
	}
	if allowAll {
		opts.AllowOriginFunc = func(_ *http.Request, _ string) bool { return true }
	} else {
		opts.AllowedOrigins = origins
	}
	return cors.Handler(opts)
}
