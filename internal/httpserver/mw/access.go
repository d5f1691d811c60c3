package mw

import (
	"net"
	"net/http"
	"strings"

	"github.com/MrSnakeDoc/shelf/internal/logger"
	"github.com/MrSnakeDoc/shelf/internal/utils"
)

func passthrough(next http.Handler) http.Handler { return next }

// AllowOnlyCIDRS restricts a route to the listed IPs and CIDRs. An empty
// list lets everything through. trustProxy makes the client address come
// from proxy headers.
func AllowOnlyCIDRS(allowed []string, trustProxy bool, log logger.Logger) func(http.Handler) http.Handler {
	m := utils.NewIPMatcher(allowed)
	if m.IsEmpty() {
		return passthrough
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := utils.ClientIP(r, trustProxy)
			if !m.Allow(ip) {
				log.Debug("ops request rejected by address",
					logger.String("ip", ip),
					logger.String("path", r.URL.Path))
				reject(w, http.StatusForbidden, "forbidden", "address not allowed")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// EnforceHost restricts a route to the listed Host headers. "*.example.com"
// matches any subdomain. An empty list lets everything through.
func EnforceHost(allowedHosts []string, log logger.Logger) func(http.Handler) http.Handler {
	patterns := make([]string, 0, len(allowedHosts))
	for _, h := range allowedHosts {
		if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
			patterns = append(patterns, stripPort(h))
		}
	}
	if len(patterns) == 0 {
		return passthrough
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			host := strings.ToLower(stripPort(r.Host))
			for _, p := range patterns {
				if matchHost(host, p) {
					next.ServeHTTP(w, r)
					return
				}
			}
			log.Debug("ops request rejected by host",
				logger.String("host", host),
				logger.String("path", r.URL.Path))
			reject(w, http.StatusForbidden, "forbidden", "host not allowed")
		})
	}
}

// OpsAccess chains the address and host restrictions of ops endpoints.
func OpsAccess(cidrs, hosts []string, trustProxy bool, log logger.Logger) func(http.Handler) http.Handler {
	byAddr := AllowOnlyCIDRS(cidrs, trustProxy, log)
	byHost := EnforceHost(hosts, log)
	return func(next http.Handler) http.Handler {
		return byAddr(byHost(next))
	}
}

// stripPort drops a trailing :port, leaving bracketed IPv6 hosts intact.
func stripPort(host string) string {
	if h, _, err := net.SplitHostPort(host); err == nil {
		return h
	}
	return host
}

func matchHost(host, pattern string) bool {
	if host == pattern {
		return true
	}
	if suffix, ok := strings.CutPrefix(pattern, "*"); ok && strings.HasPrefix(suffix, ".") {
		return strings.HasSuffix(host, suffix)
	}
	return false
}
