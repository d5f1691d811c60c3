package handlers

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/MrSnakeDoc/shelf/internal/httpserver/deps"
	"github.com/MrSnakeDoc/shelf/internal/logger"
)

type componentStatus struct {
	OK         bool   `json:"ok"`
	Mode       string `json:"mode,omitempty"`
	Count      *int   `json:"count,omitempty"`
	LastRecord string `json:"last_record,omitempty"`
	Impact     string `json:"impact,omitempty"`
	Error      string `json:"error,omitempty"`
}

type infraResponse struct {
	ServingMode string                     `json:"serving_mode"`
	Components  map[string]componentStatus `json:"components"`
	Usage       map[string]int64           `json:"usage,omitempty"`
}

// Infra reports the state of every dependency and the resulting serving mode.
func Infra(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		components := checkDependencies(r.Context(), d)

		if d.MemoryIndex != nil {
			count := d.MemoryIndex.Count()
			last := "never"
			if t := d.MemoryIndex.LastRecord(); !t.IsZero() {
				last = t.Format("2006-01-02 15:04:05")
			}
			components["index"] = componentStatus{OK: true, Count: &count, LastRecord: last}
		}
		if d.Sessions != nil {
			n := d.Sessions.Len()
			components["sessions"] = componentStatus{OK: true, Count: &n}
		}

		var usage map[string]int64
		if d.Usage != nil {
			stats, err := d.Usage.GetUsageStats(r.Context())
			if err != nil {
				d.Logger.Warn("failed to read usage stats", logger.Error(err))
				components["usage"] = componentStatus{OK: false, Error: err.Error()}
			} else {
				n := len(stats)
				components["usage"] = componentStatus{OK: true, Count: &n}
				usage = stats
			}
		}

		cache := components["cache"]
		cache.Mode = d.CacheMode
		if _, pinged := components["cache"]; !pinged {
			cache.OK = true
		}
		components["cache"] = cache

		writeJSON(w, http.StatusOK, infraResponse{
			ServingMode: determineServingMode(components),
			Components:  components,
			Usage:       usage,
		})
	}
}

// checkDependencies pings every registered dependency concurrently.
func checkDependencies(ctx context.Context, d deps.Deps) map[string]componentStatus {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	type result struct {
		name string
		err  error
	}
	results := make(chan result, len(d.Ready))
	for name, ping := range d.Ready {
		go func() { results <- result{name: name, err: ping(ctx)} }()
	}

	components := make(map[string]componentStatus, len(d.Ready)+3)
	for range d.Ready {
		res := <-results
		st := componentStatus{OK: res.err == nil, Mode: "optimal"}
		if res.err != nil {
			st.Mode = "degraded"
			st.Error = res.err.Error()
			st.Impact = impactOf(res.name)
		}
		components[res.name] = st
	}
	return components
}

func impactOf(name string) string {
	switch name {
	case "backend":
		return "serving-cached-or-sample-components"
	case "cache":
		return "shared-cache-disabled"
	case "local":
		return "favorites-unavailable"
	}
	return "unknown"
}

func determineServingMode(components map[string]componentStatus) string {
	if local, ok := components["local"]; ok && !local.OK {
		return "critical"
	}
	if backend, ok := components["backend"]; ok && !backend.OK {
		return "fallback"
	}
	if cache, ok := components["cache"]; ok && !cache.OK {
		return "degraded"
	}
	return "live"
}

// failing returns the sorted names of the dependencies that did not answer.
func failing(components map[string]componentStatus) []string {
	var names []string
	for name, st := range components {
		if !st.OK {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}
