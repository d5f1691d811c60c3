package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/shelf/internal/domain"
	"github.com/MrSnakeDoc/shelf/internal/httpserver/deps"
	"github.com/MrSnakeDoc/shelf/internal/identity"
	"github.com/MrSnakeDoc/shelf/internal/logger"
)

// parseFilter reads a catalog filter from query parameters.
// pro accepts true, false, or empty/"all" for no restriction.
func parseFilter(q url.Values) (domain.Filter, error) {
	ct, err := domain.ParseContentType(q.Get("type"))
	if err != nil {
		return domain.Filter{}, err
	}
	f := domain.Filter{
		Type:     ct,
		Category: q.Get("category"),
		Search:   q.Get("search"),
	}

	switch pro := strings.ToLower(strings.TrimSpace(q.Get("pro"))); pro {
	case "", "all":
	default:
		b, err := strconv.ParseBool(pro)
		if err != nil {
			return domain.Filter{}, fmt.Errorf("%w: pro must be true, false or all", domain.ErrInvalidFilter)
		}
		f.ProOnly = domain.Bool(b)
	}

	if p := q.Get("page"); p != "" {
		n, err := strconv.Atoi(p)
		if err != nil {
			return domain.Filter{}, fmt.Errorf("%w: page must be a number", domain.ErrInvalidFilter)
		}
		f.Page = n
	}
	return f, nil
}

// Components serves one catalog page. The caller waits at most the fetch
// timeout; past it the sample page is returned with a warning.
func Components(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f, err := parseFilter(r.URL.Query())
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_filter", err.Error())
			return
		}

		page, err := d.Catalog.FetchPageWithin(r.Context(), f, d.FetchTimeout)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_filter", err.Error())
			return
		}
		if d.MemoryIndex != nil {
			d.MemoryIndex.Record(page.Items)
		}
		if page.Warning != "" {
			d.Logger.Debug("catalog page degraded",
				logger.String("source", string(page.Source)),
				logger.String("type", string(f.Type)))
		}
		writeJSON(w, http.StatusOK, page)
	}
}

type useResponse struct {
	ID        string           `json:"id"`
	URL       string           `json:"url"`
	Component domain.Component `json:"component"`
}

// UseComponent gates drag and insert: free components always, Pro
// components only with a Pro entitlement.
func UseComponent(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		id := chi.URLParam(r, "id")

		c, err := d.Catalog.GetComponent(ctx, id)
		if err != nil {
			indexed, ok := domain.Component{}, false
			if d.MemoryIndex != nil {
				indexed, ok = d.MemoryIndex.Get(id)
			}
			switch {
			case ok:
				c = &indexed
			case errors.Is(err, domain.ErrNotFound):
				writeError(w, http.StatusNotFound, "not_found", "component "+id+" not found")
				return
			default:
				writeError(w, http.StatusBadGateway, "catalog_unavailable", err.Error())
				return
			}
		}

		ent := currentEntitlement(ctx, d, identity.FromContext(ctx), false)
		if !domain.CanUse(*c, ent.HasPro) {
			writeError(w, http.StatusForbidden, "pro_required", "this component requires a Pro plan")
			return
		}

		if d.MemoryIndex != nil {
			d.MemoryIndex.IncrementUses(c.ID)
		}
		if d.Usage != nil {
			if err := d.Usage.IncrementUsage(ctx, c.ID); err != nil {
				d.Logger.Warn("failed to record usage",
					logger.String("id", c.ID),
					logger.Error(err))
			}
		}

		writeJSON(w, http.StatusOK, useResponse{ID: c.ID, URL: c.ResolvedURL, Component: *c})
	}
}
