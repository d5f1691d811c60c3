package supabase

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/MrSnakeDoc/shelf/internal/domain"
	"github.com/MrSnakeDoc/shelf/internal/logger"
)

const componentSelect = "*,component_urls(id,url,is_latest),component_assets(id,asset_type,file_path)"

type componentRow struct {
	ID          flexID  `json:"id"`
	Title       string  `json:"title"`
	Description *string `json:"description"`
	Type        string  `json:"type"`
	Category    *string `json:"category"`
	IsPro       bool    `json:"is_pro"`
	URLs        []struct {
		URL      string `json:"url"`
		IsLatest bool   `json:"is_latest"`
	} `json:"component_urls"`
	Assets []struct {
		AssetType string `json:"asset_type"`
		FilePath  string `json:"file_path"`
	} `json:"component_assets"`
}

// toComponent coerces a row. ok is false for rows that can't be served.
func (r componentRow) toComponent() (domain.Component, bool) {
	ct, err := domain.ParseContentType(r.Type)
	if err != nil || r.ID == "" || r.Title == "" {
		return domain.Component{}, false
	}
	c := domain.Component{
		ID:    string(r.ID),
		Title: r.Title,
		Type:  ct,
		IsPro: r.IsPro,
	}
	if r.Description != nil {
		c.Description = *r.Description
	}
	if r.Category != nil {
		c.Category = *r.Category
	}
	for _, u := range r.URLs {
		if u.IsLatest {
			c.URL = u.URL
			break
		}
	}
	if c.URL == "" && len(r.URLs) > 0 {
		c.URL = r.URLs[0].URL
	}
	for _, a := range r.Assets {
		if a.AssetType == "thumbnail" {
			c.Thumbnail = a.FilePath
			break
		}
	}
	return c, true
}

// filterQuery renders the filter conditions shared by the page and the
// count queries.
func filterQuery(f domain.Filter) url.Values {
	q := url.Values{}
	q.Set("type", "eq."+string(f.Type))

	if f.Category != "" {
		m := f.CategoryMatch()
		conds := make([]string, 0, len(m.Exact)+len(m.Contains))
		for _, e := range m.Exact {
			conds = append(conds, "category.ilike."+quote(escapeLike(e)))
		}
		for _, c := range m.Contains {
			conds = append(conds, "category.ilike."+quote("*"+escapeLike(c)+"*"))
		}
		q.Set("or", "("+strings.Join(conds, ",")+")")
	}
	if f.ProOnly != nil {
		q.Set("is_pro", "eq."+strconv.FormatBool(*f.ProOnly))
	}
	if f.Search != "" {
		q.Set("title", "ilike.*"+escapeLike(f.Search)+"*")
	}
	return q
}

// escapeLike neutralizes LIKE wildcards in user text. PostgREST turns *
// into %, so it is dropped.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`, `*`, "")

func (c *Client) QueryComponents(ctx context.Context, f domain.Filter) ([]domain.Component, int, error) {
	q := filterQuery(f)
	q.Set("select", componentSelect)
	q.Set("order", "title.asc")
	q.Set("offset", strconv.Itoa(f.Offset()))
	q.Set("limit", strconv.Itoa(f.PageSize))

	var rows []componentRow
	h, err := c.do(ctx, request{
		method: http.MethodGet,
		path:   restPath + "components",
		query:  q,
		prefer: []string{"count=exact"},
	}, &rows)
	if err != nil {
		return nil, 0, fmt.Errorf("query components: %w", err)
	}

	items := c.coerce(rows)
	total, err := parseContentRange(h)
	if err != nil {
		c.log.Warn("component count missing, using page length", logger.Error(err))
		total = f.Offset() + len(items)
	}
	return items, total, nil
}

func (c *Client) CountComponents(ctx context.Context, f domain.Filter) (int, error) {
	q := filterQuery(f)
	q.Set("select", "id")

	h, err := c.do(ctx, request{
		method: http.MethodHead,
		path:   restPath + "components",
		query:  q,
		prefer: []string{"count=exact"},
	}, nil)
	if err != nil {
		return 0, fmt.Errorf("count components: %w", err)
	}
	return parseContentRange(h)
}

func (c *Client) GetComponent(ctx context.Context, id string) (*domain.Component, error) {
	q := url.Values{}
	q.Set("select", componentSelect)
	q.Set("id", "eq."+id)
	q.Set("limit", "1")

	var rows []componentRow
	if _, err := c.do(ctx, request{method: http.MethodGet, path: restPath + "components", query: q}, &rows); err != nil {
		return nil, fmt.Errorf("get component: %w", err)
	}
	items := c.coerce(rows)
	if len(items) == 0 {
		return nil, domain.ErrNotFound
	}
	return &items[0], nil
}

func (c *Client) coerce(rows []componentRow) []domain.Component {
	items := make([]domain.Component, 0, len(rows))
	for _, row := range rows {
		comp, ok := row.toComponent()
		if !ok {
			c.log.Warn("dropping malformed component row",
				logger.String("id", string(row.ID)),
				logger.String("type", row.Type),
			)
			continue
		}
		items = append(items, comp)
	}
	return items
}
