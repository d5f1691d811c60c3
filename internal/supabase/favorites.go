package supabase

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

type favoriteRow struct {
	UserID      string    `json:"user_id"`
	ComponentID string    `json:"component_id"`
	CreatedAt   time.Time `json:"created_at"`
}

// Favorites is the user_favorites table seen as a favorites.RemoteStore.
type Favorites struct {
	c *Client
}

// Favorites returns the remote favorites store of the project.
func (c *Client) Favorites() *Favorites {
	return &Favorites{c: c}
}

func (f *Favorites) List(ctx context.Context, userID string) ([]string, error) {
	q := url.Values{}
	q.Set("select", "component_id")
	q.Set("user_id", "eq."+userID)
	q.Set("order", "created_at.asc")

	var rows []struct {
		ComponentID flexID `json:"component_id"`
	}
	if _, err := f.c.do(ctx, request{method: http.MethodGet, path: restPath + "user_favorites", query: q}, &rows); err != nil {
		return nil, fmt.Errorf("list favorites: %w", err)
	}
	ids := make([]string, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, string(r.ComponentID))
	}
	return ids, nil
}

func (f *Favorites) Add(ctx context.Context, userID string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	now := f.c.now().UTC()
	rows := make([]favoriteRow, 0, len(ids))
	for _, id := range ids {
		rows = append(rows, favoriteRow{UserID: userID, ComponentID: id, CreatedAt: now})
	}

	q := url.Values{}
	q.Set("on_conflict", "user_id,component_id")
	_, err := f.c.do(ctx, request{
		method: http.MethodPost,
		path:   restPath + "user_favorites",
		query:  q,
		body:   rows,
		prefer: []string{"return=minimal", "resolution=ignore-duplicates"},
	}, nil)
	if err != nil {
		return fmt.Errorf("add favorites: %w", err)
	}
	return nil
}

func (f *Favorites) Remove(ctx context.Context, userID string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	quoted := make([]string, 0, len(ids))
	for _, id := range ids {
		quoted = append(quoted, quote(id))
	}

	q := url.Values{}
	q.Set("user_id", "eq."+userID)
	q.Set("component_id", "in.("+strings.Join(quoted, ",")+")")
	_, err := f.c.do(ctx, request{
		method: http.MethodDelete,
		path:   restPath + "user_favorites",
		query:  q,
		prefer: []string{"return=minimal"},
	}, nil)
	if err != nil {
		return fmt.Errorf("remove favorites: %w", err)
	}
	return nil
}
