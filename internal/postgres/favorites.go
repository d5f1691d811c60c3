package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oklog/ulid/v2"
)

// Favorites is the per-user favorites table. Writes fire the
// favorites_changed notification through the table trigger.
type Favorites struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

// NewFavorites creates a favorites store on pool
func NewFavorites(pool *pgxpool.Pool) *Favorites {
	return &Favorites{pool: pool, now: time.Now}
}

func (s *Favorites) List(ctx context.Context, userID string) ([]string, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return nil, fmt.Errorf("list favorites: invalid user id %q: %w", userID, err)
	}
	rows, err := s.pool.Query(ctx,
		`SELECT component_id FROM user_favorites WHERE user_id = $1 ORDER BY created_at ASC, id ASC`, uid)
	if err != nil {
		return nil, fmt.Errorf("list favorites: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan favorite: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *Favorites) Add(ctx context.Context, userID string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	uid, err := uuid.Parse(userID)
	if err != nil {
		return fmt.Errorf("add favorites: invalid user id %q: %w", userID, err)
	}

	rowIDs := make([]string, len(ids))
	for i := range ids {
		rowIDs[i] = ulid.Make().String()
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO user_favorites (id, user_id, component_id, created_at)
		SELECT r.id, $2, r.component_id, $4
		FROM unnest($1::text[], $3::text[]) AS r(id, component_id)
		ON CONFLICT (user_id, component_id) DO NOTHING`,
		rowIDs, uid, ids, s.now().UTC())
	if err != nil {
		return fmt.Errorf("add favorites: %w", err)
	}
	return nil
}

func (s *Favorites) Remove(ctx context.Context, userID string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	uid, err := uuid.Parse(userID)
	if err != nil {
		return fmt.Errorf("remove favorites: invalid user id %q: %w", userID, err)
	}
	_, err = s.pool.Exec(ctx,
		`DELETE FROM user_favorites WHERE user_id = $1 AND component_id = ANY($2)`, uid, ids)
	if err != nil {
		return fmt.Errorf("remove favorites: %w", err)
	}
	return nil
}
