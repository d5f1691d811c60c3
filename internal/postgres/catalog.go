package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/MrSnakeDoc/shelf/internal/domain"
)

// Catalog reads components straight from the database.
type Catalog struct {
	pool *pgxpool.Pool
}

// NewCatalog creates a catalog store on pool
func NewCatalog(pool *pgxpool.Pool) *Catalog {
	return &Catalog{pool: pool}
}

const componentColumns = `
	c.id, c.title, COALESCE(c.description, ''), c.type, COALESCE(c.category, ''), c.is_pro,
	COALESCE((SELECT u.url FROM component_urls u
	          WHERE u.component_id = c.id
	          ORDER BY u.is_latest DESC, u.id ASC LIMIT 1), ''),
	COALESCE((SELECT a.file_path FROM component_assets a
	          WHERE a.component_id = c.id AND a.asset_type = 'thumbnail'
	          ORDER BY a.id ASC LIMIT 1), '')`

// whereClause renders the filter as SQL conditions and positional args.
func whereClause(f domain.Filter) (string, []any) {
	conds := []string{"c.type = $1"}
	args := []any{string(f.Type)}

	if f.Category != "" {
		m := f.CategoryMatch()
		patterns := make([]string, 0, len(m.Contains))
		for _, c := range m.Contains {
			patterns = append(patterns, "%"+escapeLike(c)+"%")
		}
		args = append(args, m.Exact, patterns)
		conds = append(conds, fmt.Sprintf("(lower(c.category) = ANY($%d) OR c.category ILIKE ANY($%d))", len(args)-1, len(args)))
	}
	if f.ProOnly != nil {
		args = append(args, *f.ProOnly)
		conds = append(conds, fmt.Sprintf("c.is_pro = $%d", len(args)))
	}
	if f.Search != "" {
		args = append(args, "%"+escapeLike(f.Search)+"%")
		conds = append(conds, fmt.Sprintf("c.title ILIKE $%d", len(args)))
	}
	return strings.Join(conds, " AND "), args
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func (s *Catalog) QueryComponents(ctx context.Context, f domain.Filter) ([]domain.Component, int, error) {
	where, args := whereClause(f)
	args = append(args, f.PageSize, f.Offset())
	query := fmt.Sprintf(`
		SELECT %s, count(*) OVER()
		FROM components c
		WHERE %s
		ORDER BY c.title ASC, c.id ASC
		LIMIT $%d OFFSET $%d`, componentColumns, where, len(args)-1, len(args))

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query components: %w", err)
	}
	defer rows.Close()

	var (
		items []domain.Component
		total int64
	)
	for rows.Next() {
		var c domain.Component
		var ct string
		if err := rows.Scan(&c.ID, &c.Title, &c.Description, &ct, &c.Category, &c.IsPro, &c.URL, &c.Thumbnail, &total); err != nil {
			return nil, 0, fmt.Errorf("scan component: %w", err)
		}
		c.Type = domain.ContentType(ct)
		items = append(items, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("query components: %w", err)
	}

	// Past the last page the window count is lost with the rows.
	if len(items) == 0 && f.Offset() > 0 {
		n, err := s.CountComponents(ctx, f)
		if err != nil {
			return nil, 0, err
		}
		return []domain.Component{}, n, nil
	}
	return items, int(total), nil
}

func (s *Catalog) CountComponents(ctx context.Context, f domain.Filter) (int, error) {
	where, args := whereClause(f)
	var n int64
	err := s.pool.QueryRow(ctx, "SELECT count(*) FROM components c WHERE "+where, args...).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count components: %w", err)
	}
	return int(n), nil
}

func (s *Catalog) GetComponent(ctx context.Context, id string) (*domain.Component, error) {
	var c domain.Component
	var ct string
	err := s.pool.QueryRow(ctx, "SELECT "+componentColumns+" FROM components c WHERE c.id = $1", id).
		Scan(&c.ID, &c.Title, &c.Description, &ct, &c.Category, &c.IsPro, &c.URL, &c.Thumbnail)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get component: %w", err)
	}
	c.Type = domain.ContentType(ct)
	return &c, nil
}

// UpsertComponent writes a component and makes url its latest asset url.
// Used to seed a fresh database from the sample dataset.
func (s *Catalog) UpsertComponent(ctx context.Context, c domain.Component) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, `
		INSERT INTO components (id, title, description, type, category, is_pro)
		VALUES ($1, $2, NULLIF($3, ''), $4, NULLIF($5, ''), $6)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title, description = EXCLUDED.description,
			type = EXCLUDED.type, category = EXCLUDED.category, is_pro = EXCLUDED.is_pro`,
		c.ID, c.Title, c.Description, string(c.Type), c.Category, c.IsPro)
	if err != nil {
		return fmt.Errorf("upsert component: %w", err)
	}

	if c.URL != "" {
		if _, err := tx.Exec(ctx, `UPDATE component_urls SET is_latest = FALSE WHERE component_id = $1`, c.ID); err != nil {
			return fmt.Errorf("reset latest url: %w", err)
		}
		if _, err := tx.Exec(ctx, `INSERT INTO component_urls (component_id, url, is_latest) VALUES ($1, $2, TRUE)`, c.ID, c.URL); err != nil {
			return fmt.Errorf("insert url: %w", err)
		}
	}
	if c.Thumbnail != "" {
		if _, err := tx.Exec(ctx, `DELETE FROM component_assets WHERE component_id = $1 AND asset_type = 'thumbnail'`, c.ID); err != nil {
			return fmt.Errorf("reset thumbnail: %w", err)
		}
		if _, err := tx.Exec(ctx, `INSERT INTO component_assets (component_id, asset_type, file_path) VALUES ($1, 'thumbnail', $2)`, c.ID, c.Thumbnail); err != nil {
			return fmt.Errorf("insert thumbnail: %w", err)
		}
	}
	return tx.Commit(ctx)
}

// Seed inserts items when the catalog is empty and reports how many rows
// were written.
func (s *Catalog) Seed(ctx context.Context, items []domain.Component) (int, error) {
	var n int64
	if err := s.pool.QueryRow(ctx, "SELECT count(*) FROM components").Scan(&n); err != nil {
		return 0, fmt.Errorf("count components: %w", err)
	}
	if n > 0 {
		return 0, nil
	}
	for i, c := range items {
		if err := s.UpsertComponent(ctx, c); err != nil {
			return i, err
		}
	}
	return len(items), nil
}
