// Package sqlite persists per-device favorites in a local SQLite file. It
// plays the role of the plugin's local storage: the only source of
// favorites while signed out, and the offline copy while signed in.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/MrSnakeDoc/shelf/internal/domain"
	"github.com/MrSnakeDoc/shelf/internal/favorites"
)

const schema = `
CREATE TABLE IF NOT EXISTS device_favorites (
    device       TEXT NOT NULL,
    position     INTEGER NOT NULL,
    component_id TEXT NOT NULL,
    saved_at     DATETIME DEFAULT CURRENT_TIMESTAMP,
    PRIMARY KEY(device, component_id)
);

CREATE INDEX IF NOT EXISTS idx_device_favorites_device ON device_favorites(device, position);
`

// Store is a favorites.LocalStore backed by SQLite.
type Store struct {
	db *sql.DB
}

var _ favorites.LocalStore = (*Store)(nil)

// Open creates the database file (and its directory) at path and applies
// the schema.
func Open(path string) (*Store, error) {
	if path == "" {
		path = "shelf-local.db"
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One writer at a time keeps SQLite out of "database is locked".
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Load returns the favorites of device in saved order. Unknown devices
// have no favorites.
func (s *Store) Load(ctx context.Context, device string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT component_id FROM device_favorites WHERE device = ? ORDER BY position`, device)
	if err != nil {
		return nil, fmt.Errorf("load favorites: %w", err)
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

// Save replaces the favorites of device with ids.
func (s *Store) Save(ctx context.Context, device string, ids []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save favorites: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM device_favorites WHERE device = ?`, device); err != nil {
		return fmt.Errorf("clear favorites: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO device_favorites (device, position, component_id) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, id := range domain.DedupeIDs(ids) {
		if _, err := stmt.ExecContext(ctx, device, i, id); err != nil {
			return fmt.Errorf("insert favorite %q: %w", id, err)
		}
	}
	return tx.Commit()
}

// Devices returns the number of devices with at least one favorite.
func (s *Store) Devices(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(DISTINCT device) FROM device_favorites`).Scan(&n)
	return n, err
}

// Ping checks the database handle.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	return s.db.Close()
}
