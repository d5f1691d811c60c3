package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/MrSnakeDoc/shelf/internal/domain"
)

// Accounts reads customer profiles and licenses.
type Accounts struct {
	pool *pgxpool.Pool
}

// NewAccounts creates an account store on pool
func NewAccounts(pool *pgxpool.Pool) *Accounts {
	return &Accounts{pool: pool}
}

const licenseColumns = `id, key, COALESCE(user_id::text, ''), status, plan_type, expires_at, created_at`

func scanLicense(row pgx.Row) (*domain.License, error) {
	var (
		l       domain.License
		plan    string
		expires *time.Time
	)
	err := row.Scan(&l.ID, &l.Key, &l.UserID, &l.Status, &plan, &expires, &l.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan license: %w", err)
	}
	l.PlanType = domain.PlanType(plan)
	l.ExpiresAt = expires
	return &l, nil
}

func (s *Accounts) LatestLicenseByUser(ctx context.Context, userID string) (*domain.License, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return nil, nil
	}
	return scanLicense(s.pool.QueryRow(ctx,
		"SELECT "+licenseColumns+" FROM licenses WHERE user_id = $1 ORDER BY created_at DESC LIMIT 1", uid))
}

func (s *Accounts) LicenseByKey(ctx context.Context, key string) (*domain.License, error) {
	return scanLicense(s.pool.QueryRow(ctx,
		"SELECT "+licenseColumns+" FROM licenses WHERE key = $1 LIMIT 1", key))
}

func (s *Accounts) ProfileByEmail(ctx context.Context, email string) (*domain.Profile, error) {
	var (
		p    domain.Profile
		plan string
	)
	err := s.pool.QueryRow(ctx, `
		SELECT id, COALESCE(name, ''), email, COALESCE(plan_type, ''),
		       COALESCE(license_key, ''), COALESCE(role, ''), created_at
		FROM customer_profiles WHERE lower(email) = lower($1) LIMIT 1`, email).
		Scan(&p.ID, &p.Name, &p.Email, &plan, &p.LicenseKey, &p.Role, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("fetch profile: %w", err)
	}
	p.PlanType = domain.PlanType(plan)
	return &p, nil
}
