package supabase

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/MrSnakeDoc/shelf/internal/domain"
)

type profileRow struct {
	ID         flexID    `json:"id"`
	Name       *string   `json:"name"`
	Email      string    `json:"email"`
	PlanType   *string   `json:"plan_type"`
	LicenseKey *string   `json:"license_key"`
	Role       *string   `json:"role"`
	CreatedAt  time.Time `json:"created_at"`
}

func (r profileRow) toProfile() *domain.Profile {
	return &domain.Profile{
		ID:         string(r.ID),
		Name:       deref(r.Name),
		Email:      r.Email,
		PlanType:   domain.PlanType(deref(r.PlanType)),
		LicenseKey: deref(r.LicenseKey),
		Role:       deref(r.Role),
		CreatedAt:  r.CreatedAt,
	}
}

type licenseRow struct {
	ID        flexID     `json:"id"`
	Key       string     `json:"key"`
	UserID    *string    `json:"user_id"`
	Status    string     `json:"status"`
	PlanType  string     `json:"plan_type"`
	ExpiresAt *time.Time `json:"expires_at"`
	CreatedAt time.Time  `json:"created_at"`
}

func (r licenseRow) toLicense() *domain.License {
	return &domain.License{
		ID:        string(r.ID),
		Key:       r.Key,
		UserID:    deref(r.UserID),
		Status:    r.Status,
		PlanType:  domain.PlanType(r.PlanType),
		ExpiresAt: r.ExpiresAt,
		CreatedAt: r.CreatedAt,
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func (c *Client) LatestLicenseByUser(ctx context.Context, userID string) (*domain.License, error) {
	q := url.Values{}
	q.Set("select", "*")
	q.Set("user_id", "eq."+userID)
	q.Set("order", "created_at.desc")
	q.Set("limit", "1")
	return c.oneLicense(ctx, q)
}

func (c *Client) LicenseByKey(ctx context.Context, key string) (*domain.License, error) {
	q := url.Values{}
	q.Set("select", "*")
	q.Set("key", "eq."+key)
	q.Set("limit", "1")
	return c.oneLicense(ctx, q)
}

func (c *Client) oneLicense(ctx context.Context, q url.Values) (*domain.License, error) {
	var rows []licenseRow
	if _, err := c.do(ctx, request{method: http.MethodGet, path: restPath + "licenses", query: q}, &rows); err != nil {
		return nil, fmt.Errorf("fetch license: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0].toLicense(), nil
}

func (c *Client) ProfileByEmail(ctx context.Context, email string) (*domain.Profile, error) {
	q := url.Values{}
	q.Set("select", "*")
	q.Set("email", "eq."+email)
	q.Set("limit", "1")

	var rows []profileRow
	if _, err := c.do(ctx, request{method: http.MethodGet, path: restPath + "customer_profiles", query: q}, &rows); err != nil {
		return nil, fmt.Errorf("fetch profile: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0].toProfile(), nil
}
