package domain

import (
	"strings"
	"time"
)

// PlanType is the commercial plan of a profile or license.
type PlanType string

const (
	PlanPro  PlanType = "PRO"
	PlanFree PlanType = "FREE"
)

// LicenseStatusActive is the only status granting access.
const LicenseStatusActive = "active"

// Identity is the signed-in user as asserted by the identity provider.
type Identity struct {
	ID    string `json:"id"`
	Email string `json:"email,omitempty"`
}

// Profile is the customer profile record, looked up by email.
type Profile struct {
	ID         string    `json:"id,omitempty"`
	Name       string    `json:"name,omitempty"`
	Email      string    `json:"email"`
	PlanType   PlanType  `json:"plan_type,omitempty"`
	LicenseKey string    `json:"license_key,omitempty"`
	Role       string    `json:"role,omitempty"`
	CreatedAt  time.Time `json:"created_at,omitempty"`
}

// IsPro reports whether the profile itself carries the Pro plan.
func (p *Profile) IsPro() bool {
	return p != nil && normalizePlan(p.PlanType) == PlanPro
}

// License is a license record. ExpiresAt nil means no expiry.
type License struct {
	ID        string     `json:"id,omitempty"`
	Key       string     `json:"key,omitempty"`
	UserID    string     `json:"user_id,omitempty"`
	Status    string     `json:"status"`
	PlanType  PlanType   `json:"plan_type"`
	ExpiresAt *time.Time `json:"expires_at"`
	CreatedAt time.Time  `json:"created_at,omitempty"`

	// Synthetic is set when the license view was derived from a Pro profile.
	Synthetic bool `json:"synthetic,omitempty"`
}

// Expired reports whether the license expiry lies in the past.
func (l *License) Expired(now time.Time) bool {
	return l != nil && l.ExpiresAt != nil && !l.ExpiresAt.After(now)
}

// Active reports whether the license is active at now. A past expiry
// overrides the stored status.
func (l *License) Active(now time.Time) bool {
	if l == nil {
		return false
	}
	if !strings.EqualFold(l.Status, LicenseStatusActive) {
		return false
	}
	return !l.Expired(now)
}

// IsPro reports whether the license grants Pro at now.
func (l *License) IsPro(now time.Time) bool {
	return l != nil && normalizePlan(l.PlanType) == PlanPro && l.Active(now)
}

// ProLicenseFromProfile is the license view synthesized for a Pro profile.
func ProLicenseFromProfile(p *Profile) *License {
	return &License{
		Key:       p.LicenseKey,
		Status:    LicenseStatusActive,
		PlanType:  PlanPro,
		Synthetic: true,
	}
}

// HasPro is the entitlement rule, most specific first:
// a Pro profile, then an active unexpired Pro license. No identity is never Pro.
func HasPro(id *Identity, profile *Profile, license *License, now time.Time) bool {
	if id == nil || id.ID == "" {
		return false
	}
	if profile.IsPro() {
		return true
	}
	return license.IsPro(now)
}

func normalizePlan(p PlanType) PlanType {
	return PlanType(strings.ToUpper(strings.TrimSpace(string(p))))
}
