package domain

import (
	"testing"
	"time"
)

func TestHasPro(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-24 * time.Hour)
	future := now.Add(24 * time.Hour)
	user := &Identity{ID: "2f0c7d8e-5b0a-4c57-9d8a-1f0e3b0a9c11", Email: "ada@example.com"}

	tests := []struct {
		name     string
		identity *Identity
		profile  *Profile
		license  *License
		want     bool
	}{
		{
			name:    "no identity is never pro",
			profile: &Profile{PlanType: PlanPro},
			license: &License{Status: "active", PlanType: PlanPro},
			want:    false,
		},
		{
			name:     "pro profile wins regardless of license",
			identity: user,
			profile:  &Profile{PlanType: PlanPro},
			license:  &License{Status: "revoked", PlanType: PlanFree, ExpiresAt: &past},
			want:     true,
		},
		{
			name:     "active pro license without expiry",
			identity: user,
			license:  &License{Status: "active", PlanType: PlanPro},
			want:     true,
		},
		{
			name:     "active pro license with future expiry",
			identity: user,
			profile:  &Profile{PlanType: PlanFree},
			license:  &License{Status: "active", PlanType: PlanPro, ExpiresAt: &future},
			want:     true,
		},
		{
			name:     "expired license with active status",
			identity: user,
			license:  &License{Status: "active", PlanType: PlanPro, ExpiresAt: &past},
			want:     false,
		},
		{
			name:     "inactive pro license",
			identity: user,
			license:  &License{Status: "cancelled", PlanType: PlanPro},
			want:     false,
		},
		{
			name:     "active free license",
			identity: user,
			license:  &License{Status: "active", PlanType: PlanFree},
			want:     false,
		},
		{
			name:     "lowercase plan is accepted",
			identity: user,
			profile:  &Profile{PlanType: "pro"},
			want:     true,
		},
		{
			name:     "no records",
			identity: user,
			want:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HasPro(tt.identity, tt.profile, tt.license, now); got != tt.want {
				t.Errorf("HasPro() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLicenseExpiredAtBoundary(t *testing.T) {
	now := time.Now()
	l := &License{Status: "active", PlanType: PlanPro, ExpiresAt: &now}
	if !l.Expired(now) {
		t.Error("license expiring exactly now should be expired")
	}
	if l.Active(now) {
		t.Error("license expiring exactly now should not be active")
	}
}

func TestProLicenseFromProfile(t *testing.T) {
	l := ProLicenseFromProfile(&Profile{PlanType: PlanPro, LicenseKey: "KEY-1"})
	if !l.Synthetic || l.ExpiresAt != nil || l.Status != LicenseStatusActive || l.PlanType != PlanPro {
		t.Errorf("unexpected synthesized license: %+v", l)
	}
	if !l.IsPro(time.Now()) {
		t.Error("synthesized license should grant pro")
	}
}
