package entitlement

import (
	"context"
	"time"

	"github.com/MrSnakeDoc/shelf/internal/domain"
	"github.com/MrSnakeDoc/shelf/internal/logger"
)

// AccountStore reads profile and license records. Lookups that find
// nothing return nil and no error.
type AccountStore interface {
	LatestLicenseByUser(ctx context.Context, userID string) (*domain.License, error)
	LicenseByKey(ctx context.Context, key string) (*domain.License, error)
	ProfileByEmail(ctx context.Context, email string) (*domain.Profile, error)
}

// Entitlement is the resolved access state of one identity.
type Entitlement struct {
	Identity *domain.Identity `json:"identity,omitempty"`
	Profile  *domain.Profile  `json:"profile,omitempty"`
	License  *domain.License  `json:"license,omitempty"`
	HasPro   bool             `json:"has_pro"`
	Plan     domain.PlanType  `json:"plan"`
}

// Free is the entitlement of an anonymous caller.
func Free() Entitlement {
	return Entitlement{Plan: domain.PlanFree}
}

func compute(id *domain.Identity, profile *domain.Profile, license *domain.License, now time.Time) Entitlement {
	e := Entitlement{
		Identity: id,
		Profile:  profile,
		License:  license,
		HasPro:   domain.HasPro(id, profile, license, now),
		Plan:     domain.PlanFree,
	}
	if e.HasPro {
		e.Plan = domain.PlanPro
	}
	return e
}

// Resolver fetches the records behind an identity and derives HasPro.
type Resolver struct {
	store AccountStore
	now   func() time.Time
	log   logger.Logger
}

// NewResolver creates an entitlement resolver
func NewResolver(store AccountStore, log logger.Logger) *Resolver {
	return &Resolver{store: store, now: time.Now, log: log}
}

// WithClock replaces the resolver clock, used for expiry checks.
func (r *Resolver) WithClock(now func() time.Time) *Resolver {
	r.now = now
	return r
}

// Resolve never fails: lookup errors are logged and the affected record is
// treated as missing, so failures can only ever lower the plan to Free.
//
// License lookup order: latest license of the user, then a synthesized
// license for a Pro profile, then the license named by the profile key.
func (r *Resolver) Resolve(ctx context.Context, id *domain.Identity) Entitlement {
	if id == nil || id.ID == "" {
		return Free()
	}

	license, err := r.store.LatestLicenseByUser(ctx, id.ID)
	if err != nil {
		r.log.Warn("license lookup by user failed",
			logger.String("user_id", id.ID),
			logger.Error(err),
		)
		license = nil
	}

	var profile *domain.Profile
	if id.Email != "" {
		profile, err = r.store.ProfileByEmail(ctx, id.Email)
		if err != nil {
			r.log.Warn("profile lookup failed",
				logger.String("user_id", id.ID),
				logger.Error(err),
			)
			profile = nil
		}
	}

	if license == nil && profile != nil {
		switch {
		case profile.IsPro():
			license = domain.ProLicenseFromProfile(profile)
		case profile.LicenseKey != "":
			license, err = r.store.LicenseByKey(ctx, profile.LicenseKey)
			if err != nil {
				r.log.Warn("license lookup by key failed",
					logger.String("user_id", id.ID),
					logger.Error(err),
				)
				license = nil
			}
		}
	}

	e := compute(id, profile, license, r.now())
	r.log.Debug("entitlement resolved",
		logger.String("user_id", id.ID),
		logger.Bool("has_pro", e.HasPro),
	)
	return e
}
