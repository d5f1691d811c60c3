package entitlement

import (
	"testing"
	"time"

	"github.com/MrSnakeDoc/shelf/internal/domain"
)

func TestStateRecomputesOnChange(t *testing.T) {
	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	s := NewState(func() time.Time { return now })

	var got []bool
	unsubscribe := s.Subscribe(func(e Entitlement) { got = append(got, e.HasPro) })

	s.SetIdentity(&domain.Identity{ID: "u1"})
	s.SetLicense(&domain.License{Status: "active", PlanType: domain.PlanPro})
	s.SetLicense(&domain.License{Status: "cancelled", PlanType: domain.PlanPro})
	s.SetProfile(&domain.Profile{PlanType: domain.PlanPro})
	s.SetIdentity(nil)

	want := []bool{false, true, false, true, false}
	if len(got) != len(want) {
		t.Fatalf("got %d notifications, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("notification %d HasPro = %v, want %v", i, got[i], want[i])
		}
	}

	unsubscribe()
	unsubscribe()
	s.SetIdentity(&domain.Identity{ID: "u2"})
	if len(got) != len(want) {
		t.Error("callback ran after unsubscribe")
	}
}

func TestStateExpiryIsEvaluatedOnRead(t *testing.T) {
	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	clock := now
	s := NewState(func() time.Time { return clock })

	expires := now.Add(time.Minute)
	s.Apply(Entitlement{
		Identity: &domain.Identity{ID: "u1"},
		License:  &domain.License{Status: "active", PlanType: domain.PlanPro, ExpiresAt: &expires},
	})
	if !s.HasPro() {
		t.Fatal("license should be active before expiry")
	}

	clock = now.Add(2 * time.Minute)
	if s.HasPro() {
		t.Error("license should lapse once expired")
	}
}

func TestStateNewIdentityDropsRecords(t *testing.T) {
	s := NewState(nil)
	s.SetIdentity(&domain.Identity{ID: "u1"})
	s.SetProfile(&domain.Profile{PlanType: domain.PlanPro})
	if !s.HasPro() {
		t.Fatal("expected Pro for u1")
	}

	s.SetIdentity(&domain.Identity{ID: "u2"})
	if s.HasPro() {
		t.Error("profile of u1 leaked to u2")
	}
}

func TestSessions(t *testing.T) {
	sessions := NewSessions(nil)
	a := sessions.Get("u1")
	if sessions.Get("u1") != a {
		t.Fatal("Get should return the same state for a user")
	}
	a.Apply(Entitlement{Identity: &domain.Identity{ID: "u1"}, Profile: &domain.Profile{PlanType: domain.PlanPro}})

	var last *Entitlement
	a.Subscribe(func(e Entitlement) { last = &e })

	sessions.End("u1")
	if last == nil || last.HasPro {
		t.Errorf("subscribers should see Free after End, got %+v", last)
	}
	if sessions.Len() != 0 {
		t.Errorf("Len() = %d, want 0", sessions.Len())
	}
}

func TestSessionsFresh(t *testing.T) {
	now := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	sessions := NewSessions(func() time.Time { return now }).WithLimits(time.Minute, 0)

	st := sessions.Get("u1")
	if sessions.Fresh(st) {
		t.Fatal("a never resolved state must not be fresh")
	}

	st.Apply(Entitlement{Identity: &domain.Identity{ID: "u1"}})
	if !sessions.Fresh(st) {
		t.Error("a just resolved state should be fresh")
	}

	now = now.Add(time.Minute)
	if sessions.Fresh(st) {
		t.Error("state older than the max age should be stale")
	}

	st.SetIdentity(&domain.Identity{ID: "u2"})
	if !st.ResolvedAt().IsZero() {
		t.Error("a new identity should reset the resolve time")
	}
}

func TestSessionsSweep(t *testing.T) {
	now := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	sessions := NewSessions(func() time.Time { return now }).WithLimits(0, 10*time.Minute)

	sessions.Get("idle")
	watched := sessions.Get("watched")
	unsubscribe := watched.Subscribe(func(Entitlement) {})
	now = now.Add(15 * time.Minute)
	sessions.Get("recent")

	if removed := sessions.Sweep(); removed != 1 {
		t.Errorf("Sweep() = %d, want 1", removed)
	}
	if sessions.Len() != 2 {
		t.Errorf("Len() = %d, want 2", sessions.Len())
	}

	unsubscribe()
	if removed := sessions.Sweep(); removed != 1 {
		t.Errorf("Sweep() after unsubscribe = %d, want 1", removed)
	}
	if sessions.Len() != 1 {
		t.Errorf("Len() = %d, want only the recent session", sessions.Len())
	}
}
