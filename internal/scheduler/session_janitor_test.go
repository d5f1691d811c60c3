package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/MrSnakeDoc/shelf/internal/entitlement"
	"github.com/MrSnakeDoc/shelf/internal/logger"
)

func TestSessionJanitor_Collect(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	sessions := entitlement.NewSessions(func() time.Time { return now }).WithLimits(0, time.Hour)

	sessions.Get("idle")
	now = now.Add(50 * time.Minute)
	sessions.Get("active")
	now = now.Add(20 * time.Minute)

	janitor := NewSessionJanitor(sessions, logger.Nop(), time.Minute)
	if removed := janitor.Collect(); removed != 1 {
		t.Errorf("Expected 1 session removed, got %d", removed)
	}
	if sessions.Len() != 1 {
		t.Errorf("Expected 1 session left, got %d", sessions.Len())
	}
}

func TestSessionJanitor_StartStop(t *testing.T) {
	sessions := entitlement.NewSessions(nil)
	janitor := NewSessionJanitor(sessions, logger.Nop(), 0)
	if janitor.interval != DefaultSweepInterval {
		t.Errorf("interval = %v, want %v", janitor.interval, DefaultSweepInterval)
	}
	if err := janitor.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	janitor.Stop()
}
