package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/MrSnakeDoc/shelf/internal/domain"
	"github.com/MrSnakeDoc/shelf/internal/index"
	"github.com/MrSnakeDoc/shelf/internal/logger"
)

func TestIndexJanitor_Collect(t *testing.T) {
	log := logger.Nop()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := now.Add(-30 * time.Hour)
	memIndex := index.NewMemoryIndex().WithClock(func() time.Time { return clock })

	// Seen 30 hours ago
	memIndex.Record([]domain.Component{{ID: "old-hero", Title: "Old Hero"}})

	// Seen 2 hours ago
	clock = now.Add(-2 * time.Hour)
	memIndex.Record([]domain.Component{{ID: "recent-button", Title: "Recent Button"}})

	// Seen now
	clock = now
	memIndex.Record([]domain.Component{{ID: "fresh-card", Title: "Fresh Card"}})

	janitor := NewIndexJanitor(memIndex, log, time.Hour, 24*time.Hour)
	janitor.now = func() time.Time { return now }

	removed := janitor.Collect(context.Background())
	if removed != 1 {
		t.Errorf("Expected 1 entry removed, got %d", removed)
	}

	if memIndex.Count() != 2 {
		t.Errorf("Expected 2 entries after cleanup, got %d", memIndex.Count())
	}
	if _, ok := memIndex.Get("recent-button"); !ok {
		t.Error("Recent entry was incorrectly removed")
	}
	if _, ok := memIndex.Get("fresh-card"); !ok {
		t.Error("Fresh entry was incorrectly removed")
	}
	if _, ok := memIndex.Get("old-hero"); ok {
		t.Error("Old entry was not removed")
	}
}

func TestIndexJanitor_DefaultTTL(t *testing.T) {
	janitor := NewIndexJanitor(index.NewMemoryIndex(), logger.Nop(), time.Hour, 0)
	if janitor.ttl != DefaultIndexTTL {
		t.Errorf("ttl = %v, want %v", janitor.ttl, DefaultIndexTTL)
	}
}
