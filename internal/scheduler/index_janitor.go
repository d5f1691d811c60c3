package scheduler

import (
	"context"
	"time"

	"github.com/MrSnakeDoc/shelf/internal/index"
	"github.com/MrSnakeDoc/shelf/internal/logger"
)

const (
	// DefaultIndexTTL is how long a component stays indexed without being served
	DefaultIndexTTL = 24 * time.Hour
)

// IndexJanitor drops index entries that stopped appearing in served pages
type IndexJanitor struct {
	index    *index.MemoryIndex
	logger   logger.Logger
	interval time.Duration
	ttl      time.Duration
	now      func() time.Time
	stopCh   chan struct{}
}

// NewIndexJanitor creates a new index janitor
func NewIndexJanitor(
	idx *index.MemoryIndex,
	log logger.Logger,
	interval time.Duration,
	ttl time.Duration,
) *IndexJanitor {
	if ttl == 0 {
		ttl = DefaultIndexTTL
	}

	return &IndexJanitor{
		index:    idx,
		logger:   log,
		interval: interval,
		ttl:      ttl,
		now:      time.Now,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the periodic cleanup
func (ij *IndexJanitor) Start(ctx context.Context) error {
	ij.Collect(ctx)

	ticker := time.NewTicker(ij.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				ij.Collect(ctx)
			case <-ij.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop stops the janitor
func (ij *IndexJanitor) Stop() {
	close(ij.stopCh)
}

// Collect removes entries older than the TTL and returns how many went
func (ij *IndexJanitor) Collect(_ context.Context) int {
	removed := ij.index.Prune(ij.now().Add(-ij.ttl))
	if removed > 0 {
		ij.logger.Info("index entries expired",
			logger.Int("removed", removed),
			logger.Int("remaining", ij.index.Count()),
			logger.Duration("ttl", ij.ttl))
	} else {
		ij.logger.Debug("no index entries to expire")
	}
	return removed
}
