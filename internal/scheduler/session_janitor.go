package scheduler

import (
	"context"
	"time"

	"github.com/MrSnakeDoc/shelf/internal/logger"
)

// DefaultSweepInterval is used when no interval is configured
const DefaultSweepInterval = 5 * time.Minute

// SessionSweeper drops idle entitlement sessions.
type SessionSweeper interface {
	Sweep() int
	Len() int
}

// SessionJanitor periodically forgets entitlement sessions nobody uses
type SessionJanitor struct {
	sessions SessionSweeper
	logger   logger.Logger
	interval time.Duration
	stopCh   chan struct{}
}

// NewSessionJanitor creates a new session janitor
func NewSessionJanitor(sessions SessionSweeper, log logger.Logger, interval time.Duration) *SessionJanitor {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	return &SessionJanitor{
		sessions: sessions,
		logger:   log,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start sweeps on every tick until Stop or ctx is done
func (sj *SessionJanitor) Start(ctx context.Context) error {
	ticker := time.NewTicker(sj.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				sj.Collect()
			case <-sj.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
	return nil
}

// Stop stops the janitor
func (sj *SessionJanitor) Stop() {
	close(sj.stopCh)
}

// Collect runs one sweep and returns how many sessions were dropped
func (sj *SessionJanitor) Collect() int {
	removed := sj.sessions.Sweep()
	if removed > 0 {
		sj.logger.Info("idle sessions dropped",
			logger.Int("removed", removed),
			logger.Int("remaining", sj.sessions.Len()))
	}
	return removed
}
