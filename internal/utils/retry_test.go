package utils

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/MrSnakeDoc/shelf/internal/logger"
)

func fastPolicy() RetryPolicy {
	return RetryPolicy{
		ConnectTimeout: 200 * time.Millisecond,
		RetryInterval:  5 * time.Millisecond,
		MaxWait:        20 * time.Millisecond,
		PingTimeout:    50 * time.Millisecond,
		WarnThreshold:  2,
	}
}

func TestPingWithRetrySucceedsAfterFailures(t *testing.T) {
	attempts := 0
	ping := func(context.Context) error {
		attempts++
		if attempts < 3 {
			return errors.New("connection refused")
		}
		return nil
	}

	if err := PingWithRetry(context.Background(), "postgres", "db:5432", fastPolicy(), ping, logger.New("error", false)); err != nil {
		t.Fatalf("PingWithRetry() error = %v", err)
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
}

func TestPingWithRetryGivesUp(t *testing.T) {
	down := errors.New("connection refused")
	err := PingWithRetry(context.Background(), "redis", "cache:6379", fastPolicy(),
		func(context.Context) error { return down }, logger.New("error", false))
	if !errors.Is(err, down) {
		t.Errorf("error = %v, want wrapped ping error", err)
	}
}

func TestRetryPolicyValidate(t *testing.T) {
	bad := fastPolicy()
	bad.MaxWait = 0
	if err := bad.Validate(); err == nil {
		t.Error("expected error for zero MaxWait")
	}
	bad = fastPolicy()
	bad.WarnThreshold = -1
	if err := bad.Validate(); err == nil {
		t.Error("expected error for negative WarnThreshold")
	}
}
