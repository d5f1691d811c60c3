package utils

import (
	"context"
	"fmt"
	"time"

	"github.com/MrSnakeDoc/shelf/internal/logger"
)

// RetryPolicy controls how long a dependency is pinged before giving up.
type RetryPolicy struct {
	ConnectTimeout time.Duration // total time allowed for attempts (ex: 30s)
	RetryInterval  time.Duration // initial wait between retries, doubles each time (ex: 2s)
	MaxWait        time.Duration // cap for the wait between retries (ex: 10s)
	PingTimeout    time.Duration // timeout of each attempt (ex: 2s)
	WarnThreshold  int           // attempts logged at warn before switching to error
}

// Validate rejects unusable policies.
func (p RetryPolicy) Validate() error {
	if p.ConnectTimeout <= 0 {
		return fmt.Errorf("ConnectTimeout must be > 0, got %v", p.ConnectTimeout)
	}
	if p.RetryInterval <= 0 {
		return fmt.Errorf("RetryInterval must be > 0, got %v", p.RetryInterval)
	}
	if p.MaxWait <= 0 {
		return fmt.Errorf("MaxWait must be > 0, got %v", p.MaxWait)
	}
	if p.PingTimeout <= 0 {
		return fmt.Errorf("PingTimeout must be > 0, got %v", p.PingTimeout)
	}
	if p.WarnThreshold < 0 {
		return fmt.Errorf("WarnThreshold must be >= 0, got %d", p.WarnThreshold)
	}
	return nil
}

// connectionLogger handles the logging of one dependency's connection loop.
type connectionLogger struct {
	logger  logger.Logger
	service string
	addr    string
}

func (cl *connectionLogger) logStart(timeout time.Duration) {
	cl.logger.Info("connecting to "+cl.service,
		logger.String("addr", cl.addr),
		logger.Duration("timeout", timeout))
}

func (cl *connectionLogger) logSuccess(attempts int, elapsed time.Duration) {
	if attempts > 1 {
		cl.logger.Warn("connected to "+cl.service+" after retry",
			logger.String("addr", cl.addr),
			logger.Int("attempts", attempts),
			logger.Duration("elapsed", elapsed))
	} else {
		cl.logger.Info("connected to "+cl.service,
			logger.String("addr", cl.addr))
	}
}

func (cl *connectionLogger) logTimeout(attempts int, timeout time.Duration, err error) {
	cl.logger.Error(cl.service+" unavailable - failed to connect after timeout",
		logger.String("addr", cl.addr),
		logger.Int("attempts", attempts),
		logger.Duration("timeout", timeout),
		logger.Error(err))
}

func (cl *connectionLogger) logRetry(attempt int, remaining, nextRetry time.Duration, warnThreshold int, err error) {
	switch {
	case remaining < 10*time.Second:
		cl.logger.Error(cl.service+" still down - retrying but timeout approaching",
			logger.String("addr", cl.addr),
			logger.Int("attempt", attempt),
			logger.Duration("remaining", remaining),
			logger.Duration("next_retry_in", nextRetry),
			logger.Error(err))
	case attempt <= warnThreshold:
		cl.logger.Warn(cl.service+" connection failed, retrying",
			logger.String("addr", cl.addr),
			logger.Int("attempt", attempt),
			logger.Duration("next_retry_in", nextRetry),
			logger.Error(err))
	default:
		cl.logger.Error(cl.service+" still unavailable - connection attempts failing",
			logger.String("addr", cl.addr),
			logger.Int("attempt", attempt),
			logger.Duration("next_retry_in", nextRetry),
			logger.Error(err))
	}
}

// PingWithRetry calls ping until it succeeds or the policy's total timeout
// is spent, backing off exponentially between attempts.
func PingWithRetry(ctx context.Context, service, addr string, policy RetryPolicy, ping func(context.Context) error, log logger.Logger) error {
	if err := policy.Validate(); err != nil {
		log.Error("invalid retry policy", logger.String("service", service), logger.Error(err))
		return err
	}
	cl := &connectionLogger{logger: log, service: service, addr: addr}

	ctx, cancel := context.WithTimeout(ctx, policy.ConnectTimeout)
	defer cancel()

	cl.logStart(policy.ConnectTimeout)
	attempt := 0
	wait := policy.RetryInterval

	for {
		attempt++

		pingCtx, pingCancel := context.WithTimeout(ctx, policy.PingTimeout)
		err := ping(pingCtx)
		pingCancel()

		if err == nil {
			cl.logSuccess(attempt, policy.ConnectTimeout-timeLeft(ctx))
			return nil
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			cl.logTimeout(attempt, policy.ConnectTimeout, err)
			return fmt.Errorf("%s unavailable at %s after %d attempts (timeout: %v): %w",
				service, addr, attempt, policy.ConnectTimeout, err)

		case <-timer.C:
			cl.logRetry(attempt, timeLeft(ctx), wait, policy.WarnThreshold, err)
			wait *= 2
			if wait > policy.MaxWait {
				wait = policy.MaxWait
			}
		}
	}
}

// timeLeft returns the remaining time before context deadline.
func timeLeft(ctx context.Context) time.Duration {
	deadline, ok := ctx.Deadline()
	if !ok {
		return 0
	}
	return time.Until(deadline)
}
