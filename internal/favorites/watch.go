package favorites

import (
	"context"
	"errors"
	"sync"

	"github.com/oklog/ulid/v2"

	"github.com/MrSnakeDoc/shelf/internal/domain"
	"github.com/MrSnakeDoc/shelf/internal/logger"
)

var ErrNoNotifier = errors.New("favorites notifications unavailable")

// Subscription is a live favorites feed. After Close returns no callback
// is running and none will start.
type Subscription struct {
	ID     string
	UserID string

	mu     sync.Mutex
	closed bool
	cancel func()
	once   sync.Once
}

// Close stops the feed. It must not be called from inside the callback.
func (sub *Subscription) Close() {
	sub.once.Do(func() {
		if sub.cancel != nil {
			sub.cancel()
		}
		sub.mu.Lock()
		sub.closed = true
		sub.mu.Unlock()
	})
}

// deliver runs fn unless the subscription is closed, holding the lock so
// Close waits for an in-flight callback.
func (sub *Subscription) deliver(fn func()) bool {
	sub.mu.Lock()
	defer sub.mu.Unlock()
	if sub.closed {
		return false
	}
	fn()
	return true
}

// Watch re-reads the remote favorites of id on every change signal,
// overwrites the local copy of device and hands the full list to fn.
func (s *Synchronizer) Watch(ctx context.Context, device string, id *domain.Identity, fn func([]string)) (*Subscription, error) {
	if !signedIn(id) {
		return nil, errors.New("watch favorites: identity required")
	}
	if s.notifier == nil || s.remote == nil {
		return nil, ErrNoNotifier
	}
	device = deviceOrDefault(device)

	sub := &Subscription{ID: ulid.Make().String(), UserID: id.ID}

	onChange := func() {
		sub.mu.Lock()
		closed := sub.closed
		sub.mu.Unlock()
		if closed {
			return
		}

		ids, err := s.remote.List(ctx, id.ID)
		if err != nil {
			s.log.Warn("favorites refresh after change failed",
				logger.String("user_id", id.ID),
				logger.String("subscription", sub.ID),
				logger.Error(err),
			)
			return
		}
		ids = domain.DedupeIDs(ids)

		sub.deliver(func() {
			if err := s.local.Save(ctx, device, ids); err != nil {
				s.log.Warn("local favorites write failed",
					logger.String("device", device),
					logger.Error(err),
				)
			}
			fn(ids)
		})
	}

	cancel, err := s.notifier.Subscribe(ctx, id.ID, onChange)
	if err != nil {
		return nil, err
	}
	sub.cancel = cancel

	s.log.Debug("favorites watch started",
		logger.String("user_id", id.ID),
		logger.String("subscription", sub.ID),
	)
	return sub, nil
}
