package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/MrSnakeDoc/shelf/internal/domain"
	"github.com/MrSnakeDoc/shelf/internal/logger"
)

// DefaultPollInterval is used when no interval is configured
const DefaultPollInterval = 15 * time.Second

// FavoritesLister reads the remote favorites of a user.
type FavoritesLister interface {
	List(ctx context.Context, userID string) ([]string, error)
}

type watchedUser struct {
	subs   map[string]func()
	last   []string
	primed bool
}

// FavoritesPoller signals favorites changes for backends without a push
// channel by polling the remote list of every watched user.
type FavoritesPoller struct {
	remote   FavoritesLister
	logger   logger.Logger
	interval time.Duration
	stopCh   chan struct{}

	mu    sync.Mutex
	users map[string]*watchedUser
}

// NewFavoritesPoller creates a new favorites poller
func NewFavoritesPoller(remote FavoritesLister, log logger.Logger, interval time.Duration) *FavoritesPoller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &FavoritesPoller{
		remote:   remote,
		logger:   log,
		interval: interval,
		stopCh:   make(chan struct{}),
		users:    make(map[string]*watchedUser),
	}
}

// Subscribe registers fn for changes of userID's favorites. The current
// remote list becomes the baseline when it can be read.
func (fp *FavoritesPoller) Subscribe(ctx context.Context, userID string, fn func()) (func(), error) {
	key := ulid.Make().String()

	fp.mu.Lock()
	u, ok := fp.users[userID]
	if !ok {
		u = &watchedUser{subs: make(map[string]func())}
		fp.users[userID] = u
	}
	u.subs[key] = fn
	primed := u.primed
	fp.mu.Unlock()

	if !primed {
		if ids, err := fp.remote.List(ctx, userID); err == nil {
			fp.mu.Lock()
			if !u.primed {
				u.last, u.primed = ids, true
			}
			fp.mu.Unlock()
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			fp.mu.Lock()
			defer fp.mu.Unlock()
			delete(u.subs, key)
			if len(u.subs) == 0 && fp.users[userID] == u {
				delete(fp.users, userID)
			}
		})
	}, nil
}

// Start polls on every tick until Stop or ctx is done
func (fp *FavoritesPoller) Start(ctx context.Context) error {
	ticker := time.NewTicker(fp.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				fp.Poll(ctx)
			case <-fp.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
	return nil
}

// Stop stops the poller
func (fp *FavoritesPoller) Stop() {
	close(fp.stopCh)
}

// Poll reads every watched user once and fires the subscribers of those
// whose favorites changed. It returns the number of users that changed.
func (fp *FavoritesPoller) Poll(ctx context.Context) int {
	fp.mu.Lock()
	userIDs := make([]string, 0, len(fp.users))
	for id := range fp.users {
		userIDs = append(userIDs, id)
	}
	fp.mu.Unlock()

	changed := 0
	for _, userID := range userIDs {
		ids, err := fp.remote.List(ctx, userID)
		if err != nil {
			fp.logger.Warn("favorites poll failed",
				logger.String("user_id", userID),
				logger.Error(err))
			continue
		}

		fp.mu.Lock()
		u, ok := fp.users[userID]
		if !ok {
			fp.mu.Unlock()
			continue
		}
		fire := u.primed && !domain.SameFavorites(ids, u.last)
		u.last, u.primed = ids, true
		fns := make([]func(), 0, len(u.subs))
		if fire {
			for _, fn := range u.subs {
				fns = append(fns, fn)
			}
		}
		fp.mu.Unlock()

		if fire {
			changed++
			fp.logger.Debug("favorites changed remotely", logger.String("user_id", userID))
			for _, fn := range fns {
				fn()
			}
		}
	}
	return changed
}

// Watched returns the number of users currently polled
func (fp *FavoritesPoller) Watched() int {
	fp.mu.Lock()
	defer fp.mu.Unlock()
	return len(fp.users)
}
