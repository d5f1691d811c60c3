package postgres

import (
	"context"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oklog/ulid/v2"

	"github.com/MrSnakeDoc/shelf/internal/logger"
)

// FavoritesChannel is the NOTIFY channel written by the user_favorites trigger.
const FavoritesChannel = "favorites_changed"

// Listener holds one dedicated connection on LISTEN favorites_changed and
// fans notifications out to per-user subscribers.
type Listener struct {
	pool    *pgxpool.Pool
	log     logger.Logger
	backoff time.Duration

	mu   sync.Mutex
	subs map[string]map[string]func()
}

// NewListener creates a listener; Run must be started for delivery.
func NewListener(pool *pgxpool.Pool, log logger.Logger) *Listener {
	return &Listener{
		pool:    pool,
		log:     log,
		backoff: 2 * time.Second,
		subs:    make(map[string]map[string]func()),
	}
}

// Subscribe registers fn for changes of userID's favorites.
func (l *Listener) Subscribe(_ context.Context, userID string, fn func()) (func(), error) {
	key := ulid.Make().String()

	l.mu.Lock()
	if l.subs[userID] == nil {
		l.subs[userID] = make(map[string]func())
	}
	l.subs[userID][key] = fn
	l.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			defer l.mu.Unlock()
			delete(l.subs[userID], key)
			if len(l.subs[userID]) == 0 {
				delete(l.subs, userID)
			}
		})
	}, nil
}

// Subscribers returns the number of live subscriptions.
func (l *Listener) Subscribers() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, s := range l.subs {
		n += len(s)
	}
	return n
}

// dispatch calls every subscriber of userID outside the lock.
func (l *Listener) dispatch(userID string) {
	l.mu.Lock()
	fns := make([]func(), 0, len(l.subs[userID]))
	for _, fn := range l.subs[userID] {
		fns = append(fns, fn)
	}
	l.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// Run listens until ctx is done, reconnecting after connection failures.
func (l *Listener) Run(ctx context.Context) {
	l.log.Info("favorites listener started", logger.String("channel", FavoritesChannel))
	for {
		err := l.listen(ctx)
		if ctx.Err() != nil {
			l.log.Info("favorites listener stopped")
			return
		}
		l.log.Warn("favorites listener disconnected", logger.Error(err), logger.Duration("retry_in", l.backoff))

		select {
		case <-ctx.Done():
			return
		case <-time.After(l.backoff):
		}
	}
}

func (l *Listener) listen(ctx context.Context) error {
	conn, err := l.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	// A connection left in LISTEN state must not go back to the pool.
	defer func() {
		_ = conn.Conn().Close(context.Background())
		conn.Release()
	}()

	if _, err := conn.Exec(ctx, "LISTEN "+FavoritesChannel); err != nil {
		return err
	}

	for {
		n, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			return err
		}
		if n == nil || n.Payload == "" {
			continue
		}
		l.log.Debug("favorites changed", logger.String("user_id", n.Payload))
		l.dispatch(n.Payload)
	}
}
