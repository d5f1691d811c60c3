package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultRetention is how long a cached page survives in Redis. Much longer
// than the freshness TTL so stale pages can still serve as a fallback.
const DefaultRetention = 24 * time.Hour

// Store handles Redis operations for cached catalog pages and usage counters
type Store struct {
	client    *redis.Client
	retention time.Duration
}

// NewStore creates a new Redis store
func NewStore(client *redis.Client, retention time.Duration) *Store {
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &Store{
		client:    client,
		retention: retention,
	}
}

// Ping checks the connection, for readiness probes.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
