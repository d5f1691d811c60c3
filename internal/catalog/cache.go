package catalog

import (
	"context"
	"sync"
	"time"

	"github.com/MrSnakeDoc/shelf/internal/domain"
)

// Entry is a cached page: items, total count and capture time.
type Entry struct {
	Items      []domain.Component `json:"items"`
	Total      int                `json:"total"`
	CapturedAt time.Time          `json:"captured_at"`
}

// Fresh reports whether the entry is younger than ttl at now.
func (e Entry) Fresh(now time.Time, ttl time.Duration) bool {
	return now.Sub(e.CapturedAt) < ttl
}

// Cache stores pages by filter key. Staleness is decided by the caller,
// so implementations must keep stale entries around.
type Cache interface {
	Get(ctx context.Context, key string) (Entry, bool, error)
	Put(ctx context.Context, key string, e Entry) error
	FlushCatalog(ctx context.Context) (int, error)
}

// MemoryCache is the in-process Cache.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

// NewMemoryCache creates an empty in-process cache
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]Entry)}
}

func (c *MemoryCache) Get(_ context.Context, key string) (Entry, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	if !ok {
		return Entry{}, false, nil
	}
	e.Items = domain.CloneComponents(e.Items)
	return e, true, nil
}

func (c *MemoryCache) Put(_ context.Context, key string, e Entry) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	e.Items = domain.CloneComponents(e.Items)
	c.entries[key] = e
	return nil
}

// FlushCatalog drops every page and returns how many were held.
func (c *MemoryCache) FlushCatalog(_ context.Context) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := len(c.entries)
	c.entries = make(map[string]Entry)
	return n, nil
}

// Len returns the number of cached pages.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.entries)
}
