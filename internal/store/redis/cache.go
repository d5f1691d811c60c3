package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/shelf/internal/catalog"
)

// Get returns the cached page for a filter key. A missing key is a miss,
// not an error.
func (s *Store) Get(ctx context.Context, filterKey string) (catalog.Entry, bool, error) {
	data, err := s.client.Get(ctx, CatalogKey(filterKey)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return catalog.Entry{}, false, nil
		}
		return catalog.Entry{}, false, fmt.Errorf("failed to get cached page: %w", err)
	}

	var entry catalog.Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return catalog.Entry{}, false, fmt.Errorf("failed to unmarshal cached page: %w", err)
	}
	return entry, true, nil
}

// Put stores a page for the retention period.
func (s *Store) Put(ctx context.Context, filterKey string, entry catalog.Entry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal page: %w", err)
	}
	if err := s.client.Set(ctx, CatalogKey(filterKey), data, s.retention).Err(); err != nil {
		return fmt.Errorf("failed to cache page: %w", err)
	}
	return nil
}

// FlushCatalog removes all cached pages and returns how many were deleted.
func (s *Store) FlushCatalog(ctx context.Context) (int, error) {
	deleted := 0
	iter := s.client.Scan(ctx, 0, KeyPrefixCatalog+"*", 0).Iterator()
	for iter.Next(ctx) {
		if err := s.client.Del(ctx, iter.Val()).Err(); err != nil {
			return deleted, fmt.Errorf("failed to delete cache key: %w", err)
		}
		deleted++
	}
	if err := iter.Err(); err != nil {
		return deleted, fmt.Errorf("failed to flush cache: %w", err)
	}
	return deleted, nil
}

// CachedPages returns every cached page, skipping entries that no longer
// decode.
func (s *Store) CachedPages(ctx context.Context) ([]catalog.Entry, error) {
	var pages []catalog.Entry
	iter := s.client.Scan(ctx, 0, KeyPrefixCatalog+"*", 0).Iterator()
	for iter.Next(ctx) {
		filterKey, err := ExtractFilterKey(iter.Val())
		if err != nil {
			continue
		}
		entry, ok, err := s.Get(ctx, filterKey)
		if err != nil || !ok {
			continue
		}
		pages = append(pages, entry)
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan cached pages: %w", err)
	}
	return pages, nil
}

var _ catalog.Cache = (*Store)(nil)
