package redis

import (
	"context"
	"fmt"
	"strconv"
)

// IncrementUsage counts one insert of a component
func (s *Store) IncrementUsage(ctx context.Context, componentID string) error {
	if err := s.client.HIncrBy(ctx, UsageKey(), componentID, 1).Err(); err != nil {
		return fmt.Errorf("failed to increment usage: %w", err)
	}
	return nil
}

// GetUsageStats retrieves insert counts for all components
func (s *Store) GetUsageStats(ctx context.Context) (map[string]int64, error) {
	raw, err := s.client.HGetAll(ctx, UsageKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get usage stats: %w", err)
	}

	stats := make(map[string]int64, len(raw))
	for id, v := range raw {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			continue
		}
		stats[id] = n
	}
	return stats, nil
}
