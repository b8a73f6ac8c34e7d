// Package cache provides the Redis-backed cache plugin. It caches each
// user's task statistics and lends its connection to the HTTP rate limiter.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/example/task-tracker/domain/task"
	"github.com/go-monolith/mono/pkg/storage"
)

// StatsCache stores one task.Stats document per user.
type StatsCache struct {
	storage storage.Storage
	prefix  string
	ttl     time.Duration
}

// NewStatsCache creates a StatsCache over s. Entries live for ttl under
// prefix + "stats:" + user id.
func NewStatsCache(s storage.Storage, prefix string, ttl time.Duration) *StatsCache {
	return &StatsCache{storage: s, prefix: prefix, ttl: ttl}
}

// Key returns the storage key holding userID's stats.
func (c *StatsCache) Key(userID string) string {
	return c.prefix + "stats:" + userID
}

// Get returns the cached stats of userID and whether there were any.
func (c *StatsCache) Get(ctx context.Context, userID string) (task.Stats, bool, error) {
	key := c.Key(userID)

	data, err := c.storage.GetWithContext(ctx, key)
	if err != nil {
		return task.Stats{}, false, fmt.Errorf("cache get error: %w", err)
	}
	if len(data) == 0 {
		log.Printf("[cache] Miss key=%s", key)
		return task.Stats{}, false, nil
	}

	var stats task.Stats
	if err := json.Unmarshal(data, &stats); err != nil {
		return task.Stats{}, false, fmt.Errorf("cache unmarshal error: %w", err)
	}
	log.Printf("[cache] Hit key=%s", key)
	return stats, true, nil
}

// Put caches stats for userID with the default TTL.
func (c *StatsCache) Put(ctx context.Context, userID string, stats task.Stats) error {
	if stats.Recent == nil {
		stats.Recent = []task.Task{}
	}
	data, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("cache marshal error: %w", err)
	}
	if err := c.storage.SetWithContext(ctx, c.Key(userID), data, c.ttl); err != nil {
		return fmt.Errorf("cache set error: %w", err)
	}
	return nil
}

// Invalidate drops the cached stats of userID.
func (c *StatsCache) Invalidate(ctx context.Context, userID string) error {
	if err := c.storage.DeleteWithContext(ctx, c.Key(userID)); err != nil {
		return fmt.Errorf("cache delete error: %w", err)
	}
	return nil
}
