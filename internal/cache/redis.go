// Package cache holds short-lived copies of stats listings in Redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Curisan/anthropic-econ-index/internal/models"
)

const (
	keyPrefix     = "econ:stats"
	generationKey = keyPrefix + ":generation"
)

// NewRedisClient parses redisURL and verifies the server answers
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return client, nil
}

// StatsCache stores stats listings keyed by metric and limit. Invalidation bumps a
// generation counter so every older key becomes unreachable and expires on its own.
type StatsCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStatsCache creates a Redis-backed listing cache
func NewStatsCache(client *redis.Client, ttl time.Duration) *StatsCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &StatsCache{client: client, ttl: ttl}
}

func listingKey(generation int64, metric models.StatsMetric, limit int) string {
	return fmt.Sprintf("%s:%d:%s:%d", keyPrefix, generation, metric, limit)
}

func (c *StatsCache) generation(ctx context.Context) (int64, error) {
	gen, err := c.client.Get(ctx, generationKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read cache generation: %w", err)
	}
	return gen, nil
}

// GetStats returns a cached listing together with the generation it looked under.
// ok is false on a miss; the generation is still valid and is what SetStats must be
// given so a listing read before a rebuild never lands under the post-rebuild generation.
func (c *StatsCache) GetStats(ctx context.Context, metric models.StatsMetric, limit int) ([]models.OccupationStatValue, int64, bool, error) {
	gen, err := c.generation(ctx)
	if err != nil {
		return nil, 0, false, err
	}

	raw, err := c.client.Get(ctx, listingKey(gen, metric, limit)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, gen, false, nil
	}
	if err != nil {
		return nil, gen, false, fmt.Errorf("failed to read cached stats: %w", err)
	}

	var values []models.OccupationStatValue
	if err := json.Unmarshal(raw, &values); err != nil {
		return nil, gen, false, fmt.Errorf("failed to decode cached stats: %w", err)
	}
	return values, gen, true, nil
}

// SetStats stores a listing under generation, the value GetStats reported before the
// listing was read from the store. If a rebuild bumped the counter in between, the entry
// sits under a retired generation, is never read and expires with its TTL.
func (c *StatsCache) SetStats(ctx context.Context, generation int64, metric models.StatsMetric, limit int, values []models.OccupationStatValue) error {
	raw, err := json.Marshal(values)
	if err != nil {
		return fmt.Errorf("failed to encode stats: %w", err)
	}

	if err := c.client.Set(ctx, listingKey(generation, metric, limit), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write cached stats: %w", err)
	}
	return nil
}

// InvalidateStats drops every cached listing
func (c *StatsCache) InvalidateStats(ctx context.Context) error {
	if err := c.client.Incr(ctx, generationKey).Err(); err != nil {
		return fmt.Errorf("failed to bump cache generation: %w", err)
	}
	return nil
}

// PingContext checks if Redis is reachable
func (c *StatsCache) PingContext(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
