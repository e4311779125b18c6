// Package cache provides the Redis-backed read cache for item timelines.
// The cache is an optimization only: the database stays the source of truth,
// and callers treat cache errors as misses.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/pkordes/figure-timeline/internal/domain"
)

// RedisTimelineCache stores each item's sorted timeline as one JSON value
// under a key that carries the item's current generation. The generation
// counter lives in its own key, never expires, and is bumped on every
// invalidation; values written under an older generation are unreachable
// and age out with the TTL.
type RedisTimelineCache struct {
	client redis.Cmdable
	ttl    time.Duration
}

// NewRedisClient parses a redis:// URL and verifies the server answers.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("cache.NewRedisClient: parse url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("cache.NewRedisClient: ping: %w", err)
	}
	return client, nil
}

// NewRedisTimelineCache constructs a cache whose entries expire after ttl.
// A zero ttl keeps entries until they are invalidated.
func NewRedisTimelineCache(client redis.Cmdable, ttl time.Duration) *RedisTimelineCache {
	return &RedisTimelineCache{client: client, ttl: ttl}
}

// Generation returns the current cache generation of itemID. An item that
// was never invalidated is at generation 0.
func (c *RedisTimelineCache) Generation(ctx context.Context, itemID int64) (int64, error) {
	gen, err := c.client.Get(ctx, generationKey(itemID)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("cache.RedisTimelineCache.Generation: %w", err)
	}
	return gen, nil
}

// Get returns the timeline of itemID cached under gen. The bool is false on a miss.
func (c *RedisTimelineCache) Get(ctx context.Context, itemID, gen int64) ([]domain.TimelineEntry, bool, error) {
	data, err := c.client.Get(ctx, timelineKey(itemID, gen)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("cache.RedisTimelineCache.Get: %w", err)
	}

	var entries []domain.TimelineEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, false, fmt.Errorf("cache.RedisTimelineCache.Get: decode: %w", err)
	}
	return entries, true, nil
}

// Set stores the timeline of itemID under gen. Callers pass the generation
// they read before loading entries; if an invalidation happened since, the
// value lands under a stale key and is never returned.
func (c *RedisTimelineCache) Set(ctx context.Context, itemID, gen int64, entries []domain.TimelineEntry) error {
	if entries == nil {
		entries = []domain.TimelineEntry{}
	}
	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("cache.RedisTimelineCache.Set: encode: %w", err)
	}
	if err := c.client.Set(ctx, timelineKey(itemID, gen), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache.RedisTimelineCache.Set: %w", err)
	}
	return nil
}

// Invalidate bumps the generation of itemID and drops the value cached under
// the previous one.
func (c *RedisTimelineCache) Invalidate(ctx context.Context, itemID int64) error {
	gen, err := c.client.Incr(ctx, generationKey(itemID)).Result()
	if err != nil {
		return fmt.Errorf("cache.RedisTimelineCache.Invalidate: %w", err)
	}
	if err := c.client.Del(ctx, timelineKey(itemID, gen-1)).Err(); err != nil {
		return fmt.Errorf("cache.RedisTimelineCache.Invalidate: %w", err)
	}
	return nil
}

func generationKey(itemID int64) string {
	return fmt.Sprintf("item:%d:gen", itemID)
}

func timelineKey(itemID, gen int64) string {
	return fmt.Sprintf("item:%d:timeline:%d", itemID, gen)
}
