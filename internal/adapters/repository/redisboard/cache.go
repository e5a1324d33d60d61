// Package redisboard caches global leaderboard pages in Redis.
//
// The durable store stays authoritative for ordering; this cache only
// bounds read load. Pages are stored as JSON under a per-page key with a
// short TTL, and every key is tracked in a set so a recomputation run can
// invalidate the whole board at once. A cache failure is never surfaced to
// the caller: reads degrade to the store, writes are best-effort.
package redisboard

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mindtrain/rankengine/internal/domain/types"
	"github.com/mindtrain/rankengine/pkg/logger"
)

// Key layout.
const (
	keyPagePrefix = "rankengine:board:global:"
	keyPageSet    = "rankengine:board:global:keys"
)

const defaultTTL = 5 * time.Second

// Cache is a read-through page cache for the global leaderboard.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
	logger logger.Logger
}

// Option applies a configuration option to the Cache.
type Option func(*Cache)

// WithTTL bounds the staleness of cached pages.
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithLogger sets a custom logger for the cache.
func WithLogger(l logger.Logger) Option {
	return func(c *Cache) {
		if l != nil {
			c.logger = l
		}
	}
}

// New creates a Cache on an established Redis client.
func New(client *redis.Client, opts ...Option) *Cache {
	c := &Cache{
		client: client,
		ttl:    defaultTTL,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = logger.Get().Named("redisboard")
	}
	return c
}

// GetGlobalPage returns a cached page and whether it was present.
func (c *Cache) GetGlobalPage(ctx context.Context, limit, offset int) ([]types.Entry, bool) {
	raw, err := c.client.Get(ctx, pageKey(limit, offset)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn(ctx, "leaderboard cache read failed", logger.Error(err))
		}
		return nil, false
	}
	var entries []types.Entry
	if err := json.Unmarshal(raw, &entries); err != nil {
		c.logger.Warn(ctx, "leaderboard cache entry corrupt", logger.Error(err))
		return nil, false
	}
	return entries, true
}

// SetGlobalPage stores one page, best-effort.
func (c *Cache) SetGlobalPage(ctx context.Context, limit, offset int, entries []types.Entry) {
	raw, err := json.Marshal(entries)
	if err != nil {
		c.logger.Warn(ctx, "leaderboard cache encode failed", logger.Error(err))
		return
	}
	key := pageKey(limit, offset)
	pipe := c.client.TxPipeline()
	pipe.Set(ctx, key, raw, c.ttl)
	pipe.SAdd(ctx, keyPageSet, key)
	pipe.Expire(ctx, keyPageSet, 10*c.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		c.logger.Warn(ctx, "leaderboard cache write failed", logger.Error(err))
	}
}

// Invalidate drops every cached page. Called after a recomputation run so
// readers never see pre-recompute ordering for longer than one round trip.
func (c *Cache) Invalidate(ctx context.Context) {
	keys, err := c.client.SMembers(ctx, keyPageSet).Result()
	if err != nil {
		c.logger.Warn(ctx, "leaderboard cache invalidate failed", logger.Error(err))
		return
	}
	if len(keys) == 0 {
		return
	}
	keys = append(keys, keyPageSet)
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.logger.Warn(ctx, "leaderboard cache invalidate failed", logger.Error(err))
	}
}

func pageKey(limit, offset int) string {
	return fmt.Sprintf("%s%d:%d", keyPagePrefix, limit, offset)
}
