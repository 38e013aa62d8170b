package cache

import (
	"context"
	"encoding/json"
	"time"
)

// l1RepopulateTTL bounds how long an entry promoted from Redis lives in the
// memory layer. Redis keeps the authoritative expiry; a short L1 window
// keeps the layers from drifting apart.
const l1RepopulateTTL = 5 * time.Minute

// LayeredCache implements two-level cache (L1: Memory, L2: Redis).
type LayeredCache struct {
	memCache   *MemoryCache
	redisCache *RedisCache
}

// NewLayeredCache creates a layered cache with memory and Redis.
func NewLayeredCache(redisCache *RedisCache, opts ...LayeredOption) *LayeredCache {
	cfg := &LayeredConfig{MemoryMaxSize: 1000}
	for _, opt := range opts {
		opt(cfg)
	}

	return &LayeredCache{
		memCache:   NewMemoryCache(WithMemoryMaxSize(cfg.MemoryMaxSize)),
		redisCache: redisCache,
	}
}

// Set writes through: Redis first, then memory.
func (lc *LayeredCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	if err := lc.redisCache.Set(ctx, key, value, expiration); err != nil {
		return err
	}
	_ = lc.memCache.Set(ctx, key, value, expiration)
	return nil
}

// Get reads L1 first and falls back to Redis, repopulating L1 on a hit.
func (lc *LayeredCache) Get(ctx context.Context, key string, dest interface{}) error {
	if err := lc.memCache.Get(ctx, key, dest); err == nil {
		return nil
	}

	if err := lc.redisCache.Get(ctx, key, dest); err != nil {
		return err
	}

	lc.promote(ctx, key, dest)
	return nil
}

// promote copies a Redis hit into the memory layer. A marshaled snapshot is
// stored, not the caller's pointer, so later mutations of dest cannot leak
// into the cached value.
func (lc *LayeredCache) promote(ctx context.Context, key string, dest interface{}) {
	b, err := json.Marshal(dest)
	if err != nil {
		return
	}
	_ = lc.memCache.Set(ctx, key, json.RawMessage(b), l1RepopulateTTL)
}

func (lc *LayeredCache) Delete(ctx context.Context, keys ...string) error {
	_ = lc.memCache.Delete(ctx, keys...)
	return lc.redisCache.Delete(ctx, keys...)
}

func (lc *LayeredCache) DeleteByPattern(ctx context.Context, pattern string) error {
	_ = lc.memCache.DeleteByPattern(ctx, pattern)
	return lc.redisCache.DeleteByPattern(ctx, pattern)
}

// TryLock only locks in Redis so the lock is shared across instances.
func (lc *LayeredCache) TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return lc.redisCache.TryLock(ctx, key, ttl)
}

func (lc *LayeredCache) Unlock(ctx context.Context, key string) error {
	return lc.redisCache.Unlock(ctx, key)
}

// Close closes both cache layers.
func (lc *LayeredCache) Close() error {
	_ = lc.memCache.Close()
	return lc.redisCache.Close()
}
