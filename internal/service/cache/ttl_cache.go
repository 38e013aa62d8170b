package cache

import (
	"sync"
	"time"
)

// sweepEvery controls how often Set scans for expired entries. The cache
// holds few hot keys (query results keyed by normalized keyword), so a
// write-triggered sweep is enough to keep it from growing.
const sweepEvery = 64

type item struct {
	value   any
	expires time.Time
}

func (it item) expired(now time.Time) bool {
	return !it.expires.IsZero() && now.After(it.expires)
}

// TTLCache is a process-local map cache with per-entry TTL. Zero TTL means
// no expiry.
type TTLCache struct {
	mu     sync.RWMutex
	items  map[string]item
	writes int
}

func NewTTLCache() *TTLCache {
	return &TTLCache{items: make(map[string]item)}
}

func (c *TTLCache) Get(key string) (any, bool) {
	now := time.Now()

	c.mu.RLock()
	it, ok := c.items[key]
	c.mu.RUnlock()

	if !ok {
		return nil, false
	}
	if it.expired(now) {
		c.mu.Lock()
		delete(c.items, key)
		c.mu.Unlock()
		return nil, false
	}
	return it.value, true
}

func (c *TTLCache) Set(key string, v any, ttl time.Duration) {
	var exp time.Time
	if ttl > 0 {
		exp = time.Now().Add(ttl)
	}

	c.mu.Lock()
	c.items[key] = item{value: v, expires: exp}
	c.writes++
	if c.writes >= sweepEvery {
		c.writes = 0
		c.sweepLocked(time.Now())
	}
	c.mu.Unlock()
}

func (c *TTLCache) Delete(key string) {
	c.mu.Lock()
	delete(c.items, key)
	c.mu.Unlock()
}

// Len reports the number of live entries.
func (c *TTLCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// sweepLocked drops expired entries. Callers must hold mu.
func (c *TTLCache) sweepLocked(now time.Time) {
	for k, it := range c.items {
		if it.expired(now) {
			delete(c.items, k)
		}
	}
}
