package cache

import "time"

// Store is a minimal in-process cache API with TTL.
type Store interface {
	Get(key string) (v any, ok bool)
	Set(key string, v any, ttl time.Duration)
	Delete(key string)
}

var _ Store = (*TTLCache)(nil)
