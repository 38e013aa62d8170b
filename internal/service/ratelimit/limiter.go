// Package ratelimit implements a keyed token-bucket limiter, used to pace
// calls against upstream API quotas.
package ratelimit

import (
	"sync"
	"time"
)

type bucket struct {
	tokens     float64
	capacity   float64
	refillRate float64 // tokens per second
	last       time.Time
}

// Limiter tracks one token bucket per key.
type Limiter struct {
	mu sync.Mutex
	m  map[string]*bucket
}

func New() *Limiter {
	return &Limiter{m: make(map[string]*bucket)}
}

// Allow consumes one token for key if available. A new key starts with a
// full bucket.
func (l *Limiter) Allow(key string, capacity, refillPerSec float64) bool {
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.m[key]
	if !ok {
		b = &bucket{tokens: capacity, capacity: capacity, refillRate: refillPerSec, last: now}
		l.m[key] = b
	}

	if elapsed := now.Sub(b.last).Seconds(); elapsed > 0 {
		b.tokens += elapsed * b.refillRate
		if b.tokens > b.capacity {
			b.tokens = b.capacity
		}
		b.last = now
	}

	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}
