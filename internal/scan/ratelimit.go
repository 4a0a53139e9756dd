package scan

import (
	"context"
	"sync"
	"time"
)

const (
	defaultMaxRequestsPerHour = 100
	defaultCacheTTL           = 30 * time.Minute
)

type limiterWindow struct {
	count   int
	resetAt time.Time
}

// Limiter throttles outbound calls per external source using a fixed
// hourly window. When the window budget is spent, Wait blocks until the
// window resets (cooperative backpressure, no silent dropping).
//
// One Limiter instance is shared by every scanner so that scanners hitting
// the same source cooperate on the same budget.
type Limiter struct {
	mu         sync.Mutex
	window     time.Duration
	defaultMax int
	limits     map[string]int
	windows    map[string]*limiterWindow
}

func NewLimiter() *Limiter {
	return &Limiter{
		window:     time.Hour,
		defaultMax: defaultMaxRequestsPerHour,
		limits:     make(map[string]int),
		windows:    make(map[string]*limiterWindow),
	}
}

// SetLimit overrides the per-window ceiling for one source.
func (l *Limiter) SetLimit(source string, maxRequests int) {
	if maxRequests <= 0 {
		return
	}
	l.mu.Lock()
	l.limits[source] = maxRequests
	l.mu.Unlock()
}

// Wait consumes one request slot for source, blocking until the current
// window resets if the budget is exhausted. Returns early on ctx cancel.
func (l *Limiter) Wait(ctx context.Context, source string) error {
	for {
		l.mu.Lock()
		now := time.Now()
		w, ok := l.windows[source]
		if !ok || now.After(w.resetAt) {
			w = &limiterWindow{resetAt: now.Add(l.window)}
			l.windows[source] = w
		}

		max := l.defaultMax
		if m, ok := l.limits[source]; ok {
			max = m
		}

		if w.count < max {
			w.count++
			l.mu.Unlock()
			return nil
		}

		wait := time.Until(w.resetAt)
		l.mu.Unlock()

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// TryAcquire consumes a slot if one is available without blocking.
func (l *Limiter) TryAcquire(source string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	w, ok := l.windows[source]
	if !ok || now.After(w.resetAt) {
		w = &limiterWindow{resetAt: now.Add(l.window)}
		l.windows[source] = w
	}

	max := l.defaultMax
	if m, ok := l.limits[source]; ok {
		max = m
	}

	if w.count >= max {
		return false
	}
	w.count++
	return true
}

type cacheEntry struct {
	value     interface{}
	expiresAt time.Time
}

// Cache is a TTL cache for external lookups, shared across scanners.
// Keys are namespaced by source so scanners cannot collide.
type Cache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]cacheEntry
}

func NewCache(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &Cache{
		ttl:     ttl,
		entries: make(map[string]cacheEntry),
	}
}

func (c *Cache) Get(source, key string) (interface{}, bool) {
	c.mu.RLock()
	entry, ok := c.entries[source+"|"+key]
	c.mu.RUnlock()
	if !ok || time.Now().After(entry.expiresAt) {
		return nil, false
	}
	return entry.value, true
}

// Set always overwrites, restarting the TTL.
func (c *Cache) Set(source, key string, value interface{}) {
	c.mu.Lock()
	c.entries[source+"|"+key] = cacheEntry{
		value:     value,
		expiresAt: time.Now().Add(c.ttl),
	}
	c.mu.Unlock()
}
