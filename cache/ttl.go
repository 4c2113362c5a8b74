// Package cache provides a bounded, TTL-evicting concurrent map used for
// process-local caches such as the authorization decision cache. Entries are
// never persisted and vanish on restart.
package cache

import (
	"sync"
	"time"
)

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// TTL is a concurrent map whose entries expire after a fixed duration.
// Stale entries are dropped on read and swept periodically in the
// background; total entries are bounded so the cache cannot grow without
// limit under token churn.
type TTL[V any] struct {
	mu         sync.RWMutex
	items      map[string]entry[V]
	ttl        time.Duration
	maxEntries int
	stop       chan struct{}
	stopOnce   sync.Once
}

// NewTTL creates a cache with the given entry lifetime and entry bound.
// A sweep goroutine runs at the TTL interval until Close is called.
func NewTTL[V any](ttl time.Duration, maxEntries int) *TTL[V] {
	c := &TTL[V]{
		items:      make(map[string]entry[V]),
		ttl:        ttl,
		maxEntries: maxEntries,
		stop:       make(chan struct{}),
	}
	go c.sweep(ttl)
	return c
}

// Get returns the value for key if present and unexpired.
func (c *TTL[V]) Get(key string) (V, bool) {
	c.mu.RLock()
	e, ok := c.items[key]
	c.mu.RUnlock()

	var zero V
	if !ok {
		return zero, false
	}
	if time.Now().After(e.expiresAt) {
		// Evict on read so a stale decision is never served.
		c.mu.Lock()
		if cur, still := c.items[key]; still && cur.expiresAt.Equal(e.expiresAt) {
			delete(c.items, key)
		}
		c.mu.Unlock()
		return zero, false
	}
	return e.value, true
}

// Set stores value under key for the cache TTL. When the cache is at its
// bound, expired entries are purged first; if it is still full the new entry
// is stored anyway after dropping one arbitrary entry, keeping the bound.
func (c *TTL[V]) Set(key string, value V) {
	now := time.Now()
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.items[key]; !exists && len(c.items) >= c.maxEntries {
		c.purgeExpiredLocked(now)
		if len(c.items) >= c.maxEntries {
			for k := range c.items {
				delete(c.items, k)
				break
			}
		}
	}
	c.items[key] = entry[V]{value: value, expiresAt: now.Add(c.ttl)}
}

// Delete removes key from the cache.
func (c *TTL[V]) Delete(key string) {
	c.mu.Lock()
	delete(c.items, key)
	c.mu.Unlock()
}

// Len returns the number of entries, including any not yet swept.
func (c *TTL[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Close stops the background sweeper.
func (c *TTL[V]) Close() {
	c.stopOnce.Do(func() { close(c.stop) })
}

func (c *TTL[V]) sweep(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-c.stop:
			return
		case now := <-ticker.C:
			c.mu.Lock()
			c.purgeExpiredLocked(now)
			c.mu.Unlock()
		}
	}
}

// purgeExpiredLocked removes all expired entries. Callers hold the write lock.
func (c *TTL[V]) purgeExpiredLocked(now time.Time) {
	for k, e := range c.items {
		if now.After(e.expiresAt) {
			delete(c.items, k)
		}
	}
}
