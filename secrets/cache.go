package secrets

import (
	"context"
	"sync"
	"time"

	"github.com/skillsenselab/auth-service/observability"
)

// Cache is the process-wide signing-secret cache. The first call fetches
// lazily; subsequent calls are served from memory until RefreshTTL elapses.
// When a refresh observes a new value (rotation), the outgoing secret is
// retained as Previous for exactly one refresh window so verification of
// tokens signed just before the rotation does not break mid-flight. Once the
// window elapses the retired key is gone for good.
type Cache struct {
	provider Provider
	ttl      time.Duration

	mu        sync.RWMutex
	current   Secret
	previous  *Secret
	rotatedAt time.Time
	fetchedAt time.Time
}

// NewCache wraps a provider with process-wide caching.
func NewCache(provider Provider, refreshTTL time.Duration) *Cache {
	return &Cache{provider: provider, ttl: refreshTTL}
}

// Current returns the cached secret, fetching or refreshing it as needed.
// Safe for concurrent use; concurrent readers of a fresh secret never block
// each other.
func (c *Cache) Current(ctx context.Context) (Secret, error) {
	c.mu.RLock()
	if c.fresh() {
		s := c.current
		c.mu.RUnlock()
		return s, nil
	}
	c.mu.RUnlock()

	return c.refresh(ctx, false)
}

// ForceRefresh bypasses the TTL and re-fetches from the provider.
func (c *Cache) ForceRefresh(ctx context.Context) (Secret, error) {
	return c.refresh(ctx, true)
}

// Previous returns the secret that was current before the last observed
// rotation, if any. Verifiers use it as a fallback during the grace window;
// after one refresh TTL the retired key is no longer returned.
func (c *Cache) Previous() (Secret, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.previous == nil || time.Since(c.rotatedAt) >= c.ttl {
		return Secret{}, false
	}
	return *c.previous, true
}

// CheckHealth reports down when no signing secret can be obtained at all,
// and degraded when a stale one is being served because the provider is
// unreachable.
func (c *Cache) CheckHealth(ctx context.Context) observability.Health {
	h := observability.Health{Name: "secrets"}
	if _, err := c.Current(ctx); err != nil {
		h.Status = observability.HealthStatusDown
		h.Message = err.Error()
		return h
	}

	c.mu.RLock()
	stale := !c.fresh()
	c.mu.RUnlock()
	if stale {
		h.Status = observability.HealthStatusDegraded
		h.Message = "serving stale signing secret"
		return h
	}
	h.Status = observability.HealthStatusUp
	return h
}

func (c *Cache) refresh(ctx context.Context, force bool) (Secret, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Another invocation may have refreshed while we waited on the lock.
	if !force && c.fresh() {
		return c.current, nil
	}

	fetched, err := c.provider.Fetch(ctx)
	if err != nil {
		// Serve the stale secret rather than failing the request outright;
		// the error is surfaced only when there is nothing to serve.
		if c.fetchedAt.IsZero() {
			return Secret{}, err
		}
		return c.current, nil
	}

	if !c.fetchedAt.IsZero() && fetched.Value != c.current.Value {
		prev := c.current
		c.previous = &prev
		c.rotatedAt = time.Now()
	}
	c.current = fetched
	c.fetchedAt = time.Now()
	return c.current, nil
}

// fresh reports whether the cached secret is within its TTL.
// Callers must hold at least the read lock.
func (c *Cache) fresh() bool {
	return !c.fetchedAt.IsZero() && time.Since(c.fetchedAt) < c.ttl
}
