package secrets

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/skillsenselab/auth-service/observability"
)

// countingProvider wraps Static and counts Fetch calls.
type countingProvider struct {
	inner *Static
	calls atomic.Int64
	fail  atomic.Bool
}

func (p *countingProvider) Fetch(ctx context.Context) (Secret, error) {
	p.calls.Add(1)
	if p.fail.Load() {
		return Secret{}, errors.New("store unreachable")
	}
	return p.inner.Fetch(ctx)
}

func TestCache_Current_LazyAndCached(t *testing.T) {
	p := &countingProvider{inner: NewStatic("hmac-key-1")}
	c := NewCache(p, time.Minute)

	if n := p.calls.Load(); n != 0 {
		t.Fatalf("expected no fetch before first use, got %d", n)
	}

	s, err := c.Current(context.Background())
	if err != nil {
		t.Fatalf("Current: %v", err)
	}
	if s.Value != "hmac-key-1" {
		t.Errorf("expected hmac-key-1, got %q", s.Value)
	}

	for i := 0; i < 10; i++ {
		if _, err := c.Current(context.Background()); err != nil {
			t.Fatalf("Current: %v", err)
		}
	}
	if n := p.calls.Load(); n != 1 {
		t.Errorf("expected exactly 1 fetch within TTL, got %d", n)
	}
}

func TestCache_Current_RefreshAfterTTL(t *testing.T) {
	p := &countingProvider{inner: NewStatic("hmac-key-1")}
	c := NewCache(p, 10*time.Millisecond)

	if _, err := c.Current(context.Background()); err != nil {
		t.Fatalf("Current: %v", err)
	}
	time.Sleep(20 * time.Millisecond)
	if _, err := c.Current(context.Background()); err != nil {
		t.Fatalf("Current: %v", err)
	}
	if n := p.calls.Load(); n != 2 {
		t.Errorf("expected a second fetch after TTL, got %d", n)
	}
}

func TestCache_Rotation_RetainsPrevious(t *testing.T) {
	p := &countingProvider{inner: NewStatic("hmac-key-1")}
	c := NewCache(p, time.Minute)

	if _, err := c.Current(context.Background()); err != nil {
		t.Fatalf("Current: %v", err)
	}
	if _, ok := c.Previous(); ok {
		t.Fatal("no previous secret should exist before a rotation")
	}

	p.inner.Rotate("hmac-key-2")
	s, err := c.ForceRefresh(context.Background())
	if err != nil {
		t.Fatalf("ForceRefresh: %v", err)
	}
	if s.Value != "hmac-key-2" {
		t.Errorf("expected rotated value, got %q", s.Value)
	}

	prev, ok := c.Previous()
	if !ok {
		t.Fatal("previous secret must be retained after rotation")
	}
	if prev.Value != "hmac-key-1" {
		t.Errorf("expected previous hmac-key-1, got %q", prev.Value)
	}
}

func TestCache_Rotation_GraceWindowExpires(t *testing.T) {
	p := &countingProvider{inner: NewStatic("hmac-key-1")}
	c := NewCache(p, 20*time.Millisecond)

	if _, err := c.Current(context.Background()); err != nil {
		t.Fatalf("Current: %v", err)
	}
	p.inner.Rotate("hmac-key-2")
	if _, err := c.ForceRefresh(context.Background()); err != nil {
		t.Fatalf("ForceRefresh: %v", err)
	}

	if _, ok := c.Previous(); !ok {
		t.Fatal("retired key must be available inside the grace window")
	}

	time.Sleep(40 * time.Millisecond)
	if _, ok := c.Previous(); ok {
		t.Error("retired key must not outlive one refresh window")
	}
}

func TestCache_ProviderFailure_ServesStale(t *testing.T) {
	p := &countingProvider{inner: NewStatic("hmac-key-1")}
	c := NewCache(p, 10*time.Millisecond)

	if _, err := c.Current(context.Background()); err != nil {
		t.Fatalf("Current: %v", err)
	}

	p.fail.Store(true)
	time.Sleep(20 * time.Millisecond)

	s, err := c.Current(context.Background())
	if err != nil {
		t.Fatalf("expected stale secret to be served on fetch failure, got %v", err)
	}
	if s.Value != "hmac-key-1" {
		t.Errorf("expected stale hmac-key-1, got %q", s.Value)
	}
}

func TestCache_CheckHealth_Statuses(t *testing.T) {
	p := &countingProvider{inner: NewStatic("hmac-key-1")}
	c := NewCache(p, 10*time.Millisecond)

	if h := c.CheckHealth(context.Background()); h.Status != observability.HealthStatusUp {
		t.Errorf("healthy cache status = %s, want up", h.Status)
	}

	// Provider failure with a cached value: stale secret served, degraded.
	p.fail.Store(true)
	time.Sleep(20 * time.Millisecond)
	if h := c.CheckHealth(context.Background()); h.Status != observability.HealthStatusDegraded {
		t.Errorf("stale cache status = %s, want degraded", h.Status)
	}

	// Provider failure with nothing cached: down.
	empty := NewCache(p, time.Minute)
	if h := empty.CheckHealth(context.Background()); h.Status != observability.HealthStatusDown {
		t.Errorf("empty cache status = %s, want down", h.Status)
	}
}

func TestCache_FirstFetchFailure_SurfacesError(t *testing.T) {
	p := &countingProvider{inner: NewStatic("hmac-key-1")}
	p.fail.Store(true)
	c := NewCache(p, time.Minute)

	if _, err := c.Current(context.Background()); err == nil {
		t.Error("expected error when the first fetch fails with nothing cached")
	}
}

func TestCache_Current_ConcurrentReaders(t *testing.T) {
	p := &countingProvider{inner: NewStatic("hmac-key-1")}
	c := NewCache(p, time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := c.Current(context.Background()); err != nil {
				t.Errorf("Current: %v", err)
			}
		}()
	}
	wg.Wait()

	if n := p.calls.Load(); n != 1 {
		t.Errorf("concurrent first use should fetch once, got %d", n)
	}
}
