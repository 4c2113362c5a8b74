package secrets

import (
	"context"
	"errors"
	"strconv"
	"sync"
)

// Static is a Provider backed by an in-process value. Intended for local
// development and tests; Rotate simulates a store-side rotation.
type Static struct {
	mu      sync.RWMutex
	secret  Secret
	version int
}

// NewStatic creates a static provider with the given secret value.
func NewStatic(value string) *Static {
	return &Static{
		secret:  Secret{Value: value, Version: "v1"},
		version: 1,
	}
}

// Fetch returns the current static secret.
func (s *Static) Fetch(_ context.Context) (Secret, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.secret.Value == "" {
		return Secret{}, errors.New("secrets: static secret not configured")
	}
	return s.secret, nil
}

// Rotate replaces the secret value and bumps the version.
func (s *Static) Rotate(value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.version++
	s.secret = Secret{Value: value, Version: "v" + strconv.Itoa(s.version)}
}
