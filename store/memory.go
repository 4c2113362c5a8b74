package store

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/skillsenselab/auth-service/observability"
)

// Memory is an in-process UserStore with the same uniqueness and atomicity
// semantics as the DynamoDB implementation. Used for local development and
// tests.
type Memory struct {
	mu      sync.Mutex
	byID    map[string]*User
	byEmail map[string]string // normalized email -> userID
	byToken map[string]string // outstanding reset token -> userID
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		byID:    make(map[string]*User),
		byEmail: make(map[string]string),
		byToken: make(map[string]string),
	}
}

func (m *Memory) GetByID(_ context.Context, userID string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[userID]
	if !ok {
		return nil, ErrNotFound
	}
	return u.clone(), nil
}

func (m *Memory) GetByEmail(_ context.Context, email string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.byEmail[email]
	if !ok {
		return nil, ErrNotFound
	}
	return m.byID[id].clone(), nil
}

// Insert holds the store lock across the existence check and the write, so
// two concurrent inserts with the same email see exactly one success.
func (m *Memory) Insert(_ context.Context, user *User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, taken := m.byEmail[user.Email]; taken {
		return ErrEmailTaken
	}
	stored := user.clone()
	m.byID[stored.UserID] = stored
	m.byEmail[stored.Email] = stored.UserID
	return nil
}

// CheckHealth reports the store as up; an in-process map has no failure
// mode to probe.
func (m *Memory) CheckHealth(_ context.Context) observability.Health {
	m.mu.Lock()
	users := len(m.byID)
	m.mu.Unlock()
	return observability.Health{
		Name:   "store",
		Status: observability.HealthStatusUp,
		Details: map[string]string{
			"backend": "memory",
			"users":   strconv.Itoa(users),
		},
	}
}

func (m *Memory) SetResetToken(_ context.Context, userID, token string, expiry time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.byID[userID]
	if !ok {
		return ErrNotFound
	}
	// A fresh request invalidates any older unused token.
	if u.ResetToken != nil {
		delete(m.byToken, *u.ResetToken)
	}
	exp := expiry
	u.ResetToken = &token
	u.ResetTokenExpiry = &exp
	u.UpdatedAt = time.Now()
	m.byToken[token] = userID
	return nil
}

// RedeemResetToken performs lookup, expiry check, password update, and token
// clearing as one atomic step under the store lock.
func (m *Memory) RedeemResetToken(_ context.Context, token, newPasswordHash string, now time.Time) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	userID, ok := m.byToken[token]
	if !ok {
		return nil, ErrResetTokenInvalid
	}
	u := m.byID[userID]
	if u.ResetToken == nil || *u.ResetToken != token {
		return nil, ErrResetTokenInvalid
	}
	if u.ResetTokenExpiry == nil || !u.ResetTokenExpiry.After(now) {
		return nil, ErrResetTokenInvalid
	}

	u.PasswordHash = newPasswordHash
	u.ResetToken = nil
	u.ResetTokenExpiry = nil
	u.UpdatedAt = now
	delete(m.byToken, token)
	return u.clone(), nil
}
