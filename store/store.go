// Package store persists user records. The store's conditional-write
// primitives are the sole correctness mechanism for data races: registration
// uniqueness and single-use reset-token redemption are enforced by the store
// itself, never by a read-then-write check in a handler.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Sentinel errors translated by callers into the public error taxonomy.
var (
	// ErrNotFound indicates no record matched the lookup key.
	ErrNotFound = errors.New("store: user not found")
	// ErrEmailTaken indicates a conditional insert lost to an existing
	// record with the same normalized email.
	ErrEmailTaken = errors.New("store: email already registered")
	// ErrResetTokenInvalid indicates a redemption failed: the token is
	// unknown, expired, or was already redeemed. The cases are deliberately
	// not distinguished.
	ErrResetTokenInvalid = errors.New("store: reset token invalid or expired")
)

// UserStore is the record store consumed by the auth service.
type UserStore interface {
	// GetByID returns the user with the given id, or ErrNotFound.
	GetByID(ctx context.Context, userID string) (*User, error)

	// GetByEmail returns the user with the given normalized email, or
	// ErrNotFound.
	GetByEmail(ctx context.Context, email string) (*User, error)

	// Insert atomically creates the user unless a record with the same
	// email already exists, in which case it returns ErrEmailTaken. Two
	// concurrent inserts with the same email yield exactly one success.
	Insert(ctx context.Context, user *User) error

	// SetResetToken stores a reset token and its expiry on the user record,
	// overwriting any prior outstanding token.
	SetResetToken(ctx context.Context, userID, token string, expiry time.Time) error

	// RedeemResetToken atomically replaces the password hash of the user
	// holding the given unexpired token and clears the token and its
	// expiry. A second redemption with the same token, or redemption of an
	// expired or unknown token, returns ErrResetTokenInvalid.
	RedeemResetToken(ctx context.Context, token, newPasswordHash string, now time.Time) (*User, error)
}

// Config configures the user store.
type Config struct {
	// Backend selects the implementation: "dynamodb" or "memory".
	Backend string `yaml:"backend" mapstructure:"backend"`
	// Table is the DynamoDB table name.
	Table string `yaml:"table" mapstructure:"table"`
	// EmailIndex is the GSI used for point lookups by email.
	EmailIndex string `yaml:"email_index" mapstructure:"email_index"`
	// ResetTokenIndex is the GSI used for lookups by reset token.
	ResetTokenIndex string `yaml:"reset_token_index" mapstructure:"reset_token_index"`
}

// ApplyDefaults sets sensible defaults for zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.Backend == "" {
		c.Backend = "dynamodb"
	}
	if c.Table == "" {
		c.Table = "ecommerce-users"
	}
	if c.EmailIndex == "" {
		c.EmailIndex = "email-index"
	}
	if c.ResetTokenIndex == "" {
		c.ResetTokenIndex = "resetToken-index"
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	switch c.Backend {
	case "dynamodb", "memory":
		return nil
	default:
		return fmt.Errorf("store.backend must be dynamodb or memory (got: %s)", c.Backend)
	}
}
