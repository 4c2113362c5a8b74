// Package secrets supplies the token-signing secret. The secret lives in an
// external secret store and may rotate; callers go through Cache, which
// fetches lazily, caches process-wide, and retains the previous secret for a
// grace window so tokens signed before a rotation still verify.
package secrets

import (
	"context"
	"fmt"
	"time"
)

// Secret is versioned symmetric key material used to sign and verify tokens.
type Secret struct {
	// Value is the raw key material.
	Value string
	// Version identifies the secret version (store-assigned where available).
	Version string
}

// Provider fetches the current signing secret from its backing store.
type Provider interface {
	// Fetch retrieves the current secret. Implementations must be safe for
	// concurrent use.
	Fetch(ctx context.Context) (Secret, error)
}

// Config configures the secret provider.
type Config struct {
	// Backend selects the provider: "secretsmanager" or "static".
	Backend string `yaml:"backend" mapstructure:"backend"`
	// SecretName is the Secrets Manager secret id.
	SecretName string `yaml:"secret_name" mapstructure:"secret_name"`
	// StaticValue is the signing secret for the static backend (local dev).
	StaticValue string `yaml:"static_value" mapstructure:"static_value"`
	// RefreshTTL is how long a fetched secret is served before re-fetching.
	RefreshTTL time.Duration `yaml:"refresh_ttl" mapstructure:"refresh_ttl"`
}

// ApplyDefaults sets sensible defaults for zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.Backend == "" {
		c.Backend = "secretsmanager"
	}
	if c.SecretName == "" {
		c.SecretName = "ecommerce-jwt-secret"
	}
	if c.RefreshTTL == 0 {
		c.RefreshTTL = 5 * time.Minute
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	switch c.Backend {
	case "secretsmanager":
		if c.SecretName == "" {
			return fmt.Errorf("secrets.secret_name is required for the secretsmanager backend")
		}
	case "static":
		if c.StaticValue == "" {
			return fmt.Errorf("secrets.static_value is required for the static backend")
		}
	default:
		return fmt.Errorf("secrets.backend must be secretsmanager or static (got: %s)", c.Backend)
	}
	if c.RefreshTTL < 0 {
		return fmt.Errorf("secrets.refresh_ttl must be non-negative (got: %v)", c.RefreshTTL)
	}
	return nil
}
