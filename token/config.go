package token

import (
	"errors"
	"time"
)

// Config configures bearer-token issuance. The expiry policy is explicit:
// either TTL is set, or NonExpiring is true. Never both, never neither.
type Config struct {
	// Issuer is the "iss" claim, enforced on verification.
	Issuer string `yaml:"issuer" mapstructure:"issuer"`

	// TTL is the token lifetime. Must be zero when NonExpiring is true.
	TTL time.Duration `yaml:"ttl" mapstructure:"ttl"`

	// NonExpiring issues tokens without an "exp" claim.
	NonExpiring bool `yaml:"non_expiring" mapstructure:"non_expiring"`
}

// ApplyDefaults sets sensible defaults for zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.Issuer == "" {
		c.Issuer = "ecommerce-ai-platform"
	}
}

// Validate checks that exactly one expiry policy is configured.
func (c *Config) Validate() error {
	if c.NonExpiring && c.TTL != 0 {
		return errors.New("token: ttl and non_expiring are mutually exclusive")
	}
	if !c.NonExpiring && c.TTL <= 0 {
		return errors.New("token: either ttl or non_expiring must be set")
	}
	return nil
}
