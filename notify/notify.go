// Package notify delivers account emails. The auth service treats delivery
// as best-effort: a failed reset email is logged and surfaced, but whether
// the caller reveals that failure is a policy decision made above this
// package.
package notify

import (
	"context"
	"fmt"
	"time"
)

// Notifier sends account lifecycle emails.
type Notifier interface {
	// SendPasswordReset emails a single-use reset link built from the token.
	SendPasswordReset(ctx context.Context, email, name, token string) error

	// SendWelcome emails a post-registration greeting.
	SendWelcome(ctx context.Context, email, name string) error
}

// Config configures email delivery.
type Config struct {
	// Backend selects the implementation: "ses" or "log".
	Backend string `yaml:"backend" mapstructure:"backend"`
	// From is the verified sender address.
	From string `yaml:"from" mapstructure:"from"`
	// ResetBaseURL is the frontend origin the reset link points at.
	ResetBaseURL string `yaml:"reset_base_url" mapstructure:"reset_base_url"`
	// Timeout bounds a single send call.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// ApplyDefaults sets sensible defaults for zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.Backend == "" {
		c.Backend = "ses"
	}
	if c.From == "" {
		c.From = "noreply@ecommerce-platform.com"
	}
	if c.ResetBaseURL == "" {
		c.ResetBaseURL = "https://platform.example.com"
	}
	if c.Timeout == 0 {
		c.Timeout = 10 * time.Second
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	switch c.Backend {
	case "ses", "log":
		return nil
	default:
		return fmt.Errorf("notify.backend must be ses or log (got: %s)", c.Backend)
	}
}

// resetLink builds the frontend URL a recipient follows to finish a reset.
func (c *Config) resetLink(token string) string {
	return c.ResetBaseURL + "/reset-password?token=" + token
}
