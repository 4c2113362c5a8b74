package config

import (
	"fmt"

	"github.com/skillsenselab/auth-service/auth"
	"github.com/skillsenselab/auth-service/notify"
	"github.com/skillsenselab/auth-service/secrets"
	"github.com/skillsenselab/auth-service/server"
	"github.com/skillsenselab/auth-service/store"
	"github.com/skillsenselab/auth-service/token"
)

// TelemetryConfig configures the OTLP exporters.
type TelemetryConfig struct {
	Enabled    bool    `yaml:"enabled" mapstructure:"enabled"`
	Endpoint   string  `yaml:"endpoint" mapstructure:"endpoint"`
	Insecure   bool    `yaml:"insecure" mapstructure:"insecure"`
	SampleRate float64 `yaml:"sample_rate" mapstructure:"sample_rate"`
}

// ApplyDefaults sets sensible defaults for zero-valued fields.
func (c *TelemetryConfig) ApplyDefaults() {
	if c.Endpoint == "" {
		c.Endpoint = "localhost:4318"
	}
	if c.SampleRate == 0 {
		c.SampleRate = 1.0
	}
}

// AppConfig is the full configuration of the auth service.
type AppConfig struct {
	ServiceConfig `yaml:",inline" mapstructure:",squash"`

	Server    server.Config   `yaml:"server" mapstructure:"server"`
	Store     store.Config    `yaml:"store" mapstructure:"store"`
	Secrets   secrets.Config  `yaml:"secrets" mapstructure:"secrets"`
	Token     token.Config    `yaml:"token" mapstructure:"token"`
	Email     notify.Config   `yaml:"email" mapstructure:"email"`
	Gate      auth.GateConfig `yaml:"gate" mapstructure:"gate"`
	Telemetry TelemetryConfig `yaml:"telemetry" mapstructure:"telemetry"`
}

// Load reads the application config from the standard locations.
func Load(serviceName string, opts ...LoaderOption) (*AppConfig, error) {
	cfg := &AppConfig{}
	if err := LoadConfig(serviceName, cfg, opts...); err != nil {
		return nil, err
	}
	if cfg.Name == "" {
		cfg.Name = serviceName
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyDefaults applies defaults to every section.
func (c *AppConfig) ApplyDefaults() {
	c.ServiceConfig.ApplyDefaults()
	c.Server.ApplyDefaults()
	c.Store.ApplyDefaults()
	c.Secrets.ApplyDefaults()
	c.Token.ApplyDefaults()
	c.Email.ApplyDefaults()
	c.Gate.ApplyDefaults()
	c.Telemetry.ApplyDefaults()

	// Expiry policy must be explicit; an unset section means the documented
	// default of non-expiring tokens.
	if c.Token.TTL == 0 && !c.Token.NonExpiring {
		c.Token.NonExpiring = true
	}
}

// Validate validates every section.
func (c *AppConfig) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("config.server: %w", err)
	}
	if err := c.Store.Validate(); err != nil {
		return fmt.Errorf("config.store: %w", err)
	}
	if err := c.Secrets.Validate(); err != nil {
		return fmt.Errorf("config.secrets: %w", err)
	}
	if err := c.Token.Validate(); err != nil {
		return fmt.Errorf("config.token: %w", err)
	}
	if err := c.Email.Validate(); err != nil {
		return fmt.Errorf("config.email: %w", err)
	}
	return nil
}
