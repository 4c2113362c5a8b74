package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	return path
}

func TestLoad_DefaultsFromYAML(t *testing.T) {
	path := writeTempConfig(t, `
name: auth-service
environment: development
server:
  port: 9090
store:
  backend: memory
secrets:
  backend: static
  static_value: local-secret
token:
  non_expiring: true
`)

	cfg, err := Load("auth-service", WithConfigFile(path))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("server.port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Store.Backend != "memory" {
		t.Errorf("store.backend = %s, want memory", cfg.Store.Backend)
	}
	if !cfg.Token.NonExpiring {
		t.Error("token.non_expiring should be true")
	}
	if cfg.Secrets.RefreshTTL != 5*time.Minute {
		t.Errorf("secrets.refresh_ttl default = %v, want 5m", cfg.Secrets.RefreshTTL)
	}
	if cfg.Gate.CacheTTL != 5*time.Minute {
		t.Errorf("gate.cache_ttl default = %v, want 5m", cfg.Gate.CacheTTL)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	path := writeTempConfig(t, `
name: auth-service
server:
  port: 8080
store:
  backend: memory
secrets:
  backend: static
  static_value: local-secret
`)
	t.Setenv("AUTH_SERVER_PORT", "7070")

	cfg, err := Load("auth-service", WithConfigFile(path))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 7070 {
		t.Errorf("server.port = %d, want env override 7070", cfg.Server.Port)
	}
}

func TestLoad_InvalidTokenPolicy(t *testing.T) {
	path := writeTempConfig(t, `
name: auth-service
store:
  backend: memory
secrets:
  backend: static
  static_value: local-secret
token:
  ttl: 1h
  non_expiring: true
`)

	if _, err := Load("auth-service", WithConfigFile(path)); err == nil {
		t.Error("ttl combined with non_expiring must fail validation")
	}
}

func TestAppConfig_DefaultTokenPolicy(t *testing.T) {
	cfg := &AppConfig{}
	cfg.Name = "auth-service"
	cfg.ApplyDefaults()

	if !cfg.Token.NonExpiring {
		t.Error("unset token section must default to the explicit non-expiring policy")
	}
	if err := cfg.Token.Validate(); err != nil {
		t.Errorf("defaulted token config invalid: %v", err)
	}
}
