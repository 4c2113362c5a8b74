// Package config loads service configuration from a config.yml file, a .env
// file, and AUTH_-prefixed environment variables, in increasing order of
// precedence.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// envPrefix is the prefix for environment overrides, e.g.
// AUTH_SERVER_PORT=9090 sets server.port.
const envPrefix = "AUTH_"

// LoaderOption customizes LoadConfig.
type LoaderOption func(*loaderConfig)

type loaderConfig struct {
	configFile string
	envFile    string
}

// WithConfigFile sets an explicit config file path.
func WithConfigFile(path string) LoaderOption {
	return func(lc *loaderConfig) { lc.configFile = path }
}

// WithEnvFile sets an explicit .env file path.
func WithEnvFile(path string) LoaderOption {
	return func(lc *loaderConfig) { lc.envFile = path }
}

// LoadConfig loads configuration for a service into the provided cfg struct.
// It searches for config.yml and .env files in standard locations, applies
// AUTH_-prefixed environment variables on top, and unmarshals into cfg.
func LoadConfig(serviceName string, cfg interface{}, opts ...LoaderOption) error {
	var lc loaderConfig
	for _, opt := range opts {
		opt(&lc)
	}
	if lc.configFile == "" {
		lc.configFile = findFile(serviceName, "config.yml")
	}
	if lc.envFile == "" {
		lc.envFile = findFile(serviceName, ".env")
	}

	v := viper.New()

	// 1. YAML config is the base layer.
	if lc.configFile != "" {
		v.SetConfigFile(lc.configFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("config: read %s: %w", lc.configFile, err)
		}
	}

	// 2. The .env file populates the process environment without
	// overriding variables set by the deployment.
	if lc.envFile != "" {
		if err := godotenv.Load(lc.envFile); err != nil {
			return fmt.Errorf("config: load %s: %w", lc.envFile, err)
		}
	}

	// 3. Prefixed environment variables win over both files.
	bindPrefixedEnv(v)

	if err := v.Unmarshal(cfg); err != nil {
		return fmt.Errorf("config: unmarshal for service %s: %w", serviceName, err)
	}
	return nil
}

// findFile searches the standard locations for a service file.
func findFile(serviceName, fileName string) string {
	searchPaths := []string{
		fmt.Sprintf("./cmd/%s/%s", serviceName, fileName),
		fmt.Sprintf("../cmd/%s/%s", serviceName, fileName),
		"./config/" + fileName,
		"./" + fileName,
	}
	for _, path := range searchPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// bindPrefixedEnv maps AUTH_SECTION_KEY variables onto viper's nested keys.
// Underscores become dots, so AUTH_TOKEN_NON_EXPIRING also sets variants
// with the remaining underscores intact (token.non_expiring).
func bindPrefixedEnv(v *viper.Viper) {
	for _, env := range os.Environ() {
		pair := strings.SplitN(env, "=", 2)
		if len(pair) != 2 || !strings.HasPrefix(pair[0], envPrefix) {
			continue
		}
		key := strings.ToLower(strings.TrimPrefix(pair[0], envPrefix))
		for _, variant := range keyVariants(key) {
			v.Set(variant, pair[1])
		}
	}
}

// keyVariants generates the nested-key spellings an underscore-separated env
// key may refer to. For "token_non_expiring" this yields
// "token.non.expiring", "token.non_expiring", and "token_non_expiring".
func keyVariants(key string) []string {
	parts := strings.Split(key, "_")
	variants := []string{strings.Join(parts, "."), key}
	for i := 1; i < len(parts); i++ {
		variants = append(variants, strings.Join(parts[:i], ".")+"."+strings.Join(parts[i:], "_"))
	}
	return variants
}
