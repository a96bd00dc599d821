package config

import (
	"encoding/hex"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// SeedUser is a user provisioned at startup
type SeedUser struct {
	ID       string `yaml:"id"`
	Email    string `yaml:"email"`
	Name     string `yaml:"name"`
	Password string `yaml:"password"`
}

// Config holds the full service configuration
type Config struct {
	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`

	Redis struct {
		// URL is a redis:// connection string; empty selects the
		// in-memory store
		URL string `yaml:"url"`
	} `yaml:"redis"`

	Auth struct {
		Issuer string `yaml:"issuer"`

		// SealKey is 32 bytes, hex encoded. Empty generates a random
		// key at startup, which invalidates outstanding tokens and
		// sessions on restart.
		SealKey string `yaml:"seal_key"`

		TokenTTLMinutes          int `yaml:"token_ttl_minutes"`
		PendingSessionTTLMinutes int `yaml:"pending_session_ttl_minutes"`
		MaxLoginAttempts         int `yaml:"max_login_attempts"`
		LoginWindowSeconds       int `yaml:"login_window_seconds"`
	} `yaml:"auth"`

	Users []SeedUser `yaml:"users"`
}

// Load reads configuration from the given YAML file, then applies
// environment overrides. A missing path yields the defaults.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	cfg.Server.Addr = ":9000"
	cfg.Auth.Issuer = "authgate"

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if addr := os.Getenv("SERVER_ADDR"); addr != "" {
		cfg.Server.Addr = addr
	}
	if url := os.Getenv("REDIS_URL"); url != "" {
		cfg.Redis.URL = url
	}
	if key := os.Getenv("SEAL_KEY"); key != "" {
		cfg.Auth.SealKey = key
	}

	if cfg.Auth.SealKey != "" {
		if _, err := cfg.SealKeyBytes(); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// SealKeyBytes decodes the configured seal key
func (c *Config) SealKeyBytes() ([]byte, error) {
	key, err := hex.DecodeString(c.Auth.SealKey)
	if err != nil {
		return nil, fmt.Errorf("seal_key is not valid hex: %w", err)
	}
	return key, nil
}

// TokenTTL returns the bearer token lifetime; zero means the tokenizer
// default
func (c *Config) TokenTTL() time.Duration {
	return time.Duration(c.Auth.TokenTTLMinutes) * time.Minute
}

// PendingSessionTTL returns the pending session lifetime; zero means the
// service default
func (c *Config) PendingSessionTTL() time.Duration {
	return time.Duration(c.Auth.PendingSessionTTLMinutes) * time.Minute
}

// LoginWindow returns the rate limit window; zero means the service
// default
func (c *Config) LoginWindow() time.Duration {
	return time.Duration(c.Auth.LoginWindowSeconds) * time.Second
}
