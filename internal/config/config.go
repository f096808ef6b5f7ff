// Package config provides configuration management for the Planet STAC proxy service.
package config

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds the complete application configuration loaded from environment variables.
type Config struct {
	Server   ServerConfig  `envPrefix:"SERVER_"`
	Planet   PlanetConfig  `envPrefix:"PLANET_"`
	STAC     STACConfig    `envPrefix:"STAC_"`
	Features FeatureConfig `envPrefix:"FEATURE_"`
	Logging  LoggingConfig `envPrefix:"LOG_"`
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Host            string        `env:"HOST" envDefault:"0.0.0.0"`
	Port            int           `env:"PORT" envDefault:"8080"`
	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"30s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"240s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// PlanetConfig contains Planet Data API client configuration.
type PlanetConfig struct {
	BaseURL string        `env:"BASE_URL" envDefault:"https://api.planet.com/data/v1"`
	Timeout time.Duration `env:"TIMEOUT" envDefault:"180s"`

	// APIKeys holds the service's own Planet API keys, rotated round-robin
	// across requests. Empty means callers must supply basic auth credentials.
	APIKeys []string `env:"API_KEYS" envSeparator:":"`
}

// STACConfig contains STAC API metadata configuration.
type STACConfig struct {
	Version     string `env:"VERSION" envDefault:"1.0.0"`
	BaseURL     string `env:"BASE_URL"` // Public-facing URL (required)
	Title       string `env:"TITLE" envDefault:"Planet STAC API"`
	Description string `env:"DESCRIPTION" envDefault:"STAC API proxy for the Planet Data API"`

	// TokenKey is the base64-encoded 32-byte key used to seal pagination
	// tokens. A fresh random key is generated at startup when unset, which
	// invalidates outstanding tokens across restarts.
	TokenKey string `env:"TOKEN_KEY"`

	// CatalogDir points at a directory of item type JSON overrides. Empty
	// serves the built-in catalog.
	CatalogDir string `env:"CATALOG_DIR"`
}

// FeatureConfig contains feature flags and limits.
type FeatureConfig struct {
	EnableQueryables bool `env:"ENABLE_QUERYABLES" envDefault:"true"`
	DefaultLimit     int  `env:"DEFAULT_LIMIT" envDefault:"10"`
	MaxLimit         int  `env:"MAX_LIMIT" envDefault:"250"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level  string `env:"LEVEL" envDefault:"info"`
	Format string `env:"FORMAT" envDefault:"json"`
}

// Load parses configuration from environment variables.
// It returns an error if required fields are missing or invalid.
func Load() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server port must be between 1 and 65535, got %d", c.Server.Port)
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server read timeout must be positive, got %s", c.Server.ReadTimeout)
	}

	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server write timeout must be positive, got %s", c.Server.WriteTimeout)
	}

	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("server shutdown timeout must be positive, got %s", c.Server.ShutdownTimeout)
	}

	if c.Planet.BaseURL == "" {
		return fmt.Errorf("Planet base URL is required")
	}

	if c.Planet.Timeout <= 0 {
		return fmt.Errorf("Planet timeout must be positive, got %s", c.Planet.Timeout)
	}

	for i, key := range c.Planet.APIKeys {
		if strings.TrimSpace(key) == "" {
			return fmt.Errorf("Planet API key at index %d is empty", i)
		}
	}

	if c.STAC.BaseURL == "" {
		return fmt.Errorf("STAC base URL is required")
	}

	if c.STAC.Version == "" {
		return fmt.Errorf("STAC version is required")
	}

	if c.STAC.TokenKey != "" {
		raw, err := base64.URLEncoding.DecodeString(c.STAC.TokenKey)
		if err != nil {
			return fmt.Errorf("token key must be base64url-encoded: %w", err)
		}
		if len(raw) != 32 {
			return fmt.Errorf("token key must decode to 32 bytes, got %d", len(raw))
		}
	}

	if c.Features.DefaultLimit < 1 {
		return fmt.Errorf("default limit must be at least 1, got %d", c.Features.DefaultLimit)
	}

	if c.Features.MaxLimit < c.Features.DefaultLimit {
		return fmt.Errorf("max limit (%d) must be >= default limit (%d)", c.Features.MaxLimit, c.Features.DefaultLimit)
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level %q, must be one of: debug, info, warn, error", c.Logging.Level)
	}

	validLogFormats := map[string]bool{
		"json": true,
		"text": true,
	}
	if !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("invalid log format %q, must be one of: json, text", c.Logging.Format)
	}

	return nil
}

// Address returns the server listen address in the format "host:port".
func (s *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}
