package config

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"
)

func validConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    240 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Planet: PlanetConfig{
			BaseURL: "https://api.planet.com/data/v1",
			Timeout: 180 * time.Second,
		},
		STAC: STACConfig{
			Version: "1.0.0",
			BaseURL: "https://stac.example.com",
		},
		Features: FeatureConfig{
			DefaultLimit: 10,
			MaxLimit:     250,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

func TestValidate(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"bad port", func(c *Config) { c.Server.Port = 0 }, "port"},
		{"missing planet url", func(c *Config) { c.Planet.BaseURL = "" }, "Planet base URL"},
		{"empty api key", func(c *Config) { c.Planet.APIKeys = []string{"a", " "} }, "API key"},
		{"missing stac url", func(c *Config) { c.STAC.BaseURL = "" }, "STAC base URL"},
		{"short token key", func(c *Config) {
			c.STAC.TokenKey = base64.URLEncoding.EncodeToString([]byte("short"))
		}, "32 bytes"},
		{"garbage token key", func(c *Config) { c.STAC.TokenKey = "!!!" }, "base64url"},
		{"zero default limit", func(c *Config) { c.Features.DefaultLimit = 0 }, "default limit"},
		{"max below default", func(c *Config) { c.Features.MaxLimit = 5 }, "max limit"},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }, "log level"},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }, "log format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestValidateTokenKey(t *testing.T) {
	cfg := validConfig()
	cfg.STAC.TokenKey = base64.URLEncoding.EncodeToString(make([]byte, 32))
	if err := cfg.Validate(); err != nil {
		t.Errorf("valid 32-byte token key rejected: %v", err)
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("STAC_BASE_URL", "https://stac.example.com")
	t.Setenv("PLANET_API_KEYS", "key-one:key-two")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Planet.BaseURL != "https://api.planet.com/data/v1" {
		t.Errorf("unexpected planet base url: %q", cfg.Planet.BaseURL)
	}
	if len(cfg.Planet.APIKeys) != 2 || cfg.Planet.APIKeys[1] != "key-two" {
		t.Errorf("unexpected api keys: %v", cfg.Planet.APIKeys)
	}
	if cfg.Server.Address() != "0.0.0.0:9090" {
		t.Errorf("unexpected address: %q", cfg.Server.Address())
	}
}

func TestLoadMissingRequired(t *testing.T) {
	t.Setenv("STAC_BASE_URL", "")
	if _, err := Load(); err == nil {
		t.Error("expected error when STAC_BASE_URL is unset")
	}
}
