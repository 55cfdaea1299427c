// Package config loads the service configuration from YAML with
// environment overrides.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/tripgo-dev/tripgo/pkg/session"
)

// Config represents the application configuration
type Config struct {
	// Server Configuration
	Server ServerConfig `yaml:"server"`

	// Auth Configuration
	Auth AuthConfig `yaml:"auth"`

	// Rate Limiting
	RateLimit RateLimitConfig `yaml:"rate_limit"`

	// Session Storage
	Session session.Config `yaml:"session"`

	// Search Cache (Redis decorator over the destination provider)
	Cache CacheConfig `yaml:"cache"`

	// Tracing Configuration
	Tracing TracingConfig `yaml:"tracing"`
}

// ServerConfig holds service endpoint configuration
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
	// ObservabilityPort serves /health and /metrics.
	ObservabilityPort int `yaml:"observability_port"`
}

// AuthConfig holds the token authentication configuration
type AuthConfig struct {
	Enabled bool `yaml:"enabled"`
	// Tokens maps accepted tokens to principal names.
	Tokens map[string]string `yaml:"tokens,omitempty"`
}

// RateLimitConfig holds admission control configuration
type RateLimitConfig struct {
	// RequestsPerSecond of 0 disables rate limiting.
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
}

// CacheConfig holds search cache configuration
type CacheConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Addr     string `yaml:"addr,omitempty"`
	Password string `yaml:"password,omitempty"`
	DB       int    `yaml:"db,omitempty"`
	Prefix   string `yaml:"prefix,omitempty"`
	// TTL is the cached search entry lifetime (e.g. "5m").
	TTL string `yaml:"ttl,omitempty"`
}

// TracingConfig holds trace exporter configuration
type TracingConfig struct {
	// Exporter selects the span exporter: none, stdout, otlp.
	Exporter string `yaml:"exporter"`
	Endpoint string `yaml:"endpoint,omitempty"`
}

// LoadConfig loads configuration from a YAML file
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyDefaults()
	cfg.applyEnv()
	return &cfg, nil
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	cfg.applyEnv()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "localhost"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.ObservabilityPort == 0 {
		c.Server.ObservabilityPort = 9090
	}
	if c.RateLimit.Burst == 0 && c.RateLimit.RequestsPerSecond > 0 {
		c.RateLimit.Burst = int(c.RateLimit.RequestsPerSecond)
	}
	if c.Session.Store == "" {
		c.Session = session.DefaultConfig()
	}
	if c.Tracing.Exporter == "" {
		c.Tracing.Exporter = "none"
	}
}

func (c *Config) applyEnv() {
	if addr := os.Getenv("TRIPGO_REDIS_ADDR"); addr != "" {
		c.Session.Redis.Addr = addr
		if c.Cache.Addr == "" {
			c.Cache.Addr = addr
		}
	}
	if password := os.Getenv("TRIPGO_REDIS_PASSWORD"); password != "" {
		c.Session.Redis.Password = password
		c.Cache.Password = password
	}
	if port := os.Getenv("TRIPGO_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			c.Server.Port = p
		}
	}
	if exporter := os.Getenv("TRIPGO_TRACE_EXPORTER"); exporter != "" {
		c.Tracing.Exporter = exporter
	}
	if endpoint := os.Getenv("TRIPGO_TRACE_ENDPOINT"); endpoint != "" {
		c.Tracing.Endpoint = endpoint
	}
}

// SaveConfig saves configuration to a YAML file
func SaveConfig(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server port %d out of range", c.Server.Port)
	}
	if c.Auth.Enabled && len(c.Auth.Tokens) == 0 {
		return fmt.Errorf("auth enabled but no tokens configured")
	}
	if c.RateLimit.RequestsPerSecond < 0 {
		return fmt.Errorf("requests_per_second cannot be negative")
	}
	if c.Session.Store == "redis" && c.Session.Redis.Addr == "" {
		return fmt.Errorf("redis session store requires an address")
	}
	if c.Cache.Enabled && c.Cache.Addr == "" {
		return fmt.Errorf("search cache requires a redis address")
	}
	switch c.Tracing.Exporter {
	case "", "none", "stdout", "otlp":
	default:
		return fmt.Errorf("unknown tracing exporter %q", c.Tracing.Exporter)
	}
	return nil
}
