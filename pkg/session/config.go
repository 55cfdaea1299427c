package session

import (
	"fmt"
	"time"
)

// Config holds session configuration from YAML.
type Config struct {
	// Store specifies the storage backend type.
	// Options: "memory", "redis".
	// Default: "memory".
	Store string `yaml:"store"`

	// TTL is how long closed session records are retained
	// (Redis only; e.g. "24h"). Empty means never expire.
	TTL string `yaml:"ttl,omitempty"`

	// Redis contains connection settings for the "redis" store.
	Redis RedisYAMLConfig `yaml:"redis,omitempty"`
}

// RedisYAMLConfig mirrors RedisConfig for YAML loading.
type RedisYAMLConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password,omitempty"`
	DB       int    `yaml:"db,omitempty"`
	Prefix   string `yaml:"prefix,omitempty"`
	PoolSize int    `yaml:"pool_size,omitempty"`
}

// DefaultConfig returns the default session configuration.
func DefaultConfig() Config {
	return Config{
		Store: "memory",
	}
}

// NewBackend builds the storage backend the configuration selects.
func NewBackend(cfg Config) (StorageBackend, error) {
	var ttl time.Duration
	if cfg.TTL != "" {
		d, err := time.ParseDuration(cfg.TTL)
		if err != nil {
			return nil, fmt.Errorf("parse session ttl: %w", err)
		}
		ttl = d
	}

	switch cfg.Store {
	case "", "memory":
		return NewMemoryBackend(), nil
	case "redis":
		return NewRedisBackend(RedisConfig{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			Prefix:     cfg.Redis.Prefix,
			SessionTTL: ttl,
			PoolSize:   cfg.Redis.PoolSize,
		})
	default:
		return nil, fmt.Errorf("unknown session store %q", cfg.Store)
	}
}
