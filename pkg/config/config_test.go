package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}
	return path
}

func TestLoadConfig_ValidFile(t *testing.T) {
	path := writeConfig(t, `
server:
  host: 0.0.0.0
  port: 8181
auth:
  enabled: true
  tokens:
    secret-token: peer-agent
rate_limit:
  requests_per_second: 10
session:
  store: redis
  redis:
    addr: localhost:6379
cache:
  enabled: true
  addr: localhost:6379
  ttl: 5m
tracing:
  exporter: stdout
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != 8181 {
		t.Errorf("port = %d, want 8181", cfg.Server.Port)
	}
	if !cfg.Auth.Enabled || cfg.Auth.Tokens["secret-token"] != "peer-agent" {
		t.Errorf("auth = %+v", cfg.Auth)
	}
	if cfg.RateLimit.Burst != 10 {
		t.Errorf("burst should default to rps, got %d", cfg.RateLimit.Burst)
	}
	if cfg.Session.Store != "redis" || cfg.Session.Redis.Addr != "localhost:6379" {
		t.Errorf("session = %+v", cfg.Session)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate failed: %v", err)
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, "{}\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Host != "localhost" || cfg.Server.Port != 8080 {
		t.Errorf("server defaults = %+v", cfg.Server)
	}
	if cfg.Server.ObservabilityPort != 9090 {
		t.Errorf("observability port = %d, want 9090", cfg.Server.ObservabilityPort)
	}
	if cfg.Session.Store != "memory" {
		t.Errorf("session store = %q, want memory", cfg.Session.Store)
	}
	if cfg.Tracing.Exporter != "none" {
		t.Errorf("exporter = %q, want none", cfg.Tracing.Exporter)
	}
}

func TestLoadConfig_NonexistentFile(t *testing.T) {
	if _, err := LoadConfig("/nonexistent/path/config.yaml"); err == nil {
		t.Error("expected error for nonexistent file")
	}
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	if _, err := LoadConfig(writeConfig(t, "server: [[[\n")); err == nil {
		t.Error("expected error for invalid YAML")
	}
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("TRIPGO_REDIS_ADDR", "redis.internal:6379")
	t.Setenv("TRIPGO_PORT", "9999")

	cfg, err := LoadConfig(writeConfig(t, "{}\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Session.Redis.Addr != "redis.internal:6379" {
		t.Errorf("redis addr = %q", cfg.Session.Redis.Addr)
	}
	if cfg.Cache.Addr != "redis.internal:6379" {
		t.Errorf("cache addr = %q", cfg.Cache.Addr)
	}
	if cfg.Server.Port != 9999 {
		t.Errorf("port = %d, want 9999", cfg.Server.Port)
	}
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"port out of range", func(c *Config) { c.Server.Port = 70000 }},
		{"auth without tokens", func(c *Config) { c.Auth.Enabled = true }},
		{"negative rate", func(c *Config) { c.RateLimit.RequestsPerSecond = -1 }},
		{"redis store without addr", func(c *Config) { c.Session.Store = "redis" }},
		{"cache without addr", func(c *Config) { c.Cache.Enabled = true }},
		{"unknown exporter", func(c *Config) { c.Tracing.Exporter = "jaeger" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
