package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Listen != ":8080" {
		t.Errorf("expected default listen :8080, got %s", cfg.Listen)
	}
	if cfg.Store.Backend != "sqlite" {
		t.Errorf("expected sqlite backend, got %s", cfg.Store.Backend)
	}
	if cfg.Cache.DefaultTTL() != 5*time.Minute {
		t.Errorf("expected 5m default ttl, got %v", cfg.Cache.DefaultTTL())
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cachekit.toml")
	content := `
listen = ":9090"
log_level = "debug"

[cache]
name = "dogs"
l1_max_size = 50

[store]
backend = "redis"
redis_addr = "redis.internal:6379"
flush_interval_seconds = 60
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Listen != ":9090" {
		t.Errorf("expected listen :9090, got %s", cfg.Listen)
	}
	if cfg.Cache.Name != "dogs" {
		t.Errorf("expected cache name dogs, got %s", cfg.Cache.Name)
	}
	if cfg.Cache.L1MaxSize != 50 {
		t.Errorf("expected l1 max 50, got %d", cfg.Cache.L1MaxSize)
	}
	// Unset fields keep their defaults.
	if cfg.Cache.ManagerMaxSize != 500 {
		t.Errorf("expected default manager max, got %d", cfg.Cache.ManagerMaxSize)
	}
	if cfg.Store.Backend != "redis" {
		t.Errorf("expected redis backend, got %s", cfg.Store.Backend)
	}
	if cfg.Store.FlushInterval() != time.Minute {
		t.Errorf("expected 1m flush interval, got %v", cfg.Store.FlushInterval())
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("CACHEKIT_LISTEN", ":7070")
	t.Setenv("CACHEKIT_STORE_BACKEND", "postgres")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Listen != ":7070" {
		t.Errorf("expected env listen override, got %s", cfg.Listen)
	}
	if cfg.Store.Backend != "postgres" {
		t.Errorf("expected env backend override, got %s", cfg.Store.Backend)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown backend", func(c *Config) { c.Store.Backend = "dynamo" }},
		{"zero l1 size", func(c *Config) { c.Cache.L1MaxSize = 0 }},
		{"zero manager size", func(c *Config) { c.Cache.ManagerMaxSize = 0 }},
		{"zero ttl", func(c *Config) { c.Cache.DefaultTTLSeconds = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
