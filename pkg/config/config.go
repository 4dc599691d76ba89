// Package config loads the daemon configuration from a TOML file with
// environment variable overrides.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// Config is the daemon configuration.
type Config struct {
	Listen    string `toml:"listen"`
	LogLevel  string `toml:"log_level"`
	LogFormat string `toml:"log_format"`

	Cache CacheConfig `toml:"cache"`
	Store StoreConfig `toml:"store"`
}

// CacheConfig sizes the cache tiers.
type CacheConfig struct {
	// Name identifies the snapshot in the durable store.
	Name string `toml:"name"`

	// L1MaxSize bounds the in-memory tier.
	L1MaxSize int `toml:"l1_max_size"`

	// ManagerMaxSize bounds the hot-key aware manager.
	ManagerMaxSize int `toml:"manager_max_size"`

	// DefaultTTLSeconds applies to entries set without an explicit TTL.
	DefaultTTLSeconds int `toml:"default_ttl_seconds"`
}

// StoreConfig selects and configures the durable backend.
type StoreConfig struct {
	// Backend is one of "sqlite", "redis", "postgres".
	Backend string `toml:"backend"`

	SQLitePath string `toml:"sqlite_path"`

	RedisAddr     string `toml:"redis_addr"`
	RedisPassword string `toml:"redis_password"`
	RedisDB       int    `toml:"redis_db"`

	PostgresHost     string `toml:"postgres_host"`
	PostgresPort     int    `toml:"postgres_port"`
	PostgresUser     string `toml:"postgres_user"`
	PostgresPassword string `toml:"postgres_password"`
	PostgresDatabase string `toml:"postgres_database"`

	// FlushIntervalSeconds drives the periodic snapshot flusher.
	FlushIntervalSeconds int `toml:"flush_interval_seconds"`
}

// Default returns the built-in defaults: sqlite backend, 5 minute TTL.
func Default() Config {
	return Config{
		Listen:    ":8080",
		LogLevel:  "info",
		LogFormat: "json",
		Cache: CacheConfig{
			Name:              "default",
			L1MaxSize:         1000,
			ManagerMaxSize:    500,
			DefaultTTLSeconds: 300,
		},
		Store: StoreConfig{
			Backend:              "sqlite",
			SQLitePath:           "cachekit.db",
			RedisAddr:            "localhost:6379",
			PostgresHost:         "localhost",
			PostgresPort:         5432,
			PostgresUser:         "postgres",
			PostgresDatabase:     "cachekit",
			FlushIntervalSeconds: 300,
		},
	}
}

// Load reads path (if non-empty) over the defaults, then applies
// environment overrides and validates.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: decoding %s: %w", path, err)
		}
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// applyEnv overrides selected fields from the environment.
func applyEnv(cfg *Config) {
	if v := os.Getenv("CACHEKIT_LISTEN"); v != "" {
		cfg.Listen = v
	}
	if v := os.Getenv("CACHEKIT_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("CACHEKIT_STORE_BACKEND"); v != "" {
		cfg.Store.Backend = v
	}
	if v := os.Getenv("CACHEKIT_SQLITE_PATH"); v != "" {
		cfg.Store.SQLitePath = v
	}
	if v := os.Getenv("CACHEKIT_REDIS_ADDR"); v != "" {
		cfg.Store.RedisAddr = v
	}
	if v := os.Getenv("CACHEKIT_REDIS_PASSWORD"); v != "" {
		cfg.Store.RedisPassword = v
	}
	if v := os.Getenv("CACHEKIT_POSTGRES_PASSWORD"); v != "" {
		cfg.Store.PostgresPassword = v
	}
}

// Validate rejects impossible configurations.
func (c Config) Validate() error {
	switch c.Store.Backend {
	case "sqlite", "redis", "postgres":
	default:
		return fmt.Errorf("config: unknown store backend %q", c.Store.Backend)
	}
	if c.Cache.L1MaxSize <= 0 {
		return fmt.Errorf("config: l1_max_size must be positive")
	}
	if c.Cache.ManagerMaxSize <= 0 {
		return fmt.Errorf("config: manager_max_size must be positive")
	}
	if c.Cache.DefaultTTLSeconds <= 0 {
		return fmt.Errorf("config: default_ttl_seconds must be positive")
	}
	return nil
}

// DefaultTTL returns the default TTL as a duration.
func (c CacheConfig) DefaultTTL() time.Duration {
	return time.Duration(c.DefaultTTLSeconds) * time.Second
}

// FlushInterval returns the flush interval as a duration.
func (c StoreConfig) FlushInterval() time.Duration {
	return time.Duration(c.FlushIntervalSeconds) * time.Second
}
