// Package redis implements the durable store port on a Redis server,
// holding the whole snapshot as one JSON value under a namespaced key.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/rueidis"

	"cachekit/pkg/cache"
)

// Config holds Redis connection settings.
type Config struct {
	// Addr is the server address, e.g. "localhost:6379".
	Addr     string
	Username string
	Password string
	// DB is the database number (0-15).
	DB int
	// KeyPrefix namespaces the snapshot key. The snapshot for cache
	// "dogs" with prefix "cachekit:" lives at "cachekit:dogs".
	KeyPrefix string
	// SnapshotTTL expires abandoned snapshots server-side. 0 disables.
	SnapshotTTL time.Duration
	DialTimeout time.Duration
}

// DefaultConfig returns the default connection settings.
func DefaultConfig() Config {
	return Config{
		Addr:        "localhost:6379",
		KeyPrefix:   "cachekit:",
		SnapshotTTL: 24 * time.Hour,
		DialTimeout: 5 * time.Second,
	}
}

// Store persists cache snapshots in Redis.
type Store struct {
	client rueidis.Client
	key    string
	config Config
}

// New connects to Redis and returns a store for the snapshot named name.
func New(name string, config Config) (*Store, error) {
	if config.Addr == "" {
		return nil, fmt.Errorf("redis: no address configured")
	}

	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress: []string{config.Addr},
		Username:    config.Username,
		Password:    config.Password,
		SelectDB:    config.DB,
	})
	if err != nil {
		return nil, fmt.Errorf("redis: creating client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), config.DialTimeout)
	defer cancel()
	if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: redis ping: %v", cache.ErrStoreUnavailable, err)
	}

	return &Store{
		client: client,
		key:    config.KeyPrefix + name,
		config: config,
	}, nil
}

// Load reads the snapshot. A missing key means nothing has been saved yet.
func (s *Store) Load(ctx context.Context) (map[string]cache.StoredEntry, error) {
	resp := s.client.Do(ctx, s.client.B().Get().Key(s.key).Build())
	if err := resp.Error(); err != nil {
		if rueidis.IsRedisNil(err) {
			return nil, nil
		}
		return nil, cache.WrapError(err, "redis", "load")
	}

	data, err := resp.AsBytes()
	if err != nil {
		return nil, cache.WrapError(err, "redis", "load")
	}

	var snapshot map[string]cache.StoredEntry
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, cache.WrapError(err, "redis", "load")
	}
	return snapshot, nil
}

// Save replaces the snapshot, refreshing its server-side TTL.
func (s *Store) Save(ctx context.Context, snapshot map[string]cache.StoredEntry) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return cache.WrapError(err, "redis", "save")
	}

	var cmd rueidis.Completed
	if s.config.SnapshotTTL > 0 {
		cmd = s.client.B().Set().Key(s.key).Value(string(data)).Ex(s.config.SnapshotTTL).Build()
	} else {
		cmd = s.client.B().Set().Key(s.key).Value(string(data)).Build()
	}
	if err := s.client.Do(ctx, cmd).Error(); err != nil {
		return cache.WrapError(err, "redis", "save")
	}
	return nil
}

// Close releases the client.
func (s *Store) Close() error {
	s.client.Close()
	return nil
}
