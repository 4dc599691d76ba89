// Package postgres implements the durable store port on PostgreSQL.
// Each named cache gets its rows in a shared snapshot table.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"cachekit/pkg/cache"
)

// Config holds PostgreSQL connection settings.
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// DefaultConfig returns the default connection settings.
func DefaultConfig() Config {
	return Config{
		Host:     "localhost",
		Port:     5432,
		User:     "postgres",
		Password: "postgres",
		Database: "cachekit",
		SSLMode:  "disable",
	}
}

// DSN renders the config as a lib/pq connection string.
func (c Config) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// Store persists cache snapshots in a PostgreSQL table.
type Store struct {
	db   *sql.DB
	name string
}

// New connects to PostgreSQL and returns a store for the snapshot named
// name, creating the snapshot table if needed.
func New(name string, cfg Config) (*Store, error) {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("postgres: opening connection: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: postgres ping: %v", cache.ErrStoreUnavailable, err)
	}

	s := &Store{db: db, name: name}
	if err := s.createSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) createSchema(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS cache_snapshots (
		cache_name TEXT NOT NULL,
		key        TEXT NOT NULL,
		value      JSONB NOT NULL,
		timestamp  TIMESTAMPTZ NOT NULL,
		ttl_ns     BIGINT NOT NULL,
		hit_count  INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (cache_name, key)
	)`
	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("postgres: creating schema: %w", err)
	}
	return nil
}

// Load reads this cache's snapshot rows.
func (s *Store) Load(ctx context.Context) (map[string]cache.StoredEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT key, value, timestamp, ttl_ns, hit_count FROM cache_snapshots WHERE cache_name = $1",
		s.name)
	if err != nil {
		return nil, cache.WrapError(err, "postgres", "load")
	}
	defer rows.Close()

	snapshot := make(map[string]cache.StoredEntry)
	for rows.Next() {
		var (
			key      string
			value    []byte
			ts       time.Time
			ttlNanos int64
			hitCount int
		)
		if err := rows.Scan(&key, &value, &ts, &ttlNanos, &hitCount); err != nil {
			return nil, cache.WrapError(err, "postgres", "load")
		}
		snapshot[key] = cache.StoredEntry{
			Value:     value,
			Timestamp: ts,
			TTL:       time.Duration(ttlNanos),
			HitCount:  hitCount,
		}
	}
	if err := rows.Err(); err != nil {
		return nil, cache.WrapError(err, "postgres", "load")
	}
	return snapshot, nil
}

// Save replaces this cache's snapshot rows inside one transaction.
func (s *Store) Save(ctx context.Context, snapshot map[string]cache.StoredEntry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return cache.WrapError(err, "postgres", "save")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM cache_snapshots WHERE cache_name = $1", s.name); err != nil {
		return cache.WrapError(err, "postgres", "save")
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO cache_snapshots (cache_name, key, value, timestamp, ttl_ns, hit_count)
		VALUES ($1, $2, $3, $4, $5, $6)`)
	if err != nil {
		return cache.WrapError(err, "postgres", "save")
	}
	defer stmt.Close()

	for key, entry := range snapshot {
		_, err := stmt.ExecContext(ctx, s.name, key, []byte(entry.Value),
			entry.Timestamp, int64(entry.TTL), entry.HitCount)
		if err != nil {
			return cache.WrapError(err, "postgres", "save")
		}
	}

	if err := tx.Commit(); err != nil {
		return cache.WrapError(err, "postgres", "save")
	}
	return nil
}

// Close closes the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}
