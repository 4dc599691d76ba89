// Package sqlite implements the durable store port on a local SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"cachekit/pkg/cache"
)

// Store persists cache snapshots in a single SQLite table.
type Store struct {
	db   *sql.DB
	path string
}

// Open creates or opens the snapshot database at path, creating parent
// directories as needed.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("sqlite: creating directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	s := &Store{db: db, path: path}
	if err := s.configure(); err != nil {
		db.Close()
		return nil, err
	}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) configure() error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
	}
	for _, pragma := range pragmas {
		if _, err := s.db.Exec(pragma); err != nil {
			return fmt.Errorf("sqlite: executing %q: %w", pragma, err)
		}
	}
	return nil
}

func (s *Store) createSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS snapshot (
		key        TEXT PRIMARY KEY,
		value      BLOB NOT NULL,
		timestamp  INTEGER NOT NULL,
		ttl_ns     INTEGER NOT NULL,
		hit_count  INTEGER NOT NULL DEFAULT 0
	);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("sqlite: creating schema: %w", err)
	}
	return nil
}

// Load reads the full snapshot.
func (s *Store) Load(ctx context.Context) (map[string]cache.StoredEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT key, value, timestamp, ttl_ns, hit_count FROM snapshot")
	if err != nil {
		return nil, cache.WrapError(err, "sqlite", "load")
	}
	defer rows.Close()

	snapshot := make(map[string]cache.StoredEntry)
	for rows.Next() {
		var (
			key      string
			value    []byte
			tsNanos  int64
			ttlNanos int64
			hitCount int
		)
		if err := rows.Scan(&key, &value, &tsNanos, &ttlNanos, &hitCount); err != nil {
			return nil, cache.WrapError(err, "sqlite", "load")
		}
		snapshot[key] = cache.StoredEntry{
			Value:     value,
			Timestamp: time.Unix(0, tsNanos),
			TTL:       time.Duration(ttlNanos),
			HitCount:  hitCount,
		}
	}
	if err := rows.Err(); err != nil {
		return nil, cache.WrapError(err, "sqlite", "load")
	}
	return snapshot, nil
}

// Save replaces the stored snapshot inside one transaction.
func (s *Store) Save(ctx context.Context, snapshot map[string]cache.StoredEntry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return cache.WrapError(err, "sqlite", "save")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM snapshot"); err != nil {
		return cache.WrapError(err, "sqlite", "save")
	}

	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO snapshot (key, value, timestamp, ttl_ns, hit_count) VALUES (?, ?, ?, ?, ?)")
	if err != nil {
		return cache.WrapError(err, "sqlite", "save")
	}
	defer stmt.Close()

	for key, entry := range snapshot {
		_, err := stmt.ExecContext(ctx, key, []byte(entry.Value),
			entry.Timestamp.UnixNano(), int64(entry.TTL), entry.HitCount)
		if err != nil {
			return cache.WrapError(err, "sqlite", "save")
		}
	}

	if err := tx.Commit(); err != nil {
		return cache.WrapError(err, "sqlite", "save")
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
