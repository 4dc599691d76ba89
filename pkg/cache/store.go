package cache

import "context"

// Store is the durable key-value port consumed by the persistent cache tier.
// Implementations persist whole snapshots: Load returns everything saved by
// the last Save, and Save replaces the previous snapshot entirely.
//
// Stores return errors on hard I/O failure; the cache tiers above them catch
// and log those errors rather than propagating them, degrading to an
// in-memory-only cache.
type Store interface {
	// Load reads the last saved snapshot. A nil map with nil error means
	// nothing has been saved yet.
	Load(ctx context.Context) (map[string]StoredEntry, error)

	// Save replaces the stored snapshot with the given entries.
	Save(ctx context.Context, snapshot map[string]StoredEntry) error

	// Close releases any resources held by the store.
	Close() error
}
