// Package persistent implements the durable cache tier: an in-memory
// mirror of a snapshot held by a cache.Store, loaded lazily and flushed
// back periodically and on write milestones.
package persistent

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"cachekit/pkg/cache"
	"cachekit/pkg/metrics"
)

// autoSaveEvery triggers a save whenever the cache size is a multiple of
// this value after a Set. Note this keys off size, not write count: deletes
// and re-adds can make saves fire rarely or not at all. The periodic
// flusher bounds the staleness this can cause.
const autoSaveEvery = 10

// Cache mirrors a durable store snapshot in memory. It is not size-bounded;
// expired entries are pruned when read and filtered out at save time.
//
// Store failures are logged and swallowed: the cache degrades to an
// in-memory-only cache rather than surfacing errors to callers.
type Cache[T any] struct {
	mu      sync.Mutex
	name    string
	version int
	store   cache.Store
	entries map[string]*cache.Entry[T]
	loaded  bool

	defaultTTL time.Duration
	stats      cache.Stats

	logger    *zap.Logger
	collector metrics.Collector

	flushInterval time.Duration
	stopFlush     chan struct{}
	flushDone     chan struct{}
}

// Option configures a Cache.
type Option[T any] func(*Cache[T])

// WithLogger sets the logger used for degraded-store warnings.
func WithLogger[T any](logger *zap.Logger) Option[T] {
	return func(c *Cache[T]) { c.logger = logger }
}

// WithCollector sets the metrics collector.
func WithCollector[T any](collector metrics.Collector) Option[T] {
	return func(c *Cache[T]) { c.collector = collector }
}

// WithFlushInterval enables the background flusher, saving the snapshot
// every interval until Close is called.
func WithFlushInterval[T any](interval time.Duration) Option[T] {
	return func(c *Cache[T]) { c.flushInterval = interval }
}

// WithVersion sets the snapshot schema version recorded in logs. Bumping
// it discards nothing by itself; stores namespace snapshots by name.
func WithVersion[T any](version int) Option[T] {
	return func(c *Cache[T]) { c.version = version }
}

// New creates a persistent cache named name over the given store. The name
// identifies the snapshot in logs and diagnostics. Entries set without an
// explicit TTL use defaultTTL.
func New[T any](name string, store cache.Store, defaultTTL time.Duration, opts ...Option[T]) *Cache[T] {
	if defaultTTL <= 0 {
		defaultTTL = time.Hour
	}

	c := &Cache[T]{
		name:       name,
		version:    1,
		store:      store,
		entries:    make(map[string]*cache.Entry[T]),
		defaultTTL: defaultTTL,
		logger:     zap.NewNop(),
		collector:  metrics.NopCollector{},
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.Named("persistent").With(zap.String("cache", name))

	if c.flushInterval > 0 {
		c.stopFlush = make(chan struct{})
		c.flushDone = make(chan struct{})
		go c.flushLoop()
	}

	return c
}

// Load reads the stored snapshot into memory. It is idempotent: only the
// first call hits the store. Load failures reset the cache to empty and
// are logged, never returned.
func (c *Cache[T]) Load(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ensureLoaded(ctx)
}

// ensureLoaded performs the lazy load. Caller must hold the mutex.
func (c *Cache[T]) ensureLoaded(ctx context.Context) {
	if c.loaded {
		return
	}
	c.loaded = true

	start := time.Now()
	snapshot, err := c.store.Load(ctx)
	c.collector.RecordStoreLoad(err == nil, time.Since(start))
	if err != nil {
		c.logger.Warn("snapshot load failed, starting empty",
			zap.String("class", cache.ClassifyError(err)),
			zap.Error(err))
		c.entries = make(map[string]*cache.Entry[T])
		return
	}

	entries := make(map[string]*cache.Entry[T], len(snapshot))
	for key, stored := range snapshot {
		var value T
		if err := json.Unmarshal(stored.Value, &value); err != nil {
			c.logger.Warn("skipping undecodable entry",
				zap.String("key", key), zap.Error(err))
			continue
		}
		entries[key] = &cache.Entry[T]{
			Value:      value,
			Timestamp:  stored.Timestamp,
			TTL:        stored.TTL,
			HitCount:   stored.HitCount,
			LastAccess: stored.Timestamp,
		}
	}
	c.entries = entries

	c.logger.Debug("snapshot loaded",
		zap.Int("entries", len(entries)),
		zap.Int("version", c.version))
}

// Save writes all non-expired entries to the store. Failures are logged
// and swallowed.
func (c *Cache[T]) Save(ctx context.Context) {
	c.mu.Lock()
	snapshot := c.snapshotLocked()
	c.mu.Unlock()

	c.save(ctx, snapshot)
}

// snapshotLocked serializes the non-expired entries. Caller must hold the
// mutex.
func (c *Cache[T]) snapshotLocked() map[string]cache.StoredEntry {
	snapshot := make(map[string]cache.StoredEntry, len(c.entries))
	for key, entry := range c.entries {
		if entry.Expired() {
			continue
		}
		raw, err := json.Marshal(entry.Value)
		if err != nil {
			c.logger.Warn("skipping unserializable entry",
				zap.String("key", key), zap.Error(err))
			continue
		}
		snapshot[key] = cache.StoredEntry{
			Value:     raw,
			Timestamp: entry.Timestamp,
			TTL:       entry.TTL,
			HitCount:  entry.HitCount,
		}
	}
	return snapshot
}

func (c *Cache[T]) save(ctx context.Context, snapshot map[string]cache.StoredEntry) {
	start := time.Now()
	err := c.store.Save(ctx, snapshot)
	c.collector.RecordStoreSave(err == nil, time.Since(start))
	if err != nil {
		c.logger.Warn("snapshot save failed",
			zap.String("class", cache.ClassifyError(err)),
			zap.Error(err))
		return
	}
	c.logger.Debug("snapshot saved", zap.Int("entries", len(snapshot)))
}

// Get returns the value for key and whether it was found, triggering the
// lazy load on first use. Expired entries are removed and reported as
// misses.
func (c *Cache[T]) Get(ctx context.Context, key string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ensureLoaded(ctx)

	var zero T
	entry, ok := c.entries[key]
	if !ok {
		c.stats.Misses++
		return zero, false
	}
	if entry.Expired() {
		delete(c.entries, key)
		c.stats.Misses++
		c.stats.Evictions++
		return zero, false
	}

	entry.Touch()
	c.stats.Hits++
	return entry.Value, true
}

// Set stores value under key (defaultTTL when ttl <= 0). When the
// resulting cache size is a multiple of ten the snapshot is saved
// immediately; see autoSaveEvery for the caveat.
func (c *Cache[T]) Set(ctx context.Context, key string, value T, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}

	c.mu.Lock()
	c.ensureLoaded(ctx)
	c.entries[key] = cache.NewEntry(value, ttl)

	var snapshot map[string]cache.StoredEntry
	if len(c.entries)%autoSaveEvery == 0 {
		snapshot = c.snapshotLocked()
	}
	c.mu.Unlock()

	if snapshot != nil {
		c.save(ctx, snapshot)
	}
}

// Clear empties the cache and persists the empty snapshot immediately.
func (c *Cache[T]) Clear(ctx context.Context) {
	c.mu.Lock()
	c.entries = make(map[string]*cache.Entry[T])
	c.loaded = true
	c.stats.Size = 0
	c.mu.Unlock()

	c.save(ctx, map[string]cache.StoredEntry{})
}

// Keys returns the keys of all non-expired entries.
func (c *Cache[T]) Keys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys := make([]string, 0, len(c.entries))
	for key, entry := range c.entries {
		if !entry.Expired() {
			keys = append(keys, key)
		}
	}
	return keys
}

// Len returns the current number of entries.
func (c *Cache[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Stats returns a snapshot of the cache counters. MaxSize is 0: this tier
// is unbounded and relies on TTL pruning.
func (c *Cache[T]) Stats() cache.Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stats.Size = len(c.entries)
	return c.stats
}

// Close stops the background flusher, saves a final snapshot, and closes
// the store.
func (c *Cache[T]) Close() error {
	if c.stopFlush != nil {
		close(c.stopFlush)
		<-c.flushDone
	}

	c.Save(context.Background())

	if err := c.store.Close(); err != nil {
		return fmt.Errorf("closing store for cache %s: %w", c.name, err)
	}
	return nil
}

// flushLoop periodically saves the snapshot until Close is called.
func (c *Cache[T]) flushLoop() {
	defer close(c.flushDone)

	ticker := time.NewTicker(c.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.Save(context.Background())
		case <-c.stopFlush:
			return
		}
	}
}
