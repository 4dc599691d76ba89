// Package twolevel composes the bounded in-memory tier (L1) and the
// durable tier (L2) into one read/write surface with promotion on read.
package twolevel

import (
	"context"
	"sync"
	"time"

	"github.com/bits-and-blooms/bloom/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"cachekit/pkg/cache"
	"cachekit/pkg/cache/lru"
	"cachekit/pkg/cache/persistent"
	"cachekit/pkg/metrics"
)

// Cache layers an lru.Cache (L1) over a persistent.Cache (L2). Reads try
// L1 first; an L2 hit is promoted into L1 before returning, so the next
// read of the same key is served from memory. Writes go to both tiers.
//
// The two tiers are not jointly atomic: a crash between the L1 and L2
// writes of Set leaves them inconsistent until the L1 entry expires.
type Cache[T any] struct {
	l1 *lru.Cache[T]
	l2 *persistent.Cache[T]

	sf singleflight.Group

	// filter tracks keys known to exist in L2; a negative answer
	// short-circuits the L2 lookup. Nil when disabled.
	filter   *bloom.BloomFilter
	filterMu sync.RWMutex

	logger    *zap.Logger
	collector metrics.Collector
}

// Option configures a Cache.
type Option[T any] func(*Cache[T])

// WithLogger sets the logger.
func WithLogger[T any](logger *zap.Logger) Option[T] {
	return func(c *Cache[T]) { c.logger = logger }
}

// WithCollector sets the metrics collector.
func WithCollector[T any](collector metrics.Collector) Option[T] {
	return func(c *Cache[T]) { c.collector = collector }
}

// WithBloomFilter enables the negative-lookup filter in front of L2.
// Keys written through Set and keys present at Setup are added; a key the
// filter has never seen cannot be in L2, so its lookup is skipped.
func WithBloomFilter[T any](expectedItems uint, falsePositiveRate float64) Option[T] {
	return func(c *Cache[T]) {
		if expectedItems == 0 {
			expectedItems = 10000
		}
		if falsePositiveRate <= 0 || falsePositiveRate >= 1 {
			falsePositiveRate = 0.01
		}
		c.filter = bloom.NewWithEstimates(expectedItems, falsePositiveRate)
	}
}

// New creates a two-level cache over the given tiers.
func New[T any](l1 *lru.Cache[T], l2 *persistent.Cache[T], opts ...Option[T]) *Cache[T] {
	c := &Cache[T]{
		l1:        l1,
		l2:        l2,
		logger:    zap.NewNop(),
		collector: metrics.NopCollector{},
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.Named("twolevel")
	return c
}

// Setup forces the L2 load and seeds the bloom filter with the loaded
// keys. Without Setup the load still happens lazily on first L2 access.
func (c *Cache[T]) Setup(ctx context.Context) {
	c.l2.Load(ctx)
	if c.filter != nil {
		keys := c.l2.Keys()
		c.withFilter(func(f *bloom.BloomFilter) {
			for _, key := range keys {
				f.AddString(key)
			}
		})
		c.logger.Debug("bloom filter seeded", zap.Int("keys", len(keys)))
	}
}

// Get returns the value for key, trying L1 then L2. On an L2 hit the value
// is promoted into L1 before returning, so it is immediately readable from
// the fast tier. Concurrent L1 misses for the same key share one L2 lookup.
func (c *Cache[T]) Get(ctx context.Context, key string) (T, bool) {
	start := time.Now()
	if value, ok := c.l1.Get(key); ok {
		c.collector.RecordGet("l1", true, time.Since(start))
		return value, true
	}
	c.collector.RecordGet("l1", false, time.Since(start))

	var zero T
	if c.filter != nil && !c.mightContain(key) {
		c.collector.RecordGet("l2", false, 0)
		return zero, false
	}

	type result struct {
		value T
		ok    bool
	}

	l2Start := time.Now()
	v, _, _ := c.sf.Do(key, func() (interface{}, error) {
		value, ok := c.l2.Get(ctx, key)
		if ok {
			// Promote synchronously with the L1 default TTL.
			c.l1.Set(key, value, 0)
			c.collector.RecordPromotion()
		}
		return result{value: value, ok: ok}, nil
	})

	res := v.(result)
	c.collector.RecordGet("l2", res.ok, time.Since(l2Start))
	if !res.ok {
		return zero, false
	}
	return res.value, true
}

// Set writes value to both tiers. l1TTL and l2TTL default to each tier's
// configured TTL when <= 0.
func (c *Cache[T]) Set(ctx context.Context, key string, value T, l1TTL, l2TTL time.Duration) {
	start := time.Now()
	c.l1.Set(key, value, l1TTL)
	c.l2.Set(ctx, key, value, l2TTL)
	c.collector.RecordSet("l1", 0)
	c.collector.RecordSet("l2", time.Since(start))

	if c.filter != nil {
		c.withFilter(func(f *bloom.BloomFilter) { f.AddString(key) })
	}
}

// Delete removes key from L1 only. L2 entries are left to expire by TTL:
// invalidation of the durable tier is time-driven, not event-driven.
func (c *Cache[T]) Delete(key string) bool {
	c.collector.RecordDelete("l1")
	return c.l1.Delete(key)
}

// Clear empties both tiers and resets the bloom filter.
func (c *Cache[T]) Clear(ctx context.Context) {
	c.l1.Clear()
	c.l2.Clear(ctx)
	if c.filter != nil {
		c.withFilter(func(f *bloom.BloomFilter) { f.ClearAll() })
	}
}

// Stats returns per-tier counter snapshots keyed "l1" and "l2".
func (c *Cache[T]) Stats() map[string]cache.Stats {
	return map[string]cache.Stats{
		"l1": c.l1.Stats(),
		"l2": c.l2.Stats(),
	}
}

// Close shuts down the L2 tier (final flush and store close).
func (c *Cache[T]) Close() error {
	return c.l2.Close()
}

func (c *Cache[T]) mightContain(key string) bool {
	c.filterMu.RLock()
	defer c.filterMu.RUnlock()
	return c.filter.TestString(key)
}

func (c *Cache[T]) withFilter(fn func(*bloom.BloomFilter)) {
	c.filterMu.Lock()
	defer c.filterMu.Unlock()
	fn(c.filter)
}
