// Package lru implements the bounded in-memory cache tier: TTL-aware,
// insertion/access ordered, with the least recently used entry evicted
// on overflow.
package lru

import (
	"container/list"
	"sync"
	"time"

	"cachekit/pkg/cache"
)

// Cache is a bounded, TTL-aware LRU cache. All operations are serialized
// by a per-instance mutex. It is a best-effort cache, never a source of
// truth: misses and expiry are reported as absence, not as errors.
type Cache[T any] struct {
	mu         sync.Mutex
	maxSize    int
	defaultTTL time.Duration

	// order holds one element per entry, least recently used at the front
	order   *list.List
	entries map[string]*list.Element

	stats cache.Stats
}

type node[T any] struct {
	key   string
	entry *cache.Entry[T]
}

// New creates an LRU cache holding at most maxSize entries. Entries set
// without an explicit TTL use defaultTTL.
func New[T any](maxSize int, defaultTTL time.Duration) *Cache[T] {
	if maxSize <= 0 {
		maxSize = 128
	}
	if defaultTTL <= 0 {
		defaultTTL = time.Hour
	}
	return &Cache[T]{
		maxSize:    maxSize,
		defaultTTL: defaultTTL,
		order:      list.New(),
		entries:    make(map[string]*list.Element),
		stats:      cache.Stats{MaxSize: maxSize},
	}
}

// Get returns the value for key and whether it was found. An expired entry
// is removed on the spot and counts as both a miss and an eviction. A hit
// moves the entry to the most recently used position.
func (c *Cache[T]) Get(key string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero T
	elem, ok := c.entries[key]
	if !ok {
		c.stats.Misses++
		return zero, false
	}

	n := elem.Value.(*node[T])
	if n.entry.Expired() {
		c.removeElement(elem)
		c.stats.Misses++
		c.stats.Evictions++
		return zero, false
	}

	c.order.MoveToBack(elem)
	n.entry.Touch()
	c.stats.Hits++
	return n.entry.Value, true
}

// Set stores value under key with the given TTL (defaultTTL when ttl <= 0).
// Updating an existing key does not count as an eviction. When the cache is
// at capacity a new key evicts the least recently used entry first, so
// Len() never exceeds the configured maximum.
func (c *Cache[T]) Set(key string, value T, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.entries[key]; ok {
		c.removeElement(elem)
	} else if c.order.Len() >= c.maxSize {
		if front := c.order.Front(); front != nil {
			c.removeElement(front)
			c.stats.Evictions++
		}
	}

	elem := c.order.PushBack(&node[T]{key: key, entry: cache.NewEntry(value, ttl)})
	c.entries[key] = elem
}

// Delete removes key and reports whether an entry was removed.
func (c *Cache[T]) Delete(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.entries[key]
	if !ok {
		return false
	}
	c.removeElement(elem)
	return true
}

// Clear removes every entry and resets the size stat. Hit, miss, and
// eviction counters are preserved.
func (c *Cache[T]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.order.Init()
	c.entries = make(map[string]*list.Element)
	c.stats.Size = 0
}

// Len returns the current number of entries, including any not yet
// detected as expired.
func (c *Cache[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Stats returns a snapshot of the cache counters with Size refreshed to
// the current length.
func (c *Cache[T]) Stats() cache.Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stats.Size = c.order.Len()
	return c.stats
}

// removeElement drops an entry from both the order list and the index.
// Caller must hold the mutex.
func (c *Cache[T]) removeElement(elem *list.Element) {
	c.order.Remove(elem)
	delete(c.entries, elem.Value.(*node[T]).key)
}
