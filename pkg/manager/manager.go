// Package manager implements a general-purpose keyed cache with absolute
// TTL expiry, hot-key protected LRU eviction, prefix invalidation, and a
// periodic optimize pass. It is independent of the lru/persistent tier
// stack: payloads are dict-shaped map[string]any values, copied on write
// and on read so callers can never mutate cached state through aliases.
package manager

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"cachekit/pkg/cache"
	"cachekit/pkg/metrics"
)

// Default TTL tiers for cached payloads.
const (
	TTLShort  = time.Minute
	TTLMedium = 5 * time.Minute
	TTLLong   = time.Hour
)

// Hot-key thresholds. A key becomes hot inline in Get once its access
// count exceeds hotThreshold. Optimize additionally promotes keys at
// optimizePromoteAt and demotes hot keys below optimizeDemoteBelow; until
// an Optimize run the hot set is only eventually consistent with the
// access counts.
const (
	hotThreshold        = 5
	optimizePromoteAt   = 3
	optimizeDemoteBelow = 2
)

// Payload is the dict-shaped value stored by the manager.
type Payload = map[string]any

// Manager is a mutex-serialized cache with hot-key aware eviction.
// Keys present in entries are always present in expiry; accessCount,
// lastAccess, and hotKeys are consistent with entries after every
// eviction.
type Manager struct {
	mu      sync.Mutex
	maxSize int

	entries     map[string]Payload
	expiry      map[string]time.Time
	accessCount map[string]int
	lastAccess  map[string]time.Time
	hotKeys     map[string]struct{}

	hits      int64
	misses    int64
	evictions int64

	policy    cache.EvictionPolicy
	logger    *zap.Logger
	collector metrics.Collector
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(m *Manager) { m.logger = logger }
}

// WithCollector sets the metrics collector.
func WithCollector(collector metrics.Collector) Option {
	return func(m *Manager) { m.collector = collector }
}

// WithEvictionPolicy overrides the hot-key aware default policy.
func WithEvictionPolicy(policy cache.EvictionPolicy) Option {
	return func(m *Manager) { m.policy = policy }
}

// New creates a manager holding at most maxSize entries. The bound is
// soft: when every tracked key is hot, a Set is allowed to exceed it
// rather than evict a hot key.
func New(maxSize int, opts ...Option) *Manager {
	if maxSize <= 0 {
		maxSize = 256
	}
	m := &Manager{
		maxSize:     maxSize,
		entries:     make(map[string]Payload),
		expiry:      make(map[string]time.Time),
		accessCount: make(map[string]int),
		lastAccess:  make(map[string]time.Time),
		hotKeys:     make(map[string]struct{}),
		policy:      cache.HotKeyAwarePolicy{},
		logger:      zap.NewNop(),
		collector:   metrics.NopCollector{},
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = m.logger.Named("manager")
	return m
}

// Get returns a shallow copy of the payload for key and whether it was
// found. Expiry is checked before existence: an expired entry is evicted
// on the spot and reported as a miss. A hit bumps the access count and
// promotes the key to hot once the count exceeds the threshold.
func (m *Manager) Get(key string) (Payload, bool) {
	start := time.Now()
	m.mu.Lock()
	defer m.mu.Unlock()

	if deadline, ok := m.expiry[key]; ok && time.Now().After(deadline) {
		m.evictEntry(key)
		m.misses++
		m.collector.RecordEviction("manager", "expired")
		m.collector.RecordGet("manager", false, time.Since(start))
		return nil, false
	}

	data, ok := m.entries[key]
	if !ok {
		m.misses++
		m.collector.RecordGet("manager", false, time.Since(start))
		return nil, false
	}

	m.hits++
	m.accessCount[key]++
	m.lastAccess[key] = time.Now()
	if m.accessCount[key] > hotThreshold {
		m.hotKeys[key] = struct{}{}
	}

	m.collector.RecordGet("manager", true, time.Since(start))
	return copyPayload(data), true
}

// Set stores a shallow copy of data under key with the given TTL
// (TTLMedium when ttl <= 0). A pre-existing access count for the key is
// preserved. When the manager is at capacity and key is new, the eviction
// policy runs first; if it finds no victim (all keys hot) the capacity
// bound is exceeded.
func (m *Manager) Set(key string, data Payload, ttl time.Duration) {
	if ttl <= 0 {
		ttl = TTLMedium
	}

	start := time.Now()
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.entries[key]; !exists && len(m.entries) >= m.maxSize {
		m.evictLRU()
	}

	m.entries[key] = copyPayload(data)
	m.expiry[key] = time.Now().Add(ttl)
	m.lastAccess[key] = time.Now()

	m.collector.RecordSet("manager", time.Since(start))
}

// Invalidate removes key and reports whether an entry was removed.
func (m *Manager) Invalidate(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.entries[key]; !ok {
		return false
	}
	m.evictEntry(key)
	m.collector.RecordEviction("manager", "invalidated")
	return true
}

// InvalidatePattern removes every key matching pattern and returns the
// count removed. Matching is a plain prefix match on the pattern with any
// trailing "*" stripped: "dog_*" and "dog_" behave identically, and the
// bare pattern "dog" also matches "doggy".
func (m *Manager) InvalidatePattern(pattern string) int {
	prefix := trimTrailingStars(pattern)

	m.mu.Lock()
	defer m.mu.Unlock()

	var victims []string
	for key := range m.entries {
		if len(key) >= len(prefix) && key[:len(prefix)] == prefix {
			victims = append(victims, key)
		}
	}
	for _, key := range victims {
		m.evictEntry(key)
		m.collector.RecordEviction("manager", "invalidated")
	}

	if len(victims) > 0 {
		m.logger.Debug("pattern invalidation",
			zap.String("pattern", pattern),
			zap.Int("removed", len(victims)))
	}
	return len(victims)
}

// ClearExpired evicts every entry past its deadline and returns the count.
func (m *Manager) ClearExpired() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.clearExpiredLocked()
}

func (m *Manager) clearExpiredLocked() int {
	now := time.Now()
	var victims []string
	for key, deadline := range m.expiry {
		if now.After(deadline) {
			victims = append(victims, key)
		}
	}
	for _, key := range victims {
		m.evictEntry(key)
		m.collector.RecordEviction("manager", "expired")
	}
	return len(victims)
}

// Clear removes everything, including access tracking and hot markings.
func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries = make(map[string]Payload)
	m.expiry = make(map[string]time.Time)
	m.accessCount = make(map[string]int)
	m.lastAccess = make(map[string]time.Time)
	m.hotKeys = make(map[string]struct{})
}

// OptimizeReport summarizes one Optimize pass.
type OptimizeReport struct {
	Expired  int `json:"expired"`
	Promoted int `json:"promoted"`
	Demoted  int `json:"demoted"`
	HotKeys  int `json:"hot_keys"`
}

// Optimize runs a maintenance pass: clears expired entries, promotes keys
// whose access count reached the promote threshold, and demotes hot keys
// that fell below the demote threshold.
func (m *Manager) Optimize() OptimizeReport {
	m.mu.Lock()
	defer m.mu.Unlock()

	report := OptimizeReport{Expired: m.clearExpiredLocked()}

	for key := range m.entries {
		if _, hot := m.hotKeys[key]; !hot && m.accessCount[key] >= optimizePromoteAt {
			m.hotKeys[key] = struct{}{}
			report.Promoted++
		}
	}
	for key := range m.hotKeys {
		if m.accessCount[key] < optimizeDemoteBelow {
			delete(m.hotKeys, key)
			report.Demoted++
		}
	}

	report.HotKeys = len(m.hotKeys)
	m.collector.RecordHotKeys(report.HotKeys)
	m.logger.Debug("optimize pass",
		zap.Int("expired", report.Expired),
		zap.Int("promoted", report.Promoted),
		zap.Int("demoted", report.Demoted))
	return report
}

// EntryDetails is a per-key diagnostic snapshot.
type EntryDetails struct {
	Key         string        `json:"key"`
	Size        int           `json:"size"`
	AccessCount int           `json:"access_count"`
	LastAccess  time.Time     `json:"last_access"`
	ExpiresAt   time.Time     `json:"expires_at"`
	Remaining   time.Duration `json:"remaining"`
	Hot         bool          `json:"hot"`
}

// Details returns the diagnostic snapshot for key. Size is the length of
// the payload's string rendering, a rough footprint indicator.
func (m *Manager) Details(key string) (EntryDetails, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, ok := m.entries[key]
	if !ok {
		return EntryDetails{}, false
	}

	deadline := m.expiry[key]
	remaining := time.Until(deadline)
	if remaining < 0 {
		remaining = 0
	}
	_, hot := m.hotKeys[key]

	return EntryDetails{
		Key:         key,
		Size:        len(fmt.Sprint(data)),
		AccessCount: m.accessCount[key],
		LastAccess:  m.lastAccess[key],
		ExpiresAt:   deadline,
		Remaining:   remaining,
		Hot:         hot,
	}, true
}

// Stats is the manager's counter snapshot. HitRate is a percentage in
// [0, 100], unlike cache.Stats.HitRate which is a fraction.
type Stats struct {
	Entries   int     `json:"entries"`
	MaxSize   int     `json:"max_size"`
	Hits      int64   `json:"hits"`
	Misses    int64   `json:"misses"`
	Evictions int64   `json:"evictions"`
	HitRate   float64 `json:"hit_rate"`
	HotKeys   int     `json:"hot_keys"`
}

// Stats returns the current counters and derived hit rate.
func (m *Manager) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()

	var rate float64
	if total := m.hits + m.misses; total > 0 {
		rate = float64(m.hits) / float64(total) * 100
	}

	return Stats{
		Entries:   len(m.entries),
		MaxSize:   m.maxSize,
		Hits:      m.hits,
		Misses:    m.misses,
		Evictions: m.evictions,
		HitRate:   rate,
		HotKeys:   len(m.hotKeys),
	}
}

// Len returns the current number of entries.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// evictLRU runs the eviction policy over the tracked keys and evicts the
// victim, if any. With the default policy, hot keys are never selected;
// when every key is hot no eviction happens. Ties on last access resolve
// by map iteration order. Caller must hold the mutex.
func (m *Manager) evictLRU() {
	candidates := make([]cache.Candidate, 0, len(m.entries))
	for key := range m.entries {
		_, hot := m.hotKeys[key]
		candidates = append(candidates, cache.Candidate{
			Key:        key,
			LastAccess: m.lastAccess[key],
			Hot:        hot,
		})
	}

	victim, ok := m.policy.Victim(candidates)
	if !ok {
		m.logger.Debug("no eviction candidate, capacity bound exceeded")
		return
	}
	m.evictEntry(victim)
	m.collector.RecordEviction("manager", "lru")
}

// evictEntry removes key from every tracking map. Caller must hold the
// mutex.
func (m *Manager) evictEntry(key string) {
	delete(m.entries, key)
	delete(m.expiry, key)
	delete(m.accessCount, key)
	delete(m.lastAccess, key)
	delete(m.hotKeys, key)
	m.evictions++
}

// copyPayload shallow-copies a payload. Nested mutable values inside the
// map are shared with the original.
func copyPayload(data Payload) Payload {
	out := make(Payload, len(data))
	for k, v := range data {
		out[k] = v
	}
	return out
}

func trimTrailingStars(pattern string) string {
	end := len(pattern)
	for end > 0 && pattern[end-1] == '*' {
		end--
	}
	return pattern[:end]
}
