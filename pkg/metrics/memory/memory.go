// Package memory provides an in-memory metrics collector for tests and
// embedded use without a Prometheus registry.
package memory

import (
	"sync"
	"time"
)

// Collector accumulates cache metrics in memory.
type Collector struct {
	mu    sync.RWMutex
	tiers map[string]*TierMetrics

	promotions int64
	hotKeys    int

	storeLoads     int64
	storeLoadFails int64
	storeSaves     int64
	storeSaveFails int64
}

// TierMetrics holds counters for a single cache tier.
type TierMetrics struct {
	Hits      int64 `json:"hits"`
	Misses    int64 `json:"misses"`
	Sets      int64 `json:"sets"`
	Deletes   int64 `json:"deletes"`
	Evictions int64 `json:"evictions"`

	EvictionsByReason map[string]int64 `json:"evictions_by_reason"`
}

// New creates an empty collector.
func New() *Collector {
	return &Collector{tiers: make(map[string]*TierMetrics)}
}

func (c *Collector) tier(name string) *TierMetrics {
	t, ok := c.tiers[name]
	if !ok {
		t = &TierMetrics{EvictionsByReason: make(map[string]int64)}
		c.tiers[name] = t
	}
	return t
}

// RecordGet counts a read per tier.
func (c *Collector) RecordGet(tier string, hit bool, duration time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	t := c.tier(tier)
	if hit {
		t.Hits++
	} else {
		t.Misses++
	}
}

// RecordSet counts a write per tier.
func (c *Collector) RecordSet(tier string, duration time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tier(tier).Sets++
}

// RecordDelete counts a delete per tier.
func (c *Collector) RecordDelete(tier string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tier(tier).Deletes++
}

// RecordEviction counts an eviction per tier and reason.
func (c *Collector) RecordEviction(tier string, reason string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	t := c.tier(tier)
	t.Evictions++
	t.EvictionsByReason[reason]++
}

// RecordPromotion counts an L2-to-L1 promotion.
func (c *Collector) RecordPromotion() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.promotions++
}

// RecordStoreLoad counts a snapshot load.
func (c *Collector) RecordStoreLoad(success bool, duration time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.storeLoads++
	if !success {
		c.storeLoadFails++
	}
}

// RecordStoreSave counts a snapshot save.
func (c *Collector) RecordStoreSave(success bool, duration time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.storeSaves++
	if !success {
		c.storeSaveFails++
	}
}

// RecordHotKeys tracks the latest hot key count.
func (c *Collector) RecordHotKeys(count int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hotKeys = count
}

// Snapshot is a point-in-time copy of all collected metrics.
type Snapshot struct {
	Tiers          map[string]TierMetrics `json:"tiers"`
	Promotions     int64                  `json:"promotions"`
	HotKeys        int                    `json:"hot_keys"`
	StoreLoads     int64                  `json:"store_loads"`
	StoreLoadFails int64                  `json:"store_load_failures"`
	StoreSaves     int64                  `json:"store_saves"`
	StoreSaveFails int64                  `json:"store_save_failures"`
}

// Snapshot returns a copy of the current metrics.
func (c *Collector) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	tiers := make(map[string]TierMetrics, len(c.tiers))
	for name, t := range c.tiers {
		copied := *t
		copied.EvictionsByReason = make(map[string]int64, len(t.EvictionsByReason))
		for reason, n := range t.EvictionsByReason {
			copied.EvictionsByReason[reason] = n
		}
		tiers[name] = copied
	}

	return Snapshot{
		Tiers:          tiers,
		Promotions:     c.promotions,
		HotKeys:        c.hotKeys,
		StoreLoads:     c.storeLoads,
		StoreLoadFails: c.storeLoadFails,
		StoreSaves:     c.storeSaves,
		StoreSaveFails: c.storeSaveFails,
	}
}

// Tier returns a copy of one tier's counters.
func (c *Collector) Tier(name string) TierMetrics {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if t, ok := c.tiers[name]; ok {
		return *t
	}
	return TierMetrics{}
}
