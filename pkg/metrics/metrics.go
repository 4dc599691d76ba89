// Package metrics defines the collector interface the cache tiers report to.
package metrics

import "time"

// Collector receives cache observability events. Implementations export
// them to a backend (Prometheus, in-memory for tests) and must be safe for
// concurrent use.
type Collector interface {
	// Tier operations ("l1", "l2", "manager")
	RecordGet(tier string, hit bool, duration time.Duration)
	RecordSet(tier string, duration time.Duration)
	RecordDelete(tier string)

	// RecordEviction counts a removed entry; reason is one of
	// "lru", "expired", "invalidated".
	RecordEviction(tier string, reason string)

	// RecordPromotion counts a value copied from L2 into L1 on read.
	RecordPromotion()

	// Durable store
	RecordStoreLoad(success bool, duration time.Duration)
	RecordStoreSave(success bool, duration time.Duration)

	// RecordHotKeys reports the current number of hot keys.
	RecordHotKeys(count int)
}

// NopCollector discards every event. It is the default collector.
type NopCollector struct{}

// RecordGet does nothing.
func (NopCollector) RecordGet(tier string, hit bool, duration time.Duration) {}

// RecordSet does nothing.
func (NopCollector) RecordSet(tier string, duration time.Duration) {}

// RecordDelete does nothing.
func (NopCollector) RecordDelete(tier string) {}

// RecordEviction does nothing.
func (NopCollector) RecordEviction(tier string, reason string) {}

// RecordPromotion does nothing.
func (NopCollector) RecordPromotion() {}

// RecordStoreLoad does nothing.
func (NopCollector) RecordStoreLoad(success bool, duration time.Duration) {}

// RecordStoreSave does nothing.
func (NopCollector) RecordStoreSave(success bool, duration time.Duration) {}

// RecordHotKeys does nothing.
func (NopCollector) RecordHotKeys(count int) {}
