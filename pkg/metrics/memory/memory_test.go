package memory

import (
	"testing"
	"time"
)

func TestTierCounters(t *testing.T) {
	c := New()

	c.RecordGet("l1", true, time.Microsecond)
	c.RecordGet("l1", true, time.Microsecond)
	c.RecordGet("l1", false, time.Microsecond)
	c.RecordSet("l1", time.Microsecond)
	c.RecordEviction("l1", "lru")
	c.RecordEviction("l1", "expired")
	c.RecordEviction("l1", "expired")

	tier := c.Tier("l1")
	if tier.Hits != 2 || tier.Misses != 1 {
		t.Errorf("expected 2 hits and 1 miss, got %d/%d", tier.Hits, tier.Misses)
	}
	if tier.Sets != 1 {
		t.Errorf("expected 1 set, got %d", tier.Sets)
	}
	if tier.Evictions != 3 {
		t.Errorf("expected 3 evictions, got %d", tier.Evictions)
	}
	if tier.EvictionsByReason["expired"] != 2 {
		t.Errorf("expected 2 expired evictions, got %d", tier.EvictionsByReason["expired"])
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	c := New()
	c.RecordEviction("l1", "lru")

	snap := c.Snapshot()
	snap.Tiers["l1"].EvictionsByReason["lru"] = 99

	if got := c.Tier("l1").EvictionsByReason["lru"]; got != 1 {
		t.Errorf("snapshot mutation leaked into collector: %d", got)
	}
}

func TestStoreAndPromotionCounters(t *testing.T) {
	c := New()

	c.RecordStoreLoad(true, time.Millisecond)
	c.RecordStoreLoad(false, time.Millisecond)
	c.RecordStoreSave(true, time.Millisecond)
	c.RecordPromotion()
	c.RecordHotKeys(4)

	snap := c.Snapshot()
	if snap.StoreLoads != 2 || snap.StoreLoadFails != 1 {
		t.Errorf("expected 2 loads with 1 failure, got %d/%d", snap.StoreLoads, snap.StoreLoadFails)
	}
	if snap.StoreSaves != 1 || snap.StoreSaveFails != 0 {
		t.Errorf("expected 1 clean save, got %d/%d", snap.StoreSaves, snap.StoreSaveFails)
	}
	if snap.Promotions != 1 {
		t.Errorf("expected 1 promotion, got %d", snap.Promotions)
	}
	if snap.HotKeys != 4 {
		t.Errorf("expected 4 hot keys, got %d", snap.HotKeys)
	}
}
