package twolevel

import (
	"context"
	"sync"
	"testing"
	"time"

	"cachekit/pkg/cache"
	"cachekit/pkg/cache/lru"
	"cachekit/pkg/cache/mock"
	"cachekit/pkg/cache/persistent"
)

func newTestCache(t *testing.T, store *mock.Store, opts ...Option[string]) *Cache[string] {
	t.Helper()
	l1 := lru.New[string](16, time.Minute)
	l2 := persistent.New[string]("test", store, time.Minute)
	return New(l1, l2, opts...)
}

func TestSetWritesBothTiers(t *testing.T) {
	ctx := context.Background()
	store := mock.NewStore()
	c := newTestCache(t, store)

	c.Set(ctx, "a", "v", 0, 0)

	stats := c.Stats()
	if stats["l1"].Size != 1 {
		t.Errorf("expected 1 entry in l1, got %d", stats["l1"].Size)
	}
	if stats["l2"].Size != 1 {
		t.Errorf("expected 1 entry in l2, got %d", stats["l2"].Size)
	}
}

func TestPromotionOnL2Hit(t *testing.T) {
	ctx := context.Background()
	store := mock.NewStore()
	c := newTestCache(t, store)

	c.Set(ctx, "k", "v", 0, 0)

	// Drop the key from L1 only; it survives in L2.
	c.l1.Clear()
	if _, ok := c.l1.Get("k"); ok {
		t.Fatal("expected k gone from l1")
	}

	got, ok := c.Get(ctx, "k")
	if !ok || got != "v" {
		t.Fatalf("expected l2 hit with v, got %q (hit=%v)", got, ok)
	}

	// The read must have promoted the key back into L1.
	if v, ok := c.l1.Get("k"); !ok || v != "v" {
		t.Errorf("expected k promoted into l1, got %q (hit=%v)", v, ok)
	}
}

func TestMissWhenBothTiersMiss(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(t, mock.NewStore())

	if _, ok := c.Get(ctx, "absent"); ok {
		t.Error("expected overall miss")
	}
}

func TestDeleteRemovesL1Only(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(t, mock.NewStore())

	c.Set(ctx, "k", "v", 0, 0)

	if !c.Delete("k") {
		t.Fatal("expected delete to remove the l1 entry")
	}

	// The key is still reachable through L2 and gets promoted again.
	if got, ok := c.Get(ctx, "k"); !ok || got != "v" {
		t.Errorf("expected l2 to still serve k, got %q (hit=%v)", got, ok)
	}
}

func TestClearEmptiesBothTiers(t *testing.T) {
	ctx := context.Background()
	store := mock.NewStore()
	c := newTestCache(t, store)

	c.Set(ctx, "k", "v", 0, 0)
	c.Clear(ctx)

	if _, ok := c.Get(ctx, "k"); ok {
		t.Error("expected miss after clear")
	}
	if n := len(store.Snapshot()); n != 0 {
		t.Errorf("expected empty persisted snapshot, got %d entries", n)
	}
}

func TestSetupLoadsL2(t *testing.T) {
	ctx := context.Background()
	store := mock.NewStore()
	err := store.Save(ctx, map[string]cache.StoredEntry{
		"seeded": {Value: []byte(`"from-store"`), Timestamp: time.Now(), TTL: time.Minute},
	})
	if err != nil {
		t.Fatalf("seeding store: %v", err)
	}

	c := newTestCache(t, store)
	c.Setup(ctx)

	if store.LoadCalls() != 1 {
		t.Fatalf("expected setup to load once, got %d", store.LoadCalls())
	}
	if got, ok := c.Get(ctx, "seeded"); !ok || got != "from-store" {
		t.Errorf("expected seeded value, got %q (hit=%v)", got, ok)
	}
}

func TestBloomFilterSkipsUnknownKeys(t *testing.T) {
	ctx := context.Background()
	store := mock.NewStore()
	c := newTestCache(t, store, WithBloomFilter[string](100, 0.01))
	c.Setup(ctx)

	c.Set(ctx, "known", "v", 0, 0)
	c.l1.Clear()

	// A key that was written is still reachable through the filter.
	if got, ok := c.Get(ctx, "known"); !ok || got != "v" {
		t.Errorf("expected known key to pass the filter, got %q (hit=%v)", got, ok)
	}

	// An unknown key misses without consulting L2 stats.
	l2Misses := c.Stats()["l2"].Misses
	if _, ok := c.Get(ctx, "never-written"); ok {
		t.Error("expected miss for unknown key")
	}
	if got := c.Stats()["l2"].Misses; got != l2Misses {
		t.Errorf("expected bloom filter to short-circuit l2 lookup, misses %d -> %d", l2Misses, got)
	}
}

func TestBloomFilterSeededFromSnapshot(t *testing.T) {
	ctx := context.Background()
	store := mock.NewStore()
	err := store.Save(ctx, map[string]cache.StoredEntry{
		"seeded": {Value: []byte(`"v"`), Timestamp: time.Now(), TTL: time.Minute},
	})
	if err != nil {
		t.Fatalf("seeding store: %v", err)
	}

	c := newTestCache(t, store, WithBloomFilter[string](100, 0.01))
	c.Setup(ctx)

	if got, ok := c.Get(ctx, "seeded"); !ok || got != "v" {
		t.Errorf("expected seeded key to pass the filter, got %q (hit=%v)", got, ok)
	}
}

func TestConcurrentGetsShareL2Lookup(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(t, mock.NewStore())

	c.Set(ctx, "k", "v", 0, 0)
	c.l1.Clear()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if got, ok := c.Get(ctx, "k"); !ok || got != "v" {
				t.Errorf("expected v, got %q (hit=%v)", got, ok)
			}
		}()
	}
	wg.Wait()
}
