package lru

import (
	"fmt"
	"testing"
	"time"
)

func TestSetGetRoundTrip(t *testing.T) {
	c := New[string](10, time.Minute)

	c.Set("greeting", "hello", 0)

	got, ok := c.Get("greeting")
	if !ok {
		t.Fatal("expected hit for greeting")
	}
	if got != "hello" {
		t.Errorf("expected hello, got %q", got)
	}
}

func TestGetMissingKey(t *testing.T) {
	c := New[int](10, time.Minute)

	if _, ok := c.Get("absent"); ok {
		t.Error("expected miss for absent key")
	}

	stats := c.Stats()
	if stats.Misses != 1 {
		t.Errorf("expected 1 miss, got %d", stats.Misses)
	}
}

func TestEvictionOrder(t *testing.T) {
	c := New[int](2, time.Minute)

	c.Set("a", 1, 0)
	c.Set("b", 2, 0)
	c.Set("c", 3, 0)

	if _, ok := c.Get("a"); ok {
		t.Error("expected a to be evicted")
	}
	if v, ok := c.Get("b"); !ok || v != 2 {
		t.Errorf("expected b=2, got %v (hit=%v)", v, ok)
	}
	if v, ok := c.Get("c"); !ok || v != 3 {
		t.Errorf("expected c=3, got %v (hit=%v)", v, ok)
	}

	stats := c.Stats()
	if stats.Evictions != 1 {
		t.Errorf("expected 1 eviction, got %d", stats.Evictions)
	}
}

func TestAccessProtectsFromEviction(t *testing.T) {
	c := New[int](2, time.Minute)

	c.Set("a", 1, 0)
	c.Set("b", 2, 0)

	// Reading a makes b the least recently used entry.
	if _, ok := c.Get("a"); !ok {
		t.Fatal("expected hit for a")
	}

	c.Set("c", 3, 0)

	if _, ok := c.Get("b"); ok {
		t.Error("expected b to be evicted")
	}
	if _, ok := c.Get("a"); !ok {
		t.Error("expected a to survive eviction")
	}
}

func TestBoundedSize(t *testing.T) {
	const max = 5
	c := New[int](max, time.Minute)

	for i := 0; i < 50; i++ {
		c.Set(fmt.Sprintf("key-%d", i), i, 0)
		if n := c.Len(); n > max {
			t.Fatalf("size %d exceeds max %d after set %d", n, max, i)
		}
	}
}

func TestUpdateDoesNotEvict(t *testing.T) {
	c := New[int](2, time.Minute)

	c.Set("a", 1, 0)
	c.Set("b", 2, 0)
	c.Set("a", 10, 0)

	if v, ok := c.Get("a"); !ok || v != 10 {
		t.Errorf("expected a=10, got %v (hit=%v)", v, ok)
	}
	if v, ok := c.Get("b"); !ok || v != 2 {
		t.Errorf("expected b=2, got %v (hit=%v)", v, ok)
	}

	stats := c.Stats()
	if stats.Evictions != 0 {
		t.Errorf("expected no evictions on update, got %d", stats.Evictions)
	}
}

func TestTTLExpiry(t *testing.T) {
	c := New[string](10, time.Minute)

	c.Set("ephemeral", "v", 30*time.Millisecond)

	if _, ok := c.Get("ephemeral"); !ok {
		t.Fatal("expected hit before expiry")
	}

	time.Sleep(50 * time.Millisecond)

	if _, ok := c.Get("ephemeral"); ok {
		t.Error("expected miss after expiry")
	}

	// Expired read counts as both a miss and an eviction.
	stats := c.Stats()
	if stats.Misses != 1 {
		t.Errorf("expected 1 miss, got %d", stats.Misses)
	}
	if stats.Evictions != 1 {
		t.Errorf("expected 1 eviction, got %d", stats.Evictions)
	}
}

func TestDelete(t *testing.T) {
	c := New[int](10, time.Minute)

	c.Set("a", 1, 0)

	if !c.Delete("a") {
		t.Error("expected delete to report removal")
	}
	if c.Delete("a") {
		t.Error("expected second delete to report nothing removed")
	}
	if _, ok := c.Get("a"); ok {
		t.Error("expected miss after delete")
	}
}

func TestClear(t *testing.T) {
	c := New[int](10, time.Minute)

	for i := 0; i < 5; i++ {
		c.Set(fmt.Sprintf("key-%d", i), i, 0)
	}

	c.Clear()

	if n := c.Len(); n != 0 {
		t.Errorf("expected empty cache, got %d entries", n)
	}
	if stats := c.Stats(); stats.Size != 0 {
		t.Errorf("expected size stat 0, got %d", stats.Size)
	}
}

func TestStatsHitRate(t *testing.T) {
	c := New[int](10, time.Minute)

	c.Set("a", 1, 0)
	c.Get("a")
	c.Get("a")
	c.Get("missing")
	c.Get("missing")

	stats := c.Stats()
	if stats.Hits != 2 || stats.Misses != 2 {
		t.Fatalf("expected 2 hits and 2 misses, got %d/%d", stats.Hits, stats.Misses)
	}
	if rate := stats.HitRate(); rate != 0.5 {
		t.Errorf("expected hit rate 0.5, got %f", rate)
	}
}

func TestHitCountTracking(t *testing.T) {
	c := New[int](10, time.Minute)

	c.Set("a", 1, 0)
	for i := 0; i < 3; i++ {
		c.Get("a")
	}

	c.mu.Lock()
	n := c.entries["a"].Value.(*node[int]).entry
	c.mu.Unlock()
	if n.HitCount != 3 {
		t.Errorf("expected hit count 3, got %d", n.HitCount)
	}
}

func TestConcurrentAccess(t *testing.T) {
	c := New[int](100, time.Minute)
	done := make(chan struct{})

	for g := 0; g < 4; g++ {
		go func(g int) {
			defer func() { done <- struct{}{} }()
			for i := 0; i < 200; i++ {
				key := fmt.Sprintf("key-%d", i%20)
				c.Set(key, i, 0)
				c.Get(key)
			}
		}(g)
	}

	for g := 0; g < 4; g++ {
		<-done
	}

	if n := c.Len(); n > 100 {
		t.Errorf("size %d exceeds max", n)
	}
}
