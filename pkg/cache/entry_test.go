package cache

import (
	"testing"
	"time"
)

func TestEntryExpiry(t *testing.T) {
	e := NewEntry("v", 30*time.Millisecond)

	if e.Expired() {
		t.Error("expected fresh entry not expired")
	}
	if e.Remaining() <= 0 {
		t.Errorf("expected positive remaining, got %v", e.Remaining())
	}

	time.Sleep(50 * time.Millisecond)

	if !e.Expired() {
		t.Error("expected entry expired after ttl")
	}
	if e.Remaining() != 0 {
		t.Errorf("expected remaining 0 after expiry, got %v", e.Remaining())
	}
}

func TestEntryTouch(t *testing.T) {
	e := NewEntry(1, time.Minute)
	before := e.LastAccess

	time.Sleep(5 * time.Millisecond)
	e.Touch()
	e.Touch()

	if e.HitCount != 2 {
		t.Errorf("expected hit count 2, got %d", e.HitCount)
	}
	if !e.LastAccess.After(before) {
		t.Error("expected last access to advance")
	}
}

func TestStoredEntryExpired(t *testing.T) {
	fresh := StoredEntry{Timestamp: time.Now(), TTL: time.Minute}
	if fresh.Expired() {
		t.Error("expected fresh stored entry not expired")
	}

	stale := StoredEntry{Timestamp: time.Now().Add(-2 * time.Minute), TTL: time.Minute}
	if !stale.Expired() {
		t.Error("expected stale stored entry expired")
	}
}

func TestStatsHitRate(t *testing.T) {
	tests := []struct {
		name   string
		hits   int64
		misses int64
		want   float64
	}{
		{"no reads", 0, 0, 0},
		{"all hits", 10, 0, 1},
		{"all misses", 0, 10, 0},
		{"mixed", 3, 1, 0.75},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Stats{Hits: tt.hits, Misses: tt.misses}
			if got := s.HitRate(); got != tt.want {
				t.Errorf("expected %f, got %f", tt.want, got)
			}
		})
	}
}
