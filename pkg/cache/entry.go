package cache

import (
	"encoding/json"
	"time"
)

// Entry is a single cached value with the metadata needed for TTL expiry
// and recency-based eviction.
type Entry[T any] struct {
	// Value is the cached payload
	Value T

	// Timestamp is when the entry was created
	Timestamp time.Time

	// TTL is the entry-specific time-to-live
	TTL time.Duration

	// HitCount is incremented on every successful read
	HitCount int

	// LastAccess is updated on every successful read
	LastAccess time.Time
}

// NewEntry creates an entry for value with the given TTL, stamped at now.
func NewEntry[T any](value T, ttl time.Duration) *Entry[T] {
	now := time.Now()
	return &Entry[T]{
		Value:      value,
		Timestamp:  now,
		TTL:        ttl,
		LastAccess: now,
	}
}

// Age returns how long ago the entry was created.
func (e *Entry[T]) Age() time.Duration {
	return time.Since(e.Timestamp)
}

// Expired reports whether the entry has outlived its TTL.
func (e *Entry[T]) Expired() bool {
	return e.Age() > e.TTL
}

// Remaining returns the time left before the entry expires.
// Returns 0 if already expired.
func (e *Entry[T]) Remaining() time.Duration {
	remaining := e.TTL - e.Age()
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Touch records a successful read.
func (e *Entry[T]) Touch() {
	e.HitCount++
	e.LastAccess = time.Now()
}

// StoredEntry is the serialized form of an entry as held by a durable Store.
// The payload is kept as raw JSON so stores stay agnostic of the cached type.
type StoredEntry struct {
	Value     json.RawMessage `json:"value"`
	Timestamp time.Time       `json:"timestamp"`
	TTL       time.Duration   `json:"ttl"`
	HitCount  int             `json:"hit_count"`
}

// Expired reports whether the stored entry has outlived its TTL.
func (s StoredEntry) Expired() bool {
	return time.Since(s.Timestamp) > s.TTL
}
