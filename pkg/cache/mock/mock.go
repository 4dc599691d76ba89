// Package mock provides a configurable in-memory Store for tests.
package mock

import (
	"context"
	"sync"
	"sync/atomic"

	"cachekit/pkg/cache"
)

// Store is a mock implementation of cache.Store for testing.
// Behavior can be overridden per method with function hooks; call counts
// are tracked with atomic operations for race-free assertions.
type Store struct {
	// Function hooks - set these to customize behavior
	LoadFunc  func(ctx context.Context) (map[string]cache.StoredEntry, error)
	SaveFunc  func(ctx context.Context, snapshot map[string]cache.StoredEntry) error
	CloseFunc func() error

	mu       sync.Mutex
	snapshot map[string]cache.StoredEntry

	loadCalls  int64
	saveCalls  int64
	closeCalls int64
}

// NewStore creates a mock store with an empty snapshot and default behavior:
// Load returns the last saved snapshot, Save replaces it.
func NewStore() *Store {
	return &Store{}
}

// Load implements cache.Store.Load.
func (s *Store) Load(ctx context.Context) (map[string]cache.StoredEntry, error) {
	atomic.AddInt64(&s.loadCalls, 1)
	if s.LoadFunc != nil {
		return s.LoadFunc(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snapshot == nil {
		return nil, nil
	}
	out := make(map[string]cache.StoredEntry, len(s.snapshot))
	for k, v := range s.snapshot {
		out[k] = v
	}
	return out, nil
}

// Save implements cache.Store.Save.
func (s *Store) Save(ctx context.Context, snapshot map[string]cache.StoredEntry) error {
	atomic.AddInt64(&s.saveCalls, 1)
	if s.SaveFunc != nil {
		return s.SaveFunc(ctx, snapshot)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot = make(map[string]cache.StoredEntry, len(snapshot))
	for k, v := range snapshot {
		s.snapshot[k] = v
	}
	return nil
}

// Close implements cache.Store.Close.
func (s *Store) Close() error {
	atomic.AddInt64(&s.closeCalls, 1)
	if s.CloseFunc != nil {
		return s.CloseFunc()
	}
	return nil
}

// LoadCalls returns the number of Load invocations.
func (s *Store) LoadCalls() int64 { return atomic.LoadInt64(&s.loadCalls) }

// SaveCalls returns the number of Save invocations.
func (s *Store) SaveCalls() int64 { return atomic.LoadInt64(&s.saveCalls) }

// CloseCalls returns the number of Close invocations.
func (s *Store) CloseCalls() int64 { return atomic.LoadInt64(&s.closeCalls) }

// Snapshot returns a copy of the currently saved snapshot.
func (s *Store) Snapshot() map[string]cache.StoredEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]cache.StoredEntry, len(s.snapshot))
	for k, v := range s.snapshot {
		out[k] = v
	}
	return out
}
