package cache

import "time"

// Candidate describes one entry considered for eviction.
type Candidate struct {
	Key        string
	LastAccess time.Time
	Hot        bool
}

// EvictionPolicy chooses which entry a full cache should drop.
// Implementations must be deterministic given the same candidate slice:
// ties on LastAccess resolve to the earlier candidate in the slice.
type EvictionPolicy interface {
	// Victim returns the key to evict and true, or false when no
	// candidate is eligible.
	Victim(candidates []Candidate) (string, bool)
}

// LRUPolicy evicts the candidate with the oldest last access, regardless
// of any hot marking.
type LRUPolicy struct{}

// Victim returns the least recently used candidate.
func (LRUPolicy) Victim(candidates []Candidate) (string, bool) {
	return oldest(candidates, false)
}

// HotKeyAwarePolicy evicts the least recently used candidate among those
// not marked hot. When every candidate is hot it refuses to pick a victim,
// allowing the caller's capacity bound to be transiently exceeded.
type HotKeyAwarePolicy struct{}

// Victim returns the least recently used non-hot candidate.
func (HotKeyAwarePolicy) Victim(candidates []Candidate) (string, bool) {
	return oldest(candidates, true)
}

func oldest(candidates []Candidate, skipHot bool) (string, bool) {
	var (
		victim  string
		victimT time.Time
		found   bool
	)
	for _, c := range candidates {
		if skipHot && c.Hot {
			continue
		}
		if !found || c.LastAccess.Before(victimT) {
			victim = c.Key
			victimT = c.LastAccess
			found = true
		}
	}
	return victim, found
}
