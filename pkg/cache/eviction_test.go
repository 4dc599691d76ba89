package cache

import (
	"testing"
	"time"
)

func candidates(now time.Time) []Candidate {
	return []Candidate{
		{Key: "newest", LastAccess: now},
		{Key: "oldest", LastAccess: now.Add(-time.Hour)},
		{Key: "middle", LastAccess: now.Add(-time.Minute)},
	}
}

func TestLRUPolicyPicksOldest(t *testing.T) {
	victim, ok := LRUPolicy{}.Victim(candidates(time.Now()))
	if !ok {
		t.Fatal("expected a victim")
	}
	if victim != "oldest" {
		t.Errorf("expected oldest, got %s", victim)
	}
}

func TestLRUPolicyIgnoresHotMarking(t *testing.T) {
	now := time.Now()
	cands := candidates(now)
	cands[1].Hot = true

	victim, ok := LRUPolicy{}.Victim(cands)
	if !ok || victim != "oldest" {
		t.Errorf("expected oldest despite hot marking, got %s (ok=%v)", victim, ok)
	}
}

func TestHotKeyAwarePolicySkipsHot(t *testing.T) {
	now := time.Now()
	cands := candidates(now)
	cands[1].Hot = true // protect the oldest

	victim, ok := HotKeyAwarePolicy{}.Victim(cands)
	if !ok {
		t.Fatal("expected a victim")
	}
	if victim != "middle" {
		t.Errorf("expected middle (oldest non-hot), got %s", victim)
	}
}

func TestHotKeyAwarePolicyAllHot(t *testing.T) {
	now := time.Now()
	cands := candidates(now)
	for i := range cands {
		cands[i].Hot = true
	}

	if _, ok := (HotKeyAwarePolicy{}).Victim(cands); ok {
		t.Error("expected no victim when every candidate is hot")
	}
}

func TestPoliciesOnEmptyInput(t *testing.T) {
	if _, ok := (LRUPolicy{}).Victim(nil); ok {
		t.Error("expected no victim from empty candidates")
	}
	if _, ok := (HotKeyAwarePolicy{}).Victim(nil); ok {
		t.Error("expected no victim from empty candidates")
	}
}

func TestTieBreakKeepsFirstCandidate(t *testing.T) {
	now := time.Now()
	cands := []Candidate{
		{Key: "first", LastAccess: now},
		{Key: "second", LastAccess: now},
	}

	victim, ok := LRUPolicy{}.Victim(cands)
	if !ok || victim != "first" {
		t.Errorf("expected tie to resolve to first, got %s (ok=%v)", victim, ok)
	}
}
