package cache

// Stats holds aggregate counters for a single cache tier.
// It is a snapshot derived from the live cache, not persisted on its own.
type Stats struct {
	// Hits is the number of successful reads
	Hits int64

	// Misses is the number of reads that found nothing (absent or expired)
	Misses int64

	// Evictions is the number of entries removed by capacity or expiry
	Evictions int64

	// Size is the number of live entries at snapshot time
	Size int

	// MaxSize is the configured capacity (0 = unbounded)
	MaxSize int
}

// HitRate returns the fraction of reads that were hits, in [0, 1].
// Returns 0 when no reads have been recorded.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}
