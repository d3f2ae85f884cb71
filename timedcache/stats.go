package timedcache

import "time"

// Statistics reports the persistent-since-construction counters the
// specification's supplemented CacheStatistics requires: construction
// time plus hit/miss/eviction/insert-success/insert-failure counts.
type Statistics struct {
	ConstructedAt   time.Time
	Capacity        int
	Size            int
	Hits            uint64
	Misses          uint64
	Evictions       uint64
	InsertSuccesses uint64
	InsertFailures  uint64
}

// HitRatio returns Hits / (Hits + Misses), or 0 when there have been no
// lookups yet.
func (s Statistics) HitRatio() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}
