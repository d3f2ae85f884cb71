package filecache

import "time"

// Statistics mirrors the in-memory cache's persistent-since-construction
// counters (package cache's Stats), adapted to the file cache's contract.
type Statistics struct {
	StartTime time.Time
	Capacity  uint64
	Size      uint64
	Inserts   uint64
	Hits      uint64
	Misses    uint64
}

func (s Statistics) HitRatio() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}
