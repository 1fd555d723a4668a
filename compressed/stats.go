package compressed

import "sync/atomic"

// Stats counts the work done by read buffers. One Stats may be shared by
// many buffers and goroutines.
type Stats struct {
	Decompressions    atomic.Int64
	DecompressedBytes atomic.Int64
	BytesRead         atomic.Int64
	Seeks             atomic.Int64
	ScannedBytes      atomic.Int64
	CacheHits         atomic.Int64
	CacheMisses       atomic.Int64
}

// StatsSnapshot is a plain copy of Stats.
type StatsSnapshot struct {
	Decompressions    int64
	DecompressedBytes int64
	BytesRead         int64
	Seeks             int64
	ScannedBytes      int64
	CacheHits         int64
	CacheMisses       int64
}

func (s *Stats) Snapshot() StatsSnapshot {
	return StatsSnapshot{
		Decompressions:    s.Decompressions.Load(),
		DecompressedBytes: s.DecompressedBytes.Load(),
		BytesRead:         s.BytesRead.Load(),
		Seeks:             s.Seeks.Load(),
		ScannedBytes:      s.ScannedBytes.Load(),
		CacheHits:         s.CacheHits.Load(),
		CacheMisses:       s.CacheMisses.Load(),
	}
}
