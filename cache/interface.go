package cache

import "expvar"

// Interface defines the public API for a weighted cache.
type Interface[K comparable, V any] interface {
	Put(key K, value V)
	Get(key K) (value V, ok bool)
	Remove(key K)
	Clear()
	GetHitRate() float64
	SetMetrics(hits, misses *expvar.Int)
	Len() int
	Weight() int64
	Stats() Stats
}

var _ Interface[string, []byte] = (*LRUCache[string, []byte])(nil)
