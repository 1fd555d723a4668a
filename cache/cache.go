package cache

import (
	"container/list"
	"expvar"
	"sync"
)

// cacheEntry holds the key, value and accounted weight of a cache item.
type cacheEntry[K comparable, V any] struct {
	key    K
	value  V
	weight int64
}

// Weigher returns the number of bytes a value is accounted for.
type Weigher[V any] func(value V) int64

// LRUCache is a size-bounded LRU cache. Every entry has a weight (usually its
// size in bytes) and the cache evicts least recently used entries until the
// total weight fits maxWeight. It is safe for concurrent use.
type LRUCache[K comparable, V any] struct {
	mu         sync.Mutex
	maxWeight  int64
	weight     int64
	lruList    *list.List
	cacheItems map[K]*list.Element
	weigher    Weigher[V]
	onEvicted  func(key K, value V) // Optional callback on eviction

	hitCount      uint64
	missCount     uint64
	evictionCount uint64

	// Optional expvar mirrors of the counters above.
	hits   *expvar.Int
	misses *expvar.Int
}

// NewLRUCache creates a cache bounded by maxWeight. A maxWeight <= 0 gives a
// disabled cache: Put is a no-op and Get always misses. A nil weigher counts
// every entry as 1, which turns maxWeight into an entry count.
func NewLRUCache[K comparable, V any](maxWeight int64, weigher Weigher[V], onEvicted func(key K, value V)) *LRUCache[K, V] {
	if weigher == nil {
		weigher = func(V) int64 { return 1 }
	}
	return &LRUCache[K, V]{
		maxWeight:  maxWeight,
		lruList:    list.New(),
		cacheItems: make(map[K]*list.Element),
		weigher:    weigher,
		onEvicted:  onEvicted,
	}
}

func (c *LRUCache[K, V]) SetMetrics(hits, misses *expvar.Int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hits = hits
	c.misses = misses
}

// Get retrieves a value from the cache and marks it as recently used.
func (c *LRUCache[K, V]) Get(key K) (value V, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.maxWeight <= 0 {
		return value, false
	}

	if elem, ok := c.cacheItems[key]; ok {
		c.hitCount++
		if c.hits != nil {
			c.hits.Add(1)
		}
		c.lruList.MoveToFront(elem)
		return elem.Value.(*cacheEntry[K, V]).value, true
	}

	c.missCount++
	if c.misses != nil {
		c.misses.Add(1)
	}
	return value, false
}

// Put adds or replaces a value. Replacing an existing key swaps the value and
// its weight in place, so racing inserts of the same key are never counted
// twice against the budget. Values heavier than the whole budget are not cached.
func (c *LRUCache[K, V]) Put(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.maxWeight <= 0 {
		return
	}
	w := c.weigher(value)
	if w > c.maxWeight {
		return
	}

	if elem, ok := c.cacheItems[key]; ok {
		entry := elem.Value.(*cacheEntry[K, V])
		c.lruList.MoveToFront(elem)
		c.weight += w - entry.weight
		entry.value = value
		entry.weight = w
	} else {
		element := c.lruList.PushFront(&cacheEntry[K, V]{key: key, value: value, weight: w})
		c.cacheItems[key] = element
		c.weight += w
	}

	for c.weight > c.maxWeight {
		c.evict()
	}
}

// Remove drops key from the cache without calling onEvicted.
func (c *LRUCache[K, V]) Remove(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if elem, ok := c.cacheItems[key]; ok {
		entry := c.lruList.Remove(elem).(*cacheEntry[K, V])
		delete(c.cacheItems, key)
		c.weight -= entry.weight
	}
}

// Len returns the current number of items in the cache.
func (c *LRUCache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lruList.Len()
}

// Weight returns the total weight of cached items.
func (c *LRUCache[K, V]) Weight() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.weight
}

// evict removes the least recently used item from the cache.
// Must be called with c.mu locked.
func (c *LRUCache[K, V]) evict() {
	elem := c.lruList.Back()
	if elem == nil {
		return
	}
	removedEntry := c.lruList.Remove(elem).(*cacheEntry[K, V])
	delete(c.cacheItems, removedEntry.key)
	c.weight -= removedEntry.weight
	c.evictionCount++
	if c.onEvicted != nil {
		c.onEvicted(removedEntry.key, removedEntry.value)
	}
}

// Clear removes all entries from the cache and resets its counters.
func (c *LRUCache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.onEvicted != nil {
		for _, elem := range c.cacheItems {
			entry := elem.Value.(*cacheEntry[K, V])
			c.onEvicted(entry.key, entry.value)
		}
	}
	c.lruList = list.New()
	c.cacheItems = make(map[K]*list.Element)
	c.weight = 0
	c.hitCount, c.missCount, c.evictionCount = 0, 0, 0
	if c.hits != nil {
		c.hits.Set(0)
	}
	if c.misses != nil {
		c.misses.Set(0)
	}
}

// GetHitRate calculates the cache hit rate.
func (c *LRUCache[K, V]) GetHitRate() float64 {
	s := c.Stats()
	total := s.Hits + s.Misses
	if total == 0 {
		return 0.0
	}
	return float64(s.Hits) / float64(total)
}

// Stats is a point-in-time snapshot of cache counters.
type Stats struct {
	Hits      uint64
	Misses    uint64
	Evictions uint64
	Entries   int
	Weight    int64
	MaxWeight int64
}

// Stats returns the current counters.
func (c *LRUCache[K, V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		Hits:      c.hitCount,
		Misses:    c.missCount,
		Evictions: c.evictionCount,
		Entries:   c.lruList.Len(),
		Weight:    c.weight,
		MaxWeight: c.maxWeight,
	}
}
