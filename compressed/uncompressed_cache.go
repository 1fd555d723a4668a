package compressed

import (
	"expvar"

	"github.com/INLOpen/mergetree/cache"
)

// CacheKey identifies a decompressed block by file and compressed offset.
type CacheKey struct {
	Path   string
	Offset uint64
}

// UncompressedBlock is a cached decompressed block. CompressedSize is the
// framed size on disk, so the next block starts at Offset+CompressedSize.
type UncompressedBlock struct {
	Data           []byte
	CompressedSize uint64
}

const blockOverhead = 64

func (b *UncompressedBlock) weight() int64 {
	return int64(len(b.Data)) + blockOverhead
}

// UncompressedCache is the process-wide cache of decompressed blocks, bounded
// by bytes. Cached blocks are immutable and shared between readers.
type UncompressedCache struct {
	lru cache.Interface[CacheKey, *UncompressedBlock]
}

func NewUncompressedCache(maxBytes int64) *UncompressedCache {
	return &UncompressedCache{
		lru: cache.NewLRUCache[CacheKey, *UncompressedBlock](maxBytes, (*UncompressedBlock).weight, nil),
	}
}

func (c *UncompressedCache) Get(key CacheKey) (*UncompressedBlock, bool) {
	return c.lru.Get(key)
}

func (c *UncompressedCache) Put(key CacheKey, b *UncompressedBlock) {
	c.lru.Put(key, b)
}

// SetMetrics mirrors hits and misses into expvar counters.
func (c *UncompressedCache) SetMetrics(hits, misses *expvar.Int) {
	c.lru.SetMetrics(hits, misses)
}

func (c *UncompressedCache) Stats() cache.Stats {
	return c.lru.Stats()
}

func (c *UncompressedCache) Clear() {
	c.lru.Clear()
}
