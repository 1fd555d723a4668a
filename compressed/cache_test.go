package compressed

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUncompressedCache_Budget(t *testing.T) {
	c := NewUncompressedCache(3 * (100 + blockOverhead))
	for i := uint64(0); i < 4; i++ {
		c.Put(CacheKey{Path: "a.bin", Offset: i * 10}, &UncompressedBlock{Data: make([]byte, 100), CompressedSize: 10})
	}
	s := c.Stats()
	assert.Equal(t, 3, s.Entries)
	assert.Equal(t, uint64(1), s.Evictions)

	_, ok := c.Get(CacheKey{Path: "a.bin", Offset: 0})
	assert.False(t, ok)
	b, ok := c.Get(CacheKey{Path: "a.bin", Offset: 30})
	assert.True(t, ok)
	assert.Equal(t, uint64(10), b.CompressedSize)

	_, ok = c.Get(CacheKey{Path: "b.bin", Offset: 30})
	assert.False(t, ok, "keys are per file")

	c.Clear()
	assert.Equal(t, 0, c.Stats().Entries)
}

func TestUncompressedCache_Disabled(t *testing.T) {
	c := NewUncompressedCache(0)
	c.Put(CacheKey{Path: "a.bin"}, &UncompressedBlock{Data: []byte{1}})
	_, ok := c.Get(CacheKey{Path: "a.bin"})
	assert.False(t, ok)
}
