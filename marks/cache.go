package marks

import (
	"expvar"
	"log/slog"

	"golang.org/x/sync/singleflight"

	"github.com/INLOpen/mergetree/cache"
)

// Cache is the process-wide mark cache, keyed by mark file path and bounded
// by the bytes of the cached marks. It is safe for concurrent use.
type Cache struct {
	lru    cache.Interface[string, Marks]
	sf     singleflight.Group
	logger *slog.Logger
}

func NewCache(maxBytes int64, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{
		lru:    cache.NewLRUCache[string, Marks](maxBytes, Marks.ByteSize, nil),
		logger: logger.With("component", "MarkCache"),
	}
}

func (c *Cache) Get(path string) (Marks, bool) {
	return c.lru.Get(path)
}

func (c *Cache) Put(path string, m Marks) {
	c.lru.Put(path, m)
}

func (c *Cache) SetMetrics(hits, misses *expvar.Int) {
	c.lru.SetMetrics(hits, misses)
}

// GetOrLoad returns the cached marks of path or reads them from disk. When
// save is set, loaded marks are inserted into the cache. Concurrent loads of
// the same path share one read.
func (c *Cache) GetOrLoad(path string, save bool) (Marks, error) {
	if m, ok := c.lru.Get(path); ok {
		return m, nil
	}
	v, err, shared := c.sf.Do(path, func() (any, error) {
		return Load(path)
	})
	if err != nil {
		return nil, err
	}
	// The flight may belong to a caller that did not ask to save.
	if save {
		c.lru.Put(path, v.(Marks))
	}
	c.logger.Debug("Loaded marks", "path", path, "saved", save, "shared", shared)
	return v.(Marks), nil
}

func (c *Cache) Stats() cache.Stats {
	return c.lru.Stats()
}

// Clear drops every cached entry.
func (c *Cache) Clear() {
	c.lru.Clear()
}
