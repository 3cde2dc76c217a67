package reveal

import (
	lru "github.com/hashicorp/golang-lru"
)

// maxCacheEntries bounds every engine cache. Housekeeping trims well below
// this; the bound only protects against unbounded growth between passes.
const maxCacheEntries = 4096

// CacheStats reports cache effectiveness.
type CacheStats struct {
	Hits      uint64
	Misses    uint64
	Evictions uint64
	Len       int
}

// TransformCache memoises ComputeTransform by spec key. Entries live until
// Trim; results that depend on a geometry snapshot are never stored.
type TransformCache struct {
	entries *lru.Cache
	stats   CacheStats
}

// NewTransformCache creates an empty cache.
func NewTransformCache() *TransformCache {
	c := &TransformCache{}
	c.entries = newLRU(func(any, any) { c.stats.Evictions++ })
	return c
}

// Transform returns the transform for spec, computing and storing it on a
// miss. When spec.RespectPositioning is set and geo is non-nil the result
// is computed directly and not stored.
func (c *TransformCache) Transform(spec TransformSpec, geo *Geometry) Transform {
	if spec.RespectPositioning && geo != nil {
		return ComputeTransform(spec, geo)
	}
	key := spec.Key()
	if v, ok := c.entries.Get(key); ok {
		c.stats.Hits++
		return v.(Transform)
	}
	c.stats.Misses++
	t := ComputeTransform(spec, nil)
	c.entries.Add(key, t)
	return t
}

// lookup returns a cached transform without computing.
func (c *TransformCache) lookup(key string) (Transform, bool) {
	v, ok := c.entries.Get(key)
	if !ok {
		return Transform{}, false
	}
	c.stats.Hits++
	return v.(Transform), true
}

// contains reports presence without touching recency or stats.
func (c *TransformCache) contains(key string) bool {
	return c.entries.Contains(key)
}

// store records a transform computed elsewhere.
func (c *TransformCache) store(key string, t Transform) {
	c.entries.Add(key, t)
}

// Trim evicts least-recently-used entries until at most n remain.
func (c *TransformCache) Trim(n int) int {
	return trimLRU(c.entries, n)
}

// Purge removes every entry.
func (c *TransformCache) Purge() {
	c.entries.Purge()
}

// Stats returns a snapshot of the cache counters.
func (c *TransformCache) Stats() CacheStats {
	s := c.stats
	s.Len = c.entries.Len()
	return s
}

// selectorCache maps a selector to the elements it matched when queried.
// It is an optimisation only: callers filter out detached elements and the
// whole cache can be purged at any time.
type selectorCache struct {
	entries *lru.Cache
}

func newSelectorCache() *selectorCache {
	return &selectorCache{entries: newLRU(nil)}
}

func (c *selectorCache) get(sel string) ([]*Element, bool) {
	v, ok := c.entries.Get(sel)
	if !ok {
		return nil, false
	}
	return v.([]*Element), true
}

func (c *selectorCache) put(sel string, els []*Element) {
	c.entries.Add(sel, els)
}

func (c *selectorCache) trim(n int) int {
	return trimLRU(c.entries, n)
}

func (c *selectorCache) purge() {
	c.entries.Purge()
}

func (c *selectorCache) len() int {
	return c.entries.Len()
}

func newLRU(onEvict func(key, value any)) *lru.Cache {
	var (
		c   *lru.Cache
		err error
	)
	if onEvict != nil {
		c, err = lru.NewWithEvict(maxCacheEntries, func(k, v interface{}) { onEvict(k, v) })
	} else {
		c, err = lru.New(maxCacheEntries)
	}
	if err != nil {
		// Only returned for a non-positive size.
		panic(err)
	}
	return c
}

// trimLRU shrinks the cache to its n most-recently-used entries and
// restores the original bound.
func trimLRU(c *lru.Cache, n int) int {
	if n < 0 {
		n = 0
	}
	if c.Len() <= n {
		return 0
	}
	if n == 0 {
		evicted := c.Len()
		c.Purge()
		return evicted
	}
	evicted := c.Resize(n)
	c.Resize(maxCacheEntries)
	return evicted
}
