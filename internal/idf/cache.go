package idf

import (
	"time"

	"github.com/jellydator/ttlcache/v3"
)

// CachedTable wraps Table with a small TTL cache over hot word IDs, so a
// bursty query mix doesn't re-walk the mmap'd table (and, once paged out,
// re-fault it) for the same handful of common words.
type CachedTable struct {
	*Table
	cache *ttlcache.Cache[uint64, uint32]
}

// NewCachedTable wraps t with a cache holding up to capacity entries for
// ttl each.
func NewCachedTable(t *Table, capacity uint64, ttl time.Duration) *CachedTable {
	cache := ttlcache.New[uint64, uint32](
		ttlcache.WithCapacity[uint64, uint32](capacity),
		ttlcache.WithTTL[uint64, uint32](ttl),
	)
	go cache.Start()
	return &CachedTable{Table: t, cache: cache}
}

// Lookup satisfies the same contract as Table.Lookup, served from cache
// where possible.
func (c *CachedTable) Lookup(wordID uint64) (uint32, bool) {
	if item := c.cache.Get(wordID); item != nil {
		return item.Value(), true
	}
	docs, ok := c.Table.Lookup(wordID)
	if ok {
		c.cache.Set(wordID, docs, ttlcache.DefaultTTL)
	}
	return docs, ok
}

// Close stops the cache's cleanup goroutine and closes the underlying
// table.
func (c *CachedTable) Close() error {
	c.cache.Stop()
	return c.Table.Close()
}
