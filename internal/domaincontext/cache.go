// File: internal/domaincontext/cache.go
package domaincontext

import (
	"sync"
	"time"
)

// recordCache is a small TTL cache in front of the store's on-disk document,
// so repeated context lookups inside one run do not re-read the file. It is
// purged wholesale on every save; staleness is bounded by the TTL even if a
// purge is missed by an out-of-process writer.
type recordCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]cachedRecord
}

type cachedRecord struct {
	rec      Record
	cachedAt time.Time
}

func newRecordCache(ttl time.Duration) *recordCache {
	return &recordCache{
		ttl:     ttl,
		entries: make(map[string]cachedRecord),
	}
}

func (c *recordCache) get(domain string) (Record, bool) {
	if c.ttl <= 0 {
		return Record{}, false
	}
	c.mu.RLock()
	entry, ok := c.entries[domain]
	c.mu.RUnlock()
	if !ok || time.Since(entry.cachedAt) > c.ttl {
		return Record{}, false
	}
	return entry.rec, true
}

func (c *recordCache) put(domain string, rec Record) {
	if c.ttl <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[domain] = cachedRecord{rec: rec, cachedAt: time.Now()}
}

func (c *recordCache) purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]cachedRecord)
}
