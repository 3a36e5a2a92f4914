package advertiser

import (
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/promorang/marketplace-engine/internal/metrics"
)

// ttlCache is a process-local cache for upstream advertiser responses.
// Keys are "family/name"; invalidation is all-or-nothing per family, so a
// mutation never leaves a partially updated family behind. Concurrent
// misses on the same key share a single upstream request via singleflight.
//
// The clock is injectable so TTL expiry is testable without sleeping.
type ttlCache struct {
	mu      sync.Mutex
	entries map[string]cacheEntry
	now     func() time.Time
	group   singleflight.Group
}

type cacheEntry struct {
	value  any
	expiry time.Time
}

func newTTLCache(now func() time.Time) *ttlCache {
	if now == nil {
		now = time.Now
	}
	return &ttlCache{
		entries: make(map[string]cacheEntry),
		now:     now,
	}
}

// fetch returns the cached value for key when fresh, otherwise runs fn once
// (deduplicated across concurrent callers) and caches its result for ttl.
func (c *ttlCache) fetch(key string, ttl time.Duration, fn func() (any, error)) (any, error) {
	family := keyFamily(key)

	c.mu.Lock()
	if e, ok := c.entries[key]; ok && c.now().Before(e.expiry) {
		c.mu.Unlock()
		metrics.AdvertiserCacheOps.WithLabelValues(family, "hit").Inc()
		return e.value, nil
	}
	c.mu.Unlock()

	metrics.AdvertiserCacheOps.WithLabelValues(family, "miss").Inc()

	v, err, _ := c.group.Do(key, func() (any, error) {
		v, err := fn()
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.entries[key] = cacheEntry{value: v, expiry: c.now().Add(ttl)}
		c.mu.Unlock()
		return v, nil
	})
	return v, err
}

// invalidate drops every entry in a family, regardless of remaining TTL.
func (c *ttlCache) invalidate(family string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key := range c.entries {
		if keyFamily(key) == family {
			delete(c.entries, key)
		}
	}
}

func keyFamily(key string) string {
	if i := strings.IndexByte(key, '/'); i >= 0 {
		return key[:i]
	}
	return key
}
