package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

const (
	tenantCacheTTL     = 5 * time.Minute
	negativeCacheTTL   = 30 * time.Second
	maxCacheEntries    = 10000
	cacheCleanupPeriod = 60 * time.Second
)

// negativeSentinel is stored in tenantID to mark a cached lookup failure.
const negativeSentinel = "\x00negative"

// errCachedNotFound is returned for negative cache hits.
var errCachedNotFound = errors.New("tenant not found (cached)")

type cachedTenant struct {
	tenantID  string
	fetchedAt time.Time
}

// isNegative reports whether this entry represents a cached lookup failure.
func (ct cachedTenant) isNegative() bool {
	return ct.tenantID == negativeSentinel
}

// ttl returns the appropriate TTL for this entry. Failures age out faster so
// a freshly provisioned key becomes usable without waiting a full cache cycle.
func (ct cachedTenant) ttl() time.Duration {
	if ct.isNegative() {
		return negativeCacheTTL
	}
	return tenantCacheTTL
}

// hashKey returns a hex-encoded SHA-256 hash of the API key so raw keys
// are never stored in memory.
func hashKey(apiKey string) string {
	h := sha256.Sum256([]byte(apiKey))
	return hex.EncodeToString(h[:])
}

// CachedTenantLookup wraps a TenantLookup with a bounded in-memory cache.
// Concurrent misses for the same key are collapsed into a single database
// lookup, so a burst of requests on one tenant costs one query.
type CachedTenantLookup struct {
	inner TenantLookup
	group singleflight.Group
	mu    sync.RWMutex
	cache map[string]cachedTenant
}

// NewCachedTenantLookup creates a caching wrapper around the given TenantLookup.
// The provided context controls the lifetime of the background eviction goroutine.
func NewCachedTenantLookup(ctx context.Context, inner TenantLookup) *CachedTenantLookup {
	c := &CachedTenantLookup{
		inner: inner,
		cache: make(map[string]cachedTenant),
	}
	go c.evictLoop(ctx)
	return c
}

// evictLoop periodically removes expired entries from the cache.
func (c *CachedTenantLookup) evictLoop(ctx context.Context) {
	ticker := time.NewTicker(cacheCleanupPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.mu.Lock()
			now := time.Now()
			for k, v := range c.cache {
				if now.Sub(v.fetchedAt) >= v.ttl() {
					delete(c.cache, k)
				}
			}
			c.mu.Unlock()
		}
	}
}

// GetTenantByAPIKey returns a cached tenant id or delegates to the inner
// lookup. Failed lookups are negatively cached so repeated attempts with a
// bad key do not hammer the database.
func (c *CachedTenantLookup) GetTenantByAPIKey(ctx context.Context, apiKey string) (string, error) {
	hk := hashKey(apiKey)

	if tenantID, err, ok := c.lookupCached(hk); ok {
		return tenantID, err
	}

	v, err, _ := c.group.Do(hk, func() (any, error) {
		// A flight-mate may have filled the cache while we waited for the lock.
		if tenantID, err, ok := c.lookupCached(hk); ok {
			return tenantID, err
		}

		tenantID, err := c.inner.GetTenantByAPIKey(ctx, apiKey)
		if err != nil {
			c.store(hk, negativeSentinel)
			return "", err
		}

		c.store(hk, tenantID)
		return tenantID, nil
	})
	if err != nil {
		return "", err
	}

	return v.(string), nil
}

// lookupCached checks the cache for a live entry. The third return reports
// whether a usable entry was found.
func (c *CachedTenantLookup) lookupCached(hk string) (string, error, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.cache[hk]
	if !ok || time.Since(entry.fetchedAt) >= entry.ttl() {
		return "", nil, false
	}
	if entry.isNegative() {
		return "", errCachedNotFound, true
	}
	return entry.tenantID, nil, true
}

// store writes one entry, evicting expired and then arbitrary entries if the
// cache would exceed its cap.
func (c *CachedTenantLookup) store(hk, tenantID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.cache) >= maxCacheEntries {
		now := time.Now()
		for k, v := range c.cache {
			if now.Sub(v.fetchedAt) >= v.ttl() {
				delete(c.cache, k)
			}
		}
		for k := range c.cache {
			if len(c.cache) < maxCacheEntries {
				break
			}
			delete(c.cache, k)
		}
	}

	c.cache[hk] = cachedTenant{tenantID: tenantID, fetchedAt: time.Now()}
}
