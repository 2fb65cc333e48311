// Package cache keeps recent pipeline results keyed by a fingerprint of the
// tender snapshot they were computed from.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/ZanzyTHEbar/tender-integrity/internal/monitoring"
)

// Cache provides thread-safe caching with TTL
type Cache struct {
	store   *gocache.Cache
	ttl     time.Duration
	metrics *monitoring.Metrics
}

// NewCache creates a cache whose entries live for ttl. metrics may be nil.
func NewCache(ttl, cleanupInterval time.Duration, metrics *monitoring.Metrics) *Cache {
	return &Cache{
		store:   gocache.New(ttl, cleanupInterval),
		ttl:     ttl,
		metrics: metrics,
	}
}

// Fingerprint hashes the JSON encoding of v. Identical snapshots give
// identical keys, so an unchanged tender is never re-analysed within the TTL.
func Fingerprint(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// Get retrieves an item from the cache
func (c *Cache) Get(key string) ([]byte, bool) {
	v, found := c.store.Get(key)
	c.metrics.RecordCacheLookup(found)
	if !found {
		return nil, false
	}
	data, ok := v.([]byte)
	return data, ok
}

// Set stores an item with the default TTL
func (c *Cache) Set(key string, data []byte) {
	c.store.SetDefault(key, data)
}

// Delete removes an item from the cache
func (c *Cache) Delete(key string) {
	c.store.Delete(key)
}

// Clear removes all items from the cache
func (c *Cache) Clear() {
	c.store.Flush()
}

// Size returns the number of items, including expired ones not yet cleaned up
func (c *Cache) Size() int {
	return c.store.ItemCount()
}

// Stats returns cache statistics
func (c *Cache) Stats() map[string]interface{} {
	return map[string]interface{}{
		"total_items": c.store.ItemCount(),
		"ttl_seconds": c.ttl.Seconds(),
	}
}
