package cache

import (
	"strings"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// ============================================================================
// CACHE SERVICE - IN-MEMORY READ CACHE WITH EAGER INVALIDATION
// ============================================================================
// Itinerary reads are cached per trip ("trip:<id>") and per owner listing
// ("trips:<owner>:<filter>"). Writes drop the affected keys immediately
// instead of waiting for the TTL. Every invalidation bumps the version of
// its scope (a key or a key prefix); a reader that loaded from the database
// stores its result with SetIfUnchanged so a write that raced the load wins.
//
// Uso:
//   c := New(2*time.Minute, 5*time.Minute)
//   v := c.Version(TripKey(id))
//   trip := load(id)
//   c.SetIfUnchanged(TripKey(id), v, TripKey(id), trip)
//   c.InvalidateTrip(ownerID, id)

// Cache is a thread-safe TTL cache with prefix invalidation.
type Cache struct {
	items *gocache.Cache

	// mu orders invalidations against SetIfUnchanged
	mu       sync.Mutex
	versions map[string]uint64
	epoch    uint64 // bumped by Clear
}

// New creates a cache with a default TTL and a cleanup interval for expired items.
func New(defaultExpiration, cleanupInterval time.Duration) *Cache {
	return &Cache{
		items:    gocache.New(defaultExpiration, cleanupInterval),
		versions: make(map[string]uint64),
	}
}

// Version returns the invalidation counter of scope. Take it before loading
// the value that SetIfUnchanged will store.
func (c *Cache) Version(scope string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.epoch + c.versions[scope]
}

// SetIfUnchanged stores value under key only when scope was not invalidated
// since version was read. It reports whether the value was stored.
func (c *Cache) SetIfUnchanged(scope string, version uint64, key string, value interface{}) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.epoch+c.versions[scope] != version {
		return false
	}
	c.items.Set(key, value, gocache.DefaultExpiration)
	return true
}

// Set stores a value with the default TTL.
func (c *Cache) Set(key string, value interface{}) {
	c.items.Set(key, value, gocache.DefaultExpiration)
}

// SetWithTTL stores a value with an explicit TTL.
func (c *Cache) SetWithTTL(key string, value interface{}, ttl time.Duration) {
	c.items.Set(key, value, ttl)
}

// Get returns (value, true) when key exists and has not expired.
func (c *Cache) Get(key string) (interface{}, bool) {
	return c.items.Get(key)
}

// Delete drops a single key and bumps its version.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.versions[key]++
	c.items.Delete(key)
}

// DeletePrefix drops every key starting with prefix, bumps the version of the
// prefix scope and returns how many keys went.
func (c *Cache) DeletePrefix(prefix string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.versions[prefix]++
	count := 0
	for key := range c.items.Items() {
		if strings.HasPrefix(key, prefix) {
			c.items.Delete(key)
			count++
		}
	}
	return count
}

// Clear drops everything.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.epoch++
	c.items.Flush()
}

// Count returns the number of cached items (expired ones not yet collected included).
func (c *Cache) Count() int {
	return c.items.ItemCount()
}

// ============================================================================
// ITINERARY KEYS
// ============================================================================

// TripKey is the key of a single trip with its items.
func TripKey(tripID string) string {
	return "trip:" + tripID
}

// TripListPrefix is the prefix of every cached listing of one owner.
func TripListPrefix(ownerID string) string {
	return "trips:" + ownerID + ":"
}

// TripListKey is the key of one owner listing for a given filter key.
func TripListKey(ownerID, filterKey string) string {
	return TripListPrefix(ownerID) + filterKey
}

// InvalidateTrip drops the cached trip and all of its owner's listings.
func (c *Cache) InvalidateTrip(ownerID, tripID string) {
	if tripID != "" {
		c.Delete(TripKey(tripID))
	}
	if ownerID != "" {
		c.DeletePrefix(TripListPrefix(ownerID))
	}
}

// Stats is a snapshot of the cache size.
type Stats struct {
	TotalItems int `json:"total_items"`
	Trips      int `json:"trips"`
	Listings   int `json:"listings"`
}

// GetStats returns the current cache size by key family.
func (c *Cache) GetStats() Stats {
	stats := Stats{}
	for key := range c.items.Items() {
		stats.TotalItems++
		switch {
		case strings.HasPrefix(key, "trip:"):
			stats.Trips++
		case strings.HasPrefix(key, "trips:"):
			stats.Listings++
		}
	}
	return stats
}
