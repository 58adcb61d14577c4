// Package cache memoizes catalog results per entry and store version.
//
// Keys combine an entry name with a caller-supplied version token; a new
// token makes every older key unreachable. Nothing else invalidates an
// entry except TTL expiry.
package cache

import (
	"sync/atomic"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Key builds the cache key for an entry evaluated at a store version
func Key(entry, token string) string {
	return entry + "@" + token
}

// Config controls cache capacity and lifetime
type Config struct {
	// MaxEntries caps stored results. At the cap, expired results are
	// purged and a new result is dropped if none were; nothing is evicted.
	MaxEntries int
	// TTL of zero keeps entries for the life of the process
	TTL time.Duration
}

// DefaultConfig returns the settings used when the config file is silent
func DefaultConfig() Config {
	return Config{MaxEntries: 128}
}

// Stats is a point-in-time view of cache activity
type Stats struct {
	Hits    int64 `json:"hits"`
	Misses  int64 `json:"misses"`
	Skipped int64 `json:"skipped"`
	Items   int   `json:"items"`
}

// HitRate returns hits as a percentage of lookups
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total) * 100
}

// Cache wraps a go-cache store with hit accounting and a size cap
type Cache struct {
	store      *gocache.Cache
	maxEntries int

	hits    atomic.Int64
	misses  atomic.Int64
	skipped atomic.Int64
}

// New creates a cache. A positive TTL also starts the store's janitor,
// which sweeps expired results every two TTLs.
func New(config Config) *Cache {
	if config.MaxEntries <= 0 {
		config.MaxEntries = DefaultConfig().MaxEntries
	}

	expiration, cleanup := gocache.NoExpiration, time.Duration(0)
	if config.TTL > 0 {
		expiration, cleanup = config.TTL, 2*config.TTL
	}

	return &Cache{
		store:      gocache.New(expiration, cleanup),
		maxEntries: config.MaxEntries,
	}
}

// Get returns the value stored under key
func (c *Cache) Get(key string) (interface{}, bool) {
	v, ok := c.store.Get(key)
	if !ok {
		c.misses.Add(1)
		return nil, false
	}
	c.hits.Add(1)
	return v, true
}

// Set stores value under key with the configured TTL and reports whether
// it was kept
func (c *Cache) Set(key string, value interface{}) bool {
	if c.store.ItemCount() >= c.maxEntries {
		if _, exists := c.store.Get(key); !exists {
			c.store.DeleteExpired()
			if c.store.ItemCount() >= c.maxEntries {
				c.skipped.Add(1)
				return false
			}
		}
	}
	c.store.SetDefault(key, value)
	return true
}

// Stats returns a snapshot of the counters
func (c *Cache) Stats() Stats {
	return Stats{
		Hits:    c.hits.Load(),
		Misses:  c.misses.Load(),
		Skipped: c.skipped.Load(),
		Items:   c.store.ItemCount(),
	}
}
