package timedcache

import "time"

// Option configures a Cache at construction time, the same functional-
// options pattern the teacher's cache uses for WithCleanupInterval.
type Option[K comparable, V any] func(*Cache[K, V])

// WithCapacity sets the maximum number of live entries. Default: 0,
// meaning unlimited (LRU eviction never triggers on count).
func WithCapacity[K comparable, V any](capacity int) Option[K, V] {
	return func(c *Cache[K, V]) {
		c.capacity = capacity
	}
}

// WithDefaultTTL sets the TTL applied to entries inserted without an
// explicit per-call ttl. Default: 0, meaning entries never expire unless
// Insert is called with a ttl argument.
func WithDefaultTTL[K comparable, V any](ttl time.Duration) Option[K, V] {
	return func(c *Cache[K, V]) {
		c.defaultTTL = ttl
	}
}

// WithCleanupInterval enables an active-expiration janitor goroutine that
// sweeps expired entries every d, independent of reads. Default: disabled,
// relying solely on lazy (read-time) expiration.
func WithCleanupInterval[K comparable, V any](d time.Duration) Option[K, V] {
	return func(c *Cache[K, V]) {
		c.cleanupInterval = d
	}
}
