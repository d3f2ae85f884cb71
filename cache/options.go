package cache

import (
	"time"

	"github.com/Krishna8167/tempusutil/sizeof"
)

/*
Option configures a Cache at construction time.

This follows the teacher's functional-options pattern (tempuscache's
options.go built the same way around a single WithCleanupInterval): each
Option mutates the Cache before it is returned from New, so new knobs can
be added without breaking existing constructor calls.
*/
type Option[K comparable, V any] func(*Cache[K, V])

// WithCapacity sets the accounted capacity ceiling. Default: 0, meaning
// unlimited (no eviction ever triggers).
func WithCapacity[K comparable, V any](capacity int) Option[K, V] {
	return func(c *Cache[K, V]) {
		c.capacity = capacity
	}
}

// WithEviction selects the eviction policy. Default: LRU.
func WithEviction[K comparable, V any](policy EvictionPolicy) Option[K, V] {
	return func(c *Cache[K, V]) {
		c.eviction = policy
	}
}

// WithExpiration selects the expiration policy and, for InstantExpiration,
// the duration after which an entry's age makes it expired. Default:
// NoExpiration.
func WithExpiration[K comparable, V any](policy ExpirationPolicy, duration time.Duration) Option[K, V] {
	return func(c *Cache[K, V]) {
		c.expiration = policy
		c.expireAfter = duration
	}
}

// WithSizeFunc installs a custom size-accounting function (the §9
// "size-accounting pluggability" seam). Default: sizeof.Count, i.e. one
// entry = one unit of capacity.
func WithSizeFunc[K comparable, V any](fn sizeof.Func[V]) Option[K, V] {
	return func(c *Cache[K, V]) {
		c.sizeFunc = fn
	}
}
