/*
Package timedcache implements the specification's simplified cache variant
(component C3): LRU eviction with a single per-entry TTL, used wherever the
policy pluggability of the full in-memory cache (package cache) is not
needed.

Combines the same two structures the teacher (tempuscache) built its
single-variant cache around:

 1. Hash map (map[K]*list.Element) for O(1) lookup.
 2. Doubly linked list for LRU ordering, Back = most recently used,
    Front = least recently used (the eviction target) — the same
    front/back convention package cache uses.

A single mutex protects all state; reads take it too since Find must
promote the accessed entry to the back of the list.
*/
package timedcache

import (
	"container/list"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/Krishna8167/tempusutil/internal/xlog"
)

// Cache is a thread-safe LRU+TTL store over key type K and value type V.
// Zero value is not usable; construct with New.
type Cache[K comparable, V any] struct {
	mu    sync.Mutex
	data  map[K]*list.Element
	order *list.List

	capacity        int
	defaultTTL      time.Duration
	cleanupInterval time.Duration
	stopChan        chan struct{}
	stopOnce        sync.Once
	log             zerolog.Logger

	stats Statistics
}

// New constructs a Cache configured by the given options.
func New[K comparable, V any](opts ...Option[K, V]) *Cache[K, V] {
	c := &Cache[K, V]{
		data:     make(map[K]*list.Element),
		order:    list.New(),
		stopChan: make(chan struct{}),
		log:      xlog.Component("timedcache"),
		stats: Statistics{
			ConstructedAt: time.Now(),
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	c.stats.Capacity = c.capacity
	c.startJanitor()
	return c
}

/*
Insert adds key/value to the cache.

Per the specification's §4.3 algorithm:
  - If the key already exists and its entry has not expired, the insert
    is rejected (returns false); callers that want to overwrite a live
    entry must Delete it first.
  - If the key exists but has expired, the stale entry is dropped and the
    insert proceeds as new.
  - If the cache is at capacity, expired entries are dropped first; if it
    is still full, the least-recently-used entry is evicted.

ttl is optional: with no argument the cache's configured default TTL
applies; a zero ttl means the entry never expires on its own.
*/
func (c *Cache[K, V]) Insert(key K, value V, ttl ...time.Duration) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, found := c.data[key]; found {
		e := elem.Value.(*entry[K, V])
		if !e.expired() {
			c.stats.InsertFailures++
			return false
		}
		c.removeElement(elem)
		c.stats.Evictions++
	}

	if c.capacity > 0 && c.order.Len() >= c.capacity {
		c.dropExpiredLocked()
	}
	if c.capacity > 0 && c.order.Len() >= c.capacity {
		c.evictOldest()
	}

	effectiveTTL := c.defaultTTL
	if len(ttl) > 0 {
		effectiveTTL = ttl[0]
	}

	e := &entry[K, V]{key: key, value: value}
	if effectiveTTL > 0 {
		e.expiresAt = time.Now().Add(effectiveTTL)
	}

	elem := c.order.PushBack(e)
	c.data[key] = elem
	c.stats.InsertSuccesses++
	c.stats.Size = c.order.Len()
	return true
}

// Find looks up key, dropping it first if its TTL has passed. A live hit
// is promoted to the back of the LRU list (most-recently-used end).
func (c *Cache[K, V]) Find(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	elem, found := c.data[key]
	if !found {
		c.stats.Misses++
		return zero, false
	}

	e := elem.Value.(*entry[K, V])
	if e.expired() {
		c.removeElement(elem)
		c.stats.Misses++
		c.stats.Evictions++
		c.stats.Size = c.order.Len()
		return zero, false
	}

	c.order.MoveToBack(elem)
	c.stats.Hits++
	return e.value, true
}

// Delete unconditionally removes key, doing nothing if it is absent.
func (c *Cache[K, V]) Delete(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if elem, ok := c.data[key]; ok {
		c.removeElement(elem)
		c.stats.Size = c.order.Len()
	}
}

// Len returns the number of live entries, including ones that have
// expired but not yet been swept.
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Statistics returns a snapshot of the running counters.
func (c *Cache[K, V]) Statistics() Statistics {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stats.Size = c.order.Len()
	return c.stats
}

func (c *Cache[K, V]) evictOldest() {
	elem := c.order.Front()
	if elem == nil {
		return
	}
	c.removeElement(elem)
	c.stats.Evictions++
}

func (c *Cache[K, V]) removeElement(elem *list.Element) {
	e := elem.Value.(*entry[K, V])
	c.order.Remove(elem)
	delete(c.data, e.key)
}

// dropExpiredLocked sweeps every expired entry. Called with c.mu held.
func (c *Cache[K, V]) dropExpiredLocked() {
	for elem := c.order.Front(); elem != nil; {
		next := elem.Next()
		if elem.Value.(*entry[K, V]).expired() {
			c.removeElement(elem)
			c.stats.Evictions++
		}
		elem = next
	}
}

// Stop terminates the background janitor goroutine, if one was started
// via WithCleanupInterval. Safe to call multiple times.
func (c *Cache[K, V]) Stop() {
	c.stopOnce.Do(func() {
		close(c.stopChan)
	})
}
