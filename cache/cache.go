/*
Package cache implements the specification's in-memory associative store
(component C1): a thread-safe key-value cache with pluggable eviction
(LRU/MRU/FIFO/Random) and expiration (None/Static/Instant) policies, tag
invalidation, a pluggable size function, and running hit/miss/insert/
eviction statistics.

================================================================================
ARCHITECTURAL OVERVIEW
================================================================================

Cache combines two structures, the same combination the teacher
(tempuscache) uses for its single LRU+TTL variant, generalized to the
four eviction policies and three expiration policies the specification
requires:

 1. Hash map (map[K]*list.Element)
    - O(1) key lookup.
    - Maps keys to their ordering-list element.

 2. Doubly linked list (*list.List, holding *entry[K,V])
    - Maintains the single total order over live entries used for both
      recency (LRU/MRU) and insertion order (FIFO); Random picks a
      uniformly chosen element instead of walking to either end.
    - Back = most recently touched (for LRU/MRU) or most recently
      inserted (for FIFO, which never reorders on access); Front = least
      recently touched / first inserted, i.e. the LRU/FIFO eviction
      target.

================================================================================
CONCURRENCY MODEL
================================================================================

A single sync.Mutex protects all state, including reads: per the
specification, Find must be able to update recency as part of a "read",
so read-only access cannot be satisfied by a plain RLock without also
serializing writers against each other during that update.
*/
package cache

import (
	"container/list"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/Krishna8167/tempusutil/internal/xlog"
	"github.com/Krishna8167/tempusutil/sizeof"
	"github.com/Krishna8167/tempusutil/xerrors"
)

// Cache is a thread-safe associative store over key type K and value type
// V. Zero value is not usable; construct with New.
type Cache[K comparable, V any] struct {
	mu    sync.Mutex
	data  map[K]*list.Element
	order *list.List

	capacity    int
	eviction    EvictionPolicy
	expiration  ExpirationPolicy
	expireAfter time.Duration
	sizeFunc    sizeof.Func[V]
	log         zerolog.Logger

	size  int
	stats Stats
}

// New constructs a Cache configured by the given options. With no options,
// the cache has unlimited capacity, LRU eviction (irrelevant until a
// capacity is set), no expiration, and count-based size accounting.
func New[K comparable, V any](opts ...Option[K, V]) *Cache[K, V] {
	c := &Cache[K, V]{
		data:     make(map[K]*list.Element),
		order:    list.New(),
		sizeFunc: sizeof.Count[V],
		log:      xlog.Component("cache"),
		stats: Stats{
			StartTime: time.Now(),
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	c.stats.Capacity = c.capacity
	return c
}

/*
Insert adds or replaces key with value, associated with the given tags.

Returns (evicted, err):
  - err is xerrors wrapping ErrCacheFull when the new entry's own size
    exceeds capacity on its own; nothing is stored and FailedInserts is
    incremented.
  - evicted is true when inserting this key displaced a live entry,
    either because the key already existed (replaced in place) or
    because making room required evicting a different entry.

Algorithm (per the specification's Insert algorithm):
 1. Compute the size of the new entry via the configured size function.
 2. If it alone exceeds capacity, reject with CacheFull.
 3. While current size + new size > capacity, evict one entry per the
    eviction policy.
 4. Insert, recording insertion time/expiration, linking into the
    ordering list; if the key already existed, replace in place.
*/
func (c *Cache[K, V]) Insert(key K, value V, tags ...string) (evicted bool, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	newSize := c.sizeFunc(value)

	if c.capacity > 0 && newSize > c.capacity {
		c.stats.FailedInserts++
		c.log.Warn().Int("size", newSize).Int("capacity", c.capacity).Msg("insert rejected: value too large for capacity")
		return false, xerrors.Trace("cache: value too large for capacity", xerrors.ErrCacheFull).
			AddParameter("size", strconv.Itoa(newSize)).
			AddParameter("capacity", strconv.Itoa(c.capacity))
	}

	if elem, found := c.data[key]; found {
		old := elem.Value.(*entry[K, V])
		c.size -= old.size
		c.size += newSize

		old.value = value
		old.size = newSize
		old.insertedAt = time.Now()
		c.setExpiry(old)
		c.resetTags(old, tags)

		if c.eviction == LRU || c.eviction == MRU {
			c.order.MoveToBack(elem)
		}

		c.evictUntilFits()
		c.stats.Inserts++
		c.stats.Size = c.size
		return true, nil
	}

	evicted = c.evictUntilFitsFor(newSize)

	e := newEntry[K, V](key, value, tags, newSize)
	c.setExpiry(e)

	elem := c.order.PushBack(e)
	c.data[key] = elem
	c.size += newSize

	c.stats.Inserts++
	c.stats.Size = c.size
	return evicted, nil
}

func (c *Cache[K, V]) resetTags(e *entry[K, V], tags []string) {
	if len(tags) == 0 {
		e.tags = nil
		return
	}
	e.tags = make(map[string]struct{}, len(tags))
	for _, t := range tags {
		e.tags[t] = struct{}{}
	}
}

func (c *Cache[K, V]) setExpiry(e *entry[K, V]) {
	if c.expiration == InstantExpiration && c.expireAfter > 0 {
		e.expiresAt = e.insertedAt.Add(c.expireAfter)
	} else {
		e.expiresAt = time.Time{}
	}
}

// evictUntilFits evicts entries (per policy) while current size exceeds
// capacity. Used after an in-place replacement, where the new entry is
// already linked.
func (c *Cache[K, V]) evictUntilFits() {
	for c.capacity > 0 && c.size > c.capacity && c.order.Len() > 0 {
		c.evictOne()
	}
}

// evictUntilFitsFor evicts entries until there is room for an additional
// newSize units, returning whether anything was evicted.
func (c *Cache[K, V]) evictUntilFitsFor(newSize int) (evicted bool) {
	for c.capacity > 0 && c.size+newSize > c.capacity && c.order.Len() > 0 {
		c.evictOne()
		evicted = true
	}
	return evicted
}

// evictOne removes exactly one live entry per the configured eviction
// policy and increments the eviction counter.
func (c *Cache[K, V]) evictOne() {
	var elem *list.Element
	switch c.eviction {
	case MRU:
		elem = c.order.Back()
	case Random:
		elem = c.randomElement()
	default: // LRU, FIFO: oldest/least-recently-used lives at the front
		elem = c.order.Front()
	}
	if elem == nil {
		return
	}
	evicted := elem.Value.(*entry[K, V]).key
	c.removeElement(elem)
	c.stats.Evictions++
	c.log.Debug().Interface("key", evicted).Str("policy", c.eviction.String()).Msg("evicted entry")
}

func (c *Cache[K, V]) randomElement() *list.Element {
	n := c.order.Len()
	if n == 0 {
		return nil
	}
	idx := rand.Intn(n)
	elem := c.order.Front()
	for i := 0; i < idx; i++ {
		elem = elem.Next()
	}
	return elem
}

func (c *Cache[K, V]) removeElement(elem *list.Element) {
	e := elem.Value.(*entry[K, V])
	c.order.Remove(elem)
	delete(c.data, e.key)
	c.size -= e.size
}

/*
Find looks up key.

Per the specification's Find algorithm:
  - absent -> increment Misses, return zero value, false.
  - present but expired (InstantExpiration only) -> drop it, increment
    both Misses and Evictions, return zero value, false.
  - present and live -> increment Hits, update recency (LRU/MRU promote
    to the back, the MRU end; FIFO/Random never reorder), return the
    value, true.
*/
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
	if c.expiration == InstantExpiration && e.expired() {
		c.removeElement(elem)
		c.stats.Misses++
		c.stats.Evictions++
		c.stats.Size = c.size
		return zero, false
	}

	if c.eviction == LRU || c.eviction == MRU {
		c.order.MoveToBack(elem)
	}
	c.stats.Hits++
	return e.value, true
}

// Delete unconditionally removes key, doing nothing if it is absent.
func (c *Cache[K, V]) Delete(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if elem, ok := c.data[key]; ok {
		c.removeElement(elem)
		c.stats.Size = c.size
	}
}

/*
Expire invalidates entries by tag (the data model's "invalidation by tag"
invariant).

  - StaticExpiration: removes every live entry whose tag-set contains tag,
    unconditionally.
  - InstantExpiration: among entries whose tag-set contains tag, removes
    those older than the cache's configured duration (entries younger than
    the duration are left for their own natural expiration).
  - NoExpiration: tag invalidation still applies — tags are an independent
    feature from automatic expiration — entries matching tag are removed
    unconditionally, same as Static.

Returns the number of entries removed.
*/
func (c *Cache[K, V]) Expire(tag string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for elem := c.order.Front(); elem != nil; {
		next := elem.Next()
		e := elem.Value.(*entry[K, V])
		if e.hasTag(tag) {
			if c.expiration != InstantExpiration || time.Since(e.insertedAt) >= c.expireAfter {
				c.removeElement(elem)
				removed++
			}
		}
		elem = next
	}
	if removed > 0 {
		c.stats.Evictions += uint64(removed)
		c.stats.Size = c.size
	}
	return removed
}

// Size returns the current accounted size (sum over sizeFunc of live
// entries, not necessarily the entry count when a custom size function is
// used).
func (c *Cache[K, V]) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.size
}

// Len returns the number of live entries.
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Statistics returns a snapshot of the running counters.
func (c *Cache[K, V]) Statistics() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stats.Size = c.size
	return c.stats
}

// Keys returns the live keys in current ordering-list order: LRU-to-MRU
// for LRU/MRU (the eviction target first), oldest-to-newest insertion for
// FIFO/Random. Intended for diagnostics and tests, not for hot paths.
func (c *Cache[K, V]) Keys() []K {
	c.mu.Lock()
	defer c.mu.Unlock()
	keys := make([]K, 0, c.order.Len())
	for elem := c.order.Front(); elem != nil; elem = elem.Next() {
		keys = append(keys, elem.Value.(*entry[K, V]).key)
	}
	return keys
}
