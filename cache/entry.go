package cache

import "time"

// entry is the internal bookkeeping record behind every live cache slot:
// the data model's (key, value, tag-set) triple plus insertion time and
// (for InstantExpiration) the computed expiration instant. Ordering
// position is implicit in where the *list.Element wrapping this entry
// sits in Cache.order.
type entry[K comparable, V any] struct {
	key   K
	value V
	tags  map[string]struct{}
	size  int

	insertedAt time.Time
	expiresAt  time.Time // zero value means "does not expire"
}

func newEntry[K comparable, V any](key K, value V, tags []string, size int) *entry[K, V] {
	e := &entry[K, V]{
		key:        key,
		value:      value,
		size:       size,
		insertedAt: time.Now(),
	}
	if len(tags) > 0 {
		e.tags = make(map[string]struct{}, len(tags))
		for _, t := range tags {
			e.tags[t] = struct{}{}
		}
	}
	return e
}

func (e *entry[K, V]) hasTag(tag string) bool {
	if e.tags == nil {
		return false
	}
	_, ok := e.tags[tag]
	return ok
}

func (e *entry[K, V]) expired() bool {
	return !e.expiresAt.IsZero() && time.Now().After(e.expiresAt)
}
