package timedcache

import "time"

// entry is the stored unit inside the LRU list: a key/value pair plus the
// instant it expires at. A zero expiresAt means "never expires".
type entry[K comparable, V any] struct {
	key       K
	value     V
	expiresAt time.Time
}

func (e *entry[K, V]) expired() bool {
	return !e.expiresAt.IsZero() && time.Now().After(e.expiresAt)
}
