package cache

// EvictionPolicy selects which live entry is dropped when inserting would
// exceed the configured capacity.
type EvictionPolicy int

const (
	// LRU evicts the least-recently-used entry: reads and writes promote
	// an entry to the back, eviction drops from the front.
	LRU EvictionPolicy = iota
	// MRU evicts the most-recently-used entry: the same recency tracking
	// as LRU, but eviction drops from the back instead of the front.
	MRU
	// FIFO evicts the first-inserted entry regardless of access pattern;
	// reads never change ordering.
	FIFO
	// Random evicts an entry picked uniformly among all live entries.
	Random
)

func (p EvictionPolicy) String() string {
	switch p {
	case LRU:
		return "LRU"
	case MRU:
		return "MRU"
	case FIFO:
		return "FIFO"
	case Random:
		return "Random"
	default:
		return "unknown"
	}
}

// ExpirationPolicy selects how (if at all) entries expire on their own.
type ExpirationPolicy int

const (
	// NoExpiration entries never expire on their own; only eviction and
	// explicit Delete/Expire remove them.
	NoExpiration ExpirationPolicy = iota
	// StaticExpiration entries carry an insertion time but are not
	// auto-expired on read; Expire(tag) removes everything tagged with
	// tag unconditionally.
	StaticExpiration
	// InstantExpiration entries carry a per-entry expiration instant
	// (insertion time + the cache's configured duration); Find refuses
	// and drops expired entries, and Expire(tag) additionally sweeps
	// entries older than the configured duration.
	InstantExpiration
)

func (p ExpirationPolicy) String() string {
	switch p {
	case NoExpiration:
		return "None"
	case StaticExpiration:
		return "Static"
	case InstantExpiration:
		return "Instant"
	default:
		return "unknown"
	}
}
