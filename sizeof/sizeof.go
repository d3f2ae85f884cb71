// Package sizeof provides the size-accounting seam described in the
// specification's design notes: caches can account capacity either by
// entry count or by a user-supplied size function. It is expressed as a
// function type per value type, with a default "count-based"
// implementation so pluggability is opt-in.
package sizeof

// Func computes the accounted size of a stored value. The default
// behavior (Count) returns 1 for every value, i.e. count-based
// accounting: capacity is then simply "number of entries".
type Func[V any] func(v V) int

// Count is the default Func implementation: every value counts as one
// unit, so capacity means entry count.
func Count[V any](V) int { return 1 }
