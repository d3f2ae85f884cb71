package xerrors

import "errors"

// The error kinds named in the specification's error handling design.
// Components return these directly, or wrapped via Trace so the chain
// still carries a cause; callers identify a kind with errors.Is.
var (
	// ErrInvalidArgument marks constructor parameters out of range, e.g.
	// start_size > max_size.
	ErrInvalidArgument = errors.New("tempusutil: invalid argument")

	// ErrIO marks a filesystem failure while initializing the on-disk
	// cache.
	ErrIO = errors.New("tempusutil: io error")

	// ErrCacheFull marks a value too large to ever fit the configured
	// capacity.
	ErrCacheFull = errors.New("tempusutil: cache full")

	// ErrPoolTimeout marks a bounded acquire that elapsed without
	// obtaining an item.
	ErrPoolTimeout = errors.New("tempusutil: pool acquire timed out")

	// ErrPoolShutdown marks an acquire attempted after the pool was shut
	// down.
	ErrPoolShutdown = errors.New("tempusutil: pool is shut down")

	// ErrTaskFailed marks a task whose work function returned an error.
	// The task's captured failure is a Trace node carrying that error's
	// message, with this sentinel as its cause; the work function's error
	// value itself (and its type) is not part of the chain.
	ErrTaskFailed = errors.New("tempusutil: task failed")

	// ErrTaskGroupFailure marks a task group wait() that observed at
	// least one task failure with stop-on-error enabled.
	ErrTaskGroupFailure = errors.New("tempusutil: one or more tasks in the group failed")

	// ErrInterrupted marks cooperative cancellation having been observed.
	ErrInterrupted = errors.New("tempusutil: interrupted")
)

// Is reports whether err (or any error in its chain, including an
// *Exception chain walked via Unwrap) matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}
