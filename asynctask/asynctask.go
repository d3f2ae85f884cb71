/*
Package asynctask implements the specification's cancellable asynchronous
task (component C6): a named unit of work running on its own goroutine,
carrying a terminal status and a captured failure.

Grounded on the original implementation's AsyncTask (AsyncTask.h/.cpp):
the NotStarted/Active/Ok/Failed/Interrupted state machine, the
wait/wait_for/cancel/get_status contract, and the "notification happens
after the terminal state is written" ordering guarantee all follow that
design. Cooperative cancellation is expressed with context.Context
instead of a thread-local interruption flag, per design note §9's
"use the language's native cancellation token mechanism."
*/
package asynctask

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/Krishna8167/tempusutil/internal/xlog"
	"github.com/Krishna8167/tempusutil/xerrors"
)

// Status is one of the task's possible states.
type Status int32

const (
	NotStarted Status = iota
	Active
	Ok
	Failed
	Interrupted
)

func (s Status) String() string {
	switch s {
	case NotStarted:
		return "NotStarted"
	case Active:
		return "Active"
	case Ok:
		return "Ok"
	case Failed:
		return "Failed"
	case Interrupted:
		return "Interrupted"
	default:
		return "Unknown"
	}
}

// Work is the closure a Task runs. It must observe ctx.Done() at its own
// chosen interruption points to support cooperative cancellation.
type Work func(ctx context.Context) error

// Task is a single cancellable unit of work running on its own
// goroutine. Construct with New or NewNotify; a Task starts running
// immediately.
type Task struct {
	name   string
	status atomic.Int32
	done   chan struct{}

	mu      sync.Mutex
	failure error

	cancel context.CancelFunc
	notify chan struct{}
	log    zerolog.Logger
}

// New starts work immediately under name, with no external notification
// channel.
func New(name string, work Work) *Task {
	return NewNotify(name, work, nil)
}

/*
NewNotify is New but also signals notify (if non-nil, by a non-blocking
send) once the task reaches a terminal state, strictly after the status
and captured failure are visible to other goroutines — the Go reading of
the original's "optional condition variable passed at construction".
*/
func NewNotify(name string, work Work, notify chan struct{}) *Task {
	ctx, cancel := context.WithCancel(context.Background())
	t := &Task{
		name:   name,
		done:   make(chan struct{}),
		cancel: cancel,
		notify: notify,
		log:    xlog.Component("asynctask"),
	}
	t.status.Store(int32(NotStarted))

	runtime.SetFinalizer(t, func(t *Task) {
		// Best-effort mirror of the original's destructor: if the work
		// is somehow still running when this Task is collected, drain it
		// and swallow any failure rather than letting it escape. Unlike
		// a real destructor this is not guaranteed to run promptly; callers
		// that care about failure handling should call Wait explicitly.
		if !t.Ended() {
			if err := t.Wait(); err != nil {
				t.log.Warn().Err(err).Str("task", t.name).Msg("task failure swallowed at finalization")
			}
		}
	})

	go t.run(ctx, work)
	return t
}

func (t *Task) run(ctx context.Context, work Work) {
	t.status.Store(int32(Active))

	err := work(ctx)

	var final Status
	switch {
	case err == nil:
		final = Ok
	case ctx.Err() != nil:
		final = Interrupted
	default:
		final = Failed
	}

	if final == Failed {
		t.mu.Lock()
		t.failure = xerrors.Trace(err.Error(), xerrors.ErrTaskFailed).
			AddParameter("task", t.name)
		t.mu.Unlock()
	}

	t.status.Store(int32(final))
	close(t.done) // happens-after the status/failure writes above

	if t.notify != nil {
		select {
		case t.notify <- struct{}{}:
		default:
		}
	}
}

// Wait blocks until the task is done. If the task failed, the captured
// failure is returned.
func (t *Task) Wait() error {
	<-t.done
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.failure
}

// WaitFor blocks up to timeout. ok is true iff the task ended within
// that window; when it did and the task failed, err carries the
// captured failure.
func (t *Task) WaitFor(timeout time.Duration) (ok bool, err error) {
	select {
	case <-t.done:
		t.mu.Lock()
		defer t.mu.Unlock()
		return true, t.failure
	case <-time.After(timeout):
		return false, nil
	}
}

// Cancel requests cooperative cancellation. It takes effect only when
// the work closure itself observes ctx.Done().
func (t *Task) Cancel() {
	t.cancel()
}

// Status returns the task's current status.
func (t *Task) Status() Status {
	return Status(t.status.Load())
}

// Ended reports whether the task has reached a terminal state.
func (t *Task) Ended() bool {
	s := t.Status()
	return s == Ok || s == Failed || s == Interrupted
}

// Name returns the task's name.
func (t *Task) Name() string {
	return t.name
}
