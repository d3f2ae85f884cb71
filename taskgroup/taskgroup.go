/*
Package taskgroup implements the specification's bounded-parallelism
task group (component C7): a collection of async tasks capped at
max_parallel_tasks concurrent runs, with completion callbacks and
optional stop-on-error.

Grounded on the original implementation's AsyncTaskGroup
(AsyncTaskGroup.h/.cpp): the active/completed bookkeeping keyed by a
monotonically increasing id, the wait_some drain loop, the bounded
exception-info queue, and stop_on_error's "cancel the rest, raise after
the batch finishes draining" behavior all follow that algorithm. Where
the original blocks add() in a hand-rolled wait_some loop to cap
parallelism, this package uses golang.org/x/sync/semaphore.Weighted,
released from each task's completion callback — the direct Go idiom for
"block until a slot under a concurrency limit is free".
*/
package taskgroup

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"

	"github.com/Krishna8167/tempusutil/asynctask"
	"github.com/Krishna8167/tempusutil/internal/xlog"
	"github.com/Krishna8167/tempusutil/xerrors"
)

// DefaultMaxParallelTasks is the specification's default parallelism
// limit when none is configured.
const DefaultMaxParallelTasks = 30

// DefaultMaxExceptions bounds the failure queue's length by default.
const DefaultMaxExceptions = 100

// FailureRecord pairs a failed task's name with its captured failure.
type FailureRecord struct {
	Name string
	Err  error
}

type completedEntry struct {
	id   uint64
	name string
	task *asynctask.Task
}

// Option configures a Group at construction time.
type Option func(*Group)

// WithMaxExceptions overrides DefaultMaxExceptions, the specification's
// tunable MAX_EXCEPTIONS constant (§9 open question).
func WithMaxExceptions(n int) Option {
	return func(g *Group) { g.maxExceptions = n }
}

// Group coordinates async tasks under a parallelism limit. Zero value is
// not usable; construct with New.
type Group struct {
	sem           *semaphore.Weighted
	maxExceptions int
	log           zerolog.Logger

	mu            sync.Mutex
	cond          *sync.Cond
	counter       uint64
	active        map[uint64]*asynctask.Task
	completed     []completedEntry
	succeeded     uint64
	failed        uint64
	exceptionInfo []FailureRecord
	stopRequested bool
	stopOnError   bool

	onEnded []func(name string)
	onError []func(name string)
}

// New constructs a Group allowing up to maxParallel concurrently
// running tasks (the specification default is 30; pass <= 0 to use it).
func New(maxParallel int64, opts ...Option) *Group {
	if maxParallel <= 0 {
		maxParallel = DefaultMaxParallelTasks
	}
	g := &Group{
		sem:           semaphore.NewWeighted(maxParallel),
		maxExceptions: DefaultMaxExceptions,
		active:        make(map[uint64]*asynctask.Task),
		log:           xlog.Component("taskgroup"),
	}
	g.cond = sync.NewCond(&g.mu)
	for _, opt := range opts {
		opt(g)
	}
	g.log.Info().Int64("max_parallel_tasks", maxParallel).Int("max_exceptions", g.maxExceptions).Msg("task group ready")
	return g
}

/*
Add registers a new task under name, running work. An empty name is
replaced with a generated uuid. If the group is already at its
parallelism limit, Add blocks until a slot frees. Tasks added after Stop
are silently dropped, matching the original's behavior under a
concurrent Add/Stop race.
*/
func (g *Group) Add(name string, work asynctask.Work) {
	if name == "" {
		name = uuid.NewString()
	}

	if err := g.sem.Acquire(context.Background(), 1); err != nil {
		return
	}

	g.mu.Lock()
	if g.stopRequested {
		g.mu.Unlock()
		g.sem.Release(1)
		return
	}
	g.counter++
	id := g.counter
	task := asynctask.New(name, work)
	g.active[id] = task
	g.mu.Unlock()

	go func() {
		task.Wait() // swallow here; Wait on the group inspects Status itself
		g.onTaskCompleted(id, name, task)
	}()
}

func (g *Group) onTaskCompleted(id uint64, name string, task *asynctask.Task) {
	g.mu.Lock()
	delete(g.active, id)
	g.completed = append(g.completed, completedEntry{id: id, name: name, task: task})
	g.mu.Unlock()

	g.sem.Release(1)

	g.mu.Lock()
	g.cond.Broadcast()
	g.mu.Unlock()
}

/*
Wait blocks until every registered task has completed and dispatches
on_task_ended/on_task_error for each. If StopOnError is enabled and any
task fails, the remaining active tasks are cancelled and, once the whole
batch has finished draining, Wait returns an ErrTaskGroupFailure error
naming the first such failed task. That task's own failure is not in the
returned chain; it is recorded in ExceptionInfo.
*/
func (g *Group) Wait() error {
	var groupErr error
	for {
		more, err := g.waitSome()
		if err != nil && groupErr == nil {
			groupErr = err
		}
		if !more {
			break
		}
	}
	return groupErr
}

// waitSome drains exactly one completed task (blocking until either the
// active set is empty or a completed task is available), dispatches its
// callback, and reports whether there is more work to drain.
func (g *Group) waitSome() (more bool, err error) {
	g.mu.Lock()
	for len(g.active) > 0 && len(g.completed) == 0 {
		g.cond.Wait()
	}
	if len(g.active) == 0 && len(g.completed) == 0 {
		g.mu.Unlock()
		return false, nil
	}
	entry := g.completed[0]
	g.completed = g.completed[1:]
	stopOnError := g.stopOnError
	g.mu.Unlock()

	failed := false
	var failure error
	switch entry.task.Status() {
	case asynctask.Ok:
		g.mu.Lock()
		g.succeeded++
		g.mu.Unlock()
		g.dispatchEnded(entry.name)
	case asynctask.Failed:
		failed = true
		failure = entry.task.Wait()
		g.mu.Lock()
		g.failed++
		g.exceptionInfo = append(g.exceptionInfo, FailureRecord{Name: entry.name, Err: failure})
		if len(g.exceptionInfo) > g.maxExceptions {
			g.exceptionInfo = g.exceptionInfo[len(g.exceptionInfo)-g.maxExceptions:]
		}
		g.mu.Unlock()
		g.dispatchError(entry.name)
	case asynctask.Interrupted:
		// Cancelled tasks are neither a success nor a counted failure.
	}

	if stopOnError && failed {
		g.Stop()
		return true, xerrors.Trace(
			fmt.Sprintf("taskgroup: task %q failed, stopping remaining tasks", entry.name),
			xerrors.ErrTaskGroupFailure,
		)
	}
	return true, nil
}

func (g *Group) dispatchEnded(name string) {
	g.mu.Lock()
	callbacks := append([]func(string){}, g.onEnded...)
	g.mu.Unlock()
	for _, cb := range callbacks {
		cb(name)
	}
}

func (g *Group) dispatchError(name string) {
	g.mu.Lock()
	callbacks := append([]func(string){}, g.onError...)
	g.mu.Unlock()
	for _, cb := range callbacks {
		cb(name)
	}
}

// Stop requests cancellation of every currently active task. Idempotent:
// calling it more than once, or while Wait is in progress, is safe and
// cannot deadlock, since it only ever briefly holds the group lock.
func (g *Group) Stop() {
	g.mu.Lock()
	if g.stopRequested {
		g.mu.Unlock()
		return
	}
	g.stopRequested = true
	tasks := make([]*asynctask.Task, 0, len(g.active))
	for _, task := range g.active {
		tasks = append(tasks, task)
	}
	g.mu.Unlock()

	g.log.Debug().Int("cancelling", len(tasks)).Msg("task group stop requested")
	for _, task := range tasks {
		task.Cancel()
	}
}

// OnTaskEnded registers a callback invoked during Wait for each task that
// completed successfully.
func (g *Group) OnTaskEnded(cb func(name string)) {
	g.mu.Lock()
	g.onEnded = append(g.onEnded, cb)
	g.mu.Unlock()
}

// OnTaskError registers a callback invoked during Wait for each task
// that failed.
func (g *Group) OnTaskError(cb func(name string)) {
	g.mu.Lock()
	g.onError = append(g.onError, cb)
	g.mu.Unlock()
}

// StopOnError enables or disables stop-on-first-failure and returns the
// previous setting.
func (g *Group) StopOnError(enable bool) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	prev := g.stopOnError
	g.stopOnError = enable
	return prev
}

// TaskCount returns the total number of tasks ever added.
func (g *Group) TaskCount() uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.counter
}

// TasksSucceeded returns the number of tasks that ended with Ok.
func (g *Group) TasksSucceeded() uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.succeeded
}

// NumFailures returns the number of tasks that ended with Failed.
func (g *Group) NumFailures() uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.failed
}

// NumActiveTasks returns the number of tasks currently running.
func (g *Group) NumActiveTasks() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.active)
}

// ExceptionInfo returns a snapshot of the bounded failure queue.
func (g *Group) ExceptionInfo() []FailureRecord {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]FailureRecord, len(g.exceptionInfo))
	copy(out, g.exceptionInfo)
	return out
}

// GetAndClearExceptionInfo returns the bounded failure queue and empties
// it atomically.
func (g *Group) GetAndClearExceptionInfo() []FailureRecord {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := g.exceptionInfo
	g.exceptionInfo = nil
	return out
}

// DumpAndClearExceptionInfo writes and clears the bounded failure queue,
// the supplemented equivalent of dump_and_clear_exception_info.
func (g *Group) DumpAndClearExceptionInfo(w io.Writer) error {
	for _, rec := range g.GetAndClearExceptionInfo() {
		if _, err := fmt.Fprintf(w, "taskgroup: task %q failed: %v\n", rec.Name, rec.Err); err != nil {
			return err
		}
	}
	return nil
}
