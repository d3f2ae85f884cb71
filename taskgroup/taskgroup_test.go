package taskgroup

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Krishna8167/tempusutil/xerrors"
)

func TestAllTasksCompleteAndAreCounted(t *testing.T) {
	g := New(4)
	var ran atomic.Int64
	for i := 0; i < 10; i++ {
		g.Add("ok", func(ctx context.Context) error {
			ran.Add(1)
			return nil
		})
	}

	err := g.Wait()
	require.NoError(t, err)
	assert.Equal(t, int64(10), ran.Load())
	assert.Equal(t, uint64(10), g.TasksSucceeded())
	assert.Equal(t, uint64(0), g.NumFailures())
	assert.Equal(t, 0, g.NumActiveTasks())
}

func TestAddBlocksAtParallelismLimit(t *testing.T) {
	g := New(2)
	release := make(chan struct{})
	var running atomic.Int32
	var maxObserved atomic.Int32

	// Add blocks once two tasks are running, so release them from another
	// goroutine while the loop below is waiting for a free slot.
	go func() {
		time.Sleep(20 * time.Millisecond)
		close(release)
	}()

	for i := 0; i < 6; i++ {
		g.Add("slow", func(ctx context.Context) error {
			n := running.Add(1)
			for {
				old := maxObserved.Load()
				if n <= old || maxObserved.CompareAndSwap(old, n) {
					break
				}
			}
			<-release
			running.Add(-1)
			return nil
		})
	}

	require.NoError(t, g.Wait())
	assert.LessOrEqual(t, maxObserved.Load(), int32(2))
}

func TestFailureIsRecordedAndCallbackFires(t *testing.T) {
	g := New(4)
	var errorCB []string
	var mu sync.Mutex
	g.OnTaskError(func(name string) {
		mu.Lock()
		errorCB = append(errorCB, name)
		mu.Unlock()
	})

	g.Add("boom", func(ctx context.Context) error {
		return errors.New("kaboom")
	})
	require.NoError(t, g.Wait())

	assert.Equal(t, uint64(1), g.NumFailures())
	mu.Lock()
	assert.Equal(t, []string{"boom"}, errorCB)
	mu.Unlock()

	info := g.ExceptionInfo()
	require.Len(t, info, 1)
	assert.Equal(t, "boom", info[0].Name)
	assert.ErrorIs(t, info[0].Err, xerrors.ErrTaskFailed)
}

func TestOnTaskEndedFiresForSuccess(t *testing.T) {
	g := New(4)
	var ended []string
	var mu sync.Mutex
	g.OnTaskEnded(func(name string) {
		mu.Lock()
		ended = append(ended, name)
		mu.Unlock()
	})

	g.Add("good", func(ctx context.Context) error { return nil })
	require.NoError(t, g.Wait())

	mu.Lock()
	assert.Equal(t, []string{"good"}, ended)
	mu.Unlock()
}

func TestStopOnErrorCancelsRemainingAndFails(t *testing.T) {
	g := New(4)
	prev := g.StopOnError(true)
	assert.False(t, prev)

	started := make(chan struct{})
	cancelled := make(chan struct{})
	g.Add("long-runner", func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		close(cancelled)
		return ctx.Err()
	})

	<-started
	g.Add("failer", func(ctx context.Context) error {
		return errors.New("first failure")
	})

	err := g.Wait()
	require.Error(t, err)
	assert.ErrorIs(t, err, xerrors.ErrTaskGroupFailure)

	select {
	case <-cancelled:
	case <-time.After(time.Second):
		t.Fatal("expected long-runner to be cancelled")
	}
}

func TestStopIsIdempotentAndTasksAddedAfterAreDropped(t *testing.T) {
	g := New(4)
	g.Stop()
	g.Stop() // must not panic or deadlock

	var ran atomic.Bool
	g.Add("dropped", func(ctx context.Context) error {
		ran.Store(true)
		return nil
	})
	require.NoError(t, g.Wait())
	assert.False(t, ran.Load())
	assert.Equal(t, uint64(0), g.TaskCount())
}

func TestMaxExceptionsBoundsTheFailureQueue(t *testing.T) {
	g := New(4, WithMaxExceptions(2))
	for i := 0; i < 5; i++ {
		g.Add("fail", func(ctx context.Context) error {
			return errors.New("err")
		})
	}
	require.NoError(t, g.Wait())

	info := g.ExceptionInfo()
	assert.Len(t, info, 2)
}

func TestGetAndClearExceptionInfoEmptiesQueue(t *testing.T) {
	g := New(4)
	g.Add("fail", func(ctx context.Context) error { return errors.New("err") })
	require.NoError(t, g.Wait())

	first := g.GetAndClearExceptionInfo()
	require.Len(t, first, 1)
	second := g.ExceptionInfo()
	assert.Empty(t, second)
}

func TestDumpAndClearExceptionInfoWritesAndClears(t *testing.T) {
	g := New(4)
	g.Add("fail", func(ctx context.Context) error { return errors.New("disk full") })
	require.NoError(t, g.Wait())

	var sb strings.Builder
	require.NoError(t, g.DumpAndClearExceptionInfo(&sb))
	assert.Contains(t, sb.String(), "fail")
	assert.Contains(t, sb.String(), "disk full")
	assert.Empty(t, g.ExceptionInfo())
}

func TestCancelledTaskIsNotCountedAsFailure(t *testing.T) {
	g := New(4)
	started := make(chan struct{})
	g.Add("cancel-me", func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		return ctx.Err()
	})
	<-started
	g.Stop()

	require.NoError(t, g.Wait())
	assert.Equal(t, uint64(0), g.NumFailures())
	assert.Equal(t, uint64(0), g.TasksSucceeded())
}
