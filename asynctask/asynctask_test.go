package asynctask

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Krishna8167/tempusutil/xerrors"
)

func TestTaskCompletesOk(t *testing.T) {
	task := New("ok-task", func(ctx context.Context) error {
		return nil
	})

	err := task.Wait()
	require.NoError(t, err)
	assert.Equal(t, Ok, task.Status())
	assert.True(t, task.Ended())
	assert.Equal(t, "ok-task", task.Name())
}

func TestTaskCapturesFailure(t *testing.T) {
	task := New("fail-task", func(ctx context.Context) error {
		return errors.New("boom")
	})

	err := task.Wait()
	require.Error(t, err)
	assert.ErrorIs(t, err, xerrors.ErrTaskFailed)
	assert.Equal(t, Failed, task.Status())
}

func TestTaskCancelYieldsInterrupted(t *testing.T) {
	started := make(chan struct{})
	task := New("cancel-task", func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		return ctx.Err()
	})

	<-started
	task.Cancel()

	err := task.Wait()
	assert.NoError(t, err)
	assert.Equal(t, Interrupted, task.Status())
}

func TestWaitForTimesOutWhileActive(t *testing.T) {
	release := make(chan struct{})
	task := New("slow-task", func(ctx context.Context) error {
		<-release
		return nil
	})
	defer close(release)

	ok, err := task.WaitFor(10 * time.Millisecond)
	assert.False(t, ok)
	assert.NoError(t, err)
}

func TestWaitForReturnsTrueOnceDone(t *testing.T) {
	task := New("fast-task", func(ctx context.Context) error {
		return nil
	})

	ok, err := task.WaitFor(time.Second)
	assert.True(t, ok)
	assert.NoError(t, err)
}

func TestStatusIsTerminalAfterWait(t *testing.T) {
	task := New("terminal-task", func(ctx context.Context) error {
		return nil
	})
	task.Wait()

	first := task.Status()
	second := task.Status()
	assert.Equal(t, first, second)
	assert.Equal(t, Ok, first)
}
