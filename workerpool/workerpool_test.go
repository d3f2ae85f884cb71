package workerpool

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Krishna8167/tempusutil/xerrors"
)

type worker struct {
	id        int
	cancelled atomic.Bool
}

func (w *worker) Cancel() { w.cancelled.Store(true) }

func newWorkerFactory() (Factory[*worker], *atomic.Int64) {
	var n atomic.Int64
	return func() (*worker, error) {
		return &worker{id: int(n.Add(1))}, nil
	}, &n
}

func TestWorkerPoolShrinksOnRelease(t *testing.T) {
	factory, created := newWorkerFactory()
	p, err := New(2, 5, 1, factory)
	require.NoError(t, err)
	assert.Equal(t, int64(2), created.Load())

	var handles []*Handle[*worker]
	for i := 0; i < 5; i++ {
		h, err := p.Get()
		require.NoError(t, err)
		handles = append(handles, h)
	}
	assert.Equal(t, 5, p.Size())

	// Releasing all 5 should shrink back toward initialSize (2), with
	// shrink_step=1: each release while (in_use+1) >= current_size
	// destroys the item instead of freeing it.
	for _, h := range handles {
		require.NoError(t, h.Close())
	}

	assert.Equal(t, 2, p.Size())
}

func TestWorkerPoolCancelReachesAllItems(t *testing.T) {
	factory, _ := newWorkerFactory()
	p, err := New(2, 4, 1, factory)
	require.NoError(t, err)

	h, err := p.Get()
	require.NoError(t, err)

	p.Cancel()

	assert.True(t, h.Value().cancelled.Load())
}

func TestWorkerPoolShutdownRejectsReserve(t *testing.T) {
	factory, _ := newWorkerFactory()
	p, err := New(2, 4, 1, factory)
	require.NoError(t, err)

	p.Shutdown()

	_, err = p.Get()
	require.Error(t, err)
	assert.ErrorIs(t, err, xerrors.ErrPoolShutdown)
}

func TestWorkerPoolMaxReachedSize(t *testing.T) {
	factory, _ := newWorkerFactory()
	p, err := New(2, 5, 1, factory)
	require.NoError(t, err)

	var handles []*Handle[*worker]
	for i := 0; i < 4; i++ {
		h, err := p.Get()
		require.NoError(t, err)
		handles = append(handles, h)
	}
	assert.Equal(t, 4, p.MaxReachedSize())

	for _, h := range handles {
		h.Close()
	}
	assert.Equal(t, 4, p.MaxReachedSize(), "shrinking back down must not lower the high-water mark")
}
