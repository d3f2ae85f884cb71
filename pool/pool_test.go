package pool

import (
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Krishna8167/tempusutil/xerrors"
)

type testObj struct {
	id       int
	borrowed atomic.Bool
}

func counterFactory() (func() (*testObj, error), *atomic.Int64) {
	var n atomic.Int64
	return func() (*testObj, error) {
		id := int(n.Add(1))
		return &testObj{id: id}, nil
	}, &n
}

func TestNewValidatesArguments(t *testing.T) {
	factory, _ := counterFactory()

	_, err := New(1, 5, factory)
	require.Error(t, err)
	assert.ErrorIs(t, err, xerrors.ErrInvalidArgument)

	_, err = New(5, 3, factory)
	require.Error(t, err)
	assert.ErrorIs(t, err, xerrors.ErrInvalidArgument)
}

func TestGetAndReleaseRoundTrip(t *testing.T) {
	factory, created := counterFactory()
	p, err := New(2, 4, factory)
	require.NoError(t, err)
	assert.Equal(t, int64(2), created.Load())

	h, err := p.Get()
	require.NoError(t, err)
	assert.Equal(t, 1, p.InUse())

	require.NoError(t, h.Close())
	assert.Equal(t, 0, p.InUse())
}

func TestPoolGrowsUpToMaxSize(t *testing.T) {
	factory, created := counterFactory()
	p, err := New(2, 3, factory)
	require.NoError(t, err)

	var handles []*Handle[*testObj]
	for i := 0; i < 3; i++ {
		h, err := p.Get()
		require.NoError(t, err)
		handles = append(handles, h)
	}
	assert.Equal(t, int64(3), created.Load())
	assert.Equal(t, 3, p.Size())

	for _, h := range handles {
		require.NoError(t, h.Close())
	}
}

func TestGetTimeoutReturnsPoolTimeout(t *testing.T) {
	factory, _ := counterFactory()
	p, err := New(2, 2, factory)
	require.NoError(t, err)

	h1, _ := p.Get()
	h2, _ := p.Get()
	defer h1.Close()
	defer h2.Close()

	_, err = p.GetTimeout(10 * time.Millisecond)
	require.Error(t, err)
	assert.ErrorIs(t, err, xerrors.ErrPoolTimeout)
}

func TestGetBlocksUntilRelease(t *testing.T) {
	factory, _ := counterFactory()
	p, err := New(2, 2, factory)
	require.NoError(t, err)

	h1, _ := p.Get()
	h2, _ := p.Get()

	done := make(chan struct{})
	go func() {
		h3, err := p.Get()
		assert.NoError(t, err)
		h3.Close()
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	h1.Close()
	h2.Close()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("blocked Get never unblocked after release")
	}
}

func TestCloseRejectsFurtherAcquires(t *testing.T) {
	factory, _ := counterFactory()
	p, err := New(2, 2, factory)
	require.NoError(t, err)
	p.Close(time.Second)

	_, err = p.Get()
	require.Error(t, err)
	assert.ErrorIs(t, err, xerrors.ErrPoolShutdown)
}

func TestExclusivityUnderConcurrentStress(t *testing.T) {
	// Specification §8 concrete scenario 5, scaled down for test speed.
	factory, _ := counterFactory()
	p, err := New(5, 10, factory)
	require.NoError(t, err)

	var inUseCounter atomic.Int32
	var violations atomic.Int32
	var wg sync.WaitGroup

	for g := 0; g < 20; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 20; i++ {
				h, err := p.Get()
				if err != nil {
					assert.NoError(t, err)
					continue
				}
				if !h.Value().borrowed.CompareAndSwap(false, true) {
					violations.Add(1) // same item handed to two borrowers
				}
				if inUseCounter.Add(1) > int32(p.maxSize) {
					violations.Add(1)
				}
				time.Sleep(time.Millisecond)
				inUseCounter.Add(-1)
				h.Value().borrowed.Store(false)
				h.Close()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(0), violations.Load())
	assert.LessOrEqual(t, p.Size(), p.maxSize)
}

func TestParallelInitBuildsStartSize(t *testing.T) {
	factory, created := counterFactory()
	p, err := New(4, 8, factory, WithInitMode[*testObj](Parallel))
	require.NoError(t, err)
	assert.Equal(t, int64(4), created.Load())
	assert.Equal(t, 4, p.Size())
}

func TestDumpInfoReportsCounts(t *testing.T) {
	factory, _ := counterFactory()
	p, err := New(2, 2, factory)
	require.NoError(t, err)
	h, _ := p.Get()
	defer h.Close()

	var sb strings.Builder
	require.NoError(t, p.DumpInfo(&sb))
	assert.Contains(t, sb.String(), "total item(s)")
	assert.Contains(t, sb.String(), "1 in use")
}
