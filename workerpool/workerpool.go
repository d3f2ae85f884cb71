/*
Package workerpool implements the specification's worker-pool variant of
the object pool (component C5): the same free-chain-and-condition-
variable design as package pool, but items shrink back out on release
once demand recedes, and the pool supports cooperative cancellation and
an irrevocable shutdown.

Grounded on the same original Pool.h algorithm as package pool for the
acquire/release/grow mechanics, generalized per specification §4.5 for
the shrink-on-release rule, the {cancel} capability requirement, and
shutdown().
*/
package workerpool

import (
	"strconv"
	"sync"

	"github.com/rs/zerolog"

	"github.com/Krishna8167/tempusutil/internal/xlog"
	"github.com/Krishna8167/tempusutil/xerrors"
)

// Cancelable is the capability set worker-pool items must provide: the
// specification's "{cancel}" requirement for the pool's cancel() call.
type Cancelable interface {
	Cancel()
}

// Factory constructs one pool item, run without the pool lock held.
type Factory[T Cancelable] func() (T, error)

type itemRec[T Cancelable] struct {
	data T
	next *itemRec[T]
}

// Pool is a thread-safe worker pool of items of type T, which must
// implement Cancelable. Zero value is not usable; construct with New.
type Pool[T Cancelable] struct {
	mu   sync.Mutex
	cond *sync.Cond

	initialSize int
	maxSize     int
	shrinkStep  int
	factory     Factory[T]

	currentSize  int
	maxReachedSz int
	inUse        int
	shutdown     bool
	log          zerolog.Logger

	top   *itemRec[T]
	items map[*itemRec[T]]struct{}
}

// New constructs a Pool with initialSize starting items (≥ 2), a growth
// ceiling of maxSize (≥ initialSize), and a shrinkStep controlling how
// aggressively the pool gives items back up on release (≥ 1).
func New[T Cancelable](initialSize, maxSize, shrinkStep int, factory Factory[T]) (*Pool[T], error) {
	if initialSize < 2 {
		return nil, xerrors.Trace("workerpool: initial size must be at least 2", xerrors.ErrInvalidArgument).
			AddParameter("initial_size", strconv.Itoa(initialSize))
	}
	if maxSize < initialSize {
		return nil, xerrors.Trace("workerpool: max size must be >= initial size", xerrors.ErrInvalidArgument).
			AddParameter("initial_size", strconv.Itoa(initialSize)).
			AddParameter("max_size", strconv.Itoa(maxSize))
	}
	if shrinkStep < 1 {
		shrinkStep = 1
	}

	p := &Pool[T]{
		initialSize: initialSize,
		maxSize:     maxSize,
		shrinkStep:  shrinkStep,
		factory:     factory,
		items:       make(map[*itemRec[T]]struct{}),
		log:         xlog.Component("workerpool"),
	}
	p.cond = sync.NewCond(&p.mu)

	for i := 0; i < initialSize; i++ {
		if err := p.grow(); err != nil {
			return nil, xerrors.Trace("workerpool: initialization failed", err)
		}
	}
	p.log.Info().Int("initial_size", initialSize).Int("max_size", maxSize).Msg("worker pool ready")
	return p, nil
}

func (p *Pool[T]) grow() error {
	obj, err := p.factory()
	if err != nil {
		return err
	}
	p.mu.Lock()
	rec := &itemRec[T]{data: obj}
	p.items[rec] = struct{}{}
	rec.next = p.top
	p.top = rec
	p.currentSize++
	if p.currentSize > p.maxReachedSz {
		p.maxReachedSz = p.currentSize
	}
	p.mu.Unlock()
	return nil
}

// Get borrows an item, blocking indefinitely if none is free and the
// pool is at max size. Fails with ErrPoolShutdown after Shutdown.
func (p *Pool[T]) Get() (*Handle[T], error) {
	p.mu.Lock()

	if p.shutdown {
		p.mu.Unlock()
		return nil, xerrors.Trace("workerpool: reserve after shutdown", xerrors.ErrPoolShutdown)
	}

	if p.top != nil {
		rec := p.fetchTop()
		p.mu.Unlock()
		return &Handle[T]{pool: p, rec: rec}, nil
	}

	if p.currentSize < p.maxSize {
		p.currentSize++
		if p.currentSize > p.maxReachedSz {
			p.maxReachedSz = p.currentSize
		}
		p.mu.Unlock()

		obj, err := p.factory()
		if err != nil {
			p.mu.Lock()
			p.currentSize--
			p.mu.Unlock()
			return nil, xerrors.Trace("workerpool: on-demand item construction failed", err)
		}

		p.mu.Lock()
		rec := &itemRec[T]{data: obj}
		p.items[rec] = struct{}{}
		rec.next = p.top
		p.top = rec
		rec = p.fetchTop()
		p.mu.Unlock()
		return &Handle[T]{pool: p, rec: rec}, nil
	}

	for p.top == nil && !p.shutdown {
		p.cond.Wait()
	}
	if p.shutdown {
		p.mu.Unlock()
		return nil, xerrors.Trace("workerpool: reserve after shutdown", xerrors.ErrPoolShutdown)
	}
	rec := p.fetchTop()
	p.mu.Unlock()
	return &Handle[T]{pool: p, rec: rec}, nil
}

func (p *Pool[T]) fetchTop() *itemRec[T] {
	rec := p.top
	p.top = rec.next
	rec.next = nil
	p.inUse++
	return rec
}

/*
release returns rec to the pool, or destroys it instead per the
specification's shrink rule: once the pool has grown past initialSize,
if (in_use + shrink_step) >= current_size releasing this item would leave
the pool oversupplied relative to recent demand, so it is destroyed
rather than returned to the free chain.
*/
func (p *Pool[T]) release(rec *itemRec[T]) {
	p.mu.Lock()
	p.inUse--

	if p.currentSize > p.initialSize && (p.inUse+p.shrinkStep) >= p.currentSize {
		delete(p.items, rec)
		p.currentSize--
		p.mu.Unlock()
		rec.data.Cancel()
		return
	}

	rec.next = p.top
	p.top = rec
	p.mu.Unlock()
	p.cond.Signal()
}

// Cancel invokes Cancel on every live item, in or out of use.
func (p *Pool[T]) Cancel() {
	p.mu.Lock()
	items := make([]T, 0, len(p.items))
	for rec := range p.items {
		items = append(items, rec.data)
	}
	p.mu.Unlock()

	for _, item := range items {
		item.Cancel()
	}
}

// Shutdown marks the pool as refusing further Get calls; any goroutines
// already blocked in Get wake and fail with ErrPoolShutdown. In-flight
// borrows are unaffected.
func (p *Pool[T]) Shutdown() {
	p.mu.Lock()
	p.shutdown = true
	p.mu.Unlock()
	p.cond.Broadcast()
}

// Size returns the number of items currently live (free or borrowed).
func (p *Pool[T]) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.currentSize
}

// InUse returns the number of items currently borrowed.
func (p *Pool[T]) InUse() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.inUse
}

// MaxReachedSize returns the largest currentSize this pool has ever
// reached, the supplemented equivalent of get_max_reached_pool_size.
func (p *Pool[T]) MaxReachedSize() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.maxReachedSz
}
