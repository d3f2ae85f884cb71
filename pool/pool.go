/*
Package pool implements the specification's bounded object pool
(component C4): a thread-safe pool of reusable items with scoped-borrow
semantics, blocking acquire with optional timeout, and bounded growth.

Grounded directly on the original implementation's Pool<InitType, ItemType,
Args...> (Pool.h): the free-chain-of-stable-records design, the
reserve-then-release-the-lock protocol for item construction, and the
condition-variable-guarded acquire/release pair all follow that algorithm.
Go has no built-in condition variable with a timeout, so a blocked
GetTimeout wakes its sync.Cond via a time.AfterFunc the way the std
recipe for "cond.Wait with a deadline" does; this is the Go-native
reading of design note §9's "use the language's native cancellation
token mechanism or build one."
*/
package pool

import (
	"fmt"
	"io"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/Krishna8167/tempusutil/internal/xlog"
	"github.com/Krishna8167/tempusutil/xerrors"
)

// InitMode selects how the pool's starting items are built.
type InitMode int

const (
	// Sequential builds start-size items one after another on the
	// constructing goroutine.
	Sequential InitMode = iota
	// Parallel builds them concurrently via an errgroup, one goroutine
	// per item, reporting the first error and failing construction if
	// any builder returned one.
	Parallel
)

// Factory constructs one pool item. It must not access the pool itself
// and runs without any pool lock held.
type Factory[T any] func() (T, error)

// Option configures a Pool at construction time.
type Option[T any] func(*Pool[T])

// WithInitMode selects Sequential (default) or Parallel start-up.
func WithInitMode[T any](mode InitMode) Option[T] {
	return func(p *Pool[T]) { p.initMode = mode }
}

// itemRec is one stable pool slot. Once allocated its address never
// changes, so a Handle referencing it stays valid across pool growth —
// only the free-chain's next pointers and the owning slice are mutated.
type itemRec[T any] struct {
	data T
	next *itemRec[T]
}

// Pool is a thread-safe, bounded pool of reusable items of type T. Zero
// value is not usable; construct with New.
type Pool[T any] struct {
	mu   sync.Mutex
	cond *sync.Cond

	startSize int
	maxSize   int
	initMode  InitMode
	factory   Factory[T]

	currentSize int
	inUse       int
	closed      bool
	log         zerolog.Logger

	top   *itemRec[T]
	items []*itemRec[T]
}

/*
New constructs a Pool with startSize initial items (≥ 2) and a growth
ceiling of maxSize (≥ startSize), built via factory.

Per the specification's §4.4 construction algorithm: Sequential mode
builds items one by one; Parallel mode builds them concurrently and
returns the first builder error, failing construction entirely if any
builder failed.
*/
func New[T any](startSize, maxSize int, factory Factory[T], opts ...Option[T]) (*Pool[T], error) {
	if startSize < 2 {
		return nil, xerrors.Trace("pool: start size must be at least 2", xerrors.ErrInvalidArgument).
			AddParameter("start_size", strconv.Itoa(startSize))
	}
	if maxSize < startSize {
		return nil, xerrors.Trace("pool: max size must be >= start size", xerrors.ErrInvalidArgument).
			AddParameter("start_size", strconv.Itoa(startSize)).
			AddParameter("max_size", strconv.Itoa(maxSize))
	}

	p := &Pool[T]{
		startSize: startSize,
		maxSize:   maxSize,
		factory:   factory,
		log:       xlog.Component("pool"),
	}
	p.cond = sync.NewCond(&p.mu)
	for _, opt := range opts {
		opt(p)
	}

	if err := p.init(); err != nil {
		return nil, err
	}
	p.log.Info().Int("start_size", startSize).Int("max_size", maxSize).Msg("pool ready")
	return p, nil
}

func (p *Pool[T]) init() error {
	switch p.initMode {
	case Parallel:
		return p.initParallel()
	default:
		return p.initSequential()
	}
}

func (p *Pool[T]) initSequential() error {
	for i := 0; i < p.startSize; i++ {
		if err := p.grow(); err != nil {
			return xerrors.Trace("pool: sequential initialization failed", err)
		}
	}
	return nil
}

func (p *Pool[T]) initParallel() error {
	var g errgroup.Group
	for i := 0; i < p.startSize; i++ {
		g.Go(p.grow)
	}
	if err := g.Wait(); err != nil {
		return xerrors.Trace("pool: parallel initialization failed", err)
	}
	return nil
}

// grow builds one new item via the factory (outside the lock, since
// construction may be slow) and links it at the top of the free chain.
func (p *Pool[T]) grow() error {
	obj, err := p.factory()
	if err != nil {
		return err
	}
	p.mu.Lock()
	rec := &itemRec[T]{data: obj}
	p.items = append(p.items, rec)
	rec.next = p.top
	p.top = rec
	p.currentSize++
	p.mu.Unlock()
	return nil
}

// Get borrows an item, blocking indefinitely if none is free and the
// pool is already at max size.
func (p *Pool[T]) Get() (*Handle[T], error) {
	return p.acquire(false, 0)
}

// GetTimeout borrows an item, blocking up to timeout. Returns
// ErrPoolTimeout if it elapses first.
func (p *Pool[T]) GetTimeout(timeout time.Duration) (*Handle[T], error) {
	return p.acquire(true, timeout)
}

func (p *Pool[T]) acquire(hasTimeout bool, timeout time.Duration) (*Handle[T], error) {
	p.mu.Lock()

	if p.closed {
		p.mu.Unlock()
		return nil, xerrors.Trace("pool: acquire after shutdown", xerrors.ErrPoolShutdown)
	}

	if p.top != nil {
		rec := p.fetchTop()
		p.mu.Unlock()
		return &Handle[T]{pool: p, rec: rec}, nil
	}

	if p.currentSize < p.maxSize {
		p.currentSize++
		p.mu.Unlock()

		obj, err := p.factory()
		if err != nil {
			p.mu.Lock()
			p.currentSize--
			p.mu.Unlock()
			return nil, xerrors.Trace("pool: on-demand item construction failed", err)
		}

		p.mu.Lock()
		rec := &itemRec[T]{data: obj}
		p.items = append(p.items, rec)
		rec.next = p.top
		p.top = rec
		rec = p.fetchTop()
		p.mu.Unlock()
		return &Handle[T]{pool: p, rec: rec}, nil
	}

	deadline := time.Now().Add(timeout)
	for p.top == nil && !p.closed {
		if !hasTimeout {
			p.cond.Wait()
			continue
		}
		remaining := time.Until(deadline)
		if remaining <= 0 {
			p.mu.Unlock()
			return nil, xerrors.Trace("pool: timed out waiting for an item", xerrors.ErrPoolTimeout).
				AddParameter("timeout", timeout.String())
		}
		timer := time.AfterFunc(remaining, func() {
			p.mu.Lock()
			p.cond.Broadcast()
			p.mu.Unlock()
		})
		p.cond.Wait()
		timer.Stop()
	}

	if p.closed {
		p.mu.Unlock()
		return nil, xerrors.Trace("pool: acquire after shutdown", xerrors.ErrPoolShutdown)
	}

	rec := p.fetchTop()
	p.mu.Unlock()
	return &Handle[T]{pool: p, rec: rec}, nil
}

// fetchTop unlinks and returns the head of the free chain. Caller must
// hold p.mu and have verified p.top != nil.
func (p *Pool[T]) fetchTop() *itemRec[T] {
	rec := p.top
	p.top = rec.next
	rec.next = nil
	p.inUse++
	return rec
}

func (p *Pool[T]) release(rec *itemRec[T]) {
	p.mu.Lock()
	rec.next = p.top
	p.top = rec
	p.inUse--
	p.mu.Unlock()
	p.cond.Signal()
}

// Size returns the number of items ever created (live in the pool,
// whether free or borrowed).
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

// Close marks the pool as shut down — further Get/GetTimeout calls fail
// with ErrPoolShutdown — then waits up to timeout for all borrowed items
// to be released. Per the specification, a borrow outliving the pool is
// undefined: if the wait elapses with items still in use, Close panics
// rather than returning, mirroring the original's process abort.
func (p *Pool[T]) Close(timeout time.Duration) {
	p.mu.Lock()
	p.closed = true
	p.cond.Broadcast()

	deadline := time.Now().Add(timeout)
	for p.inUse > 0 {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			inUse := p.inUse
			p.mu.Unlock()
			panic(fmt.Sprintf("pool: closed while %d item(s) still in use", inUse))
		}
		timer := time.AfterFunc(remaining, func() {
			p.mu.Lock()
			p.cond.Broadcast()
			p.mu.Unlock()
		})
		p.cond.Wait()
		timer.Stop()
	}
	p.mu.Unlock()
}

// DumpInfo writes a human-readable snapshot of the pool's free chain to
// w, the supplemented equivalent of the original's dumpInfo diagnostic.
func (p *Pool[T]) DumpInfo(w io.Writer) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, err := fmt.Fprintf(w, "pool: %d total item(s), %d in use, top=%p\n", len(p.items), p.inUse, p.top); err != nil {
		return err
	}
	for i, rec := range p.items {
		if _, err := fmt.Fprintf(w, "item[%d]: %p, next=%p\n", i+1, rec, rec.next); err != nil {
			return err
		}
	}
	return nil
}
