// Package workerpool implements a fixed-size worker pool: a bounded
// number of goroutines, spawned once at World initialization and torn
// down once at shutdown, over which the scheduler distributes a tick's
// conflict-free system batches with zero per-submission heap allocation
// in the steady state.
//
// Unlike a typical "submit a func() job" pool, workers here claim indices
// into a pre-sized work-item array via an atomic counter rather than
// receiving closures over a channel — an allocation-discipline
// constraint rules out boxing a new closure per submission.
// golang.org/x/sync/errgroup owns pool lifecycle and fatal-failure
// propagation (a worker goroutine exiting unexpectedly is unrecoverable),
// while per-system panics are recovered and counted by the caller's work
// function instead of ever reaching the pool.
package workerpool

import (
	"context"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// workItem is one unit of dispatchable work: a plain function pointer plus
// whatever the caller closed over when building the batch. Items are
// written into a pre-sized slice once per batch and claimed by index, so
// no allocation happens on the hot path beyond growing that slice if the
// batch is larger than any previously submitted.
type workItem struct {
	fn func()
}

// Pool is a fixed set of long-lived goroutines that execute batches of
// independent work items. Workers are spawned once by New and exit only
// when Shutdown is called (or a worker itself fails fatally).
type Pool struct {
	g      *errgroup.Group
	ctx    context.Context
	cancel context.CancelFunc

	workers int
	wake    chan struct{}

	mu       sync.Mutex
	items    []workItem
	submitted atomic.Int64
	claimed   atomic.Int64
	completed atomic.Int64
	wg        sync.WaitGroup

	closed atomic.Bool
}

// New spawns a pool of n long-lived worker goroutines. n is clamped to at
// least 1.
func New(n int) *Pool {
	if n < 1 {
		n = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	g, gctx := errgroup.WithContext(ctx)
	p := &Pool{
		g:       g,
		ctx:     gctx,
		cancel:  cancel,
		workers: n,
		wake:    make(chan struct{}, n),
	}
	for i := 0; i < n; i++ {
		g.Go(p.workerLoop)
	}
	return p
}

// Size returns the fixed number of worker goroutines.
func (p *Pool) Size() int { return p.workers }

func (p *Pool) workerLoop() error {
	for {
		select {
		case <-p.ctx.Done():
			return nil
		case <-p.wake:
			p.drainClaims()
		}
	}
}

// drainClaims repeatedly claims (by atomic increment) the next unclaimed item in the current
// batch until none remain, running each one and signaling the batch
// WaitGroup on completion. Multiple workers drain the same batch
// concurrently; each item is claimed by exactly one worker.
func (p *Pool) drainClaims() {
	for {
		total := p.submitted.Load()
		idx := p.claimed.Add(1) - 1
		if idx >= total {
			return
		}
		p.mu.Lock()
		item := p.items[idx]
		p.mu.Unlock()

		item.fn()

		p.completed.Add(1)
		p.wg.Done()
	}
}

// RunBatch executes items concurrently across the pool's workers and
// blocks until every item has completed. items must contain no two
// entries that conflict (the caller, typically the scheduler's batch
// builder, is responsible for conflict-freedom); this pool only provides
// the concurrency primitive, not conflict analysis.
func (p *Pool) RunBatch(fns []func()) {
	if len(fns) == 0 {
		return
	}

	p.mu.Lock()
	if cap(p.items) < len(fns) {
		p.items = make([]workItem, len(fns))
	} else {
		p.items = p.items[:len(fns)]
	}
	for i, fn := range fns {
		p.items[i] = workItem{fn: fn}
	}
	p.mu.Unlock()

	p.claimed.Store(0)
	p.completed.Store(0)
	p.wg.Add(len(fns))
	p.submitted.Store(int64(len(fns)))

	wake := len(fns)
	if wake > p.workers {
		wake = p.workers
	}
	for i := 0; i < wake; i++ {
		select {
		case p.wake <- struct{}{}:
		default:
		}
	}

	p.wg.Wait()
}

// ParallelRange splits [0, n) into at most p.Size() contiguous subranges
// and runs fn(start, end) for each across the pool, a convenience for
// splitting indexed subranges of a larger loop. Blocks until every
// subrange completes.
func (p *Pool) ParallelRange(n int, fn func(start, end int)) {
	if n <= 0 {
		return
	}
	workers := p.workers
	if workers > n {
		workers = n
	}
	chunk := (n + workers - 1) / workers

	fns := make([]func(), 0, workers)
	for start := 0; start < n; start += chunk {
		end := start + chunk
		if end > n {
			end = n
		}
		s, e := start, end
		fns = append(fns, func() { fn(s, e) })
	}
	p.RunBatch(fns)
}

// Shutdown signals every worker to exit and waits for them to return. It
// returns the first fatal error reported by errgroup, if any.
func (p *Pool) Shutdown() error {
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}
	p.cancel()
	return p.g.Wait()
}
