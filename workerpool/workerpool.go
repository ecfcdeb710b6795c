// SPDX-License-Identifier: MIT

// Package workerpool provides a persistent worker pool whose workers carry a
// stable slot identity.
//
// Each worker owns a slot in [0, NumWorkers()). Tasks receive a context from
// which Slot recovers that index, so per-worker scratch state can be indexed
// without locks. Goroutines outside the pool observe NoSlot.
//
// Usage:
//
//	pool := workerpool.New(runtime.GOMAXPROCS(0), workerpool.WithNumNodes(2))
//	defer pool.Close()
//
//	err := pool.ParallelFor(ctx, n, func(ctx context.Context, i int) error {
//	    scratch := perWorker[workerpool.Slot(ctx)]
//	    return process(scratch, i)
//	})
//
// Calls that wait for completion (ParallelFor, ParallelForAffinity) must not
// be made from a task running on the same pool.
package workerpool

import (
	"context"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"

	"golang.org/x/sys/cpu"
)

// NoSlot is the slot of a goroutine that is not a pool worker.
const NoSlot = -1

type slotKey struct{}

// WithSlot returns ctx tagged with a worker slot.
func WithSlot(ctx context.Context, slot int) context.Context {
	return context.WithValue(ctx, slotKey{}, slot)
}

// Slot returns the worker slot carried by ctx, or NoSlot.
func Slot(ctx context.Context) int {
	if s, ok := ctx.Value(slotKey{}).(int); ok {
		return s
	}
	return NoSlot
}

// Pool is a persistent worker pool. Workers are spawned once at creation
// and reused until Close.
type Pool struct {
	numWorkers int
	numNodes   int
	workC      chan workItem
	closeOnce  sync.Once
	closed     atomic.Bool
	log        *slog.Logger
}

type workItem struct {
	ctx     context.Context
	fn      func(ctx context.Context)
	barrier *sync.WaitGroup
}

// New creates a pool with numWorkers workers (GOMAXPROCS if <= 0).
func New(numWorkers int, opts ...Option) *Pool {
	if numWorkers <= 0 {
		numWorkers = runtime.GOMAXPROCS(0)
	}
	o := gatherOptions(opts...)
	p := &Pool{
		numWorkers: numWorkers,
		numNodes:   min(o.numNodes, numWorkers),
		workC:      make(chan workItem, numWorkers*2),
		log:        o.logger,
	}
	for slot := range numWorkers {
		go p.worker(slot, o.pin)
	}
	p.log.Debug("workerpool: started",
		"workers", numWorkers,
		"nodes", p.numNodes,
		"pinned", o.pin,
		"avx2", cpu.X86.HasAVX2,
		"avx512f", cpu.X86.HasAVX512F,
		"asimd", cpu.ARM64.HasASIMD,
		"sve", cpu.ARM64.HasSVE,
	)
	return p
}

var defaultPool = sync.OnceValue(func() *Pool { return New(0) })

// Default returns a process-wide pool with GOMAXPROCS workers, created on
// first use and never closed.
func Default() *Pool { return defaultPool() }

func (p *Pool) worker(slot int, pin bool) {
	if pin {
		if err := pinToCPU(slot); err != nil {
			p.log.Warn("workerpool: pinning failed", "slot", slot, "err", err)
		}
	}
	for item := range p.workC {
		item.fn(WithSlot(item.ctx, slot))
		item.barrier.Done()
	}
}

// NumWorkers returns the number of workers.
func (p *Pool) NumWorkers() int { return p.numWorkers }

// NumNodes returns the number of memory domains workers are spread over.
func (p *Pool) NumNodes() int { return p.numNodes }

// NodeOf returns the memory domain of a worker slot.
func (p *Pool) NodeOf(slot int) int {
	if slot < 0 {
		return -1
	}
	return slot % p.numNodes
}

// Closed reports whether Close was called.
func (p *Pool) Closed() bool { return p.closed.Load() }

// Close shuts the pool down once pending work completes. After Close every
// call runs sequentially on the caller's goroutine with slot 0. Calling Close
// multiple times is safe; submitting concurrently with Close is not.
func (p *Pool) Close() {
	p.closeOnce.Do(func() {
		p.closed.Store(true)
		close(p.workC)
	})
}

// Submit runs fn on some worker and marks wg done afterwards. It never
// blocks the caller: when the queue is full the hand-off happens on a
// separate goroutine.
func (p *Pool) Submit(ctx context.Context, wg *sync.WaitGroup, fn func(ctx context.Context)) {
	wg.Add(1)
	if p.closed.Load() {
		fn(WithSlot(ctx, 0))
		wg.Done()
		return
	}
	item := workItem{ctx: ctx, fn: fn, barrier: wg}
	select {
	case p.workC <- item:
	default:
		go func() { p.workC <- item }()
	}
}

// firstError keeps the first error reported by concurrent tasks.
type firstError struct {
	mu  sync.Mutex
	err error
	bad atomic.Bool
}

func (f *firstError) set(err error) {
	if err == nil {
		return
	}
	f.mu.Lock()
	if f.err == nil {
		f.err = err
	}
	f.mu.Unlock()
	f.bad.Store(true)
}

func (f *firstError) failed() bool { return f.bad.Load() }

// ParallelFor calls fn for every index in [0, n) using atomic work stealing
// and blocks until all started calls return. After the first error, or once
// ctx is done, no further indices are handed out; that error is returned.
func (p *Pool) ParallelFor(ctx context.Context, n int, fn func(ctx context.Context, i int) error) error {
	return p.ParallelForAffinity(ctx, n, nil, fn)
}

// ParallelForAffinity is ParallelFor with locality: index i is preferably
// run by a worker of node nodeOf(i). Workers drain their own node's queue
// first, then indices without a node (nodeOf < 0), then steal from the other
// nodes. A nil nodeOf places nothing.
func (p *Pool) ParallelForAffinity(ctx context.Context, n int, nodeOf func(i int) int, fn func(ctx context.Context, i int) error) error {
	if n <= 0 {
		return ctx.Err()
	}
	queues := p.buildQueues(n, nodeOf)
	cursors := make([]atomic.Int64, len(queues))
	var fe firstError

	drain := func(ctx context.Context) {
		for _, q := range p.visitOrder(p.NodeOf(Slot(ctx)), len(queues)) {
			for !fe.failed() {
				if err := ctx.Err(); err != nil {
					fe.set(err)
					return
				}
				k := int(cursors[q].Add(1)) - 1
				if k >= len(queues[q]) {
					break
				}
				fe.set(fn(ctx, queues[q][k]))
			}
		}
	}

	if p.closed.Load() {
		drain(WithSlot(ctx, 0))
		return fe.err
	}

	var wg sync.WaitGroup
	workers := min(p.numWorkers, n)
	wg.Add(workers)
	for range workers {
		p.workC <- workItem{ctx: ctx, fn: drain, barrier: &wg}
	}
	wg.Wait()
	return fe.err
}

// buildQueues returns one index queue per node plus a trailing queue for
// unplaced indices.
func (p *Pool) buildQueues(n int, nodeOf func(int) int) [][]int {
	queues := make([][]int, p.numNodes+1)
	unplaced := p.numNodes
	for i := range n {
		q := unplaced
		if nodeOf != nil {
			if nd := nodeOf(i); nd >= 0 {
				q = nd % p.numNodes
			}
		}
		queues[q] = append(queues[q], i)
	}
	return queues
}

// visitOrder lists queues for a worker of node own: own node, unplaced,
// then the other nodes in ring order.
func (p *Pool) visitOrder(own, nq int) []int {
	if own < 0 {
		own = 0
	}
	order := make([]int, 0, nq)
	order = append(order, own, nq-1)
	for d := 1; d < p.numNodes; d++ {
		order = append(order, (own+d)%p.numNodes)
	}
	return order
}
