// SPDX-License-Identifier: MIT
// Package: engine
//
// Purpose:
//   - MultiplyOp computes left·right for float operands with vendor BLAS,
//     one long-dimension portion per Run.
//
// Algorithm (per Run, on slot s):
//   - Stage 1 (Operands): transpose the left portion back (n x K), convert
//     it to the operator layout in a per-slot scratch buffer if needed.
//   - Stage 2 (Chunk): cut K into chunks of max(1, ChunkSize / max(n, m))
//     columns of left and rows of right (resize, compute, restore).
//   - Stage 3a (Dense right): GEMM each chunk into the slot tile and fold
//     the tile into the widened accumulator.
//   - Stage 3b (Sparse right): AXPY each chunk into the slot tile; the tile
//     is folded every SparseFoldThreshold chunks.
//
// Combine:
//   - Pending sparse tiles are folded, the accumulators of all used slots
//     are merged, and the total is narrowed to the element type once.
//
// Complexity:
//   - Time O(n·m·K) per product, Memory O(n·m) per used slot.

package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/katalvlaran/lazymat/portion"
	"github.com/katalvlaran/lazymat/scalar"
	"github.com/samber/lo"
)

// mulSlot is the private state of one worker.
type mulSlot struct {
	tile    *portion.Buf
	acc     accumulator
	pending int
	scratch *portion.Buf
}

// MultiplyOp is the vendor product operator.
type MultiplyOp struct {
	opBase
	typ        scalar.Type
	chunk      int
	sparseFold int
	slots      []*mulSlot
	log        *slog.Logger
}

var _ PortionOp = (*MultiplyOp)(nil)

// NewMultiplyOp builds a product operator for an n x m result of float
// type t in layout l, sized for the pool of the options.
// Panics with scalar.ErrUnsupportedOp for non-float types.
func NewMultiplyOp(t scalar.Type, n, m int, l portion.Layout, opts ...Option) *MultiplyOp {
	if !t.IsFloat() {
		panic(engineErrorf("NewMultiplyOp "+t.String(), scalar.ErrUnsupportedOp))
	}
	if !l.Valid() {
		panic(engineErrorf("NewMultiplyOp", portion.ErrInvalidLayout))
	}
	o := gatherOptions(opts...)
	op := &MultiplyOp{
		opBase:     opBase{n: n, m: m, layout: l, workers: o.pool.NumWorkers()},
		typ:        t,
		chunk:      o.chunkSize,
		sparseFold: o.sparseFold,
		slots:      make([]*mulSlot, o.pool.NumWorkers()),
		log:        o.logger,
	}
	op.log.Debug("engine: multiply op",
		"rows", n, "cols", m, "type", t, "layout", l,
		"chunkCols", op.chunkCols(), "sparseFold", op.sparseFold)
	return op
}

// chunkCols is the number of long-dimension columns per chunk.
func (op *MultiplyOp) chunkCols() int {
	return max(1, op.chunk/max(op.n, op.m))
}

// foldEvery is the number of sparse chunks accumulated before folding.
func (op *MultiplyOp) foldEvery(k int) int {
	if op.sparseFold > 0 {
		return op.sparseFold
	}
	return max(1, op.chunk/max(op.n, k))
}

// Type implements PortionOp.
func (op *MultiplyOp) Type() scalar.Type { return op.typ }

// Run implements PortionOp.
func (op *MultiplyOp) Run(ctx context.Context, ins []portion.Window) error {
	s := op.slotState(op.slot(ctx))
	op.started.Store(true)
	a, b := op.operands("MultiplyOp.Run", ins)
	if a.Type() != op.typ || b.Type() != op.typ {
		panic(engineErrorf(fmt.Sprintf("MultiplyOp.Run %v * %v", a.Type(), b.Type()), scalar.ErrTypeMismatch))
	}
	ad := s.left(a, op.layout)
	if b.IsSparse() {
		op.runSparse(s, ad, b, b.(portion.NonZeros))
	} else {
		op.runDense(s, ad, dense(b, portion.LayoutNone))
	}
	op.produced.Store(true)
	return nil
}

func (op *MultiplyOp) slotState(i int) *mulSlot {
	if op.slots[i] == nil {
		op.slots[i] = &mulSlot{
			tile: portion.NewBuf(op.typ, op.n, op.m, op.layout),
			acc:  newAccumulator(op.typ, op.n*op.m),
		}
	}
	return op.slots[i]
}

// left returns a as a buffer in layout l, copying into the slot scratch
// buffer when a is not such a buffer already.
func (s *mulSlot) left(a portion.Window, l portion.Layout) *portion.Buf {
	if lz, ok := a.(*portion.Lazy); ok && lz.Result() != nil {
		a = lz.Result()
	}
	if b, ok := a.(*portion.Buf); ok && b.Layout() == l {
		return b
	}
	if s.scratch == nil || s.scratch.Rows() != a.Rows() || s.scratch.Cols() != a.Cols() {
		s.scratch = portion.NewBuf(a.Type(), a.Rows(), a.Cols(), l)
	}
	s.scratch.CopyFrom(a)
	return s.scratch
}

func (s *mulSlot) tileVec() scalar.Vec {
	v, _ := s.tile.Contiguous()
	return v
}

// chunks calls fn once per chunk of k columns of a and rows of b, with a
// and b resized to the chunk.
func chunks(a, b portion.Window, k int, fn func()) {
	ea, eb := a.Exposed(), b.Exposed()
	for k0 := 0; k0 < ea.Cols; k0 += k {
		kc := min(k, ea.Cols-k0)
		a.Resize(portion.Area{Row: ea.Row, Col: ea.Col + k0, Rows: ea.Rows, Cols: kc})
		b.Resize(portion.Area{Row: eb.Row + k0, Col: eb.Col, Rows: kc, Cols: eb.Cols})
		fn()
	}
	a.Restore(ea)
	b.Restore(eb)
}

func (op *MultiplyOp) runDense(s *mulSlot, a, b *portion.Buf) {
	tile := s.tileVec()
	chunks(a, b, op.chunkCols(), func() {
		gemm(a, b, s.tile)
		s.acc.add(tile)
	})
}

func (op *MultiplyOp) runSparse(s *mulSlot, a *portion.Buf, b portion.Window, nz portion.NonZeros) {
	every := op.foldEvery(a.Cols())
	chunks(a, b, op.chunkCols(), func() {
		axpyNonZeros(a, nz, s.tile)
		s.pending++
		if s.pending >= every {
			s.fold()
		}
	})
}

// fold moves the pending sparse tile into the accumulator.
func (s *mulSlot) fold() {
	if s.pending == 0 {
		return
	}
	tile := s.tileVec()
	s.acc.add(tile)
	tile.Zero()
	s.pending = 0
}

// Combined implements PortionOp. Panics with ErrEmptyCombine if no slot ran.
func (op *MultiplyOp) Combined() (*portion.Buf, error) {
	if op.result != nil {
		return op.result, nil
	}
	used := lo.Filter(op.slots, func(s *mulSlot, _ int) bool { return s != nil })
	if len(used) == 0 {
		panic(engineErrorf("MultiplyOp.Combined", ErrEmptyCombine))
	}
	for _, s := range used {
		s.fold()
	}
	total := used[0].acc
	for _, s := range used[1:] {
		total.merge(s.acc)
	}
	out := portion.NewBuf(op.typ, op.n, op.m, op.layout)
	v, _ := out.Contiguous()
	total.narrow(v)
	op.log.Debug("engine: multiply combined", "slots", len(used))
	op.result = out
	return out, nil
}

// Describe implements PortionOp.
func (op *MultiplyOp) Describe(names []string) string {
	return "(" + strings.Join(names, " * ") + ")"
}

func (op *MultiplyOp) reset() {
	clear(op.slots)
	op.result = nil
	op.started.Store(false)
	op.produced.Store(false)
}
