// SPDX-License-Identifier: MIT

package engine

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/katalvlaran/lazymat/portion"
	"github.com/katalvlaran/lazymat/scalar"
	"github.com/katalvlaran/lazymat/workerpool"
)

// PortionOp is a wide operator: it consumes one portion of every operand
// per Run, keeps partial results per worker slot and combines them once all
// portions ran. The set of implementations is closed (MultiplyOp,
// InnerProductOp).
type PortionOp interface {
	// Run accumulates one portion. ins[0] is the transposed left portion
	// (K x n) unless the transpose requirement is off, ins[1] the right
	// portion (K x m). It must run on a worker of the operator's pool.
	Run(ctx context.Context, ins []portion.Window) error
	// Combined folds the slot partials into the final n x m buffer. The
	// result is computed once; later calls return it again.
	Combined() (*portion.Buf, error)
	// HasMaterialized reports whether any slot holds data. It may be called
	// from any goroutine while Run is in progress.
	HasMaterialized() bool
	// SetRequireTranspose sets whether Run transposes ins[0].
	SetRequireTranspose(v bool)
	// Describe names the operator applied to operands with the given names.
	Describe(names []string) string
	// Type is the element type of the result.
	Type() scalar.Type
	// Layout is the layout of the combined result.
	Layout() portion.Layout

	reset()
}

// opBase carries what both operators share: result shape, layout, slot
// bookkeeping and the transpose requirement.
type opBase struct {
	n, m      int
	layout    portion.Layout
	workers   int
	transpose bool
	started   atomic.Bool
	produced  atomic.Bool // a Run completed on some slot
	result    *portion.Buf
}

// HasMaterialized implements PortionOp.
func (o *opBase) HasMaterialized() bool { return o.produced.Load() }

// slot returns the worker slot of ctx. Panics with ErrNotOnPool if ctx
// does not belong to a worker of a pool of this size.
func (o *opBase) slot(ctx context.Context) int {
	s := workerpool.Slot(ctx)
	if s < 0 || s >= o.workers {
		panic(engineErrorf(fmt.Sprintf("slot %d of %d", s, o.workers), ErrNotOnPool))
	}
	return s
}

func (o *opBase) SetRequireTranspose(v bool) {
	if o.started.Load() && v != o.transpose {
		panic(engineErrorf("SetRequireTranspose", ErrTransposeAfterAccumulate))
	}
	o.transpose = v
}

func (o *opBase) Layout() portion.Layout { return o.layout }

// operands applies the transpose requirement and checks the portion
// shapes against the result shape.
func (o *opBase) operands(tag string, ins []portion.Window) (a, b portion.Window) {
	if len(ins) != 2 {
		panic(engineErrorf(fmt.Sprintf("%s: %d inputs", tag, len(ins)), portion.ErrShapeMismatch))
	}
	a, b = ins[0], ins[1]
	if o.transpose {
		a = a.Transpose()
	}
	if a.Rows() != o.n || b.Cols() != o.m || a.Cols() != b.Rows() {
		panic(engineErrorf(fmt.Sprintf("%s: %dx%d * %dx%d for %dx%d", tag, a.Rows(), a.Cols(), b.Rows(), b.Cols(), o.n, o.m), portion.ErrShapeMismatch))
	}
	return a, b
}

// dense returns w as a buffer in layout l (any layout for LayoutNone),
// copying when w is not already such a buffer.
func dense(w portion.Window, l portion.Layout) *portion.Buf {
	if lz, ok := w.(*portion.Lazy); ok && lz.Result() != nil {
		w = lz.Result()
	}
	if b, ok := w.(*portion.Buf); ok && (l == portion.LayoutNone || b.Layout() == l) {
		return b
	}
	if l == portion.LayoutNone {
		l = w.Layout()
	}
	out := portion.NewBuf(w.Type(), w.Rows(), w.Cols(), l)
	out.CopyFrom(w)
	return out
}
