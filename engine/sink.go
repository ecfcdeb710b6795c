// SPDX-License-Identifier: MIT
// Package: engine
//
// Purpose:
//   - Sink is a lazy product node: left·right (NewMultiply) or a generalized
//     inner product (NewInnerProduct). It implements matrix.Matrix, so it can
//     feed further expressions; reading any portion materializes it.
//
// Path selection:
//   - Vendor GEMM when no operator pair is given and the element type is a
//     float; otherwise the inner product with (Mul, Add) by default.
//
// Layouts:
//   - Operator layout: ColMajor for a sparse right operand, the shared
//     layout when both operands agree, else the layout of the larger one.
//   - Result layout: WithOutputLayout if given, else the operator layout on
//     the vendor path and the left operand's layout on the inner product
//     path.
//
// Lifecycle:
//   - Materialize runs once; concurrent callers wait for the first one.
//     Afterwards the compute matrix is released and only the result is kept.
//   - A failed Materialize resets the operator; a later call starts over.
//   - HasMaterialized does not take the lock: it turns true once a portion
//     has run on any worker, while Materialize is still driving.

package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/katalvlaran/lazymat/matrix"
	"github.com/katalvlaran/lazymat/portion"
	"github.com/katalvlaran/lazymat/scalar"
)

// Sink is a product expression node.
type Sink struct {
	id          matrix.ID
	name        string
	left, right matrix.Matrix
	leftOp      scalar.BinaryOp // nil on the vendor path
	rightOp     scalar.BinaryOp
	typ         scalar.Type
	layout      portion.Layout
	opts        Options
	user        []Option
	op          PortionOp
	done        atomic.Bool

	mu     sync.Mutex
	cm     *ComputeMatrix
	result *matrix.Mem
}

var _ matrix.Matrix = (*Sink)(nil)

// NewMultiply returns the lazy product left·right.
// Panics if the operands are nil, differ in element type, or left.Cols !=
// right.Rows.
func NewMultiply(left, right matrix.Matrix, opts ...Option) *Sink {
	return NewInnerProduct(left, right, nil, nil, opts...)
}

// NewInnerProduct returns the lazy generalized inner product of left and
// right: C[i][j] = rightOp-fold over k of leftOp(left[i][k], right[k][j]).
// A nil leftOp selects the plain product (vendor GEMM for floats); a nil
// rightOp is Add.
// Panics on nil operands, mismatched element types or dimensions, and
// operators whose types do not chain.
func NewInnerProduct(left, right matrix.Matrix, leftOp, rightOp scalar.BinaryOp, opts ...Option) *Sink {
	if err := matrix.ValidateMulCompatible(left, right); err != nil {
		panic(engineErrorf("NewInnerProduct", err))
	}
	o := gatherOptions(opts...)
	t := left.Type()
	n, m := left.Rows(), right.Cols()
	s := &Sink{
		id:      matrix.NewID(),
		left:    left,
		right:   right,
		leftOp:  leftOp,
		rightOp: rightOp,
		opts:    o,
		user:    opts,
	}

	opLayout := operatorLayout(left, right)
	var op PortionOp
	if leftOp == nil && t.IsFloat() {
		op = NewMultiplyOp(t, n, m, opLayout, opts...)
		s.layout = opLayout
	} else {
		if leftOp == nil {
			leftOp = scalar.Mul(t)
		}
		if rightOp == nil {
			rightOp = scalar.Add(leftOp.OutputType())
		}
		if leftOp.InputType() != t {
			panic(engineErrorf(fmt.Sprintf("NewInnerProduct %v on %v", leftOp, t), scalar.ErrTypeMismatch))
		}
		op = NewInnerProductOp(leftOp, rightOp, n, m, opLayout, opts...)
		s.layout = left.Layout()
	}
	if o.outLayout.Valid() {
		s.layout = o.outLayout
	}
	op.SetRequireTranspose(true)
	s.typ = op.Type()
	s.op = op
	s.cm = newComputeMatrix(left, right, op, o.logger)
	s.name = o.name
	if s.name == "" {
		s.name = op.Describe([]string{left.Name(), right.Name()})
	}
	return s
}

// operatorLayout picks the layout the wide operator works in.
func operatorLayout(left, right matrix.Matrix) portion.Layout {
	switch {
	case right.IsSparse():
		return portion.ColMajor
	case left.Layout() == right.Layout():
		return left.Layout()
	case left.Rows()*left.Cols() >= right.Rows()*right.Cols():
		return left.Layout()
	default:
		return right.Layout()
	}
}

func (s *Sink) ID() matrix.ID          { return s.id }
func (s *Sink) Name() string           { return s.name }
func (s *Sink) Rows() int              { return s.left.Rows() }
func (s *Sink) Cols() int              { return s.right.Cols() }
func (s *Sink) Type() scalar.Type      { return s.typ }
func (s *Sink) Layout() portion.Layout { return s.layout }

// InMem implements matrix.Matrix: the result is held in memory.
func (s *Sink) InMem() bool { return true }

// Node implements matrix.Matrix.
func (s *Sink) Node() int { return -1 }

// IsSparse implements matrix.Matrix.
func (s *Sink) IsSparse() bool { return false }

// PortionSize implements matrix.Matrix.
func (s *Sink) PortionSize() (int, int) {
	rows, cols := s.Rows(), s.Cols()
	if rows >= cols {
		return min(matrix.DefaultPortionLen, rows), cols
	}
	return rows, min(matrix.DefaultPortionLen, cols)
}

// GetPortion implements matrix.Matrix; it materializes the sink first.
func (s *Sink) GetPortion(ctx context.Context, a portion.Area) (portion.Window, error) {
	res, err := s.Materialize(ctx)
	if err != nil {
		return nil, err
	}
	return res.GetPortion(ctx, a)
}

// GetPortionAsync implements matrix.Matrix. Materialization is synchronous,
// so the portion is always available when no error occurred.
func (s *Sink) GetPortionAsync(ctx context.Context, a portion.Area, _ func(error)) (bool, portion.Window, error) {
	w, err := s.GetPortion(ctx, a)
	return err == nil, w, err
}

// Underlying implements matrix.Matrix.
func (s *Sink) Underlying() matrix.Deps {
	return s.left.Underlying().Merge(s.right.Underlying())
}

// Transpose implements matrix.Matrix. A materialized sink returns a view of
// its result; otherwise the product is rewritten as rightᵀ·leftᵀ.
func (s *Sink) Transpose() matrix.Matrix {
	s.mu.Lock()
	res := s.result
	s.mu.Unlock()
	if res != nil {
		return res.T()
	}
	return s.transposed()
}

// transposed rewrites the product as rightᵀ·leftᵀ, swapping the operands
// of the left operator.
func (s *Sink) transposed() *Sink {
	opts := append(append([]Option(nil), s.user...), WithOutputLayout(s.layout.Flip()), WithName("t("+s.name+")"))
	var leftOp scalar.BinaryOp
	if s.leftOp != nil {
		leftOp = swapped{s.leftOp}
	}
	return NewInnerProduct(s.right.Transpose(), s.left.Transpose(), leftOp, s.rightOp, opts...)
}

// HasMaterialized reports whether any worker accumulated data for the sink
// (always true once materialized). It does not wait for a running
// Materialize.
func (s *Sink) HasMaterialized() bool {
	return s.done.Load() || s.op.HasMaterialized()
}

// Result returns the materialized matrix, nil before Materialize.
func (s *Sink) Result() *matrix.Mem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result
}

// ComputeMatrices returns the compute matrix driving the sink; nil once
// materialized.
func (s *Sink) ComputeMatrices() []*ComputeMatrix {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cm == nil {
		return nil
	}
	return []*ComputeMatrix{s.cm}
}

// Materialize computes the product, once. Operand I/O errors are returned
// unchanged.
func (s *Sink) Materialize(ctx context.Context) (*matrix.Mem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.result != nil {
		return s.result, nil
	}
	if err := prepareAll(ctx, s.left, s.right); err != nil {
		return nil, err
	}
	start := time.Now()
	s.log().Debug("engine: materialize",
		"name", s.name,
		"portions", s.cm.NumPortions(),
		"portionRows", s.cm.PortionRows(),
		"workers", s.opts.pool.NumWorkers())
	if err := drive(ctx, s.opts.pool, s.cm.NumPortions(), s.cm.NodeOf, s.cm.GetPortionAsync, s.log()); err != nil {
		s.op.reset()
		return nil, err
	}
	if err := s.finish(); err != nil {
		return nil, err
	}
	s.log().Debug("engine: materialized", "name", s.name, "duration", time.Since(start))
	return s.result, nil
}

// finish combines the operator, stores the result and releases the slot
// partials. Called with mu held.
func (s *Sink) finish() error {
	b, err := s.op.Combined()
	if err != nil {
		s.op.reset()
		return err
	}
	if b.Layout() != s.layout {
		conv := portion.NewBuf(b.Type(), b.Rows(), b.Cols(), s.layout)
		conv.CopyFrom(b)
		b = conv
	}
	s.result = matrix.FromBuf(b, matrix.WithName(s.name))
	s.done.Store(true)
	s.op.reset()
	s.cm = nil
	return nil
}

func (s *Sink) log() *slog.Logger { return s.opts.logger }

func (s *Sink) prepare(ctx context.Context) error {
	_, err := s.Materialize(ctx)
	return err
}

// preparer is implemented by expression nodes whose portions must not be
// materialized from inside a pool worker (they drive the pool themselves).
type preparer interface {
	prepare(ctx context.Context) error
}

// prepareAll materializes every operand that drives the pool.
func prepareAll(ctx context.Context, ms ...matrix.Matrix) error {
	for _, m := range ms {
		if p, ok := m.(preparer); ok {
			if err := p.prepare(ctx); err != nil {
				return err
			}
		}
	}
	return nil
}

// swapped is op with its operands exchanged, for rewriting a transposed
// inner product.
type swapped struct{ scalar.BinaryOp }

func (o swapped) Name() string { return "swap(" + o.BinaryOp.Name() + ")" }

func (o swapped) Elementwise(a, b, out scalar.Vec) error {
	return o.BinaryOp.Elementwise(b, a, out)
}
