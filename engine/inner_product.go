// SPDX-License-Identifier: MIT
// Package: engine
//
// Purpose:
//   - InnerProductOp generalizes the matrix product to any operator pair:
//     C[i][j] = right.Reduce over k of left(A[i][k], B[k][j]).
//
// Algorithm (per Run, on slot s):
//   - Stage 1 (Operands): left portion as row-major n x K, right portion as
//     col-major K x m, so row i and column j are contiguous.
//   - Stage 2 (Products): for every (i, j), left.Elementwise(row i, col j)
//     into a K-vector, then right.Reduce into entry i of a column buffer.
//   - Stage 3 (Fold): the first Run of a slot writes its result directly;
//     later Runs write into a scratch tile folded with right.Elementwise.
//
// Combine:
//   - Clone the first used slot and fold the others with right.Elementwise.
//
// Notes:
//   - right must be associative: partial results are folded in any order.
//   - A missing role is reported as scalar.ErrUnsupportedOp before any slot
//     state changes.

package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/katalvlaran/lazymat/portion"
	"github.com/katalvlaran/lazymat/scalar"
	"github.com/samber/lo"
)

type innerSlot struct {
	res  *portion.Buf
	tile *portion.Buf
}

// InnerProductOp is the generalized inner product operator.
type InnerProductOp struct {
	opBase
	left, right scalar.BinaryOp
	slots       []*innerSlot
	log         *slog.Logger
}

var _ PortionOp = (*InnerProductOp)(nil)

// NewInnerProductOp builds an operator for an n x m result in layout l.
// Panics with scalar.ErrTypeMismatch if right does not consume the output
// type of left.
func NewInnerProductOp(left, right scalar.BinaryOp, n, m int, l portion.Layout, opts ...Option) *InnerProductOp {
	if left.OutputType() != right.InputType() {
		panic(engineErrorf(fmt.Sprintf("NewInnerProductOp %v -> %v", left, right), scalar.ErrTypeMismatch))
	}
	if !l.Valid() {
		panic(engineErrorf("NewInnerProductOp", portion.ErrInvalidLayout))
	}
	o := gatherOptions(opts...)
	return &InnerProductOp{
		opBase: opBase{n: n, m: m, layout: l, workers: o.pool.NumWorkers()},
		left:   left,
		right:  right,
		slots:  make([]*innerSlot, o.pool.NumWorkers()),
		log:    o.logger,
	}
}

// Type implements PortionOp.
func (op *InnerProductOp) Type() scalar.Type { return op.right.OutputType() }

// checkRoles reports a missing operator role.
func (op *InnerProductOp) checkRoles() error {
	if !op.left.Supports(scalar.RoleElementwise) {
		return engineErrorf("InnerProductOp left "+op.left.Name(), scalar.ErrUnsupportedOp)
	}
	if !op.right.Supports(scalar.RoleAll) {
		return engineErrorf("InnerProductOp right "+op.right.Name(), scalar.ErrUnsupportedOp)
	}
	return nil
}

// Run implements PortionOp.
func (op *InnerProductOp) Run(ctx context.Context, ins []portion.Window) error {
	i := op.slot(ctx)
	if err := op.checkRoles(); err != nil {
		return err
	}
	op.started.Store(true)
	a, b := op.operands("InnerProductOp.Run", ins)
	if a.Type() != op.left.InputType() || b.Type() != op.left.InputType() {
		panic(engineErrorf(fmt.Sprintf("InnerProductOp.Run %v * %v", a.Type(), b.Type()), scalar.ErrTypeMismatch))
	}
	ar := dense(a, portion.RowMajor)
	bc := dense(b, portion.ColMajor)

	s := op.slots[i]
	first := s == nil
	if first {
		s = &innerSlot{res: portion.NewBuf(op.Type(), op.n, op.m, op.layout)}
		op.slots[i] = s
	}
	target := s.res
	if !first {
		if s.tile == nil {
			s.tile = portion.NewBuf(op.Type(), op.n, op.m, op.layout)
		}
		target = s.tile
	}
	if err := op.products(ar, bc, target); err != nil {
		return err
	}
	if !first {
		rv, _ := s.res.Contiguous()
		tv, _ := s.tile.Contiguous()
		if err := op.right.Elementwise(rv, tv, rv); err != nil {
			return err
		}
	}
	op.produced.Store(true)
	return nil
}

// products fills dst with the inner products of the rows of a and the
// columns of b.
func (op *InnerProductOp) products(a, b, dst *portion.Buf) error {
	k := a.Cols()
	araw, _ := a.Raw(portion.RowMajor)
	braw, _ := b.Raw(portion.ColMajor)
	prod := scalar.NewVec(op.left.OutputType(), k)
	col := scalar.NewVec(op.Type(), op.n)
	for j := range op.m {
		bj := braw.Data.Slice(j*braw.Stride, j*braw.Stride+k)
		for i := range op.n {
			ai := araw.Data.Slice(i*araw.Stride, i*araw.Stride+k)
			if err := op.left.Elementwise(ai, bj, prod); err != nil {
				return err
			}
			if err := op.right.Reduce(prod, col, i); err != nil {
				return err
			}
		}
		dst.SetCol(j, col)
	}
	return nil
}

// Combined implements PortionOp. Panics with ErrEmptyCombine if no slot ran.
func (op *InnerProductOp) Combined() (*portion.Buf, error) {
	if op.result != nil {
		return op.result, nil
	}
	used := lo.Filter(op.slots, func(s *innerSlot, _ int) bool { return s != nil })
	if len(used) == 0 {
		panic(engineErrorf("InnerProductOp.Combined", ErrEmptyCombine))
	}
	out := used[0].res.Clone()
	ov, _ := out.Contiguous()
	for _, s := range used[1:] {
		sv, _ := s.res.Contiguous()
		if err := op.right.Elementwise(ov, sv, ov); err != nil {
			return nil, err
		}
	}
	op.log.Debug("engine: inner product combined", "slots", len(used), "left", op.left.Name(), "right", op.right.Name())
	op.result = out
	return out, nil
}

// Describe implements PortionOp.
func (op *InnerProductOp) Describe(names []string) string {
	return fmt.Sprintf("inner.prod(%s, %s; %s, %s)", names[0], names[1], op.left.Name(), op.right.Name())
}

func (op *InnerProductOp) reset() {
	clear(op.slots)
	op.result = nil
	op.started.Store(false)
	op.produced.Store(false)
}
