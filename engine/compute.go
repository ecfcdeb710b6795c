// SPDX-License-Identifier: MIT
// Package: engine
//
// Purpose:
//   - ComputeMatrix is the virtual K-row matrix a product is driven over:
//     portion i pairs rows [k0, k0+kc) of leftᵀ (K x n) with the same rows
//     of right (K x m) and runs the wide operator on them when materialized.
//
// Notes:
//   - The left operand is transposed on first use, after the owning sink
//     prepared it: transposing an unmaterialized sink operand would rewrite
//     it into a second product.
//   - Portion rows are the smallest row-strip height of the two operands,
//     so every operand portion is a whole number of its own portions or a
//     part of one.
//   - Compute portions produce no data; materializing one only feeds the
//     operator (side-effect-only lazy portion).

package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/katalvlaran/lazymat/matrix"
	"github.com/katalvlaran/lazymat/portion"
)

// ComputeMatrix drives a wide operator over the long dimension.
type ComputeMatrix struct {
	left  matrix.Matrix
	right matrix.Matrix
	op    PortionOp
	k     int
	log   *slog.Logger

	once  sync.Once
	leftT matrix.Matrix
	plen  int
}

func newComputeMatrix(left, right matrix.Matrix, op PortionOp, log *slog.Logger) *ComputeMatrix {
	return &ComputeMatrix{left: left, right: right, op: op, k: right.Rows(), log: log}
}

// bind transposes the left operand and fixes the portion height.
func (cm *ComputeMatrix) bind() {
	cm.once.Do(func() {
		cm.leftT = cm.left.Transpose()
		cm.plen = max(1, min(stripRows(cm.leftT), stripRows(cm.right)))
	})
}

// stripRows is the height of m's full-width portions.
func stripRows(m matrix.Matrix) int {
	pr, pc := m.PortionSize()
	if pc == m.Cols() {
		return pr
	}
	return matrix.DefaultPortionLen
}

// LongDim is the shared dimension K.
func (cm *ComputeMatrix) LongDim() int { return cm.k }

// PortionRows is the height of one compute portion.
func (cm *ComputeMatrix) PortionRows() int {
	cm.bind()
	return cm.plen
}

// NumPortions is the number of compute portions.
func (cm *ComputeMatrix) NumPortions() int { return (cm.k + cm.PortionRows() - 1) / cm.PortionRows() }

// Op is the operator fed by the portions.
func (cm *ComputeMatrix) Op() PortionOp { return cm.op }

// Name describes the operator applied to its operands.
func (cm *ComputeMatrix) Name() string {
	return cm.op.Describe([]string{cm.left.Name(), cm.right.Name()})
}

// Underlying returns the concrete matrices the operands read.
func (cm *ComputeMatrix) Underlying() matrix.Deps {
	return cm.left.Underlying().Merge(cm.right.Underlying())
}

// rows returns the long-dimension range of portion i.
func (cm *ComputeMatrix) rows(i int) (k0, kc int) {
	k0 = i * cm.plen
	return k0, min(cm.plen, cm.k-k0)
}

func strip(m matrix.Matrix, k0, kc int) portion.Area {
	return portion.Area{Row: k0, Rows: kc, Cols: m.Cols()}
}

// NodeOf returns the NUMA node of portion i: the right operand's node if it
// knows it, else the left operand's, else -1.
func (cm *ComputeMatrix) NodeOf(i int) int {
	cm.bind()
	k0, kc := cm.rows(i)
	for _, m := range []matrix.Matrix{cm.right, cm.leftT} {
		if p, ok := m.(matrix.Placer); ok {
			if nd := p.NodeOf(strip(m, k0, kc)); nd >= 0 {
				return nd
			}
		}
	}
	return -1
}

// GetPortion returns compute portion i with its operand portions fetched.
func (cm *ComputeMatrix) GetPortion(ctx context.Context, i int) (*portion.Lazy, error) {
	_, lz, err := cm.GetPortionAsync(ctx, i, nil)
	return lz, err
}

// GetPortionAsync starts fetching the operand portions of portion i. When
// both are available it returns available == true and never calls done.
// Otherwise done is called once, after every pending fetch completed, with
// the first fetch error. A nil done fetches synchronously.
func (cm *ComputeMatrix) GetPortionAsync(ctx context.Context, i int, done func(*portion.Lazy, error)) (bool, *portion.Lazy, error) {
	if i < 0 || i >= cm.NumPortions() {
		return false, nil, engineErrorf(fmt.Sprintf("ComputeMatrix portion %d of %d", i, cm.NumPortions()), matrix.ErrOutOfRange)
	}
	k0, kc := cm.rows(i)
	return cm.fetchRows(ctx, k0, kc, done)
}

// fetchRows is GetPortionAsync for an arbitrary row range [k0, k0+kc).
func (cm *ComputeMatrix) fetchRows(ctx context.Context, k0, kc int, done func(*portion.Lazy, error)) (bool, *portion.Lazy, error) {
	cm.bind()
	operands := []matrix.Matrix{cm.leftT, cm.right}
	parts := make([]portion.Window, len(operands))

	if done == nil {
		for j, m := range operands {
			w, err := m.GetPortion(ctx, strip(m, k0, kc))
			if err != nil {
				return false, nil, err
			}
			parts[j] = w
		}
		return true, cm.lazy(parts, k0), nil
	}

	var lz *portion.Lazy
	coord := newCoordinator(0, func(err error) { done(lz, err) }, cm.log)
	available := 0
	for j, m := range operands {
		ok, w, err := m.GetPortionAsync(ctx, strip(m, k0, kc), coord.Done)
		if err != nil {
			return false, nil, err
		}
		if ok {
			available++
		}
		parts[j] = w
	}
	lz = cm.lazy(parts, k0)
	if available == len(operands) {
		return true, lz, nil
	}
	for range available {
		coord.Done(nil)
	}
	coord.SetExpected(len(operands))
	return false, lz, nil
}

func (cm *ComputeMatrix) lazy(parts []portion.Window, k0 int) *portion.Lazy {
	run := func(ctx context.Context, parts []portion.Window) (*portion.Buf, error) {
		return nil, cm.op.Run(ctx, parts)
	}
	kc := parts[1].Rows()
	return portion.NewLazy(cm.op.Type(), kc, parts[0].Cols()+parts[1].Cols(), cm.op.Layout(), parts, run, portion.Paired).
		Place(k0, 0, cm.NodeOf(k0/cm.plen))
}
