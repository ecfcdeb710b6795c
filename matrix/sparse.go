// SPDX-License-Identifier: MIT

package matrix

import (
	"context"
	"fmt"

	"github.com/katalvlaran/lazymat/portion"
	"github.com/katalvlaran/lazymat/scalar"
)

// Sparse is an in-memory CSR matrix. Portions share its arrays.
type Sparse struct {
	desc
	rowPtr []int
	colIdx []int
	vals   scalar.Vec
}

// Compile-time conformance.
var _ Matrix = (*Sparse)(nil)

// NewSparse wraps CSR arrays: rowPtr (rows+1 entries), sorted column indices
// per row, and one value per stored element. The layout is always RowMajor.
//
// Errors: ErrInvalidDimensions, ErrBadCSR.
func NewSparse(rows, cols int, rowPtr, colIdx []int, vals scalar.Vec, opts ...Option) (*Sparse, error) {
	if rows <= 0 || cols <= 0 {
		return nil, matrixErrorf(fmt.Sprintf("NewSparse(%d,%d)", rows, cols), ErrInvalidDimensions)
	}
	if err := portion.ValidateCSR(rows, cols, 0, rowPtr, colIdx, vals.Len()); err != nil {
		return nil, matrixErrorf(err.Error(), ErrBadCSR)
	}
	o := gatherOptions(opts...)
	o.layout = portion.RowMajor
	return &Sparse{
		desc:   newDesc("sparse", rows, cols, vals.Type(), o),
		rowPtr: rowPtr,
		colIdx: colIdx,
		vals:   vals,
	}, nil
}

// SparseFromMem keeps the non-zero elements of m.
func SparseFromMem(m *Mem, opts ...Option) *Sparse {
	rm := portion.NewBuf(m.typ, m.rows, m.cols, portion.RowMajor)
	rm.CopyFrom(m.buf)
	raw, _ := rm.Raw(portion.RowMajor)

	rowPtr := make([]int, 1, m.rows+1)
	var colIdx, kept []int // kept: flat indices into raw.Data
	for i := 0; i < m.rows; i++ {
		for j := 0; j < m.cols; j++ {
			if raw.Data.At(i*raw.Stride+j) != 0 {
				colIdx = append(colIdx, j)
				kept = append(kept, i*raw.Stride+j)
			}
		}
		rowPtr = append(rowPtr, len(colIdx))
	}
	vals := scalar.NewVec(m.typ, len(kept))
	for k, idx := range kept {
		vals.SetFrom(k, raw.Data, idx)
	}
	o := gatherOptions(opts...)
	o.layout = portion.RowMajor
	return &Sparse{desc: newDesc("sparse", m.rows, m.cols, m.typ, o), rowPtr: rowPtr, colIdx: colIdx, vals: vals}
}

// InMem implements Matrix.
func (s *Sparse) InMem() bool { return true }

// IsSparse implements Matrix.
func (s *Sparse) IsSparse() bool { return true }

// NNZ returns the number of stored elements.
func (s *Sparse) NNZ() int { return s.rowPtr[s.rows] }

// GetPortion implements Matrix.
func (s *Sparse) GetPortion(_ context.Context, a portion.Area) (portion.Window, error) {
	if err := s.checkArea("Sparse.GetPortion", a); err != nil {
		return nil, err
	}
	w := portion.NewSparseWindow(a, s.rowPtr[a.Row:a.Row+a.Rows+1], s.colIdx, s.vals)
	return w.Place(a.Row, a.Col, s.NodeOf(a)), nil
}

// GetPortionAsync implements Matrix; in-memory data is always available.
func (s *Sparse) GetPortionAsync(ctx context.Context, a portion.Area, _ func(error)) (bool, portion.Window, error) {
	w, err := s.GetPortion(ctx, a)
	return err == nil, w, err
}

// Transpose implements Matrix. The CSR arrays of the transpose are built
// eagerly (O(nnz)); the identity is kept.
func (s *Sparse) Transpose() Matrix {
	w := portion.NewSparseWindow(portion.Full(s.rows, s.cols), s.rowPtr, s.colIdx, s.vals)
	tr := w.Transpose().(*portion.Sparse)
	rowPtr, colIdx, vals := tr.CSR()
	d := s.desc.transposed()
	d.layout = portion.RowMajor
	return &Sparse{desc: d, rowPtr: rowPtr, colIdx: colIdx, vals: vals}
}
