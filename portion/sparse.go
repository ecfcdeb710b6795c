// SPDX-License-Identifier: MIT

package portion

import (
	"context"
	"slices"

	"github.com/katalvlaran/lazymat/scalar"
)

// Sparse is a CSR window, always RowMajor.
//
// rowPtr has one entry per row of the original extent plus one; its values
// index colIdx and vals directly, so a window may share the arrays of the
// whole matrix. colIdx holds global column numbers, sorted within each row.
type Sparse struct {
	extent
	rowPtr []int
	colIdx []int
	vals   scalar.Vec
}

// Compile-time conformance.
var (
	_ Window   = (*Sparse)(nil)
	_ NonZeros = (*Sparse)(nil)
)

// NewSparse wraps CSR arrays as a rows x cols window placed at (0, 0).
// Panics with ErrBadCSR if the arrays are inconsistent.
func NewSparse(rows, cols int, rowPtr, colIdx []int, vals scalar.Vec) *Sparse {
	if err := ValidateCSR(rows, cols, 0, rowPtr, colIdx, vals.Len()); err != nil {
		panic(err)
	}
	return &Sparse{extent: newExtent(rows, cols), rowPtr: rowPtr, colIdx: colIdx, vals: vals}
}

// NewSparseWindow exposes the rows [a.Row, a.Row+a.Rows) and columns
// [a.Col, a.Col+a.Cols) of a CSR matrix without validation. rowPtr holds the
// a.Rows+1 row pointers of those rows; colIdx and vals are the whole arrays
// of the matrix, which must already satisfy ValidateCSR.
func NewSparseWindow(a Area, rowPtr, colIdx []int, vals scalar.Vec) *Sparse {
	s := &Sparse{extent: newExtent(a.Rows, a.Cols), rowPtr: rowPtr, colIdx: colIdx, vals: vals}
	s.row, s.col = a.Row, a.Col
	return s
}

// ValidateCSR checks CSR arrays for a rows x cols window starting at global
// column col0.
func ValidateCSR(rows, cols, col0 int, rowPtr, colIdx []int, nvals int) error {
	if len(rowPtr) != rows+1 || len(colIdx) != nvals || rowPtr[rows] > nvals || rowPtr[0] < 0 {
		return portionErrorf("ValidateCSR: sizes", ErrBadCSR)
	}
	for r := 0; r < rows; r++ {
		lo, hi := rowPtr[r], rowPtr[r+1]
		if lo > hi {
			return portionErrorf("ValidateCSR: row pointers", ErrBadCSR)
		}
		for k := lo; k < hi; k++ {
			c := colIdx[k] - col0
			if c < 0 || c >= cols || (k > lo && colIdx[k] <= colIdx[k-1]) {
				return portionErrorf("ValidateCSR: column indices", ErrBadCSR)
			}
		}
	}
	return nil
}

// Place sets the global position and NUMA node of the original extent and
// returns s. Column indices are interpreted relative to col from now on.
func (s *Sparse) Place(row, col, node int) *Sparse {
	s.row, s.col, s.node = row, col, node
	return s
}

func (s *Sparse) Type() scalar.Type { return s.vals.Type() }
func (s *Sparse) Layout() Layout    { return RowMajor }
func (s *Sparse) IsSparse() bool    { return true }

// Raw always fails: sparse data has no dense view.
func (s *Sparse) Raw(Layout) (Raw, bool) { return Raw{}, false }

// CSR returns the underlying arrays.
func (s *Sparse) CSR() (rowPtr, colIdx []int, vals scalar.Vec) {
	return s.rowPtr, s.colIdx, s.vals
}

// Values returns the stored values shared with the parent matrix.
func (s *Sparse) Values() scalar.Vec { return s.vals }

// rowRange returns the index range of exposed row r.
func (s *Sparse) rowRange(r int) (int, int) {
	gr := s.area.Row + r
	return s.rowPtr[gr], s.rowPtr[gr+1]
}

// eachStored visits stored elements of the exposed area; k indexes vals.
func (s *Sparse) eachStored(fn func(r, c, k int)) {
	c0 := s.col + s.area.Col
	for r := 0; r < s.area.Rows; r++ {
		lo, hi := s.rowRange(r)
		// colIdx is sorted per row: skip to the first exposed column.
		k, _ := slices.BinarySearch(s.colIdx[lo:hi], c0)
		for k += lo; k < hi; k++ {
			c := s.colIdx[k] - c0
			if c >= s.area.Cols {
				break
			}
			fn(r, c, k)
		}
	}
}

// EachNonZero implements NonZeros.
func (s *Sparse) EachNonZero(fn func(r, c int, v float64)) {
	s.eachStored(func(r, c, k int) { fn(r, c, s.vals.At(k)) })
}

// NNZ implements NonZeros.
func (s *Sparse) NNZ() int {
	n := 0
	s.eachStored(func(int, int, int) { n++ })
	return n
}

// At implements Local.
func (s *Sparse) At(r, c int) float64 {
	lo, hi := s.rowRange(r)
	k, ok := slices.BinarySearch(s.colIdx[lo:hi], s.col+s.area.Col+c)
	if !ok {
		return 0
	}
	return s.vals.At(lo + k)
}

// Transpose returns the CSR form of the transposed exposed area. Unlike the
// dense view this copies the stored elements.
func (s *Sparse) Transpose() Window {
	rows, cols := s.area.Cols, s.area.Rows
	rowPtr := make([]int, rows+1)
	s.eachStored(func(_, c, _ int) { rowPtr[c+1]++ })
	for i := 1; i <= rows; i++ {
		rowPtr[i] += rowPtr[i-1]
	}
	nnz := rowPtr[rows]
	colIdx := make([]int, nnz)
	vals := scalar.NewVec(s.Type(), nnz)
	next := slices.Clone(rowPtr[:rows])
	g := s.GlobalRow()
	// Row order of the source keeps column indices sorted in the result.
	s.eachStored(func(r, c, k int) {
		colIdx[next[c]] = g + r
		vals.SetFrom(next[c], s.vals, k)
		next[c]++
	})
	return &Sparse{
		extent: extent{row: s.GlobalCol(), col: g, rows: rows, cols: cols, area: Full(rows, cols), node: s.node},
		rowPtr: rowPtr,
		colIdx: colIdx,
		vals:   vals,
	}
}

// Resize implements Window.
func (s *Sparse) Resize(a Area) { s.resize(a) }

// Restore implements Window.
func (s *Sparse) Restore(a Area) { s.resize(a) }

// Reset implements Window.
func (s *Sparse) Reset() { s.area = Full(s.rows, s.cols) }

// Materialize is a no-op for stored data.
func (s *Sparse) Materialize(context.Context) error { return nil }
