// SPDX-License-Identifier: MIT
// Package: matrix
//
// Purpose:
//   - Mem is the in-memory dense store: one typed buffer in row- or
//     column-major layout. Portions are no-copy views of that buffer.
//
// Contract:
//   - GetPortion/GetPortionAsync never block and never copy.
//   - Transpose is a view with swapped dimensions, flipped layout and the
//     same identity.
//   - With WithNumNodes(n), portion i along the long dimension reports node
//     i % n; the data itself is one Go allocation.
//
// Complexity:
//   - NewMem: O(rows*cols) zeroing. GetPortion: O(1). At/Set: O(1).

package matrix

import (
	"context"
	"fmt"

	"github.com/katalvlaran/lazymat/portion"
	"github.com/katalvlaran/lazymat/scalar"
)

// Mem is an in-memory dense matrix.
type Mem struct {
	desc
	buf *portion.Buf // whole matrix; never resized
}

// Compile-time conformance.
var (
	_ Matrix = (*Mem)(nil)
	_ Placer = (*Mem)(nil)
)

// NewMem allocates a zeroed rows x cols matrix of element type t.
//
// Implementation:
//   - Stage 1 (Validate): rows, cols > 0 and t valid.
//   - Stage 2 (Prepare): gather options, allocate the buffer in the layout.
//
// Errors: ErrInvalidDimensions, scalar.ErrInvalidType.
func NewMem(rows, cols int, t scalar.Type, opts ...Option) (*Mem, error) {
	if rows <= 0 || cols <= 0 {
		return nil, matrixErrorf(fmt.Sprintf("NewMem(%d,%d)", rows, cols), ErrInvalidDimensions)
	}
	if !t.Valid() {
		return nil, matrixErrorf("NewMem", scalar.ErrInvalidType)
	}
	o := gatherOptions(opts...)
	return &Mem{
		desc: newDesc("mem", rows, cols, t, o),
		buf:  portion.NewBuf(t, rows, cols, o.layout),
	}, nil
}

// FromSlice wraps data, laid out in the configured layout, without copying.
//
// Errors: ErrInvalidDimensions, ErrDimensionMismatch (len(data) != rows*cols).
func FromSlice[T scalar.Elem](rows, cols int, data []T, opts ...Option) (*Mem, error) {
	if rows <= 0 || cols <= 0 {
		return nil, matrixErrorf(fmt.Sprintf("FromSlice(%d,%d)", rows, cols), ErrInvalidDimensions)
	}
	if len(data) != rows*cols {
		return nil, matrixErrorf(fmt.Sprintf("FromSlice: len %d for %dx%d", len(data), rows, cols), ErrDimensionMismatch)
	}
	o := gatherOptions(opts...)
	return &Mem{
		desc: newDesc("mem", rows, cols, scalar.TypeOf[T](), o),
		buf:  portion.Wrap(scalar.VecOf(data), rows, cols, o.layout),
	}, nil
}

// FromBuf adopts the exposed area of b as a matrix. The layout comes from
// b; WithLayout is ignored. b's storage is shared, not copied.
func FromBuf(b *portion.Buf, opts ...Option) *Mem {
	o := gatherOptions(opts...)
	o.layout = b.Layout()
	whole := b.Sub(portion.Full(b.Rows(), b.Cols())).Place(0, 0, o.node)
	return &Mem{desc: newDesc("mem", b.Rows(), b.Cols(), b.Type(), o), buf: whole}
}

// InMem implements Matrix.
func (m *Mem) InMem() bool { return true }

// IsSparse implements Matrix.
func (m *Mem) IsSparse() bool { return false }

// Buf returns the whole-matrix buffer. Callers must not resize it.
func (m *Mem) Buf() *portion.Buf { return m.buf }

// Window returns a writable view of area a.
func (m *Mem) Window(a portion.Area) (*portion.Buf, error) {
	if err := m.checkArea("Mem.Window", a); err != nil {
		return nil, err
	}
	return m.buf.Sub(a).Place(a.Row, a.Col, m.NodeOf(a)), nil
}

// GetPortion implements Matrix.
func (m *Mem) GetPortion(_ context.Context, a portion.Area) (portion.Window, error) {
	w, err := m.Window(a)
	if err != nil {
		return nil, err
	}
	return w, nil
}

// GetPortionAsync implements Matrix; in-memory data is always available.
func (m *Mem) GetPortionAsync(ctx context.Context, a portion.Area, _ func(error)) (bool, portion.Window, error) {
	w, err := m.GetPortion(ctx, a)
	return err == nil, w, err
}

// Transpose implements Matrix with a no-copy view.
func (m *Mem) Transpose() Matrix { return m.T() }

// T is Transpose with a concrete result type.
func (m *Mem) T() *Mem { return &Mem{desc: m.desc.transposed(), buf: m.buf.T()} }

// At returns element (i, j).
// Errors: ErrOutOfRange.
func (m *Mem) At(i, j int) (float64, error) {
	if i < 0 || i >= m.rows || j < 0 || j >= m.cols {
		return 0, matrixErrorf(fmt.Sprintf("Mem.At(%d,%d)", i, j), ErrOutOfRange)
	}
	return m.buf.At(i, j), nil
}

// Set assigns v at (i, j), converting to the element type.
// Errors: ErrOutOfRange.
func (m *Mem) Set(i, j int, v float64) error {
	if i < 0 || i >= m.rows || j < 0 || j >= m.cols {
		return matrixErrorf(fmt.Sprintf("Mem.Set(%d,%d)", i, j), ErrOutOfRange)
	}
	m.buf.Set(i, j, v)
	return nil
}

// Float64s returns a row-major float64 copy of the matrix.
func (m *Mem) Float64s() []float64 {
	out := make([]float64, 0, m.rows*m.cols)
	for i := 0; i < m.rows; i++ {
		for j := 0; j < m.cols; j++ {
			out = append(out, m.buf.At(i, j))
		}
	}
	return out
}

// String implements fmt.Stringer.
func (m *Mem) String() string {
	return fmt.Sprintf("%s<%v %dx%d %v>", m.name, m.typ, m.rows, m.cols, m.layout)
}
