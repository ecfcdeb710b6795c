// SPDX-License-Identifier: MIT
// Package: portion
//
// Purpose:
//   - Buf is the dense window: a typed backing vector, an offset, a leading
//     dimension and a layout. Every dense portion handed to a kernel is a Buf.
//
// Contract:
//   - (r, c) of the original extent maps to off + r*ld + c (RowMajor) or
//     off + c*ld + r (ColMajor).
//   - Transpose and Sub are views sharing storage; Clone copies.
//   - CopyFrom converts layout and element type; shapes must agree.
//
// Complexity:
//   - At/Set: O(1). Row/Col: O(len). CopyFrom: O(rows*cols).

package portion

import (
	"context"

	"github.com/katalvlaran/lazymat/scalar"
)

// Buf is a dense portion.
type Buf struct {
	extent
	data   scalar.Vec
	off    int
	ld     int
	layout Layout
}

// Compile-time conformance.
var _ Window = (*Buf)(nil)

// NewBuf allocates a zeroed rows x cols buffer of type t in layout l.
// Panics on an invalid type or layout.
func NewBuf(t scalar.Type, rows, cols int, l Layout) *Buf {
	mustLayout(l)
	return &Buf{
		extent: newExtent(rows, cols),
		data:   scalar.NewVec(t, rows*cols),
		ld:     leading(rows, cols, l),
		layout: l,
	}
}

// Wrap exposes data (rows*cols elements in layout l) as a Buf without copying.
func Wrap(data scalar.Vec, rows, cols int, l Layout) *Buf {
	mustLayout(l)
	if data.Len() != rows*cols {
		panic(portionErrorf("Wrap", ErrShapeMismatch))
	}
	return &Buf{
		extent: newExtent(rows, cols),
		data:   data,
		ld:     leading(rows, cols, l),
		layout: l,
	}
}

func leading(rows, cols int, l Layout) int {
	if l == RowMajor {
		return max(1, cols)
	}
	return max(1, rows)
}

// Place sets the global position and the NUMA node of the buffer's original
// extent and returns b.
func (b *Buf) Place(row, col, node int) *Buf {
	b.row, b.col, b.node = row, col, node
	return b
}

func (b *Buf) Type() scalar.Type { return b.data.Type() }
func (b *Buf) Layout() Layout    { return b.layout }
func (b *Buf) IsSparse() bool    { return false }

// Stride returns the leading dimension.
func (b *Buf) Stride() int { return b.ld }

// idx maps (r, c) of the original extent to the backing index.
func (b *Buf) idx(r, c int) int {
	if b.layout == RowMajor {
		return b.off + r*b.ld + c
	}
	return b.off + c*b.ld + r
}

// at maps (r, c) of the exposed area to the backing index.
func (b *Buf) at(r, c int) int { return b.idx(b.area.Row+r, b.area.Col+c) }

// At implements Local.
func (b *Buf) At(r, c int) float64 { return b.data.At(b.at(r, c)) }

// Set stores v at (r, c) of the exposed area.
func (b *Buf) Set(r, c int, v float64) { b.data.Set(b.at(r, c), v) }

// Raw implements Local. The returned Data starts at the first exposed
// element and ends at the last one.
func (b *Buf) Raw(l Layout) (Raw, bool) {
	if l != b.layout {
		return Raw{}, false
	}
	if b.area.Empty() {
		return Raw{Data: b.data.Slice(0, 0), Stride: b.ld}, true
	}
	first := b.at(0, 0)
	last := b.at(b.area.Rows-1, b.area.Cols-1)
	return Raw{Data: b.data.Slice(first, last+1), Stride: b.ld}, true
}

// Contiguous returns the exposed elements as one vector when they occupy a
// gap-free range of the backing storage.
func (b *Buf) Contiguous() (scalar.Vec, bool) {
	if b.area.Empty() {
		return b.data.Slice(0, 0), true
	}
	inner := b.area.Cols
	if b.layout == ColMajor {
		inner = b.area.Rows
	}
	if inner != b.ld {
		return scalar.Vec{}, false
	}
	first := b.at(0, 0)
	return b.data.Slice(first, first+b.area.Size()), true
}

// line returns the contiguous storage of exposed row (RowMajor) or exposed
// column (ColMajor) i.
func (b *Buf) line(i int) scalar.Vec {
	if b.layout == RowMajor {
		s := b.at(i, 0)
		return b.data.Slice(s, s+b.area.Cols)
	}
	s := b.at(0, i)
	return b.data.Slice(s, s+b.area.Rows)
}

func (b *Buf) lines() int {
	if b.layout == RowMajor {
		return b.area.Rows
	}
	return b.area.Cols
}

// Row copies exposed row i into dst (len Cols()).
func (b *Buf) Row(i int, dst scalar.Vec) {
	if b.layout == RowMajor {
		scalar.Gather(dst, b.data, b.at(i, 0), 1)
		return
	}
	scalar.Gather(dst, b.data, b.at(i, 0), b.ld)
}

// Col copies exposed column j into dst (len Rows()).
func (b *Buf) Col(j int, dst scalar.Vec) {
	if b.layout == ColMajor {
		scalar.Gather(dst, b.data, b.at(0, j), 1)
		return
	}
	scalar.Gather(dst, b.data, b.at(0, j), b.ld)
}

// SetCol stores src (len Rows()) as exposed column j.
func (b *Buf) SetCol(j int, src scalar.Vec) {
	if b.layout == ColMajor {
		scalar.Scatter(b.data, b.at(0, j), 1, src)
		return
	}
	scalar.Scatter(b.data, b.at(0, j), b.ld, src)
}

// Zero clears the exposed area.
func (b *Buf) Zero() {
	if v, ok := b.Contiguous(); ok {
		v.Zero()
		return
	}
	for i := 0; i < b.lines(); i++ {
		b.line(i).Zero()
	}
}

// CopyFrom copies the exposed area of src into the exposed area of b,
// converting layout and element type as needed. Panics with
// ErrShapeMismatch if the exposed extents differ.
func (b *Buf) CopyFrom(src Local) {
	checkSameShape("Buf.CopyFrom", b, src)
	if lz, ok := src.(*Lazy); ok && lz.res != nil {
		src = lz.res
	}
	switch s := src.(type) {
	case *Buf:
		b.copyBuf(s)
	case *Sparse:
		b.Zero()
		s.eachStored(func(r, c, k int) {
			b.data.SetFrom(b.at(r, c), s.vals, k)
		})
	default:
		for r := 0; r < b.area.Rows; r++ {
			for c := 0; c < b.area.Cols; c++ {
				b.Set(r, c, src.At(r, c))
			}
		}
	}
}

func (b *Buf) copyBuf(s *Buf) {
	if b.Type() != s.Type() {
		for r := 0; r < b.area.Rows; r++ {
			for c := 0; c < b.area.Cols; c++ {
				b.data.SetFrom(b.at(r, c), s.data, s.at(r, c))
			}
		}
		return
	}
	for i := 0; i < b.lines(); i++ {
		stride := 1
		var start int
		if b.layout == RowMajor {
			start = s.at(i, 0)
			if s.layout == ColMajor {
				stride = s.ld
			}
		} else {
			start = s.at(0, i)
			if s.layout == RowMajor {
				stride = s.ld
			}
		}
		scalar.Gather(b.line(i), s.data, start, stride)
	}
}

// Clone returns a contiguous copy of the exposed area, in the same layout
// and at the same global position.
func (b *Buf) Clone() *Buf {
	out := NewBuf(b.Type(), b.area.Rows, b.area.Cols, b.layout).Place(b.GlobalRow(), b.GlobalCol(), b.node)
	out.copyBuf(b)
	return out
}

// Sub returns a view whose original extent is a, given relative to the
// exposed area of b. Panics with ErrResizeOutOfBounds if a does not fit.
func (b *Buf) Sub(a Area) *Buf {
	if !Full(b.area.Rows, b.area.Cols).Contains(a) {
		panic(portionErrorf("Buf.Sub "+a.String(), ErrResizeOutOfBounds))
	}
	out := &Buf{
		extent: newExtent(a.Rows, a.Cols),
		data:   b.data,
		ld:     b.ld,
		layout: b.layout,
	}
	if !a.Empty() {
		out.off = b.at(a.Row, a.Col)
	}
	out.row, out.col, out.node = b.GlobalRow()+a.Row, b.GlobalCol()+a.Col, b.node
	return out
}

// Transpose returns a view with swapped dimensions and flipped layout.
func (b *Buf) Transpose() Window { return b.T() }

// T is Transpose with a concrete result type.
func (b *Buf) T() *Buf {
	return &Buf{
		extent: b.extent.transposed(),
		data:   b.data,
		off:    b.off,
		ld:     b.ld,
		layout: b.layout.Flip(),
	}
}

// Resize implements Window.
func (b *Buf) Resize(a Area) { b.resize(a) }

// Restore implements Window.
func (b *Buf) Restore(a Area) { b.resize(a) }

// Reset implements Window.
func (b *Buf) Reset() { b.area = Full(b.rows, b.cols) }

// Materialize is a no-op: a Buf always holds its data.
func (b *Buf) Materialize(context.Context) error { return nil }
