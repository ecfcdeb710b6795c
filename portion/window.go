// SPDX-License-Identifier: MIT

package portion

import (
	"context"

	"github.com/katalvlaran/lazymat/scalar"
)

// Raw is typed dense data with a leading dimension. For a RowMajor raw view
// element (r, c) lives at Data[r*Stride+c]; for ColMajor at Data[c*Stride+r].
type Raw struct {
	Data   scalar.Vec
	Stride int
}

// Local is the read-only face of a portion.
type Local interface {
	// GlobalRow and GlobalCol locate the exposed area in the parent matrix.
	GlobalRow() int
	GlobalCol() int
	// Rows and Cols are the exposed extent.
	Rows() int
	Cols() int
	Type() scalar.Type
	Layout() Layout
	// Node is the NUMA node holding the data, -1 if unknown.
	Node() int
	IsSparse() bool
	// At reads element (r, c) of the exposed area.
	At(r, c int) float64
	// Raw returns the exposed data when it is materialized in memory with
	// layout l. Otherwise ok is false and callers copy through CopyFrom.
	Raw(l Layout) (r Raw, ok bool)
}

// Window is a mutable view over a portion.
type Window interface {
	Local
	// Exposed reports the current area relative to the original extent.
	Exposed() Area
	// Resize exposes a (relative to the original extent). It never
	// reallocates and panics with ErrResizeOutOfBounds if a does not fit.
	Resize(a Area)
	// Restore returns to an area captured earlier with Exposed.
	Restore(a Area)
	// Reset exposes the original extent again.
	Reset()
	// Transpose returns the transposed window.
	Transpose() Window
	// Materialize computes the exposed data if the window is virtual.
	Materialize(ctx context.Context) error
}

// NonZeros is implemented by sparse windows.
type NonZeros interface {
	// EachNonZero calls fn for every stored element of the exposed area in
	// row order; r and c are relative to the exposed area.
	EachNonZero(fn func(r, c int, v float64))
	// NNZ counts the stored elements of the exposed area.
	NNZ() int
}

// extent carries the bookkeeping shared by every window kind.
type extent struct {
	row, col   int // global position of the original extent
	rows, cols int // original extent
	area       Area
	node       int
}

func newExtent(rows, cols int) extent {
	return extent{rows: rows, cols: cols, area: Full(rows, cols), node: -1}
}

func (e *extent) GlobalRow() int { return e.row + e.area.Row }
func (e *extent) GlobalCol() int { return e.col + e.area.Col }
func (e *extent) Rows() int      { return e.area.Rows }
func (e *extent) Cols() int      { return e.area.Cols }
func (e *extent) Node() int      { return e.node }
func (e *extent) Exposed() Area  { return e.area }

func (e *extent) resize(a Area) {
	if !Full(e.rows, e.cols).Contains(a) {
		panic(portionErrorf("Resize "+a.String()+" of "+Full(e.rows, e.cols).String(), ErrResizeOutOfBounds))
	}
	e.area = a
}

func (e *extent) transposed() extent {
	return extent{
		row: e.col, col: e.row,
		rows: e.cols, cols: e.rows,
		area: e.area.Transpose(),
		node: e.node,
	}
}

// checkSameShape panics with ErrShapeMismatch unless dst and src expose the
// same extent.
func checkSameShape(tag string, dst, src Local) {
	if dst.Rows() != src.Rows() || dst.Cols() != src.Cols() {
		panic(portionErrorf(tag, ErrShapeMismatch))
	}
}
