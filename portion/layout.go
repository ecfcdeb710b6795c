// SPDX-License-Identifier: MIT

package portion

import "fmt"

// Layout is the storage order of a dense portion.
type Layout uint8

const (
	// LayoutNone means "no preference" where a layout is optional.
	LayoutNone Layout = iota
	// RowMajor stores each row contiguously.
	RowMajor
	// ColMajor stores each column contiguously.
	ColMajor
)

// Flip returns the other storage order. LayoutNone stays LayoutNone.
func (l Layout) Flip() Layout {
	switch l {
	case RowMajor:
		return ColMajor
	case ColMajor:
		return RowMajor
	default:
		return l
	}
}

// Valid reports whether l names a concrete storage order.
func (l Layout) Valid() bool { return l == RowMajor || l == ColMajor }

// String implements fmt.Stringer.
func (l Layout) String() string {
	switch l {
	case LayoutNone:
		return "none"
	case RowMajor:
		return "row-major"
	case ColMajor:
		return "col-major"
	default:
		return fmt.Sprintf("Layout(%d)", uint8(l))
	}
}

func mustLayout(l Layout) {
	if !l.Valid() {
		panic(portionErrorf(l.String(), ErrInvalidLayout))
	}
}

// Area is a rectangle: a top-left corner and an extent.
type Area struct {
	Row, Col   int
	Rows, Cols int
}

// Full returns the area [0,rows) x [0,cols).
func Full(rows, cols int) Area { return Area{Rows: rows, Cols: cols} }

// Empty reports whether the area covers no element.
func (a Area) Empty() bool { return a.Rows <= 0 || a.Cols <= 0 }

// Transpose swaps the row and column components.
func (a Area) Transpose() Area {
	return Area{Row: a.Col, Col: a.Row, Rows: a.Cols, Cols: a.Rows}
}

// Contains reports whether b lies within a.
func (a Area) Contains(b Area) bool {
	return b.Row >= a.Row && b.Col >= a.Col && b.Rows >= 0 && b.Cols >= 0 &&
		b.Row+b.Rows <= a.Row+a.Rows && b.Col+b.Cols <= a.Col+a.Cols
}

// Size returns Rows*Cols.
func (a Area) Size() int { return a.Rows * a.Cols }

// String implements fmt.Stringer.
func (a Area) String() string {
	return fmt.Sprintf("[%d:%d, %d:%d]", a.Row, a.Row+a.Rows, a.Col, a.Col+a.Cols)
}
