// SPDX-License-Identifier: MIT
// Package: portion
//
// Purpose:
//   - Lazy is a virtual portion: parts (operand portions) plus a Compute
//     function. Nothing runs until Materialize.
//   - Resizing a lazy portion is forwarded to its parts by a ResizePolicy so
//     that a later Materialize only computes the exposed area.
//
// Contract:
//   - Materialize materializes the parts first, then runs Compute once for
//     the current exposed area; repeated calls are no-ops until a Resize
//     leaves the computed area.
//   - A Compute that returns a nil Buf runs for its side effects only; the
//     portion then stays unreadable (At panics with ErrNotMaterialized).

package portion

import (
	"context"

	"github.com/katalvlaran/lazymat/scalar"
)

// Compute produces the exposed data of a lazy portion from its parts. The
// parts are materialized and resized to match when it is called.
type Compute func(ctx context.Context, parts []Window) (*Buf, error)

// ResizePolicy forwards an area of a lazy portion to its parts.
type ResizePolicy func(a Area, parts []Window)

// Group gives every part the same area; the parts share the portion's shape
// (element-wise expressions).
func Group(a Area, parts []Window) {
	for _, p := range parts {
		p.Resize(a)
	}
}

// Paired resizes the rows of every part and leaves each part's columns at
// their full extent. It serves parts that only share the long dimension of
// a product: the transposed left operand and the right operand.
func Paired(a Area, parts []Window) {
	for _, p := range parts {
		p.Reset()
		full := p.Exposed()
		p.Resize(Area{Row: a.Row, Rows: a.Rows, Col: full.Col, Cols: full.Cols})
	}
}

// Lazy is a virtual portion.
type Lazy struct {
	extent
	typ     scalar.Type
	layout  Layout
	parts   []Window
	compute Compute
	policy  ResizePolicy

	computed bool
	compArea Area
	res      *Buf
}

// Compile-time conformance.
var _ Window = (*Lazy)(nil)

// NewLazy builds a rows x cols virtual portion of type t whose data, once
// computed, has layout l. policy defaults to Group when nil.
func NewLazy(t scalar.Type, rows, cols int, l Layout, parts []Window, compute Compute, policy ResizePolicy) *Lazy {
	if policy == nil {
		policy = Group
	}
	return &Lazy{
		extent:  newExtent(rows, cols),
		typ:     t,
		layout:  l,
		parts:   parts,
		compute: compute,
		policy:  policy,
	}
}

// Place sets the global position and NUMA node and returns lz.
func (lz *Lazy) Place(row, col, node int) *Lazy {
	lz.row, lz.col, lz.node = row, col, node
	return lz
}

// Parts returns the operand portions.
func (lz *Lazy) Parts() []Window { return lz.parts }

// Materialized reports whether the exposed area has been computed.
func (lz *Lazy) Materialized() bool { return lz.computed }

// Result returns the computed buffer, nil before materialization or for a
// side-effect-only compute.
func (lz *Lazy) Result() *Buf { return lz.res }

func (lz *Lazy) Type() scalar.Type { return lz.typ }
func (lz *Lazy) IsSparse() bool    { return false }

// Layout implements Local.
func (lz *Lazy) Layout() Layout {
	if lz.res != nil {
		return lz.res.Layout()
	}
	return lz.layout
}

// At implements Local. Panics with ErrNotMaterialized before Materialize.
func (lz *Lazy) At(r, c int) float64 {
	if lz.res == nil {
		panic(portionErrorf("Lazy.At", ErrNotMaterialized))
	}
	return lz.res.At(r, c)
}

// Raw implements Local.
func (lz *Lazy) Raw(l Layout) (Raw, bool) {
	if lz.res == nil {
		return Raw{}, false
	}
	return lz.res.Raw(l)
}

// Materialize implements Window.
func (lz *Lazy) Materialize(ctx context.Context) error {
	if lz.computed {
		return nil
	}
	for _, p := range lz.parts {
		if err := p.Materialize(ctx); err != nil {
			return err
		}
	}
	b, err := lz.compute(ctx, lz.parts)
	if err != nil {
		return err
	}
	if b != nil {
		checkSameShape("Lazy.Materialize", lz, b)
		lz.res = b.Place(lz.GlobalRow(), lz.GlobalCol(), lz.node)
	}
	lz.computed, lz.compArea = true, lz.area
	return nil
}

// Resize implements Window. A computed result survives as long as the new
// area lies inside the computed one.
func (lz *Lazy) Resize(a Area) {
	lz.resize(a)
	if lz.computed && lz.compArea.Contains(a) {
		if lz.res != nil {
			lz.res.Resize(Area{Row: a.Row - lz.compArea.Row, Col: a.Col - lz.compArea.Col, Rows: a.Rows, Cols: a.Cols})
		}
	} else {
		lz.computed, lz.res = false, nil
	}
	lz.policy(a, lz.parts)
}

// Restore implements Window.
func (lz *Lazy) Restore(a Area) { lz.Resize(a) }

// Reset implements Window.
func (lz *Lazy) Reset() { lz.Resize(Full(lz.rows, lz.cols)) }

// Transpose returns the transposed view of the computed data. Panics with
// ErrNotMaterialized if nothing readable has been computed.
func (lz *Lazy) Transpose() Window {
	if lz.res == nil {
		panic(portionErrorf("Lazy.Transpose", ErrNotMaterialized))
	}
	return lz.res.T()
}
