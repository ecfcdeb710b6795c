// SPDX-License-Identifier: MIT

// Package matrix: descriptor types shared by every store and expression node.
package matrix

import (
	"context"
	"fmt"
	"slices"
	"sync/atomic"

	"github.com/katalvlaran/lazymat/portion"
	"github.com/katalvlaran/lazymat/scalar"
	"github.com/samber/lo"
)

// ID is a process-unique matrix identity.
type ID uint64

var lastID atomic.Uint64

// NewID returns a fresh identity.
func NewID() ID { return ID(lastID.Add(1)) }

// Shape describes the data behind an identity.
type Shape struct {
	Rows, Cols int
	Type       scalar.Type
}

// Deps is a dependency set: the concrete matrices an expression reads.
type Deps map[ID]Shape

// Merge returns the union of d and others. Entries already present win over
// later ones, so merging never overwrites.
func (d Deps) Merge(others ...Deps) Deps {
	// lo.Assign lets later maps win: feed others back to front, d last.
	maps := make([]map[ID]Shape, 0, len(others)+1)
	for i := len(others) - 1; i >= 0; i-- {
		maps = append(maps, others[i])
	}
	return lo.Assign(append(maps, d)...)
}

// IDs lists the identities in ascending order.
func (d Deps) IDs() []ID {
	ids := lo.Keys(d)
	slices.Sort(ids)
	return ids
}

// Matrix is an immutable matrix descriptor that serves portions.
type Matrix interface {
	ID() ID
	Name() string
	Rows() int
	Cols() int
	Type() scalar.Type
	Layout() portion.Layout
	// InMem reports whether portions are served from memory without I/O.
	InMem() bool
	// Node is the NUMA node of the matrix, -1 if none.
	Node() int
	IsSparse() bool
	// PortionSize is the preferred portion extent.
	PortionSize() (rows, cols int)

	// GetPortion returns the window over area a, blocking until its data
	// is available (virtual matrices return a lazy window).
	GetPortion(ctx context.Context, a portion.Area) (portion.Window, error)
	// GetPortionAsync starts fetching a. When the data is already
	// available it returns available == true and never calls done.
	// Otherwise done is called exactly once when the window is filled.
	GetPortionAsync(ctx context.Context, a portion.Area, done func(error)) (available bool, w portion.Window, err error)

	// Underlying returns the concrete matrices this matrix reads.
	Underlying() Deps
	// Transpose returns the transposed matrix (a view where possible).
	Transpose() Matrix
}

// Placer is implemented by matrices that know the NUMA node of a portion
// before fetching it.
type Placer interface {
	NodeOf(a portion.Area) int
}

// PortionAreas cuts m into its portions in order along the long dimension.
func PortionAreas(m Matrix) []portion.Area {
	pr, pc := m.PortionSize()
	rows, cols := m.Rows(), m.Cols()
	var out []portion.Area
	for r := 0; r < rows; r += pr {
		for c := 0; c < cols; c += pc {
			out = append(out, portion.Area{Row: r, Col: c, Rows: min(pr, rows-r), Cols: min(pc, cols-c)})
		}
	}
	return out
}

// desc carries the descriptor fields common to the stores.
type desc struct {
	id       ID
	name     string
	rows     int
	cols     int
	typ      scalar.Type
	layout   portion.Layout
	node     int
	numNodes int
	plen     int
	shape    Shape // of the underlying data; survives Transpose
}

func newDesc(kind string, rows, cols int, t scalar.Type, o Options) desc {
	d := desc{
		id:       NewID(),
		name:     o.name,
		rows:     rows,
		cols:     cols,
		typ:      t,
		layout:   o.layout,
		node:     o.node,
		numNodes: o.numNodes,
		plen:     o.portionLen,
		shape:    Shape{Rows: rows, Cols: cols, Type: t},
	}
	if d.name == "" {
		d.name = fmt.Sprintf("%s%d", kind, d.id)
	}
	return d
}

func (d *desc) ID() ID                 { return d.id }
func (d *desc) Name() string           { return d.name }
func (d *desc) Rows() int              { return d.rows }
func (d *desc) Cols() int              { return d.cols }
func (d *desc) Type() scalar.Type      { return d.typ }
func (d *desc) Layout() portion.Layout { return d.layout }
func (d *desc) Node() int              { return d.node }
func (d *desc) Underlying() Deps       { return Deps{d.id: d.shape} }

// PortionSize implements Matrix: full width strips of a tall matrix, full
// height strips of a wide one.
func (d *desc) PortionSize() (int, int) {
	if d.rows >= d.cols {
		return min(d.plen, d.rows), d.cols
	}
	return d.rows, min(d.plen, d.cols)
}

// NodeOf implements Placer.
func (d *desc) NodeOf(a portion.Area) int {
	if d.numNodes <= 0 {
		return d.node
	}
	start := a.Row
	if d.rows < d.cols {
		start = a.Col
	}
	return (start / d.plen) % d.numNodes
}

func (d *desc) transposed() desc {
	t := *d
	t.rows, t.cols = d.cols, d.rows
	t.layout = d.layout.Flip()
	t.name = "t(" + d.name + ")"
	return t
}

// checkArea returns ErrOutOfRange unless a lies inside the matrix.
func (d *desc) checkArea(tag string, a portion.Area) error {
	if !portion.Full(d.rows, d.cols).Contains(a) {
		return matrixErrorf(fmt.Sprintf("%s %s of %dx%d", tag, a, d.rows, d.cols), ErrOutOfRange)
	}
	return nil
}
