// SPDX-License-Identifier: MIT
// Package: engine
//
// Purpose:
//   - Mapply is the lazy element-wise expression A op B. Its portions are
//     lazy windows over the operand portions; nothing is computed until a
//     portion is materialized, and only for the exposed area.
//
// Contract:
//   - Operands share shape and element type; op consumes that type.
//   - A Mapply portion can be read by any goroutine: computing it does not
//     use the pool.
//   - Materialize evaluates every portion on the pool into a Mem, once.

package engine

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/katalvlaran/lazymat/matrix"
	"github.com/katalvlaran/lazymat/portion"
	"github.com/katalvlaran/lazymat/scalar"
)

// Mapply is an element-wise expression node.
type Mapply struct {
	id     matrix.ID
	name   string
	a, b   matrix.Matrix
	op     scalar.BinaryOp
	layout portion.Layout
	opts   Options
	user   []Option

	done   atomic.Bool

	mu     sync.Mutex
	result *matrix.Mem
}

var _ matrix.Matrix = (*Mapply)(nil)

// NewMapply returns the lazy element-wise a op b. The result layout is a's
// unless WithOutputLayout is given.
// Panics on nil operands, mismatched shapes or element types, and an op
// that does not consume the operand type.
func NewMapply(a, b matrix.Matrix, op scalar.BinaryOp, opts ...Option) *Mapply {
	if err := matrix.ValidateSameShape(a, b); err != nil {
		panic(engineErrorf("NewMapply", err))
	}
	if op.InputType() != a.Type() {
		panic(engineErrorf(fmt.Sprintf("NewMapply %v on %v", op, a.Type()), scalar.ErrTypeMismatch))
	}
	o := gatherOptions(opts...)
	m := &Mapply{
		id:     matrix.NewID(),
		name:   o.name,
		a:      a,
		b:      b,
		op:     op,
		layout: a.Layout(),
		opts:   o,
		user:   opts,
	}
	if o.outLayout.Valid() {
		m.layout = o.outLayout
	}
	if m.name == "" {
		m.name = fmt.Sprintf("%s(%s, %s)", op.Name(), a.Name(), b.Name())
	}
	return m
}

func (m *Mapply) ID() matrix.ID          { return m.id }
func (m *Mapply) Name() string           { return m.name }
func (m *Mapply) Rows() int              { return m.a.Rows() }
func (m *Mapply) Cols() int              { return m.a.Cols() }
func (m *Mapply) Type() scalar.Type      { return m.op.OutputType() }
func (m *Mapply) Layout() portion.Layout { return m.layout }
func (m *Mapply) Node() int              { return m.a.Node() }
func (m *Mapply) IsSparse() bool         { return false }

// InMem implements matrix.Matrix: true when both operands are in memory.
func (m *Mapply) InMem() bool { return m.a.InMem() && m.b.InMem() }

// PortionSize implements matrix.Matrix: the portions of a.
func (m *Mapply) PortionSize() (int, int) { return m.a.PortionSize() }

// Underlying implements matrix.Matrix.
func (m *Mapply) Underlying() matrix.Deps {
	return m.a.Underlying().Merge(m.b.Underlying())
}

// Transpose implements matrix.Matrix: aᵀ op bᵀ, or a view of the result.
func (m *Mapply) Transpose() matrix.Matrix {
	m.mu.Lock()
	res := m.result
	m.mu.Unlock()
	if res != nil {
		return res.T()
	}
	opts := append(append([]Option(nil), m.user...), WithOutputLayout(m.layout.Flip()), WithName("t("+m.name+")"))
	return NewMapply(m.a.Transpose(), m.b.Transpose(), m.op, opts...)
}

// nodeOf is the NUMA node of area a of the first operand, -1 if unknown.
func (m *Mapply) nodeOf(a portion.Area) int {
	if p, ok := m.a.(matrix.Placer); ok {
		return p.NodeOf(a)
	}
	return -1
}

// GetPortion implements matrix.Matrix with a lazy window.
func (m *Mapply) GetPortion(ctx context.Context, a portion.Area) (portion.Window, error) {
	if res := m.Result(); res != nil {
		return res.GetPortion(ctx, a)
	}
	pa, err := m.a.GetPortion(ctx, a)
	if err != nil {
		return nil, err
	}
	pb, err := m.b.GetPortion(ctx, a)
	if err != nil {
		return nil, err
	}
	return m.lazy(a, pa, pb), nil
}

// GetPortionAsync implements matrix.Matrix: done fires once both operand
// portions arrived.
func (m *Mapply) GetPortionAsync(ctx context.Context, a portion.Area, done func(error)) (bool, portion.Window, error) {
	if res := m.Result(); res != nil {
		return res.GetPortionAsync(ctx, a, done)
	}
	coord := newCoordinator(0, done, m.opts.logger)
	parts := make([]portion.Window, 2)
	available := 0
	for i, x := range []matrix.Matrix{m.a, m.b} {
		ok, w, err := x.GetPortionAsync(ctx, a, coord.Done)
		if err != nil {
			return false, nil, err
		}
		if ok {
			available++
		}
		parts[i] = w
	}
	lz := m.lazy(a, parts[0], parts[1])
	if available == len(parts) {
		return true, lz, nil
	}
	for range available {
		coord.Done(nil)
	}
	coord.SetExpected(len(parts))
	return false, lz, nil
}

func (m *Mapply) lazy(a portion.Area, pa, pb portion.Window) *portion.Lazy {
	return portion.NewLazy(m.Type(), a.Rows, a.Cols, m.layout, []portion.Window{pa, pb}, m.compute, portion.Group).
		Place(a.Row, a.Col, m.nodeOf(a))
}

// compute applies op to the exposed area of the parts.
func (m *Mapply) compute(_ context.Context, parts []portion.Window) (*portion.Buf, error) {
	rows, cols := parts[0].Rows(), parts[0].Cols()
	out := portion.NewBuf(m.Type(), rows, cols, m.layout)
	ov, _ := out.Contiguous()
	if err := m.op.Elementwise(contiguous(parts[0], m.layout), contiguous(parts[1], m.layout), ov); err != nil {
		return nil, err
	}
	return out, nil
}

// contiguous returns the exposed data of w as one vector in layout l,
// copying unless w already stores it that way.
func contiguous(w portion.Window, l portion.Layout) scalar.Vec {
	b := dense(w, l)
	if v, ok := b.Contiguous(); ok {
		return v
	}
	v, _ := b.Clone().Contiguous()
	return v
}

// Result returns the materialized matrix, nil before Materialize.
func (m *Mapply) Result() *matrix.Mem {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.result
}

// HasMaterialized reports whether Materialize completed. It does not wait
// for a running Materialize.
func (m *Mapply) HasMaterialized() bool { return m.done.Load() }

// Materialize evaluates every portion on the pool into a Mem, once.
func (m *Mapply) Materialize(ctx context.Context) (*matrix.Mem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.result != nil {
		return m.result, nil
	}
	if err := m.prepare(ctx); err != nil {
		return nil, err
	}
	res, err := matrix.NewMem(m.Rows(), m.Cols(), m.Type(), matrix.WithLayout(m.layout), matrix.WithName(m.name))
	if err != nil {
		return nil, err
	}
	start := time.Now()
	areas := matrix.PortionAreas(m)
	err = m.opts.pool.ParallelForAffinity(ctx, len(areas), func(i int) int { return m.nodeOf(areas[i]) },
		func(ctx context.Context, i int) error {
			a := areas[i]
			pa, err := m.a.GetPortion(ctx, a)
			if err != nil {
				return err
			}
			pb, err := m.b.GetPortion(ctx, a)
			if err != nil {
				return err
			}
			lz := m.lazy(a, pa, pb)
			if err := lz.Materialize(ctx); err != nil {
				return err
			}
			dst, err := res.Window(a)
			if err != nil {
				return err
			}
			dst.CopyFrom(lz)
			return nil
		})
	if err != nil {
		return nil, err
	}
	m.result = res
	m.done.Store(true)
	m.opts.logger.Debug("engine: mapply materialized", "name", m.name, "portions", len(areas), "duration", time.Since(start))
	return res, nil
}

// prepare materializes operands that drive the pool.
func (m *Mapply) prepare(ctx context.Context) error {
	return prepareAll(ctx, m.a, m.b)
}
