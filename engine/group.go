// SPDX-License-Identifier: MIT
// Package: engine
//
// Purpose:
//   - MaterializeTogether drives several sinks that share their long
//     dimension in one pass: each group portion fetches the matching
//     compute portion of every sink and runs all their operators, so an
//     operand shared by the sinks is read once per portion instead of once
//     per sink.
//
// Algorithm:
//   - Stage 1 (Validate): prepare operands, then drop materialized sinks and
//     duplicates; the rest must agree on K.
//   - Stage 2 (Drive): group portion i spans rows [k0, k0+kc) with the
//     smallest portion height of the sinks; a coordinator waits for one
//     completion per sink before the group portion is materialized.
//   - Stage 3 (Finish): combine every sink's operator.

package engine

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/katalvlaran/lazymat/portion"
	"github.com/samber/lo"
)

// MaterializeTogether materializes sinks in one pass over their shared long
// dimension, on the pool of the first sink; all sinks must be built for
// the same pool. Panics with ErrLongDimMismatch if the sinks differ in K.
func MaterializeTogether(ctx context.Context, sinks ...*Sink) error {
	sinks = lo.Uniq(sinks)
	slices.SortFunc(sinks, func(a, b *Sink) int { return cmp.Compare(a.id, b.id) })
	// Operands are prepared before locking: one sink may feed another.
	for _, s := range sinks {
		if err := prepareAll(ctx, s.left, s.right); err != nil {
			return err
		}
	}
	for _, s := range sinks {
		s.mu.Lock()
		defer s.mu.Unlock()
	}
	todo := lo.Filter(sinks, func(s *Sink, _ int) bool { return s.result == nil })
	if len(todo) == 0 {
		return nil
	}
	k := todo[0].cm.LongDim()
	for _, s := range todo[1:] {
		if s.cm.LongDim() != k {
			panic(engineErrorf(fmt.Sprintf("MaterializeTogether: K %d and %d", k, s.cm.LongDim()), ErrLongDimMismatch))
		}
	}

	lead := todo[0]
	g := &groupCompute{
		cms:  lo.Map(todo, func(s *Sink, _ int) *ComputeMatrix { return s.cm }),
		k:    k,
		plen: lo.Min(lo.Map(todo, func(s *Sink, _ int) int { return s.cm.PortionRows() })),
	}
	start := time.Now()
	lead.log().Debug("engine: materialize together", "sinks", len(todo), "portions", g.numPortions())
	if err := drive(ctx, lead.opts.pool, g.numPortions(), g.nodeOf, g.fetch(lead), lead.log()); err != nil {
		for _, s := range todo {
			s.op.reset()
		}
		return err
	}
	for _, s := range todo {
		if err := s.finish(); err != nil {
			return err
		}
	}
	lead.log().Debug("engine: materialized together", "sinks", len(todo), "duration", time.Since(start))
	return nil
}

// groupCompute cuts the shared long dimension of several compute matrices.
type groupCompute struct {
	cms  []*ComputeMatrix
	k    int
	plen int
}

func (g *groupCompute) numPortions() int { return (g.k + g.plen - 1) / g.plen }

func (g *groupCompute) rows(i int) (int, int) {
	k0 := i * g.plen
	return k0, min(g.plen, g.k-k0)
}

func (g *groupCompute) nodeOf(i int) int {
	k0, _ := g.rows(i)
	cm := g.cms[0]
	return cm.NodeOf(k0 / cm.plen)
}

// fetch returns the fetchFunc of the group. Group portion i covers rows
// [k0, k0+kc) of every compute matrix; a compute matrix whose own portions
// are taller is sliced to the group portion.
func (g *groupCompute) fetch(lead *Sink) fetchFunc {
	return func(ctx context.Context, i int, done func(*portion.Lazy, error)) (bool, *portion.Lazy, error) {
		k0, kc := g.rows(i)
		parts := make([]portion.Window, len(g.cms))

		if done == nil {
			for j, cm := range g.cms {
				_, lz, err := cm.fetchRows(ctx, k0, kc, nil)
				if err != nil {
					return false, nil, err
				}
				parts[j] = lz
			}
			return true, g.lazy(parts, k0, kc, i), nil
		}

		var glz *portion.Lazy
		coord := newCoordinator(0, func(err error) { done(glz, err) }, lead.log())
		available := 0
		for j, cm := range g.cms {
			ok, lz, err := cm.fetchRows(ctx, k0, kc, func(_ *portion.Lazy, err error) { coord.Done(err) })
			if err != nil {
				return false, nil, err
			}
			if ok {
				available++
			}
			parts[j] = lz
		}
		glz = g.lazy(parts, k0, kc, i)
		if available == len(g.cms) {
			return true, glz, nil
		}
		for range available {
			coord.Done(nil)
		}
		coord.SetExpected(len(g.cms))
		return false, glz, nil
	}
}

func (g *groupCompute) lazy(parts []portion.Window, k0, kc, i int) *portion.Lazy {
	none := func(context.Context, []portion.Window) (*portion.Buf, error) { return nil, nil }
	return portion.NewLazy(g.cms[0].op.Type(), kc, len(parts), portion.RowMajor, parts, none, portion.Paired).
		Place(k0, 0, g.nodeOf(i))
}
