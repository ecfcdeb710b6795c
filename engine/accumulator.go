// SPDX-License-Identifier: MIT
// Package: engine
//
// Purpose:
//   - Widened accumulation of product chunks. Every chunk result (a dense
//     n x m tile in the element type) is added into a per-slot accumulator
//     whose precision exceeds the element type, and the final result is
//     narrowed once.
//
// Precision:
//   - Float32: plain float64 sums.
//   - Float64: compensated sums. Each cell keeps (hi, lo) with hi + lo the
//     exact running total up to float64 rounding of lo (Knuth TwoSum).
//   - Int64: exact; no widening needed.
//
// Notes:
//   - All vectors handed to an accumulator share one index space (the
//     contiguous storage of the slot's tile).

package engine

import (
	"fmt"

	"github.com/katalvlaran/lazymat/scalar"
)

// accumulator folds tiles of one element type.
type accumulator interface {
	// add folds tile into the accumulator.
	add(tile scalar.Vec)
	// merge folds another accumulator of the same kind and size.
	merge(o accumulator)
	// narrow writes the totals into dst in the element type.
	narrow(dst scalar.Vec)
}

func newAccumulator(t scalar.Type, n int) accumulator {
	switch t {
	case scalar.Float32:
		return &accF32{sum: make([]float64, n)}
	case scalar.Float64:
		return &accF64{hi: make([]float64, n), lo: make([]float64, n)}
	case scalar.Int64:
		return &accI64{sum: make([]int64, n)}
	}
	panic(fmt.Errorf("engine: accumulator for %v: %w", t, scalar.ErrInvalidType))
}

type accF32 struct{ sum []float64 }

func (a *accF32) add(tile scalar.Vec) {
	for i, x := range tile.Float32s() {
		a.sum[i] += float64(x)
	}
}

func (a *accF32) merge(o accumulator) {
	for i, x := range o.(*accF32).sum {
		a.sum[i] += x
	}
}

func (a *accF32) narrow(dst scalar.Vec) {
	out := dst.Float32s()
	for i, x := range a.sum {
		out[i] = float32(x)
	}
}

type accF64 struct{ hi, lo []float64 }

// twoSum returns s = fl(a+b) and the rounding error e with a+b = s+e.
func twoSum(a, b float64) (s, e float64) {
	s = a + b
	bv := s - a
	e = (a - (s - bv)) + (b - bv)
	return s, e
}

func (a *accF64) add(tile scalar.Vec) {
	for i, x := range tile.Float64s() {
		var e float64
		a.hi[i], e = twoSum(a.hi[i], x)
		a.lo[i] += e
	}
}

func (a *accF64) merge(o accumulator) {
	b := o.(*accF64)
	for i := range a.hi {
		var e float64
		a.hi[i], e = twoSum(a.hi[i], b.hi[i])
		a.lo[i] += e + b.lo[i]
	}
}

func (a *accF64) narrow(dst scalar.Vec) {
	out := dst.Float64s()
	for i := range a.hi {
		out[i] = a.hi[i] + a.lo[i]
	}
}

type accI64 struct{ sum []int64 }

func (a *accI64) add(tile scalar.Vec) {
	for i, x := range tile.Int64s() {
		a.sum[i] += x
	}
}

func (a *accI64) merge(o accumulator) {
	for i, x := range o.(*accI64).sum {
		a.sum[i] += x
	}
}

func (a *accI64) narrow(dst scalar.Vec) {
	copy(dst.Int64s(), a.sum)
}
