// SPDX-License-Identifier: MIT
// Package: engine
//
// Purpose:
//   - Adapt dense portion buffers to gonum's BLAS: GEMM for dense x dense
//     chunks, AXPY per non-zero for dense x sparse chunks.
//
// Layout handling:
//   - BLAS General matrices are row-major. A buffer in layout l is handed
//     over as its storage matrix (itself for RowMajor, its transpose for
//     ColMajor) and the transpose flag records whether that storage matrix
//     must be transposed to line up with the output layout.
//   - For a ColMajor output C the kernel computes Cᵀ = Bᵀ·Aᵀ, which is the
//     row-major product of the storage matrices.
//
// Notes:
//   - Int64 has no vendor kernel; integer products go through the inner
//     product operator.

package engine

import (
	"github.com/katalvlaran/lazymat/portion"
	"github.com/katalvlaran/lazymat/scalar"
	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/blas32"
	"gonum.org/v1/gonum/blas/blas64"
)

// stored returns the storage shape of b and the raw data.
func stored(b *portion.Buf) (rows, cols int, raw portion.Raw) {
	raw, _ = b.Raw(b.Layout())
	if b.Layout() == portion.RowMajor {
		return b.Rows(), b.Cols(), raw
	}
	return b.Cols(), b.Rows(), raw
}

func transFlag(x, c portion.Layout) blas.Transpose {
	if x == c {
		return blas.NoTrans
	}
	return blas.Trans
}

// gemm overwrites c with a·b. a is n x k, b is k x m, c is n x m; all three
// share the element type, which must be Float32 or Float64.
func gemm(a, b, c *portion.Buf) {
	ar, ac, araw := stored(a)
	br, bc, braw := stored(b)
	cr, cc, craw := stored(c)
	ta := transFlag(a.Layout(), c.Layout())
	tb := transFlag(b.Layout(), c.Layout())

	switch c.Type() {
	case scalar.Float64:
		ag := blas64.General{Rows: ar, Cols: ac, Stride: araw.Stride, Data: araw.Data.Float64s()}
		bg := blas64.General{Rows: br, Cols: bc, Stride: braw.Stride, Data: braw.Data.Float64s()}
		cg := blas64.General{Rows: cr, Cols: cc, Stride: craw.Stride, Data: craw.Data.Float64s()}
		if c.Layout() == portion.RowMajor {
			blas64.Gemm(ta, tb, 1, ag, bg, 0, cg)
		} else {
			blas64.Gemm(tb, ta, 1, bg, ag, 0, cg)
		}
	case scalar.Float32:
		ag := blas32.General{Rows: ar, Cols: ac, Stride: araw.Stride, Data: araw.Data.Float32s()}
		bg := blas32.General{Rows: br, Cols: bc, Stride: braw.Stride, Data: braw.Data.Float32s()}
		cg := blas32.General{Rows: cr, Cols: cc, Stride: craw.Stride, Data: craw.Data.Float32s()}
		if c.Layout() == portion.RowMajor {
			blas32.Gemm(ta, tb, 1, ag, bg, 0, cg)
		} else {
			blas32.Gemm(tb, ta, 1, bg, ag, 0, cg)
		}
	default:
		panic(engineErrorf("gemm "+c.Type().String(), scalar.ErrUnsupportedOp))
	}
}

// columns returns a function locating column j of b as a BLAS vector:
// the offset of its first element in data and the increment.
func columns(b *portion.Buf) (data scalar.Vec, at func(j int) (start, inc int)) {
	raw, _ := b.Raw(b.Layout())
	if b.Layout() == portion.RowMajor {
		return raw.Data, func(j int) (int, int) { return j, raw.Stride }
	}
	return raw.Data, func(j int) (int, int) { return j * raw.Stride, 1 }
}

// axpyNonZeros adds a·s into c, one AXPY per stored non-zero of s:
// c[:, j] += s(k, j) * a[:, k].
func axpyNonZeros(a *portion.Buf, s portion.NonZeros, c *portion.Buf) {
	n := a.Rows()
	if n == 0 {
		return
	}
	xd, xat := columns(a)
	yd, yat := columns(c)
	switch c.Type() {
	case scalar.Float64:
		x, y := xd.Float64s(), yd.Float64s()
		s.EachNonZero(func(k, j int, v float64) {
			xs, xi := xat(k)
			ys, yi := yat(j)
			blas64.Axpy(v, blas64.Vector{N: n, Inc: xi, Data: x[xs:]}, blas64.Vector{N: n, Inc: yi, Data: y[ys:]})
		})
	case scalar.Float32:
		x, y := xd.Float32s(), yd.Float32s()
		s.EachNonZero(func(k, j int, v float64) {
			xs, xi := xat(k)
			ys, yi := yat(j)
			blas32.Axpy(float32(v), blas32.Vector{N: n, Inc: xi, Data: x[xs:]}, blas32.Vector{N: n, Inc: yi, Data: y[ys:]})
		})
	default:
		panic(engineErrorf("axpy "+c.Type().String(), scalar.ErrUnsupportedOp))
	}
}
