// SPDX-License-Identifier: MIT

package engine_test

import (
	"context"
	"testing"

	"github.com/katalvlaran/lazymat/engine"
	"github.com/katalvlaran/lazymat/matrix"
	"github.com/katalvlaran/lazymat/portion"
	"github.com/katalvlaran/lazymat/scalar"
	"github.com/katalvlaran/lazymat/workerpool"
	"github.com/stretchr/testify/require"
)

// halves splits the long dimension of a (n x K) and b (K x m) in two and
// returns the portion pairs.
func halves(t *testing.T, a, b *matrix.Mem) [][]portion.Window {
	t.Helper()
	k := a.Cols()
	var out [][]portion.Window
	for _, r := range [][2]int{{0, k / 2}, {k / 2, k - k/2}} {
		wa, err := a.Window(portion.Area{Col: r[0], Rows: a.Rows(), Cols: r[1]})
		require.NoError(t, err)
		wb, err := b.Window(portion.Area{Row: r[0], Rows: r[1], Cols: b.Cols()})
		require.NoError(t, err)
		out = append(out, []portion.Window{wa, wb})
	}
	return out
}

func TestMultiplyOp_SlotsCombineToProduct(t *testing.T) {
	t.Parallel()

	pool := newPool(t, 2)
	a := randMem(t, 40, 3, 10, scalar.Float64)
	b := randMem(t, 41, 10, 4, scalar.Float64)

	op := engine.NewMultiplyOp(scalar.Float64, 3, 4, portion.ColMajor, engine.WithPool(pool), engine.WithChunkSize(4))
	require.Equal(t, 1, engine.ChunkCols_TestOnly(op))
	require.False(t, op.HasMaterialized())

	for slot, ins := range halves(t, a, b) {
		ctx := workerpool.WithSlot(context.Background(), slot)
		require.NoError(t, op.Run(ctx, ins))
	}
	require.True(t, op.HasMaterialized())

	res, err := op.Combined()
	require.NoError(t, err)
	require.Equal(t, portion.ColMajor, res.Layout())
	again, err := op.Combined()
	require.NoError(t, err)
	require.Same(t, res, again)
	requireClose(t, naive(t, a, b, times, plus), matrix.FromBuf(res).Float64s(), 1e-12)
}

func TestInnerProductOp_SlotsCombine(t *testing.T) {
	t.Parallel()

	pool := newPool(t, 2)
	a := randMem(t, 42, 2, 9, scalar.Int64)
	b := randMem(t, 43, 9, 3, scalar.Int64)
	op := engine.NewInnerProductOp(scalar.Mul(scalar.Int64), scalar.Max(scalar.Int64), 2, 3, portion.RowMajor, engine.WithPool(pool))

	// Both halves on slot 1 exercise the in-slot fold, then a third run on
	// slot 0 exercises the combine.
	parts := halves(t, a, b)
	slot1 := workerpool.WithSlot(context.Background(), 1)
	require.NoError(t, op.Run(slot1, parts[0]))
	require.NoError(t, op.Run(slot1, parts[1]))
	require.NoError(t, op.Run(workerpool.WithSlot(context.Background(), 0), parts[0]))

	res, err := op.Combined()
	require.NoError(t, err)
	maxf := func(x, y float64) float64 { return max(x, y) }
	require.Equal(t, naive(t, a, b, times, maxf), matrix.FromBuf(res).Float64s())
}

func TestPortionOp_MisusePanics(t *testing.T) {
	t.Parallel()

	pool := newPool(t, 2)
	a := randMem(t, 44, 2, 4, scalar.Float64)
	b := randMem(t, 45, 4, 2, scalar.Float64)
	ins := halves(t, a, b)[0]

	op := engine.NewMultiplyOp(scalar.Float64, 2, 2, portion.RowMajor, engine.WithPool(pool))
	requirePanicIs(t, engine.ErrEmptyCombine, func() { _, _ = op.Combined() })
	requirePanicIs(t, engine.ErrNotOnPool, func() { _ = op.Run(context.Background(), ins) })
	requirePanicIs(t, engine.ErrNotOnPool, func() { _ = op.Run(workerpool.WithSlot(context.Background(), 2), ins) })

	require.NoError(t, op.Run(workerpool.WithSlot(context.Background(), 0), ins))
	require.NotPanics(t, func() { op.SetRequireTranspose(false) })
	requirePanicIs(t, engine.ErrTransposeAfterAccumulate, func() { op.SetRequireTranspose(true) })

	requirePanicIs(t, scalar.ErrUnsupportedOp, func() {
		engine.NewMultiplyOp(scalar.Int64, 2, 2, portion.RowMajor, engine.WithPool(pool))
	})
	requirePanicIs(t, scalar.ErrTypeMismatch, func() {
		engine.NewInnerProductOp(scalar.Mul(scalar.Int64), scalar.Add(scalar.Float64), 2, 2, portion.RowMajor)
	})
}

func TestMultiplyOp_FoldThreshold(t *testing.T) {
	t.Parallel()

	pool := newPool(t, 1)
	op := engine.NewMultiplyOp(scalar.Float32, 10, 20, portion.RowMajor, engine.WithPool(pool), engine.WithChunkSize(400))
	require.Equal(t, 20, engine.ChunkCols_TestOnly(op))
	require.Equal(t, 8, engine.FoldEvery_TestOnly(op, 50))
	require.Equal(t, 40, engine.FoldEvery_TestOnly(op, 3))

	fixed := engine.NewMultiplyOp(scalar.Float32, 10, 20, portion.RowMajor, engine.WithPool(pool), engine.WithSparseFoldThreshold(3))
	require.Equal(t, 3, engine.FoldEvery_TestOnly(fixed, 50))
}
