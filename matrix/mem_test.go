// SPDX-License-Identifier: MIT

package matrix_test

import (
	"context"
	"testing"

	"github.com/katalvlaran/lazymat/matrix"
	"github.com/katalvlaran/lazymat/portion"
	"github.com/katalvlaran/lazymat/scalar"
	"github.com/stretchr/testify/require"
)

func TestNewMem_Errors(t *testing.T) {
	t.Parallel()

	_, err := matrix.NewMem(0, 3, scalar.Float64)
	require.ErrorIs(t, err, matrix.ErrInvalidDimensions)
	_, err = matrix.NewMem(2, 2, scalar.Invalid)
	require.ErrorIs(t, err, scalar.ErrInvalidType)
	_, err = matrix.FromSlice(2, 2, []float32{1, 2, 3})
	require.ErrorIs(t, err, matrix.ErrDimensionMismatch)
}

func TestFromSlice_RespectsLayout(t *testing.T) {
	t.Parallel()

	rm, err := matrix.FromSlice(2, 3, []int64{1, 2, 3, 4, 5, 6})
	require.NoError(t, err)
	cm, err := matrix.FromSlice(2, 3, []int64{1, 4, 2, 5, 3, 6}, matrix.WithLayout(portion.ColMajor))
	require.NoError(t, err)

	require.Equal(t, scalar.Int64, rm.Type())
	require.Equal(t, portion.ColMajor, cm.Layout())
	require.Equal(t, rm.Float64s(), cm.Float64s())

	v, err := cm.At(1, 0)
	require.NoError(t, err)
	require.Equal(t, 4.0, v)
	_, err = cm.At(2, 0)
	require.ErrorIs(t, err, matrix.ErrOutOfRange)
	require.ErrorIs(t, cm.Set(0, 3, 1), matrix.ErrOutOfRange)
}

func TestMem_PortionsAreViews(t *testing.T) {
	t.Parallel()

	m := mustSeq(t, 6, 4, matrix.WithPortionLen(2))
	ctx := context.Background()
	a := portion.Area{Row: 2, Col: 1, Rows: 2, Cols: 3}

	w, err := m.GetPortion(ctx, a)
	require.NoError(t, err)
	require.Equal(t, 2, w.GlobalRow())
	require.Equal(t, 1, w.GlobalCol())
	requireWindowSeq(t, w)

	w.(*portion.Buf).Set(0, 0, -1)
	v, _ := m.At(2, 1)
	require.Equal(t, -1.0, v)

	ok, w2, err := m.GetPortionAsync(ctx, a, func(error) { t.Error("done must not be called") })
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, -1.0, w2.At(0, 0))

	_, err = m.GetPortion(ctx, portion.Area{Row: 5, Rows: 2, Cols: 1})
	require.ErrorIs(t, err, matrix.ErrOutOfRange)
}

func TestMem_TransposeKeepsIdentity(t *testing.T) {
	t.Parallel()

	m := mustSeq(t, 3, 5, matrix.WithName("a"))
	tr := m.T()
	require.Equal(t, m.ID(), tr.ID())
	require.Equal(t, "t(a)", tr.Name())
	require.Equal(t, 5, tr.Rows())
	require.Equal(t, portion.ColMajor, tr.Layout())
	require.Equal(t, m.Underlying(), tr.Underlying())

	v, _ := tr.At(4, 2)
	require.Equal(t, 24.0, v)
	require.Equal(t, m.Float64s(), tr.T().Float64s())
}

func TestMem_NumaSpread(t *testing.T) {
	t.Parallel()

	m := mustSeq(t, 8, 2, matrix.WithPortionLen(2), matrix.WithNumNodes(2))
	nodes := make([]int, 0, 4)
	for _, a := range matrix.PortionAreas(m) {
		nodes = append(nodes, m.NodeOf(a))
		w, err := m.GetPortion(context.Background(), a)
		require.NoError(t, err)
		require.Equal(t, m.NodeOf(a), w.Node())
	}
	require.Equal(t, []int{0, 1, 0, 1}, nodes)

	pinned := mustSeq(t, 4, 2, matrix.WithNode(3))
	require.Equal(t, 3, pinned.NodeOf(portion.Full(4, 2)))
}

func TestFromBuf_SharesStorage(t *testing.T) {
	t.Parallel()

	b := portion.NewBuf(scalar.Float32, 4, 4, portion.ColMajor)
	b.Resize(portion.Area{Row: 1, Col: 1, Rows: 2, Cols: 3})
	m := matrix.FromBuf(b, matrix.WithLayout(portion.RowMajor))
	require.Equal(t, portion.ColMajor, m.Layout())
	require.Equal(t, 2, m.Rows())
	require.Equal(t, 3, m.Cols())

	require.NoError(t, m.Set(0, 0, 7))
	b.Reset()
	require.Equal(t, 7.0, b.At(1, 1))
}
