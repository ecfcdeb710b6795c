// SPDX-License-Identifier: MIT

package engine_test

import (
	"context"
	"testing"

	"github.com/katalvlaran/lazymat/engine"
	"github.com/katalvlaran/lazymat/matrix"
	"github.com/katalvlaran/lazymat/portion"
	"github.com/katalvlaran/lazymat/scalar"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// BlockSinkSuite multiplies [A1; A2] by [B1 B2] tile by tile.
type BlockSinkSuite struct {
	suite.Suite
	ctx  context.Context
	opts []engine.Option

	as, bs []*matrix.Mem
	want   []float64
}

func (s *BlockSinkSuite) SetupTest() {
	t := s.T()
	p := newPool(t, 4)
	s.ctx = context.Background()
	s.opts = []engine.Option{engine.WithPool(p)}

	const k = 25
	s.as = []*matrix.Mem{
		randMem(t, 70, 3, k, scalar.Float64, matrix.WithPortionLen(6)),
		randMem(t, 71, 2, k, scalar.Float64, matrix.WithPortionLen(6), matrix.WithLayout(portion.ColMajor)),
	}
	s.bs = []*matrix.Mem{
		randMem(t, 72, k, 4, scalar.Float64, matrix.WithPortionLen(6)),
		randMem(t, 73, k, 1, scalar.Float64, matrix.WithPortionLen(9)),
	}

	// Reference: stack the rows of A and the columns of B.
	a, err := matrix.NewMem(5, k, scalar.Float64)
	s.Require().NoError(err)
	b, err := matrix.NewMem(k, 5, scalar.Float64)
	s.Require().NoError(err)
	for i := range 5 {
		src, r := s.as[0], i
		if i >= 3 {
			src, r = s.as[1], i-3
		}
		for p := range k {
			v, _ := src.At(r, p)
			s.Require().NoError(a.Set(i, p, v))
		}
	}
	for p := range k {
		for j := range 5 {
			src, c := s.bs[0], j
			if j >= 4 {
				src, c = s.bs[1], j-4
			}
			v, _ := src.At(p, c)
			s.Require().NoError(b.Set(p, j, v))
		}
	}
	s.want = naive(t, a, b, times, plus)
}

func (s *BlockSinkSuite) tiles() []*engine.Sink {
	var out []*engine.Sink
	for _, a := range s.as {
		for _, b := range s.bs {
			out = append(out, engine.NewMultiply(a, b, s.opts...))
		}
	}
	return out
}

func (s *BlockSinkSuite) TestStitchOneAtATime() {
	bs := engine.NewBlockSink(2, 2, s.tiles(), s.opts...)
	s.Equal(5, bs.Rows())
	s.Equal(5, bs.Cols())
	s.False(bs.HasMaterialized())
	s.Len(bs.ComputeMatrices(), 4)

	res, err := bs.Materialize(s.ctx)
	s.Require().NoError(err)
	requireClose(s.T(), s.want, res.Float64s(), 1e-12)
	s.True(bs.HasMaterialized())
	s.Empty(bs.ComputeMatrices())

	again, err := bs.Materialize(s.ctx)
	s.Require().NoError(err)
	s.Same(res, again)
}

func (s *BlockSinkSuite) TestStitchGrouped() {
	opts := append(append([]engine.Option(nil), s.opts...), engine.WithGroupMaterialize(), engine.WithOutputLayout(portion.ColMajor))
	bs := engine.NewBlockSink(2, 2, s.tiles(), opts...)
	res, err := bs.Materialize(s.ctx)
	s.Require().NoError(err)
	s.Equal(portion.ColMajor, res.Layout())
	requireClose(s.T(), s.want, res.Float64s(), 1e-12)
	s.True(bs.HasMaterialized())
}

func (s *BlockSinkSuite) TestTransposeBeforeMaterialize() {
	bs := engine.NewBlockSink(2, 2, s.tiles(), s.opts...)
	bt := bs.Transpose()
	s.Require().IsType(&engine.BlockSink{}, bt)
	r, c := bt.(*engine.BlockSink).Grid()
	s.Equal([2]int{2, 2}, [2]int{r, c})
	s.Equal(1, bt.(*engine.BlockSink).Tile(1, 0).Rows())

	tres, err := bt.(*engine.BlockSink).Materialize(s.ctx)
	s.Require().NoError(err)
	res, err := bs.Materialize(s.ctx)
	s.Require().NoError(err)
	requireClose(s.T(), res.T().Float64s(), tres.Float64s(), 1e-12)
}

func (s *BlockSinkSuite) TestUnderlyingIsUnion() {
	bs := engine.NewBlockSink(2, 2, s.tiles(), s.opts...)
	s.Len(bs.Underlying(), 4)
}

func (s *BlockSinkSuite) TestBadTilingPanics() {
	tiles := s.tiles()
	requirePanicIs(s.T(), engine.ErrBadTiling, func() { engine.NewBlockSink(2, 2, tiles[:3]) })
	requirePanicIs(s.T(), engine.ErrBadTiling, func() { engine.NewBlockSink(1, 4, tiles) })
	requirePanicIs(s.T(), engine.ErrBadTiling, func() {
		engine.NewBlockSink(2, 2, []*engine.Sink{tiles[0], tiles[1], tiles[1], tiles[3]})
	})
}

func TestBlockSinkSuite(t *testing.T) {
	suite.Run(t, new(BlockSinkSuite))
}

// constant returns a rows x cols matrix with every element set to v.
func constant(t *testing.T, rows, cols int, v float64) *matrix.Mem {
	t.Helper()
	m, err := matrix.NewMem(rows, cols, scalar.Float64)
	require.NoError(t, err)
	for i := range rows {
		for j := range cols {
			require.NoError(t, m.Set(i, j, v))
		}
	}
	return m
}

func TestBlockSink_ConstantQuadrants(t *testing.T) {
	t.Parallel()

	const m, n = 3, 2
	pool := newPool(t, 2)
	for _, group := range []bool{false, true} {
		// Tile q is (m x 1 of q) * (1 x n of ones), i.e. the constant q.
		tiles := make([]*engine.Sink, 4)
		for q := range tiles {
			tiles[q] = engine.NewMultiply(constant(t, m, 1, float64(q+1)), constant(t, 1, n, 1), engine.WithPool(pool))
		}
		opts := []engine.Option{engine.WithPool(pool)}
		if group {
			opts = append(opts, engine.WithGroupMaterialize())
		}
		res, err := engine.NewBlockSink(2, 2, tiles, opts...).Materialize(context.Background())
		require.NoError(t, err)
		require.Equal(t, 2*m, res.Rows())
		require.Equal(t, 2*n, res.Cols())
		for i := range 2 * m {
			for j := range 2 * n {
				v, err := res.At(i, j)
				require.NoError(t, err)
				require.Equal(t, float64(1+2*(i/m)+j/n), v, "element (%d,%d)", i, j)
			}
		}
	}
}

func TestMaterializeTogether(t *testing.T) {
	t.Parallel()

	pool := newPool(t, 4)
	ctx := context.Background()
	a := randMem(t, 80, 4, 40, scalar.Float32, matrix.WithPortionLen(8))
	b1 := randMem(t, 81, 40, 3, scalar.Float32, matrix.WithPortionLen(8))
	b2 := randMem(t, 82, 40, 2, scalar.Float32, matrix.WithPortionLen(16))

	s1 := engine.NewMultiply(a, b1, engine.WithPool(pool))
	s2 := engine.NewInnerProduct(a, b2, scalar.Mul(scalar.Float32), scalar.Add(scalar.Float32), engine.WithPool(pool))
	require.NoError(t, engine.MaterializeTogether(ctx, s1, s2, s1))

	requireClose(t, naive(t, a, b1, times, plus), s1.Result().Float64s(), 1e-4)
	requireClose(t, naive(t, a, b2, times, plus), s2.Result().Float64s(), 1e-4)
	require.NoError(t, engine.MaterializeTogether(ctx, s1, s2))

	other := engine.NewMultiply(a.T(), a, engine.WithPool(pool))
	third := engine.NewMultiply(a, b1, engine.WithPool(pool))
	requirePanicIs(t, engine.ErrLongDimMismatch, func() { _ = engine.MaterializeTogether(ctx, third, other) })
}
