// SPDX-License-Identifier: MIT

package scalar_test

import (
	"testing"

	"github.com/katalvlaran/lazymat/scalar"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestType_WidenedAndSize(t *testing.T) {
	t.Parallel()

	assert.Equal(t, scalar.Float64, scalar.Float32.Widened())
	assert.Equal(t, scalar.Float64, scalar.Float64.Widened())
	assert.Equal(t, scalar.Int64, scalar.Int64.Widened())
	assert.Equal(t, 4, scalar.Float32.Size())
	assert.Equal(t, 8, scalar.Int64.Size())
	assert.Equal(t, 0, scalar.Invalid.Size())
	assert.False(t, scalar.Invalid.Valid())
	assert.Equal(t, scalar.Float32, scalar.TypeOf[float32]())
}

func TestVec_SliceSharesStorage(t *testing.T) {
	t.Parallel()

	v := scalar.VecOf([]float32{1, 2, 3, 4})
	s := v.Slice(1, 3)
	s.Set(0, 20)
	require.Equal(t, 2, s.Len())
	require.Equal(t, float32(20), v.Float32s()[1])
}

func TestVec_CopyFromConverts(t *testing.T) {
	t.Parallel()

	dst := scalar.NewVec(scalar.Float32, 3)
	n := dst.CopyFrom(scalar.VecOf([]float64{0.5, 1.5, 2.5, 9}))
	require.Equal(t, 3, n)
	require.Equal(t, []float32{0.5, 1.5, 2.5}, dst.Float32s())

	same := scalar.NewVec(scalar.Float32, 2)
	require.Equal(t, 2, same.CopyFrom(dst))
	require.Equal(t, []float32{0.5, 1.5}, same.Float32s())
}

func TestVec_DataTyped(t *testing.T) {
	t.Parallel()

	v := scalar.NewVec(scalar.Int64, 2)
	scalar.Data[int64](v)[1] = 42
	require.Equal(t, 42.0, v.At(1))
	require.Panics(t, func() { _ = scalar.Data[float64](v) })
}

func TestVec_CloneAndZero(t *testing.T) {
	t.Parallel()

	v := scalar.VecOf([]float64{1, 2})
	c := v.Clone()
	v.Zero()
	require.Equal(t, []float64{0, 0}, v.Float64s())
	require.Equal(t, []float64{1, 2}, c.Float64s())
}

func TestNewVec_InvalidTypePanics(t *testing.T) {
	t.Parallel()
	require.Panics(t, func() { scalar.NewVec(scalar.Invalid, 1) })
}

func TestGatherScatter_Strided(t *testing.T) {
	t.Parallel()

	// 3x2 row-major; column 1 is {2, 4, 6}.
	src := scalar.VecOf([]int64{1, 2, 3, 4, 5, 6})
	col := scalar.NewVec(scalar.Int64, 3)
	scalar.Gather(col, src, 1, 2)
	require.Equal(t, []int64{2, 4, 6}, col.Int64s())

	dst := scalar.NewVec(scalar.Int64, 6)
	scalar.Scatter(dst, 0, 2, col)
	require.Equal(t, []int64{2, 0, 4, 0, 6, 0}, dst.Int64s())

	require.Panics(t, func() { scalar.Gather(scalar.NewVec(scalar.Float32, 1), src, 0, 1) })
}

func TestVec_SetFromKeepsInt64Precision(t *testing.T) {
	t.Parallel()

	const big = int64(1)<<62 + 1
	dst := scalar.NewVec(scalar.Int64, 1)
	dst.SetFrom(0, scalar.VecOf([]int64{big}), 0)
	require.Equal(t, big, dst.Int64s()[0])
}
