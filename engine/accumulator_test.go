// SPDX-License-Identifier: MIT

package engine_test

import (
	"testing"

	"github.com/katalvlaran/lazymat/engine"
	"github.com/katalvlaran/lazymat/scalar"
	"github.com/stretchr/testify/require"
)

func TestAccumulator_Float64Compensated(t *testing.T) {
	t.Parallel()

	// 1 + 1e-16 * 10 is lost by naive float64 summation.
	tiles := []scalar.Vec{scalar.VecOf([]float64{1})}
	for range 10 {
		tiles = append(tiles, scalar.VecOf([]float64{1e-16}))
	}
	got := engine.Accumulate_TestOnly(scalar.Float64, tiles)
	require.InDelta(t, 1+1e-15, got.Float64s()[0], 1e-18)

	naive := 0.0
	for _, v := range tiles {
		naive += v.Float64s()[0]
	}
	require.Equal(t, 1.0, naive)
}

func TestAccumulator_Float32WidensBeforeNarrowing(t *testing.T) {
	t.Parallel()

	// float32 has 24 bits of mantissa: 2^24 + 1 + 1 rounds back to 2^24 in
	// float32 arithmetic but not in the widened sum.
	big := float32(1 << 24)
	got := engine.Accumulate_TestOnly(scalar.Float32,
		[]scalar.Vec{scalar.VecOf([]float32{big, 1})},
		[]scalar.Vec{scalar.VecOf([]float32{1, 1}), scalar.VecOf([]float32{1, 1})},
	)
	require.Equal(t, []float32{big + 2, 3}, got.Float32s())
}

func TestAccumulator_Int64MergesGroups(t *testing.T) {
	t.Parallel()

	got := engine.Accumulate_TestOnly(scalar.Int64,
		[]scalar.Vec{scalar.VecOf([]int64{1, -2}), scalar.VecOf([]int64{3, 4})},
		[]scalar.Vec{scalar.VecOf([]int64{1 << 40, 0})},
	)
	require.Equal(t, []int64{1<<40 + 4, 2}, got.Int64s())
}
