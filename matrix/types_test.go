// SPDX-License-Identifier: MIT

package matrix_test

import (
	"testing"

	"github.com/katalvlaran/lazymat/matrix"
	"github.com/katalvlaran/lazymat/portion"
	"github.com/katalvlaran/lazymat/scalar"
	"github.com/stretchr/testify/require"
)

func TestNewID_Unique(t *testing.T) {
	t.Parallel()

	seen := make(map[matrix.ID]bool)
	for range 100 {
		id := matrix.NewID()
		require.False(t, seen[id])
		seen[id] = true
	}
}

func TestDeps_MergeNeverOverwrites(t *testing.T) {
	t.Parallel()

	a := matrix.Deps{1: {Rows: 2, Cols: 3, Type: scalar.Float64}}
	b := matrix.Deps{1: {Rows: 9, Cols: 9, Type: scalar.Int64}, 2: {Rows: 4, Cols: 4, Type: scalar.Float32}}
	c := matrix.Deps{2: {Rows: 7, Cols: 7, Type: scalar.Float32}, 3: {Rows: 1, Cols: 1, Type: scalar.Int64}}

	got := a.Merge(b, c)
	require.Equal(t, []matrix.ID{1, 2, 3}, got.IDs())
	require.Equal(t, 2, got[1].Rows)
	require.Equal(t, 4, got[2].Rows)
	require.Len(t, a, 1, "receiver is not modified")
}

func TestPortionAreas_TallAndWide(t *testing.T) {
	t.Parallel()

	tall := mustSeq(t, 10, 3, matrix.WithPortionLen(4))
	pr, pc := tall.PortionSize()
	require.Equal(t, 4, pr)
	require.Equal(t, 3, pc)
	require.Equal(t, []portion.Area{
		{Row: 0, Rows: 4, Cols: 3},
		{Row: 4, Rows: 4, Cols: 3},
		{Row: 8, Rows: 2, Cols: 3},
	}, matrix.PortionAreas(tall))

	wide := tall.Transpose()
	require.Equal(t, []portion.Area{
		{Col: 0, Rows: 3, Cols: 4},
		{Col: 4, Rows: 3, Cols: 4},
		{Col: 8, Rows: 3, Cols: 2},
	}, matrix.PortionAreas(wide))
}
