// SPDX-License-Identifier: MIT

package matrix_test

import (
	"testing"

	"github.com/katalvlaran/lazymat/matrix"
	"github.com/katalvlaran/lazymat/portion"
	"github.com/katalvlaran/lazymat/scalar"
	"github.com/stretchr/testify/require"
)

// mustSeq builds a rows x cols float64 matrix with (i,j) = 10*i + j.
func mustSeq(t *testing.T, rows, cols int, opts ...matrix.Option) *matrix.Mem {
	t.Helper()
	m, err := matrix.NewMem(rows, cols, scalar.Float64, opts...)
	require.NoError(t, err)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			require.NoError(t, m.Set(i, j, float64(10*i+j)))
		}
	}
	return m
}

// requireWindowSeq checks that w holds the mustSeq values of its global
// position.
func requireWindowSeq(t *testing.T, w portion.Local) {
	t.Helper()
	for r := 0; r < w.Rows(); r++ {
		for c := 0; c < w.Cols(); c++ {
			want := float64(10*(w.GlobalRow()+r) + w.GlobalCol() + c)
			require.Equal(t, want, w.At(r, c), "(%d,%d)", r, c)
		}
	}
}
