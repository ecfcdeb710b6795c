// SPDX-License-Identifier: MIT

package engine_test

import (
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/katalvlaran/lazymat/matrix"
	"github.com/katalvlaran/lazymat/portion"
	"github.com/katalvlaran/lazymat/scalar"
	"github.com/katalvlaran/lazymat/workerpool"
	"github.com/stretchr/testify/require"
)

// newPool returns a pool closed at the end of the test.
func newPool(t *testing.T, n int, opts ...workerpool.Option) *workerpool.Pool {
	t.Helper()
	p := workerpool.New(n, opts...)
	t.Cleanup(p.Close)
	return p
}

// randMem builds a rows x cols matrix with reproducible values. Integer
// types get small integers so products stay exact.
func randMem(t *testing.T, seed uint64, rows, cols int, typ scalar.Type, opts ...matrix.Option) *matrix.Mem {
	t.Helper()
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	m, err := matrix.NewMem(rows, cols, typ, opts...)
	require.NoError(t, err)
	for i := range rows {
		for j := range cols {
			v := rng.Float64()*2 - 1
			if typ == scalar.Int64 {
				v = float64(rng.IntN(19) - 9)
			}
			require.NoError(t, m.Set(i, j, v))
		}
	}
	return m
}

// sparsify zeroes roughly three quarters of m's elements.
func sparsify(t *testing.T, seed uint64, m *matrix.Mem) *matrix.Mem {
	t.Helper()
	rng := rand.New(rand.NewPCG(seed, seed))
	for i := range m.Rows() {
		for j := range m.Cols() {
			if rng.IntN(4) != 0 {
				require.NoError(t, m.Set(i, j, 0))
			}
		}
	}
	return m
}

// naive is the reference inner product over float64 values.
func naive(t *testing.T, a, b *matrix.Mem, mul, add func(x, y float64) float64) []float64 {
	t.Helper()
	av, bv := a.Float64s(), b.Float64s()
	n, k, m := a.Rows(), a.Cols(), b.Cols()
	out := make([]float64, n*m)
	for i := range n {
		for j := range m {
			acc := mul(av[i*k], bv[j])
			for p := 1; p < k; p++ {
				acc = add(acc, mul(av[i*k+p], bv[p*m+j]))
			}
			out[i*m+j] = acc
		}
	}
	return out
}

func times(x, y float64) float64 { return x * y }
func plus(x, y float64) float64  { return x + y }

// requireClose compares row-major element lists; elements match when they
// are within tol of each other, absolutely or relatively.
func requireClose(t *testing.T, want, got []float64, tol float64) {
	t.Helper()
	if diff := cmp.Diff(want, got, cmpopts.EquateApprox(tol, tol)); diff != "" {
		t.Fatalf("result mismatch (-want +got):\n%s", diff)
	}
}

// requirePanicIs checks that fn panics with an error wrapping target.
func requirePanicIs(t *testing.T, target error, fn func()) {
	t.Helper()
	defer func() {
		t.Helper()
		r := recover()
		require.NotNil(t, r, "expected a panic")
		err, ok := r.(error)
		require.True(t, ok, "panic value %v is not an error", r)
		require.True(t, errors.Is(err, target), "panic %v does not wrap %v", err, target)
	}()
	fn()
}

var layouts = []portion.Layout{portion.RowMajor, portion.ColMajor}
