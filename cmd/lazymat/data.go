// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"

	"github.com/katalvlaran/lazymat/matrix"
	"github.com/katalvlaran/lazymat/portion"
	"github.com/katalvlaran/lazymat/scalar"
)

// operandFlags describe one generated operand.
type operandFlags struct {
	layout  portion.Layout
	density float64 // < 1 generates a sparse operand
	file    bool    // serve the operand from a temporary file
}

// generate fills a rows x cols matrix with uniform values in [-1, 1)
// (small integers for int64), keeping each element with probability
// density.
func generate(seed uint64, rows, cols int, t scalar.Type, density float64, opts ...matrix.Option) (*matrix.Mem, error) {
	m, err := matrix.NewMem(rows, cols, t, opts...)
	if err != nil {
		return nil, err
	}
	rng := rand.New(rand.NewPCG(seed, math.Float64bits(density)))
	for i := range rows {
		for j := range cols {
			if density < 1 && rng.Float64() >= density {
				continue
			}
			v := rng.Float64()*2 - 1
			if t == scalar.Int64 {
				v = float64(rng.IntN(21) - 10)
			}
			if err := m.Set(i, j, v); err != nil {
				return nil, err
			}
		}
	}
	return m, nil
}

// build generates an operand and wraps it as requested. The cleanup
// function removes temporary files.
func build(seed uint64, rows, cols int, t scalar.Type, plen int, of operandFlags) (matrix.Matrix, func(), error) {
	opts := []matrix.Option{matrix.WithLayout(of.layout), matrix.WithPortionLen(plen)}
	m, err := generate(seed, rows, cols, t, of.density, opts...)
	if err != nil {
		return nil, nil, err
	}
	switch {
	case of.density < 1:
		return matrix.SparseFromMem(m, matrix.WithPortionLen(plen)), func() {}, nil
	case of.file:
		dir, err := os.MkdirTemp("", "lazymat-*")
		if err != nil {
			return nil, nil, err
		}
		cleanup := func() { _ = os.RemoveAll(dir) }
		path := filepath.Join(dir, fmt.Sprintf("m%d.bin", m.ID()))
		if err := matrix.WriteFile(path, m); err != nil {
			cleanup()
			return nil, nil, err
		}
		ext, err := matrix.OpenFile(path, rows, cols, t, opts...)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		return ext, func() { _ = ext.Close(); cleanup() }, nil
	default:
		return m, func() {}, nil
	}
}

// maxAbsDiff compares res with the float64 reference product of left and
// right.
func maxAbsDiff(ctx context.Context, left, right matrix.Matrix, res *matrix.Mem) (float64, error) {
	a, err := matrix.Load(ctx, left)
	if err != nil {
		return 0, err
	}
	b, err := matrix.Load(ctx, right)
	if err != nil {
		return 0, err
	}
	av, bv, rv := a.Float64s(), b.Float64s(), res.Float64s()
	n, k, m := a.Rows(), a.Cols(), b.Cols()
	worst := 0.0
	for i := range n {
		for j := range m {
			sum := 0.0
			for p := range k {
				sum += av[i*k+p] * bv[p*m+j]
			}
			worst = max(worst, math.Abs(sum-rv[i*m+j]))
		}
	}
	return worst, nil
}

func checksum(m *matrix.Mem) float64 {
	sum := 0.0
	for _, v := range m.Float64s() {
		sum += v
	}
	return sum
}
