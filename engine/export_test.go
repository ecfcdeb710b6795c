// SPDX-License-Identifier: MIT

package engine

import (
	"github.com/katalvlaran/lazymat/scalar"
)

// Test bridge: white-box access for engine_test.

// Panic message exports to avoid "magic strings" in tests.
const (
	PanicNilPool_TestOnly       = panicNilPool
	PanicChunkInvalid_TestOnly  = panicChunkInvalid
	PanicFoldInvalid_TestOnly   = panicFoldInvalid
	PanicLayoutInvalid_TestOnly = panicLayoutInvalid
	PanicNilLogger_TestOnly     = panicNilLogger
)

// OptionsSnapshot is a read-only view of the effective options.
type OptionsSnapshot struct {
	ChunkSize  int
	SparseFold int
	OutLayout  string
	Group      bool
	Name       string
	HasPool    bool
	HasLogger  bool
}

// GatherOptionsSnapshot_TestOnly resolves opts over the defaults.
func GatherOptionsSnapshot_TestOnly(opts ...Option) OptionsSnapshot {
	o := gatherOptions(opts...)
	return OptionsSnapshot{
		ChunkSize:  o.chunkSize,
		SparseFold: o.sparseFold,
		OutLayout:  o.outLayout.String(),
		Group:      o.group,
		Name:       o.name,
		HasPool:    o.pool != nil,
		HasLogger:  o.logger != nil,
	}
}

// Accumulate_TestOnly folds groups of tiles into one accumulator per group,
// merges the groups in order and returns the narrowed total.
func Accumulate_TestOnly(t scalar.Type, groups ...[]scalar.Vec) scalar.Vec {
	n := groups[0][0].Len()
	var total accumulator
	for _, g := range groups {
		acc := newAccumulator(t, n)
		for _, tile := range g {
			acc.add(tile)
		}
		if total == nil {
			total = acc
		} else {
			total.merge(acc)
		}
	}
	out := scalar.NewVec(t, n)
	total.narrow(out)
	return out
}

// ChunkCols_TestOnly returns the chunk width of op.
func ChunkCols_TestOnly(op *MultiplyOp) int { return op.chunkCols() }

// FoldEvery_TestOnly returns the sparse fold threshold of op for a long
// dimension of k.
func FoldEvery_TestOnly(op *MultiplyOp, k int) int { return op.foldEvery(k) }
