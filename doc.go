// Package lazymat is a lazy, portion-based matrix engine: expressions over
// in-memory, sparse and file-backed matrices are evaluated portion by
// portion on a persistent worker pool.
//
// What is inside?
//
//	• Element types and binary operators with element-wise and reduce roles
//	• Portions: dense, sparse (CSR) and lazy windows that can be resized
//	  and restored without copying
//	• Matrix descriptors: in-memory, sparse and external (file) stores with
//	  NUMA placement of portions
//	• Wide operators: products and generalized inner products folded over
//	  the long dimension into per-worker accumulators
//	• Sinks: product nodes, block grids of products and group
//	  materialization in one pass over shared operands
//
// Subpackages:
//
//	scalar/     element types, typed vectors, operators, registry
//	portion/    layouts, areas, dense/sparse/lazy windows
//	workerpool/ persistent pool, worker slots, NUMA-aware scheduling
//	matrix/     matrix descriptors, stores, file backend, validators
//	engine/     wide operators, sinks, block sinks, element-wise nodes
//	cmd/lazymat command line driver
//
// Quick example (tall x skinny product, K = 10^6):
//
//	a, _ := matrix.NewMem(32, 1_000_000, scalar.Float32)
//	b, _ := matrix.NewMem(1_000_000, 16, scalar.Float32)
//	c, err := engine.NewMultiply(a, b).Materialize(ctx)
//
//	go get github.com/katalvlaran/lazymat
package lazymat
