// SPDX-License-Identifier: MIT

// Package engine evaluates lazy matrix expressions portion by portion.
//
// Expression nodes:
//
//   - Mapply: element-wise A op B, computed on demand per portion.
//   - Sink: a product (vendor GEMM path) or a generalized inner product
//     (left op, right op) that folds the long dimension into per-worker
//     partial results and combines them once all portions ran.
//   - BlockSink: an R x C grid of sinks stitched into one matrix.
//
// Materialization walks a compute matrix (the long dimension of the
// product, cut into portions) on a workerpool.Pool. Operand portions are
// fetched synchronously or asynchronously; a Coordinator joins asynchronous
// fetches. A PortionOp keeps one accumulation slot per worker, indexed by
// workerpool.Slot, so workers never share mutable state until the combine
// phase, which runs after every portion task finished.
//
// Numeric policy:
//
//	Float32 products accumulate in float64; Float64 products accumulate as
//	a compensated (hi, lo) pair; Int64 accumulates exactly. Results are
//	narrowed to the element type once, after combining.
//
// Errors:
//
//	Misuse (mismatched shapes, bad tilings, re-transposing an operator that
//	already accumulated, combining an operator that never ran, running an
//	operator outside the pool) panics with a wrapped sentinel. Operators
//	lacking a role return scalar.ErrUnsupportedOp. I/O errors from operands
//	are returned unchanged.
package engine
