// SPDX-License-Identifier: MIT

// Package scalar describes the element types a matrix can hold and the
// binary operators the engine applies to them.
//
// The package provides:
//
//   - Type: the closed set of element types (Int64, Float32, Float64) and the
//     widened type each one accumulates in.
//   - Vec: a typed, slice-backed vector used as the raw buffer behind every
//     dense portion.
//   - BinaryOp: an operator with an element-wise role and, when it is
//     associative, a reduce role. Operators that cannot play a role report
//     ErrUnsupportedOp instead of failing the process.
//   - Registry: named user operators, one implementation per element type.
//
// The engine never inspects operator internals; it only hands them typed
// vectors.
package scalar
