// SPDX-License-Identifier: MIT

// Package portion implements typed matrix portions: rectangular windows of a
// parent matrix bound at a global row/column offset.
//
// A window remembers its original extent and exposes a sub-rectangle of it.
// Resize narrows the exposed area without reallocating, Restore returns to a
// previously captured area and Reset returns to the original extent. Three
// window kinds exist:
//
//   - Buf: dense typed storage in row- or column-major layout; Transpose is a
//     no-copy view.
//   - Sparse: CSR rows of a sparse matrix.
//   - Lazy: a virtual portion over parts and a compute function; it becomes
//     readable once materialized.
//
// Element accessors take coordinates relative to the exposed area.
package portion
