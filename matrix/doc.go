// SPDX-License-Identifier: MIT

// Package matrix defines matrix descriptors and the concrete matrix stores.
//
// A Matrix is an immutable descriptor (shape, element type, layout,
// placement, identity) that hands out portions: rectangular windows of its
// data (see package portion). Concrete stores:
//
//   - Mem: dense data in memory, optionally spread over NUMA nodes.
//   - Sparse: CSR data in memory.
//   - External: data behind a Backend such as FileBackend, fetched
//     synchronously or asynchronously portion by portion.
//
// Expression nodes over these stores live in package engine; they implement
// the same Matrix interface.
//
// Identity:
//
//	Every store receives a process-unique ID. Transposed views keep the ID
//	of the data they view, so dependency sets (Deps) deduplicate operands
//	that appear several times in one expression.
package matrix
