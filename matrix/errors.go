// SPDX-License-Identifier: MIT
// Package matrix: sentinel error set.
// Constructors and accessors return these sentinels (optionally wrapped with
// a call-site tag); tests match them with errors.Is. Backend I/O errors are
// passed through unchanged.

package matrix

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidDimensions indicates that requested matrix dimensions are non-positive.
	ErrInvalidDimensions = errors.New("matrix: dimensions must be > 0")

	// ErrOutOfRange indicates that an index or portion area lies outside the matrix.
	ErrOutOfRange = errors.New("matrix: index out of range")

	// ErrDimensionMismatch indicates incompatible dimensions between operands,
	// e.g. a.Cols != b.Rows for a product, or a data slice of the wrong length.
	ErrDimensionMismatch = errors.New("matrix: dimension mismatch")

	// ErrTypeMismatch indicates operands with different element types.
	ErrTypeMismatch = errors.New("matrix: element type mismatch")

	// ErrNilMatrix indicates that a nil Matrix was used.
	ErrNilMatrix = errors.New("matrix: nil matrix")

	// ErrBadCSR indicates malformed CSR arrays.
	ErrBadCSR = errors.New("matrix: malformed CSR arrays")

	// ErrFileSize indicates that a backing file does not hold exactly
	// rows*cols elements.
	ErrFileSize = errors.New("matrix: backing file size mismatch")
)

// matrixErrorf wraps err with a call-site tag, keeping errors.Is working.
func matrixErrorf(tag string, err error) error {
	return fmt.Errorf("%s: %w", tag, err)
}
