// SPDX-License-Identifier: MIT

package portion

import (
	"errors"
	"fmt"
)

var (
	// ErrResizeOutOfBounds is the panic value (wrapped) when a requested
	// window exceeds the original extent of a portion.
	ErrResizeOutOfBounds = errors.New("portion: resize out of bounds")

	// ErrShapeMismatch signals that two portions taking part in a copy do not
	// expose the same number of rows and columns.
	ErrShapeMismatch = errors.New("portion: shape mismatch")

	// ErrNotMaterialized signals element access to a lazy portion whose data
	// has not been computed.
	ErrNotMaterialized = errors.New("portion: not materialized")

	// ErrInvalidLayout signals LayoutNone (or an unknown value) where a
	// storage layout is required.
	ErrInvalidLayout = errors.New("portion: invalid layout")

	// ErrBadCSR signals inconsistent CSR arrays.
	ErrBadCSR = errors.New("portion: malformed CSR arrays")
)

func portionErrorf(tag string, err error) error {
	return fmt.Errorf("%s: %w", tag, err)
}
