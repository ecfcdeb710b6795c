// SPDX-License-Identifier: MIT
// Package: matrix
//
// Purpose:
//   - Provide a single, canonical source of truth for operand checks used by
//     expression constructors.
//   - Return wrapped sentinel errors so call sites can decide between
//     returning and panicking.
//
// Note:
//   - Each composite validator follows a fixed sequence (NotNil → Type → Shape).

package matrix

import "fmt"

// validatorErrorf wraps an underlying error with the given validator tag.
func validatorErrorf(tag string, err error) error {
	return fmt.Errorf("%s: %w", tag, err)
}

// ValidateNotNil ensures every matrix reference is non-nil.
// Complexity: O(len(ms)).
func ValidateNotNil(ms ...Matrix) error {
	for _, m := range ms {
		if m == nil {
			return validatorErrorf("ValidateNotNil", ErrNilMatrix)
		}
	}
	return nil
}

// ValidateSameType ensures a and b share an element type.
// Implementation: assumes non-nil operands.
func ValidateSameType(a, b Matrix) error {
	if a.Type() != b.Type() {
		return validatorErrorf(fmt.Sprintf("ValidateSameType: %v vs %v", a.Type(), b.Type()), ErrTypeMismatch)
	}
	return nil
}

// ValidateSameShape ensures a and b have equal dimensions and element type.
//
// Errors: ErrNilMatrix, ErrTypeMismatch, ErrDimensionMismatch.
// Complexity: O(1).
func ValidateSameShape(a, b Matrix) error {
	if err := ValidateNotNil(a, b); err != nil {
		return err
	}
	if err := ValidateSameType(a, b); err != nil {
		return err
	}
	if a.Rows() != b.Rows() || a.Cols() != b.Cols() {
		return validatorErrorf(fmt.Sprintf("ValidateSameShape: %dx%d vs %dx%d", a.Rows(), a.Cols(), b.Rows(), b.Cols()), ErrDimensionMismatch)
	}
	return nil
}

// ValidateMulCompatible ensures a.Cols == b.Rows and equal element types.
//
// Errors: ErrNilMatrix, ErrTypeMismatch, ErrDimensionMismatch.
// Complexity: O(1).
func ValidateMulCompatible(a, b Matrix) error {
	if err := ValidateNotNil(a, b); err != nil {
		return err
	}
	if err := ValidateSameType(a, b); err != nil {
		return err
	}
	if a.Cols() != b.Rows() {
		return validatorErrorf(fmt.Sprintf("ValidateMulCompatible: %dx%d * %dx%d", a.Rows(), a.Cols(), b.Rows(), b.Cols()), ErrDimensionMismatch)
	}
	return nil
}
