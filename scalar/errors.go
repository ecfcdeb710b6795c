// SPDX-License-Identifier: MIT
// Package scalar: sentinel error set.
// Every message is prefixed with "scalar: ..." so it is easy to grep in logs.
// Callers match with errors.Is; context is attached with %w at the call site.

package scalar

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedOp is returned when an operator is invoked in a role it
	// does not implement (e.g. a non-associative operator asked to reduce).
	// It is a recoverable signal, callers are expected to branch on it.
	ErrUnsupportedOp = errors.New("scalar: operation not supported by operator")

	// ErrTypeMismatch signals operands whose element types do not match the
	// operator. Raised as a panic: it means the expression was built wrong.
	ErrTypeMismatch = errors.New("scalar: element type mismatch")

	// ErrLengthMismatch signals vectors of different lengths passed together.
	ErrLengthMismatch = errors.New("scalar: vector length mismatch")

	// ErrUnknownOp is returned by Registry lookups for unregistered names or
	// names registered without an implementation for the requested type.
	ErrUnknownOp = errors.New("scalar: unknown operator")

	// ErrInvalidType marks the zero Type or an out-of-range value.
	ErrInvalidType = errors.New("scalar: invalid element type")
)

// opErrorf attaches the operator name and role to err.
func opErrorf(name, role string, err error) error {
	return fmt.Errorf("%s.%s: %w", name, role, err)
}
