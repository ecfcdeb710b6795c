// SPDX-License-Identifier: MIT

package engine

import (
	"errors"
	"fmt"
)

var (
	// ErrTransposeAfterAccumulate is the panic value (wrapped) when the
	// transpose requirement of an operator changes after it accumulated.
	ErrTransposeAfterAccumulate = errors.New("engine: transpose requirement changed after accumulation")

	// ErrEmptyCombine is the panic value (wrapped) when an operator is
	// combined before any worker ran it.
	ErrEmptyCombine = errors.New("engine: combine with no accumulated slot")

	// ErrNotOnPool is the panic value (wrapped) when an operator runs on a
	// goroutine that is not a worker of its pool.
	ErrNotOnPool = errors.New("engine: operator run outside the worker pool")

	// ErrBadTiling is the panic value (wrapped) for a block sink whose
	// tiles do not form a consistent grid.
	ErrBadTiling = errors.New("engine: inconsistent block tiling")

	// ErrLongDimMismatch is the panic value (wrapped) when sinks
	// materialized together do not share their long dimension.
	ErrLongDimMismatch = errors.New("engine: sinks differ in long dimension")
)

// engineErrorf wraps err with a call-site tag.
func engineErrorf(tag string, err error) error {
	return fmt.Errorf("%s: %w", tag, err)
}
