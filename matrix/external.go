// SPDX-License-Identifier: MIT

package matrix

import (
	"context"
	"fmt"
	"io"

	"github.com/katalvlaran/lazymat/portion"
	"github.com/katalvlaran/lazymat/scalar"
)

// Backend serves portions of a matrix kept outside memory.
type Backend interface {
	// Fetch reads area a. With done == nil it blocks and returns
	// available == true. Otherwise it may return available == false with a
	// window that is filled in the background; done is then called exactly
	// once with the read error (nil on success).
	Fetch(ctx context.Context, a portion.Area, done func(error)) (available bool, w portion.Window, err error)
}

// External is a matrix whose data lives behind a Backend.
type External struct {
	desc
	be         Backend
	transposed bool
}

// Compile-time conformance.
var _ Matrix = (*External)(nil)

// NewExternal describes a rows x cols matrix of type t served by be. The
// configured layout is the layout the backend produces.
//
// Errors: ErrInvalidDimensions, scalar.ErrInvalidType.
func NewExternal(rows, cols int, t scalar.Type, be Backend, opts ...Option) (*External, error) {
	if rows <= 0 || cols <= 0 {
		return nil, matrixErrorf(fmt.Sprintf("NewExternal(%d,%d)", rows, cols), ErrInvalidDimensions)
	}
	if !t.Valid() {
		return nil, matrixErrorf("NewExternal", scalar.ErrInvalidType)
	}
	return &External{desc: newDesc("ext", rows, cols, t, gatherOptions(opts...)), be: be}, nil
}

// InMem implements Matrix.
func (e *External) InMem() bool { return false }

// IsSparse implements Matrix.
func (e *External) IsSparse() bool { return false }

// GetPortion implements Matrix.
func (e *External) GetPortion(ctx context.Context, a portion.Area) (portion.Window, error) {
	_, w, err := e.fetch(ctx, a, nil)
	return w, err
}

// GetPortionAsync implements Matrix.
func (e *External) GetPortionAsync(ctx context.Context, a portion.Area, done func(error)) (bool, portion.Window, error) {
	return e.fetch(ctx, a, done)
}

func (e *External) fetch(ctx context.Context, a portion.Area, done func(error)) (bool, portion.Window, error) {
	if err := e.checkArea("External.GetPortion", a); err != nil {
		return false, nil, err
	}
	if !e.transposed {
		return e.be.Fetch(ctx, a, done)
	}
	ok, w, err := e.be.Fetch(ctx, a.Transpose(), done)
	if err != nil {
		return false, nil, err
	}
	return ok, w.Transpose(), nil
}

// Transpose implements Matrix: portions are fetched in the stored
// orientation and transposed as views.
func (e *External) Transpose() Matrix {
	return &External{desc: e.desc.transposed(), be: e.be, transposed: !e.transposed}
}

// Close releases the backend if it holds resources.
func (e *External) Close() error {
	if c, ok := e.be.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
