// SPDX-License-Identifier: MIT

package scalar

import "fmt"

// Type identifies the element type of a matrix.
type Type uint8

const (
	// Invalid is the zero Type; no matrix may carry it.
	Invalid Type = iota
	// Int64 stores signed 64-bit integers.
	Int64
	// Float32 stores IEEE-754 single precision values.
	Float32
	// Float64 stores IEEE-754 double precision values.
	Float64
)

// Elem is the set of Go types backing a Vec.
type Elem interface {
	int64 | float32 | float64
}

// Size returns the number of bytes one element occupies.
func (t Type) Size() int {
	switch t {
	case Int64, Float64:
		return 8
	case Float32:
		return 4
	default:
		return 0
	}
}

// IsFloat reports whether t is a floating point type.
func (t Type) IsFloat() bool { return t == Float32 || t == Float64 }

// Valid reports whether t is one of the supported element types.
func (t Type) Valid() bool { return t >= Int64 && t <= Float64 }

// Widened returns the type partial sums of t are accumulated in.
// Float64 has no wider native type; its accumulators keep a compensation
// term next to the float64 value instead (see engine accumulators).
func (t Type) Widened() Type {
	if t == Float32 {
		return Float64
	}
	return t
}

// String implements fmt.Stringer.
func (t Type) String() string {
	switch t {
	case Int64:
		return "int64"
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	default:
		return fmt.Sprintf("Type(%d)", uint8(t))
	}
}

// TypeOf returns the Type backing the Go element type T.
func TypeOf[T Elem]() Type {
	var zero T
	switch any(zero).(type) {
	case int64:
		return Int64
	case float32:
		return Float32
	case float64:
		return Float64
	default:
		return Invalid
	}
}

// mustValid panics with ErrInvalidType if t is not a supported element type.
func mustValid(t Type) {
	if !t.Valid() {
		panic(fmt.Errorf("%v: %w", t, ErrInvalidType))
	}
}
