// SPDX-License-Identifier: MIT
// Package: scalar
//
// Purpose:
//   - Provide the operator contract the engine relies on: an element-wise role
//     (out[i] = a[i] op b[i]) and a reduce role (dst[i] = fold(op, in)).
//   - Keep tight loops generic over the element type so each operator is
//     written once and instantiated per Type.
//
// Determinism:
//   - Fixed loop order (0..n-1) for both roles.
//
// Notes:
//   - Type or length mismatches are programmer errors and panic.
//   - A role the operator lacks returns ErrUnsupportedOp.

package scalar

import "fmt"

// Role is a bit set of the capabilities an operator offers.
type Role uint8

const (
	// RoleElementwise: out[i] = a[i] op b[i].
	RoleElementwise Role = 1 << iota
	// RoleReduce: fold a whole vector into one element. Only associative
	// operators should offer it, since partial results are combined in
	// arbitrary order.
	RoleReduce

	// RoleAll is the full capability set.
	RoleAll = RoleElementwise | RoleReduce
)

// BinaryOp is a typed binary operator.
type BinaryOp interface {
	// Name is a short identifier used in expression names and logs.
	Name() string
	// InputType is the element type both operands must carry.
	InputType() Type
	// OutputType is the element type of the result.
	OutputType() Type
	// Supports reports whether every role in r is implemented.
	Supports(r Role) bool
	// Elementwise writes a[i] op b[i] into out[i] for every i.
	Elementwise(a, b, out Vec) error
	// Reduce folds all of in with the operator and stores it at dst[i].
	Reduce(in, dst Vec, i int) error
}

type kernels struct {
	i64 func(a, b int64) int64
	f32 func(a, b float32) float32
	f64 func(a, b float64) float64
}

type binaryOp struct {
	name  string
	typ   Type
	roles Role
	k     kernels
}

// Compile-time conformance.
var _ BinaryOp = (*binaryOp)(nil)

func (o *binaryOp) Name() string         { return o.name }
func (o *binaryOp) InputType() Type      { return o.typ }
func (o *binaryOp) OutputType() Type     { return o.typ }
func (o *binaryOp) Supports(r Role) bool { return o.roles&r == r }
func (o *binaryOp) String() string       { return fmt.Sprintf("%s<%v>", o.name, o.typ) }

// Elementwise implements BinaryOp.
func (o *binaryOp) Elementwise(a, b, out Vec) error {
	if !o.Supports(RoleElementwise) {
		return opErrorf(o.name, "Elementwise", ErrUnsupportedOp)
	}
	o.checkTypes("Elementwise", a, b, out)
	if a.Len() != b.Len() || a.Len() != out.Len() {
		panic(opErrorf(o.name, "Elementwise", ErrLengthMismatch))
	}
	switch o.typ {
	case Int64:
		ew(a.i64, b.i64, out.i64, o.k.i64)
	case Float32:
		ew(a.f32, b.f32, out.f32, o.k.f32)
	case Float64:
		ew(a.f64, b.f64, out.f64, o.k.f64)
	}
	return nil
}

// Reduce implements BinaryOp.
func (o *binaryOp) Reduce(in, dst Vec, i int) error {
	if !o.Supports(RoleReduce) {
		return opErrorf(o.name, "Reduce", ErrUnsupportedOp)
	}
	o.checkTypes("Reduce", in, dst)
	switch o.typ {
	case Int64:
		dst.i64[i] = fold(in.i64, o.k.i64)
	case Float32:
		dst.f32[i] = fold(in.f32, o.k.f32)
	case Float64:
		dst.f64[i] = fold(in.f64, o.k.f64)
	}
	return nil
}

func (o *binaryOp) checkTypes(role string, vs ...Vec) {
	for _, v := range vs {
		if v.typ != o.typ {
			panic(opErrorf(o.name, role, fmt.Errorf("%v operand: %w", v.typ, ErrTypeMismatch)))
		}
	}
}

// ew is the shared element-wise micro-kernel.
func ew[T Elem](a, b, out []T, f func(T, T) T) {
	for i := range out {
		out[i] = f(a[i], b[i])
	}
}

// fold reduces in left to right; an empty input folds to the zero value.
func fold[T Elem](in []T, f func(T, T) T) T {
	if len(in) == 0 {
		var zero T
		return zero
	}
	acc := in[0]
	for _, x := range in[1:] {
		acc = f(acc, x)
	}
	return acc
}

func add[T Elem](a, b T) T   { return a + b }
func sub[T Elem](a, b T) T   { return a - b }
func mul[T Elem](a, b T) T   { return a * b }
func maxOf[T Elem](a, b T) T { return max(a, b) }
func minOf[T Elem](a, b T) T { return min(a, b) }

func newBuiltin(name string, t Type, roles Role, k kernels) BinaryOp {
	mustValid(t)
	return &binaryOp{name: name, typ: t, roles: roles, k: k}
}

// Add returns the addition operator for t (element-wise and reduce).
func Add(t Type) BinaryOp {
	return newBuiltin("add", t, RoleAll, kernels{add[int64], add[float32], add[float64]})
}

// Sub returns the subtraction operator for t. It is not associative, so it
// only offers the element-wise role.
func Sub(t Type) BinaryOp {
	return newBuiltin("sub", t, RoleElementwise, kernels{sub[int64], sub[float32], sub[float64]})
}

// Mul returns the multiplication operator for t.
func Mul(t Type) BinaryOp {
	return newBuiltin("mul", t, RoleAll, kernels{mul[int64], mul[float32], mul[float64]})
}

// Max returns the maximum operator for t.
func Max(t Type) BinaryOp {
	return newBuiltin("max", t, RoleAll, kernels{maxOf[int64], maxOf[float32], maxOf[float64]})
}

// Min returns the minimum operator for t.
func Min(t Type) BinaryOp {
	return newBuiltin("min", t, RoleAll, kernels{minOf[int64], minOf[float32], minOf[float64]})
}

// NewBinaryOp wraps a user function as an operator over TypeOf[T]().
// roles must be non-empty; RoleReduce should only be claimed for
// associative functions.
func NewBinaryOp[T Elem](name string, fn func(a, b T) T, roles Role) BinaryOp {
	if roles == 0 || fn == nil {
		panic(opErrorf(name, "NewBinaryOp", ErrUnsupportedOp))
	}
	op := &binaryOp{name: name, typ: TypeOf[T](), roles: roles}
	switch f := any(fn).(type) {
	case func(a, b int64) int64:
		op.k.i64 = f
	case func(a, b float32) float32:
		op.k.f32 = f
	case func(a, b float64) float64:
		op.k.f64 = f
	}
	return op
}
