// SPDX-License-Identifier: MIT

// Package scalar - Vec: typed flat storage.
//
// Purpose:
//   - Give every dense buffer one concrete, typed slice without resorting to
//     unsafe byte reinterpretation.
//   - Offer float64 element access for generic (slow-path) code and typed
//     slice access for kernels (fast-path).
//
// Complexity quicksheet:
//   - NewVec: O(n) zero-init; At/Set: O(1); Slice: O(1); CopyFrom: O(n).

package scalar

import "fmt"

// Vec is a typed vector. Exactly one of the backing slices is in use,
// selected by typ. The zero Vec is empty and has type Invalid.
type Vec struct {
	typ Type
	i64 []int64
	f32 []float32
	f64 []float64
}

// NewVec allocates a zeroed vector of n elements of type t.
// Panics with ErrInvalidType for an unsupported t.
func NewVec(t Type, n int) Vec {
	mustValid(t)
	v := Vec{typ: t}
	switch t {
	case Int64:
		v.i64 = make([]int64, n)
	case Float32:
		v.f32 = make([]float32, n)
	case Float64:
		v.f64 = make([]float64, n)
	}
	return v
}

// VecOf wraps s without copying.
func VecOf[T Elem](s []T) Vec {
	switch x := any(s).(type) {
	case []int64:
		return Vec{typ: Int64, i64: x}
	case []float32:
		return Vec{typ: Float32, f32: x}
	case []float64:
		return Vec{typ: Float64, f64: x}
	}
	return Vec{}
}

// Data returns the backing slice of v as []T.
// Panics with ErrTypeMismatch if T does not match v's type.
func Data[T Elem](v Vec) []T {
	if want := TypeOf[T](); want != v.typ {
		panic(fmt.Errorf("Data[%v] on %v vector: %w", want, v.typ, ErrTypeMismatch))
	}
	switch v.typ {
	case Int64:
		return any(v.i64).([]T)
	case Float32:
		return any(v.f32).([]T)
	default:
		return any(v.f64).([]T)
	}
}

// Type returns the element type.
func (v Vec) Type() Type { return v.typ }

// Len returns the number of elements.
func (v Vec) Len() int {
	switch v.typ {
	case Int64:
		return len(v.i64)
	case Float32:
		return len(v.f32)
	case Float64:
		return len(v.f64)
	}
	return 0
}

// At returns element i converted to float64.
func (v Vec) At(i int) float64 {
	switch v.typ {
	case Int64:
		return float64(v.i64[i])
	case Float32:
		return float64(v.f32[i])
	default:
		return v.f64[i]
	}
}

// Set stores x at i, converting to the vector's type.
func (v Vec) Set(i int, x float64) {
	switch v.typ {
	case Int64:
		v.i64[i] = int64(x)
	case Float32:
		v.f32[i] = float32(x)
	default:
		v.f64[i] = x
	}
}

// Slice returns v[lo:hi] sharing storage.
func (v Vec) Slice(lo, hi int) Vec {
	out := Vec{typ: v.typ}
	switch v.typ {
	case Int64:
		out.i64 = v.i64[lo:hi]
	case Float32:
		out.f32 = v.f32[lo:hi]
	case Float64:
		out.f64 = v.f64[lo:hi]
	}
	return out
}

// Zero clears every element.
func (v Vec) Zero() {
	switch v.typ {
	case Int64:
		clear(v.i64)
	case Float32:
		clear(v.f32)
	case Float64:
		clear(v.f64)
	}
}

// CopyFrom copies min(v.Len(), src.Len()) elements of src into v,
// converting element types when they differ. Returns the count copied.
func (v Vec) CopyFrom(src Vec) int {
	if v.typ == src.typ {
		switch v.typ {
		case Int64:
			return copy(v.i64, src.i64)
		case Float32:
			return copy(v.f32, src.f32)
		case Float64:
			return copy(v.f64, src.f64)
		}
		return 0
	}
	n := min(v.Len(), src.Len())
	for i := 0; i < n; i++ {
		v.Set(i, src.At(i))
	}
	return n
}

// Clone returns a deep copy of v.
func (v Vec) Clone() Vec {
	out := NewVec(v.typ, v.Len())
	out.CopyFrom(v)
	return out
}

// Float64s returns the float64 backing slice (nil for other types).
func (v Vec) Float64s() []float64 { return v.f64 }

// Float32s returns the float32 backing slice (nil for other types).
func (v Vec) Float32s() []float32 { return v.f32 }

// Int64s returns the int64 backing slice (nil for other types).
func (v Vec) Int64s() []int64 { return v.i64 }

// SetFrom stores src[j] at v[i], converting when the types differ.
func (v Vec) SetFrom(i int, src Vec, j int) {
	if v.typ != src.typ {
		v.Set(i, src.At(j))
		return
	}
	switch v.typ {
	case Int64:
		v.i64[i] = src.i64[j]
	case Float32:
		v.f32[i] = src.f32[j]
	case Float64:
		v.f64[i] = src.f64[j]
	}
}

// Gather fills dst with src[off], src[off+stride], ... (dst.Len() elements).
// Both vectors must share a type.
func Gather(dst, src Vec, off, stride int) {
	if dst.typ != src.typ {
		panic(fmt.Errorf("Gather %v from %v: %w", dst.typ, src.typ, ErrTypeMismatch))
	}
	switch dst.typ {
	case Int64:
		strided(dst.i64, src.i64, off, stride)
	case Float32:
		strided(dst.f32, src.f32, off, stride)
	case Float64:
		strided(dst.f64, src.f64, off, stride)
	}
}

// Scatter writes src into dst[off], dst[off+stride], ... It is the inverse
// of Gather.
func Scatter(dst Vec, off, stride int, src Vec) {
	if dst.typ != src.typ {
		panic(fmt.Errorf("Scatter %v into %v: %w", src.typ, dst.typ, ErrTypeMismatch))
	}
	switch dst.typ {
	case Int64:
		unstrided(dst.i64, src.i64, off, stride)
	case Float32:
		unstrided(dst.f32, src.f32, off, stride)
	case Float64:
		unstrided(dst.f64, src.f64, off, stride)
	}
}

func strided[T Elem](dst, src []T, off, stride int) {
	if stride == 1 {
		copy(dst, src[off:off+len(dst)])
		return
	}
	for i := range dst {
		dst[i] = src[off+i*stride]
	}
}

func unstrided[T Elem](dst, src []T, off, stride int) {
	if stride == 1 {
		copy(dst[off:off+len(src)], src)
		return
	}
	for i, x := range src {
		dst[off+i*stride] = x
	}
}
