// Copyright 2024 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package numcodecs

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"slices"
)

// Element is the set of Go types that can be stored in an [Array].
type Element interface {
	uint8 | uint16 | uint32 | uint64 | int8 | int16 | int32 | int64 | float32 | float64
}

// Float is the set of floating point element types.
type Float interface {
	float32 | float64
}

// Array is a numeric n-dimensional array with a dynamic shape. Elements are
// stored contiguously in C (row-major) order.
//
// The zero value is not a valid Array. Use [New], [Zeros] or [FromBytes].
type Array struct {
	dtype DType
	shape []int

	// data is a []T where T matches dtype and len(data) is the product of
	// shape.
	data any
}

// DTypeOf returns the dtype for the element type T.
func DTypeOf[T Element]() DType {
	var zero T
	switch any(zero).(type) {
	case uint8:
		return U8
	case uint16:
		return U16
	case uint32:
		return U32
	case uint64:
		return U64
	case int8:
		return I8
	case int16:
		return I16
	case int32:
		return I32
	case int64:
		return I64
	case float32:
		return F32
	default:
		return F64
	}
}

// ShapeLen returns the number of elements of an array with the given shape.
func ShapeLen(shape []int) (int, error) {
	n := 1
	for _, d := range shape {
		if d < 0 {
			return 0, fmt.Errorf("%w: negative dimension in %v", ErrInvalidShape, shape)
		}
		if d != 0 && n > math.MaxInt/d {
			return 0, fmt.Errorf("%w: shape %v is too large", ErrInvalidShape, shape)
		}
		n *= d
	}
	return n, nil
}

// New returns an array with the given shape wrapping data. The array takes
// ownership of data.
func New[T Element](shape []int, data []T) (*Array, error) {
	n, err := ShapeLen(shape)
	if err != nil {
		return nil, err
	}
	if n != len(data) {
		return nil, fmt.Errorf("%w: shape %v requires %d elements but got %d", ErrInvalidShape, shape, n, len(data))
	}
	if data == nil {
		data = []T{}
	}
	return &Array{
		dtype: DTypeOf[T](),
		shape: slices.Clone(shape),
		data:  data,
	}, nil
}

// FromSlice returns a one-dimensional array wrapping data.
func FromSlice[T Element](data []T) *Array {
	if data == nil {
		data = []T{}
	}
	return &Array{
		dtype: DTypeOf[T](),
		shape: []int{len(data)},
		data:  data,
	}
}

// Zeros returns a zero-filled array.
func Zeros(dtype DType, shape []int) (*Array, error) {
	if !dtype.Valid() {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedDType, dtype)
	}
	n, err := ShapeLen(shape)
	if err != nil {
		return nil, err
	}
	return &Array{
		dtype: dtype,
		shape: slices.Clone(shape),
		data:  makeData(dtype, n),
	}, nil
}

// ZerosLike returns a zero-filled array with the dtype and shape of a.
func ZerosLike(a *Array) *Array {
	return &Array{
		dtype: a.dtype,
		shape: slices.Clone(a.shape),
		data:  makeData(a.dtype, a.Len()),
	}
}

func makeData(dtype DType, n int) any {
	switch dtype {
	case U8:
		return make([]uint8, n)
	case U16:
		return make([]uint16, n)
	case U32:
		return make([]uint32, n)
	case U64:
		return make([]uint64, n)
	case I8:
		return make([]int8, n)
	case I16:
		return make([]int16, n)
	case I32:
		return make([]int32, n)
	case I64:
		return make([]int64, n)
	case F32:
		return make([]float32, n)
	default:
		return make([]float64, n)
	}
}

// FromBytes decodes little-endian element bytes into a new array.
func FromBytes(dtype DType, shape []int, b []byte) (*Array, error) {
	a, err := Zeros(dtype, shape)
	if err != nil {
		return nil, err
	}
	if len(b) != a.NBytes() {
		return nil, fmt.Errorf("%w: %s array of shape %v requires %d bytes but got %d",
			ErrInvalidShape, dtype, shape, a.NBytes(), len(b))
	}
	a.SetBytes(b)
	return a, nil
}

// DType returns the element type of the array.
func (a *Array) DType() DType {
	return a.dtype
}

// Shape returns a copy of the array's shape.
func (a *Array) Shape() []int {
	return slices.Clone(a.shape)
}

// NDim returns the number of dimensions.
func (a *Array) NDim() int {
	return len(a.shape)
}

// Len returns the total number of elements.
func (a *Array) Len() int {
	switch s := a.data.(type) {
	case []uint8:
		return len(s)
	case []uint16:
		return len(s)
	case []uint32:
		return len(s)
	case []uint64:
		return len(s)
	case []int8:
		return len(s)
	case []int16:
		return len(s)
	case []int32:
		return len(s)
	case []int64:
		return len(s)
	case []float32:
		return len(s)
	case []float64:
		return len(s)
	default:
		return 0
	}
}

// NBytes returns the size of the array's elements in bytes.
func (a *Array) NBytes() int {
	return a.Len() * a.dtype.Size()
}

// Bytes returns the little-endian bytes of the array's elements.
func (a *Array) Bytes() []byte {
	b := make([]byte, 0, a.NBytes())
	switch s := a.data.(type) {
	case []uint8:
		b = append(b, s...)
	case []int8:
		for _, v := range s {
			b = append(b, byte(v))
		}
	case []uint16:
		for _, v := range s {
			b = binary.LittleEndian.AppendUint16(b, v)
		}
	case []int16:
		for _, v := range s {
			//nolint:gosec // bit reinterpretation
			b = binary.LittleEndian.AppendUint16(b, uint16(v))
		}
	case []uint32:
		for _, v := range s {
			b = binary.LittleEndian.AppendUint32(b, v)
		}
	case []int32:
		for _, v := range s {
			//nolint:gosec // bit reinterpretation
			b = binary.LittleEndian.AppendUint32(b, uint32(v))
		}
	case []uint64:
		for _, v := range s {
			b = binary.LittleEndian.AppendUint64(b, v)
		}
	case []int64:
		for _, v := range s {
			//nolint:gosec // bit reinterpretation
			b = binary.LittleEndian.AppendUint64(b, uint64(v))
		}
	case []float32:
		for _, v := range s {
			b = binary.LittleEndian.AppendUint32(b, math.Float32bits(v))
		}
	case []float64:
		for _, v := range s {
			b = binary.LittleEndian.AppendUint64(b, math.Float64bits(v))
		}
	}
	return b
}

// SetBytes overwrites the array's elements from little-endian bytes. b must
// be exactly [Array.NBytes] long.
func (a *Array) SetBytes(b []byte) {
	switch s := a.data.(type) {
	case []uint8:
		copy(s, b)
	case []int8:
		for i := range s {
			s[i] = int8(b[i])
		}
	case []uint16:
		for i := range s {
			s[i] = binary.LittleEndian.Uint16(b[2*i:])
		}
	case []int16:
		for i := range s {
			//nolint:gosec // bit reinterpretation
			s[i] = int16(binary.LittleEndian.Uint16(b[2*i:]))
		}
	case []uint32:
		for i := range s {
			s[i] = binary.LittleEndian.Uint32(b[4*i:])
		}
	case []int32:
		for i := range s {
			//nolint:gosec // bit reinterpretation
			s[i] = int32(binary.LittleEndian.Uint32(b[4*i:]))
		}
	case []uint64:
		for i := range s {
			s[i] = binary.LittleEndian.Uint64(b[8*i:])
		}
	case []int64:
		for i := range s {
			//nolint:gosec // bit reinterpretation
			s[i] = int64(binary.LittleEndian.Uint64(b[8*i:]))
		}
	case []float32:
		for i := range s {
			s[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[4*i:]))
		}
	case []float64:
		for i := range s {
			s[i] = math.Float64frombits(binary.LittleEndian.Uint64(b[8*i:]))
		}
	}
}

// Clone returns a deep copy of the array.
func (a *Array) Clone() *Array {
	c := ZerosLike(a)
	copyData(c.data, a.data)
	return c
}

// Reshape returns an array sharing a's elements with a new shape of the same
// length.
func (a *Array) Reshape(shape []int) (*Array, error) {
	n, err := ShapeLen(shape)
	if err != nil {
		return nil, err
	}
	if n != a.Len() {
		return nil, fmt.Errorf("%w: cannot reshape array of shape %v into %v", ErrInvalidShape, a.shape, shape)
	}
	return &Array{
		dtype: a.dtype,
		shape: slices.Clone(shape),
		data:  a.data,
	}, nil
}

// Elements returns the typed element slice of a. The slice is shared with the
// array.
func Elements[T Element](a *Array) ([]T, error) {
	s, ok := a.data.([]T)
	if !ok {
		return nil, fmt.Errorf("%w: array has dtype %s, not %s", ErrDTypeMismatch, a.dtype, DTypeOf[T]())
	}
	return s, nil
}

// Equal reports whether a and b have the same dtype, shape and bitwise
// identical elements.
func Equal(a, b *Array) bool {
	if a.dtype != b.dtype || !slices.Equal(a.shape, b.shape) {
		return false
	}
	return bytes.Equal(a.Bytes(), b.Bytes())
}

// Assign copies the elements of src into dst. Both arrays must have the same
// dtype and shape.
func Assign(dst, src *Array) error {
	if dst.dtype != src.dtype {
		return fmt.Errorf("%w: cannot assign %s array to %s array", ErrDTypeMismatch, src.dtype, dst.dtype)
	}
	if !slices.Equal(dst.shape, src.shape) {
		return fmt.Errorf("%w: cannot assign array of shape %v to array of shape %v",
			ErrShapeMismatch, src.shape, dst.shape)
	}
	copyData(dst.data, src.data)
	return nil
}

// CheckDecodeInto verifies that decoded has the given dtype and shape.
func CheckDecodeInto(decoded *Array, dtype DType, shape []int) error {
	if decoded.dtype != dtype {
		return fmt.Errorf("%w: cannot decode %s data into the provided %s array", ErrDTypeMismatch, dtype, decoded.dtype)
	}
	if !slices.Equal(decoded.shape, shape) {
		return fmt.Errorf("%w: cannot decode array of shape %v into the provided array of shape %v",
			ErrShapeMismatch, shape, decoded.shape)
	}
	return nil
}

// Gather returns a new array of the given shape whose i-th element is a's
// element at index[i].
func Gather(a *Array, shape []int, index []int) (*Array, error) {
	n, err := ShapeLen(shape)
	if err != nil {
		return nil, err
	}
	if n != len(index) {
		return nil, fmt.Errorf("%w: shape %v requires %d indices but got %d", ErrInvalidShape, shape, n, len(index))
	}
	out := &Array{
		dtype: a.dtype,
		shape: slices.Clone(shape),
	}
	switch s := a.data.(type) {
	case []uint8:
		out.data = gather(s, index)
	case []uint16:
		out.data = gather(s, index)
	case []uint32:
		out.data = gather(s, index)
	case []uint64:
		out.data = gather(s, index)
	case []int8:
		out.data = gather(s, index)
	case []int16:
		out.data = gather(s, index)
	case []int32:
		out.data = gather(s, index)
	case []int64:
		out.data = gather(s, index)
	case []float32:
		out.data = gather(s, index)
	case []float64:
		out.data = gather(s, index)
	}
	return out, nil
}

func gather[T Element](s []T, index []int) []T {
	out := make([]T, len(index))
	for i, j := range index {
		out[i] = s[j]
	}
	return out
}

// copyData copies src into dst, which must be slices of the same type and
// length.
func copyData(dst, src any) {
	switch d := dst.(type) {
	case []uint8:
		copy(d, src.([]uint8))
	case []uint16:
		copy(d, src.([]uint16))
	case []uint32:
		copy(d, src.([]uint32))
	case []uint64:
		copy(d, src.([]uint64))
	case []int8:
		copy(d, src.([]int8))
	case []int16:
		copy(d, src.([]int16))
	case []int32:
		copy(d, src.([]int32))
	case []int64:
		copy(d, src.([]int64))
	case []float32:
		copy(d, src.([]float32))
	case []float64:
		copy(d, src.([]float64))
	}
}
