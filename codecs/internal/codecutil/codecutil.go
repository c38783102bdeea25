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

// Package codecutil contains helpers shared by the codec implementations.
package codecutil

import (
	"encoding/binary"
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/cespare/xxhash/v2"

	"github.com/ianlewis/go-numcodecs"
)

// UnsupportedDType returns the error for a codec that does not support d.
func UnsupportedDType(id string, d numcodecs.DType) error {
	return fmt.Errorf("%s: %w: %s", id, numcodecs.ErrUnsupportedDType, d)
}

// CheckFloat returns an error unless a has a floating point dtype.
func CheckFloat(id string, a *numcodecs.Array) error {
	if !a.DType().IsFloat() {
		return UnsupportedDType(id, a.DType())
	}
	return nil
}

// CheckDecodeInto verifies that decoded has the given dtype and shape.
func CheckDecodeInto(id string, decoded *numcodecs.Array, dtype numcodecs.DType, shape []int) error {
	if err := numcodecs.CheckDecodeInto(decoded, dtype, shape); err != nil {
		return fmt.Errorf("%s: %w", id, err)
	}
	return nil
}

// CopyFloat returns a copy of the floating point array a.
func CopyFloat(id string, a *numcodecs.Array) (*numcodecs.Array, error) {
	if err := CheckFloat(id, a); err != nil {
		return nil, err
	}
	return a.Clone(), nil
}

// AssignFloat copies the floating point array encoded into decoded.
func AssignFloat(id string, encoded, decoded *numcodecs.Array) error {
	if err := CheckFloat(id, encoded); err != nil {
		return err
	}
	if err := CheckDecodeInto(id, decoded, encoded.DType(), encoded.Shape()); err != nil {
		return err
	}
	//nolint:wrapcheck // dtype and shape are checked above
	return numcodecs.Assign(decoded, encoded)
}

// MapFloat returns a new array with f32 or f64 applied to every element of
// the floating point array a.
func MapFloat(
	id string,
	a *numcodecs.Array,
	f32 func(float32) (float32, error),
	f64 func(float64) (float64, error),
) (*numcodecs.Array, error) {
	switch a.DType() {
	case numcodecs.F32:
		return mapElements(a, f32)
	case numcodecs.F64:
		return mapElements(a, f64)
	default:
		return nil, UnsupportedDType(id, a.DType())
	}
}

func mapElements[T numcodecs.Element](a *numcodecs.Array, f func(T) (T, error)) (*numcodecs.Array, error) {
	in, err := numcodecs.Elements[T](a)
	if err != nil {
		//nolint:wrapcheck // error does not need to be wrapped
		return nil, err
	}
	out := make([]T, len(in))
	for i, x := range in {
		if out[i], err = f(x); err != nil {
			return nil, err
		}
	}
	//nolint:wrapcheck // error does not need to be wrapped
	return numcodecs.New(a.Shape(), out)
}

// Bytes returns the elements of the one-dimensional byte array a.
func Bytes(id string, a *numcodecs.Array) ([]byte, error) {
	b, err := numcodecs.Elements[uint8](a)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: can only decode one-dimensional byte arrays but got %s",
			id, numcodecs.ErrUnsupportedDType, a.DType())
	}
	if a.NDim() != 1 {
		return nil, fmt.Errorf("%s: %w: can only decode one-dimensional byte arrays but got shape %v",
			id, numcodecs.ErrShapeMismatch, a.Shape())
	}
	return b, nil
}

// Rand returns a random number generator seeded from seed and the shape and
// element bits of data. Encoding the same data with the same seed yields the
// same random numbers.
func Rand(seed uint64, data *numcodecs.Array) *rand.Rand {
	d := xxhash.New()
	buf := binary.LittleEndian.AppendUint64(nil, seed)
	buf = binary.LittleEndian.AppendUint64(buf, uint64(data.NDim()))
	for _, n := range data.Shape() {
		//nolint:gosec // dimensions are never negative
		buf = binary.LittleEndian.AppendUint64(buf, uint64(n))
	}
	_, _ = d.Write(buf)
	_, _ = d.Write(data.Bytes())
	h := d.Sum64()
	return rand.New(rand.NewPCG(h, h^0x9e3779b97f4a7c15))
}

// Open01 returns a float64 drawn uniformly from the open interval (0, 1).
func Open01(r *rand.Rand) float64 {
	for {
		if u := r.Float64(); u != 0 {
			return u
		}
	}
}

// Open01Float32 returns a float32 drawn uniformly from the open interval
// (0, 1).
func Open01Float32(r *rand.Rand) float32 {
	for {
		if u := r.Float32(); u != 0 {
			return u
		}
	}
}

// IsFinite reports whether x is neither infinite nor NaN.
func IsFinite(x float64) bool {
	return !math.IsInf(x, 0) && !math.IsNaN(x)
}

// AllFloat reports whether f holds for every element of the floating point
// array a. f32 elements are widened to float64, which preserves their value.
// AllFloat reports false for arrays of other dtypes.
func AllFloat(a *numcodecs.Array, f func(float64) bool) bool {
	switch a.DType() {
	case numcodecs.F32:
		s, _ := numcodecs.Elements[float32](a)
		for _, x := range s {
			if !f(float64(x)) {
				return false
			}
		}
		return true
	case numcodecs.F64:
		s, _ := numcodecs.Elements[float64](a)
		for _, x := range s {
			if !f(x) {
				return false
			}
		}
		return true
	default:
		return false
	}
}
