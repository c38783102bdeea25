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

// Package header implements the compact binary headers that codecs prepend
// to their encoded data.
//
// Integers are written as unsigned LEB128 varints, floats as little-endian
// IEEE 754 values and sequences as a varint length followed by the elements.
// This matches the postcard wire format used by other numcodecs
// implementations.
package header

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/ianlewis/go-numcodecs"
)

// AppendUint appends v as a varint.
func AppendUint(b []byte, v uint64) []byte {
	return binary.AppendUvarint(b, v)
}

// AppendDType appends the dtype's ordinal.
func AppendDType(b []byte, d numcodecs.DType) []byte {
	return AppendUint(b, uint64(d))
}

// AppendShape appends the number of dimensions followed by each dimension.
func AppendShape(b []byte, shape []int) []byte {
	b = AppendUint(b, uint64(len(shape)))
	for _, d := range shape {
		//nolint:gosec // dimensions are never negative
		b = AppendUint(b, uint64(d))
	}
	return b
}

// AppendArray appends the dtype and shape of an array.
func AppendArray(b []byte, d numcodecs.DType, shape []int) []byte {
	return AppendShape(AppendDType(b, d), shape)
}

// AppendFloat32 appends v as 4 little-endian bytes.
func AppendFloat32(b []byte, v float32) []byte {
	return binary.LittleEndian.AppendUint32(b, math.Float32bits(v))
}

// AppendFloat64 appends v as 8 little-endian bytes.
func AppendFloat64(b []byte, v float64) []byte {
	return binary.LittleEndian.AppendUint64(b, math.Float64bits(v))
}

// Reader reads header fields from the front of a byte slice.
type Reader struct {
	b   []byte
	off int
}

// NewReader returns a Reader reading from b.
func NewReader(b []byte) *Reader {
	return &Reader{b: b}
}

// Offset returns the number of bytes consumed so far.
func (r *Reader) Offset() int {
	return r.off
}

// Remaining returns the unread bytes.
func (r *Reader) Remaining() []byte {
	return r.b[r.off:]
}

// Uint reads a varint.
func (r *Reader) Uint() (uint64, error) {
	v, n := binary.Uvarint(r.b[r.off:])
	switch {
	case n == 0:
		return 0, fmt.Errorf("%w: header: unexpected end of data", numcodecs.ErrEncodedData)
	case n < 0:
		return 0, fmt.Errorf("%w: header: varint overflows 64 bits", numcodecs.ErrEncodedData)
	}
	r.off += n
	return v, nil
}

// DType reads a dtype ordinal.
func (r *Reader) DType() (numcodecs.DType, error) {
	v, err := r.Uint()
	if err != nil {
		return 0, err
	}
	d := numcodecs.DType(v)
	if v > math.MaxUint8 || !d.Valid() {
		return 0, fmt.Errorf("%w: header: unknown dtype %d", numcodecs.ErrEncodedData, v)
	}
	return d, nil
}

// Shape reads a shape.
func (r *Reader) Shape() ([]int, error) {
	n, err := r.Uint()
	if err != nil {
		return nil, err
	}
	// Every dimension takes at least one byte.
	if n > uint64(len(r.b)-r.off) {
		return nil, fmt.Errorf("%w: header: shape of %d dimensions exceeds data", numcodecs.ErrEncodedData, n)
	}
	shape := make([]int, n)
	for i := range shape {
		d, err := r.Uint()
		if err != nil {
			return nil, err
		}
		if d > math.MaxInt32 {
			return nil, fmt.Errorf("%w: header: dimension %d is too large", numcodecs.ErrEncodedData, d)
		}
		shape[i] = int(d)
	}
	return shape, nil
}

// Array reads a dtype followed by a shape.
func (r *Reader) Array() (numcodecs.DType, []int, error) {
	d, err := r.DType()
	if err != nil {
		return 0, nil, err
	}
	shape, err := r.Shape()
	if err != nil {
		return 0, nil, err
	}
	return d, shape, nil
}

// Float32 reads a little-endian float32.
func (r *Reader) Float32() (float32, error) {
	if len(r.b)-r.off < 4 {
		return 0, fmt.Errorf("%w: header: unexpected end of data", numcodecs.ErrEncodedData)
	}
	v := math.Float32frombits(binary.LittleEndian.Uint32(r.b[r.off:]))
	r.off += 4
	return v, nil
}

// Float64 reads a little-endian float64.
func (r *Reader) Float64() (float64, error) {
	if len(r.b)-r.off < 8 {
		return 0, fmt.Errorf("%w: header: unexpected end of data", numcodecs.ErrEncodedData)
	}
	v := math.Float64frombits(binary.LittleEndian.Uint64(r.b[r.off:]))
	r.off += 8
	return v, nil
}
