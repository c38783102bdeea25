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
	"encoding/json"
	"fmt"
)

// DType is the element type of an [Array].
//
// The numeric values of the DType constants are stable and are used by the
// binary headers that codecs write.
type DType uint8

const (
	U8 DType = iota
	U16
	U32
	U64
	I8
	I16
	I32
	I64
	F32
	F64
)

var dtypeNames = [...]string{
	U8:  "u8",
	U16: "u16",
	U32: "u32",
	U64: "u64",
	I8:  "i8",
	I16: "i16",
	I32: "i32",
	I64: "i64",
	F32: "f32",
	F64: "f64",
}

var dtypeSizes = [...]int{
	U8:  1,
	U16: 2,
	U32: 4,
	U64: 8,
	I8:  1,
	I16: 2,
	I32: 4,
	I64: 8,
	F32: 4,
	F64: 8,
}

// DTypes returns all supported dtypes in order.
func DTypes() []DType {
	return []DType{U8, U16, U32, U64, I8, I16, I32, I64, F32, F64}
}

// ParseDType parses the short dtype name, e.g. "f32".
func ParseDType(s string) (DType, error) {
	for i, name := range dtypeNames {
		if name == s {
			return DType(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnsupportedDType, s)
}

// Valid reports whether d is a known dtype.
func (d DType) Valid() bool {
	return int(d) < len(dtypeNames)
}

func (d DType) String() string {
	if !d.Valid() {
		return fmt.Sprintf("DType(%d)", uint8(d))
	}
	return dtypeNames[d]
}

// Size returns the size of a single element in bytes.
func (d DType) Size() int {
	if !d.Valid() {
		return 0
	}
	return dtypeSizes[d]
}

// IsFloat reports whether d is a floating point dtype.
func (d DType) IsFloat() bool {
	return d == F32 || d == F64
}

// IsSigned reports whether d is a signed integer or floating point dtype.
func (d DType) IsSigned() bool {
	switch d {
	case I8, I16, I32, I64, F32, F64:
		return true
	default:
		return false
	}
}

// Binary returns the unsigned integer dtype with the same size as d.
func (d DType) Binary() DType {
	switch d.Size() {
	case 1:
		return U8
	case 2:
		return U16
	case 4:
		return U32
	default:
		return U64
	}
}

// MarshalJSON implements [json.Marshaler].
func (d DType) MarshalJSON() ([]byte, error) {
	if !d.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedDType, uint8(d))
	}
	//nolint:wrapcheck // error does not need to be wrapped
	return json.Marshal(d.String())
}

// UnmarshalJSON implements [json.Unmarshaler].
func (d *DType) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("%w: dtype must be a string: %w", ErrInvalidConfig, err)
	}
	dt, err := ParseDType(s)
	if err != nil {
		return err
	}
	*d = dt
	return nil
}
