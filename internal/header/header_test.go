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

package header

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/ianlewis/go-numcodecs"
)

func TestAppendArray(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		dtype    numcodecs.DType
		shape    []int
		expected []byte
	}{
		{
			name:     "scalar",
			dtype:    numcodecs.U8,
			shape:    []int{},
			expected: []byte{0x00, 0x00},
		},
		{
			name:     "small dims",
			dtype:    numcodecs.F32,
			shape:    []int{2, 3},
			expected: []byte{0x08, 0x02, 0x02, 0x03},
		},
		{
			name:     "multi-byte dim",
			dtype:    numcodecs.F64,
			shape:    []int{300},
			expected: []byte{0x09, 0x01, 0xac, 0x02},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			b := AppendArray(nil, tc.dtype, tc.shape)
			if diff := cmp.Diff(tc.expected, b); diff != "" {
				t.Fatalf("AppendArray (-want, +got):\n%s", diff)
			}

			r := NewReader(b)
			dtype, shape, err := r.Array()
			if err != nil {
				t.Fatalf("Array: %v", err)
			}
			if diff := cmp.Diff(tc.dtype, dtype); diff != "" {
				t.Errorf("Array dtype (-want, +got):\n%s", diff)
			}
			if diff := cmp.Diff(tc.shape, shape); diff != "" {
				t.Errorf("Array shape (-want, +got):\n%s", diff)
			}
			if diff := cmp.Diff(len(b), r.Offset()); diff != "" {
				t.Errorf("Offset (-want, +got):\n%s", diff)
			}
		})
	}
}

func TestReader_floats(t *testing.T) {
	t.Parallel()

	b := AppendFloat32(nil, 1.5)
	b = AppendFloat64(b, -2.25)
	b = append(b, 0xff)

	r := NewReader(b)
	f32, err := r.Float32()
	if err != nil {
		t.Fatalf("Float32: %v", err)
	}
	if diff := cmp.Diff(float32(1.5), f32); diff != "" {
		t.Errorf("Float32 (-want, +got):\n%s", diff)
	}
	f64, err := r.Float64()
	if err != nil {
		t.Fatalf("Float64: %v", err)
	}
	if diff := cmp.Diff(-2.25, f64); diff != "" {
		t.Errorf("Float64 (-want, +got):\n%s", diff)
	}
	if diff := cmp.Diff([]byte{0xff}, r.Remaining()); diff != "" {
		t.Errorf("Remaining (-want, +got):\n%s", diff)
	}

	if _, err := r.Float32(); !cmp.Equal(numcodecs.ErrEncodedData, err, cmpopts.EquateErrors()) {
		t.Errorf("Float32: expected %v, got %v", numcodecs.ErrEncodedData, err)
	}
}

func TestReader_errors(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name   string
		header []byte
	}{
		{
			name:   "empty",
			header: []byte{},
		},
		{
			name:   "unknown dtype",
			header: []byte{0x0a, 0x00},
		},
		{
			name:   "truncated varint",
			header: []byte{0x08, 0x01, 0x80},
		},
		{
			name:   "too many dims",
			header: []byte{0x08, 0x7f, 0x01},
		},
		{
			name:   "overflow",
			header: []byte{0x08, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0x01},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			_, _, err := NewReader(tc.header).Array()
			if diff := cmp.Diff(numcodecs.ErrEncodedData, err, cmpopts.EquateErrors()); diff != "" {
				t.Errorf("Array (-want, +got):\n%s", diff)
			}
		})
	}
}
