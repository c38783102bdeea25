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

package zstd

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/ianlewis/go-numcodecs"
	"github.com/ianlewis/go-numcodecs/internal/header"
)

func mustNew(t *testing.T, level int) *Codec {
	t.Helper()
	c, err := New(Config{Level: level})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func TestCodec(t *testing.T) {
	t.Parallel()

	f64, err := numcodecs.New([]int{2, 3}, []float64{1, 2, 3, 4, 5, 6})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	scalar, err := numcodecs.New([]int{}, []int32{-42})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	empty, err := numcodecs.Zeros(numcodecs.U16, []int{0, 5})
	if err != nil {
		t.Fatalf("Zeros: %v", err)
	}

	testCases := []struct {
		name string
		data *numcodecs.Array
	}{
		{name: "f64", data: f64},
		{name: "scalar", data: scalar},
		{name: "empty", data: empty},
		{name: "bytes", data: numcodecs.FromSlice([]uint8("hello hello hello hello"))},
	}

	for _, level := range []int{-5, 0, 3, 22} {
		for _, tc := range testCases {
			t.Run(fmt.Sprintf("%s/level%d", tc.name, level), func(t *testing.T) {
				t.Parallel()

				c := mustNew(t, level)
				encoded, err := c.Encode(tc.data)
				if err != nil {
					t.Fatalf("Encode: %v", err)
				}
				if encoded.DType() != numcodecs.U8 || encoded.NDim() != 1 {
					t.Fatalf("Encode: got %s array of shape %v, want 1-D u8", encoded.DType(), encoded.Shape())
				}

				decoded, err := c.Decode(encoded)
				if err != nil {
					t.Fatalf("Decode: %v", err)
				}
				if !numcodecs.Equal(tc.data, decoded) {
					t.Errorf("Decode: round trip mismatch")
				}

				into := numcodecs.ZerosLike(tc.data)
				if err := c.DecodeInto(encoded, into); err != nil {
					t.Fatalf("DecodeInto: %v", err)
				}
				if !numcodecs.Equal(tc.data, into) {
					t.Errorf("DecodeInto: round trip mismatch")
				}
			})
		}
	}
}

func TestNew(t *testing.T) {
	t.Parallel()

	for _, level := range []int{-131073, 23} {
		_, err := Type.New(numcodecs.Config{"level": level})
		if diff := cmp.Diff(numcodecs.ErrInvalidConfig, err, cmpopts.EquateErrors()); diff != "" {
			t.Errorf("New(%d) (-want, +got):\n%s", level, diff)
		}
	}

	_, err := Type.New(numcodecs.Config{})
	if diff := cmp.Diff(numcodecs.ErrInvalidConfig, err, cmpopts.EquateErrors()); diff != "" {
		t.Errorf("New({}) (-want, +got):\n%s", diff)
	}
}

func TestCodec_Config(t *testing.T) {
	t.Parallel()

	c := mustNew(t, 3)
	cfg := c.Config()
	if diff := cmp.Diff(numcodecs.Config{"id": ID, "level": json.Number("3")}, cfg); diff != "" {
		t.Errorf("Config (-want, +got):\n%s", diff)
	}

	c2, err := Type.New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if diff := cmp.Diff(cfg, c2.Config()); diff != "" {
		t.Errorf("Config round trip (-want, +got):\n%s", diff)
	}
}

func TestCodec_decodeErrors(t *testing.T) {
	t.Parallel()

	c := mustNew(t, 3)
	payload, err := c.compress(nil, make([]byte, 24))
	if err != nil {
		t.Fatalf("compress: %v", err)
	}
	frame := func(shape []int, trailer ...byte) *numcodecs.Array {
		b := header.AppendArray(nil, numcodecs.F64, shape)
		b = append(b, payload...)
		return numcodecs.FromSlice(append(b, trailer...))
	}
	huge := func(dtype numcodecs.DType, shape []int) *numcodecs.Array {
		b := header.AppendArray(nil, dtype, shape)
		return numcodecs.FromSlice(append(b, payload...))
	}

	testCases := []struct {
		name        string
		encoded     *numcodecs.Array
		expectedErr error
	}{
		{
			name:        "ok",
			encoded:     frame([]int{3}),
			expectedErr: nil,
		},
		{
			name:        "short output",
			encoded:     frame([]int{4}),
			expectedErr: numcodecs.ErrEncodedData,
		},
		{
			name:        "long output",
			encoded:     frame([]int{2}),
			expectedErr: numcodecs.ErrEncodedData,
		},
		{
			name:        "trailing data",
			encoded:     frame([]int{3}, 1, 2, 3, 4, 5, 6, 7, 8),
			expectedErr: numcodecs.ErrEncodedData,
		},
		{
			name:        "huge shape",
			encoded:     huge(numcodecs.U8, []int{1<<31 - 1, 1<<31 - 1}),
			expectedErr: numcodecs.ErrEncodedData,
		},
		{
			name:        "large shape",
			encoded:     huge(numcodecs.F64, []int{1 << 30}),
			expectedErr: numcodecs.ErrEncodedData,
		},
		{
			name:        "truncated header",
			encoded:     numcodecs.FromSlice([]uint8{}),
			expectedErr: numcodecs.ErrEncodedData,
		},
		{
			name:        "not bytes",
			encoded:     numcodecs.FromSlice([]float64{1}),
			expectedErr: numcodecs.ErrUnsupportedDType,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			_, err := c.Decode(tc.encoded)
			if diff := cmp.Diff(tc.expectedErr, err, cmpopts.EquateErrors()); diff != "" {
				t.Errorf("Decode (-want, +got):\n%s", diff)
			}
		})
	}
}

func TestCodec_DecodeInto_mismatch(t *testing.T) {
	t.Parallel()

	c := mustNew(t, 1)
	encoded, err := c.Encode(numcodecs.FromSlice([]float32{1, 2}))
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	err = c.DecodeInto(encoded, numcodecs.FromSlice([]float64{0, 0}))
	if diff := cmp.Diff(numcodecs.ErrDTypeMismatch, err, cmpopts.EquateErrors()); diff != "" {
		t.Errorf("DecodeInto dtype (-want, +got):\n%s", diff)
	}
	err = c.DecodeInto(encoded, numcodecs.FromSlice([]float32{0, 0, 0}))
	if diff := cmp.Diff(numcodecs.ErrShapeMismatch, err, cmpopts.EquateErrors()); diff != "" {
		t.Errorf("DecodeInto shape (-want, +got):\n%s", diff)
	}
}
