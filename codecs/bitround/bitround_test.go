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

package bitround

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/ianlewis/go-numcodecs"
)

func TestRound32(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		x        float32
		keep     uint32
		expected float32
	}{
		{"exact", 1.0, 0, 1.0},
		{"tie to even up", 1.5, 0, 2.0},
		{"tie to even down", 1.25, 1, 1.0},
		{"tie to even up keep 1", 1.75, 1, 2.0},
		{"round down", 1.2, 1, 1.0},
		{"negative", -1.75, 1, -2.0},
		{"all bits", 1.2345678, 23, 1.2345678},
		{"zero", 0, 3, 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			if diff := cmp.Diff(tc.expected, Round32(tc.x, tc.keep)); diff != "" {
				t.Errorf("Round32 (-want, +got):\n%s", diff)
			}
		})
	}
}

func TestRound64(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		x        float64
		keep     uint32
		expected float64
	}{
		{"tie to even up", 1.5, 0, 2.0},
		{"tie to even down", 1.25, 1, 1.0},
		{"keep 2", 1.3, 2, 1.25},
		{"all bits", math.Pi, 52, math.Pi},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			if diff := cmp.Diff(tc.expected, Round64(tc.x, tc.keep)); diff != "" {
				t.Errorf("Round64 (-want, +got):\n%s", diff)
			}
		})
	}
}

func TestCodec_Encode(t *testing.T) {
	t.Parallel()

	c := New(Config{KeepBits: 1})
	encoded, err := c.Encode(numcodecs.FromSlice([]float32{1.25, 1.75, 3}))
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, err := numcodecs.Elements[float32](encoded)
	if err != nil {
		t.Fatalf("Elements: %v", err)
	}
	if diff := cmp.Diff([]float32{1, 2, 3}, got); diff != "" {
		t.Errorf("Encode (-want, +got):\n%s", diff)
	}

	decoded, err := c.Decode(encoded)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !numcodecs.Equal(encoded, decoded) {
		t.Errorf("Decode: expected pass-through")
	}
}

func TestCodec_errors(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name        string
		keepBits    uint8
		data        *numcodecs.Array
		expectedErr error
	}{
		{
			name:        "f32 keepbits",
			keepBits:    24,
			data:        numcodecs.FromSlice([]float32{1}),
			expectedErr: ErrKeepBits,
		},
		{
			name:     "f64 keepbits",
			keepBits: 24,
			data:     numcodecs.FromSlice([]float64{1}),
		},
		{
			name:        "f64 excessive keepbits",
			keepBits:    53,
			data:        numcodecs.FromSlice([]float64{1}),
			expectedErr: ErrKeepBits,
		},
		{
			name:        "integer",
			keepBits:    3,
			data:        numcodecs.FromSlice([]int32{1}),
			expectedErr: numcodecs.ErrUnsupportedDType,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			_, err := New(Config{KeepBits: tc.keepBits}).Encode(tc.data)
			if diff := cmp.Diff(tc.expectedErr, err, cmpopts.EquateErrors()); diff != "" {
				t.Errorf("Encode (-want, +got):\n%s", diff)
			}
		})
	}
}

func TestType_New(t *testing.T) {
	t.Parallel()

	c, err := Type.New(numcodecs.Config{"id": ID, "keepbits": 10})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if diff := cmp.Diff(Config{KeepBits: 10}, c.(*Codec).config); diff != "" {
		t.Errorf("config (-want, +got):\n%s", diff)
	}

	_, err = Type.New(numcodecs.Config{"id": ID})
	if diff := cmp.Diff(numcodecs.ErrInvalidConfig, err, cmpopts.EquateErrors()); diff != "" {
		t.Errorf("New (-want, +got):\n%s", diff)
	}

	_, err = Type.New(numcodecs.Config{"keepbits": 256})
	if diff := cmp.Diff(numcodecs.ErrInvalidConfig, err, cmpopts.EquateErrors()); diff != "" {
		t.Errorf("New (-want, +got):\n%s", diff)
	}
}
