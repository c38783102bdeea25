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

package asinh

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/ianlewis/go-numcodecs"
)

func TestCodec(t *testing.T) {
	t.Parallel()

	c, err := Type.New(numcodecs.Config{"id": ID, "linear_width": 2})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	data := numcodecs.FromSlice([]float64{-100, -1, 0, 0.5, 1000})
	encoded, err := c.Encode(data)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, err := numcodecs.Elements[float64](encoded)
	if err != nil {
		t.Fatalf("Elements: %v", err)
	}
	want := []float64{
		math.Asinh(-50) * 2,
		math.Asinh(-0.5) * 2,
		0,
		math.Asinh(0.25) * 2,
		math.Asinh(500) * 2,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Encode (-want, +got):\n%s", diff)
	}

	decoded, err := c.Decode(encoded)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	dec, err := numcodecs.Elements[float64](decoded)
	if err != nil {
		t.Fatalf("Elements: %v", err)
	}
	if diff := cmp.Diff([]float64{-100, -1, 0, 0.5, 1000}, dec, cmpopts.EquateApprox(1e-12, 1e-12)); diff != "" {
		t.Errorf("Decode (-want, +got):\n%s", diff)
	}
}

func TestCodec_nonFinite(t *testing.T) {
	t.Parallel()

	c, err := New(Config{LinearWidth: 1})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	_, err = c.Encode(numcodecs.FromSlice([]float32{1, float32(math.NaN())}))
	if diff := cmp.Diff(ErrNonFiniteData, err, cmpopts.EquateErrors()); diff != "" {
		t.Errorf("Encode (-want, +got):\n%s", diff)
	}

	err = c.DecodeInto(numcodecs.FromSlice([]float64{math.Inf(1)}), numcodecs.FromSlice([]float64{0}))
	if diff := cmp.Diff(ErrNonFiniteData, err, cmpopts.EquateErrors()); diff != "" {
		t.Errorf("DecodeInto (-want, +got):\n%s", diff)
	}
}

func TestNew(t *testing.T) {
	t.Parallel()

	for _, w := range []float64{0, math.Inf(1), math.NaN()} {
		_, err := New(Config{LinearWidth: w})
		if diff := cmp.Diff(numcodecs.ErrInvalidConfig, err, cmpopts.EquateErrors()); diff != "" {
			t.Errorf("New(%v) (-want, +got):\n%s", w, diff)
		}
	}
}
