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

package codecs

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/ianlewis/go-numcodecs"
)

func TestDefault(t *testing.T) {
	t.Parallel()

	r := Default()

	var ids []string
	for _, ct := range r.Types() {
		ids = append(ids, ct.ID())
	}
	want := []string{
		"asinh",
		"bit-round",
		"crc32",
		"fixed-offset-scale",
		"identity",
		"linear-quantize",
		"log",
		"reinterpret",
		"round",
		"stochastic-rounding",
		"swizzle-reshape",
		"uniform-noise",
		"zlib",
		"zstd",
	}
	if diff := cmp.Diff(want, ids); diff != "" {
		t.Errorf("Types (-want, +got):\n%s", diff)
	}

	c, err := r.Codec(numcodecs.Config{"id": "stochastic-rounding.rs", "precision": 1, "seed": 0})
	if err != nil {
		t.Fatalf("Codec: %v", err)
	}
	if got, _ := c.Config().ID(); got != "stochastic-rounding" {
		t.Errorf("alias id: got %q, want %q", got, "stochastic-rounding")
	}
}

func TestSchemas(t *testing.T) {
	t.Parallel()

	for _, ct := range Types() {
		s := ct.Schema()
		if s["title"] != ct.ID() {
			t.Errorf("%s: title: got %v", ct.ID(), s["title"])
		}
		if s.Description() == "" {
			t.Errorf("%s: missing description", ct.ID())
		}
		props, ok := s["properties"].(map[string]any)
		if !ok {
			t.Fatalf("%s: properties: got %T", ct.ID(), s["properties"])
		}
		for _, name := range s.Required() {
			if _, ok := props[name]; !ok {
				t.Errorf("%s: required property %q is not defined", ct.ID(), name)
			}
		}
	}
}

func TestPipeline(t *testing.T) {
	t.Parallel()

	r := Default()
	p, err := numcodecs.NewPipeline(r, []numcodecs.Config{
		{"id": "fixed-offset-scale", "offset": 10, "scale": 2},
		{"id": "round", "precision": 0.001},
		{"id": "swizzle-reshape", "axes": []any{1, 0}},
		{"id": "reinterpret", "encode_dtype": "u8", "decode_dtype": "f64"},
		{"id": "zstd", "level": 3},
		{"id": "crc32"},
	})
	if err != nil {
		t.Fatalf("NewPipeline: %v", err)
	}

	in := make([]float64, 60)
	for i := range in {
		in[i] = 10 + math.Cos(float64(i))
	}
	data, err := numcodecs.New([]int{6, 10}, in)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	encoded, err := p.Encode(data)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if encoded.DType() != numcodecs.U8 || encoded.NDim() != 1 {
		t.Errorf("Encode: got %s array of shape %v, want 1-D u8", encoded.DType(), encoded.Shape())
	}

	decoded, err := p.Decode(encoded)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if diff := cmp.Diff([]int{6, 10}, decoded.Shape()); diff != "" {
		t.Errorf("Shape (-want, +got):\n%s", diff)
	}
	got, err := numcodecs.Elements[float64](decoded)
	if err != nil {
		t.Fatalf("Elements: %v", err)
	}
	if diff := cmp.Diff(in, got, cmpopts.EquateApprox(0, 0.002)); diff != "" {
		t.Errorf("Decode (-want, +got):\n%s", diff)
	}

	into := numcodecs.ZerosLike(data)
	if err := p.DecodeInto(encoded, into); err != nil {
		t.Fatalf("DecodeInto: %v", err)
	}
	if !numcodecs.Equal(decoded, into) {
		t.Errorf("DecodeInto: mismatch with Decode")
	}

	// The configs rebuild an equivalent pipeline.
	p2, err := numcodecs.NewPipeline(r, p.Configs())
	if err != nil {
		t.Fatalf("NewPipeline: %v", err)
	}
	decoded2, err := p2.Decode(encoded)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !numcodecs.Equal(decoded, decoded2) {
		t.Errorf("Decode: rebuilt pipeline mismatch")
	}
}
