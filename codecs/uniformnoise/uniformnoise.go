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

// Package uniformnoise implements a codec that adds uniform noise in
// [-scale/2, scale/2] to floating point data on encoding. Decoding passes the
// data through.
//
// The noise is seeded from the configured seed and a hash of the data's shape
// and element bits, so encoding the same data twice yields the same result.
package uniformnoise

import (
	"math"

	"github.com/ianlewis/go-numcodecs"
	"github.com/ianlewis/go-numcodecs/codecs/internal/codecutil"
)

// ID is the codec identifier.
const ID = "uniform-noise"

// Type is the uniform-noise codec type.
var Type numcodecs.CodecType = codecType{}

type codecType struct{}

func (codecType) ID() string      { return ID }
func (codecType) Version() string { return "" }

func (t codecType) Schema() numcodecs.Schema {
	return numcodecs.ObjectSchema(t,
		"Codec that adds seeded uniform noise of the given scale on encoding and "+
			"passes through the input unchanged during decoding.",
		map[string]any{
			"scale": map[string]any{
				"type":        "number",
				"description": "Scale of the uniform noise, which is sampled from [-scale/2, scale/2].",
			},
			"seed": map[string]any{
				"type":        "integer",
				"minimum":     0,
				"description": "Seed for the random noise generator.",
			},
		}, "scale", "seed")
}

func (t codecType) New(cfg numcodecs.Config) (numcodecs.Codec, error) {
	var c Config
	if err := numcodecs.DecodeConfig(t, cfg, &c); err != nil {
		return nil, err
	}
	return New(c), nil
}

// Config is the configuration of the uniform-noise codec.
type Config struct {
	Scale float64 `json:"scale"`
	Seed  uint64  `json:"seed"`
}

// Codec is the uniform-noise codec. It supports f32 and f64 data.
type Codec struct {
	config Config
}

// New returns a new uniform-noise codec.
func New(cfg Config) *Codec {
	return &Codec{config: cfg}
}

// Encode adds noise to every element of data.
func (c *Codec) Encode(data *numcodecs.Array) (*numcodecs.Array, error) {
	if err := codecutil.CheckFloat(ID, data); err != nil {
		return nil, err
	}
	r := codecutil.Rand(c.config.Seed, data)
	scale := c.config.Scale
	scale32 := float32(scale)
	//nolint:wrapcheck // errors are already wrapped
	return codecutil.MapFloat(ID, data,
		func(x float32) (float32, error) {
			u := codecutil.Open01Float32(r)
			offset := fma32(scale32, -0.5, x)
			return fma32(u, scale32, offset), nil
		},
		func(x float64) (float64, error) {
			u := codecutil.Open01(r)
			return math.FMA(u, scale, math.FMA(scale, -0.5, x)), nil
		},
	)
}

func fma32(x, y, z float32) float32 {
	return float32(math.FMA(float64(x), float64(y), float64(z)))
}

// Decode returns a copy of encoded.
func (*Codec) Decode(encoded *numcodecs.Array) (*numcodecs.Array, error) {
	//nolint:wrapcheck // errors are already wrapped
	return codecutil.CopyFloat(ID, encoded)
}

// DecodeInto copies encoded into decoded.
func (*Codec) DecodeInto(encoded, decoded *numcodecs.Array) error {
	//nolint:wrapcheck // errors are already wrapped
	return codecutil.AssignFloat(ID, encoded, decoded)
}

// Config implements [numcodecs.Codec].
func (c *Codec) Config() numcodecs.Config {
	return numcodecs.EncodeConfig(Type, c.config)
}

// Type implements [numcodecs.Codec].
func (*Codec) Type() numcodecs.CodecType {
	return Type
}
