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

// Package stochasticrounding implements a codec that rounds floating point
// data stochastically to a multiple of a fixed precision on encoding.
// Decoding passes the data through.
//
// Each value x with lower multiple l and upper multiple u is rounded to u
// with probability (x-l)/precision and to l otherwise, so the rounding is
// unbiased in expectation. The random numbers are seeded from the configured
// seed and a hash of the data's shape and element bits.
package stochasticrounding

import (
	"fmt"
	"math"

	"github.com/ianlewis/go-numcodecs"
	"github.com/ianlewis/go-numcodecs/codecs/internal/codecutil"
)

// ID is the codec identifier.
const ID = "stochastic-rounding"

// Version is the version of the codec's encoding.
const Version = "1.0.0"

// Type is the stochastic-rounding codec type.
var Type numcodecs.CodecType = codecType{}

type codecType struct{}

func (codecType) ID() string      { return ID }
func (codecType) Version() string { return Version }

func (t codecType) Schema() numcodecs.Schema {
	return numcodecs.ObjectSchema(t,
		"Codec that stochastically rounds the data to the nearest multiple of precision "+
			"on encoding and passes through the input unchanged during decoding. "+
			"Non-finite values are not rounded.",
		map[string]any{
			"precision": map[string]any{
				"type":        "number",
				"minimum":     0,
				"description": "The precision of the rounding operation. A precision of zero disables rounding.",
			},
			"seed": map[string]any{
				"type":        "integer",
				"minimum":     0,
				"description": "Seed for the random generator.",
			},
		}, "precision", "seed")
}

func (t codecType) New(cfg numcodecs.Config) (numcodecs.Codec, error) {
	var c Config
	if err := numcodecs.DecodeConfig(t, cfg, &c); err != nil {
		return nil, err
	}
	codec, err := New(c)
	if err != nil {
		return nil, err
	}
	return codec, nil
}

// Config is the configuration of the stochastic-rounding codec.
type Config struct {
	// Precision is the non-negative precision of the rounding.
	Precision float64 `json:"precision"`
	Seed      uint64  `json:"seed"`
}

// Codec is the stochastic-rounding codec. It supports f32 and f64 data.
type Codec struct {
	config Config
}

// New returns a new stochastic-rounding codec.
func New(cfg Config) (*Codec, error) {
	if !(cfg.Precision >= 0) {
		return nil, fmt.Errorf("%s: %w: precision must be non-negative, got %v",
			ID, numcodecs.ErrInvalidConfig, cfg.Precision)
	}
	return &Codec{config: cfg}, nil
}

// Encode rounds every finite element of data.
func (c *Codec) Encode(data *numcodecs.Array) (*numcodecs.Array, error) {
	if err := codecutil.CheckFloat(ID, data); err != nil {
		return nil, err
	}
	p := c.config.Precision
	if p == 0 {
		return data.Clone(), nil
	}

	r := codecutil.Rand(c.config.Seed, data)
	p32 := float32(p)
	//nolint:wrapcheck // errors are already wrapped
	return codecutil.MapFloat(ID, data,
		func(x float32) (float32, error) {
			if math.IsInf(float64(x), 0) || math.IsNaN(float64(x)) {
				return x, nil
			}
			rem := float32(math.Mod(float64(x), float64(p32)))
			if rem < 0 {
				rem += p32
			}
			lower := x - rem
			if x-lower > p32 {
				lower = math.Nextafter32(lower, float32(math.Inf(1)))
			}
			upper := x + (p32 - rem)
			if upper-x > p32 {
				upper = math.Nextafter32(upper, float32(math.Inf(-1)))
			}
			if codecutil.Open01Float32(r) >= rem/p32 {
				return lower, nil
			}
			return upper, nil
		},
		func(x float64) (float64, error) {
			if !codecutil.IsFinite(x) {
				return x, nil
			}
			rem := math.Mod(x, p)
			if rem < 0 {
				rem += p
			}
			lower := x - rem
			if x-lower > p {
				lower = math.Nextafter(lower, math.Inf(1))
			}
			upper := x + (p - rem)
			if upper-x > p {
				upper = math.Nextafter(upper, math.Inf(-1))
			}
			if codecutil.Open01(r) >= rem/p {
				return lower, nil
			}
			return upper, nil
		},
	)
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
