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

// Package round implements a codec that rounds floating point data to a
// multiple of a fixed precision.
package round

import (
	"fmt"
	"math"

	"github.com/ianlewis/go-numcodecs"
	"github.com/ianlewis/go-numcodecs/codecs/internal/codecutil"
)

// ID is the codec identifier.
const ID = "round"

// Type is the round codec type.
var Type numcodecs.CodecType = codecType{}

type codecType struct{}

func (codecType) ID() string      { return ID }
func (codecType) Version() string { return "" }

func (t codecType) Schema() numcodecs.Schema {
	return numcodecs.ObjectSchema(t,
		"Rounding codec which rounds floating point data to the nearest multiple of "+
			"precision on encoding. Decoding passes the data through.",
		map[string]any{
			"precision": map[string]any{
				"type":             "number",
				"exclusiveMinimum": 0,
				"examples":         []any{0.001},
				"description":      "The precision to round to. Must be positive.",
			},
		}, "precision")
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

// Config is the configuration of the round codec.
type Config struct {
	// Precision is the positive precision to round to.
	Precision float64 `json:"precision"`
}

// Codec is the round codec. It supports f32 and f64 data.
type Codec struct {
	config Config
}

// New returns a new round codec.
func New(cfg Config) (*Codec, error) {
	// NOTE: NaN fails this check as well.
	if !(cfg.Precision > 0) {
		return nil, fmt.Errorf("%w: %s: precision must be positive, got %v",
			numcodecs.ErrInvalidConfig, ID, cfg.Precision)
	}
	return &Codec{config: cfg}, nil
}

// Encode rounds data to the nearest multiple of the precision. Halfway cases
// are rounded away from zero.
func (c *Codec) Encode(data *numcodecs.Array) (*numcodecs.Array, error) {
	p := c.config.Precision
	p32 := float32(p)
	//nolint:wrapcheck // errors are already wrapped
	return codecutil.MapFloat(ID, data,
		func(x float32) (float32, error) {
			return float32(math.Round(float64(x/p32))) * p32, nil
		},
		func(x float64) (float64, error) {
			return math.Round(x/p) * p, nil
		},
	)
}

// Decode returns a copy of encoded.
func (c *Codec) Decode(encoded *numcodecs.Array) (*numcodecs.Array, error) {
	//nolint:wrapcheck // errors are already wrapped
	return codecutil.CopyFloat(ID, encoded)
}

// DecodeInto copies encoded into decoded.
func (c *Codec) DecodeInto(encoded, decoded *numcodecs.Array) error {
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
