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

// Package asinh implements a quasi-logarithmic transformation codec.
//
// The codec calculates asinh(x/w)*w on encoding and sinh(c/w)*w on decoding
// where w is the linear width. Values within the linear width of zero are
// transformed almost linearly while values of larger magnitude are
// transformed asymptotically logarithmically. Unlike the log codec, negative
// values and zero are supported. Only finite data can be encoded.
package asinh

import (
	"errors"
	"fmt"
	"math"

	"github.com/ianlewis/go-numcodecs"
	"github.com/ianlewis/go-numcodecs/codecs/internal/codecutil"
)

// ID is the codec identifier.
const ID = "asinh"

// ErrNonFiniteData indicates data with infinite or NaN values.
var ErrNonFiniteData = errors.New("asinh: non-finite data")

// Type is the asinh codec type.
var Type numcodecs.CodecType = codecType{}

type codecType struct{}

func (codecType) ID() string      { return ID }
func (codecType) Version() string { return "" }

func (t codecType) Schema() numcodecs.Schema {
	return numcodecs.ObjectSchema(t,
		"Asinh codec which calculates c = asinh(x/w)*w on encoding and d = sinh(c/w)*w on decoding. "+
			"Only finite floating point data is supported.",
		map[string]any{
			"linear_width": map[string]any{
				"type":        "number",
				"description": "The width of the close-to-zero input range where the transform is nearly linear.",
			},
		}, "linear_width")
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

// Config is the configuration of the asinh codec.
type Config struct {
	// LinearWidth is the width of the near-linear range around zero.
	LinearWidth float64 `json:"linear_width"`
}

// Codec is the asinh codec. It supports f32 and f64 data.
type Codec struct {
	config Config
}

// New returns a new asinh codec. The linear width must be finite and
// non-zero.
func New(cfg Config) (*Codec, error) {
	if cfg.LinearWidth == 0 || !codecutil.IsFinite(cfg.LinearWidth) {
		return nil, fmt.Errorf("%w: %s: linear_width must be finite and non-zero, got %v",
			numcodecs.ErrInvalidConfig, ID, cfg.LinearWidth)
	}
	return &Codec{config: cfg}, nil
}

// Encode computes asinh(x/w)*w for every element x.
func (c *Codec) Encode(data *numcodecs.Array) (*numcodecs.Array, error) {
	if err := codecutil.CheckFloat(ID, data); err != nil {
		return nil, err
	}
	if !codecutil.AllFloat(data, codecutil.IsFinite) {
		return nil, ErrNonFiniteData
	}
	w := c.config.LinearWidth
	w32 := float32(w)
	//nolint:wrapcheck // errors are already wrapped
	return codecutil.MapFloat(ID, data,
		func(x float32) (float32, error) {
			return float32(math.Asinh(float64(x/w32))) * w32, nil
		},
		func(x float64) (float64, error) {
			return math.Asinh(x/w) * w, nil
		},
	)
}

// Decode computes sinh(x/w)*w for every element x.
func (c *Codec) Decode(encoded *numcodecs.Array) (*numcodecs.Array, error) {
	if err := codecutil.CheckFloat(ID, encoded); err != nil {
		return nil, err
	}
	if !codecutil.AllFloat(encoded, codecutil.IsFinite) {
		return nil, ErrNonFiniteData
	}
	w := c.config.LinearWidth
	w32 := float32(w)
	//nolint:wrapcheck // errors are already wrapped
	return codecutil.MapFloat(ID, encoded,
		func(x float32) (float32, error) {
			return float32(math.Sinh(float64(x/w32))) * w32, nil
		},
		func(x float64) (float64, error) {
			return math.Sinh(x/w) * w, nil
		},
	)
}

// DecodeInto decodes encoded into decoded.
func (c *Codec) DecodeInto(encoded, decoded *numcodecs.Array) error {
	if err := codecutil.CheckFloat(ID, encoded); err != nil {
		return err
	}
	if err := codecutil.CheckDecodeInto(ID, decoded, encoded.DType(), encoded.Shape()); err != nil {
		return err
	}
	out, err := c.Decode(encoded)
	if err != nil {
		return err
	}
	//nolint:wrapcheck // dtype and shape are checked above
	return numcodecs.Assign(decoded, out)
}

// Config implements [numcodecs.Codec].
func (c *Codec) Config() numcodecs.Config {
	return numcodecs.EncodeConfig(Type, c.config)
}

// Type implements [numcodecs.Codec].
func (*Codec) Type() numcodecs.CodecType {
	return Type
}
