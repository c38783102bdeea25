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

// Package fixedoffsetscale implements a codec that calculates (x-o)/s on
// encoding and x*s+o on decoding for a fixed offset o and scale s.
//
// Setting o to the mean and s to the standard deviation of the data
// normalizes it. Setting o to the minimum and s to the range of the data
// standardizes it.
package fixedoffsetscale

import (
	"math"

	"github.com/ianlewis/go-numcodecs"
	"github.com/ianlewis/go-numcodecs/codecs/internal/codecutil"
)

// ID is the codec identifier.
const ID = "fixed-offset-scale"

// Type is the fixed-offset-scale codec type.
var Type numcodecs.CodecType = codecType{}

type codecType struct{}

func (codecType) ID() string      { return ID }
func (codecType) Version() string { return "" }

func (t codecType) Schema() numcodecs.Schema {
	return numcodecs.ObjectSchema(t,
		"Fixed offset-scale codec which calculates c = (x-o)/s on encoding and d = c*s+o on decoding. "+
			"Only floating point data is supported.",
		map[string]any{
			"offset": map[string]any{
				"type":        "number",
				"description": "The offset of the data.",
			},
			"scale": map[string]any{
				"type":        "number",
				"description": "The scale of the data.",
			},
		}, "offset", "scale")
}

func (t codecType) New(cfg numcodecs.Config) (numcodecs.Codec, error) {
	var c Config
	if err := numcodecs.DecodeConfig(t, cfg, &c); err != nil {
		return nil, err
	}
	return New(c), nil
}

// Config is the configuration of the fixed-offset-scale codec.
type Config struct {
	Offset float64 `json:"offset"`
	Scale  float64 `json:"scale"`
}

// Codec is the fixed-offset-scale codec. It supports f32 and f64 data.
type Codec struct {
	config Config
}

// New returns a new fixed-offset-scale codec.
func New(cfg Config) *Codec {
	return &Codec{config: cfg}
}

// Encode computes (x-o)/s for every element x.
func (c *Codec) Encode(data *numcodecs.Array) (*numcodecs.Array, error) {
	negOffset, invScale := -c.config.Offset, 1/c.config.Scale
	negOffset32, invScale32 := -float32(c.config.Offset), 1/float32(c.config.Scale)
	//nolint:wrapcheck // errors are already wrapped
	return codecutil.MapFloat(ID, data,
		func(x float32) (float32, error) {
			return (x + negOffset32) * invScale32, nil
		},
		func(x float64) (float64, error) {
			return (x + negOffset) * invScale, nil
		},
	)
}

// Decode computes x*s+o for every element x.
func (c *Codec) Decode(encoded *numcodecs.Array) (*numcodecs.Array, error) {
	o, s := c.config.Offset, c.config.Scale
	//nolint:wrapcheck // errors are already wrapped
	return codecutil.MapFloat(ID, encoded,
		func(x float32) (float32, error) {
			return float32(math.FMA(float64(x), float64(float32(s)), float64(float32(o)))), nil
		},
		func(x float64) (float64, error) {
			return math.FMA(x, s, o), nil
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
