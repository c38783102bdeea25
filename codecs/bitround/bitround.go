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

// Package bitround implements IEEE 754 mantissa bit rounding.
//
// Bit rounding zeroes the trailing bits of the mantissa of floating point
// data, rounding to nearest with ties to even, so that the result compresses
// better. The number of bits to keep should come from an information analysis
// of the data, see Klöwer et al. 2021
// (https://www.nature.com/articles/s43588-021-00156-2).
package bitround

import (
	"errors"
	"fmt"
	"math"

	"github.com/ianlewis/go-numcodecs"
	"github.com/ianlewis/go-numcodecs/codecs/internal/codecutil"
)

// ID is the codec identifier.
const ID = "bit-round"

const (
	mantissaBits32 = 23
	mantissaBits64 = 52
	mantissaMask32 = uint32(1)<<mantissaBits32 - 1
	mantissaMask64 = uint64(1)<<mantissaBits64 - 1
)

// ErrKeepBits indicates that more mantissa bits should be kept than the dtype
// has.
var ErrKeepBits = errors.New("bit-round: keepbits exceed the mantissa size")

// Type is the bit-round codec type.
var Type numcodecs.CodecType = codecType{}

type codecType struct{}

func (codecType) ID() string      { return ID }
func (codecType) Version() string { return "" }

func (t codecType) Schema() numcodecs.Schema {
	return numcodecs.ObjectSchema(t,
		"Bit rounding codec which drops trailing mantissa bits of floating point data "+
			"on encoding, rounding to nearest with ties to even. Decoding passes the data through.",
		map[string]any{
			"keepbits": map[string]any{
				"type":        "integer",
				"format":      "uint8",
				"minimum":     0,
				"maximum":     math.MaxUint8,
				"description": "The number of mantissa bits to keep. At most 23 for f32 and 52 for f64 data.",
			},
		}, "keepbits")
}

func (t codecType) New(cfg numcodecs.Config) (numcodecs.Codec, error) {
	var c Config
	if err := numcodecs.DecodeConfig(t, cfg, &c); err != nil {
		return nil, err
	}
	return New(c), nil
}

// Config is the configuration of the bit-round codec.
type Config struct {
	// KeepBits is the number of mantissa bits to keep.
	KeepBits uint8 `json:"keepbits"`
}

// Codec is the bit-round codec. It supports f32 and f64 data.
type Codec struct {
	config Config
}

// New returns a new bit-round codec.
func New(cfg Config) *Codec {
	return &Codec{config: cfg}
}

// Encode bit rounds data. It errors if keepbits exceeds the number of
// mantissa bits of the dtype.
func (c *Codec) Encode(data *numcodecs.Array) (*numcodecs.Array, error) {
	keep := uint32(c.config.KeepBits)

	switch data.DType() {
	case numcodecs.F32:
		if keep > mantissaBits32 {
			return nil, fmt.Errorf("%w: %d bits for %s", ErrKeepBits, keep, data.DType())
		}
	case numcodecs.F64:
		if keep > mantissaBits64 {
			return nil, fmt.Errorf("%w: %d bits for %s", ErrKeepBits, keep, data.DType())
		}
	}

	//nolint:wrapcheck // errors are already wrapped
	return codecutil.MapFloat(ID, data,
		func(x float32) (float32, error) {
			return Round32(x, keep), nil
		},
		func(x float64) (float64, error) {
			return Round64(x, keep), nil
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

// Round32 rounds x to keep mantissa bits. keep must be at most 23.
func Round32(x float32, keep uint32) float32 {
	if keep >= mantissaBits32 {
		return x
	}
	ulpHalf := mantissaMask32 >> (keep + 1)
	keepMask := ^(mantissaMask32 >> keep)
	shift := mantissaBits32 - keep

	bits := math.Float32bits(x)
	bits += ulpHalf + ((bits >> shift) & 1)
	return math.Float32frombits(bits & keepMask)
}

// Round64 rounds x to keep mantissa bits. keep must be at most 52.
func Round64(x float64, keep uint32) float64 {
	if keep >= mantissaBits64 {
		return x
	}
	ulpHalf := mantissaMask64 >> (keep + 1)
	keepMask := ^(mantissaMask64 >> keep)
	shift := mantissaBits64 - keep

	bits := math.Float64bits(x)
	bits += ulpHalf + ((bits >> shift) & 1)
	return math.Float64frombits(bits & keepMask)
}
