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

// Package log implements a codec that calculates the natural logarithm on
// encoding and the exponential on decoding. Only finite positive floating
// point data can be encoded.
package log

import (
	"errors"
	"math"

	"github.com/ianlewis/go-numcodecs"
	"github.com/ianlewis/go-numcodecs/codecs/internal/codecutil"
)

// ID is the codec identifier.
const ID = "log"

var (
	// ErrNonPositiveData indicates data with negative or zero values.
	ErrNonPositiveData = errors.New("log: non-positive data")

	// ErrNonFiniteData indicates data with infinite or NaN values.
	ErrNonFiniteData = errors.New("log: non-finite data")
)

// Type is the log codec type.
var Type numcodecs.CodecType = codecType{}

type codecType struct{}

func (codecType) ID() string      { return ID }
func (codecType) Version() string { return "" }

func (t codecType) Schema() numcodecs.Schema {
	return numcodecs.ObjectSchema(t,
		"Log codec which calculates c = ln(x) on encoding and d = exp(c) on decoding. "+
			"Only finite positive floating point data is supported.", nil)
}

func (t codecType) New(cfg numcodecs.Config) (numcodecs.Codec, error) {
	if err := numcodecs.DecodeConfig(t, cfg, &struct{}{}); err != nil {
		return nil, err
	}
	return New(), nil
}

// Codec is the log codec. It supports f32 and f64 data.
type Codec struct{}

// New returns a new log codec.
func New() *Codec {
	return &Codec{}
}

// Encode computes ln(x) for every element x. All elements must be positive
// and finite.
func (*Codec) Encode(data *numcodecs.Array) (*numcodecs.Array, error) {
	if err := codecutil.CheckFloat(ID, data); err != nil {
		return nil, err
	}
	if !codecutil.AllFloat(data, codecutil.IsFinite) {
		return nil, ErrNonFiniteData
	}
	if !codecutil.AllFloat(data, func(x float64) bool { return x > 0 }) {
		return nil, ErrNonPositiveData
	}
	//nolint:wrapcheck // errors are already wrapped
	return codecutil.MapFloat(ID, data,
		func(x float32) (float32, error) {
			return float32(math.Log(float64(x))), nil
		},
		func(x float64) (float64, error) {
			return math.Log(x), nil
		},
	)
}

// Decode computes exp(x) for every element x. All elements must be finite.
func (*Codec) Decode(encoded *numcodecs.Array) (*numcodecs.Array, error) {
	if err := codecutil.CheckFloat(ID, encoded); err != nil {
		return nil, err
	}
	if !codecutil.AllFloat(encoded, codecutil.IsFinite) {
		return nil, ErrNonFiniteData
	}
	//nolint:wrapcheck // errors are already wrapped
	return codecutil.MapFloat(ID, encoded,
		func(x float32) (float32, error) {
			return float32(math.Exp(float64(x))), nil
		},
		func(x float64) (float64, error) {
			return math.Exp(x), nil
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
func (*Codec) Config() numcodecs.Config {
	return numcodecs.EncodeConfig(Type, nil)
}

// Type implements [numcodecs.Codec].
func (*Codec) Type() numcodecs.CodecType {
	return Type
}
