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

// Package identity implements a codec that passes data through unchanged.
package identity

import (
	"github.com/ianlewis/go-numcodecs"
	"github.com/ianlewis/go-numcodecs/codecs/internal/codecutil"
)

// ID is the codec identifier.
const ID = "identity"

// Type is the identity codec type.
var Type numcodecs.CodecType = codecType{}

type codecType struct{}

func (codecType) ID() string      { return ID }
func (codecType) Version() string { return "" }

func (t codecType) Schema() numcodecs.Schema {
	return numcodecs.ObjectSchema(t,
		"Identity codec which returns its input unchanged on encoding and decoding.", nil)
}

func (t codecType) New(cfg numcodecs.Config) (numcodecs.Codec, error) {
	if err := numcodecs.DecodeConfig(t, cfg, &struct{}{}); err != nil {
		return nil, err
	}
	return New(), nil
}

// Codec is the identity codec. It supports all dtypes.
type Codec struct{}

// New returns a new identity codec.
func New() *Codec {
	return &Codec{}
}

// Encode returns a copy of data.
func (*Codec) Encode(data *numcodecs.Array) (*numcodecs.Array, error) {
	return data.Clone(), nil
}

// Decode returns a copy of encoded.
func (*Codec) Decode(encoded *numcodecs.Array) (*numcodecs.Array, error) {
	return encoded.Clone(), nil
}

// DecodeInto copies encoded into decoded.
func (*Codec) DecodeInto(encoded, decoded *numcodecs.Array) error {
	if err := codecutil.CheckDecodeInto(ID, decoded, encoded.DType(), encoded.Shape()); err != nil {
		return err
	}
	//nolint:wrapcheck // dtype and shape are checked above
	return numcodecs.Assign(decoded, encoded)
}

// Config implements [numcodecs.Codec].
func (*Codec) Config() numcodecs.Config {
	return numcodecs.EncodeConfig(Type, nil)
}

// Type implements [numcodecs.Codec].
func (*Codec) Type() numcodecs.CodecType {
	return Type
}
