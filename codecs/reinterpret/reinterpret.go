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

// Package reinterpret implements a codec that reinterprets the bits of data
// as a different compatible dtype. No numeric conversion takes place.
package reinterpret

import (
	"fmt"

	"github.com/ianlewis/go-numcodecs"
	"github.com/ianlewis/go-numcodecs/codecs/internal/codecutil"
)

// ID is the codec identifier.
const ID = "reinterpret"

// Type is the reinterpret codec type.
var Type numcodecs.CodecType = codecType{}

type codecType struct{}

func (codecType) ID() string      { return ID }
func (codecType) Version() string { return "" }

func (t codecType) Schema() numcodecs.Schema {
	dtypes := []string{}
	for _, d := range numcodecs.DTypes() {
		dtypes = append(dtypes, d.String())
	}
	return numcodecs.ObjectSchema(t,
		"Codec to reinterpret data between different compatible types. "+
			"Only the meaning of the bits changes.",
		map[string]any{
			"encode_dtype": map[string]any{
				"type":        "string",
				"enum":        dtypes,
				"examples":    []any{"u32"},
				"description": "Dtype of the encoded data.",
			},
			"decode_dtype": map[string]any{
				"type":        "string",
				"enum":        dtypes,
				"examples":    []any{"f32"},
				"description": "Dtype of the decoded data.",
			},
		}, "encode_dtype", "decode_dtype")
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

// Config is the configuration of the reinterpret codec.
type Config struct {
	EncodeDType numcodecs.DType `json:"encode_dtype"`
	DecodeDType numcodecs.DType `json:"decode_dtype"`
}

// Codec is the reinterpret codec.
type Codec struct {
	config Config
}

// New returns a new reinterpret codec. The following reinterpretations are
// allowed:
//   - any dtype as itself
//   - any dtype as u8, adding a trailing axis of the element size
//   - i16 as u16
//   - i32 and f32 as u32
//   - i64 and f64 as u64
func New(cfg Config) (*Codec, error) {
	if !allowed(cfg.DecodeDType, cfg.EncodeDType) {
		return nil, fmt.Errorf("%s: %w: reinterpreting %s as %s is not allowed",
			ID, numcodecs.ErrInvalidConfig, cfg.DecodeDType, cfg.EncodeDType)
	}
	return &Codec{config: cfg}, nil
}

// Passthrough returns a codec that does not change dtype d.
func Passthrough(d numcodecs.DType) *Codec {
	return &Codec{config: Config{EncodeDType: d, DecodeDType: d}}
}

// ToBytes returns a codec that reinterprets dtype d as bytes.
func ToBytes(d numcodecs.DType) *Codec {
	return &Codec{config: Config{EncodeDType: numcodecs.U8, DecodeDType: d}}
}

// ToBinary returns a codec that reinterprets dtype d as the unsigned integer
// dtype of the same size.
func ToBinary(d numcodecs.DType) *Codec {
	return &Codec{config: Config{EncodeDType: d.Binary(), DecodeDType: d}}
}

func allowed(from, to numcodecs.DType) bool {
	if !from.Valid() || !to.Valid() {
		return false
	}
	switch {
	case from == to, to == numcodecs.U8:
		return true
	case to == numcodecs.U16:
		return from == numcodecs.I16
	case to == numcodecs.U32:
		return from == numcodecs.I32 || from == numcodecs.F32
	case to == numcodecs.U64:
		return from == numcodecs.I64 || from == numcodecs.F64
	default:
		return false
	}
}

// byteAxis reports whether encoding adds a trailing byte axis.
func (c *Codec) byteAxis() bool {
	return c.config.EncodeDType == numcodecs.U8 && c.config.DecodeDType.Size() > 1
}

// Encode reinterprets data, which must have the decode dtype, as the encode
// dtype.
func (c *Codec) Encode(data *numcodecs.Array) (*numcodecs.Array, error) {
	if data.DType() != c.config.DecodeDType {
		return nil, fmt.Errorf("%s: %w: expected %s data but got %s",
			ID, numcodecs.ErrDTypeMismatch, c.config.DecodeDType, data.DType())
	}
	shape := data.Shape()
	if c.byteAxis() {
		shape = append(shape, c.config.DecodeDType.Size())
	}
	//nolint:wrapcheck // sizes match by construction
	return numcodecs.FromBytes(c.config.EncodeDType, shape, data.Bytes())
}

func (c *Codec) decodedShape(encoded *numcodecs.Array) ([]int, error) {
	if encoded.DType() != c.config.EncodeDType {
		return nil, fmt.Errorf("%s: %w: expected %s data but got %s",
			ID, numcodecs.ErrDTypeMismatch, c.config.EncodeDType, encoded.DType())
	}
	shape := encoded.Shape()
	if !c.byteAxis() {
		return shape, nil
	}
	size := c.config.DecodeDType.Size()
	if len(shape) == 0 || shape[len(shape)-1] != size {
		return nil, fmt.Errorf("%s: %w: expected a trailing axis of %d bytes but got shape %v",
			ID, numcodecs.ErrShapeMismatch, size, shape)
	}
	return shape[:len(shape)-1], nil
}

// Decode reinterprets encoded, which must have the encode dtype, as the
// decode dtype.
func (c *Codec) Decode(encoded *numcodecs.Array) (*numcodecs.Array, error) {
	shape, err := c.decodedShape(encoded)
	if err != nil {
		return nil, err
	}
	//nolint:wrapcheck // sizes match by construction
	return numcodecs.FromBytes(c.config.DecodeDType, shape, encoded.Bytes())
}

// DecodeInto decodes encoded into decoded.
func (c *Codec) DecodeInto(encoded, decoded *numcodecs.Array) error {
	shape, err := c.decodedShape(encoded)
	if err != nil {
		return err
	}
	if err := codecutil.CheckDecodeInto(ID, decoded, c.config.DecodeDType, shape); err != nil {
		return err
	}
	decoded.SetBytes(encoded.Bytes())
	return nil
}

// Config implements [numcodecs.Codec].
func (c *Codec) Config() numcodecs.Config {
	return numcodecs.EncodeConfig(Type, c.config)
}

// Type implements [numcodecs.Codec].
func (*Codec) Type() numcodecs.CodecType {
	return Type
}
