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

// Package linearquantize implements a codec that linearly quantizes floating
// point data to unsigned integers of a configurable number of bits.
//
// The encoded data is a one-dimensional array of the smallest unsigned
// integer dtype that holds the configured bits. Its leading elements hold a
// header with the shape and the minimum and maximum of the data, zero padded
// to a whole number of elements.
package linearquantize

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"math/big"

	"github.com/ianlewis/go-numcodecs"
	"github.com/ianlewis/go-numcodecs/codecs/internal/codecutil"
	"github.com/ianlewis/go-numcodecs/internal/header"
)

// ID is the codec identifier.
const ID = "linear-quantize"

// MaxBits is the largest supported number of bits.
const MaxBits = 64

// ErrNonFiniteData indicates that the data contains infinite or NaN values.
var ErrNonFiniteData = errors.New("linear-quantize: non-finite data")

// bigPrec is the precision used for quantization to more than 32 bits.
const bigPrec = 128

// Type is the linear-quantize codec type.
var Type numcodecs.CodecType = codecType{}

type codecType struct{}

func (codecType) ID() string      { return ID }
func (codecType) Version() string { return "" }

func (t codecType) Schema() numcodecs.Schema {
	return numcodecs.ObjectSchema(t,
		"Lossy codec to reduce the precision of floating point data by linearly "+
			"quantizing it to unsigned integers of the given number of bits.",
		map[string]any{
			"dtype": map[string]any{
				"type":        "string",
				"enum":        []string{"f32", "f64"},
				"description": "Dtype of the decoded data.",
			},
			"bits": map[string]any{
				"type":        "integer",
				"minimum":     1,
				"maximum":     MaxBits,
				"examples":    []any{8},
				"description": "Number of bits of the quantized values.",
			},
		}, "dtype", "bits")
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

// Config is the configuration of the linear-quantize codec.
type Config struct {
	// DType is the dtype of the decoded data, f32 or f64.
	DType numcodecs.DType `json:"dtype"`

	// Bits is the number of bits of the quantized values, from 1 to 64.
	Bits uint8 `json:"bits"`
}

// Codec is the linear-quantize codec.
type Codec struct {
	config Config
}

// New returns a new linear-quantize codec.
func New(cfg Config) (*Codec, error) {
	if !cfg.DType.IsFloat() {
		return nil, fmt.Errorf("%s: %w: dtype must be f32 or f64, got %s",
			ID, numcodecs.ErrInvalidConfig, cfg.DType)
	}
	if cfg.Bits < 1 || cfg.Bits > MaxBits {
		return nil, fmt.Errorf("%s: %w: bits must be in [1, %d], got %d",
			ID, numcodecs.ErrInvalidConfig, MaxBits, cfg.Bits)
	}
	return &Codec{config: cfg}, nil
}

// EncodedDType returns the dtype of the quantized values.
func (c *Codec) EncodedDType() numcodecs.DType {
	switch {
	case c.config.Bits <= 8:
		return numcodecs.U8
	case c.config.Bits <= 16:
		return numcodecs.U16
	case c.config.Bits <= 32:
		return numcodecs.U32
	default:
		return numcodecs.U64
	}
}

// Encode quantizes data, which must have the configured dtype.
func (c *Codec) Encode(data *numcodecs.Array) (*numcodecs.Array, error) {
	if data.DType() != c.config.DType {
		return nil, fmt.Errorf("%s: %w: configured for %s data but got %s",
			ID, numcodecs.ErrDTypeMismatch, c.config.DType, data.DType())
	}
	if !codecutil.AllFloat(data, codecutil.IsFinite) {
		return nil, ErrNonFiniteData
	}
	if c.config.DType == numcodecs.F32 {
		return encode[float32](c, data)
	}
	return encode[float64](c, data)
}

func encode[T numcodecs.Float](c *Codec, data *numcodecs.Array) (*numcodecs.Array, error) {
	values, err := numcodecs.Elements[T](data)
	if err != nil {
		//nolint:wrapcheck // dtype is checked by the caller
		return nil, err
	}

	lo, hi := T(0), T(1)
	if len(values) > 0 {
		lo, hi = values[0], values[0]
		for _, x := range values[1:] {
			lo = min(lo, x)
			hi = max(hi, x)
		}
	}

	qdtype := c.EncodedDType()
	size := qdtype.Size()

	b := header.AppendShape(nil, data.Shape())
	b = appendFloat(b, lo)
	b = appendFloat(b, hi)
	if pad := len(b) % size; pad != 0 {
		b = append(b, make([]byte, size-pad)...)
	}
	n := len(b)/size + len(values)

	for _, x := range values {
		var q uint64
		if hi != lo {
			q = quantize((x-lo)/(hi-lo), c.config.Bits)
		}
		b = appendQuantized(b, q, size)
	}

	out, err := numcodecs.FromBytes(qdtype, []int{n}, b)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ID, err)
	}
	return out, nil
}

// scaleFor returns 2^bits-1.
func scaleFor[T numcodecs.Float](bits uint8) T {
	return T(math.Exp2(float64(bits)) - 1)
}

// quantize maps x in [0, 1] to an integer in [0, 2^bits-1], truncating
// towards zero.
func quantize[T numcodecs.Float](x T, bits uint8) uint64 {
	maxQ := uint64(math.MaxUint64) >> (MaxBits - bits)
	switch {
	case bits <= 16:
		v := x * scaleFor[T](bits)
		return uint64(min(max(v, 0), T(maxQ)))
	case bits <= 32:
		v := float64(x) * scaleFor[float64](bits)
		return uint64(min(max(v, 0), float64(maxQ)))
	default:
		v := new(big.Float).SetPrec(bigPrec).SetFloat64(float64(x))
		v.Mul(v, big.NewFloat(scaleFor[float64](bits)))
		if v.Sign() <= 0 {
			return 0
		}
		if v.Cmp(new(big.Float).SetUint64(maxQ)) >= 0 {
			return maxQ
		}
		q, _ := v.Uint64()
		return q
	}
}

// unquantize maps q in [0, 2^bits-1] back to [0, 1].
func unquantize[T numcodecs.Float](q uint64, bits uint8) T {
	switch {
	case bits <= 16:
		return T(q) / scaleFor[T](bits)
	case bits <= 32:
		return T(float64(q) / scaleFor[float64](bits))
	default:
		v := new(big.Float).SetPrec(bigPrec).SetUint64(q)
		v.Quo(v, big.NewFloat(scaleFor[float64](bits)))
		f, _ := v.Float64()
		return T(f)
	}
}

func appendFloat[T numcodecs.Float](b []byte, x T) []byte {
	switch v := any(x).(type) {
	case float32:
		return header.AppendFloat32(b, v)
	default:
		return header.AppendFloat64(b, float64(x))
	}
}

func readFloat[T numcodecs.Float](r *header.Reader) (T, error) {
	var zero T
	if _, ok := any(zero).(float32); ok {
		v, err := r.Float32()
		return T(v), err
	}
	v, err := r.Float64()
	return T(v), err
}

func appendQuantized(b []byte, q uint64, size int) []byte {
	switch size {
	case 1:
		return append(b, byte(q))
	case 2:
		//nolint:gosec // q fits in the encoded dtype
		return binary.LittleEndian.AppendUint16(b, uint16(q))
	case 4:
		//nolint:gosec // q fits in the encoded dtype
		return binary.LittleEndian.AppendUint32(b, uint32(q))
	default:
		return binary.LittleEndian.AppendUint64(b, q)
	}
}

func readQuantized(b []byte, size int) uint64 {
	switch size {
	case 1:
		return uint64(b[0])
	case 2:
		return uint64(binary.LittleEndian.Uint16(b))
	case 4:
		return uint64(binary.LittleEndian.Uint32(b))
	default:
		return binary.LittleEndian.Uint64(b)
	}
}

// Decode reconstructs the data from the quantized encoded array.
func (c *Codec) Decode(encoded *numcodecs.Array) (*numcodecs.Array, error) {
	if encoded.DType() != c.EncodedDType() {
		return nil, fmt.Errorf("%s: %w: expected %s data for %d bits but got %s",
			ID, numcodecs.ErrDTypeMismatch, c.EncodedDType(), c.config.Bits, encoded.DType())
	}
	if encoded.NDim() != 1 {
		return nil, fmt.Errorf("%s: %w: can only decode one-dimensional arrays but got shape %v",
			ID, numcodecs.ErrShapeMismatch, encoded.Shape())
	}
	if c.config.DType == numcodecs.F32 {
		return decode[float32](c, encoded)
	}
	return decode[float64](c, encoded)
}

func decode[T numcodecs.Float](c *Codec, encoded *numcodecs.Array) (*numcodecs.Array, error) {
	r := header.NewReader(encoded.Bytes())
	shape, err := r.Shape()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ID, err)
	}
	lo, err := readFloat[T](r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ID, err)
	}
	hi, err := readFloat[T](r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ID, err)
	}

	size := c.EncodedDType().Size()
	rest := r.Remaining()
	// Skip the header padding.
	rest = rest[len(rest)%size:]

	n, err := numcodecs.ShapeLen(shape)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ID, err)
	}
	if len(rest)/size != n {
		return nil, fmt.Errorf("%s: %w: header shape %v does not fit %d values",
			ID, numcodecs.ErrEncodedData, shape, len(rest)/size)
	}

	out := make([]T, n)
	for i := range out {
		q := readQuantized(rest[i*size:], size)
		x := lo + unquantize[T](q, c.config.Bits)*(hi-lo)
		out[i] = min(max(x, lo), hi)
	}
	//nolint:wrapcheck // shape length is checked above
	return numcodecs.New(shape, out)
}

// DecodeInto decodes encoded into decoded.
func (c *Codec) DecodeInto(encoded, decoded *numcodecs.Array) error {
	out, err := c.Decode(encoded)
	if err != nil {
		return err
	}
	if err := codecutil.CheckDecodeInto(ID, decoded, out.DType(), out.Shape()); err != nil {
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
