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

// Package swizzlereshape implements a codec that permutes the axes of data
// and optionally merges groups of adjacent permuted axes into one.
//
// For example the axes [[2, 0], 1] turn data of shape (a, b, c) into data of
// shape (c*a, b). Decoding data with merged axes requires the decoded shape,
// so it is only possible with [Codec.DecodeInto].
package swizzlereshape

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/ianlewis/go-numcodecs"
)

// ID is the codec identifier.
const ID = "swizzle-reshape"

var (
	// ErrInvalidAxes indicates that the axes are not a permutation of the
	// axes of the data.
	ErrInvalidAxes = errors.New("swizzle-reshape: invalid axes")

	// ErrMergedAxes indicates that data with merged axes was decoded without
	// an output array.
	ErrMergedAxes = errors.New("swizzle-reshape: cannot decode merged axes without an output array")
)

// Axis is a single axis index or a group of at least two axis indices that
// are merged into one axis.
type Axis []int

// Single returns the axis with index i.
func Single(i int) Axis {
	return Axis{i}
}

// Merged returns the merged group of the given axes.
func Merged(axes ...int) Axis {
	return Axis(axes)
}

// IsMerged reports whether a is a group of merged axes.
func (a Axis) IsMerged() bool {
	return len(a) > 1
}

// MarshalJSON implements [json.Marshaler]. A single axis is encoded as its
// index and a merged group as a list.
func (a Axis) MarshalJSON() ([]byte, error) {
	if len(a) == 1 {
		//nolint:wrapcheck // error does not need to be wrapped
		return json.Marshal(a[0])
	}
	//nolint:wrapcheck // error does not need to be wrapped
	return json.Marshal([]int(a))
}

// UnmarshalJSON implements [json.Unmarshaler].
func (a *Axis) UnmarshalJSON(b []byte) error {
	var i int
	if err := json.Unmarshal(b, &i); err == nil {
		*a = Axis{i}
		return nil
	}
	var group []int
	if err := json.Unmarshal(b, &group); err != nil {
		return fmt.Errorf("%w: axis must be an index or a list of indices: %w", ErrInvalidAxes, err)
	}
	if len(group) < 2 {
		return fmt.Errorf("%w: merged axes must list at least two axes, got %v", ErrInvalidAxes, group)
	}
	*a = group
	return nil
}

// Type is the swizzle-reshape codec type.
var Type numcodecs.CodecType = codecType{}

type codecType struct{}

func (codecType) ID() string      { return ID }
func (codecType) Version() string { return "" }

func (t codecType) Schema() numcodecs.Schema {
	return numcodecs.ObjectSchema(t,
		"Codec to swizzle/swap the axes of an array and reshape it. "+
			"Axes that are merged during encoding can only be split again when "+
			"decoding into an output array.",
		map[string]any{
			"axes": map[string]any{
				"type": "array",
				"items": map[string]any{
					"oneOf": []any{
						map[string]any{"type": "integer", "minimum": 0},
						map[string]any{
							"type":     "array",
							"items":    map[string]any{"type": "integer", "minimum": 0},
							"minItems": 2,
						},
					},
				},
				"examples": []any{[]any{1, 0}},
				"description": "The permutation of the axes that is applied on encoding. " +
					"Each entry is an axis index or a list of axis indices that are merged. " +
					"Every axis of the data must appear exactly once.",
			},
		}, "axes")
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

// Config is the configuration of the swizzle-reshape codec.
type Config struct {
	Axes []Axis `json:"axes"`
}

// Codec is the swizzle-reshape codec. It supports all dtypes.
type Codec struct {
	config Config
}

// New returns a new swizzle-reshape codec.
func New(cfg Config) (*Codec, error) {
	for _, axis := range cfg.Axes {
		if len(axis) == 0 {
			return nil, fmt.Errorf("%s: %w: %w: empty axis", ID, numcodecs.ErrInvalidConfig, ErrInvalidAxes)
		}
		for _, i := range axis {
			if i < 0 {
				return nil, fmt.Errorf("%s: %w: %w: negative axis %d", ID, numcodecs.ErrInvalidConfig, ErrInvalidAxes, i)
			}
		}
	}
	axes := make([]Axis, len(cfg.Axes))
	for i, axis := range cfg.Axes {
		axes[i] = append(Axis(nil), axis...)
	}
	return &Codec{config: Config{Axes: axes}}, nil
}

// layout returns the axis permutation and the encoded shape for data of the
// given shape.
func (c *Codec) layout(shape []int) ([]int, []int, error) {
	counts := make([]int, len(shape))
	perm := make([]int, 0, len(shape))
	encoded := make([]int, 0, len(c.config.Axes))
	for _, axis := range c.config.Axes {
		n := 1
		for _, i := range axis {
			if i >= len(shape) {
				return nil, nil, fmt.Errorf("%w: axis %d is out of range for an array with %d dimensions",
					ErrInvalidAxes, i, len(shape))
			}
			counts[i]++
			perm = append(perm, i)
			n *= shape[i]
		}
		encoded = append(encoded, n)
	}
	for _, n := range counts {
		if n != 1 {
			return nil, nil, fmt.Errorf("%w: %v must contain every axis of an array with %d dimensions exactly once",
				ErrInvalidAxes, c.config.Axes, len(shape))
		}
	}
	return perm, encoded, nil
}

// permuteIndex returns the gather index that transposes an array of shape src
// so that output axis k is source axis perm[k].
func permuteIndex(src, perm []int) []int {
	strides := make([]int, len(src))
	stride := 1
	for i := len(src) - 1; i >= 0; i-- {
		strides[i] = stride
		stride *= src[i]
	}

	shape := make([]int, len(perm))
	n := 1
	for k, axis := range perm {
		shape[k] = src[axis]
		n *= shape[k]
	}

	index := make([]int, 0, n)
	if n == 0 {
		return index
	}
	pos := make([]int, len(perm))
	for {
		off := 0
		for k, axis := range perm {
			off += pos[k] * strides[axis]
		}
		index = append(index, off)

		// Advance the output position in row-major order.
		k := len(pos) - 1
		for ; k >= 0; k-- {
			pos[k]++
			if pos[k] < shape[k] {
				break
			}
			pos[k] = 0
		}
		if k < 0 {
			return index
		}
	}
}

func inverse(perm []int) []int {
	inv := make([]int, len(perm))
	for k, axis := range perm {
		inv[axis] = k
	}
	return inv
}

// Encode permutes and merges the axes of data.
func (c *Codec) Encode(data *numcodecs.Array) (*numcodecs.Array, error) {
	perm, shape, err := c.layout(data.Shape())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ID, err)
	}
	out, err := numcodecs.Gather(data, shape, permuteIndex(data.Shape(), perm))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ID, err)
	}
	return out, nil
}

// Decode undoes the axis permutation. It fails with [ErrMergedAxes] if any
// axes were merged.
func (c *Codec) Decode(encoded *numcodecs.Array) (*numcodecs.Array, error) {
	for _, axis := range c.config.Axes {
		if axis.IsMerged() {
			return nil, ErrMergedAxes
		}
	}
	eshape := encoded.Shape()
	perm, _, err := c.layout(eshape)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ID, err)
	}
	dshape := make([]int, len(perm))
	for k, axis := range perm {
		dshape[axis] = eshape[k]
	}
	out, err := numcodecs.Gather(encoded, dshape, permuteIndex(eshape, inverse(perm)))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ID, err)
	}
	return out, nil
}

// DecodeInto undoes the axis permutation and splits merged axes using the
// shape of decoded.
func (c *Codec) DecodeInto(encoded, decoded *numcodecs.Array) error {
	if encoded.DType() != decoded.DType() {
		return fmt.Errorf("%s: %w: cannot decode %s data into the provided %s array",
			ID, numcodecs.ErrDTypeMismatch, encoded.DType(), decoded.DType())
	}
	dshape := decoded.Shape()
	perm, shape, err := c.layout(dshape)
	if err != nil {
		return fmt.Errorf("%s: %w", ID, err)
	}
	if !slices.Equal(encoded.Shape(), shape) {
		return fmt.Errorf("%s: %w: array of shape %v must be encoded with shape %v but got %v",
			ID, numcodecs.ErrShapeMismatch, dshape, shape, encoded.Shape())
	}

	permuted := make([]int, len(perm))
	for k, axis := range perm {
		permuted[k] = dshape[axis]
	}
	unmerged, err := encoded.Reshape(permuted)
	if err != nil {
		return fmt.Errorf("%s: %w", ID, err)
	}
	out, err := numcodecs.Gather(unmerged, dshape, permuteIndex(permuted, inverse(perm)))
	if err != nil {
		return fmt.Errorf("%s: %w", ID, err)
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
