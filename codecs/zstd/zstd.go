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

// Package zstd implements a codec that compresses data with Zstandard.
//
// The encoded data is a one-dimensional byte array holding a header with the
// dtype and shape of the data followed by a single Zstandard frame of its
// little-endian element bytes.
package zstd

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"

	"github.com/ianlewis/go-numcodecs"
	"github.com/ianlewis/go-numcodecs/codecs/internal/codecutil"
)

// ID is the codec identifier.
const ID = "zstd"

const (
	// MinLevel is the fastest compression level.
	MinLevel = -131072

	// MaxLevel is the best compression level.
	MaxLevel = 22
)

// Type is the zstd codec type.
var Type numcodecs.CodecType = codecType{}

type codecType struct{}

func (codecType) ID() string      { return ID }
func (codecType) Version() string { return "" }

func (t codecType) Schema() numcodecs.Schema {
	return numcodecs.ObjectSchema(t,
		"Codec providing compression using Zstandard.",
		map[string]any{
			"level": map[string]any{
				"type":        "integer",
				"minimum":     MinLevel,
				"maximum":     MaxLevel,
				"examples":    []any{3},
				"description": "Compression level. Negative levels trade compression for speed.",
			},
		}, "level")
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

// Config is the configuration of the zstd codec.
type Config struct {
	Level int `json:"level"`
}

// Codec is the zstd codec. It supports all dtypes.
type Codec struct {
	config Config
}

// New returns a new zstd codec.
func New(cfg Config) (*Codec, error) {
	if cfg.Level < MinLevel || cfg.Level > MaxLevel {
		return nil, fmt.Errorf("%s: %w: level %d is not in [%d, %d]",
			ID, numcodecs.ErrInvalidConfig, cfg.Level, MinLevel, MaxLevel)
	}
	return &Codec{config: cfg}, nil
}

// Encode compresses data.
func (c *Codec) Encode(data *numcodecs.Array) (*numcodecs.Array, error) {
	//nolint:wrapcheck // errors are already wrapped
	return codecutil.EncodeFramed(data, c.compress)
}

func (c *Codec) compress(dst, src []byte) ([]byte, error) {
	enc, err := zstd.NewWriter(nil,
		zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(c.config.Level)),
		zstd.WithEncoderConcurrency(1),
		zstd.WithZeroFrames(true),
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ID, err)
	}
	defer enc.Close()
	return enc.EncodeAll(src, dst), nil
}

// decompress decodes the Zstandard frames in src, which must hold exactly n
// bytes.
func decompress(src []byte, n int) ([]byte, error) {
	dec, err := zstd.NewReader(bytes.NewReader(src),
		zstd.WithDecoderConcurrency(1),
		zstd.WithDecoderLowmem(true),
	)
	if err != nil {
		//nolint:wrapcheck // wrapped by the caller
		return nil, err
	}
	defer dec.Close()

	// n comes from the untrusted header. Read at most one byte more than
	// expected so the buffer only grows with the data actually present.
	out, err := io.ReadAll(io.LimitReader(dec, int64(n)+1))
	if err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("decompressed data is shorter than %d bytes", n)
		}
		//nolint:wrapcheck // wrapped by the caller
		return nil, err
	}
	switch {
	case len(out) < n:
		return nil, fmt.Errorf("decompressed data is shorter than %d bytes", n)
	case len(out) > n:
		return nil, fmt.Errorf("decompressed data is longer than %d bytes", n)
	}
	return out, nil
}

// Decode decompresses encoded, which must be a one-dimensional byte array.
func (*Codec) Decode(encoded *numcodecs.Array) (*numcodecs.Array, error) {
	//nolint:wrapcheck // errors are already wrapped
	return codecutil.DecodeFramed(ID, encoded, decompress)
}

// DecodeInto decompresses encoded into decoded.
func (*Codec) DecodeInto(encoded, decoded *numcodecs.Array) error {
	//nolint:wrapcheck // errors are already wrapped
	return codecutil.DecodeFramedInto(ID, encoded, decoded, decompress)
}

// Config implements [numcodecs.Codec].
func (c *Codec) Config() numcodecs.Config {
	return numcodecs.EncodeConfig(Type, c.config)
}

// Type implements [numcodecs.Codec].
func (*Codec) Type() numcodecs.CodecType {
	return Type
}
