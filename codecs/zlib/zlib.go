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

// Package zlib implements a codec that compresses data with zlib.
//
// The encoded data is a one-dimensional byte array holding a header with the
// dtype and shape of the data followed by a zlib stream of its little-endian
// element bytes.
package zlib

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"

	"github.com/ianlewis/go-numcodecs"
	"github.com/ianlewis/go-numcodecs/codecs/internal/codecutil"
)

// ID is the codec identifier.
const ID = "zlib"

const (
	// MinLevel is no compression.
	MinLevel = 0

	// MaxLevel is the best compression.
	MaxLevel = 9
)

// Type is the zlib codec type.
var Type numcodecs.CodecType = codecType{}

type codecType struct{}

func (codecType) ID() string      { return ID }
func (codecType) Version() string { return "" }

func (t codecType) Schema() numcodecs.Schema {
	return numcodecs.ObjectSchema(t,
		"Codec providing compression using Zlib.",
		map[string]any{
			"level": map[string]any{
				"type":        "integer",
				"minimum":     MinLevel,
				"maximum":     MaxLevel,
				"examples":    []any{6},
				"description": "Compression level, from 0 (no compression) to 9 (best compression).",
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

// Config is the configuration of the zlib codec.
type Config struct {
	Level int `json:"level"`
}

// Codec is the zlib codec. It supports all dtypes.
type Codec struct {
	config Config
}

// New returns a new zlib codec.
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
	buf := bytes.NewBuffer(dst)
	w, err := zlib.NewWriterLevel(buf, c.config.Level)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ID, err)
	}
	if _, err := w.Write(src); err != nil {
		return nil, fmt.Errorf("%s: %w", ID, err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("%s: %w", ID, err)
	}
	return buf.Bytes(), nil
}

// decompress inflates the zlib stream src, which must hold exactly n bytes
// and nothing after the end of the stream.
func decompress(src []byte, n int) ([]byte, error) {
	br := bytes.NewReader(src)
	r, err := zlib.NewReader(br)
	if err != nil {
		//nolint:wrapcheck // wrapped by the caller
		return nil, err
	}
	defer r.Close()

	// n comes from the untrusted header. Read at most one byte more than
	// expected so the buffer only grows with the data actually present.
	// Reading to the end of the stream also verifies the Adler-32 checksum.
	out, err := io.ReadAll(io.LimitReader(r, int64(n)+1))
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
	if br.Len() > 0 {
		return nil, fmt.Errorf("%d bytes of trailing data after the zlib stream", br.Len())
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
