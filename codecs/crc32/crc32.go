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

// Package crc32 implements a checksum codec. Encoding prepends the
// little-endian CRC-32 (IEEE) of the data bytes and decoding verifies and
// strips it.
package crc32

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"

	"github.com/ianlewis/go-numcodecs"
	"github.com/ianlewis/go-numcodecs/codecs/internal/codecutil"
)

// ID is the codec identifier.
const ID = "crc32"

// checksumSize is the size of the checksum prefix in bytes.
const checksumSize = 4

// ErrChecksum indicates that the checksum of decoded data does not match.
var ErrChecksum = errors.New("crc32: checksum mismatch")

// Type is the crc32 codec type.
var Type numcodecs.CodecType = codecType{}

type codecType struct{}

func (codecType) ID() string      { return ID }
func (codecType) Version() string { return "" }

func (t codecType) Schema() numcodecs.Schema {
	return numcodecs.ObjectSchema(t,
		"Checksum codec which prepends the 4-byte little-endian CRC-32 of the data. "+
			"Only one-dimensional byte arrays are supported.",
		map[string]any{})
}

func (t codecType) New(cfg numcodecs.Config) (numcodecs.Codec, error) {
	if err := numcodecs.DecodeConfig(t, cfg, &struct{}{}); err != nil {
		return nil, err
	}
	return New(), nil
}

// Codec is the crc32 codec.
type Codec struct{}

// New returns a new crc32 codec.
func New() *Codec {
	return &Codec{}
}

// Encode returns the checksum of data followed by its bytes.
func (*Codec) Encode(data *numcodecs.Array) (*numcodecs.Array, error) {
	b, err := codecutil.Bytes(ID, data)
	if err != nil {
		return nil, err
	}
	out := make([]byte, checksumSize, checksumSize+len(b))
	binary.LittleEndian.PutUint32(out, crc32.ChecksumIEEE(b))
	out = append(out, b...)
	return numcodecs.FromSlice(out), nil
}

func verify(encoded *numcodecs.Array) ([]byte, error) {
	b, err := codecutil.Bytes(ID, encoded)
	if err != nil {
		return nil, err
	}
	if len(b) < checksumSize {
		return nil, fmt.Errorf("%s: %w: missing checksum", ID, numcodecs.ErrEncodedData)
	}
	want := binary.LittleEndian.Uint32(b)
	payload := b[checksumSize:]
	if got := crc32.ChecksumIEEE(payload); got != want {
		return nil, fmt.Errorf("%w: expected %08x but got %08x", ErrChecksum, want, got)
	}
	return payload, nil
}

// Decode verifies the checksum of encoded and returns the data bytes.
func (*Codec) Decode(encoded *numcodecs.Array) (*numcodecs.Array, error) {
	payload, err := verify(encoded)
	if err != nil {
		return nil, err
	}
	return numcodecs.FromSlice(append([]byte(nil), payload...)), nil
}

// DecodeInto decodes encoded into decoded.
func (*Codec) DecodeInto(encoded, decoded *numcodecs.Array) error {
	payload, err := verify(encoded)
	if err != nil {
		return err
	}
	if err := codecutil.CheckDecodeInto(ID, decoded, numcodecs.U8, []int{len(payload)}); err != nil {
		return err
	}
	decoded.SetBytes(payload)
	return nil
}

// Config implements [numcodecs.Codec].
func (*Codec) Config() numcodecs.Config {
	return numcodecs.EncodeConfig(Type, nil)
}

// Type implements [numcodecs.Codec].
func (*Codec) Type() numcodecs.CodecType {
	return Type
}
