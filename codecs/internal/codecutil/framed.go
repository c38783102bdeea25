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

package codecutil

import (
	"fmt"

	"github.com/ianlewis/go-numcodecs"
	"github.com/ianlewis/go-numcodecs/internal/header"
)

// Decompressor decompresses src, which must expand to exactly n bytes.
type Decompressor func(src []byte, n int) ([]byte, error)

// EncodeFramed returns a one-dimensional byte array holding the dtype and
// shape header of data followed by compress(data bytes).
func EncodeFramed(data *numcodecs.Array, compress func(dst, src []byte) ([]byte, error)) (*numcodecs.Array, error) {
	b := header.AppendArray(nil, data.DType(), data.Shape())
	b, err := compress(b, data.Bytes())
	if err != nil {
		return nil, err
	}
	return numcodecs.FromSlice(b), nil
}

// DecodeFramed decodes an array written by [EncodeFramed].
func DecodeFramed(id string, encoded *numcodecs.Array, decompress Decompressor) (*numcodecs.Array, error) {
	dtype, shape, payload, err := parseFramed(id, encoded)
	if err != nil {
		return nil, err
	}
	return decodeFramed(id, dtype, shape, payload, decompress)
}

// DecodeFramedInto decodes an array written by [EncodeFramed] into decoded.
func DecodeFramedInto(id string, encoded, decoded *numcodecs.Array, decompress Decompressor) error {
	dtype, shape, payload, err := parseFramed(id, encoded)
	if err != nil {
		return err
	}
	if err := CheckDecodeInto(id, decoded, dtype, shape); err != nil {
		return err
	}
	out, err := decodeFramed(id, dtype, shape, payload, decompress)
	if err != nil {
		return err
	}
	//nolint:wrapcheck // dtype and shape are checked above
	return numcodecs.Assign(decoded, out)
}

func parseFramed(id string, encoded *numcodecs.Array) (numcodecs.DType, []int, []byte, error) {
	b, err := Bytes(id, encoded)
	if err != nil {
		return 0, nil, nil, err
	}
	r := header.NewReader(b)
	dtype, shape, err := r.Array()
	if err != nil {
		return 0, nil, nil, fmt.Errorf("%s: %w", id, err)
	}
	return dtype, shape, r.Remaining(), nil
}

func decodeFramed(
	id string,
	dtype numcodecs.DType,
	shape []int,
	payload []byte,
	decompress Decompressor,
) (*numcodecs.Array, error) {
	n, err := numcodecs.ShapeLen(shape)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", id, numcodecs.ErrEncodedData, err)
	}
	if n > (1<<62)/dtype.Size() {
		return nil, fmt.Errorf("%s: %w: decoded array is too large", id, numcodecs.ErrEncodedData)
	}
	raw, err := decompress(payload, n*dtype.Size())
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", id, numcodecs.ErrEncodedData, err)
	}
	if len(raw) != n*dtype.Size() {
		return nil, fmt.Errorf("%s: %w: decompressed %d bytes but expected %d",
			id, numcodecs.ErrEncodedData, len(raw), n*dtype.Size())
	}
	out, err := numcodecs.FromBytes(dtype, shape, raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", id, err)
	}
	return out, nil
}
