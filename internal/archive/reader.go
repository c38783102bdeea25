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

package archive

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"hash"
	"hash/crc32"
	"io"
	"math"
	"strings"
	"time"

	"github.com/ianlewis/go-numcodecs"
)

// maxDims is the maximum number of dimensions of a stored array.
const maxDims = 64

// Read reads a container from r. It returns the header, the encoded array and
// the stored ISIZE.
func Read(r io.Reader) (*Header, *numcodecs.Array, uint32, error) {
	br := bufio.NewReader(r)

	h, err := readHeader(br)
	if err != nil {
		return nil, nil, 0, err
	}

	dr := &digestReader{r: br, digest: crc32.NewIEEE()}
	encoded, err := readBody(dr)
	if err != nil {
		return nil, nil, 0, err
	}

	trailer := make([]byte, 8)
	if _, err := io.ReadFull(br, trailer); err != nil {
		return nil, nil, 0, fmt.Errorf("%w: reading CRC-32 and ISIZE: %w", ErrHeader, noEOF(err))
	}
	if digest := binary.LittleEndian.Uint32(trailer[0:4]); digest != dr.digest.Sum32() {
		return nil, nil, 0, fmt.Errorf("%w: expected %08x, got %08x", ErrChecksum, digest, dr.digest.Sum32())
	}
	isize := binary.LittleEndian.Uint32(trailer[4:8])

	return h, encoded, isize, nil
}

// readFlg reads the fixed size part of the header and returns the flag byte
// and the CONFIG length.
func readFlg(r io.Reader) (int, byte, uint32, time.Time, error) {
	head := make([]byte, 13)
	n, err := io.ReadFull(r, head)
	if err != nil {
		return n, 0, 0, time.Time{}, fmt.Errorf("%w: reading header: %w", ErrHeader, noEOF(err))
	}
	if head[0] != hdrID1 || head[1] != hdrID2 || head[2] != hdrID3 {
		return n, head[4], 0, time.Time{}, fmt.Errorf("%w: ID1,ID2,ID3: %x", ErrHeader, head[0:3])
	}
	if head[3] != hdrVersion {
		return n, head[4], 0, time.Time{}, fmt.Errorf("%w: unsupported version: %d", ErrHeader, head[3])
	}

	var mtime time.Time
	if t := binary.LittleEndian.Uint32(head[5:9]); t > 0 {
		mtime = time.Unix(int64(t), 0)
	}
	return n, head[4], binary.LittleEndian.Uint32(head[9:13]), mtime, nil
}

func readHeader(r *bufio.Reader) (*Header, error) {
	_, flg, clen, mtime, err := readFlg(r)
	if err != nil {
		return nil, err
	}
	if clen > maxConfigLen {
		return nil, fmt.Errorf("%w: CLEN exceeded: %v", ErrHeader, clen)
	}

	h := &Header{ModTime: mtime}

	config := make([]byte, clen)
	if _, err := io.ReadFull(r, config); err != nil {
		return nil, fmt.Errorf("%w: reading CONFIG: %w", ErrHeader, noEOF(err))
	}
	codecs, err := parseConfigs(config)
	if err != nil {
		return nil, err
	}
	h.Codecs = codecs

	if flg&flgNAME != 0 {
		h.Name, err = readString(r)
		if err != nil {
			return nil, fmt.Errorf("reading NAME header: %w", err)
		}
	}
	if flg&flgCOMMENT != 0 {
		h.Comment, err = readString(r)
		if err != nil {
			return nil, fmt.Errorf("reading COMMENT header: %w", err)
		}
	}
	return h, nil
}

// parseConfigs parses the CONFIG field, a JSON list of codec configs.
func parseConfigs(b []byte) ([]numcodecs.Config, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, fmt.Errorf("%w: CONFIG: %w", ErrHeader, err)
	}
	configs := make([]numcodecs.Config, 0, len(raw))
	for i, obj := range raw {
		cfg, err := numcodecs.ParseConfig(obj)
		if err != nil {
			return nil, fmt.Errorf("%w: CONFIG entry %d: %w", ErrHeader, i, err)
		}
		configs = append(configs, cfg)
	}
	return configs, nil
}

// readString reads a zero-terminated Latin-1 string.
func readString(r io.ByteReader) (string, error) {
	var b strings.Builder
	for i := 0; ; i++ {
		if i > maxStringLen {
			return "", fmt.Errorf("%w: string header len exceeded", ErrHeader)
		}
		c, err := r.ReadByte()
		if err != nil {
			return "", fmt.Errorf("%w: %w", ErrHeader, noEOF(err))
		}
		if c == 0 {
			return b.String(), nil
		}
		// Strings are ISO 8859-1, Latin-1.
		b.WriteRune(rune(c))
	}
}

func readBody(r *digestReader) (*numcodecs.Array, error) {
	dt, err := r.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("%w: reading dtype: %w", ErrHeader, noEOF(err))
	}
	dtype := numcodecs.DType(dt)
	if !dtype.Valid() {
		return nil, fmt.Errorf("%w: unknown dtype %d", ErrHeader, dt)
	}

	ndim, err := binary.ReadUvarint(r)
	if err != nil {
		return nil, fmt.Errorf("%w: reading ndim: %w", ErrHeader, noEOF(err))
	}
	if ndim > maxDims {
		return nil, fmt.Errorf("%w: too many dimensions: %d", ErrHeader, ndim)
	}
	shape := make([]int, ndim)
	for i := range shape {
		d, err := binary.ReadUvarint(r)
		if err != nil {
			return nil, fmt.Errorf("%w: reading shape: %w", ErrHeader, noEOF(err))
		}
		if d > math.MaxInt32 {
			return nil, fmt.Errorf("%w: dimension too large: %d", ErrHeader, d)
		}
		shape[i] = int(d)
	}

	nbytes, err := binary.ReadUvarint(r)
	if err != nil {
		return nil, fmt.Errorf("%w: reading data length: %w", ErrHeader, noEOF(err))
	}
	n, err := numcodecs.ShapeLen(shape)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrHeader, err)
	}
	if n > math.MaxInt64/8 || nbytes != uint64(n)*uint64(dtype.Size()) {
		return nil, fmt.Errorf("%w: %s array of shape %v cannot hold %d bytes", ErrHeader, dtype, shape, nbytes)
	}

	// NOTE: nbytes is untrusted. Read incrementally rather than allocating
	// it up front.
	data, err := io.ReadAll(io.LimitReader(r, int64(nbytes)))
	if err != nil {
		return nil, fmt.Errorf("%w: reading data: %w", ErrHeader, err)
	}
	if uint64(len(data)) != nbytes {
		return nil, fmt.Errorf("%w: reading data: %w", ErrHeader, io.ErrUnexpectedEOF)
	}
	a, err := numcodecs.FromBytes(dtype, shape, data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrHeader, err)
	}
	return a, nil
}

// digestReader updates a CRC-32 digest with all data read through it.
type digestReader struct {
	r      *bufio.Reader
	digest hash.Hash32
}

func (d *digestReader) Read(p []byte) (int, error) {
	n, err := d.r.Read(p)
	_, _ = d.digest.Write(p[:n])
	//nolint:wrapcheck // error does not need to be wrapped
	return n, err
}

func (d *digestReader) ReadByte() (byte, error) {
	c, err := d.r.ReadByte()
	if err != nil {
		//nolint:wrapcheck // error does not need to be wrapped
		return 0, err
	}
	_, _ = d.digest.Write([]byte{c})
	return c, nil
}
