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
	"encoding/binary"
	"encoding/json"
	"fmt"
	"hash/crc32"
	"io"
	"time"

	"github.com/ianlewis/go-numcodecs"
	"github.com/ianlewis/go-numcodecs/internal/header"
)

// Write writes a container holding the encoded array to w. isize is the size
// of the decoded data in bytes.
func Write(w io.Writer, h *Header, encoded *numcodecs.Array, isize int64) error {
	if isize < 0 {
		return fmt.Errorf("%w: negative ISIZE: %v", ErrHeader, isize)
	}

	codecs := h.Codecs
	if codecs == nil {
		codecs = []numcodecs.Config{}
	}
	config, err := json.Marshal(codecs)
	if err != nil {
		return fmt.Errorf("%w: encoding CONFIG: %w", ErrHeader, err)
	}
	if len(config) > maxConfigLen {
		return fmt.Errorf("%w: CLEN exceeded: %v", ErrHeader, len(config))
	}

	buf := make([]byte, 13, 13+len(config))
	buf[0] = hdrID1
	buf[1] = hdrID2
	buf[2] = hdrID3
	buf[3] = hdrVersion
	if h.Name != "" {
		buf[4] |= flgNAME
	}
	if h.Comment != "" {
		buf[4] |= flgCOMMENT
	}
	if h.ModTime.After(time.Unix(0, 0)) {
		// NOTE: MTIME is a uint32 timestamp which works until 2106-02-07.
		//nolint:gosec // modtime overflow is not a security issue.
		binary.LittleEndian.PutUint32(buf[5:9], uint32(h.ModTime.Unix()))
	}
	//nolint:gosec // config length is checked above.
	binary.LittleEndian.PutUint32(buf[9:13], uint32(len(config)))
	buf = append(buf, config...)

	if h.Name != "" {
		if buf, err = appendString(buf, h.Name); err != nil {
			return err
		}
	}
	if h.Comment != "" {
		if buf, err = appendString(buf, h.Comment); err != nil {
			return err
		}
	}
	if _, err := w.Write(buf); err != nil {
		return fmt.Errorf("%w: writing header: %w", errArchive, err)
	}

	data := encoded.Bytes()
	body := header.AppendArray(nil, encoded.DType(), encoded.Shape())
	body = header.AppendUint(body, uint64(len(data)))

	digest := crc32.NewIEEE()
	_, _ = digest.Write(body)
	_, _ = digest.Write(data)

	if _, err := w.Write(body); err != nil {
		return fmt.Errorf("%w: writing body: %w", errArchive, err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("%w: writing body: %w", errArchive, err)
	}

	trailer := make([]byte, 8)
	binary.LittleEndian.PutUint32(trailer[0:4], digest.Sum32())
	//nolint:gosec // ISIZE is intentionally taken modulo 2^32.
	binary.LittleEndian.PutUint32(trailer[4:8], uint32(isize))
	if _, err := w.Write(trailer); err != nil {
		return fmt.Errorf("%w: writing CRC-32 and ISIZE: %w", errArchive, err)
	}
	return nil
}

// appendString appends a header string encoded in ISO 8859-1 (Latin-1) and
// terminated with a zero byte.
func appendString(b []byte, s string) ([]byte, error) {
	n := 0
	for _, r := range s {
		if r == 0 || r > 0xff {
			return b, fmt.Errorf("%w: non-Latin-1 header string", ErrHeader)
		}
		b = append(b, byte(r))
		n++
	}
	if n > maxStringLen {
		return b, fmt.Errorf("%w: string header len exceeded", ErrHeader)
	}
	return append(b, 0), nil
}
