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

// Package npy reads and writes arrays in the NumPy .npy format.
//
// Only C-ordered arrays of the numcodecs dtypes in little-endian or
// byte-order-free representation are supported. Version 1.0, 2.0 and 3.0
// files can be read. Files are written as version 1.0 unless the header does
// not fit, in which case version 2.0 is used.
// See: https://numpy.org/doc/stable/reference/generated/numpy.lib.format.html
package npy

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/ianlewis/go-numcodecs"
)

// Magic is the prefix of every .npy file.
const Magic = "\x93NUMPY"

const headerAlign = 64

var (
	// ErrFormat indicates a malformed .npy file.
	ErrFormat = errors.New("npy: invalid format")

	// ErrUnsupported indicates a well-formed .npy file that cannot be
	// represented as a numcodecs array.
	ErrUnsupported = errors.New("npy: unsupported array")
)

var descrs = map[numcodecs.DType]string{
	numcodecs.U8:  "|u1",
	numcodecs.U16: "<u2",
	numcodecs.U32: "<u4",
	numcodecs.U64: "<u8",
	numcodecs.I8:  "|i1",
	numcodecs.I16: "<i2",
	numcodecs.I32: "<i4",
	numcodecs.I64: "<i8",
	numcodecs.F32: "<f4",
	numcodecs.F64: "<f8",
}

// HasMagic reports whether b starts with the .npy magic string.
func HasMagic(b []byte) bool {
	return bytes.HasPrefix(b, []byte(Magic))
}

// Read reads a single array from r.
func Read(r io.Reader) (*numcodecs.Array, error) {
	var pre [8]byte
	if _, err := io.ReadFull(r, pre[:]); err != nil {
		return nil, fmt.Errorf("%w: reading magic: %w", ErrFormat, noEOF(err))
	}
	if !HasMagic(pre[:]) {
		return nil, fmt.Errorf("%w: bad magic %q", ErrFormat, pre[:6])
	}

	var hlen int
	switch major := pre[6]; major {
	case 1:
		var b [2]byte
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return nil, fmt.Errorf("%w: reading header length: %w", ErrFormat, noEOF(err))
		}
		hlen = int(binary.LittleEndian.Uint16(b[:]))
	case 2, 3:
		var b [4]byte
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return nil, fmt.Errorf("%w: reading header length: %w", ErrFormat, noEOF(err))
		}
		n := binary.LittleEndian.Uint32(b[:])
		if n > math.MaxInt32 {
			return nil, fmt.Errorf("%w: header length %d", ErrFormat, n)
		}
		hlen = int(n)
	default:
		return nil, fmt.Errorf("%w: version %d.%d", ErrUnsupported, major, pre[7])
	}

	hdr, err := readFull(r, int64(hlen))
	if err != nil {
		return nil, fmt.Errorf("%w: reading header: %w", ErrFormat, err)
	}

	dtype, shape, err := parseHeader(string(hdr))
	if err != nil {
		return nil, err
	}

	n, err := numcodecs.ShapeLen(shape)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFormat, err)
	}
	if n > math.MaxInt64/dtype.Size() {
		return nil, fmt.Errorf("%w: shape %v is too large", ErrFormat, shape)
	}
	data, err := readFull(r, int64(n)*int64(dtype.Size()))
	if err != nil {
		return nil, fmt.Errorf("%w: reading data: %w", ErrFormat, err)
	}
	a, err := numcodecs.FromBytes(dtype, shape, data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFormat, err)
	}
	return a, nil
}

// readFull reads exactly n bytes from r. n is untrusted so the buffer only
// grows with the data actually read.
func readFull(r io.Reader, n int64) ([]byte, error) {
	b, err := io.ReadAll(io.LimitReader(r, n))
	if err != nil {
		//nolint:wrapcheck // wrapped by the caller
		return nil, err
	}
	if int64(len(b)) != n {
		return nil, io.ErrUnexpectedEOF
	}
	return b, nil
}

// Write writes a as a .npy file to w.
func Write(w io.Writer, a *numcodecs.Array) error {
	descr, ok := descrs[a.DType()]
	if !ok {
		return fmt.Errorf("%w: dtype %s", ErrUnsupported, a.DType())
	}

	var sb strings.Builder
	sb.WriteString("{'descr': '")
	sb.WriteString(descr)
	sb.WriteString("', 'fortran_order': False, 'shape': (")
	for i, d := range a.Shape() {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(strconv.Itoa(d))
	}
	if a.NDim() == 1 {
		sb.WriteString(",")
	}
	sb.WriteString("), }")

	dict := sb.String()
	major := byte(1)
	prefix := len(Magic) + 2 + 2
	if len(dict)+1+prefix+headerAlign > math.MaxUint16 {
		major = 2
		prefix = len(Magic) + 2 + 4
	}
	pad := headerAlign - (prefix+len(dict)+1)%headerAlign
	if pad == headerAlign {
		pad = 0
	}
	hdr := dict + strings.Repeat(" ", pad) + "\n"

	buf := make([]byte, 0, prefix+len(hdr))
	buf = append(buf, Magic...)
	buf = append(buf, major, 0)
	if major == 1 {
		buf = binary.LittleEndian.AppendUint16(buf, uint16(len(hdr)))
	} else {
		//nolint:gosec // header length is bounded by the shape
		buf = binary.LittleEndian.AppendUint32(buf, uint32(len(hdr)))
	}
	buf = append(buf, hdr...)

	if _, err := w.Write(buf); err != nil {
		//nolint:wrapcheck // error does not need to be wrapped
		return err
	}
	//nolint:wrapcheck // error does not need to be wrapped
	_, err := w.Write(a.Bytes())
	return err
}

func parseDescr(s string) (numcodecs.DType, error) {
	if s == "" {
		return 0, fmt.Errorf("%w: empty descr", ErrFormat)
	}
	typ := s[1:]
	switch s[0] {
	case '<', '|', '=':
	case '>':
		if !strings.HasSuffix(typ, "1") {
			return 0, fmt.Errorf("%w: big-endian descr %q", ErrUnsupported, s)
		}
	default:
		// No byte order character, e.g. "u1".
		typ = s
	}
	for d, descr := range descrs {
		if descr[1:] == typ {
			return d, nil
		}
	}
	return 0, fmt.Errorf("%w: descr %q", ErrUnsupported, s)
}

// noEOF converts io.EOF to io.ErrUnexpectedEOF.
func noEOF(err error) error {
	if errors.Is(err, io.EOF) {
		return io.ErrUnexpectedEOF
	}
	return err
}
