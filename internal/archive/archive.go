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

// Package archive implements the .ncz container format. A container stores a
// single encoded array together with the configuration of the codec pipeline
// that produced it, so that it can be decoded without further information.
//
// The layout follows the gzip member format (RFC 1952):
//
//	+---+---+---+---+---+---------------+---------------+
//	|ID1|ID2|ID3|VER|FLG|     MTIME     |     CLEN      |
//	+---+---+---+---+---+---------------+---------------+
//	|...CONFIG (CLEN bytes, JSON list of codec configs)...|
//	|...NAME (zero-terminated, if FLG.NAME set)...|
//	|...COMMENT (zero-terminated, if FLG.COMMENT set)...|
//	|...BODY...|
//	+---+---+---+---+---+---+---+---+
//	|     CRC32     |     ISIZE     |
//	+---+---+---+---+---+---+---+---+
//
// BODY holds the encoded array: its dtype ordinal, the number of dimensions
// and each dimension as varints, the number of element bytes as a varint and
// the little-endian element bytes. CRC32 is the CRC-32 (IEEE) of BODY and
// ISIZE is the size of the decoded data in bytes modulo 2^32.
package archive

import (
	"errors"
	"io"
	"time"

	"github.com/ianlewis/go-numcodecs"
)

// Ext is the file extension of containers.
const Ext = ".ncz"

const (
	hdrID1    = 0x4e // 'N'
	hdrID2    = 0x43 // 'C'
	hdrID3    = 0x5a // 'Z'
	hdrVersion = 1
)

const (
	flgNAME    = 1 << 3
	flgCOMMENT = 1 << 4
)

// maxStringLen is the maximum length of the NAME and COMMENT fields.
const maxStringLen = 1024

// maxConfigLen is the maximum length of the CONFIG field.
const maxConfigLen = 1 << 20

var (
	// ErrChecksum indicates an invalid CRC-32 checksum.
	ErrChecksum = errors.New("archive: invalid checksum")

	// ErrHeader indicates invalid container header data.
	ErrHeader = errors.New("archive: invalid header")

	errArchive = errors.New("archive")
)

// Header is the metadata stored in a container.
type Header struct {
	// Name is the name of the original file. It must be Latin-1 encoded.
	Name string

	// Comment is a free-form comment. It must be Latin-1 encoded.
	Comment string

	// ModTime is the modification time of the original file. The zero value
	// means that the time is not known.
	ModTime time.Time

	// Codecs is the configuration of the codec pipeline in encoding order.
	Codecs []numcodecs.Config
}

// noEOF converts io.EOF into io.ErrUnexpectedEOF.
func noEOF(err error) error {
	if errors.Is(err, io.EOF) {
		return io.ErrUnexpectedEOF
	}
	return err
}
