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

// Package numcodecs implements a compression codec API for numeric
// n-dimensional arrays, modelled on the Python numcodecs API.
// See: https://numcodecs.readthedocs.io/en/stable/
//
// A [Codec] encodes an [Array] into another [Array] (often a one-dimensional
// byte array) and decodes it back. Codecs are described by JSON-compatible
// configurations which always carry the codec's "id" and can be instantiated
// through a [Registry].
//
// Concrete codecs live in the sub-packages of
// github.com/ianlewis/go-numcodecs/codecs.
//
// Codecs in this module are safe for concurrent use once constructed. Arrays
// are not.
package numcodecs

import (
	"errors"
)

var (
	// ErrUnsupportedDType indicates that a codec does not support the dtype of
	// the data it was given.
	ErrUnsupportedDType = errors.New("numcodecs: unsupported dtype")

	// ErrDTypeMismatch indicates that two arrays that must share a dtype do
	// not.
	ErrDTypeMismatch = errors.New("numcodecs: dtype mismatch")

	// ErrShapeMismatch indicates that two arrays that must share a shape do
	// not.
	ErrShapeMismatch = errors.New("numcodecs: shape mismatch")

	// ErrInvalidShape indicates a shape does not fit the array data.
	ErrInvalidShape = errors.New("numcodecs: invalid shape")

	// ErrInvalidConfig indicates an invalid codec configuration.
	ErrInvalidConfig = errors.New("numcodecs: invalid config")

	// ErrVersion indicates that a configuration requested an incompatible
	// codec version.
	ErrVersion = errors.New("numcodecs: incompatible codec version")

	// ErrUnknownCodec indicates that no codec is registered for an id.
	ErrUnknownCodec = errors.New("numcodecs: unknown codec")

	// ErrDuplicateCodec indicates that a codec id is already registered.
	ErrDuplicateCodec = errors.New("numcodecs: duplicate codec")

	// ErrEncodedData indicates that encoded data is malformed.
	ErrEncodedData = errors.New("numcodecs: invalid encoded data")
)
