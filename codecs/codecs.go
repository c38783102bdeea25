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

// Package codecs provides a registry of all codecs of this module.
package codecs

import (
	"github.com/ianlewis/go-numcodecs"
	"github.com/ianlewis/go-numcodecs/codecs/asinh"
	"github.com/ianlewis/go-numcodecs/codecs/bitround"
	"github.com/ianlewis/go-numcodecs/codecs/crc32"
	"github.com/ianlewis/go-numcodecs/codecs/fixedoffsetscale"
	"github.com/ianlewis/go-numcodecs/codecs/identity"
	"github.com/ianlewis/go-numcodecs/codecs/linearquantize"
	"github.com/ianlewis/go-numcodecs/codecs/log"
	"github.com/ianlewis/go-numcodecs/codecs/reinterpret"
	"github.com/ianlewis/go-numcodecs/codecs/round"
	"github.com/ianlewis/go-numcodecs/codecs/stochasticrounding"
	"github.com/ianlewis/go-numcodecs/codecs/swizzlereshape"
	"github.com/ianlewis/go-numcodecs/codecs/uniformnoise"
	"github.com/ianlewis/go-numcodecs/codecs/zlib"
	"github.com/ianlewis/go-numcodecs/codecs/zstd"
)

// Types returns the types of all codecs of this module.
func Types() []numcodecs.CodecType {
	return []numcodecs.CodecType{
		asinh.Type,
		bitround.Type,
		crc32.Type,
		fixedoffsetscale.Type,
		identity.Type,
		linearquantize.Type,
		log.Type,
		reinterpret.Type,
		round.Type,
		stochasticrounding.Type,
		swizzlereshape.Type,
		uniformnoise.Type,
		zlib.Type,
		zstd.Type,
	}
}

// aliases maps alternative identifiers used by other numcodecs
// implementations to codec types.
var aliases = map[string]numcodecs.CodecType{
	"stochastic-rounding.rs": stochasticrounding.Type,
}

// Default returns a new registry with all codecs of this module registered.
func Default() *numcodecs.Registry {
	r, err := numcodecs.NewRegistry(Types()...)
	if err != nil {
		// Codec identifiers are unique.
		panic(err)
	}
	for id, t := range aliases {
		if err := r.RegisterAs(id, t); err != nil {
			panic(err)
		}
	}
	return r
}
