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

package numcodecs

// Codec encodes and decodes numeric n-dimensional arrays.
type Codec interface {
	// Encode encodes data and returns the result. Encode does not modify
	// data.
	Encode(data *Array) (*Array, error)

	// Decode decodes encoded and returns the result. Decode does not modify
	// encoded.
	Decode(encoded *Array) (*Array, error)

	// DecodeInto decodes encoded and writes the result into decoded, which
	// must already have the dtype and shape of the decoded data.
	DecodeInto(encoded, decoded *Array) error

	// Config returns the codec's configuration. The configuration includes
	// the "id" field of the codec's type.
	Config() Config

	// Type returns the codec's type object.
	Type() CodecType
}

// CodecType is the type object for a kind of codec. It constructs codecs of
// that kind from their configuration.
type CodecType interface {
	// ID returns the codec identifier, e.g. "zstd".
	ID() string

	// Version returns the semantic version of the codec's encoding, e.g.
	// "1.0.0", or "" for unversioned codecs.
	Version() string

	// Schema returns the JSON schema of the codec's configuration.
	Schema() Schema

	// New instantiates a codec from its configuration. The configuration
	// may or may not contain the "id" field.
	New(cfg Config) (Codec, error)
}

// Schema is a JSON schema document.
type Schema map[string]any

// ObjectSchema returns the JSON schema of the configuration object of codecs
// of type t with the given properties. Properties not listed in required are
// optional. Required properties are enforced by [DecodeConfig].
func ObjectSchema(t CodecType, description string, properties map[string]any, required ...string) Schema {
	props := make(map[string]any, len(properties)+1)
	for k, v := range properties {
		props[k] = v
	}
	if v := t.Version(); v != "" {
		props[VersionKey] = map[string]any{
			"type":        "string",
			"description": "A semver.org compliant semantic version number.",
			"default":     v,
		}
	}

	s := Schema{
		"$schema":              "https://json-schema.org/draft/2020-12/schema",
		"title":                t.ID(),
		"description":          description,
		"type":                 "object",
		"properties":           props,
		"additionalProperties": false,
	}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

// Description returns the schema's description.
func (s Schema) Description() string {
	d, _ := s["description"].(string)
	return d
}

// Required returns the names of the required properties.
func (s Schema) Required() []string {
	switch r := s["required"].(type) {
	case []string:
		return r
	case []any:
		var names []string
		for _, v := range r {
			if name, ok := v.(string); ok {
				names = append(names, name)
			}
		}
		return names
	default:
		return nil
	}
}
