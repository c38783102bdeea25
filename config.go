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

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"

	"golang.org/x/mod/semver"
)

const (
	// IDKey is the configuration field holding the codec identifier.
	IDKey = "id"

	// VersionKey is the configuration field holding the codec version.
	VersionKey = "_version"
)

// Config is a JSON-compatible codec configuration.
type Config map[string]any

// ID returns the value of the configuration's "id" field.
func (c Config) ID() (string, error) {
	v, ok := c[IDKey]
	if !ok {
		return "", fmt.Errorf("%w: missing %q field", ErrInvalidConfig, IDKey)
	}
	id, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%w: %q field must be a string, got %T", ErrInvalidConfig, IDKey, v)
	}
	return id, nil
}

// MarshalJSON implements [json.Marshaler]. A nil Config encodes as an empty
// object.
func (c Config) MarshalJSON() ([]byte, error) {
	if c == nil {
		return []byte("{}"), nil
	}
	//nolint:wrapcheck // error does not need to be wrapped
	return json.Marshal(map[string]any(c))
}

// DecodeConfig decodes cfg into v, which must be a pointer to the codec's
// configuration struct. The "id" field must match t if present and the
// "_version" field must be compatible with t's version. Unknown fields and
// missing required fields are rejected.
func DecodeConfig(t CodecType, cfg Config, v any) error {
	fields := maps.Clone(cfg)
	if fields == nil {
		fields = Config{}
	}

	if _, ok := fields[IDKey]; ok {
		id, err := fields.ID()
		if err != nil {
			return err
		}
		if id != t.ID() {
			return fmt.Errorf("%w: %s: config is for codec %q", ErrInvalidConfig, t.ID(), id)
		}
		delete(fields, IDKey)
	}

	if raw, ok := fields[VersionKey]; ok && t.Version() != "" {
		requested, ok := raw.(string)
		if !ok {
			return fmt.Errorf("%w: %s: %q field must be a string, got %T", ErrInvalidConfig, t.ID(), VersionKey, raw)
		}
		if err := CheckVersion(t.Version(), requested); err != nil {
			return fmt.Errorf("%s: %w", t.ID(), err)
		}
		delete(fields, VersionKey)
	}

	for _, name := range t.Schema().Required() {
		if _, ok := fields[name]; !ok {
			return fmt.Errorf("%w: %s: missing field %q", ErrInvalidConfig, t.ID(), name)
		}
	}

	b, err := json.Marshal(map[string]any(fields))
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrInvalidConfig, t.ID(), err)
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrInvalidConfig, t.ID(), err)
	}
	return nil
}

// EncodeConfig encodes the configuration struct v as a [Config] for codecs of
// type t. The result carries the "id" field and, for versioned codecs, the
// "_version" field. Numbers are represented as [json.Number] so that 64-bit
// integers survive unchanged.
//
// EncodeConfig panics if v cannot be encoded as a JSON object.
func EncodeConfig(t CodecType, v any) Config {
	cfg := Config{}
	if v != nil {
		b, err := json.Marshal(v)
		if err != nil {
			panic(fmt.Sprintf("numcodecs: %s: encoding config: %v", t.ID(), err))
		}
		dec := json.NewDecoder(bytes.NewReader(b))
		dec.UseNumber()
		if err := dec.Decode(&cfg); err != nil {
			panic(fmt.Sprintf("numcodecs: %s: config is not an object: %v", t.ID(), err))
		}
	}
	cfg[IDKey] = t.ID()
	if ver := t.Version(); ver != "" {
		cfg[VersionKey] = ver
	}
	return cfg
}

// CheckVersion checks that a codec implementing the supported version can
// decode data written with the requested version.
//
// Compatibility follows caret requirements: the requested version must not
// be newer than the supported one and must share its major version, or its
// minor version for 0.x releases, or be identical for 0.0.x releases.
func CheckVersion(supported, requested string) error {
	s := "v" + supported
	r := "v" + requested
	if !semver.IsValid(s) {
		return fmt.Errorf("%w: invalid supported version %q", ErrVersion, supported)
	}
	if !semver.IsValid(r) {
		return fmt.Errorf("%w: invalid version %q", ErrVersion, requested)
	}

	compatible := semver.Compare(r, s) <= 0
	switch {
	case semver.Major(s) != "v0":
		compatible = compatible && semver.Major(r) == semver.Major(s)
	case semver.MajorMinor(s) != "v0.0":
		compatible = compatible && semver.MajorMinor(r) == semver.MajorMinor(s)
	default:
		compatible = semver.Compare(r, s) == 0
	}
	if !compatible {
		return fmt.Errorf("%w: %s is not compatible with supported version %s", ErrVersion, requested, supported)
	}
	return nil
}
