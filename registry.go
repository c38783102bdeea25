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
	"slices"
	"strings"
	"sync"

	"github.com/tidwall/gjson"
)

// Registry maps codec identifiers to codec types. The zero value is an empty
// registry ready to use. A Registry is safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	types map[string]CodecType
}

// NewRegistry returns a registry containing the given codec types.
func NewRegistry(types ...CodecType) (*Registry, error) {
	r := &Registry{}
	for _, t := range types {
		if err := r.Register(t); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register registers t under its identifier.
func (r *Registry) Register(t CodecType) error {
	return r.RegisterAs(t.ID(), t)
}

// RegisterAs registers t under an alternative identifier. Codecs created
// through the alias still report t's identifier in their configuration.
func (r *Registry) RegisterAs(id string, t CodecType) error {
	if id == "" {
		return fmt.Errorf("%w: empty codec id", ErrInvalidConfig)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.types == nil {
		r.types = map[string]CodecType{}
	}
	if _, ok := r.types[id]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateCodec, id)
	}
	r.types[id] = t
	return nil
}

// Lookup returns the codec type registered under id.
func (r *Registry) Lookup(id string) (CodecType, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.types[id]
	return t, ok
}

// IDs returns the registered identifiers, including aliases, in sorted order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.types))
	for id := range r.types {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Types returns the distinct registered codec types sorted by identifier.
func (r *Registry) Types() []CodecType {
	r.mu.RLock()
	defer r.mu.RUnlock()
	seen := map[string]bool{}
	var types []CodecType
	for _, t := range r.types {
		if seen[t.ID()] {
			continue
		}
		seen[t.ID()] = true
		types = append(types, t)
	}
	slices.SortFunc(types, func(a, b CodecType) int {
		return strings.Compare(a.ID(), b.ID())
	})
	return types
}

// Codec instantiates the codec described by cfg. The codec type is selected
// by the configuration's "id" field.
func (r *Registry) Codec(cfg Config) (Codec, error) {
	id, err := cfg.ID()
	if err != nil {
		return nil, err
	}
	t, ok := r.Lookup(id)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCodec, id)
	}
	if id != t.ID() {
		// Aliased codec. Rewrite the id so the type accepts it.
		cfg = maps.Clone(cfg)
		cfg[IDKey] = t.ID()
	}
	//nolint:wrapcheck // codec errors are already wrapped
	return t.New(cfg)
}

// CodecFromJSON instantiates the codec described by the JSON object b.
func (r *Registry) CodecFromJSON(b []byte) (Codec, error) {
	if !gjson.ValidBytes(b) {
		return nil, fmt.Errorf("%w: malformed JSON", ErrInvalidConfig)
	}
	id := gjson.GetBytes(b, IDKey)
	if id.Type != gjson.String {
		return nil, fmt.Errorf("%w: missing or non-string %q field", ErrInvalidConfig, IDKey)
	}
	if _, ok := r.Lookup(id.String()); !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCodec, id.String())
	}

	cfg, err := ParseConfig(b)
	if err != nil {
		return nil, err
	}
	return r.Codec(cfg)
}

// ParseConfig parses a JSON object into a [Config]. Numbers are kept as
// [json.Number].
func ParseConfig(b []byte) (Config, error) {
	var cfg Config
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if cfg == nil {
		return nil, fmt.Errorf("%w: config must be a JSON object", ErrInvalidConfig)
	}
	return cfg, nil
}
