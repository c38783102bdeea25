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
	"fmt"
	"slices"
)

// Pipeline chains codecs. Encoding applies the codecs in order and decoding
// applies them in reverse order. An empty pipeline passes data through
// unchanged.
type Pipeline struct {
	codecs []Codec
}

// NewPipeline instantiates the codecs described by configs using r.
func NewPipeline(r *Registry, configs []Config) (*Pipeline, error) {
	p := &Pipeline{}
	for i, cfg := range configs {
		c, err := r.Codec(cfg)
		if err != nil {
			return nil, fmt.Errorf("pipeline codec %d: %w", i, err)
		}
		p.codecs = append(p.codecs, c)
	}
	return p, nil
}

// PipelineOf returns a pipeline of already constructed codecs.
func PipelineOf(codecs ...Codec) *Pipeline {
	return &Pipeline{codecs: slices.Clone(codecs)}
}

// Codecs returns the codecs of the pipeline in encoding order.
func (p *Pipeline) Codecs() []Codec {
	return slices.Clone(p.codecs)
}

// Configs returns the configurations of the pipeline's codecs in encoding
// order.
func (p *Pipeline) Configs() []Config {
	configs := make([]Config, 0, len(p.codecs))
	for _, c := range p.codecs {
		configs = append(configs, c.Config())
	}
	return configs
}

// Encode encodes data with every codec in order.
func (p *Pipeline) Encode(data *Array) (*Array, error) {
	if len(p.codecs) == 0 {
		return data.Clone(), nil
	}
	out := data
	for _, c := range p.codecs {
		var err error
		out, err = c.Encode(out)
		if err != nil {
			return nil, fmt.Errorf("encoding with %s: %w", c.Type().ID(), err)
		}
	}
	return out, nil
}

// Decode decodes encoded with every codec in reverse order.
func (p *Pipeline) Decode(encoded *Array) (*Array, error) {
	if len(p.codecs) == 0 {
		return encoded.Clone(), nil
	}
	out := encoded
	for i := len(p.codecs) - 1; i >= 0; i-- {
		c := p.codecs[i]
		var err error
		out, err = c.Decode(out)
		if err != nil {
			return nil, fmt.Errorf("decoding with %s: %w", c.Type().ID(), err)
		}
	}
	return out, nil
}

// DecodeInto decodes encoded with every codec in reverse order. The first
// codec of the pipeline decodes into decoded.
func (p *Pipeline) DecodeInto(encoded, decoded *Array) error {
	if len(p.codecs) == 0 {
		return Assign(decoded, encoded)
	}
	out := encoded
	for i := len(p.codecs) - 1; i > 0; i-- {
		c := p.codecs[i]
		var err error
		out, err = c.Decode(out)
		if err != nil {
			return fmt.Errorf("decoding with %s: %w", c.Type().ID(), err)
		}
	}
	c := p.codecs[0]
	if err := c.DecodeInto(out, decoded); err != nil {
		return fmt.Errorf("decoding with %s: %w", c.Type().ID(), err)
	}
	return nil
}
