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

package npy

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/ianlewis/go-numcodecs"
)

// parseHeader parses the Python dict literal of a .npy header.
func parseHeader(s string) (numcodecs.DType, []int, error) {
	p := &parser{s: strings.TrimRight(s, " \n\x00")}

	fields := map[string]any{}
	if err := p.expect('{'); err != nil {
		return 0, nil, err
	}
	for {
		p.skipSpace()
		if p.peek() == '}' {
			p.pos++
			break
		}
		key, err := p.str()
		if err != nil {
			return 0, nil, err
		}
		if err := p.expect(':'); err != nil {
			return 0, nil, err
		}
		val, err := p.value()
		if err != nil {
			return 0, nil, err
		}
		fields[key] = val

		p.skipSpace()
		switch p.peek() {
		case ',':
			p.pos++
		case '}':
		default:
			return 0, nil, p.errorf("expected ',' or '}'")
		}
	}

	descr, ok := fields["descr"].(string)
	if !ok {
		return 0, nil, fmt.Errorf("%w: header has no descr string", ErrFormat)
	}
	fortran, ok := fields["fortran_order"].(bool)
	if !ok {
		return 0, nil, fmt.Errorf("%w: header has no fortran_order bool", ErrFormat)
	}
	shape, ok := fields["shape"].([]int)
	if !ok {
		return 0, nil, fmt.Errorf("%w: header has no shape tuple", ErrFormat)
	}
	if fortran && len(shape) > 1 {
		return 0, nil, fmt.Errorf("%w: fortran order arrays", ErrUnsupported)
	}

	dtype, err := parseDescr(descr)
	if err != nil {
		return 0, nil, err
	}
	return dtype, shape, nil
}

type parser struct {
	s   string
	pos int
}

func (p *parser) errorf(format string, args ...any) error {
	return fmt.Errorf("%w: header offset %d: %s", ErrFormat, p.pos, fmt.Sprintf(format, args...))
}

func (p *parser) peek() byte {
	if p.pos >= len(p.s) {
		return 0
	}
	return p.s[p.pos]
}

func (p *parser) skipSpace() {
	for p.pos < len(p.s) && unicode.IsSpace(rune(p.s[p.pos])) {
		p.pos++
	}
}

func (p *parser) expect(c byte) error {
	p.skipSpace()
	if p.peek() != c {
		return p.errorf("expected %q", c)
	}
	p.pos++
	return nil
}

func (p *parser) str() (string, error) {
	p.skipSpace()
	q := p.peek()
	if q != '\'' && q != '"' {
		return "", p.errorf("expected string")
	}
	end := strings.IndexByte(p.s[p.pos+1:], q)
	if end < 0 {
		return "", p.errorf("unterminated string")
	}
	v := p.s[p.pos+1 : p.pos+1+end]
	p.pos += end + 2
	return v, nil
}

func (p *parser) value() (any, error) {
	p.skipSpace()
	switch c := p.peek(); {
	case c == '\'' || c == '"':
		return p.str()
	case c == '(':
		return p.tuple()
	case strings.HasPrefix(p.s[p.pos:], "True"):
		p.pos += len("True")
		return true, nil
	case strings.HasPrefix(p.s[p.pos:], "False"):
		p.pos += len("False")
		return false, nil
	default:
		return nil, p.errorf("unexpected value")
	}
}

func (p *parser) tuple() ([]int, error) {
	if err := p.expect('('); err != nil {
		return nil, err
	}
	dims := []int{}
	for {
		p.skipSpace()
		if p.peek() == ')' {
			p.pos++
			return dims, nil
		}
		start := p.pos
		for p.pos < len(p.s) && p.s[p.pos] >= '0' && p.s[p.pos] <= '9' {
			p.pos++
		}
		d, err := strconv.Atoi(p.s[start:p.pos])
		if err != nil {
			return nil, p.errorf("invalid dimension %q", p.s[start:p.pos])
		}
		// Python 2 long integers, e.g. "3L".
		if p.peek() == 'L' {
			p.pos++
		}
		dims = append(dims, d)

		p.skipSpace()
		switch p.peek() {
		case ',':
			p.pos++
		case ')':
		default:
			return nil, p.errorf("expected ',' or ')'")
		}
	}
}
