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

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/nao1215/markdown"
	"github.com/tidwall/pretty"
	"github.com/urfave/cli/v2"

	"github.com/ianlewis/go-numcodecs"
)

var errArgs = fmt.Errorf("%w: wrong number of arguments", ErrFlagParse)

func schemaCommand(r *numcodecs.Registry) *cli.Command {
	return &cli.Command{
		Name:         "schema",
		Usage:        "print the JSON schema of a codec's configuration",
		ArgsUsage:    "ID",
		OnUsageError: usageError,
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return fmt.Errorf("%w: expected a codec id", errArgs)
			}
			t, ok := r.Lookup(c.Args().First())
			if !ok {
				return fmt.Errorf("%w: %w: %q", ErrNumcodecs, numcodecs.ErrUnknownCodec, c.Args().First())
			}
			b, err := json.Marshal(t.Schema())
			if err != nil {
				return fmt.Errorf("%w: encoding schema: %w", ErrNumcodecs, err)
			}
			b = pretty.Pretty(b)
			if isTerminal(c.App.Writer) {
				b = pretty.Color(b, nil)
			}
			_, err = c.App.Writer.Write(b)
			if err != nil {
				return fmt.Errorf("%w: %w", ErrNumcodecs, err)
			}
			return nil
		},
	}
}

func docsCommand(r *numcodecs.Registry) *cli.Command {
	return &cli.Command{
		Name:         "docs",
		Usage:        "print Markdown documentation for the available codecs",
		OnUsageError: usageError,
		Action: func(c *cli.Context) error {
			if err := writeDocs(c.App.Writer, r); err != nil {
				return fmt.Errorf("%w: writing docs: %w", ErrNumcodecs, err)
			}
			return nil
		},
	}
}

// writeDocs writes a Markdown reference of the codecs in r.
func writeDocs(w io.Writer, r *numcodecs.Registry) error {
	md := markdown.NewMarkdown(w)
	md.H1("Codecs")
	md.PlainText("")

	types := r.Types()
	ids := make([]string, 0, len(types))
	for _, t := range types {
		ids = append(ids, fmt.Sprintf("`%s`", t.ID()))
	}
	md.BulletList(ids...)
	md.PlainText("")

	for _, t := range types {
		s := t.Schema()
		md.H2(t.ID())
		md.PlainText("")
		md.PlainText(s.Description())
		md.PlainText("")
		if v := t.Version(); v != "" {
			md.PlainTextf("Version: `%s`", v)
			md.PlainText("")
		}

		if rows := propertyRows(s); len(rows) > 0 {
			md.Table(markdown.TableSet{
				Header: []string{"Property", "Type", "Required", "Description"},
				Rows:   rows,
			})
			md.PlainText("")
		}

		example, err := json.MarshalIndent(exampleConfig(t), "", "  ")
		if err != nil {
			return fmt.Errorf("%s: %w", t.ID(), err)
		}
		md.CodeBlocks(markdown.SyntaxHighlight("json"), string(example))
		md.PlainText("")
	}

	//nolint:wrapcheck // wrapped by caller
	return md.Build()
}

// exampleConfig returns a configuration for t with every required property
// set to its first schema example, or its default when there is none.
func exampleConfig(t numcodecs.CodecType) numcodecs.Config {
	s := t.Schema()
	props, _ := s["properties"].(map[string]any)
	cfg := numcodecs.Config{numcodecs.IDKey: t.ID()}
	for _, name := range s.Required() {
		p, _ := props[name].(map[string]any)
		if examples, ok := p["examples"].([]any); ok && len(examples) > 0 {
			cfg[name] = examples[0]
			continue
		}
		if v, ok := p["default"]; ok {
			cfg[name] = v
			continue
		}
		switch p["type"] {
		case "integer":
			cfg[name] = 0
		case "number":
			cfg[name] = 1.0
		case "string":
			cfg[name] = ""
		}
	}
	if v := t.Version(); v != "" {
		cfg[numcodecs.VersionKey] = v
	}
	return cfg
}

func propertyRows(s numcodecs.Schema) [][]string {
	props, _ := s["properties"].(map[string]any)
	names := make([]string, 0, len(props))
	for name := range props {
		names = append(names, name)
	}
	sort.Strings(names)

	required := map[string]bool{}
	for _, name := range s.Required() {
		required[name] = true
	}

	var rows [][]string
	for _, name := range names {
		p, _ := props[name].(map[string]any)
		typ := fmt.Sprint(p["type"])
		if p["type"] == nil {
			typ = "-"
		}
		desc, _ := p["description"].(string)
		req := "no"
		if required[name] {
			req = "yes"
		}
		rows = append(rows, []string{"`" + name + "`", typ, req, desc})
	}
	return rows
}
