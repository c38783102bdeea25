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
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rodaine/table"
	"github.com/urfave/cli/v2"

	"github.com/ianlewis/go-numcodecs"
	"github.com/ianlewis/go-numcodecs/internal/archive"
)

func listCommand(r *numcodecs.Registry) *cli.Command {
	return &cli.Command{
		Name:         "list",
		Usage:        "list the contents of .ncz files",
		ArgsUsage:    "[PATH]...",
		OnUsageError: usageError,
		Action: func(c *cli.Context) error {
			tbl := table.New("dtype", "shape", "date", "time", "codecs", "compressed", "uncompressed", "ratio", "name").
				WithWriter(c.App.Writer)
			for _, path := range c.Args().Slice() {
				l := list{path: path, registry: r}
				if err := l.Run(tbl); err != nil {
					return err
				}
			}
			tbl.Print()
			return nil
		},
	}
}

type list struct {
	path     string
	registry *numcodecs.Registry
}

func (l *list) Run(tbl table.Table) error {
	f, err := os.Open(l.path)
	if err != nil {
		return fmt.Errorf("%w: opening file: %w", ErrNumcodecs, err)
	}
	defer f.Close()

	fInfo, err := f.Stat()
	if err != nil {
		return fmt.Errorf("%w: stat: %w", ErrNumcodecs, err)
	}

	h, encoded, isize, err := archive.Read(f)
	if err != nil {
		return fmt.Errorf("%w: reading archive: %w", ErrNumcodecs, err)
	}

	ids := make([]string, 0, len(h.Codecs))
	for _, cfg := range h.Codecs {
		id, err := cfg.ID()
		if err != nil {
			return fmt.Errorf("%w: %q: %w", ErrNumcodecs, l.path, err)
		}
		ids = append(ids, id)
	}

	// The dtype and shape of the original array are only known after
	// decoding.
	p, err := numcodecs.NewPipeline(l.registry, h.Codecs)
	if err != nil {
		return fmt.Errorf("%w: %q: %w", ErrNumcodecs, l.path, err)
	}
	decoded, err := p.Decode(encoded)
	if err != nil {
		return fmt.Errorf("%w: decoding %q: %w", ErrNumcodecs, l.path, err)
	}

	compressed := fInfo.Size()
	date, clock := "-", "-"
	if !h.ModTime.IsZero() {
		date = h.ModTime.Format("2006-01-02")
		clock = h.ModTime.Format("15:04:05")
	}
	tbl.AddRow(
		decoded.DType(),
		formatShape(decoded.Shape()),
		date,
		clock,
		strings.Join(ids, ","),
		fmt.Sprintf("%d", compressed),
		fmt.Sprintf("%d", isize),
		ratio(compressed, int64(isize)),
		h.Name,
	)

	return nil
}

func formatShape(shape []int) string {
	dims := make([]string, 0, len(shape))
	for _, d := range shape {
		dims = append(dims, fmt.Sprint(d))
	}
	return "(" + strings.Join(dims, ",") + ")"
}

func ratio(compressed, uncompressed int64) string {
	if uncompressed == 0 {
		return "-"
	}
	return fmt.Sprintf("%.1f%%", (1-float64(compressed)/float64(uncompressed))*100)
}

// printCodecs writes a table of the codec types registered in r.
func printCodecs(w io.Writer, r *numcodecs.Registry) {
	tbl := table.New("id", "version", "description").WithWriter(w)
	for _, t := range r.Types() {
		ver := t.Version()
		if ver == "" {
			ver = "-"
		}
		tbl.AddRow(t.ID(), ver, t.Schema().Description())
	}
	tbl.Print()
}

func codecsCommand(r *numcodecs.Registry) *cli.Command {
	return &cli.Command{
		Name:         "codecs",
		Usage:        "list the available codecs",
		OnUsageError: usageError,
		Action: func(c *cli.Context) error {
			printCodecs(c.App.Writer, r)
			return nil
		},
	}
}
