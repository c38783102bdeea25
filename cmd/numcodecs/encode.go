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
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/ianlewis/go-numcodecs"
	"github.com/ianlewis/go-numcodecs/internal/archive"
	"github.com/ianlewis/go-numcodecs/internal/npy"
)

func encodeCommand(r *numcodecs.Registry) *cli.Command {
	flags := []cli.Flag{
		&cli.BoolFlag{
			Name:               "force",
			Usage:              "force overwrite of output file",
			Aliases:            []string{"f"},
			DisableDefaultText: true,
		},
		&cli.BoolFlag{
			Name:               "no-name",
			Usage:              "don't save the original filename and timestamp",
			Aliases:            []string{"n"},
			DisableDefaultText: true,
		},
		&cli.BoolFlag{
			Name:               "keep",
			Usage:              "do not delete original file",
			Aliases:            []string{"k"},
			DisableDefaultText: true,
		},
		&cli.BoolFlag{
			Name:               "stdout",
			Usage:              "write to stdout",
			Aliases:            []string{"c"},
			DisableDefaultText: true,
		},
		&cli.StringFlag{
			Name:  "dtype",
			Usage: "dtype of raw input files, e.g. f32",
		},
		&cli.StringFlag{
			Name:  "shape",
			Usage: "comma separated shape of raw input files, e.g. 100,200",
		},
		&cli.StringFlag{
			Name:  "comment",
			Usage: "store `TEXT` as the file comment",
		},
		jobsFlag(),
	}

	return &cli.Command{
		Name:         "encode",
		Usage:        "encode arrays into .ncz files",
		ArgsUsage:    "[PATH]...",
		Flags:        append(flags, pipelineFlags()...),
		OnUsageError: usageError,
		Action: func(c *cli.Context) error {
			p, err := loadPipeline(c, r)
			if err != nil {
				return err
			}

			var dtype numcodecs.DType
			var shape []int
			if s := c.String("dtype"); s != "" {
				if dtype, err = numcodecs.ParseDType(s); err != nil {
					return fmt.Errorf("%w: --dtype: %w", ErrFlagParse, err)
				}
				if shape, err = parseShape(c.String("shape")); err != nil {
					return err
				}
			}

			jobs := c.Int("jobs")
			if c.Bool("stdout") {
				jobs = 1
			}
			return forEachPath(c.Context, c.Args().Slice(), jobs, func(_ context.Context, path string) error {
				e := encode{
					path:     path,
					force:    c.Bool("force"),
					noName:   c.Bool("no-name"),
					keep:     c.Bool("keep"),
					stdout:   c.Bool("stdout"),
					comment:  c.String("comment"),
					raw:      c.IsSet("dtype"),
					dtype:    dtype,
					shape:    shape,
					pipeline: p,
					out:      c.App.Writer,
				}
				return e.Run()
			})
		},
	}
}

// parseShape parses a comma separated list of dimensions.
func parseShape(s string) ([]int, error) {
	if s == "" {
		return nil, fmt.Errorf("%w: --shape is required with --dtype", ErrFlagParse)
	}
	var shape []int
	for _, f := range strings.Split(s, ",") {
		d, err := strconv.Atoi(strings.TrimSpace(f))
		if err != nil || d < 0 {
			return nil, fmt.Errorf("%w: --shape: invalid dimension %q", ErrFlagParse, f)
		}
		shape = append(shape, d)
	}
	return shape, nil
}

type encode struct {
	path    string
	force   bool
	noName  bool
	keep    bool
	stdout  bool
	comment string

	// raw input files are read with dtype and shape.
	raw   bool
	dtype numcodecs.DType
	shape []int

	pipeline *numcodecs.Pipeline
	out      io.Writer
}

func (e *encode) Run() error {
	newPath := e.path + archive.Ext

	b, err := os.ReadFile(e.path)
	if err != nil {
		return fmt.Errorf("%w: reading file: %w", ErrNumcodecs, err)
	}
	data, err := e.readArray(b)
	if err != nil {
		return err
	}

	h := &archive.Header{
		Comment: e.comment,
		Codecs:  e.pipeline.Configs(),
	}
	if !e.noName {
		fInfo, err := os.Stat(e.path)
		if err != nil {
			return fmt.Errorf("%w: stat %q: %w", ErrNumcodecs, e.path, err)
		}
		h.ModTime = fInfo.ModTime()
		h.Name = filepath.Base(e.path)
	}

	start := time.Now()
	encoded, err := e.pipeline.Encode(data)
	if err != nil {
		return fmt.Errorf("%w: encoding %q: %w", ErrNumcodecs, e.path, err)
	}
	slog.Debug("encoded array",
		"path", e.path,
		"dtype", data.DType(),
		"shape", data.Shape(),
		"encoded_bytes", encoded.NBytes(),
		"duration", time.Since(start),
	)

	write := func(w io.Writer) error {
		if err := archive.Write(w, h, encoded, int64(data.NBytes())); err != nil {
			return fmt.Errorf("%w: writing archive: %w", ErrNumcodecs, err)
		}
		return nil
	}
	if e.stdout {
		return write(e.out)
	}
	if err := writeFile(newPath, e.force, write); err != nil {
		return err
	}

	if !e.keep {
		if err := os.Remove(e.path); err != nil {
			return fmt.Errorf("%w: removing file: %w", ErrNumcodecs, err)
		}
	}

	return nil
}

// readArray reads an .npy file or, for raw input, little-endian elements.
func (e *encode) readArray(b []byte) (*numcodecs.Array, error) {
	if e.raw {
		a, err := numcodecs.FromBytes(e.dtype, e.shape, b)
		if err != nil {
			return nil, fmt.Errorf("%w: reading raw file %q: %w", ErrNumcodecs, e.path, err)
		}
		return a, nil
	}
	if !npy.HasMagic(b) {
		return nil, fmt.Errorf("%w: %q is not an .npy file; use --dtype and --shape for raw data",
			ErrUnsupported, e.path)
	}
	a, err := npy.Read(bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("%w: reading %q: %w", ErrNumcodecs, e.path, err)
	}
	return a, nil
}
