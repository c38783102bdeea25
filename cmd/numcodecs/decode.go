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
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/urfave/cli/v2"

	"github.com/ianlewis/go-numcodecs"
	"github.com/ianlewis/go-numcodecs/internal/archive"
	"github.com/ianlewis/go-numcodecs/internal/npy"
)

var (
	errTruncate = fmt.Errorf("%w: cannot truncate filename", ErrNumcodecs)
	errTerminal = fmt.Errorf("%w: refusing to write binary data to a terminal", ErrNumcodecs)
	errSize     = fmt.Errorf("%w: decoded size does not match ISIZE", ErrNumcodecs)
)

func decodeCommand(r *numcodecs.Registry) *cli.Command {
	return &cli.Command{
		Name:      "decode",
		Usage:     "decode .ncz files",
		ArgsUsage: "[PATH]...",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:               "force",
				Usage:              "force overwrite of output file",
				Aliases:            []string{"f"},
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
			jobsFlag(),
		},
		OnUsageError: usageError,
		Action: func(c *cli.Context) error {
			jobs := c.Int("jobs")
			if c.Bool("stdout") {
				if isTerminal(c.App.Writer) {
					return errTerminal
				}
				jobs = 1
			}
			return forEachPath(c.Context, c.Args().Slice(), jobs, func(_ context.Context, path string) error {
				d := decode{
					path:     path,
					force:    c.Bool("force"),
					keep:     c.Bool("keep"),
					stdout:   c.Bool("stdout"),
					registry: r,
					out:      c.App.Writer,
				}
				return d.Run()
			})
		},
	}
}

// isTerminal reports whether w is a terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

type decode struct {
	path   string
	force  bool
	keep   bool
	stdout bool

	registry *numcodecs.Registry
	out      io.Writer
}

func (d *decode) Run() error {
	newPath := strings.TrimSuffix(d.path, archive.Ext)
	if newPath == d.path {
		return fmt.Errorf("%w: %q", errTruncate, d.path)
	}

	decoded, err := d.decode()
	if err != nil {
		return err
	}

	if d.stdout {
		return writeArray(d.out, newPath, decoded)
	}

	if err := writeFile(newPath, d.force, func(w io.Writer) error {
		return writeArray(w, newPath, decoded)
	}); err != nil {
		return err
	}

	if !d.keep {
		if err := os.Remove(d.path); err != nil {
			return fmt.Errorf("%w: removing file: %w", ErrNumcodecs, err)
		}
	}

	return nil
}

func (d *decode) decode() (*numcodecs.Array, error) {
	f, err := os.Open(d.path)
	if err != nil {
		return nil, fmt.Errorf("%w: opening file: %w", ErrNumcodecs, err)
	}
	defer f.Close()

	h, encoded, isize, err := archive.Read(bufio.NewReader(f))
	if err != nil {
		return nil, fmt.Errorf("%w: reading archive: %w", ErrNumcodecs, err)
	}
	slog.Debug("read archive",
		"path", d.path,
		"name", h.Name,
		"codecs", len(h.Codecs),
		"encoded_bytes", encoded.NBytes(),
	)

	p, err := numcodecs.NewPipeline(d.registry, h.Codecs)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrNumcodecs, d.path, err)
	}
	decoded, err := p.Decode(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: decoding %q: %w", ErrNumcodecs, d.path, err)
	}
	//nolint:gosec // ISIZE is the size modulo 2^32.
	if got := uint32(decoded.NBytes()); got != isize {
		return nil, fmt.Errorf("%w: %q: got %d, want %d", errSize, d.path, got, isize)
	}
	return decoded, nil
}

// writeFile creates path and writes it with write. Existing files are only
// overwritten with force. The file is removed if writing fails.
func writeFile(path string, force bool, write func(w io.Writer) error) error {
	flags := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	if !force {
		// Do not overwrite existing files unless --force is specified.
		flags |= os.O_EXCL
	}
	dst, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		return fmt.Errorf("%w: opening target file: %w", ErrNumcodecs, err)
	}
	if err := write(dst); err != nil {
		_ = dst.Close()
		_ = os.Remove(path)
		return err
	}
	if err := dst.Close(); err != nil {
		_ = os.Remove(path)
		return fmt.Errorf("%w: closing target file: %w", ErrNumcodecs, err)
	}
	return nil
}

// writeArray writes a as an .npy file if name has the .npy extension and as
// raw little-endian elements otherwise.
func writeArray(w io.Writer, name string, a *numcodecs.Array) error {
	if strings.HasSuffix(name, ".npy") {
		if err := npy.Write(w, a); err != nil {
			return fmt.Errorf("%w: writing %q: %w", ErrNumcodecs, name, err)
		}
		return nil
	}
	if _, err := w.Write(a.Bytes()); err != nil {
		return fmt.Errorf("%w: writing %q: %w", ErrNumcodecs, name, err)
	}
	return nil
}
