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
	"encoding/json"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/tidwall/gjson"
	"github.com/urfave/cli/v2"

	"github.com/ianlewis/go-numcodecs"
	"github.com/ianlewis/go-numcodecs/codecs"
	"github.com/ianlewis/go-numcodecs/internal/npy"
)

const (
	zstdCodec  = `{"id": "zstd", "level": 3}`
	crc32Codec = `{"id": "crc32"}`
)

// run runs the app with args and returns its output and error.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out, errOut bytes.Buffer
	app := newNumcodecsApp()
	app.Writer = &out
	app.ErrWriter = &errOut
	app.ExitErrHandler = func(*cli.Context, error) {}

	err := app.Run(append([]string{"numcodecs"}, args...))
	return out.String(), err
}

func writeNPY(t *testing.T, path string, a *numcodecs.Array) {
	t.Helper()

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("os.Create: %v", err)
	}
	defer f.Close()
	if err := npy.Write(f, a); err != nil {
		t.Fatalf("npy.Write: %v", err)
	}
}

func readNPY(t *testing.T, path string) *numcodecs.Array {
	t.Helper()

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("os.Open: %v", err)
	}
	defer f.Close()
	a, err := npy.Read(f)
	if err != nil {
		t.Fatalf("npy.Read: %v", err)
	}
	return a
}

func testArray(t *testing.T) *numcodecs.Array {
	t.Helper()

	a, err := numcodecs.New([]int{2, 3}, []float64{0.5, -1, 2.25, 1e10, 0, 3})
	if err != nil {
		t.Fatalf("numcodecs.New: %v", err)
	}
	return a
}

func TestEncodeDecode(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "data.npy")
	want := testArray(t)
	writeNPY(t, path, want)

	if _, err := run(t, "encode", "-C", zstdCodec, "-C", crc32Codec, path); err != nil {
		t.Fatalf("encode: %v", err)
	}
	if _, err := os.Stat(path); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("source file: got %v, want %v", err, fs.ErrNotExist)
	}

	if _, err := run(t, "decode", path+".ncz"); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if _, err := os.Stat(path + ".ncz"); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("archive: got %v, want %v", err, fs.ErrNotExist)
	}

	got := readNPY(t, path)
	if diff := cmp.Diff(want.Shape(), got.Shape()); diff != "" {
		t.Errorf("shape (-want, +got):\n%s", diff)
	}
	wantData, _ := numcodecs.Elements[float64](want)
	gotData, err := numcodecs.Elements[float64](got)
	if err != nil {
		t.Fatalf("Elements: %v", err)
	}
	if diff := cmp.Diff(wantData, gotData); diff != "" {
		t.Errorf("data (-want, +got):\n%s", diff)
	}
}

func TestEncode_raw(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "data.bin")
	raw := []byte{1, 0, 2, 0, 3, 0, 4, 0}
	if err := os.WriteFile(path, raw, 0o600); err != nil {
		t.Fatalf("os.WriteFile: %v", err)
	}

	if _, err := run(t, "encode", "--keep", "--dtype", "u16", "--shape", "2,2", "-C", zstdCodec, path); err != nil {
		t.Fatalf("encode: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("source file removed with --keep: %v", err)
	}

	out, err := run(t, "decode", "--stdout", path+".ncz")
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if diff := cmp.Diff(raw, []byte(out)); diff != "" {
		t.Errorf("decoded (-want, +got):\n%s", diff)
	}
	if _, err := os.Stat(path + ".ncz"); err != nil {
		t.Errorf("archive removed with --stdout: %v", err)
	}
}

func TestEncode_errors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	npyPath := filepath.Join(dir, "data.npy")
	writeNPY(t, npyPath, testArray(t))
	rawPath := filepath.Join(dir, "data.bin")
	if err := os.WriteFile(rawPath, []byte{1, 2, 3}, 0o600); err != nil {
		t.Fatalf("os.WriteFile: %v", err)
	}
	if err := os.WriteFile(npyPath+".ncz", nil, 0o600); err != nil {
		t.Fatalf("os.WriteFile: %v", err)
	}

	testCases := map[string]struct {
		args []string
		err  error
	}{
		"exists": {
			args: []string{"encode", "-k", "-C", zstdCodec, npyPath},
			err:  fs.ErrExist,
		},
		"not npy": {
			args: []string{"encode", "-k", "-C", zstdCodec, rawPath},
			err:  ErrUnsupported,
		},
		"raw size": {
			args: []string{"encode", "-k", "--dtype", "u16", "--shape", "2", "-C", zstdCodec, rawPath},
			err:  numcodecs.ErrInvalidShape,
		},
		"missing shape": {
			args: []string{"encode", "-k", "--dtype", "u16", "-C", zstdCodec, rawPath},
			err:  ErrFlagParse,
		},
		"bad shape": {
			args: []string{"encode", "-k", "--dtype", "u16", "--shape", "2,x", "-C", zstdCodec, rawPath},
			err:  ErrFlagParse,
		},
		"bad dtype": {
			args: []string{"encode", "-k", "--dtype", "c64", "--shape", "2", "-C", zstdCodec, rawPath},
			err:  ErrFlagParse,
		},
		"bad codec": {
			args: []string{"encode", "-k", "-C", `{"id": "zstd"`, npyPath},
			err:  ErrFlagParse,
		},
		"unknown codec": {
			args: []string{"encode", "-k", "-C", `{"id": "lz4"}`, npyPath},
			err:  numcodecs.ErrUnknownCodec,
		},
		"unknown flag": {
			args: []string{"encode", "--unknown", npyPath},
			err:  ErrFlagParse,
		},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			_, err := run(t, tc.args...)
			if diff := cmp.Diff(tc.err, err, cmpopts.EquateErrors()); diff != "" {
				t.Errorf("error (-want, +got):\n%s", diff)
			}
		})
	}
}

func TestEncode_force(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "data.npy")
	writeNPY(t, path, testArray(t))
	if err := os.WriteFile(path+".ncz", []byte("junk"), 0o600); err != nil {
		t.Fatalf("os.WriteFile: %v", err)
	}

	if _, err := run(t, "encode", "-f", "-k", "-C", zstdCodec, "-C", crc32Codec, path); err != nil {
		t.Fatalf("encode: %v", err)
	}
	if _, err := run(t, "decode", "-f", path+".ncz"); err != nil {
		t.Fatalf("decode: %v", err)
	}
	got := readNPY(t, path)
	if !numcodecs.Equal(testArray(t), got) {
		t.Errorf("decoded array does not match")
	}
}

func TestEncode_config(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "data.npy")
	writeNPY(t, path, testArray(t))

	config := filepath.Join(dir, "pipeline.yaml")
	pipeline := strings.Join([]string{
		"codecs:",
		"  - id: round",
		"    precision: 0.5",
		"  - id: zlib",
		"    level: 9",
		"",
	}, "\n")
	if err := os.WriteFile(config, []byte(pipeline), 0o600); err != nil {
		t.Fatalf("os.WriteFile: %v", err)
	}

	if _, err := run(t, "encode", "-p", config, path); err != nil {
		t.Fatalf("encode: %v", err)
	}

	out, err := run(t, "list", path+".ncz")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(out, "round,zlib") {
		t.Errorf("list output %q does not contain the codecs", out)
	}
	if !strings.Contains(out, "data.npy") {
		t.Errorf("list output %q does not contain the name", out)
	}
	if !strings.Contains(out, "f64") || !strings.Contains(out, "(2,3)") {
		t.Errorf("list output %q does not contain the decoded dtype and shape", out)
	}
}

func TestDecode_errors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	noExt := filepath.Join(dir, "data.bin")
	if err := os.WriteFile(noExt, []byte{1, 2, 3}, 0o600); err != nil {
		t.Fatalf("os.WriteFile: %v", err)
	}
	junk := filepath.Join(dir, "junk.ncz")
	if err := os.WriteFile(junk, []byte("not an archive"), 0o600); err != nil {
		t.Fatalf("os.WriteFile: %v", err)
	}

	testCases := map[string]struct {
		args []string
		err  error
	}{
		"extension": {
			args: []string{"decode", noExt},
			err:  errTruncate,
		},
		"not archive": {
			args: []string{"decode", junk},
			err:  ErrNumcodecs,
		},
		"missing": {
			args: []string{"decode", filepath.Join(dir, "missing.ncz")},
			err:  fs.ErrNotExist,
		},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			_, err := run(t, tc.args...)
			if diff := cmp.Diff(tc.err, err, cmpopts.EquateErrors()); diff != "" {
				t.Errorf("error (-want, +got):\n%s", diff)
			}
		})
	}
}

func TestCodecs(t *testing.T) {
	t.Parallel()

	out, err := run(t, "codecs")
	if err != nil {
		t.Fatalf("codecs: %v", err)
	}
	for _, id := range []string{"zstd", "zlib", "crc32", "swizzle-reshape", "stochastic-rounding"} {
		if !strings.Contains(out, id) {
			t.Errorf("codecs output does not contain %q:\n%s", id, out)
		}
	}
}

func TestSchema(t *testing.T) {
	t.Parallel()

	out, err := run(t, "schema", "zstd")
	if err != nil {
		t.Fatalf("schema: %v", err)
	}
	if !gjson.Valid(out) {
		t.Fatalf("schema output is not valid JSON:\n%s", out)
	}
	if got, want := gjson.Get(out, "title").String(), "zstd"; got != want {
		t.Errorf("title: got %q, want %q", got, want)
	}
	if got, want := gjson.Get(out, "properties.level.type").String(), "integer"; got != want {
		t.Errorf("level type: got %q, want %q", got, want)
	}

	if _, err := run(t, "schema", "lz4"); !errors.Is(err, numcodecs.ErrUnknownCodec) {
		t.Errorf("unknown codec: got %v, want %v", err, numcodecs.ErrUnknownCodec)
	}
	if _, err := run(t, "schema"); !errors.Is(err, ErrFlagParse) {
		t.Errorf("no args: got %v, want %v", err, ErrFlagParse)
	}
}

func TestDocs(t *testing.T) {
	t.Parallel()

	out, err := run(t, "docs")
	if err != nil {
		t.Fatalf("docs: %v", err)
	}
	for _, want := range []string{"# Codecs", "## zstd", "## linear-quantize", "`level`", "```json"} {
		if !strings.Contains(out, want) {
			t.Errorf("docs output does not contain %q", want)
		}
	}
}

func TestExampleConfig(t *testing.T) {
	t.Parallel()

	r := codecs.Default()
	for _, typ := range r.Types() {
		t.Run(typ.ID(), func(t *testing.T) {
			t.Parallel()

			b, err := json.Marshal(exampleConfig(typ))
			if err != nil {
				t.Fatalf("json.Marshal: %v", err)
			}
			c, err := r.CodecFromJSON(b)
			if err != nil {
				t.Fatalf("CodecFromJSON(%s): %v", b, err)
			}
			if got, want := c.Type().ID(), typ.ID(); got != want {
				t.Errorf("id: got %q, want %q", got, want)
			}
		})
	}
}

func TestApp(t *testing.T) {
	t.Parallel()

	testCases := map[string]struct {
		args []string
		want string
		err  error
	}{
		"version": {
			args: []string{"--version"},
			want: "Copyright 2024 Google LLC",
		},
		"license": {
			args: []string{"--license"},
			want: "Apache License",
		},
		"unknown command": {
			args: []string{"compress"},
			err:  ErrFlagParse,
		},
		"unknown flag": {
			args: []string{"--unknown"},
			err:  ErrFlagParse,
		},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			out, err := run(t, tc.args...)
			if diff := cmp.Diff(tc.err, err, cmpopts.EquateErrors()); diff != "" {
				t.Errorf("error (-want, +got):\n%s", diff)
			}
			if !strings.Contains(out, tc.want) {
				t.Errorf("output %q does not contain %q", out, tc.want)
			}
		})
	}
}

func TestWriteFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "data.npy")
	errWrite := errors.New("write failed")

	err := writeFile(path, false, func(w io.Writer) error {
		if _, err := w.Write([]byte("partial")); err != nil {
			return err
		}
		return errWrite
	})
	if diff := cmp.Diff(errWrite, err, cmpopts.EquateErrors()); diff != "" {
		t.Fatalf("writeFile (-want, +got):\n%s", diff)
	}
	if _, err := os.Stat(path); !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("partial file: got %v, want %v", err, fs.ErrNotExist)
	}

	// A retry without force succeeds since no partial file is left behind.
	if err := writeFile(path, false, func(w io.Writer) error {
		_, err := w.Write([]byte("complete"))
		return err
	}); err != nil {
		t.Fatalf("writeFile: %v", err)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("os.ReadFile: %v", err)
	}
	if diff := cmp.Diff("complete", string(got)); diff != "" {
		t.Errorf("contents (-want, +got):\n%s", diff)
	}

	if err := writeFile(path, false, func(io.Writer) error { return nil }); !errors.Is(err, fs.ErrExist) {
		t.Errorf("existing file: got %v, want %v", err, fs.ErrExist)
	}
}

func TestParseShape(t *testing.T) {
	t.Parallel()

	got, err := parseShape("2, 3,0")
	if err != nil {
		t.Fatalf("parseShape: %v", err)
	}
	if diff := cmp.Diff([]int{2, 3, 0}, got); diff != "" {
		t.Errorf("shape (-want, +got):\n%s", diff)
	}
	if _, err := parseShape("-1"); !errors.Is(err, ErrFlagParse) {
		t.Errorf("negative: got %v, want %v", err, ErrFlagParse)
	}
}
