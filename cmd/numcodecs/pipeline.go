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
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/ianlewis/go-numcodecs"
)

// appName is the directory name used under the XDG base directories.
const appName = "numcodecs"

// errNoPipeline indicates that no pipeline was configured.
var errNoPipeline = fmt.Errorf("%w: no pipeline configured", ErrNumcodecs)

// pipelineFile is the format of pipeline configuration files. JSON files are
// accepted as well since JSON is a subset of YAML.
type pipelineFile struct {
	Codecs []numcodecs.Config `yaml:"codecs"`
}

// defaultPipelinePath returns the path of the default pipeline file.
func defaultPipelinePath() string {
	return filepath.Join(xdg.ConfigHome, appName, "pipeline.yaml")
}

func pipelineFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringSliceFlag{
			Name:    "codec",
			Usage:   "JSON `CONFIG` of a codec to add to the pipeline (repeatable)",
			Aliases: []string{"C"},
		},
		&cli.PathFlag{
			Name:    "config",
			Usage:   "read the pipeline from a YAML or JSON `FILE` (default: " + defaultPipelinePath() + ")",
			Aliases: []string{"p"},
		},
	}
}

// loadPipeline builds the pipeline from the --codec flags, the --config file
// or the default pipeline file, in that order.
func loadPipeline(c *cli.Context, r *numcodecs.Registry) (*numcodecs.Pipeline, error) {
	if values := c.StringSlice("codec"); len(values) > 0 {
		var cs []numcodecs.Codec
		for i, v := range values {
			codec, err := r.CodecFromJSON([]byte(v))
			if err != nil {
				return nil, fmt.Errorf("%w: --codec %d: %w", ErrFlagParse, i, err)
			}
			cs = append(cs, codec)
		}
		return numcodecs.PipelineOf(cs...), nil
	}

	path := c.Path("config")
	if path == "" {
		path = defaultPipelinePath()
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: use --codec or --config, or create %s", errNoPipeline, path)
		}
	}
	return readPipelineFile(path, r)
}

func readPipelineFile(path string, r *numcodecs.Registry) (*numcodecs.Pipeline, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: reading pipeline: %w", ErrNumcodecs, err)
	}
	var pf pipelineFile
	if err := yaml.Unmarshal(b, &pf); err != nil {
		return nil, fmt.Errorf("%w: parsing pipeline %q: %w", ErrNumcodecs, path, err)
	}
	slog.Debug("loaded pipeline", "path", path, "codecs", len(pf.Codecs))

	p, err := numcodecs.NewPipeline(r, pf.Codecs)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrNumcodecs, path, err)
	}
	return p, nil
}
