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
	"context"
	"runtime"

	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"
)

func jobsFlag() cli.Flag {
	return &cli.IntFlag{
		Name:    "jobs",
		Usage:   "process up to `N` files concurrently",
		Aliases: []string{"j"},
		Value:   runtime.NumCPU(),
	}
}

// forEachPath runs fn for every path with at most jobs calls running at the
// same time. With jobs of 1 the paths are processed in order.
func forEachPath(ctx context.Context, paths []string, jobs int, fn func(ctx context.Context, path string) error) error {
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(max(jobs, 1))
	for _, path := range paths {
		if ctx.Err() != nil {
			break
		}
		eg.Go(func() error {
			return fn(ctx, path)
		})
	}
	//nolint:wrapcheck // errors are already wrapped
	return eg.Wait()
}
