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

	"github.com/urfave/cli/v2"
	"sigs.k8s.io/release-utils/version"
)

const licenseText = `    Licensed under the Apache License, Version 2.0 (the "License");
    you may not use this file except in compliance with the License.
    You may obtain a copy of the License at

         http://www.apache.org/licenses/LICENSE-2.0

    Unless required by applicable law or agreed to in writing, software
    distributed under the License is distributed on an "AS IS" BASIS,
    WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
    See the License for the specific language governing permissions and
    limitations under the License.
`

// writeBanner writes the program name, version and copyright line.
func writeBanner(w io.Writer, name string) error {
	info := version.GetVersionInfo()
	if _, err := fmt.Fprintf(w, "%s %s\nCopyright 2024 Google LLC\n\n", name, info.GitVersion); err != nil {
		return fmt.Errorf("%w: %w", ErrNumcodecs, err)
	}
	return nil
}

func printVersion(c *cli.Context) error {
	if err := writeBanner(c.App.Writer, c.App.Name); err != nil {
		return err
	}
	info := version.GetVersionInfo()
	if _, err := fmt.Fprintln(c.App.Writer, info.String()); err != nil {
		return fmt.Errorf("%w: %w", ErrNumcodecs, err)
	}
	return nil
}

func printLicense(c *cli.Context) error {
	if err := writeBanner(c.App.Writer, c.App.Name); err != nil {
		return err
	}
	if _, err := io.WriteString(c.App.Writer, licenseText); err != nil {
		return fmt.Errorf("%w: %w", ErrNumcodecs, err)
	}
	return nil
}
