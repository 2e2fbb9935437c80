// Copyright the go-speclock authors.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with
// the License. You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on
// an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the License for the
// specific language governing permissions and limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0

// Package config reads the optional .speclock.yaml workspace configuration.
// Command-line flags override anything configured here.
package config

import (
	"errors"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Filename is the workspace configuration file looked up by default.
const Filename = ".speclock.yaml"

// Duration wraps time.Duration so configuration files can write "30s".
type Duration time.Duration

// Std converts back to the standard representation.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// UnmarshalYAML implementation for the yaml.Unmarshaler interface.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var text string
	//
	if err := node.Decode(&text); err != nil {
		return err
	}
	//
	parsed, err := time.ParseDuration(text)
	if err != nil {
		return err
	}
	//
	*d = Duration(parsed)
	//
	return nil
}

// Solver configures the external decision procedure.
type Solver struct {
	// Binary to invoke, resolved on the path.
	Binary string `yaml:"binary"`
	// Arguments; the SMT-LIB script arrives on stdin.
	Args []string `yaml:"args"`
	// Per-clause time budget.
	Timeout Duration `yaml:"timeout"`
}

// Config is the workspace configuration.
type Config struct {
	// Spec is the path of the specification document, when one exists.
	Spec string `yaml:"spec"`
	// Roots are the source trees to scan.
	Roots []string `yaml:"roots"`
	// Ignore patterns prune discovery (doublestar globs).
	Ignore []string `yaml:"ignore"`
	// Solver configuration.
	Solver Solver `yaml:"solver"`
	// Jobs bounds the verification worker pool; zero means one per CPU.
	Jobs int `yaml:"jobs"`
	// Timeout bounds a whole verification run; zero means unbounded.
	Timeout Duration `yaml:"timeout"`
}

// Default returns the configuration used in the absence of a file.
func Default() Config {
	return Config{
		Roots: []string{"."},
		Solver: Solver{
			Binary:  "z3",
			Args:    []string{"-smt2", "-in"},
			Timeout: Duration(5 * time.Second),
		},
	}
}

// Load reads a configuration file, layering it over the defaults.  A missing
// file at the default name is not an error; a missing file at an explicitly
// requested path is.
func Load(path string) (Config, error) {
	cfg := Default()
	//
	data, err := os.ReadFile(path)
	//
	if errors.Is(err, fs.ErrNotExist) && path == Filename {
		return cfg, nil
	} else if err != nil {
		return cfg, err
	}
	//
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	//
	return cfg, nil
}
