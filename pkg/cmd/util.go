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
package cmd

import (
	"fmt"
	"math/big"
	"os"
	"time"

	"github.com/blvm/go-speclock/pkg/config"
	"github.com/blvm/go-speclock/pkg/discovery"
	"github.com/blvm/go-speclock/pkg/specdoc"
	"github.com/blvm/go-speclock/pkg/verifier"
	"github.com/spf13/cobra"
)

// GetFlag gets an expected flag, or abort if an error arises.
func GetFlag(cmd *cobra.Command, flag string) bool {
	r, err := cmd.Flags().GetBool(flag)
	if err != nil {
		fmt.Println(err)
		os.Exit(3)
	}

	return r
}

// GetString gets an expected flag, or abort if an error arises.
func GetString(cmd *cobra.Command, flag string) string {
	r, err := cmd.Flags().GetString(flag)
	if err != nil {
		fmt.Println(err)
		os.Exit(3)
	}

	return r
}

// GetStringSlice gets an expected flag, or abort if an error arises.
func GetStringSlice(cmd *cobra.Command, flag string) []string {
	r, err := cmd.Flags().GetStringSlice(flag)
	if err != nil {
		fmt.Println(err)
		os.Exit(3)
	}

	return r
}

// GetUint gets an expected flag, or abort if an error arises.
func GetUint(cmd *cobra.Command, flag string) uint {
	r, err := cmd.Flags().GetUint(flag)
	if err != nil {
		fmt.Println(err)
		os.Exit(3)
	}

	return r
}

// GetDuration gets an expected flag, or abort if an error arises.
func GetDuration(cmd *cobra.Command, flag string) time.Duration {
	r, err := cmd.Flags().GetDuration(flag)
	if err != nil {
		fmt.Println(err)
		os.Exit(3)
	}

	return r
}

// environment gathers everything a command needs before it can act: the
// workspace configuration, the optional specification document, the merged
// constants table and the outcome of scanning the source roots.
type environment struct {
	config    config.Config
	doc       *specdoc.Document
	constants map[string]*big.Int
	discovery *discovery.Discovery
}

// loadEnvironment reads the configuration, the specification document (when
// one is configured) and scans the source roots.  Positional arguments
// override the configured roots; the --spec flag overrides the configured
// document.  Any failure here means the environment itself is unusable, so
// the process exits with code 3.
func loadEnvironment(cmd *cobra.Command, args []string) *environment {
	cfg, err := config.Load(GetString(cmd, "config"))
	if err != nil {
		fmt.Println(err)
		os.Exit(3)
	}
	//
	if spec := GetString(cmd, "spec"); spec != "" {
		cfg.Spec = spec
	}
	//
	if len(args) > 0 {
		cfg.Roots = args
	}
	//
	var doc *specdoc.Document
	//
	if cfg.Spec != "" {
		if doc, err = specdoc.Read(cfg.Spec); err != nil {
			fmt.Println(err)
			os.Exit(3)
		}
	}
	//
	constants := specdoc.MergedConstants(doc)
	//
	d, err := discovery.Discover(cfg.Roots, cfg.Ignore, constants)
	if err != nil {
		fmt.Println(err)
		os.Exit(3)
	}
	//
	return &environment{cfg, doc, constants, d}
}

// criteria assembles the filtering criteria shared by the verify and list
// commands.
func criteria(cmd *cobra.Command) *verifier.Criteria {
	return &verifier.Criteria{
		Path:      GetString(cmd, "path"),
		Subsystem: GetString(cmd, "subsystem"),
		Name:      GetString(cmd, "name"),
		Sections:  GetStringSlice(cmd, "section"),
	}
}

// addFilterFlags registers the filtering flags shared by the verify and list
// commands.
func addFilterFlags(cmd *cobra.Command) {
	cmd.Flags().String("path", "", "restrict to files under this path prefix")
	cmd.Flags().String("subsystem", "", "restrict to files with this path component")
	cmd.Flags().String("name", "", "restrict by function name ('*' wildcards allowed)")
	cmd.Flags().StringSlice("section", nil, "restrict to these specification sections")
}
