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
	"context"
	"fmt"
	"os"

	"github.com/blvm/go-speclock/pkg/discovery"
	"github.com/blvm/go-speclock/pkg/report"
	"github.com/blvm/go-speclock/pkg/solver"
	"github.com/blvm/go-speclock/pkg/verifier"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// verifyCmd checks every contract clause of every spec-locked function.
var verifyCmd = &cobra.Command{
	Use:   "verify [root...]",
	Short: "Verify contract clauses against their implementations.",
	Long: "Scan the given roots (or the configured ones) for spec-locked functions and " +
		"decide every contract clause, statically where possible and via the solver otherwise.",
	Run: func(cmd *cobra.Command, args []string) {
		if GetFlag(cmd, "verbose") {
			log.SetLevel(log.DebugLevel)
		}
		//
		if GetFlag(cmd, "watch") {
			watchLoop(cmd, args)
		}
		//
		os.Exit(runVerification(cmd, args))
	},
}

// runVerification performs one complete scan-check-report cycle, returning
// the process exit code: 0 when every clause verified, 1 when any clause was
// falsified, 2 when clauses remain undecided or errored.
func runVerification(cmd *cobra.Command, args []string) int {
	env := loadEnvironment(cmd, args)
	//
	degraded := reportDiscovery(env.discovery, GetFlag(cmd, "strict"))
	//
	cfg := verifierConfig(cmd, env, chooseSolver(cmd, env))
	//
	results := verifier.New(cfg).Run(context.Background(), env.discovery.Functions, criteria(cmd))
	//
	rep := report.New(results, env.doc)
	//
	render(cmd, rep)
	//
	code := rep.ExitCode()
	if degraded && code == 0 {
		code = 2
	}
	//
	return code
}

// verifierConfig assembles the run configuration, with unset flags falling
// back to the workspace configuration.
func verifierConfig(cmd *cobra.Command, env *environment, sol solver.Solver) verifier.Config {
	jobs := int(GetUint(cmd, "jobs"))
	if jobs == 0 {
		jobs = env.config.Jobs
	}
	//
	timeout := GetDuration(cmd, "timeout")
	if timeout == 0 {
		timeout = env.config.Timeout.Std()
	}
	//
	return verifier.Config{
		Constants: env.constants,
		Solver:    sol,
		Jobs:      jobs,
		FailFast:  GetFlag(cmd, "fail-fast"),
		Timeout:   timeout,
	}
}

// reportDiscovery surfaces directive errors and (in strict mode) unlinked
// functions, reporting whether any were found.
func reportDiscovery(d *discovery.Discovery, strict bool) bool {
	for _, err := range d.Errors {
		log.Error(err)
	}
	//
	if strict {
		for _, fn := range d.Unlinked {
			log.Errorf("%s:%d: %s has contract clauses but no section link", fn.File, fn.Line, fn.Name)
		}
	}
	//
	return len(d.Errors) > 0 || (strict && len(d.Unlinked) > 0)
}

// chooseSolver resolves the solver tier from flags and configuration.  An
// explicitly requested solver must exist; a merely configured one degrades to
// static-only checking with a warning when missing.
func chooseSolver(cmd *cobra.Command, env *environment) solver.Solver {
	if GetFlag(cmd, "no-solver") {
		return nil
	}
	//
	var (
		binary   = env.config.Solver.Binary
		required = false
	)
	//
	if flagged := GetString(cmd, "solver"); flagged != "" {
		binary = flagged
		required = true
	}
	//
	timeout := env.config.Solver.Timeout.Std()
	if flagged := GetDuration(cmd, "solver-timeout"); flagged > 0 {
		timeout = flagged
	}
	//
	adapter := solver.NewAdapter(binary, env.config.Solver.Args, timeout)
	//
	if !adapter.Available() {
		if required {
			fmt.Printf("solver %q not found on the path\n", binary)
			os.Exit(3)
		}
		//
		log.Warnf("solver %q not found; undecided clauses stay unknown", binary)
		//
		return nil
	}
	//
	return adapter
}

// render writes the report to stdout in the requested format.
func render(cmd *cobra.Command, rep *report.Report) {
	var err error
	//
	switch format := GetString(cmd, "format"); format {
	case "human":
		report.WriteHuman(os.Stdout, rep, report.Coloured(os.Stdout))
	case "json":
		err = report.WriteJSON(os.Stdout, rep)
	case "junit":
		err = report.WriteJUnit(os.Stdout, rep)
	case "markdown":
		report.WriteMarkdown(os.Stdout, rep)
	default:
		fmt.Printf("unknown report format %q\n", format)
		os.Exit(3)
	}
	//
	if err != nil {
		fmt.Println(err)
		os.Exit(3)
	}
}

func init() {
	rootCmd.AddCommand(verifyCmd)
	//
	addFilterFlags(verifyCmd)
	verifyCmd.Flags().String("format", "human", "report format (human/json/junit/markdown)")
	verifyCmd.Flags().Uint("jobs", 0, "number of concurrent verification tasks (0 = one per CPU)")
	verifyCmd.Flags().Duration("timeout", 0, "bound the whole run (0 = unbounded)")
	verifyCmd.Flags().String("solver", "", "require this solver binary")
	verifyCmd.Flags().Duration("solver-timeout", 0, "per-clause solver budget (overrides the configuration)")
	verifyCmd.Flags().Bool("no-solver", false, "disable the solver tier")
	verifyCmd.Flags().Bool("fail-fast", false, "stop at the first falsified contract")
	verifyCmd.Flags().Bool("strict", false, "treat unlinked contract clauses as errors")
	verifyCmd.Flags().BoolP("watch", "w", false, "re-verify whenever source files change")
}
