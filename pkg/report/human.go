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
package report

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/blvm/go-speclock/pkg/verifier"
	"golang.org/x/term"
)

const (
	ansiReset  = "\033[0m"
	ansiRed    = "\033[31m"
	ansiGreen  = "\033[32m"
	ansiYellow = "\033[33m"
)

// Coloured checks whether a file is a terminal, in which case the human
// renderer uses colour.
func Coloured(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// WriteHuman renders the report for people: one block per function with its
// location, section and per-clause outcomes, then the summary line.
func WriteHuman(w io.Writer, report *Report, colour bool) {
	for i := range report.Functions {
		writeFunction(w, &report.Functions[i], colour)
	}
	//
	s := report.Summary
	//
	fmt.Fprintf(w, "%d function(s): %d verified, %d falsified, %d unknown, %d error(s)\n",
		s.Total, s.Verified, s.Falsified, s.Unknown, s.Errors)
}

func writeFunction(w io.Writer, fn *Function, colour bool) {
	section := fn.Section
	if fn.SectionTitle != "" {
		section = fmt.Sprintf("%s %s", fn.Section, fn.SectionTitle)
	}
	//
	fmt.Fprintf(w, "%s:%d:%d %s [%s] %s\n",
		fn.File, fn.Line, fn.Column, fn.Name, section,
		paint(fn.Verdict.String(), fn.Verdict, colour))
	//
	for _, clause := range fn.Clauses {
		writeClause(w, clause, colour)
	}
}

func writeClause(w io.Writer, clause verifier.ClauseResult, colour bool) {
	var provenance string
	//
	if clause.Source.String() != "" {
		provenance = fmt.Sprintf(" (%s, %s)", clause.Source.String(), clause.Elapsed)
	}
	//
	fmt.Fprintf(w, "  %s %s %s%s\n",
		paint(glyph(clause.Status), clause.Status, colour),
		clause.Kind, clause.Text, provenance)
	//
	if len(clause.Counterexample) > 0 {
		fmt.Fprintf(w, "      counterexample: %s\n", renderCounterexample(clause.Counterexample))
	}
	//
	if clause.Error != "" {
		fmt.Fprintf(w, "      %s\n", clause.Error)
	}
}

func glyph(status verifier.Status) string {
	switch status {
	case verifier.StatusVerified:
		return "✓"
	case verifier.StatusFalsified:
		return "✗"
	case verifier.StatusUnknown:
		return "?"
	default:
		return "!"
	}
}

func paint(text string, status verifier.Status, colour bool) string {
	if !colour {
		return text
	}
	//
	switch status {
	case verifier.StatusVerified:
		return ansiGreen + text + ansiReset
	case verifier.StatusFalsified:
		return ansiRed + text + ansiReset
	default:
		return ansiYellow + text + ansiReset
	}
}

func renderCounterexample(values map[string]string) string {
	parts := make([]string, 0, len(values))
	//
	for _, name := range sortedKeys(values) {
		parts = append(parts, fmt.Sprintf("%s = %s", name, values[name]))
	}
	//
	return strings.Join(parts, ", ")
}
