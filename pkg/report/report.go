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

// Package report aggregates verification results into a deterministic,
// renderer-independent report.  Every renderer (human, JSON, JUnit XML,
// markdown) preserves the per-function and per-clause detail; none of them
// recompute anything.
package report

import (
	"sort"
	"strings"

	"github.com/blvm/go-speclock/pkg/specdoc"
	"github.com/blvm/go-speclock/pkg/verifier"
)

// Function is one function's verification outcome within a report, enriched
// with the title of its specification section when the document defines one.
type Function struct {
	verifier.FunctionResult
	// Title of the linked specification section, when known.
	SectionTitle string `json:"section_title,omitempty"`
}

// Summary holds the verdict counts across a report.
type Summary struct {
	Total     int `json:"total"`
	Verified  int `json:"verified"`
	Falsified int `json:"falsified"`
	Unknown   int `json:"unknown"`
	Errors    int `json:"errors"`
}

// Report is the immutable outcome of one verification run, ordered by source
// location.
type Report struct {
	Functions []Function `json:"functions"`
	Summary   Summary    `json:"summary"`
}

// New aggregates per-function results into a report, enriching each entry
// with its section title from the specification document (which may be nil).
func New(results []verifier.FunctionResult, doc *specdoc.Document) *Report {
	report := &Report{Functions: make([]Function, 0, len(results))}
	//
	for _, result := range results {
		entry := Function{FunctionResult: result}
		//
		if doc != nil {
			if title, ok := doc.Title(result.Section); ok {
				entry.SectionTitle = title
			}
		}
		//
		report.Functions = append(report.Functions, entry)
		report.count(result.Verdict)
	}
	// Results normally arrive ordered; enforce it regardless of producer
	sort.Slice(report.Functions, func(i, j int) bool {
		return compare(&report.Functions[i], &report.Functions[j]) < 0
	})
	//
	return report
}

// Pass checks whether every function in the report verified.
func (p *Report) Pass() bool {
	return p.Summary.Falsified == 0 && p.Summary.Unknown == 0 && p.Summary.Errors == 0
}

// ExitCode maps the report onto the process exit convention: 0 when all
// functions verified, 1 when any falsified, 2 when none falsified but some
// remained unknown or errored.
func (p *Report) ExitCode() int {
	switch {
	case p.Summary.Falsified > 0:
		return 1
	case p.Summary.Unknown > 0 || p.Summary.Errors > 0:
		return 2
	default:
		return 0
	}
}

func (p *Report) count(verdict verifier.Status) {
	p.Summary.Total++
	//
	switch verdict {
	case verifier.StatusVerified:
		p.Summary.Verified++
	case verifier.StatusFalsified:
		p.Summary.Falsified++
	case verifier.StatusUnknown:
		p.Summary.Unknown++
	default:
		p.Summary.Errors++
	}
}

func compare(a *Function, b *Function) int {
	if c := strings.Compare(a.File, b.File); c != 0 {
		return c
	} else if a.Line != b.Line {
		return a.Line - b.Line
	}
	//
	return a.Column - b.Column
}

// sortedKeys renders a counterexample deterministically for the textual
// renderers.
func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	//
	for key := range m {
		keys = append(keys, key)
	}
	//
	sort.Strings(keys)
	//
	return keys
}
