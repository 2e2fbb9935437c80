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
package verifier

import (
	"fmt"
	"time"

	"github.com/blvm/go-speclock/pkg/contract"
)

// Status is the outcome of checking one clause, or the combined verdict of a
// function.
type Status uint8

const (
	// StatusVerified means the clause provably holds over the whole
	// declared input domain.
	StatusVerified Status = iota
	// StatusFalsified means a concrete violation exists.
	StatusFalsified
	// StatusUnknown means neither tier could decide within its budget.
	StatusUnknown
	// StatusError means the clause could not be analysed at all (syntax,
	// binding or solver failure).
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusVerified:
		return "verified"
	case StatusFalsified:
		return "falsified"
	case StatusUnknown:
		return "unknown"
	default:
		return "error"
	}
}

// MarshalText implementation for the encoding.TextMarshaler interface.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implementation for the encoding.TextUnmarshaler interface.
func (s *Status) UnmarshalText(text []byte) error {
	switch string(text) {
	case "verified":
		*s = StatusVerified
	case "falsified":
		*s = StatusFalsified
	case "unknown":
		*s = StatusUnknown
	case "error":
		*s = StatusError
	default:
		return fmt.Errorf("unknown status %q", string(text))
	}
	//
	return nil
}

// Source identifies which tier decided a clause.
type Source uint8

const (
	// SourceNone means no tier produced the outcome (e.g. a binding
	// failure, or a cancelled run).
	SourceNone Source = iota
	// SourceStatic means the interval fast path decided.
	SourceStatic
	// SourceSolver means the solver-backed path decided.
	SourceSolver
)

func (s Source) String() string {
	switch s {
	case SourceStatic:
		return "static"
	case SourceSolver:
		return "solver"
	default:
		return ""
	}
}

// MarshalText implementation for the encoding.TextMarshaler interface.
func (s Source) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implementation for the encoding.TextUnmarshaler interface.
func (s *Source) UnmarshalText(text []byte) error {
	switch string(text) {
	case "static":
		*s = SourceStatic
	case "solver":
		*s = SourceSolver
	case "":
		*s = SourceNone
	default:
		return fmt.Errorf("unknown source %q", string(text))
	}
	//
	return nil
}

// ClauseResult is the immutable outcome of checking one contract clause.
type ClauseResult struct {
	// Kind of the clause ("requires" or "ensures").
	Kind string `json:"kind"`
	// Raw clause text.
	Text string `json:"text"`
	// Outcome of checking.
	Status Status `json:"status"`
	// Tier which decided the outcome.
	Source Source `json:"source,omitempty"`
	// Time spent deciding this clause.
	Elapsed time.Duration `json:"elapsed"`
	// Concrete violating (or, for a contradictory precondition,
	// unsatisfiable-witnessing) assignment, as decimal strings by
	// variable name.
	Counterexample map[string]string `json:"counterexample,omitempty"`
	// Description of the failure when Status is error.
	Error string `json:"error,omitempty"`
}

// FunctionResult is the immutable outcome of verifying one function: its
// identity, per-clause results in declaration order, and the combined
// verdict.
type FunctionResult struct {
	// Qualified function name.
	Name string `json:"name"`
	// Source location.
	File   string `json:"file"`
	Line   int    `json:"line"`
	Column int    `json:"column"`
	// Linked specification section.
	Section string `json:"section"`
	// Per-clause outcomes, in declaration order.
	Clauses []ClauseResult `json:"clauses"`
	// Combined verdict across all clauses.
	Verdict Status `json:"verdict"`
}

// Combine computes a function's verdict from its clause statuses: verified
// iff all clauses verified, falsified iff any falsified, error iff any error
// and none falsified, otherwise unknown.  A function with no clauses is
// vacuously verified.
func Combine(clauses []ClauseResult) Status {
	var anyError, anyUnknown bool
	//
	for _, clause := range clauses {
		switch clause.Status {
		case StatusFalsified:
			return StatusFalsified
		case StatusError:
			anyError = true
		case StatusUnknown:
			anyUnknown = true
		}
	}
	//
	switch {
	case anyError:
		return StatusError
	case anyUnknown:
		return StatusUnknown
	default:
		return StatusVerified
	}
}

// resultOf seeds a function result with a function's identity.
func resultOf(fn *contract.SpecFunction) FunctionResult {
	return FunctionResult{
		Name:    fn.Name,
		File:    fn.File,
		Line:    fn.Line,
		Column:  fn.Column,
		Section: fn.Section,
	}
}
