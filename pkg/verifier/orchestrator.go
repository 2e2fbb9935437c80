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

// Package verifier schedules discovered functions through the two-tier
// checking strategy: the sound interval fast path first, the solver-backed
// path only for clauses the fast path leaves undecided.  Functions are
// independent tasks run on a bounded pool; results are aggregated into
// deterministic source order regardless of completion order.
package verifier

import (
	"context"
	"errors"
	"math/big"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/blvm/go-speclock/pkg/checker"
	"github.com/blvm/go-speclock/pkg/contract"
	"github.com/blvm/go-speclock/pkg/solver"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// errFalsified aborts outstanding work in fail-fast mode.  It never escapes
// Run.
var errFalsified = errors.New("falsified")

// Config parameterises a verification run.
type Config struct {
	// Named constants available to contract clauses.
	Constants map[string]*big.Int
	// Solver decides clauses the fast path cannot; nil disables the
	// solver tier, leaving such clauses unknown.
	Solver solver.Solver
	// Jobs bounds the worker pool; zero or negative means one worker per
	// CPU.
	Jobs int
	// FailFast cancels outstanding work on the first falsified verdict.
	FailFast bool
	// Timeout bounds the whole run; zero means unbounded.
	Timeout time.Duration
}

// Verifier runs verification tasks over discovered functions.
type Verifier struct {
	config Config
}

// New constructs a verifier from a configuration.
func New(config Config) *Verifier {
	return &Verifier{config}
}

// Run verifies every function matching the criteria, returning one result
// per retained function, ordered by source location.  Cancellation (or the
// configured run timeout) stops outstanding work; functions already checked
// keep their outcomes, and interrupted ones report their remaining clauses
// unknown.  The report therefore always enumerates every retained function.
func (p *Verifier) Run(ctx context.Context, fns []*contract.SpecFunction,
	criteria *Criteria) []FunctionResult {
	retained := criteria.Apply(fns)
	//
	if p.config.Timeout > 0 {
		var cancel context.CancelFunc
		//
		ctx, cancel = context.WithTimeout(ctx, p.config.Timeout)
		defer cancel()
	}
	//
	jobs := p.config.Jobs
	if jobs <= 0 {
		jobs = runtime.NumCPU()
	}
	//
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	//
	collected := make(chan FunctionResult, len(retained))
	//
	for _, fn := range retained {
		fn := fn
		g.Go(func() error {
			result := p.verifyFunction(ctx, fn)
			collected <- result
			//
			if p.config.FailFast && result.Verdict == StatusFalsified {
				return errFalsified
			}
			//
			return nil
		})
	}
	//
	if err := g.Wait(); err != nil && !errors.Is(err, errFalsified) {
		logrus.WithError(err).Debug("verification pool aborted")
	}
	//
	close(collected)
	//
	results := make([]FunctionResult, 0, len(retained))
	for result := range collected {
		results = append(results, result)
	}
	// Completion order is scheduling noise; reports are location ordered
	sort.Slice(results, func(i, j int) bool {
		return compareResults(&results[i], &results[j]) < 0
	})
	//
	return results
}

// verifyFunction checks every clause of one function in declaration order.
func (p *Verifier) verifyFunction(ctx context.Context, fn *contract.SpecFunction) FunctionResult {
	result := resultOf(fn)
	//
	contract.BindClauses(fn, p.config.Constants)
	//
	for i := range fn.Clauses {
		result.Clauses = append(result.Clauses, p.checkClause(ctx, fn, fn.Clauses[i]))
	}
	//
	result.Verdict = Combine(result.Clauses)
	//
	return result
}

// checkClause decides one clause: fast path first, solver fallback on
// unknown.
func (p *Verifier) checkClause(ctx context.Context, fn *contract.SpecFunction,
	clause contract.Clause) ClauseResult {
	started := time.Now()
	//
	cr := ClauseResult{Kind: clause.Kind.String(), Text: clause.Text}
	//
	defer func() { cr.Elapsed = time.Since(started) }()
	//
	if clause.Err != nil {
		cr.Status = StatusError
		cr.Error = clause.Err.Error()
		//
		return cr
	}
	// A cancelled run leaves remaining clauses undecided
	if ctx.Err() != nil {
		cr.Status = StatusUnknown
		//
		return cr
	}
	//
	outcome := checker.CheckClause(fn, clause)
	//
	switch outcome.Decision {
	case checker.True:
		cr.Status = StatusVerified
		cr.Source = SourceStatic
		//
		return cr
	case checker.False:
		cr.Status = StatusFalsified
		cr.Source = SourceStatic
		cr.Counterexample = renderAssignment(outcome.Witness)
		//
		return cr
	}
	//
	if p.config.Solver == nil {
		cr.Status = StatusUnknown
		//
		return cr
	}
	//
	return p.consultSolver(ctx, fn, clause, cr)
}

func (p *Verifier) consultSolver(ctx context.Context, fn *contract.SpecFunction,
	clause contract.Clause, cr ClauseResult) ClauseResult {
	var (
		query solver.Query
		err   error
	)
	//
	if clause.Kind == contract.Precondition {
		query, err = solver.EncodePrecondition(fn, clause)
	} else {
		query, err = solver.EncodePostcondition(fn, clause)
	}
	//
	if err != nil {
		cr.Status = StatusError
		cr.Error = err.Error()
		//
		return cr
	}
	//
	verdict, err := p.config.Solver.Check(ctx, query)
	if err != nil {
		// Isolated failure domain: this clause degrades, siblings run
		logrus.WithField("function", fn.Name).WithError(err).Warn("solver failure")
		//
		cr.Status = StatusError
		cr.Error = err.Error()
		//
		return cr
	}
	//
	cr.Source = SourceSolver
	//
	switch {
	case verdict.Answer == solver.Unsure:
		cr.Status = StatusUnknown
		cr.Source = SourceNone
	case clause.Kind == contract.Precondition:
		// Satisfiable assumptions are legitimate; contradictions are not
		if verdict.Answer == solver.Sat {
			cr.Status = StatusVerified
		} else {
			cr.Status = StatusFalsified
		}
	case verdict.Answer == solver.Unsat:
		cr.Status = StatusVerified
	default:
		cr.Status = StatusFalsified
		cr.Counterexample = renderAssignment(verdict.Model)
	}
	//
	return cr
}

func renderAssignment(assignment contract.Assignment) map[string]string {
	if len(assignment) == 0 {
		return nil
	}
	//
	rendered := make(map[string]string, len(assignment))
	for name, value := range assignment {
		rendered[name] = value.String()
	}
	//
	return rendered
}

func compareResults(a *FunctionResult, b *FunctionResult) int {
	if c := strings.Compare(a.File, b.File); c != 0 {
		return c
	} else if a.Line != b.Line {
		return a.Line - b.Line
	}
	//
	return a.Column - b.Column
}
