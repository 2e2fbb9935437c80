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
package solver

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Solver decides the satisfiability of a query.  Implementations must honour
// cancellation of the supplied context.
type Solver interface {
	// Check decides the given query, returning the solver's verdict or an
	// error when the solver itself failed.  A timeout is not an error: it
	// yields an Unsure verdict.
	Check(ctx context.Context, query Query) (Verdict, error)
}

// Error wraps a failure of the solver process itself, as distinct from an
// unknown or timed-out answer.
type Error struct {
	// Solver binary which was invoked.
	Binary string
	// Underlying cause.
	Err error
	// Captured stderr, when any was produced.
	Stderr string
}

func (e *Error) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("%s: %v: %s", e.Binary, e.Err, e.Stderr)
	}
	//
	return fmt.Sprintf("%s: %v", e.Binary, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Adapter runs an external SMT-LIB 2 solver binary over stdin/stdout.  The
// zero value is unusable; construct with NewAdapter.
type Adapter struct {
	binary  string
	args    []string
	timeout time.Duration
}

// NewAdapter constructs an adapter for the given solver binary, invoked with
// the given arguments plus "-in" style stdin scripting left to the caller's
// argument choice.  Each Check is bounded by the given per-query timeout; zero
// disables the bound.
func NewAdapter(binary string, args []string, timeout time.Duration) *Adapter {
	return &Adapter{binary, args, timeout}
}

// DefaultAdapter constructs an adapter for Z3 reading SMT-LIB from stdin.
func DefaultAdapter(timeout time.Duration) *Adapter {
	return NewAdapter("z3", []string{"-smt2", "-in"}, timeout)
}

// Binary reports the configured solver binary.
func (p *Adapter) Binary() string {
	return p.binary
}

// Available checks whether the solver binary can be resolved on the path.
func (p *Adapter) Available() bool {
	_, err := exec.LookPath(p.binary)
	//
	return err == nil
}

// Check implementation for the Solver interface.
func (p *Adapter) Check(ctx context.Context, query Query) (Verdict, error) {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		//
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}
	//
	var (
		stdout bytes.Buffer
		stderr bytes.Buffer
	)
	//
	cmd := exec.CommandContext(ctx, p.binary, p.args...)
	cmd.Stdin = strings.NewReader(query.Script)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	//
	err := cmd.Run()
	//
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		logrus.WithField("solver", p.binary).Debug("query timed out")
		//
		return Verdict{Answer: Unsure}, nil
	} else if ctx.Err() != nil {
		return Verdict{}, ctx.Err()
	}
	// Solvers exit non-zero on (get-model) after unsat, so an exit error
	// with a readable answer is not a failure.
	verdict, perr := ParseOutput(stdout.String(), query.Vars)
	if perr == nil {
		return verdict, nil
	}
	//
	if err == nil {
		err = perr
	}
	//
	return Verdict{}, &Error{p.binary, err, strings.TrimSpace(stderr.String())}
}
