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

// Package checker implements the static fast path: forward interval
// propagation through the clause expression under the bounds implied by the
// declared parameter types and the preconditions.  It decides a clause only
// when the answer provably holds for the entire input domain; any rounding is
// outward, so a True or False decision is always sound and everything else
// degrades to Unknown.  Runtime is independent of the numeric domain's size.
package checker

import (
	"math/big"

	"github.com/blvm/go-speclock/pkg/contract"

	log "github.com/sirupsen/logrus"
)

// Decision is the three-valued outcome of the static tier.
type Decision uint8

const (
	// Unknown indicates the clause could not be decided statically.
	Unknown Decision = iota
	// True indicates the clause provably holds over the whole domain.
	True
	// False indicates the clause provably fails, with a witness.
	False
)

func (d Decision) String() string {
	switch d {
	case True:
		return "true"
	case False:
		return "false"
	default:
		return "unknown"
	}
}

// Outcome of statically checking one clause.  Witness is a concrete
// assignment demonstrating the violation, and is always populated (and
// re-validated by the concrete evaluator) when the decision is False.
type Outcome struct {
	Decision Decision
	Witness  contract.Assignment
}

// maxSamples bounds the number of candidate assignments tried when hunting
// for a concrete witness.
const maxSamples = 512

// CheckClause statically checks a single bound clause of a function.
//
// A precondition is checked for satisfiability within the declared type
// domain: True means it admits at least one input, False means it is
// contradictory.  A postcondition is checked for validity under the
// function's preconditions, with the symbolic body substituted for the
// result when available.
func CheckClause(fn *contract.SpecFunction, clause contract.Clause) Outcome {
	if clause.Expr == nil {
		return Outcome{Unknown, nil}
	}
	//
	if clause.Kind == contract.Precondition {
		return checkPrecondition(fn, clause)
	}
	//
	return checkPostcondition(fn, clause)
}

func checkPrecondition(fn *contract.SpecFunction, clause contract.Clause) Outcome {
	env, ok := typeEnv(fn)
	if !ok {
		return Outcome{Unknown, nil}
	}
	//
	switch decide(clause.Expr, env) {
	case True:
		// Every assignment satisfies the clause
		return Outcome{True, nil}
	case False:
		// No assignment satisfies the clause: contradictory contract
		return Outcome{False, sampleAny(fn, env)}
	}
	// Undecided: the clause is satisfiable if any concrete assignment
	// satisfies it, so narrow towards it and sample.
	if refined, ok := refineEnv(env, []contract.Clause{clause}); !ok {
		return Outcome{False, sampleAny(fn, env)}
	} else if found := findSatisfying(fn, refined, clause.Expr); found != nil {
		return Outcome{True, nil}
	}
	//
	return Outcome{Unknown, nil}
}

func checkPostcondition(fn *contract.SpecFunction, clause contract.Clause) Outcome {
	env, ok := typeEnv(fn)
	if !ok {
		return Outcome{Unknown, nil}
	}
	// Assume the preconditions
	env, ok = refineEnv(env, fn.Preconditions())
	if !ok {
		// Contradictory preconditions: holds vacuously
		return Outcome{True, nil}
	}
	//
	expr := clause.Expr
	//
	if fn.Body != nil {
		expr = contract.SubstituteResult(expr, fn.Body)
	} else if iv, ok := TypeInterval(fn.Result); ok {
		env["result"] = iv
	} else {
		return Outcome{Unknown, nil}
	}
	//
	switch decide(expr, env) {
	case True:
		return Outcome{True, nil}
	case False:
		// Provably false over the whole (boxed) domain, but only
		// report it with a concrete, evaluator-validated witness.
		if witness := findViolation(fn, env, clause); witness != nil {
			return Outcome{False, witness}
		}
		//
		log.Debugf("static refutation of %s clause %q lacked a witness", fn.Name, clause.Text)
		//
		return Outcome{Unknown, nil}
	}
	//
	return Outcome{Unknown, nil}
}

// typeEnv seeds every parameter with the interval of its declared type.
func typeEnv(fn *contract.SpecFunction) (map[string]Interval, bool) {
	env := make(map[string]Interval, len(fn.Params))
	//
	for _, param := range fn.Params {
		iv, ok := TypeInterval(param.Type)
		if !ok {
			return nil, false
		}
		//
		env[param.Name] = iv
	}
	//
	return env, true
}

// refineEnv narrows parameter intervals using precondition conjuncts of the
// shape "p <op> E" or "E <op> p", where the bound side is itself boundable.
// Returns false when the constraints are provably unsatisfiable.
func refineEnv(env map[string]Interval, clauses []contract.Clause) (map[string]Interval, bool) {
	refined := make(map[string]Interval, len(env))
	for k, v := range env {
		refined[k] = v
	}
	//
	for _, clause := range clauses {
		if clause.Expr == nil {
			continue
		}
		//
		for _, conjunct := range conjunctsOf(clause.Expr) {
			if !narrow(refined, conjunct) {
				return nil, false
			}
		}
	}
	//
	return refined, true
}

// conjunctsOf flattens nested conjunctions into their conjuncts.
func conjunctsOf(e contract.Expr) []contract.Expr {
	if b, ok := e.(*contract.Binary); ok && b.Op == contract.OpAnd {
		return append(conjunctsOf(b.Lhs), conjunctsOf(b.Rhs)...)
	}
	//
	return []contract.Expr{e}
}

// narrow applies one comparison conjunct to the environment, reporting false
// when a parameter's interval becomes empty.
func narrow(env map[string]Interval, e contract.Expr) bool {
	cmp, ok := e.(*contract.Binary)
	if !ok || !cmp.Op.IsComparison() {
		return true
	}
	// Try both orientations
	if ok := narrowVariable(env, cmp.Lhs, cmp.Op, cmp.Rhs); !ok {
		return false
	}
	//
	return narrowVariable(env, cmp.Rhs, flip(cmp.Op), cmp.Lhs)
}

// flip mirrors a comparison so the variable reads on the left.
func flip(op contract.Op) contract.Op {
	switch op {
	case contract.OpLt:
		return contract.OpGt
	case contract.OpLeq:
		return contract.OpGeq
	case contract.OpGt:
		return contract.OpLt
	case contract.OpGeq:
		return contract.OpLeq
	default:
		return op
	}
}

func narrowVariable(env map[string]Interval, lhs contract.Expr, op contract.Op, rhs contract.Expr) bool {
	v, ok := lhs.(*contract.Variable)
	if !ok || v.Kind != contract.VarParam {
		return true
	}
	//
	bound, ok := intervalOf(rhs, env)
	if !ok {
		return true
	}
	//
	one := big.NewInt(1)
	current := env[v.Name]
	//
	var constraint Interval
	//
	switch op {
	case contract.OpEq:
		constraint = bound
	case contract.OpLt:
		// v < E implies v <= max(E)-1
		constraint = Interval{current.min, new(big.Int).Sub(bound.max, one)}
	case contract.OpLeq:
		constraint = Interval{current.min, bound.max}
	case contract.OpGt:
		constraint = Interval{new(big.Int).Add(bound.min, one), current.max}
	case contract.OpGeq:
		constraint = Interval{bound.min, current.max}
	default:
		// != carries no interval information
		return true
	}
	//
	if constraint.min.Cmp(constraint.max) > 0 {
		return false
	}
	//
	narrowed, ok := current.Intersect(constraint)
	if !ok {
		return false
	}
	//
	env[v.Name] = narrowed
	//
	return true
}

// decide evaluates a boolean expression three-valued over the environment.
func decide(e contract.Expr, env map[string]Interval) Decision {
	switch v := e.(type) {
	case *contract.BoolLit:
		if v.Value {
			return True
		}
		//
		return False
	case *contract.Not:
		return negate(decide(v.Arg, env))
	case *contract.Binary:
		return decideBinary(v, env)
	case *contract.Forall:
		return decideForall(v, env)
	}
	//
	return Unknown
}

func negate(d Decision) Decision {
	switch d {
	case True:
		return False
	case False:
		return True
	default:
		return Unknown
	}
}

func decideBinary(e *contract.Binary, env map[string]Interval) Decision {
	switch e.Op {
	case contract.OpAnd:
		lhs, rhs := decide(e.Lhs, env), decide(e.Rhs, env)
		//
		switch {
		case lhs == False || rhs == False:
			return False
		case lhs == True && rhs == True:
			return True
		default:
			return Unknown
		}
	case contract.OpOr:
		lhs, rhs := decide(e.Lhs, env), decide(e.Rhs, env)
		//
		switch {
		case lhs == True || rhs == True:
			return True
		case lhs == False && rhs == False:
			return False
		default:
			return Unknown
		}
	}
	//
	// Relational idioms first: they see facts which the pointwise interval
	// comparison cannot, e.g. that both sides mention the same variable.
	if d := relationalIdiom(e, env); d != Unknown {
		return d
	}
	//
	lhs, ok := intervalOf(e.Lhs, env)
	if !ok {
		return Unknown
	}
	//
	rhs, ok := intervalOf(e.Rhs, env)
	if !ok {
		return Unknown
	}
	//
	return decideComparison(e.Op, lhs, rhs)
}

// relationalIdiom recognises comparisons whose sides share a sub-expression
// and which admit a closed-form proof:
//
//	(X >> K) <= X   when X >= 0 and K >= 0 (right shifts shrink)
//	(X / K)  <= X   when X >= 0 and K >= 1 (division shrinks)
//	X (<|<=) X + C  when C (>=1|>=0) and the sum provably cannot wrap
//	X - C (<|<=) X  when C (>=1|>=0) and the difference cannot wrap
//
// Only a True decision is ever produced; everything else falls through to
// the interval comparison.
func relationalIdiom(e *contract.Binary, env map[string]Interval) Decision {
	lhs, op, rhs := e.Lhs, e.Op, e.Rhs
	// Normalise to < / <=
	switch op {
	case contract.OpGt:
		lhs, op, rhs = rhs, contract.OpLt, lhs
	case contract.OpGeq:
		lhs, op, rhs = rhs, contract.OpLeq, lhs
	case contract.OpLt, contract.OpLeq:
		// retained as is
	default:
		return Unknown
	}
	//
	switch {
	case op == contract.OpLeq && shrinksTowards(lhs, rhs, env):
		return True
	case growsFrom(lhs, rhs, op, env):
		return True
	case shrinksBelow(lhs, rhs, op, env):
		return True
	}
	//
	return Unknown
}

// shrinksTowards checks lhs is (X >> K) or (X / K) shrinking towards rhs==X.
func shrinksTowards(lhs contract.Expr, rhs contract.Expr, env map[string]Interval) bool {
	b, ok := lhs.(*contract.Binary)
	if !ok || !sameExpr(b.Lhs, rhs) || !nonNegative(b.Lhs, env) {
		return false
	}
	//
	k, ok := intervalOf(b.Rhs, env)
	if !ok {
		return false
	}
	//
	switch b.Op {
	case contract.OpShr:
		return k.MinValue().Sign() >= 0
	case contract.OpDiv:
		return k.MinValue().Cmp(big.NewInt(1)) >= 0
	}
	//
	return false
}

// growsFrom checks rhs is (X + C) with lhs==X, where the sum cannot wrap and
// C is positive (for <) or non-negative (for <=).
func growsFrom(lhs contract.Expr, rhs contract.Expr, op contract.Op, env map[string]Interval) bool {
	b, ok := rhs.(*contract.Binary)
	if !ok || b.Op != contract.OpAdd {
		return false
	}
	// Addition commutes
	x, c := b.Lhs, b.Rhs
	if !sameExpr(x, lhs) {
		x, c = b.Rhs, b.Lhs
	}
	//
	if !sameExpr(x, lhs) || mayWrap(b, env) {
		return false
	}
	//
	delta, ok := intervalOf(c, env)
	if !ok {
		return false
	}
	//
	if op == contract.OpLt {
		return delta.MinValue().Cmp(big.NewInt(1)) >= 0
	}
	//
	return delta.MinValue().Sign() >= 0
}

// shrinksBelow checks lhs is (X - C) with rhs==X, where the difference cannot
// wrap and C is positive (for <) or non-negative (for <=).
func shrinksBelow(lhs contract.Expr, rhs contract.Expr, op contract.Op, env map[string]Interval) bool {
	b, ok := lhs.(*contract.Binary)
	if !ok || b.Op != contract.OpSub || !sameExpr(b.Lhs, rhs) || mayWrap(b, env) {
		return false
	}
	//
	delta, ok := intervalOf(b.Rhs, env)
	if !ok {
		return false
	}
	//
	if op == contract.OpLt {
		return delta.MinValue().Cmp(big.NewInt(1)) >= 0
	}
	//
	return delta.MinValue().Sign() >= 0
}

// mayWrap checks whether an additive expression's mathematical value could
// escape its type's range under the environment.
func mayWrap(e *contract.Binary, env map[string]Interval) bool {
	lhs, ok := intervalOf(e.Lhs, env)
	if !ok {
		return true
	}
	//
	rhs, ok := intervalOf(e.Rhs, env)
	if !ok {
		return true
	}
	//
	var exact Interval
	//
	switch e.Op {
	case contract.OpAdd:
		exact = lhs.Add(rhs)
	case contract.OpSub:
		exact = lhs.Sub(rhs)
	default:
		return true
	}
	//
	full, ok := TypeInterval(e.Type())
	if !ok {
		// Unbounded arithmetic never wraps
		return false
	}
	//
	return !exact.Within(full)
}

// nonNegative checks an expression is provably non-negative.
func nonNegative(e contract.Expr, env map[string]Interval) bool {
	iv, ok := intervalOf(e, env)
	//
	return ok && iv.MinValue().Sign() >= 0
}

// sameExpr checks two bound expressions are structurally identical.
func sameExpr(a contract.Expr, b contract.Expr) bool {
	return a.String() == b.String()
}

func decideComparison(op contract.Op, lhs Interval, rhs Interval) Decision {
	switch op {
	case contract.OpEq:
		if lhs.IsPoint() && rhs.IsPoint() && lhs.min.Cmp(rhs.min) == 0 {
			return True
		} else if _, overlap := lhs.Intersect(rhs); !overlap {
			return False
		}
	case contract.OpNeq:
		return negate(decideComparison(contract.OpEq, lhs, rhs))
	case contract.OpLt:
		if lhs.max.Cmp(rhs.min) < 0 {
			return True
		} else if lhs.min.Cmp(rhs.max) >= 0 {
			return False
		}
	case contract.OpLeq:
		if lhs.max.Cmp(rhs.min) <= 0 {
			return True
		} else if lhs.min.Cmp(rhs.max) > 0 {
			return False
		}
	case contract.OpGt:
		return decideComparison(contract.OpLt, rhs, lhs)
	case contract.OpGeq:
		return decideComparison(contract.OpLeq, rhs, lhs)
	}
	//
	return Unknown
}

func decideForall(e *contract.Forall, env map[string]Interval) Decision {
	lo, ok := intervalOf(e.Lo, env)
	if !ok {
		return Unknown
	}
	//
	hi, ok := intervalOf(e.Hi, env)
	if !ok {
		return Unknown
	}
	// A definitely empty range holds vacuously
	if lo.min.Cmp(hi.max) > 0 {
		return True
	}
	// Bound the variable over the whole candidate range
	inner := make(map[string]Interval, len(env)+1)
	for k, v := range env {
		inner[k] = v
	}
	//
	inner[e.Name] = Interval{lo.min, hi.max}
	//
	body := decide(e.Body, inner)
	//
	switch {
	case body == True:
		return True
	case body == False && lo.max.Cmp(hi.min) <= 0:
		// Range is definitely non-empty, so some element violates
		return False
	default:
		return Unknown
	}
}

// intervalOf bounds a numeric expression over the environment.  The second
// result is false when no sound finite bound can be produced, e.g. a divisor
// which may be zero.
func intervalOf(e contract.Expr, env map[string]Interval) (Interval, bool) {
	switch v := e.(type) {
	case *contract.Number:
		return PointInterval(v.Value), true
	case *contract.Variable:
		if iv, ok := env[v.Name]; ok {
			return iv, true
		}
		// Fall back on the declared type
		return TypeInterval(v.Type())
	case *contract.Negate:
		iv, ok := intervalOf(v.Arg, env)
		if !ok {
			return Interval{}, false
		}
		//
		return iv.Negate().Clamp(v.Type()), true
	case *contract.Binary:
		return intervalOfBinary(v, env)
	case *contract.Call:
		return intervalOfCall(v, env)
	case *contract.Convert:
		iv, ok := intervalOf(v.Arg, env)
		if !ok {
			return Interval{}, false
		}
		// A conversion is the identity when the value fits, otherwise
		// anything in the target range.
		if full, ok := TypeInterval(v.To); !ok {
			return Interval{}, false
		} else if !iv.Within(full) {
			return full, true
		}
		//
		return iv, true
	case *contract.IfThenElse:
		return intervalOfIte(v, env)
	}
	//
	return Interval{}, false
}

func intervalOfBinary(e *contract.Binary, env map[string]Interval) (Interval, bool) {
	lhs, ok := intervalOf(e.Lhs, env)
	if !ok {
		return Interval{}, false
	}
	//
	rhs, ok := intervalOf(e.Rhs, env)
	if !ok {
		return Interval{}, false
	}
	//
	var iv Interval
	//
	switch e.Op {
	case contract.OpAdd:
		iv = lhs.Add(rhs)
	case contract.OpSub:
		iv = lhs.Sub(rhs)
	case contract.OpMul:
		iv = lhs.Mul(rhs)
	case contract.OpDiv:
		// Cannot bound when the divisor may be zero
		if rhs.Contains(big.NewInt(0)) {
			return Interval{}, false
		}
		//
		iv = lhs.Quo(rhs)
	case contract.OpRem:
		if rhs.Contains(big.NewInt(0)) {
			return Interval{}, false
		}
		//
		iv = lhs.Rem(rhs)
	case contract.OpShl:
		if rhs.min.Sign() < 0 {
			return Interval{}, false
		}
		//
		iv = lhs.Shl(rhs, e.Type().Width)
	case contract.OpShr:
		if rhs.min.Sign() < 0 {
			return Interval{}, false
		}
		//
		iv = lhs.Shr(rhs, e.Type().Width)
	default:
		return Interval{}, false
	}
	//
	return iv.Clamp(e.Type()), true
}

func intervalOfCall(e *contract.Call, env map[string]Interval) (Interval, bool) {
	args := make([]Interval, len(e.Args))
	//
	for i, a := range e.Args {
		iv, ok := intervalOf(a, env)
		if !ok {
			return Interval{}, false
		}
		//
		args[i] = iv
	}
	//
	switch e.Name {
	case "min":
		return args[0].Min(args[1]), true
	case "max":
		return args[0].Max(args[1]), true
	case "abs":
		return args[0].Abs().Clamp(e.Type()), true
	}
	//
	return Interval{}, false
}

func intervalOfIte(e *contract.IfThenElse, env map[string]Interval) (Interval, bool) {
	then, ok := intervalOf(e.Then, env)
	els, ok2 := intervalOf(e.Else, env)
	//
	switch decide(e.Cond, env) {
	case True:
		return then, ok
	case False:
		return els, ok2
	default:
		if !ok || !ok2 {
			return Interval{}, false
		}
		//
		return then.Union(els), true
	}
}

// findSatisfying hunts for a concrete assignment within the environment's
// boxes which satisfies the given condition.
func findSatisfying(fn *contract.SpecFunction, env map[string]Interval, cond contract.Expr) contract.Assignment {
	for _, sample := range samples(fn, env) {
		if ok, err := contract.EvalBool(cond, sample); err == nil && ok {
			return sample
		}
	}
	//
	return nil
}

// findViolation hunts for a concrete witness falsifying a postcondition
// whilst satisfying every (evaluable) precondition.  The witness includes the
// function's result, computed from the symbolic body when available.
func findViolation(fn *contract.SpecFunction, env map[string]Interval, clause contract.Clause) contract.Assignment {
	for _, sample := range samples(fn, env) {
		if !satisfiesPreconditions(fn, sample) {
			continue
		}
		//
		if fn.Body != nil {
			result, err := contract.EvalNum(fn.Body, sample)
			if err != nil {
				continue
			}
			//
			sample["result"] = result
			//
			if ok, err := contract.EvalBool(clause.Expr, sample); err == nil && !ok {
				return sample
			}
			//
			continue
		}
		// No body: the result ranges freely over its type, so try its
		// extremes.
		for _, result := range cornerValues(env["result"]) {
			sample["result"] = result
			//
			if ok, err := contract.EvalBool(clause.Expr, sample); err == nil && !ok {
				return sample
			}
		}
	}
	//
	return nil
}

func satisfiesPreconditions(fn *contract.SpecFunction, sample contract.Assignment) bool {
	for _, pre := range fn.Preconditions() {
		if pre.Expr == nil {
			continue
		}
		//
		if ok, err := contract.EvalBool(pre.Expr, sample); err != nil || !ok {
			return false
		}
	}
	//
	return true
}

// samples enumerates candidate assignments over the corners of each
// parameter's interval, capped at maxSamples.
func samples(fn *contract.SpecFunction, env map[string]Interval) []contract.Assignment {
	assignments := []contract.Assignment{{}}
	//
	for _, param := range fn.Params {
		iv, ok := env[param.Name]
		if !ok {
			return nil
		}
		//
		var extended []contract.Assignment
		//
		for _, value := range cornerValues(iv) {
			for _, a := range assignments {
				next := contract.Assignment{}
				for k, v := range a {
					next[k] = v
				}
				//
				next[param.Name] = value
				extended = append(extended, next)
				//
				if len(extended) >= maxSamples {
					break
				}
			}
		}
		//
		assignments = extended
	}
	//
	return assignments
}

// sampleAny picks an arbitrary in-box assignment, for reporting a witness to
// a contradictory precondition.
func sampleAny(fn *contract.SpecFunction, env map[string]Interval) contract.Assignment {
	assignment := contract.Assignment{}
	//
	for _, param := range fn.Params {
		iv, ok := env[param.Name]
		if !ok {
			return nil
		}
		//
		assignment[param.Name] = new(big.Int).Set(iv.min)
	}
	//
	return assignment
}

// cornerValues picks distinctive values from an interval: the bounds, zero
// and one when contained, and the midpoint.
func cornerValues(iv Interval) []*big.Int {
	var (
		candidates []*big.Int
		seen       = map[string]bool{}
	)
	//
	mid := new(big.Int).Add(iv.min, iv.max)
	mid.Rsh(mid, 1)
	//
	for _, v := range []*big.Int{iv.min, iv.max, big.NewInt(0), big.NewInt(1), mid} {
		if !iv.Contains(v) || seen[v.String()] {
			continue
		}
		//
		seen[v.String()] = true
		candidates = append(candidates, new(big.Int).Set(v))
	}
	//
	return candidates
}
