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
	"fmt"
	"math/big"
	"strings"

	"github.com/blvm/go-speclock/pkg/contract"
)

// Query is a self-contained SMT-LIB 2 script whose satisfiability decides one
// contract clause, together with the variable declarations needed to read a
// model back.
type Query struct {
	// Complete SMT-LIB script, ending in (check-sat) and (get-model).
	Script string
	// Declared constants by name, for model extraction.
	Vars map[string]contract.Type
}

// EncodePostcondition builds the refutation query for a postcondition: the
// preconditions, the result definition (when a symbolic body is available)
// and the negated clause.  A sat answer yields a counterexample; unsat means
// the clause holds for every input the solver considers.
func EncodePostcondition(fn *contract.SpecFunction, clause contract.Clause) (Query, error) {
	enc := newEncoder(fn)
	//
	for _, pre := range fn.Preconditions() {
		if pre.Expr == nil {
			continue
		}
		//
		if err := enc.assert(pre.Expr, false); err != nil {
			return Query{}, err
		}
	}
	//
	if fn.Body != nil {
		body, err := enc.numeric(fn.Body, fn.Result)
		if err != nil {
			return Query{}, err
		}
		//
		enc.assertions = append(enc.assertions, fmt.Sprintf("(= result %s)", body))
	}
	//
	if err := enc.assert(clause.Expr, true); err != nil {
		return Query{}, err
	}
	//
	return enc.build(), nil
}

// EncodePrecondition builds the satisfiability query for a precondition
// within the declared type domain.  A sat answer means the assumption admits
// at least one input; unsat means the contract is contradictory.
func EncodePrecondition(fn *contract.SpecFunction, clause contract.Clause) (Query, error) {
	enc := newEncoder(fn)
	//
	if err := enc.assert(clause.Expr, false); err != nil {
		return Query{}, err
	}
	//
	return enc.build(), nil
}

// encoder translates bound expression trees into SMT-LIB bit-vector terms.
// Fixed-width types map onto (_ BitVec w) with the signed/unsigned operator
// variants, making overflow and truncation exact by construction.  Faulting
// operations (division by zero, negative shift counts) emit side guards, so
// a model never rests on an input the implementation would fault on.
type encoder struct {
	fn         *contract.SpecFunction
	vars       map[string]contract.Type
	order      []string
	assertions []string
	guards     []string
}

func newEncoder(fn *contract.SpecFunction) *encoder {
	enc := &encoder{fn: fn, vars: map[string]contract.Type{}}
	//
	for _, param := range fn.Params {
		enc.declare(param.Name, param.Type)
	}
	//
	enc.declare("result", fn.Result)
	//
	return enc
}

func (p *encoder) declare(name string, typ contract.Type) {
	if _, ok := p.vars[name]; !ok {
		p.vars[name] = typ
		p.order = append(p.order, name)
	}
}

func (p *encoder) assert(e contract.Expr, negated bool) error {
	term, err := p.boolean(e)
	if err != nil {
		return err
	}
	//
	if negated {
		term = fmt.Sprintf("(not %s)", term)
	}
	//
	p.assertions = append(p.assertions, term)
	//
	return nil
}

func (p *encoder) build() Query {
	var script strings.Builder
	//
	script.WriteString("(set-option :produce-models true)\n")
	//
	for _, name := range p.order {
		typ := p.vars[name]
		script.WriteString(fmt.Sprintf("(declare-const %s (_ BitVec %d))\n", name, typ.Width))
	}
	//
	for _, guard := range p.guards {
		script.WriteString(fmt.Sprintf("(assert %s)\n", guard))
	}
	//
	for _, assertion := range p.assertions {
		script.WriteString(fmt.Sprintf("(assert %s)\n", assertion))
	}
	//
	script.WriteString("(check-sat)\n(get-model)\n")
	//
	return Query{script.String(), p.vars}
}

// boolean encodes a condition.
func (p *encoder) boolean(e contract.Expr) (string, error) {
	switch v := e.(type) {
	case *contract.BoolLit:
		if v.Value {
			return "true", nil
		}
		//
		return "false", nil
	case *contract.Not:
		arg, err := p.boolean(v.Arg)
		if err != nil {
			return "", err
		}
		//
		return fmt.Sprintf("(not %s)", arg), nil
	case *contract.Binary:
		return p.booleanBinary(v)
	case *contract.Forall:
		return p.forall(v)
	}
	//
	return "", fmt.Errorf("cannot encode condition: %s", e.String())
}

func (p *encoder) booleanBinary(e *contract.Binary) (string, error) {
	if e.Op.IsConnective() {
		lhs, err := p.boolean(e.Lhs)
		if err != nil {
			return "", err
		}
		//
		rhs, err := p.boolean(e.Rhs)
		if err != nil {
			return "", err
		}
		//
		op := "and"
		if e.Op == contract.OpOr {
			op = "or"
		}
		//
		return fmt.Sprintf("(%s %s %s)", op, lhs, rhs), nil
	}
	// Comparison over a common promoted type
	typ, err := contract.Promote(e.Lhs.Type(), e.Rhs.Type())
	if err != nil {
		return "", err
	}
	// An unbounded comparison is all-literal, so fold it
	if typ.Unbounded() {
		value, verr := contract.EvalBool(e, nil)
		if verr != nil {
			return "", verr
		} else if value {
			return "true", nil
		}
		//
		return "false", nil
	}
	//
	lhs, err := p.numeric(e.Lhs, typ)
	if err != nil {
		return "", err
	}
	//
	rhs, err := p.numeric(e.Rhs, typ)
	if err != nil {
		return "", err
	}
	//
	var op string
	//
	switch e.Op {
	case contract.OpEq:
		return fmt.Sprintf("(= %s %s)", lhs, rhs), nil
	case contract.OpNeq:
		return fmt.Sprintf("(distinct %s %s)", lhs, rhs), nil
	case contract.OpLt:
		op = pick(typ.Signed, "bvslt", "bvult")
	case contract.OpLeq:
		op = pick(typ.Signed, "bvsle", "bvule")
	case contract.OpGt:
		op = pick(typ.Signed, "bvsgt", "bvugt")
	case contract.OpGeq:
		op = pick(typ.Signed, "bvsge", "bvuge")
	default:
		return "", fmt.Errorf("cannot encode comparison: %s", e.Op.String())
	}
	//
	return fmt.Sprintf("(%s %s %s)", op, lhs, rhs), nil
}

func (p *encoder) forall(e *contract.Forall) (string, error) {
	typ := e.Lo.Type()
	//
	lo, err := p.numeric(e.Lo, typ)
	if err != nil {
		return "", err
	}
	//
	hi, err := p.numeric(e.Hi, typ)
	if err != nil {
		return "", err
	}
	//
	body, err := p.boolean(e.Body)
	if err != nil {
		return "", err
	}
	//
	ge := pick(typ.Signed, "bvsge", "bvuge")
	le := pick(typ.Signed, "bvsle", "bvule")
	//
	return fmt.Sprintf("(forall ((%s (_ BitVec %d))) (=> (and (%s %s %s) (%s %s %s)) %s))",
		e.Name, typ.Width, ge, e.Name, lo, le, e.Name, hi, body), nil
}

// numeric encodes a numeric expression at the given target width, extending
// narrower sub-terms as required.  All-literal (unbounded) subtrees fold to
// a constant of the target type.
func (p *encoder) numeric(e contract.Expr, want contract.Type) (string, error) {
	if e.Type().Unbounded() {
		value, err := contract.EvalNum(e, nil)
		if err != nil {
			return "", fmt.Errorf("cannot fold %s: %w", e.String(), err)
		}
		//
		return bvLiteral(value, want), nil
	}
	//
	term, typ, err := p.term(e)
	if err != nil {
		return "", err
	}
	//
	return extend(term, typ, want)
}

// term encodes a numeric expression in its own type.
func (p *encoder) term(e contract.Expr) (string, contract.Type, error) {
	switch v := e.(type) {
	case *contract.Number:
		typ := v.Type()
		if typ.Unbounded() {
			return "", typ, fmt.Errorf("cannot encode an unbounded literal: %s", v.String())
		}
		//
		return bvLiteral(v.Value, typ), typ, nil
	case *contract.Variable:
		// old(x) denotes the same symbol as x: no mutation exists in
		// the supported fragment.
		return v.Name, v.Type(), nil
	case *contract.Negate:
		arg, err := p.numeric(v.Arg, v.Type())
		if err != nil {
			return "", contract.Type{}, err
		}
		//
		return fmt.Sprintf("(bvneg %s)", arg), v.Type(), nil
	case *contract.Binary:
		return p.numericBinary(v)
	case *contract.Call:
		return p.call(v)
	case *contract.Convert:
		return p.convert(v)
	case *contract.IfThenElse:
		cond, err := p.boolean(v.Cond)
		if err != nil {
			return "", contract.Type{}, err
		}
		//
		then, err := p.numeric(v.Then, v.Type())
		if err != nil {
			return "", contract.Type{}, err
		}
		//
		els, err := p.numeric(v.Else, v.Type())
		if err != nil {
			return "", contract.Type{}, err
		}
		//
		return fmt.Sprintf("(ite %s %s %s)", cond, then, els), v.Type(), nil
	}
	//
	return "", contract.Type{}, fmt.Errorf("cannot encode: %s", e.String())
}

func (p *encoder) numericBinary(e *contract.Binary) (string, contract.Type, error) {
	typ := e.Type()
	//
	if e.Op == contract.OpShl || e.Op == contract.OpShr {
		return p.shift(e)
	}
	//
	lhs, err := p.numeric(e.Lhs, typ)
	if err != nil {
		return "", contract.Type{}, err
	}
	//
	rhs, err := p.numeric(e.Rhs, typ)
	if err != nil {
		return "", contract.Type{}, err
	}
	//
	var op string
	//
	switch e.Op {
	case contract.OpAdd:
		op = "bvadd"
	case contract.OpSub:
		op = "bvsub"
	case contract.OpMul:
		op = "bvmul"
	case contract.OpDiv:
		// The implementation faults on a zero divisor, so a model must
		// never rely on one.
		p.guard(fmt.Sprintf("(distinct %s %s)", rhs, bvLiteral(big.NewInt(0), typ)))
		//
		op = pick(typ.Signed, "bvsdiv", "bvudiv")
	case contract.OpRem:
		p.guard(fmt.Sprintf("(distinct %s %s)", rhs, bvLiteral(big.NewInt(0), typ)))
		//
		op = pick(typ.Signed, "bvsrem", "bvurem")
	default:
		return "", contract.Type{}, fmt.Errorf("cannot encode operator: %s", e.Op.String())
	}
	//
	return fmt.Sprintf("(%s %s %s)", op, lhs, rhs), typ, nil
}

// shift encodes a shift whose amount may be typed (and sized) independently
// of the shifted value.  Both sides are brought to the wider width, shifted,
// and the result truncated back; bit-vector shifts saturate at the width,
// matching the host semantics for large counts.
func (p *encoder) shift(e *contract.Binary) (string, contract.Type, error) {
	var (
		typ   = e.Type()
		ktyp  = e.Rhs.Type()
		rhs   string
		width = typ.Width
	)
	//
	if !ktyp.Unbounded() && ktyp.Width > width {
		width = ktyp.Width
	}
	//
	wide := contract.Type{Signed: typ.Signed, Width: width}
	//
	lhs, err := p.numeric(e.Lhs, wide)
	if err != nil {
		return "", contract.Type{}, err
	}
	//
	if ktyp.Unbounded() {
		// A literal amount clamps at the width, where shifting has
		// already saturated; wrapping it would be wrong.
		k, kerr := contract.EvalNum(e.Rhs, nil)
		if kerr != nil {
			return "", contract.Type{}, kerr
		} else if k.Sign() < 0 {
			return "", contract.Type{}, fmt.Errorf("negative shift amount: %s", e.Rhs.String())
		}
		//
		if limit := big.NewInt(int64(width)); k.Cmp(limit) > 0 {
			k = limit
		}
		//
		rhs = bvLiteral(k, contract.Type{Width: width})
	} else {
		if rhs, err = p.numeric(e.Rhs, contract.Type{Signed: ktyp.Signed, Width: width}); err != nil {
			return "", contract.Type{}, err
		}
		// The implementation faults on negative shift counts
		if ktyp.Signed {
			p.guard(fmt.Sprintf("(bvsge %s %s)", rhs, bvLiteral(big.NewInt(0), contract.Type{Signed: true, Width: width})))
		}
	}
	//
	var term string
	//
	if e.Op == contract.OpShl {
		term = fmt.Sprintf("(bvshl %s %s)", lhs, rhs)
	} else {
		op := pick(typ.Signed, "bvashr", "bvlshr")
		term = fmt.Sprintf("(%s %s %s)", op, lhs, rhs)
	}
	// Truncate back to the value's width
	if width > typ.Width {
		term = fmt.Sprintf("((_ extract %d 0) %s)", typ.Width-1, term)
	}
	//
	return term, typ, nil
}

func (p *encoder) call(e *contract.Call) (string, contract.Type, error) {
	typ := e.Type()
	//
	args := make([]string, len(e.Args))
	for i, a := range e.Args {
		arg, err := p.numeric(a, typ)
		if err != nil {
			return "", contract.Type{}, err
		}
		//
		args[i] = arg
	}
	//
	lt := pick(typ.Signed, "bvslt", "bvult")
	//
	switch e.Name {
	case "min":
		return fmt.Sprintf("(ite (%s %s %s) %s %s)", lt, args[0], args[1], args[0], args[1]), typ, nil
	case "max":
		return fmt.Sprintf("(ite (%s %s %s) %s %s)", lt, args[0], args[1], args[1], args[0]), typ, nil
	case "abs":
		zero := bvLiteral(big.NewInt(0), typ)
		return fmt.Sprintf("(ite (%s %s %s) (bvneg %s) %s)", lt, args[0], zero, args[0], args[0]), typ, nil
	}
	//
	return "", contract.Type{}, fmt.Errorf("cannot encode call: %s", e.Name)
}

// convert encodes a width conversion: truncation via extract, widening via
// zero or sign extension according to the source signedness.
func (p *encoder) convert(e *contract.Convert) (string, contract.Type, error) {
	from := e.Arg.Type()
	//
	term, _, err := p.term(e.Arg)
	if err != nil {
		return "", contract.Type{}, err
	}
	//
	switch {
	case from.Width == e.To.Width:
		return term, e.To, nil
	case from.Width > e.To.Width:
		return fmt.Sprintf("((_ extract %d 0) %s)", e.To.Width-1, term), e.To, nil
	default:
		ext := pick(from.Signed, "sign_extend", "zero_extend")
		return fmt.Sprintf("((_ %s %d) %s)", ext, e.To.Width-from.Width, term), e.To, nil
	}
}

func (p *encoder) guard(term string) {
	p.guards = append(p.guards, term)
}

// extend widens a term from its own type to a target width.
func extend(term string, from contract.Type, want contract.Type) (string, error) {
	switch {
	case from.Width == want.Width:
		return term, nil
	case from.Width > want.Width:
		return "", fmt.Errorf("cannot narrow %s to %s", from.String(), want.String())
	default:
		ext := pick(from.Signed, "sign_extend", "zero_extend")
		return fmt.Sprintf("((_ %s %d) %s)", ext, want.Width-from.Width, term), nil
	}
}

// bvLiteral renders a value as a bit-vector constant of the given type,
// wrapping negatives into two's complement.
func bvLiteral(value *big.Int, typ contract.Type) string {
	wrapped := typ.Wrap(new(big.Int).Set(value))
	//
	if wrapped.Sign() < 0 {
		modulus := new(big.Int).Lsh(big.NewInt(1), typ.Width)
		wrapped.Add(wrapped, modulus)
	}
	//
	return fmt.Sprintf("(_ bv%s %d)", wrapped.String(), typ.Width)
}

func pick(signed bool, s string, u string) string {
	if signed {
		return s
	}
	//
	return u
}
