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
package contract

import (
	"fmt"
	"math/big"
	"strings"
)

// Expr is a node in the expression tree of a contract clause.  Trees built by
// the parser are untyped; Bind resolves identifiers against the owning
// function and decorates every node with its semantic type.  A tree which has
// been bound contains no free identifiers.
type Expr interface {
	// Type returns the semantic type of this node.  This is only
	// meaningful after binding.
	Type() Type
	// String returns the surface syntax of this node.
	String() string
}

// Op identifies a binary operator within an expression tree.
type Op uint8

const (
	// OpAdd represents integer addition.
	OpAdd Op = iota
	// OpSub represents integer subtraction.
	OpSub
	// OpMul represents integer multiplication.
	OpMul
	// OpDiv represents integer division (truncating towards zero).
	OpDiv
	// OpRem represents the integer remainder.
	OpRem
	// OpShl represents a left shift.
	OpShl
	// OpShr represents a right shift (arithmetic for signed operands).
	OpShr
	// OpEq represents equality.
	OpEq
	// OpNeq represents non-equality.
	OpNeq
	// OpLt represents a strict inequality X < Y.
	OpLt
	// OpLeq represents a non-strict inequality X <= Y.
	OpLeq
	// OpGt represents a strict inequality X > Y.
	OpGt
	// OpGeq represents a non-strict inequality X >= Y.
	OpGeq
	// OpAnd represents logical conjunction.
	OpAnd
	// OpOr represents logical disjunction.
	OpOr
)

func (o Op) String() string {
	switch o {
	case OpAdd:
		return "+"
	case OpSub:
		return "-"
	case OpMul:
		return "*"
	case OpDiv:
		return "/"
	case OpRem:
		return "%"
	case OpShl:
		return "<<"
	case OpShr:
		return ">>"
	case OpEq:
		return "=="
	case OpNeq:
		return "!="
	case OpLt:
		return "<"
	case OpLeq:
		return "<="
	case OpGt:
		return ">"
	case OpGeq:
		return ">="
	case OpAnd:
		return "&&"
	case OpOr:
		return "||"
	}
	//
	panic("unknown operator")
}

// IsComparison checks whether this operator compares two numeric operands.
func (o Op) IsComparison() bool {
	return o >= OpEq && o <= OpGeq
}

// IsConnective checks whether this operator is a logical connective.
func (o Op) IsConnective() bool {
	return o == OpAnd || o == OpOr
}

// VarKind distinguishes the different identifiers a clause may reference.
type VarKind uint8

const (
	// VarParam references a function parameter.
	VarParam VarKind = iota
	// VarResult references the function's return value (postconditions
	// only).
	VarResult
	// VarOld references the pre-state value of a parameter
	// (postconditions only).
	VarOld
	// VarBound references the bound variable of an enclosing quantifier.
	VarBound
)

// Number is an integer literal.  Literals are untyped until binding, at
// which point they adopt the type of their context (or the unbounded type
// when there is none).
type Number struct {
	Value *big.Int
	typ   Type
}

// Num constructs an integer literal from an int64, primarily for tests.
func Num(val int64) *Number {
	return &Number{Value: big.NewInt(val)}
}

// Type implementation for the Expr interface.
func (p *Number) Type() Type { return p.typ }

func (p *Number) String() string { return p.Value.String() }

// BoolLit is a boolean literal (true or false).
type BoolLit struct {
	Value bool
}

// Type implementation for the Expr interface.
func (p *BoolLit) Type() Type { return BoolType }

func (p *BoolLit) String() string {
	if p.Value {
		return "true"
	}
	//
	return "false"
}

// Variable references a parameter, the result, a pre-state capture, a bound
// quantifier variable or a named constant.
type Variable struct {
	Name string
	Kind VarKind
	typ  Type
}

// Type implementation for the Expr interface.
func (p *Variable) Type() Type { return p.typ }

func (p *Variable) String() string {
	if p.Kind == VarOld {
		return fmt.Sprintf("old(%s)", p.Name)
	}
	//
	return p.Name
}

// Binary applies a binary operator to two sub-expressions.
type Binary struct {
	Op  Op
	Lhs Expr
	Rhs Expr
	typ Type
}

// Type implementation for the Expr interface.
func (p *Binary) Type() Type { return p.typ }

func (p *Binary) String() string {
	return fmt.Sprintf("(%s %s %s)", p.Lhs.String(), p.Op.String(), p.Rhs.String())
}

// Not is logical negation of a condition.
type Not struct {
	Arg Expr
}

// Type implementation for the Expr interface.
func (p *Not) Type() Type { return BoolType }

func (p *Not) String() string { return fmt.Sprintf("!%s", p.Arg.String()) }

// Negate is arithmetic negation of a numeric sub-expression.
type Negate struct {
	Arg Expr
	typ Type
}

// Type implementation for the Expr interface.
func (p *Negate) Type() Type { return p.typ }

func (p *Negate) String() string { return fmt.Sprintf("-%s", p.Arg.String()) }

// Call applies one of the whitelisted functions (min, max, abs) to its
// arguments.
type Call struct {
	Name string
	Args []Expr
	typ  Type
}

// Type implementation for the Expr interface.
func (p *Call) Type() Type { return p.typ }

func (p *Call) String() string {
	args := make([]string, len(p.Args))
	for i, a := range p.Args {
		args[i] = a.String()
	}
	//
	return fmt.Sprintf("%s(%s)", p.Name, strings.Join(args, ", "))
}

// Convert reinterprets a numeric sub-expression in another numeric type,
// truncating or extending exactly as the corresponding Go conversion would.
// Conversions never arise from clause text; they are produced when a function
// body is translated into its symbolic form.
type Convert struct {
	To  Type
	Arg Expr
}

// Type implementation for the Expr interface.
func (p *Convert) Type() Type { return p.To }

func (p *Convert) String() string {
	return fmt.Sprintf("%s(%s)", p.To.String(), p.Arg.String())
}

// IfThenElse selects between two numeric sub-expressions based on a
// condition.  Like Convert, it only arises from symbolic function bodies
// (early returns and if/else chains fold into nested selections).
type IfThenElse struct {
	Cond Expr
	Then Expr
	Else Expr
	typ  Type
}

// Type implementation for the Expr interface.
func (p *IfThenElse) Type() Type { return p.typ }

func (p *IfThenElse) String() string {
	return fmt.Sprintf("if %s then %s else %s", p.Cond.String(), p.Then.String(), p.Else.String())
}

// Forall is a bounded universal quantifier: the body must hold for every
// value of the bound variable within the (inclusive) range.
type Forall struct {
	Name string
	Lo   Expr
	Hi   Expr
	Body Expr
}

// Type implementation for the Expr interface.
func (p *Forall) Type() Type { return BoolType }

func (p *Forall) String() string {
	return fmt.Sprintf("forall %s in %s..%s: %s", p.Name, p.Lo.String(), p.Hi.String(), p.Body.String())
}

// Walk visits every node of an expression tree in depth-first order.
func Walk(e Expr, visit func(Expr)) {
	visit(e)
	//
	switch v := e.(type) {
	case *Binary:
		Walk(v.Lhs, visit)
		Walk(v.Rhs, visit)
	case *Not:
		Walk(v.Arg, visit)
	case *Negate:
		Walk(v.Arg, visit)
	case *Call:
		for _, a := range v.Args {
			Walk(a, visit)
		}
	case *Convert:
		Walk(v.Arg, visit)
	case *IfThenElse:
		Walk(v.Cond, visit)
		Walk(v.Then, visit)
		Walk(v.Else, visit)
	case *Forall:
		Walk(v.Lo, visit)
		Walk(v.Hi, visit)
		Walk(v.Body, visit)
	}
}

// SubstituteResult replaces every reference to the function's return value
// with the given replacement expression, producing a new tree.  Nodes which
// contain no result reference are shared rather than copied.
func SubstituteResult(e Expr, replacement Expr) Expr {
	switch v := e.(type) {
	case *Variable:
		if v.Kind == VarResult {
			return replacement
		}
	case *Binary:
		lhs := SubstituteResult(v.Lhs, replacement)
		rhs := SubstituteResult(v.Rhs, replacement)
		//
		if lhs != v.Lhs || rhs != v.Rhs {
			return &Binary{v.Op, lhs, rhs, v.typ}
		}
	case *Not:
		if arg := SubstituteResult(v.Arg, replacement); arg != v.Arg {
			return &Not{arg}
		}
	case *Negate:
		if arg := SubstituteResult(v.Arg, replacement); arg != v.Arg {
			return &Negate{arg, v.typ}
		}
	case *Call:
		var changed bool
		//
		args := make([]Expr, len(v.Args))
		for i, a := range v.Args {
			args[i] = SubstituteResult(a, replacement)
			changed = changed || args[i] != a
		}
		//
		if changed {
			return &Call{v.Name, args, v.typ}
		}
	case *Convert:
		if arg := SubstituteResult(v.Arg, replacement); arg != v.Arg {
			return &Convert{v.To, arg}
		}
	case *IfThenElse:
		cond := SubstituteResult(v.Cond, replacement)
		then := SubstituteResult(v.Then, replacement)
		els := SubstituteResult(v.Else, replacement)
		//
		if cond != v.Cond || then != v.Then || els != v.Else {
			return &IfThenElse{cond, then, els, v.typ}
		}
	case *Forall:
		lo := SubstituteResult(v.Lo, replacement)
		hi := SubstituteResult(v.Hi, replacement)
		body := SubstituteResult(v.Body, replacement)
		//
		if lo != v.Lo || hi != v.Hi || body != v.Body {
			return &Forall{v.Name, lo, hi, body}
		}
	}
	//
	return e
}

// ReferencesResult checks whether an expression mentions the function's
// return value anywhere.
func ReferencesResult(e Expr) bool {
	var found bool
	//
	Walk(e, func(n Expr) {
		if v, ok := n.(*Variable); ok && v.Kind == VarResult {
			found = true
		}
	})
	//
	return found
}
