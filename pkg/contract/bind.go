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
)

// Bind resolves every identifier of a parsed clause against the owning
// function (and a table of named constants), assigning a type to every node.
// Named constants are substituted by their literal values.  Literals adopt
// the type of the typed operand they are combined with, and must be
// representable in it; a literal with no typed context is treated as an
// unbounded integer.  References to result and old(p) are only permitted in
// postconditions.
func Bind(e Expr, fn *SpecFunction, kind ClauseKind, constants map[string]*big.Int) (Expr, error) {
	binder := &binder{fn, kind, constants, nil}
	//
	bound, typ, literal, err := binder.bind(e)
	if err != nil {
		return nil, err
	}
	// A literal-only clause never references the function at all.
	if literal || !typ.Boolean {
		return nil, &TypeMismatchError{Msg: "condition expected"}
	}
	//
	return bound, nil
}

// BindBody resolves and types a symbolic function body against the owning
// function's parameters.  Bodies never reference result or old(), and their
// final type must match the declared result type (a literal body adopts it).
func BindBody(e Expr, fn *SpecFunction, constants map[string]*big.Int) (Expr, error) {
	binder := &binder{fn, Precondition, constants, nil}
	//
	bound, typ, literal, err := binder.bind(e)
	if err != nil {
		return nil, err
	}
	//
	if literal {
		return adopt(bound, fn.Result)
	} else if typ != fn.Result {
		return nil, &TypeMismatchError{
			Msg: fmt.Sprintf("body has type %s, result is %s", typ.String(), fn.Result.String()),
		}
	}
	//
	return bound, nil
}

// BindClauses parses and binds every clause of a function in place,
// recording per-clause failures without aborting the remainder.  It reports
// how many clauses failed.
func BindClauses(fn *SpecFunction, constants map[string]*big.Int) uint {
	var failed uint
	//
	for i := range fn.Clauses {
		clause := &fn.Clauses[i]
		// Clauses already failed by discovery stay failed
		if clause.Err != nil {
			failed++
			//
			continue
		}
		//
		parsed, serr := Parse(clause.Text)
		if serr != nil {
			clause.Err = serr
			failed++
			//
			continue
		}
		//
		expr, err := Bind(parsed, fn, clause.Kind, constants)
		if err != nil {
			clause.Err = err
			failed++
			//
			continue
		}
		//
		clause.Expr = expr
	}
	//
	return failed
}

type binder struct {
	fn        *SpecFunction
	kind      ClauseKind
	constants map[string]*big.Int
	// Bound variables of enclosing quantifiers, innermost last.
	scope []Param
}

// bind resolves and types a node bottom up.  The literal flag indicates the
// subtree consists entirely of literals, in which case its type is not yet
// fixed and the caller may impose one via adopt.
func (p *binder) bind(e Expr) (Expr, Type, bool, error) {
	switch v := e.(type) {
	case *Number:
		return &Number{v.Value, IntType}, IntType, true, nil
	case *BoolLit:
		return v, BoolType, false, nil
	case *Variable:
		return p.bindVariable(v)
	case *Not:
		arg, typ, _, err := p.bind(v.Arg)
		//
		if err != nil {
			return nil, Type{}, false, err
		} else if !typ.Boolean {
			return nil, Type{}, false, &TypeMismatchError{Msg: "condition expected"}
		}
		//
		return &Not{arg}, BoolType, false, nil
	case *Negate:
		arg, typ, literal, err := p.bind(v.Arg)
		//
		if err != nil {
			return nil, Type{}, false, err
		} else if typ.Boolean {
			return nil, Type{}, false, &TypeMismatchError{Msg: "numeric operand expected"}
		}
		//
		return &Negate{arg, typ}, typ, literal, nil
	case *Binary:
		return p.bindBinary(v)
	case *Call:
		return p.bindCall(v)
	case *Forall:
		return p.bindForall(v)
	case *Convert:
		arg, typ, literal, err := p.bind(v.Arg)
		//
		if err != nil {
			return nil, Type{}, false, err
		} else if typ.Boolean || v.To.Boolean || v.To.Unbounded() {
			return nil, Type{}, false, &TypeMismatchError{Msg: "numeric conversion expected"}
		}
		// A literal conversion operand takes the target type directly
		if literal {
			if arg, err = adopt(arg, v.To); err != nil {
				return nil, Type{}, false, err
			}
			//
			return arg, v.To, false, nil
		}
		//
		return &Convert{v.To, arg}, v.To, false, nil
	case *IfThenElse:
		return p.bindIte(v)
	}
	//
	return nil, Type{}, false, &UnsupportedExpressionError{Construct: e.String()}
}

func (p *binder) bindVariable(v *Variable) (Expr, Type, bool, error) {
	if v.Kind == VarOld {
		if p.kind != Postcondition {
			return nil, Type{}, false, &UnsupportedExpressionError{Construct: "old() in precondition"}
		}
		//
		param, ok := p.fn.Param(v.Name)
		if !ok {
			return nil, Type{}, false, &UnsupportedExpressionError{Construct: fmt.Sprintf("old(%s)", v.Name)}
		}
		//
		return &Variable{v.Name, VarOld, param.Type}, param.Type, false, nil
	}
	// Innermost quantifier scopes shadow everything else
	for i := len(p.scope) - 1; i >= 0; i-- {
		if p.scope[i].Name == v.Name {
			typ := p.scope[i].Type
			return &Variable{v.Name, VarBound, typ}, typ, false, nil
		}
	}
	//
	if v.Name == "result" {
		if p.kind != Postcondition {
			return nil, Type{}, false, &UnsupportedExpressionError{Construct: "result in precondition"}
		}
		//
		return &Variable{"result", VarResult, p.fn.Result}, p.fn.Result, false, nil
	}
	//
	if param, ok := p.fn.Param(v.Name); ok {
		return &Variable{v.Name, VarParam, param.Type}, param.Type, false, nil
	}
	//
	if val, ok := p.constants[v.Name]; ok {
		// Constants behave exactly like literals of their value.
		return &Number{new(big.Int).Set(val), IntType}, IntType, true, nil
	}
	//
	return nil, Type{}, false, &UnsupportedExpressionError{Construct: v.Name}
}

func (p *binder) bindBinary(v *Binary) (Expr, Type, bool, error) {
	lhs, lt, llit, err := p.bind(v.Lhs)
	if err != nil {
		return nil, Type{}, false, err
	}
	//
	rhs, rt, rlit, err := p.bind(v.Rhs)
	if err != nil {
		return nil, Type{}, false, err
	}
	//
	switch {
	case v.Op.IsConnective():
		if !lt.Boolean || !rt.Boolean {
			return nil, Type{}, false, &TypeMismatchError{Msg: fmt.Sprintf("%s requires conditions", v.Op.String())}
		}
		//
		return &Binary{v.Op, lhs, rhs, BoolType}, BoolType, false, nil
	case v.Op == OpShl || v.Op == OpShr:
		// The shift amount is typed independently of the shifted value,
		// so only the shifted side determines the type (and whether the
		// whole node can still adopt a context type).
		if lt.Boolean || rt.Boolean {
			return nil, Type{}, false, &TypeMismatchError{Msg: "numeric operand expected"}
		}
		//
		return &Binary{v.Op, lhs, rhs, lt}, lt, llit, nil
	default:
		lhs, rhs, typ, err := p.unify(lhs, lt, llit, rhs, rt, rlit)
		if err != nil {
			return nil, Type{}, false, err
		}
		//
		if v.Op.IsComparison() {
			return &Binary{v.Op, lhs, rhs, BoolType}, BoolType, false, nil
		}
		//
		return &Binary{v.Op, lhs, rhs, typ}, typ, llit && rlit, nil
	}
}

func (p *binder) bindCall(v *Call) (Expr, Type, bool, error) {
	var arity int
	//
	switch v.Name {
	case "min", "max":
		arity = 2
	case "abs":
		arity = 1
	default:
		return nil, Type{}, false, &UnsupportedExpressionError{Construct: fmt.Sprintf("%s(...)", v.Name)}
	}
	//
	if len(v.Args) != arity {
		return nil, Type{}, false, &TypeMismatchError{
			Msg: fmt.Sprintf("%s expects %d argument(s), got %d", v.Name, arity, len(v.Args)),
		}
	}
	//
	if arity == 1 {
		arg, typ, literal, err := p.bind(v.Args[0])
		//
		if err != nil {
			return nil, Type{}, false, err
		} else if typ.Boolean {
			return nil, Type{}, false, &TypeMismatchError{Msg: "numeric operand expected"}
		}
		//
		return &Call{v.Name, []Expr{arg}, typ}, typ, literal, nil
	}
	//
	lhs, lt, llit, err := p.bind(v.Args[0])
	if err != nil {
		return nil, Type{}, false, err
	}
	//
	rhs, rt, rlit, err := p.bind(v.Args[1])
	if err != nil {
		return nil, Type{}, false, err
	}
	//
	lhs, rhs, typ, err := p.unify(lhs, lt, llit, rhs, rt, rlit)
	if err != nil {
		return nil, Type{}, false, err
	}
	//
	return &Call{v.Name, []Expr{lhs, rhs}, typ}, typ, llit && rlit, nil
}

func (p *binder) bindForall(v *Forall) (Expr, Type, bool, error) {
	lo, lt, llit, err := p.bind(v.Lo)
	if err != nil {
		return nil, Type{}, false, err
	}
	//
	hi, ht, hlit, err := p.bind(v.Hi)
	if err != nil {
		return nil, Type{}, false, err
	}
	//
	lo, hi, typ, err := p.unify(lo, lt, llit, hi, ht, hlit)
	if err != nil {
		return nil, Type{}, false, err
	}
	// A range with literal bounds types its variable as a 64-bit integer,
	// unsigned when the lower bound is non-negative, so the variable can
	// combine with typed parameters in the body.
	if llit && hlit {
		typ = Type{Width: 64}
		if loval, verr := EvalNum(lo, nil); verr == nil && loval.Sign() < 0 {
			typ.Signed = true
		}
		//
		if lo, err = adopt(lo, typ); err != nil {
			return nil, Type{}, false, err
		} else if hi, err = adopt(hi, typ); err != nil {
			return nil, Type{}, false, err
		}
	}
	//
	p.scope = append(p.scope, Param{v.Name, typ})
	body, bt, _, err := p.bind(v.Body)
	p.scope = p.scope[:len(p.scope)-1]
	//
	if err != nil {
		return nil, Type{}, false, err
	} else if !bt.Boolean {
		return nil, Type{}, false, &TypeMismatchError{Msg: "condition expected"}
	}
	//
	return &Forall{v.Name, lo, hi, body}, BoolType, false, nil
}

func (p *binder) bindIte(v *IfThenElse) (Expr, Type, bool, error) {
	cond, ct, _, err := p.bind(v.Cond)
	if err != nil {
		return nil, Type{}, false, err
	} else if !ct.Boolean {
		return nil, Type{}, false, &TypeMismatchError{Msg: "condition expected"}
	}
	//
	then, tt, tlit, err := p.bind(v.Then)
	if err != nil {
		return nil, Type{}, false, err
	}
	//
	els, et, elit, err := p.bind(v.Else)
	if err != nil {
		return nil, Type{}, false, err
	}
	//
	then, els, typ, err := p.unify(then, tt, tlit, els, et, elit)
	if err != nil {
		return nil, Type{}, false, err
	}
	//
	return &IfThenElse{cond, then, els, typ}, typ, tlit && elit, nil
}

// unify determines the common type of two numeric operands, imposing the
// typed side's type onto a literal side.
func (p *binder) unify(lhs Expr, lt Type, llit bool, rhs Expr, rt Type, rlit bool) (Expr, Expr, Type, error) {
	var err error
	//
	if lt.Boolean || rt.Boolean {
		return nil, nil, Type{}, &TypeMismatchError{Msg: "numeric operand expected"}
	}
	//
	switch {
	case llit == rlit:
		// Both literal (stay unbounded) or both typed (promote).
		typ, perr := Promote(lt, rt)
		if perr != nil {
			return nil, nil, Type{}, &TypeMismatchError{Msg: perr.Error()}
		}
		//
		return lhs, rhs, typ, nil
	case llit:
		if lhs, err = adopt(lhs, rt); err != nil {
			return nil, nil, Type{}, err
		}
		//
		return lhs, rhs, rt, nil
	default:
		if rhs, err = adopt(rhs, lt); err != nil {
			return nil, nil, Type{}, err
		}
		//
		return lhs, rhs, lt, nil
	}
}

// adopt walks an all-literal subtree assigning it the given context type,
// checking every literal value is representable in it.
func adopt(e Expr, typ Type) (Expr, error) {
	switch v := e.(type) {
	case *Number:
		if !typ.Representable(v.Value) {
			return nil, &TypeMismatchError{
				Msg: fmt.Sprintf("literal %s not representable in %s", v.Value.String(), typ.String()),
			}
		}
		//
		return &Number{v.Value, typ}, nil
	case *Negate:
		arg, err := adopt(v.Arg, typ)
		if err != nil {
			return nil, err
		}
		//
		return &Negate{arg, typ}, nil
	case *Binary:
		lhs, err := adopt(v.Lhs, typ)
		if err != nil {
			return nil, err
		}
		// Shift amounts keep their own typing.
		rhs := v.Rhs
		if v.Op != OpShl && v.Op != OpShr {
			if rhs, err = adopt(v.Rhs, typ); err != nil {
				return nil, err
			}
		}
		//
		if v.Op.IsComparison() || v.Op.IsConnective() {
			return nil, &TypeMismatchError{Msg: "numeric operand expected"}
		}
		//
		return &Binary{v.Op, lhs, rhs, typ}, nil
	case *Call:
		args := make([]Expr, len(v.Args))
		//
		for i, a := range v.Args {
			arg, err := adopt(a, typ)
			if err != nil {
				return nil, err
			}
			//
			args[i] = arg
		}
		//
		return &Call{v.Name, args, typ}, nil
	case *IfThenElse:
		then, err := adopt(v.Then, typ)
		if err != nil {
			return nil, err
		}
		//
		els, err := adopt(v.Else, typ)
		if err != nil {
			return nil, err
		}
		//
		return &IfThenElse{v.Cond, then, els, typ}, nil
	}
	//
	return nil, &UnsupportedExpressionError{Construct: e.String()}
}
