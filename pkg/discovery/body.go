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
package discovery

import (
	"go/ast"
	"go/token"
	"maps"
	"math/big"

	"github.com/blvm/go-speclock/pkg/contract"
	"github.com/sirupsen/logrus"
)

// symbolicBody translates a function body into a symbolic expression over the
// parameters, when the implementation falls within the translatable fragment:
// straight-line := bindings of pure expressions, if/else chains, early
// returns, and a final return of an integer expression.  Anything outside the
// fragment (loops, calls, assignments to fields, ...) yields nil, in which
// case the result is only bounded by its declared type.
func symbolicBody(block *ast.BlockStmt, fn *contract.SpecFunction,
	constants map[string]*big.Int) contract.Expr {
	if block == nil {
		return nil
	}
	//
	tr := &translator{map[string]contract.Expr{}}
	//
	raw, ok := tr.statements(block.List)
	if !ok {
		return nil
	}
	//
	bound, err := contract.BindBody(raw, fn, constants)
	if err != nil {
		logrus.WithField("function", fn.Name).WithError(err).Debug("body not translatable")
		//
		return nil
	}
	//
	return bound
}

// translator rewrites a restricted Go AST into an unbound expression tree.
// Local bindings are substituted at their use sites, so the resulting tree
// ranges over parameters only.
type translator struct {
	locals map[string]contract.Expr
}

// statements folds a statement list into a single expression.  An if whose
// body returns turns the remainder of the list into its else branch.
func (p *translator) statements(stmts []ast.Stmt) (contract.Expr, bool) {
	for i, stmt := range stmts {
		switch v := stmt.(type) {
		case *ast.ReturnStmt:
			if len(v.Results) != 1 {
				return nil, false
			}
			//
			return p.expression(v.Results[0])
		case *ast.AssignStmt:
			if !p.assignment(v) {
				return nil, false
			}
		case *ast.IfStmt:
			return p.conditional(v, stmts[i+1:])
		default:
			return nil, false
		}
	}
	// Fell off the end without returning
	return nil, false
}

func (p *translator) assignment(stmt *ast.AssignStmt) bool {
	if stmt.Tok != token.DEFINE && stmt.Tok != token.ASSIGN {
		return false
	} else if len(stmt.Lhs) != 1 || len(stmt.Rhs) != 1 {
		return false
	}
	//
	name, ok := stmt.Lhs[0].(*ast.Ident)
	if !ok {
		return false
	}
	//
	value, ok := p.expression(stmt.Rhs[0])
	if !ok {
		return false
	}
	//
	p.locals[name.Name] = value
	//
	return true
}

func (p *translator) conditional(stmt *ast.IfStmt, rest []ast.Stmt) (contract.Expr, bool) {
	if stmt.Init != nil {
		return nil, false
	}
	//
	cond, ok := p.expression(stmt.Cond)
	if !ok {
		return nil, false
	}
	//
	then, ok := p.branch(stmt.Body.List)
	if !ok {
		return nil, false
	}
	//
	var els contract.Expr
	//
	switch e := stmt.Else.(type) {
	case nil:
		els, ok = p.branch(rest)
	case *ast.BlockStmt:
		els, ok = p.branch(e.List)
	case *ast.IfStmt:
		els, ok = p.conditional(e, rest)
	default:
		return nil, false
	}
	//
	if !ok {
		return nil, false
	}
	//
	return &contract.IfThenElse{Cond: cond, Then: then, Else: els}, true
}

// branch folds one arm of a conditional in a scratch scope: bindings made
// inside an arm must not leak into the other arm or past the conditional.
func (p *translator) branch(stmts []ast.Stmt) (contract.Expr, bool) {
	saved := p.locals
	p.locals = maps.Clone(saved)
	//
	defer func() { p.locals = saved }()
	//
	return p.statements(stmts)
}

func (p *translator) expression(e ast.Expr) (contract.Expr, bool) {
	switch v := e.(type) {
	case *ast.ParenExpr:
		return p.expression(v.X)
	case *ast.BasicLit:
		if v.Kind != token.INT {
			return nil, false
		}
		//
		value, ok := new(big.Int).SetString(v.Value, 0)
		if !ok {
			return nil, false
		}
		//
		return &contract.Number{Value: value}, true
	case *ast.Ident:
		return p.identifier(v)
	case *ast.UnaryExpr:
		return p.unary(v)
	case *ast.BinaryExpr:
		return p.binary(v)
	case *ast.CallExpr:
		return p.callOrConversion(v)
	}
	//
	return nil, false
}

func (p *translator) identifier(v *ast.Ident) (contract.Expr, bool) {
	switch v.Name {
	case "true":
		return &contract.BoolLit{Value: true}, true
	case "false":
		return &contract.BoolLit{Value: false}, true
	}
	//
	if local, ok := p.locals[v.Name]; ok {
		return local, true
	}
	// Left free: binding resolves parameters and named constants
	return &contract.Variable{Name: v.Name, Kind: contract.VarParam}, true
}

func (p *translator) unary(v *ast.UnaryExpr) (contract.Expr, bool) {
	arg, ok := p.expression(v.X)
	if !ok {
		return nil, false
	}
	//
	switch v.Op {
	case token.SUB:
		if num, isNum := arg.(*contract.Number); isNum {
			return &contract.Number{Value: new(big.Int).Neg(num.Value)}, true
		}
		//
		return &contract.Negate{Arg: arg}, true
	case token.NOT:
		return &contract.Not{Arg: arg}, true
	}
	//
	return nil, false
}

func (p *translator) binary(v *ast.BinaryExpr) (contract.Expr, bool) {
	op, ok := operator(v.Op)
	if !ok {
		return nil, false
	}
	//
	lhs, ok := p.expression(v.X)
	if !ok {
		return nil, false
	}
	//
	rhs, ok := p.expression(v.Y)
	if !ok {
		return nil, false
	}
	//
	return &contract.Binary{Op: op, Lhs: lhs, Rhs: rhs}, true
}

// callOrConversion handles the whitelisted builtins and integer type
// conversions; any other call leaves the fragment.
func (p *translator) callOrConversion(v *ast.CallExpr) (contract.Expr, bool) {
	name, ok := v.Fun.(*ast.Ident)
	if !ok {
		return nil, false
	}
	//
	if typ, isType := contract.NumericTypeOf(name.Name); isType {
		if len(v.Args) != 1 {
			return nil, false
		}
		//
		arg, ok := p.expression(v.Args[0])
		if !ok {
			return nil, false
		}
		//
		return &contract.Convert{To: typ, Arg: arg}, true
	}
	//
	switch name.Name {
	case "min", "max", "abs":
		args := make([]contract.Expr, len(v.Args))
		//
		for i, a := range v.Args {
			arg, ok := p.expression(a)
			if !ok {
				return nil, false
			}
			//
			args[i] = arg
		}
		//
		return &contract.Call{Name: name.Name, Args: args}, true
	}
	//
	return nil, false
}

func operator(tok token.Token) (contract.Op, bool) {
	switch tok {
	case token.ADD:
		return contract.OpAdd, true
	case token.SUB:
		return contract.OpSub, true
	case token.MUL:
		return contract.OpMul, true
	case token.QUO:
		return contract.OpDiv, true
	case token.REM:
		return contract.OpRem, true
	case token.SHL:
		return contract.OpShl, true
	case token.SHR:
		return contract.OpShr, true
	case token.EQL:
		return contract.OpEq, true
	case token.NEQ:
		return contract.OpNeq, true
	case token.LSS:
		return contract.OpLt, true
	case token.LEQ:
		return contract.OpLeq, true
	case token.GTR:
		return contract.OpGt, true
	case token.GEQ:
		return contract.OpGeq, true
	case token.LAND:
		return contract.OpAnd, true
	case token.LOR:
		return contract.OpOr, true
	}
	//
	return contract.Op(0), false
}
