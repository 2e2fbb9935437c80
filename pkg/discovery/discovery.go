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

// Package discovery locates spec-locked functions: Go functions whose doc
// comments carry speclock directives linking them to a specification section
// and stating their contract clauses.  Discovery records clause text
// verbatim; parsing and typing happen in the contract model.
package discovery

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"math/big"
	"sort"
	"strings"

	"github.com/blvm/go-speclock/pkg/contract"
	"github.com/sirupsen/logrus"
)

// prefix common to all directives.
const prefix = "//speclock:"

// Error indicates a malformed or misplaced directive.  Such errors never
// abort a scan; every well-formed function in the same tree is still
// discovered.
type Error struct {
	// File the offending directive appears in.
	File string
	// Line the offending directive appears on.
	Line int
	// Description of the problem.
	Msg string
}

func (p *Error) Error() string {
	return fmt.Sprintf("%s:%d: %s", p.File, p.Line, p.Msg)
}

// Discovery is the outcome of scanning a source tree: the spec-locked
// functions found (ordered by source location), functions carrying contract
// directives without a section link, and directive errors.
type Discovery struct {
	// Spec-locked functions, ordered by (file, line, column).
	Functions []*contract.SpecFunction
	// Functions with requires/ensures directives but no section directive.
	// These are warnings by default and errors in strict mode.
	Unlinked []*contract.SpecFunction
	// Malformed or misplaced directives.
	Errors []*Error
}

// Discover scans the given roots for spec-locked functions.  Named constants
// are used to resolve symbolic function bodies; clause binding is deferred to
// the caller.  The returned error indicates an unusable environment (e.g. an
// unreadable root), never a problem with any individual file.
func Discover(roots []string, ignore []string, constants map[string]*big.Int) (*Discovery, error) {
	files, err := SourceFiles(roots, ignore)
	if err != nil {
		return nil, err
	}
	//
	d := &Discovery{}
	//
	for _, file := range files {
		d.scanFile(file, constants)
	}
	// Stable order, independent of walk interleaving across roots
	sort.Slice(d.Functions, func(i, j int) bool {
		return d.Functions[i].Compare(d.Functions[j]) < 0
	})
	//
	return d, nil
}

func (p *Discovery) scanFile(path string, constants map[string]*big.Int) {
	fset := token.NewFileSet()
	//
	file, err := parser.ParseFile(fset, path, nil, parser.ParseComments)
	if err != nil {
		p.Errors = append(p.Errors, &Error{path, 1, fmt.Sprintf("unparseable source: %v", err)})
		//
		return
	}
	//
	for _, decl := range file.Decls {
		switch v := decl.(type) {
		case *ast.FuncDecl:
			p.scanFunction(fset, path, file.Name.Name, v, constants)
		case *ast.GenDecl:
			// Directives only attach to function declarations
			if comment, ok := firstDirective(v.Doc); ok {
				p.fail(path, fset.Position(comment.Pos()).Line, "directive on a non-function declaration")
			}
		}
	}
}

func (p *Discovery) scanFunction(fset *token.FileSet, path string, pkg string,
	decl *ast.FuncDecl, constants map[string]*big.Int) {
	var (
		section string
		clauses []contract.Clause
	)
	//
	if decl.Doc == nil {
		return
	}
	//
	for _, comment := range decl.Doc.List {
		text, ok := strings.CutPrefix(comment.Text, prefix)
		if !ok {
			continue
		}
		//
		line := fset.Position(comment.Pos()).Line
		name, rest, _ := strings.Cut(text, " ")
		rest = strings.TrimSpace(rest)
		//
		switch name {
		case "section":
			if rest == "" {
				p.fail(path, line, "section directive lacks an identifier")
			} else if section != "" {
				p.fail(path, line, fmt.Sprintf("duplicate section directive (already %s)", section))
			} else {
				section = rest
			}
		case "requires", "ensures":
			if rest == "" {
				p.fail(path, line, fmt.Sprintf("%s directive lacks an expression", name))
				//
				continue
			}
			//
			kind := contract.Precondition
			if name == "ensures" {
				kind = contract.Postcondition
			}
			//
			clauses = append(clauses, contract.Clause{Kind: kind, Text: rest, Line: line})
		default:
			p.fail(path, line, fmt.Sprintf("unknown directive %q", prefix+name))
		}
	}
	// Undirected functions are simply not spec-locked
	if section == "" && clauses == nil {
		return
	}
	//
	pos := fset.Position(decl.Pos())
	//
	fn := &contract.SpecFunction{
		Name:    pkg + "." + decl.Name.Name,
		File:    path,
		Line:    pos.Line,
		Column:  pos.Column,
		Section: section,
		Clauses: clauses,
	}
	//
	params, result, serr := signature(decl)
	if serr != nil {
		// The function is still discovered, but every clause degrades to
		// an error at binding time.
		for i := range fn.Clauses {
			fn.Clauses[i].Err = serr
		}
	} else {
		fn.Params = params
		fn.Result = result
		fn.Body = symbolicBody(decl.Body, fn, constants)
	}
	//
	if section == "" {
		logrus.WithField("function", fn.Name).Warn("contract directives without a section link")
		p.Unlinked = append(p.Unlinked, fn)
		//
		return
	}
	//
	p.Functions = append(p.Functions, fn)
}

func (p *Discovery) fail(path string, line int, msg string) {
	p.Errors = append(p.Errors, &Error{path, line, msg})
}

// signature extracts a verifiable signature: named integer parameters and a
// single integer result.  Anything else (methods, multiple or non-numeric
// results, unnamed or non-numeric parameters) is a type mismatch.
func signature(decl *ast.FuncDecl) ([]contract.Param, contract.Type, error) {
	if decl.Recv != nil {
		return nil, contract.Type{}, &contract.TypeMismatchError{Msg: "methods are not verifiable"}
	}
	//
	results := decl.Type.Results
	if results == nil || len(results.List) != 1 || len(results.List[0].Names) > 1 {
		return nil, contract.Type{}, &contract.TypeMismatchError{Msg: "exactly one result expected"}
	}
	//
	result, ok := numericType(results.List[0].Type)
	if !ok {
		return nil, contract.Type{}, &contract.TypeMismatchError{Msg: "result is not an integer type"}
	}
	//
	var params []contract.Param
	//
	if decl.Type.Params != nil {
		for _, field := range decl.Type.Params.List {
			typ, ok := numericType(field.Type)
			if !ok {
				return nil, contract.Type{}, &contract.TypeMismatchError{Msg: "parameter is not an integer type"}
			} else if len(field.Names) == 0 {
				return nil, contract.Type{}, &contract.TypeMismatchError{Msg: "unnamed parameter"}
			}
			//
			for _, name := range field.Names {
				params = append(params, contract.Param{Name: name.Name, Type: typ})
			}
		}
	}
	//
	return params, result, nil
}

func numericType(e ast.Expr) (contract.Type, bool) {
	ident, ok := e.(*ast.Ident)
	if !ok {
		return contract.Type{}, false
	}
	//
	return contract.NumericTypeOf(ident.Name)
}

func firstDirective(doc *ast.CommentGroup) (*ast.Comment, bool) {
	if doc == nil {
		return nil, false
	}
	//
	for _, comment := range doc.List {
		if strings.HasPrefix(comment.Text, prefix) {
			return comment, true
		}
	}
	//
	return nil, false
}
