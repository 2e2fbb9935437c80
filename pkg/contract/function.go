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

import "strings"

// ClauseKind distinguishes preconditions from postconditions.
type ClauseKind uint8

const (
	// Precondition constrains the inputs a caller may supply.
	Precondition ClauseKind = iota
	// Postcondition constrains the result in terms of the inputs.
	Postcondition
)

func (k ClauseKind) String() string {
	if k == Precondition {
		return "requires"
	}
	//
	return "ensures"
}

// Clause is a single contract obligation attached to a function.  The raw
// text is always retained; Expr is populated by binding and Err records a
// parse, bind or type failure (in which case Expr is nil).
type Clause struct {
	// Kind of this clause.
	Kind ClauseKind
	// Raw text of this clause as written in the source comment.
	Text string
	// Bound, typed expression tree (nil if Err is set).
	Expr Expr
	// Failure encountered whilst parsing or binding the text.
	Err error
	// Line within the source file on which the directive appears.
	Line int
}

// Param is a named, typed function parameter.
type Param struct {
	Name string
	Type Type
}

// SpecFunction is a discovered spec-locked function: its identity and
// location, the specification section it is linked to, its typed signature
// and its contract clauses in declaration order.  Body holds a symbolic
// expression over the parameters when the function's implementation falls
// within the translatable fragment, and is nil otherwise.
type SpecFunction struct {
	// Qualified name, i.e. "package.Function".
	Name string
	// Source file this function was discovered in.
	File string
	// Line and column of the function declaration.
	Line   int
	Column int
	// Identifier of the specification section this function is locked to.
	Section string
	// Declared parameters, in order.
	Params []Param
	// Declared result type.
	Result Type
	// Contract clauses, in declaration order.
	Clauses []Clause
	// Symbolic form of the function body, or nil when the implementation
	// falls outside the translatable fragment.
	Body Expr
}

// Param looks up a declared parameter by name.
func (p *SpecFunction) Param(name string) (Param, bool) {
	for _, param := range p.Params {
		if param.Name == name {
			return param, true
		}
	}
	//
	return Param{}, false
}

// Preconditions returns the subset of clauses which are preconditions, in
// declaration order.
func (p *SpecFunction) Preconditions() []Clause {
	return p.clausesOf(Precondition)
}

// Postconditions returns the subset of clauses which are postconditions, in
// declaration order.
func (p *SpecFunction) Postconditions() []Clause {
	return p.clausesOf(Postcondition)
}

func (p *SpecFunction) clausesOf(kind ClauseKind) []Clause {
	var selected []Clause
	//
	for _, c := range p.Clauses {
		if c.Kind == kind {
			selected = append(selected, c)
		}
	}
	//
	return selected
}

// Compare orders two functions by source location (file, then line, then
// column), giving reports a stable order independent of scheduling.
func (p *SpecFunction) Compare(o *SpecFunction) int {
	if c := strings.Compare(p.File, o.File); c != 0 {
		return c
	} else if p.Line != o.Line {
		return p.Line - o.Line
	}
	//
	return p.Column - o.Column
}
