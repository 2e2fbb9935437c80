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
	"math/big"
	"slices"
)

// Parse a clause text into an (untyped) expression tree.  Parsing is purely
// syntactic: identifiers are not resolved and no types are assigned, both of
// which happen during binding against the owning function.
func Parse(text string) (Expr, *SyntaxError) {
	tokens, err := Lex(text)
	if err != nil {
		return nil, err
	}
	//
	parser := &Parser{[]rune(text), tokens, 0}
	//
	expr, err := parser.parseDisjunct()
	// Check all tokens were consumed
	if err == nil && !parser.Done() {
		return nil, parser.syntaxError(parser.lookahead(), "unexpected token")
	}
	//
	return expr, err
}

// CONDITIONS captures the set of comparison tokens.
var CONDITIONS = []uint{EQUALS, NOT_EQUALS, LESSTHAN, LESSTHAN_EQUALS, GREATERTHAN, GREATERTHAN_EQUALS}

// comparisons maps comparison tokens to their operator.
var comparisons = map[uint]Op{
	EQUALS:             OpEq,
	NOT_EQUALS:         OpNeq,
	LESSTHAN:           OpLt,
	LESSTHAN_EQUALS:    OpLeq,
	GREATERTHAN:        OpGt,
	GREATERTHAN_EQUALS: OpGeq,
}

// Parser turns a token stream into an expression tree using one recursive
// descent level per precedence level.
type Parser struct {
	text   []rune
	tokens []Token
	// Position within the tokens
	index int
}

// Done determines whether or not the parser has parsed all the available
// tokens.
func (p *Parser) Done() bool {
	return p.lookahead().Kind == END_OF
}

func (p *Parser) parseDisjunct() (Expr, *SyntaxError) {
	term, err := p.parseConjunct()
	//
	for err == nil && p.match(OR) {
		var rhs Expr
		//
		if rhs, err = p.parseConjunct(); err == nil {
			term = &Binary{OpOr, term, rhs, BoolType}
		}
	}
	//
	return term, err
}

func (p *Parser) parseConjunct() (Expr, *SyntaxError) {
	term, err := p.parseRelation()
	//
	for err == nil && p.match(AND) {
		var rhs Expr
		//
		if rhs, err = p.parseRelation(); err == nil {
			term = &Binary{OpAnd, term, rhs, BoolType}
		}
	}
	//
	return term, err
}

func (p *Parser) parseRelation() (Expr, *SyntaxError) {
	// Dispatch on prefix forms first
	if p.match(NOT) {
		arg, err := p.parseRelation()
		if err != nil {
			return nil, err
		}
		//
		return &Not{arg}, nil
	} else if p.followsKeyword("forall") {
		return p.parseForall()
	}
	//
	lhs, err := p.parseSum()
	// Check for an infix comparison
	if err != nil || !p.follows(CONDITIONS...) {
		return lhs, err
	}
	//
	token := p.expect(p.lookahead().Kind)
	//
	rhs, err := p.parseSum()
	if err != nil {
		return nil, err
	}
	//
	return &Binary{comparisons[token.Kind], lhs, rhs, BoolType}, nil
}

// parseForall parses "forall IDENT in sum .. sum : relation".
func (p *Parser) parseForall() (Expr, *SyntaxError) {
	p.expect(IDENTIFIER)
	//
	id := p.lookahead()
	if id.Kind != IDENTIFIER {
		return nil, p.syntaxError(id, "bound variable expected")
	}
	//
	p.expect(IDENTIFIER)
	//
	if !p.followsKeyword("in") {
		return nil, p.syntaxError(p.lookahead(), "expected 'in'")
	}
	//
	p.expect(IDENTIFIER)
	//
	lo, err := p.parseSum()
	if err != nil {
		return nil, err
	} else if !p.match(DOTDOT) {
		return nil, p.syntaxError(p.lookahead(), "expected '..'")
	}
	//
	hi, err := p.parseSum()
	if err != nil {
		return nil, err
	} else if !p.match(COLON) {
		return nil, p.syntaxError(p.lookahead(), "expected ':'")
	}
	//
	body, err := p.parseRelation()
	if err != nil {
		return nil, err
	}
	//
	return &Forall{p.string(id), lo, hi, body}, nil
}

func (p *Parser) parseSum() (Expr, *SyntaxError) {
	term, err := p.parseShift()
	//
	for err == nil && p.follows(ADD, SUB) {
		var (
			op  = Op(OpAdd)
			rhs Expr
		)
		//
		if p.lookahead().Kind == SUB {
			op = OpSub
		}
		//
		p.expect(p.lookahead().Kind)
		//
		if rhs, err = p.parseShift(); err == nil {
			term = &Binary{op, term, rhs, Type{}}
		}
	}
	//
	return term, err
}

func (p *Parser) parseShift() (Expr, *SyntaxError) {
	term, err := p.parseProduct()
	//
	for err == nil && p.follows(SHIFT_LEFT, SHIFT_RIGHT) {
		var (
			op  = Op(OpShl)
			rhs Expr
		)
		//
		if p.lookahead().Kind == SHIFT_RIGHT {
			op = OpShr
		}
		//
		p.expect(p.lookahead().Kind)
		//
		if rhs, err = p.parseProduct(); err == nil {
			term = &Binary{op, term, rhs, Type{}}
		}
	}
	//
	return term, err
}

func (p *Parser) parseProduct() (Expr, *SyntaxError) {
	term, err := p.parseUnit()
	//
	for err == nil && p.follows(MUL, DIV, REM) {
		var (
			op  Op
			rhs Expr
		)
		//
		switch p.lookahead().Kind {
		case MUL:
			op = OpMul
		case DIV:
			op = OpDiv
		default:
			op = OpRem
		}
		//
		p.expect(p.lookahead().Kind)
		//
		if rhs, err = p.parseUnit(); err == nil {
			term = &Binary{op, term, rhs, Type{}}
		}
	}
	//
	return term, err
}

func (p *Parser) parseUnit() (Expr, *SyntaxError) {
	token := p.lookahead()
	//
	switch token.Kind {
	case NUMBER:
		p.expect(NUMBER)
		return &Number{Value: p.number(token)}, nil
	case SUB:
		p.expect(SUB)
		//
		arg, err := p.parseUnit()
		if err != nil {
			return nil, err
		}
		// Fold negation into literals immediately
		if num, ok := arg.(*Number); ok {
			num.Value.Neg(num.Value)
			return num, nil
		}
		//
		return &Negate{Arg: arg}, nil
	case LBRACE:
		p.expect(LBRACE)
		//
		term, err := p.parseDisjunct()
		if err != nil {
			return nil, err
		} else if !p.match(RBRACE) {
			return nil, p.syntaxError(p.lookahead(), "expected ')'")
		}
		//
		return term, nil
	case IDENTIFIER:
		return p.parseIdentifier()
	}
	//
	return nil, p.syntaxError(token, "unknown expression")
}

// parseIdentifier handles literals (true/false), pre-state captures
// (old(p)), calls and plain identifiers.  Which kind a plain identifier
// resolves to is decided during binding.
func (p *Parser) parseIdentifier() (Expr, *SyntaxError) {
	var (
		id   = p.expect(IDENTIFIER)
		name = p.string(id)
	)
	//
	switch name {
	case "true":
		return &BoolLit{true}, nil
	case "false":
		return &BoolLit{false}, nil
	case "forall", "in":
		return nil, p.syntaxError(id, "misplaced keyword")
	}
	// Check for call syntax
	if !p.match(LBRACE) {
		return &Variable{Name: name}, nil
	}
	//
	if name == "old" {
		arg := p.lookahead()
		if arg.Kind != IDENTIFIER {
			return nil, p.syntaxError(arg, "parameter expected")
		}
		//
		p.expect(IDENTIFIER)
		//
		if !p.match(RBRACE) {
			return nil, p.syntaxError(p.lookahead(), "expected ')'")
		}
		//
		return &Variable{Name: p.string(arg), Kind: VarOld}, nil
	}
	// General call
	var args []Expr
	//
	for {
		arg, err := p.parseSum()
		if err != nil {
			return nil, err
		}
		//
		args = append(args, arg)
		//
		if !p.match(COMMA) {
			break
		}
	}
	//
	if !p.match(RBRACE) {
		return nil, p.syntaxError(p.lookahead(), "expected ')'")
	}
	//
	return &Call{Name: name, Args: args}, nil
}

// Get the text representing the given token as a string.
func (p *Parser) string(token Token) string {
	return string(p.text[token.Span.Start():token.Span.End()])
}

// Get the text representing the given token as a number.
func (p *Parser) number(token Token) *big.Int {
	var number big.Int
	//
	number.SetString(p.string(token), 10)
	//
	return &number
}

// followsKeyword checks whether the next token is an identifier with the
// given spelling.
func (p *Parser) followsKeyword(word string) bool {
	next := p.lookahead()
	//
	return next.Kind == IDENTIFIER && p.string(next) == word
}

// follows checks whether one of the given token kinds is next.
func (p *Parser) follows(options ...uint) bool {
	return slices.Contains(options, p.lookahead().Kind)
}

// lookahead returns the next token.  This must exist because END_OF is always
// appended at the end of the token stream.
func (p *Parser) lookahead() Token {
	return p.tokens[p.index]
}

func (p *Parser) expect(kind uint) Token {
	if p.lookahead().Kind != kind {
		panic("internal failure")
	}
	//
	token := p.tokens[p.index]
	p.index++
	//
	return token
}

func (p *Parser) match(kind uint) bool {
	if p.lookahead().Kind == kind {
		p.index++
		return true
	}
	//
	return false
}

func (p *Parser) syntaxError(token Token, msg string) *SyntaxError {
	return &SyntaxError{p.text, token.Span, msg}
}
