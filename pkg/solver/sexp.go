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

import "fmt"

// SExp is an S-Expression: either a List of zero or more S-Expressions, or a
// Symbol.  Solver output (check-sat answers and models) is read as a sequence
// of S-expressions.
type SExp interface {
	// IsList checks whether this S-Expression is a list.
	IsList() bool
	// String generates a string representation.
	String() string
}

// List represents a list of zero or more S-Expressions.
type List struct {
	Elements []SExp
}

// IsList implementation for the SExp interface.
func (l *List) IsList() bool { return true }

// Len gets the number of elements in this list.
func (l *List) Len() int { return len(l.Elements) }

func (l *List) String() string {
	var s = "("
	//
	for i, e := range l.Elements {
		if i != 0 {
			s += " "
		}
		//
		s += e.String()
	}
	//
	return s + ")"
}

// MatchSymbols matches a list which starts with at least n elements, of which
// the first are symbols matching the given strings.
func (l *List) MatchSymbols(n int, symbols ...string) bool {
	if len(l.Elements) < n || len(symbols) > n {
		return false
	}
	//
	for i := range symbols {
		if s, ok := l.Elements[i].(*Symbol); !ok || s.Value != symbols[i] {
			return false
		}
	}
	//
	return true
}

// Symbol represents a terminating symbol.
type Symbol struct {
	Value string
}

// IsList implementation for the SExp interface.
func (s *Symbol) IsList() bool { return false }

func (s *Symbol) String() string { return s.Value }

// ParseAll parses a given string into zero or more S-expressions, whilst
// returning an error if the string is malformed.
func ParseAll(s string) ([]SExp, error) {
	var (
		terms  []SExp
		parser = &sexpParser{[]rune(s), 0}
	)
	//
	for {
		term, err := parser.parse()
		if err != nil {
			return terms, err
		} else if term == nil {
			// EOF reached
			return terms, nil
		}
		//
		terms = append(terms, term)
	}
}

type sexpParser struct {
	text  []rune
	index int
}

func (p *sexpParser) parse() (SExp, error) {
	token := p.next()
	//
	switch {
	case token == nil:
		return nil, nil
	case len(token) == 1 && token[0] == ')':
		return nil, fmt.Errorf("unexpected end-of-list at %d", p.index)
	case len(token) == 1 && token[0] == '(':
		var elements []SExp
		//
		for {
			if c := p.lookahead(); c == ')' {
				break
			} else if c == 0 {
				return nil, fmt.Errorf("unexpected end-of-file at %d", p.index)
			}
			//
			element, err := p.parse()
			if err != nil {
				return nil, err
			}
			//
			elements = append(elements, element)
		}
		// Consume right-brace
		p.next()
		//
		return &List{elements}, nil
	}
	//
	return &Symbol{string(token)}, nil
}

// next extracts the next token, skipping whitespace, comments and (for the
// sake of solver model output) string literals' internals.
func (p *sexpParser) next() []rune {
	index := p.index
	//
	if index == len(p.text) {
		return nil
	}
	//
	switch p.text[index] {
	case '(', ')':
		p.index++
		return p.text[index:p.index]
	case ' ', '\t', '\n', '\r':
		p.index++
		return p.next()
	case ';':
		p.skipLine()
		return p.next()
	case '"':
		return p.parseString()
	}
	//
	return p.parseSymbol()
}

// lookahead reports the next meaningful rune, skipping whitespace and
// comments just as next does, or 0 at end of input.
func (p *sexpParser) lookahead() rune {
	i := p.index
	//
	for i < len(p.text) {
		switch p.text[i] {
		case ' ', '\t', '\n', '\r':
			i++
		case ';':
			for i < len(p.text) && p.text[i] != '\n' {
				i++
			}
		default:
			return p.text[i]
		}
	}
	//
	return 0
}

func (p *sexpParser) parseSymbol() []rune {
	i := len(p.text)
	//
	for j := p.index; j < i; j++ {
		switch p.text[j] {
		case '(', ')', ' ', '\t', '\n', '\r':
			i = j
		}
		//
		if i == j {
			break
		}
	}
	//
	token := p.text[p.index:i]
	p.index = i
	//
	return token
}

func (p *sexpParser) parseString() []rune {
	i := len(p.text)
	//
	for j := p.index + 1; j < i; j++ {
		if p.text[j] == '"' {
			i = j + 1
			break
		}
	}
	//
	token := p.text[p.index:i]
	p.index = i
	//
	return token
}

func (p *sexpParser) skipLine() {
	for p.index < len(p.text) && p.text[p.index] != '\n' {
		p.index++
	}
}
