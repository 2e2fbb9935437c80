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

// Token associates a kind with a given range of characters in the clause text
// being scanned.
type Token struct {
	Kind uint
	Span Span
}

// END_OF signals the end of the clause text.
const END_OF uint = 0

// WHITESPACE signals whitespace.
const WHITESPACE uint = 1

// LBRACE signals "left brace".
const LBRACE uint = 2

// RBRACE signals "right brace".
const RBRACE uint = 3

// NUMBER signals an integer number.
const NUMBER uint = 4

// IDENTIFIER signals an identifier.
const IDENTIFIER uint = 5

// EQUALS signals an equality.
const EQUALS uint = 6

// NOT_EQUALS signals a non-equality.
const NOT_EQUALS uint = 7

// LESSTHAN signals a (strict) inequality X < Y.
const LESSTHAN uint = 8

// LESSTHAN_EQUALS signals a (non-strict) inequality X <= Y.
const LESSTHAN_EQUALS uint = 9

// GREATERTHAN signals a (strict) inequality X > Y.
const GREATERTHAN uint = 10

// GREATERTHAN_EQUALS signals a (non-strict) inequality X >= Y.
const GREATERTHAN_EQUALS uint = 11

// OR represents logical disjunction.
const OR uint = 12

// AND represents logical conjunction.
const AND uint = 13

// ADD represents integer addition.
const ADD uint = 14

// SUB represents integer subtraction.
const SUB uint = 15

// MUL represents integer multiplication.
const MUL uint = 16

// DIV represents integer division.
const DIV uint = 17

// REM represents the integer remainder.
const REM uint = 18

// SHIFT_LEFT represents a left shift.
const SHIFT_LEFT uint = 19

// SHIFT_RIGHT represents a right shift.
const SHIFT_RIGHT uint = 20

// NOT represents logical negation.
const NOT uint = 21

// COMMA separates call arguments.
const COMMA uint = 22

// COLON separates a quantifier range from its body.
const COLON uint = 23

// DOTDOT separates the bounds of a quantifier range.
const DOTDOT uint = 24

// scanner is a function which matches a prefix of the remaining input,
// returning the number of characters matched (zero means no match).
type scanner func(items []rune) uint

// lexRule is simply a rule for associating groups of characters with a given
// tag.
type lexRule struct {
	scanner scanner
	tag     uint
}

func rule(scanner scanner, tag uint) lexRule {
	return lexRule{scanner, tag}
}

// unit accepts a given sequence of characters, all of which must match in
// their given order.
func unit(chars ...rune) scanner {
	return func(items []rune) uint {
		if len(items) < len(chars) {
			return 0
		}
		//
		for i := range chars {
			if items[i] != chars[i] {
				return 0
			}
		}
		//
		return uint(len(chars))
	}
}

// within accepts any single character within a given range.
func within(lowest rune, highest rune) scanner {
	return func(items []rune) uint {
		if len(items) != 0 && lowest <= items[0] && items[0] <= highest {
			return 1
		}
		//
		return 0
	}
}

// or succeeds on the first of the given scanners which succeeds.
func or(scanners ...scanner) scanner {
	return func(items []rune) uint {
		for _, s := range scanners {
			if n := s(items); n > 0 {
				return n
			}
		}
		//
		return 0
	}
}

// many matches one or more of a given item.
func many(acceptor scanner) scanner {
	return func(items []rune) uint {
		index := uint(0)
		//
		for index < uint(len(items)) {
			n := acceptor(items[index:])
			if n == 0 {
				break
			}
			//
			index += n
		}
		//
		return index
	}
}

// then matches two scanners in sequence, the second starting where the first
// ended.  The second may match zero characters.
func then(first scanner, second scanner) scanner {
	return func(items []rune) uint {
		n := first(items)
		if n == 0 {
			return 0
		}
		//
		return n + second(items[n:])
	}
}

var whitespace = many(or(unit(' '), unit('\t')))

var number = many(within('0', '9'))

var identifierStart = or(
	unit('_'),
	within('a', 'z'),
	within('A', 'Z'))

var identifierRest = many(or(
	unit('_'),
	within('0', '9'),
	within('a', 'z'),
	within('A', 'Z')))

var identifier = then(identifierStart, identifierRest)

// Lexing rules, ordered such that the longest operators match first.
var rules = []lexRule{
	rule(unit('('), LBRACE),
	rule(unit(')'), RBRACE),
	rule(unit(','), COMMA),
	rule(unit(':'), COLON),
	rule(unit('.', '.'), DOTDOT),
	rule(unit('+'), ADD),
	rule(unit('*'), MUL),
	rule(unit('-'), SUB),
	rule(unit('/'), DIV),
	rule(unit('%'), REM),
	rule(unit('=', '='), EQUALS),
	rule(unit('!', '='), NOT_EQUALS),
	rule(unit('!'), NOT),
	rule(unit('<', '<'), SHIFT_LEFT),
	rule(unit('<', '='), LESSTHAN_EQUALS),
	rule(unit('<'), LESSTHAN),
	rule(unit('>', '>'), SHIFT_RIGHT),
	rule(unit('>', '='), GREATERTHAN_EQUALS),
	rule(unit('>'), GREATERTHAN),
	rule(unit('|', '|'), OR),
	rule(unit('&', '&'), AND),
	rule(whitespace, WHITESPACE),
	rule(number, NUMBER),
	rule(identifier, IDENTIFIER),
}

// Lex tokenises the raw text of a contract clause, dropping whitespace and
// appending an END_OF token.  An unrecognised character yields a syntax error
// identifying exactly where scanning stopped.
func Lex(text string) ([]Token, *SyntaxError) {
	var (
		runes  = []rune(text)
		tokens []Token
		index  int
	)
	//
outer:
	for index < len(runes) {
		for _, r := range rules {
			if n := r.scanner(runes[index:]); n > 0 {
				end := min(len(runes), index+int(n))
				//
				if r.tag != WHITESPACE {
					tokens = append(tokens, Token{r.tag, NewSpan(index, end)})
				}
				//
				index = end
				//
				continue outer
			}
		}
		// No rule matched
		return nil, &SyntaxError{runes, NewSpan(index, index + 1), "unknown character"}
	}
	//
	tokens = append(tokens, Token{END_OF, NewSpan(index, index)})
	//
	return tokens, nil
}
