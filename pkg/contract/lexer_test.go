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

import "testing"

func TestLexer_00(t *testing.T) {
	checkLexer(t, "",
		Token{END_OF, NewSpan(0, 0)})
}

func TestLexer_01(t *testing.T) {
	checkLexer(t, "(",
		Token{LBRACE, NewSpan(0, 1)},
		Token{END_OF, NewSpan(1, 1)})
}

func TestLexer_02(t *testing.T) {
	checkLexer(t, "12",
		Token{NUMBER, NewSpan(0, 2)},
		Token{END_OF, NewSpan(2, 2)})
}

func TestLexer_03(t *testing.T) {
	checkLexer(t, "height",
		Token{IDENTIFIER, NewSpan(0, 6)},
		Token{END_OF, NewSpan(6, 6)})
}

func TestLexer_04(t *testing.T) {
	// whitespace dropped
	checkLexer(t, "x  <= 1",
		Token{IDENTIFIER, NewSpan(0, 1)},
		Token{LESSTHAN_EQUALS, NewSpan(3, 5)},
		Token{NUMBER, NewSpan(6, 7)},
		Token{END_OF, NewSpan(7, 7)})
}

func TestLexer_05(t *testing.T) {
	// << must not lex as two <
	checkLexer(t, "1<<2",
		Token{NUMBER, NewSpan(0, 1)},
		Token{SHIFT_LEFT, NewSpan(1, 3)},
		Token{NUMBER, NewSpan(3, 4)},
		Token{END_OF, NewSpan(4, 4)})
}

func TestLexer_06(t *testing.T) {
	// a bare '=' is not an operator
	checkLexerFails(t, ">>=", 2)
}

func TestLexer_07(t *testing.T) {
	checkLexer(t, "0..10",
		Token{NUMBER, NewSpan(0, 1)},
		Token{DOTDOT, NewSpan(1, 3)},
		Token{NUMBER, NewSpan(3, 5)},
		Token{END_OF, NewSpan(5, 5)})
}

func TestLexer_08(t *testing.T) {
	checkLexer(t, "!=!",
		Token{NOT_EQUALS, NewSpan(0, 2)},
		Token{NOT, NewSpan(2, 3)},
		Token{END_OF, NewSpan(3, 3)})
}

func TestLexer_09(t *testing.T) {
	checkLexer(t, "a&&b||c",
		Token{IDENTIFIER, NewSpan(0, 1)},
		Token{AND, NewSpan(1, 3)},
		Token{IDENTIFIER, NewSpan(3, 4)},
		Token{OR, NewSpan(4, 6)},
		Token{IDENTIFIER, NewSpan(6, 7)},
		Token{END_OF, NewSpan(7, 7)})
}

func TestLexer_10(t *testing.T) {
	// unknown character
	checkLexerFails(t, "x ? y", 2)
}

func TestLexer_11(t *testing.T) {
	checkLexerFails(t, "x # 1", 2)
}

func TestSpan_00(t *testing.T) {
	// accessors work on span values, including ones returned by calls
	span := NewSpan(2, 5)
	//
	if span.Start() != 2 || span.End() != 5 || span.Length() != 3 {
		t.Errorf("span was [%d,%d) length %d", span.Start(), span.End(), span.Length())
	}
	//
	_, err := Lex("x ? y")
	if err == nil {
		t.Fatal("lexing should have failed")
	} else if err.Span().End() != 3 || err.Span().Length() != 1 {
		t.Errorf("error span was [%d,%d)", err.Span().Start(), err.Span().End())
	}
}

func checkLexer(t *testing.T, input string, expected ...Token) {
	tokens, err := Lex(input)
	//
	if err != nil {
		t.Fatalf("lexing %q failed: %v", input, err)
	}
	//
	if len(tokens) != len(expected) {
		t.Fatalf("lexing %q: %d tokens, expected %d", input, len(tokens), len(expected))
	}
	//
	for i := range tokens {
		if tokens[i] != expected[i] {
			t.Errorf("lexing %q: token %d was %v, expected %v", input, i, tokens[i], expected[i])
		}
	}
}

func checkLexerFails(t *testing.T, input string, at int) {
	_, err := Lex(input)
	//
	if err == nil {
		t.Fatalf("lexing %q should have failed", input)
	} else if err.Span().Start() != at {
		t.Errorf("lexing %q failed at %d, expected %d", input, err.Span().Start(), at)
	}
}
