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
	"errors"
	"math/big"
	"testing"
)

func TestParse_00(t *testing.T) {
	checkParse(t, "height >= 0", "(height >= 0)")
}

func TestParse_01(t *testing.T) {
	// * binds tighter than +
	checkParse(t, "a + b * c == 0", "((a + (b * c)) == 0)")
}

func TestParse_02(t *testing.T) {
	// shift binds tighter than +, looser than *
	checkParse(t, "a + b >> 2 * c == 0", "((a + (b >> (2 * c))) == 0)")
}

func TestParse_03(t *testing.T) {
	// && binds tighter than ||
	checkParse(t, "a == 0 || b == 0 && c == 0", "((a == 0) || ((b == 0) && (c == 0)))")
}

func TestParse_04(t *testing.T) {
	checkParse(t, "!(a < b)", "!(a < b)")
}

func TestParse_05(t *testing.T) {
	checkParse(t, "result <= old(x)", "(result <= old(x))")
}

func TestParse_06(t *testing.T) {
	checkParse(t, "min(a, b) <= max(a, b)", "(min(a, b) <= max(a, b))")
}

func TestParse_07(t *testing.T) {
	checkParse(t, "forall i in 0..10: i >= 0", "forall i in 0..10: (i >= 0)")
}

func TestParse_08(t *testing.T) {
	// negative literals fold
	checkParse(t, "x > -5", "(x > -5)")
}

func TestParse_09(t *testing.T) {
	// left associativity
	checkParse(t, "a - b - c == 0", "(((a - b) - c) == 0)")
}

func TestParse_10(t *testing.T) {
	checkParseFails(t, "x >")
}

func TestParse_11(t *testing.T) {
	checkParseFails(t, "(x == 0")
}

func TestParse_12(t *testing.T) {
	checkParseFails(t, "x == 0 extra")
}

func TestParse_13(t *testing.T) {
	checkParseFails(t, "forall in 0..1: true")
}

func TestParse_14(t *testing.T) {
	checkParseFails(t, "old(1) == 0")
}

func TestBind_00(t *testing.T) {
	checkBinds(t, Precondition, "height >= 0")
}

func TestBind_01(t *testing.T) {
	checkBinds(t, Postcondition, "result <= INITIAL_SUBSIDY")
}

func TestBind_02(t *testing.T) {
	checkBinds(t, Postcondition, "result == old(height) % HALVING_INTERVAL || result <= height")
}

func TestBind_03(t *testing.T) {
	// result is only available in postconditions
	checkBindFails(t, Precondition, "result >= 0", &UnsupportedExpressionError{})
}

func TestBind_04(t *testing.T) {
	checkBindFails(t, Precondition, "old(height) >= 0", &UnsupportedExpressionError{})
}

func TestBind_05(t *testing.T) {
	// unknown identifier
	checkBindFails(t, Precondition, "depth >= 0", &UnsupportedExpressionError{})
}

func TestBind_06(t *testing.T) {
	// unknown function
	checkBindFails(t, Precondition, "sqrt(height) >= 0", &UnsupportedExpressionError{})
}

func TestBind_07(t *testing.T) {
	// literal not representable in u64
	checkBindFails(t, Precondition, "height >= -1", &TypeMismatchError{})
}

func TestBind_08(t *testing.T) {
	// mixing signed and unsigned operands
	checkBindFails(t, Precondition, "height + amount >= 0", &TypeMismatchError{})
}

func TestBind_09(t *testing.T) {
	// a bare numeric expression is not a condition
	checkBindFails(t, Precondition, "height + 1", &TypeMismatchError{})
}

func TestBind_10(t *testing.T) {
	// quantifier bound variable shadows nothing and scopes to the body
	checkBinds(t, Precondition, "forall i in 0..height: i <= height")
	checkBindFails(t, Precondition, "(forall i in 0..10: i >= 0) && i >= 0", &UnsupportedExpressionError{})
}

func TestBind_11(t *testing.T) {
	// arity errors
	checkBindFails(t, Precondition, "min(height) >= 0", &TypeMismatchError{})
	checkBindFails(t, Precondition, "abs(height, height) >= 0", &TypeMismatchError{})
}

func TestBind_12(t *testing.T) {
	// constants substitute as literals and adopt the context type
	expr := checkBinds(t, Precondition, "height < HALVING_INTERVAL")
	//
	rhs := expr.(*Binary).Rhs
	if num, ok := rhs.(*Number); !ok {
		t.Errorf("constant did not substitute: %s", rhs.String())
	} else if num.Value.Uint64() != 210_000 {
		t.Errorf("constant value was %s", num.Value.String())
	} else if num.Type() != (Type{Width: 64}) {
		t.Errorf("constant adopted %s, expected u64", num.Type().String())
	}
}

func TestBind_13(t *testing.T) {
	// trivially decidable clauses are still conditions
	checkBinds(t, Precondition, "true")
	checkBinds(t, Precondition, "1 < 2")
}

// testFunction is the signature clauses are bound against in these tests:
// fn(height uint64, amount int64) uint64.
func testFunction() *SpecFunction {
	return &SpecFunction{
		Name:    "subsidy.GetBlockSubsidy",
		File:    "subsidy.go",
		Line:    10,
		Column:  1,
		Section: "6.1",
		Params: []Param{
			{"height", Type{Width: 64}},
			{"amount", Type{Signed: true, Width: 64}},
		},
		Result: Type{Width: 64},
	}
}

func testConstants() map[string]*big.Int {
	return map[string]*big.Int{
		"INITIAL_SUBSIDY":  big.NewInt(5_000_000_000),
		"HALVING_INTERVAL": big.NewInt(210_000),
	}
}

func checkParse(t *testing.T, input string, expected string) {
	expr, err := Parse(input)
	//
	if err != nil {
		t.Fatalf("parsing %q failed: %v", input, err)
	} else if expr.String() != expected {
		t.Errorf("parsing %q gave %s, expected %s", input, expr.String(), expected)
	}
}

func checkParseFails(t *testing.T, input string) {
	if _, err := Parse(input); err == nil {
		t.Errorf("parsing %q should have failed", input)
	}
}

func checkBinds(t *testing.T, kind ClauseKind, input string) Expr {
	parsed, serr := Parse(input)
	if serr != nil {
		t.Fatalf("parsing %q failed: %v", input, serr)
	}
	//
	expr, err := Bind(parsed, testFunction(), kind, testConstants())
	if err != nil {
		t.Fatalf("binding %q failed: %v", input, err)
	}
	//
	return expr
}

func checkBindFails(t *testing.T, kind ClauseKind, input string, expected error) {
	parsed, serr := Parse(input)
	if serr != nil {
		t.Fatalf("parsing %q failed: %v", input, serr)
	}
	//
	_, err := Bind(parsed, testFunction(), kind, testConstants())
	//
	if err == nil {
		t.Fatalf("binding %q should have failed", input)
	}
	//
	switch expected.(type) {
	case *UnsupportedExpressionError:
		var target *UnsupportedExpressionError
		if !errors.As(err, &target) {
			t.Errorf("binding %q failed with %T, expected unsupported expression", input, err)
		}
	case *TypeMismatchError:
		var target *TypeMismatchError
		if !errors.As(err, &target) {
			t.Errorf("binding %q failed with %T, expected type mismatch", input, err)
		}
	}
}
