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
package checker

import (
	"math/big"
	"testing"

	"github.com/blvm/go-speclock/pkg/contract"
)

// The halving-subsidy function: the result is a known ceiling shifted right
// by a monotone amount, which the fast path must verify without enumerating
// the 2^64 input domain.
func TestStatic_00(t *testing.T) {
	fn := makeFunction(t, "height", u64(), u64(), "INITIAL_SUBSIDY >> (height / HALVING_INTERVAL)")
	//
	checkStatic(t, fn, post(t, fn, "result <= INITIAL_SUBSIDY"), True)
	checkStatic(t, fn, post(t, fn, "result >= 0"), True)
}

func TestStatic_01(t *testing.T) {
	// satisfiable precondition on the full domain
	fn := makeFunction(t, "height", u64(), u64(), "")
	//
	checkStatic(t, fn, pre(t, fn, "height < 100"), True)
}

func TestStatic_02(t *testing.T) {
	// contradictory precondition
	fn := makeFunction(t, "height", u64(), u64(), "")
	//
	outcome := CheckClause(fn, pre(t, fn, "height < 0"))
	//
	if outcome.Decision != False {
		t.Fatalf("decision was %s, expected false", outcome.Decision.String())
	} else if outcome.Witness == nil {
		t.Fatal("contradictory precondition lacked a witness")
	}
}

func TestStatic_03(t *testing.T) {
	// tautological precondition decides without sampling
	fn := makeFunction(t, "height", u64(), u64(), "")
	//
	checkStatic(t, fn, pre(t, fn, "height >= 0"), True)
}

func TestStatic_04(t *testing.T) {
	// postcondition refuted under the precondition, with witness
	fn := makeFunction(t, "height", u64(), u64(), "height")
	fn.Clauses = append(fn.Clauses, pre(t, fn, "height >= 10"))
	//
	clause := post(t, fn, "result < 5")
	outcome := CheckClause(fn, clause)
	//
	if outcome.Decision != False {
		t.Fatalf("decision was %s, expected false", outcome.Decision.String())
	}
	// Witness must satisfy the precondition and violate the clause
	if outcome.Witness["height"].Cmp(big.NewInt(10)) < 0 {
		t.Errorf("witness height %s violates the precondition", outcome.Witness["height"])
	}
	//
	if ok, err := contract.EvalBool(clause.Expr, outcome.Witness); err != nil || ok {
		t.Errorf("witness does not falsify the clause (%v)", err)
	}
}

func TestStatic_05(t *testing.T) {
	// parity is invisible to intervals: must stay unknown, never verified
	fn := makeFunction(t, "height", u64(), u64(), "height")
	//
	checkStatic(t, fn, post(t, fn, "result % 2 == 0"), Unknown)
}

func TestStatic_06(t *testing.T) {
	// contradictory preconditions make any postcondition hold vacuously
	fn := makeFunction(t, "height", u64(), u64(), "height")
	fn.Clauses = append(fn.Clauses, pre(t, fn, "height < 10"))
	fn.Clauses = append(fn.Clauses, pre(t, fn, "height > 20"))
	//
	checkStatic(t, fn, post(t, fn, "result < 0"), True)
}

func TestStatic_07(t *testing.T) {
	// without a body, the result is only bounded by its type
	fn := makeFunction(t, "height", u64(), u64(), "")
	//
	checkStatic(t, fn, post(t, fn, "result >= 0"), True)
	checkStatic(t, fn, post(t, fn, "result <= 100"), Unknown)
}

func TestStatic_08(t *testing.T) {
	fn := makeFunction(t, "height", u64(), u64(), "")
	// division whose divisor may be zero cannot be decided...
	checkStatic(t, fn, post(t, fn, "100 / result <= 100"), Unknown)
	// ...but a precondition with a possible fault is still satisfiable
	checkStatic(t, fn, pre(t, fn, "100 / height <= 100"), True)
}

func TestStatic_09(t *testing.T) {
	// bounded quantifier over a monotone bound
	fn := makeFunction(t, "height", u64(), u64(), "")
	//
	checkStatic(t, fn, pre(t, fn, "forall i in 0..100: height >> i <= height"), True)
}

func TestStatic_10(t *testing.T) {
	// signed wrap around must widen, not prove
	fn := makeFunction(t, "amount", i64(), i64(), "amount + 1")
	//
	checkStatic(t, fn, post(t, fn, "result > amount"), Unknown)
}

func TestStatic_11(t *testing.T) {
	// ... unless the precondition rules the wrap out
	fn := makeFunction(t, "amount", i64(), i64(), "amount + 1")
	fn.Clauses = append(fn.Clauses, pre(t, fn, "amount < 1000"))
	//
	checkStatic(t, fn, post(t, fn, "result > amount"), True)
}

// Exhaustive soundness check over a one-byte domain: whenever the static tier
// decides, the decision must agree with brute-force evaluation.
func TestStatic_Soundness(t *testing.T) {
	bodies := []string{"x", "x * 2", "x >> 1", "255 - x", "x % 7", "min(x, 100)", "abs(x - 100)"}
	posts := []string{
		"result >= 0", "result <= 255", "result < 100", "result == x",
		"result >= x", "result % 2 == 0", "result <= x * 2",
	}
	pres := []string{"", "x < 50", "x >= 128"}
	//
	for _, body := range bodies {
		for _, p := range pres {
			for _, q := range posts {
				checkSound(t, body, p, q)
			}
		}
	}
}

func checkSound(t *testing.T, body string, precondition string, postcondition string) {
	fn := makeFunction(t, "x", u8(), u8(), body)
	if precondition != "" {
		fn.Clauses = append(fn.Clauses, pre(t, fn, precondition))
	}
	//
	clause := post(t, fn, postcondition)
	outcome := CheckClause(fn, clause)
	//
	if outcome.Decision == Unknown {
		return
	}
	// Brute force the whole domain
	violated := false
	//
	for x := int64(0); x <= 255; x++ {
		env := contract.Assignment{"x": big.NewInt(x)}
		//
		if !satisfiesPreconditions(fn, env) {
			continue
		}
		//
		result, err := contract.EvalNum(fn.Body, env)
		if err != nil {
			continue
		}
		//
		env["result"] = result
		//
		ok, err := contract.EvalBool(clause.Expr, env)
		if err != nil {
			continue
		}
		//
		if !ok {
			violated = true
		}
	}
	//
	if outcome.Decision == True && violated {
		t.Errorf("unsound: %q / %q / %q verified but violated", body, precondition, postcondition)
	} else if outcome.Decision == False && !violated {
		t.Errorf("unsound: %q / %q / %q falsified but holds", body, precondition, postcondition)
	}
}

func u8() contract.Type {
	return contract.Type{Width: 8}
}

func u64() contract.Type {
	return contract.Type{Width: 64}
}

func i64() contract.Type {
	return contract.Type{Signed: true, Width: 64}
}

func constants() map[string]*big.Int {
	return map[string]*big.Int{
		"INITIAL_SUBSIDY":  big.NewInt(5_000_000_000),
		"HALVING_INTERVAL": big.NewInt(210_000),
	}
}

// makeFunction assembles a single-parameter function with an optional
// symbolic body given as expression text.
func makeFunction(t *testing.T, param string, paramType contract.Type, result contract.Type, body string) *contract.SpecFunction {
	fn := &contract.SpecFunction{
		Name:    "pkg.Fn",
		File:    "fn.go",
		Line:    1,
		Column:  1,
		Section: "6.1",
		Params:  []contract.Param{{Name: param, Type: paramType}},
		Result:  result,
	}
	//
	if body != "" {
		parsed, err := contract.Parse(body)
		if err != nil {
			t.Fatalf("parsing body %q failed: %v", body, err)
		}
		//
		bound, berr := contract.BindBody(parsed, fn, constants())
		if berr != nil {
			t.Fatalf("binding body %q failed: %v", body, berr)
		}
		//
		fn.Body = bound
	}
	//
	return fn
}

func pre(t *testing.T, fn *contract.SpecFunction, text string) contract.Clause {
	return makeClause(t, fn, contract.Precondition, text)
}

func post(t *testing.T, fn *contract.SpecFunction, text string) contract.Clause {
	return makeClause(t, fn, contract.Postcondition, text)
}

func makeClause(t *testing.T, fn *contract.SpecFunction, kind contract.ClauseKind, text string) contract.Clause {
	parsed, err := contract.Parse(text)
	if err != nil {
		t.Fatalf("parsing %q failed: %v", text, err)
	}
	//
	expr, berr := contract.Bind(parsed, fn, kind, constants())
	if berr != nil {
		t.Fatalf("binding %q failed: %v", text, berr)
	}
	//
	return contract.Clause{Kind: kind, Text: text, Expr: expr}
}

func checkStatic(t *testing.T, fn *contract.SpecFunction, clause contract.Clause, expected Decision) {
	outcome := CheckClause(fn, clause)
	//
	if outcome.Decision != expected {
		t.Errorf("checking %q gave %s, expected %s",
			clause.Text, outcome.Decision.String(), expected.String())
	}
}
