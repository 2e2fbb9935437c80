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

import (
	"math/big"
	"strings"
	"testing"

	"github.com/blvm/go-speclock/pkg/contract"
)

func TestEncode_00(t *testing.T) {
	// precondition satisfiability over the declared domain
	fn := makeFunction(t, "height", u64(), u64(), "")
	//
	query := encodePre(t, fn, "height < 100")
	//
	checkScript(t, query,
		"(declare-const height (_ BitVec 64))",
		"(assert (bvult height (_ bv100 64)))",
		"(check-sat)")
}

func TestEncode_01(t *testing.T) {
	// postcondition refutation: preconditions, result definition, negation
	fn := makeFunction(t, "height", u64(), u64(), "height / 2")
	fn.Clauses = append(fn.Clauses, pre(t, fn, "height > 10"))
	//
	query := encodePost(t, fn, "result <= height")
	//
	checkScript(t, query,
		"(assert (bvugt height (_ bv10 64)))",
		"(assert (= result (bvudiv height (_ bv2 64))))",
		"(assert (not (bvule result height)))")
}

func TestEncode_02(t *testing.T) {
	// signed operators for signed operands
	fn := makeFunction(t, "amount", i64(), i64(), "amount / 3")
	//
	query := encodePost(t, fn, "result <= amount")
	//
	checkScript(t, query,
		"(assert (= result (bvsdiv amount (_ bv3 64))))",
		"(assert (not (bvsle result amount)))")
}

func TestEncode_03(t *testing.T) {
	// a symbolic divisor gets a non-zero guard
	fn := makeFunction(t, "height", u64(), u64(), "100 / height")
	//
	query := encodePost(t, fn, "result <= 100")
	//
	checkScript(t, query, "(assert (distinct height (_ bv0 64)))")
}

func TestEncode_04(t *testing.T) {
	// negative literals wrap into two's complement
	fn := makeFunction(t, "amount", i64(), i64(), "")
	//
	query := encodePre(t, fn, "amount > -5")
	//
	checkScript(t, query, "(_ bv18446744073709551611 64)")
}

func TestEncode_05(t *testing.T) {
	// literal shift amounts clamp at the width rather than wrapping
	fn := makeFunction(t, "height", u64(), u64(), "")
	//
	query := encodePre(t, fn, "height >> 64 == 0")
	//
	checkScript(t, query, "(bvlshr height (_ bv64 64))")
}

func TestEncode_06(t *testing.T) {
	// signed right shift is arithmetic
	fn := makeFunction(t, "amount", i64(), i64(), "amount >> 1")
	//
	query := encodePost(t, fn, "result <= amount")
	//
	checkScript(t, query, "(bvashr amount (_ bv1 64))")
}

func TestEncode_07(t *testing.T) {
	// bounded quantifier becomes a range-guarded forall
	fn := makeFunction(t, "height", u64(), u64(), "")
	//
	query := encodePre(t, fn, "forall i in 0..100: height >> i <= height")
	//
	checkScript(t, query,
		"(forall ((i (_ BitVec 64)))",
		"(=> (and (bvuge i (_ bv0 64)) (bvule i (_ bv100 64)))")
}

func TestEncode_08(t *testing.T) {
	// min / max / abs lower to ite
	fn := makeFunction(t, "amount", i64(), i64(), "abs(amount)")
	//
	query := encodePost(t, fn, "result >= min(amount, 0)")
	//
	checkScript(t, query,
		"(ite (bvslt amount (_ bv0 64)) (bvneg amount) amount)",
		"(ite (bvslt amount (_ bv0 64)) amount (_ bv0 64))")
}

func TestEncode_09(t *testing.T) {
	// adopted literal arithmetic encodes at the context width
	fn := makeFunction(t, "height", u64(), u64(), "")
	//
	query := encodePre(t, fn, "height < 2 + 3")
	//
	checkScript(t, query, "(assert (bvult height (bvadd (_ bv2 64) (_ bv3 64))))")
}

func TestEncode_10(t *testing.T) {
	// differing widths are reconciled by extension
	fn := &contract.SpecFunction{
		Name:   "pkg.Fn",
		Params: []contract.Param{{Name: "n", Type: contract.Type{Width: 8}}},
		Result: u64(),
	}
	//
	query := encodePre(t, fn, "n < 100")
	//
	checkScript(t, query, "(declare-const n (_ BitVec 8))", "(_ bv100 8)")
}

func TestParseOutput_00(t *testing.T) {
	verdict := checkOutput(t, "unsat", nil)
	//
	if verdict.Answer != Unsat {
		t.Errorf("answer was %s, expected unsat", verdict.Answer.String())
	}
}

func TestParseOutput_01(t *testing.T) {
	vars := map[string]contract.Type{"height": u64()}
	output := "sat\n(model\n  (define-fun height () (_ BitVec 64) #x0000000000000064)\n)"
	//
	verdict := checkOutput(t, output, vars)
	//
	if verdict.Answer != Sat {
		t.Fatalf("answer was %s, expected sat", verdict.Answer.String())
	} else if verdict.Model["height"].Cmp(big.NewInt(100)) != 0 {
		t.Errorf("height was %s, expected 100", verdict.Model["height"])
	}
}

func TestParseOutput_02(t *testing.T) {
	// signed values fold out of two's complement
	vars := map[string]contract.Type{"amount": i64()}
	output := "sat\n((define-fun amount () (_ BitVec 64) (_ bv18446744073709551615 64)))"
	//
	verdict := checkOutput(t, output, vars)
	//
	if verdict.Model["amount"].Cmp(big.NewInt(-1)) != 0 {
		t.Errorf("amount was %s, expected -1", verdict.Model["amount"])
	}
}

func TestParseOutput_03(t *testing.T) {
	// binary constants and undeclared symbols
	vars := map[string]contract.Type{"n": {Width: 8}}
	output := "sat\n(model (define-fun n () (_ BitVec 8) #b00001010) (define-fun skolem!0 () (_ BitVec 8) #b1))"
	//
	verdict := checkOutput(t, output, vars)
	//
	if verdict.Model["n"].Cmp(big.NewInt(10)) != 0 {
		t.Errorf("n was %s, expected 10", verdict.Model["n"])
	} else if len(verdict.Model) != 1 {
		t.Errorf("model kept %d entries, expected 1", len(verdict.Model))
	}
}

func TestParseOutput_04(t *testing.T) {
	verdict := checkOutput(t, "unknown", nil)
	//
	if verdict.Answer != Unsure {
		t.Errorf("answer was %s, expected unknown", verdict.Answer.String())
	}
}

func TestParseOutput_05(t *testing.T) {
	// unsat followed by a model error is still unsat
	verdict := checkOutput(t, "unsat\n(error \"model is not available\")", nil)
	//
	if verdict.Answer != Unsat {
		t.Errorf("answer was %s, expected unsat", verdict.Answer.String())
	}
}

func TestParseOutput_06(t *testing.T) {
	if _, err := ParseOutput("", nil); err == nil {
		t.Error("empty output did not fail")
	}
	//
	if _, err := ParseOutput("segmentation fault", nil); err == nil {
		t.Error("garbage output did not fail")
	}
}

// ===================================================================
// Helpers
// ===================================================================

func checkScript(t *testing.T, query Query, fragments ...string) {
	t.Helper()
	//
	for _, fragment := range fragments {
		if !strings.Contains(query.Script, fragment) {
			t.Errorf("script lacks %q:\n%s", fragment, query.Script)
		}
	}
}

func checkOutput(t *testing.T, output string, vars map[string]contract.Type) Verdict {
	t.Helper()
	//
	verdict, err := ParseOutput(output, vars)
	if err != nil {
		t.Fatalf("parsing output failed: %v", err)
	}
	//
	return verdict
}

func encodePre(t *testing.T, fn *contract.SpecFunction, text string) Query {
	t.Helper()
	//
	query, err := EncodePrecondition(fn, pre(t, fn, text))
	if err != nil {
		t.Fatalf("encoding %q failed: %v", text, err)
	}
	//
	return query
}

func encodePost(t *testing.T, fn *contract.SpecFunction, text string) Query {
	t.Helper()
	//
	query, err := EncodePostcondition(fn, post(t, fn, text))
	if err != nil {
		t.Fatalf("encoding %q failed: %v", text, err)
	}
	//
	return query
}

func pre(t *testing.T, fn *contract.SpecFunction, text string) contract.Clause {
	return makeClause(t, fn, contract.Precondition, text)
}

func post(t *testing.T, fn *contract.SpecFunction, text string) contract.Clause {
	return makeClause(t, fn, contract.Postcondition, text)
}

func makeClause(t *testing.T, fn *contract.SpecFunction, kind contract.ClauseKind, text string) contract.Clause {
	t.Helper()
	//
	parsed, err := contract.Parse(text)
	if err != nil {
		t.Fatalf("parsing %q failed: %v", text, err)
	}
	//
	expr, berr := contract.Bind(parsed, fn, kind, nil)
	if berr != nil {
		t.Fatalf("binding %q failed: %v", text, berr)
	}
	//
	return contract.Clause{Kind: kind, Text: text, Expr: expr}
}

func makeFunction(t *testing.T, param string, paramType contract.Type, result contract.Type, body string) *contract.SpecFunction {
	t.Helper()
	//
	fn := &contract.SpecFunction{
		Name:   "pkg.Fn",
		Params: []contract.Param{{Name: param, Type: paramType}},
		Result: result,
	}
	//
	if body != "" {
		parsed, err := contract.Parse(body)
		if err != nil {
			t.Fatalf("parsing body %q failed: %v", body, err)
		}
		//
		bound, berr := contract.BindBody(parsed, fn, nil)
		if berr != nil {
			t.Fatalf("binding body %q failed: %v", body, berr)
		}
		//
		fn.Body = bound
	}
	//
	return fn
}

func u64() contract.Type {
	return contract.Type{Width: 64}
}

func i64() contract.Type {
	return contract.Type{Signed: true, Width: 64}
}
