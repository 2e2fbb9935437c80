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
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"math/big"
	"testing"

	"github.com/blvm/go-speclock/pkg/contract"
)

func TestBody_00(t *testing.T) {
	checkBody(t, "func f(x uint64) uint64 { return x + 1 }", "(x + 1)")
}

func TestBody_01(t *testing.T) {
	// locals substitute at use sites, later bindings shadow earlier ones
	checkBody(t, `func f(x uint64) uint64 {
		y := x * 2
		y = y + 1
		return y
	}`, "((x * 2) + 1)")
}

func TestBody_02(t *testing.T) {
	// early returns fold into selections
	checkBody(t, `func f(x int64) int64 {
		if x < 0 {
			return -x
		}
		if x > 100 {
			return 100
		}
		return x
	}`, "if (x < 0) then -x else if (x > 100) then 100 else x")
}

func TestBody_03(t *testing.T) {
	// else-if chains
	checkBody(t, `func f(x int64) int64 {
		if x < 10 {
			return 0
		} else if x < 20 {
			return 1
		} else {
			return 2
		}
	}`, "if (x < 10) then 0 else if (x < 20) then 1 else 2")
}

func TestBody_04(t *testing.T) {
	// conversions become explicit width changes
	checkBody(t, "func f(x uint32) uint64 { return uint64(x) * 2 }", "(u64(x) * 2)")
}

func TestBody_05(t *testing.T) {
	// loops leave the fragment
	checkNoBody(t, `func f(x uint64) uint64 {
		total := x
		for i := uint64(0); i < 10; i++ {
			total = total + i
		}
		return total
	}`)
}

func TestBody_06(t *testing.T) {
	// arbitrary calls leave the fragment
	checkNoBody(t, "func f(x uint64) uint64 { return helper(x) }")
	// so do branches which fall off the end
	checkNoBody(t, `func f(x uint64) uint64 {
		if x > 0 {
			x = x - 1
		}
		return x
	}`)
}

func TestBody_07(t *testing.T) {
	// bitwise operators have no contract counterpart
	checkNoBody(t, "func f(x uint64) uint64 { return x & 7 }")
}

func TestBody_08(t *testing.T) {
	// a binding shadowing a parameter inside a returning branch must not
	// leak into the path after the conditional
	body := translate(t, `func f(x uint64) uint64 {
		if x > 5 {
			x := uint64(0)
			return x
		}
		return x
	}`)
	//
	if body == nil {
		t.Fatal("body was not translated")
	}
	//
	checkEval(t, body, 3, 3)
	checkEval(t, body, 7, 0)
}

func TestBody_09(t *testing.T) {
	// bindings in one arm are invisible to the other
	body := translate(t, `func f(x uint64) uint64 {
		if x > 5 {
			y := x * 2
			return y
		} else {
			y := x + 1
			return y
		}
	}`)
	//
	if body == nil {
		t.Fatal("body was not translated")
	}
	//
	checkEval(t, body, 3, 4)
	checkEval(t, body, 7, 14)
}

// ===================================================================
// Helpers
// ===================================================================

func translate(t *testing.T, src string) contract.Expr {
	t.Helper()
	//
	fset := token.NewFileSet()
	//
	file, err := parser.ParseFile(fset, "body.go", fmt.Sprintf("package p\n%s", src), 0)
	if err != nil {
		t.Fatalf("unparseable fixture: %v", err)
	}
	//
	decl := file.Decls[0].(*ast.FuncDecl)
	//
	params, result, serr := signature(decl)
	if serr != nil {
		t.Fatalf("unusable fixture signature: %v", serr)
	}
	//
	fn := &contract.SpecFunction{Name: "p.f", Params: params, Result: result}
	//
	return symbolicBody(decl.Body, fn, nil)
}

func checkBody(t *testing.T, src string, expected string) {
	t.Helper()
	//
	body := translate(t, src)
	//
	if body == nil {
		t.Fatal("body was not translated")
	} else if body.String() != expected {
		t.Errorf("body was %s, expected %s", body.String(), expected)
	}
}

func checkNoBody(t *testing.T, src string) {
	t.Helper()
	//
	if body := translate(t, src); body != nil {
		t.Errorf("untranslatable body yielded %s", body.String())
	}
}

func checkEval(t *testing.T, body contract.Expr, x int64, expected int64) {
	t.Helper()
	//
	value, err := contract.EvalNum(body, contract.Assignment{"x": big.NewInt(x)})
	//
	if err != nil {
		t.Fatalf("evaluation failed: %v", err)
	} else if value.Int64() != expected {
		t.Errorf("f(%d) evaluated to %s, expected %d", x, value.String(), expected)
	}
}
