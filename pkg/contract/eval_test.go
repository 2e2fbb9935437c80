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
	"math"
	"math/big"
	"testing"
)

func TestEval_00(t *testing.T) {
	checkEval(t, Precondition, "height >= 0", env("height", 0, "amount", 0), true)
}

func TestEval_01(t *testing.T) {
	checkEval(t, Precondition, "height > 0", env("height", 0, "amount", 0), false)
}

func TestEval_02(t *testing.T) {
	// truncating division
	checkEval(t, Precondition, "amount / 10 == -1", env("height", 0, "amount", -19), true)
}

func TestEval_03(t *testing.T) {
	// remainder takes the sign of the dividend
	checkEval(t, Precondition, "amount % 10 == -9", env("height", 0, "amount", -19), true)
}

func TestEval_04(t *testing.T) {
	// unsigned wrap around on addition
	checkEval(t, Precondition, "height + 1 == 0", envMaxU64(), true)
}

func TestEval_05(t *testing.T) {
	// arithmetic right shift of a negative value floors
	checkEval(t, Precondition, "amount >> 1 == -3", env("height", 0, "amount", -5), true)
}

func TestEval_06(t *testing.T) {
	// shifting an unsigned value beyond its width drains it
	checkEval(t, Precondition, "height >> 64 == 0", envMaxU64(), true)
}

func TestEval_07(t *testing.T) {
	// left shift wraps in the value's type
	checkEval(t, Precondition, "height << 63 == 0", env("height", 2, "amount", 0), true)
}

func TestEval_08(t *testing.T) {
	checkEval(t, Precondition, "min(height, 3) == 3 && max(height, 3) == height",
		env("height", 7, "amount", 0), true)
}

func TestEval_09(t *testing.T) {
	checkEval(t, Precondition, "abs(amount) == 5", env("height", 0, "amount", -5), true)
}

func TestEval_10(t *testing.T) {
	checkEval(t, Precondition, "forall i in 1..100: height / i <= height",
		env("height", 1000, "amount", 0), true)
}

func TestEval_11(t *testing.T) {
	// empty quantifier range holds vacuously
	checkEval(t, Precondition, "forall i in 10..0: false", env("height", 0, "amount", 0), true)
}

func TestEval_12(t *testing.T) {
	checkEval(t, Precondition, "forall i in 0..10: i < 10", env("height", 0, "amount", 0), false)
}

func TestEval_13(t *testing.T) {
	// short circuit avoids the division by zero
	checkEval(t, Precondition, "height == 0 || 10 / height > 0", env("height", 0, "amount", 0), true)
}

func TestEval_14(t *testing.T) {
	// old(p) evaluates to p
	checkEval(t, Postcondition, "result <= old(height)",
		env("height", 5, "amount", 0, "result", 5), true)
}

func TestEval_15(t *testing.T) {
	// division by zero is an evaluation error, not a verdict
	checkEvalFails(t, Precondition, "10 / height > 0", env("height", 0, "amount", 0))
}

func TestEval_16(t *testing.T) {
	checkEvalFails(t, Precondition, "height >> amount == 0", env("height", 1, "amount", -1))
}

func env(pairs ...any) Assignment {
	assignment := Assignment{}
	//
	for i := 0; i < len(pairs); i += 2 {
		assignment[pairs[i].(string)] = big.NewInt(int64(pairs[i+1].(int)))
	}
	//
	return assignment
}

func envMaxU64() Assignment {
	return Assignment{
		"height": new(big.Int).SetUint64(math.MaxUint64),
		"amount": big.NewInt(0),
	}
}

func checkEval(t *testing.T, kind ClauseKind, input string, env Assignment, expected bool) {
	expr := checkBinds(t, kind, input)
	//
	actual, err := EvalBool(expr, env)
	if err != nil {
		t.Fatalf("evaluating %q failed: %v", input, err)
	}
	//
	if actual != expected {
		t.Errorf("evaluating %q gave %v, expected %v", input, actual, expected)
	}
}

func checkEvalFails(t *testing.T, kind ClauseKind, input string, env Assignment) {
	expr := checkBinds(t, kind, input)
	//
	if _, err := EvalBool(expr, env); err == nil {
		t.Errorf("evaluating %q should have failed", input)
	}
}
