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
	"fmt"
	"math/big"
	"strings"

	"github.com/blvm/go-speclock/pkg/contract"
)

// Answer is a solver's check-sat verdict.
type Answer uint8

const (
	// Unsure covers unknown answers and timeouts.
	Unsure Answer = iota
	// Sat means the query's assertions are jointly satisfiable.
	Sat
	// Unsat means they are contradictory.
	Unsat
)

func (a Answer) String() string {
	switch a {
	case Sat:
		return "sat"
	case Unsat:
		return "unsat"
	default:
		return "unknown"
	}
}

// Verdict is a parsed solver response: the answer plus, when satisfiable, the
// model restricted to the query's declared variables.  Signed variables are
// decoded out of two's complement into their signed values.
type Verdict struct {
	Answer Answer
	Model  contract.Assignment
}

// ParseOutput reads a solver's textual response to a query.  Everything after
// the first check-sat answer which is not a readable model is ignored, since
// solvers respond to (get-model) after unsat with an error s-expression.
func ParseOutput(output string, vars map[string]contract.Type) (Verdict, error) {
	terms, err := ParseAll(output)
	if err != nil {
		return Verdict{}, err
	}
	//
	if len(terms) == 0 {
		return Verdict{}, fmt.Errorf("empty solver response")
	}
	//
	answer, ok := terms[0].(*Symbol)
	if !ok {
		return Verdict{}, fmt.Errorf("malformed solver response: %s", terms[0].String())
	}
	//
	switch answer.Value {
	case "sat":
		model := contract.Assignment{}
		//
		for _, term := range terms[1:] {
			readModel(term, vars, model)
		}
		//
		return Verdict{Sat, model}, nil
	case "unsat":
		return Verdict{Unsat, nil}, nil
	case "unknown", "timeout":
		return Verdict{Unsure, nil}, nil
	}
	//
	return Verdict{}, fmt.Errorf("malformed solver response: %s", answer.Value)
}

// readModel extracts define-fun bindings for declared variables, recursing
// through wrapper lists such as (model ...).
func readModel(term SExp, vars map[string]contract.Type, model contract.Assignment) {
	list, ok := term.(*List)
	if !ok {
		return
	}
	//
	if list.MatchSymbols(2, "define-fun") && list.Len() == 5 {
		name, ok := list.Elements[1].(*Symbol)
		if !ok {
			return
		}
		//
		typ, declared := vars[name.Value]
		if !declared {
			return
		}
		//
		if value, ok := decodeValue(list.Elements[4], typ); ok {
			model[name.Value] = value
		}
		//
		return
	}
	//
	for _, element := range list.Elements {
		readModel(element, vars, model)
	}
}

// decodeValue reads a bit-vector constant in any of the shapes solvers print
// (#x…, #b…, (_ bvN w)), reinterpreting the two's complement pattern as a
// signed value where the declared type requires it.
func decodeValue(term SExp, typ contract.Type) (*big.Int, bool) {
	var (
		value = new(big.Int)
		ok    bool
	)
	//
	switch v := term.(type) {
	case *Symbol:
		switch {
		case strings.HasPrefix(v.Value, "#x"):
			_, ok = value.SetString(v.Value[2:], 16)
		case strings.HasPrefix(v.Value, "#b"):
			_, ok = value.SetString(v.Value[2:], 2)
		}
	case *List:
		if v.Len() == 3 && v.MatchSymbols(2, "_") {
			if sym, isSym := v.Elements[1].(*Symbol); isSym && strings.HasPrefix(sym.Value, "bv") {
				_, ok = value.SetString(sym.Value[2:], 10)
			}
		}
	}
	//
	if !ok {
		return nil, false
	}
	// Fold the upper half of the range back down for signed types
	if typ.Signed && typ.Width > 0 && value.Bit(int(typ.Width-1)) == 1 {
		modulus := new(big.Int).Lsh(big.NewInt(1), typ.Width)
		value.Sub(value, modulus)
	}
	//
	return value, true
}
