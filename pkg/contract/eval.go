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
	"fmt"
	"math/big"
)

// Assignment maps variable names to concrete values.  The function's return
// value is keyed as "result"; old(p) evaluates to the same value as p, since
// the supported fragment has no mutation.
type Assignment map[string]*big.Int

// maxIterations bounds quantifier ranges and unbounded shift amounts during
// concrete evaluation, so a pathological clause cannot hang the evaluator.
const maxIterations = 1 << 16

// EvalBool evaluates a bound boolean expression under a concrete assignment.
// Arithmetic follows the semantics of the host language exactly: fixed-width
// operations wrap, division truncates towards zero, right shifts of signed
// values are arithmetic.
func EvalBool(e Expr, env Assignment) (bool, error) {
	switch v := e.(type) {
	case *BoolLit:
		return v.Value, nil
	case *Not:
		b, err := EvalBool(v.Arg, env)
		return !b, err
	case *Binary:
		return evalBoolBinary(v, env)
	case *Forall:
		return evalForall(v, env)
	}
	//
	return false, fmt.Errorf("not a condition: %s", e.String())
}

// EvalNum evaluates a bound numeric expression under a concrete assignment.
func EvalNum(e Expr, env Assignment) (*big.Int, error) {
	switch v := e.(type) {
	case *Number:
		return v.Value, nil
	case *Variable:
		val, ok := env[v.Name]
		if !ok {
			return nil, fmt.Errorf("unassigned variable: %s", v.Name)
		}
		//
		return val, nil
	case *Negate:
		arg, err := EvalNum(v.Arg, env)
		if err != nil {
			return nil, err
		}
		//
		return wrap(v.Type(), new(big.Int).Neg(arg)), nil
	case *Binary:
		return evalNumBinary(v, env)
	case *Call:
		return evalCall(v, env)
	case *Convert:
		arg, err := EvalNum(v.Arg, env)
		if err != nil {
			return nil, err
		}
		//
		return v.To.Wrap(arg), nil
	case *IfThenElse:
		cond, err := EvalBool(v.Cond, env)
		if err != nil {
			return nil, err
		} else if cond {
			return EvalNum(v.Then, env)
		}
		//
		return EvalNum(v.Else, env)
	}
	//
	return nil, fmt.Errorf("not a numeric expression: %s", e.String())
}

func evalBoolBinary(e *Binary, env Assignment) (bool, error) {
	// Connectives short circuit
	switch e.Op {
	case OpAnd:
		if lhs, err := EvalBool(e.Lhs, env); err != nil || !lhs {
			return false, err
		}
		//
		return EvalBool(e.Rhs, env)
	case OpOr:
		if lhs, err := EvalBool(e.Lhs, env); err != nil || lhs {
			return lhs, err
		}
		//
		return EvalBool(e.Rhs, env)
	}
	//
	lhs, err := EvalNum(e.Lhs, env)
	if err != nil {
		return false, err
	}
	//
	rhs, err := EvalNum(e.Rhs, env)
	if err != nil {
		return false, err
	}
	//
	c := lhs.Cmp(rhs)
	//
	switch e.Op {
	case OpEq:
		return c == 0, nil
	case OpNeq:
		return c != 0, nil
	case OpLt:
		return c < 0, nil
	case OpLeq:
		return c <= 0, nil
	case OpGt:
		return c > 0, nil
	case OpGeq:
		return c >= 0, nil
	}
	//
	return false, fmt.Errorf("not a condition: %s", e.String())
}

func evalNumBinary(e *Binary, env Assignment) (*big.Int, error) {
	lhs, err := EvalNum(e.Lhs, env)
	if err != nil {
		return nil, err
	}
	//
	rhs, err := EvalNum(e.Rhs, env)
	if err != nil {
		return nil, err
	}
	//
	val := new(big.Int)
	//
	switch e.Op {
	case OpAdd:
		val.Add(lhs, rhs)
	case OpSub:
		val.Sub(lhs, rhs)
	case OpMul:
		val.Mul(lhs, rhs)
	case OpDiv:
		if rhs.Sign() == 0 {
			return nil, fmt.Errorf("division by zero")
		}
		// Truncating division, as in the host language
		val.Quo(lhs, rhs)
	case OpRem:
		if rhs.Sign() == 0 {
			return nil, fmt.Errorf("division by zero")
		}
		//
		val.Rem(lhs, rhs)
	case OpShl, OpShr:
		return evalShift(e, lhs, rhs)
	default:
		return nil, fmt.Errorf("not a numeric operator: %s", e.Op.String())
	}
	//
	return wrap(e.Type(), val), nil
}

func evalShift(e *Binary, lhs *big.Int, rhs *big.Int) (*big.Int, error) {
	typ := e.Type()
	//
	if rhs.Sign() < 0 {
		return nil, fmt.Errorf("negative shift amount")
	}
	// A shift count at or beyond the width drains the value entirely, so
	// clamp rather than materialising an enormous intermediate.
	count := uint(maxIterations)
	if rhs.IsUint64() && rhs.Uint64() < maxIterations {
		count = uint(rhs.Uint64())
	} else if typ.Width == 0 {
		return nil, fmt.Errorf("shift amount too large")
	}
	//
	if typ.Width != 0 && count > typ.Width {
		count = typ.Width
	}
	//
	if e.Op == OpShl {
		return wrap(typ, new(big.Int).Lsh(lhs, count)), nil
	}
	// Rsh floors, which is exactly the arithmetic shift of the host
	// language for signed values and the logical shift for unsigned ones.
	return new(big.Int).Rsh(lhs, count), nil
}

func evalCall(e *Call, env Assignment) (*big.Int, error) {
	args := make([]*big.Int, len(e.Args))
	//
	for i, a := range e.Args {
		arg, err := EvalNum(a, env)
		if err != nil {
			return nil, err
		}
		//
		args[i] = arg
	}
	//
	switch e.Name {
	case "min":
		if args[0].Cmp(args[1]) <= 0 {
			return args[0], nil
		}
		//
		return args[1], nil
	case "max":
		if args[0].Cmp(args[1]) >= 0 {
			return args[0], nil
		}
		//
		return args[1], nil
	case "abs":
		return wrap(e.Type(), new(big.Int).Abs(args[0])), nil
	}
	//
	return nil, fmt.Errorf("unknown function: %s", e.Name)
}

func evalForall(e *Forall, env Assignment) (bool, error) {
	lo, err := EvalNum(e.Lo, env)
	if err != nil {
		return false, err
	}
	//
	hi, err := EvalNum(e.Hi, env)
	if err != nil {
		return false, err
	}
	// An empty range holds vacuously
	if lo.Cmp(hi) > 0 {
		return true, nil
	}
	//
	width := new(big.Int).Sub(hi, lo)
	if !width.IsUint64() || width.Uint64() >= maxIterations {
		return false, fmt.Errorf("quantifier range too large to evaluate")
	}
	// Shadow any outer binding of the same name
	saved, shadowed := env[e.Name]
	defer func() {
		if shadowed {
			env[e.Name] = saved
		} else {
			delete(env, e.Name)
		}
	}()
	//
	for i := new(big.Int).Set(lo); i.Cmp(hi) <= 0; i.Add(i, big.NewInt(1)) {
		env[e.Name] = new(big.Int).Set(i)
		//
		ok, err := EvalBool(e.Body, env)
		if err != nil || !ok {
			return false, err
		}
	}
	//
	return true, nil
}

func wrap(typ Type, val *big.Int) *big.Int {
	if typ.Boolean {
		return val
	}
	//
	return typ.Wrap(val)
}
