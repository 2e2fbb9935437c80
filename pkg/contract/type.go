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

// Type describes the semantic type of an expression within a contract.  A
// numeric type is characterised by its signedness and bit width, where a
// width of zero indicates an unbounded (mathematical) integer.  Boolean is
// the type of conditions and connectives.
type Type struct {
	// Indicates this is the boolean type, in which case the remaining
	// fields are meaningless.
	Boolean bool
	// Indicates a two's complement representation when the width is
	// non-zero, otherwise a mathematical integer which can be negative.
	Signed bool
	// Width in bits, or zero for an unbounded integer.
	Width uint
}

// BoolType is the type of conditions, comparisons and connectives.
var BoolType = Type{Boolean: true}

// IntType is the type of unbounded (mathematical) integers, as used for
// literals before they adopt a context and for specification constants.
var IntType = Type{Signed: true}

// NumericTypeOf parses the name of a Go integer type (e.g. "uint64") into its
// semantic numeric type, returning false if the name does not identify a
// supported type.  The machine-sized "int" and "uint" are pinned at 64 bits.
func NumericTypeOf(name string) (Type, bool) {
	switch name {
	case "int8":
		return Type{Signed: true, Width: 8}, true
	case "int16":
		return Type{Signed: true, Width: 16}, true
	case "int32":
		return Type{Signed: true, Width: 32}, true
	case "int64", "int":
		return Type{Signed: true, Width: 64}, true
	case "uint8", "byte":
		return Type{Width: 8}, true
	case "uint16":
		return Type{Width: 16}, true
	case "uint32":
		return Type{Width: 32}, true
	case "uint64", "uint":
		return Type{Width: 64}, true
	}
	//
	return Type{}, false
}

// IsNumeric checks whether this type is any integer type (bounded or not).
func (t Type) IsNumeric() bool {
	return !t.Boolean
}

// Unbounded checks whether this is the unbounded integer type.
func (t Type) Unbounded() bool {
	return !t.Boolean && t.Width == 0
}

// MinValue returns the least value representable in this type, or nil when
// the type is unbounded (or boolean).
func (t Type) MinValue() *big.Int {
	if t.Boolean || t.Width == 0 {
		return nil
	} else if !t.Signed {
		return big.NewInt(0)
	}
	// -2^(w-1)
	bound := new(big.Int).Lsh(big.NewInt(1), t.Width-1)
	//
	return bound.Neg(bound)
}

// MaxValue returns the greatest value representable in this type, or nil when
// the type is unbounded (or boolean).
func (t Type) MaxValue() *big.Int {
	if t.Boolean || t.Width == 0 {
		return nil
	}
	//
	width := t.Width
	if t.Signed {
		width--
	}
	// 2^w - 1
	bound := new(big.Int).Lsh(big.NewInt(1), width)
	//
	return bound.Sub(bound, big.NewInt(1))
}

// Representable checks whether a given value fits within this type without
// truncation.  All values are representable in the unbounded type.
func (t Type) Representable(val *big.Int) bool {
	if t.Boolean {
		return false
	} else if t.Width == 0 {
		return true
	}
	//
	return t.MinValue().Cmp(val) <= 0 && t.MaxValue().Cmp(val) >= 0
}

// Wrap reduces a value into the representable range of this type using two's
// complement wrap around, mirroring what overflowing machine arithmetic does.
// Unbounded types pass values through unchanged.
func (t Type) Wrap(val *big.Int) *big.Int {
	if t.Boolean {
		panic("cannot wrap into the boolean type")
	} else if t.Width == 0 || t.Representable(val) {
		return val
	}
	//
	modulus := new(big.Int).Lsh(big.NewInt(1), t.Width)
	wrapped := new(big.Int).Mod(val, modulus)
	// Mod always yields a non-negative value; fold the upper half of the
	// range back down for signed types.
	if t.Signed && wrapped.Cmp(t.MaxValue()) > 0 {
		wrapped.Sub(wrapped, modulus)
	}
	//
	return wrapped
}

// Promote determines the common type of two numeric operands, or fails when
// they are incompatible.  Mixing signed and unsigned bounded types is
// rejected (as Go itself would reject it) rather than silently reinterpreted;
// differing widths of the same signedness promote to the larger.  The
// unbounded type only combines with itself, since mixing mathematical and
// machine arithmetic in one clause has no single faithful semantics.
func Promote(a Type, b Type) (Type, error) {
	switch {
	case a.Boolean || b.Boolean:
		return Type{}, fmt.Errorf("numeric operand expected")
	case a == b:
		return a, nil
	case a.Width == 0 || b.Width == 0:
		return Type{}, fmt.Errorf("cannot mix %s and %s", a.String(), b.String())
	case a.Signed != b.Signed:
		return Type{}, fmt.Errorf("cannot mix %s and %s", a.String(), b.String())
	case a.Width > b.Width:
		return a, nil
	default:
		return b, nil
	}
}

func (t Type) String() string {
	switch {
	case t.Boolean:
		return "bool"
	case t.Width == 0:
		return "int*"
	case t.Signed:
		return fmt.Sprintf("i%d", t.Width)
	default:
		return fmt.Sprintf("u%d", t.Width)
	}
}
