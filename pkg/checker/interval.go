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
	"fmt"
	"math/big"

	"github.com/blvm/go-speclock/pkg/contract"
)

// Interval provides a discrete range of integers, such as 0..1, 1..18, etc.
// An interval approximates the possible values a given expression could
// evaluate to.  Both bounds are inclusive and always finite: every verifiable
// parameter type is bounded, so the full type range serves where an infinity
// otherwise would.
type Interval struct {
	min *big.Int
	max *big.Int
}

// NewInterval creates an interval representing a given range.
func NewInterval(lower *big.Int, upper *big.Int) Interval {
	// sanity check
	if lower.Cmp(upper) > 0 {
		panic("invalid interval")
	}
	//
	return Interval{new(big.Int).Set(lower), new(big.Int).Set(upper)}
}

// NewInterval64 creates an interval representing a given range.
func NewInterval64(lower int64, upper int64) Interval {
	return NewInterval(big.NewInt(lower), big.NewInt(upper))
}

// PointInterval creates an interval holding exactly one value.
func PointInterval(val *big.Int) Interval {
	return Interval{new(big.Int).Set(val), new(big.Int).Set(val)}
}

// TypeInterval returns the interval covering every value of a bounded type.
func TypeInterval(typ contract.Type) (Interval, bool) {
	if typ.Boolean || typ.Unbounded() {
		return Interval{}, false
	}
	//
	return Interval{typ.MinValue(), typ.MaxValue()}, true
}

// MinValue returns the minimum value that this interval includes.
func (p Interval) MinValue() *big.Int {
	return p.min
}

// MaxValue returns the maximum value that this interval includes.
func (p Interval) MaxValue() *big.Int {
	return p.max
}

// IsPoint checks whether this interval holds exactly one value.
func (p Interval) IsPoint() bool {
	return p.min.Cmp(p.max) == 0
}

// Contains checks whether a given value is contained within this interval.
func (p Interval) Contains(val *big.Int) bool {
	return p.min.Cmp(val) <= 0 && p.max.Cmp(val) >= 0
}

// Within checks whether this interval is contained within the given bounds.
func (p Interval) Within(other Interval) bool {
	return p.min.Cmp(other.min) >= 0 && p.max.Cmp(other.max) <= 0
}

// Intersect narrows this interval to the overlap with another, reporting
// false when they are disjoint.
func (p Interval) Intersect(other Interval) (Interval, bool) {
	min := bigMax(p.min, other.min)
	max := bigMin(p.max, other.max)
	//
	if min.Cmp(max) > 0 {
		return Interval{}, false
	}
	//
	return Interval{min, max}, true
}

// Union returns the smallest interval enclosing both.
func (p Interval) Union(other Interval) Interval {
	return Interval{bigMin(p.min, other.min), bigMax(p.max, other.max)}
}

// Add two intervals together.
func (p Interval) Add(q Interval) Interval {
	return Interval{
		new(big.Int).Add(p.min, q.min),
		new(big.Int).Add(p.max, q.max),
	}
}

// Sub subtracts another interval from this.
func (p Interval) Sub(q Interval) Interval {
	return Interval{
		new(big.Int).Sub(p.min, q.max),
		new(big.Int).Sub(p.max, q.min),
	}
}

// Mul multiplies this interval by another, taking the extrema over the four
// corner products.
func (p Interval) Mul(q Interval) Interval {
	corners := []*big.Int{
		new(big.Int).Mul(p.min, q.min),
		new(big.Int).Mul(p.min, q.max),
		new(big.Int).Mul(p.max, q.min),
		new(big.Int).Mul(p.max, q.max),
	}
	//
	return enclosing(corners)
}

// Quo bounds truncating division of this interval by another.  The divisor
// interval must not contain zero.
func (p Interval) Quo(q Interval) Interval {
	if q.Contains(big.NewInt(0)) {
		panic("division by an interval containing zero")
	}
	//
	corners := []*big.Int{
		new(big.Int).Quo(p.min, q.min),
		new(big.Int).Quo(p.min, q.max),
		new(big.Int).Quo(p.max, q.min),
		new(big.Int).Quo(p.max, q.max),
	}
	//
	return enclosing(corners)
}

// Rem bounds the remainder of this interval by another.  The result follows
// the sign of the dividend and its magnitude is below both the divisor's
// largest magnitude and the dividend's.
func (p Interval) Rem(q Interval) Interval {
	// Largest divisor magnitude, minus one
	m := bigMax(new(big.Int).Abs(q.min), new(big.Int).Abs(q.max))
	m.Sub(m, big.NewInt(1))
	//
	lower := big.NewInt(0)
	if p.min.Sign() < 0 {
		lower = bigMax(p.min, new(big.Int).Neg(m))
	}
	//
	upper := big.NewInt(0)
	if p.max.Sign() > 0 {
		upper = bigMin(p.max, m)
	}
	//
	return Interval{lower, upper}
}

// Negate this interval.
func (p Interval) Negate() Interval {
	return Interval{new(big.Int).Neg(p.max), new(big.Int).Neg(p.min)}
}

// Abs bounds the absolute value of this interval.
func (p Interval) Abs() Interval {
	switch {
	case p.min.Sign() >= 0:
		return p
	case p.max.Sign() <= 0:
		return p.Negate()
	default:
		return Interval{big.NewInt(0), bigMax(new(big.Int).Neg(p.min), p.max)}
	}
}

// Shr bounds a flooring right shift of this interval by a (non-negative)
// shift interval.  Shifting is monotone in the shifted value for a fixed
// count, and monotone in the count for a fixed sign, so the extrema lie at
// the corners.
func (p Interval) Shr(q Interval, width uint) Interval {
	kmin, kmax := shiftCounts(q, width)
	//
	corners := []*big.Int{
		new(big.Int).Rsh(p.min, kmin),
		new(big.Int).Rsh(p.min, kmax),
		new(big.Int).Rsh(p.max, kmin),
		new(big.Int).Rsh(p.max, kmax),
	}
	//
	return enclosing(corners)
}

// Shl bounds a left shift of this interval by a (non-negative) shift
// interval, before any wrap around is applied.
func (p Interval) Shl(q Interval, width uint) Interval {
	kmin, kmax := shiftCounts(q, width)
	//
	corners := []*big.Int{
		new(big.Int).Lsh(p.min, kmin),
		new(big.Int).Lsh(p.min, kmax),
		new(big.Int).Lsh(p.max, kmin),
		new(big.Int).Lsh(p.max, kmax),
	}
	//
	return enclosing(corners)
}

// Min takes the pointwise minimum with another interval.
func (p Interval) Min(q Interval) Interval {
	return Interval{bigMin(p.min, q.min), bigMin(p.max, q.max)}
}

// Max takes the pointwise maximum with another interval.
func (p Interval) Max(q Interval) Interval {
	return Interval{bigMax(p.min, q.min), bigMax(p.max, q.max)}
}

// Clamp widens this interval to the full range of the given type whenever it
// escapes that range, mirroring wrap-around arithmetic soundly.  Intervals in
// an unbounded type pass through unchanged.
func (p Interval) Clamp(typ contract.Type) Interval {
	full, ok := TypeInterval(typ)
	//
	if !ok || p.Within(full) {
		return p
	}
	//
	return full
}

func (p Interval) String() string {
	return fmt.Sprintf("(%s..%s)", p.min.String(), p.max.String())
}

// shiftCounts extracts usable concrete shift counts from a shift interval,
// clamping at the type width (beyond which shifting is saturated anyway).
func shiftCounts(q Interval, width uint) (kmin uint, kmax uint) {
	limit := uint64(width)
	if limit == 0 {
		limit = 256
	}
	//
	kmin, kmax = uint(limit), uint(limit)
	//
	if q.min.IsUint64() && q.min.Uint64() < limit {
		kmin = uint(q.min.Uint64())
	}
	//
	if q.max.IsUint64() && q.max.Uint64() < limit {
		kmax = uint(q.max.Uint64())
	}
	//
	return kmin, kmax
}

func enclosing(values []*big.Int) Interval {
	min, max := values[0], values[0]
	//
	for _, v := range values[1:] {
		min = bigMin(min, v)
		max = bigMax(max, v)
	}
	//
	return Interval{min, max}
}

func bigMin(a *big.Int, b *big.Int) *big.Int {
	if a.Cmp(b) <= 0 {
		return a
	}
	//
	return b
}

func bigMax(a *big.Int, b *big.Int) *big.Int {
	if a.Cmp(b) >= 0 {
		return a
	}
	//
	return b
}
