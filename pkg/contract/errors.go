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

import "fmt"

// UnsupportedExpressionError indicates a clause used a construct outside the
// supported expression language, such as an unknown function call or an
// identifier which resolves to nothing.  The clause it belongs to reports an
// error outcome; it is never treated as verified.
type UnsupportedExpressionError struct {
	// Construct which was not supported.
	Construct string
	// Span of the clause text on which this error is reported.
	Span Span
}

func (p *UnsupportedExpressionError) Error() string {
	return fmt.Sprintf("unsupported expression: %s", p.Construct)
}

// TypeMismatchError indicates two sub-expressions were combined whose types
// are incompatible (e.g. a signed and an unsigned operand, or a literal not
// representable in its context type).
type TypeMismatchError struct {
	// Description of the mismatch.
	Msg string
	// Span of the clause text on which this error is reported.
	Span Span
}

func (p *TypeMismatchError) Error() string {
	return p.Msg
}
