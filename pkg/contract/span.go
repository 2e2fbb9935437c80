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

// Span identifies a contiguous range of characters within the raw text of a
// contract clause.  Spans are half open, meaning that the end is not
// included.
type Span struct {
	// The first character of this span.
	start int
	// One past the last character of this span.
	end int
}

// NewSpan constructs a span whilst checking the internal invariants are
// maintained.
func NewSpan(start int, end int) Span {
	if start > end {
		panic("invalid span")
	}

	return Span{start, end}
}

// Start returns the starting index of this span in the original clause text.
func (p Span) Start() int {
	return p.start
}

// End returns one past the last index of this span in the original clause
// text.
func (p Span) End() int {
	return p.end
}

// Length returns the number of characters covered by this span.
func (p Span) Length() int {
	return p.end - p.start
}

// SyntaxError is a structured error which retains the span of the clause text
// where the error occurred, along with an error message.
type SyntaxError struct {
	// Raw clause text being parsed.
	text []rune
	// Range of the clause text on which this error is reported.
	span Span
	// Error message being reported.
	msg string
}

// Span returns the span of the clause text on which this error is reported.
func (p *SyntaxError) Span() Span {
	return p.span
}

// Message returns the message to be reported.
func (p *SyntaxError) Message() string {
	return p.msg
}

// Text returns the portion of the clause text this error covers.
func (p *SyntaxError) Text() string {
	start := min(p.span.start, len(p.text))
	end := min(p.span.end, len(p.text))
	//
	return string(p.text[start:end])
}

// Error implements the error interface.
func (p *SyntaxError) Error() string {
	return fmt.Sprintf("%d:%d: %s", p.span.Start(), p.span.End(), p.msg)
}
