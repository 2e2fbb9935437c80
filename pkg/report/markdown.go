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
package report

import (
	"fmt"
	"io"
)

// WriteMarkdown renders the report as a markdown document, one table row per
// clause.
func WriteMarkdown(w io.Writer, report *Report) {
	fmt.Fprintln(w, "# Verification Report")
	fmt.Fprintln(w)
	//
	s := report.Summary
	fmt.Fprintf(w, "%d function(s): %d verified, %d falsified, %d unknown, %d error(s)\n",
		s.Total, s.Verified, s.Falsified, s.Unknown, s.Errors)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "| Function | Section | Clause | Status | Detail |")
	fmt.Fprintln(w, "|----------|---------|--------|--------|--------|")
	//
	for i := range report.Functions {
		fn := &report.Functions[i]
		//
		for _, clause := range fn.Clauses {
			detail := clause.Error
			if len(clause.Counterexample) > 0 {
				detail = renderCounterexample(clause.Counterexample)
			}
			//
			fmt.Fprintf(w, "| `%s` | %s | `%s %s` | %s | %s |\n",
				fn.Name, fn.Section, clause.Kind, clause.Text,
				clause.Status.String(), detail)
		}
	}
}
