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
	"encoding/json"
	"io"
)

// WriteJSON renders the report as its lossless machine-readable form.
func WriteJSON(w io.Writer, report *Report) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	//
	return encoder.Encode(report)
}

// ParseJSON reads a report back from its machine-readable form, reproducing
// statuses, counterexamples and summary counts exactly.
func ParseJSON(data []byte) (*Report, error) {
	var report Report
	//
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, err
	}
	//
	return &report, nil
}
