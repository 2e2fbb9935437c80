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
	"encoding/xml"
	"fmt"
	"io"
	"time"

	"github.com/blvm/go-speclock/pkg/verifier"
)

// JUnit document model.  Each contract clause becomes one test case, so CI
// dashboards surface individual clause failures.
type junitSuite struct {
	XMLName  xml.Name    `xml:"testsuite"`
	Name     string      `xml:"name,attr"`
	Tests    int         `xml:"tests,attr"`
	Failures int         `xml:"failures,attr"`
	Errors   int         `xml:"errors,attr"`
	Skipped  int         `xml:"skipped,attr"`
	Time     string      `xml:"time,attr"`
	Cases    []junitCase `xml:"testcase"`
}

type junitCase struct {
	Name      string        `xml:"name,attr"`
	ClassName string        `xml:"classname,attr"`
	File      string        `xml:"file,attr"`
	Line      int           `xml:"line,attr"`
	Time      string        `xml:"time,attr"`
	Failure   *junitMessage `xml:"failure,omitempty"`
	Error     *junitMessage `xml:"error,omitempty"`
	Skipped   *junitMessage `xml:"skipped,omitempty"`
}

type junitMessage struct {
	Message string `xml:"message,attr"`
	Body    string `xml:",chardata"`
}

// WriteJUnit renders the report as a CI test-report document.
func WriteJUnit(w io.Writer, report *Report) error {
	suite := junitSuite{Name: "go-speclock"}
	//
	var elapsed time.Duration
	//
	for i := range report.Functions {
		fn := &report.Functions[i]
		//
		for _, clause := range fn.Clauses {
			elapsed += clause.Elapsed
			suite.Cases = append(suite.Cases, junitCaseOf(fn, clause))
			suite.Tests++
			//
			switch clause.Status {
			case verifier.StatusFalsified:
				suite.Failures++
			case verifier.StatusError:
				suite.Errors++
			case verifier.StatusUnknown:
				suite.Skipped++
			}
		}
	}
	//
	suite.Time = seconds(elapsed)
	//
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	//
	encoder := xml.NewEncoder(w)
	encoder.Indent("", "  ")
	//
	if err := encoder.Encode(suite); err != nil {
		return err
	}
	//
	_, err := io.WriteString(w, "\n")
	//
	return err
}

func junitCaseOf(fn *Function, clause verifier.ClauseResult) junitCase {
	c := junitCase{
		Name:      fmt.Sprintf("%s %s %s", fn.Name, clause.Kind, clause.Text),
		ClassName: fn.Section,
		File:      fn.File,
		Line:      fn.Line,
		Time:      seconds(clause.Elapsed),
	}
	//
	switch clause.Status {
	case verifier.StatusFalsified:
		c.Failure = &junitMessage{
			Message: "contract violated",
			Body:    renderCounterexample(clause.Counterexample),
		}
	case verifier.StatusError:
		c.Error = &junitMessage{Message: clause.Error}
	case verifier.StatusUnknown:
		c.Skipped = &junitMessage{Message: "undecided"}
	}
	//
	return c
}

func seconds(d time.Duration) string {
	return fmt.Sprintf("%.3f", d.Seconds())
}
