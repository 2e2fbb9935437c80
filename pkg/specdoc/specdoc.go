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

// Package specdoc reads the specification document which functions are locked
// against: a markdown file whose numbered headers identify sections and whose
// tables define named constants.  The index enriches reports with section
// titles, supplies the binder's named constants and feeds drift detection.
package specdoc

import (
	"bufio"
	"math/big"
	"os"
	"regexp"
	"strings"
)

// Section is one numbered section of the specification document.
type Section struct {
	// Dotted section identifier, e.g. "6.1".
	ID string
	// Title following the identifier.
	Title string
}

// Document is the parsed index of a specification document.
type Document struct {
	// Sections in document order.
	Sections []Section
	// Named constants defined in the document's tables.
	Constants map[string]*big.Int
	//
	titles map[string]string
}

// Numbered headers: any level, a dotted number, then the title.
var sectionPattern = regexp.MustCompile(`^#{1,6}\s+(\d+(?:\.\d+)*)\.?\s+(.+?)\s*$`)

// Constant names follow the UPPER_SNAKE convention.
var constantPattern = regexp.MustCompile(`^[A-Z][A-Z0-9_]*$`)

// Read loads and parses a specification document from disk.
func Read(path string) (*Document, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	//
	defer file.Close()
	//
	doc := &Document{Constants: map[string]*big.Int{}, titles: map[string]string{}}
	scanner := bufio.NewScanner(file)
	//
	for scanner.Scan() {
		doc.line(scanner.Text())
	}
	//
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	//
	return doc, nil
}

// Parse parses an in-memory specification document.
func Parse(text string) *Document {
	doc := &Document{Constants: map[string]*big.Int{}, titles: map[string]string{}}
	//
	for _, line := range strings.Split(text, "\n") {
		doc.line(line)
	}
	//
	return doc
}

// Title looks up the title of a section by its identifier.
func (p *Document) Title(id string) (string, bool) {
	title, ok := p.titles[id]
	//
	return title, ok
}

// Has checks whether a section identifier exists in the document.
func (p *Document) Has(id string) bool {
	_, ok := p.titles[id]
	//
	return ok
}

func (p *Document) line(line string) {
	if m := sectionPattern.FindStringSubmatch(line); m != nil {
		// First definition wins
		if _, seen := p.titles[m[1]]; !seen {
			p.Sections = append(p.Sections, Section{m[1], m[2]})
			p.titles[m[1]] = m[2]
		}
		//
		return
	}
	//
	p.tableRow(line)
}

// tableRow extracts a constant definition from a markdown table row of the
// form "| NAME | value | ... |".  Values may carry underscore or comma digit
// separators; non-numeric rows (including header and rule rows) are skipped.
func (p *Document) tableRow(line string) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "|") {
		return
	}
	//
	cells := strings.Split(strings.Trim(trimmed, "|"), "|")
	if len(cells) < 2 {
		return
	}
	//
	name := strings.TrimSpace(cells[0])
	if !constantPattern.MatchString(name) {
		return
	}
	//
	text := strings.TrimSpace(cells[1])
	text = strings.ReplaceAll(text, ",", "")
	text = strings.ReplaceAll(text, "_", "")
	//
	if value, ok := new(big.Int).SetString(text, 0); ok {
		p.Constants[name] = value
	}
}

// MergedConstants combines the built-in constants table with a document's
// definitions, the document taking precedence.  A nil document yields the
// built-ins alone.
func MergedConstants(doc *Document) map[string]*big.Int {
	merged := map[string]*big.Int{}
	//
	for name, value := range Builtin {
		merged[name] = value
	}
	//
	if doc != nil {
		for name, value := range doc.Constants {
			merged[name] = value
		}
	}
	//
	return merged
}
