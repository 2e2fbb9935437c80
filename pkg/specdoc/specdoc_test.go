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
package specdoc

import (
	"math/big"
	"testing"
)

const sampleDocument = `# The Orange Paper

## 4 Consensus Constants

| Constant | Value | Notes |
|----------|-------|-------|
| HALVING_INTERVAL | 210,000 | blocks per era |
| INITIAL_SUBSIDY | 5_000_000_000 | satoshis |
| GENESIS_BITS | 0x1d00ffff | compact target |
| timeout | 99 | not a constant |

## 6 Monetary Policy

### 6.1 Block Subsidy

The subsidy halves every HALVING_INTERVAL blocks.

### 6.2 Supply Cap

#### 6.2.1 Auditability
`

func TestSpecdoc_00(t *testing.T) {
	doc := Parse(sampleDocument)
	//
	expected := []Section{
		{"4", "Consensus Constants"},
		{"6", "Monetary Policy"},
		{"6.1", "Block Subsidy"},
		{"6.2", "Supply Cap"},
		{"6.2.1", "Auditability"},
	}
	//
	if len(doc.Sections) != len(expected) {
		t.Fatalf("found %d sections, expected %d", len(doc.Sections), len(expected))
	}
	//
	for i, section := range expected {
		if doc.Sections[i] != section {
			t.Errorf("section %d was %v, expected %v", i, doc.Sections[i], section)
		}
	}
}

func TestSpecdoc_01(t *testing.T) {
	doc := Parse(sampleDocument)
	//
	if title, ok := doc.Title("6.1"); !ok || title != "Block Subsidy" {
		t.Errorf("title of 6.1 was %q (%v)", title, ok)
	}
	//
	if doc.Has("9.9") {
		t.Error("nonexistent section reported present")
	}
}

func TestSpecdoc_02(t *testing.T) {
	// constants with digit separators and hex values
	doc := Parse(sampleDocument)
	//
	checkConstant(t, doc.Constants, "HALVING_INTERVAL", 210_000)
	checkConstant(t, doc.Constants, "INITIAL_SUBSIDY", 5_000_000_000)
	checkConstant(t, doc.Constants, "GENESIS_BITS", 0x1d00ffff)
	//
	if _, ok := doc.Constants["timeout"]; ok {
		t.Error("lower-case table row was taken for a constant")
	} else if _, ok := doc.Constants["Constant"]; ok {
		t.Error("header row was taken for a constant")
	}
}

func TestSpecdoc_03(t *testing.T) {
	// document definitions override built-ins; built-ins fill the gaps
	merged := MergedConstants(Parse("| INITIAL_SUBSIDY | 42 |"))
	//
	checkConstant(t, merged, "INITIAL_SUBSIDY", 42)
	checkConstant(t, merged, "HALVING_INTERVAL", 210_000)
	//
	fallback := MergedConstants(nil)
	checkConstant(t, fallback, "MAX_MONEY", 2_100_000_000_000_000)
}

func TestSpecdoc_04(t *testing.T) {
	if _, err := Read("testdata/no-such-document.md"); err == nil {
		t.Error("missing document did not fail")
	}
}

func checkConstant(t *testing.T, constants map[string]*big.Int, name string, expected int64) {
	t.Helper()
	//
	value, ok := constants[name]
	if !ok {
		t.Fatalf("constant %s was not found", name)
	}
	//
	if value.Cmp(big.NewInt(expected)) != 0 {
		t.Errorf("%s was %s, expected %d", name, value.String(), expected)
	}
}
