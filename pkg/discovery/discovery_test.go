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
package discovery

import (
	"errors"
	"math/big"
	"strings"
	"testing"

	"github.com/blvm/go-speclock/pkg/contract"
)

func TestDiscover_00(t *testing.T) {
	d := discover(t, nil)
	//
	fn := findFunction(t, d, "subsidy.GetBlockSubsidy")
	//
	if fn.Section != "6.1" {
		t.Errorf("section was %q, expected 6.1", fn.Section)
	}
	//
	if len(fn.Params) != 1 || fn.Params[0].Name != "height" {
		t.Fatalf("unexpected parameters: %v", fn.Params)
	} else if fn.Params[0].Type != (contract.Type{Width: 64}) {
		t.Errorf("height was %s, expected u64", fn.Params[0].Type.String())
	}
	//
	if fn.Result != (contract.Type{Width: 64}) {
		t.Errorf("result was %s, expected u64", fn.Result.String())
	}
}

func TestDiscover_01(t *testing.T) {
	// clause order and verbatim text
	d := discover(t, nil)
	//
	fn := findFunction(t, d, "subsidy.GetBlockSubsidy")
	//
	if len(fn.Clauses) != 3 {
		t.Fatalf("found %d clauses, expected 3", len(fn.Clauses))
	}
	//
	checkClause(t, fn.Clauses[0], contract.Precondition, "height >= 0")
	checkClause(t, fn.Clauses[1], contract.Postcondition, "result <= INITIAL_SUBSIDY")
	checkClause(t, fn.Clauses[2], contract.Postcondition, "result >= 0")
	//
	if fn.Clauses[0].Line >= fn.Clauses[1].Line {
		t.Error("clause lines are not increasing")
	}
}

func TestDiscover_02(t *testing.T) {
	// symbolic bodies for the translatable fragment
	d := discover(t, nil)
	//
	subsidy := findFunction(t, d, "subsidy.GetBlockSubsidy")
	if subsidy.Body == nil {
		t.Fatal("subsidy body was not translated")
	}
	// Locals are substituted at their use sites
	if s := subsidy.Body.String(); s != "(5000000000 >> (height / 210000))" {
		t.Errorf("unexpected body: %s", s)
	}
	//
	clamp := findFunction(t, d, "subsidy.Clamp")
	if clamp.Body == nil {
		t.Fatal("clamp body was not translated")
	} else if s := clamp.Body.String(); s != "if (a < b) then b else a" {
		t.Errorf("unexpected body: %s", s)
	}
}

func TestDiscover_03(t *testing.T) {
	// functions are ordered by source location
	d := discover(t, nil)
	//
	for i := 1; i < len(d.Functions); i++ {
		if d.Functions[i-1].Compare(d.Functions[i]) >= 0 {
			t.Fatalf("functions out of order: %s before %s",
				d.Functions[i-1].Name, d.Functions[i].Name)
		}
	}
}

func TestDiscover_04(t *testing.T) {
	// contract directives without a section link are collected separately
	d := discover(t, nil)
	//
	if len(d.Unlinked) != 1 {
		t.Fatalf("found %d unlinked functions, expected 1", len(d.Unlinked))
	} else if d.Unlinked[0].Name != "subsidy.MissingSection" {
		t.Errorf("unexpected unlinked function: %s", d.Unlinked[0].Name)
	}
	//
	if fn, ok := lookup(d, "subsidy.MissingSection"); ok {
		t.Errorf("unlinked function %s was also discovered", fn.Name)
	}
}

func TestDiscover_05(t *testing.T) {
	// malformed and misplaced directives
	d := discover(t, nil)
	//
	expected := []string{
		"non-function declaration",
		"duplicate section",
		"unknown directive",
		"lacks an identifier",
	}
	//
	if len(d.Errors) != len(expected) {
		t.Fatalf("found %d errors, expected %d: %v", len(d.Errors), len(expected), d.Errors)
	}
	//
	for _, fragment := range expected {
		if !containsError(d, fragment) {
			t.Errorf("no error mentions %q", fragment)
		}
	}
	// The first directive wins a duplicate battle
	if fn := findFunction(t, d, "subsidy.Duplicated"); fn.Section != "3.1" {
		t.Errorf("section was %q, expected 3.1", fn.Section)
	}
}

func TestDiscover_06(t *testing.T) {
	// unverifiable signatures degrade every clause to a type mismatch
	d := discover(t, nil)
	//
	for _, name := range []string{"subsidy.Describe", "subsidy.Total"} {
		fn := findFunction(t, d, name)
		//
		for _, clause := range fn.Clauses {
			var terr *contract.TypeMismatchError
			//
			if !errors.As(clause.Err, &terr) {
				t.Errorf("%s clause %q: expected a type mismatch, got %v", name, clause.Text, clause.Err)
			}
		}
		// Binding must preserve the failure
		if failed := contract.BindClauses(fn, nil); failed != uint(len(fn.Clauses)) {
			t.Errorf("%s: %d clauses failed binding, expected all %d", name, failed, len(fn.Clauses))
		}
	}
}

func TestDiscover_07(t *testing.T) {
	// ignore globs prune files
	d, err := Discover([]string{"testdata/src"}, []string{"**/broken.go"}, nil)
	if err != nil {
		t.Fatalf("discovery failed: %v", err)
	}
	//
	if _, ok := lookup(d, "subsidy.Duplicated"); ok {
		t.Error("ignored file was scanned")
	}
	//
	if _, ok := lookup(d, "subsidy.GetBlockSubsidy"); !ok {
		t.Error("unignored file was not scanned")
	}
}

func TestDiscover_08(t *testing.T) {
	// underscore directories are pruned; an unreadable root is fatal
	d := discover(t, nil)
	//
	if _, ok := lookup(d, "skipme.Hidden"); ok {
		t.Error("skipped directory was scanned")
	}
	//
	if _, err := Discover([]string{"testdata/no-such-root"}, nil, nil); err == nil {
		t.Error("missing root did not fail")
	}
}

// ===================================================================
// Helpers
// ===================================================================

func discover(t *testing.T, constants map[string]*big.Int) *Discovery {
	t.Helper()
	//
	d, err := Discover([]string{"testdata/src"}, nil, constants)
	if err != nil {
		t.Fatalf("discovery failed: %v", err)
	}
	//
	return d
}

func lookup(d *Discovery, name string) (*contract.SpecFunction, bool) {
	for _, fn := range d.Functions {
		if fn.Name == name {
			return fn, true
		}
	}
	//
	return nil, false
}

func findFunction(t *testing.T, d *Discovery, name string) *contract.SpecFunction {
	t.Helper()
	//
	fn, ok := lookup(d, name)
	if !ok {
		t.Fatalf("function %s was not discovered", name)
	}
	//
	return fn
}

func checkClause(t *testing.T, clause contract.Clause, kind contract.ClauseKind, text string) {
	t.Helper()
	//
	if clause.Kind != kind {
		t.Errorf("clause %q has kind %s, expected %s", clause.Text, clause.Kind.String(), kind.String())
	}
	//
	if clause.Text != text {
		t.Errorf("clause text was %q, expected %q", clause.Text, text)
	}
}

func containsError(d *Discovery, fragment string) bool {
	for _, derr := range d.Errors {
		if strings.Contains(derr.Msg, fragment) {
			return true
		}
	}
	//
	return false
}
