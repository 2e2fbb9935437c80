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
package verifier

import (
	"path/filepath"
	"slices"
	"strings"

	"github.com/blvm/go-speclock/pkg/contract"
)

// Criteria is a conjunctive filter over discovered functions, applied before
// any checking work is scheduled.  Zero-valued fields do not constrain.
type Criteria struct {
	// Path restricts to functions whose source file has this prefix.
	Path string
	// Subsystem restricts to functions whose source path contains this
	// path component.
	Subsystem string
	// Name restricts by function name, either exact or with '*'
	// wildcards; a bare name matches regardless of package.
	Name string
	// Sections restricts to functions locked to one of these section ids.
	Sections []string
}

// Matches checks a function against every configured criterion.
func (p *Criteria) Matches(fn *contract.SpecFunction) bool {
	if p == nil {
		return true
	}
	//
	if p.Path != "" && !strings.HasPrefix(filepath.ToSlash(fn.File), filepath.ToSlash(p.Path)) {
		return false
	}
	//
	if p.Subsystem != "" && !hasComponent(fn.File, p.Subsystem) {
		return false
	}
	//
	if p.Name != "" && !matchesName(p.Name, fn.Name) {
		return false
	}
	//
	if len(p.Sections) > 0 && !slices.Contains(p.Sections, fn.Section) {
		return false
	}
	//
	return true
}

// Apply retains the functions matching the criteria, preserving order.
func (p *Criteria) Apply(fns []*contract.SpecFunction) []*contract.SpecFunction {
	var retained []*contract.SpecFunction
	//
	for _, fn := range fns {
		if p.Matches(fn) {
			retained = append(retained, fn)
		}
	}
	//
	return retained
}

func hasComponent(path string, component string) bool {
	return slices.Contains(strings.Split(filepath.ToSlash(path), "/"), component)
}

// matchesName matches a pattern against a qualified name.  A pattern without
// a dot also matches the bare function name, so "GetBlockSubsidy" finds
// "subsidy.GetBlockSubsidy".
func matchesName(pattern string, qualified string) bool {
	if wildcardMatch(pattern, qualified) {
		return true
	}
	//
	if !strings.Contains(pattern, ".") {
		if i := strings.LastIndex(qualified, "."); i >= 0 {
			return wildcardMatch(pattern, qualified[i+1:])
		}
	}
	//
	return false
}

// wildcardMatch matches a pattern in which '*' stands for any (possibly
// empty) substring.
func wildcardMatch(pattern string, name string) bool {
	segments := strings.Split(pattern, "*")
	//
	if len(segments) == 1 {
		return pattern == name
	}
	//
	if !strings.HasPrefix(name, segments[0]) {
		return false
	}
	//
	name = name[len(segments[0]):]
	//
	for _, segment := range segments[1 : len(segments)-1] {
		i := strings.Index(name, segment)
		if i < 0 {
			return false
		}
		//
		name = name[i+len(segment):]
	}
	//
	return strings.HasSuffix(name, segments[len(segments)-1])
}
