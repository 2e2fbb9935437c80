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
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// SourceFiles walks the given roots collecting Go source files, in a stable
// order.  Test files, vendored trees, testdata and hidden or underscore
// prefixed directories are always skipped; ignore patterns (doublestar globs,
// matched against the slash form of the path relative to its root) prune
// anything else.  An unreadable root is an error; unreadable files deeper in
// the tree are not.
func SourceFiles(roots []string, ignore []string) ([]string, error) {
	var files []string
	//
	for _, root := range roots {
		err := filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
			if err != nil {
				if path == root {
					return err
				}
				// Deeper failures prune silently
				return fs.SkipDir
			}
			//
			rel, rerr := filepath.Rel(root, path)
			if rerr != nil {
				rel = path
			}
			//
			rel = filepath.ToSlash(rel)
			//
			if entry.IsDir() {
				if path != root && SkippedDir(entry.Name()) {
					return fs.SkipDir
				}
				//
				if ignored(rel, ignore) {
					return fs.SkipDir
				}
				//
				return nil
			}
			//
			if !strings.HasSuffix(path, ".go") || strings.HasSuffix(path, "_test.go") {
				return nil
			}
			//
			if ignored(rel, ignore) {
				return nil
			}
			//
			files = append(files, path)
			//
			return nil
		})
		//
		if err != nil {
			return nil, err
		}
	}
	//
	return files, nil
}

// SkippedDir reports whether a directory of this name is always excluded from
// discovery: vendored trees, testdata, and hidden or underscore prefixed
// directories.
func SkippedDir(name string) bool {
	switch {
	case name == "vendor" || name == "testdata":
		return true
	case strings.HasPrefix(name, "_") || strings.HasPrefix(name, "."):
		return true
	}
	//
	return false
}

func ignored(rel string, patterns []string) bool {
	for _, pattern := range patterns {
		if ok, err := doublestar.Match(pattern, rel); err == nil && ok {
			return true
		}
	}
	//
	return false
}
