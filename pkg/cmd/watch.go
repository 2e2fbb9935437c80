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
package cmd

import (
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/blvm/go-speclock/pkg/discovery"
	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// debounceWindow coalesces the event bursts editors produce on save.
const debounceWindow = 250 * time.Millisecond

// watchLoop runs verification, then re-runs it whenever a Go source file
// under the watched roots changes.  The loop ends on interrupt; the process
// exits 0 regardless of the last verdict, since watch mode is interactive
// rather than a CI gate.  Never returns.
func watchLoop(cmd *cobra.Command, args []string) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		fmt.Println(err)
		os.Exit(3)
	}
	//
	defer watcher.Close()
	//
	roots := args
	if len(roots) == 0 {
		roots = loadEnvironment(cmd, args).config.Roots
	}
	//
	for _, root := range roots {
		if err := watchTree(watcher, root); err != nil {
			fmt.Println(err)
			os.Exit(3)
		}
	}
	//
	interrupted := make(chan os.Signal, 1)
	signal.Notify(interrupted, os.Interrupt)
	//
	debounce := time.NewTimer(time.Hour)
	debounce.Stop()
	//
	runVerification(cmd, args)
	//
	for {
		select {
		case event := <-watcher.Events:
			// Newly created directories join the watch
			if event.Op.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := watchTree(watcher, event.Name); err != nil {
						log.WithError(err).Warn("unwatchable directory")
					}
					//
					continue
				}
			}
			//
			if interesting(event) {
				debounce.Reset(debounceWindow)
			}
		case err := <-watcher.Errors:
			log.WithError(err).Warn("watcher error")
		case <-debounce.C:
			runVerification(cmd, args)
		case <-interrupted:
			os.Exit(0)
		}
	}
}

// watchTree registers every discoverable directory under root with the
// watcher, pruning the same directories discovery prunes.
func watchTree(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			//
			return fs.SkipDir
		}
		//
		if !entry.IsDir() {
			return nil
		}
		//
		if path != root && discovery.SkippedDir(entry.Name()) {
			return fs.SkipDir
		}
		//
		return watcher.Add(path)
	})
}

func interesting(event fsnotify.Event) bool {
	if !strings.HasSuffix(event.Name, ".go") {
		return false
	}
	//
	return event.Op.Has(fsnotify.Write) || event.Op.Has(fsnotify.Create) ||
		event.Op.Has(fsnotify.Remove) || event.Op.Has(fsnotify.Rename)
}
