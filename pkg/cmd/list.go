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
	"os"

	"github.com/blvm/go-speclock/pkg/contract"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// listCmd enumerates spec-locked functions without checking anything.
var listCmd = &cobra.Command{
	Use:   "list [root...]",
	Short: "List spec-locked functions and their contracts.",
	Long: "Scan the given roots (or the configured ones) and list every spec-locked " +
		"function together with its section link and clause counts.",
	Run: func(cmd *cobra.Command, args []string) {
		if GetFlag(cmd, "verbose") {
			log.SetLevel(log.DebugLevel)
		}
		//
		env := loadEnvironment(cmd, args)
		//
		for _, err := range env.discovery.Errors {
			log.Error(err)
		}
		//
		retained := criteria(cmd).Apply(env.discovery.Functions)
		//
		for _, fn := range retained {
			listFunction(cmd, env, fn)
		}
		//
		for _, fn := range env.discovery.Unlinked {
			fmt.Printf("%s:%d:%d %s (unlinked)\n", fn.File, fn.Line, fn.Column, fn.Name)
		}
		//
		fmt.Printf("%d spec-locked function(s), %d unlinked\n",
			len(retained), len(env.discovery.Unlinked))
	},
}

func listFunction(cmd *cobra.Command, env *environment, fn *contract.SpecFunction) {
	section := fn.Section
	//
	if env.doc != nil {
		if title, ok := env.doc.Title(fn.Section); ok {
			section = fmt.Sprintf("%s %s", fn.Section, title)
		}
	}
	//
	fmt.Printf("%s:%d:%d %s [%s] (%d requires, %d ensures)\n",
		fn.File, fn.Line, fn.Column, fn.Name, section,
		len(fn.Preconditions()), len(fn.Postconditions()))
	//
	if GetFlag(cmd, "clauses") {
		for _, clause := range fn.Clauses {
			fmt.Fprintf(os.Stdout, "  %s %s\n", clause.Kind.String(), clause.Text)
		}
	}
}

func init() {
	rootCmd.AddCommand(listCmd)
	//
	addFilterFlags(listCmd)
	listCmd.Flags().Bool("clauses", false, "print each contract clause")
}
