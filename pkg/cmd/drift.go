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

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// driftCmd cross-checks the specification document against the codebase in
// both directions.
var driftCmd = &cobra.Command{
	Use:   "drift [root...]",
	Short: "Detect drift between the specification and the codebase.",
	Long: "Report specification sections with no locked implementation, and functions " +
		"locked to sections the specification does not define.  Exits 1 when drift exists.",
	Run: func(cmd *cobra.Command, args []string) {
		if GetFlag(cmd, "verbose") {
			log.SetLevel(log.DebugLevel)
		}
		//
		env := loadEnvironment(cmd, args)
		//
		if env.doc == nil {
			fmt.Println("no specification document configured (use --spec or .speclock.yaml)")
			os.Exit(3)
		}
		//
		bySection := groupBySection(env.discovery.Functions)
		drifted := false
		// Sections the code never implements
		for _, section := range env.doc.Sections {
			if len(bySection[section.ID]) == 0 {
				fmt.Printf("unimplemented: %s %s\n", section.ID, section.Title)
				//
				drifted = true
			}
		}
		// Functions locked to sections the document never defines
		for _, fn := range env.discovery.Functions {
			if !env.doc.Has(fn.Section) {
				fmt.Printf("unknown section: %s:%d %s is locked to %s\n",
					fn.File, fn.Line, fn.Name, fn.Section)
				//
				drifted = true
			}
		}
		//
		if drifted {
			os.Exit(1)
		}
		//
		fmt.Println("specification and codebase agree")
	},
}

func init() {
	rootCmd.AddCommand(driftCmd)
}
