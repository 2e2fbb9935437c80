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
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/blvm/go-speclock/pkg/contract"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// coverageCmd summarises how much of the specification has locked
// implementations.
var coverageCmd = &cobra.Command{
	Use:   "coverage [root...]",
	Short: "Summarise specification coverage by section.",
	Long: "Group spec-locked functions by specification section and report, per section, " +
		"how many implementations and contract clauses exist.",
	Run: func(cmd *cobra.Command, args []string) {
		if GetFlag(cmd, "verbose") {
			log.SetLevel(log.DebugLevel)
		}
		//
		env := loadEnvironment(cmd, args)
		rows := coverageRows(env)
		//
		switch format := GetString(cmd, "format"); format {
		case "human":
			writeCoverage(rows)
		case "json":
			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")
			//
			if err := encoder.Encode(rows); err != nil {
				fmt.Println(err)
				os.Exit(3)
			}
		case "markdown":
			writeCoverageMarkdown(rows)
		default:
			fmt.Printf("unknown coverage format %q\n", format)
			os.Exit(3)
		}
	},
}

// sectionCoverage is one section's share of the implementation.
type sectionCoverage struct {
	Section   string `json:"section"`
	Title     string `json:"title,omitempty"`
	Functions int    `json:"functions"`
	Clauses   int    `json:"clauses"`
}

// coverageRows groups the discovered functions by section.  With a
// specification document, rows follow document order and uncovered sections
// appear with zero counts; sections the document does not define sort after
// them.  Without a document, discovered sections appear in sorted order.
func coverageRows(env *environment) []sectionCoverage {
	var (
		bySection = groupBySection(env.discovery.Functions)
		rows      []sectionCoverage
	)
	//
	if env.doc != nil {
		for _, section := range env.doc.Sections {
			fns := bySection[section.ID]
			rows = append(rows, sectionCoverage{section.ID, section.Title, len(fns), clauseCount(fns)})
			//
			delete(bySection, section.ID)
		}
	}
	//
	for _, id := range sortedSections(bySection) {
		fns := bySection[id]
		rows = append(rows, sectionCoverage{id, "", len(fns), clauseCount(fns)})
	}
	//
	return rows
}

func writeCoverage(rows []sectionCoverage) {
	covered := 0
	//
	for _, row := range rows {
		name := row.Section
		if row.Title != "" {
			name = fmt.Sprintf("%s %s", row.Section, row.Title)
		}
		//
		if row.Functions == 0 {
			fmt.Printf("%s: no implementations\n", name)
			//
			continue
		}
		//
		covered++
		//
		fmt.Printf("%s: %d function(s), %d clause(s)\n", name, row.Functions, row.Clauses)
	}
	//
	fmt.Printf("coverage: %d/%d section(s) implemented\n", covered, len(rows))
}

func writeCoverageMarkdown(rows []sectionCoverage) {
	fmt.Println("# Coverage Report")
	fmt.Println()
	fmt.Println("| Section | Title | Functions | Clauses |")
	fmt.Println("|---------|-------|-----------|---------|")
	//
	for _, row := range rows {
		fmt.Printf("| %s | %s | %d | %d |\n", row.Section, row.Title, row.Functions, row.Clauses)
	}
}

func groupBySection(fns []*contract.SpecFunction) map[string][]*contract.SpecFunction {
	bySection := make(map[string][]*contract.SpecFunction)
	//
	for _, fn := range fns {
		bySection[fn.Section] = append(bySection[fn.Section], fn)
	}
	//
	return bySection
}

func clauseCount(fns []*contract.SpecFunction) int {
	count := 0
	for _, fn := range fns {
		count += len(fn.Clauses)
	}
	//
	return count
}

func sortedSections(bySection map[string][]*contract.SpecFunction) []string {
	ids := make([]string, 0, len(bySection))
	for id := range bySection {
		ids = append(ids, id)
	}
	//
	sort.Strings(ids)
	//
	return ids
}

func init() {
	rootCmd.AddCommand(coverageCmd)
	//
	coverageCmd.Flags().String("format", "human", "output format (human/json/markdown)")
}
