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
package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/consensys/bavard"
)

const copyrightHolder = "the go-speclock authors."

// builtins is the canonical consensus constants table.  Regenerate
// ../../constants.go after editing.
var builtins = map[string]string{
	"HALVING_INTERVAL":     "210000",
	"INITIAL_SUBSIDY":      "5000000000",
	"MAX_MONEY":            "2100000000000000",
	"SATOSHIS_PER_COIN":    "100000000",
	"MAX_BLOCK_SIZE":       "1000000",
	"MAX_BLOCK_SIGOPS":     "20000",
	"MAX_SCRIPT_SIZE":      "10000",
	"COINBASE_MATURITY":    "100",
	"SUBSIDY_HALVING_ERAS": "64",
}

type constant struct {
	Name  string
	Value string
}

//go:generate go run main.go
func main() {
	bgen := bavard.NewBatchGenerator(copyrightHolder, 2026, "go-speclock")
	//
	constants := make([]constant, 0, len(builtins))
	for name, value := range builtins {
		constants = append(constants, constant{name, value})
	}
	//
	sort.Slice(constants, func(i, j int) bool { return constants[i].Name < constants[j].Name })
	//
	cfg := struct{ Constants []constant }{constants}
	//
	err := bgen.Generate(cfg, "specdoc", "templates", bavard.Entry{
		File:      "../../constants.go",
		Templates: []string{"constants.go.tmpl"},
	})
	//
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
