/*
Copyright (c) Facebook, Inc. and its affiliates.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package cmd

import (
	"fmt"
	"os"
	"slices"

	"github.com/olekukonko/tablewriter"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/exp/maps"

	"github.com/facebook/rtdelay/stats"
)

// flags
var countersAddressFlag string

func init() {
	RootCmd.AddCommand(countersCmd)
	countersCmd.Flags().StringVarP(&countersAddressFlag, "address", "a", "http://localhost:4269", "monitoring address of a running measurement")
}

var countersCmd = &cobra.Command{
	Use:   "counters",
	Short: "Print counters of a running measurement",
	Run: func(_ *cobra.Command, _ []string) {
		ConfigureVerbosity()
		if err := countersRun(countersAddressFlag); err != nil {
			log.Fatal(err)
		}
	},
}

func countersRun(address string) error {
	counters, err := stats.FetchCounters(address)
	if err != nil {
		return fmt.Errorf("fetching counters: %w", err)
	}
	keys := maps.Keys(counters)
	slices.Sort(keys)
	table := tablewriter.NewWriter(os.Stdout)
	table.Header("counter", "value")
	for _, k := range keys {
		if err := table.Append([]string{k, fmt.Sprint(counters[k])}); err != nil {
			return err
		}
	}
	return table.Render()
}
