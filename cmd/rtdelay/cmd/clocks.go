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

	"github.com/olekukonko/tablewriter"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/facebook/rtdelay/clock"
)

func init() {
	RootCmd.AddCommand(clocksCmd)
}

var clocksCmd = &cobra.Command{
	Use:   "clocks",
	Short: "Print resolution and current time of every supported clock",
	Run: func(_ *cobra.Command, _ []string) {
		ConfigureVerbosity()
		if err := clocksRun(); err != nil {
			log.Fatal(err)
		}
	},
}

// sleepSource returns the source clock_nanosleep is issued against when measuring s
func sleepSource(s clock.Source) clock.Source {
	for _, candidate := range clock.Sources {
		if id, _ := candidate.ID(); id == s.SleepID() {
			return candidate
		}
	}
	return s
}

func clockRow(s clock.Source) []string {
	row := []string{s.String()}
	c, err := clock.New(s)
	if err != nil {
		return append(row, err.Error(), "", "", "")
	}
	if res, err := c.Resolution(); err != nil {
		row = append(row, err.Error())
	} else {
		row = append(row, res.Duration().String())
	}
	if now, err := c.Now(); err != nil {
		row = append(row, err.Error())
	} else {
		row = append(row, now.String())
	}
	row = append(row, sleepSource(s).String())
	id, _ := s.ID()
	if freq, _, err := clock.FrequencyPPB(id); err != nil {
		row = append(row, "-")
	} else {
		row = append(row, fmt.Sprintf("%.3f", freq))
	}
	return row
}

func clocksRun() error {
	table := tablewriter.NewWriter(os.Stdout)
	table.Header("clock", "resolution", "now", "sleeps on", "freq (PPB)")
	for _, s := range clock.Sources {
		if err := table.Append(clockRow(s)); err != nil {
			return err
		}
	}
	return table.Render()
}
