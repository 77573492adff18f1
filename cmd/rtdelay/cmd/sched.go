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
	"runtime"
	"strings"

	"github.com/olekukonko/tablewriter"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/facebook/rtdelay/sched"
)

// flags
var schedTryFlag string
var schedPriorityFlag int

func init() {
	RootCmd.AddCommand(schedCmd)
	schedCmd.Flags().StringVar(&schedTryFlag, "try", "", "try to switch a throwaway thread to this policy and report the outcome")
	schedCmd.Flags().IntVar(&schedPriorityFlag, "priority", 0, "priority to try, 0 means the highest allowed by the policy")
}

var schedCmd = &cobra.Command{
	Use:   "sched",
	Short: "Print scheduling of the process and priority ranges of every policy",
	Run: func(_ *cobra.Command, _ []string) {
		ConfigureVerbosity()
		if err := schedRun(); err != nil {
			log.Fatal(err)
		}
		if schedTryFlag == "" {
			return
		}
		policy, err := sched.ParsePolicy(schedTryFlag)
		if err != nil {
			log.Fatal(err)
		}
		if !schedTry(sched.Profile{Policy: policy, Priority: schedPriorityFlag}) {
			os.Exit(1)
		}
	},
}

func schedRun() error {
	s := &sched.SysScheduler{}
	current, err := sched.NewElevator(s).Current()
	if err != nil {
		return err
	}
	cpus := make([]string, 0, len(current.CPUs))
	for _, cpu := range current.CPUs {
		cpus = append(cpus, fmt.Sprint(cpu))
	}
	fmt.Printf("current: %s %d, cpus: %s\n", current.Policy, current.Priority, strings.Join(cpus, ","))

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("policy", "min priority", "max priority")
	for _, p := range sched.Policies {
		row := []string{p.String()}
		minPrio, maxPrio, err := s.PriorityRange(p)
		if err != nil {
			row = append(row, err.Error(), "")
		} else {
			row = append(row, fmt.Sprint(minPrio), fmt.Sprint(maxPrio))
		}
		if err := table.Append(row); err != nil {
			return err
		}
	}
	return table.Render()
}

// schedTry elevates a thread which is discarded afterwards
func schedTry(p sched.Profile) bool {
	var applied *sched.Applied
	var err error
	done := make(chan struct{})
	go func() {
		defer close(done)
		runtime.LockOSThread()
		applied, err = sched.NewElevator(&sched.SysScheduler{}).Elevate(p)
	}()
	<-done
	if err != nil {
		fmt.Printf("%s %v\n", failString, err)
		return false
	}
	fmt.Printf("%s switched to %s\n", okString, applied.Profile)
	return true
}
