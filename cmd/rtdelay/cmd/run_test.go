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
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/facebook/rtdelay/clock"
	"github.com/facebook/rtdelay/delaytest"
	"github.com/facebook/rtdelay/sched"
)

func TestRunFlagsConfig(t *testing.T) {
	runClockFlag = "monotonic_raw"
	runPolicyFlag = "SCHED_RR"
	runDelayFlag = 5 * time.Millisecond
	runIterationsFlag = 10
	runRetriesFlag = 2
	runPriorityFlag = 42
	runCPUsFlag = []int{1}
	runOutputFlag = "out.csv"
	defer func() {
		runClockFlag = clock.Monotonic.String()
		runPolicyFlag = sched.FIFO.String()
	}()

	cfg, err := runFlagsConfig()
	require.NoError(t, err)
	require.Equal(t, clock.MonotonicRaw, cfg.Clock)
	require.Equal(t, 5*time.Millisecond, cfg.Delay)
	require.Equal(t, 10, cfg.Iterations)
	require.Equal(t, 2, cfg.Retry.MaxRetries)
	require.Equal(t, sched.Profile{Policy: sched.RR, Priority: 42, CPUs: []int{1}}, cfg.Scheduling)
	require.Equal(t, "out.csv", cfg.Output)

	runClockFlag = "sundial"
	_, err = runFlagsConfig()
	require.Error(t, err)

	runClockFlag = "realtime"
	runPolicyFlag = "batch"
	_, err = runFlagsConfig()
	require.Error(t, err)
}

func TestRunFlagsDefaults(t *testing.T) {
	defaults := delaytest.DefaultConfig()
	require.Equal(t, defaults.Clock.String(), runCmd.Flags().Lookup("clock").DefValue)
	require.Equal(t, defaults.Scheduling.Policy.String(), runCmd.Flags().Lookup("policy").DefValue)
	require.Equal(t, "100", runCmd.Flags().Lookup("iterations").DefValue)
	require.Equal(t, "10ms", runCmd.Flags().Lookup("delay").DefValue)
}

func TestSleepSource(t *testing.T) {
	require.Equal(t, clock.WallClock, sleepSource(clock.WallClockCoarse))
	require.Equal(t, clock.WallClock, sleepSource(clock.WallClock))
	require.Equal(t, clock.Monotonic, sleepSource(clock.MonotonicRaw))
	require.Equal(t, clock.Monotonic, sleepSource(clock.MonotonicCoarse))
}

func TestClockRow(t *testing.T) {
	row := clockRow(clock.Monotonic)
	require.Len(t, row, 5)
	require.Equal(t, "CLOCK_MONOTONIC", row[0])
	require.Equal(t, "1ns", row[1])
	require.Equal(t, "CLOCK_MONOTONIC", row[3])

	row = clockRow(clock.Source(42))
	require.Len(t, row, 5)
}
