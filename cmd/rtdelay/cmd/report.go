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
	"time"

	"github.com/fatih/color"
	"golang.org/x/exp/constraints"

	"github.com/facebook/rtdelay/delaytest"
)

type status int

// possible check results
const (
	OK status = iota
	WARN
	FAIL
)

// checker is function that does checks on run Summary
type checker func(s *delaytest.Summary) (status, string)

var okString = color.GreenString("[ OK ]")
var warnString = color.YellowString("[WARN]")
var failString = color.RedString("[FAIL]")

var statusToColor = []string{okString, warnString, failString}

func fmtThreshold(warnThreshold any) string {
	return color.BlueString("%v", warnThreshold)
}

// generic function to check value against some thresholds
func checkAgainstThreshold[T constraints.Ordered](name string, value, warnThreshold, failThreshold T, explanation string) (status, string) {
	msgTemplate := "%s is %s, we expect it to be within %s%s"
	thresholdStr := fmtThreshold(warnThreshold)

	if value > failThreshold {
		return FAIL, fmt.Sprintf(
			msgTemplate,
			name,
			color.RedString("%v", value),
			thresholdStr,
			". "+explanation,
		)
	}
	if value > warnThreshold {
		return WARN, fmt.Sprintf(
			msgTemplate,
			name,
			color.YellowString("%v", value),
			thresholdStr,
			". "+explanation,
		)
	}
	return OK, fmt.Sprintf(
		msgTemplate,
		name,
		color.GreenString("%v", value),
		thresholdStr,
		"",
	)
}

func checkMaxAbsError(warn, fail time.Duration) checker {
	return func(s *delaytest.Summary) (status, string) {
		return checkAgainstThreshold(
			"Max absolute delay error",
			time.Duration(s.MaxAbsNS),
			warn,
			fail,
			"Large delay error means the thread was scheduled late after wakeup.",
		)
	}
}

func checkP99Error(warn, fail time.Duration) checker {
	return func(s *delaytest.Summary) (status, string) {
		return checkAgainstThreshold(
			"P99 delay error",
			time.Duration(s.P99NS),
			warn,
			fail,
			"Consistently late wakeups usually mean the thread is not running with real-time priority.",
		)
	}
}

func checkInvalid(s *delaytest.Summary) (status, string) {
	return checkAgainstThreshold(
		"Number of invalid iterations",
		s.Invalid,
		0,
		s.Iterations/10,
		"Clock went backwards or sleep returned early, coarse clocks are prone to this.",
	)
}

func checkExhausted(s *delaytest.Summary) (status, string) {
	return checkAgainstThreshold(
		"Number of sleeps cut short by signals",
		s.Exhausted,
		0,
		0,
		"Signals interrupted sleep more times than retries allow.",
	)
}

func checkVerdict(v *delaytest.Verdict) checker {
	return func(s *delaytest.Summary) (status, string) {
		pass, err := v.Evaluate(s)
		if err != nil {
			return FAIL, fmt.Sprintf("Verdict %q can't be evaluated: %v", v.Expr, err)
		}
		if !pass {
			return FAIL, fmt.Sprintf("Verdict %s is %s", color.BlueString(v.Expr), color.RedString("false"))
		}
		return OK, fmt.Sprintf("Verdict %s is %s", color.BlueString(v.Expr), color.GreenString("true"))
	}
}

// runCheckers prints results of all checks and returns number of failed ones
func runCheckers(s *delaytest.Summary, toRun []checker) int {
	failed := 0
	for _, check := range toRun {
		st, msg := check(s)
		if st == FAIL {
			failed++
		}
		fmt.Printf("%s %s\n", statusToColor[st], msg)
	}
	return failed
}
