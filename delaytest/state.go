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

package delaytest

// State of a measurement session
type State int

// Session states. A session moves forward only, Failed can be reached from any non-terminal state.
const (
	Idle State = iota
	ClockSelected
	Elevated
	Running
	Completed
	Failed
)

var stateToString = map[State]string{
	Idle:          "IDLE",
	ClockSelected: "CLOCK_SELECTED",
	Elevated:      "ELEVATED",
	Running:       "RUNNING",
	Completed:     "COMPLETED",
	Failed:        "FAILED",
}

func (s State) String() string {
	if str, ok := stateToString[s]; ok {
		return str
	}
	return "UNKNOWN"
}

// Terminal reports whether session can't change state anymore
func (s State) Terminal() bool {
	return s == Completed || s == Failed
}
