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

package clock

import (
	"fmt"
	"time"

	"golang.org/x/sys/unix"
)

// PPBToTimexPPM is what we use to conver PPB to PPM.
// man clock_adjtime(2):
// In struct timex, freq, ppsfreq, and stabil are ppm (parts per million) with a 16-bit fractional part.
// To covert value where 2^16=65536 is 1 ppm to ppb or back, we need this multiplier
const PPBToTimexPPM = 65.536

// staUnsync is STA_UNSYNC from usr/include/linux/timex.h
const staUnsync int32 = 0x0040

// clock_adjtime return values from usr/include/linux/timex.h
var stateToString = map[int]string{
	0: "TIME_OK",
	1: "TIME_INS",
	2: "TIME_DEL",
	3: "TIME_OOP",
	4: "TIME_WAIT",
	5: "TIME_ERROR",
}

// StateString returns clock_adjtime state as a string
func StateString(state int) string {
	if s, ok := stateToString[state]; ok {
		return s
	}
	return "UNKNOWN"
}

// Discipline is how the kernel currently steers the system clock
type Discipline struct {
	State        int
	FrequencyPPB float64
	MaxError     time.Duration
	EstError     time.Duration
	Unsynced     bool
}

func (d *Discipline) String() string {
	sync := "synchronized"
	if d.Unsynced {
		sync = "unsynchronized"
	}
	return fmt.Sprintf("%s, %s, frequency %.3f PPB, max error %v, estimated error %v", StateString(d.State), sync, d.FrequencyPPB, d.MaxError, d.EstError)
}

// FrequencyPPB reads device frequency in PPB
func FrequencyPPB(clockid int32) (freqPPB float64, state int, err error) {
	tx := &unix.Timex{}
	state, err = unix.ClockAdjtime(clockid, tx)
	// man(2) clock_adjtime
	freqPPB = float64(tx.Freq) / PPBToTimexPPM
	return freqPPB, state, err
}

// MaxFreqPPB returns maximum frequency adjustment supported by the clock
func MaxFreqPPB(clockid int32) (freqPPB float64, state int, err error) {
	tx := &unix.Timex{}
	state, err = unix.ClockAdjtime(clockid, tx)
	if err != nil {
		return 0.0, state, err
	}
	// man(2) clock_adjtime
	freqPPB = float64(tx.Tolerance) / PPBToTimexPPM
	if freqPPB == 0 {
		freqPPB = 500000
	}
	return freqPPB, state, nil
}

// SystemDiscipline reads system clock discipline without modifying anything.
// Zero modes make clock_adjtime a pure read, so no privileges are needed.
func SystemDiscipline() (*Discipline, error) {
	tx := &unix.Timex{}
	state, err := unix.ClockAdjtime(unix.CLOCK_REALTIME, tx)
	if err != nil {
		return nil, err
	}
	return &Discipline{
		State:        state,
		FrequencyPPB: float64(tx.Freq) / PPBToTimexPPM,
		// maxerror and esterror are in microseconds
		MaxError: time.Duration(tx.Maxerror) * time.Microsecond,
		EstError: time.Duration(tx.Esterror) * time.Microsecond,
		Unsynced: tx.Status&staUnsync != 0,
	}, nil
}
