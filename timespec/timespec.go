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

/*
Package timespec implements arithmetic on two-field (seconds, nanoseconds) time values
as returned by clock_gettime and accepted by clock_nanosleep.

Every value produced by this package is normalized: Nsec is always within [0, NsecPerSec).
Negative quantities keep a non-negative Nsec and borrow from Sec, so -0.3s is {-1, 700000000}.
*/
package timespec

import (
	"errors"
	"fmt"
	"time"
)

// NsecPerSec is the number of nanoseconds in one second
const NsecPerSec int64 = 1000000000

// ErrNonMonotonic is returned when the later time point is earlier than the former
var ErrNonMonotonic = errors.New("stop time is earlier than start time")

// TimePoint is an absolute or relative time with nanosecond precision
type TimePoint struct {
	Sec  int64
	Nsec int64
}

// FromDuration converts time.Duration into a normalized TimePoint
func FromDuration(d time.Duration) TimePoint {
	return Normalize(TimePoint{Sec: int64(d / time.Second), Nsec: int64(d % time.Second)})
}

// Normalize brings Nsec into [0, NsecPerSec), carrying or borrowing whole seconds
func Normalize(t TimePoint) TimePoint {
	sec := t.Sec + t.Nsec/NsecPerSec
	nsec := t.Nsec % NsecPerSec
	if nsec < 0 {
		nsec += NsecPerSec
		sec--
	}
	return TimePoint{Sec: sec, Nsec: nsec}
}

// Diff returns stop - start for a stop that is not earlier than start.
// A stop earlier than start fails with ErrNonMonotonic instead of producing a negative value.
func Diff(stop, start TimePoint) (TimePoint, error) {
	sec := stop.Sec - start.Sec
	nsec := stop.Nsec - start.Nsec

	switch {
	case sec < 0:
		return TimePoint{}, fmt.Errorf("%w: %s - %s", ErrNonMonotonic, stop, start)
	case nsec >= NsecPerSec:
		// rollover, fraction holds more than a second
		carry := nsec / NsecPerSec
		return TimePoint{Sec: sec + carry, Nsec: nsec - carry*NsecPerSec}, nil
	case nsec >= 0:
		return TimePoint{Sec: sec, Nsec: nsec}, nil
	case sec == 0:
		// less than a second apart and the fraction went backwards
		return TimePoint{}, fmt.Errorf("%w: %s - %s", ErrNonMonotonic, stop, start)
	}

	// borrow whole seconds for the negative fraction
	borrow := (NsecPerSec - 1 - nsec) / NsecPerSec
	if borrow > sec {
		return TimePoint{}, fmt.Errorf("%w: %s - %s", ErrNonMonotonic, stop, start)
	}
	return TimePoint{Sec: sec - borrow, Nsec: nsec + borrow*NsecPerSec}, nil
}

// Add returns normalized a + b
func Add(a, b TimePoint) TimePoint {
	return Normalize(TimePoint{Sec: a.Sec + b.Sec, Nsec: a.Nsec + b.Nsec})
}

// Sub returns normalized a - b, which may be negative
func Sub(a, b TimePoint) TimePoint {
	return Normalize(TimePoint{Sec: a.Sec - b.Sec, Nsec: a.Nsec - b.Nsec})
}

// Compare returns -1, 0 or +1 depending on whether a is before, equal to or after b
func Compare(a, b TimePoint) int {
	a, b = Normalize(a), Normalize(b)
	switch {
	case a.Sec < b.Sec:
		return -1
	case a.Sec > b.Sec:
		return 1
	case a.Nsec < b.Nsec:
		return -1
	case a.Nsec > b.Nsec:
		return 1
	}
	return 0
}

// Seconds converts t into floating point seconds. Only meant for display and export.
func (t TimePoint) Seconds() float64 {
	return float64(t.Sec) + float64(t.Nsec)/float64(NsecPerSec)
}

// Duration converts t into time.Duration
func (t TimePoint) Duration() time.Duration {
	return time.Duration(t.Sec)*time.Second + time.Duration(t.Nsec)
}

// IsZero reports whether both fields are zero
func (t TimePoint) IsZero() bool {
	return t.Sec == 0 && t.Nsec == 0
}

// Before reports whether t is earlier than u
func (t TimePoint) Before(u TimePoint) bool {
	return Compare(t, u) < 0
}

func (t TimePoint) String() string {
	t = Normalize(t)
	if t.Sec < 0 {
		neg := Sub(TimePoint{}, t)
		return fmt.Sprintf("-%d.%09ds", neg.Sec, neg.Nsec)
	}
	return fmt.Sprintf("%d.%09ds", t.Sec, t.Nsec)
}
