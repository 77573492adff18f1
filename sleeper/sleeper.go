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

package sleeper

import (
	"errors"
	"fmt"

	"github.com/facebook/rtdelay/clock"
	"github.com/facebook/rtdelay/timespec"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"
)

// ErrSleepFailed is returned when the OS rejects a sleep request for reasons other than a signal
var ErrSleepFailed = errors.New("sleep failed")

// RetryPolicy caps how many times an interrupted sleep is resumed
type RetryPolicy struct {
	MaxRetries int `yaml:"max_retries"`
}

// Suspender suspends the calling thread. On interruption it returns the unslept time and the error.
type Suspender interface {
	Suspend(req timespec.TimePoint) (remaining timespec.TimePoint, err error)
}

// ClockSuspender sleeps with clock_nanosleep against a POSIX clock
type ClockSuspender struct {
	clockID int32
}

// NewClockSuspender returns ClockSuspender sleeping on the clock appropriate for the source
func NewClockSuspender(source clock.Source) *ClockSuspender {
	return &ClockSuspender{clockID: source.SleepID()}
}

// Suspend implements Suspender
func (s *ClockSuspender) Suspend(req timespec.TimePoint) (timespec.TimePoint, error) {
	request := clock.ToTimespec(req)
	var remain unix.Timespec
	if err := unix.ClockNanosleep(s.clockID, 0, &request, &remain); err != nil {
		return clock.FromTimespec(remain), err
	}
	return timespec.TimePoint{}, nil
}

// Result describes how a sleep went
type Result struct {
	// Retries is how many times the sleep was resumed after an interruption
	Retries int
	// Remaining is the time left unslept when retries ran out
	Remaining timespec.TimePoint
}

// Sleeper sleeps for a requested duration, resuming interrupted sleeps
type Sleeper struct {
	suspender Suspender
	policy    RetryPolicy
}

// New returns a new Sleeper
func New(suspender Suspender, policy RetryPolicy) *Sleeper {
	return &Sleeper{suspender: suspender, policy: policy}
}

// Policy returns retry policy of the sleeper
func (s *Sleeper) Policy() RetryPolicy {
	return s.policy
}

// SleepFor sleeps for requested duration.
// An interrupted sleep is resumed with the remaining time while there is time left and
// the retry cap is not reached. Running out of retries is not an error, the caller
// sees it as a shorter sleep.
func (s *Sleeper) SleepFor(requested timespec.TimePoint) (Result, error) {
	res := Result{}
	req := requested
	for {
		remaining, err := s.suspender.Suspend(req)
		if err == nil {
			return res, nil
		}
		if !errors.Is(err, unix.EINTR) {
			return res, fmt.Errorf("%w: requested %s: %w", ErrSleepFailed, req, err)
		}
		if remaining.IsZero() {
			return res, nil
		}
		if res.Retries >= s.policy.MaxRetries {
			log.Debugf("sleep interrupted with %s left, out of retries (%d)", remaining, s.policy.MaxRetries)
			res.Remaining = remaining
			return res, nil
		}
		res.Retries++
		log.Debugf("sleep interrupted with %s left, retry %d", remaining, res.Retries)
		req = remaining
	}
}
