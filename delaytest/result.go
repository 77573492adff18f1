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

import (
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/eclesh/welford"

	"github.com/facebook/rtdelay/timespec"
)

// IterationResult is the outcome of a single timed sleep
type IterationResult struct {
	Index     int
	Requested timespec.TimePoint
	Elapsed   timespec.TimePoint
	// Error is how much longer than Requested the sleep took
	Error   timespec.TimePoint
	Retries int
	// Remaining is what was left unslept when retries ran out
	Remaining    timespec.TimePoint
	ElapsedValid bool
	ErrorValid   bool
}

// Exhausted reports whether the sleep gave up with time left to sleep
func (r *IterationResult) Exhausted() bool {
	return !r.Remaining.IsZero()
}

func (r *IterationResult) String() string {
	elapsed := "invalid"
	if r.ElapsedValid {
		elapsed = r.Elapsed.String()
	}
	delayErr := "invalid"
	if r.ErrorValid {
		delayErr = r.Error.String()
	}
	return fmt.Sprintf("iteration %d: requested %s, elapsed %s, error %s, retries %d", r.Index, r.Requested, elapsed, delayErr, r.Retries)
}

// Summary has aggregated statistics over valid delay errors of a run
type Summary struct {
	Iterations int
	Count      int // iterations with valid error
	Invalid    int
	Retries    int
	Exhausted  int
	MeanNS     float64
	StddevNS   float64
	MinNS      float64
	MaxNS      float64
	MaxAbsNS   float64
	P99NS      float64
}

// Summarize aggregates results, invalid ones only count towards Invalid
func Summarize(results []IterationResult) *Summary {
	s := &Summary{Iterations: len(results)}
	w := welford.New()
	errs := make([]float64, 0, len(results))
	for _, r := range results {
		s.Retries += r.Retries
		if r.Exhausted() {
			s.Exhausted++
		}
		if !r.ErrorValid {
			s.Invalid++
			continue
		}
		v := float64(r.Error.Duration().Nanoseconds())
		w.Add(v)
		errs = append(errs, v)
	}
	s.Count = len(errs)
	if s.Count == 0 {
		return s
	}
	slices.Sort(errs)
	s.MeanNS = w.Mean()
	if s.Count > 1 {
		s.StddevNS = w.Stddev()
	}
	s.MinNS = errs[0]
	s.MaxNS = errs[len(errs)-1]
	s.MaxAbsNS = math.Max(math.Abs(s.MinNS), math.Abs(s.MaxNS))
	s.P99NS = percentile(errs, 99)
	return s
}

// percentile uses nearest rank method on sorted values
func percentile(sorted []float64, p float64) float64 {
	rank := int(math.Ceil(p / 100 * float64(len(sorted))))
	if rank < 1 {
		rank = 1
	}
	return sorted[rank-1]
}

func (s *Summary) String() string {
	return fmt.Sprintf("iterations %d (invalid %d), retries %d, error mean %v, stddev %v, min %v, max %v, max abs %v, p99 %v",
		s.Iterations, s.Invalid, s.Retries,
		time.Duration(s.MeanNS), time.Duration(s.StddevNS), time.Duration(s.MinNS),
		time.Duration(s.MaxNS), time.Duration(s.MaxAbsNS), time.Duration(s.P99NS))
}

// parameters returns summary as govaluate parameters
func (s *Summary) parameters() map[string]interface{} {
	return map[string]interface{}{
		"mean":       s.MeanNS,
		"stddev":     s.StddevNS,
		"minerr":     s.MinNS,
		"maxerr":     s.MaxNS,
		"maxabs":     s.MaxAbsNS,
		"p99":        s.P99NS,
		"invalid":    float64(s.Invalid),
		"retries":    float64(s.Retries),
		"exhausted":  float64(s.Exhausted),
		"iterations": float64(s.Iterations),
	}
}
