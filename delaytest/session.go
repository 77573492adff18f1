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
	"context"
	"errors"
	"fmt"
	"runtime"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/facebook/rtdelay/clock"
	"github.com/facebook/rtdelay/sched"
	"github.com/facebook/rtdelay/sleeper"
	"github.com/facebook/rtdelay/timespec"
)

// ErrCancelled is returned when the context is done before all iterations ran
var ErrCancelled = errors.New("measurement cancelled")

// counters reported to StatsServer
const (
	CounterState        = "rtdelay.state"
	CounterIterations   = "rtdelay.iterations"
	CounterRetries      = "rtdelay.retries"
	CounterExhausted    = "rtdelay.exhausted"
	CounterNonMonotonic = "rtdelay.nonmonotonic"
	CounterInvalid      = "rtdelay.invalid"
)

// StatsServer is a stats server interface
type StatsServer interface {
	SetCounter(key string, val int64)
	UpdateCounterBy(key string, count int64)
}

// Observer is notified about every finished iteration
type Observer interface {
	Observe(r *IterationResult)
}

// Option configures Session
type Option func(*Session)

// WithExporter makes session export every iteration, session closes the exporter when done
func WithExporter(e Exporter) Option {
	return func(s *Session) {
		s.exporter = e
	}
}

// WithObserver adds an iteration observer
func WithObserver(o Observer) Option {
	return func(s *Session) {
		s.observers = append(s.observers, o)
	}
}

// WithStats makes session report counters
func WithStats(st StatsServer) Option {
	return func(s *Session) {
		s.stats = st
	}
}

// Session is a single measurement run. It is driven by one goroutine at a time,
// results are safe to read once Run returned.
type Session struct {
	cfg       *Config
	clock     clock.Clock
	elevator  *sched.Elevator
	sleeper   *sleeper.Sleeper
	exporter  Exporter
	observers []Observer
	stats     StatsServer

	state   State
	applied *sched.Applied
	results []IterationResult
	summary *Summary
}

// New returns Session with given dependencies
func New(cfg *Config, c clock.Clock, elevator *sched.Elevator, sl *sleeper.Sleeper, opts ...Option) *Session {
	s := &Session{
		cfg:      cfg,
		clock:    c,
		elevator: elevator,
		sleeper:  sl,
		results:  make([]IterationResult, 0, cfg.Iterations),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewSystem returns Session measuring OS clocks and scheduling
func NewSystem(cfg *Config, opts ...Option) (*Session, error) {
	c, err := clock.New(cfg.Clock)
	if err != nil {
		return nil, err
	}
	sl := sleeper.New(sleeper.NewClockSuspender(cfg.Clock), cfg.Retry)
	return New(cfg, c, sched.NewElevator(&sched.SysScheduler{}), sl, opts...), nil
}

// State returns current state of the session
func (s *Session) State() State {
	return s.state
}

// Results returns results of all iterations ran so far
func (s *Session) Results() []IterationResult {
	return s.results
}

// Summary returns aggregated results, nil unless session Completed
func (s *Session) Summary() *Summary {
	return s.summary
}

// Applied returns scheduling the measurement ran with, nil before elevation
func (s *Session) Applied() *sched.Applied {
	return s.applied
}

func (s *Session) setState(state State) {
	log.Debugf("session state %s -> %s", s.state, state)
	s.state = state
	if s.stats != nil {
		s.stats.SetCounter(CounterState, int64(state))
	}
}

func (s *Session) count(key string, val int64) {
	if s.stats != nil {
		s.stats.UpdateCounterBy(key, val)
	}
}

// Run performs the measurement on a dedicated OS thread and waits for it to finish
func (s *Session) Run(ctx context.Context) error {
	if s.state != Idle {
		return fmt.Errorf("session is %s, not %s", s.state, Idle)
	}
	var eg errgroup.Group
	eg.Go(func() error {
		// never unlocked: the thread dies with the goroutine and takes its scheduling class along
		runtime.LockOSThread()
		return s.run(ctx)
	})
	if err := eg.Wait(); err != nil {
		log.Errorf("measurement failed in state %s: %v", s.state, err)
		s.setState(Failed)
		return err
	}
	return nil
}

func (s *Session) run(ctx context.Context) error {
	defer func() {
		if err := s.closeExporter(); err != nil {
			log.Errorf("closing export: %v", err)
		}
	}()

	res, err := s.clock.Resolution()
	if err != nil {
		return fmt.Errorf("selecting %s: %w", s.cfg.Clock, err)
	}
	log.Infof("using %s with resolution %s", s.cfg.Clock, res)
	s.setState(ClockSelected)

	if before, err := s.elevator.Current(); err != nil {
		log.Warningf("failed to read scheduling before adjustments: %v", err)
	} else {
		log.Infof("before adjustments to scheduling policy: %s", before)
	}
	applied, err := s.elevator.Elevate(s.cfg.Scheduling)
	if err != nil {
		return fmt.Errorf("elevating to %s: %w", s.cfg.Scheduling, err)
	}
	s.applied = applied
	log.Infof("after adjustments to scheduling policy: %s (allowed priority %d..%d)", applied.Profile, applied.MinPriority, applied.MaxPriority)
	s.setState(Elevated)

	requested := timespec.FromDuration(s.cfg.Delay)
	s.setState(Running)
	for i := 0; i < s.cfg.Iterations; i++ {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%w after %d iterations: %w", ErrCancelled, i, err)
		}
		r, err := s.iteration(i, requested)
		if err != nil {
			return err
		}
		s.results = append(s.results, *r)
		if s.exporter != nil {
			if err := s.exporter.Export(r); err != nil {
				return fmt.Errorf("exporting iteration %d: %w", i, err)
			}
		}
		for _, o := range s.observers {
			o.Observe(r)
		}
	}

	if err := s.closeExporter(); err != nil {
		return fmt.Errorf("closing export: %w", err)
	}
	s.summary = Summarize(s.results)
	log.Infof("summary: %s", s.summary)
	s.setState(Completed)
	return nil
}

func (s *Session) closeExporter() error {
	if s.exporter == nil {
		return nil
	}
	e := s.exporter
	s.exporter = nil
	return e.Close()
}

// iteration returns error only for fatal failures, arithmetic anomalies are recorded in the result
func (s *Session) iteration(index int, requested timespec.TimePoint) (*IterationResult, error) {
	start, err := s.clock.Now()
	if err != nil {
		return nil, fmt.Errorf("iteration %d start: %w", index, err)
	}
	slept, err := s.sleeper.SleepFor(requested)
	if err != nil {
		return nil, fmt.Errorf("iteration %d: %w", index, err)
	}
	stop, err := s.clock.Now()
	if err != nil {
		return nil, fmt.Errorf("iteration %d stop: %w", index, err)
	}

	r := &IterationResult{
		Index:     index,
		Requested: requested,
		Retries:   slept.Retries,
		Remaining: slept.Remaining,
	}
	s.count(CounterIterations, 1)
	s.count(CounterRetries, int64(slept.Retries))
	if r.Exhausted() {
		log.Warningf("iteration %d: gave up after %d retries with %s left to sleep", index, slept.Retries, slept.Remaining)
		s.count(CounterExhausted, 1)
	}

	r.Elapsed, err = timespec.Diff(stop, start)
	if err != nil {
		log.Warningf("iteration %d: elapsed time from %s to %s: %v", index, start, stop, err)
		s.count(CounterNonMonotonic, 1)
		s.count(CounterInvalid, 1)
		return r, nil
	}
	r.ElapsedValid = true
	log.Infof("%s clock DT seconds = %d, msec=%d, usec=%d, nsec=%d, sec=%.9f",
		s.cfg.Clock, r.Elapsed.Sec, r.Elapsed.Nsec/1e6, r.Elapsed.Nsec/1e3, r.Elapsed.Nsec, r.Elapsed.Seconds())

	r.Error, err = timespec.Diff(r.Elapsed, requested)
	if err != nil {
		log.Warningf("iteration %d: slept %s less than requested %s: %v", index, timespec.Sub(requested, r.Elapsed), requested, err)
		s.count(CounterNonMonotonic, 1)
		s.count(CounterInvalid, 1)
		return r, nil
	}
	r.ErrorValid = true
	log.Infof("%s delay error = %d, nanoseconds = %d", s.cfg.Clock, r.Error.Sec, r.Error.Nsec)
	return r, nil
}
