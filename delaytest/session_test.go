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
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"golang.org/x/sys/unix"

	"github.com/facebook/rtdelay/clock"
	"github.com/facebook/rtdelay/sched"
	"github.com/facebook/rtdelay/sleeper"
	"github.com/facebook/rtdelay/timespec"
)

type fakeStats struct {
	counters map[string]int64
	states   []State
}

func newFakeStats() *fakeStats {
	return &fakeStats{counters: map[string]int64{}}
}

func (f *fakeStats) SetCounter(key string, val int64) {
	f.counters[key] = val
	if key == CounterState {
		f.states = append(f.states, State(val))
	}
}

func (f *fakeStats) UpdateCounterBy(key string, count int64) {
	f.counters[key] += count
}

type closeBuffer struct {
	bytes.Buffer
	closed bool
}

func (b *closeBuffer) Close() error {
	b.closed = true
	return nil
}

type recorder struct {
	seen []int
}

func (r *recorder) Observe(res *IterationResult) {
	r.seen = append(r.seen, res.Index)
}

func testConfig(iterations int) *Config {
	cfg := DefaultConfig()
	cfg.Iterations = iterations
	cfg.Output = ""
	return cfg
}

// elevatorFIFO returns elevator which successfully switches to SCHED_FIFO 99
func elevatorFIFO(ctrl *gomock.Controller) *sched.Elevator {
	s := sched.NewMockScheduler(ctrl)
	gomock.InOrder(
		s.EXPECT().GetScheduler().Return(sched.Other, 0, nil),
		s.EXPECT().GetAffinity().Return([]int{0, 1}, nil),
		s.EXPECT().PriorityRange(sched.FIFO).Return(1, 99, nil),
		s.EXPECT().SetScheduler(sched.FIFO, 99, false).Return(nil),
		s.EXPECT().GetScheduler().Return(sched.FIFO, 99, nil),
		s.EXPECT().GetAffinity().Return([]int{0, 1}, nil),
	)
	return sched.NewElevator(s)
}

func noSuspend(ctrl *gomock.Controller, times int) *sleeper.Sleeper {
	s := sleeper.NewMockSuspender(ctrl)
	s.EXPECT().Suspend(gomock.Any()).Return(timespec.TimePoint{}, nil).Times(times)
	return sleeper.New(s, sleeper.RetryPolicy{MaxRetries: 3})
}

func TestSessionEndToEnd(t *testing.T) {
	if testing.Short() {
		t.Skip("sleeps for over a second")
	}
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	cfg := testConfig(100)
	cfg.Output = filepath.Join(t.TempDir(), "rtdelay.csv")
	c, err := clock.New(clock.Monotonic)
	require.NoError(t, err)
	exporter, err := NewCSVFileExporter(cfg.Output)
	require.NoError(t, err)
	sl := sleeper.New(sleeper.NewClockSuspender(clock.Monotonic), cfg.Retry)
	st := newFakeStats()

	s := New(cfg, c, elevatorFIFO(ctrl), sl, WithExporter(exporter), WithStats(st))
	require.NoError(t, s.Run(context.Background()))
	require.Equal(t, Completed, s.State())
	require.Len(t, s.Results(), 100)
	require.Equal(t, []State{ClockSelected, Elevated, Running, Completed}, st.states)
	require.Equal(t, int64(100), st.counters[CounterIterations])

	data, err := os.ReadFile(cfg.Output)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	require.Len(t, lines, 101)
	require.Equal(t, "Clock Time;Delay Error", lines[0])
	for i, line := range lines[1:] {
		fields := strings.Split(line, ";")
		require.Len(t, fields, 2, "row %d", i)
		elapsed, err := strconv.ParseFloat(fields[0], 64)
		require.NoError(t, err, "row %d", i)
		require.GreaterOrEqual(t, elapsed, 0.01, "row %d", i)
		delayErr, err := strconv.ParseFloat(fields[1], 64)
		require.NoError(t, err, "row %d", i)
		require.GreaterOrEqual(t, delayErr, 0.0, "row %d", i)
	}

	summary := s.Summary()
	require.Equal(t, 100, summary.Iterations)
	require.Equal(t, 100, summary.Count)
	require.Equal(t, 0, summary.Invalid)
	require.GreaterOrEqual(t, summary.MinNS, 0.0)
}

func TestSessionNonMonotonic(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	c := clock.NewMockClock(ctrl)
	c.EXPECT().Resolution().Return(timespec.TimePoint{Nsec: 1}, nil)
	gomock.InOrder(
		c.EXPECT().Now().Return(timespec.TimePoint{Sec: 10}, nil),
		c.EXPECT().Now().Return(timespec.TimePoint{Sec: 9, Nsec: 500}, nil),
		c.EXPECT().Now().Return(timespec.TimePoint{Sec: 20}, nil),
		c.EXPECT().Now().Return(timespec.TimePoint{Sec: 20, Nsec: 5000000}, nil),
		c.EXPECT().Now().Return(timespec.TimePoint{Sec: 30}, nil),
		c.EXPECT().Now().Return(timespec.TimePoint{Sec: 30, Nsec: 10000100}, nil),
	)
	out := &closeBuffer{}
	st := newFakeStats()
	obs := &recorder{}

	s := New(testConfig(3), c, elevatorFIFO(ctrl), noSuspend(ctrl, 3),
		WithExporter(NewCSVExporter(out)), WithStats(st), WithObserver(obs))
	require.NoError(t, s.Run(context.Background()))
	require.Equal(t, Completed, s.State())
	require.True(t, out.closed)
	require.Equal(t, "Clock Time;Delay Error\nNaN;NaN\n0.005000000;NaN\n0.010000100;0.000000100\n", out.String())
	require.Equal(t, []int{0, 1, 2}, obs.seen)

	results := s.Results()
	require.False(t, results[0].ElapsedValid)
	require.False(t, results[0].ErrorValid)
	require.True(t, results[1].ElapsedValid)
	require.False(t, results[1].ErrorValid)
	require.True(t, results[2].ErrorValid)
	require.Equal(t, timespec.TimePoint{Nsec: 100}, results[2].Error)

	require.Equal(t, int64(2), st.counters[CounterNonMonotonic])
	require.Equal(t, int64(2), st.counters[CounterInvalid])
	require.Equal(t, &Summary{
		Iterations: 3,
		Count:      1,
		Invalid:    2,
		MeanNS:     100,
		MinNS:      100,
		MaxNS:      100,
		MaxAbsNS:   100,
		P99NS:      100,
	}, s.Summary())
}

func TestSessionRetriesExhausted(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	c := clock.NewMockClock(ctrl)
	c.EXPECT().Resolution().Return(timespec.TimePoint{Nsec: 1}, nil)
	gomock.InOrder(
		c.EXPECT().Now().Return(timespec.TimePoint{Sec: 1}, nil),
		c.EXPECT().Now().Return(timespec.TimePoint{Sec: 1, Nsec: 6000000}, nil),
	)
	sus := sleeper.NewMockSuspender(ctrl)
	sus.EXPECT().Suspend(timespec.TimePoint{Nsec: 10000000}).Return(timespec.TimePoint{Nsec: 4000000}, unix.EINTR)
	st := newFakeStats()

	cfg := testConfig(1)
	cfg.Retry.MaxRetries = 0
	s := New(cfg, c, elevatorFIFO(ctrl), sleeper.New(sus, cfg.Retry), WithStats(st))
	require.NoError(t, s.Run(context.Background()))

	r := s.Results()[0]
	require.Equal(t, 0, r.Retries)
	require.True(t, r.Exhausted())
	require.Equal(t, timespec.TimePoint{Nsec: 4000000}, r.Remaining)
	require.Equal(t, timespec.TimePoint{Nsec: 6000000}, r.Elapsed)
	require.False(t, r.ErrorValid)
	require.Equal(t, int64(1), st.counters[CounterExhausted])
	require.Equal(t, 1, s.Summary().Exhausted)
}

func TestSessionPermissionDenied(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	c := clock.NewMockClock(ctrl)
	c.EXPECT().Resolution().Return(timespec.TimePoint{Nsec: 1}, nil)
	sc := sched.NewMockScheduler(ctrl)
	gomock.InOrder(
		sc.EXPECT().GetScheduler().Return(sched.Other, 0, nil),
		sc.EXPECT().GetAffinity().Return([]int{0}, nil),
		sc.EXPECT().PriorityRange(sched.FIFO).Return(1, 99, nil),
		sc.EXPECT().SetScheduler(sched.FIFO, 99, false).Return(unix.EPERM),
	)
	out := &closeBuffer{}
	st := newFakeStats()

	s := New(testConfig(10), c, sched.NewElevator(sc), noSuspend(ctrl, 0), WithExporter(NewCSVExporter(out)), WithStats(st))
	err := s.Run(context.Background())
	require.ErrorIs(t, err, sched.ErrPermissionDenied)
	require.Equal(t, Failed, s.State())
	require.Equal(t, []State{ClockSelected, Failed}, st.states)
	require.NotContains(t, st.states, Running)
	require.Empty(t, s.Results())
	require.Nil(t, s.Applied())
	require.Nil(t, s.Summary())
	require.True(t, out.closed)
	require.Equal(t, "Clock Time;Delay Error\n", out.String())
}

func TestSessionClockQueryFailed(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	c := clock.NewMockClock(ctrl)
	c.EXPECT().Resolution().Return(timespec.TimePoint{}, fmt.Errorf("%w: %w", clock.ErrQueryFailed, unix.EINVAL))
	sc := sched.NewMockScheduler(ctrl)
	st := newFakeStats()

	s := New(testConfig(10), c, sched.NewElevator(sc), noSuspend(ctrl, 0), WithStats(st))
	err := s.Run(context.Background())
	require.ErrorIs(t, err, clock.ErrQueryFailed)
	require.Equal(t, Failed, s.State())
	require.Equal(t, []State{Failed}, st.states)
}

func TestSessionClockReadFailed(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	c := clock.NewMockClock(ctrl)
	c.EXPECT().Resolution().Return(timespec.TimePoint{Nsec: 1}, nil)
	gomock.InOrder(
		c.EXPECT().Now().Return(timespec.TimePoint{Sec: 1}, nil),
		c.EXPECT().Now().Return(timespec.TimePoint{}, fmt.Errorf("%w: %w", clock.ErrReadFailed, unix.EINVAL)),
	)

	s := New(testConfig(10), c, elevatorFIFO(ctrl), noSuspend(ctrl, 1))
	err := s.Run(context.Background())
	require.ErrorIs(t, err, clock.ErrReadFailed)
	require.Equal(t, Failed, s.State())
	require.Empty(t, s.Results())
}

func TestSessionSleepFailed(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	c := clock.NewMockClock(ctrl)
	c.EXPECT().Resolution().Return(timespec.TimePoint{Nsec: 1}, nil)
	c.EXPECT().Now().Return(timespec.TimePoint{Sec: 1}, nil)
	sus := sleeper.NewMockSuspender(ctrl)
	sus.EXPECT().Suspend(gomock.Any()).Return(timespec.TimePoint{}, unix.EFAULT)

	s := New(testConfig(10), c, elevatorFIFO(ctrl), sleeper.New(sus, sleeper.RetryPolicy{MaxRetries: 3}))
	err := s.Run(context.Background())
	require.ErrorIs(t, err, sleeper.ErrSleepFailed)
	require.Equal(t, Failed, s.State())
}

func TestSessionCancelled(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	c := clock.NewMockClock(ctrl)
	c.EXPECT().Resolution().Return(timespec.TimePoint{Nsec: 1}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := New(testConfig(10), c, elevatorFIFO(ctrl), noSuspend(ctrl, 0))
	err := s.Run(ctx)
	require.ErrorIs(t, err, ErrCancelled)
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, Failed, s.State())
	require.Empty(t, s.Results())
	require.NotNil(t, s.Applied())
}

func TestSessionRunsOnce(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	c := clock.NewMockClock(ctrl)
	c.EXPECT().Resolution().Return(timespec.TimePoint{Nsec: 1}, nil)
	gomock.InOrder(
		c.EXPECT().Now().Return(timespec.TimePoint{Sec: 1}, nil),
		c.EXPECT().Now().Return(timespec.TimePoint{Sec: 1, Nsec: 10000000}, nil),
	)

	s := New(testConfig(1), c, elevatorFIFO(ctrl), noSuspend(ctrl, 1))
	require.NoError(t, s.Run(context.Background()))
	require.Error(t, s.Run(context.Background()))
	require.Equal(t, Completed, s.State())
}

func TestNewSystem(t *testing.T) {
	cfg := testConfig(1)
	s, err := NewSystem(cfg)
	require.NoError(t, err)
	require.Equal(t, Idle, s.State())

	cfg.Clock = clock.Source(42)
	_, err = NewSystem(cfg)
	require.Error(t, err)
}

func TestStateString(t *testing.T) {
	require.Equal(t, "IDLE", Idle.String())
	require.Equal(t, "RUNNING", Running.String())
	require.Equal(t, "FAILED", Failed.String())
	require.Equal(t, "UNKNOWN", State(42).String())
	require.True(t, Completed.Terminal())
	require.True(t, Failed.Terminal())
	require.False(t, Running.Terminal())
}

func TestIterationResultString(t *testing.T) {
	r := &IterationResult{
		Index:        4,
		Requested:    timespec.FromDuration(10 * time.Millisecond),
		Elapsed:      timespec.TimePoint{Nsec: 10000500},
		ElapsedValid: true,
		Retries:      1,
	}
	require.Equal(t, "iteration 4: requested 0.010000000s, elapsed 0.010000500s, error invalid, retries 1", r.String())
}
