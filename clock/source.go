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
	"errors"
	"fmt"
	"strings"

	"github.com/facebook/rtdelay/timespec"
	"golang.org/x/sys/unix"
)

var (
	// ErrQueryFailed means the OS refused to report clock resolution
	ErrQueryFailed = errors.New("clock resolution query failed")
	// ErrReadFailed means the OS refused to report current clock time
	ErrReadFailed = errors.New("clock read failed")
)

// Source is a POSIX clock we can measure against
type Source int

// Supported sources
const (
	// WallClock is CLOCK_REALTIME, settable and affected by discontinuous jumps
	WallClock Source = iota
	// WallClockCoarse is a faster but less precise CLOCK_REALTIME
	WallClockCoarse
	// Monotonic is CLOCK_MONOTONIC, not settable but slewed by NTP
	Monotonic
	// MonotonicCoarse is a faster but less precise CLOCK_MONOTONIC
	MonotonicCoarse
	// MonotonicRaw is CLOCK_MONOTONIC_RAW, raw hardware time not subject to NTP adjustments
	MonotonicRaw
)

// Sources lists every supported source in declaration order
var Sources = []Source{WallClock, WallClockCoarse, Monotonic, MonotonicCoarse, MonotonicRaw}

var sourceToID = map[Source]int32{
	WallClock:       unix.CLOCK_REALTIME,
	WallClockCoarse: unix.CLOCK_REALTIME_COARSE,
	Monotonic:       unix.CLOCK_MONOTONIC,
	MonotonicCoarse: unix.CLOCK_MONOTONIC_COARSE,
	MonotonicRaw:    unix.CLOCK_MONOTONIC_RAW,
}

var sourceToString = map[Source]string{
	WallClock:       "CLOCK_REALTIME",
	WallClockCoarse: "CLOCK_REALTIME_COARSE",
	Monotonic:       "CLOCK_MONOTONIC",
	MonotonicCoarse: "CLOCK_MONOTONIC_COARSE",
	MonotonicRaw:    "CLOCK_MONOTONIC_RAW",
}

// short aliases accepted by ParseSource in addition to the POSIX names
var aliasToSource = map[string]Source{
	"realtime":         WallClock,
	"wallclock":        WallClock,
	"realtime_coarse":  WallClockCoarse,
	"monotonic":        Monotonic,
	"monotonic_coarse": MonotonicCoarse,
	"monotonic_raw":    MonotonicRaw,
	"raw":              MonotonicRaw,
}

func (s Source) String() string {
	if name, ok := sourceToString[s]; ok {
		return name
	}
	return "UNKNOWN"
}

// ID returns POSIX clock id of the source
func (s Source) ID() (int32, bool) {
	id, ok := sourceToID[s]
	return id, ok
}

// SleepID returns the clock id clock_nanosleep should use for this source.
// Kernel refuses to sleep on coarse and raw clocks, those fall back to CLOCK_MONOTONIC.
func (s Source) SleepID() int32 {
	switch s {
	case WallClock, WallClockCoarse:
		return unix.CLOCK_REALTIME
	default:
		return unix.CLOCK_MONOTONIC
	}
}

// ParseSource parses either POSIX clock name or a short alias, case insensitive
func ParseSource(name string) (Source, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	if s, ok := aliasToSource[strings.TrimPrefix(n, "clock_")]; ok {
		return s, nil
	}
	return 0, fmt.Errorf("unknown clock %q", name)
}

// MarshalYAML implements yaml.Marshaler
func (s Source) MarshalYAML() (interface{}, error) {
	return s.String(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler
func (s *Source) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var name string
	if err := unmarshal(&name); err != nil {
		return err
	}
	parsed, err := ParseSource(name)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Clock is the iface for reading a clock
type Clock interface {
	Now() (timespec.TimePoint, error)
	Resolution() (timespec.TimePoint, error)
}

// SysClock reads a POSIX clock via clock_gettime and clock_getres
type SysClock struct {
	source Source
	id     int32
}

// New returns SysClock for given source
func New(source Source) (*SysClock, error) {
	id, ok := source.ID()
	if !ok {
		return nil, fmt.Errorf("%w: unsupported clock source %d", ErrQueryFailed, int(source))
	}
	return &SysClock{source: source, id: id}, nil
}

// Source returns the source this clock reads
func (c *SysClock) Source() Source {
	return c.source
}

// Now returns current time of the clock
func (c *SysClock) Now() (timespec.TimePoint, error) {
	var ts unix.Timespec
	if err := unix.ClockGettime(c.id, &ts); err != nil {
		return timespec.TimePoint{}, fmt.Errorf("%w: clock_gettime(%s): %w", ErrReadFailed, c.source, err)
	}
	return FromTimespec(ts), nil
}

// Resolution returns granularity of the clock
func (c *SysClock) Resolution() (timespec.TimePoint, error) {
	var ts unix.Timespec
	if err := unix.ClockGetres(c.id, &ts); err != nil {
		return timespec.TimePoint{}, fmt.Errorf("%w: clock_getres(%s): %w", ErrQueryFailed, c.source, err)
	}
	return FromTimespec(ts), nil
}

// FromTimespec converts unix.Timespec into TimePoint
func FromTimespec(ts unix.Timespec) timespec.TimePoint {
	sec, nsec := ts.Unix()
	return timespec.Normalize(timespec.TimePoint{Sec: sec, Nsec: nsec})
}

// ToTimespec converts a relative TimePoint into unix.Timespec
func ToTimespec(t timespec.TimePoint) unix.Timespec {
	return unix.NsecToTimespec(int64(t.Duration()))
}
