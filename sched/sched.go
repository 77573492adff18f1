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
Package sched elevates the calling thread to a real-time scheduling class.

Linux applies scheduling attributes per thread, so callers are expected to pin their goroutine
with runtime.LockOSThread before elevating. Threads spawned by an elevated thread inherit the
policy unless the profile asks for SCHED_RESET_ON_FORK.
*/
package sched

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrPermissionDenied means the OS refused to change scheduling for lack of privileges
	ErrPermissionDenied = errors.New("scheduling change not permitted")
	// ErrUnsupported means the OS rejected the requested policy or priority
	ErrUnsupported = errors.New("scheduling change not supported")
)

// Policy is a Linux scheduling policy as defined in include/uapi/linux/sched.h
type Policy uint32

// Supported policies
const (
	// Other is SCHED_OTHER, default time shared scheduling
	Other Policy = 0
	// FIFO is SCHED_FIFO, fixed priority first in first out
	FIFO Policy = 1
	// RR is SCHED_RR, fixed priority round robin
	RR Policy = 2
)

// Policies lists every supported policy
var Policies = []Policy{FIFO, RR, Other}

func (p Policy) String() string {
	switch p {
	case Other:
		return "SCHED_OTHER"
	case FIFO:
		return "SCHED_FIFO"
	case RR:
		return "SCHED_RR"
	}
	return "UNKNOWN"
}

// Realtime reports whether the policy is a fixed priority one
func (p Policy) Realtime() bool {
	return p == FIFO || p == RR
}

// ParsePolicy parses policy name such as "fifo" or "SCHED_RR", case insensitive
func ParsePolicy(name string) (Policy, error) {
	n := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(name)), "sched_")
	switch n {
	case "fifo":
		return FIFO, nil
	case "rr", "roundrobin":
		return RR, nil
	case "other", "normal", "timeshared":
		return Other, nil
	}
	return 0, fmt.Errorf("unknown scheduling policy %q", name)
}

// MarshalYAML implements yaml.Marshaler
func (p Policy) MarshalYAML() (interface{}, error) {
	return p.String(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler
func (p *Policy) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var name string
	if err := unmarshal(&name); err != nil {
		return err
	}
	parsed, err := ParsePolicy(name)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// Profile is what scheduling we want for a thread
type Profile struct {
	Policy Policy `yaml:"policy"`
	// Priority 0 means the maximum allowed for Policy
	Priority int `yaml:"priority"`
	// CPUs to pin to, empty means no pinning
	CPUs        []int `yaml:"cpus"`
	ResetOnFork bool  `yaml:"reset_on_fork"`
}

func (p Profile) String() string {
	s := fmt.Sprintf("%s priority %d", p.Policy, p.Priority)
	if len(p.CPUs) > 0 {
		s += fmt.Sprintf(" cpus %v", p.CPUs)
	}
	return s
}

// Applied is the outcome of a successful elevation
type Applied struct {
	// Profile as reported back by the OS
	Profile     Profile
	MinPriority int
	MaxPriority int
	// AffinityErr holds the reason pinning failed, it does not fail the elevation
	AffinityErr error
}
