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

package sched

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// Missing from sys/unix package, defined in Linux include/uapi/linux/sched.h
const (
	schedFlagResetOnFork = 0x01
	// CPU_SETSIZE from glibc sched.h
	maxCPUs = 1024
)

// SysScheduler talks to the kernel about the calling thread
type SysScheduler struct{}

// PriorityRange returns sched_get_priority_min and sched_get_priority_max of the policy
func (s *SysScheduler) PriorityRange(policy Policy) (int, int, error) {
	minPrio, _, errno := unix.Syscall(unix.SYS_SCHED_GET_PRIORITY_MIN, uintptr(policy), 0, 0)
	if errno != 0 {
		return 0, 0, fmt.Errorf("sched_get_priority_min: %w", errno)
	}
	maxPrio, _, errno := unix.Syscall(unix.SYS_SCHED_GET_PRIORITY_MAX, uintptr(policy), 0, 0)
	if errno != 0 {
		return 0, 0, fmt.Errorf("sched_get_priority_max: %w", errno)
	}
	return int(minPrio), int(maxPrio), nil
}

// SetScheduler sets policy and priority of the calling thread with sched_setattr
func (s *SysScheduler) SetScheduler(policy Policy, priority int, resetOnFork bool) error {
	attr := &unix.SchedAttr{
		Policy:   uint32(policy),
		Priority: uint32(priority),
	}
	if resetOnFork {
		attr.Flags |= schedFlagResetOnFork
	}
	return unix.SchedSetAttr(0, attr, 0)
}

// GetScheduler returns policy and priority of the calling thread with sched_getattr
func (s *SysScheduler) GetScheduler() (Policy, int, error) {
	attr, err := unix.SchedGetAttr(0, 0)
	if err != nil {
		return 0, 0, err
	}
	return Policy(attr.Policy), int(attr.Priority), nil
}

// SetAffinity pins the calling thread to the cpus
func (s *SysScheduler) SetAffinity(cpus []int) error {
	var set unix.CPUSet
	set.Zero()
	for _, cpu := range cpus {
		if cpu < 0 || cpu >= maxCPUs {
			return fmt.Errorf("invalid cpu index %d", cpu)
		}
		set.Set(cpu)
	}
	return unix.SchedSetaffinity(0, &set)
}

// GetAffinity returns cpus the calling thread may run on
func (s *SysScheduler) GetAffinity() ([]int, error) {
	var set unix.CPUSet
	if err := unix.SchedGetaffinity(0, &set); err != nil {
		return nil, err
	}
	cpus := make([]int, 0, set.Count())
	for cpu := 0; cpu < maxCPUs; cpu++ {
		if set.IsSet(cpu) {
			cpus = append(cpus, cpu)
		}
	}
	return cpus, nil
}
