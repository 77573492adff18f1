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
	"errors"
	"fmt"
	"slices"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"
)

// Scheduler is the iface for OS scheduling controls of the calling thread
type Scheduler interface {
	PriorityRange(policy Policy) (min int, max int, err error)
	SetScheduler(policy Policy, priority int, resetOnFork bool) error
	GetScheduler() (Policy, int, error)
	SetAffinity(cpus []int) error
	GetAffinity() ([]int, error)
}

// Elevator moves the calling thread to a fixed priority scheduling class
type Elevator struct {
	sched Scheduler
}

// NewElevator returns a new Elevator
func NewElevator(s Scheduler) *Elevator {
	return &Elevator{sched: s}
}

// Current returns scheduling profile the calling thread runs with
func (e *Elevator) Current() (Profile, error) {
	policy, priority, err := e.sched.GetScheduler()
	if err != nil {
		return Profile{}, fmt.Errorf("reading scheduling policy: %w", err)
	}
	p := Profile{Policy: policy, Priority: priority}
	cpus, err := e.sched.GetAffinity()
	if err != nil {
		log.Warningf("failed to read cpu affinity: %v", err)
		return p, nil
	}
	p.CPUs = cpus
	return p, nil
}

// Elevate applies the profile to the calling thread and verifies the OS took it
func (e *Elevator) Elevate(p Profile) (*Applied, error) {
	minPrio, maxPrio, err := e.sched.PriorityRange(p.Policy)
	if err != nil {
		return nil, fmt.Errorf("%w: priority range of %s: %w", ErrUnsupported, p.Policy, err)
	}
	priority := p.Priority
	if priority == 0 {
		priority = maxPrio
	}
	if priority < minPrio || priority > maxPrio {
		return nil, fmt.Errorf("%w: priority %d of %s is outside of [%d, %d]", ErrUnsupported, priority, p.Policy, minPrio, maxPrio)
	}
	log.Debugf("setting %s with priority %d (allowed %d..%d)", p.Policy, priority, minPrio, maxPrio)
	if err := e.sched.SetScheduler(p.Policy, priority, p.ResetOnFork); err != nil {
		return nil, fmt.Errorf("%w: setting %s priority %d: %w", classify(err), p.Policy, priority, err)
	}

	applied := &Applied{MinPriority: minPrio, MaxPriority: maxPrio}
	if len(p.CPUs) > 0 {
		if err := e.sched.SetAffinity(p.CPUs); err != nil {
			log.Warningf("failed to pin to cpus %v, continuing unpinned: %v", p.CPUs, err)
			applied.AffinityErr = err
		}
	}

	current, err := e.Current()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnsupported, err)
	}
	if current.Policy != p.Policy || current.Priority != priority {
		return nil, fmt.Errorf("%w: requested %s priority %d, kernel reports %s priority %d",
			ErrUnsupported, p.Policy, priority, current.Policy, current.Priority)
	}
	if applied.AffinityErr == nil && len(p.CPUs) > 0 && !sameCPUs(p.CPUs, current.CPUs) {
		applied.AffinityErr = fmt.Errorf("requested cpus %v, kernel reports %v", p.CPUs, current.CPUs)
		log.Warning(applied.AffinityErr)
	}
	applied.Profile = current
	return applied, nil
}

func classify(err error) error {
	if errors.Is(err, unix.EPERM) || errors.Is(err, unix.EACCES) {
		return ErrPermissionDenied
	}
	return ErrUnsupported
}

func sameCPUs(a, b []int) bool {
	a, b = slices.Clone(a), slices.Clone(b)
	slices.Sort(a)
	slices.Sort(b)
	return slices.Equal(slices.Compact(a), slices.Compact(b))
}
