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
Package sysinfo identifies the system a measurement runs on.
*/
package sysinfo

import (
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/go-version"
	"github.com/shirou/gopsutil/cpu"
	"github.com/shirou/gopsutil/host"
)

// MinSchedAttrKernel is the first Linux release with sched_setattr
const MinSchedAttrKernel = "3.14"

// Identity describes the host
type Identity struct {
	Hostname        string
	OS              string
	Platform        string
	PlatformVersion string
	KernelVersion   string
	KernelArch      string
	CPUs            int
	BootTime        time.Time
}

// Collect returns Identity of the running host
func Collect() (*Identity, error) {
	info, err := host.Info()
	if err != nil {
		return nil, fmt.Errorf("reading host info: %w", err)
	}
	id := &Identity{
		Hostname:        info.Hostname,
		OS:              info.OS,
		Platform:        info.Platform,
		PlatformVersion: info.PlatformVersion,
		KernelVersion:   info.KernelVersion,
		KernelArch:      info.KernelArch,
		BootTime:        time.Unix(int64(info.BootTime), 0),
	}
	if n, err := cpu.Counts(true); err == nil {
		id.CPUs = n
	}
	return id, nil
}

func (i *Identity) String() string {
	return fmt.Sprintf("%s: %s %s %s, kernel %s %s, %d cpus, booted %s",
		i.Hostname, i.OS, i.Platform, i.PlatformVersion, i.KernelVersion, i.KernelArch, i.CPUs, i.BootTime.Format(time.RFC3339))
}

// kernelRelease cuts distribution suffix like "-generic" off the kernel version
func kernelRelease(kernel string) string {
	end := strings.IndexFunc(kernel, func(r rune) bool {
		return r != '.' && (r < '0' || r > '9')
	})
	if end >= 0 {
		kernel = kernel[:end]
	}
	return strings.TrimSuffix(kernel, ".")
}

// SupportsSchedAttr reports whether kernel version has sched_setattr
func SupportsSchedAttr(kernel string) (bool, error) {
	v, err := version.NewVersion(kernelRelease(kernel))
	if err != nil {
		return false, fmt.Errorf("parsing kernel version %q: %w", kernel, err)
	}
	return !v.LessThan(version.Must(version.NewVersion(MinSchedAttrKernel))), nil
}
