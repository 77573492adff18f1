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

package stats

import (
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/process"
)

var procStartTime = time.Now()

// SysStats collects process stats relevant for latency: context switches, threads, memory and gc
type SysStats struct {
	memstats    *runtime.MemStats
	ctxSwitches *process.NumCtxSwitchesStat
}

// setRate is a helper function to make a crude rate/diff
func setRate(name string, counts map[string]uint64, cur, prev uint64, interval time.Duration) {
	if prev > cur {
		return
	}
	secs := uint64(interval.Seconds())
	if secs == 0 {
		return
	}
	counts[fmt.Sprintf("%s.sum.%d", name, secs)] = cur - prev
	counts[fmt.Sprintf("%s.rate.%d", name, secs)] = (cur - prev) / secs
}

// CollectRuntimeStats gathers context switches, threads, mem, gc statistics
func (s *SysStats) CollectRuntimeStats(interval time.Duration) (map[string]uint64, error) {
	stats := make(map[string]uint64)
	m := &runtime.MemStats{}
	runtime.ReadMemStats(m)

	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return nil, err
	}
	stats["process.uptime"] = uint64(time.Now().Unix() - procStartTime.Unix())

	if val, err := proc.NumCtxSwitches(); err == nil {
		stats["process.ctx_switches.voluntary"] = uint64(val.Voluntary)
		stats["process.ctx_switches.involuntary"] = uint64(val.Involuntary)
		if s.ctxSwitches != nil {
			setRate("process.ctx_switches.voluntary", stats, uint64(val.Voluntary), uint64(s.ctxSwitches.Voluntary), interval)
			setRate("process.ctx_switches.involuntary", stats, uint64(val.Involuntary), uint64(s.ctxSwitches.Involuntary), interval)
		}
		s.ctxSwitches = val
	}

	if val, err := proc.NumThreads(); err == nil {
		stats["process.num_threads"] = uint64(val)
	}

	if val, err := proc.MemoryInfo(); err == nil {
		stats["process.rss"] = val.RSS
		stats["process.vms"] = val.VMS
	}

	// Go Runtime metrics
	stats["runtime.cpu.goroutines"] = uint64(runtime.NumGoroutine())
	stats["runtime.mem.alloc"] = m.Alloc
	stats["runtime.mem.sys"] = m.Sys
	stats["runtime.mem.gc.pause_total"] = m.PauseTotalNs
	stats["runtime.mem.gc.pause"] = m.PauseNs[(m.NumGC+255)%256]
	stats["runtime.mem.gc.count"] = uint64(m.NumGC)
	if s.memstats != nil {
		setRate("runtime.gc.pause_ns", stats, m.PauseTotalNs, s.memstats.PauseTotalNs, interval)
		setRate("runtime.gc.count", stats, uint64(m.NumGC), uint64(s.memstats.NumGC), interval)
	}
	s.memstats = m
	return stats, nil
}
