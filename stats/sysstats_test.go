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
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/exp/maps"
)

var expectedNonAggregateKeys = []string{"process.uptime", "process.ctx_switches.voluntary", "process.ctx_switches.involuntary", "process.num_threads", "process.rss", "process.vms", "runtime.cpu.goroutines", "runtime.mem.alloc", "runtime.mem.sys", "runtime.mem.gc.pause_total", "runtime.mem.gc.pause", "runtime.mem.gc.count"}
var expectedAggKeys = []string{"process.ctx_switches.voluntary.sum.1", "process.ctx_switches.voluntary.rate.1", "process.ctx_switches.involuntary.sum.1", "process.ctx_switches.involuntary.rate.1", "runtime.gc.pause_ns.sum.1", "runtime.gc.pause_ns.rate.1", "runtime.gc.count.sum.1", "runtime.gc.count.rate.1"}

func TestSysStats(t *testing.T) {
	stats := SysStats{}
	interval := time.Second

	collected, err := stats.CollectRuntimeStats(interval)
	require.NoError(t, err)
	keys := maps.Keys(collected)
	require.ElementsMatch(t, keys, expectedNonAggregateKeys)

	// Run collection again to get aggregated metrics too
	collected, err = stats.CollectRuntimeStats(interval)
	require.NoError(t, err)
	keys = maps.Keys(collected)
	require.ElementsMatch(t, keys, append(expectedNonAggregateKeys, expectedAggKeys...))
}

func TestSetRate(t *testing.T) {
	stats := make(map[string]uint64)
	intervaltime := time.Second * time.Duration(5)
	setRate("test", stats, 20, 1, intervaltime)

	expected := map[string]uint64{
		"test.sum.5":  19,
		"test.rate.5": 3,
	}
	require.Equal(t, expected, stats)

	stats = make(map[string]uint64)
	setRate("test", stats, 1, 20, intervaltime)
	setRate("test", stats, 20, 1, time.Millisecond)
	require.Empty(t, stats)
}
