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
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/facebook/rtdelay/timespec"
)

func TestCSVRecords(t *testing.T) {
	r := &IterationResult{
		Elapsed:      timespec.TimePoint{Sec: 1, Nsec: 63000},
		Error:        timespec.TimePoint{Nsec: 63000},
		ElapsedValid: true,
		ErrorValid:   true,
	}
	require.Equal(t, []string{"1.000063000", "0.000063000"}, r.CSVRecords())
	r.ErrorValid = false
	require.Equal(t, []string{"1.000063000", "NaN"}, r.CSVRecords())
}

func TestCSVExporter(t *testing.T) {
	var buf bytes.Buffer
	e := NewCSVExporter(&buf)
	require.NoError(t, e.Export(&IterationResult{
		Elapsed:      timespec.TimePoint{Nsec: 10055000},
		Error:        timespec.TimePoint{Nsec: 55000},
		ElapsedValid: true,
		ErrorValid:   true,
	}))
	require.NoError(t, e.Export(&IterationResult{}))
	require.NoError(t, e.Close())
	require.Equal(t, "Clock Time;Delay Error\n0.010055000;0.000055000\nNaN;NaN\n", buf.String())
}

func TestCSVExporterEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewCSVExporter(&buf).Close())
	require.Equal(t, "Clock Time;Delay Error\n", buf.String())
}

func TestCSVFileExporterTruncates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	require.NoError(t, os.WriteFile(path, []byte("stale data\nmore stale data\n"), 0o644))

	e, err := NewCSVFileExporter(path)
	require.NoError(t, err)
	require.NoError(t, e.Export(&IterationResult{Elapsed: timespec.TimePoint{Nsec: 1}, ElapsedValid: true}))
	require.NoError(t, e.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "Clock Time;Delay Error\n0.000000001;NaN\n", string(data))
}

func TestCSVFileExporterBadPath(t *testing.T) {
	_, err := NewCSVFileExporter(filepath.Join(t.TempDir(), "missing", "out.csv"))
	require.Error(t, err)
}
