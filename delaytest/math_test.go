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
	"testing"

	"github.com/stretchr/testify/require"
)

func TestVerdict(t *testing.T) {
	s := &Summary{Iterations: 100, Count: 99, Invalid: 1, MeanNS: 60000, StddevNS: 2000, MinNS: -500, MaxNS: 120000, MaxAbsNS: 120000, P99NS: 100000}
	testCases := []struct {
		expr string
		want bool
	}{
		{"p99 < 200000", true},
		{"p99 < 200000 && invalid == 0", false},
		{"maxabs <= 120000 && iterations == 100", true},
		{"abs(minerr) < 100", false},
		{"max(mean, stddev) == 60000", true},
		{"min(mean, stddev, maxerr) == 2000", true},
		{"retries + exhausted == 0", true},
		{"mean + 3 * stddev < 70000", true},
	}
	for _, tc := range testCases {
		t.Run(tc.expr, func(t *testing.T) {
			v, err := NewVerdict(tc.expr)
			require.NoError(t, err)
			got, err := v.Evaluate(s)
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestVerdictErrors(t *testing.T) {
	_, err := NewVerdict("offset < 100")
	require.ErrorContains(t, err, "unsupported variable")

	_, err = NewVerdict("p99 <")
	require.Error(t, err)

	v, err := NewVerdict("p99 + 1")
	require.NoError(t, err)
	_, err = v.Evaluate(&Summary{})
	require.ErrorContains(t, err, "not a boolean")

	v, err = NewVerdict("abs(p99, mean) > 0")
	require.NoError(t, err)
	_, err = v.Evaluate(&Summary{})
	require.ErrorContains(t, err, "wrong number of arguments")
}
