// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package block

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestComputeRunsSplitsOnKeyChange(t *testing.T) {
	var entries []Entry
	for _, k := range []uint64{1, 1, 1, 2, 3, 3} {
		entries = append(entries, Entry{Key: keyOf(k)})
	}
	runs := computeRuns(entries)
	require.Equal(t, []run{{0, 3}, {3, 4}, {4, 6}}, runs)
}

func TestComputeRunsSplitsOnMaxRunCount(t *testing.T) {
	entries := make([]Entry, MaxRunCount+5)
	for i := range entries {
		entries[i] = Entry{Key: keyOf(1)}
	}
	runs := computeRuns(entries)
	require.Len(t, runs, 2)
	require.Equal(t, MaxRunCount, runs[0].count())
	require.Equal(t, 5, runs[1].count())
}

func TestComputeRunsEmpty(t *testing.T) {
	require.Nil(t, computeRuns(nil))
}

func TestIncludeConstant(t *testing.T) {
	entries := []Entry{
		{Key: keyOf(1), Include: incOf(5)},
		{Key: keyOf(1), Include: incOf(5)},
		{Key: keyOf(1), Include: incOf(6)},
	}
	require.True(t, includeConstant(entries, run{0, 2}))
	require.False(t, includeConstant(entries, run{0, 3}))
}

func TestAllRunsIncludeConstant(t *testing.T) {
	entries := []Entry{
		{Key: keyOf(1), Include: incOf(5)},
		{Key: keyOf(1), Include: incOf(5)},
		{Key: keyOf(2), Include: incOf(9)},
	}
	runs := computeRuns(entries)
	require.True(t, allRunsIncludeConstant(entries, runs))

	entries[1].Include = incOf(6)
	require.False(t, allRunsIncludeConstant(entries, runs))
}
