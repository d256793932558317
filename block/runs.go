// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package block

import "bytes"

// run describes one run of equal-key entries within a buffered leaf
// chunk: [start, end) indexes into the entries slice, each run capped at
// MaxRunCount entries.
type run struct {
	start, end int
}

// count returns the number of entries in the run.
func (r run) count() int { return r.end - r.start }

// computeRuns partitions entries (assumed sorted, ties broken by arrival
// order) into runs of equal keys, splitting any run longer than
// MaxRunCount into multiple runs so each fits in 16 bits with the
// documented headroom.
func computeRuns(entries []Entry) []run {
	if len(entries) == 0 {
		return nil
	}
	var runs []run
	start := 0
	for i := 1; i <= len(entries); i++ {
		breakRun := i == len(entries) ||
			!bytes.Equal(entries[i].Key, entries[start].Key) ||
			i-start >= MaxRunCount
		if breakRun {
			runs = append(runs, run{start: start, end: i})
			start = i
		}
	}
	return runs
}

// includeConstant reports whether every entry in [r.start, r.end) has an
// identical include payload, the precondition for include-RLE encoding.
func includeConstant(entries []Entry, r run) bool {
	if r.count() <= 1 {
		return true
	}
	first := entries[r.start].Include
	for i := r.start + 1; i < r.end; i++ {
		if !bytes.Equal(entries[i].Include, first) {
			return false
		}
	}
	return true
}

// allRunsIncludeConstant reports whether every run has a constant include
// payload, the condition under which include-RLE is a legal candidate
// encoding.
func allRunsIncludeConstant(entries []Entry, runs []run) bool {
	for _, r := range runs {
		if !includeConstant(entries, r) {
			return false
		}
	}
	return true
}
