// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package scan

// Direction selects forward or backward iteration order.
type Direction int

const (
	// Forward returns entries in non-decreasing key order.
	Forward Direction = iota
	// Backward returns entries in non-increasing key order.
	Backward
)

// Bound is one endpoint of a key range: an optional key plus whether the
// comparison is inclusive.
type Bound struct {
	Key       []byte
	Inclusive bool
	Valid     bool
}

// KeyRange is the scan predicate: an optional
// lower bound, an optional upper bound, and an optional equality (which
// folds both bounds to the same value). A second-column predicate is
// carried separately for two-column scans.
type KeyRange struct {
	Lower Bound
	Upper Bound

	// SecondEquality, if Valid, is a runtime equality filter evaluated on
	// every row during iteration rather than used to bound leaves.
	SecondEquality Bound
	// SecondLower/SecondUpper are per-row inequality filters on the
	// second column.
	SecondLower Bound
	SecondUpper Bound
}

// Equality returns a KeyRange matching exactly one key.
func Equality(key []byte) KeyRange {
	b := Bound{Key: key, Inclusive: true, Valid: true}
	return KeyRange{Lower: b, Upper: b}
}

// Unbounded returns a KeyRange with no restrictions, selecting the entire
// index.
func Unbounded() KeyRange { return KeyRange{} }

// IsEquality reports whether the range is a single-key equality lookup,
// which selects the tightest prefetch ramp.
func (r KeyRange) IsEquality() bool {
	return r.Lower.Valid && r.Upper.Valid && r.Lower.Inclusive && r.Upper.Inclusive &&
		len(r.Lower.Key) == len(r.Upper.Key) && string(r.Lower.Key) == string(r.Upper.Key)
}

// IsBounded reports whether the range has both a lower and an upper
// bound.
func (r KeyRange) IsBounded() bool { return r.Lower.Valid && r.Upper.Valid }

// IsUnboundedForward reports whether the range has no upper bound at
// all; such scans prefetch at full depth from the first page.
func (r KeyRange) IsUnboundedForward() bool { return !r.Upper.Valid }
