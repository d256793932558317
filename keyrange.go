// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package roidx

import "github.com/ovidb/roidx/scan"

// Direction, KeyRange, and Bound are defined in the scan package (which the
// root facade sits on top of) and re-exported here so callers only need to
// import the root package for the common case.
type (
	Direction = scan.Direction
	KeyRange  = scan.KeyRange
	Bound     = scan.Bound
)

const (
	Forward  = scan.Forward
	Backward = scan.Backward
)

// Equality returns a KeyRange matching exactly one key.
func Equality(key []byte) KeyRange { return scan.Equality(key) }

// Unbounded returns a KeyRange with no restrictions, selecting the entire
// index.
func Unbounded() KeyRange { return scan.Unbounded() }
