// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package build implements the bulk build pipeline: external sort of
// tuples, streaming leaf construction with format selection, and
// bottom-up construction of internal levels. It follows the familiar
// table-writing discipline (seal one block at a time, write the
// footer-bearing summary last) even though a typical sstable writer
// streams input already in key order rather than sorting it itself.
package build

import "github.com/ovidb/roidx/internal/base"

// Tuple is one input row: fixed-width-encoded key and include column
// bytes, plus per-column NULL flags the builder must reject and the
// tuple's row number, so build errors can name the offending
// (row, column).
type Tuple struct {
	Key               []byte
	Include           []byte
	KeyColumnNull     []bool
	IncludeColumnNull []bool
	RowNum            int64
}

// Source is the finite tuple stream the builder consumes.
type Source interface {
	Next() (Tuple, bool, error)
}

// SliceSource adapts an in-memory slice of tuples to Source, for tests and
// for cmd/roidx-bench's CSV loader.
type SliceSource struct {
	Tuples []Tuple
	pos    int
}

// Next implements Source.
func (s *SliceSource) Next() (Tuple, bool, error) {
	if s.pos >= len(s.Tuples) {
		return Tuple{}, false, nil
	}
	t := s.Tuples[s.pos]
	s.pos++
	return t, true, nil
}

// validate checks a tuple against schema, returning an InvalidKey error
// naming the offending row/column on any violation.
func validate(schema base.Schema, t Tuple) error {
	for i, isNull := range t.KeyColumnNull {
		if isNull {
			return base.InvalidKeyErrorf(t.RowNum, i, "key column is NULL")
		}
	}
	for i, isNull := range t.IncludeColumnNull {
		if isNull {
			return base.InvalidKeyErrorf(t.RowNum, len(t.KeyColumnNull)+i, "include column is NULL")
		}
	}
	if want := schema.Key.RowWidth(); len(t.Key) != want {
		return base.InvalidKeyErrorf(t.RowNum, 0, "key is %d bytes, schema expects %d", len(t.Key), want)
	}
	if want := schema.Include.RowWidth(); len(t.Include) != want {
		return base.InvalidKeyErrorf(t.RowNum, -1, "include payload is %d bytes, schema expects %d", len(t.Include), want)
	}
	return nil
}
