// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package extsort implements the external sorter roidx's build pipeline
// consumes. It sorts in memory up to a budget, spills sorted runs to temp
// files once exceeded, and merges everything back on Finish, breaking
// ties by arrival order to make builds deterministic.
package extsort

import (
	"os"
	"sort"

	"github.com/ovidb/roidx/internal/base"
)

// Row is one (key, include) tuple plus its arrival sequence number, used
// to break ties deterministically.
type Row struct {
	Key     []byte
	Include []byte
	Seq     uint64
}

// CompareFunc orders two keys. Ties (Compare == 0) are broken by Seq.
type CompareFunc func(a, b []byte) int

// Sorter is the external-sort surface the build pipeline drives.
type Sorter struct {
	cmp    CompareFunc
	budget int64

	bufSize int64
	buf     []Row
	seq     uint64

	spills []*runFile

	merged   *merger
	finished bool
	tmpDir   string
}

// New creates a Sorter with the given memory budget (in bytes, approximate
// — it is charged against the sum of key+include lengths, not Go's actual
// heap usage) and comparator.
func New(budget int64, cmp CompareFunc) *Sorter {
	if budget <= 0 {
		budget = 64 << 20
	}
	return &Sorter{cmp: cmp, budget: budget}
}

// Put adds a row to the sorter, assigning it the next arrival sequence
// number. It may trigger a spill to a temp file if the in-memory budget is
// exceeded.
func (s *Sorter) Put(key, include []byte) error {
	if s.finished {
		return base.SortFailureErrorf(nil, "Put called after Finish")
	}
	row := Row{Key: append([]byte(nil), key...), Include: append([]byte(nil), include...), Seq: s.seq}
	s.seq++
	s.buf = append(s.buf, row)
	s.bufSize += int64(len(row.Key) + len(row.Include))
	if s.bufSize >= s.budget {
		if err := s.spill(); err != nil {
			return err
		}
	}
	return nil
}

func (s *Sorter) spill() error {
	if len(s.buf) == 0 {
		return nil
	}
	s.sortBuf()
	rf, err := writeRunFile(s.tmpDir, s.buf)
	if err != nil {
		return base.SortFailureErrorf(err, "spilling run of %d rows", len(s.buf))
	}
	s.spills = append(s.spills, rf)
	s.buf = nil
	s.bufSize = 0
	return nil
}

func (s *Sorter) sortBuf() {
	sort.SliceStable(s.buf, func(i, j int) bool {
		if c := s.cmp(s.buf[i].Key, s.buf[j].Key); c != 0 {
			return c < 0
		}
		return s.buf[i].Seq < s.buf[j].Seq
	})
}

// Finish closes input and prepares Next for iteration: either the
// in-memory buffer is sorted directly (no spills occurred), or a k-way
// merge across spilled runs (and any residual in-memory rows) is set up.
func (s *Sorter) Finish() error {
	if s.finished {
		return nil
	}
	s.finished = true
	if len(s.spills) == 0 {
		s.sortBuf()
		return nil
	}
	if len(s.buf) > 0 {
		if err := s.spill(); err != nil {
			return err
		}
	}
	m, err := newMerger(s.spills, s.cmp)
	if err != nil {
		return base.SortFailureErrorf(err, "opening merge of %d runs", len(s.spills))
	}
	s.merged = m
	return nil
}

// Next returns the next row in sorted order, or ok=false once exhausted.
func (s *Sorter) Next() (Row, bool, error) {
	if !s.finished {
		return Row{}, false, base.SortFailureErrorf(nil, "Next called before Finish")
	}
	if s.merged != nil {
		return s.merged.next()
	}
	if len(s.buf) == 0 {
		return Row{}, false, nil
	}
	row := s.buf[0]
	s.buf = s.buf[1:]
	return row, true, nil
}

// Close releases any temp files created by spilling.
func (s *Sorter) Close() error {
	var firstErr error
	for _, rf := range s.spills {
		if err := rf.close(); err != nil && firstErr == nil {
			firstErr = err
		}
		_ = os.Remove(rf.path)
	}
	s.spills = nil
	return firstErr
}
