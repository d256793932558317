// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package extsort

import (
	"container/heap"
	"io"
)

// mergeItem is one run's current head row, ordered by (cmp(Key), Seq).
type mergeItem struct {
	row      Row
	runIndex int
}

type mergeHeap struct {
	items []mergeItem
	cmp   CompareFunc
}

func (h *mergeHeap) Len() int { return len(h.items) }
func (h *mergeHeap) Less(i, j int) bool {
	a, b := h.items[i].row, h.items[j].row
	if c := h.cmp(a.Key, b.Key); c != 0 {
		return c < 0
	}
	return a.Seq < b.Seq
}
func (h *mergeHeap) Swap(i, j int) { h.items[i], h.items[j] = h.items[j], h.items[i] }
func (h *mergeHeap) Push(x interface{}) {
	h.items = append(h.items, x.(mergeItem))
}
func (h *mergeHeap) Pop() interface{} {
	old := h.items
	n := len(old)
	item := old[n-1]
	h.items = old[:n-1]
	return item
}

// merger performs a k-way merge across a set of already-sorted run files.
type merger struct {
	runs []*runFile
	h    *mergeHeap
}

func newMerger(runs []*runFile, cmp CompareFunc) (*merger, error) {
	m := &merger{runs: runs, h: &mergeHeap{cmp: cmp}}
	heap.Init(m.h)
	for i, rf := range runs {
		row, err := rf.readRow()
		if err == io.EOF {
			continue
		}
		if err != nil {
			return nil, err
		}
		heap.Push(m.h, mergeItem{row: row, runIndex: i})
	}
	return m, nil
}

// next returns the next row in global sorted order, refilling from the
// row's originating run.
func (m *merger) next() (Row, bool, error) {
	if m.h.Len() == 0 {
		return Row{}, false, nil
	}
	top := heap.Pop(m.h).(mergeItem)
	nextRow, err := m.runs[top.runIndex].readRow()
	if err == nil {
		heap.Push(m.h, mergeItem{row: nextRow, runIndex: top.runIndex})
	} else if err != io.EOF {
		return Row{}, false, err
	}
	return top.row, true, nil
}
