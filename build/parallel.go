// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package build

import (
	"container/heap"
	"context"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/ovidb/roidx/block"
	"github.com/ovidb/roidx/internal/base"
	"github.com/ovidb/roidx/internal/extsort"
	"github.com/ovidb/roidx/pager"
)

// BuildParallel partitions the input across opts.WorkerCount goroutines,
// sorts each partition concurrently, and merges the sorted partitions into
// a single leaf stream before handing off to the same leaf-writing and
// internal-level-building code path Build uses — guaranteeing identical
// leaf order to the serial path. If opts.WorkerCount <= 1, it degrades
// to Build.
//
// Partitioning here is by input order, not by key range: estimating key
// ranges ahead of time would require a sampling pre-pass this pipeline
// doesn't perform. The observable contract holds either way: leaf order
// is identical to serial regardless of how the input was partitioned,
// because everything funnels through one merged sorted stream.
func BuildParallel(ctx context.Context, pgr pager.Pager, schema base.Schema, src Source, opts Options) (Result, error) {
	if opts.WorkerCount <= 1 {
		return Build(ctx, pgr, schema, src, opts)
	}
	if opts.Logger == nil {
		opts.Logger = base.DefaultLogger
	}
	if err := schema.Validate(); err != nil {
		return Result{}, err
	}

	tuples, err := drainAndValidate(schema, src)
	if err != nil {
		return Result{}, err
	}
	if len(tuples) == 0 {
		return Build(ctx, pgr, schema, &SliceSource{}, opts)
	}

	partitions, offsets := partition(tuples, opts.WorkerCount)
	sorted := make([][]extsort.Row, len(partitions))
	cmp := func(a, b []byte) int { return base.CompareKey(schema.Key, a, b) }

	g, _ := errgroup.WithContext(ctx)
	for i, part := range partitions {
		i, part := i, part
		g.Go(func() error {
			rows := make([]extsort.Row, len(part))
			for j, t := range part {
				// Seq is the tuple's global arrival index, so tie-breaks
				// match the order the serial sorter would assign.
				rows[j] = extsort.Row{Key: t.Key, Include: t.Include, Seq: uint64(offsets[i] + j)}
			}
			sort.SliceStable(rows, func(a, b int) bool {
				if c := cmp(rows[a].Key, rows[b].Key); c != 0 {
					return c < 0
				}
				return rows[a].Seq < rows[b].Seq
			})
			sorted[i] = rows
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		// A worker failed to produce a sorted partition; fall back to
		// the serial path on the original tuples rather than surface a
		// parallelism-only failure.
		opts.Logger.Errorf("roidx: parallel build worker failed (%v), falling back to serial", err)
		return Build(ctx, pgr, schema, &SliceSource{Tuples: tuples}, opts)
	}

	merged := mergeSortedPartitions(sorted, cmp)

	// Reserve block 0 for the meta page only now that the sorted stream is
	// ready to commit to this pager; see Build's identical reservation for
	// why this must happen before any leaf is written.
	metaBlock, err := pgr.Extend(ctx)
	if err != nil {
		return Result{}, err
	}

	lw := newLeafWriter(ctx, pgr, schema, opts.PageSize, opts.ForceFormat, opts.MaxTuplesPerPage, opts.Compression)
	for _, row := range merged {
		if err := lw.add(block.Entry{Key: row.Key, Include: row.Include}); err != nil {
			return Result{}, err
		}
	}
	if err := lw.finish(); err != nil {
		return Result{}, err
	}

	root, height, err := buildInternalLevels(ctx, pgr, lw.directory, opts.PageSize, int(opts.MaxInternalFanout))
	if err != nil {
		return Result{}, err
	}
	if err := writeMeta(ctx, pgr, metaBlock, schema, lw, root, height, opts); err != nil {
		return Result{}, err
	}
	return Result{
		RootBlock: root, Height: height, FirstLeaf: lw.firstLeaf, LastLeaf: lw.lastLeaf,
		MetaBlock: metaBlock, RowCount: int64(len(tuples)),
	}, nil
}

func drainAndValidate(schema base.Schema, src Source) ([]Tuple, error) {
	var out []Tuple
	var rowNum int64
	for {
		t, ok, err := src.Next()
		if err != nil {
			return nil, base.SortFailureErrorf(err, "reading input at row %d", rowNum)
		}
		if !ok {
			break
		}
		if err := validate(schema, t); err != nil {
			return nil, err
		}
		out = append(out, t)
		rowNum++
	}
	return out, nil
}

// partition splits tuples into contiguous chunks, one per worker, and
// returns each chunk's starting offset within the original slice.
func partition(tuples []Tuple, workerCount int) ([][]Tuple, []int) {
	if workerCount > len(tuples) {
		workerCount = len(tuples)
	}
	out := make([][]Tuple, workerCount)
	offsets := make([]int, workerCount)
	chunk := (len(tuples) + workerCount - 1) / workerCount
	for i := 0; i < workerCount; i++ {
		lo := i * chunk
		hi := lo + chunk
		if hi > len(tuples) {
			hi = len(tuples)
		}
		if lo >= hi {
			continue
		}
		out[i] = tuples[lo:hi]
		offsets[i] = lo
	}
	return out, offsets
}

type mergeHeapItem struct {
	row       extsort.Row
	part, idx int
}

type mergeHeapSlice struct {
	items []mergeHeapItem
	cmp   func(a, b []byte) int
}

func (h *mergeHeapSlice) Len() int { return len(h.items) }
func (h *mergeHeapSlice) Less(i, j int) bool {
	a, b := h.items[i].row, h.items[j].row
	if c := h.cmp(a.Key, b.Key); c != 0 {
		return c < 0
	}
	return a.Seq < b.Seq
}
func (h *mergeHeapSlice) Swap(i, j int) { h.items[i], h.items[j] = h.items[j], h.items[i] }
func (h *mergeHeapSlice) Push(x interface{}) {
	h.items = append(h.items, x.(mergeHeapItem))
}
func (h *mergeHeapSlice) Pop() interface{} {
	old := h.items
	n := len(old)
	it := old[n-1]
	h.items = old[:n-1]
	return it
}

// mergeSortedPartitions performs an in-memory k-way merge of already
// per-partition-sorted rows, producing the same global order Build's
// single-threaded sort would.
func mergeSortedPartitions(sorted [][]extsort.Row, cmp func(a, b []byte) int) []extsort.Row {
	h := &mergeHeapSlice{cmp: cmp}
	heap.Init(h)
	for p, rows := range sorted {
		if len(rows) > 0 {
			heap.Push(h, mergeHeapItem{row: rows[0], part: p, idx: 0})
		}
	}
	var total int
	for _, rows := range sorted {
		total += len(rows)
	}
	out := make([]extsort.Row, 0, total)
	for h.Len() > 0 {
		top := heap.Pop(h).(mergeHeapItem)
		out = append(out, top.row)
		nextIdx := top.idx + 1
		if nextIdx < len(sorted[top.part]) {
			heap.Push(h, mergeHeapItem{row: sorted[top.part][nextIdx], part: top.part, idx: nextIdx})
		}
	}
	return out
}
