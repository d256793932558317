// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package parallel coordinates a fleet of scan workers over a shared leaf
// range, claiming contiguous batches of leaf blocks via CAS rather than a
// work queue.
package parallel

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/ovidb/roidx/block"
	"github.com/ovidb/roidx/internal/base"
	"github.com/ovidb/roidx/pager"
	"github.com/ovidb/roidx/scan"
)

// Coordinator is the shared state a fleet of workers claims leaf ranges
// from. nextBlock, finished are touched only via atomic ops; batchSize,
// lastBlock are write-once at NewCoordinator and read thereafter.
type Coordinator struct {
	nextBlock uint32 // atomic
	lastBlock uint32
	batchSize uint32
	finished  int32 // atomic bool
}

// NewCoordinator seeds a coordinator to hand out leaf ranges starting at
// firstLeaf through lastLeaf inclusive, batchSize leaves per claim.
func NewCoordinator(firstLeaf, lastLeaf uint32, batchSize uint16) *Coordinator {
	bs := uint32(batchSize)
	if bs == 0 {
		bs = 1
	}
	c := &Coordinator{lastBlock: lastLeaf, batchSize: bs}
	atomic.StoreUint32(&c.nextBlock, firstLeaf)
	if firstLeaf == pager.InvalidBlock || firstLeaf > lastLeaf {
		atomic.StoreInt32(&c.finished, 1)
	}
	return c
}

// Reset reseeds the coordinator for a new range on rescan: nextBlock
// restarts at firstLeaf and finished is cleared so workers re-claim.
// Callers narrow the interval to the new range's covering leaves with
// scan.LeafRangeFor, the same way the initial seeding does.
func (c *Coordinator) Reset(firstLeaf, lastLeaf uint32) {
	c.lastBlock = lastLeaf
	atomic.StoreUint32(&c.nextBlock, firstLeaf)
	if firstLeaf == pager.InvalidBlock || firstLeaf > lastLeaf {
		atomic.StoreInt32(&c.finished, 1)
	} else {
		atomic.StoreInt32(&c.finished, 0)
	}
}

// Finished reports whether every leaf has been claimed.
func (c *Coordinator) Finished() bool { return atomic.LoadInt32(&c.finished) != 0 }

// claim atomically advances nextBlock by batchSize and returns the
// half-open [start, end) range claimed. ok is false once the range is
// exhausted.
func (c *Coordinator) claim() (start, end uint32, ok bool) {
	for {
		cur := atomic.LoadUint32(&c.nextBlock)
		if cur > c.lastBlock {
			atomic.StoreInt32(&c.finished, 1)
			return 0, 0, false
		}
		next := cur + c.batchSize
		if atomic.CompareAndSwapUint32(&c.nextBlock, cur, next) {
			end := next
			if end > c.lastBlock+1 {
				end = c.lastBlock + 1
			}
			return cur, end, true
		}
	}
}

// Worker runs the serial scan algorithm within whatever ranges it manages
// to claim from a Coordinator. Workers prefetch at a small fixed depth
// rather than slow-starting; the claimed range is known up front.
type Worker struct {
	pgr           pager.Pager
	meta          block.Meta
	krange        scan.KeyRange
	prefetchDepth uint16
	coord         *Coordinator
	cancel        func() bool
	logger        base.Logger
	metrics       base.MetricsSink
}

// WorkerOptions configures a single worker's behavior.
type WorkerOptions struct {
	PrefetchDepth uint16
	// Cancel, if non-nil, is polled at every page boundary and before
	// each claim attempt. A true return requests the worker stop early.
	Cancel  func() bool
	Logger  base.Logger
	Metrics base.MetricsSink
}

// NewWorker builds a worker bound to coord, scanning krange within
// whatever sub-ranges it claims.
func NewWorker(pgr pager.Pager, meta block.Meta, krange scan.KeyRange, coord *Coordinator, opts WorkerOptions) *Worker {
	if opts.Logger == nil {
		opts.Logger = base.DefaultLogger
	}
	return &Worker{
		pgr: pgr, meta: meta, krange: krange, prefetchDepth: opts.PrefetchDepth,
		coord: coord, cancel: opts.Cancel, logger: opts.Logger, metrics: opts.Metrics,
	}
}

// Run claims successive leaf ranges from the coordinator and calls emit
// for every (key, include) pair found within krange, in ascending key
// order within each claimed range. Ordering across claimed ranges (and
// hence across the whole parallel scan) is unspecified — callers needing
// a total order must sort or merge downstream.
func (w *Worker) Run(ctx context.Context, emit func(key, include []byte) error) error {
	for {
		if w.canceled() {
			return nil
		}
		start, end, ok := w.coord.claim()
		if !ok {
			return nil
		}
		if err := w.scanRange(ctx, start, end, emit); err != nil {
			return err
		}
	}
}

func (w *Worker) canceled() bool { return w.cancel != nil && w.cancel() }

// scanRange reads each leaf block in the claimed [start, end) directly by
// block number (bypassing root descent, since leaves occupy consecutive
// blocks) and emits the entries that fall within krange.
func (w *Worker) scanRange(ctx context.Context, start, end uint32, emit func(key, include []byte) error) error {
	cur := start
	for cur < end {
		if w.canceled() {
			return nil
		}
		if ctx.Err() != nil {
			return nil
		}
		buf, err := w.pgr.Pin(ctx, cur)
		if err != nil {
			return err
		}
		page := block.Page{Schema: w.meta.Schema, Buf: buf}
		it, err := block.NewIter(w.meta.Schema, page, cur)
		if err != nil {
			w.pgr.Unpin(cur)
			return err
		}
		for i := 1; i <= int(w.prefetchDepth); i++ {
			candidate := cur + uint32(i)
			if candidate >= end || candidate > w.meta.LastLeaf {
				break
			}
			w.pgr.Prefetch(candidate)
		}
		if w.metrics != nil {
			w.metrics.PagesRead(1)
		}
		n := it.NItems()
		for i := 0; i < n; i++ {
			k, inc, err := it.At(i)
			if err != nil {
				w.pgr.Unpin(cur)
				return err
			}
			if !w.inRange(k) {
				continue
			}
			if err := emit(k, inc); err != nil {
				w.pgr.Unpin(cur)
				return err
			}
		}
		w.pgr.Unpin(cur)
		cur++
	}
	return nil
}

func (w *Worker) inRange(key []byte) bool {
	col0 := w.meta.Schema.Key.Columns[0]
	w0 := col0.Width()
	if w.krange.Lower.Valid {
		cmp := base.CompareColumn(col0, key[:w0], w.krange.Lower.Key)
		if w.krange.Lower.Inclusive {
			if cmp < 0 {
				return false
			}
		} else if cmp <= 0 {
			return false
		}
	}
	if w.krange.Upper.Valid {
		cmp := base.CompareColumn(col0, key[:w0], w.krange.Upper.Key)
		if w.krange.Upper.Inclusive {
			if cmp > 0 {
				return false
			}
		} else if cmp >= 0 {
			return false
		}
	}
	if !w.meta.Schema.Key.TwoColumn() {
		return true
	}
	col1 := w.meta.Schema.Key.Columns[1]
	second := key[w0 : w0+col1.Width()]
	if w.krange.SecondEquality.Valid && base.CompareColumn(col1, second, w.krange.SecondEquality.Key) != 0 {
		return false
	}
	if w.krange.SecondLower.Valid {
		cmp := base.CompareColumn(col1, second, w.krange.SecondLower.Key)
		if w.krange.SecondLower.Inclusive {
			if cmp < 0 {
				return false
			}
		} else if cmp <= 0 {
			return false
		}
	}
	if w.krange.SecondUpper.Valid {
		cmp := base.CompareColumn(col1, second, w.krange.SecondUpper.Key)
		if w.krange.SecondUpper.Inclusive {
			if cmp > 0 {
				return false
			}
		} else if cmp >= 0 {
			return false
		}
	}
	return true
}

// RunParallel fans workerCount workers out over [firstLeaf, lastLeaf],
// all emitting their matches to one shared channel that the caller
// drains via the returned channel. The channel is closed once every
// worker returns (whether by exhaustion or cancellation); a worker error
// cancels the group and is returned by the returned error func.
//
// This is a convenience on top of Coordinator/Worker for callers that
// just want an aggregated stream; the root facade's parallel Scan uses
// it directly.
func RunParallel(ctx context.Context, pgr pager.Pager, meta block.Meta, krange scan.KeyRange, workerCount int, coord *Coordinator, opts WorkerOptions) (<-chan Pair, func() error) {
	out := make(chan Pair, 256)
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < workerCount; i++ {
		w := NewWorker(pgr, meta, krange, coord, opts)
		g.Go(func() error {
			return w.Run(gctx, func(key, include []byte) error {
				// Copy out of the pinned page: the caller may read from
				// out well after this page is unpinned and reused.
				kc := append([]byte(nil), key...)
				ic := append([]byte(nil), include...)
				select {
				case out <- Pair{Key: kc, Include: ic}:
					return nil
				case <-gctx.Done():
					return gctx.Err()
				}
			})
		})
	}
	done := make(chan struct{})
	var waitErr error
	go func() {
		waitErr = g.Wait()
		close(out)
		close(done)
	}()
	return out, func() error { <-done; return waitErr }
}

// Pair is one materialized (key, include) result from a parallel scan.
type Pair struct {
	Key     []byte
	Include []byte
}
