// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package scan implements the ordered scan engine: single- and two-column
// forward/backward cursors over a built index, with adaptive slow-start
// prefetch and run-aware materialization. It sits directly on the block
// codec, the way an sstable iterator sits on its block reader.
package scan

import (
	"context"
	"sort"

	"golang.org/x/exp/slices"

	"github.com/ovidb/roidx/block"
	"github.com/ovidb/roidx/internal/base"
	"github.com/ovidb/roidx/pager"
)

// State is the cursor lifecycle state.
type State int

const (
	StateInitialized State = iota
	StatePositioned
	StateExhausted
	StateClosed
)

// Options carries the scan-time tunables.
type Options struct {
	MaxPrefetchDepth uint16
	Logger           base.Logger
	Metrics          base.MetricsSink
}

// Cursor is a single-threaded scan over one index, positioned by
// OpenScan and advanced by Next. It is not safe for concurrent use; the
// parallel package gives each worker its own Cursor.
type Cursor struct {
	pgr    pager.Pager
	schema base.Schema
	meta   block.Meta
	krange KeyRange
	dir    Direction
	opts   Options
	state  State

	leaf  uint32
	page  block.Page
	it    *block.Iter
	idx   int
	trail []trailStep

	pagesScanned int
}

// OpenScan opens a cursor over meta's tree for krange in the given
// direction, descending to the starting leaf and positioning at the first
// qualifying entry.
func OpenScan(ctx context.Context, pgr pager.Pager, meta block.Meta, krange KeyRange, dir Direction, opts Options) (*Cursor, error) {
	if opts.Logger == nil {
		opts.Logger = base.DefaultLogger
	}
	c := &Cursor{
		pgr: pgr, schema: meta.Schema, meta: meta, krange: krange, dir: dir, opts: opts,
		state: StateInitialized, leaf: pager.InvalidBlock,
	}
	if err := c.position(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

// State reports the cursor's current state.
func (c *Cursor) State() State { return c.state }

func (c *Cursor) position(ctx context.Context) error {
	if c.meta.RootBlock == block.MetaInvalidRoot {
		// Empty index.
		c.state = StateExhausted
		return nil
	}
	var leaf uint32
	var trail []trailStep
	var err error
	if c.dir == Forward {
		leaf, trail, err = c.startForward(ctx)
	} else {
		leaf, trail, err = c.startBackward(ctx)
	}
	if err != nil {
		return err
	}
	c.trail = trail
	if leaf == pager.InvalidBlock {
		c.state = StateExhausted
		return nil
	}
	return c.enterLeaf(ctx, leaf)
}

func (c *Cursor) startForward(ctx context.Context) (uint32, []trailStep, error) {
	if !c.krange.Lower.Valid {
		return descend(ctx, c.pgr, c.schema, c.meta.RootBlock, leftmost)
	}
	if leaf, ok := directoryLeafForLower(c.meta, c.schema, c.krange.Lower.Key); ok {
		return leaf, nil, nil
	}
	return descend(ctx, c.pgr, c.schema, c.meta.RootBlock, descendChoose(c.schema.Key, c.krange.Lower.Key))
}

func (c *Cursor) startBackward(ctx context.Context) (uint32, []trailStep, error) {
	if !c.krange.Upper.Valid {
		return descend(ctx, c.pgr, c.schema, c.meta.RootBlock, rightmost)
	}
	return descend(ctx, c.pgr, c.schema, c.meta.RootBlock, descendChoose(c.schema.Key, c.krange.Upper.Key))
}

// directoryLeafForLower implements the directory-based lower-bound fast
// path: if the leading key column is a fixed-width integer and the meta
// directory is resident, binary-search it directly instead of descending
// the tree.
func directoryLeafForLower(meta block.Meta, schema base.Schema, lowerKey []byte) (uint32, bool) {
	if meta.DirSpilled || len(meta.Directory) == 0 {
		return 0, false
	}
	col0 := schema.Key.Columns[0]
	kind, err := col0.Kind()
	if err != nil || kind == base.KindText {
		return 0, false
	}
	w0 := col0.Width()
	// Find the first leaf whose last key is >= the lower bound.
	idx, _ := slices.BinarySearchFunc(meta.Directory, lowerKey, func(d block.DirEntry, target []byte) int {
		return base.CompareColumn(col0, d.LastKey[:w0], target)
	})
	if idx == len(meta.Directory) {
		return pager.InvalidBlock, true
	}
	return meta.Directory[idx].Block, true
}

// LeafRangeFor computes the closed [first, last] leaf-block interval a
// scan of krange can touch, for seeding a parallel coordinator's claim
// range. The lower bound takes the same directory fast path serial
// startup takes, falling back to root descent; the upper bound descends
// to the rightmost leaf whose separator is <= the bound. Unbounded ends
// cover the tree's first/last leaf. A first of pager.InvalidBlock means
// no leaf can contain the range.
func LeafRangeFor(ctx context.Context, pgr pager.Pager, meta block.Meta, krange KeyRange) (first, last uint32, err error) {
	if meta.RootBlock == block.MetaInvalidRoot {
		return pager.InvalidBlock, pager.InvalidBlock, nil
	}
	first, last = meta.FirstLeaf, meta.LastLeaf
	if krange.Lower.Valid {
		leaf, ok := directoryLeafForLower(meta, meta.Schema, krange.Lower.Key)
		if !ok {
			leaf, _, err = descend(ctx, pgr, meta.Schema, meta.RootBlock, descendChoose(meta.Schema.Key, krange.Lower.Key))
			if err != nil {
				return 0, 0, err
			}
		}
		first = leaf
	}
	if krange.Upper.Valid {
		leaf, _, err := descend(ctx, pgr, meta.Schema, meta.RootBlock, descendChoose(meta.Schema.Key, krange.Upper.Key))
		if err != nil {
			return 0, 0, err
		}
		last = leaf
	}
	return first, last, nil
}

func (c *Cursor) enterLeaf(ctx context.Context, leafBlock uint32) error {
	buf, err := c.pgr.Pin(ctx, leafBlock)
	if err != nil {
		return err
	}
	c.leaf = leafBlock
	c.page = block.Page{Schema: c.schema, Buf: buf}
	it, err := block.NewIter(c.schema, c.page, leafBlock)
	if err != nil {
		return err
	}
	c.it = it
	c.pagesScanned++
	if c.opts.Metrics != nil {
		c.opts.Metrics.PagesRead(1)
	}

	var idx int
	if c.dir == Forward {
		idx, err = c.startIdxForward()
	} else {
		idx, err = c.startIdxBackward()
	}
	if err != nil {
		return err
	}
	c.idx = idx
	c.state = StatePositioned
	if c.dir == Forward {
		c.issuePrefetch()
	}
	return nil
}

// locateGE finds the first entry index whose first key column is >= col0Key.
func (c *Cursor) locateGE(col0Key []byte) (int, error) {
	if len(c.schema.Key.Columns) == 1 {
		return block.LocateGE(c.schema, c.page, col0Key)
	}
	w0 := c.schema.Key.Columns[0].Width()
	nitems := c.it.NItems()
	var ferr error
	idx := sort.Search(nitems, func(i int) bool {
		k, _, err := c.it.At(i)
		if err != nil {
			ferr = err
			return true
		}
		return base.CompareColumn(c.schema.Key.Columns[0], k[:w0], col0Key) >= 0
	})
	if ferr != nil {
		return 0, ferr
	}
	return idx, nil
}

func (c *Cursor) startIdxForward() (int, error) {
	if !c.krange.Lower.Valid {
		return 0, nil
	}
	idx, err := c.locateGE(c.krange.Lower.Key)
	if err != nil {
		return 0, err
	}
	if c.krange.Lower.Inclusive {
		return idx, nil
	}
	w0 := c.schema.Key.Columns[0].Width()
	nitems := c.it.NItems()
	for idx < nitems {
		k, _, err := c.it.At(idx)
		if err != nil {
			return 0, err
		}
		if base.CompareColumn(c.schema.Key.Columns[0], k[:w0], c.krange.Lower.Key) != 0 {
			break
		}
		idx++
	}
	return idx, nil
}

func (c *Cursor) startIdxBackward() (int, error) {
	nitems := c.it.NItems()
	if !c.krange.Upper.Valid {
		return nitems - 1, nil
	}
	idx, err := c.locateGE(c.krange.Upper.Key)
	if err != nil {
		return 0, err
	}
	if c.krange.Upper.Inclusive {
		w0 := c.schema.Key.Columns[0].Width()
		for idx < nitems {
			k, _, err := c.it.At(idx)
			if err != nil {
				return 0, err
			}
			if base.CompareColumn(c.schema.Key.Columns[0], k[:w0], c.krange.Upper.Key) != 0 {
				break
			}
			idx++
		}
	}
	return idx - 1, nil
}

// issuePrefetch predicts upcoming leaf blocks and hints the pager to warm
// them, per the slow-start policy in prefetch.go. Leaves are allocated
// sequentially by the build pipeline (one Extend per leaf, in order), so
// the next N leaves' block numbers are leaf+1 .. leaf+N without needing
// to chase right-links through extra pins.
func (c *Cursor) issuePrefetch() {
	depth := prefetchDepth(c.pagesScanned, c.krange, c.opts.MaxPrefetchDepth)
	if depth <= 0 {
		return
	}
	issued := 0
	for i := 1; i <= depth; i++ {
		candidate := c.leaf + uint32(i)
		if candidate > c.meta.LastLeaf {
			break
		}
		c.pgr.Prefetch(candidate)
		issued++
	}
	if issued > 0 && c.opts.Metrics != nil {
		c.opts.Metrics.PrefetchesIssued(issued)
	}
}

// Next advances the cursor and returns the next qualifying (key, include)
// pair, or ok=false once the range is exhausted, the cursor is closed, or
// ctx is canceled. The returned slices alias the pinned page and must not
// be retained past the next call to Next/Rescan/Close.
func (c *Cursor) Next(ctx context.Context) (key, include []byte, ok bool, err error) {
	for {
		if c.state == StateClosed || c.state == StateExhausted {
			return nil, nil, false, nil
		}
		if ctx.Err() != nil {
			// Cancellation surfaces as an exhausted cursor, not a
			// propagated error.
			c.unpinCurrent()
			c.state = StateExhausted
			return nil, nil, false, nil
		}

		nitems := c.it.NItems()
		inBounds := c.idx < nitems
		if c.dir == Backward {
			inBounds = c.idx >= 0
		}
		if !inBounds {
			next, err := c.advanceLeaf(ctx)
			if err != nil {
				return nil, nil, false, err
			}
			if next == pager.InvalidBlock {
				c.state = StateExhausted
				return nil, nil, false, nil
			}
			continue
		}

		k, inc, err := c.it.At(c.idx)
		if err != nil {
			return nil, nil, false, err
		}
		if c.dir == Forward {
			if c.violatesUpper(k) {
				c.unpinCurrent()
				c.state = StateExhausted
				return nil, nil, false, nil
			}
			c.idx++
		} else {
			if c.violatesLower(k) {
				c.unpinCurrent()
				c.state = StateExhausted
				return nil, nil, false, nil
			}
			c.idx--
		}
		if !c.passesSecondColumn(k) {
			continue
		}
		if c.opts.Metrics != nil {
			c.opts.Metrics.RunsDecoded(1)
		}
		return k, inc, true, nil
	}
}

// advanceLeaf moves the cursor to the next leaf in scan order (right-link
// for forward, the re-descended predecessor for backward), returning
// pager.InvalidBlock once there is none. The previously pinned leaf is
// always unpinned before the next is pinned.
func (c *Cursor) advanceLeaf(ctx context.Context) (uint32, error) {
	var next uint32
	var err error
	if c.dir == Forward {
		next = c.page.RightLink()
	} else {
		next, c.trail, err = predecessorLeaf(ctx, c.pgr, c.schema, c.trail)
		if err != nil {
			return 0, err
		}
	}
	c.pgr.Unpin(c.leaf)
	c.leaf = pager.InvalidBlock
	if next == pager.InvalidBlock {
		return pager.InvalidBlock, nil
	}
	if err := c.enterLeaf(ctx, next); err != nil {
		return 0, err
	}
	return next, nil
}

func (c *Cursor) unpinCurrent() {
	if c.leaf != pager.InvalidBlock {
		c.pgr.Unpin(c.leaf)
		c.leaf = pager.InvalidBlock
	}
}

func (c *Cursor) violatesUpper(key []byte) bool {
	if !c.krange.Upper.Valid {
		return false
	}
	w0 := c.schema.Key.Columns[0].Width()
	cmp := base.CompareColumn(c.schema.Key.Columns[0], key[:w0], c.krange.Upper.Key)
	if c.krange.Upper.Inclusive {
		return cmp > 0
	}
	return cmp >= 0
}

func (c *Cursor) violatesLower(key []byte) bool {
	if !c.krange.Lower.Valid {
		return false
	}
	w0 := c.schema.Key.Columns[0].Width()
	cmp := base.CompareColumn(c.schema.Key.Columns[0], key[:w0], c.krange.Lower.Key)
	if c.krange.Lower.Inclusive {
		return cmp < 0
	}
	return cmp <= 0
}

// passesSecondColumn evaluates the runtime second-column filters as a
// per-row check. It never stops the scan; a row that fails is just
// skipped.
func (c *Cursor) passesSecondColumn(key []byte) bool {
	if !c.schema.Key.TwoColumn() {
		return true
	}
	col := c.schema.Key.Columns[1]
	w0 := c.schema.Key.Columns[0].Width()
	second := key[w0 : w0+col.Width()]
	if c.krange.SecondEquality.Valid && base.CompareColumn(col, second, c.krange.SecondEquality.Key) != 0 {
		return false
	}
	if c.krange.SecondLower.Valid {
		cmp := base.CompareColumn(col, second, c.krange.SecondLower.Key)
		if c.krange.SecondLower.Inclusive {
			if cmp < 0 {
				return false
			}
		} else if cmp <= 0 {
			return false
		}
	}
	if c.krange.SecondUpper.Valid {
		cmp := base.CompareColumn(col, second, c.krange.SecondUpper.Key)
		if c.krange.SecondUpper.Inclusive {
			if cmp > 0 {
				return false
			}
		} else if cmp >= 0 {
			return false
		}
	}
	return true
}

// Rescan repositions the cursor onto a new range without reallocating it,
// resetting the adaptive prefetch depth.
func (c *Cursor) Rescan(ctx context.Context, newRange KeyRange) error {
	c.unpinCurrent()
	c.krange = newRange
	c.pagesScanned = 0
	c.trail = nil
	c.state = StateInitialized
	return c.position(ctx)
}

// Close releases the cursor's pinned page, if any, and marks it closed.
func (c *Cursor) Close() {
	if c.state == StateClosed {
		return
	}
	c.unpinCurrent()
	c.state = StateClosed
}
