// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package scan

import (
	"context"
	"sort"

	"github.com/ovidb/roidx/block"
	"github.com/ovidb/roidx/internal/base"
	"github.com/ovidb/roidx/pager"
)

// trailStep is one level of the root-to-leaf descent, recorded so a
// backward scan can locate the predecessor leaf without a full second
// descent from the root every time it crosses a leaf boundary. Left-links
// are not stored; the trail amortizes the re-descend instead.
type trailStep struct {
	block uint32
	idx   int
}

// choose picks, among an internal page's entries, the child index to
// descend into.
type choose func(entries []block.InternalEntry) int

func leftmost(entries []block.InternalEntry) int { return 0 }

func rightmost(entries []block.InternalEntry) int { return len(entries) - 1 }

// descendChoose picks, among an internal page's entries, the child to
// descend into for a bound on the key's first column. For single-column
// schemas this is exactly block.SearchInternal (separator keys are the
// same width as col0Key). For two-column schemas, separators are full
// two-column keys but the bound only constrains the first column,
// so the comparison only looks at each separator's leading w0 bytes.
func descendChoose(keySchema base.KeySchema, col0Key []byte) choose {
	if len(keySchema.Columns) == 1 {
		return func(entries []block.InternalEntry) int {
			return block.SearchInternal(keySchema, entries, col0Key)
		}
	}
	w0 := keySchema.Columns[0].Width()
	return func(entries []block.InternalEntry) int {
		i := sort.Search(len(entries), func(i int) bool {
			return base.CompareColumn(keySchema.Columns[0], entries[i].Key[:w0], col0Key) > 0
		})
		if i == 0 {
			return 0
		}
		return i - 1
	}
}

// descend walks from root to a leaf, applying pick at every internal
// level, and returns the leaf's block number and the trail of
// (internal_block, chosen_index) pairs taken to get there. If root is
// pager.InvalidBlock (empty index), it returns InvalidBlock and a nil
// trail.
func descend(ctx context.Context, pgr pager.Pager, schema base.Schema, root uint32, pick choose) (uint32, []trailStep, error) {
	if root == pager.InvalidBlock {
		return pager.InvalidBlock, nil, nil
	}
	var trail []trailStep
	cur := root
	for {
		buf, err := pgr.Pin(ctx, cur)
		if err != nil {
			return 0, nil, err
		}
		page := block.Page{Schema: schema, Buf: buf}
		tag := page.Tag()
		if tag != block.TagInternal {
			pgr.Unpin(cur)
			return cur, trail, nil
		}
		entries, err := block.DecodeInternal(buf, cur)
		if err != nil {
			pgr.Unpin(cur)
			return 0, nil, err
		}
		idx := pick(entries)
		next := entries[idx].Child
		pgr.Unpin(cur)
		trail = append(trail, trailStep{block: cur, idx: idx})
		cur = next
	}
}

// predecessorLeaf finds the leaf immediately to the left of the one
// reached by trail, by walking the trail upward to the first level with
// room to step left, then descending the rightmost spine of that sibling
// subtree. It returns pager.InvalidBlock and a nil trail if trail's leaf
// is already the first leaf in the tree.
func predecessorLeaf(ctx context.Context, pgr pager.Pager, schema base.Schema, trail []trailStep) (uint32, []trailStep, error) {
	for i := len(trail) - 1; i >= 0; i-- {
		if trail[i].idx == 0 {
			continue
		}
		buf, err := pgr.Pin(ctx, trail[i].block)
		if err != nil {
			return 0, nil, err
		}
		entries, err := block.DecodeInternal(buf, trail[i].block)
		pgr.Unpin(trail[i].block)
		if err != nil {
			return 0, nil, err
		}
		newIdx := trail[i].idx - 1
		newTrail := append(append([]trailStep(nil), trail[:i]...), trailStep{block: trail[i].block, idx: newIdx})
		cur := entries[newIdx].Child
		for {
			buf, err := pgr.Pin(ctx, cur)
			if err != nil {
				return 0, nil, err
			}
			page := block.Page{Schema: schema, Buf: buf}
			if page.Tag() != block.TagInternal {
				pgr.Unpin(cur)
				return cur, newTrail, nil
			}
			entries, err := block.DecodeInternal(buf, cur)
			pgr.Unpin(cur)
			if err != nil {
				return 0, nil, err
			}
			idx := rightmost(entries)
			newTrail = append(newTrail, trailStep{block: cur, idx: idx})
			cur = entries[idx].Child
		}
	}
	return pager.InvalidBlock, nil, nil
}
