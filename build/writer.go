// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package build

import (
	"context"

	"github.com/ovidb/roidx/block"
	"github.com/ovidb/roidx/internal/base"
	"github.com/ovidb/roidx/pager"
)

// leafWriter buffers sorted tuples and seals one leaf page at a time.
// The candidate encoding sizes are re-evaluated only at seal time.
type leafWriter struct {
	ctx         context.Context
	pgr         pager.Pager
	schema      base.Schema
	pageSize    int
	forced      block.Tag
	maxItems    uint32 // TestMaxTuplesPerPage override, 0 = unlimited
	compression block.Compression

	buf []block.Entry

	firstLeaf uint32
	lastLeaf  uint32
	prevLeaf  uint32 // InvalidBlock until the first leaf is sealed
	directory []block.DirEntry
}

func newLeafWriter(ctx context.Context, pgr pager.Pager, schema base.Schema, pageSize int, forced block.Tag, maxItems uint32, compression block.Compression) *leafWriter {
	return &leafWriter{
		ctx: ctx, pgr: pgr, schema: schema, pageSize: pageSize, forced: forced, maxItems: maxItems, compression: compression,
		firstLeaf: pager.InvalidBlock, lastLeaf: pager.InvalidBlock, prevLeaf: pager.InvalidBlock,
	}
}

// add appends one entry, sealing the current buffer first if adding it
// would overflow the page under every candidate encoding, or if the
// test-only max-tuples-per-page override is hit.
func (w *leafWriter) add(e block.Entry) error {
	capped := w.maxItems > 0 && uint32(len(w.buf)) >= w.maxItems
	if capped {
		if err := w.sealBuffered(); err != nil {
			return err
		}
	}
	w.buf = append(w.buf, e)
	if w.fits() {
		return nil
	}
	// Overflowed: pull this entry back out and seal without it.
	w.buf = w.buf[:len(w.buf)-1]
	if len(w.buf) == 0 {
		// A single entry doesn't fit in one page under any encoding.
		w.buf = append(w.buf, e)
		return base.ResourceExceededErrorf("single entry does not fit in a %d-byte page", w.pageSize)
	}
	if err := w.sealBuffered(); err != nil {
		return err
	}
	w.buf = append(w.buf, e)
	return nil
}

func (w *leafWriter) fits() bool {
	sizes := block.ComputeCompressed(w.schema, w.buf, w.compression)
	best := sizes.Plain
	if sizes.KeyRLE < best {
		best = sizes.KeyRLE
	}
	if sizes.IncludeRLEValid && sizes.IncludeRLE < best {
		best = sizes.IncludeRLE
	}
	if sizes.CompressedPlainValid && sizes.CompressedPlain < best {
		// A leaf that wouldn't otherwise fit another row can still take
		// one if the compressed-plain encoding has room; this is the one
		// place compression changes leaf-writer behavior, per
		// block/compress.go's doc comment: pack more rows per page
		// instead of shrinking the page itself.
		best = sizes.CompressedPlain
	}
	if w.forced != 0 {
		switch w.forced {
		case block.TagPlain:
			best = sizes.Plain
		case block.TagKeyRLE:
			best = sizes.KeyRLE
		case block.TagIncludeRLE:
			if !sizes.IncludeRLEValid {
				return false
			}
			best = sizes.IncludeRLE
		}
	}
	return best <= w.pageSize
}

// sealBuffered writes the current buffer as a sealed leaf and clears it.
// Leaves are written first and in order,
// so a leaf's right-link is only known once the next leaf is allocated;
// roidx instead chains right-links by relying on monotonically increasing
// block numbers (leaves are the very first blocks extended), letting the
// writer compute the right-link as "next block" before it exists.
func (w *leafWriter) sealBuffered() error {
	if len(w.buf) == 0 {
		return nil
	}
	block_, err := w.pgr.Extend(w.ctx)
	if err != nil {
		return err
	}
	// Right-link is this leaf's block plus one, since every subsequent
	// Extend call (by this writer) allocates sequentially. If this is the
	// final leaf, finish patches the right-link to InvalidBlock, once it's
	// known no further leaf follows.
	rightLink := block_ + 1
	buf, _, err := block.EncodeLeafCompressed(w.schema, w.buf, w.pageSize, rightLink, w.forced, w.compression)
	if err != nil {
		return err
	}
	if err := w.pgr.Write(w.ctx, block_, buf); err != nil {
		return err
	}
	if w.firstLeaf == pager.InvalidBlock {
		w.firstLeaf = block_
	}
	w.lastLeaf = block_
	w.directory = append(w.directory, block.DirEntry{
		FirstKey: append([]byte(nil), w.buf[0].Key...),
		LastKey:  append([]byte(nil), w.buf[len(w.buf)-1].Key...),
		Block:    block_,
	})
	w.buf = w.buf[:0]
	return nil
}

// finish seals any remaining buffered entries and patches the last leaf's
// right-link to InvalidBlock.
func (w *leafWriter) finish() error {
	if err := w.sealBuffered(); err != nil {
		return err
	}
	if w.lastLeaf == pager.InvalidBlock {
		return nil
	}
	buf, err := w.pgr.Pin(w.ctx, w.lastLeaf)
	if err != nil {
		return err
	}
	patched := append([]byte(nil), buf...)
	w.pgr.Unpin(w.lastLeaf)
	trailerStart := len(patched) - block.TrailerLen
	for i := 0; i < 4; i++ {
		patched[trailerStart+i] = byte(pager.InvalidBlock >> (8 * (3 - i)))
	}
	block.RecomputeChecksum(patched)
	return w.pgr.Write(w.ctx, w.lastLeaf, patched)
}
