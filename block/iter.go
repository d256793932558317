// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package block

import "github.com/ovidb/roidx/internal/base"

// Iter walks a leaf page's entries in order, decoding keys and includes
// lazily and caching a run's include bytes across repeated visits.
// Direction is always forward within a single Iter; the scan engine walks
// backward by visiting a page's entries in reverse offset order using At
// rather than Next.
type Iter struct {
	schema base.Schema
	page   Page
	block  uint32

	nitems   int
	keyWidth int
	incWidth int
	isPlain  bool

	runs []runInfo // nil for plain pages

	pos int // next entry index to yield from Next
	err error

	curKey     []byte
	curInclude []byte

	// cachedRunStart/End and cachedInclude implement the duplicate-include
	// cache: computed once on first touch of a run, reused until pos
	// leaves [cachedRunStart, cachedRunEnd).
	cachedRunStart, cachedRunEnd int
	cachedInclude                []byte
}

// NewIter validates page's header against schema and returns an iterator
// positioned before the first entry.
func NewIter(schema base.Schema, page Page, blockNum uint32) (*Iter, error) {
	tag := page.Tag()
	if tag != TagPlain && tag != TagKeyRLE && tag != TagIncludeRLE && tag != TagPlain|compressedTagBit {
		return nil, base.CorruptPageErrorf(blockNum, "unrecognized leaf tag %#x", tag)
	}
	if err := verifyChecksum(page.Buf, blockNum); err != nil {
		return nil, err
	}
	page, err := resolvePage(schema, page)
	if err != nil {
		return nil, err
	}
	nitems := page.NItems()
	keyWidth := schema.Key.RowWidth()
	incWidth := schema.Include.RowWidth()
	maxItems := (len(page.Buf) - TrailerLen) / max(1, keyWidth)
	if nitems < 0 || (tag&^compressedTagBit == TagPlain && nitems > maxItems) {
		return nil, base.CorruptPageErrorf(blockNum, "nitems %d overflows page", nitems)
	}
	it := &Iter{
		schema:   schema,
		page:     page,
		block:    blockNum,
		nitems:   nitems,
		keyWidth: keyWidth,
		incWidth: incWidth,
		isPlain:  tag&^compressedTagBit == TagPlain,
	}
	if !it.isPlain {
		runs, err := readRunTable(schema, page)
		if err != nil {
			return nil, err
		}
		it.runs = runs
	}
	it.cachedRunStart, it.cachedRunEnd = -1, -1
	return it, nil
}

// Next advances to and decodes the next entry, returning false at
// end-of-page or on error (check Err to distinguish).
func (it *Iter) Next() bool {
	if it.err != nil || it.pos >= it.nitems {
		return false
	}
	if err := it.decodeAt(it.pos); err != nil {
		it.err = err
		return false
	}
	it.pos++
	return true
}

// Seek positions the iterator so the next call to Next (or immediately,
// via At) yields entry index offset. Used by the scan engine after
// LocateGE.
func (it *Iter) Seek(offset int) { it.pos = offset }

// At decodes entry index offset directly, without disturbing Next's
// sequential cursor, for random access patterns like backward iteration.
func (it *Iter) At(offset int) (key, include []byte, err error) {
	if offset < 0 || offset >= it.nitems {
		return nil, nil, base.CorruptPageErrorf(it.block, "entry offset %d out of range (nitems=%d)", offset, it.nitems)
	}
	if err := it.decodeAt(offset); err != nil {
		return nil, nil, err
	}
	return it.curKey, it.curInclude, nil
}

func (it *Iter) decodeAt(offset int) error {
	if it.isPlain {
		off := HeaderLen + offset*(it.keyWidth+it.incWidth)
		it.curKey = it.page.Buf[off : off+it.keyWidth]
		it.curInclude = it.page.Buf[off+it.keyWidth : off+it.keyWidth+it.incWidth]
		return nil
	}
	// RLE: find the owning run (linear scan is fine; nruns is small
	// relative to a page, and the scan engine's sequential access pattern
	// almost always hits the cached run or its immediate successor).
	if offset < it.cachedRunStart || offset >= it.cachedRunEnd {
		found := false
		for _, r := range it.runs {
			if offset >= r.startEntry && offset < r.startEntry+r.count {
				it.cachedRunStart = r.startEntry
				it.cachedRunEnd = r.startEntry + r.count
				it.curKey = r.key
				if it.page.Tag() == TagIncludeRLE {
					it.cachedInclude = it.page.Buf[r.byteOffset+it.keyWidth+2 : r.byteOffset+it.keyWidth+2+it.incWidth]
				} else {
					it.cachedInclude = nil
				}
				found = true
				break
			}
		}
		if !found {
			return base.CorruptPageErrorf(it.block, "entry offset %d not within any run", offset)
		}
	}
	// it.curKey already holds the cached run's key, valid regardless of
	// whether this call found a new run or reused the cached one.
	if it.page.Tag() == TagIncludeRLE {
		it.curInclude = it.cachedInclude
		return nil
	}
	// Key-RLE: includes are row-major, not compressed, so each entry's
	// include must be decoded individually even within a cached run.
	rowMajorOff := rowMajorIncludeOffset(it.page, len(it.runs), it.keyWidth, it.incWidth, offset)
	it.curInclude = it.page.Buf[rowMajorOff : rowMajorOff+it.incWidth]
	return nil
}

// rowMajorIncludeOffset computes the byte offset of entry index's include
// bytes in a key-RLE page's row-major include section, which begins
// immediately after the run table.
func rowMajorIncludeOffset(page Page, nruns, keyWidth, incWidth, index int) int {
	runTableLen := nruns * (keyWidth + 2)
	base := HeaderLen + 2 + runTableLen
	return base + index*incWidth
}

// Key returns the most recently decoded entry's key bytes. The returned
// slice aliases the page buffer and must not be retained past the next
// call to Next/Seek/At.
func (it *Iter) Key() []byte { return it.curKey }

// Include returns the most recently decoded entry's include bytes. For
// an include-RLE run, repeated calls across the run return the same
// cached slice without re-decoding.
func (it *Iter) Include() []byte { return it.curInclude }

// Err returns any error encountered during iteration.
func (it *Iter) Err() error { return it.err }

// NItems returns the page's entry count.
func (it *Iter) NItems() int { return it.nitems }
