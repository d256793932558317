// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package block

import "github.com/ovidb/roidx/internal/base"

// TagDirectory identifies a spilled directory page: a chain of
// (first_key, last_key, block) triples too large to fit inline in the
// meta page. The tag keeps directory pages distinguishable from leaf and
// internal pages on a raw read.
const TagDirectory Tag = 0x8030

// DirectorySize returns the encoded byte length of entries as one
// directory page.
func DirectorySize(keyWidth int, entries []DirEntry) int {
	return HeaderLen + len(entries)*(2*keyWidth+4) + TrailerLen
}

// EncodeDirectoryPage encodes a chunk of directory entries into a page of
// exactly pageSize bytes, chained to the next directory page (or
// pager.InvalidBlock if this is the last chunk) via the same right-link
// footer slot a leaf page uses.
func EncodeDirectoryPage(entries []DirEntry, keyWidth, pageSize int, next uint32) ([]byte, error) {
	want := DirectorySize(keyWidth, entries)
	if want > pageSize {
		return nil, base.ResourceExceededErrorf("directory page of %d entries needs %d bytes, page is %d", len(entries), want, pageSize)
	}
	buf := make([]byte, pageSize)
	putBE16(buf[0:2], uint16(TagDirectory))
	putBE16(buf[2:4], uint16(len(entries)))
	off := HeaderLen
	for _, d := range entries {
		off += copy(buf[off:], d.FirstKey)
		off += copy(buf[off:], d.LastKey)
		putBE32(buf[off:], d.Block)
		off += 4
	}
	putBE32(buf[len(buf)-TrailerLen:], next)
	writeChecksum(buf)
	return buf, nil
}

// DecodeDirectoryPage parses one directory page, returning its entries and
// the next page in the chain (pager.InvalidBlock if none).
func DecodeDirectoryPage(buf []byte, keyWidth int, blockNum uint32) ([]DirEntry, uint32, error) {
	if Tag(be16(buf[0:2])) != TagDirectory {
		return nil, 0, base.CorruptPageErrorf(blockNum, "expected directory tag, got %#x", be16(buf[0:2]))
	}
	if err := verifyChecksum(buf, blockNum); err != nil {
		return nil, 0, err
	}
	count := int(be16(buf[2:4]))
	out := make([]DirEntry, 0, count)
	off := HeaderLen
	for i := 0; i < count; i++ {
		if off+2*keyWidth+4 > len(buf)-TrailerLen {
			return nil, 0, base.CorruptPageErrorf(blockNum, "directory page truncated at entry %d", i)
		}
		first := buf[off : off+keyWidth]
		off += keyWidth
		last := buf[off : off+keyWidth]
		off += keyWidth
		blk := be32(buf[off:])
		off += 4
		out = append(out, DirEntry{FirstKey: first, LastKey: last, Block: blk})
	}
	next := be32(buf[len(buf)-TrailerLen:])
	return out, next, nil
}
