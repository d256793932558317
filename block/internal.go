// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package block

import (
	"sort"

	"github.com/ovidb/roidx/internal/base"
)

// InternalEntry is one (separator_key, child_block) pointer, stored with a
// length-prefixed key so internal pages compose uniformly across the
// 1- and 2-column cases.
type InternalEntry struct {
	Key   []byte
	Child uint32
}

// InternalSize returns the encoded byte length of entries as an internal
// page, including header and trailer.
func InternalSize(entries []InternalEntry) int {
	n := HeaderLen
	for _, e := range entries {
		n += 2 + len(e.Key) + 4
	}
	return n + TrailerLen
}

// EncodeInternal encodes entries into a page buffer of exactly pageSize
// bytes: offset 0 tag
// (0x8010), offset 2 nitems, then entries of (key_len u16, key bytes,
// child_block u32), with a 6-byte reserved trailer (here, FooterLen is
// reserved entirely and the checksum follows).
func EncodeInternal(entries []InternalEntry, pageSize int) ([]byte, error) {
	want := InternalSize(entries)
	if want > pageSize {
		return nil, base.ResourceExceededErrorf("internal page of %d entries needs %d bytes, page is %d", len(entries), want, pageSize)
	}
	buf := make([]byte, pageSize)
	putBE16(buf[0:2], uint16(TagInternal))
	putBE16(buf[2:4], uint16(len(entries)))
	off := HeaderLen
	for _, e := range entries {
		putBE16(buf[off:], uint16(len(e.Key)))
		off += 2
		off += copy(buf[off:], e.Key)
		putBE32(buf[off:], e.Child)
		off += 4
	}
	writeChecksum(buf)
	return buf, nil
}

// DecodeInternal parses an internal page's entries.
func DecodeInternal(buf []byte, blockNum uint32) ([]InternalEntry, error) {
	if Tag(be16(buf[0:2])) != TagInternal {
		return nil, base.CorruptPageErrorf(blockNum, "expected internal tag, got %#x", be16(buf[0:2]))
	}
	if err := verifyChecksum(buf, blockNum); err != nil {
		return nil, err
	}
	nitems := int(be16(buf[2:4]))
	out := make([]InternalEntry, 0, nitems)
	off := HeaderLen
	limit := len(buf) - TrailerLen
	for i := 0; i < nitems; i++ {
		if off+2 > limit {
			return nil, base.CorruptPageErrorf(blockNum, "internal page truncated at entry %d", i)
		}
		keyLen := int(be16(buf[off:]))
		off += 2
		if off+keyLen+4 > limit {
			return nil, base.CorruptPageErrorf(blockNum, "internal page truncated at entry %d", i)
		}
		key := buf[off : off+keyLen]
		off += keyLen
		child := be32(buf[off:])
		off += 4
		out = append(out, InternalEntry{Key: key, Child: child})
	}
	return out, nil
}

// SearchInternal returns the index of the entry that should be descended
// into for key: the last entry whose Key is <= key. If key is smaller
// than every separator, it returns 0 (the first child is still the
// correct descent target since the first entry's key is the subtree's
// lower bound by invariant 2).
func SearchInternal(keySchema base.KeySchema, entries []InternalEntry, key []byte) int {
	i := sort.Search(len(entries), func(i int) bool {
		return base.CompareKey(keySchema, entries[i].Key, key) > 0
	})
	if i == 0 {
		return 0
	}
	return i - 1
}
