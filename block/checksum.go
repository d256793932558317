// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package block

import (
	"github.com/cespare/xxhash/v2"
	"github.com/ovidb/roidx/internal/base"
)

// writeChecksum computes xxhash64 over buf[:len(buf)-ChecksumLen] and
// writes it into the trailing ChecksumLen bytes of buf, the same
// per-block checksum discipline sstable formats apply to every block.
func writeChecksum(buf []byte) {
	body := buf[:len(buf)-ChecksumLen]
	sum := xxhash.Sum64(body)
	trailer := buf[len(buf)-ChecksumLen:]
	for i := 0; i < ChecksumLen; i++ {
		trailer[i] = byte(sum >> (8 * (ChecksumLen - 1 - i)))
	}
}

// RecomputeChecksum rewrites buf's trailing checksum after an in-place
// edit to an already-encoded page (used to patch a leaf's right-link once
// its successor is known; see build.leafWriter.finish).
func RecomputeChecksum(buf []byte) { writeChecksum(buf) }

// verifyChecksum recomputes the checksum over buf's body and compares it
// to the trailing stored value, returning CorruptPage on mismatch.
func verifyChecksum(buf []byte, block uint32) error {
	if len(buf) < ChecksumLen {
		return base.CorruptPageErrorf(block, "page too small for checksum trailer")
	}
	body := buf[:len(buf)-ChecksumLen]
	want := xxhash.Sum64(body)
	var got uint64
	trailer := buf[len(buf)-ChecksumLen:]
	for i := 0; i < ChecksumLen; i++ {
		got = got<<8 | uint64(trailer[i])
	}
	if got != want {
		return base.CorruptPageErrorf(block, "checksum mismatch: got %x want %x", got, want)
	}
	return nil
}
