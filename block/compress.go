// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package block

import (
	"github.com/klauspost/compress/zstd"

	"github.com/ovidb/roidx/internal/base"
)

// Compression selects the optional codec applied to a plain leaf's body
// before the checksum trailer, in the style of an sstable's per-block
// compression (each data block compressed independently before it is
// written). Pages stay fixed-size on disk either way (roidx addresses
// blocks by integer block number, not variable-length file offsets), so
// the win here is packing more logical
// rows into one physical leaf rather than shrinking the page itself.
type Compression int

const (
	// CompressionNone stores the plain body byte-for-byte.
	CompressionNone Compression = iota
	// CompressionZstd zstd-compresses the plain body when doing so lets a
	// leaf hold more entries than the uncompressed encoding would.
	CompressionZstd
)

// compressedTagBit marks a TagPlain leaf whose body was zstd-compressed.
// It is only ever OR'd onto TagPlain: RLE leaves are already compact, so
// compression is reserved for the one encoding that benefits from it.
const compressedTagBit Tag = 0x4000

var (
	zstdEncoder, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	zstdDecoder, _ = zstd.NewReader(nil)
)

// compressedPlainOverhead is the byte cost of the u32 compressed-length
// prefix compress writes ahead of the compressed body.
const compressedPlainOverhead = 4

// tryCompressPlain zstd-compresses a plain leaf's row-major body (entries
// laid out exactly as encodePlain would write them) and reports the total
// page size compression would need, including header, length prefix, and
// trailer. ok is false if compression doesn't actually shrink the body.
func tryCompressPlain(schema base.Schema, entries []Entry) (compressed []byte, totalSize int, ok bool) {
	if len(entries) == 0 {
		return nil, 0, false
	}
	keyWidth := schema.Key.RowWidth()
	incWidth := schema.Include.RowWidth()
	rowWidth := keyWidth + incWidth
	raw := make([]byte, 0, len(entries)*rowWidth)
	for _, e := range entries {
		raw = append(raw, e.Key...)
		raw = append(raw, e.Include...)
	}
	compressed = zstdEncoder.EncodeAll(raw, make([]byte, 0, len(raw)))
	if len(compressed) >= len(raw) {
		return nil, 0, false
	}
	total := HeaderLen + compressedPlainOverhead + len(compressed) + TrailerLen
	return compressed, total, true
}

// encodePlainCompressed writes the compressed-plain wire layout:
// [tag|compressedTagBit][nitems][compressedLen u32][compressed bytes],
// zero-padded out to pageSize, trailer last.
func encodePlainCompressed(entries []Entry, compressed []byte, buf []byte) {
	putBE16(buf[0:2], uint16(TagPlain|compressedTagBit))
	putBE16(buf[2:4], uint16(len(entries)))
	putBE32(buf[HeaderLen:], uint32(len(compressed)))
	copy(buf[HeaderLen+compressedPlainOverhead:], compressed)
}

// resolvePage transparently decompresses a compressed-plain page into a
// synthetic buffer laid out exactly like an ordinary plain page (same
// header position, same trailer bytes), so every other decode path in
// this package never has to know compression happened. Pages that aren't
// compressed-plain are returned unchanged.
func resolvePage(schema base.Schema, page Page) (Page, error) {
	tag := page.Tag()
	if tag&compressedTagBit == 0 {
		return page, nil
	}
	if tag&^compressedTagBit != TagPlain {
		return page, base.CorruptPageErrorf(0, "compressed-tag bit set on non-plain tag %#x", tag)
	}
	nitems := page.NItems()
	keyWidth := schema.Key.RowWidth()
	incWidth := schema.Include.RowWidth()
	bodyLen := nitems * (keyWidth + incWidth)
	if len(page.Buf) < HeaderLen+compressedPlainOverhead {
		return page, base.CorruptPageErrorf(0, "compressed plain page too small for length prefix")
	}
	clen := int(be32(page.Buf[HeaderLen:]))
	start := HeaderLen + compressedPlainOverhead
	if clen < 0 || start+clen > len(page.Buf)-TrailerLen {
		return page, base.CorruptPageErrorf(0, "compressed plain body length %d out of range", clen)
	}
	body, err := zstdDecoder.DecodeAll(page.Buf[start:start+clen], make([]byte, 0, bodyLen))
	if err != nil {
		return page, base.CorruptPageErrorf(0, "zstd decompress failed: %v", err)
	}
	if len(body) != bodyLen {
		return page, base.CorruptPageErrorf(0, "decompressed plain body is %d bytes, want %d", len(body), bodyLen)
	}
	synthetic := make([]byte, HeaderLen+bodyLen+TrailerLen)
	putBE16(synthetic[0:2], uint16(TagPlain))
	putBE16(synthetic[2:4], uint16(nitems))
	copy(synthetic[HeaderLen:], body)
	copy(synthetic[len(synthetic)-TrailerLen:], page.Buf[len(page.Buf)-TrailerLen:])
	return Page{Schema: schema, Buf: synthetic}, nil
}
