// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package block implements the page codec: encoding and decoding of
// leaf, internal, and meta pages, exactly per the wire-bit-exact layouts
// declared below. It is the lowest layer of roidx, a close cousin of an
// sstable block format but header-free and RLE-aware instead of
// restart-point/shared-prefix-encoded.
package block

import "github.com/ovidb/roidx/internal/base"

// Tag identifies a page's encoding. The three leaf tags and the internal
// page tag are wire-bit-exact.
type Tag uint16

const (
	// TagPlain is an uncompressed leaf: every row stored in full.
	TagPlain Tag = 0x8000
	// TagKeyRLE is a leaf with run-length-compressed keys; include columns
	// are stored row-major, uncompressed.
	TagKeyRLE Tag = 0x8001
	// TagIncludeRLE is a leaf whose runs share both key and include
	// payload.
	TagIncludeRLE Tag = 0x8003
	// TagInternal identifies an internal (separator, child-block) page.
	TagInternal Tag = 0x8010
)

// MaxRunCount is the cap on entries represented by a single RLE run. It
// is deliberately less than the 16-bit maximum (65535) to leave headroom.
const MaxRunCount = 32000

// HeaderLen is the byte length of the common tag+nitems leaf/internal
// header.
const HeaderLen = 4

// FooterLen is the byte length of a leaf page's footer: a 4-byte
// right-link followed by 2 reserved bytes.
const FooterLen = 6

// ChecksumLen is the byte length of the trailing xxhash64 page checksum,
// an out-of-band trailer past the reserved footer bytes. It is appended
// after FooterLen on leaf and internal pages, and after the directory on
// the meta page.
const ChecksumLen = 8

// TrailerLen is FooterLen+ChecksumLen, the total fixed-size trailer on
// leaf and internal pages.
const TrailerLen = FooterLen + ChecksumLen

// Entry is one logical leaf row: a possibly-two-column key and its include
// payload, both already encoded to their fixed-width on-page bytes.
type Entry struct {
	Key     []byte
	Include []byte
}

// Page wraps the raw bytes of a decoded or soon-to-be-encoded page
// together with the schema needed to interpret it.
type Page struct {
	Schema base.Schema
	Buf    []byte
}

// Tag reads the page's encoding tag from its first two bytes.
func (p Page) Tag() Tag {
	return Tag(be16(p.Buf[0:2]))
}

// NItems reads the page's entry count from bytes 2:4.
func (p Page) NItems() int {
	return int(be16(p.Buf[2:4]))
}

// RightLink reads the leaf page's right-link block number from the
// footer, or pager.InvalidBlock if this is the last leaf.
func (p Page) RightLink() uint32 {
	off := len(p.Buf) - TrailerLen
	return be32(p.Buf[off : off+4])
}

func be16(b []byte) uint16 { return uint16(b[0])<<8 | uint16(b[1]) }
func be32(b []byte) uint32 {
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}
func putBE16(b []byte, v uint16) { b[0] = byte(v >> 8); b[1] = byte(v) }
func putBE32(b []byte, v uint32) {
	b[0] = byte(v >> 24)
	b[1] = byte(v >> 16)
	b[2] = byte(v >> 8)
	b[3] = byte(v)
}
