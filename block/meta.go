// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package block

import (
	"github.com/ovidb/roidx/internal/base"
)

// Magic is the meta page's 4-byte magic number ("SMOL").
const Magic uint32 = 0x534D4F4C

// Version is the current on-disk meta page version.
const Version uint16 = 1

// DirEntry is one (first_key_of_leaf, last_key_of_leaf, block_no) triple
// in the meta directory, enabling an O(log n) lower-bound seek without
// descending the tree.
type DirEntry struct {
	FirstKey []byte
	LastKey  []byte
	Block    uint32
}

// Meta is the fully decoded contents of block 0.
type Meta struct {
	Version   uint16
	Flags     uint16
	RootBlock uint32
	Height    uint16
	FirstLeaf uint32
	LastLeaf  uint32
	Schema    base.Schema
	Directory []DirEntry
	// DirSpilled is true when Directory was too large to fit inline and
	// was instead written to a dedicated chain of directory pages
	// referenced by DirRootBlock.
	DirSpilled   bool
	DirRootBlock uint32
	// DirCount is the number of directory entries, valid even when
	// DirSpilled is true and Directory itself has not been loaded.
	DirCount uint32
}

// MetaInvalidRoot is stored as RootBlock for an empty index.
const MetaInvalidRoot uint32 = 0xFFFFFFFF

func encodeColumnType(buf []byte, c base.ColumnType, isKey bool) int {
	putBE32(buf, c.OID)
	off := 4
	if c.ByVal {
		buf[off] = 1
	} else {
		buf[off] = 0
	}
	off++
	buf[off] = c.Length
	off++
	if isKey {
		putBE32(buf[off:], c.Collation)
		off += 4
	}
	return off
}

func decodeColumnType(buf []byte, isKey bool) (base.ColumnType, int) {
	c := base.ColumnType{OID: be32(buf[0:4])}
	off := 4
	c.ByVal = buf[off] != 0
	off++
	c.Length = buf[off]
	off++
	if isKey {
		c.Collation = be32(buf[off:])
		off += 4
	}
	return c, off
}

// columnTypeLen returns the encoded byte length of a single column type
// descriptor.
func columnTypeLen(isKey bool) int {
	if isKey {
		return 4 + 1 + 1 + 4
	}
	return 4 + 1 + 1
}

// schemaEncodedLen returns the byte length of the encoded schema section.
func schemaEncodedLen(s base.Schema) int {
	n := 1 + 1 // nkeys, ninclude
	n += len(s.Key.Columns) * columnTypeLen(true)
	n += len(s.Include.Columns) * columnTypeLen(false)
	return n
}

func encodeSchema(buf []byte, s base.Schema) int {
	off := 0
	buf[off] = byte(len(s.Key.Columns))
	off++
	buf[off] = byte(len(s.Include.Columns))
	off++
	for _, c := range s.Key.Columns {
		off += encodeColumnType(buf[off:], c, true)
	}
	for _, c := range s.Include.Columns {
		off += encodeColumnType(buf[off:], c, false)
	}
	return off
}

func decodeSchema(buf []byte) (base.Schema, int, error) {
	if len(buf) < 2 {
		return base.Schema{}, 0, base.CorruptPageErrorf(0, "meta page truncated in schema header")
	}
	nkeys := int(buf[0])
	ninclude := int(buf[1])
	off := 2
	var s base.Schema
	for i := 0; i < nkeys; i++ {
		if off+columnTypeLen(true) > len(buf) {
			return base.Schema{}, 0, base.CorruptPageErrorf(0, "meta page truncated in key schema")
		}
		c, n := decodeColumnType(buf[off:], true)
		s.Key.Columns = append(s.Key.Columns, c)
		off += n
	}
	for i := 0; i < ninclude; i++ {
		if off+columnTypeLen(false) > len(buf) {
			return base.Schema{}, 0, base.CorruptPageErrorf(0, "meta page truncated in include schema")
		}
		c, n := decodeColumnType(buf[off:], false)
		s.Include.Columns = append(s.Include.Columns, c)
		off += n
	}
	return s, off, nil
}

// metaFixedLen is the byte length of the meta page's fixed-position
// fields preceding the schema and directory: magic, version, flags, root,
// height, firstLeaf, lastLeaf.
const metaFixedLen = 4 + 2 + 2 + 4 + 2 + 4 + 4

// EncodeMeta encodes m into a page buffer of exactly pageSize bytes. The
// directory is encoded inline if it fits; otherwise the caller must have
// already spilled it (m.DirSpilled && m.DirRootBlock set) and only the
// count plus pointer are written.
func EncodeMeta(m Meta, pageSize int) ([]byte, error) {
	buf := make([]byte, pageSize)
	off := 0
	putBE32(buf[off:], Magic)
	off += 4
	putBE16(buf[off:], m.Version)
	off += 2
	putBE16(buf[off:], m.Flags)
	off += 2
	putBE32(buf[off:], m.RootBlock)
	off += 4
	putBE16(buf[off:], m.Height)
	off += 2
	putBE32(buf[off:], m.FirstLeaf)
	off += 4
	putBE32(buf[off:], m.LastLeaf)
	off += 4

	schemaLen := schemaEncodedLen(m.Schema)
	if off+schemaLen > pageSize {
		return nil, base.ResourceExceededErrorf("meta page too small for schema")
	}
	off += encodeSchema(buf[off:], m.Schema)

	putBE32(buf[off:], m.DirCount)
	off += 4
	if m.DirSpilled {
		// Flags bit 0 marks a spilled directory so DecodeMeta knows to
		// read a block pointer instead of inline triples.
		putBE16(buf[6:8], m.Flags|1)
		putBE32(buf[off:], m.DirRootBlock)
		off += 4
	} else {
		keyWidth := m.Schema.Key.RowWidth()
		for _, d := range m.Directory {
			if off+2*keyWidth+4+ChecksumLen > pageSize {
				return nil, base.ResourceExceededErrorf("meta page too small for inline directory of %d entries", len(m.Directory))
			}
			off += copy(buf[off:], d.FirstKey)
			off += copy(buf[off:], d.LastKey)
			putBE32(buf[off:], d.Block)
			off += 4
		}
	}
	writeChecksum(buf)
	return buf, nil
}

// DecodeMeta parses block 0. If the directory was spilled, Directory is
// left nil and a caller that wants it must follow DirRootBlock through
// DecodeDirectoryPage; the scan and cost paths instead fall back to tree
// descent and conservative estimates respectively.
func DecodeMeta(buf []byte) (Meta, error) {
	if len(buf) < metaFixedLen+ChecksumLen {
		return Meta{}, base.CorruptPageErrorf(0, "meta page too small")
	}
	var m Meta
	off := 0
	magic := be32(buf[off:])
	off += 4
	if magic != Magic {
		return Meta{}, base.CorruptPageErrorf(0, "bad meta magic %#x (build incomplete or not a roidx index)", magic)
	}
	if err := verifyChecksum(buf, 0); err != nil {
		return Meta{}, err
	}
	m.Version = be16(buf[off:])
	off += 2
	m.Flags = be16(buf[off:])
	off += 2
	m.RootBlock = be32(buf[off:])
	off += 4
	m.Height = be16(buf[off:])
	off += 2
	m.FirstLeaf = be32(buf[off:])
	off += 4
	m.LastLeaf = be32(buf[off:])
	off += 4

	schema, n, err := decodeSchema(buf[off:])
	if err != nil {
		return Meta{}, err
	}
	m.Schema = schema
	off += n
	if err := schema.Validate(); err != nil {
		return Meta{}, base.SchemaMismatchErrorf("%s", err)
	}

	m.DirCount = be32(buf[off:])
	off += 4
	spilled := m.Flags&1 != 0
	m.DirSpilled = spilled
	if spilled {
		m.DirRootBlock = be32(buf[off:])
		off += 4
	} else {
		keyWidth := schema.Key.RowWidth()
		m.Directory = make([]DirEntry, 0, m.DirCount)
		for i := uint32(0); i < m.DirCount; i++ {
			if off+2*keyWidth+4 > len(buf)-ChecksumLen {
				return Meta{}, base.CorruptPageErrorf(0, "directory truncated at entry %d", i)
			}
			// Copy out of buf: the caller unpins the meta page right
			// after decoding, but the directory lives for the life of
			// the handle.
			first := append([]byte(nil), buf[off:off+keyWidth]...)
			off += keyWidth
			last := append([]byte(nil), buf[off:off+keyWidth]...)
			off += keyWidth
			block := be32(buf[off:])
			off += 4
			m.Directory = append(m.Directory, DirEntry{FirstKey: first, LastKey: last, Block: block})
		}
	}
	return m, nil
}
