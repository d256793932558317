// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package base

import (
	"bytes"
	"encoding/binary"
)

// CompareColumn compares two fixed-width encodings of the same column,
// dispatching on the column's tagged KeyKind. a and b must each be exactly
// c.Width() bytes.
func CompareColumn(c ColumnType, a, b []byte) int {
	kind, err := c.Kind()
	if err != nil {
		// Schema validation happens at build/open time; by the time we're
		// comparing rows the kind is known-good.
		panic(err)
	}
	switch kind {
	case KindInt8:
		if a[0] == b[0] {
			return 0
		}
		if a[0] < b[0] {
			return -1
		}
		return 1
	case KindInt16:
		x, y := binary.BigEndian.Uint16(a), binary.BigEndian.Uint16(b)
		return cmpUint(x, y)
	case KindInt32:
		x, y := binary.BigEndian.Uint32(a), binary.BigEndian.Uint32(b)
		return cmpUint(x, y)
	case KindInt64:
		x, y := binary.BigEndian.Uint64(a), binary.BigEndian.Uint64(b)
		return cmpUint(x, y)
	case KindText:
		return bytes.Compare(a, b)
	default:
		panic("roidx: unreachable key kind")
	}
}

func cmpUint[T uint16 | uint32 | uint64](x, y T) int {
	switch {
	case x < y:
		return -1
	case x > y:
		return 1
	default:
		return 0
	}
}

// CompareKey compares two full (possibly two-column) keys, encoded as
// concatenated fixed-width fields per KeySchema.RowWidth layout.
func CompareKey(s KeySchema, a, b []byte) int {
	off := 0
	for _, c := range s.Columns {
		w := c.Width()
		if cmp := CompareColumn(c, a[off:off+w], b[off:off+w]); cmp != 0 {
			return cmp
		}
		off += w
	}
	return 0
}

// EncodeFixedWidthInt encodes an unsigned integer of the given byte width
// into dst using big-endian order, which roidx uses throughout so that
// byte-wise comparison matches numeric comparison.
func EncodeFixedWidthInt(dst []byte, width int, v uint64) {
	switch width {
	case 1:
		dst[0] = byte(v)
	case 2:
		binary.BigEndian.PutUint16(dst, uint16(v))
	case 4:
		binary.BigEndian.PutUint32(dst, uint32(v))
	case 8:
		binary.BigEndian.PutUint64(dst, v)
	default:
		panic("roidx: unsupported integer width")
	}
}

// DecodeFixedWidthInt is the inverse of EncodeFixedWidthInt.
func DecodeFixedWidthInt(src []byte, width int) uint64 {
	switch width {
	case 1:
		return uint64(src[0])
	case 2:
		return uint64(binary.BigEndian.Uint16(src))
	case 4:
		return uint64(binary.BigEndian.Uint32(src))
	case 8:
		return binary.BigEndian.Uint64(src)
	default:
		panic("roidx: unsupported integer width")
	}
}
