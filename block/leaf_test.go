// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package block

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ovidb/roidx/internal/base"
)

func intSchema() base.Schema {
	return base.Schema{
		Key:     base.KeySchema{Columns: []base.ColumnType{{ByVal: true, Length: 8}}},
		Include: base.IncludeSchema{Columns: []base.ColumnType{{ByVal: true, Length: 4}}},
	}
}

func keyOf(v uint64) []byte {
	b := make([]byte, 8)
	base.EncodeFixedWidthInt(b, 8, v)
	return b
}

func incOf(v uint32) []byte {
	b := make([]byte, 4)
	base.EncodeFixedWidthInt(b, 4, uint64(v))
	return b
}

func distinctEntries(n int) []Entry {
	entries := make([]Entry, n)
	for i := 0; i < n; i++ {
		entries[i] = Entry{Key: keyOf(uint64(i)), Include: incOf(uint32(i * 10))}
	}
	return entries
}

func allEqualEntries(n int) []Entry {
	entries := make([]Entry, n)
	for i := 0; i < n; i++ {
		entries[i] = Entry{Key: keyOf(1), Include: incOf(42)}
	}
	return entries
}

// TestLeafRoundTripPlain covers the all-distinct-keys case, where plain is
// smaller than key-RLE (one run per key) and include-RLE is invalid.
func TestLeafRoundTripPlain(t *testing.T) {
	schema := intSchema()
	entries := distinctEntries(10)
	buf, tag, err := EncodeLeaf(schema, entries, 4096, 7)
	require.NoError(t, err)
	require.Equal(t, TagPlain, tag)

	page := Page{Schema: schema, Buf: buf}
	require.Equal(t, 10, page.NItems())
	require.Equal(t, uint32(7), page.RightLink())

	got, err := Decode(schema, page, 1)
	require.NoError(t, err)
	require.Equal(t, entries, got)
}

// TestLeafRoundTripKeyRLE covers duplicate keys with varying includes,
// where key-RLE is the smallest valid encoding (include-RLE is invalid
// since includes vary within the run).
func TestLeafRoundTripKeyRLE(t *testing.T) {
	schema := intSchema()
	var entries []Entry
	for _, k := range []uint64{1, 1, 1, 2, 2, 3} {
		entries = append(entries, Entry{Key: keyOf(k), Include: incOf(uint32(len(entries)))})
	}
	buf, tag, err := EncodeLeaf(schema, entries, 4096, 0xFFFFFFFF)
	require.NoError(t, err)
	require.Equal(t, TagKeyRLE, tag)

	page := Page{Schema: schema, Buf: buf}
	got, err := Decode(schema, page, 1)
	require.NoError(t, err)
	require.Equal(t, entries, got)
}

// TestLeafRoundTripIncludeRLE covers the fully-duplicated case: all rows
// identical, where include-RLE is smallest.
func TestLeafRoundTripIncludeRLE(t *testing.T) {
	schema := intSchema()
	entries := allEqualEntries(50)
	buf, tag, err := EncodeLeaf(schema, entries, 4096, 0xFFFFFFFF)
	require.NoError(t, err)
	require.Equal(t, TagIncludeRLE, tag)

	page := Page{Schema: schema, Buf: buf}
	got, err := Decode(schema, page, 1)
	require.NoError(t, err)
	require.Equal(t, entries, got)
}

// TestChooseFormatIsSizeMinimal checks that the selected format never
// exceeds the size of any valid alternative.
func TestChooseFormatIsSizeMinimal(t *testing.T) {
	schema := intSchema()

	cases := [][]Entry{
		distinctEntries(1),
		distinctEntries(20),
		allEqualEntries(1),
		allEqualEntries(20),
	}
	for _, entries := range cases {
		sizes := Compute(schema, entries)
		tag := ChooseFormat(sizes)

		best := sizes.Plain
		if sizes.KeyRLE < best {
			best = sizes.KeyRLE
		}
		if sizes.IncludeRLEValid && sizes.IncludeRLE < best {
			best = sizes.IncludeRLE
		}

		var chosenSize int
		switch tag {
		case TagPlain:
			chosenSize = sizes.Plain
		case TagKeyRLE:
			chosenSize = sizes.KeyRLE
		case TagIncludeRLE:
			chosenSize = sizes.IncludeRLE
		}
		require.Equal(t, best, chosenSize)
	}
}

func TestChooseFormatSingleEntryPrefersPlain(t *testing.T) {
	// A single entry: key-RLE and include-RLE both degenerate to one run,
	// and each still pays a run count and a run length on top of the row,
	// so plain is strictly the smallest.
	schema := intSchema()
	entries := distinctEntries(1)
	sizes := Compute(schema, entries)
	require.Equal(t, TagPlain, ChooseFormat(sizes))
}

func TestEncodeLeafForcedRejectsInvalidIncludeRLE(t *testing.T) {
	schema := intSchema()
	var entries []Entry
	for _, k := range []uint64{1, 1, 2} {
		entries = append(entries, Entry{Key: keyOf(k), Include: incOf(uint32(len(entries)))})
	}
	_, _, err := EncodeLeafForced(schema, entries, 4096, 0, TagIncludeRLE)
	require.Error(t, err)
	require.True(t, base.IsKind(err, base.KindResourceExceeded))
}

func TestEncodeLeafTooSmallPage(t *testing.T) {
	schema := intSchema()
	entries := distinctEntries(100)
	_, _, err := EncodeLeaf(schema, entries, 64, 0)
	require.Error(t, err)
	require.True(t, base.IsKind(err, base.KindResourceExceeded))
}

func TestLocateGEPlain(t *testing.T) {
	schema := intSchema()
	entries := distinctEntries(10)
	buf, _, err := EncodeLeaf(schema, entries, 4096, 0)
	require.NoError(t, err)
	page := Page{Schema: schema, Buf: buf}

	idx, err := LocateGE(schema, page, keyOf(5))
	require.NoError(t, err)
	require.Equal(t, 5, idx)

	idx, err = LocateGE(schema, page, keyOf(100))
	require.NoError(t, err)
	require.Equal(t, 10, idx)

	idx, err = LocateGE(schema, page, keyOf(0))
	require.NoError(t, err)
	require.Equal(t, 0, idx)
}

func TestLocateGEKeyRLE(t *testing.T) {
	schema := intSchema()
	var entries []Entry
	for _, k := range []uint64{1, 1, 1, 3, 3, 5} {
		entries = append(entries, Entry{Key: keyOf(k), Include: incOf(uint32(len(entries)))})
	}
	buf, tag, err := EncodeLeaf(schema, entries, 4096, 0)
	require.NoError(t, err)
	require.Equal(t, TagKeyRLE, tag)
	page := Page{Schema: schema, Buf: buf}

	idx, err := LocateGE(schema, page, keyOf(2))
	require.NoError(t, err)
	require.Equal(t, 3, idx) // first entry with key 3

	idx, err = LocateGE(schema, page, keyOf(3))
	require.NoError(t, err)
	require.Equal(t, 3, idx)

	idx, err = LocateGE(schema, page, keyOf(6))
	require.NoError(t, err)
	require.Equal(t, 6, idx)
}

func TestRunBoundsAtPlainIsSingleton(t *testing.T) {
	schema := intSchema()
	entries := distinctEntries(5)
	buf, _, err := EncodeLeaf(schema, entries, 4096, 0)
	require.NoError(t, err)
	page := Page{Schema: schema, Buf: buf}

	start, end, err := RunBoundsAt(schema, page, 2)
	require.NoError(t, err)
	require.Equal(t, 2, start)
	require.Equal(t, 3, end)
	require.True(t, IsPlain(page))
}

func TestRunBoundsAtIncludeRLE(t *testing.T) {
	schema := intSchema()
	entries := allEqualEntries(9)
	buf, tag, err := EncodeLeaf(schema, entries, 4096, 0)
	require.NoError(t, err)
	require.Equal(t, TagIncludeRLE, tag)
	page := Page{Schema: schema, Buf: buf}

	start, end, err := RunBoundsAt(schema, page, 4)
	require.NoError(t, err)
	require.Equal(t, 0, start)
	require.Equal(t, 9, end)
	require.False(t, IsPlain(page))
}

func TestIterSequentialMatchesDecode(t *testing.T) {
	schema := intSchema()
	var entries []Entry
	for _, k := range []uint64{1, 1, 2, 2, 2, 4} {
		entries = append(entries, Entry{Key: keyOf(k), Include: incOf(uint32(len(entries) * 7))})
	}
	buf, _, err := EncodeLeaf(schema, entries, 4096, 0)
	require.NoError(t, err)
	page := Page{Schema: schema, Buf: buf}

	it, err := NewIter(schema, page, 1)
	require.NoError(t, err)
	var got []Entry
	for it.Next() {
		k := append([]byte(nil), it.Key()...)
		v := append([]byte(nil), it.Include()...)
		got = append(got, Entry{Key: k, Include: v})
	}
	require.NoError(t, it.Err())
	require.Equal(t, entries, got)
}

func TestIterRandomAccessAt(t *testing.T) {
	schema := intSchema()
	entries := distinctEntries(8)
	buf, _, err := EncodeLeaf(schema, entries, 4096, 0)
	require.NoError(t, err)
	page := Page{Schema: schema, Buf: buf}

	it, err := NewIter(schema, page, 1)
	require.NoError(t, err)
	for i := len(entries) - 1; i >= 0; i-- {
		k, v, err := it.At(i)
		require.NoError(t, err)
		require.Equal(t, entries[i].Key, k)
		require.Equal(t, entries[i].Include, v)
	}
}

func TestNewIterRejectsUnrecognizedTag(t *testing.T) {
	schema := intSchema()
	buf := make([]byte, 64)
	putBE16(buf[0:2], 0x1234)
	_, err := NewIter(schema, Page{Schema: schema, Buf: buf}, 3)
	require.Error(t, err)
	require.True(t, base.IsKind(err, base.KindCorruptPage))
}

func TestEmptyLeaf(t *testing.T) {
	schema := intSchema()
	buf, tag, err := EncodeLeaf(schema, nil, 4096, 0xFFFFFFFF)
	require.NoError(t, err)
	require.Equal(t, TagPlain, tag)
	page := Page{Schema: schema, Buf: buf}
	require.Equal(t, 0, page.NItems())

	got, err := Decode(schema, page, 1)
	require.NoError(t, err)
	require.Empty(t, got)
}
