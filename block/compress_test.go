// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package block

import (
	"testing"

	"github.com/kr/pretty"
	"github.com/stretchr/testify/require"

	"github.com/ovidb/roidx/internal/base"
)

// requireEntriesEqual is the round-trip assertion every compression test
// below uses: on mismatch it prints a structural diff via kr/pretty rather
// than testify's default %+v dump, which is unreadable for a slice of
// byte-slice entries.
func requireEntriesEqual(t *testing.T, want, got []Entry) {
	t.Helper()
	if diff := pretty.Diff(want, got); len(diff) > 0 {
		t.Fatalf("decoded entries differ from input:\n%s", pretty.Sprint(diff))
	}
}

// compressibleEntries produces entries whose include columns repeat a
// handful of distinct values in a pattern that doesn't run-length
// compress (no two adjacent rows share a key), but whose bytes are still
// highly redundant for a general-purpose compressor — the scenario
// compression is for.
func compressibleEntries(n int) []Entry {
	entries := make([]Entry, n)
	for i := 0; i < n; i++ {
		entries[i] = Entry{Key: keyOf(uint64(i)), Include: incOf(uint32(i % 4))}
	}
	return entries
}

// TestCompressedPlainRoundTrip forces the plain format on a page too small
// for the uncompressed encoding, so only the compressed-plain path can
// satisfy it (entries are forced highly redundant so zstd shrinks them
// enough to fit).
func TestCompressedPlainRoundTrip(t *testing.T) {
	schema := intSchema()
	entries := allEqualEntries(500)

	pageSize := 1024
	sizes := ComputeCompressed(schema, entries, CompressionZstd)
	require.Greater(t, sizes.Plain, pageSize, "test setup: plain must not fit so compression is exercised")
	require.True(t, sizes.CompressedPlainValid)
	require.LessOrEqual(t, sizes.CompressedPlain, pageSize, "test setup: compressed plain must fit")

	buf, tag, err := EncodeLeafCompressed(schema, entries, pageSize, 11, TagPlain, CompressionZstd)
	require.NoError(t, err)
	require.Equal(t, TagPlain, tag)
	require.Equal(t, TagPlain|compressedTagBit, Page{Schema: schema, Buf: buf}.Tag())

	page := Page{Schema: schema, Buf: buf}
	require.Equal(t, len(entries), page.NItems())
	require.Equal(t, uint32(11), page.RightLink())

	got, err := Decode(schema, page, 1)
	require.NoError(t, err)
	requireEntriesEqual(t, entries, got)
}

func TestCompressedPlainUsedOnlyWhenItHelpsFit(t *testing.T) {
	schema := intSchema()
	entries := compressibleEntries(3)

	sizes := ComputeCompressed(schema, entries, CompressionZstd)
	require.Greater(t, sizes.Plain, 0)

	// Plenty of room: the uncompressed plain encoding fits, so it is used
	// even though compression is enabled, matching block/compress.go's
	// doc comment that compression only kicks in once plain alone would
	// not fit.
	buf, tag, err := EncodeLeafCompressed(schema, entries, 4096, 0, 0, CompressionZstd)
	require.NoError(t, err)
	require.Equal(t, TagPlain, tag)
	page := Page{Schema: schema, Buf: buf}
	require.Equal(t, TagPlain, page.Tag())
}

func TestCompressedPlainLocateGE(t *testing.T) {
	schema := intSchema()
	entries := compressibleEntries(100)

	buf, _, err := EncodeLeafCompressed(schema, entries, 1024, 0xFFFFFFFF, 0, CompressionZstd)
	require.NoError(t, err)
	page := Page{Schema: schema, Buf: buf}

	idx, err := LocateGE(schema, page, keyOf(50))
	require.NoError(t, err)
	require.Equal(t, 50, idx)

	start, end, err := RunBoundsAt(schema, page, 50)
	require.NoError(t, err)
	require.Equal(t, 50, start)
	require.Equal(t, 51, end)
}

func TestCompressedPlainRejectsTamperedChecksum(t *testing.T) {
	schema := intSchema()
	entries := compressibleEntries(50)
	buf, _, err := EncodeLeafCompressed(schema, entries, 512, 0, 0, CompressionZstd)
	require.NoError(t, err)
	buf[HeaderLen] ^= 0xFF

	page := Page{Schema: schema, Buf: buf}
	_, err = NewIter(schema, page, 3)
	require.Error(t, err)
	require.True(t, base.IsKind(err, base.KindCorruptPage))
}
