// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package block

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ovidb/roidx/internal/base"
)

func TestInternalRoundTrip(t *testing.T) {
	entries := []InternalEntry{
		{Key: keyOf(0), Child: 1},
		{Key: keyOf(10), Child: 2},
		{Key: keyOf(20), Child: 3},
	}
	buf, err := EncodeInternal(entries, 4096)
	require.NoError(t, err)

	got, err := DecodeInternal(buf, 9)
	require.NoError(t, err)
	require.Len(t, got, 3)
	for i := range entries {
		require.Equal(t, entries[i].Key, got[i].Key)
		require.Equal(t, entries[i].Child, got[i].Child)
	}
}

func TestEncodeInternalTooSmall(t *testing.T) {
	entries := make([]InternalEntry, 50)
	for i := range entries {
		entries[i] = InternalEntry{Key: keyOf(uint64(i)), Child: uint32(i)}
	}
	_, err := EncodeInternal(entries, 32)
	require.Error(t, err)
	require.True(t, base.IsKind(err, base.KindResourceExceeded))
}

func TestSearchInternal(t *testing.T) {
	keySchema := base.KeySchema{Columns: []base.ColumnType{{ByVal: true, Length: 8}}}
	entries := []InternalEntry{
		{Key: keyOf(0), Child: 0},
		{Key: keyOf(10), Child: 1},
		{Key: keyOf(20), Child: 2},
	}
	require.Equal(t, 0, SearchInternal(keySchema, entries, keyOf(0)))
	require.Equal(t, 0, SearchInternal(keySchema, entries, keyOf(5)))
	require.Equal(t, 1, SearchInternal(keySchema, entries, keyOf(10)))
	require.Equal(t, 2, SearchInternal(keySchema, entries, keyOf(25)))
	// The smallest possible key (0, since keys compare unsigned) descends
	// into the first child, whose separator is the subtree's lower bound.
	require.Equal(t, 0, SearchInternal(keySchema, entries, keyOf(0)))
}

func TestDecodeInternalRejectsWrongTag(t *testing.T) {
	buf, err := EncodeMeta(Meta{Version: Version, RootBlock: MetaInvalidRoot, Schema: intSchema()}, 256)
	require.NoError(t, err)
	_, err = DecodeInternal(buf, 0)
	require.Error(t, err)
	require.True(t, base.IsKind(err, base.KindCorruptPage))
}
