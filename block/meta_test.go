// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package block

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ovidb/roidx/internal/base"
)

func TestMetaRoundTripInlineDirectory(t *testing.T) {
	schema := intSchema()
	m := Meta{
		Version:   Version,
		RootBlock: 3,
		Height:    2,
		FirstLeaf: 1,
		LastLeaf:  5,
		Schema:    schema,
		Directory: []DirEntry{
			{FirstKey: keyOf(0), LastKey: keyOf(9), Block: 1},
			{FirstKey: keyOf(10), LastKey: keyOf(19), Block: 2},
		},
		DirCount: 2,
	}
	buf, err := EncodeMeta(m, 512)
	require.NoError(t, err)

	got, err := DecodeMeta(buf)
	require.NoError(t, err)
	require.Equal(t, m.Version, got.Version)
	require.Equal(t, m.RootBlock, got.RootBlock)
	require.Equal(t, m.Height, got.Height)
	require.Equal(t, m.FirstLeaf, got.FirstLeaf)
	require.Equal(t, m.LastLeaf, got.LastLeaf)
	require.True(t, m.Schema.Equal(got.Schema))
	require.False(t, got.DirSpilled)
	require.Equal(t, uint32(2), got.DirCount)
	require.Len(t, got.Directory, 2)
	require.Equal(t, m.Directory[0].Block, got.Directory[0].Block)
	require.Equal(t, m.Directory[1].Block, got.Directory[1].Block)
}

func TestMetaRoundTripSpilledDirectory(t *testing.T) {
	schema := intSchema()
	m := Meta{
		Version:      Version,
		RootBlock:    3,
		Height:       3,
		FirstLeaf:    1,
		LastLeaf:     500,
		Schema:       schema,
		DirSpilled:   true,
		DirRootBlock: 42,
		DirCount:     1000,
	}
	buf, err := EncodeMeta(m, 256)
	require.NoError(t, err)

	got, err := DecodeMeta(buf)
	require.NoError(t, err)
	require.True(t, got.DirSpilled)
	require.Equal(t, uint32(42), got.DirRootBlock)
	require.Equal(t, uint32(1000), got.DirCount)
	require.Nil(t, got.Directory)
}

func TestMetaEmptyIndex(t *testing.T) {
	m := Meta{
		Version:   Version,
		RootBlock: MetaInvalidRoot,
		Schema:    intSchema(),
	}
	buf, err := EncodeMeta(m, 256)
	require.NoError(t, err)
	got, err := DecodeMeta(buf)
	require.NoError(t, err)
	require.Equal(t, MetaInvalidRoot, got.RootBlock)
	require.Equal(t, uint32(0), got.DirCount)
}

func TestDecodeMetaRejectsBadMagic(t *testing.T) {
	buf := make([]byte, 64)
	_, err := DecodeMeta(buf)
	require.Error(t, err)
	require.True(t, base.IsKind(err, base.KindCorruptPage))
}

func TestEncodeMetaTooSmallForDirectory(t *testing.T) {
	schema := intSchema()
	dir := make([]DirEntry, 100)
	for i := range dir {
		dir[i] = DirEntry{FirstKey: keyOf(uint64(i)), LastKey: keyOf(uint64(i)), Block: uint32(i)}
	}
	m := Meta{Version: Version, RootBlock: 1, Schema: schema, Directory: dir, DirCount: uint32(len(dir))}
	_, err := EncodeMeta(m, 64)
	require.Error(t, err)
	require.True(t, base.IsKind(err, base.KindResourceExceeded))
}
