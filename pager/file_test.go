// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package pager

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFilePagerExtendWriteReadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.roidx")
	p, err := NewFilePager(path, 256)
	require.NoError(t, err)
	defer p.Close()

	require.Equal(t, uint32(0), p.BlockCount())

	blk, err := p.Extend(context.Background())
	require.NoError(t, err)
	require.Equal(t, uint32(0), blk)
	require.Equal(t, uint32(1), p.BlockCount())

	payload := make([]byte, 256)
	copy(payload, []byte("hello block zero"))
	require.NoError(t, p.Write(context.Background(), blk, payload))

	buf, err := p.Pin(context.Background(), blk)
	require.NoError(t, err)
	require.Equal(t, payload, buf)
	p.Unpin(blk)
}

func TestFilePagerReopenPreservesBlockCount(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.roidx")
	p1, err := NewFilePager(path, 128)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		_, err := p1.Extend(context.Background())
		require.NoError(t, err)
	}
	require.NoError(t, p1.Close())

	p2, err := NewFilePager(path, 128)
	require.NoError(t, err)
	defer p2.Close()
	require.Equal(t, uint32(5), p2.BlockCount())
}

func TestFilePagerMultipleBlocksIndependent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.roidx")
	p, err := NewFilePager(path, 64)
	require.NoError(t, err)
	defer p.Close()

	a, err := p.Extend(context.Background())
	require.NoError(t, err)
	b, err := p.Extend(context.Background())
	require.NoError(t, err)

	bufA := make([]byte, 64)
	bufA[0] = 0xAA
	bufB := make([]byte, 64)
	bufB[0] = 0xBB
	require.NoError(t, p.Write(context.Background(), a, bufA))
	require.NoError(t, p.Write(context.Background(), b, bufB))

	gotA, err := p.Pin(context.Background(), a)
	require.NoError(t, err)
	gotB, err := p.Pin(context.Background(), b)
	require.NoError(t, err)
	require.Equal(t, byte(0xAA), gotA[0])
	require.Equal(t, byte(0xBB), gotB[0])
}

func TestFilePagerPrefetchOutOfRangeIsNoop(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.roidx")
	p, err := NewFilePager(path, 64)
	require.NoError(t, err)
	defer p.Close()
	p.Prefetch(999) // must not panic
}
