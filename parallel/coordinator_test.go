// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package parallel

import (
	"context"
	"math/rand"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ovidb/roidx/block"
	"github.com/ovidb/roidx/build"
	"github.com/ovidb/roidx/internal/base"
	"github.com/ovidb/roidx/pager"
	"github.com/ovidb/roidx/scan"
)

func TestCoordinatorClaimCoversEveryLeafExactlyOnce(t *testing.T) {
	coord := NewCoordinator(10, 25, 4)
	var got []uint32
	for {
		start, end, ok := coord.claim()
		if !ok {
			break
		}
		for b := start; b < end; b++ {
			got = append(got, b)
		}
	}
	sort.Slice(got, func(i, j int) bool { return got[i] < got[j] })
	require.Len(t, got, 16)
	for i, b := range got {
		require.Equal(t, uint32(10+i), b)
	}
	require.True(t, coord.Finished())
}

func TestCoordinatorClaimConcurrentNoOverlap(t *testing.T) {
	coord := NewCoordinator(0, 999, 3)
	seen := make([]int32, 1000)
	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				start, end, ok := coord.claim()
				if !ok {
					return
				}
				for b := start; b < end; b++ {
					seen[b]++
				}
			}
		}()
	}
	wg.Wait()
	for i, c := range seen {
		require.Equal(t, int32(1), c, "block %d claimed %d times", i, c)
	}
}

func TestCoordinatorEmptyRangeFinishedImmediately(t *testing.T) {
	coord := NewCoordinator(pager.InvalidBlock, 0, 4)
	require.True(t, coord.Finished())
	_, _, ok := coord.claim()
	require.False(t, ok)
}

func TestCoordinatorResetReseeds(t *testing.T) {
	coord := NewCoordinator(0, 3, 2)
	for {
		_, _, ok := coord.claim()
		if !ok {
			break
		}
	}
	require.True(t, coord.Finished())

	coord.Reset(10, 11)
	require.False(t, coord.Finished())
	start, end, ok := coord.claim()
	require.True(t, ok)
	require.Equal(t, uint32(10), start)
	require.Equal(t, uint32(12), end)
}

func TestCoordinatorBatchSizeZeroDefaultsToOne(t *testing.T) {
	coord := NewCoordinator(0, 2, 0)
	start, end, ok := coord.claim()
	require.True(t, ok)
	require.Equal(t, uint32(0), start)
	require.Equal(t, uint32(1), end)
}

func int64Schema() base.Schema {
	return base.Schema{
		Key:     base.KeySchema{Columns: []base.ColumnType{{ByVal: true, Length: 8}}},
		Include: base.IncludeSchema{Columns: []base.ColumnType{{ByVal: true, Length: 4}}},
	}
}

func keyOf8(v uint64) []byte {
	b := make([]byte, 8)
	base.EncodeFixedWidthInt(b, 8, v)
	return b
}

func keyOf4(v uint32) []byte {
	b := make([]byte, 4)
	base.EncodeFixedWidthInt(b, 4, uint64(v))
	return b
}

func TestRunParallelMatchesSerialScanMultiset(t *testing.T) {
	schema := int64Schema()
	n := 4000
	var tuples []build.Tuple
	perm := rand.New(rand.NewSource(7)).Perm(n)
	for i, v := range perm {
		tuples = append(tuples, build.Tuple{Key: keyOf8(uint64(v)), Include: keyOf4(uint32(v)), RowNum: int64(i)})
	}
	pgr := pager.NewMemPager(512)
	res, err := build.Build(context.Background(), pgr, schema, &build.SliceSource{Tuples: tuples}, build.Options{PageSize: 512, MemoryBudget: 1 << 18})
	require.NoError(t, err)

	buf, err := pgr.Pin(context.Background(), res.MetaBlock)
	require.NoError(t, err)
	meta, err := block.DecodeMeta(buf)
	require.NoError(t, err)

	coord := NewCoordinator(meta.FirstLeaf, meta.LastLeaf, 5)
	out, wait := RunParallel(context.Background(), pgr, meta, scan.Unbounded(), 4, coord, WorkerOptions{})

	var got []uint64
	for p := range out {
		got = append(got, base.DecodeFixedWidthInt(p.Key, 8))
	}
	require.NoError(t, wait())

	sort.Slice(got, func(i, j int) bool { return got[i] < got[j] })
	require.Len(t, got, n)
	for i, v := range got {
		require.Equal(t, uint64(i), v)
	}
}
