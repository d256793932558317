// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package build

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ovidb/roidx/internal/base"
	"github.com/ovidb/roidx/internal/extsort"
	"github.com/ovidb/roidx/pager"
)

func TestBuildParallelMatchesSerialMultiset(t *testing.T) {
	schema := int64Schema()
	n := 3000
	var tuples []Tuple
	perm := rand.New(rand.NewSource(3)).Perm(n)
	for i, v := range perm {
		tuples = append(tuples, int64Tuple(uint64(v%500), uint32(v), int64(i)))
	}

	serialPgr := pager.NewMemPager(1024)
	serialRes, err := Build(context.Background(), serialPgr, schema, &SliceSource{Tuples: append([]Tuple(nil), tuples...)},
		Options{PageSize: 1024, MemoryBudget: 1 << 18})
	require.NoError(t, err)
	serialEntries := decodeAllLeaves(t, serialPgr, schema, serialRes.FirstLeaf)

	parallelPgr := pager.NewMemPager(1024)
	parallelRes, err := BuildParallel(context.Background(), parallelPgr, schema, &SliceSource{Tuples: append([]Tuple(nil), tuples...)},
		Options{PageSize: 1024, MemoryBudget: 1 << 18, WorkerCount: 4})
	require.NoError(t, err)
	parallelEntries := decodeAllLeaves(t, parallelPgr, schema, parallelRes.FirstLeaf)

	require.Equal(t, len(serialEntries), len(parallelEntries))
	for i := range serialEntries {
		require.Equal(t, serialEntries[i].Key, parallelEntries[i].Key)
		require.Equal(t, serialEntries[i].Include, parallelEntries[i].Include)
	}
}

func TestBuildParallelWorkerCountOneDegradesToSerial(t *testing.T) {
	schema := int64Schema()
	tuples := []Tuple{int64Tuple(1, 1, 0), int64Tuple(2, 2, 1)}
	pgr := pager.NewMemPager(4096)
	res, err := BuildParallel(context.Background(), pgr, schema, &SliceSource{Tuples: tuples}, Options{PageSize: 4096, MemoryBudget: 1 << 20, WorkerCount: 1})
	require.NoError(t, err)
	require.Equal(t, int64(2), res.RowCount)
}

func TestBuildParallelMoreWorkersThanRows(t *testing.T) {
	schema := int64Schema()
	tuples := []Tuple{int64Tuple(1, 1, 0)}
	pgr := pager.NewMemPager(4096)
	res, err := BuildParallel(context.Background(), pgr, schema, &SliceSource{Tuples: tuples}, Options{PageSize: 4096, MemoryBudget: 1 << 20, WorkerCount: 8})
	require.NoError(t, err)
	require.Equal(t, int64(1), res.RowCount)
	entries := decodeAllLeaves(t, pgr, schema, res.FirstLeaf)
	require.Len(t, entries, 1)
}

func TestBuildParallelEmptyInput(t *testing.T) {
	schema := int64Schema()
	pgr := pager.NewMemPager(4096)
	res, err := BuildParallel(context.Background(), pgr, schema, &SliceSource{}, Options{PageSize: 4096, MemoryBudget: 1 << 20, WorkerCount: 4})
	require.NoError(t, err)
	require.Equal(t, int64(0), res.RowCount)
	require.Equal(t, pager.InvalidBlock, res.RootBlock)
}

func TestBuildParallelRejectsInvalidTuple(t *testing.T) {
	schema := int64Schema()
	tuples := []Tuple{{Key: make([]byte, 8), Include: make([]byte, 4), KeyColumnNull: []bool{true}, RowNum: 0}}
	pgr := pager.NewMemPager(4096)
	_, err := BuildParallel(context.Background(), pgr, schema, &SliceSource{Tuples: tuples}, Options{PageSize: 4096, MemoryBudget: 1 << 20, WorkerCount: 2})
	require.Error(t, err)
	require.True(t, base.IsKind(err, base.KindInvalidKey))
}

func TestMergeSortedPartitionsOrdersByKeyThenSeq(t *testing.T) {
	cmp := func(a, b []byte) int { return base.CompareKey(int64Schema().Key, a, b) }
	k := func(v uint64) []byte {
		b := make([]byte, 8)
		base.EncodeFixedWidthInt(b, 8, v)
		return b
	}
	partA := []extsort.Row{{Key: k(1), Seq: 0}, {Key: k(3), Seq: 2}}
	partB := []extsort.Row{{Key: k(1), Seq: 1}, {Key: k(2), Seq: 3}}
	out := mergeSortedPartitions([][]extsort.Row{partA, partB}, cmp)
	require.Len(t, out, 4)
	require.Equal(t, k(1), out[0].Key)
	require.Equal(t, uint64(0), out[0].Seq)
	require.Equal(t, k(1), out[1].Key)
	require.Equal(t, uint64(1), out[1].Seq)
	require.Equal(t, k(2), out[2].Key)
	require.Equal(t, k(3), out[3].Key)
}
