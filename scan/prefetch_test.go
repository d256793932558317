// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package scan

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPrefetchDepthEquality(t *testing.T) {
	kr := Equality(keyOf8(1))
	require.Equal(t, 0, prefetchDepth(1, kr, 8))
	require.Equal(t, 0, prefetchDepth(2, kr, 8))
	require.Equal(t, 1, prefetchDepth(3, kr, 8))
	require.Equal(t, 1, prefetchDepth(4, kr, 8))
	require.Equal(t, 2, prefetchDepth(5, kr, 8))
	require.Equal(t, 2, prefetchDepth(100, kr, 8))
}

func TestPrefetchDepthEqualityRespectsMaxDepth(t *testing.T) {
	kr := Equality(keyOf8(1))
	require.Equal(t, 0, prefetchDepth(3, kr, 0))
	require.Equal(t, 1, prefetchDepth(100, kr, 1))
}

func TestPrefetchDepthUnboundedForwardAlwaysMax(t *testing.T) {
	kr := Unbounded()
	require.Equal(t, 8, prefetchDepth(0, kr, 8))
	require.Equal(t, 8, prefetchDepth(1, kr, 8))
	require.Equal(t, 8, prefetchDepth(1000, kr, 8))
}

func TestPrefetchDepthBoundedStagedTable(t *testing.T) {
	kr := KeyRange{
		Lower: Bound{Key: keyOf8(0), Inclusive: true, Valid: true},
		Upper: Bound{Key: keyOf8(1000), Inclusive: true, Valid: true},
	}
	require.Equal(t, 0, prefetchDepth(1, kr, 8))
	require.Equal(t, 0, prefetchDepth(3, kr, 8))
	require.Equal(t, 1, prefetchDepth(4, kr, 8))
	require.Equal(t, 1, prefetchDepth(7, kr, 8))
	require.Equal(t, 2, prefetchDepth(8, kr, 8))
	require.Equal(t, 2, prefetchDepth(19, kr, 8))
	require.Equal(t, 4, prefetchDepth(20, kr, 8))
	require.Equal(t, 4, prefetchDepth(49, kr, 8))
	require.Equal(t, 5, prefetchDepth(50, kr, 8))
	require.Equal(t, 10, prefetchDepth(100, kr, 20))
}

func TestPrefetchDepthBoundedClampsToMaxDepth(t *testing.T) {
	kr := KeyRange{
		Lower: Bound{Key: keyOf8(0), Inclusive: true, Valid: true},
		Upper: Bound{Key: keyOf8(1000), Inclusive: true, Valid: true},
	}
	require.Equal(t, 1, prefetchDepth(20, kr, 1))
	require.Equal(t, 0, prefetchDepth(3, kr, 0))
}
