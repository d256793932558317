// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

//go:build !linux

package pager

import "os"

// platformPrefetch is a no-op on platforms without a read-ahead syscall
// roidx knows how to call; backward scans issue no prefetch hints above
// this layer, so this fallback only affects forward and parallel-worker
// scan throughput, never correctness.
func platformPrefetch(*os.File, int64, int) {}
