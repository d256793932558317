// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

//go:build linux

package pager

import (
	"os"

	"golang.org/x/sys/unix"
)

// platformPrefetch issues a willneed read-ahead hint to the OS page cache.
// Failures are deliberately ignored: a missed prefetch only costs latency
// on the next synchronous read, never correctness.
func platformPrefetch(f *os.File, offset int64, length int) {
	_ = unix.Fadvise(int(f.Fd()), offset, int64(length), unix.FADV_WILLNEED)
}
