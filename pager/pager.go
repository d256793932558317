// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package pager defines the buffer-manager interface roidx consumes
// from its host and ships two reference implementations — an in-memory
// pager for tests and a
// file-backed pager for the standalone CLI — neither of which is meant to
// replace a real host buffer manager's pinning/eviction policy.
package pager

import (
	"context"

	"github.com/ovidb/roidx/internal/base"
)

// Pager is the buffer-manager surface roidx's build and scan paths
// consume. A host implementation is expected to provide pinning, eviction,
// and read-ahead; roidx only ever holds at most one pinned page per
// cursor, unpinning the prior page before pinning the next.
type Pager interface {
	// PageSize returns the fixed page size for this pager, in bytes.
	PageSize() int
	// Pin reads block into a pinned buffer and returns it. The returned
	// slice is valid until Unpin is called for the same block.
	Pin(ctx context.Context, block uint32) ([]byte, error)
	// Unpin releases a previously pinned block.
	Unpin(block uint32)
	// Prefetch issues a non-blocking read-ahead hint for block. Errors are
	// not actionable and so are not returned; a failed prefetch simply
	// does not warm the cache.
	Prefetch(block uint32)
	// Extend allocates and zero-fills a new block, returning its number.
	Extend(ctx context.Context) (uint32, error)
	// Read synchronously reads block into buf, which must be PageSize()
	// bytes.
	Read(ctx context.Context, block uint32, buf []byte) error
	// Write synchronously writes buf (which must be PageSize() bytes) to
	// block.
	Write(ctx context.Context, block uint32, buf []byte) error
	// BlockCount returns the number of allocated blocks.
	BlockCount() uint32
}

// InvalidBlock is the sentinel block number meaning "no such page",
// analogous to an invalid right-link or an empty index's root.
const InvalidBlock uint32 = 0xFFFFFFFF

// wrapIoErr turns a raw I/O failure from a pager implementation into the
// typed error the rest of roidx expects.
func wrapIoErr(cause error, block uint32) error {
	return base.IoFailureErrorf(cause, "block %d", block)
}
