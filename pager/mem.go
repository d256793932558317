// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package pager

import (
	"context"
	"sync"

	"github.com/ovidb/roidx/internal/base"
)

// MemPager is an in-memory Pager, the reference implementation used by
// unit tests across the codec, build, and scan packages. It performs no
// actual eviction — every block lives in the backing slice for the life
// of the pager — so Pin returns the block's backing slice directly and
// Unpin is a no-op.
type MemPager struct {
	pageSize int

	mu     sync.Mutex
	blocks [][]byte
}

// NewMemPager creates an empty in-memory pager with the given page size.
func NewMemPager(pageSize int) *MemPager {
	return &MemPager{pageSize: pageSize}
}

// PageSize implements Pager.
func (p *MemPager) PageSize() int { return p.pageSize }

// Pin implements Pager.
func (p *MemPager) Pin(_ context.Context, block uint32) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if int(block) >= len(p.blocks) {
		return nil, base.IoFailureErrorf(nil, "block %d out of range (have %d blocks)", block, len(p.blocks))
	}
	return p.blocks[block], nil
}

// Unpin implements Pager. MemPager does not evict, so this is a no-op.
func (p *MemPager) Unpin(uint32) {}

// Prefetch implements Pager. MemPager has no I/O to hide latency for, so
// this is a no-op; it exists so the scan package can issue prefetch calls
// uniformly regardless of backend.
func (p *MemPager) Prefetch(uint32) {}

// Extend implements Pager.
func (p *MemPager) Extend(_ context.Context) (uint32, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	block := uint32(len(p.blocks))
	p.blocks = append(p.blocks, make([]byte, p.pageSize))
	return block, nil
}

// Read implements Pager.
func (p *MemPager) Read(_ context.Context, block uint32, buf []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if int(block) >= len(p.blocks) {
		return base.IoFailureErrorf(nil, "block %d out of range (have %d blocks)", block, len(p.blocks))
	}
	copy(buf, p.blocks[block])
	return nil
}

// Write implements Pager.
func (p *MemPager) Write(_ context.Context, block uint32, buf []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if int(block) >= len(p.blocks) {
		return base.IoFailureErrorf(nil, "block %d out of range (have %d blocks)", block, len(p.blocks))
	}
	copy(p.blocks[block], buf)
	return nil
}

// BlockCount implements Pager.
func (p *MemPager) BlockCount() uint32 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return uint32(len(p.blocks))
}
