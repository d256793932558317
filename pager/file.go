// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package pager

import (
	"context"
	"os"
	"sync"
	"sync/atomic"

	"github.com/ovidb/roidx/internal/base"
)

// FilePager is a file-backed Pager used by cmd/roidx-bench so the engine
// can be exercised end to end without a host relational database. It pins
// by copying into a caller-owned buffer rather than mmap'ing, so it works
// on any filesystem the process can seek on.
type FilePager struct {
	f        *os.File
	pageSize int
	blocks   atomic.Uint32

	mu   sync.Mutex
	pins map[uint32][]byte
}

// NewFilePager opens (creating if necessary) a page file backing an index.
func NewFilePager(path string, pageSize int) (*FilePager, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, base.IoFailureErrorf(err, "opening %s", path)
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, base.IoFailureErrorf(err, "stat %s", path)
	}
	p := &FilePager{f: f, pageSize: pageSize, pins: make(map[uint32][]byte)}
	p.blocks.Store(uint32(fi.Size() / int64(pageSize)))
	return p, nil
}

// PageSize implements Pager.
func (p *FilePager) PageSize() int { return p.pageSize }

// Pin implements Pager.
func (p *FilePager) Pin(ctx context.Context, block uint32) ([]byte, error) {
	buf := make([]byte, p.pageSize)
	if err := p.Read(ctx, block, buf); err != nil {
		return nil, err
	}
	p.mu.Lock()
	p.pins[block] = buf
	p.mu.Unlock()
	return buf, nil
}

// Unpin implements Pager.
func (p *FilePager) Unpin(block uint32) {
	p.mu.Lock()
	delete(p.pins, block)
	p.mu.Unlock()
}

// Prefetch implements Pager using a platform read-ahead hint where
// available; see prefetch_unix.go and prefetch_other.go.
func (p *FilePager) Prefetch(block uint32) {
	if block >= p.blocks.Load() {
		return
	}
	platformPrefetch(p.f, int64(block)*int64(p.pageSize), p.pageSize)
}

// Extend implements Pager.
func (p *FilePager) Extend(_ context.Context) (uint32, error) {
	block := p.blocks.Add(1) - 1
	zero := make([]byte, p.pageSize)
	if _, err := p.f.WriteAt(zero, int64(block)*int64(p.pageSize)); err != nil {
		return 0, base.IoFailureErrorf(err, "extending to block %d", block)
	}
	return block, nil
}

// Read implements Pager.
func (p *FilePager) Read(_ context.Context, block uint32, buf []byte) error {
	if _, err := p.f.ReadAt(buf, int64(block)*int64(p.pageSize)); err != nil {
		return base.IoFailureErrorf(err, "reading block %d", block)
	}
	return nil
}

// Write implements Pager.
func (p *FilePager) Write(_ context.Context, block uint32, buf []byte) error {
	if _, err := p.f.WriteAt(buf, int64(block)*int64(p.pageSize)); err != nil {
		return base.IoFailureErrorf(err, "writing block %d", block)
	}
	return nil
}

// BlockCount implements Pager.
func (p *FilePager) BlockCount() uint32 { return p.blocks.Load() }

// Close releases the underlying file descriptor.
func (p *FilePager) Close() error { return p.f.Close() }
