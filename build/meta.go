// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package build

import (
	"context"

	"github.com/ovidb/roidx/block"
	"github.com/ovidb/roidx/internal/base"
	"github.com/ovidb/roidx/pager"
)

// writeMeta encodes and writes the meta page into metaBlock, which the
// caller reserved at block 0 before any leaf was written. This is always
// the last write of a build, so a reader that finds a zero-filled or
// otherwise invalid block 0 knows the build never completed.
//
// The directory is written inline when it fits within
// opts.MaxInlineDirectoryEntries (and the page itself); otherwise it is
// spilled to a chain of directory pages and only a count and root pointer
// are recorded in the meta page.
func writeMeta(ctx context.Context, pgr pager.Pager, metaBlock uint32, schema base.Schema, lw *leafWriter, root uint32, height uint16, opts Options) error {
	m := block.Meta{
		Version:   block.Version,
		RootBlock: root,
		Height:    height,
		FirstLeaf: lw.firstLeaf,
		LastLeaf:  lw.lastLeaf,
		Schema:    schema,
		DirCount:  uint32(len(lw.directory)),
	}

	wantInline := opts.MaxInlineDirectoryEntries <= 0 || len(lw.directory) <= opts.MaxInlineDirectoryEntries
	if wantInline {
		m.Directory = lw.directory
		enc, err := block.EncodeMeta(m, opts.PageSize)
		if err == nil {
			return pgr.Write(ctx, metaBlock, enc)
		}
		if !base.IsKind(err, base.KindResourceExceeded) {
			return err
		}
		opts.Logger.Infof("roidx: directory of %d entries does not fit inline, spilling", len(lw.directory))
		m.Directory = nil
	}

	dirRoot, err := spillDirectory(ctx, pgr, schema, lw.directory, opts.PageSize)
	if err != nil {
		return err
	}
	m.DirSpilled = true
	m.DirRootBlock = dirRoot

	enc, err := block.EncodeMeta(m, opts.PageSize)
	if err != nil {
		return err
	}
	return pgr.Write(ctx, metaBlock, enc)
}

// spillDirectory writes dir as a chain of directory pages, each holding as
// many entries as fit, and returns the first page's block number. Pages
// are allocated and linked tail-to-head: the last chunk is written first
// (with an invalid next pointer) so every earlier chunk's next pointer is
// already known when it is encoded, avoiding a second pass over already
// written pages.
func spillDirectory(ctx context.Context, pgr pager.Pager, schema base.Schema, dir []block.DirEntry, pageSize int) (uint32, error) {
	keyWidth := schema.Key.RowWidth()
	perPage := maxDirEntriesPerPage(keyWidth, pageSize)
	if perPage == 0 {
		return 0, base.ResourceExceededErrorf("page of %d bytes cannot hold even one directory entry (key width %d)", pageSize, keyWidth)
	}

	var chunks [][]block.DirEntry
	for len(dir) > 0 {
		n := perPage
		if n > len(dir) {
			n = len(dir)
		}
		chunks = append(chunks, dir[:n])
		dir = dir[n:]
	}
	if len(chunks) == 0 {
		return pager.InvalidBlock, nil
	}

	next := pager.InvalidBlock
	for i := len(chunks) - 1; i >= 0; i-- {
		enc, err := block.EncodeDirectoryPage(chunks[i], keyWidth, pageSize, next)
		if err != nil {
			return 0, err
		}
		blockNum, err := pgr.Extend(ctx)
		if err != nil {
			return 0, err
		}
		if err := pgr.Write(ctx, blockNum, enc); err != nil {
			return 0, err
		}
		next = blockNum
	}
	return next, nil
}

func maxDirEntriesPerPage(keyWidth, pageSize int) int {
	perEntry := 2*keyWidth + 4
	avail := pageSize - block.HeaderLen - block.TrailerLen
	if avail <= 0 {
		return 0
	}
	return avail / perEntry
}
