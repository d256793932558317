// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package build

import (
	"context"

	"github.com/ovidb/roidx/block"
	"github.com/ovidb/roidx/pager"
)

// buildInternalLevels builds the non-leaf levels bottom-up: starting
// from the leaf directory, repeatedly group (first_key, child_block)
// entries into internal pages until exactly one remains, which becomes
// the root. Entries are length-prefixed byte keys, so 1- and 2-column
// layouts compose uniformly;
// there is no legacy integer-based variant here.
//
// Returns the root block, the tree height (0 if the single remaining
// "level" is a leaf itself), and an error.
func buildInternalLevels(ctx context.Context, pgr pager.Pager, leafDir []block.DirEntry, pageSize int, maxFanout int) (root uint32, height uint16, err error) {
	if len(leafDir) == 0 {
		return pager.InvalidBlock, 0, nil
	}
	level := make([]block.InternalEntry, len(leafDir))
	for i, d := range leafDir {
		level[i] = block.InternalEntry{Key: d.FirstKey, Child: d.Block}
	}
	if len(level) == 1 {
		return level[0].Child, 0, nil
	}
	for len(level) > 1 {
		level, err = buildOneLevel(ctx, pgr, level, pageSize, maxFanout)
		if err != nil {
			return 0, 0, err
		}
		height++
	}
	return level[0].Child, height, nil
}

// buildOneLevel groups entries into sealed internal pages, returning one
// (first_key_of_page, page_block) entry per page for the next level up.
func buildOneLevel(ctx context.Context, pgr pager.Pager, entries []block.InternalEntry, pageSize int, maxFanout int) ([]block.InternalEntry, error) {
	var nextLevel []block.InternalEntry
	var buf []block.InternalEntry
	seal := func() error {
		if len(buf) == 0 {
			return nil
		}
		enc, err := block.EncodeInternal(buf, pageSize)
		if err != nil {
			return err
		}
		blockNum, err := pgr.Extend(ctx)
		if err != nil {
			return err
		}
		if err := pgr.Write(ctx, blockNum, enc); err != nil {
			return err
		}
		nextLevel = append(nextLevel, block.InternalEntry{Key: buf[0].Key, Child: blockNum})
		buf = nil
		return nil
	}
	for _, e := range entries {
		buf = append(buf, e)
		overCap := maxFanout > 0 && len(buf) > maxFanout
		overSize := block.InternalSize(buf) > pageSize
		if overCap || overSize {
			last := buf[len(buf)-1]
			buf = buf[:len(buf)-1]
			if len(buf) == 0 {
				// A single entry alone overflows the page; this can only
				// happen with pathologically large text keys relative to
				// page size.
				buf = append(buf, last)
				continue
			}
			if err := seal(); err != nil {
				return nil, err
			}
			buf = append(buf, last)
		}
	}
	if err := seal(); err != nil {
		return nil, err
	}
	return nextLevel, nil
}
