// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package build

import (
	"context"

	"github.com/ovidb/roidx/block"
	"github.com/ovidb/roidx/internal/base"
	"github.com/ovidb/roidx/internal/extsort"
	"github.com/ovidb/roidx/pager"
)

// Options carries every build-time tunable the caller supplies;
// configuration is accepted at build time rather than read from
// process-wide state.
type Options struct {
	PageSize                  int
	MemoryBudget              int64
	WorkerCount               int
	MaxInlineDirectoryEntries int
	ForceFormat               block.Tag
	MaxTuplesPerPage          uint32
	MaxInternalFanout         uint16
	Compression               block.Compression
	Logger                    base.Logger
}

// Result is everything the meta page needs to record about a completed
// build.
type Result struct {
	RootBlock uint32
	Height    uint16
	FirstLeaf uint32
	LastLeaf  uint32
	MetaBlock uint32
	RowCount  int64
}

// Build runs the full bulk build pipeline: external
// sort, streaming leaf emission with per-seal format selection, bottom-up
// internal level construction, and a meta page written last so a partial
// build is detectable.
func Build(ctx context.Context, pgr pager.Pager, schema base.Schema, src Source, opts Options) (Result, error) {
	if err := schema.Validate(); err != nil {
		return Result{}, err
	}
	if opts.Logger == nil {
		opts.Logger = base.DefaultLogger
	}

	// Reserve block 0 for the meta page before any leaf is written. The
	// block stays zero-filled (and so fails DecodeMeta's magic check)
	// until writeMeta writes it last, which is what makes a partial
	// build detectable.
	metaBlock, err := pgr.Extend(ctx)
	if err != nil {
		return Result{}, err
	}

	rows, err := sortInput(schema, src, opts)
	if err != nil {
		return Result{}, err
	}
	defer rows.Close()

	lw := newLeafWriter(ctx, pgr, schema, opts.PageSize, opts.ForceFormat, opts.MaxTuplesPerPage, opts.Compression)
	var rowCount int64
	for {
		row, ok, err := rows.Next()
		if err != nil {
			return Result{}, base.SortFailureErrorf(err, "reading sorted rows")
		}
		if !ok {
			break
		}
		if err := lw.add(block.Entry{Key: row.Key, Include: row.Include}); err != nil {
			return Result{}, err
		}
		rowCount++
	}
	if err := lw.finish(); err != nil {
		return Result{}, err
	}

	root, height, err := buildInternalLevels(ctx, pgr, lw.directory, opts.PageSize, int(opts.MaxInternalFanout))
	if err != nil {
		return Result{}, err
	}

	if err := writeMeta(ctx, pgr, metaBlock, schema, lw, root, height, opts); err != nil {
		return Result{}, err
	}

	return Result{
		RootBlock: root,
		Height:    height,
		FirstLeaf: lw.firstLeaf,
		LastLeaf:  lw.lastLeaf,
		MetaBlock: metaBlock,
		RowCount:  rowCount,
	}, nil
}

// sortInput drains src through validation into an external sorter and
// returns it ready for Next() in sorted order. Ties are broken by arrival
// order, via extsort.Row.Seq.
func sortInput(schema base.Schema, src Source, opts Options) (*extsort.Sorter, error) {
	cmp := func(a, b []byte) int { return base.CompareKey(schema.Key, a, b) }
	s := extsort.New(opts.MemoryBudget, cmp)
	var rowNum int64
	for {
		t, ok, err := src.Next()
		if err != nil {
			s.Close()
			return nil, base.SortFailureErrorf(err, "reading input at row %d", rowNum)
		}
		if !ok {
			break
		}
		if err := validate(schema, t); err != nil {
			s.Close()
			return nil, err
		}
		if err := s.Put(t.Key, t.Include); err != nil {
			s.Close()
			return nil, err
		}
		rowNum++
	}
	if err := s.Finish(); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}
