// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package roidx

import (
	"context"

	"github.com/ovidb/roidx/block"
	"github.com/ovidb/roidx/build"
	"github.com/ovidb/roidx/cost"
	"github.com/ovidb/roidx/internal/base"
	"github.com/ovidb/roidx/pager"
	"github.com/ovidb/roidx/parallel"
	"github.com/ovidb/roidx/scan"
)

// Schema is re-exported so callers never need to import internal/base
// directly to describe a key/include layout.
type (
	Schema        = base.Schema
	KeySchema     = base.KeySchema
	IncludeSchema = base.IncludeSchema
	ColumnType    = base.ColumnType
)

// Tuple, Source, and SliceSource are re-exported from build for the same
// reason.
type (
	Tuple       = build.Tuple
	Source      = build.Source
	SliceSource = build.SliceSource
)

// BuildResult reports what a completed build produced.
type BuildResult = build.Result

// Build runs the full bulk build pipeline against pgr, consuming src
// under schema, and returns once the meta page has been written — the
// point at which the index becomes valid. memoryBudget bounds the
// external sorter's in-memory usage before it spills. If
// cfg.TestForceParallelWorkers is nonzero it overrides workerCount;
// otherwise a worker count of 0 or 1 runs the serial path.
func Build(ctx context.Context, pgr pager.Pager, schema Schema, src Source, cfg Config, memoryBudget int64, workerCount int) (BuildResult, error) {
	cfg = cfg.EnsureDefaults()
	if err := cfg.Validate(); err != nil {
		return BuildResult{}, err
	}
	if cfg.TestForceParallelWorkers > 0 {
		workerCount = int(cfg.TestForceParallelWorkers)
	}
	opts := build.Options{
		PageSize:                  cfg.PageSize,
		MemoryBudget:              memoryBudget,
		WorkerCount:               workerCount,
		MaxInlineDirectoryEntries: cfg.MaxInlineDirectoryEntries,
		ForceFormat:               forceFormatTag(cfg.TestForceFormat),
		MaxTuplesPerPage:          cfg.TestMaxTuplesPerPage,
		MaxInternalFanout:         cfg.TestMaxInternalFanout,
		Compression:               cfg.Compression,
		Logger:                    cfg.Logger,
	}
	if workerCount > 1 {
		return build.BuildParallel(ctx, pgr, schema, src, opts)
	}
	return build.Build(ctx, pgr, schema, src, opts)
}

func forceFormatTag(f ForceFormat) block.Tag {
	switch f {
	case ForceFormatPlain:
		return block.TagPlain
	case ForceFormatKeyRLE:
		return block.TagKeyRLE
	case ForceFormatIncludeRLE:
		return block.TagIncludeRLE
	default:
		return 0
	}
}

// Handle is an opened index: a meta page decoded and validated against
// the caller's declared schema, ready to be scanned or estimated against.
// It holds no pinned pages itself; every Scan/ScanParallel call gets its
// own cursor(s).
type Handle struct {
	pgr    pager.Pager
	meta   block.Meta
	schema Schema
	cfg    Config
}

// Open reads and validates the meta page at block 0, checking it against
// schema.
func Open(ctx context.Context, pgr pager.Pager, schema Schema, cfg Config) (*Handle, error) {
	cfg = cfg.EnsureDefaults()
	buf, err := pgr.Pin(ctx, 0)
	if err != nil {
		return nil, err
	}
	defer pgr.Unpin(0)
	meta, err := block.DecodeMeta(buf)
	if err != nil {
		return nil, err
	}
	if !meta.Schema.Equal(schema) {
		return nil, base.SchemaMismatchErrorf("caller schema does not match the index's meta page schema")
	}
	return &Handle{pgr: pgr, meta: meta, schema: schema, cfg: cfg}, nil
}

// Cursor is the handle-bound scan cursor returned by Scan.
type Cursor = scan.Cursor

// Scan opens a serial cursor over h for krange in the given direction.
func (h *Handle) Scan(ctx context.Context, krange KeyRange, dir Direction) (*Cursor, error) {
	return scan.OpenScan(ctx, h.pgr, h.meta, krange, dir, scan.Options{
		MaxPrefetchDepth: h.cfg.MaxPrefetchDepth,
		Logger:           h.cfg.Logger,
		Metrics:          h.cfg.Metrics,
	})
}

// ParallelPair is one materialized (key, include) result from ScanParallel.
type ParallelPair = parallel.Pair

// ScanParallel fans workerCount workers out over krange using a fresh
// Coordinator seeded with only the leaf range krange can touch, located
// with the same directory-or-descent startup the serial path uses — a
// bounded parallel scan claims and reads just those leaves, not the whole
// tree. It returns a channel of results (closed once every worker is
// done) and a wait function returning the first worker error, if any.
// Ordering across workers is unspecified; per-worker output is
// key-ordered within each claimed range.
func (h *Handle) ScanParallel(ctx context.Context, krange KeyRange, workerCount int, cancel func() bool) (<-chan ParallelPair, func() error) {
	first, last, err := scan.LeafRangeFor(ctx, h.pgr, h.meta, krange)
	if err != nil {
		out := make(chan parallel.Pair)
		close(out)
		return out, func() error { return err }
	}
	coord := parallel.NewCoordinator(first, last, h.cfg.ParallelChunkPages)
	return parallel.RunParallel(ctx, h.pgr, h.meta, krange, workerCount, coord, parallel.WorkerOptions{
		PrefetchDepth: smallParallelPrefetchDepth(h.cfg.MaxPrefetchDepth),
		Cancel:        cancel,
		Logger:        h.cfg.Logger,
		Metrics:       h.cfg.Metrics,
	})
}

// smallParallelPrefetchDepth is the fixed, non-slow-start prefetch depth
// parallel workers use, derived from the configured max so a host that
// lowers MaxPrefetchDepth also lowers this.
func smallParallelPrefetchDepth(maxDepth uint16) uint16 {
	if maxDepth == 0 {
		return 0
	}
	if maxDepth > 2 {
		return 2
	}
	return maxDepth
}

// Estimate implements the cost/selectivity model:
// estimated startup cost, total cost, and row count for scanning krange
// with the given worker count (<=1 for serial).
func (h *Handle) Estimate(krange KeyRange, workers int) cost.Result {
	r := cost.Range{}
	if krange.Lower.Valid {
		r.HasLower = true
		r.LowerKey = krange.Lower.Key
	}
	if krange.Upper.Valid {
		r.HasUpper = true
		r.UpperKey = krange.Upper.Key
	}
	return cost.Estimate(h.meta, r, workers, cost.Params{})
}

// Schema returns the index's validated schema.
func (h *Handle) Schema() Schema { return h.schema }

// Height returns the tree height recorded in the meta page.
func (h *Handle) Height() uint16 { return h.meta.Height }

// RowCount is not tracked in the meta page directly; callers that need it should consult the BuildResult
// returned from Build.
