// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package cost implements the cost and selectivity estimator a host
// planner consumes: startup/total cost and estimated row count for a key
// range, derived from the meta page's height and directory rather than
// from any live I/O.
package cost

import (
	"golang.org/x/exp/slices"

	"github.com/ovidb/roidx/block"
	"github.com/ovidb/roidx/internal/base"
)

// Default per-unit costs, in the same abstract units a host planner's own
// cost model uses (arbitrary but consistent, the way Postgres's
// seq_page_cost/cpu_tuple_cost pair is arbitrary but consistent). A host
// wiring this estimator into its own planner is expected to rescale these
// against its other operators' costs; roidx does not attempt that
// calibration itself.
const (
	DefaultPageCost     = 1.0
	DefaultCPUTupleCost = 0.01
	// DefaultSelectivity is the fallback fraction of rows assumed to
	// qualify when bounds aren't fixed-width integers and the directory
	// can't be used to estimate pages_in_range directly.
	DefaultSelectivity = 0.05
)

// Result is the outcome of estimating a scan: startup cost, total cost,
// and estimated row count, all in the same units DefaultPageCost and
// DefaultCPUTupleCost are expressed in.
type Result struct {
	StartupCost float64
	TotalCost   float64
	Rows        float64
}

// Params lets a host override the abstract per-unit costs; zero fields
// fall back to the package defaults.
type Params struct {
	PageCost     float64
	CPUTupleCost float64
}

func (p Params) withDefaults() Params {
	if p.PageCost == 0 {
		p.PageCost = DefaultPageCost
	}
	if p.CPUTupleCost == 0 {
		p.CPUTupleCost = DefaultCPUTupleCost
	}
	return p
}

// Range is the subset of a scan.KeyRange the estimator needs: whether a
// lower/upper bound is present and, if so, its leading-column bytes. It is
// a separate type from scan.KeyRange so this package doesn't need to
// import scan (cost sits beside scan, not above it, per the package
// layout).
type Range struct {
	HasLower bool
	LowerKey []byte
	HasUpper bool
	UpperKey []byte
}

// Estimate computes (startup_cost, total_cost, rows) for a scan of r over
// meta, optionally parallelized across workers (workers <= 1 means
// serial). Startup cost accounts for root plus (height-1) internal-page
// fetches; total cost adds pages_in_range * page_cost plus
// rows * cpu_tuple_cost.
func Estimate(meta block.Meta, r Range, workers int, params Params) Result {
	params = params.withDefaults()

	if meta.RootBlock == block.MetaInvalidRoot {
		return Result{}
	}

	startup := params.PageCost // root fetch
	if meta.Height > 0 {
		startup += float64(meta.Height-1) * params.PageCost
	}

	totalLeaves := leafCount(meta)
	pagesInRange, rows := estimateRange(meta, r, totalLeaves)

	if workers > 1 {
		// Parallel workers split the claimed page range, but every worker
		// still pays the same startup descent independently; total cost
		// scales down with worker count since pages are divided among
		// them, floored at a single page's worth of work.
		pagesInRange = pagesInRange / float64(workers)
		if pagesInRange < 1 && totalLeaves > 0 {
			pagesInRange = 1
		}
	}

	total := startup + pagesInRange*params.PageCost + rows*params.CPUTupleCost
	return Result{StartupCost: startup, TotalCost: total, Rows: rows}
}

func leafCount(meta block.Meta) float64 {
	if meta.LastLeaf == block.MetaInvalidRoot || meta.FirstLeaf == block.MetaInvalidRoot {
		if meta.DirCount > 0 {
			return float64(meta.DirCount)
		}
		return 1
	}
	if meta.DirCount > 0 {
		return float64(meta.DirCount)
	}
	return float64(meta.LastLeaf-meta.FirstLeaf) + 1
}

// estimateRange returns (pages_in_range, estimated_rows). When the meta
// directory is resident and the leading key column is a fixed-width
// integer, it binary-searches the directory to count qualifying leaves
// directly. An unbounded range covers every leaf. A bounded range over
// text keys, or over a spilled directory, falls back to a conservative
// rows * DefaultSelectivity estimate.
func estimateRange(meta block.Meta, r Range, totalLeaves float64) (pagesInRange, rows float64) {
	if !r.HasLower && !r.HasUpper {
		return totalLeaves, totalLeaves * averageRowsPerPage(meta, totalLeaves)
	}
	if meta.DirSpilled || len(meta.Directory) == 0 || len(meta.Schema.Key.Columns) == 0 {
		return fallbackEstimate(meta, totalLeaves)
	}
	col0 := meta.Schema.Key.Columns[0]
	kind, err := col0.Kind()
	if err != nil || kind == base.KindText {
		return fallbackEstimate(meta, totalLeaves)
	}
	w0 := col0.Width()
	dir := meta.Directory

	lo := 0
	if r.HasLower {
		lo, _ = slices.BinarySearchFunc(dir, r.LowerKey, func(d block.DirEntry, target []byte) int {
			return base.CompareColumn(col0, d.LastKey[:w0], target)
		})
	}
	hi := len(dir)
	if r.HasUpper {
		hi, _ = slices.BinarySearchFunc(dir, r.UpperKey, func(d block.DirEntry, target []byte) int {
			// Strict "first key > upper": force equal keys to keep
			// searching rightward by reporting them as still <= target.
			c := base.CompareColumn(col0, d.FirstKey[:w0], target)
			if c <= 0 {
				return -1
			}
			return c
		})
	}
	if hi < lo {
		hi = lo
	}
	pages := float64(hi - lo)
	if pages == 0 && (r.HasLower || r.HasUpper) {
		// A non-empty range that lands between directory samples still
		// touches at least one leaf.
		pages = 1
	}
	if !r.HasLower && !r.HasUpper {
		pages = totalLeaves
	}

	rowsPerPage := averageRowsPerPage(meta, totalLeaves)
	return pages, pages * rowsPerPage
}

func fallbackEstimate(meta block.Meta, totalLeaves float64) (pagesInRange, rows float64) {
	totalRows := totalLeaves * averageRowsPerPage(meta, totalLeaves)
	rows = totalRows * DefaultSelectivity
	pages := totalLeaves * DefaultSelectivity
	if pages < 1 && totalLeaves > 0 {
		pages = 1
	}
	return pages, rows
}

// averageRowsPerPage estimates rows per leaf from the row width, assuming
// a plain-encoded leaf fills the page; RLE leaves typically hold more
// rows per page than this, so this is a conservative (lower) row-count
// estimate when duplication is high.
func averageRowsPerPage(meta block.Meta, totalLeaves float64) float64 {
	if totalLeaves == 0 {
		return 0
	}
	rowWidth := meta.Schema.RowWidth()
	if rowWidth == 0 {
		return 0
	}
	pageSize := 8192 // meta doesn't carry page size; assume the 8KiB default.
	avail := pageSize - block.HeaderLen - block.TrailerLen
	if avail <= 0 {
		return 0
	}
	return float64(avail / rowWidth)
}
