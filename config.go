// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package roidx is the facade for a read-only, space-optimized ordered
// index: build once from a tuple stream, open, scan, and estimate cost —
// a host-independent core meant to back a pluggable index access method.
// It is a thin orchestration layer over the lower-level codec, build,
// scan, parallel, and cost packages.
package roidx

import (
	"github.com/ovidb/roidx/block"
	"github.com/ovidb/roidx/internal/base"
)

// ForceFormat overrides the adaptive format-selection rule, for tests
// only.
type ForceFormat int

const (
	// ForceFormatAuto uses the normal size-minimal selection rule.
	ForceFormatAuto ForceFormat = iota
	ForceFormatPlain
	ForceFormatKeyRLE
	ForceFormatIncludeRLE
)

// Compression selects the optional page-body compressor applied to plain
// leaves before the checksum trailer is computed. Re-exported from block
// so callers
// don't need to import it directly to set Config.Compression.
type Compression = block.Compression

const (
	// CompressionNone stores leaf bodies uncompressed (the default; RLE
	// formats already capture most of the achievable savings for
	// append-only, heavily-duplicated key workloads).
	CompressionNone = block.CompressionNone
	// CompressionZstd compresses plain-leaf bodies with zstd, letting a
	// plain leaf hold more rows than the uncompressed encoding would fit.
	CompressionZstd = block.CompressionZstd
)

// Config carries every tunable the engine reads, in place of
// process-level state: configuration is accepted per call, never ambient.
type Config struct {
	// PageSize is fixed at build time; valid range is 4KiB-32KiB.
	// Zero means DefaultPageSize.
	PageSize int

	// MaxPrefetchDepth caps prefetch lookahead. Zero means DefaultMaxPrefetchDepth.
	MaxPrefetchDepth uint16

	// ParallelChunkPages is the number of pages claimed per parallel
	// worker round. Zero means DefaultParallelChunkPages.
	ParallelChunkPages uint16

	// MaxInlineDirectoryEntries bounds how many directory samples are
	// stored inline in the meta page before spilling to dedicated
	// directory blocks. Zero
	// means DefaultMaxInlineDirectoryEntries.
	MaxInlineDirectoryEntries int

	// Compression selects the optional leaf-body compressor.
	Compression Compression

	// Logger receives build/scan diagnostics and slow-path traces.
	Logger base.Logger

	// Metrics, if non-nil, is notified of pages read, prefetches issued,
	// and runs decoded.
	Metrics base.MetricsSink

	// Test-only overrides.
	TestForceFormat          ForceFormat
	TestMaxTuplesPerPage     uint32
	TestForceParallelWorkers uint16
	TestMaxInternalFanout    uint16
}

// MetricsSink is an alias for base.MetricsSink, re-exported at the root so
// callers don't need to import the internal package to implement it.
type MetricsSink = base.MetricsSink

const (
	// DefaultPageSize is 8KiB.
	DefaultPageSize = 8192
	// DefaultMaxPrefetchDepth caps prefetch lookahead at 8 pages.
	DefaultMaxPrefetchDepth = 8
	// DefaultParallelChunkPages is 8 pages per parallel claim.
	DefaultParallelChunkPages = 8
	// DefaultMaxInlineDirectoryEntries caps the meta-resident directory
	// before spilling to dedicated blocks.
	DefaultMaxInlineDirectoryEntries = 4096
)

// EnsureDefaults fills zero-valued fields with their defaults and returns
// the (possibly copied) config rather than reading process-wide state.
func (c Config) EnsureDefaults() Config {
	if c.PageSize == 0 {
		c.PageSize = DefaultPageSize
	}
	if c.MaxPrefetchDepth == 0 {
		c.MaxPrefetchDepth = DefaultMaxPrefetchDepth
	}
	if c.ParallelChunkPages == 0 {
		c.ParallelChunkPages = DefaultParallelChunkPages
	}
	if c.MaxInlineDirectoryEntries == 0 {
		c.MaxInlineDirectoryEntries = DefaultMaxInlineDirectoryEntries
	}
	if c.Logger == nil {
		c.Logger = base.DefaultLogger
	}
	return c
}

// Validate checks the configuration's static constraints.
func (c Config) Validate() error {
	if c.PageSize < 4096 || c.PageSize > 32768 {
		return base.SchemaMismatchErrorf("page size %d out of range [4096, 32768]", c.PageSize)
	}
	return nil
}
