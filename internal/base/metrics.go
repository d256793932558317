// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package base

// MetricsSink is the optional instrumentation hook a host can plug into a
// build or scan (wired to prometheus/client_golang by
// cmd/roidx-bench), kept as a small interface here so neither the scan nor
// the root package needs to import a metrics library directly.
type MetricsSink interface {
	PagesRead(n int)
	PrefetchesIssued(n int)
	RunsDecoded(n int)
}
