// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package commands

import (
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
)

// promMetrics implements roidx.MetricsSink with prometheus counters, the
// optional instrumentation hook a host could scrape. Local atomics mirror
// the counters so the CLI can print a summary without reaching into
// prometheus's internal metric representation.
type promMetrics struct {
	pagesRead        prometheus.Counter
	prefetchesIssued prometheus.Counter
	runsDecoded      prometheus.Counter

	pagesReadCount        atomic.Int64
	prefetchesIssuedCount atomic.Int64
	runsDecodedCount      atomic.Int64
}

func newPromMetrics() *promMetrics {
	return &promMetrics{
		pagesRead: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "roidx_bench_pages_read_total",
			Help: "Pages pinned during the scan.",
		}),
		prefetchesIssued: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "roidx_bench_prefetches_issued_total",
			Help: "Prefetch hints issued during the scan.",
		}),
		runsDecoded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "roidx_bench_runs_decoded_total",
			Help: "Leaf rows yielded by the scan.",
		}),
	}
}

func (m *promMetrics) PagesRead(n int) {
	m.pagesRead.Add(float64(n))
	m.pagesReadCount.Add(int64(n))
}

func (m *promMetrics) PrefetchesIssued(n int) {
	m.prefetchesIssued.Add(float64(n))
	m.prefetchesIssuedCount.Add(int64(n))
}

func (m *promMetrics) RunsDecoded(n int) {
	m.runsDecoded.Add(float64(n))
	m.runsDecodedCount.Add(int64(n))
}
