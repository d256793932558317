// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package base

import (
	"context"
	"log"
)

// Logger is threaded through build and scan the way pebble threads
// its LoggerAndTracer through sstable reads: expensive tracing is gated
// behind IsTracingEnabled so the common path pays no formatting cost.
type Logger interface {
	Infof(format string, args ...interface{})
	Errorf(format string, args ...interface{})
	// IsTracingEnabled reports whether Eventf calls should be formatted
	// and emitted for the given context.
	IsTracingEnabled(ctx context.Context) bool
	// Eventf records a trace event. Only called when IsTracingEnabled
	// returns true.
	Eventf(ctx context.Context, format string, args ...interface{})
}

// DefaultLogger writes to the standard library logger and never traces,
// matching the zero-value behavior a caller gets from an unconfigured
// Config.
var DefaultLogger Logger = defaultLogger{}

type defaultLogger struct{}

func (defaultLogger) Infof(format string, args ...interface{})       { log.Printf(format, args...) }
func (defaultLogger) Errorf(format string, args ...interface{})      { log.Printf(format, args...) }
func (defaultLogger) IsTracingEnabled(context.Context) bool          { return false }
func (defaultLogger) Eventf(context.Context, string, ...interface{}) {}
