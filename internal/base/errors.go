// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package base holds the types shared by every roidx package: the error
// taxonomy, the key-type enum, and the comparator dispatch table. It is
// the shared bottom layer every other package imports.
package base

import (
	"github.com/cockroachdb/errors"
)

// Kind identifies an error category. Each is a distinct variant a caller
// can test for with errors.Is.
type Kind int

const (
	// KindInvalidKey covers a NULL key, an unsupported key type, or a
	// length mismatch against the schema.
	KindInvalidKey Kind = iota
	// KindSchemaMismatch covers a meta page whose schema disagrees with
	// the schema the caller supplied at open.
	KindSchemaMismatch
	// KindCorruptPage covers a bad tag, an nitems that overflows the page,
	// run counts that don't sum to nitems, or a right-link that points
	// out of file.
	KindCorruptPage
	// KindIoFailure covers a failed read, write, or pin from the host
	// buffer manager.
	KindIoFailure
	// KindSortFailure covers a failed external sort.
	KindSortFailure
	// KindCanceled covers an external cancellation flag observed during a
	// scan.
	KindCanceled
	// KindResourceExceeded covers a build memory budget too small to emit
	// a single leaf.
	KindResourceExceeded
)

func (k Kind) String() string {
	switch k {
	case KindInvalidKey:
		return "InvalidKey"
	case KindSchemaMismatch:
		return "SchemaMismatch"
	case KindCorruptPage:
		return "CorruptPage"
	case KindIoFailure:
		return "IoFailure"
	case KindSortFailure:
		return "SortFailure"
	case KindCanceled:
		return "Canceled"
	case KindResourceExceeded:
		return "ResourceExceeded"
	default:
		return "Unknown"
	}
}

// Error is the concrete error type returned across package boundaries.
// The caller distinguishes kinds with errors.As.
type Error struct {
	Kind Kind
	err  error
}

// Error implements the error interface.
func (e *Error) Error() string { return e.err.Error() }

// Unwrap lets errors.Is/errors.As see through to the wrapped cause.
func (e *Error) Unwrap() error { return e.err }

// Is reports whether target is an *Error of the same Kind.
func (e *Error) Is(target error) bool {
	var other *Error
	if errors.As(target, &other) {
		return other.Kind == e.Kind
	}
	return false
}

func newErr(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, err: errors.NewWithDepthf(1, format, args...)}
}

// InvalidKeyErrorf reports a NULL key, unsupported type, or length
// mismatch. row and col identify the offending tuple in the user-visible
// message.
func InvalidKeyErrorf(row int64, col int, format string, args ...interface{}) *Error {
	msg := errors.Safe(row)
	colSafe := errors.Safe(col)
	return newErr(KindInvalidKey, "roidx: invalid key at row %v, column %v: "+format, append([]interface{}{msg, colSafe}, args...)...)
}

// SchemaMismatchErrorf reports a schema disagreement discovered at open.
func SchemaMismatchErrorf(format string, args ...interface{}) *Error {
	return newErr(KindSchemaMismatch, "roidx: schema mismatch: "+format, args...)
}

// CorruptPageErrorf reports a malformed page, naming the block in the
// message.
func CorruptPageErrorf(block uint32, format string, args ...interface{}) *Error {
	return newErr(KindCorruptPage, "roidx: corrupt page %v: "+format, append([]interface{}{errors.Safe(block)}, args...)...)
}

// IoFailureErrorf wraps an I/O failure from the host buffer manager.
func IoFailureErrorf(cause error, format string, args ...interface{}) *Error {
	wrapped := errors.Wrapf(cause, "roidx: io failure: "+format, args...)
	return &Error{Kind: KindIoFailure, err: wrapped}
}

// SortFailureErrorf wraps a failure from the external sorter.
func SortFailureErrorf(cause error, format string, args ...interface{}) *Error {
	wrapped := errors.Wrapf(cause, "roidx: sort failure: "+format, args...)
	return &Error{Kind: KindSortFailure, err: wrapped}
}

// ErrCanceled is returned (via Next returning ok=false) when a scan
// observes the host's cancellation flag. It carries no dynamic detail, so
// it is a package-level value rather than a constructor.
var ErrCanceled = &Error{Kind: KindCanceled, err: errors.New("roidx: scan canceled")}

// ResourceExceededErrorf reports a build memory budget too small to emit a
// single leaf.
func ResourceExceededErrorf(format string, args ...interface{}) *Error {
	return newErr(KindResourceExceeded, "roidx: resource exceeded: "+format, args...)
}

// IsKind reports whether err is a *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}
