// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package base

import "github.com/cockroachdb/errors"

// KeyKind is the tagged-variant dispatch for key and include column
// types: a small enum with a specialized comparator per variant, rather
// than virtual dispatch through an interface.
type KeyKind uint8

const (
	// KindInt8 is a 1-byte by-value fixed-width integer.
	KindInt8 KeyKind = iota
	// KindInt16 is a 2-byte by-value fixed-width integer.
	KindInt16
	// KindInt32 is a 4-byte by-value fixed-width integer.
	KindInt32
	// KindInt64 is an 8-byte by-value fixed-width integer.
	KindInt64
	// KindText is short bounded text, binary-ordered, up to 32 bytes.
	KindText
)

// MaxTextLen is the maximum width of a short bounded text key column.
const MaxTextLen = 32

// MaxIncludeColumns is the maximum number of include columns.
const MaxIncludeColumns = 16

// CollationBinary is the only collation OID roidx accepts: binary
// (bytewise) ordering, the only collation a host-independent core can
// honor without an ICU/locale dependency. Any other value fails schema
// validation.
const CollationBinary uint32 = 0

// ColumnType describes one key or include column, mirroring the meta
// page's wire layout.
type ColumnType struct {
	OID       uint32
	ByVal     bool
	Length    uint8
	Collation uint32
}

// Kind classifies the column into the tagged-variant dispatch.
func (c ColumnType) Kind() (KeyKind, error) {
	if c.ByVal {
		switch c.Length {
		case 1:
			return KindInt8, nil
		case 2:
			return KindInt16, nil
		case 4:
			return KindInt32, nil
		case 8:
			return KindInt64, nil
		default:
			return 0, errors.Newf("roidx: unsupported by-value column width %d", c.Length)
		}
	}
	if c.Length == 0 || c.Length > MaxTextLen {
		return 0, errors.Newf("roidx: unsupported text column length %d (max %d)", c.Length, MaxTextLen)
	}
	return KindText, nil
}

// Width returns the fixed on-page byte width of the column.
func (c ColumnType) Width() int { return int(c.Length) }

// KeySchema is the 1- or 2-column ordered key schema. Two-column schemas
// require fixed-width columns only.
type KeySchema struct {
	Columns []ColumnType
}

// Validate checks the cardinality and type constraints on the key schema.
func (s KeySchema) Validate() error {
	if len(s.Columns) != 1 && len(s.Columns) != 2 {
		return errors.Newf("roidx: key schema must have 1 or 2 columns, got %d", len(s.Columns))
	}
	for i, c := range s.Columns {
		kind, err := c.Kind()
		if err != nil {
			return errors.Wrapf(err, "roidx: key column %d", i)
		}
		if len(s.Columns) == 2 && kind == KindText {
			return errors.Newf("roidx: two-column key schemas require fixed-width columns only, column %d is text", i)
		}
		if c.Collation != CollationBinary {
			return errors.Newf("roidx: key column %d has unsupported collation %d (only binary collation is supported)", i, c.Collation)
		}
	}
	return nil
}

// RowWidth returns the total byte width of the key portion of a row.
func (s KeySchema) RowWidth() int {
	w := 0
	for _, c := range s.Columns {
		w += c.Width()
	}
	return w
}

// TwoColumn reports whether the schema has a second key column.
func (s KeySchema) TwoColumn() bool { return len(s.Columns) == 2 }

// IncludeSchema is the 0-16 column, fixed-width-only, non-key payload
// schema attached to the index for covering scans.
type IncludeSchema struct {
	Columns []ColumnType
}

// Validate checks the cardinality and type constraints on the include
// schema.
func (s IncludeSchema) Validate() error {
	if len(s.Columns) > MaxIncludeColumns {
		return errors.Newf("roidx: include schema has %d columns, max %d", len(s.Columns), MaxIncludeColumns)
	}
	for i, c := range s.Columns {
		if !c.ByVal {
			return errors.Newf("roidx: include column %d must be fixed-width", i)
		}
		if _, err := c.Kind(); err != nil {
			return errors.Wrapf(err, "roidx: include column %d", i)
		}
	}
	return nil
}

// RowWidth returns the total byte width of the include portion of a row.
func (s IncludeSchema) RowWidth() int {
	w := 0
	for _, c := range s.Columns {
		w += c.Width()
	}
	return w
}

// Schema bundles the key and include schemas together, as stored in the
// meta page.
type Schema struct {
	Key     KeySchema
	Include IncludeSchema
}

// Validate validates both halves of the schema.
func (s Schema) Validate() error {
	if err := s.Key.Validate(); err != nil {
		return err
	}
	return s.Include.Validate()
}

// RowWidth returns the total byte width of a plain-encoded row: key
// columns followed by include columns, with no per-entry header.
func (s Schema) RowWidth() int {
	return s.Key.RowWidth() + s.Include.RowWidth()
}

// Equal reports whether two schemas are wire-compatible (same column
// count, types, widths, and collations in the same order). Used at open
// time to detect a SchemaMismatch between the caller's declared schema and
// the one recorded in the meta page.
func (s Schema) Equal(other Schema) bool {
	if len(s.Key.Columns) != len(other.Key.Columns) || len(s.Include.Columns) != len(other.Include.Columns) {
		return false
	}
	for i := range s.Key.Columns {
		if s.Key.Columns[i] != other.Key.Columns[i] {
			return false
		}
	}
	for i := range s.Include.Columns {
		if s.Include.Columns[i] != other.Include.Columns[i] {
			return false
		}
	}
	return true
}
