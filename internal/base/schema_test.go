// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package base

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func int64Col() ColumnType { return ColumnType{OID: 20, ByVal: true, Length: 8} }
func int32Col() ColumnType { return ColumnType{OID: 23, ByVal: true, Length: 4} }
func textCol(n int) ColumnType {
	return ColumnType{OID: 25, ByVal: false, Length: uint8(n)}
}

func TestColumnTypeKind(t *testing.T) {
	k, err := int64Col().Kind()
	require.NoError(t, err)
	require.Equal(t, KindInt64, k)

	k, err = textCol(16).Kind()
	require.NoError(t, err)
	require.Equal(t, KindText, k)

	_, err = ColumnType{ByVal: true, Length: 3}.Kind()
	require.Error(t, err)

	_, err = ColumnType{ByVal: false, Length: 0}.Kind()
	require.Error(t, err)

	_, err = ColumnType{ByVal: false, Length: MaxTextLen + 1}.Kind()
	require.Error(t, err)
}

func TestKeySchemaValidate(t *testing.T) {
	require.NoError(t, KeySchema{Columns: []ColumnType{int64Col()}}.Validate())
	require.NoError(t, KeySchema{Columns: []ColumnType{int32Col(), int64Col()}}.Validate())

	// Zero columns and three columns are both rejected.
	require.Error(t, KeySchema{}.Validate())
	require.Error(t, KeySchema{Columns: []ColumnType{int64Col(), int64Col(), int64Col()}}.Validate())

	// Two-column schemas reject a text leading or trailing column.
	require.Error(t, KeySchema{Columns: []ColumnType{textCol(8), int64Col()}}.Validate())
	require.Error(t, KeySchema{Columns: []ColumnType{int64Col(), textCol(8)}}.Validate())

	// Single-column text is fine.
	require.NoError(t, KeySchema{Columns: []ColumnType{textCol(8)}}.Validate())
}

func TestIncludeSchemaValidate(t *testing.T) {
	require.NoError(t, IncludeSchema{}.Validate())
	require.NoError(t, IncludeSchema{Columns: []ColumnType{int32Col(), int64Col()}}.Validate())

	// Include columns must be fixed-width.
	require.Error(t, IncludeSchema{Columns: []ColumnType{textCol(8)}}.Validate())

	// Too many include columns.
	cols := make([]ColumnType, MaxIncludeColumns+1)
	for i := range cols {
		cols[i] = int32Col()
	}
	require.Error(t, IncludeSchema{Columns: cols}.Validate())
}

func TestSchemaRowWidthAndEqual(t *testing.T) {
	s := Schema{
		Key:     KeySchema{Columns: []ColumnType{int64Col()}},
		Include: IncludeSchema{Columns: []ColumnType{int32Col()}},
	}
	require.NoError(t, s.Validate())
	require.Equal(t, 12, s.RowWidth())

	same := Schema{
		Key:     KeySchema{Columns: []ColumnType{int64Col()}},
		Include: IncludeSchema{Columns: []ColumnType{int32Col()}},
	}
	require.True(t, s.Equal(same))

	diffWidth := Schema{
		Key:     KeySchema{Columns: []ColumnType{int32Col()}},
		Include: IncludeSchema{Columns: []ColumnType{int32Col()}},
	}
	require.False(t, s.Equal(diffWidth))

	diffIncludeCount := Schema{
		Key: KeySchema{Columns: []ColumnType{int64Col()}},
	}
	require.False(t, s.Equal(diffIncludeCount))
}
