// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package commands

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/ovidb/roidx"
)

// parseColumnSpecs turns a comma-separated list like "int32,int64,text16"
// into column types. Integer specs are by-value fixed widths; "textN"
// specs are short bounded text up to roidx's 32-byte cap.
func parseColumnSpecs(spec string) ([]roidx.ColumnType, error) {
	if spec == "" {
		return nil, nil
	}
	parts := strings.Split(spec, ",")
	out := make([]roidx.ColumnType, len(parts))
	for i, p := range parts {
		p = strings.TrimSpace(p)
		switch {
		case p == "int8":
			out[i] = roidx.ColumnType{ByVal: true, Length: 1}
		case p == "int16":
			out[i] = roidx.ColumnType{ByVal: true, Length: 2}
		case p == "int32":
			out[i] = roidx.ColumnType{ByVal: true, Length: 4}
		case p == "int64":
			out[i] = roidx.ColumnType{ByVal: true, Length: 8}
		case strings.HasPrefix(p, "text"):
			n, err := strconv.Atoi(strings.TrimPrefix(p, "text"))
			if err != nil || n <= 0 || n > 32 {
				return nil, errors.Newf("roidx-bench: bad text width in column spec %q", p)
			}
			out[i] = roidx.ColumnType{ByVal: false, Length: uint8(n)}
		default:
			return nil, errors.Newf("roidx-bench: unrecognized column type %q (want int8/int16/int32/int64/textN)", p)
		}
	}
	return out, nil
}

// buildSchema assembles a roidx.Schema from the --keys and --includes flag
// values.
func buildSchema(keySpec, includeSpec string) (roidx.Schema, error) {
	keys, err := parseColumnSpecs(keySpec)
	if err != nil {
		return roidx.Schema{}, err
	}
	if len(keys) == 0 {
		return roidx.Schema{}, errors.New("roidx-bench: --keys must name at least one column")
	}
	includes, err := parseColumnSpecs(includeSpec)
	if err != nil {
		return roidx.Schema{}, err
	}
	return roidx.Schema{
		Key:     roidx.KeySchema{Columns: keys},
		Include: roidx.IncludeSchema{Columns: includes},
	}, nil
}

// loadCSV reads path, a CSV with one column per schema column (key
// columns first, then include columns), encoding each field to its
// on-page fixed-width bytes per schema.
func loadCSV(path string, schema roidx.Schema) ([]roidx.Tuple, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "roidx-bench: opening %s", path)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = len(schema.Key.Columns) + len(schema.Include.Columns)

	var out []roidx.Tuple
	var rowNum int64
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "roidx-bench: reading %s at row %d", path, rowNum)
		}
		t, err := encodeRow(schema, rec, rowNum)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
		rowNum++
	}
	return out, nil
}

func encodeRow(schema roidx.Schema, rec []string, rowNum int64) (roidx.Tuple, error) {
	ncols := len(schema.Key.Columns)
	key := make([]byte, 0, schema.Key.RowWidth())
	for i, c := range schema.Key.Columns {
		b, err := encodeField(c, rec[i])
		if err != nil {
			return roidx.Tuple{}, errors.Wrapf(err, "roidx-bench: row %d key column %d", rowNum, i)
		}
		key = append(key, b...)
	}
	include := make([]byte, 0, schema.Include.RowWidth())
	for i, c := range schema.Include.Columns {
		b, err := encodeField(c, rec[ncols+i])
		if err != nil {
			return roidx.Tuple{}, errors.Wrapf(err, "roidx-bench: row %d include column %d", rowNum, i)
		}
		include = append(include, b...)
	}
	return roidx.Tuple{Key: key, Include: include, RowNum: rowNum}, nil
}

func encodeField(c roidx.ColumnType, field string) ([]byte, error) {
	if c.ByVal {
		v, err := strconv.ParseUint(field, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parsing %q as integer: %w", field, err)
		}
		buf := make([]byte, c.Length)
		switch c.Length {
		case 1:
			buf[0] = byte(v)
		case 2:
			buf[0], buf[1] = byte(v>>8), byte(v)
		case 4:
			for i := 0; i < 4; i++ {
				buf[i] = byte(v >> (8 * (3 - i)))
			}
		case 8:
			for i := 0; i < 8; i++ {
				buf[i] = byte(v >> (8 * (7 - i)))
			}
		}
		return buf, nil
	}
	buf := make([]byte, c.Length)
	copy(buf, field)
	return buf, nil
}
