// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ovidb/roidx"
	"github.com/ovidb/roidx/pager"
)

var scanFlags struct {
	indexPath   string
	keySpec     string
	includeSpec string
	pageSize    int
	eq          string
	ge, gt      string
	le, lt      string
	eq2         string
	backward    bool
	workers     int
	quiet       bool
}

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan a built roidx index and print matching rows",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runScan()
	},
}

func init() {
	scanCmd.Flags().StringVar(&scanFlags.indexPath, "index", "", "path to the index's page file")
	scanCmd.Flags().StringVar(&scanFlags.keySpec, "keys", "int64", "comma-separated key column types, matching the build")
	scanCmd.Flags().StringVar(&scanFlags.includeSpec, "includes", "", "comma-separated include column types, matching the build")
	scanCmd.Flags().IntVar(&scanFlags.pageSize, "page-size", roidx.DefaultPageSize, "page size in bytes, matching the build")
	scanCmd.Flags().StringVar(&scanFlags.eq, "eq", "", "equality value for the leading key column")
	scanCmd.Flags().StringVar(&scanFlags.ge, "ge", "", "inclusive lower bound for the leading key column")
	scanCmd.Flags().StringVar(&scanFlags.gt, "gt", "", "exclusive lower bound for the leading key column")
	scanCmd.Flags().StringVar(&scanFlags.le, "le", "", "inclusive upper bound for the leading key column")
	scanCmd.Flags().StringVar(&scanFlags.lt, "lt", "", "exclusive upper bound for the leading key column")
	scanCmd.Flags().StringVar(&scanFlags.eq2, "eq2", "", "runtime equality filter on the second key column (two-column schemas only)")
	scanCmd.Flags().BoolVar(&scanFlags.backward, "backward", false, "scan in descending key order")
	scanCmd.Flags().IntVar(&scanFlags.workers, "workers", 0, "parallel scan worker count (0 or 1 for serial)")
	scanCmd.Flags().BoolVar(&scanFlags.quiet, "quiet", false, "suppress per-row output, print only the summary")
	scanCmd.MarkFlagRequired("index")
	rootCmd.AddCommand(scanCmd)
}

func buildKeyRange(schema roidx.Schema) (roidx.KeyRange, error) {
	var kr roidx.KeyRange
	col0 := schema.Key.Columns[0]
	switch {
	case scanFlags.eq != "":
		b, err := encodeField(col0, scanFlags.eq)
		if err != nil {
			return kr, err
		}
		kr = roidx.Equality(b)
	default:
		if scanFlags.ge != "" || scanFlags.gt != "" {
			v, incl := scanFlags.ge, true
			if v == "" {
				v, incl = scanFlags.gt, false
			}
			b, err := encodeField(col0, v)
			if err != nil {
				return kr, err
			}
			kr.Lower = roidx.Bound{Key: b, Inclusive: incl, Valid: true}
		}
		if scanFlags.le != "" || scanFlags.lt != "" {
			v, incl := scanFlags.le, true
			if v == "" {
				v, incl = scanFlags.lt, false
			}
			b, err := encodeField(col0, v)
			if err != nil {
				return kr, err
			}
			kr.Upper = roidx.Bound{Key: b, Inclusive: incl, Valid: true}
		}
	}
	if scanFlags.eq2 != "" {
		if len(schema.Key.Columns) < 2 {
			return kr, fmt.Errorf("--eq2 requires a two-column key schema")
		}
		b, err := encodeField(schema.Key.Columns[1], scanFlags.eq2)
		if err != nil {
			return kr, err
		}
		kr.SecondEquality = roidx.Bound{Key: b, Inclusive: true, Valid: true}
	}
	return kr, nil
}

func runScan() error {
	schema, err := buildSchema(scanFlags.keySpec, scanFlags.includeSpec)
	if err != nil {
		return err
	}
	kr, err := buildKeyRange(schema)
	if err != nil {
		return err
	}

	fp, err := pager.NewFilePager(scanFlags.indexPath, scanFlags.pageSize)
	if err != nil {
		return err
	}
	defer fp.Close()

	metrics := newPromMetrics()
	cfg := roidx.Config{PageSize: scanFlags.pageSize, Metrics: metrics}
	ctx := context.Background()
	handle, err := roidx.Open(ctx, fp, schema, cfg)
	if err != nil {
		return err
	}

	start := time.Now()
	var rowCount int64
	if scanFlags.workers > 1 {
		out, wait := handle.ScanParallel(ctx, kr, scanFlags.workers, nil)
		for p := range out {
			if !scanFlags.quiet {
				fmt.Printf("%x -> %x\n", p.Key, p.Include)
			}
			rowCount++
		}
		if err := wait(); err != nil {
			return err
		}
	} else {
		dir := roidx.Forward
		if scanFlags.backward {
			dir = roidx.Backward
		}
		cur, err := handle.Scan(ctx, kr, dir)
		if err != nil {
			return err
		}
		defer cur.Close()
		for {
			key, include, ok, err := cur.Next(ctx)
			if err != nil {
				return err
			}
			if !ok {
				break
			}
			if !scanFlags.quiet {
				fmt.Printf("%x -> %x\n", key, include)
			}
			rowCount++
		}
	}
	elapsed := time.Since(start)

	fmt.Printf("scanned %d rows in %s (%d pages read, %d prefetches issued)\n",
		rowCount, elapsed, metrics.pagesReadCount.Load(), metrics.prefetchesIssuedCount.Load())
	return nil
}
