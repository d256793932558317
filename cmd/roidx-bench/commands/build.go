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

func parseCompression(s string) (roidx.Compression, error) {
	switch s {
	case "", "none":
		return roidx.CompressionNone, nil
	case "zstd":
		return roidx.CompressionZstd, nil
	default:
		return roidx.CompressionNone, fmt.Errorf("unknown --compression %q (want none or zstd)", s)
	}
}

var buildFlags struct {
	csvPath      string
	indexPath    string
	keySpec      string
	includeSpec  string
	pageSize     int
	memoryBudget int64
	workers      int
	compression  string
}

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build a roidx index from a CSV file of rows",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBuild()
	},
}

func init() {
	buildCmd.Flags().StringVar(&buildFlags.csvPath, "csv", "", "CSV file of rows (key columns first, then include columns)")
	buildCmd.Flags().StringVar(&buildFlags.indexPath, "index", "", "path to write the index's page file")
	buildCmd.Flags().StringVar(&buildFlags.keySpec, "keys", "int64", "comma-separated key column types (int8/int16/int32/int64/textN)")
	buildCmd.Flags().StringVar(&buildFlags.includeSpec, "includes", "", "comma-separated include column types")
	buildCmd.Flags().IntVar(&buildFlags.pageSize, "page-size", roidx.DefaultPageSize, "page size in bytes (4096-32768)")
	buildCmd.Flags().Int64Var(&buildFlags.memoryBudget, "memory-budget", 64<<20, "external sort memory budget in bytes")
	buildCmd.Flags().IntVar(&buildFlags.workers, "workers", 0, "parallel build worker count (0 or 1 for serial)")
	buildCmd.Flags().StringVar(&buildFlags.compression, "compression", "none", "plain-leaf body compression: none or zstd")
	buildCmd.MarkFlagRequired("csv")
	buildCmd.MarkFlagRequired("index")
	rootCmd.AddCommand(buildCmd)
}

func runBuild() error {
	schema, err := buildSchema(buildFlags.keySpec, buildFlags.includeSpec)
	if err != nil {
		return err
	}
	tuples, err := loadCSV(buildFlags.csvPath, schema)
	if err != nil {
		return err
	}

	fp, err := pager.NewFilePager(buildFlags.indexPath, buildFlags.pageSize)
	if err != nil {
		return err
	}
	defer fp.Close()

	compression, err := parseCompression(buildFlags.compression)
	if err != nil {
		return err
	}
	cfg := roidx.Config{PageSize: buildFlags.pageSize, Compression: compression}
	start := time.Now()
	result, err := roidx.Build(context.Background(), fp, schema,
		&roidx.SliceSource{Tuples: tuples}, cfg, buildFlags.memoryBudget, buildFlags.workers)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	fmt.Printf("built %s: %d rows, height %d, root block %d, %s\n",
		buildFlags.indexPath, result.RowCount, result.Height, result.RootBlock, elapsed)
	return nil
}
