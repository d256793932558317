// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ovidb/roidx"
	"github.com/ovidb/roidx/pager"
)

var estimateFlags struct {
	indexPath   string
	keySpec     string
	includeSpec string
	pageSize    int
	eq, ge, gt  string
	le, lt      string
	workers     int
}

var estimateCmd = &cobra.Command{
	Use:   "estimate",
	Short: "Print the cost/selectivity estimate for a key range without scanning",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runEstimate()
	},
}

func init() {
	estimateCmd.Flags().StringVar(&estimateFlags.indexPath, "index", "", "path to the index's page file")
	estimateCmd.Flags().StringVar(&estimateFlags.keySpec, "keys", "int64", "comma-separated key column types, matching the build")
	estimateCmd.Flags().StringVar(&estimateFlags.includeSpec, "includes", "", "comma-separated include column types, matching the build")
	estimateCmd.Flags().IntVar(&estimateFlags.pageSize, "page-size", roidx.DefaultPageSize, "page size in bytes, matching the build")
	estimateCmd.Flags().StringVar(&estimateFlags.eq, "eq", "", "equality value for the leading key column")
	estimateCmd.Flags().StringVar(&estimateFlags.ge, "ge", "", "inclusive lower bound for the leading key column")
	estimateCmd.Flags().StringVar(&estimateFlags.gt, "gt", "", "exclusive lower bound for the leading key column")
	estimateCmd.Flags().StringVar(&estimateFlags.le, "le", "", "inclusive upper bound for the leading key column")
	estimateCmd.Flags().StringVar(&estimateFlags.lt, "lt", "", "exclusive upper bound for the leading key column")
	estimateCmd.Flags().IntVar(&estimateFlags.workers, "workers", 0, "parallel worker count to estimate for")
	estimateCmd.MarkFlagRequired("index")
	rootCmd.AddCommand(estimateCmd)
}

func runEstimate() error {
	schema, err := buildSchema(estimateFlags.keySpec, estimateFlags.includeSpec)
	if err != nil {
		return err
	}
	// Reuse scan's flag-to-KeyRange translation by copying the relevant
	// fields across; estimate takes the identical set of bound flags.
	scanFlags.eq, scanFlags.ge, scanFlags.gt, scanFlags.le, scanFlags.lt, scanFlags.eq2 =
		estimateFlags.eq, estimateFlags.ge, estimateFlags.gt, estimateFlags.le, estimateFlags.lt, ""
	kr, err := buildKeyRange(schema)
	if err != nil {
		return err
	}

	fp, err := pager.NewFilePager(estimateFlags.indexPath, estimateFlags.pageSize)
	if err != nil {
		return err
	}
	defer fp.Close()

	handle, err := roidx.Open(context.Background(), fp, schema, roidx.Config{PageSize: estimateFlags.pageSize})
	if err != nil {
		return err
	}
	est := handle.Estimate(kr, estimateFlags.workers)
	fmt.Printf("startup_cost=%.2f total_cost=%.2f rows=%.1f\n", est.StartupCost, est.TotalCost, est.Rows)
	return nil
}
