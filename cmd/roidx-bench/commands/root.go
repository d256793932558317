// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "roidx-bench",
	Short: "roidx-bench builds, scans, and estimates roidx indexes from a CSV of rows",
	Long: `roidx-bench is a standalone driver for the roidx index engine. It plays
the role a host relational database's executor, planner, and catalog
would otherwise play: loading tuples from CSV, invoking build, and running
scans and cost estimates against the resulting file-backed index.`,
}

// Execute runs the root command, exiting the process on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "roidx-bench:", err)
		os.Exit(1)
	}
}
