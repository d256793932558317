// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Command roidx-bench is a thin CLI driver that exercises roidx's
// build/scan/estimate operations end to end, standing in for the host
// relational database the engine is designed to plug into.
package main

import "github.com/ovidb/roidx/cmd/roidx-bench/commands"

func main() {
	commands.Execute()
}
