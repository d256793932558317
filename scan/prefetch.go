// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package scan

// prefetchDepth implements the slow-start policy: depth grows with the
// number of pages already scanned, shaped by the range's shape, and is
// capped by maxDepth. pagesScanned is 1-indexed — it counts pages scanned
// so far in this cursor including the current one, so the first and
// second leaves of an equality scan (pagesScanned 1 and 2) both stay at
// depth 0 before the ramp begins.
func prefetchDepth(pagesScanned int, krange KeyRange, maxDepth uint16) int {
	md := int(maxDepth)
	switch {
	case krange.IsEquality():
		switch {
		case pagesScanned <= 2:
			return 0
		case pagesScanned <= 4:
			return min(1, md)
		default:
			return min(2, md)
		}
	case krange.IsUnboundedForward():
		return md
	default:
		switch {
		case pagesScanned <= 3:
			return 0
		case pagesScanned <= 7:
			return min(1, md)
		case pagesScanned <= 19:
			return min(2, md)
		case pagesScanned <= 49:
			return min(4, md)
		default:
			return min(pagesScanned/10, md)
		}
	}
}
