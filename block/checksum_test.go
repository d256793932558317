// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package block

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ovidb/roidx/internal/base"
)

func TestChecksumDetectsCorruption(t *testing.T) {
	schema := intSchema()
	buf, _, err := EncodeLeaf(schema, distinctEntries(5), 256, 0)
	require.NoError(t, err)

	// Flip a bit in the body; checksum must catch it.
	buf[HeaderLen] ^= 0xFF
	_, err = NewIter(schema, Page{Schema: schema, Buf: buf}, 2)
	require.Error(t, err)
	require.True(t, base.IsKind(err, base.KindCorruptPage))
}

func TestRecomputeChecksumAfterInPlaceEdit(t *testing.T) {
	schema := intSchema()
	buf, _, err := EncodeLeaf(schema, distinctEntries(5), 256, 0xFFFFFFFF)
	require.NoError(t, err)

	// Patch the right-link in place, as build.leafWriter.finish does, then
	// recompute.
	putBE32(buf[len(buf)-TrailerLen:], 7)
	RecomputeChecksum(buf)

	page := Page{Schema: schema, Buf: buf}
	require.Equal(t, uint32(7), page.RightLink())
	_, err = NewIter(schema, page, 2)
	require.NoError(t, err)
}
