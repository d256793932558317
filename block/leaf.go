// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package block

import (
	"sort"

	"github.com/ovidb/roidx/internal/base"
)

// CandidateSizes reports the byte length each of the three leaf encodings
// would occupy for entries, without actually encoding them. The build
// pipeline's leaf writer calls this at seal time to pick the smallest.
type CandidateSizes struct {
	Plain           int
	KeyRLE          int
	IncludeRLE      int
	IncludeRLEValid bool

	// CompressedPlain and CompressedPlainValid are filled in by
	// ComputeCompressed only: the page size a zstd-compressed plain
	// encoding would need, and whether compression actually helped.
	CompressedPlain      int
	CompressedPlainValid bool
	compressedPlainBytes []byte
}

// Compute fills in the three candidate sizes for the given buffered
// entries under schema.
func Compute(schema base.Schema, entries []Entry) CandidateSizes {
	keyWidth := schema.Key.RowWidth()
	incWidth := schema.Include.RowWidth()
	nitems := len(entries)
	runs := computeRuns(entries)
	nruns := len(runs)

	sizes := CandidateSizes{
		Plain:  HeaderLen + nitems*(keyWidth+incWidth) + TrailerLen,
		KeyRLE: HeaderLen + 2 + nruns*(keyWidth+2) + nitems*incWidth + TrailerLen,
	}
	sizes.IncludeRLEValid = allRunsIncludeConstant(entries, runs)
	if sizes.IncludeRLEValid {
		sizes.IncludeRLE = HeaderLen + 2 + nruns*(keyWidth+2+incWidth) + TrailerLen
	}
	return sizes
}

// ComputeCompressed is Compute plus, when compression is CompressionZstd,
// the compressed-plain candidate a leaf writer can use to pack more
// entries into a page than the uncompressed plain encoding would allow
// (see block/compress.go). Callers that don't use compression should call
// Compute directly to skip the compression attempt.
func ComputeCompressed(schema base.Schema, entries []Entry, compression Compression) CandidateSizes {
	sizes := Compute(schema, entries)
	if compression != CompressionZstd {
		return sizes
	}
	compressed, total, ok := tryCompressPlain(schema, entries)
	sizes.CompressedPlainValid = ok
	if ok {
		sizes.CompressedPlain = total
		sizes.compressedPlainBytes = compressed
	}
	return sizes
}

// ChooseFormat applies the format-selection rule:
// pick the smallest candidate size; on ties prefer plain, then key-RLE,
// then include-RLE.
func ChooseFormat(sizes CandidateSizes) Tag {
	best := TagPlain
	bestSize := sizes.Plain
	if sizes.KeyRLE < bestSize {
		best, bestSize = TagKeyRLE, sizes.KeyRLE
	}
	if sizes.IncludeRLEValid && sizes.IncludeRLE < bestSize {
		best, bestSize = TagIncludeRLE, sizes.IncludeRLE
	}
	return best
}

// EncodeLeaf encodes entries into a page buffer of exactly pageSize bytes
// using whichever format ChooseFormat selects, with rightLink written into
// the footer. It fails if the chosen encoding does not fit in pageSize;
// the build pipeline's leaf writer is responsible for sealing before that
// happens.
func EncodeLeaf(schema base.Schema, entries []Entry, pageSize int, rightLink uint32) ([]byte, Tag, error) {
	return EncodeLeafForced(schema, entries, pageSize, rightLink, 0)
}

// EncodeLeafForced is EncodeLeaf with an optional forced tag (test-only,
// tall-tree and format-specific tests); pass 0 for the normal
// size-minimal selection rule.
func EncodeLeafForced(schema base.Schema, entries []Entry, pageSize int, rightLink uint32, forced Tag) ([]byte, Tag, error) {
	return EncodeLeafCompressed(schema, entries, pageSize, rightLink, forced, CompressionNone)
}

// EncodeLeafCompressed is EncodeLeafForced plus an optional plain-body
// compressor (see compress.go). When compression is CompressionZstd and the
// selected format is plain, the leaf writer first tries the uncompressed
// plain encoding and only falls back to the compressed layout if the
// plain encoding alone would not fit in pageSize but the compressed one
// does.
func EncodeLeafCompressed(schema base.Schema, entries []Entry, pageSize int, rightLink uint32, forced Tag, compression Compression) ([]byte, Tag, error) {
	sizes := ComputeCompressed(schema, entries, compression)
	tag := ChooseFormat(sizes)
	if forced != 0 {
		if forced == TagIncludeRLE && !sizes.IncludeRLEValid {
			return nil, 0, base.ResourceExceededErrorf("forced include-RLE format is invalid for this leaf's data (includes vary within a run)")
		}
		tag = forced
	}
	var want int
	switch tag {
	case TagPlain:
		want = sizes.Plain
	case TagKeyRLE:
		want = sizes.KeyRLE
	case TagIncludeRLE:
		want = sizes.IncludeRLE
	}
	useCompression := false
	if tag == TagPlain && want > pageSize && sizes.CompressedPlainValid && sizes.CompressedPlain <= pageSize {
		useCompression = true
		want = sizes.CompressedPlain
	}
	if want > pageSize {
		return nil, 0, base.ResourceExceededErrorf("leaf of %d entries needs %d bytes, page is %d", len(entries), want, pageSize)
	}
	buf := make([]byte, pageSize)
	switch {
	case useCompression:
		encodePlainCompressed(entries, sizes.compressedPlainBytes, buf)
	case tag == TagPlain:
		encodePlain(schema, entries, buf)
	case tag == TagKeyRLE:
		encodeKeyRLE(schema, entries, buf)
	case tag == TagIncludeRLE:
		encodeIncludeRLE(schema, entries, buf)
	}
	putBE32(buf[len(buf)-TrailerLen:], rightLink)
	writeChecksum(buf)
	return buf, tag, nil
}

func encodePlain(schema base.Schema, entries []Entry, buf []byte) {
	putBE16(buf[0:2], uint16(TagPlain))
	putBE16(buf[2:4], uint16(len(entries)))
	off := HeaderLen
	for _, e := range entries {
		off += copy(buf[off:], e.Key)
		off += copy(buf[off:], e.Include)
	}
}

func encodeKeyRLE(schema base.Schema, entries []Entry, buf []byte) {
	runs := computeRuns(entries)
	putBE16(buf[0:2], uint16(TagKeyRLE))
	putBE16(buf[2:4], uint16(len(entries)))
	putBE16(buf[4:6], uint16(len(runs)))
	off := HeaderLen + 2
	for _, r := range runs {
		off += copy(buf[off:], entries[r.start].Key)
		putBE16(buf[off:], uint16(r.count()))
		off += 2
	}
	for _, e := range entries {
		off += copy(buf[off:], e.Include)
	}
}

func encodeIncludeRLE(schema base.Schema, entries []Entry, buf []byte) {
	runs := computeRuns(entries)
	putBE16(buf[0:2], uint16(TagIncludeRLE))
	putBE16(buf[2:4], uint16(len(entries)))
	putBE16(buf[4:6], uint16(len(runs)))
	off := HeaderLen + 2
	for _, r := range runs {
		off += copy(buf[off:], entries[r.start].Key)
		putBE16(buf[off:], uint16(r.count()))
		off += 2
		off += copy(buf[off:], entries[r.start].Include)
	}
}

// Decode validates and fully materializes a leaf page into entries, for
// tests and for the occasional caller that wants the whole page rather
// than an iterator. Scans use Iter instead, to avoid the allocation.
func Decode(schema base.Schema, page Page, blockNum uint32) ([]Entry, error) {
	it, err := NewIter(schema, page, blockNum)
	if err != nil {
		return nil, err
	}
	var out []Entry
	for it.Next() {
		k := make([]byte, len(it.Key()))
		copy(k, it.Key())
		v := make([]byte, len(it.Include()))
		copy(v, it.Include())
		out = append(out, Entry{Key: k, Include: v})
	}
	if err := it.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// LocateGE performs the within-page lower-bound seek:
// binary search over rows for plain leaves, or across runs
// (by first key) then within the run for RLE leaves. It returns the entry
// offset (0-based entry index, not byte offset) of the first entry whose
// key is >= key, or NItems() if none qualifies.
func LocateGE(schema base.Schema, page Page, key []byte) (int, error) {
	page, err := resolvePage(schema, page)
	if err != nil {
		return 0, err
	}
	nitems := page.NItems()
	switch page.Tag() {
	case TagPlain:
		keyWidth := schema.Key.RowWidth()
		incWidth := schema.Include.RowWidth()
		rowWidth := keyWidth + incWidth
		base0 := HeaderLen
		idx := sort.Search(nitems, func(i int) bool {
			off := base0 + i*rowWidth
			return base.CompareKey(schema.Key, page.Buf[off:off+keyWidth], key) >= 0
		})
		return idx, nil
	case TagKeyRLE, TagIncludeRLE:
		runsInfo, err := readRunTable(schema, page)
		if err != nil {
			return 0, err
		}
		ri := sort.Search(len(runsInfo), func(i int) bool {
			return base.CompareKey(schema.Key, runsInfo[i].key, key) >= 0
		})
		if ri == 0 {
			return 0, nil
		}
		if ri == len(runsInfo) {
			return nitems, nil
		}
		if base.CompareKey(schema.Key, runsInfo[ri].key, key) == 0 {
			return runsInfo[ri].startEntry, nil
		}
		// The run at ri-1 has first key < key <= run at ri's first key,
		// and since keys are constant within a run, if key isn't exactly
		// runsInfo[ri].key then no entry in run ri-1 can equal it either;
		// the first qualifying entry is the start of run ri.
		return runsInfo[ri].startEntry, nil
	default:
		return 0, base.CorruptPageErrorf(0, "unrecognized leaf tag %#x", page.Tag())
	}
}

type runInfo struct {
	key        []byte
	count      int
	startEntry int
	// byteOffset is where this run's fixed header (key+count[+include])
	// begins within the page.
	byteOffset int
}

func readRunTable(schema base.Schema, page Page) ([]runInfo, error) {
	keyWidth := schema.Key.RowWidth()
	incWidth := schema.Include.RowWidth()
	nitems := page.NItems()
	nruns := int(be16(page.Buf[4:6]))
	out := make([]runInfo, 0, nruns)
	off := HeaderLen + 2
	entryIdx := 0
	perRunInclude := page.Tag() == TagIncludeRLE
	for i := 0; i < nruns; i++ {
		if off+keyWidth+2 > len(page.Buf) {
			return nil, base.CorruptPageErrorf(0, "run table truncated")
		}
		key := page.Buf[off : off+keyWidth]
		count := int(be16(page.Buf[off+keyWidth : off+keyWidth+2]))
		ri := runInfo{key: key, count: count, startEntry: entryIdx, byteOffset: off}
		out = append(out, ri)
		entryIdx += count
		off += keyWidth + 2
		if perRunInclude {
			off += incWidth
		}
	}
	if entryIdx != nitems {
		return nil, base.CorruptPageErrorf(0, "run counts sum to %d, nitems is %d", entryIdx, nitems)
	}
	return out, nil
}

// RunBoundsAt returns the [start, end) entry-index interval of the run
// containing entry offset, for RLE pages. Callers use this to implement
// duplicate-include caching: compute once on first
// touch, reuse for the rest of the run. For plain pages it returns
// [offset, offset+1) since there are no runs.
func RunBoundsAt(schema base.Schema, page Page, offset int) (int, int, error) {
	switch page.Tag() &^ compressedTagBit {
	case TagPlain:
		return offset, offset + 1, nil
	case TagKeyRLE, TagIncludeRLE:
		runs, err := readRunTable(schema, page)
		if err != nil {
			return 0, 0, err
		}
		for _, r := range runs {
			if offset >= r.startEntry && offset < r.startEntry+r.count {
				return r.startEntry, r.startEntry + r.count, nil
			}
		}
		return 0, 0, base.CorruptPageErrorf(0, "offset %d not within any run", offset)
	default:
		return 0, 0, base.CorruptPageErrorf(0, "unrecognized leaf tag %#x", page.Tag())
	}
}

// IsPlain reports whether page uses the plain encoding, letting callers
// skip run-bound computation entirely.
func IsPlain(page Page) bool { return page.Tag()&^compressedTagBit == TagPlain }
