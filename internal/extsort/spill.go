// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package extsort

import (
	"bufio"
	"encoding/binary"
	"io"
	"os"
)

// runFile is one sorted, spilled run: a temp file of length-prefixed rows
// plus a buffered reader for sequential consumption during the merge.
type runFile struct {
	path string
	f    *os.File
	r    *bufio.Reader
}

func writeRunFile(dir string, rows []Row) (*runFile, error) {
	f, err := os.CreateTemp(dir, "roidx-sort-*.run")
	if err != nil {
		return nil, err
	}
	w := bufio.NewWriter(f)
	var hdr [16]byte
	for _, row := range rows {
		binary.BigEndian.PutUint64(hdr[0:8], row.Seq)
		binary.BigEndian.PutUint32(hdr[8:12], uint32(len(row.Key)))
		binary.BigEndian.PutUint32(hdr[12:16], uint32(len(row.Include)))
		if _, err := w.Write(hdr[:]); err != nil {
			f.Close()
			return nil, err
		}
		if _, err := w.Write(row.Key); err != nil {
			f.Close()
			return nil, err
		}
		if _, err := w.Write(row.Include); err != nil {
			f.Close()
			return nil, err
		}
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return nil, err
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		f.Close()
		return nil, err
	}
	return &runFile{path: f.Name(), f: f, r: bufio.NewReader(f)}, nil
}

// readRow reads the next row from the run file, or io.EOF when exhausted.
func (rf *runFile) readRow() (Row, error) {
	var hdr [16]byte
	if _, err := io.ReadFull(rf.r, hdr[:]); err != nil {
		return Row{}, err
	}
	seq := binary.BigEndian.Uint64(hdr[0:8])
	keyLen := binary.BigEndian.Uint32(hdr[8:12])
	incLen := binary.BigEndian.Uint32(hdr[12:16])
	key := make([]byte, keyLen)
	if _, err := io.ReadFull(rf.r, key); err != nil {
		return Row{}, err
	}
	include := make([]byte, incLen)
	if _, err := io.ReadFull(rf.r, include); err != nil {
		return Row{}, err
	}
	return Row{Key: key, Include: include, Seq: seq}, nil
}

func (rf *runFile) close() error {
	return rf.f.Close()
}
