// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

package source

import (
	"bytes"
	"io"
	"os"
	"sync"
	"sync/atomic"

	"github.com/zeebo/errs"
)

// Data is a read-only view of the bytes backing a record.
type Data interface {
	io.ReaderAt
	// Size returns the total number of bytes available.
	Size() int64
	// Close releases the view.
	Close() error
}

// Bytes returns Data over an in-memory value.
func Bytes(b []byte) Data { return bytesData{bytes.NewReader(b)} }

type bytesData struct{ *bytes.Reader }

func (bytesData) Close() error { return nil }

// mapping is a read-only file image shared by every record of one data file.
// It is released when the last reference is closed.
type mapping struct {
	mem     []byte
	refs    atomic.Int64
	release func() error
}

// mapFile maps the whole file at path and returns it with one reference held.
func mapFile(path string) (_ *mapping, err error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, Error.Wrap(err)
	}
	// the mapping stays valid after the descriptor is closed.
	defer func() { err = errs.Combine(err, Error.Wrap(fh.Close())) }()

	info, err := fh.Stat()
	if err != nil {
		return nil, Error.Wrap(err)
	}

	m := &mapping{release: func() error { return nil }}
	if info.Size() > 0 {
		m.mem, m.release, err = mmap(fh, info.Size())
		if err != nil {
			return nil, Error.New("map %q: %v", path, err)
		}
	}
	m.refs.Store(1)
	return m, nil
}

// acquire returns a new view holding a reference to m.
func (m *mapping) acquire() Data {
	m.refs.Add(1)
	return &mappedData{mapping: m, reader: bytes.NewReader(m.mem)}
}

// unref drops a reference and unmaps the file with the last one.
func (m *mapping) unref() error {
	if m.refs.Add(-1) == 0 {
		return Error.Wrap(m.release())
	}
	return nil
}

type mappedData struct {
	mapping *mapping
	reader  *bytes.Reader
	once    sync.Once
}

func (data *mappedData) ReadAt(p []byte, off int64) (int, error) {
	return data.reader.ReadAt(p, off)
}

func (data *mappedData) Size() int64 { return data.reader.Size() }

func (data *mappedData) Close() (err error) {
	data.once.Do(func() { err = data.mapping.unref() })
	return err
}

// fileData opens the file on first use.
type fileData struct {
	path string
	size int64

	mu sync.Mutex
	fh *os.File
}

func (data *fileData) ReadAt(p []byte, off int64) (int, error) {
	data.mu.Lock()
	if data.fh == nil {
		fh, err := os.Open(data.path)
		if err != nil {
			data.mu.Unlock()
			return 0, Error.Wrap(err)
		}
		data.fh = fh
	}
	fh := data.fh
	data.mu.Unlock()

	return fh.ReadAt(p, off)
}

func (data *fileData) Size() int64 { return data.size }

func (data *fileData) Close() error {
	data.mu.Lock()
	defer data.mu.Unlock()
	if data.fh == nil {
		return nil
	}
	err := data.fh.Close()
	data.fh = nil
	return Error.Wrap(err)
}
