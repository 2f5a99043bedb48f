// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

package source

import (
	"context"
	"errors"
	"io/fs"
	"strconv"

	"github.com/zeebo/errs"
	"go.uber.org/zap"
)

// IndexSuffix is appended to a data file path to get its index file.
const IndexSuffix = ".index"

// BlobPair iterates the objects of the numbered blob files base.0, base.1, ...
// using their index files base.0.index, base.1.index, ...
type BlobPair struct {
	log  *zap.Logger
	base string

	suffix   int
	dataPath string
	data     *mapping
	index    *mapping
	pos      int
	done     bool
}

var _ Iterator = (*BlobPair)(nil)

// OpenBlobPair opens the first pair of base. It fails when the pair is missing.
func OpenBlobPair(ctx context.Context, log *zap.Logger, base string) (_ *BlobPair, err error) {
	defer mon.Task()(&ctx)(&err)

	it := &BlobPair{
		log:  log,
		base: base,
	}
	if err := it.open(0); err != nil {
		return nil, err
	}
	return it, nil
}

// DataPath returns the data file of pair suffix.
func DataPath(base string, suffix int) string {
	return base + "." + strconv.Itoa(suffix)
}

// open maps pair suffix, releasing the previous pair.
func (it *BlobPair) open(suffix int) error {
	if err := it.release(); err != nil {
		it.log.Warn("failed to release pair", zap.String("path", it.dataPath), zap.Error(err))
	}

	dataPath := DataPath(it.base, suffix)
	data, err := mapFile(dataPath)
	if err != nil {
		return err
	}

	index, err := mapFile(dataPath + IndexSuffix)
	if err != nil {
		return errs.Combine(err, data.unref())
	}

	it.log.Info("opened blob", zap.String("path", dataPath), zap.Int("index records", len(index.mem)/IndexRecordSize))

	it.suffix = suffix
	it.dataPath = dataPath
	it.data = data
	it.index = index
	it.pos = 0
	return nil
}

func (it *BlobPair) release() error {
	var group errs.Group
	if it.data != nil {
		group.Add(it.data.unref())
		it.data = nil
	}
	if it.index != nil {
		group.Add(it.index.unref())
		it.index = nil
	}
	return group.Err()
}

// Next returns the next object that is not flagged as removed.
func (it *BlobPair) Next(ctx context.Context) (*Record, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if it.done {
			return nil, ErrEndOfSequence
		}

		remaining := len(it.index.mem) - it.pos
		switch {
		case remaining == 0:
			if err := it.open(it.suffix + 1); err != nil {
				if !errors.Is(err, fs.ErrNotExist) {
					it.log.Error("failed to open next blob", zap.Int("suffix", it.suffix+1), zap.Error(err))
				}
				it.done = true
				if err := it.release(); err != nil {
					it.log.Warn("failed to release pair", zap.Error(err))
				}
			}
			continue
		case remaining < IndexRecordSize:
			it.log.Error("skipping rest of index",
				zap.String("path", it.dataPath+IndexSuffix),
				zap.Error(ErrCorrupt.New("partial index record of %d bytes at offset %d", remaining, it.pos)))
			it.pos = len(it.index.mem)
			continue
		}

		rec, err := ParseIndexRecord(it.index.mem[it.pos : it.pos+IndexRecordSize])
		it.pos += IndexRecordSize
		if err != nil {
			it.log.Error("skipping index record", zap.String("path", it.dataPath+IndexSuffix), zap.Error(err))
			continue
		}
		if rec.Removed() {
			continue
		}
		if err := rec.verify(); err != nil {
			it.log.Error("skipping index record", zap.String("path", it.dataPath+IndexSuffix), zap.Error(err))
			continue
		}

		it.log.Debug("index record",
			zap.Stringer("key", rec.Key),
			zap.Uint64("position", rec.Position),
			zap.Uint64("data size", rec.DataSize),
			zap.Uint64("disk size", rec.DiskSize))

		return &Record{
			Key:    rec.Key,
			Path:   it.dataPath,
			Data:   it.data.acquire(),
			Offset: rec.DataOffset(),
			Length: rec.DataSize,
		}, nil
	}
}

// Quarantine is a no-op for blob files.
func (it *BlobPair) Quarantine(ctx context.Context, rec *Record) error { return nil }

// Remove is a no-op for blob files.
func (it *BlobPair) Remove(ctx context.Context, rec *Record) error { return nil }

// Close releases the current pair. Records still held by workers keep their
// data file mapped until they are released.
func (it *BlobPair) Close() error {
	it.done = true
	return it.release()
}

