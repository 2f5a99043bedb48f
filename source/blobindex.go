// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

package source

import (
	"context"
	"encoding/binary"
	"math"
	"os"
	"sort"

	"github.com/zeebo/errs"
	"go.uber.org/zap"

	"storj.io/metaconvert/metadata"
)

// IndexRecordSize is the size of a blob index record. Every object in a data
// file is preceded by a copy of its index record.
const IndexRecordSize = metadata.KeySize + 8 + 8 + 8 + 4

// IndexFlagRemoved marks a removed object in an index record.
const IndexFlagRemoved uint32 = 1 << 0

// IndexRecord describes one object inside a blob data file.
type IndexRecord struct {
	Key      metadata.Key
	Position uint64
	DataSize uint64
	DiskSize uint64
	Flags    uint32
}

// Removed returns whether the removed flag is set.
func (rec IndexRecord) Removed() bool { return rec.Flags&IndexFlagRemoved != 0 }

// DataOffset returns the offset of the object bytes in the data file.
func (rec IndexRecord) DataOffset() uint64 { return rec.Position + IndexRecordSize }

// verify checks that the object bytes can be addressed in a data file.
func (rec IndexRecord) verify() error {
	if rec.Position > math.MaxUint64-IndexRecordSize {
		return ErrCorrupt.New("position %d overflows data offset", rec.Position)
	}
	return nil
}

// Encode returns the on-disk form of rec.
func (rec IndexRecord) Encode() []byte {
	b := make([]byte, IndexRecordSize)
	copy(b, rec.Key[:])
	pos := metadata.KeySize
	binary.LittleEndian.PutUint64(b[pos:], rec.Position)
	binary.LittleEndian.PutUint64(b[pos+8:], rec.DataSize)
	binary.LittleEndian.PutUint64(b[pos+16:], rec.DiskSize)
	binary.LittleEndian.PutUint32(b[pos+24:], rec.Flags)
	return b
}

// ParseIndexRecord decodes an index record.
func ParseIndexRecord(b []byte) (rec IndexRecord, err error) {
	if len(b) != IndexRecordSize {
		return rec, ErrCorrupt.New("index record size %d, expected %d", len(b), IndexRecordSize)
	}
	copy(rec.Key[:], b)
	pos := metadata.KeySize
	rec.Position = binary.LittleEndian.Uint64(b[pos:])
	rec.DataSize = binary.LittleEndian.Uint64(b[pos+8:])
	rec.DiskSize = binary.LittleEndian.Uint64(b[pos+16:])
	rec.Flags = binary.LittleEndian.Uint32(b[pos+24:])
	return rec, nil
}

// SortIndex writes the records of the index file at in to out ordered by
// their position in the data file. When several records share a position the
// last one wins. A trailing partial record is dropped. It returns the number
// of records written.
func SortIndex(ctx context.Context, log *zap.Logger, in, out string) (written int, err error) {
	defer mon.Task()(&ctx)(&err)

	data, err := os.ReadFile(in)
	if err != nil {
		return 0, Error.Wrap(err)
	}

	if tail := len(data) % IndexRecordSize; tail != 0 {
		log.Warn("dropping partial index record", zap.String("path", in), zap.Int("bytes", tail))
		data = data[:len(data)-tail]
	}

	byPosition := map[uint64][]byte{}
	for pos := 0; pos < len(data); pos += IndexRecordSize {
		raw := data[pos : pos+IndexRecordSize]
		rec, err := ParseIndexRecord(raw)
		if err != nil {
			return 0, err
		}
		byPosition[rec.Position] = raw
	}

	positions := make([]uint64, 0, len(byPosition))
	for position := range byPosition {
		positions = append(positions, position)
	}
	sort.Slice(positions, func(i, k int) bool { return positions[i] < positions[k] })

	sorted := make([]byte, 0, len(positions)*IndexRecordSize)
	for _, position := range positions {
		sorted = append(sorted, byPosition[position]...)
	}

	log.Info("loaded index", zap.String("path", in), zap.Int("records", len(positions)))

	fh, err := os.Create(out)
	if err != nil {
		return 0, Error.Wrap(err)
	}
	_, err = fh.Write(sorted)
	return len(positions), Error.Wrap(errs.Combine(err, fh.Close()))
}
