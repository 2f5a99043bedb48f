// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

// Package source produces the keys to migrate together with the location of
// the object data backing each key.
package source

import (
	"context"
	"errors"

	"github.com/spacemonkeygo/monkit/v3"
	"github.com/zeebo/errs"

	"storj.io/metaconvert/metadata"
)

var (
	// Error is the default error class for the package.
	Error = errs.Class("source")
	// ErrCorrupt is returned when an index file contains a damaged record.
	ErrCorrupt = errs.Class("corrupt source")
	// ErrEndOfSequence is returned by Next once the source is exhausted.
	ErrEndOfSequence = errors.New("end of sequence")

	mon = monkit.Package()
)

// Record is a single key produced by an Iterator.
type Record struct {
	Key metadata.Key
	// Path is the file holding the data.
	Path string
	// Data is the backing data; Offset and Length select the object inside it.
	Data   Data
	Offset uint64
	Length uint64
}

// Release drops the reference the record holds on its data.
func (rec *Record) Release() error {
	if rec.Data == nil {
		return nil
	}
	return rec.Data.Close()
}

// Iterator produces records. It is not safe for concurrent use; callers
// serialize calls to Next.
type Iterator interface {
	// Next returns the next record or ErrEndOfSequence.
	Next(ctx context.Context) (*Record, error)
	// Quarantine moves the record out of the way, when the layout supports it.
	Quarantine(ctx context.Context, rec *Record) error
	// Remove deletes the record, when the layout supports it.
	Remove(ctx context.Context, rec *Record) error
	// Close releases the resources held by the iterator.
	Close() error
}
