// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

// Package metadata implements the per-object metadata record: a chain of
// length-tagged entries packed back-to-back without a chain header.
//
// Every entry starts with an 8 byte header {type u32, size u32} followed by
// size bytes of payload. All multi-byte fields are little-endian.
package metadata

import (
	"encoding/binary"
	"encoding/hex"
	"time"

	"github.com/zeebo/errs"
)

var (
	// Error is the default error class for the package.
	Error = errs.Class("metadata")
	// ErrInvalidArgument is returned when a record cannot be built from the given control.
	ErrInvalidArgument = errs.Class("invalid argument")
	// ErrCorrupt is returned when an entry header or payload overruns the record.
	ErrCorrupt = errs.Class("corrupt metadata")
	// ErrNotFound is returned when the record has no entry of the requested type.
	ErrNotFound = errs.Class("metadata entry not found")
)

var byteOrder = binary.LittleEndian

// KeySize is the width of an object key.
const KeySize = 64

// Key identifies an object.
type Key [KeySize]byte

// KeyFromBytes copies b into a Key. It fails when b is not exactly KeySize long.
func KeyFromBytes(b []byte) (key Key, err error) {
	if len(b) != KeySize {
		return key, ErrInvalidArgument.New("key size %d, expected %d", len(b), KeySize)
	}
	copy(key[:], b)
	return key, nil
}

// Bytes returns the key as a byte slice.
func (key Key) Bytes() []byte { return key[:] }

// String returns the hex form of the key.
func (key Key) String() string { return hex.EncodeToString(key[:]) }

// Type is the tag of a metadata entry.
type Type uint32

// Entry types understood by the store.
const (
	TypeParentObject Type = 1
	TypeGroups       Type = 2
	TypeCheckStatus  Type = 3
	TypeNamespace    Type = 4
	TypeUpdate       Type = 5
	TypeChecksum     Type = 6
)

// String implements fmt.Stringer.
func (typ Type) String() string {
	switch typ {
	case TypeParentObject:
		return "PARENT_OBJECT"
	case TypeGroups:
		return "GROUPS"
	case TypeCheckStatus:
		return "CHECK_STATUS"
	case TypeNamespace:
		return "NAMESPACE"
	case TypeUpdate:
		return "UPDATE"
	case TypeChecksum:
		return "CHECKSUM"
	default:
		return "UNKNOWN"
	}
}

// HeaderSize is the size of the {type, size} prefix of every entry.
const HeaderSize = 8

// Time is the on-disk timestamp: seconds and nanoseconds since the epoch.
type Time struct {
	Sec  uint64
	Nsec uint64
}

// TimeSize is the encoded size of Time.
const TimeSize = 16

// TimeOf converts t to the on-disk representation.
func TimeOf(t time.Time) Time {
	if t.IsZero() {
		return Time{}
	}
	return Time{Sec: uint64(t.Unix()), Nsec: uint64(t.Nanosecond())}
}

// Time converts the timestamp back to time.Time.
func (t Time) Time() time.Time {
	if t.IsZero() {
		return time.Time{}
	}
	return time.Unix(int64(t.Sec), int64(t.Nsec)).UTC()
}

// IsZero returns whether both fields are zero.
func (t Time) IsZero() bool { return t.Sec == 0 && t.Nsec == 0 }

func putTime(b []byte, t Time) {
	byteOrder.PutUint64(b[0:8], t.Sec)
	byteOrder.PutUint64(b[8:16], t.Nsec)
}

func readTime(b []byte) Time {
	return Time{
		Sec:  byteOrder.Uint64(b[0:8]),
		Nsec: byteOrder.Uint64(b[8:16]),
	}
}
