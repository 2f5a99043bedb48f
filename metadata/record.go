// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

package metadata

import (
	"math"
	"time"
)

// Control describes the contents of a record to build.
type Control struct {
	// Object is the optional parent object name.
	Object []byte
	// Groups is the optional list of groups hosting the object.
	Groups []int32
	// UpdateFlags are stored in the UPDATE entry.
	UpdateFlags uint64
	// Time is the update time. The current time is used when it is zero.
	Time time.Time
	// Checksum is the digest stored in the CHECKSUM entry.
	Checksum [ChecksumSize]byte
}

// Size returns the encoded size of the record described by control.
func (control *Control) Size() int {
	size := HeaderSize + CheckStatusSize
	size += HeaderSize + UpdateSize
	if len(control.Object) > 0 {
		size += HeaderSize + len(control.Object)
	}
	if len(control.Groups) > 0 {
		size += HeaderSize + len(control.Groups)*GroupSize
	}
	size += HeaderSize + ChecksumEntrySize
	return size
}

// Build encodes a new record: CHECK_STATUS, UPDATE, the optional
// PARENT_OBJECT and GROUPS entries and CHECKSUM, in that order.
func Build(control Control) ([]byte, error) {
	size := control.Size()
	if size == 0 {
		return nil, ErrInvalidArgument.New("empty record")
	}
	if uint64(len(control.Object)) > math.MaxUint32 {
		return nil, ErrInvalidArgument.New("object name too long: %d", len(control.Object))
	}

	ts := control.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	stamp := TimeOf(ts)

	w := writer{buf: make([]byte, size)}

	// check status is filled in by the first actual check.
	w.entry(TypeCheckStatus, CheckStatusSize)

	Update{Time: stamp, Flags: control.UpdateFlags}.encodeTo(w.entry(TypeUpdate, UpdateSize))

	if len(control.Object) > 0 {
		copy(w.entry(TypeParentObject, len(control.Object)), control.Object)
	}

	if len(control.Groups) > 0 {
		encodeGroupsTo(w.entry(TypeGroups, len(control.Groups)*GroupSize), control.Groups)
	}

	Checksum{Digest: control.Checksum, Time: stamp}.encodeTo(w.entry(TypeChecksum, ChecksumEntrySize))

	return w.buf, nil
}

type writer struct {
	buf []byte
	pos int
}

// entry writes the header and returns the payload area of the next entry.
func (w *writer) entry(typ Type, size int) []byte {
	byteOrder.PutUint32(w.buf[w.pos:], uint32(typ))
	byteOrder.PutUint32(w.buf[w.pos+4:], uint32(size))
	start := w.pos + HeaderSize
	w.pos = start + size
	return w.buf[start:w.pos:w.pos]
}

// Entry is a single entry found in a record. Payload aliases the record.
type Entry struct {
	Type    Type
	Offset  int
	Payload []byte
}

// Size returns the encoded size of the entry including its header.
func (entry Entry) Size() int { return HeaderSize + len(entry.Payload) }

// cursor walks a record; every header and payload is bounds checked before
// it is interpreted.
type cursor struct {
	buf []byte
	pos int
}

func (c *cursor) remaining() int { return len(c.buf) - c.pos }

// next returns the next entry, false at the end of the record.
func (c *cursor) next() (Entry, bool, error) {
	left := c.remaining()
	if left == 0 {
		return Entry{}, false, nil
	}
	if left < HeaderSize {
		return Entry{}, false, ErrCorrupt.New("%d bytes left at offset %d, header needs %d", left, c.pos, HeaderSize)
	}

	typ := Type(byteOrder.Uint32(c.buf[c.pos:]))
	size := uint64(byteOrder.Uint32(c.buf[c.pos+4:]))
	if size > uint64(left-HeaderSize) {
		return Entry{}, false, ErrCorrupt.New("entry %s at offset %d declares %d bytes, %d left",
			typ, c.pos, size, left-HeaderSize)
	}

	start := c.pos + HeaderSize
	end := start + int(size)
	entry := Entry{
		Type:    typ,
		Offset:  c.pos,
		Payload: c.buf[start:end:end],
	}
	c.pos = end
	return entry, true, nil
}

// Search returns the first entry of the given type.
func Search(record []byte, typ Type) (Entry, error) {
	c := cursor{buf: record}
	for {
		entry, ok, err := c.next()
		if err != nil {
			return Entry{}, err
		}
		if !ok {
			return Entry{}, ErrNotFound.New("%s", typ)
		}
		if entry.Type == typ {
			return entry, nil
		}
	}
}

// Entries returns every entry of the record in order.
func Entries(record []byte) ([]Entry, error) {
	var entries []Entry
	c := cursor{buf: record}
	for {
		entry, ok, err := c.next()
		if err != nil {
			return entries, err
		}
		if !ok {
			return entries, nil
		}
		entries = append(entries, entry)
	}
}

// Parse decodes a record into the control that would build it. Unknown
// entries are ignored; duplicated entries are resolved by the last one.
func Parse(record []byte) (control Control, err error) {
	entries, err := Entries(record)
	if err != nil {
		return Control{}, err
	}

	for _, entry := range entries {
		switch entry.Type {
		case TypeParentObject:
			control.Object = append([]byte(nil), entry.Payload...)
		case TypeGroups:
			control.Groups, err = ParseGroups(entry.Payload)
		case TypeChecksum:
			var checksum Checksum
			checksum, err = ParseChecksum(entry.Payload)
			control.Checksum = checksum.Digest
		case TypeUpdate:
			var update Update
			update, err = ParseUpdate(entry.Payload)
			control.Time = update.Time.Time()
			control.UpdateFlags = update.Flags
		}
		if err != nil {
			return Control{}, err
		}
	}
	return control, nil
}

// Replace overwrites the payload of the first entry of the given type in
// place. The new payload must have the same size as the old one.
func Replace(record []byte, typ Type, payload []byte) error {
	entry, err := Search(record, typ)
	if err != nil {
		return err
	}
	if len(entry.Payload) != len(payload) {
		return ErrInvalidArgument.New("%s payload size %d, replacement %d", typ, len(entry.Payload), len(payload))
	}
	copy(entry.Payload, payload)
	return nil
}

// Append adds an entry to the end of the record.
func Append(record []byte, typ Type, payload []byte) []byte {
	out := make([]byte, len(record)+HeaderSize+len(payload))
	copy(out, record)
	w := writer{buf: out, pos: len(record)}
	copy(w.entry(typ, len(payload)), payload)
	return out
}
