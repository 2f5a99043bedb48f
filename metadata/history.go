// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

package metadata

// HistoryEntrySize is the size of a single entry in a legacy history record.
const HistoryEntrySize = KeySize + 4 + 8 + TimeSize + 8 + 8

// HistoryFlagRemoved is set on history entries that removed the object.
const HistoryFlagRemoved uint32 = 1 << 0

// HistoryEntry is one write (or removal) in the legacy history database.
type HistoryEntry struct {
	ID     Key
	Flags  uint32
	Time   Time
	Offset uint64
	Size   uint64
}

// Removed returns whether the entry removed the object.
func (entry HistoryEntry) Removed() bool { return entry.Flags&HistoryFlagRemoved != 0 }

// Encode returns the on-disk form of the entry.
func (entry HistoryEntry) Encode() []byte {
	b := make([]byte, HistoryEntrySize)
	copy(b[:KeySize], entry.ID[:])
	byteOrder.PutUint32(b[64:68], entry.Flags)
	// 8 reserved bytes at 68.
	putTime(b[76:92], entry.Time)
	byteOrder.PutUint64(b[92:100], entry.Offset)
	byteOrder.PutUint64(b[100:108], entry.Size)
	return b
}

// ParseHistory decodes a legacy history record.
func ParseHistory(data []byte) ([]HistoryEntry, error) {
	if len(data)%HistoryEntrySize != 0 {
		return nil, ErrCorrupt.New("history size %d must be a multiple of %d", len(data), HistoryEntrySize)
	}

	entries := make([]HistoryEntry, 0, len(data)/HistoryEntrySize)
	for pos := 0; pos < len(data); pos += HistoryEntrySize {
		b := data[pos : pos+HistoryEntrySize]

		var entry HistoryEntry
		copy(entry.ID[:], b[:KeySize])
		entry.Flags = byteOrder.Uint32(b[64:68])
		entry.Time = readTime(b[76:92])
		entry.Offset = byteOrder.Uint64(b[92:100])
		entry.Size = byteOrder.Uint64(b[100:108])
		entries = append(entries, entry)
	}
	return entries, nil
}
