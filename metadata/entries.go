// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

package metadata

const (
	// CheckStatusSize is the payload size of a CHECK_STATUS entry.
	CheckStatusSize = 4 + 4 + TimeSize + 4*8
	// UpdateSize is the payload size of an UPDATE entry.
	UpdateSize = 4 + 4 + TimeSize + 8 + 4*8
	// ChecksumSize is the width of the checksum digest.
	ChecksumSize = 64
	// ChecksumEntrySize is the payload size of a CHECKSUM entry.
	ChecksumEntrySize = ChecksumSize + TimeSize
	// GroupSize is the size of a single group number in a GROUPS entry.
	GroupSize = 4
)

// UpdateFlagRemoved marks the object as removed in an UPDATE entry.
const UpdateFlagRemoved uint64 = 1 << 0

// CheckStatus is the payload of a CHECK_STATUS entry.
type CheckStatus struct {
	Status int32
	Time   Time
}

// Encode returns the payload bytes.
func (status CheckStatus) Encode() []byte {
	b := make([]byte, CheckStatusSize)
	byteOrder.PutUint32(b[0:4], uint32(status.Status))
	putTime(b[8:24], status.Time)
	return b
}

// ParseCheckStatus decodes a CHECK_STATUS payload.
func ParseCheckStatus(payload []byte) (CheckStatus, error) {
	if len(payload) != CheckStatusSize {
		return CheckStatus{}, ErrCorrupt.New("check status size %d, expected %d", len(payload), CheckStatusSize)
	}
	return CheckStatus{
		Status: int32(byteOrder.Uint32(payload[0:4])),
		Time:   readTime(payload[8:24]),
	}, nil
}

// Update is the payload of an UPDATE entry.
type Update struct {
	Group int32
	Time  Time
	Flags uint64
}

// Removed returns whether the removed flag is set.
func (update Update) Removed() bool { return update.Flags&UpdateFlagRemoved != 0 }

// Encode returns the payload bytes.
func (update Update) Encode() []byte {
	b := make([]byte, UpdateSize)
	update.encodeTo(b)
	return b
}

func (update Update) encodeTo(b []byte) {
	byteOrder.PutUint32(b[0:4], uint32(update.Group))
	putTime(b[8:24], update.Time)
	byteOrder.PutUint64(b[24:32], update.Flags)
}

// ParseUpdate decodes an UPDATE payload.
func ParseUpdate(payload []byte) (Update, error) {
	if len(payload) != UpdateSize {
		return Update{}, ErrCorrupt.New("update size %d, expected %d", len(payload), UpdateSize)
	}
	return Update{
		Group: int32(byteOrder.Uint32(payload[0:4])),
		Time:  readTime(payload[8:24]),
		Flags: byteOrder.Uint64(payload[24:32]),
	}, nil
}

// Checksum is the payload of a CHECKSUM entry.
type Checksum struct {
	Digest [ChecksumSize]byte
	Time   Time
}

// Encode returns the payload bytes.
func (checksum Checksum) Encode() []byte {
	b := make([]byte, ChecksumEntrySize)
	checksum.encodeTo(b)
	return b
}

func (checksum Checksum) encodeTo(b []byte) {
	copy(b[:ChecksumSize], checksum.Digest[:])
	putTime(b[ChecksumSize:ChecksumEntrySize], checksum.Time)
}

// ParseChecksum decodes a CHECKSUM payload.
func ParseChecksum(payload []byte) (checksum Checksum, err error) {
	if len(payload) != ChecksumEntrySize {
		return Checksum{}, ErrCorrupt.New("checksum size %d, expected %d", len(payload), ChecksumEntrySize)
	}
	copy(checksum.Digest[:], payload[:ChecksumSize])
	checksum.Time = readTime(payload[ChecksumSize:ChecksumEntrySize])
	return checksum, nil
}

// EncodeGroups returns the payload of a GROUPS entry.
func EncodeGroups(groups []int32) []byte {
	b := make([]byte, len(groups)*GroupSize)
	encodeGroupsTo(b, groups)
	return b
}

func encodeGroupsTo(b []byte, groups []int32) {
	for i, group := range groups {
		byteOrder.PutUint32(b[i*GroupSize:], uint32(group))
	}
}

// ParseGroups decodes a GROUPS payload.
func ParseGroups(payload []byte) ([]int32, error) {
	if len(payload)%GroupSize != 0 {
		return nil, ErrCorrupt.New("groups size %d is not a multiple of %d", len(payload), GroupSize)
	}
	groups := make([]int32, 0, len(payload)/GroupSize)
	for pos := 0; pos < len(payload); pos += GroupSize {
		groups = append(groups, int32(byteOrder.Uint32(payload[pos:])))
	}
	return groups, nil
}
