// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

package metadata_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"storj.io/common/testrand"
	"storj.io/metaconvert/metadata"
)

func randomChecksum() (digest [metadata.ChecksumSize]byte) {
	copy(digest[:], testrand.BytesInt(metadata.ChecksumSize))
	return digest
}

func TestBuildSearch(t *testing.T) {
	now := time.Date(2011, 8, 22, 21, 42, 0, 1234, time.UTC)

	for _, tt := range []struct {
		name    string
		control metadata.Control
	}{
		{"minimal", metadata.Control{Time: now}},
		{"groups", metadata.Control{Time: now, Groups: []int32{1, 2, 3}}},
		{"object", metadata.Control{Time: now, Object: []byte("parent/object")}},
		{"everything", metadata.Control{
			Time:        now,
			Object:      []byte("some object"),
			Groups:      []int32{7, -1, 1 << 30},
			UpdateFlags: metadata.UpdateFlagRemoved,
			Checksum:    randomChecksum(),
		}},
	} {
		t.Run(tt.name, func(t *testing.T) {
			record, err := metadata.Build(tt.control)
			require.NoError(t, err)
			require.Len(t, record, tt.control.Size())

			entry, err := metadata.Search(record, metadata.TypeCheckStatus)
			require.NoError(t, err)
			status, err := metadata.ParseCheckStatus(entry.Payload)
			require.NoError(t, err)
			require.Equal(t, metadata.CheckStatus{}, status)

			entry, err = metadata.Search(record, metadata.TypeUpdate)
			require.NoError(t, err)
			update, err := metadata.ParseUpdate(entry.Payload)
			require.NoError(t, err)
			require.Equal(t, now, update.Time.Time())
			require.Equal(t, tt.control.UpdateFlags, update.Flags)

			entry, err = metadata.Search(record, metadata.TypeParentObject)
			if len(tt.control.Object) == 0 {
				require.True(t, metadata.ErrNotFound.Has(err), err)
			} else {
				require.NoError(t, err)
				require.Equal(t, tt.control.Object, entry.Payload)
			}

			entry, err = metadata.Search(record, metadata.TypeGroups)
			if len(tt.control.Groups) == 0 {
				require.True(t, metadata.ErrNotFound.Has(err), err)
			} else {
				require.NoError(t, err)
				groups, err := metadata.ParseGroups(entry.Payload)
				require.NoError(t, err)
				require.Equal(t, tt.control.Groups, groups)
			}

			entry, err = metadata.Search(record, metadata.TypeChecksum)
			require.NoError(t, err)
			checksum, err := metadata.ParseChecksum(entry.Payload)
			require.NoError(t, err)
			require.Equal(t, tt.control.Checksum, checksum.Digest)
			require.Equal(t, now, checksum.Time.Time())

			parsed, err := metadata.Parse(record)
			require.NoError(t, err)
			require.Equal(t, tt.control.Checksum, parsed.Checksum)
			require.Equal(t, now, parsed.Time)
		})
	}
}

func TestBuildDefaultsToNow(t *testing.T) {
	before := time.Now().Add(-time.Second)

	record, err := metadata.Build(metadata.Control{})
	require.NoError(t, err)

	entry, err := metadata.Search(record, metadata.TypeUpdate)
	require.NoError(t, err)
	update, err := metadata.ParseUpdate(entry.Payload)
	require.NoError(t, err)
	require.True(t, update.Time.Time().After(before))
}

func TestEntryOrder(t *testing.T) {
	record, err := metadata.Build(metadata.Control{
		Object: []byte("x"),
		Groups: []int32{1},
	})
	require.NoError(t, err)

	entries, err := metadata.Entries(record)
	require.NoError(t, err)

	var types []metadata.Type
	total := 0
	for _, entry := range entries {
		types = append(types, entry.Type)
		total += entry.Size()
	}
	require.Equal(t, []metadata.Type{
		metadata.TypeCheckStatus,
		metadata.TypeUpdate,
		metadata.TypeParentObject,
		metadata.TypeGroups,
		metadata.TypeChecksum,
	}, types)
	require.Equal(t, len(record), total)
}

func TestSearchTruncated(t *testing.T) {
	record, err := metadata.Build(metadata.Control{
		Object:   []byte("object"),
		Groups:   []int32{1, 2},
		Checksum: randomChecksum(),
	})
	require.NoError(t, err)

	last := metadata.HeaderSize + metadata.ChecksumEntrySize
	for n := len(record) - last + 1; n < len(record); n++ {
		// a fresh copy has no spare capacity past n.
		truncated := append([]byte(nil), record[:n]...)

		_, err := metadata.Search(truncated, metadata.TypeChecksum)
		require.True(t, metadata.ErrCorrupt.Has(err), "n=%d err=%v", n, err)

		_, err = metadata.Search(truncated, metadata.TypeNamespace)
		require.True(t, metadata.ErrCorrupt.Has(err), "n=%d err=%v", n, err)

		// entries before the damage are still reachable.
		_, err = metadata.Search(truncated, metadata.TypeCheckStatus)
		require.NoError(t, err)
	}

	// cutting exactly at an entry boundary leaves a valid, shorter chain.
	_, err = metadata.Search(record[:len(record)-last], metadata.TypeChecksum)
	require.True(t, metadata.ErrNotFound.Has(err), err)
}

func TestSearchOversizedEntry(t *testing.T) {
	record, err := metadata.Build(metadata.Control{})
	require.NoError(t, err)

	// declare a huge first entry.
	record[4], record[5], record[6], record[7] = 0xff, 0xff, 0xff, 0xff

	_, err = metadata.Search(record, metadata.TypeChecksum)
	require.True(t, metadata.ErrCorrupt.Has(err), err)

	_, err = metadata.Parse(record)
	require.True(t, metadata.ErrCorrupt.Has(err), err)
}

func TestSearchFirstDuplicateWins(t *testing.T) {
	record, err := metadata.Build(metadata.Control{Groups: []int32{1}})
	require.NoError(t, err)
	record = metadata.Append(record, metadata.TypeGroups, metadata.EncodeGroups([]int32{5, 6}))

	entry, err := metadata.Search(record, metadata.TypeGroups)
	require.NoError(t, err)
	groups, err := metadata.ParseGroups(entry.Payload)
	require.NoError(t, err)
	require.Equal(t, []int32{1}, groups)

	entries, err := metadata.Entries(record)
	require.NoError(t, err)
	require.Len(t, entries, 5)
}

func TestReplace(t *testing.T) {
	record, err := metadata.Build(metadata.Control{Checksum: randomChecksum()})
	require.NoError(t, err)

	replacement := metadata.Checksum{
		Digest: randomChecksum(),
		Time:   metadata.TimeOf(time.Unix(100, 5)),
	}
	require.NoError(t, metadata.Replace(record, metadata.TypeChecksum, replacement.Encode()))

	entry, err := metadata.Search(record, metadata.TypeChecksum)
	require.NoError(t, err)
	checksum, err := metadata.ParseChecksum(entry.Payload)
	require.NoError(t, err)
	require.Equal(t, replacement, checksum)

	err = metadata.Replace(record, metadata.TypeChecksum, []byte{1, 2, 3})
	require.True(t, metadata.ErrInvalidArgument.Has(err), err)

	err = metadata.Replace(record, metadata.TypeGroups, nil)
	require.True(t, metadata.ErrNotFound.Has(err), err)
}

func TestUnknownEntriesPreserved(t *testing.T) {
	record, err := metadata.Build(metadata.Control{})
	require.NoError(t, err)
	record = metadata.Append(record, metadata.TypeNamespace, []byte("ns"))

	entry, err := metadata.Search(record, metadata.TypeNamespace)
	require.NoError(t, err)
	require.Equal(t, []byte("ns"), entry.Payload)

	_, err = metadata.Parse(record)
	require.NoError(t, err)
}

func TestKeyFromBytes(t *testing.T) {
	raw := testrand.BytesInt(metadata.KeySize)
	key, err := metadata.KeyFromBytes(raw)
	require.NoError(t, err)
	require.Equal(t, raw, key.Bytes())
	require.Len(t, key.String(), 2*metadata.KeySize)

	_, err = metadata.KeyFromBytes(raw[:10])
	require.True(t, metadata.ErrInvalidArgument.Has(err))
}
