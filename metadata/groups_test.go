// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

package metadata_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"storj.io/metaconvert/metadata"
)

func TestParseGroupList(t *testing.T) {
	for _, tt := range []struct {
		in     string
		groups []int32
		auto   int
		err    bool
	}{
		{in: "1", groups: []int32{1}},
		{in: "1:2:3", groups: []int32{1, 2, 3}},
		{in: "::4::5:", groups: []int32{4, 5}},
		{in: "auto3", auto: 3},
		{in: "auto0", err: true},
		{in: "autox", err: true},
		{in: "", err: true},
		{in: ":::", err: true},
		{in: "1:x", err: true},
	} {
		groups, auto, err := metadata.ParseGroupList(tt.in)
		if tt.err {
			require.Error(t, err, tt.in)
			require.True(t, metadata.ErrInvalidArgument.Has(err))
			continue
		}
		require.NoError(t, err, tt.in)
		require.Equal(t, tt.groups, groups, tt.in)
		require.Equal(t, tt.auto, auto, tt.in)
	}
}

func TestParseGroupsCorrupt(t *testing.T) {
	_, err := metadata.ParseGroups([]byte{1, 2, 3})
	require.True(t, metadata.ErrCorrupt.Has(err))

	groups, err := metadata.ParseGroups(nil)
	require.NoError(t, err)
	require.Empty(t, groups)
}

func TestParseHistory(t *testing.T) {
	var key metadata.Key
	key[0] = 0xaa

	first := metadata.HistoryEntry{ID: key, Time: metadata.Time{Sec: 10, Nsec: 20}, Size: 100}
	last := metadata.HistoryEntry{ID: key, Flags: metadata.HistoryFlagRemoved, Time: metadata.Time{Sec: 30}, Offset: 5}

	data := append(first.Encode(), last.Encode()...)
	entries, err := metadata.ParseHistory(data)
	require.NoError(t, err)
	require.Equal(t, []metadata.HistoryEntry{first, last}, entries)
	require.False(t, entries[0].Removed())
	require.True(t, entries[1].Removed())

	_, err = metadata.ParseHistory(data[:len(data)-1])
	require.True(t, metadata.ErrCorrupt.Has(err))
}
