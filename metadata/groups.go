// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

package metadata

import (
	"strconv"
	"strings"
)

// GroupDelimiter separates group numbers in a group list.
const GroupDelimiter = ":"

// ParseGroupList parses a group list like "1:2:3". The special form "autoN"
// requests N automatically chosen groups; it returns no explicit groups and
// auto set to N.
func ParseGroupList(value string) (groups []int32, auto int, err error) {
	value = strings.TrimSpace(value)
	if rest, ok := strings.CutPrefix(value, "auto"); ok {
		auto, err = strconv.Atoi(rest)
		if err != nil || auto <= 0 {
			return nil, 0, ErrInvalidArgument.New("invalid group list %q", value)
		}
		return nil, auto, nil
	}

	for _, field := range strings.Split(value, GroupDelimiter) {
		if field == "" {
			continue
		}
		group, err := strconv.ParseInt(field, 10, 32)
		if err != nil {
			return nil, 0, ErrInvalidArgument.New("invalid group %q: %v", field, err)
		}
		groups = append(groups, int32(group))
	}
	if len(groups) == 0 {
		return nil, 0, ErrInvalidArgument.New("no groups found in %q", value)
	}
	return groups, 0, nil
}
