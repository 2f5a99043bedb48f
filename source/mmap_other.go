// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

//go:build !(linux || darwin || freebsd || netbsd || openbsd)

package source

import (
	"io"
	"os"
)

func mmap(fh *os.File, size int64) ([]byte, func() error, error) {
	data := make([]byte, size)
	if _, err := io.ReadFull(fh, data); err != nil {
		return nil, nil, err
	}
	return data, func() error { return nil }, nil
}
