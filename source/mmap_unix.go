// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

//go:build linux || darwin || freebsd || netbsd || openbsd

package source

import (
	"os"

	"golang.org/x/sys/unix"
)

func mmap(fh *os.File, size int64) ([]byte, func() error, error) {
	data, err := unix.Mmap(int(fh.Fd()), 0, int(size), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, nil, err
	}
	// records are handed out in file order.
	_ = unix.Madvise(data, unix.MADV_SEQUENTIAL)
	return data, func() error { return unix.Munmap(data) }, nil
}
