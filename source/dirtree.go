// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

package source

import (
	"context"
	"encoding/hex"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"storj.io/metaconvert/metadata"
)

// QuarantineDir is the directory below the root that receives quarantined
// files. It is not walked.
const QuarantineDir = "quarantine"

// KeyNameLength is the length of a file name holding a hex encoded key.
const KeyNameLength = 2 * metadata.KeySize

// DirectoryTree iterates the files below a root directory whose names are hex
// encoded keys.
type DirectoryTree struct {
	log  *zap.Logger
	root string

	stack []dirFrame
}

type dirFrame struct {
	path    string
	entries []fs.DirEntry
}

var _ Iterator = (*DirectoryTree)(nil)

// OpenDirectoryTree starts a walk of root.
func OpenDirectoryTree(ctx context.Context, log *zap.Logger, root string) (_ *DirectoryTree, err error) {
	defer mon.Task()(&ctx)(&err)

	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, Error.Wrap(err)
	}

	return &DirectoryTree{
		log:   log,
		root:  root,
		stack: []dirFrame{{path: root, entries: entries}},
	}, nil
}

// ParseKeyHex decodes a hex file name into a key. A trailing lone digit is
// padded with '0' and short names are zero filled.
func ParseKeyHex(name string) (key metadata.Key, err error) {
	if len(name) > KeyNameLength {
		return key, Error.New("key name has %d characters, at most %d allowed", len(name), KeyNameLength)
	}
	if len(name)%2 == 1 {
		name += "0"
	}
	b, err := hex.DecodeString(name)
	if err != nil {
		return key, Error.New("invalid key name %q: %v", name, err)
	}
	copy(key[:], b)
	return key, nil
}

// Next returns the next file with a valid key name and a non-zero size.
func (it *DirectoryTree) Next(ctx context.Context) (*Record, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if len(it.stack) == 0 {
			return nil, ErrEndOfSequence
		}

		top := &it.stack[len(it.stack)-1]
		if len(top.entries) == 0 {
			it.stack = it.stack[:len(it.stack)-1]
			continue
		}
		entry := top.entries[0]
		top.entries = top.entries[1:]

		name := entry.Name()
		path := filepath.Join(top.path, name)

		if entry.IsDir() {
			if top.path == it.root && name == QuarantineDir {
				continue
			}
			entries, err := os.ReadDir(path)
			if err != nil {
				it.log.Warn("skipping directory", zap.String("path", path), zap.Error(err))
				continue
			}
			it.stack = append(it.stack, dirFrame{path: path, entries: entries})
			continue
		}

		if len(name) != KeyNameLength {
			continue
		}

		key, err := ParseKeyHex(name)
		if err != nil {
			it.log.Debug("skipping file", zap.String("path", path), zap.Error(err))
			continue
		}

		info, err := os.Stat(path)
		if err != nil {
			it.log.Warn("skipping file", zap.String("path", path), zap.Error(err))
			continue
		}
		if info.IsDir() || info.Size() == 0 {
			continue
		}

		it.log.Debug("file", zap.String("path", path))

		size := uint64(info.Size())
		return &Record{
			Key:    key,
			Path:   path,
			Data:   &fileData{path: path, size: info.Size()},
			Offset: 0,
			Length: size,
		}, nil
	}
}

// Quarantine moves the file of rec into the quarantine directory.
func (it *DirectoryTree) Quarantine(ctx context.Context, rec *Record) (err error) {
	defer mon.Task()(&ctx)(&err)

	dir := filepath.Join(it.root, QuarantineDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Error.Wrap(err)
	}
	return Error.Wrap(os.Rename(rec.Path, filepath.Join(dir, filepath.Base(rec.Path))))
}

// Remove deletes the file of rec.
func (it *DirectoryTree) Remove(ctx context.Context, rec *Record) (err error) {
	defer mon.Task()(&ctx)(&err)
	return Error.Wrap(os.Remove(rec.Path))
}

// Close stops the walk.
func (it *DirectoryTree) Close() error {
	it.stack = nil
	return nil
}
