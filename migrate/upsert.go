// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

package migrate

import (
	"context"
	"crypto/sha512"
	"io"
	"time"

	"go.uber.org/zap"

	"storj.io/common/memory"
	"storj.io/metaconvert/metadata"
	"storj.io/metaconvert/private/kvstore"
	"storj.io/metaconvert/source"
)

// upsert creates the metadata record of key when it is missing. When
// checksums are enabled an existing record gets its CHECKSUM entry refreshed
// if the digest of the object changed; other entries are left as they are.
func (engine *Engine) upsert(ctx context.Context, key metadata.Key, data source.Data, offset, length uint64) outcome {
	log := engine.log.With(zap.Stringer("key", key))

	size := uint64(data.Size())
	if offset > size || length > size-offset {
		log.Warn("skipping record", zap.Error(ErrLengthMismatch.New("offset=%d size=%d file size=%d", offset, length, size)))
		return skipped
	}

	value, err := engine.store.Get(ctx, key.Bytes())
	switch {
	case kvstore.ErrKeyNotFound.Has(err):
		return engine.create(ctx, log, key, data, offset, length)
	case err != nil:
		log.Error("metadata read failed", zap.Error(err))
		return failed
	case !engine.config.Checksum:
		return unchanged
	}

	entry, err := metadata.Search(value, metadata.TypeChecksum)
	if metadata.ErrNotFound.Has(err) {
		return unchanged
	}
	if err != nil {
		log.Error("skipping record", zap.Error(err))
		return skipped
	}
	current, err := metadata.ParseChecksum(entry.Payload)
	if err != nil {
		log.Error("skipping record", zap.Error(err))
		return skipped
	}

	digest, err := checksum(data, offset, length)
	if err != nil {
		log.Error("checksum failed", zap.Error(err))
		return failed
	}
	if digest == current.Digest {
		return unchanged
	}

	log.Info("checksum mismatch, updating with the new one")
	fresh := metadata.Checksum{Digest: digest, Time: metadata.TimeOf(time.Now())}
	if err := metadata.Replace(value, metadata.TypeChecksum, fresh.Encode()); err != nil {
		log.Error("skipping record", zap.Error(err))
		return skipped
	}
	if err := engine.store.Put(ctx, key.Bytes(), value); err != nil {
		log.Error("metadata write failed", zap.Error(err))
		return failed
	}
	return updated
}

// create builds and stores a new record for key.
func (engine *Engine) create(ctx context.Context, log *zap.Logger, key metadata.Key, data source.Data, offset, length uint64) outcome {
	control := metadata.Control{
		Groups: engine.config.Groups,
		Time:   engine.config.UpdateDate,
	}
	if engine.config.AutoGroups > 0 {
		control.Groups = nil
	}

	if engine.config.Checksum {
		digest, err := checksum(data, offset, length)
		if err != nil {
			log.Error("checksum failed", zap.Error(err))
			return failed
		}
		control.Checksum = digest
	}

	record, err := metadata.Build(control)
	if err != nil {
		log.Error("metadata creation failed", zap.Error(err))
		return failed
	}
	if err := engine.store.Put(ctx, key.Bytes(), record); err != nil {
		log.Error("metadata write failed", zap.Error(err))
		return failed
	}

	log.Debug("created metadata", zap.Stringer("object size", memory.Size(length)))
	return created
}

// checksum returns the SHA-512 digest of length bytes of data at offset.
func checksum(data io.ReaderAt, offset, length uint64) (digest [metadata.ChecksumSize]byte, err error) {
	h := sha512.New()
	if _, err := io.Copy(h, io.NewSectionReader(data, int64(offset), int64(length))); err != nil {
		return digest, Error.Wrap(err)
	}
	copy(digest[:], h.Sum(nil))
	return digest, nil
}
