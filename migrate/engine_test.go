// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

package migrate

import (
	"context"
	"crypto/sha512"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"storj.io/common/testcontext"
	"storj.io/common/testrand"
	"storj.io/metaconvert/metadata"
	"storj.io/metaconvert/private/kvstore"
	"storj.io/metaconvert/private/kvstore/teststore"
	"storj.io/metaconvert/source"
)

var updateDate = time.Date(2011, 8, 22, 21, 42, 0, 0, time.UTC)

func testConfig(workers int) Config {
	config := DefaultConfig()
	config.Workers = workers
	config.ProgressFrequency = 3
	config.UpdateDate = updateDate
	return config
}

func randomKey() (key metadata.Key) {
	copy(key[:], testrand.BytesInt(metadata.KeySize))
	return key
}

// writeBlobs writes pairs base.0 ... base.N-1 with perPair objects each and
// returns the object data by key.
func writeBlobs(t *testing.T, base string, pairs, perPair int) map[metadata.Key][]byte {
	objects := map[metadata.Key][]byte{}
	for suffix := 0; suffix < pairs; suffix++ {
		var data, index []byte
		for i := 0; i < perPair; i++ {
			key, object := randomKey(), testrand.BytesInt(1+testrand.Intn(100))
			objects[key] = object

			rec := source.IndexRecord{
				Key:      key,
				Position: uint64(len(data)),
				DataSize: uint64(len(object)),
				DiskSize: uint64(source.IndexRecordSize + len(object)),
			}
			data = append(data, rec.Encode()...)
			data = append(data, object...)
			index = append(index, rec.Encode()...)
		}
		path := source.DataPath(base, suffix)
		require.NoError(t, os.WriteFile(path, data, 0o644))
		require.NoError(t, os.WriteFile(path+source.IndexSuffix, index, 0o644))
	}
	return objects
}

func dump(t *testing.T, ctx context.Context, store kvstore.Store) map[string][]byte {
	values := map[string][]byte{}
	require.NoError(t, store.Range(ctx, func(ctx context.Context, key kvstore.Key, value kvstore.Value) error {
		values[string(key)] = append([]byte(nil), value...)
		return nil
	}))
	return values
}

func searchGroups(t *testing.T, record []byte) []int32 {
	entry, err := metadata.Search(record, metadata.TypeGroups)
	require.NoError(t, err)
	groups, err := metadata.ParseGroups(entry.Payload)
	require.NoError(t, err)
	return groups
}

func searchChecksum(t *testing.T, record []byte) metadata.Checksum {
	entry, err := metadata.Search(record, metadata.TypeChecksum)
	require.NoError(t, err)
	checksum, err := metadata.ParseChecksum(entry.Payload)
	require.NoError(t, err)
	return checksum
}

func searchUpdate(t *testing.T, record []byte) metadata.Update {
	entry, err := metadata.Search(record, metadata.TypeUpdate)
	require.NoError(t, err)
	update, err := metadata.ParseUpdate(entry.Payload)
	require.NoError(t, err)
	return update
}

func TestProcessDirectory(t *testing.T) {
	ctx := testcontext.New(t)
	defer ctx.Cleanup()

	root := ctx.Dir("objects")
	key := randomKey()
	data := []byte("0123456789")
	require.NoError(t, os.WriteFile(filepath.Join(root, key.String()), data, 0o644))

	store := teststore.New()
	config := testConfig(4)
	config.Groups = []int32{1, 2}
	config.Checksum = true

	engine, err := New(zaptest.NewLogger(t), store, config)
	require.NoError(t, err)

	stats, err := engine.ProcessPath(ctx, root)
	require.NoError(t, err)
	require.Equal(t, int64(1), stats.Seen)
	require.Equal(t, int64(1), stats.Processed)
	require.Equal(t, int64(1), stats.Created)

	record, err := store.Get(ctx, key.Bytes())
	require.NoError(t, err)

	require.Equal(t, []int32{1, 2}, searchGroups(t, record))
	require.Equal(t, sha512.Sum512(data), searchChecksum(t, record).Digest)
	require.Equal(t, updateDate, searchUpdate(t, record).Time.Time())
	require.False(t, searchUpdate(t, record).Removed())
}

func TestProcessIdempotent(t *testing.T) {
	ctx := testcontext.New(t)
	defer ctx.Cleanup()

	base := filepath.Join(ctx.Dir("blob"), "data")
	objects := writeBlobs(t, base, 3, 5)

	store := teststore.New()
	config := testConfig(8)
	config.Checksum = true

	engine, err := New(zaptest.NewLogger(t), store, config)
	require.NoError(t, err)

	stats, err := engine.ProcessPath(ctx, base)
	require.NoError(t, err)
	require.Equal(t, int64(len(objects)), stats.Created)
	first := dump(t, ctx, store)
	require.Len(t, first, len(objects))

	puts := store.CallCount.Put
	stats, err = engine.ProcessPath(ctx, base)
	require.NoError(t, err)
	require.Equal(t, int64(len(objects)), stats.Unchanged)
	require.Zero(t, stats.Created+stats.Updated+stats.Failed+stats.Skipped)
	require.Equal(t, puts, store.CallCount.Put)
	require.Equal(t, first, dump(t, ctx, store))

	for key, data := range objects {
		require.Equal(t, sha512.Sum512(data), searchChecksum(t, first[string(key.Bytes())]).Digest)
	}
}

func TestProcessWorkerCountConverges(t *testing.T) {
	ctx := testcontext.New(t)
	defer ctx.Cleanup()

	base := filepath.Join(ctx.Dir("blob"), "data")
	objects := writeBlobs(t, base, 4, 25)

	results := map[int]map[string][]byte{}
	for _, workers := range []int{1, 16} {
		store := teststore.New()
		config := testConfig(workers)
		config.Checksum = true

		engine, err := New(zaptest.NewLogger(t), store, config)
		require.NoError(t, err)

		stats, err := engine.ProcessPath(ctx, base)
		require.NoError(t, err)
		require.Equal(t, int64(len(objects)), stats.Seen)
		require.Equal(t, int64(len(objects)), stats.Created)

		results[workers] = dump(t, ctx, store)
	}
	require.Empty(t, cmp.Diff(results[1], results[16]))
}

func TestProcessMissingSource(t *testing.T) {
	ctx := testcontext.New(t)
	defer ctx.Cleanup()

	engine, err := New(zaptest.NewLogger(t), teststore.New(), testConfig(2))
	require.NoError(t, err)

	_, err = engine.ProcessPath(ctx, filepath.Join(ctx.Dir("blob"), "missing"))
	require.Error(t, err)
}

func TestProcessCanceled(t *testing.T) {
	ctx := testcontext.New(t)
	defer ctx.Cleanup()

	base := filepath.Join(ctx.Dir("blob"), "data")
	writeBlobs(t, base, 1, 10)

	engine, err := New(zaptest.NewLogger(t), teststore.New(), testConfig(4))
	require.NoError(t, err)

	canceled, cancel := context.WithCancel(ctx)
	cancel()

	stats, err := engine.ProcessPath(canceled, base)
	require.ErrorIs(t, err, context.Canceled)
	require.Zero(t, stats.Processed)
}

func TestUpsertLengthMismatch(t *testing.T) {
	ctx := testcontext.New(t)
	defer ctx.Cleanup()

	store := teststore.New()
	engine, err := New(zaptest.NewLogger(t), store, testConfig(1))
	require.NoError(t, err)

	data := source.Bytes(make([]byte, 10))
	require.Equal(t, skipped, engine.upsert(ctx, randomKey(), data, 5, 6))
	require.Equal(t, skipped, engine.upsert(ctx, randomKey(), data, 11, 0))
	require.Equal(t, skipped, engine.upsert(ctx, randomKey(), data, 1, ^uint64(0)))
	require.Zero(t, store.CallCount.Put)

	require.Equal(t, created, engine.upsert(ctx, randomKey(), data, 5, 5))
}

func TestUpsertChecksumMismatch(t *testing.T) {
	ctx := testcontext.New(t)
	defer ctx.Cleanup()

	store := teststore.New()
	config := testConfig(1)
	config.Groups = []int32{3, 4}
	config.Checksum = true

	engine, err := New(zaptest.NewLogger(t), store, config)
	require.NoError(t, err)

	key := randomKey()
	original, changed := testrand.BytesInt(32), testrand.BytesInt(32)

	require.Equal(t, created, engine.upsert(ctx, key, source.Bytes(original), 0, 32))
	before, err := store.Get(ctx, key.Bytes())
	require.NoError(t, err)

	// a different configuration does not touch the other entries.
	engine.config.Groups = []int32{9}
	require.Equal(t, updated, engine.upsert(ctx, key, source.Bytes(changed), 0, 32))

	after, err := store.Get(ctx, key.Bytes())
	require.NoError(t, err)
	require.Len(t, after, len(before))

	require.Equal(t, []int32{3, 4}, searchGroups(t, after))
	require.Equal(t, searchUpdate(t, before), searchUpdate(t, after))
	checksum := searchChecksum(t, after)
	require.Equal(t, sha512.Sum512(changed), checksum.Digest)
	require.True(t, checksum.Time.Time().After(updateDate))

	require.Equal(t, unchanged, engine.upsert(ctx, key, source.Bytes(changed), 0, 32))
}

func TestUpsertExistingRecord(t *testing.T) {
	ctx := testcontext.New(t)
	defer ctx.Cleanup()

	store := teststore.New()
	data := source.Bytes(testrand.BytesInt(10))

	withoutChecksum := randomKey()
	record := metadata.Append(nil, metadata.TypeCheckStatus, metadata.CheckStatus{}.Encode())
	record = metadata.Append(record, metadata.TypeUpdate, metadata.Update{}.Encode())
	require.NoError(t, store.Put(ctx, withoutChecksum.Bytes(), record))

	corrupt := randomKey()
	require.NoError(t, store.Put(ctx, corrupt.Bytes(), []byte{1, 2, 3}))

	wrong := randomKey()
	record, err := metadata.Build(metadata.Control{})
	require.NoError(t, err)
	require.NoError(t, store.Put(ctx, wrong.Bytes(), record))

	puts := store.CallCount.Put

	disabled, err := New(zaptest.NewLogger(t), store, testConfig(1))
	require.NoError(t, err)
	require.Equal(t, unchanged, disabled.upsert(ctx, withoutChecksum, data, 0, 10))
	require.Equal(t, unchanged, disabled.upsert(ctx, corrupt, data, 0, 10))
	require.Equal(t, unchanged, disabled.upsert(ctx, wrong, data, 0, 10))
	require.Equal(t, puts, store.CallCount.Put)

	config := testConfig(1)
	config.Checksum = true
	enabled, err := New(zaptest.NewLogger(t), store, config)
	require.NoError(t, err)
	require.Equal(t, unchanged, enabled.upsert(ctx, withoutChecksum, data, 0, 10))
	require.Equal(t, skipped, enabled.upsert(ctx, corrupt, data, 0, 10))
	require.Equal(t, puts, store.CallCount.Put)

	require.Equal(t, updated, enabled.upsert(ctx, wrong, data, 0, 10))
	require.Equal(t, puts+1, store.CallCount.Put)
}

type failingStore struct {
	kvstore.Store
}

func (failingStore) Get(ctx context.Context, key kvstore.Key) (kvstore.Value, error) {
	return nil, Error.New("unavailable")
}

func TestUpsertStoreFailure(t *testing.T) {
	ctx := testcontext.New(t)
	defer ctx.Cleanup()

	engine, err := New(zaptest.NewLogger(t), failingStore{teststore.New()}, testConfig(1))
	require.NoError(t, err)
	require.Equal(t, failed, engine.upsert(ctx, randomKey(), source.Bytes([]byte("x")), 0, 1))
}

func TestConfigVerify(t *testing.T) {
	defaults := DefaultConfig()
	require.NoError(t, defaults.Verify())

	for _, mutate := range []func(*Config){
		func(config *Config) { config.Workers = 0 },
		func(config *Config) { config.Groups = nil },
		func(config *Config) { config.ProgressFrequency = -1 },
	} {
		config := DefaultConfig()
		mutate(&config)
		require.True(t, ErrArgument.Has(config.Verify()))

		_, err := New(zaptest.NewLogger(t), teststore.New(), config)
		require.True(t, ErrArgument.Has(err))
	}

	config := DefaultConfig()
	config.Groups = nil
	config.AutoGroups = 2
	require.NoError(t, config.Verify())
}
