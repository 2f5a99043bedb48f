// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

// Package testsuite contains the tests shared by every kvstore.Store backend.
package testsuite

import (
	"context"
	"math/rand"
	"sort"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"

	"storj.io/common/testcontext"
	"storj.io/metaconvert/private/kvstore"
)

// RunTests runs common kvstore.Store tests.
func RunTests(t *testing.T, store kvstore.Store) {
	t.Run("CRUD", func(t *testing.T) { testCRUD(t, store) })
	t.Run("Constraints", func(t *testing.T) { testConstraints(t, store) })
	t.Run("Range", func(t *testing.T) { testRange(t, store) })
	t.Run("Parallel", func(t *testing.T) { testParallel(t, store) })
}

func newItem(key, value string) kvstore.Item {
	return kvstore.Item{
		Key:   kvstore.Key(key),
		Value: kvstore.Value(value),
	}
}

func sortItems(items []kvstore.Item) {
	sort.Slice(items, func(i, k int) bool { return items[i].Key.Compare(items[k].Key) < 0 })
}

func cleanupItems(ctx context.Context, store kvstore.Store, items []kvstore.Item) {
	for _, item := range items {
		_ = store.Delete(ctx, item.Key)
	}
}

func testCRUD(t *testing.T, store kvstore.Store) {
	ctx := testcontext.New(t)
	defer ctx.Cleanup()

	items := []kvstore.Item{
		newItem("\x00", "\x00"),
		newItem("a/b", "\x01\x02"),
		newItem("a\\b", "\xFF"),
		newItem("full/path/1", "\x00\xFF\xFF\x00"),
		newItem(string(make([]byte, 64)), "zero key"),
	}
	rand.Shuffle(len(items), func(i, k int) { items[i], items[k] = items[k], items[i] })
	defer cleanupItems(ctx, store, items)

	for _, item := range items {
		require.NoError(t, store.Put(ctx, item.Key, item.Value), "put %q", item.Key)
	}

	for _, item := range items {
		value, err := store.Get(ctx, item.Key)
		require.NoError(t, err, "get %q", item.Key)
		require.Equal(t, []byte(item.Value), []byte(value))
	}

	for _, item := range items {
		next := kvstore.Value(string(item.Value) + "X")
		require.NoError(t, store.Put(ctx, item.Key, next))

		value, err := store.Get(ctx, item.Key)
		require.NoError(t, err)
		require.Equal(t, []byte(next), []byte(value))
	}

	for _, item := range items {
		require.NoError(t, store.Delete(ctx, item.Key))

		_, err := store.Get(ctx, item.Key)
		require.True(t, kvstore.ErrKeyNotFound.Has(err), "get deleted %q: %v", item.Key, err)
	}

	// deleting a missing key is not an error.
	require.NoError(t, store.Delete(ctx, items[0].Key))
}

func testConstraints(t *testing.T, store kvstore.Store) {
	ctx := testcontext.New(t)
	defer ctx.Cleanup()

	err := store.Put(ctx, nil, kvstore.Value("xyz"))
	require.True(t, kvstore.ErrEmptyKey.Has(err), err)

	_, err = store.Get(ctx, nil)
	require.True(t, kvstore.ErrEmptyKey.Has(err), err)

	_, err = store.Get(ctx, kvstore.Key("missing"))
	require.True(t, kvstore.ErrKeyNotFound.Has(err), err)
}

func testRange(t *testing.T, store kvstore.Store) {
	ctx := testcontext.New(t)
	defer ctx.Cleanup()

	var items []kvstore.Item
	for i := 0; i < 50; i++ {
		items = append(items, newItem("range/"+strconv.Itoa(i), strconv.Itoa(i*i)))
	}
	defer cleanupItems(ctx, store, items)

	for _, item := range items {
		require.NoError(t, store.Put(ctx, item.Key, item.Value))
	}

	var got []kvstore.Item
	err := store.Range(ctx, func(ctx context.Context, key kvstore.Key, value kvstore.Value) error {
		got = append(got, kvstore.Item{Key: key.Clone(), Value: value.Clone()})
		return nil
	})
	require.NoError(t, err)

	sortItems(items)
	sortItems(got)
	require.Equal(t, items, got)

	stop := kvstore.ErrKeyNotFound.New("stop")
	calls := 0
	err = store.Range(ctx, func(ctx context.Context, key kvstore.Key, value kvstore.Value) error {
		calls++
		return stop
	})
	require.ErrorIs(t, err, stop)
	require.Equal(t, 1, calls)
}

func testParallel(t *testing.T, store kvstore.Store) {
	ctx := testcontext.New(t)
	defer ctx.Cleanup()

	items := []kvstore.Item{
		newItem("a", "1"),
		newItem("b", "2"),
		newItem("c", "3"),
	}
	rand.Shuffle(len(items), func(i, k int) { items[i], items[k] = items[k], items[i] })
	defer cleanupItems(ctx, store, items)

	t.Run("group", func(t *testing.T) {
		for i := range items {
			item := items[i]
			t.Run(strconv.Itoa(i), func(t *testing.T) {
				t.Parallel()

				require.NoError(t, store.Put(ctx, item.Key, item.Value))

				value, err := store.Get(ctx, item.Key)
				require.NoError(t, err)
				require.Equal(t, []byte(item.Value), []byte(value))

				next := kvstore.Value(string(item.Value) + "X")
				require.NoError(t, store.Put(ctx, item.Key, next))

				value, err = store.Get(ctx, item.Key)
				require.NoError(t, err)
				require.Equal(t, []byte(next), []byte(value))

				require.NoError(t, store.Delete(ctx, item.Key))
			})
		}
	})
}

// RunBenchmarks runs common kvstore.Store benchmarks.
func RunBenchmarks(b *testing.B, store kvstore.Store) {
	ctx := context.Background()

	value := make(kvstore.Value, 512)
	var keys []kvstore.Key
	for i := 0; i < 100; i++ {
		keys = append(keys, kvstore.Key("bench/"+strconv.Itoa(i)))
	}
	defer func() {
		for _, key := range keys {
			_ = store.Delete(ctx, key)
		}
	}()

	b.Run("Put", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			if err := store.Put(ctx, keys[i%len(keys)], value); err != nil {
				b.Fatal(err)
			}
		}
	})

	b.Run("Get", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			if _, err := store.Get(ctx, keys[i%len(keys)]); err != nil {
				b.Fatal(err)
			}
		}
	})
}
