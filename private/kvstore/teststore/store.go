// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

// Package teststore implements an in-memory kvstore.Store.
package teststore

import (
	"context"
	"sort"
	"sync"

	"github.com/spacemonkeygo/monkit/v3"

	"storj.io/metaconvert/private/kvstore"
)

var mon = monkit.Package()

// Client implements in-memory key value store.
type Client struct {
	mu        sync.Mutex
	items     []kvstore.Item
	CallCount struct {
		Get    int
		Put    int
		Delete int
		Range  int
		Close  int
	}
}

// New creates a new in-memory key-value store.
func New() *Client { return &Client{} }

// indexOf finds index of key or where it could be inserted.
func (store *Client) indexOf(key kvstore.Key) (int, bool) {
	i := sort.Search(len(store.items), func(k int) bool {
		return store.items[k].Key.Compare(key) >= 0
	})
	return i, i < len(store.items) && store.items[i].Key.Compare(key) == 0
}

// Put adds a value to store.
func (store *Client) Put(ctx context.Context, key kvstore.Key, value kvstore.Value) (err error) {
	defer mon.Task()(&ctx)(&err)
	store.mu.Lock()
	defer store.mu.Unlock()

	store.CallCount.Put++
	if key.IsZero() {
		return kvstore.ErrEmptyKey.New("")
	}

	keyIndex, found := store.indexOf(key)
	if found {
		store.items[keyIndex].Value = value.Clone()
		return nil
	}

	store.items = append(store.items, kvstore.Item{})
	copy(store.items[keyIndex+1:], store.items[keyIndex:])
	store.items[keyIndex] = kvstore.Item{
		Key:   key.Clone(),
		Value: value.Clone(),
	}
	return nil
}

// Get gets a value to store.
func (store *Client) Get(ctx context.Context, key kvstore.Key) (_ kvstore.Value, err error) {
	defer mon.Task()(&ctx)(&err)
	store.mu.Lock()
	defer store.mu.Unlock()

	store.CallCount.Get++
	if key.IsZero() {
		return nil, kvstore.ErrEmptyKey.New("")
	}

	keyIndex, found := store.indexOf(key)
	if !found {
		return nil, kvstore.ErrKeyNotFound.New("%q", key)
	}
	return store.items[keyIndex].Value.Clone(), nil
}

// Delete deletes key and the value.
func (store *Client) Delete(ctx context.Context, key kvstore.Key) (err error) {
	defer mon.Task()(&ctx)(&err)
	store.mu.Lock()
	defer store.mu.Unlock()

	store.CallCount.Delete++
	if key.IsZero() {
		return kvstore.ErrEmptyKey.New("")
	}

	keyIndex, found := store.indexOf(key)
	if !found {
		return nil
	}
	copy(store.items[keyIndex:], store.items[keyIndex+1:])
	store.items = store.items[:len(store.items)-1]
	return nil
}

// Range iterates over all items in key order. The callback runs on a
// snapshot so it may modify the store.
func (store *Client) Range(ctx context.Context, fn kvstore.RangeFunc) (err error) {
	defer mon.Task()(&ctx)(&err)

	store.mu.Lock()
	store.CallCount.Range++
	items := make([]kvstore.Item, len(store.items))
	copy(items, store.items)
	store.mu.Unlock()

	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(ctx, item.Key, item.Value); err != nil {
			return err
		}
	}
	return nil
}

// Len returns the number of stored items.
func (store *Client) Len() int {
	store.mu.Lock()
	defer store.mu.Unlock()
	return len(store.items)
}

// Close closes the store.
func (store *Client) Close() error {
	store.mu.Lock()
	defer store.mu.Unlock()
	store.CallCount.Close++
	return nil
}
