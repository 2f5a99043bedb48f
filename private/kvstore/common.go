// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

// Package kvstore defines the flat key/value interface that holds one
// metadata record per object key.
package kvstore

import (
	"bytes"
	"context"

	"github.com/zeebo/errs"
)

var (
	// ErrKeyNotFound is returned when a store holds no value for a key.
	ErrKeyNotFound = errs.Class("key not found")
	// ErrEmptyKey is returned when an operation is given an empty key.
	ErrEmptyKey = errs.Class("empty key")
)

// Key addresses a value in a Store.
type Key []byte

// Value is the data stored under a Key.
type Value []byte

// Item is a key together with its value.
type Item struct {
	Key   Key
	Value Value
}

// RangeFunc receives every item of a store. Key and value must not be
// retained after it returns.
type RangeFunc func(ctx context.Context, key Key, value Value) error

// Store is implemented by the bolt, redis and in-memory backends.
type Store interface {
	// Get returns the value of key or ErrKeyNotFound.
	Get(ctx context.Context, key Key) (Value, error)
	// Put stores value under key, replacing any previous value.
	Put(ctx context.Context, key Key, value Value) error
	// Delete removes key. Removing a missing key is not an error.
	Delete(ctx context.Context, key Key) error
	// Range calls fn for every item until fn fails.
	Range(ctx context.Context, fn RangeFunc) error
	// Close releases the store.
	Close() error
}

// IsZero returns whether the key is empty.
func (key Key) IsZero() bool { return len(key) == 0 }

// String returns the raw key bytes as a string.
func (key Key) String() string { return string(key) }

// Compare orders keys bytewise.
func (key Key) Compare(other Key) int { return bytes.Compare(key, other) }

// Clone returns a copy of the key.
func (key Key) Clone() Key { return append(Key(nil), key...) }

// Clone returns a copy of the value. A nil value stays nil.
func (value Value) Clone() Value {
	if value == nil {
		return nil
	}
	return append(Value{}, value...)
}
