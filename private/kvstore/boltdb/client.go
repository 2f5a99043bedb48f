// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

// Package boltdb implements kvstore.Store on top of a bolt database file.
package boltdb

import (
	"context"
	"sync"
	"time"

	"github.com/spacemonkeygo/monkit/v3"
	"github.com/zeebo/errs"
	bolt "go.etcd.io/bbolt"
	"go.uber.org/zap"

	"storj.io/metaconvert/private/kvstore"
)

var (
	// Error is the default boltdb errs class.
	Error = errs.Class("boltdb")

	mon = monkit.Package()
)

const (
	// fileMode sets permissions so owner can read and write.
	fileMode = 0o600
	// defaultTimeout is how long Open waits for the file lock.
	defaultTimeout = 1 * time.Second
	// DefaultBucket is the bucket used when Options.Bucket is empty.
	DefaultBucket = "metadata"
)

// Options configure a Client.
type Options struct {
	// Bucket holds every key of the store.
	Bucket string
	// SyncInterval flushes the file periodically instead of on every commit.
	// Zero syncs on every commit.
	SyncInterval time.Duration
	// ReadOnly opens the file with a shared lock and rejects writes.
	ReadOnly bool
}

// Client is the entrypoint into a bolt database.
type Client struct {
	log    *zap.Logger
	db     *bolt.DB
	Path   string
	Bucket []byte

	stop    chan struct{}
	stopped sync.WaitGroup
	once    sync.Once
}

// New opens or creates the bolt database at path.
func New(log *zap.Logger, path string, opts Options) (*Client, error) {
	if opts.Bucket == "" {
		opts.Bucket = DefaultBucket
	}

	db, err := bolt.Open(path, fileMode, &bolt.Options{
		Timeout:  defaultTimeout,
		ReadOnly: opts.ReadOnly,
	})
	if err != nil {
		return nil, Error.New("open %q: %v", path, err)
	}

	client := &Client{
		log:    log,
		db:     db,
		Path:   path,
		Bucket: []byte(opts.Bucket),
		stop:   make(chan struct{}),
	}

	if !opts.ReadOnly {
		err = db.Update(func(tx *bolt.Tx) error {
			_, err := tx.CreateBucketIfNotExists(client.Bucket)
			return err
		})
		if err != nil {
			return nil, errs.Combine(Error.Wrap(err), db.Close())
		}
	}

	if opts.SyncInterval > 0 && !opts.ReadOnly {
		db.NoSync = true
		client.stopped.Add(1)
		go client.syncLoop(opts.SyncInterval)
	}

	return client, nil
}

// syncLoop flushes the database file every interval until Close.
func (client *Client) syncLoop(interval time.Duration) {
	defer client.stopped.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-client.stop:
			return
		case <-ticker.C:
			if err := client.db.Sync(); err != nil {
				client.log.Error("sync failed", zap.String("path", client.Path), zap.Error(err))
			}
		}
	}
}

// Put adds a value to store. Every call is its own transaction; with a sync
// interval the fsync is deferred to the sync loop.
func (client *Client) Put(ctx context.Context, key kvstore.Key, value kvstore.Value) (err error) {
	defer mon.Task()(&ctx)(&err)
	if key.IsZero() {
		return kvstore.ErrEmptyKey.New("")
	}

	return Error.Wrap(client.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(client.Bucket)
		if bucket == nil {
			return Error.New("missing bucket %q", client.Bucket)
		}
		return bucket.Put(key, value)
	}))
}

// Get gets a value to store.
func (client *Client) Get(ctx context.Context, key kvstore.Key) (_ kvstore.Value, err error) {
	defer mon.Task()(&ctx)(&err)
	if key.IsZero() {
		return nil, kvstore.ErrEmptyKey.New("")
	}

	var value kvstore.Value
	err = client.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(client.Bucket)
		if bucket == nil {
			return kvstore.ErrKeyNotFound.New("%q", key)
		}
		data := bucket.Get(key)
		if data == nil {
			return kvstore.ErrKeyNotFound.New("%q", key)
		}
		// data is only valid for the life of the transaction.
		value = kvstore.Value(data).Clone()
		return nil
	})
	if kvstore.ErrKeyNotFound.Has(err) {
		return nil, err
	}
	return value, Error.Wrap(err)
}

// Delete deletes key and the value.
func (client *Client) Delete(ctx context.Context, key kvstore.Key) (err error) {
	defer mon.Task()(&ctx)(&err)
	if key.IsZero() {
		return kvstore.ErrEmptyKey.New("")
	}

	return Error.Wrap(client.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(client.Bucket)
		if bucket == nil {
			return nil
		}
		return bucket.Delete(key)
	}))
}

// Range iterates over all items in key order within one read transaction.
func (client *Client) Range(ctx context.Context, fn kvstore.RangeFunc) (err error) {
	defer mon.Task()(&ctx)(&err)

	return client.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(client.Bucket)
		if bucket == nil {
			return nil
		}
		return bucket.ForEach(func(key, value []byte) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return fn(ctx, key, value)
		})
	})
}

// Close stops the sync loop, flushes pending writes and closes the file.
func (client *Client) Close() (err error) {
	client.once.Do(func() {
		close(client.stop)
		client.stopped.Wait()

		if client.db.NoSync {
			err = client.db.Sync()
		}
		err = errs.Combine(err, client.db.Close())
	})
	return Error.Wrap(err)
}
