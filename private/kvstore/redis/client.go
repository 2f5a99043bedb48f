// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

// Package redis keeps metadata records in a redis database.
package redis

import (
	"context"
	"errors"
	"net/url"
	"strconv"

	"github.com/redis/go-redis/v9"
	"github.com/spacemonkeygo/monkit/v3"
	"github.com/zeebo/errs"

	"storj.io/metaconvert/private/kvstore"
)

var (
	// Error is the default redis errs class.
	Error = errs.Class("redis")

	mon = monkit.Package()
)

// scanCount is the page size hint of the SCAN calls made by Range.
const scanCount = 1000

// Client implements kvstore.Store on top of a single redis database.
type Client struct {
	db *redis.Client
}

var _ kvstore.Store = (*Client)(nil)

// OpenClient connects to the database db of the server at address. The
// connection is checked before returning.
func OpenClient(ctx context.Context, address, password string, db int) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, errs.Combine(Error.New("unable to reach %q: %v", address, err), rdb.Close())
	}
	return &Client{db: rdb}, nil
}

// OpenClientFrom connects using a redis://host:port?db=N&password=P address.
// The database defaults to 0.
func OpenClientFrom(ctx context.Context, address string) (*Client, error) {
	parsed, err := url.Parse(address)
	if err != nil {
		return nil, Error.Wrap(err)
	}
	if parsed.Scheme != "redis" {
		return nil, Error.New("expected a redis:// address, got %q", address)
	}

	query := parsed.Query()
	db := 0
	if raw := query.Get("db"); raw != "" {
		if db, err = strconv.Atoi(raw); err != nil {
			return nil, Error.New("invalid db %q: %v", raw, err)
		}
	}

	return OpenClient(ctx, parsed.Host, query.Get("password"), db)
}

// Get returns the value stored under key.
func (client *Client) Get(ctx context.Context, key kvstore.Key) (_ kvstore.Value, err error) {
	defer mon.Task()(&ctx)(&err)
	if key.IsZero() {
		return nil, kvstore.ErrEmptyKey.New("")
	}
	return client.get(ctx, key.String())
}

func (client *Client) get(ctx context.Context, key string) (kvstore.Value, error) {
	value, err := client.db.Get(ctx, key).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		return nil, kvstore.ErrKeyNotFound.New("%q", key)
	case err != nil:
		return nil, Error.New("get: %v", err)
	}
	return value, nil
}

// Put stores value under key without expiration.
func (client *Client) Put(ctx context.Context, key kvstore.Key, value kvstore.Value) (err error) {
	defer mon.Task()(&ctx)(&err)
	if key.IsZero() {
		return kvstore.ErrEmptyKey.New("")
	}
	if err := client.db.Set(ctx, key.String(), []byte(value), 0).Err(); err != nil {
		return Error.New("set: %v", err)
	}
	return nil
}

// Delete removes key.
func (client *Client) Delete(ctx context.Context, key kvstore.Key) (err error) {
	defer mon.Task()(&ctx)(&err)
	if key.IsZero() {
		return kvstore.ErrEmptyKey.New("")
	}
	if err := client.db.Del(ctx, key.String()).Err(); err != nil {
		return Error.New("del: %v", err)
	}
	return nil
}

// Range scans the whole database. Consecutive duplicates reported by SCAN
// are dropped; a key may still be visited twice when the keyspace is
// rehashed during the scan. Keys deleted during the scan are skipped.
func (client *Client) Range(ctx context.Context, fn kvstore.RangeFunc) (err error) {
	defer mon.Task()(&ctx)(&err)

	var last string
	var seen bool
	it := client.db.Scan(ctx, 0, "", scanCount).Iterator()
	for it.Next(ctx) {
		key := it.Val()
		if seen && key == last {
			continue
		}
		last, seen = key, true

		value, err := client.get(ctx, key)
		if kvstore.ErrKeyNotFound.Has(err) {
			continue
		}
		if err != nil {
			return err
		}
		if err := fn(ctx, kvstore.Key(key), value); err != nil {
			return err
		}
	}
	return Error.Wrap(it.Err())
}

// FlushDB removes every key of the database.
func (client *Client) FlushDB(ctx context.Context) error {
	return Error.Wrap(client.db.FlushDB(ctx).Err())
}

// Close disconnects from the server.
func (client *Client) Close() error {
	return Error.Wrap(client.db.Close())
}
