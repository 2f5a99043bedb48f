// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

package migrate

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"storj.io/metaconvert/private/kvstore"
	"storj.io/metaconvert/private/kvstore/boltdb"
	"storj.io/metaconvert/private/kvstore/redis"
	"storj.io/metaconvert/private/kvstore/storelogger"
	"storj.io/metaconvert/private/kvstore/teststore"
)

// StoreOptions configure OpenStore.
type StoreOptions struct {
	// SyncInterval is passed to the bolt backend.
	SyncInterval time.Duration
	// ReadOnly opens a bolt file without taking the write lock.
	ReadOnly bool
}

// OpenStore opens the metadata store addressed by url:
//
//	bolt://path or path    bolt database file
//	redis://host:port?db=N redis server
//	memory://              in-memory store
//
// Every call is logged when log has debug enabled.
func OpenStore(ctx context.Context, log *zap.Logger, url string, opts StoreOptions) (_ kvstore.Store, err error) {
	defer mon.Task()(&ctx)(&err)

	if url == "" {
		return nil, ErrArgument.New("store url is empty")
	}

	var store kvstore.Store
	switch {
	case strings.HasPrefix(url, "redis://"):
		store, err = redis.OpenClientFrom(ctx, url)
	case url == "memory://":
		store = teststore.New()
	default:
		store, err = boltdb.New(log.Named("bolt"), strings.TrimPrefix(url, "bolt://"), boltdb.Options{
			SyncInterval: opts.SyncInterval,
			ReadOnly:     opts.ReadOnly,
		})
	}
	if err != nil {
		return nil, Error.Wrap(err)
	}

	if log.Core().Enabled(zap.DebugLevel) {
		store = storelogger.New(log.Named("store"), store)
	}
	return store, nil
}
