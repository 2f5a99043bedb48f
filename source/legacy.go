// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

package source

import (
	"context"

	"go.uber.org/zap"

	"storj.io/metaconvert/metadata"
	"storj.io/metaconvert/private/kvstore"
)

// VisitFunc is called for every key of a legacy database. The value is only
// valid for the duration of the call.
type VisitFunc func(ctx context.Context, key metadata.Key, value []byte) error

// Legacy walks every pair of a legacy key/value database. Unlike the other
// sources it drives the iteration itself.
type Legacy struct {
	log   *zap.Logger
	store kvstore.Store
}

// NewLegacy returns a source over store.
func NewLegacy(log *zap.Logger, store kvstore.Store) *Legacy {
	return &Legacy{log: log, store: store}
}

// Walk calls visit for every pair whose key has the right width. Other keys
// are logged and skipped.
func (legacy *Legacy) Walk(ctx context.Context, visit VisitFunc) (err error) {
	defer mon.Task()(&ctx)(&err)

	return legacy.store.Range(ctx, func(ctx context.Context, rawKey kvstore.Key, value kvstore.Value) error {
		key, err := metadata.KeyFromBytes(rawKey)
		if err != nil {
			legacy.log.Warn("skipping legacy key", zap.Binary("key", rawKey), zap.Error(err))
			return nil
		}
		return visit(ctx, key, value)
	})
}

// Close closes the underlying database.
func (legacy *Legacy) Close() error {
	return legacy.store.Close()
}
