// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

// Package storelogger decorates a kvstore.Store with debug logging.
package storelogger

import (
	"context"
	"strconv"
	"sync/atomic"

	"github.com/spacemonkeygo/monkit/v3"
	"go.uber.org/zap"

	"storj.io/metaconvert/private/kvstore"
)

var mon = monkit.Package()

// instances numbers the loggers so that concurrent stores can be told apart.
var instances atomic.Int64

// previewLength is how many value bytes are included in a log line.
const previewLength = 16

// Logger logs every call made to the wrapped store.
type Logger struct {
	log   *zap.Logger
	store kvstore.Store
}

var _ kvstore.Store = (*Logger)(nil)

// New wraps store. Calls are logged at debug level to a child of log.
func New(log *zap.Logger, store kvstore.Store) *Logger {
	return &Logger{
		log:   log.Named(strconv.FormatInt(instances.Add(1), 10)),
		store: store,
	}
}

// Get logs the lookup together with its result.
func (logger *Logger) Get(ctx context.Context, key kvstore.Key) (value kvstore.Value, err error) {
	defer mon.Task()(&ctx)(&err)
	value, err = logger.store.Get(ctx, key)
	logger.log.Debug("Get", zap.Binary("key", key), zap.Int("value length", len(value)), zap.Error(err))
	return value, err
}

// Put logs the write together with its result.
func (logger *Logger) Put(ctx context.Context, key kvstore.Key, value kvstore.Value) (err error) {
	defer mon.Task()(&ctx)(&err)
	err = logger.store.Put(ctx, key, value)
	logger.log.Debug("Put", zap.Binary("key", key), zap.Int("value length", len(value)),
		zap.Binary("value preview", preview(value)), zap.Error(err))
	return err
}

// Delete logs the removal.
func (logger *Logger) Delete(ctx context.Context, key kvstore.Key) (err error) {
	defer mon.Task()(&ctx)(&err)
	err = logger.store.Delete(ctx, key)
	logger.log.Debug("Delete", zap.Binary("key", key), zap.Error(err))
	return err
}

// Range logs every visited item.
func (logger *Logger) Range(ctx context.Context, fn kvstore.RangeFunc) (err error) {
	defer mon.Task()(&ctx)(&err)

	count := 0
	err = logger.store.Range(ctx, func(ctx context.Context, key kvstore.Key, value kvstore.Value) error {
		count++
		logger.log.Debug("Range item", zap.Binary("key", key), zap.Int("value length", len(value)),
			zap.Binary("value preview", preview(value)))
		return fn(ctx, key, value)
	})
	logger.log.Debug("Range", zap.Int("items", count), zap.Error(err))
	return err
}

// Close closes the wrapped store.
func (logger *Logger) Close() error {
	logger.log.Debug("Close")
	return logger.store.Close()
}

func preview(value kvstore.Value) []byte {
	if len(value) > previewLength {
		return value[:previewLength]
	}
	return value
}
