// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

package migrate

import (
	"context"

	"go.uber.org/zap"

	"storj.io/metaconvert/metadata"
	"storj.io/metaconvert/private/kvstore"
	"storj.io/metaconvert/source"
)

// Cleanup checks every record of it against the store: files without
// metadata are quarantined and files whose metadata marks them removed are
// deleted.
func (engine *Engine) Cleanup(ctx context.Context, it source.Iterator) (_ Stats, err error) {
	defer mon.Task()(&ctx)(&err)

	run := engine.newRun("cleanup")
	err = run.pull(ctx, it, func(ctx context.Context, rec *source.Record) {
		run.count(run.cleanup(ctx, it, rec))
	})
	return run.finish(), err
}

func (run *run) cleanup(ctx context.Context, it source.Iterator, rec *source.Record) outcome {
	log := run.log.With(zap.Stringer("key", rec.Key), zap.String("path", rec.Path))

	value, err := run.engine.store.Get(ctx, rec.Key.Bytes())
	switch {
	case kvstore.ErrKeyNotFound.Has(err):
		if err := run.locked(func() error { return it.Quarantine(ctx, rec) }); err != nil {
			log.Error("quarantine failed", zap.Error(err))
			return failed
		}
		log.Info("quarantined object without metadata")
		return quarantined
	case err != nil:
		log.Error("metadata read failed", zap.Error(err))
		return failed
	}

	entry, err := metadata.Search(value, metadata.TypeUpdate)
	if metadata.ErrNotFound.Has(err) {
		return unchanged
	}
	if err != nil {
		log.Error("skipping record", zap.Error(err))
		return skipped
	}
	update, err := metadata.ParseUpdate(entry.Payload)
	if err != nil {
		log.Error("skipping record", zap.Error(err))
		return skipped
	}
	if !update.Removed() {
		return unchanged
	}

	if err := run.locked(func() error { return it.Remove(ctx, rec) }); err != nil {
		log.Error("remove failed", zap.Error(err))
		return failed
	}
	log.Info("removed object")
	return removed
}
