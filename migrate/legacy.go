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

// walk visits every pair of legacy with the counters of a new run.
func (engine *Engine) walk(ctx context.Context, name string, legacy *source.Legacy, visit func(context.Context, *zap.Logger, metadata.Key, []byte) outcome) (Stats, error) {
	run := engine.newRun(name)
	err := legacy.Walk(ctx, func(ctx context.Context, key metadata.Key, value []byte) error {
		run.seen()
		run.count(visit(ctx, run.log.With(zap.Stringer("key", key)), key, value))
		return nil
	})
	return run.finish(), Error.Wrap(err)
}

// ProcessLegacy migrates a legacy database whose values are the object data.
func (engine *Engine) ProcessLegacy(ctx context.Context, legacy *source.Legacy) (_ Stats, err error) {
	defer mon.Task()(&ctx)(&err)

	return engine.walk(ctx, "legacy", legacy, func(ctx context.Context, log *zap.Logger, key metadata.Key, value []byte) outcome {
		return engine.upsert(ctx, key, source.Bytes(value), 0, uint64(len(value)))
	})
}

// ConvertMeta rebuilds the records of an old metadata database. Keys that
// already exist in the store are left alone. Records without groups get the
// configured ones.
func (engine *Engine) ConvertMeta(ctx context.Context, legacy *source.Legacy) (_ Stats, err error) {
	defer mon.Task()(&ctx)(&err)

	return engine.walk(ctx, "meta", legacy, func(ctx context.Context, log *zap.Logger, key metadata.Key, value []byte) outcome {
		_, err := engine.store.Get(ctx, key.Bytes())
		switch {
		case err == nil:
			log.Debug("record already exists")
			return unchanged
		case !kvstore.ErrKeyNotFound.Has(err):
			log.Error("metadata read failed", zap.Error(err))
			return failed
		}

		control, err := metadata.Parse(value)
		if err != nil {
			log.Error("skipping record", zap.Error(err))
			return skipped
		}
		if len(control.Groups) == 0 && engine.config.AutoGroups == 0 {
			control.Groups = engine.config.Groups
		}

		record, err := metadata.Build(control)
		if err != nil {
			log.Error("metadata creation failed", zap.Error(err))
			return failed
		}
		if err := engine.store.Put(ctx, key.Bytes(), record); err != nil {
			log.Error("metadata write failed", zap.Error(err))
			return failed
		}
		return created
	})
}

// ConvertHistory copies the last update of every history into the UPDATE
// entry of its record, creating the record when it is missing.
func (engine *Engine) ConvertHistory(ctx context.Context, legacy *source.Legacy) (_ Stats, err error) {
	defer mon.Task()(&ctx)(&err)

	return engine.walk(ctx, "history", legacy, func(ctx context.Context, log *zap.Logger, key metadata.Key, value []byte) outcome {
		history, err := metadata.ParseHistory(value)
		if err != nil {
			log.Error("skipping record", zap.Error(err))
			return skipped
		}
		if len(history) == 0 {
			log.Warn("skipping empty history")
			return skipped
		}
		last := history[len(history)-1]

		result := updated
		record, err := engine.store.Get(ctx, key.Bytes())
		switch {
		case kvstore.ErrKeyNotFound.Has(err):
			control := metadata.Control{Groups: engine.config.Groups}
			if engine.config.AutoGroups > 0 {
				control.Groups = nil
			}
			record, err = metadata.Build(control)
			if err != nil {
				log.Error("metadata creation failed", zap.Error(err))
				return failed
			}
			result = created
		case err != nil:
			log.Error("metadata read failed", zap.Error(err))
			return failed
		}

		update := metadata.Update{}
		entry, err := metadata.Search(record, metadata.TypeUpdate)
		switch {
		case metadata.ErrNotFound.Has(err):
			record = metadata.Append(record, metadata.TypeUpdate, make([]byte, metadata.UpdateSize))
		case err != nil:
			log.Error("skipping record", zap.Error(err))
			return skipped
		default:
			update, err = metadata.ParseUpdate(entry.Payload)
			if err != nil {
				log.Error("skipping record", zap.Error(err))
				return skipped
			}
		}

		update.Time = last.Time
		update.Flags = 0
		if last.Removed() {
			update.Flags = metadata.UpdateFlagRemoved
		}
		if err := metadata.Replace(record, metadata.TypeUpdate, update.Encode()); err != nil {
			log.Error("skipping record", zap.Error(err))
			return skipped
		}

		if err := engine.store.Put(ctx, key.Bytes(), record); err != nil {
			log.Error("metadata write failed", zap.Error(err))
			return failed
		}
		log.Debug("last update", zap.Time("time", last.Time.Time()), zap.Bool("removed", last.Removed()))
		return result
	})
}
