// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

// Package migrate creates and refreshes metadata records for every key
// produced by a source.
package migrate

import (
	"context"
	"errors"
	"os"
	"sync"

	"github.com/spacemonkeygo/monkit/v3"
	"github.com/zeebo/errs"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"storj.io/metaconvert/private/kvstore"
	"storj.io/metaconvert/source"
)

var (
	// Error is the default error class for the package.
	Error = errs.Class("migrate")
	// ErrArgument is returned when a run cannot start with the given configuration.
	ErrArgument = errs.Class("invalid argument")
	// ErrLengthMismatch is reported when a record points past the end of its data.
	ErrLengthMismatch = errs.Class("length mismatch")

	mon = monkit.Package()
)

// Engine migrates metadata into a store.
type Engine struct {
	log    *zap.Logger
	store  kvstore.Store
	config Config
}

// New returns an engine writing to store.
func New(log *zap.Logger, store kvstore.Store, config Config) (*Engine, error) {
	if err := config.Verify(); err != nil {
		return nil, err
	}
	if store == nil {
		return nil, ErrArgument.New("no store")
	}
	return &Engine{
		log:    log,
		store:  store,
		config: config,
	}, nil
}

// OpenSource returns the iterator for path: a directory is walked, anything
// else is the base name of numbered blob pairs.
func OpenSource(ctx context.Context, log *zap.Logger, path string) (source.Iterator, error) {
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return source.OpenDirectoryTree(ctx, log.Named("dir"), path)
	}
	return source.OpenBlobPair(ctx, log.Named("blob"), path)
}

// ProcessPath migrates every object found at path.
func (engine *Engine) ProcessPath(ctx context.Context, path string) (_ Stats, err error) {
	defer mon.Task()(&ctx)(&err)

	it, err := OpenSource(ctx, engine.log, path)
	if err != nil {
		return Stats{}, Error.Wrap(err)
	}
	defer func() { err = errs.Combine(err, it.Close()) }()

	return engine.Process(ctx, it)
}

// Process migrates every record produced by it using the configured number
// of workers.
func (engine *Engine) Process(ctx context.Context, it source.Iterator) (_ Stats, err error) {
	defer mon.Task()(&ctx)(&err)

	run := engine.newRun("process")
	err = run.pull(ctx, it, func(ctx context.Context, rec *source.Record) {
		run.count(engine.upsert(ctx, rec.Key, rec.Data, rec.Offset, rec.Length))
	})
	return run.finish(), err
}

// run holds the state of a single pass over a source.
type run struct {
	engine   *Engine
	log      *zap.Logger
	counters counters

	// claim serializes every call on the shared iterator.
	claim sync.Mutex
}

func (engine *Engine) newRun(name string) *run {
	return &run{
		engine: engine,
		log:    engine.log.Named(name),
	}
}

// pull starts the workers. Each one claims the next record under the claim
// lock and handles it outside of it until the source is exhausted.
func (run *run) pull(ctx context.Context, it source.Iterator, handle func(context.Context, *source.Record)) error {
	var group errgroup.Group
	for i := 0; i < run.engine.config.Workers; i++ {
		group.Go(func() error {
			for {
				run.claim.Lock()
				rec, err := it.Next(ctx)
				if err == nil {
					run.seen()
				}
				run.claim.Unlock()

				if err != nil {
					if errors.Is(err, source.ErrEndOfSequence) {
						return nil
					}
					if ctxErr := ctx.Err(); ctxErr != nil {
						return ctxErr
					}
					run.log.Error("iteration failed", zap.Error(err))
					return nil
				}

				handle(ctx, rec)
				if err := rec.Release(); err != nil {
					run.log.Warn("failed to release record", zap.Stringer("key", rec.Key), zap.Error(err))
				}
			}
		})
	}
	return Error.Wrap(group.Wait())
}

// locked runs fn under the claim lock.
func (run *run) locked(fn func() error) error {
	run.claim.Lock()
	defer run.claim.Unlock()
	return fn()
}

// seen counts a claimed record and logs progress.
func (run *run) seen() {
	seen := run.counters.seen.Add(1)
	if freq := run.engine.config.ProgressFrequency; freq > 0 && seen%freq == 0 {
		run.log.Info("progress", run.counters.snapshot().fields()...)
	}
}

func (run *run) count(result outcome) {
	run.counters.add(result)
}

// finish logs the summary of the run.
func (run *run) finish() Stats {
	stats := run.counters.snapshot()
	run.log.Info("finished", stats.fields()...)
	return stats
}
