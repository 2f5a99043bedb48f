// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

package main

import (
	"context"
	"math"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/zeebo/errs"
	"go.uber.org/zap"

	"storj.io/common/process"
	"storj.io/metaconvert/metadata"
	"storj.io/metaconvert/migrate"
	"storj.io/metaconvert/private/kvstore"
	"storj.io/metaconvert/source"
)

// UpdateDateLayout is the format of the --update-date flag.
const UpdateDateLayout = "2006-01-02 15:04:05"

// storeFlags are shared by every command writing to a metadata store.
type storeFlags struct {
	meta         string
	syncInterval time.Duration
}

func (flags *storeFlags) bind(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&flags.meta, "meta", "", "metadata store: a bolt file, bolt://path, redis://host:port?db=N or memory://")
	fs.DurationVar(&flags.syncInterval, "sync-interval", migrate.DefaultConfig().SyncInterval, "how often the bolt store is flushed to disk")
	_ = cmd.MarkFlagRequired("meta")
}

func (flags *storeFlags) open(ctx context.Context, log *zap.Logger) (kvstore.Store, error) {
	return migrate.OpenStore(ctx, log.Named("meta"), flags.meta, migrate.StoreOptions{
		SyncInterval: flags.syncInterval,
	})
}

func bindRunFlags(fs *pflag.FlagSet, config *migrate.Config) {
	fs.IntVar(&config.Workers, "threads", config.Workers, "number of workers iterating over the input")
	fs.Int64Var(&config.ProgressFrequency, "progress-frequency", config.ProgressFrequency, "how often should we print progress (every record)")
}

// FilesCommand migrates a blob file sequence or a directory tree.
func FilesCommand(log *zap.Logger) *cobra.Command {
	var inputPath, updateDate string
	var groups []int
	var store storeFlags
	config := migrate.DefaultConfig()

	cmd := &cobra.Command{
		Use:   "files",
		Short: "create or refresh metadata for every object of blob files or a directory",
		Args:  cobra.NoArgs,
	}

	flag := cmd.Flags()
	flag.StringVar(&inputPath, "input-path", "", "blob base path or directory to iterate")
	_ = cmd.MarkFlagRequired("input-path")
	flag.IntSliceVar(&groups, "group", []int{1}, "group number which will host given object, can be used multiple times")
	flag.BoolVar(&config.Checksum, "enable-checksum", false, "compute checksums of new objects and verify existing ones")
	flag.StringVar(&updateDate, "update-date", "", "update time of new records as \""+UpdateDateLayout+"\" UTC, now when empty")
	bindRunFlags(flag, &config)
	store.bind(cmd)

	cmd.RunE = func(cmd *cobra.Command, args []string) (err error) {
		ctx, cancel := process.Ctx(cmd)
		defer cancel()

		if config.Groups, err = groupList(groups); err != nil {
			return err
		}
		if config.UpdateDate, err = parseUpdateDate(updateDate); err != nil {
			return err
		}
		config.SyncInterval = store.syncInterval

		meta, err := store.open(ctx, log)
		if err != nil {
			return Error.Wrap(err)
		}
		defer func() { err = errs.Combine(err, meta.Close()) }()

		engine, err := migrate.New(log.Named("files"), meta, config)
		if err != nil {
			return Error.Wrap(err)
		}

		_, err = engine.ProcessPath(ctx, inputPath)
		return Error.Wrap(err)
	}

	return cmd
}

// MetaCommand converts an old metadata database.
func MetaCommand(log *zap.Logger) *cobra.Command {
	return legacyCommand(log, "meta", "convert an old metadata database", (*migrate.Engine).ConvertMeta)
}

// HistoryCommand converts a history database into UPDATE entries.
func HistoryCommand(log *zap.Logger) *cobra.Command {
	return legacyCommand(log, "history", "set update times from a history database", (*migrate.Engine).ConvertHistory)
}

type legacyConvert func(*migrate.Engine, context.Context, *source.Legacy) (migrate.Stats, error)

func legacyCommand(log *zap.Logger, use, short string, convert legacyConvert) *cobra.Command {
	var legacyURL, groups string
	var store storeFlags
	config := migrate.DefaultConfig()

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
	}

	flag := cmd.Flags()
	flag.StringVar(&legacyURL, "legacy", "", "legacy database to read")
	_ = cmd.MarkFlagRequired("legacy")
	flag.StringVar(&groups, "groups", "", "default groups as 1:2:3, or autoN")
	_ = cmd.MarkFlagRequired("groups")
	store.bind(cmd)

	cmd.RunE = func(cmd *cobra.Command, args []string) (err error) {
		ctx, cancel := process.Ctx(cmd)
		defer cancel()

		config.Groups, config.AutoGroups, err = metadata.ParseGroupList(groups)
		if err != nil {
			return Error.Wrap(err)
		}
		config.SyncInterval = store.syncInterval

		old, err := migrate.OpenStore(ctx, log.Named("legacy"), legacyURL, migrate.StoreOptions{ReadOnly: true})
		if err != nil {
			return Error.Wrap(err)
		}
		legacy := source.NewLegacy(log.Named("legacy"), old)
		defer func() { err = errs.Combine(err, legacy.Close()) }()

		meta, err := store.open(ctx, log)
		if err != nil {
			return Error.Wrap(err)
		}
		defer func() { err = errs.Combine(err, meta.Close()) }()

		engine, err := migrate.New(log.Named(use), meta, config)
		if err != nil {
			return Error.Wrap(err)
		}

		_, err = convert(engine, ctx, legacy)
		return Error.Wrap(err)
	}

	return cmd
}

// CleanupCommand quarantines or removes files of a directory tree according
// to their metadata.
func CleanupCommand(log *zap.Logger) *cobra.Command {
	var inputPath string
	var store storeFlags
	config := migrate.DefaultConfig()

	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "quarantine objects without metadata and delete removed ones",
		Args:  cobra.NoArgs,
	}

	flag := cmd.Flags()
	flag.StringVar(&inputPath, "input-path", "", "directory to clean up")
	_ = cmd.MarkFlagRequired("input-path")
	bindRunFlags(flag, &config)
	store.bind(cmd)

	cmd.RunE = func(cmd *cobra.Command, args []string) (err error) {
		ctx, cancel := process.Ctx(cmd)
		defer cancel()

		meta, err := store.open(ctx, log)
		if err != nil {
			return Error.Wrap(err)
		}
		defer func() { err = errs.Combine(err, meta.Close()) }()

		engine, err := migrate.New(log.Named("cleanup"), meta, config)
		if err != nil {
			return Error.Wrap(err)
		}

		it, err := source.OpenDirectoryTree(ctx, log.Named("dir"), inputPath)
		if err != nil {
			return Error.Wrap(err)
		}
		defer func() { err = errs.Combine(err, it.Close()) }()

		_, err = engine.Cleanup(ctx, it)
		return Error.Wrap(err)
	}

	return cmd
}

// BlobUnsortCommand rewrites a blob index ordered by data position.
func BlobUnsortCommand(log *zap.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "blob-unsort INPUT OUTPUT",
		Short: "write the records of a blob index ordered by their position",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := process.Ctx(cmd)
			defer cancel()

			_, err := source.SortIndex(ctx, log.Named("unsort"), args[0], args[1])
			return Error.Wrap(err)
		},
	}
}

// groupList converts the --group values.
func groupList(values []int) ([]int32, error) {
	groups := make([]int32, 0, len(values))
	for _, value := range values {
		if value < math.MinInt32 || value > math.MaxInt32 {
			return nil, migrate.ErrArgument.New("group %d out of range", value)
		}
		groups = append(groups, int32(value))
	}
	return groups, nil
}

// parseUpdateDate parses the --update-date value; empty means now.
func parseUpdateDate(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	t, err := time.ParseInLocation(UpdateDateLayout, value, time.UTC)
	if err != nil {
		return time.Time{}, migrate.ErrArgument.New("invalid update date %q: %v", value, err)
	}
	return t, nil
}
