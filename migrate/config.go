// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

package migrate

import (
	"time"
)

// Config defines how a migration run behaves.
type Config struct {
	Workers           int           `help:"number of workers iterating over the input" default:"16"`
	ProgressFrequency int64         `help:"how often to log progress (every N records)" default:"10000"`
	Checksum          bool          `help:"compute checksums of new objects and verify existing ones" default:"false"`
	Groups            []int32       `help:"groups hosting the objects" default:"1"`
	AutoGroups        int           `help:"number of automatically assigned groups; new records carry no group list" default:"0"`
	UpdateDate        time.Time     `help:"update time stored in new records, the current time when zero"`
	SyncInterval      time.Duration `help:"how often the bolt store is flushed to disk" default:"30s"`
}

// DefaultConfig returns the configuration used by the command line tools.
func DefaultConfig() Config {
	return Config{
		Workers:           16,
		ProgressFrequency: 10000,
		Groups:            []int32{1},
		SyncInterval:      30 * time.Second,
	}
}

// Verify checks that the configuration can be used for a run.
func (config Config) Verify() error {
	if config.Workers < 1 {
		return ErrArgument.New("workers must be positive, got %d", config.Workers)
	}
	if config.ProgressFrequency < 0 {
		return ErrArgument.New("progress frequency must not be negative, got %d", config.ProgressFrequency)
	}
	if len(config.Groups) == 0 && config.AutoGroups <= 0 {
		return ErrArgument.New("no groups configured")
	}
	return nil
}
