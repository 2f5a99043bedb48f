// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

package migrate

import (
	"sync/atomic"

	"go.uber.org/zap"
)

// outcome is the result of handling one record.
type outcome int

const (
	created outcome = iota
	updated
	unchanged
	skipped
	failed
	quarantined
	removed
)

// Stats summarizes a run.
type Stats struct {
	// Seen is the number of records claimed from the source.
	Seen int64
	// Processed is the number of records that were handled to completion.
	Processed int64

	Created   int64
	Updated   int64
	Unchanged int64
	// Skipped records had a length mismatch or corrupt metadata.
	Skipped int64
	// Failed records hit a store error.
	Failed int64

	Quarantined int64
	Removed     int64
}

func (stats Stats) fields() []zap.Field {
	return []zap.Field{
		zap.Int64("seen", stats.Seen),
		zap.Int64("processed", stats.Processed),
		zap.Int64("created", stats.Created),
		zap.Int64("updated", stats.Updated),
		zap.Int64("unchanged", stats.Unchanged),
		zap.Int64("skipped", stats.Skipped),
		zap.Int64("failed", stats.Failed),
		zap.Int64("quarantined", stats.Quarantined),
		zap.Int64("removed", stats.Removed),
	}
}

type counters struct {
	seen      atomic.Int64
	processed atomic.Int64
	outcomes  [removed + 1]atomic.Int64
}

func (c *counters) add(result outcome) {
	c.processed.Add(1)
	c.outcomes[result].Add(1)

	switch result {
	case created:
		mon.Counter("records_created").Inc(1)
	case updated:
		mon.Counter("records_updated").Inc(1)
	case skipped:
		mon.Counter("records_skipped").Inc(1)
	case failed:
		mon.Counter("records_failed").Inc(1)
	}
}

func (c *counters) snapshot() Stats {
	return Stats{
		Seen:        c.seen.Load(),
		Processed:   c.processed.Load(),
		Created:     c.outcomes[created].Load(),
		Updated:     c.outcomes[updated].Load(),
		Unchanged:   c.outcomes[unchanged].Load(),
		Skipped:     c.outcomes[skipped].Load(),
		Failed:      c.outcomes[failed].Load(),
		Quarantined: c.outcomes[quarantined].Load(),
		Removed:     c.outcomes[removed].Load(),
	}
}
