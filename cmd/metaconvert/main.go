// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

// Command metaconvert migrates object metadata into a key/value store.
package main

import (
	"github.com/spf13/cobra"
	"github.com/zeebo/errs"
	"go.uber.org/zap"

	"storj.io/common/process"
)

// Error is the default error class for the package.
var Error = errs.Class("metaconvert")

func main() {
	logger, _, _ := process.NewLogger("metaconvert")
	zap.ReplaceGlobals(logger)

	log := zap.L()

	root := &cobra.Command{
		Use:   "metaconvert",
		Short: "migrate object metadata between storage backends",
	}

	root.AddCommand(
		FilesCommand(log),
		MetaCommand(log),
		HistoryCommand(log),
		CleanupCommand(log),
		BlobUnsortCommand(log),
	)

	process.Exec(root)
}
