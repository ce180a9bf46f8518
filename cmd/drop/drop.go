/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

// Package drop provides the drop command for tokenrag.
package drop

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"bennypowers.dev/tokenrag/cmd/cmdutil"
	"bennypowers.dev/tokenrag/index"
	"bennypowers.dev/tokenrag/internal/logger"
)

// Cmd is the drop cobra command.
var Cmd = &cobra.Command{
	Use:   "drop",
	Short: "Delete the configured index",
	Long: `Delete the configured index: the local vector and records files for the flat
backend, or the whole collection for the opensearch backend. Remote builds
append, so drop before rebuilding to avoid duplicates.`,
	Args: cobra.NoArgs,
	RunE: run,
}

func run(cmd *cobra.Command, _ []string) error {
	store, err := cmdutil.OpenStore()
	if err != nil {
		return err
	}
	return drop(cmd.Context(), cmd.OutOrStdout(), store)
}

// drop deletes the index behind store and reports where it lived.
func drop(ctx context.Context, w io.Writer, store index.Store) error {
	stats, err := store.Stats(ctx)
	if err != nil {
		// Only the location is wanted; a missing index is still dropped.
		logger.Debug("cannot read index stats before drop: %v", err)
	}
	if err := store.Drop(ctx); err != nil {
		return err
	}
	if stats.Location != "" {
		_, err := fmt.Fprintf(w, "Dropped %s\n", stats.Location)
		return err
	}
	_, err = fmt.Fprintln(w, "Dropped index")
	return err
}
