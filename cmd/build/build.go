/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

// Package build provides the build command for tokenrag.
package build

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"bennypowers.dev/tokenrag/cmd/cmdutil"
	"bennypowers.dev/tokenrag/index"
)

// Cmd is the build cobra command.
var Cmd = &cobra.Command{
	Use:   "build",
	Short: "Extract, embed, and index design tokens",
	Long: `Extract every CSS custom property from the configured token files, embed
each one, and write the result to the configured index backend.`,
	Args: cobra.NoArgs,
	RunE: run,
}

func run(cmd *cobra.Command, _ []string) error {
	pipeline, err := cmdutil.OpenPipeline(cmd.Context())
	if err != nil {
		return err
	}
	result, err := pipeline.Build(cmd.Context())
	if err != nil {
		return err
	}
	printResult(cmd.OutOrStdout(), result)
	return nil
}

func printResult(w io.Writer, result index.BuildResult) {
	if result.Failed > 0 {
		fmt.Fprintf(w, "Indexed %d tokens (%d failed)\n", result.Indexed, result.Failed)
		return
	}
	fmt.Fprintf(w, "Indexed %d tokens\n", result.Indexed)
}
