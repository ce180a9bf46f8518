/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

// Package status provides the status command for tokenrag.
package status

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"bennypowers.dev/tokenrag/cmd/cmdutil"
	"bennypowers.dev/tokenrag/index"
)

// Cmd is the status cobra command.
var Cmd = &cobra.Command{
	Use:   "status",
	Short: "Show what the configured index holds",
	Args:  cobra.NoArgs,
	RunE:  run,
}

func init() {
	Cmd.Flags().StringP("format", "f", "text", "Output format: text, json")
}

func run(cmd *cobra.Command, _ []string) error {
	format, _ := cmd.Flags().GetString("format")

	store, err := cmdutil.OpenStore()
	if err != nil {
		return err
	}
	stats, err := store.Stats(cmd.Context())
	built := true
	if errors.Is(err, index.ErrIndexNotFound) {
		built = false
	} else if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if format == "json" {
		return outputJSON(w, stats, built)
	}
	return outputText(w, stats, built)
}

func outputText(w io.Writer, stats index.Stats, built bool) error {
	if !built {
		_, err := fmt.Fprintln(w, "not built")
		return err
	}
	fmt.Fprintf(w, "backend:   %s\n", stats.Backend)
	fmt.Fprintf(w, "location:  %s\n", stats.Location)
	fmt.Fprintf(w, "tokens:    %d\n", stats.Count)
	if stats.Dimension > 0 {
		fmt.Fprintf(w, "dimension: %d\n", stats.Dimension)
	}
	if stats.ModelID != "" {
		fmt.Fprintf(w, "model:     %s\n", stats.ModelID)
	}
	return nil
}

func outputJSON(w io.Writer, stats index.Stats, built bool) error {
	out := struct {
		Built bool `json:"built"`
		index.Stats
	}{built, stats}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
