/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

// Package version provides the version command for tokenrag.
package version

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"bennypowers.dev/tokenrag/internal/version"
)

// Cmd is the version cobra command that prints version and build information.
var Cmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		format, _ := cmd.Flags().GetString("format")
		return write(cmd.OutOrStdout(), version.Info(), format)
	},
}

func init() {
	Cmd.Flags().StringP("format", "f", "text", "Output format (text, json)")
}

func write(w io.Writer, info version.BuildInfo, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(info)
	case "text":
		line := "tokenrag " + info.Version
		if info.GoVersion != "" {
			line += " (" + info.GoVersion + ")"
		}
		_, err := fmt.Fprintln(w, line)
		return err
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}
