/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

// Package list provides the list command for tokenrag.
package list

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/mazznoer/csscolorparser"
	"github.com/spf13/cobra"

	"bennypowers.dev/tokenrag/cmd/cmdutil"
	"bennypowers.dev/tokenrag/fs"
	"bennypowers.dev/tokenrag/load"
	"bennypowers.dev/tokenrag/token"
)

// Cmd is the list cobra command.
var Cmd = &cobra.Command{
	Use:   "list [sources...]",
	Short: "List the tokens extracted from CSS files",
	Long: `List every CSS custom property the extractor finds, without embedding or
indexing anything. Sources default to the configured cssFilePath.`,
	RunE: run,
}

func init() {
	Cmd.Flags().StringP("format", "f", "table", "Output format: table, json, css")
	Cmd.Flags().Bool("swatch", false, "Prefix color values with a 24-bit color swatch")
}

func run(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	swatch, _ := cmd.Flags().GetBool("swatch")

	cfg, err := cmdutil.Config()
	if err != nil {
		return err
	}
	sources := args
	if len(sources) == 0 {
		sources = []string{cfg.CSSFilePath}
	}

	opts := load.Options{
		Root:         cmdutil.RootDir,
		FS:           fs.NewOSFileSystem(),
		CDNFallback:  cfg.CDNFallback,
		FetchTimeout: cfg.Timeout(),
	}
	records, err := collect(cmd.Context(), opts, sources)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	switch format {
	case "json":
		return outputJSON(w, records)
	case "css":
		return outputCSS(w, records)
	case "table":
		return outputTable(w, records, swatch)
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}

func collect(ctx context.Context, opts load.Options, sources []string) ([]token.Record, error) {
	records := []token.Record{}
	for _, source := range sources {
		found, err := load.Load(ctx, source, opts)
		if err != nil {
			return nil, err
		}
		records = append(records, found...)
	}
	return records, nil
}

// colorSwatch returns a 24-bit ANSI color block for value, or "" when
// value is not a color.
func colorSwatch(value string) string {
	c, err := csscolorparser.Parse(strings.TrimSpace(value))
	if err != nil {
		return ""
	}
	r, g, b, _ := c.RGBA255()
	return fmt.Sprintf("\x1b[48;2;%d;%d;%dm  \x1b[0m ", r, g, b)
}

func outputTable(w io.Writer, records []token.Record, swatch bool) error {
	nameWidth := 4
	for _, r := range records {
		if len(r.Name) > nameWidth {
			nameWidth = len(r.Name)
		}
	}
	for _, r := range records {
		prefix := ""
		if swatch {
			prefix = colorSwatch(r.Value)
		}
		if _, err := fmt.Fprintf(w, "%-*s  %s%s\n", nameWidth, r.Name, prefix, r.Value); err != nil {
			return err
		}
	}
	return nil
}

func outputJSON(w io.Writer, records []token.Record) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(records)
}

func outputCSS(w io.Writer, records []token.Record) error {
	var b strings.Builder
	b.WriteString(":root {\n")
	for _, r := range records {
		fmt.Fprintf(&b, "  %s: %s;\n", r.Name, r.Value)
	}
	b.WriteString("}\n")
	_, err := io.WriteString(w, b.String())
	return err
}
