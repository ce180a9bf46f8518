/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

// Package search provides the search command for tokenrag.
package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"bennypowers.dev/tokenrag/cmd/cmdutil"
	"bennypowers.dev/tokenrag/index"
	"bennypowers.dev/tokenrag/internal/logger"
)

// minNameWidth is the narrowest name column in text output.
const minNameWidth = 25

// Cmd is the search cobra command.
var Cmd = &cobra.Command{
	Use:   "search [query...]",
	Short: "Find the design tokens closest to a query",
	Long: `Search the index for the tokens whose descriptions are closest in meaning to
the query. All arguments are joined with spaces to form the query. With no
arguments the query is empty and every token scores alike, so the first
tokens of the index are listed.`,
	Example: `  tokenrag search primary brand color
  tokenrag search --top-k 3 --format json small spacing`,
	Args: cobra.ArbitraryArgs,
	RunE: run,
}

func init() {
	Cmd.Flags().StringP("format", "f", "text", "Output format: text, json, names")
	Cmd.Flags().Bool("scores", false, "Show similarity scores in text output")
}

func run(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	scores, _ := cmd.Flags().GetBool("scores")
	if format != "text" && format != "json" && format != "names" {
		return fmt.Errorf("unknown format %q", format)
	}

	pipeline, err := cmdutil.OpenPipeline(cmd.Context())
	if err != nil {
		return err
	}
	hits, err := find(cmd.Context(), pipeline, args)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	switch format {
	case "json":
		return outputJSON(w, hits)
	case "names":
		return outputNames(w, hits)
	default:
		return outputText(w, hits, scores)
	}
}

// searcher runs a query with the configured default result count when k is 0.
type searcher interface {
	Search(ctx context.Context, query string, k int) ([]index.Hit, error)
}

func find(ctx context.Context, s searcher, args []string) ([]index.Hit, error) {
	query := strings.Join(args, " ")
	if query == "" {
		logger.Debug("searching with an empty query")
	}
	hits, err := s.Search(ctx, query, 0)
	if err != nil {
		return nil, err
	}
	if len(hits) == 0 {
		logger.Info("no tokens found")
	}
	return hits, nil
}

func nameWidth(hits []index.Hit) int {
	width := minNameWidth
	for _, h := range hits {
		if n := len(h.Record.Name); n > width {
			width = n
		}
	}
	return width
}

func outputText(w io.Writer, hits []index.Hit, scores bool) error {
	width := nameWidth(hits)
	for _, h := range hits {
		if scores {
			if _, err := fmt.Fprintf(w, "%-*s → %s  (%.4f)\n", width, h.Record.Name, h.Record.Value, h.Score); err != nil {
				return err
			}
			continue
		}
		if _, err := fmt.Fprintf(w, "%-*s → %s\n", width, h.Record.Name, h.Record.Value); err != nil {
			return err
		}
	}
	return nil
}

func outputJSON(w io.Writer, hits []index.Hit) error {
	type hitOutput struct {
		Name  string  `json:"name"`
		Value string  `json:"value"`
		Theme string  `json:"theme,omitempty"`
		Score float64 `json:"score"`
	}

	out := make([]hitOutput, len(hits))
	for i, h := range hits {
		out[i] = hitOutput{
			Name:  h.Record.Name,
			Value: h.Record.Value,
			Theme: h.Record.Theme,
			Score: h.Score,
		}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func outputNames(w io.Writer, hits []index.Hit) error {
	for _, h := range hits {
		if _, err := fmt.Fprintln(w, h.Record.Name); err != nil {
			return err
		}
	}
	return nil
}
