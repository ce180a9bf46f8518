/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"bennypowers.dev/tokenrag/index"
)

// maxTopK caps the number of results an agent may request.
const maxTopK = 50

func (s *Server) registerTools() {
	s.mcp.AddTool(&gomcp.Tool{
		Name:        "search_tokens",
		Description: "Find CSS design tokens (custom properties) by meaning. Describe what you need, e.g. 'primary brand color' or 'small spacing', and get the closest tokens with their values.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"query": {"type": "string", "description": "Natural-language description of the token"},
				"top_k": {"type": "number", "description": "Maximum number of results (default from configuration, at most 50)"}
			},
			"required": ["query"]
		}`),
	}, s.handleSearchTokens)

	if s.store != nil {
		s.mcp.AddTool(&gomcp.Tool{
			Name:        "index_status",
			Description: "Report which token index is in use and how many tokens it holds.",
			InputSchema: json.RawMessage(`{"type": "object", "properties": {}}`),
		}, s.handleIndexStatus)
	}
}

type searchArgs struct {
	Query string  `json:"query"`
	TopK  float64 `json:"top_k"`
}

type tokenHit struct {
	Name  string  `json:"name"`
	Value string  `json:"value"`
	Theme string  `json:"theme"`
	Score float64 `json:"score"`
}

func (s *Server) handleSearchTokens(ctx context.Context, req *gomcp.CallToolRequest) (*gomcp.CallToolResult, error) {
	var args searchArgs
	if err := json.Unmarshal(req.Params.Arguments, &args); err != nil {
		return toolError("invalid arguments: %v", err), nil
	}

	query := strings.TrimSpace(args.Query)
	if query == "" {
		return toolError("query is required"), nil
	}
	k := min(int(args.TopK), maxTopK)

	hits, err := s.searcher.Search(ctx, query, k)
	if errors.Is(err, index.ErrIndexNotFound) {
		return toolError("the token index has not been built yet; run `tokenrag build` first"), nil
	}
	if err != nil {
		return toolError("search failed: %v", err), nil
	}

	out := make([]tokenHit, 0, len(hits))
	for _, h := range hits {
		out = append(out, tokenHit{
			Name:  h.Record.Name,
			Value: h.Record.Value,
			Theme: h.Record.Theme,
			Score: h.Score,
		})
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return toolError("failed to encode results: %v", err), nil
	}
	return textResult(string(data)), nil
}

func (s *Server) handleIndexStatus(ctx context.Context, _ *gomcp.CallToolRequest) (*gomcp.CallToolResult, error) {
	stats, err := s.store.Stats(ctx)
	if errors.Is(err, index.ErrIndexNotFound) {
		return textResult("The token index has not been built yet."), nil
	}
	if err != nil {
		return toolError("failed to read index status: %v", err), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Backend: %s\nLocation: %s\nTokens: %d", stats.Backend, stats.Location, stats.Count)
	if stats.Dimension > 0 {
		fmt.Fprintf(&b, "\nDimension: %d", stats.Dimension)
	}
	if stats.ModelID != "" {
		fmt.Fprintf(&b, "\nModel: %s", stats.ModelID)
	}
	return textResult(b.String()), nil
}

func textResult(text string) *gomcp.CallToolResult {
	return &gomcp.CallToolResult{
		Content: []gomcp.Content{&gomcp.TextContent{Text: text}},
	}
}

func toolError(format string, args ...any) *gomcp.CallToolResult {
	return &gomcp.CallToolResult{
		Content: []gomcp.Content{&gomcp.TextContent{Text: fmt.Sprintf(format, args...)}},
		IsError: true,
	}
}
