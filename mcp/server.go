/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

// Package mcp serves token search to AI agents over the Model Context Protocol.
package mcp

import (
	"context"
	"fmt"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"bennypowers.dev/tokenrag/index"
)

// Searcher runs a token search. *rag.Pipeline implements it.
type Searcher interface {
	Search(ctx context.Context, query string, k int) ([]index.Hit, error)
}

// Server wraps the MCP server with a token searcher.
type Server struct {
	mcp      *gomcp.Server
	searcher Searcher
	store    index.Store
}

// ServerOption configures optional Server dependencies.
type ServerOption func(*Server)

// WithStore exposes the store's statistics through the index_status tool.
func WithStore(store index.Store) ServerOption {
	return func(s *Server) {
		s.store = store
	}
}

// NewServer creates an MCP server with token search tools.
func NewServer(searcher Searcher, version string, opts ...ServerOption) (*Server, error) {
	if searcher == nil {
		return nil, fmt.Errorf("searcher is required")
	}

	mcpServer := gomcp.NewServer(
		&gomcp.Implementation{
			Name:    "tokenrag",
			Version: version,
		},
		nil,
	)

	s := &Server{
		mcp:      mcpServer,
		searcher: searcher,
	}

	for _, opt := range opts {
		opt(s)
	}

	s.registerTools()

	return s, nil
}

// Serve starts the MCP server in stdio mode.
func (s *Server) Serve(ctx context.Context) error {
	return s.mcp.Run(ctx, &gomcp.StdioTransport{})
}
