/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

// Package mcp provides the mcp command for tokenrag.
package mcp

import (
	"io"

	"github.com/spf13/cobra"

	"bennypowers.dev/tokenrag/cmd/cmdutil"
	"bennypowers.dev/tokenrag/internal/logger"
	"bennypowers.dev/tokenrag/internal/version"
	mcpserver "bennypowers.dev/tokenrag/mcp"
)

// Cmd is the mcp cobra command.
var Cmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve token search to AI agents over MCP stdio",
	Long: `Start a Model Context Protocol server on stdin/stdout exposing the
search_tokens and index_status tools. Build the index first.`,
	Args: cobra.NoArgs,
	RunE: run,
}

func run(cmd *cobra.Command, _ []string) error {
	// stdout carries the protocol
	logger.SetOutput(io.Discard)

	pipeline, err := cmdutil.OpenPipeline(cmd.Context())
	if err != nil {
		return err
	}
	server, err := mcpserver.NewServer(pipeline, version.Get(), mcpserver.WithStore(pipeline.Store()))
	if err != nil {
		return err
	}
	return server.Serve(cmd.Context())
}
