/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

// Package cmd provides CLI commands for tokenrag.
package cmd

import (
	"context"
	"errors"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"bennypowers.dev/tokenrag/cmd/build"
	"bennypowers.dev/tokenrag/cmd/drop"
	"bennypowers.dev/tokenrag/cmd/list"
	"bennypowers.dev/tokenrag/cmd/mcp"
	"bennypowers.dev/tokenrag/cmd/search"
	"bennypowers.dev/tokenrag/cmd/status"
	"bennypowers.dev/tokenrag/cmd/version"
	"bennypowers.dev/tokenrag/config"
	"bennypowers.dev/tokenrag/internal/logger"
)

var errNoCommand = errors.New("no command given")

var rootCmd = &cobra.Command{
	Use:   "tokenrag",
	Short: "Semantic search over CSS design tokens",
	Long: `tokenrag extracts CSS custom properties from design token stylesheets,
embeds them, and answers natural-language queries with the closest tokens.

Configuration is read from .config/token-rag.{yaml,yml,json}, then TOKENRAG_*
environment variables (a .env file in the working directory is loaded first),
then command-line flags.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SetOut(cmd.ErrOrStderr())
		_ = cmd.Usage()
		return errNoCommand
	},
}

// Execute runs the root command under ctx.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringP(config.KeyConfig, "c", "", "Config file (default .config/token-rag.{yaml,yml,json})")
	flags.BoolP("verbose", "v", false, "Print debug output to stderr")
	flags.String("backend", "", "Index backend: flat, opensearch")
	flags.String("css", "", "CSS token source: file, glob, npm:/jsr: package file, or URL")
	flags.Bool("cdn-fallback", false, "Fetch npm: sources from unpkg when not installed")
	flags.String("index-file", "", "Flat index vector file")
	flags.String("records-file", "", "Flat index records file")
	flags.String("engine-host", "", "OpenSearch host")
	flags.Int("engine-port", 0, "OpenSearch port")
	flags.String("collection", "", "OpenSearch collection name")
	flags.IntP("top-k", "k", 0, "Number of results to return")
	flags.String("embedder", "", "Embedding provider: ollama, openai, glove, lexical")

	rootCmd.AddCommand(build.Cmd)
	rootCmd.AddCommand(search.Cmd)
	rootCmd.AddCommand(list.Cmd)
	rootCmd.AddCommand(status.Cmd)
	rootCmd.AddCommand(drop.Cmd)
	rootCmd.AddCommand(mcp.Cmd)
	rootCmd.AddCommand(version.Cmd)
}

func setup(cmd *cobra.Command, _ []string) error {
	verbose, _ := cmd.Flags().GetBool("verbose")
	logger.SetVerbose(verbose)

	if err := config.LoadDotEnv("."); err != nil {
		logger.Warn("could not load .env: %v", err)
	}
	return config.Bind(viper.GetViper(), cmd.Flags())
}
