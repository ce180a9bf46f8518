/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

// Package cmdutil holds helpers shared by the tokenrag commands.
package cmdutil

import (
	"context"

	"github.com/spf13/viper"

	"bennypowers.dev/tokenrag/config"
	"bennypowers.dev/tokenrag/fs"
	"bennypowers.dev/tokenrag/index"
	"bennypowers.dev/tokenrag/internal/logger"
	"bennypowers.dev/tokenrag/rag"
)

// RootDir is the directory relative paths and the config file are resolved against.
const RootDir = "."

// Config resolves the effective configuration from the bound viper instance.
func Config() (*config.Config, error) {
	cfg, err := config.Resolve(viper.GetViper(), fs.NewOSFileSystem(), RootDir)
	if err != nil {
		return nil, err
	}
	logger.Debug("backend=%s css=%s embedder=%s topK=%d", cfg.Backend, cfg.CSSFilePath, cfg.Embedding.Provider, cfg.TopK)
	return cfg, nil
}

// OpenPipeline resolves configuration and constructs the embedder and store.
func OpenPipeline(ctx context.Context) (*rag.Pipeline, error) {
	cfg, err := Config()
	if err != nil {
		return nil, err
	}
	return rag.Open(ctx, fs.NewOSFileSystem(), RootDir, cfg)
}

// OpenStore opens the configured store without an embedder, for commands
// that neither build nor search.
func OpenStore() (index.Store, error) {
	cfg, err := Config()
	if err != nil {
		return nil, err
	}
	return rag.OpenStore(fs.NewOSFileSystem(), RootDir, cfg, nil)
}
