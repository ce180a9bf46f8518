/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

package rag

import (
	"context"
	"fmt"
	"path/filepath"

	"bennypowers.dev/tokenrag/config"
	"bennypowers.dev/tokenrag/embedding"
	"bennypowers.dev/tokenrag/fs"
	"bennypowers.dev/tokenrag/index"
	"bennypowers.dev/tokenrag/index/flat"
	"bennypowers.dev/tokenrag/index/opensearch"
	"bennypowers.dev/tokenrag/load"
)

// StoreFactory builds a store for a resolved configuration.
type StoreFactory func(filesystem fs.FileSystem, rootDir string, cfg *config.Config, embedder embedding.Embedder) (index.Store, error)

var backends = map[string]StoreFactory{
	config.BackendFlat:       newFlatStore,
	config.BackendOpenSearch: newOpenSearchStore,
}

func resolvePath(rootDir, p string) string {
	if p == "" || filepath.IsAbs(p) || rootDir == "" {
		return p
	}
	return filepath.Join(rootDir, p)
}

func newFlatStore(filesystem fs.FileSystem, rootDir string, cfg *config.Config, embedder embedding.Embedder) (index.Store, error) {
	indexPath := resolvePath(rootDir, cfg.IndexFilePath)
	opts := flat.Options{
		IndexPath:   indexPath,
		RecordsPath: resolvePath(rootDir, cfg.RecordsFilePath),
	}
	// flock needs real files
	if _, ok := filesystem.(*fs.OSFileSystem); ok {
		opts.LockPath = indexPath + ".lock"
	}
	return flat.New(filesystem, embedder, opts), nil
}

func newOpenSearchStore(_ fs.FileSystem, _ string, cfg *config.Config, embedder embedding.Embedder) (index.Store, error) {
	client, err := opensearch.NewClient(opensearch.ClientOptions{
		Scheme:     cfg.EngineScheme,
		Host:       cfg.EngineHost,
		Port:       cfg.EnginePort,
		Timeout:    cfg.Timeout(),
		MaxRetries: cfg.EngineMaxRetries,
	})
	if err != nil {
		return nil, err
	}
	return opensearch.New(client, embedder, cfg.CollectionName), nil
}

// OpenStore creates the store selected by cfg.Backend. The embedder may be
// nil when only Stats or Drop will be called.
func OpenStore(filesystem fs.FileSystem, rootDir string, cfg *config.Config, embedder embedding.Embedder) (index.Store, error) {
	factory, ok := backends[cfg.Backend]
	if !ok {
		return nil, fmt.Errorf("%w: unknown backend %q", config.ErrInvalid, cfg.Backend)
	}
	return factory(filesystem, rootDir, cfg, embedder)
}

// Open constructs the embedder and store for cfg and returns a ready pipeline.
// Embedder construction verifies the model, so an unavailable model fails here.
func Open(ctx context.Context, filesystem fs.FileSystem, rootDir string, cfg *config.Config) (*Pipeline, error) {
	embedCfg := cfg.Embedding
	if embedCfg.FileSystem == nil {
		embedCfg.FileSystem = filesystem
	}
	if embedCfg.ModelPath != "" {
		embedCfg.ModelPath = resolvePath(rootDir, embedCfg.ModelPath)
	}

	embedder, err := embedding.New(ctx, embedCfg)
	if err != nil {
		return nil, err
	}
	return OpenWith(filesystem, rootDir, cfg, embedder)
}

// OpenWith is Open with an already constructed embedder.
func OpenWith(filesystem fs.FileSystem, rootDir string, cfg *config.Config, embedder embedding.Embedder) (*Pipeline, error) {
	store, err := OpenStore(filesystem, rootDir, cfg, embedder)
	if err != nil {
		return nil, err
	}
	opts := load.Options{
		Root:         rootDir,
		FS:           filesystem,
		CDNFallback:  cfg.CDNFallback,
		FetchTimeout: cfg.Timeout(),
	}
	return NewPipeline(cfg.CSSFilePath, opts, store, cfg.TopK), nil
}
