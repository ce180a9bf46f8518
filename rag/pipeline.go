/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

// Package rag wires token extraction, embedding and an index store into the
// build and search paths.
package rag

import (
	"context"
	"fmt"

	"bennypowers.dev/tokenrag/index"
	"bennypowers.dev/tokenrag/internal/logger"
	"bennypowers.dev/tokenrag/load"
	"bennypowers.dev/tokenrag/token"
)

// DefaultTopK is used when neither the caller nor the config sets a result count.
const DefaultTopK = 5

// Pipeline runs builds and searches against one store.
type Pipeline struct {
	source string
	opts   load.Options
	store  index.Store
	topK   int
}

// NewPipeline creates a pipeline that indexes the tokens found at source.
// See load.Load for the accepted source forms.
func NewPipeline(source string, opts load.Options, store index.Store, topK int) *Pipeline {
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &Pipeline{source: source, opts: opts, store: store, topK: topK}
}

// Store returns the underlying index store.
func (p *Pipeline) Store() index.Store {
	return p.store
}

// Extract reads the token records from the configured source.
func (p *Pipeline) Extract(ctx context.Context) ([]token.Record, error) {
	return load.Load(ctx, p.source, p.opts)
}

// Build extracts all tokens and indexes them.
func (p *Pipeline) Build(ctx context.Context) (index.BuildResult, error) {
	records, err := p.Extract(ctx)
	if err != nil {
		return index.BuildResult{}, err
	}
	logger.Debug("extracted %d tokens from %s", len(records), p.source)

	if err := p.store.Ensure(ctx); err != nil {
		return index.BuildResult{}, err
	}

	res, err := p.store.Build(ctx, records)
	if err != nil {
		return res, fmt.Errorf("build failed after %d tokens: %w", res.Indexed, err)
	}
	return res, nil
}

// Search returns up to k tokens closest to query. A non-positive k uses the
// configured default.
func (p *Pipeline) Search(ctx context.Context, query string, k int) ([]index.Hit, error) {
	if k <= 0 {
		k = p.topK
	}
	return p.store.Search(ctx, query, k)
}
