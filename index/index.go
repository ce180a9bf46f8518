/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

// Package index defines the capability shared by the token index backends.
package index

import (
	"context"
	"errors"

	"bennypowers.dev/tokenrag/token"
)

// Sentinel errors reported by Store implementations.
var (
	// ErrIndexNotFound means search ran before any build.
	ErrIndexNotFound = errors.New("index not found, run build first")

	// ErrIndexCorrupt means the persisted index is unreadable or its parts disagree.
	ErrIndexCorrupt = errors.New("index is corrupt, run build again")

	// ErrModelMismatch means the index was built with a different embedding model.
	ErrModelMismatch = errors.New("index was built with a different embedding model, run build again")

	// ErrDimensionMismatch means a vector does not have the index dimension.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrEngineUnreachable means the remote search engine could not be contacted.
	ErrEngineUnreachable = errors.New("search engine unreachable")

	// ErrEngineAuth means the remote search engine rejected the credentials.
	ErrEngineAuth = errors.New("search engine rejected the request as unauthorized")
)

// Hit is a search result.
type Hit struct {
	Record token.Record `json:"record"`

	// Score is the similarity to the query; higher is closer.
	Score float64 `json:"score"`
}

// BuildResult summarizes a build.
type BuildResult struct {
	// Indexed is the number of records stored.
	Indexed int `json:"indexed"`

	// Failed is the number of records skipped because they could not be
	// embedded or were rejected by the backend.
	Failed int `json:"failed"`
}

// Stats describes a built index.
type Stats struct {
	Backend   string `json:"backend"`
	Location  string `json:"location"`
	Count     int    `json:"count"`
	Dimension int    `json:"dimension,omitempty"`
	ModelID   string `json:"modelId,omitempty"`
}

// Store is a searchable index of token records.
// Implementations embed records and queries with an injected embedder.
type Store interface {
	// Ensure prepares the backing storage. It is idempotent.
	Ensure(ctx context.Context) error

	// Build indexes records. Whether existing entries are replaced or kept
	// is up to the backend.
	Build(ctx context.Context, records []token.Record) (BuildResult, error)

	// Search returns up to k hits ordered by descending score.
	Search(ctx context.Context, query string, k int) ([]Hit, error)

	// Stats reports what is currently indexed.
	Stats(ctx context.Context) (Stats, error)

	// Drop removes the index. Dropping a missing index is not an error.
	Drop(ctx context.Context) error
}
