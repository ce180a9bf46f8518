/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

// Package opensearch implements the remote index backend: one document per
// token in an OpenSearch k-NN collection.
//
// Builds append documents under fresh ids; they never remove earlier ones.
// Drop the collection before rebuilding to avoid duplicate hits.
package opensearch

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/google/uuid"
	"github.com/opensearch-project/opensearch-go/v4/opensearchapi"

	"bennypowers.dev/tokenrag/embedding"
	"bennypowers.dev/tokenrag/index"
	"bennypowers.dev/tokenrag/internal/logger"
	"bennypowers.dev/tokenrag/token"
)

// Backend is the name this store reports in Stats.
const Backend = "opensearch"

// Store is an index.Store backed by an OpenSearch collection.
type Store struct {
	client     *Client
	embedder   embedding.Embedder
	collection string
}

var _ index.Store = (*Store)(nil)

// New creates a store for collection. The embedder may be nil for Stats and Drop.
func New(client *Client, embedder embedding.Embedder, collection string) *Store {
	return &Store{client: client, embedder: embedder, collection: collection}
}

func (s *Store) indices() []string {
	return []string{s.collection}
}

// document is the stored form of a record. Text is derived, so it is not stored.
type document struct {
	Name      string    `json:"name"`
	Theme     string    `json:"theme"`
	Value     string    `json:"value"`
	Embedding []float32 `json:"embedding,omitempty"`
}

func collectionBody(dim int) map[string]any {
	return map[string]any{
		"settings": map[string]any{
			"index": map[string]any{"knn": true},
		},
		"mappings": map[string]any{
			"properties": map[string]any{
				"name":  map[string]any{"type": "keyword"},
				"theme": map[string]any{"type": "keyword"},
				"value": map[string]any{"type": "text"},
				"embedding": map[string]any{
					"type":      "knn_vector",
					"dimension": dim,
					"method": map[string]any{
						"name":       "hnsw",
						"space_type": "cosinesimil",
						"engine":     "nmslib",
					},
				},
			},
		},
	}
}

// Ensure creates the collection with a k-NN mapping sized to the embedder.
// An existing collection is left alone, but its vector dimension must match.
func (s *Store) Ensure(ctx context.Context) error {
	if s.embedder == nil {
		return fmt.Errorf("opensearch index: no embedder configured")
	}
	dim := s.embedder.Dimension()

	exists, err := s.exists(ctx)
	if err != nil {
		return err
	}
	if exists {
		got, err := s.dimension(ctx)
		if err != nil {
			return err
		}
		if got != 0 && got != dim {
			return fmt.Errorf("%w: collection %s stores %d dimensions, embedder produces %d",
				index.ErrDimensionMismatch, s.collection, got, dim)
		}
		logger.Debug("collection %s already exists", s.collection)
		return nil
	}

	body, err := jsonBody(collectionBody(dim))
	if err != nil {
		return err
	}
	err = s.client.call(ctx, "create collection", &opensearchapi.IndicesCreateReq{Index: s.collection, Body: body}, nil)
	if IsType(err, "resource_already_exists_exception") {
		// Created concurrently by another build.
		return nil
	}
	if err != nil {
		return fmt.Errorf("cannot create collection %s: %w", s.collection, err)
	}
	logger.Info("Created collection %s (dimension %d)", s.collection, dim)
	return nil
}

func (s *Store) exists(ctx context.Context) (bool, error) {
	err := s.client.call(ctx, "check collection", &opensearchapi.IndicesExistsReq{Indices: s.indices()}, nil)
	switch {
	case err == nil:
		return true, nil
	case IsStatus(err, http.StatusNotFound):
		return false, nil
	default:
		return false, fmt.Errorf("cannot check collection %s: %w", s.collection, err)
	}
}

// dimension reads the embedding dimension from the collection mapping, or 0
// when the mapping has none.
func (s *Store) dimension(ctx context.Context) (int, error) {
	var resp map[string]struct {
		Mappings struct {
			Properties struct {
				Embedding struct {
					Dimension int `json:"dimension"`
				} `json:"embedding"`
			} `json:"properties"`
		} `json:"mappings"`
	}
	if err := s.client.call(ctx, "get mapping", &opensearchapi.MappingGetReq{Indices: s.indices()}, &resp); err != nil {
		return 0, fmt.Errorf("cannot read mapping of %s: %w", s.collection, err)
	}
	for _, m := range resp {
		return m.Mappings.Properties.Embedding.Dimension, nil
	}
	return 0, nil
}

// Build embeds and stores each record as its own document, then refreshes the
// collection so the documents are searchable. Records that cannot be embedded
// or are rejected by the engine are counted as failed, as are records whose
// embedding is a zero vector, which cosine similarity cannot index. An
// unreachable engine or rejected credentials abort the build.
func (s *Store) Build(ctx context.Context, records []token.Record) (index.BuildResult, error) {
	var res index.BuildResult
	if s.embedder == nil {
		return res, fmt.Errorf("opensearch index: no embedder configured")
	}

	for _, r := range records {
		vec, err := s.embedder.Embed(ctx, r.Text)
		if err != nil {
			if ctx.Err() != nil {
				return res, ctx.Err()
			}
			logger.Warn("cannot embed %s: %v", r.Name, err)
			res.Failed++
			continue
		}
		if embedding.Norm(vec) == 0 {
			logger.Warn("skipping %s: embedding is a zero vector", r.Name)
			res.Failed++
			continue
		}

		body, err := jsonBody(document{Name: r.Name, Theme: r.Theme, Value: r.Value, Embedding: vec})
		if err != nil {
			return res, err
		}
		req := &opensearchapi.IndexReq{Index: s.collection, DocumentID: uuid.NewString(), Body: body}
		if err := s.client.call(ctx, "index document", req, nil); err != nil {
			if rejected(err) {
				logger.Warn("engine rejected %s: %v", r.Name, err)
				res.Failed++
				continue
			}
			return res, fmt.Errorf("cannot index %s: %w", r.Name, err)
		}
		res.Indexed++
	}

	if err := s.client.call(ctx, "refresh collection", &opensearchapi.IndicesRefreshReq{Indices: s.indices()}, nil); err != nil {
		return res, fmt.Errorf("cannot refresh collection %s: %w", s.collection, err)
	}
	return res, nil
}

type searchResponse struct {
	Hits struct {
		Total struct {
			Value int `json:"value"`
		} `json:"total"`
		Hits []struct {
			Score  float64  `json:"_score"`
			Source document `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// Search runs an approximate k-NN query for the embedded query text.
// A query that embeds to a zero vector has no direction to compare, so it
// matches the first k documents with score 0.
func (s *Store) Search(ctx context.Context, query string, k int) ([]index.Hit, error) {
	if s.embedder == nil {
		return nil, fmt.Errorf("opensearch index: no embedder configured")
	}
	if k <= 0 {
		return []index.Hit{}, nil
	}

	vec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("cannot embed query: %w", err)
	}

	zero := embedding.Norm(vec) == 0
	clause := map[string]any{
		"knn": map[string]any{
			"embedding": map[string]any{
				"vector": vec,
				"k":      k,
			},
		},
	}
	if zero {
		logger.Debug("query %q embeds to a zero vector", query)
		clause = map[string]any{"match_all": map[string]any{}}
	}
	body, err := jsonBody(map[string]any{
		"size":  k,
		"query": clause,
		"_source": map[string]any{
			"excludes": []string{"embedding"},
		},
	})
	if err != nil {
		return nil, err
	}

	var resp searchResponse
	err = s.client.call(ctx, "search", &opensearchapi.SearchReq{Indices: s.indices(), Body: body}, &resp)
	if IsStatus(err, http.StatusNotFound) {
		return nil, index.ErrIndexNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	hits := make([]index.Hit, 0, len(resp.Hits.Hits))
	for _, h := range resp.Hits.Hits {
		rec := token.New(h.Source.Name, h.Source.Value)
		if h.Source.Theme != "" {
			rec.Theme = h.Source.Theme
		}
		score := h.Score
		if zero {
			score = 0
		}
		hits = append(hits, index.Hit{Record: rec, Score: score})
	}
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// Stats reports the document count and vector dimension of the collection.
// The engine does not record which model produced the vectors.
func (s *Store) Stats(ctx context.Context) (index.Stats, error) {
	body, err := jsonBody(map[string]any{
		"size":             0,
		"track_total_hits": true,
		"query":            map[string]any{"match_all": map[string]any{}},
	})
	if err != nil {
		return index.Stats{}, err
	}
	var count searchResponse
	err = s.client.call(ctx, "count documents", &opensearchapi.SearchReq{Indices: s.indices(), Body: body}, &count)
	if IsStatus(err, http.StatusNotFound) {
		return index.Stats{}, index.ErrIndexNotFound
	}
	if err != nil {
		return index.Stats{}, fmt.Errorf("cannot count documents: %w", err)
	}

	dim, err := s.dimension(ctx)
	if err != nil {
		return index.Stats{}, err
	}

	return index.Stats{
		Backend:   Backend,
		Location:  s.client.BaseURL() + "/" + url.PathEscape(s.collection),
		Count:     count.Hits.Total.Value,
		Dimension: dim,
	}, nil
}

// Drop deletes the collection and all its documents.
func (s *Store) Drop(ctx context.Context) error {
	err := s.client.call(ctx, "delete collection", &opensearchapi.IndicesDeleteReq{Indices: s.indices()}, nil)
	if err == nil || IsStatus(err, http.StatusNotFound) {
		return nil
	}
	return fmt.Errorf("cannot delete collection %s: %w", s.collection, err)
}
