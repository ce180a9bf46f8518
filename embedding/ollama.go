/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

package embedding

import (
	"context"
	"fmt"
	"net/http"
)

// Ollama defaults. all-minilm is the sentence-transformers all-MiniLM-L6-v2 model.
const (
	DefaultOllamaBaseURL = "http://localhost:11434"
	DefaultOllamaModel   = "all-minilm"
)

// OllamaEmbedder embeds text with the Ollama /api/embed endpoint.
type OllamaEmbedder struct {
	baseURL string
	model   string
	token   string
	dim     int
	client  *http.Client
}

// NewOllamaEmbedder creates an Ollama embedder and checks the model once.
// An unreachable server or unknown model yields ErrModelUnavailable.
func NewOllamaEmbedder(ctx context.Context, cfg Config) (*OllamaEmbedder, error) {
	e := &OllamaEmbedder{
		baseURL: cfg.BaseURL,
		model:   cfg.Model,
		token:   cfg.APIKey,
		client:  httpClient(cfg),
	}
	if e.baseURL == "" {
		e.baseURL = DefaultOllamaBaseURL
	}
	if e.model == "" {
		e.model = DefaultOllamaModel
	}

	vecs, err := e.embed(ctx, []string{sampleText})
	if err != nil {
		return nil, fmt.Errorf("%w: ollama model %s at %s: %w", ErrModelUnavailable, e.model, e.baseURL, err)
	}
	e.dim = len(vecs[0])
	if e.dim == 0 {
		return nil, fmt.Errorf("%w: ollama model %s returned an empty vector", ErrModelUnavailable, e.model)
	}
	return e, nil
}

// ModelID implements Embedder.
func (e *OllamaEmbedder) ModelID() string {
	return "ollama/" + e.model
}

// Dimension implements Embedder.
func (e *OllamaEmbedder) Dimension() int {
	return e.dim
}

// Embed implements Embedder.
func (e *OllamaEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := e.embed(ctx, []string{text})
	if err != nil {
		return nil, fmt.Errorf("ollama embed: %w", err)
	}
	return vecs[0], nil
}

// EmbedBatch implements Embedder with a single request.
func (e *OllamaEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	vecs, err := e.embed(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("ollama embed batch: %w", err)
	}
	return vecs, nil
}

func (e *OllamaEmbedder) embed(ctx context.Context, texts []string) ([][]float32, error) {
	payload := map[string]any{
		"model": e.model,
		"input": texts,
	}

	var resp struct {
		Embeddings [][]float32 `json:"embeddings"`
	}
	if err := postJSON(ctx, e.client, e.baseURL, "/api/embed", e.token, payload, &resp); err != nil {
		return nil, err
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(resp.Embeddings))
	}
	return resp.Embeddings, nil
}
