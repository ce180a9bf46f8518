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

// OpenAI defaults.
const (
	DefaultOpenAIBaseURL = "https://api.openai.com/v1"
	DefaultOpenAIModel   = "text-embedding-3-small"
)

// OpenAIEmbedder embeds text with an OpenAI-compatible /embeddings endpoint.
type OpenAIEmbedder struct {
	baseURL string
	model   string
	apiKey  string
	dims    int // requested output size, zero for the model default
	dim     int
	client  *http.Client
}

// NewOpenAIEmbedder creates an OpenAI-compatible embedder and checks the model once.
func NewOpenAIEmbedder(ctx context.Context, cfg Config) (*OpenAIEmbedder, error) {
	e := &OpenAIEmbedder{
		baseURL: cfg.BaseURL,
		model:   cfg.Model,
		apiKey:  cfg.APIKey,
		dims:    cfg.Dimension,
		client:  httpClient(cfg),
	}
	if e.baseURL == "" {
		e.baseURL = DefaultOpenAIBaseURL
	}
	if e.model == "" {
		e.model = DefaultOpenAIModel
	}

	vecs, err := e.embed(ctx, []string{sampleText})
	if err != nil {
		return nil, fmt.Errorf("%w: openai model %s at %s: %w", ErrModelUnavailable, e.model, e.baseURL, err)
	}
	e.dim = len(vecs[0])
	if e.dim == 0 {
		return nil, fmt.Errorf("%w: openai model %s returned an empty vector", ErrModelUnavailable, e.model)
	}
	return e, nil
}

// ModelID implements Embedder.
func (e *OpenAIEmbedder) ModelID() string {
	return "openai/" + e.model
}

// Dimension implements Embedder.
func (e *OpenAIEmbedder) Dimension() int {
	return e.dim
}

// Embed implements Embedder.
func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := e.embed(ctx, []string{text})
	if err != nil {
		return nil, fmt.Errorf("openai embed: %w", err)
	}
	return vecs[0], nil
}

// EmbedBatch implements Embedder with a single request.
func (e *OpenAIEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	vecs, err := e.embed(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("openai embed batch: %w", err)
	}
	return vecs, nil
}

type openAIRequest struct {
	Model      string   `json:"model"`
	Input      []string `json:"input"`
	Dimensions int      `json:"dimensions,omitempty"`
}

type openAIResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

func (e *OpenAIEmbedder) embed(ctx context.Context, texts []string) ([][]float32, error) {
	payload := openAIRequest{Model: e.model, Input: texts, Dimensions: e.dims}

	var resp openAIResponse
	if err := postJSON(ctx, e.client, e.baseURL, "/embeddings", e.apiKey, payload, &resp); err != nil {
		return nil, err
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(resp.Data))
	}

	// The API reports an index per item; do not rely on response order.
	out := make([][]float32, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(out) || out[d.Index] != nil {
			return nil, fmt.Errorf("invalid embedding index %d", d.Index)
		}
		out[d.Index] = d.Embedding
	}
	return out, nil
}
