/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

package embedding_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bennypowers.dev/tokenrag/embedding"
)

// fakeOllama answers /api/embed with a 3-dimensional vector per input,
// whose first component is the input length.
func fakeOllama(t *testing.T, requests *[]map[string]any) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/embed" || r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if requests != nil {
			*requests = append(*requests, body)
		}
		if body["model"] != "all-minilm" {
			http.Error(w, `{"error":"model not found"}`, http.StatusNotFound)
			return
		}
		inputs, _ := body["input"].([]any)
		embeddings := make([][]float32, 0, len(inputs))
		for _, in := range inputs {
			s, _ := in.(string)
			embeddings = append(embeddings, []float32{float32(len(s)), 1, 0})
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"embeddings": embeddings})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestOllamaEmbedder(t *testing.T) {
	var requests []map[string]any
	srv := fakeOllama(t, &requests)
	ctx := context.Background()

	e, err := embedding.NewOllamaEmbedder(ctx, embedding.Config{BaseURL: srv.URL})
	require.NoError(t, err)
	assert.Equal(t, 3, e.Dimension())
	assert.Equal(t, "ollama/all-minilm", e.ModelID())
	require.Len(t, requests, 1, "construction should check the model once")

	vec, err := e.Embed(ctx, "abcd")
	require.NoError(t, err)
	assert.Equal(t, []float32{4, 1, 0}, vec)

	vecs, err := e.EmbedBatch(ctx, []string{"a", "abc"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{1, 1, 0}, {3, 1, 0}}, vecs)
	assert.Len(t, requests, 3, "batch should be a single request")
	assert.Len(t, requests[2]["input"], 2)

	empty, err := e.EmbedBatch(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
	assert.Len(t, requests, 3)
}

func TestOllamaEmbedder_UnknownModel(t *testing.T) {
	srv := fakeOllama(t, nil)

	_, err := embedding.NewOllamaEmbedder(context.Background(), embedding.Config{
		BaseURL: srv.URL,
		Model:   "nope",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, embedding.ErrModelUnavailable)
}

func TestOllamaEmbedder_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := embedding.New(context.Background(), embedding.Config{
		Provider: embedding.ProviderOllama,
		BaseURL:  url,
	})
	assert.ErrorIs(t, err, embedding.ErrModelUnavailable)
}

func TestNew_DimensionMismatch(t *testing.T) {
	srv := fakeOllama(t, nil)

	_, err := embedding.New(context.Background(), embedding.Config{
		BaseURL:   srv.URL,
		Dimension: 384,
	})
	assert.ErrorIs(t, err, embedding.ErrModelUnavailable)
}
