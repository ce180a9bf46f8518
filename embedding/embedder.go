/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

// Package embedding turns token descriptions and search queries into vectors.
//
// An Embedder is constructed once per process with New and injected into the
// index stores. Construction verifies that the model is usable, so a missing
// model fails fast instead of on the first record.
package embedding

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"

	"bennypowers.dev/tokenrag/fs"
)

// ErrModelUnavailable is returned when an embedding model cannot be loaded or reached.
var ErrModelUnavailable = errors.New("embedding model unavailable")

// Embedder generates vector embeddings from text.
type Embedder interface {
	// ModelID identifies the model. Indexes record it so that a query is
	// never compared against vectors from a different model.
	ModelID() string

	// Dimension returns the dimensionality of the output vectors.
	Dimension() int

	// Embed returns the vector for a single text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch returns one vector per text, in order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// Provider names accepted by New.
const (
	ProviderOllama  = "ollama"
	ProviderOpenAI  = "openai"
	ProviderGloVe   = "glove"
	ProviderLexical = "lexical"
)

// DefaultProvider is used when Config.Provider is empty.
const DefaultProvider = ProviderOllama

// Providers returns the supported provider names.
func Providers() []string {
	return []string{ProviderOllama, ProviderOpenAI, ProviderGloVe, ProviderLexical}
}

// IsProvider reports whether name is a supported provider.
func IsProvider(name string) bool {
	return slices.Contains(Providers(), name)
}

// Config selects and configures an embedding provider.
type Config struct {
	// Provider is one of Providers(). Defaults to DefaultProvider.
	Provider string `yaml:"provider" json:"provider"`

	// Model is the model name for remote providers.
	Model string `yaml:"model,omitempty" json:"model,omitempty"`

	// BaseURL is the API root for remote providers.
	BaseURL string `yaml:"baseURL,omitempty" json:"baseURL,omitempty"`

	// APIKey is sent as a bearer token when set.
	APIKey string `yaml:"apiKey,omitempty" json:"apiKey,omitempty"`

	// ModelPath is the GloVe vectors file.
	ModelPath string `yaml:"modelPath,omitempty" json:"modelPath,omitempty"`

	// Dimension is the expected output dimension. Zero accepts whatever the
	// model reports; the lexical provider uses it as its hash width.
	Dimension int `yaml:"dimension,omitempty" json:"dimension,omitempty"`

	// HTTPClient overrides the client used by remote providers.
	HTTPClient *http.Client `yaml:"-" json:"-"`

	// FileSystem overrides the filesystem used to read ModelPath.
	FileSystem fs.FileSystem `yaml:"-" json:"-"`
}

// New constructs the configured embedder and verifies that its model is usable.
func New(ctx context.Context, cfg Config) (Embedder, error) {
	provider := cfg.Provider
	if provider == "" {
		provider = DefaultProvider
	}

	var (
		e   Embedder
		err error
	)
	switch provider {
	case ProviderOllama:
		e, err = NewOllamaEmbedder(ctx, cfg)
	case ProviderOpenAI:
		e, err = NewOpenAIEmbedder(ctx, cfg)
	case ProviderGloVe:
		e, err = NewGloVeEmbedder(cfg)
	case ProviderLexical:
		e = NewLexicalEmbedder(cfg.Dimension)
	default:
		return nil, fmt.Errorf("unknown embedding provider %q (available: %v)", provider, Providers())
	}
	if err != nil {
		return nil, err
	}

	if cfg.Dimension > 0 && e.Dimension() != cfg.Dimension {
		return nil, fmt.Errorf("%w: %s produces %d dimensions, configured %d",
			ErrModelUnavailable, e.ModelID(), e.Dimension(), cfg.Dimension)
	}
	return e, nil
}
