/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

// Package config provides configuration loading for tokenrag.
package config

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"bennypowers.dev/tokenrag/embedding"
)

// ErrInvalid is wrapped by every validation error.
var ErrInvalid = errors.New("invalid configuration")

// Index backends.
const (
	BackendFlat       = "flat"
	BackendOpenSearch = "opensearch"
)

// Backends returns the supported backend names.
func Backends() []string {
	return []string{BackendFlat, BackendOpenSearch}
}

// Config represents the tokenrag configuration.
type Config struct {
	// Backend selects the index store: "flat" or "opensearch".
	Backend string `yaml:"backend" json:"backend"`

	// CSSFilePath is the token source: a path or doublestar glob relative
	// to the project root, an npm: or jsr: package file, or an http(s) URL.
	CSSFilePath string `yaml:"cssFilePath" json:"cssFilePath"`

	// CDNFallback fetches npm: sources from unpkg when they are not installed.
	CDNFallback bool `yaml:"cdnFallback" json:"cdnFallback"`

	// IndexFilePath and RecordsFilePath locate the flat index pair.
	IndexFilePath   string `yaml:"indexFilePath" json:"indexFilePath"`
	RecordsFilePath string `yaml:"recordsFilePath" json:"recordsFilePath"`

	// Engine* configure the OpenSearch backend.
	EngineScheme     string `yaml:"engineScheme" json:"engineScheme"`
	EngineHost       string `yaml:"engineHost" json:"engineHost"`
	EnginePort       int    `yaml:"enginePort" json:"enginePort"`
	EngineTimeout    string `yaml:"engineTimeout" json:"engineTimeout"`
	EngineMaxRetries int    `yaml:"engineMaxRetries" json:"engineMaxRetries"`
	CollectionName   string `yaml:"collectionName" json:"collectionName"`

	// TopK is the default number of search results.
	TopK int `yaml:"topK" json:"topK"`

	// Embedding configures the embedding provider.
	Embedding embedding.Config `yaml:"embedding" json:"embedding"`
}

// Default returns a config with default values.
func Default() *Config {
	return &Config{
		Backend:          BackendFlat,
		CSSFilePath:      "tokens.css",
		IndexFilePath:    "tokens.index",
		RecordsFilePath:  "tokens.json",
		EngineScheme:     "http",
		EngineHost:       "localhost",
		EnginePort:       9200,
		EngineTimeout:    "30s",
		EngineMaxRetries: 0,
		CollectionName:   "tokens",
		TopK:             5,
		Embedding: embedding.Config{
			Provider: embedding.DefaultProvider,
		},
	}
}

// Timeout returns the parsed engine timeout. Call Validate first.
func (c *Config) Timeout() time.Duration {
	d, err := time.ParseDuration(c.EngineTimeout)
	if err != nil {
		return 0
	}
	return d
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch {
	case !slices.Contains(Backends(), c.Backend):
		return fmt.Errorf("%w: unknown backend %q (available: %v)", ErrInvalid, c.Backend, Backends())
	case c.Embedding.Provider != "" && !embedding.IsProvider(c.Embedding.Provider):
		return fmt.Errorf("%w: unknown embedding provider %q (available: %v)",
			ErrInvalid, c.Embedding.Provider, embedding.Providers())
	case c.Embedding.Dimension < 0:
		return fmt.Errorf("%w: embedding.dimension must not be negative", ErrInvalid)
	case c.CSSFilePath == "":
		return fmt.Errorf("%w: cssFilePath is required", ErrInvalid)
	case c.TopK < 1:
		return fmt.Errorf("%w: topK must be at least 1, got %d", ErrInvalid, c.TopK)
	}

	switch c.Backend {
	case BackendFlat:
		if c.IndexFilePath == "" || c.RecordsFilePath == "" {
			return fmt.Errorf("%w: indexFilePath and recordsFilePath are required", ErrInvalid)
		}
		if c.IndexFilePath == c.RecordsFilePath {
			return fmt.Errorf("%w: indexFilePath and recordsFilePath must differ", ErrInvalid)
		}
	case BackendOpenSearch:
		if c.EngineHost == "" || c.CollectionName == "" {
			return fmt.Errorf("%w: engineHost and collectionName are required", ErrInvalid)
		}
		if c.EnginePort < 1 || c.EnginePort > 65535 {
			return fmt.Errorf("%w: enginePort must be in 1..65535, got %d", ErrInvalid, c.EnginePort)
		}
		if c.EngineScheme != "http" && c.EngineScheme != "https" {
			return fmt.Errorf("%w: engineScheme must be http or https, got %q", ErrInvalid, c.EngineScheme)
		}
		if c.EngineMaxRetries < 0 {
			return fmt.Errorf("%w: engineMaxRetries must not be negative", ErrInvalid)
		}
	}

	if d, err := time.ParseDuration(c.EngineTimeout); err != nil || d <= 0 {
		return fmt.Errorf("%w: engineTimeout %q is not a positive duration", ErrInvalid, c.EngineTimeout)
	}
	return nil
}
