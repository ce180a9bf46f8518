/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

package embedding

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"bennypowers.dev/tokenrag/fs"
)

// GloVeEmbedder embeds text as the mean of pretrained GloVe word vectors.
// Words missing from the vocabulary are ignored.
type GloVeEmbedder struct {
	name    string
	vectors map[string][]float32
	dim     int
}

// NewGloVeEmbedder loads the vectors file at cfg.ModelPath, one word per line
// followed by its components ("word 0.1 -0.2 ..."). A missing or malformed
// file yields ErrModelUnavailable.
func NewGloVeEmbedder(cfg Config) (*GloVeEmbedder, error) {
	if cfg.ModelPath == "" {
		return nil, fmt.Errorf("%w: glove provider requires embedding.modelPath", ErrModelUnavailable)
	}
	filesystem := cfg.FileSystem
	if filesystem == nil {
		filesystem = fs.NewOSFileSystem()
	}

	data, err := filesystem.ReadFile(cfg.ModelPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrModelUnavailable, err)
	}

	vectors, dim, err := parseGloVe(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrModelUnavailable, cfg.ModelPath, err)
	}

	return &GloVeEmbedder{
		name:    strings.TrimSuffix(filepath.Base(cfg.ModelPath), filepath.Ext(cfg.ModelPath)),
		vectors: vectors,
		dim:     dim,
	}, nil
}

func parseGloVe(data []byte) (map[string][]float32, int, error) {
	vectors := make(map[string][]float32)
	dim := 0

	scanner := bufio.NewScanner(bytes.NewReader(data))
	// Long lines for the 300d models
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		parts := strings.Fields(scanner.Text())
		if len(parts) < 2 {
			continue
		}
		if dim == 0 {
			dim = len(parts) - 1
		}
		if len(parts)-1 != dim {
			return nil, 0, fmt.Errorf("line %d has %d components, expected %d", lineNo, len(parts)-1, dim)
		}

		vec := make([]float32, dim)
		for i, s := range parts[1:] {
			val, err := strconv.ParseFloat(s, 32)
			if err != nil {
				return nil, 0, fmt.Errorf("line %d: %w", lineNo, err)
			}
			vec[i] = float32(val)
		}
		vectors[parts[0]] = vec
	}
	if err := scanner.Err(); err != nil {
		return nil, 0, err
	}
	if len(vectors) == 0 {
		return nil, 0, fmt.Errorf("no vectors found")
	}
	return vectors, dim, nil
}

// ModelID implements Embedder.
func (e *GloVeEmbedder) ModelID() string {
	return "glove/" + e.name
}

// Dimension implements Embedder.
func (e *GloVeEmbedder) Dimension() int {
	return e.dim
}

// Embed implements Embedder. Text with no known words embeds to a zero vector.
func (e *GloVeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	embedding := make([]float32, e.dim)
	count := 0
	for _, word := range words(text) {
		vec, ok := e.vectors[word]
		if !ok {
			continue
		}
		for i := range embedding {
			embedding[i] += vec[i]
		}
		count++
	}
	if count == 0 {
		return embedding, nil
	}
	for i := range embedding {
		embedding[i] /= float32(count)
	}
	return NormalizeL2(embedding), nil
}

// EmbedBatch implements Embedder.
func (e *GloVeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for _, text := range texts {
		vec, err := e.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		out = append(out, vec)
	}
	return out, nil
}
