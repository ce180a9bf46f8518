/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

package embedding

import (
	"context"
	"fmt"
	"hash/fnv"
)

// DefaultLexicalDimension is the hash width used when none is configured.
const DefaultLexicalDimension = 512

// LexicalEmbedder is an offline, deterministic embedder. Each term is hashed
// into one signed bucket (feature hashing), and color literals contribute
// their color family words, so "red color" lands near "#ff0000".
type LexicalEmbedder struct {
	dim int
}

// NewLexicalEmbedder creates a lexical embedder of the given width.
// A non-positive width uses DefaultLexicalDimension.
func NewLexicalEmbedder(dim int) *LexicalEmbedder {
	if dim <= 0 {
		dim = DefaultLexicalDimension
	}
	return &LexicalEmbedder{dim: dim}
}

// ModelID implements Embedder.
func (e *LexicalEmbedder) ModelID() string {
	return fmt.Sprintf("lexical/%d", e.dim)
}

// Dimension implements Embedder.
func (e *LexicalEmbedder) Dimension() int {
	return e.dim
}

// Embed implements Embedder. The result is unit length, or zero for text without terms.
func (e *LexicalEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	vec := make([]float32, e.dim)
	for _, t := range terms(text) {
		e.add(vec, t)
	}
	for _, t := range ColorTerms(text) {
		e.add(vec, t)
	}
	return NormalizeL2(vec), nil
}

// EmbedBatch implements Embedder.
func (e *LexicalEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
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

func (e *LexicalEmbedder) add(vec []float32, term string) {
	h := fnv.New64a()
	_, _ = h.Write([]byte(term))
	sum := h.Sum64()

	// The top bit picks the sign so collisions cancel out on average.
	sign := float32(1)
	if sum>>63 == 1 {
		sign = -1
	}
	vec[sum%uint64(e.dim)] += sign
}
