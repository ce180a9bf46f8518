/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

package testutil

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"unicode"
)

// StubEmbedder is a deterministic bag-of-words embedder over a fixed vocabulary.
// Each vocabulary word is one axis; words outside the vocabulary are ignored.
// Vectors are not normalized, so stores must apply their own policy.
type StubEmbedder struct {
	mu    sync.Mutex
	vocab map[string]int
	words []string

	// Fail makes Embed and EmbedBatch fail for texts containing any of these substrings.
	Fail []string

	// EmbedCalls and BatchCalls count invocations.
	EmbedCalls int
	BatchCalls int
}

// NewStubEmbedder returns an embedder whose axes are vocab, in order.
func NewStubEmbedder(vocab ...string) *StubEmbedder {
	e := &StubEmbedder{vocab: make(map[string]int, len(vocab))}
	for _, w := range vocab {
		w = strings.ToLower(w)
		if _, ok := e.vocab[w]; ok {
			continue
		}
		e.vocab[w] = len(e.words)
		e.words = append(e.words, w)
	}
	return e
}

// ModelID identifies the stub and its vocabulary size.
func (e *StubEmbedder) ModelID() string {
	return fmt.Sprintf("stub:%d", len(e.words))
}

// Dimension returns the vocabulary size.
func (e *StubEmbedder) Dimension() int {
	return len(e.words)
}

// Embed counts vocabulary words in text, scaled so repeated words dominate.
func (e *StubEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	e.mu.Lock()
	e.EmbedCalls++
	e.mu.Unlock()
	return e.embed(ctx, text)
}

// EmbedBatch embeds each text in order.
func (e *StubEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	e.mu.Lock()
	e.BatchCalls++
	e.mu.Unlock()

	out := make([][]float32, 0, len(texts))
	for _, text := range texts {
		v, err := e.embed(ctx, text)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (e *StubEmbedder) embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for _, f := range e.Fail {
		if strings.Contains(text, f) {
			return nil, fmt.Errorf("stub embedder refused %q", text)
		}
	}
	vec := make([]float32, len(e.words))
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '#'
	})
	for _, w := range words {
		if i, ok := e.vocab[w]; ok {
			vec[i]++
		}
	}
	return vec, nil
}
