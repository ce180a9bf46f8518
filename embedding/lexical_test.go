/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

package embedding_test

import (
	"context"
	"math"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bennypowers.dev/tokenrag/embedding"
)

func TestLexicalEmbedder_Deterministic(t *testing.T) {
	ctx := context.Background()
	a := embedding.NewLexicalEmbedder(0)
	b := embedding.NewLexicalEmbedder(0)

	assert.Equal(t, embedding.DefaultLexicalDimension, a.Dimension())
	assert.Equal(t, "lexical/512", a.ModelID())

	va, err := a.Embed(ctx, "Token color-primary has value #ff0000.")
	require.NoError(t, err)
	vb, err := b.Embed(ctx, "Token color-primary has value #ff0000.")
	require.NoError(t, err)
	assert.Equal(t, va, vb)
	assert.InDelta(t, 1.0, embedding.Norm(va), 1e-6)
}

func TestLexicalEmbedder_Empty(t *testing.T) {
	v, err := embedding.NewLexicalEmbedder(16).Embed(context.Background(), "  ...  ")
	require.NoError(t, err)
	assert.Len(t, v, 16)
	assert.Zero(t, embedding.Norm(v))
}

func TestLexicalEmbedder_ColorQuery(t *testing.T) {
	ctx := context.Background()
	e := embedding.NewLexicalEmbedder(1024)

	vecs, err := e.EmbedBatch(ctx, []string{
		"Token color-primary has value #ff0000.",
		"Token spacing-sm has value 4px.",
	})
	require.NoError(t, err)
	require.Len(t, vecs, 2)

	q, err := e.Embed(ctx, "red color")
	require.NoError(t, err)

	red := embedding.Dot(q, vecs[0])
	spacing := embedding.Dot(q, vecs[1])
	assert.Greater(t, red, spacing)
	assert.Greater(t, red, 0.3)
}

func TestLexicalEmbedder_CaseInsensitive(t *testing.T) {
	ctx := context.Background()
	e := embedding.NewLexicalEmbedder(256)

	upper, _ := e.Embed(ctx, "SPACING Small")
	lower, _ := e.Embed(ctx, "spacing small")
	assert.InDelta(t, 1.0, embedding.Dot(upper, lower), 1e-6)
	assert.False(t, math.IsNaN(embedding.Dot(upper, lower)))
}

func TestColorTerms(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		contains []string
		excludes []string
	}{
		{name: "hex red", text: "value #ff0000.", contains: []string{"color", "red"}},
		{name: "short hex blue", text: "#00f", contains: []string{"color", "blue"}},
		{name: "named color", text: "Token color-surface has value rebeccapurple.", contains: []string{"color", "purple"}},
		{name: "white", text: "white", contains: []string{"white", "light"}},
		{name: "black", text: "#000", contains: []string{"black", "dark"}},
		{name: "gray", text: "#808080", contains: []string{"gray"}, excludes: []string{"red"}},
		{name: "functional notation", text: "0 1px 2px rgb(0 128 0 / 0.5)", contains: []string{"color", "green"}},
		{name: "transparent", text: "transparent", contains: []string{"transparent"}},
		{name: "hex-like words are not colors", text: "add a bad face", excludes: []string{"color"}},
		{name: "no colors", text: "Token spacing-sm has value 4px.", excludes: []string{"color"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := embedding.ColorTerms(tt.text)
			for _, want := range tt.contains {
				if !slices.Contains(got, want) {
					t.Errorf("ColorTerms(%q) = %v, missing %q", tt.text, got, want)
				}
			}
			for _, bad := range tt.excludes {
				if slices.Contains(got, bad) {
					t.Errorf("ColorTerms(%q) = %v, should not contain %q", tt.text, got, bad)
				}
			}
		})
	}
}

func TestNew_UnknownProvider(t *testing.T) {
	_, err := embedding.New(context.Background(), embedding.Config{Provider: "word2vec"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, embedding.ErrModelUnavailable)
	assert.False(t, embedding.IsProvider("word2vec"))
	assert.True(t, embedding.IsProvider("lexical"))
}
