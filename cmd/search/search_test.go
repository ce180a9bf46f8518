/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

package search

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"bennypowers.dev/tokenrag/config"
	"bennypowers.dev/tokenrag/index"
	"bennypowers.dev/tokenrag/rag"
	"bennypowers.dev/tokenrag/testutil"
	"bennypowers.dev/tokenrag/token"
)

func hits() []index.Hit {
	return []index.Hit{
		{Record: token.New("color-primary", "#ff0000"), Score: 0.9},
		{Record: token.New("spacing-sm", "4px"), Score: 0.25},
	}
}

func TestOutputText(t *testing.T) {
	var buf bytes.Buffer
	if err := outputText(&buf, hits(), false); err != nil {
		t.Fatal(err)
	}

	want := "--color-primary" + strings.Repeat(" ", 10) + " → #ff0000\n" +
		"--spacing-sm" + strings.Repeat(" ", 13) + " → 4px\n"
	if buf.String() != want {
		t.Errorf("outputText() =\n%q\nwant\n%q", buf.String(), want)
	}
}

func TestOutputText_WidensForLongNames(t *testing.T) {
	long := "--color-interactive-primary-hover"
	var buf bytes.Buffer
	err := outputText(&buf, []index.Hit{
		{Record: token.New(long, "blue")},
		{Record: token.New("gap", "1px")},
	}, false)
	if err != nil {
		t.Fatal(err)
	}

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if strings.Index(lines[0], "→") != strings.Index(lines[1], "→") {
		t.Errorf("arrows not aligned:\n%s\n%s", lines[0], lines[1])
	}
	if !strings.HasPrefix(lines[0], long+" → ") {
		t.Errorf("long name padded unexpectedly: %q", lines[0])
	}
}

func TestOutputText_Scores(t *testing.T) {
	var buf bytes.Buffer
	if err := outputText(&buf, hits()[:1], true); err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(buf.String(), "→ #ff0000  (0.9000)\n") {
		t.Errorf("score missing: %q", buf.String())
	}
}

func TestOutputJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := outputJSON(&buf, hits()); err != nil {
		t.Fatal(err)
	}

	var got []map[string]any
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 results, got %d", len(got))
	}
	if got[0]["name"] != "--color-primary" || got[0]["value"] != "#ff0000" || got[0]["theme"] != "base" {
		t.Errorf("unexpected first result: %v", got[0])
	}
	if got[1]["score"] != 0.25 {
		t.Errorf("score = %v, want 0.25", got[1]["score"])
	}
}

func TestOutputJSON_Empty(t *testing.T) {
	var buf bytes.Buffer
	if err := outputJSON(&buf, nil); err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(buf.String()) != "[]" {
		t.Errorf("empty output = %q, want []", buf.String())
	}
}

func TestOutputNames(t *testing.T) {
	var buf bytes.Buffer
	if err := outputNames(&buf, hits()); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "--color-primary\n--spacing-sm\n" {
		t.Errorf("outputNames() = %q", buf.String())
	}
}

type recordingSearcher struct {
	query string
	k     int
}

func (r *recordingSearcher) Search(_ context.Context, query string, k int) ([]index.Hit, error) {
	r.query, r.k = query, k
	return []index.Hit{}, nil
}

func TestArgs(t *testing.T) {
	for _, args := range [][]string{nil, {"red"}, {"primary", "brand", "color"}} {
		if err := Cmd.Args(Cmd, args); err != nil {
			t.Errorf("Args(%q) = %v", args, err)
		}
	}
}

func TestFind_JoinsArguments(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "no arguments", args: nil, want: ""},
		{name: "one word", args: []string{"red"}, want: "red"},
		{name: "several words", args: []string{"small", "spacing"}, want: "small spacing"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &recordingSearcher{}
			if _, err := find(context.Background(), s, tt.args); err != nil {
				t.Fatal(err)
			}
			if s.query != tt.want || s.k != 0 {
				t.Errorf("Search(%q, %d), want (%q, 0)", s.query, s.k, tt.want)
			}
		})
	}
}

func TestFind_EmptyQueryListsTopK(t *testing.T) {
	ctx := context.Background()
	mfs := testutil.NewFixtureFS(t, "fixtures/css/basic", "/project")
	stub := testutil.NewStubEmbedder("color", "primary", "surface", "spacing", "font")
	p, err := rag.OpenWith(mfs, "/project", config.Default(), stub)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := p.Build(ctx); err != nil {
		t.Fatal(err)
	}

	got, err := find(ctx, p, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != config.Default().TopK {
		t.Fatalf("got %d hits, want %d", len(got), config.Default().TopK)
	}
	if got[0].Record.Name != "--color-primary" {
		t.Errorf("first hit %s, want index order", got[0].Record.Name)
	}
	for _, h := range got {
		if h.Score != 0 {
			t.Errorf("%s scored %v against an empty query", h.Record.Name, h.Score)
		}
	}
}
