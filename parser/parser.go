/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

// Package parser extracts design token records from CSS custom property declarations.
package parser

import (
	"regexp"
	"strings"

	"bennypowers.dev/tokenrag/fs"
	"bennypowers.dev/tokenrag/token"
)

// DeclarationPattern matches a single-line custom property declaration:
// --name: value;
// The name may contain word characters and hyphens; the value runs to the first semicolon.
var DeclarationPattern = regexp.MustCompile(`--([\w-]+)\s*:\s*([^;]+);`)

// Parser extracts token records from source files.
type Parser interface {
	// Parse extracts records from source text.
	Parse(data []byte) []token.Record

	// ParseFile reads path from filesystem and extracts records from it.
	ParseFile(filesystem fs.FileSystem, path string) ([]token.Record, error)
}

// CSSParser reads CSS custom properties line by line.
// Only the first declaration on each line is consumed, lines without a
// declaration are skipped, and duplicate names are kept in source order.
type CSSParser struct{}

// NewCSSParser creates a new CSS custom property parser.
func NewCSSParser() *CSSParser {
	return &CSSParser{}
}

// Parse implements Parser.
func (p *CSSParser) Parse(data []byte) []token.Record {
	return Extract(string(data))
}

// ParseFile implements Parser.
func (p *CSSParser) ParseFile(filesystem fs.FileSystem, path string) ([]token.Record, error) {
	data, err := filesystem.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return p.Parse(data), nil
}

// Extract returns one record per line containing a custom property declaration.
// The result is never nil so that an empty source serializes as an empty list.
func Extract(css string) []token.Record {
	records := []token.Record{}
	for _, line := range strings.Split(css, "\n") {
		m := DeclarationPattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		records = append(records, token.New(m[1], m[2]))
	}
	return records
}
