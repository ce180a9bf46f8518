/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

package parser

import (
	"fmt"
	iofs "io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"bennypowers.dev/tokenrag/fs"
	"bennypowers.dev/tokenrag/token"
)

// ExtractFiles extracts records from every file matched by pattern, which is
// either a plain path or a doublestar glob (e.g. "tokens/**/*.css").
// Relative patterns are resolved against rootDir. Matched files are read in
// lexical order and their records concatenated.
func ExtractFiles(filesystem fs.FileSystem, rootDir, pattern string) ([]token.Record, error) {
	paths, err := ExpandFiles(filesystem, rootDir, pattern)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no token files match %s", pattern)
	}

	records := []token.Record{}
	for _, path := range paths {
		recs, err := ExtractFile(filesystem, path)
		if err != nil {
			return nil, fmt.Errorf("error reading %s: %w", path, err)
		}
		records = append(records, recs...)
	}
	return records, nil
}

// ExtractFile extracts records from a single CSS file.
func ExtractFile(filesystem fs.FileSystem, path string) ([]token.Record, error) {
	return NewCSSParser().ParseFile(filesystem, path)
}

// ExpandFiles expands pattern into a sorted list of file paths.
// A pattern without glob characters is returned as-is; a missing file is
// reported when it is read.
func ExpandFiles(filesystem fs.FileSystem, rootDir, pattern string) ([]string, error) {
	if !filepath.IsAbs(pattern) && rootDir != "" {
		pattern = filepath.Join(rootDir, pattern)
	}

	if !containsGlob(pattern) {
		return []string{pattern}, nil
	}

	matches, err := expandGlob(filesystem, pattern)
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)
	return matches, nil
}

// containsGlob returns true if the pattern contains glob characters.
func containsGlob(pattern string) bool {
	return strings.ContainsAny(pattern, "*?[{")
}

// expandGlob walks the non-glob prefix of pattern and matches the rest with doublestar.
func expandGlob(filesystem fs.FileSystem, pattern string) ([]string, error) {
	baseDir := pattern
	for containsGlob(baseDir) {
		baseDir = filepath.Dir(baseDir)
	}

	relPattern := strings.TrimPrefix(pattern, baseDir)
	relPattern = strings.TrimPrefix(relPattern, string(filepath.Separator))

	var matches []string
	err := iofs.WalkDir(filesystem, baseDir, func(path string, d iofs.DirEntry, err error) error {
		if err != nil {
			// Skip directories we can't read
			if d != nil && d.IsDir() {
				return iofs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}

		relPath := strings.TrimPrefix(path, baseDir)
		relPath = strings.TrimPrefix(relPath, string(filepath.Separator))

		if ok, _ := doublestar.Match(relPattern, filepath.ToSlash(relPath)); ok {
			matches = append(matches, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return matches, nil
}
