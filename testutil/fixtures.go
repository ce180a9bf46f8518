/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

// Package testutil provides testing utilities for tokenrag.
package testutil

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"bennypowers.dev/tokenrag/internal/mapfs"
)

// fixtureRoots are tried in order since go test runs in the package directory.
var fixtureRoots = []string{
	"testdata",
	filepath.Join("..", "testdata"),
	filepath.Join("..", "..", "testdata"),
}

func findFixture(t *testing.T, fixturePath string) string {
	t.Helper()
	for _, root := range fixtureRoots {
		path := filepath.Join(root, fixturePath)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	t.Fatalf("Could not find fixture %s (tried all roots)", fixturePath)
	return ""
}

// walkFixture calls fn with the path relative to fixtureDir and the content
// of every file below it.
func walkFixture(t *testing.T, fixtureDir string, fn func(rel string, content []byte) error) {
	t.Helper()
	base := findFixture(t, fixtureDir)
	err := filepath.WalkDir(base, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(base, path)
		if err != nil {
			return err
		}
		return fn(rel, content)
	})
	if err != nil {
		t.Fatalf("Failed to load fixtures from %s: %v", fixtureDir, err)
	}
}

// NewFixtureFS loads the files below testdata/fixtureDir into a
// MapFileSystem, rooted at rootPath.
func NewFixtureFS(t *testing.T, fixtureDir string, rootPath string) *mapfs.MapFileSystem {
	t.Helper()
	mfs := mapfs.New()
	walkFixture(t, fixtureDir, func(rel string, content []byte) error {
		mfs.AddFile(filepath.Join(rootPath, rel), string(content), 0644)
		return nil
	})
	return mfs
}

// CopyFixtureDir copies testdata/fixtureDir into a fresh temporary directory
// and returns its path, for tests that need real files (locks, renames).
func CopyFixtureDir(t *testing.T, fixtureDir string) string {
	t.Helper()
	dir := t.TempDir()
	walkFixture(t, fixtureDir, func(rel string, content []byte) error {
		dest := filepath.Join(dir, rel)
		if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
			return err
		}
		return os.WriteFile(dest, content, 0644)
	})
	return dir
}

// LoadFixtureFile reads a single fixture file and returns its content.
func LoadFixtureFile(t *testing.T, fixturePath string) []byte {
	t.Helper()
	content, err := os.ReadFile(findFixture(t, fixturePath))
	if err != nil {
		t.Fatalf("Failed to read fixture %s: %v", fixturePath, err)
	}
	return content
}
