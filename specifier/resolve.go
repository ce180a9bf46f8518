/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

package specifier

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"bennypowers.dev/tokenrag/fs"
)

// ErrPackageNotFound means no node_modules directory above the root holds the package file.
var ErrPackageNotFound = errors.New("package not found")

// Resolve maps a package specifier to a file under node_modules, walking up
// from rootDir. jsr:@scope/pkg is looked up as @jsr/scope__pkg, the name the
// npm compatibility layer installs it under.
func Resolve(filesystem fs.FileSystem, rootDir string, s Specifier) (string, error) {
	if !s.IsPackage() {
		return "", fmt.Errorf("not a package specifier: %s", s.Raw)
	}
	if s.File == "" {
		return "", fmt.Errorf("package specifier %s names no file", s.Raw)
	}

	pkg := s.Package
	if s.Kind == KindJSR {
		if !strings.HasPrefix(pkg, "@") {
			return "", fmt.Errorf("jsr packages are scoped: %s", s.Raw)
		}
		pkg = filepath.Join("@jsr", jsrCompatName(pkg))
	}

	dir, err := filepath.Abs(rootDir)
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", rootDir, err)
	}
	for {
		base := filepath.Join(dir, "node_modules")
		candidate := filepath.Clean(filepath.Join(base, pkg, s.File))
		if !isInside(candidate, base) {
			return "", fmt.Errorf("specifier escapes node_modules: %s", s.Raw)
		}
		if filesystem.Exists(candidate) {
			return candidate, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", fmt.Errorf("%w: %s (from %s)", ErrPackageNotFound, s.Raw, rootDir)
}

// @scope/pkg → scope__pkg
func jsrCompatName(pkg string) string {
	return strings.Replace(strings.TrimPrefix(pkg, "@"), "/", "__", 1)
}

func isInside(path, dir string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
