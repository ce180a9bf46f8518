/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

// Package specifier parses token source specifiers: local paths and globs,
// npm: and jsr: package files, and http(s) URLs.
package specifier

import (
	"regexp"
	"strings"
)

// Kind indicates the type of specifier.
type Kind int

const (
	// KindLocal is a local file path or glob.
	KindLocal Kind = iota
	// KindNPM is an npm package file, e.g. npm:@scope/pkg/tokens.css.
	KindNPM
	// KindJSR is a jsr package file installed through the npm compatibility layer.
	KindJSR
	// KindURL is an http or https URL.
	KindURL
)

func (k Kind) String() string {
	switch k {
	case KindNPM:
		return "npm"
	case KindJSR:
		return "jsr"
	case KindURL:
		return "url"
	default:
		return "local"
	}
}

// Specifier is a parsed token source.
type Specifier struct {
	Kind Kind

	// Package is the package name for npm and jsr specifiers.
	Package string

	// File is the path inside the package, the local path, or the URL.
	File string

	Raw string
}

// package names are scoped (@scope/name) or bare
var packagePattern = regexp.MustCompile(`^(npm|jsr):(@[^/]+/[^/]+|[^@/][^/]*)(/.*)?$`)

// Parse classifies spec. Anything that is not a well-formed package
// specifier or URL is a local path.
func Parse(spec string) Specifier {
	if strings.HasPrefix(spec, "http://") || strings.HasPrefix(spec, "https://") {
		return Specifier{Kind: KindURL, File: spec, Raw: spec}
	}
	if m := packagePattern.FindStringSubmatch(spec); m != nil {
		kind := KindNPM
		if m[1] == "jsr" {
			kind = KindJSR
		}
		return Specifier{
			Kind:    kind,
			Package: m[2],
			File:    strings.TrimPrefix(m[3], "/"),
			Raw:     spec,
		}
	}
	return Specifier{Kind: KindLocal, File: spec, Raw: spec}
}

// IsPackage reports whether s names a file inside an npm or jsr package.
func (s Specifier) IsPackage() bool {
	return s.Kind == KindNPM || s.Kind == KindJSR
}

// IsRemote reports whether s always requires a network fetch.
func (s Specifier) IsRemote() bool {
	return s.Kind == KindURL
}

// CDNURL returns the unpkg.com URL for an npm specifier with a file
// component. jsr packages are not mirrored there.
func (s Specifier) CDNURL() (string, bool) {
	if s.Kind != KindNPM || s.Package == "" || s.File == "" {
		return "", false
	}
	return "https://unpkg.com/" + s.Package + "/" + s.File, true
}
