/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

// Package load reads token records from any supported source: local files
// and globs, npm: and jsr: package files in node_modules, and http(s) URLs.
package load

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bennypowers.dev/tokenrag/fs"
	"bennypowers.dev/tokenrag/internal/logger"
	"bennypowers.dev/tokenrag/parser"
	"bennypowers.dev/tokenrag/specifier"
	"bennypowers.dev/tokenrag/token"
)

var (
	// ErrLocalResolution indicates that a package file was not found in node_modules.
	ErrLocalResolution = errors.New("local resolution failed")

	// ErrNetworkFallback indicates that the CDN fallback also failed.
	ErrNetworkFallback = errors.New("network fallback failed")
)

// Options configures how sources are read.
type Options struct {
	// Root is the directory relative paths and node_modules lookup start from.
	Root string

	// FS is the filesystem to use. Defaults to the OS filesystem.
	FS fs.FileSystem

	// Fetcher fetches URL sources and CDN fallbacks. Defaults to an
	// HTTPFetcher limited to DefaultMaxSize.
	Fetcher Fetcher

	// CDNFallback fetches npm: files from unpkg when they are not installed.
	CDNFallback bool

	// FetchTimeout bounds each network fetch. Defaults to DefaultTimeout.
	FetchTimeout time.Duration
}

func (o Options) withDefaults() Options {
	if o.FS == nil {
		o.FS = fs.NewOSFileSystem()
	}
	if o.Root == "" {
		o.Root = "."
	}
	if o.Fetcher == nil {
		o.Fetcher = NewHTTPFetcher(DefaultMaxSize)
	}
	if o.FetchTimeout <= 0 {
		o.FetchTimeout = DefaultTimeout
	}
	return o
}

// Load extracts the token records from spec.
//
// The source can be:
//   - a local file or glob: "tokens.css", "styles/**/*.css"
//   - an npm package file: "npm:@scope/pkg/tokens.css"
//   - a jsr package file: "jsr:@scope/pkg/tokens.css"
//   - a URL: "https://cdn.example.com/tokens.css"
func Load(ctx context.Context, spec string, opts Options) ([]token.Record, error) {
	opts = opts.withDefaults()
	s := specifier.Parse(spec)

	switch {
	case s.IsRemote():
		content, err := fetch(ctx, opts, s.File)
		if err != nil {
			return nil, err
		}
		return parser.Extract(string(content)), nil

	case s.IsPackage():
		path, err := specifier.Resolve(opts.FS, opts.Root, s)
		if err == nil {
			logger.Debug("resolved %s to %s", spec, path)
			return parser.ExtractFile(opts.FS, path)
		}
		return fromCDN(ctx, opts, s, err)

	default:
		return parser.ExtractFiles(opts.FS, opts.Root, spec)
	}
}

// fromCDN fetches a package file that is not installed locally. Without
// CDNFallback, or without a CDN mirror, it returns localErr.
func fromCDN(ctx context.Context, opts Options, s specifier.Specifier, localErr error) ([]token.Record, error) {
	url, ok := s.CDNURL()
	if !opts.CDNFallback || !ok {
		return nil, localErr
	}
	logger.Info("%s is not installed, fetching %s", s.Raw, url)

	content, err := fetch(ctx, opts, url)
	if err != nil {
		return nil, fmt.Errorf("%w (%w), %w: %w", ErrLocalResolution, localErr, ErrNetworkFallback, err)
	}
	return parser.Extract(string(content)), nil
}

func fetch(ctx context.Context, opts Options, url string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, opts.FetchTimeout)
	defer cancel()
	return opts.Fetcher.Fetch(ctx, url)
}
