/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

package load

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"bennypowers.dev/tokenrag/internal/version"
)

const (
	// DefaultTimeout bounds a single network fetch.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxSize is the largest stylesheet accepted (10 MB).
	DefaultMaxSize int64 = 10 * 1024 * 1024
)

// Fetcher retrieves a remote stylesheet.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) ([]byte, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, rawURL string) ([]byte, error)

// Fetch calls f.
func (f FetcherFunc) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	return f(ctx, rawURL)
}

// HTTPFetcher GETs stylesheets over http and https.
type HTTPFetcher struct {
	Client  *http.Client
	MaxSize int64
}

// NewHTTPFetcher creates an HTTPFetcher that refuses bodies over maxSize bytes.
func NewHTTPFetcher(maxSize int64) *HTTPFetcher {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	return &HTTPFetcher{Client: http.DefaultClient, MaxSize: maxSize}
}

// Fetch implements Fetcher.
func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("not an http(s) URL: %q", rawURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request for %s: %w", rawURL, err)
	}
	req.Header.Set("User-Agent", "tokenrag/"+version.Get())
	req.Header.Set("Accept", "text/css,text/plain;q=0.9,*/*;q=0.1")

	resp, err := f.Client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("timeout fetching %s: %w", rawURL, err)
		}
		return nil, fmt.Errorf("fetching %s: %w", rawURL, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching %s: %s", rawURL, resp.Status)
	}
	if resp.ContentLength > f.MaxSize {
		return nil, f.tooLarge(rawURL)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.MaxSize+1))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", rawURL, err)
	}
	if int64(len(body)) > f.MaxSize {
		return nil, f.tooLarge(rawURL)
	}
	return body, nil
}

func (f *HTTPFetcher) tooLarge(rawURL string) error {
	return fmt.Errorf("response from %s exceeds maximum size of %d bytes", rawURL, f.MaxSize)
}
