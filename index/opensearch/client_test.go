/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

package opensearch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/opensearch-project/opensearch-go/v4/opensearchapi"

	"bennypowers.dev/tokenrag/index"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

func respond(status int, body string) roundTripFunc {
	return func(r *http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: status,
			Header:     http.Header{"Content-Type": []string{"application/json"}},
			Body:       io.NopCloser(strings.NewReader(body)),
			Request:    r,
		}, nil
	}
}

func TestNewClient_BaseURL(t *testing.T) {
	tests := []struct {
		name string
		opts ClientOptions
		want string
	}{
		{name: "default scheme", opts: ClientOptions{Host: "localhost", Port: 9200}, want: "http://localhost:9200"},
		{name: "https", opts: ClientOptions{Scheme: "https", Host: "search.internal", Port: 443}, want: "https://search.internal:443"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewClient(tt.opts)
			if err != nil {
				t.Fatal(err)
			}
			if got := c.BaseURL(); got != tt.want {
				t.Errorf("BaseURL() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNewResponseError(t *testing.T) {
	body := []byte(`{"error":{"type":"resource_already_exists_exception","reason":"index [tokens] already exists"},"status":400}`)
	re := newResponseError("create collection", 400, body)

	if re.Type != "resource_already_exists_exception" {
		t.Errorf("Type = %q", re.Type)
	}
	want := "opensearch: create collection returned 400: resource_already_exists_exception: index [tokens] already exists"
	if re.Error() != want {
		t.Errorf("Error() = %q, want %q", re.Error(), want)
	}

	wrapped := fmt.Errorf("create: %w", re)
	if !IsType(wrapped, "resource_already_exists_exception") || !IsStatus(wrapped, 400) {
		t.Error("IsType/IsStatus should see through wrapping")
	}
	if IsStatus(errors.New("plain"), 400) {
		t.Error("IsStatus matched a plain error")
	}

	plain := newResponseError("search", 502, []byte("bad gateway"))
	if plain.Error() != "opensearch: search returned 502: bad gateway" {
		t.Errorf("Error() = %q", plain.Error())
	}

	empty := newResponseError("check collection", 404, nil)
	if empty.Error() != "opensearch: check collection returned 404" {
		t.Errorf("Error() = %q", empty.Error())
	}
}

func TestRejected(t *testing.T) {
	for status, want := range map[int]bool{400: true, 404: true, 409: true, 401: false, 403: false, 429: false, 500: false, 503: false} {
		err := fmt.Errorf("wrapped: %w", &ResponseError{Op: "index document", Status: status})
		if got := rejected(err); got != want {
			t.Errorf("rejected(%d) = %v, want %v", status, got, want)
		}
	}
	if rejected(index.ErrEngineUnreachable) {
		t.Error("an unreachable engine is not a rejection")
	}
}

func TestCall_StatusMapping(t *testing.T) {
	tests := []struct {
		name      string
		transport roundTripFunc
		check     func(t *testing.T, err error)
	}{
		{
			name:      "success",
			transport: respond(http.StatusOK, `{}`),
			check: func(t *testing.T, err error) {
				if err != nil {
					t.Errorf("unexpected error %v", err)
				}
			},
		},
		{
			name:      "unauthorized",
			transport: respond(http.StatusUnauthorized, `{"error":{"type":"security_exception","reason":"missing credentials"},"status":401}`),
			check: func(t *testing.T, err error) {
				if !errors.Is(err, index.ErrEngineAuth) || !IsType(err, "security_exception") {
					t.Errorf("got %v", err)
				}
			},
		},
		{
			name:      "forbidden",
			transport: respond(http.StatusForbidden, `{}`),
			check: func(t *testing.T, err error) {
				if !errors.Is(err, index.ErrEngineAuth) {
					t.Errorf("got %v", err)
				}
			},
		},
		{
			name:      "not found",
			transport: respond(http.StatusNotFound, `{"error":{"type":"index_not_found_exception","reason":"no such index [tokens]"},"status":404}`),
			check: func(t *testing.T, err error) {
				if !IsStatus(err, http.StatusNotFound) || errors.Is(err, index.ErrEngineAuth) {
					t.Errorf("got %v", err)
				}
			},
		},
		{
			name: "transport failure",
			transport: func(*http.Request) (*http.Response, error) {
				return nil, errors.New("connection refused")
			},
			check: func(t *testing.T, err error) {
				if !errors.Is(err, index.ErrEngineUnreachable) {
					t.Errorf("got %v", err)
				}
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewClient(ClientOptions{Host: "localhost", Port: 9200, Transport: tt.transport})
			if err != nil {
				t.Fatal(err)
			}
			req := &opensearchapi.IndicesExistsReq{Indices: []string{"tokens"}}
			tt.check(t, c.call(context.Background(), "check collection", req, nil))
		})
	}
}

func TestCall_CanceledContext(t *testing.T) {
	c, err := NewClient(ClientOptions{Host: "localhost", Port: 9200, Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
		return nil, r.Context().Err()
	})})
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = c.call(ctx, "check collection", &opensearchapi.IndicesExistsReq{Indices: []string{"tokens"}}, nil)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("got %v, want context.Canceled", err)
	}
}
