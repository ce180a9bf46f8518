/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

package opensearch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/opensearch-project/opensearch-go/v4"

	"bennypowers.dev/tokenrag/index"
)

// DefaultTimeout bounds each request when ClientOptions.Timeout is zero.
const DefaultTimeout = 30 * time.Second

// DefaultBackoff is the delay before the first retry.
const DefaultBackoff = 250 * time.Millisecond

// retryStatuses are the responses the transport retries when retries are enabled.
var retryStatuses = []int{
	http.StatusTooManyRequests,
	http.StatusInternalServerError,
	http.StatusBadGateway,
	http.StatusServiceUnavailable,
	http.StatusGatewayTimeout,
}

// ClientOptions configures the connection to the engine.
type ClientOptions struct {
	Scheme string
	Host   string
	Port   int
	// Timeout bounds each request, retries included.
	Timeout time.Duration
	// MaxRetries is the number of extra attempts after a retryable status or a
	// network error. Zero disables retries.
	MaxRetries int
	// Backoff is the delay before the first retry; it doubles each attempt.
	Backoff time.Duration
	// Transport replaces the default HTTP transport.
	Transport http.RoundTripper
}

// Client talks to one OpenSearch node.
type Client struct {
	api     *opensearch.Client
	baseURL string
	timeout time.Duration
}

// NewClient configures an opensearch-go client for the node described by opts.
func NewClient(opts ClientOptions) (*Client, error) {
	scheme := opts.Scheme
	if scheme == "" {
		scheme = "http"
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	backoff := opts.Backoff
	if backoff <= 0 {
		backoff = DefaultBackoff
	}
	baseURL := scheme + "://" + opts.Host + ":" + strconv.Itoa(opts.Port)

	api, err := opensearch.NewClient(opensearch.Config{
		Addresses:     []string{baseURL},
		Transport:     opts.Transport,
		DisableRetry:  opts.MaxRetries <= 0,
		MaxRetries:    opts.MaxRetries,
		RetryOnStatus: retryStatuses,
		RetryBackoff: func(attempt int) time.Duration {
			return backoff << (attempt - 1)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("cannot configure opensearch client for %s: %w", baseURL, err)
	}
	return &Client{api: api, baseURL: baseURL, timeout: timeout}, nil
}

// BaseURL returns the node address, without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// ResponseError is an error status returned by the engine.
type ResponseError struct {
	Op     string
	Status int
	Type   string
	Reason string
	Body   string
}

func (e *ResponseError) Error() string {
	if e.Type != "" {
		return fmt.Sprintf("opensearch: %s returned %d: %s: %s", e.Op, e.Status, e.Type, e.Reason)
	}
	if e.Body != "" {
		return fmt.Sprintf("opensearch: %s returned %d: %s", e.Op, e.Status, e.Body)
	}
	return fmt.Sprintf("opensearch: %s returned %d", e.Op, e.Status)
}

// IsStatus reports whether err carries an engine response with status.
func IsStatus(err error, status int) bool {
	var re *ResponseError
	return errors.As(err, &re) && re.Status == status
}

// IsType reports whether err carries an engine error of the given type,
// such as "resource_already_exists_exception".
func IsType(err error, typ string) bool {
	var re *ResponseError
	return errors.As(err, &re) && re.Type == typ
}

// rejected reports whether the engine refused a single request on its
// merits, as opposed to being overloaded or refusing the caller.
func rejected(err error) bool {
	var re *ResponseError
	if !errors.As(err, &re) || re.Status >= 500 {
		return false
	}
	switch re.Status {
	case http.StatusUnauthorized, http.StatusForbidden, http.StatusTooManyRequests:
		return false
	}
	return true
}

// jsonBody encodes v as a request body; nil stays nil.
func jsonBody(v any) (io.Reader, error) {
	if v == nil {
		return nil, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("cannot encode request: %w", err)
	}
	return bytes.NewReader(data), nil
}

// call performs req, decoding a successful JSON response into out when out
// is non-nil. Transport failures wrap index.ErrEngineUnreachable and 401 or
// 403 wrap index.ErrEngineAuth. Other error statuses return a *ResponseError.
func (c *Client) call(ctx context.Context, op string, req opensearch.Request, out any) error {
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.api.Do(callCtx, req, out)
	if resp != nil && resp.Body != nil {
		defer resp.Body.Close()
	}
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if resp == nil {
			return fmt.Errorf("%w at %s: %w", index.ErrEngineUnreachable, c.baseURL, err)
		}
		return fmt.Errorf("opensearch: %s: %w", op, err)
	}
	if !resp.IsError() {
		return nil
	}

	var body []byte
	if resp.Body != nil {
		body, _ = io.ReadAll(resp.Body)
	}
	re := newResponseError(op, resp.StatusCode, body)
	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %w", index.ErrEngineAuth, re)
	}
	return re
}

func newResponseError(op string, status int, body []byte) *ResponseError {
	re := &ResponseError{Op: op, Status: status}
	var envelope struct {
		Error struct {
			Type   string `json:"type"`
			Reason string `json:"reason"`
		} `json:"error"`
	}
	if json.Unmarshal(body, &envelope) == nil && envelope.Error.Type != "" {
		re.Type = envelope.Error.Type
		re.Reason = envelope.Error.Reason
		return re
	}
	const maxBody = 512
	if len(body) > maxBody {
		body = body[:maxBody]
	}
	re.Body = string(bytes.TrimSpace(body))
	return re
}
