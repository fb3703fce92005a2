// Package transport is the shared JSON-over-HTTP client used by the platform,
// GitLab and Slack integrations.
//
// Non-2xx responses are returned as *APIError so callers can tell a missing
// record from a failing service. There are no retries; every request carries
// the configured per-request timeout.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/mrz1836/reviewapp/internal/errors"
	"github.com/mrz1836/reviewapp/internal/logging"
)

// maxErrorBody bounds how much of an error response is kept as the message.
const maxErrorBody = 512

// Request describes one HTTP call. Body is JSON-encoded unless it is a []byte.
type Request struct {
	Method string
	URL    string
	Query  url.Values
	Header http.Header
	Body   any
}

// Response carries the parts of an HTTP response callers inspect besides the body.
type Response struct {
	StatusCode int
	Header     http.Header
}

// APIError is returned for every non-2xx response.
type APIError struct {
	Method     string
	URL        string
	StatusCode int
	Message    string
}

// Error implements the error interface. The format is part of the invocation
// log contract: "response code <code>: <message>".
func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("response code %d", e.StatusCode)
	}
	return fmt.Sprintf("response code %d: %s", e.StatusCode, e.Message)
}

// IsStatus reports whether err is an *APIError with the given status code.
func IsStatus(err error, code int) bool {
	var apiErr *APIError
	return stderrors.As(err, &apiErr) && apiErr.StatusCode == code
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithBasicAuth sends basic credentials on every request.
func WithBasicAuth(username, password string) Option {
	return func(c *Client) {
		if username == "" && password == "" {
			return
		}
		c.decorate = append(c.decorate, func(r *http.Request) { r.SetBasicAuth(username, password) })
	}
}

// WithHeader sets a header on every request.
func WithHeader(key, value string) Option {
	return func(c *Client) {
		c.decorate = append(c.decorate, func(r *http.Request) { r.Header.Set(key, value) })
	}
}

// Client issues JSON requests. It is safe for concurrent use.
type Client struct {
	http     *http.Client
	timeout  time.Duration
	decorate []func(*http.Request)
}

// New creates a Client.
func New(opts ...Option) *Client {
	c := &Client{
		http:    &http.Client{},
		timeout: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.decorate = append([]func(*http.Request){func(r *http.Request) {
		r.Header.Set("Accept", "application/json")
		r.Header.Set("User-Agent", "reviewapp")
	}}, c.decorate...)
	return c
}

// Do performs req and decodes a 2xx JSON body into out (when out is non-nil).
func (c *Client) Do(ctx context.Context, req Request, out any) (*Response, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	httpReq, err := c.build(ctx, req)
	if err != nil {
		return nil, err
	}

	logger := zerolog.Ctx(ctx)
	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, errors.Wrapf(err, "%s %s", req.Method, logging.FilterSensitiveValue(httpReq.URL.Redacted()))
	}
	defer func() { _ = resp.Body.Close() }()

	logger.Debug().
		Str("method", req.Method).
		Str("url", logging.FilterSensitiveValue(httpReq.URL.Redacted())).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("http request")

	meta := &Response{StatusCode: resp.StatusCode, Header: resp.Header}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return meta, &APIError{
			Method:     req.Method,
			URL:        httpReq.URL.Redacted(),
			StatusCode: resp.StatusCode,
			Message:    errorMessage(resp.Body),
		}
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return meta, nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !stderrors.Is(err, io.EOF) {
		return meta, errors.Wrapf(err, "decode %s response", req.Method)
	}
	return meta, nil
}

func (c *Client) build(ctx context.Context, req Request) (*http.Request, error) {
	target := req.URL
	if len(req.Query) > 0 {
		sep := "?"
		if strings.Contains(target, "?") {
			sep = "&"
		}
		target += sep + req.Query.Encode()
	}

	var body io.Reader
	contentType := ""
	switch b := req.Body.(type) {
	case nil:
	case []byte:
		body = bytes.NewReader(b)
		contentType = "application/json"
	default:
		data, err := json.Marshal(b)
		if err != nil {
			return nil, errors.Wrap(err, "encode request body")
		}
		body = bytes.NewReader(data)
		contentType = "application/json"
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, body)
	if err != nil {
		return nil, errors.Wrap(err, "build request")
	}
	for _, d := range c.decorate {
		d(httpReq)
	}
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	for k, vs := range req.Header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	return httpReq, nil
}

// errorMessage extracts a readable message from an error body: the
// "message" or "error" field of a JSON object, or the trimmed text.
func errorMessage(r io.Reader) string {
	raw, _ := io.ReadAll(io.LimitReader(r, maxErrorBody))
	text := strings.TrimSpace(string(raw))
	if text == "" {
		return ""
	}

	var obj map[string]any
	if json.Unmarshal(raw, &obj) == nil {
		for _, key := range []string{"message", "error"} {
			if v, ok := obj[key]; ok {
				if s, ok := v.(string); ok {
					return s
				}
				if b, err := json.Marshal(v); err == nil {
					return string(b)
				}
			}
		}
	}
	return text
}
