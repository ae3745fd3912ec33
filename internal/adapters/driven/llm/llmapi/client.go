// Package llmapi is the JSON-over-HTTP client shared by the LLM and
// embedding adapters. Failures are classified with llmerr so callers can
// tell an unreachable provider from a rejected request.
package llmapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/custodia-labs/galassia/internal/adapters/driven/llm/llmerr"
)

// maxResponse bounds the bytes read from one provider response.
const maxResponse = 32 << 20

// Client sends requests to one provider base URL.
type Client struct {
	http    *http.Client
	baseURL string
	header  http.Header
	errs    llmerr.Classifier
}

// Option configures a Client.
type Option func(*Client)

// WithHeader sets a header on every request, such as an API key.
func WithHeader(key, value string) Option {
	return func(c *Client) { c.header.Set(key, value) }
}

// WithBearer authenticates every request with an Authorization bearer token.
func WithBearer(token string) Option {
	return WithHeader("Authorization", "Bearer "+token)
}

// New returns a client for baseURL. A trailing slash is dropped.
func New(baseURL string, timeout time.Duration, errs llmerr.Classifier, opts ...Option) *Client {
	c := &Client{
		http:    &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
		header:  make(http.Header),
		errs:    errs,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL is the provider root every path is joined to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Post sends in as JSON to path and decodes a 200 response into out.
func (c *Client) Post(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("%s: marshal request: %w", c.errs.Provider, err)
	}
	return c.do(ctx, http.MethodPost, path, bytes.NewReader(body), out)
}

// Get requests path and decodes a 200 response into out. A nil out
// discards the body, which is enough for a connectivity check.
func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, http.NoBody, out)
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("%s: create request: %w", c.errs.Provider, err)
	}
	req.Header = c.header.Clone()
	if method == http.MethodPost {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return c.errs.Transport(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponse))
	if err != nil {
		return c.errs.Transport(fmt.Errorf("read response: %w", err))
	}
	if resp.StatusCode != http.StatusOK {
		return c.errs.Status(resp.StatusCode, data)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%s: decode response: %w", c.errs.Provider, err)
	}
	return nil
}
