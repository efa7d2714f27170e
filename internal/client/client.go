// Package client is the typed HTTP client for the membership service.
//
// Every call returns its payload alongside an Outcome value. Transport
// failures and non-2xx statuses live in the Outcome, never in a panic, so a
// failing call is data the caller records rather than control flow to unwind.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// maxBodySize bounds how much of a response body is retained on an Outcome.
const maxBodySize = 1 << 20

// Client talks to a single membership service instance.
type Client struct {
	baseURL string
	http    *http.Client
	log     *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the per-call transport ceiling.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// WithLogger enables request/response debug logging.
func WithLogger(log *zap.Logger) Option {
	return func(c *Client) { c.log = log }
}

// New creates a Client for the given base address.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
		log:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Outcome is the measured result of one remote call.
type Outcome struct {
	Latency     time.Duration
	StatusCode  int
	Body        []byte
	RequestBody []byte
	Err         error
}

// OK reports whether the call returned a 2xx status with no transport error.
func (o Outcome) OK() bool {
	return o.Err == nil && o.StatusCode >= 200 && o.StatusCode < 300
}

// ErrorString renders the failure for result records; empty when OK.
func (o Outcome) ErrorString() string {
	if o.Err != nil {
		return o.Err.Error()
	}
	if !o.OK() {
		return fmt.Sprintf("unexpected status %d", o.StatusCode)
	}
	return ""
}

// do executes one request and measures it. The returned Outcome always has
// Latency set, even on transport failure.
func (c *Client) do(ctx context.Context, method, path string, payload any) Outcome {
	var out Outcome
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			out.Err = fmt.Errorf("encoding request: %w", err)
			return out
		}
		out.RequestBody = data
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		out.Err = fmt.Errorf("building request: %w", err)
		return out
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.log.Debug("request", zap.String("method", method), zap.String("path", path))

	start := time.Now()
	resp, err := c.http.Do(req)
	out.Latency = time.Since(start)
	if err != nil {
		out.Err = fmt.Errorf("%s %s: %w", method, path, err)
		c.log.Debug("transport error", zap.String("path", path), zap.Error(err))
		return out
	}
	defer resp.Body.Close()

	out.StatusCode = resp.StatusCode
	out.Body, _ = io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	_, _ = io.Copy(io.Discard, resp.Body)

	c.log.Debug("response",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", out.Latency))
	return out
}

// decode unmarshals a successful Outcome body into v. A decode failure on a
// 2xx response is reported on the Outcome so callers see it as a failed call.
func decode(out *Outcome, v any) {
	if !out.OK() {
		return
	}
	if err := json.Unmarshal(out.Body, v); err != nil {
		out.Err = fmt.Errorf("decoding response: %w", err)
	}
}
