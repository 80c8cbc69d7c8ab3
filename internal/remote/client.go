// Package remote is the typed HTTP client for the trail catalog service.
// It stamps bearer tokens, decodes JSON payloads and classifies failures;
// it never retries on its own.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/atinyakov/TrailKeeper/internal/metrics"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RequestIDHeader carries a per-call identifier for correlating logs.
const RequestIDHeader = "X-Request-ID"

// maxErrorBody caps how much of a failed response is read.
const maxErrorBody = 64 << 10

// Client calls the catalog service at a fixed base URL.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        *zap.Logger
	metrics    *metrics.Metrics
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the logger used for per-call debug output.
func WithLogger(log *zap.Logger) Option {
	return func(c *Client) { c.log = log }
}

// WithMetrics records every call in m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// New returns a Client for baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: DefaultTimeout},
		log:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.log == nil {
		c.log = zap.NewNop()
	}
	return c
}

// BaseURL returns the service root the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// do performs one call. An empty token sends no Authorization header. A nil
// out discards the response body; an empty 2xx body leaves out untouched.
func (c *Client) do(ctx context.Context, op, method, path, token string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", op, err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("%s: failed to create request: %w", op, err)
	}
	reqID := uuid.NewString()
	req.Header.Set(RequestIDHeader, reqID)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.ObserveCall(op, 0)
		c.log.Debug("remote call failed",
			zap.String("op", op), zap.String("request_id", reqID), zap.Error(err))
		if errors.Is(ctx.Err(), context.Canceled) {
			return fmt.Errorf("%s: request canceled: %w", op, ctx.Err())
		}
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("%s: request timed out: %w", op, ctx.Err())
		}
		return fmt.Errorf("%s: cannot reach %s: %w", op, c.baseURL, err)
	}
	defer resp.Body.Close()

	c.metrics.ObserveCall(op, resp.StatusCode)
	c.log.Debug("remote call",
		zap.String("op", op),
		zap.String("method", method),
		zap.String("path", path),
		zap.String("request_id", reqID),
		zap.Int("status", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return newAPIError(resp.StatusCode, data)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s: read response: %w", op, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%s: invalid response: %w", op, err)
	}
	return nil
}
