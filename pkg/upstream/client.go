// Package upstream is a small JSON client for the school REST backend.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ivc-chiapas/folios-console/pkg/config"
	"github.com/ivc-chiapas/folios-console/pkg/middleware/requestid"
)

const maxErrorBody = 2 << 10

// Observer receives one observation per upstream call.
type Observer interface {
	ObserveUpstream(operation string, status int, duration time.Duration)
}

// StatusError is returned for any non-2xx response.
type StatusError struct {
	Method string
	Path   string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream %s %s: status %d", e.Method, e.Path, e.Status)
}

// IsStatus reports whether err is a StatusError with the given code.
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Status == code
}

// Request describes one call. Operation labels metrics and logs.
type Request struct {
	Operation  string
	Method     string
	Path       string
	Query      url.Values
	Body       interface{}
	Credential string
}

// Client issues authenticated JSON requests. It never retries.
type Client struct {
	baseURL  string
	http     *http.Client
	observer Observer
	logger   *zap.Logger
}

// Option customises the client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithObserver records call latency, typically into prometheus.
func WithObserver(o Observer) Option {
	return func(c *Client) {
		c.observer = o
	}
}

// WithLogger sets the logger used for failed calls.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// New builds a client for cfg.BaseURL.
func New(cfg config.UpstreamConfig, opts ...Option) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	c := &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Do executes req and decodes a JSON response into out when out is non-nil.
func (c *Client) Do(ctx context.Context, req Request, out interface{}) error {
	target := c.baseURL + "/" + strings.TrimLeft(req.Path, "/")
	if len(req.Query) > 0 {
		target += "?" + req.Query.Encode()
	}

	var body io.Reader
	if req.Body != nil {
		payload, err := json.Marshal(req.Body)
		if err != nil {
			return fmt.Errorf("encode upstream body: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, body)
	if err != nil {
		return fmt.Errorf("build upstream request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if req.Credential != "" {
		httpReq.Header.Set("Authorization", "Bearer "+req.Credential)
	}
	if id := requestid.FromContext(ctx); id != "" {
		httpReq.Header.Set(requestid.Header, id)
	}

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	status := 0
	if resp != nil {
		status = resp.StatusCode
	}
	c.observe(req.Operation, status, time.Since(start))
	if err != nil {
		c.logger.Warn("upstream call failed", zap.String("operation", req.Operation), zap.Error(err))
		return fmt.Errorf("upstream %s %s: %w", req.Method, req.Path, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		c.logger.Warn("upstream returned error status",
			zap.String("operation", req.Operation),
			zap.Int("status", resp.StatusCode),
		)
		return &StatusError{Method: req.Method, Path: req.Path, Status: resp.StatusCode, Body: string(snippet)}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read upstream response: %w", err)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode upstream response: %w", err)
	}
	return nil
}

func (c *Client) observe(operation string, status int, d time.Duration) {
	if c.observer == nil {
		return
	}
	if operation == "" {
		operation = "unknown"
	}
	c.observer.ObserveUpstream(operation, status, d)
}

// Get is a convenience wrapper for GET requests.
func (c *Client) Get(ctx context.Context, operation, credential, path string, query url.Values, out interface{}) error {
	return c.Do(ctx, Request{Operation: operation, Method: http.MethodGet, Path: path, Query: query, Credential: credential}, out)
}

// Send issues a request with a JSON body.
func (c *Client) Send(ctx context.Context, operation, method, credential, path string, body, out interface{}) error {
	return c.Do(ctx, Request{Operation: operation, Method: method, Path: path, Body: body, Credential: credential}, out)
}
