//-------------------------------------------------------------------------
//
// pgEdge Box Office Warehouse
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package sources holds the HTTP plumbing shared by the upstream clients.
package sources

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/pgEdge/pgedge-boxoffice/internal/logging"
	"github.com/pgEdge/pgedge-boxoffice/internal/metrics"
	"github.com/pgEdge/pgedge-boxoffice/internal/ratelimit"
	"github.com/pgEdge/pgedge-boxoffice/pkg/version"
)

// ErrUpstream marks a non-success response from an upstream API.
var ErrUpstream = errors.New("upstream request failed")

// maxBodyBytes bounds a single response body.
const maxBodyBytes = 64 << 20

// StatusError reports a non-2xx response.
type StatusError struct {
	Source     string
	URL        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s returned %d for %s", e.Source, e.StatusCode, e.URL)
}

// Unwrap ties every StatusError to ErrUpstream.
func (e *StatusError) Unwrap() error {
	return ErrUpstream
}

// Retriable reports whether the status is worth retrying.
func (e *StatusError) Retriable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// IsStatus reports whether err is a StatusError with the given code.
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == code
}

// Requester performs paced, retried GET requests for one source.
type Requester struct {
	source  string
	client  *http.Client
	limiter ratelimit.Waiter
	retry   ratelimit.Config
	headers http.Header
}

// RequesterOption configures a Requester.
type RequesterOption func(*Requester)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) RequesterOption {
	return func(r *Requester) {
		if client != nil {
			r.client = client
		}
	}
}

// WithLimiter paces every attempt through l.
func WithLimiter(l ratelimit.Waiter) RequesterOption {
	return func(r *Requester) { r.limiter = l }
}

// WithRetry sets the retry budget.
func WithRetry(cfg ratelimit.Config) RequesterOption {
	return func(r *Requester) { r.retry = cfg }
}

// WithHeader adds a header to every request.
func WithHeader(key, value string) RequesterOption {
	return func(r *Requester) { r.headers.Set(key, value) }
}

// NewRequester creates a Requester labelled source for logs and metrics.
func NewRequester(source string, opts ...RequesterOption) *Requester {
	r := &Requester{
		source:  source,
		client:  &http.Client{Timeout: 30 * time.Second},
		retry:   ratelimit.DefaultConfig(),
		headers: make(http.Header),
	}
	r.headers.Set("User-Agent", version.UserAgent())
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Source returns the source label.
func (r *Requester) Source() string {
	return r.source
}

// Get fetches url and returns the body of a 2xx response.
func (r *Requester) Get(ctx context.Context, url string) ([]byte, error) {
	var body []byte
	err := ratelimit.Retry(ctx, r.retry, func(ctx context.Context) error {
		var err error
		body, err = r.do(ctx, url)
		return err
	})
	if err != nil {
		return nil, err
	}
	return body, nil
}

// GetJSON fetches url and decodes the JSON body into out.
func (r *Requester) GetJSON(ctx context.Context, url string, out any) error {
	body, err := r.Get(ctx, url)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s response: %w", r.source, err)
	}
	return nil
}

func (r *Requester) do(ctx context.Context, url string) ([]byte, error) {
	if r.limiter != nil {
		if err := r.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	for k, v := range r.headers {
		req.Header[k] = v
	}

	start := time.Now()
	resp, err := r.client.Do(req)
	latency := time.Since(start)
	if err != nil {
		metrics.APIRequests.WithLabelValues(r.source, "error").Inc()
		return nil, fmt.Errorf("execute %s request (latency=%v): %w", r.source, latency, err)
	}
	defer resp.Body.Close()

	metrics.APIRequests.WithLabelValues(r.source, strconv.Itoa(resp.StatusCode)).Inc()
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read %s response: %w", r.source, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		logging.Debug().
			Str("source", r.source).
			Int("status", resp.StatusCode).
			Dur("latency", latency).
			Msg("Upstream request failed")
		snippet := string(body)
		if len(snippet) > 256 {
			snippet = snippet[:256]
		}
		return nil, &StatusError{Source: r.source, URL: req.URL.Scheme + "://" + req.URL.Host + req.URL.Path, StatusCode: resp.StatusCode, Body: snippet}
	}
	return body, nil
}
