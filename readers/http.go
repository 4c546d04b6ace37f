//
// SPDX-License-Identifier: GPL-3.0-or-later
//
// Copyright (C) 2025 Aaron Mathis aaron.mathis@gmail.com
//
// This file is part of GoDataset.
//
// GoDataset is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// GoDataset is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with GoDataset. If not, see https://www.gnu.org/licenses/.

package readers

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/aaronlmathis/godataset/core"
)

// This file implements a row reader over HTTP. The response body streams
// through the format reader matching the URL's extension, so remote files
// behave like local ones. The request is made lazily on the first Next, and
// connection or server failures retry with exponential backoff.

// HTTPReaderError provides structured error information for HTTP reads.
type HTTPReaderError struct {
	Op         string // Operation that failed (e.g., "request", "status_check")
	StatusCode int    // HTTP status code if applicable
	URL        string // URL being accessed when the error occurred
	Err        error  // Underlying error
}

func (e *HTTPReaderError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("http reader %s [%d] %s: %v", e.Op, e.StatusCode, e.URL, e.Err)
	}
	return fmt.Sprintf("http reader %s %s: %v", e.Op, e.URL, e.Err)
}

func (e *HTTPReaderError) Unwrap() error {
	return e.Err
}

// HTTPReaderStats holds statistics about the HTTP reader's requests.
type HTTPReaderStats struct {
	RequestCount int64 // HTTP requests made, including retries
	RetryCount   int64 // Retries performed
	RecordsRead  int64 // Rows produced
	StatusCode   int   // Status code of the last response
}

// HTTPReaderOptions configures the HTTP reader.
type HTTPReaderOptions struct {
	Format        string            // "csv", "jsonl", or "text"; empty infers from the URL path
	Headers       map[string]string // Additional request headers
	BearerToken   string            // Authorization bearer token
	Username      string            // Basic auth user; enables basic auth when set
	Password      string            // Basic auth password
	Timeout       time.Duration     // Per-request timeout
	RetryAttempts int               // Retries after the first attempt
	RetryDelay    time.Duration     // Base delay between retries
	UserAgent     string            // User agent string
	Client        *http.Client      // Custom HTTP client
}

// ReaderOptionHTTP is a functional option for HTTPReaderOptions.
type ReaderOptionHTTP func(*HTTPReaderOptions)

// WithHTTPFormat overrides the format inferred from the URL extension.
func WithHTTPFormat(format string) ReaderOptionHTTP {
	return func(opts *HTTPReaderOptions) {
		opts.Format = format
	}
}

// WithHTTPHeaders adds headers to every request.
func WithHTTPHeaders(headers map[string]string) ReaderOptionHTTP {
	return func(opts *HTTPReaderOptions) {
		if opts.Headers == nil {
			opts.Headers = make(map[string]string)
		}
		for k, v := range headers {
			opts.Headers[k] = v
		}
	}
}

// WithHTTPBearerToken sends an Authorization bearer token.
func WithHTTPBearerToken(token string) ReaderOptionHTTP {
	return func(opts *HTTPReaderOptions) {
		opts.BearerToken = token
	}
}

// WithHTTPBasicAuth sends basic auth credentials.
func WithHTTPBasicAuth(username, password string) ReaderOptionHTTP {
	return func(opts *HTTPReaderOptions) {
		opts.Username = username
		opts.Password = password
	}
}

// WithHTTPTimeout bounds each request. The default is 30 seconds.
func WithHTTPTimeout(timeout time.Duration) ReaderOptionHTTP {
	return func(opts *HTTPReaderOptions) {
		opts.Timeout = timeout
	}
}

// WithHTTPRetries sets the retry budget and base backoff delay.
func WithHTTPRetries(attempts int, delay time.Duration) ReaderOptionHTTP {
	return func(opts *HTTPReaderOptions) {
		opts.RetryAttempts = attempts
		opts.RetryDelay = delay
	}
}

// WithHTTPClient substitutes a custom HTTP client. The Timeout option is
// ignored when a client is supplied.
func WithHTTPClient(client *http.Client) ReaderOptionHTTP {
	return func(opts *HTTPReaderOptions) {
		opts.Client = client
	}
}

// HTTPReader streams rows from one URL. The response body is wrapped in the
// format reader matching the URL, so rows decode incrementally rather than
// after a full download.
type HTTPReader struct {
	url     string
	format  string
	client  *http.Client
	opts    *HTTPReaderOptions
	sub     RowReader
	stats   HTTPReaderStats
	fetched bool
}

// NewHTTPReader creates a reader for one URL. No request is made until the
// first Next call.
func NewHTTPReader(rawURL string, options ...ReaderOptionHTTP) (*HTTPReader, error) {
	opts := &HTTPReaderOptions{
		Timeout:       30 * time.Second,
		RetryAttempts: 3,
		RetryDelay:    time.Second,
		UserAgent:     "GoDataset/1.0",
	}
	for _, option := range options {
		option(opts)
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, &HTTPReaderError{Op: "parse_url", URL: rawURL, Err: err}
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, &HTTPReaderError{
			Op:  "parse_url",
			URL: rawURL,
			Err: fmt.Errorf("unsupported scheme %q", parsed.Scheme),
		}
	}

	format := opts.Format
	if format == "" {
		format = formatForURL(parsed)
	}
	if format != "csv" && format != "jsonl" && format != "text" {
		return nil, &HTTPReaderError{
			Op:  "format",
			URL: rawURL,
			Err: fmt.Errorf("unsupported response format %q", format),
		}
	}

	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: opts.Timeout}
	}

	return &HTTPReader{
		url:    rawURL,
		format: format,
		client: client,
		opts:   opts,
	}, nil
}

// formatForURL infers the row format from the URL path extension. Unknown
// extensions fall back to JSON lines, the common feed format.
func formatForURL(u *url.URL) string {
	switch strings.ToLower(path.Ext(u.Path)) {
	case ".csv":
		return "csv"
	case ".txt", ".text":
		return "text"
	default:
		return "jsonl"
	}
}

// Next implements the RowReader interface. The first call performs the
// request.
func (hr *HTTPReader) Next(ctx context.Context) (core.Row, error) {
	if !hr.fetched {
		if err := hr.fetch(ctx); err != nil {
			return nil, err
		}
	}

	row, err := hr.sub.Next(ctx)
	if err != nil {
		return nil, err
	}
	hr.stats.RecordsRead++
	return row, nil
}

// Columns implements the RowReader interface. The column set is unknown
// until the response starts streaming.
func (hr *HTTPReader) Columns() []string {
	if hr.sub != nil {
		return hr.sub.Columns()
	}
	return nil
}

// Close implements the RowReader interface.
func (hr *HTTPReader) Close() error {
	if hr.sub != nil {
		err := hr.sub.Close()
		hr.sub = nil
		return err
	}
	return nil
}

// Stats returns request statistics.
func (hr *HTTPReader) Stats() HTTPReaderStats {
	return hr.stats
}

// fetch performs the request with retries and wraps the body in the format
// reader. Rate limits (429) and server errors retry; other client errors
// fail immediately.
func (hr *HTTPReader) fetch(ctx context.Context) error {
	var lastErr error

	for attempt := 0; attempt <= hr.opts.RetryAttempts; attempt++ {
		if attempt > 0 {
			delay := hr.opts.RetryDelay * time.Duration(1<<uint(attempt-1))
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return &HTTPReaderError{Op: "request", URL: hr.url, Err: ctx.Err()}
			}
			hr.stats.RetryCount++
		}

		body, err := hr.request(ctx)
		if err == nil {
			hr.fetched = true
			return hr.wrapBody(body)
		}
		lastErr = err

		if httpErr, ok := err.(*HTTPReaderError); ok && httpErr.StatusCode > 0 {
			if httpErr.StatusCode != http.StatusTooManyRequests && httpErr.StatusCode < 500 {
				break
			}
		}
	}

	return lastErr
}

// request performs one attempt and returns the open response body.
func (hr *HTTPReader) request(ctx context.Context) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, hr.url, nil)
	if err != nil {
		return nil, &HTTPReaderError{Op: "create_request", URL: hr.url, Err: err}
	}

	req.Header.Set("User-Agent", hr.opts.UserAgent)
	for k, v := range hr.opts.Headers {
		req.Header.Set(k, v)
	}
	if hr.opts.BearerToken != "" {
		req.Header.Set("Authorization", "Bearer "+hr.opts.BearerToken)
	}
	if hr.opts.Username != "" {
		req.SetBasicAuth(hr.opts.Username, hr.opts.Password)
	}

	hr.stats.RequestCount++
	resp, err := hr.client.Do(req)
	if err != nil {
		return nil, &HTTPReaderError{Op: "request", URL: hr.url, Err: err}
	}

	hr.stats.StatusCode = resp.StatusCode
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		resp.Body.Close()
		return nil, &HTTPReaderError{
			Op:         "status_check",
			URL:        hr.url,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unexpected status code %d", resp.StatusCode),
		}
	}

	return resp.Body, nil
}

// wrapBody attaches the format reader for the response body.
func (hr *HTTPReader) wrapBody(body io.ReadCloser) error {
	switch hr.format {
	case "csv":
		sub, err := NewCSVReader(body)
		if err != nil {
			body.Close()
			return &HTTPReaderError{Op: "open_body", URL: hr.url, Err: err}
		}
		hr.sub = sub
	case "jsonl":
		hr.sub = NewJSONLinesReader(body)
	case "text":
		hr.sub = NewTextReader(body)
	}
	return nil
}
