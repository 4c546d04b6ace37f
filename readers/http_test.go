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
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestHTTPReader_JSONLines tests streaming a JSON lines response
func TestHTTPReader_JSONLines(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "{\"id\": 1, \"name\": \"alice\"}\n{\"id\": 2, \"name\": \"bob\"}\n")
	}))
	defer server.Close()

	reader, err := NewHTTPReader(server.URL + "/rows.jsonl")
	require.NoError(t, err)
	defer reader.Close()

	assert.Equal(t, int64(0), reader.Stats().RequestCount, "construction should not hit the network")

	ctx := context.Background()
	row, err := reader.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, float64(1), row["id"])
	assert.Equal(t, "alice", row["name"])

	row, err = reader.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, "bob", row["name"])

	_, err = reader.Next(ctx)
	assert.Equal(t, io.EOF, err)

	stats := reader.Stats()
	assert.Equal(t, int64(1), stats.RequestCount)
	assert.Equal(t, int64(2), stats.RecordsRead)
	assert.Equal(t, http.StatusOK, stats.StatusCode)
}

// TestHTTPReader_CSV tests that CSV responses decode with type inference
func TestHTTPReader_CSV(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "id,score\n1,0.5\n2,0.75\n")
	}))
	defer server.Close()

	reader, err := NewHTTPReader(server.URL + "/rows.csv")
	require.NoError(t, err)
	defer reader.Close()

	ctx := context.Background()
	row, err := reader.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), row["id"])
	assert.Equal(t, 0.5, row["score"])

	assert.Equal(t, []string{"id", "score"}, reader.Columns())
}

// TestHTTPReader_FormatInference tests extension-based format selection
func TestHTTPReader_FormatInference(t *testing.T) {
	tests := []struct {
		url      string
		expected string
	}{
		{"http://host/data.csv", "csv"},
		{"http://host/data.CSV", "csv"},
		{"http://host/notes.txt", "text"},
		{"http://host/rows.jsonl", "jsonl"},
		{"http://host/rows.json", "jsonl"},
		{"http://host/api/feed", "jsonl"},
	}
	for _, tt := range tests {
		reader, err := NewHTTPReader(tt.url)
		require.NoError(t, err, tt.url)
		assert.Equal(t, tt.expected, reader.format, tt.url)
	}
}

// TestHTTPReader_FormatOverride tests the explicit format option
func TestHTTPReader_FormatOverride(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "v\n7\n")
	}))
	defer server.Close()

	reader, err := NewHTTPReader(server.URL+"/export", WithHTTPFormat("csv"))
	require.NoError(t, err)
	defer reader.Close()

	row, err := reader.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(7), row["v"])
}

// TestHTTPReader_Validation tests URL and format rejection
func TestHTTPReader_Validation(t *testing.T) {
	t.Run("bad_scheme", func(t *testing.T) {
		_, err := NewHTTPReader("ftp://host/data.csv")
		require.Error(t, err)

		var herr *HTTPReaderError
		require.ErrorAs(t, err, &herr)
		assert.Equal(t, "parse_url", herr.Op)
	})

	t.Run("bad_format", func(t *testing.T) {
		_, err := NewHTTPReader("http://host/data", WithHTTPFormat("xml"))
		require.Error(t, err)

		var herr *HTTPReaderError
		require.ErrorAs(t, err, &herr)
		assert.Equal(t, "format", herr.Op)
	})
}

// TestHTTPReader_Auth tests bearer, basic, and custom header authentication
func TestHTTPReader_Auth(t *testing.T) {
	ctx := context.Background()

	t.Run("bearer", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") != "Bearer sesame" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			io.WriteString(w, "{\"ok\": true}\n")
		}))
		defer server.Close()

		reader, err := NewHTTPReader(server.URL+"/rows.jsonl", WithHTTPBearerToken("sesame"))
		require.NoError(t, err)
		defer reader.Close()

		row, err := reader.Next(ctx)
		require.NoError(t, err)
		assert.Equal(t, true, row["ok"])
	})

	t.Run("basic", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, pass, ok := r.BasicAuth()
			if !ok || user != "u" || pass != "p" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			io.WriteString(w, "{\"ok\": true}\n")
		}))
		defer server.Close()

		reader, err := NewHTTPReader(server.URL+"/rows.jsonl", WithHTTPBasicAuth("u", "p"))
		require.NoError(t, err)
		defer reader.Close()

		_, err = reader.Next(ctx)
		require.NoError(t, err)
	})

	t.Run("custom_header", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("X-Api-Key") != "k123" {
				w.WriteHeader(http.StatusForbidden)
				return
			}
			io.WriteString(w, "{\"ok\": true}\n")
		}))
		defer server.Close()

		reader, err := NewHTTPReader(server.URL+"/rows.jsonl",
			WithHTTPHeaders(map[string]string{"X-Api-Key": "k123"}))
		require.NoError(t, err)
		defer reader.Close()

		_, err = reader.Next(ctx)
		require.NoError(t, err)
	})
}

// TestHTTPReader_Retry tests backoff on server errors
func TestHTTPReader_Retry(t *testing.T) {
	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) <= 2 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		io.WriteString(w, "{\"id\": 1}\n")
	}))
	defer server.Close()

	reader, err := NewHTTPReader(server.URL+"/rows.jsonl",
		WithHTTPRetries(3, time.Millisecond))
	require.NoError(t, err)
	defer reader.Close()

	row, err := reader.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, float64(1), row["id"])

	stats := reader.Stats()
	assert.Equal(t, int64(3), stats.RequestCount)
	assert.Equal(t, int64(2), stats.RetryCount)
}

// TestHTTPReader_ClientErrorNoRetry tests that 4xx responses fail fast
func TestHTTPReader_ClientErrorNoRetry(t *testing.T) {
	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	reader, err := NewHTTPReader(server.URL+"/rows.jsonl",
		WithHTTPRetries(3, time.Millisecond))
	require.NoError(t, err)
	defer reader.Close()

	_, err = reader.Next(context.Background())
	require.Error(t, err)

	var herr *HTTPReaderError
	require.ErrorAs(t, err, &herr)
	assert.Equal(t, "status_check", herr.Op)
	assert.Equal(t, http.StatusNotFound, herr.StatusCode)
	assert.Equal(t, int64(1), calls.Load(), "client errors should not retry")
}
