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
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestS3Reader_Validation tests required option checking
func TestS3Reader_Validation(t *testing.T) {
	_, err := NewS3Reader(context.Background(), WithS3Prefix("data/"))
	require.Error(t, err)

	var s3err *S3ReaderError
	require.ErrorAs(t, err, &s3err)
	assert.Equal(t, "validate_options", s3err.Op)
	assert.Contains(t, err.Error(), "bucket")
}

// TestS3Reader_ShouldIncludeObject tests suffix and recursion filtering
func TestS3Reader_ShouldIncludeObject(t *testing.T) {
	tests := []struct {
		name     string
		opts     S3ReaderOptions
		key      string
		expected bool
	}{
		{
			name:     "no_filters",
			opts:     S3ReaderOptions{Recursive: true},
			key:      "data/train/part-0.csv",
			expected: true,
		},
		{
			name:     "suffix_match",
			opts:     S3ReaderOptions{Suffix: ".csv", Recursive: true},
			key:      "data/part-0.csv",
			expected: true,
		},
		{
			name:     "suffix_mismatch",
			opts:     S3ReaderOptions{Suffix: ".csv", Recursive: true},
			key:      "data/part-0.json",
			expected: false,
		},
		{
			name:     "non_recursive_skips_subdirs",
			opts:     S3ReaderOptions{Prefix: "data/", Recursive: false},
			key:      "data/train/part-0.csv",
			expected: false,
		},
		{
			name:     "non_recursive_keeps_top_level",
			opts:     S3ReaderOptions{Prefix: "data/", Recursive: false},
			key:      "data/part-0.csv",
			expected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reader := &S3Reader{opts: tt.opts}
			assert.Equal(t, tt.expected, reader.shouldIncludeObject(tt.key))
		})
	}
}

// TestS3Reader_CreateReaderForObject tests extension-based reader dispatch
func TestS3Reader_CreateReaderForObject(t *testing.T) {
	reader := &S3Reader{}

	t.Run("csv_objects", func(t *testing.T) {
		body := io.NopCloser(strings.NewReader("a,b\n1,2\n"))
		sub, err := reader.createReaderForObject(body, "data/part.csv")
		require.NoError(t, err)
		defer sub.Close()

		_, ok := sub.(*CSVReader)
		assert.True(t, ok)
	})

	t.Run("text_objects", func(t *testing.T) {
		body := io.NopCloser(strings.NewReader("hello\n"))
		sub, err := reader.createReaderForObject(body, "data/notes.txt")
		require.NoError(t, err)
		defer sub.Close()

		_, ok := sub.(*TextReader)
		assert.True(t, ok)
	})

	t.Run("jsonl_objects", func(t *testing.T) {
		body := io.NopCloser(strings.NewReader("{\"a\": 1}\n"))
		sub, err := reader.createReaderForObject(body, "data/rows.jsonl")
		require.NoError(t, err)
		defer sub.Close()

		_, ok := sub.(*JSONLinesReader)
		assert.True(t, ok)
	})

	t.Run("unknown_extension_defaults_to_jsonl", func(t *testing.T) {
		body := io.NopCloser(strings.NewReader("{\"a\": 1}\n"))
		sub, err := reader.createReaderForObject(body, "data/rows.dat")
		require.NoError(t, err)
		defer sub.Close()

		_, ok := sub.(*JSONLinesReader)
		assert.True(t, ok)
	})
}

// TestS3Reader_Options tests functional option application
func TestS3Reader_Options(t *testing.T) {
	opts := S3ReaderOptions{MaxKeys: 1000, Recursive: true}
	for _, option := range []ReaderOptionS3{
		WithS3Bucket("training-data"),
		WithS3Prefix("images/"),
		WithS3Suffix(".jsonl"),
		WithS3Region("us-east-1"),
		WithS3Endpoint("http://localhost:9000"),
		WithS3PathStyle(true),
		WithS3MaxKeys(50),
		WithS3Recursive(false),
	} {
		option(&opts)
	}

	assert.Equal(t, "training-data", opts.Bucket)
	assert.Equal(t, "images/", opts.Prefix)
	assert.Equal(t, ".jsonl", opts.Suffix)
	assert.Equal(t, "us-east-1", opts.Region)
	assert.Equal(t, "http://localhost:9000", opts.EndpointURL)
	assert.True(t, opts.ForcePathStyle)
	assert.Equal(t, int32(50), opts.MaxKeys)
	assert.False(t, opts.Recursive)
}
