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

package writers

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	s3manager "github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aaronlmathis/godataset/core"
)

// TestFormatForPath tests extension-based format inference.
func TestFormatForPath(t *testing.T) {
	tests := []struct {
		path     string
		expected OutputFormat
	}{
		{"out/data.csv", FormatCSV},
		{"data.CSV", FormatCSV},
		{"rows.json", FormatJSONLines},
		{"rows.jsonl", FormatJSONLines},
		{"part-0.parquet", FormatParquet},
	}
	for _, tt := range tests {
		format, err := FormatForPath(tt.path)
		require.NoError(t, err, tt.path)
		assert.Equal(t, tt.expected, format, tt.path)
	}

	_, err := FormatForPath("archive.tar.gz")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot infer")
}

// TestOutputFormat_String tests format names.
func TestOutputFormat_String(t *testing.T) {
	assert.Equal(t, "csv", FormatCSV.String())
	assert.Equal(t, "jsonl", FormatJSONLines.String())
	assert.Equal(t, "parquet", FormatParquet.String())
	assert.Equal(t, "postgres", FormatPostgres.String())
}

// TestFileLocation_Open tests writing through a file location.
func TestFileLocation_Open(t *testing.T) {
	ctx := context.Background()
	tempDir := t.TempDir()

	t.Run("csv", func(t *testing.T) {
		path := filepath.Join(tempDir, "out.csv")
		writer, err := FileLocation{Path: path}.Open(ctx, FormatCSV)
		require.NoError(t, err)

		require.NoError(t, writer.Write(ctx, core.Row{"id": int64(1), "name": "ada"}))
		require.NoError(t, writer.Close())

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "id,name\n1,ada\n", string(data))
	})

	t.Run("jsonl", func(t *testing.T) {
		path := filepath.Join(tempDir, "out.jsonl")
		writer, err := FileLocation{Path: path}.Open(ctx, FormatJSONLines)
		require.NoError(t, err)

		require.NoError(t, writer.Write(ctx, core.Row{"name": "ada"}))
		require.NoError(t, writer.Close())

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "{\"name\":\"ada\"}\n", string(data))
	})

	t.Run("parquet", func(t *testing.T) {
		path := filepath.Join(tempDir, "out.parquet")
		writer, err := FileLocation{Path: path}.Open(ctx, FormatParquet)
		require.NoError(t, err)

		require.NoError(t, writer.Write(ctx, core.Row{"id": int64(1)}))
		require.NoError(t, writer.Close())

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		require.Greater(t, len(data), 8)
		assert.Equal(t, "PAR1", string(data[:4]))
	})

	t.Run("unsupported", func(t *testing.T) {
		_, err := FileLocation{Path: filepath.Join(tempDir, "x")}.Open(ctx, FormatPostgres)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported format")
	})
}

// fakeS3Client captures uploaded objects in memory.
type fakeS3Client struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newFakeS3Client() *fakeS3Client {
	return &fakeS3Client{objects: make(map[string][]byte)}
}

func (f *fakeS3Client) PutObject(ctx context.Context, input *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(input.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[*input.Bucket+"/"+*input.Key] = data
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3Client) CreateMultipartUpload(context.Context, *s3.CreateMultipartUploadInput, ...func(*s3.Options)) (*s3.CreateMultipartUploadOutput, error) {
	return nil, fmt.Errorf("multipart upload not supported in tests")
}

func (f *fakeS3Client) UploadPart(context.Context, *s3.UploadPartInput, ...func(*s3.Options)) (*s3.UploadPartOutput, error) {
	return nil, fmt.Errorf("multipart upload not supported in tests")
}

func (f *fakeS3Client) CompleteMultipartUpload(context.Context, *s3.CompleteMultipartUploadInput, ...func(*s3.Options)) (*s3.CompleteMultipartUploadOutput, error) {
	return nil, fmt.Errorf("multipart upload not supported in tests")
}

func (f *fakeS3Client) AbortMultipartUpload(context.Context, *s3.AbortMultipartUploadInput, ...func(*s3.Options)) (*s3.AbortMultipartUploadOutput, error) {
	return nil, fmt.Errorf("multipart upload not supported in tests")
}

// TestS3Location_Open tests that rows buffer locally and upload on close.
func TestS3Location_Open(t *testing.T) {
	ctx := context.Background()
	fake := newFakeS3Client()
	loc := S3Location{
		Bucket:   "training-data",
		Key:      "exports/rows.jsonl",
		Uploader: s3manager.NewUploader(fake),
	}

	writer, err := loc.Open(ctx, FormatJSONLines)
	require.NoError(t, err)

	require.NoError(t, writer.Write(ctx, core.Row{"name": "ada"}))
	assert.Empty(t, fake.objects, "nothing should upload before close")

	require.NoError(t, writer.Close())

	data, ok := fake.objects["training-data/exports/rows.jsonl"]
	require.True(t, ok, "object should be uploaded on close")
	assert.True(t, strings.Contains(string(data), "\"ada\""))
}

// TestPostgresLocation_Open tests format checking without a database.
func TestPostgresLocation_Open(t *testing.T) {
	_, err := PostgresLocation{DSN: "postgres://localhost/x", Table: "t"}.Open(context.Background(), FormatCSV)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported format")
}
