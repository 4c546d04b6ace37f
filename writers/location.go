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
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	s3manager "github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// OutputFormat identifies a supported export format.
type OutputFormat int

const (
	FormatCSV OutputFormat = iota
	FormatJSONLines
	FormatParquet
	FormatPostgres
)

// String returns the lowercase name of the format.
func (f OutputFormat) String() string {
	switch f {
	case FormatCSV:
		return "csv"
	case FormatJSONLines:
		return "jsonl"
	case FormatParquet:
		return "parquet"
	case FormatPostgres:
		return "postgres"
	default:
		return fmt.Sprintf("format(%d)", int(f))
	}
}

// FormatForPath infers the output format from a path's extension.
func FormatForPath(path string) (OutputFormat, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return FormatCSV, nil
	case ".json", ".jsonl":
		return FormatJSONLines, nil
	case ".parquet":
		return FormatParquet, nil
	default:
		return 0, fmt.Errorf("cannot infer output format from path %q", path)
	}
}

// Location abstracts a destination that can open a RowWriter for a format.
// FileLocation, S3Location, and PostgresLocation are the built-in
// implementations.
type Location interface {
	Open(ctx context.Context, format OutputFormat) (RowWriter, error)
}

// FileLocation writes output to a local filesystem path.
type FileLocation struct {
	Path string
}

// Open instantiates a writer for the file location.
func (f FileLocation) Open(ctx context.Context, format OutputFormat) (RowWriter, error) {
	switch format {
	case FormatCSV:
		file, err := os.Create(f.Path)
		if err != nil {
			return nil, err
		}
		return NewCSVWriter(file)
	case FormatJSONLines:
		file, err := os.Create(f.Path)
		if err != nil {
			return nil, err
		}
		return NewJSONLinesWriter(file), nil
	case FormatParquet:
		return NewParquetWriter(f.Path)
	default:
		return nil, fmt.Errorf("unsupported format %s for file location", format)
	}
}

// S3Location writes objects to an S3 bucket. When Uploader is nil, one is
// built from the default AWS config chain.
type S3Location struct {
	Bucket   string
	Key      string
	Uploader *s3manager.Uploader
}

type s3WriteCloser struct {
	ctx      context.Context
	buf      *bytes.Buffer
	uploader *s3manager.Uploader
	bucket   string
	key      string
}

func newS3WriteCloser(ctx context.Context, u *s3manager.Uploader, bucket, key string) *s3WriteCloser {
	return &s3WriteCloser{
		ctx:      ctx,
		buf:      &bytes.Buffer{},
		uploader: u,
		bucket:   bucket,
		key:      key,
	}
}

func (s *s3WriteCloser) Write(p []byte) (int, error) { return s.buf.Write(p) }

func (s *s3WriteCloser) Close() error {
	_, err := s.uploader.Upload(s.ctx, &s3.PutObjectInput{
		Bucket: &s.bucket,
		Key:    &s.key,
		Body:   bytes.NewReader(s.buf.Bytes()),
	})
	return err
}

// parquetS3Writer finalizes a local parquet file, uploads it, then removes
// the temporary file. The parquet format needs a seekable file, so the
// buffer-through approach used for CSV and JSON lines does not apply.
type parquetS3Writer struct {
	*ParquetWriter
	ctx      context.Context
	uploader *s3manager.Uploader
	bucket   string
	key      string
	filename string
}

func (p *parquetS3Writer) Close() error {
	if err := p.ParquetWriter.Close(); err != nil {
		return err
	}
	file, err := os.Open(p.filename)
	if err != nil {
		return err
	}
	defer file.Close()
	_, err = p.uploader.Upload(p.ctx, &s3.PutObjectInput{
		Bucket: &p.bucket,
		Key:    &p.key,
		Body:   file,
	})
	if err != nil {
		return err
	}
	os.Remove(p.filename)
	return nil
}

// Open creates a writer uploading to S3. Data is staged locally and uploaded
// when the writer is closed.
func (s S3Location) Open(ctx context.Context, format OutputFormat) (RowWriter, error) {
	if s.Uploader == nil {
		cfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, err
		}
		s.Uploader = s3manager.NewUploader(s3.NewFromConfig(cfg))
	}

	switch format {
	case FormatCSV:
		return NewCSVWriter(newS3WriteCloser(ctx, s.Uploader, s.Bucket, s.Key))
	case FormatJSONLines:
		return NewJSONLinesWriter(newS3WriteCloser(ctx, s.Uploader, s.Bucket, s.Key)), nil
	case FormatParquet:
		tmp, err := os.CreateTemp("", "godataset-*.parquet")
		if err != nil {
			return nil, err
		}
		filename := tmp.Name()
		tmp.Close()
		pw, err := NewParquetWriter(filename)
		if err != nil {
			os.Remove(filename)
			return nil, err
		}
		return &parquetS3Writer{
			ParquetWriter: pw,
			ctx:           ctx,
			uploader:      s.Uploader,
			bucket:        s.Bucket,
			key:           s.Key,
			filename:      filename,
		}, nil
	default:
		return nil, fmt.Errorf("unsupported format %s for s3 location", format)
	}
}

// PostgresLocation directs output to a PostgreSQL table. The table is
// created from the first row when it does not exist.
type PostgresLocation struct {
	DSN   string
	Table string
}

// Open instantiates a PostgreSQL writer.
func (p PostgresLocation) Open(ctx context.Context, format OutputFormat) (RowWriter, error) {
	if format != FormatPostgres {
		return nil, fmt.Errorf("unsupported format %s for postgres location", format)
	}
	return NewPostgresWriter(ctx,
		WithPostgresDSN(p.DSN),
		WithTableName(p.Table),
		WithCreateTable(true),
	)
}
