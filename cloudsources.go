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

package godataset

import (
	"context"
	"net/url"

	"github.com/aaronlmathis/godataset/core"
	"github.com/aaronlmathis/godataset/ops"
	"github.com/aaronlmathis/godataset/readers"
	"github.com/aaronlmathis/godataset/validators"
)

// S3Objects declares a stream source over the objects of an S3 bucket,
// optionally narrowed by key prefix and suffix. Each object is parsed by the
// reader matching its extension (.csv, .txt, .json/.jsonl). The listing is
// performed at build time as the existence check; objects are streamed in key
// order when rows are pulled.
func S3Objects(bucket string, opts ...SourceOption) *Dataset {
	return newNode(&s3Spec{bucket: bucket, cfg: applySourceOptions(opts)})
}

type s3Spec struct {
	bucket string
	cfg    sourceOptions
}

func (s *s3Spec) Kind() string     { return "S3ObjectsNode" }
func (s *s3Spec) Class() NodeClass { return ClassSource }

func (s *s3Spec) ValidateParams() error {
	kind := s.Kind()
	if err := validators.NonEmpty(kind, "bucket", s.bucket); err != nil {
		return err
	}
	if err := validateSourceCommon(kind, &s.cfg); err != nil {
		return err
	}
	return validateStreamShuffle(kind, &s.cfg)
}

func (s *s3Spec) OutputColumns(inputs [][]string) []string {
	return s.cfg.columns
}

// readerOptions assembles the option list handed to every reader this source
// constructs.
func (s *s3Spec) readerOptions() []readers.ReaderOptionS3 {
	ropts := []readers.ReaderOptionS3{readers.WithS3Bucket(s.bucket)}
	if s.cfg.s3Region != "" {
		ropts = append(ropts, readers.WithS3Region(s.cfg.s3Region))
	}
	if s.cfg.s3Endpoint != "" {
		ropts = append(ropts, readers.WithS3Endpoint(s.cfg.s3Endpoint), readers.WithS3PathStyle(true))
	}
	if s.cfg.s3Prefix != "" {
		ropts = append(ropts, readers.WithS3Prefix(s.cfg.s3Prefix))
	}
	if s.cfg.s3Suffix != "" {
		ropts = append(ropts, readers.WithS3Suffix(s.cfg.s3Suffix))
	}
	if s.cfg.s3Creds != nil {
		ropts = append(ropts, readers.WithS3Credentials(*s.cfg.s3Creds))
	}
	ropts = append(ropts, readers.WithS3Recursive(s.cfg.s3Recursive))
	return ropts
}

func (s *s3Spec) Build(ctx context.Context, node *Dataset, inputs []ops.Operator) ([]ops.Operator, error) {
	kind := s.Kind()
	ropts := s.readerOptions()

	// The build-time listing is the existence check; rows are streamed by a
	// fresh reader opened per epoch.
	probe, err := readers.NewS3Reader(ctx, ropts...)
	if err != nil {
		return nil, &core.BuildError{Node: kind, Op: "list_objects", Err: err}
	}
	n := len(probe.Objects())
	if cerr := probe.Close(); cerr != nil {
		return nil, &core.BuildError{Node: kind, Op: "close", Err: cerr}
	}
	if n == 0 {
		return nil, core.Buildf(kind, "list_objects", "no objects match bucket %q prefix %q suffix %q",
			s.bucket, s.cfg.s3Prefix, s.cfg.s3Suffix)
	}

	opener := func(ctx context.Context) (readers.RowReader, error) {
		r, err := readers.NewS3Reader(ctx, ropts...)
		if err != nil {
			return nil, err
		}
		return r, nil
	}
	return streamOperators(node, "s3_source", nil, []readers.OpenFunc{opener}, &s.cfg), nil
}

// Mongo declares a stream source over a MongoDB collection, read through a
// find cursor with an optional BSON filter and server-side projection. No
// connection is made at build time; the client connects when rows are first
// pulled, so connectivity failures surface from the source operator.
func Mongo(uri, database, collection string, opts ...SourceOption) *Dataset {
	return newNode(&mongoSpec{
		uri:        uri,
		database:   database,
		collection: collection,
		cfg:        applySourceOptions(opts),
	})
}

type mongoSpec struct {
	uri        string
	database   string
	collection string
	cfg        sourceOptions
}

func (s *mongoSpec) Kind() string     { return "MongoNode" }
func (s *mongoSpec) Class() NodeClass { return ClassSource }

func (s *mongoSpec) ValidateParams() error {
	kind := s.Kind()
	if err := validators.NonEmpty(kind, "uri", s.uri); err != nil {
		return err
	}
	if err := validators.NonEmpty(kind, "database", s.database); err != nil {
		return err
	}
	if err := validators.NonEmpty(kind, "collection", s.collection); err != nil {
		return err
	}
	if err := validateSourceCommon(kind, &s.cfg); err != nil {
		return err
	}
	return validateStreamShuffle(kind, &s.cfg)
}

func (s *mongoSpec) OutputColumns(inputs [][]string) []string {
	return s.cfg.columns
}

func (s *mongoSpec) Build(ctx context.Context, node *Dataset, inputs []ops.Operator) ([]ops.Operator, error) {
	ropts := []readers.ReaderOptionMongo{
		readers.WithMongoURI(s.uri),
		readers.WithMongoDB(s.database),
		readers.WithMongoCollection(s.collection),
	}
	if s.cfg.mongoFilter != nil {
		ropts = append(ropts, readers.WithMongoFilter(s.cfg.mongoFilter))
	}
	if s.cfg.mongoProjection != nil {
		ropts = append(ropts, readers.WithMongoProjection(s.cfg.mongoProjection))
	}

	opener := func(ctx context.Context) (readers.RowReader, error) {
		r, err := readers.NewMongoReader(ropts...)
		if err != nil {
			return nil, err
		}
		if err := r.Connect(ctx); err != nil {
			r.Close()
			return nil, err
		}
		return r, nil
	}
	return streamOperators(node, "mongo_source", nil, []readers.OpenFunc{opener}, &s.cfg), nil
}

// Postgres declares a stream source over the rows of a PostgreSQL query. The
// query runs when rows are first pulled; build performs no database I/O, so
// connectivity failures surface from the source operator.
func Postgres(dsn, query string, opts ...SourceOption) *Dataset {
	return newNode(&postgresSpec{dsn: dsn, query: query, cfg: applySourceOptions(opts)})
}

type postgresSpec struct {
	dsn   string
	query string
	cfg   sourceOptions
}

func (s *postgresSpec) Kind() string     { return "PostgresNode" }
func (s *postgresSpec) Class() NodeClass { return ClassSource }

func (s *postgresSpec) ValidateParams() error {
	kind := s.Kind()
	if err := validators.NonEmpty(kind, "dsn", s.dsn); err != nil {
		return err
	}
	if err := validators.NonEmpty(kind, "query", s.query); err != nil {
		return err
	}
	if err := validateSourceCommon(kind, &s.cfg); err != nil {
		return err
	}
	return validateStreamShuffle(kind, &s.cfg)
}

func (s *postgresSpec) OutputColumns(inputs [][]string) []string {
	return s.cfg.columns
}

func (s *postgresSpec) Build(ctx context.Context, node *Dataset, inputs []ops.Operator) ([]ops.Operator, error) {
	opener := func(ctx context.Context) (readers.RowReader, error) {
		return readers.NewPostgresReader(ctx,
			readers.WithPostgresDSN(s.dsn),
			readers.WithPostgresQuery(s.query, s.cfg.postgresParams...),
		)
	}
	return streamOperators(node, "postgres_source", nil, []readers.OpenFunc{opener}, &s.cfg), nil
}

// HTTP declares a stream source over one or more HTTP or HTTPS endpoints.
// Each response body is parsed by the reader matching the URL's path
// extension (.csv, .txt; anything else is read as JSON lines). No request is
// made at build time; endpoints are fetched when rows are first pulled, so
// transport failures surface from the source operator. Requests carry the
// credentials and headers attached with WithHTTPToken and WithHTTPHeader, and
// transient failures (429 and 5xx) are retried before the source gives up.
func HTTP(urls []string, opts ...SourceOption) *Dataset {
	return newNode(&httpSpec{urls: urls, cfg: applySourceOptions(opts)})
}

type httpSpec struct {
	urls []string
	cfg  sourceOptions
}

func (s *httpSpec) Kind() string     { return "HTTPNode" }
func (s *httpSpec) Class() NodeClass { return ClassSource }

func (s *httpSpec) ValidateParams() error {
	kind := s.Kind()
	if len(s.urls) == 0 {
		return core.Validationf(kind, "urls", "must name at least one URL")
	}
	for i, raw := range s.urls {
		if raw == "" {
			return core.Validationf(kind, "urls", "must not contain an empty URL (index %d)", i)
		}
		u, err := url.Parse(raw)
		if err != nil {
			return core.Validationf(kind, "urls", "entry %d is not a valid URL: %v", i, err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return core.Validationf(kind, "urls", "entry %d must use http or https, got %q", i, u.Scheme)
		}
		if u.Host == "" {
			return core.Validationf(kind, "urls", "entry %d has no host", i)
		}
	}
	if err := validateSourceCommon(kind, &s.cfg); err != nil {
		return err
	}
	return validateStreamShuffle(kind, &s.cfg)
}

func (s *httpSpec) OutputColumns(inputs [][]string) []string {
	return s.cfg.columns
}

// readerOptions assembles the option list handed to every reader this source
// constructs.
func (s *httpSpec) readerOptions() []readers.ReaderOptionHTTP {
	var ropts []readers.ReaderOptionHTTP
	if s.cfg.httpToken != "" {
		ropts = append(ropts, readers.WithHTTPBearerToken(s.cfg.httpToken))
	}
	if len(s.cfg.httpHeaders) > 0 {
		ropts = append(ropts, readers.WithHTTPHeaders(s.cfg.httpHeaders))
	}
	if s.cfg.httpTimeout > 0 {
		ropts = append(ropts, readers.WithHTTPTimeout(s.cfg.httpTimeout))
	}
	return ropts
}

func (s *httpSpec) Build(ctx context.Context, node *Dataset, inputs []ops.Operator) ([]ops.Operator, error) {
	ropts := s.readerOptions()

	openers := make([]readers.OpenFunc, 0, len(s.urls))
	for _, raw := range s.urls {
		openers = append(openers, func(ctx context.Context) (readers.RowReader, error) {
			return readers.NewHTTPReader(raw, ropts...)
		})
	}
	return streamOperators(node, "http_source", nil, openers, &s.cfg), nil
}
