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
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/aaronlmathis/godataset/core"
	"github.com/aaronlmathis/godataset/ops"
	"github.com/aaronlmathis/godataset/readers"
	"github.com/aaronlmathis/godataset/sampler"
	"github.com/aaronlmathis/godataset/schema"
	"github.com/aaronlmathis/godataset/validators"
)

// defaultShuffleBuffer is the window size of the shuffle stage appended to
// stream sources running under ShuffleGlobal.
const defaultShuffleBuffer = 1024

// sourceOptions collects every option a source factory accepts. Each variant
// reads the fields that apply to it and ignores the rest.
type sourceOptions struct {
	columns       []string
	sampler       core.Sampler
	shuffle       core.ShuffleMode
	numShards     int32
	shardID       int32
	numSamples    int64
	shuffleBuffer int

	decode        bool
	extensions    []string
	classIndexing map[string]int32
	usage         string

	fieldDelim  rune
	columnNames []string
	columnTypes []core.ColumnType

	schemaRef schema.Ref

	s3Region    string
	s3Endpoint  string
	s3Prefix    string
	s3Suffix    string
	s3Recursive bool
	s3Creds     *aws.Credentials

	mongoFilter     bson.M
	mongoProjection bson.M

	postgresParams []any

	httpToken   string
	httpHeaders map[string]string
	httpTimeout time.Duration
}

func defaultSourceOptions() sourceOptions {
	return sourceOptions{
		shuffle:       core.ShuffleGlobal,
		numShards:     1,
		shuffleBuffer: defaultShuffleBuffer,
	}
}

// SourceOption configures a source factory. Options that do not apply to the
// variant they are passed to are ignored.
type SourceOption func(*sourceOptions)

// WithColumns restricts the source to the named columns, in the given order.
// Sources whose column set is discovered at build time project after
// discovery; Parquet sources additionally push the projection into the file
// reader.
func WithColumns(columns ...string) SourceOption {
	return func(o *sourceOptions) { o.columns = columns }
}

// WithSampler replaces the source's row-order sampler. Only the sampled
// sources (ImageFolder, Manifest, RandomData) consume it; an explicit sampler
// overrides the shuffle mode.
func WithSampler(s core.Sampler) SourceOption {
	return func(o *sourceOptions) { o.sampler = s }
}

// WithShuffle sets the shuffle mode. The default is core.ShuffleGlobal:
// sampled sources draw a seeded random order, stream sources shuffle their
// locations and pass rows through a buffered shuffle window.
func WithShuffle(mode core.ShuffleMode) SourceOption {
	return func(o *sourceOptions) { o.shuffle = mode }
}

// WithShards splits the source across numShards readers, this one taking the
// slice identified by shardID. Sampled sources shard the sampled row order;
// stream sources shard their location list.
func WithShards(numShards, shardID int32) SourceOption {
	return func(o *sourceOptions) {
		o.numShards = numShards
		o.shardID = shardID
	}
}

// WithNumSamples caps the rows the source yields per epoch, applied after
// sharding. Zero means unlimited.
func WithNumSamples(n int64) SourceOption {
	return func(o *sourceOptions) { o.numSamples = n }
}

// WithShuffleBuffer sets the window size of the shuffle stage a stream source
// appends under ShuffleGlobal. The default is 1024 rows.
func WithShuffleBuffer(n int) SourceOption {
	return func(o *sourceOptions) { o.shuffleBuffer = n }
}

// WithDecode records that image-bearing sources (ImageFolder, Manifest)
// should be decoded to pixel data by the consuming runtime rather than kept
// as raw file bytes.
func WithDecode(decode bool) SourceOption {
	return func(o *sourceOptions) { o.decode = decode }
}

// WithExtensions restricts ImageFolder to files carrying one of the given
// extensions, such as ".jpg". The default accepts common image extensions.
func WithExtensions(exts ...string) SourceOption {
	return func(o *sourceOptions) { o.extensions = exts }
}

// WithClassIndexing fixes the label index per class name for ImageFolder and
// Manifest sources, and restricts them to the named classes. Without it,
// classes are numbered by sorted name.
func WithClassIndexing(classes map[string]int32) SourceOption {
	return func(o *sourceOptions) { o.classIndexing = classes }
}

// WithUsage selects which manifest entries a Manifest source reads, matched
// against each line's usage tag. The default is "train".
func WithUsage(usage string) SourceOption {
	return func(o *sourceOptions) { o.usage = usage }
}

// WithFieldDelim sets the field delimiter a CSV source parses with. The
// default is a comma.
func WithFieldDelim(delim rune) SourceOption {
	return func(o *sourceOptions) { o.fieldDelim = delim }
}

// WithColumnNames names the columns of a CSV source whose files carry no
// header row, or overrides the header when one exists.
func WithColumnNames(names ...string) SourceOption {
	return func(o *sourceOptions) { o.columnNames = names }
}

// WithColumnTypes fixes the parsed type per CSV column, positionally matching
// the column names. Without it every field is typed by inspection.
func WithColumnTypes(types ...core.ColumnType) SourceOption {
	return func(o *sourceOptions) { o.columnTypes = types }
}

// WithSchemaRef attaches a schema reference. RandomData sources generate rows
// shaped by it; Parquet sources cross-check their files against it at build
// time.
func WithSchemaRef(ref schema.Ref) SourceOption {
	return func(o *sourceOptions) { o.schemaRef = ref }
}

// WithS3Region sets the AWS region an S3Objects source resolves its bucket in.
func WithS3Region(region string) SourceOption {
	return func(o *sourceOptions) { o.s3Region = region }
}

// WithS3Endpoint points an S3Objects source at a custom S3-compatible
// endpoint such as MinIO.
func WithS3Endpoint(endpoint string) SourceOption {
	return func(o *sourceOptions) { o.s3Endpoint = endpoint }
}

// WithS3Prefix restricts an S3Objects source to keys under the given prefix.
func WithS3Prefix(prefix string) SourceOption {
	return func(o *sourceOptions) { o.s3Prefix = prefix }
}

// WithS3Suffix restricts an S3Objects source to keys ending in the given
// suffix, such as ".parquet".
func WithS3Suffix(suffix string) SourceOption {
	return func(o *sourceOptions) { o.s3Suffix = suffix }
}

// WithS3Credentials supplies static credentials for an S3Objects source.
// Without it the default AWS credential chain applies.
func WithS3Credentials(accessKey, secretKey, sessionToken string) SourceOption {
	return func(o *sourceOptions) {
		o.s3Creds = &aws.Credentials{
			AccessKeyID:     accessKey,
			SecretAccessKey: secretKey,
			SessionToken:    sessionToken,
		}
	}
}

// WithS3Recursive makes an S3Objects source descend past the first delimiter
// below its prefix.
func WithS3Recursive(recursive bool) SourceOption {
	return func(o *sourceOptions) { o.s3Recursive = recursive }
}

// WithMongoQuery filters the documents a Mongo source reads.
func WithMongoQuery(filter bson.M) SourceOption {
	return func(o *sourceOptions) { o.mongoFilter = filter }
}

// WithMongoProjection restricts the fields a Mongo source fetches, evaluated
// server-side.
func WithMongoProjection(projection bson.M) SourceOption {
	return func(o *sourceOptions) { o.mongoProjection = projection }
}

// WithPostgresParams binds positional query parameters for a Postgres source.
func WithPostgresParams(params ...any) SourceOption {
	return func(o *sourceOptions) { o.postgresParams = params }
}

// WithHTTPToken sends a bearer token with every request an HTTP source makes.
func WithHTTPToken(token string) SourceOption {
	return func(o *sourceOptions) { o.httpToken = token }
}

// WithHTTPHeader adds a header to every request an HTTP source makes.
func WithHTTPHeader(key, value string) SourceOption {
	return func(o *sourceOptions) {
		if o.httpHeaders == nil {
			o.httpHeaders = make(map[string]string)
		}
		o.httpHeaders[key] = value
	}
}

// WithHTTPTimeout bounds each request an HTTP source makes. The default is
// 30 seconds.
func WithHTTPTimeout(timeout time.Duration) SourceOption {
	return func(o *sourceOptions) { o.httpTimeout = timeout }
}

// applySourceOptions folds the caller's options over the defaults.
func applySourceOptions(opts []SourceOption) sourceOptions {
	cfg := defaultSourceOptions()
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// validateSourceCommon checks the options every source variant shares.
func validateSourceCommon(kind string, cfg *sourceOptions) error {
	if err := validators.ShuffleMode(kind, cfg.shuffle); err != nil {
		return err
	}
	if err := validators.ShardParams(kind, cfg.numShards, cfg.shardID); err != nil {
		return err
	}
	if err := validators.NonNegative(kind, "num_samples", cfg.numSamples); err != nil {
		return err
	}
	return validators.UniqueNonEmptyAllowed(kind, "columns", cfg.columns)
}

// effectiveSampler resolves the sampler a sampled source reads through: an
// explicit sampler wins, otherwise the shuffle mode picks between sequential
// and seeded random order.
func effectiveSampler(node *Dataset, cfg *sourceOptions) core.Sampler {
	if cfg.sampler != nil {
		return cfg.sampler
	}
	if cfg.shuffle == core.ShuffleNone {
		return sampler.NewSequentialSampler(0, 0)
	}
	return sampler.NewRandomSampler(node.Seed(), 0)
}

// streamOperators wires a stream source over the given location openers and,
// under ShuffleGlobal, the buffered shuffle stage that follows it.
func streamOperators(node *Dataset, name string, columns []string, openers []readers.OpenFunc, cfg *sourceOptions) []ops.Operator {
	shuffleLocations := cfg.shuffle != core.ShuffleNone
	src := ops.NewStreamSource(name, columns, node.Tuning(), openers, node.Seed(), shuffleLocations,
		int(cfg.shardID), int(cfg.numShards), cfg.numSamples, cfg.columns)
	out := []ops.Operator{src}
	if cfg.shuffle == core.ShuffleGlobal {
		out = append(out, ops.NewShuffleOp("shuffle", node.Tuning(), src, cfg.shuffleBuffer, node.Seed()))
	}
	return out
}

// validateStreamShuffle checks the shuffle window a stream source would build
// under ShuffleGlobal.
func validateStreamShuffle(kind string, cfg *sourceOptions) error {
	if cfg.shuffle == core.ShuffleGlobal && cfg.shuffleBuffer < 2 {
		return core.Validationf(kind, "shuffle_buffer", "must be at least 2, got %d", cfg.shuffleBuffer)
	}
	return nil
}

// ImageFolder declares a source over a directory tree whose first-level
// subdirectories name classes and whose files are images. Rows carry the
// columns "image" (raw file bytes) and "label" (the class index). The tree is
// walked at build time; a missing or empty directory fails the build, not the
// declaration.
func ImageFolder(dir string, opts ...SourceOption) *Dataset {
	return newNode(&imageFolderSpec{dir: dir, cfg: applySourceOptions(opts)})
}

type imageFolderSpec struct {
	dir string
	cfg sourceOptions
}

func (s *imageFolderSpec) Kind() string     { return "ImageFolderNode" }
func (s *imageFolderSpec) Class() NodeClass { return ClassSource }

func (s *imageFolderSpec) ValidateParams() error {
	kind := s.Kind()
	if err := validators.NonEmpty(kind, "dataset_dir", s.dir); err != nil {
		return err
	}
	if err := validateSourceCommon(kind, &s.cfg); err != nil {
		return err
	}
	if err := validators.UniqueNonEmptyAllowed(kind, "extensions", s.cfg.extensions); err != nil {
		return err
	}
	for class, index := range s.cfg.classIndexing {
		if class == "" {
			return core.Validationf(kind, "class_indexing", "class names must be non-empty")
		}
		if index < 0 {
			return core.Validationf(kind, "class_indexing", "index for class %q must be >= 0, got %d", class, index)
		}
	}
	return nil
}

func (s *imageFolderSpec) OutputColumns(inputs [][]string) []string {
	if s.cfg.columns != nil {
		return s.cfg.columns
	}
	return []string{"image", "label"}
}

func (s *imageFolderSpec) Build(ctx context.Context, node *Dataset, inputs []ops.Operator) ([]ops.Operator, error) {
	ropts := []readers.ImageFolderOption{readers.WithImageDecode(s.cfg.decode)}
	if s.cfg.extensions != nil {
		ropts = append(ropts, readers.WithImageExtensions(s.cfg.extensions))
	}
	if s.cfg.classIndexing != nil {
		ropts = append(ropts, readers.WithImageClassIndexing(s.cfg.classIndexing))
	}
	reader, err := readers.NewImageFolderReader(s.dir, ropts...)
	if err != nil {
		return nil, &core.BuildError{Node: s.Kind(), Op: "list_dir", Err: err}
	}
	src, err := ops.NewSampledSource("image_folder_source", node.Tuning(), reader, effectiveSampler(node, &s.cfg),
		int(s.cfg.shardID), int(s.cfg.numShards), s.cfg.numSamples, s.cfg.columns)
	if err != nil {
		return nil, err
	}
	return []ops.Operator{src}, nil
}

// Manifest declares a source over a manifest file listing one JSON record per
// line: an image path, a label, and a usage tag. Rows carry the columns
// "image" and "label". Only entries whose usage matches the WithUsage
// selection (default "train") are read. The manifest is parsed at build time.
func Manifest(file string, opts ...SourceOption) *Dataset {
	return newNode(&manifestSpec{file: file, cfg: applySourceOptions(opts)})
}

type manifestSpec struct {
	file string
	cfg  sourceOptions
}

func (s *manifestSpec) Kind() string     { return "ManifestNode" }
func (s *manifestSpec) Class() NodeClass { return ClassSource }

func (s *manifestSpec) ValidateParams() error {
	kind := s.Kind()
	if err := validators.NonEmpty(kind, "dataset_file", s.file); err != nil {
		return err
	}
	if err := validateSourceCommon(kind, &s.cfg); err != nil {
		return err
	}
	for class, index := range s.cfg.classIndexing {
		if class == "" {
			return core.Validationf(kind, "class_indexing", "class names must be non-empty")
		}
		if index < 0 {
			return core.Validationf(kind, "class_indexing", "index for class %q must be >= 0, got %d", class, index)
		}
	}
	return nil
}

func (s *manifestSpec) OutputColumns(inputs [][]string) []string {
	if s.cfg.columns != nil {
		return s.cfg.columns
	}
	return []string{"image", "label"}
}

func (s *manifestSpec) Build(ctx context.Context, node *Dataset, inputs []ops.Operator) ([]ops.Operator, error) {
	ropts := []readers.ManifestOption{readers.WithManifestDecode(s.cfg.decode)}
	if s.cfg.usage != "" {
		ropts = append(ropts, readers.WithManifestUsage(s.cfg.usage))
	}
	if s.cfg.classIndexing != nil {
		ropts = append(ropts, readers.WithManifestClassIndexing(s.cfg.classIndexing))
	}
	reader, err := readers.NewManifestReader(s.file, ropts...)
	if err != nil {
		return nil, &core.BuildError{Node: s.Kind(), Op: "read_manifest", Err: err}
	}
	src, err := ops.NewSampledSource("manifest_source", node.Tuning(), reader, effectiveSampler(node, &s.cfg),
		int(s.cfg.shardID), int(s.cfg.numShards), s.cfg.numSamples, s.cfg.columns)
	if err != nil {
		return nil, err
	}
	return []ops.Operator{src}, nil
}

// RandomData declares a source of generated rows, useful for smoke-testing a
// pipeline shape before real data exists. Rows follow the schema attached
// with WithSchemaRef; without one, the columns named by WithColumns become
// int64 scalars. totalRows <= 0 lets the generator pick a small seeded count.
func RandomData(totalRows int64, opts ...SourceOption) *Dataset {
	return newNode(&randomDataSpec{total: totalRows, cfg: applySourceOptions(opts)})
}

type randomDataSpec struct {
	total int64
	cfg   sourceOptions
}

func (s *randomDataSpec) Kind() string     { return "RandomDataNode" }
func (s *randomDataSpec) Class() NodeClass { return ClassSource }

func (s *randomDataSpec) ValidateParams() error {
	kind := s.Kind()
	if err := validateSourceCommon(kind, &s.cfg); err != nil {
		return err
	}
	if s.cfg.schemaRef.IsZero() && len(s.cfg.columns) == 0 {
		return core.Validationf(kind, "schema", "a schema reference or explicit columns are required")
	}
	return nil
}

func (s *randomDataSpec) OutputColumns(inputs [][]string) []string {
	if s.cfg.columns != nil {
		return s.cfg.columns
	}
	if sch := s.cfg.schemaRef.Value(); sch != nil {
		return sch.ColumnNames()
	}
	return nil
}

func (s *randomDataSpec) Build(ctx context.Context, node *Dataset, inputs []ops.Operator) ([]ops.Operator, error) {
	var sch *schema.Schema
	if !s.cfg.schemaRef.IsZero() {
		resolved, err := s.cfg.schemaRef.Resolve()
		if err != nil {
			return nil, &core.BuildError{Node: s.Kind(), Op: "resolve_schema", Err: err}
		}
		sch = resolved
	} else {
		sch = schema.New()
		for _, name := range s.cfg.columns {
			if err := sch.AddColumn(name, core.TypeInt64, nil); err != nil {
				return nil, &core.BuildError{Node: s.Kind(), Op: "resolve_schema", Err: err}
			}
		}
	}
	reader, err := readers.NewRandomDataReader(s.total, sch, node.Seed())
	if err != nil {
		return nil, &core.BuildError{Node: s.Kind(), Op: "generate", Err: err}
	}
	src, err := ops.NewSampledSource("random_data_source", node.Tuning(), reader, effectiveSampler(node, &s.cfg),
		int(s.cfg.shardID), int(s.cfg.numShards), s.cfg.numSamples, s.cfg.columns)
	if err != nil {
		return nil, err
	}
	return []ops.Operator{src}, nil
}
