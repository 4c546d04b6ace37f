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
	"math"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/apache/arrow/go/v12/arrow"
	"github.com/apache/arrow/go/v12/arrow/array"
	"github.com/apache/arrow/go/v12/arrow/memory"
	"github.com/apache/arrow/go/v12/parquet"
	"github.com/apache/arrow/go/v12/parquet/compress"
	"github.com/apache/arrow/go/v12/parquet/pqarrow"

	"github.com/aaronlmathis/godataset/core"
	"github.com/aaronlmathis/godataset/schema"
)

// This file implements a batching Parquet writer over Arrow. The Arrow schema
// comes from a declared dataset schema when one is supplied, otherwise it is
// inferred from the first row. Multi-element cells (batched or tokenized
// columns) have no Parquet representation here; project or map them away
// before exporting.

// ParquetWriterError wraps Parquet-specific write errors with context about the operation.
type ParquetWriterError struct {
	Op  string // Operation that failed (e.g., "write", "flush_batch", "open_file", "schema")
	Err error  // Underlying error
}

// Error returns the error string for ParquetWriterError.
func (e *ParquetWriterError) Error() string {
	return fmt.Sprintf("parquet writer %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for ParquetWriterError.
func (e *ParquetWriterError) Unwrap() error {
	return e.Err
}

// ParquetWriter writes rows to a Parquet file in batches. It supports Arrow
// schema inference, declared dataset schemas, compression, column ordering,
// schema validation, and statistics.
type ParquetWriter struct {
	file        *os.File
	writer      *pqarrow.FileWriter
	schema      *arrow.Schema
	rowCount    int64
	closed      bool
	batchSize   int64
	rowBuffer   []core.Row
	columnOrder []string
	stats       ParquetWriterStats
	errorState  bool
	builders    []array.Builder
	allocator   memory.Allocator
	opts        *ParquetWriterOptions
}

// ParquetWriterOptions configures the Parquet writer.
type ParquetWriterOptions struct {
	BatchSize      int64                // Number of rows to buffer before writing
	Schema         *schema.Schema       // Declared column types (optional)
	Compression    compress.Compression // Compression algorithm
	ColumnOrder    []string             // Explicit column ordering
	RowGroupSize   int64                // Maximum rows per row group
	Metadata       map[string]string    // File metadata
	ValidateSchema bool                 // Enable strict row validation
}

// ParquetWriterStats holds statistics about the Parquet writer's performance.
type ParquetWriterStats struct {
	RecordsWritten  int64
	BatchesWritten  int64
	FlushDuration   time.Duration
	LastFlushTime   time.Time
	NullValueCounts map[string]int64
}

// WriterOption represents a configuration function for ParquetWriterOptions.
type WriterOption func(*ParquetWriterOptions)

// WithBatchSize sets the number of rows to buffer before writing a batch.
func WithBatchSize(size int64) WriterOption {
	return func(opts *ParquetWriterOptions) {
		opts.BatchSize = size
	}
}

// WithCompression sets the Parquet compression algorithm.
func WithCompression(compression compress.Compression) WriterOption {
	return func(opts *ParquetWriterOptions) {
		opts.Compression = compression
	}
}

// WithColumnOrder sets the explicit column ordering for the Parquet schema.
func WithColumnOrder(columns []string) WriterOption {
	return func(opts *ParquetWriterOptions) {
		// Defensive copy to avoid shared slices
		opts.ColumnOrder = make([]string, len(columns))
		copy(opts.ColumnOrder, columns)
	}
}

// WithParquetSchema derives the file schema from a declared dataset schema
// instead of inferring it from the first row. Column order follows the
// declaration order unless WithColumnOrder overrides it.
func WithParquetSchema(s *schema.Schema) WriterOption {
	return func(opts *ParquetWriterOptions) {
		opts.Schema = s
	}
}

// WithSchemaValidation enables or disables strict row validation.
func WithSchemaValidation(validate bool) WriterOption {
	return func(opts *ParquetWriterOptions) {
		opts.ValidateSchema = validate
	}
}

// WithRowGroupSize sets the row group size for the Parquet file.
func WithRowGroupSize(size int64) WriterOption {
	return func(opts *ParquetWriterOptions) {
		opts.RowGroupSize = size
	}
}

// WithMetadata sets user metadata for the Parquet file.
func WithMetadata(metadata map[string]string) WriterOption {
	return func(opts *ParquetWriterOptions) {
		if opts.Metadata == nil {
			opts.Metadata = make(map[string]string)
		}
		// Defensive copy
		for k, v := range metadata {
			opts.Metadata[k] = v
		}
	}
}

// NewParquetWriter creates a new Parquet writer for a file.
// Accepts functional options for configuration. Returns a ready-to-use writer or an error.
func NewParquetWriter(filename string, options ...WriterOption) (*ParquetWriter, error) {
	// Start with defaults
	opts := (&ParquetWriterOptions{}).withDefaults()

	// Apply all functional options
	for _, option := range options {
		option(opts)
	}

	return createParquetWriter(filename, opts)
}

func createParquetWriter(filename string, opts *ParquetWriterOptions) (*ParquetWriter, error) {
	// Ensure parent directories exist
	dir := filepath.Dir(filename)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, &ParquetWriterError{
				Op:  "create_directory",
				Err: fmt.Errorf("failed to create directory %s: %w", dir, err),
			}
		}
	}
	// Create the output file
	file, err := os.Create(filename)
	if err != nil {
		return nil, &ParquetWriterError{
			Op:  "open_file",
			Err: fmt.Errorf("failed to create parquet file %s: %w", filename, err),
		}
	}

	writer := &ParquetWriter{
		file:        file,
		batchSize:   opts.BatchSize,
		columnOrder: opts.ColumnOrder,
		rowBuffer:   make([]core.Row, 0, opts.BatchSize),
		stats:       ParquetWriterStats{NullValueCounts: make(map[string]int64)},
		allocator:   memory.NewGoAllocator(),
		opts:        opts,
	}

	// A declared schema fixes the file schema up front; inference then never runs.
	if opts.Schema != nil {
		if err := writer.initializeSchemaFromDeclared(opts.Schema); err != nil {
			file.Close()
			return nil, err
		}
	}

	return writer, nil
}

// Stats returns the current statistics of the Parquet writer.
func (p *ParquetWriter) Stats() ParquetWriterStats {
	return p.stats
}

// Write implements the RowWriter interface. Buffers rows and writes in
// batches.
func (p *ParquetWriter) Write(ctx context.Context, row core.Row) error {
	if p.closed {
		return &ParquetWriterError{
			Op:  "write",
			Err: fmt.Errorf("parquet writer is closed"),
		}
	}

	if p.errorState {
		return &ParquetWriterError{
			Op:  "write",
			Err: fmt.Errorf("writer is in error state"),
		}
	}

	if p.schema == nil {
		if err := p.initializeSchemaFromRow(row); err != nil {
			p.errorState = true
			return err
		}
	}

	if p.opts.ValidateSchema {
		if err := p.validateRow(row); err != nil {
			p.errorState = true
			return &ParquetWriterError{
				Op:  "validate",
				Err: err,
			}
		}
	}

	p.rowBuffer = append(p.rowBuffer, row)
	p.rowCount++
	p.stats.RecordsWritten++

	if int64(len(p.rowBuffer)) >= p.batchSize {
		if err := p.flushBatch(); err != nil {
			p.errorState = true
			return err
		}
	}

	return nil
}

// Flush implements the RowWriter interface. Forces any buffered rows to be
// written to the Parquet file.
func (p *ParquetWriter) Flush() error {
	if len(p.rowBuffer) > 0 {
		return p.flushBatch()
	}
	return nil
}

// Close implements the RowWriter interface. Flushes and closes all resources.
// Closing twice is a no-op.
func (p *ParquetWriter) Close() error {
	if p.closed {
		return nil
	}
	p.closed = true

	// Flush any remaining rows
	if len(p.rowBuffer) > 0 && !p.errorState {
		if err := p.flushBatch(); err != nil {
			return err
		}
	}

	// Release builders first
	for _, builder := range p.builders {
		if builder != nil {
			builder.Release()
		}
	}
	p.builders = nil

	// Closing the pqarrow writer finalizes the footer and closes the
	// underlying file.
	if p.writer != nil {
		if err := p.writer.Close(); err != nil {
			return &ParquetWriterError{
				Op:  "close_writer",
				Err: fmt.Errorf("failed to close parquet writer: %w", err),
			}
		}
		p.writer = nil
		p.file = nil
		return nil
	}

	// No row was ever written: the pqarrow writer was never created, so the
	// file handle is still ours to close.
	if p.file != nil {
		err := p.file.Close()
		p.file = nil
		if err != nil {
			return &ParquetWriterError{Op: "close_file", Err: err}
		}
	}
	return nil
}

// withDefaults applies default values to ParquetWriterOptions.
func (opts *ParquetWriterOptions) withDefaults() *ParquetWriterOptions {
	result := &ParquetWriterOptions{}

	// Copy existing values if opts is not nil
	if opts != nil {
		*result = *opts
	}

	// Apply defaults for zero values only
	if result.BatchSize <= 0 {
		result.BatchSize = 1000
	}
	if result.RowGroupSize <= 0 {
		result.RowGroupSize = 10000
	}
	if result.Compression == 0 {
		result.Compression = compress.Codecs.Snappy
	}
	if result.Metadata == nil {
		result.Metadata = make(map[string]string)
	}

	return result
}

// initializeSchemaFromDeclared maps a declared dataset schema onto an Arrow
// schema and opens the file writer.
func (p *ParquetWriter) initializeSchemaFromDeclared(declared *schema.Schema) error {
	names := p.columnOrder
	if names == nil {
		names = declared.ColumnNames()
		p.columnOrder = names
	}

	fields := make([]arrow.Field, 0, len(names))
	for _, name := range names {
		col, ok := declared.Column(name)
		if !ok {
			return &ParquetWriterError{
				Op:  "schema",
				Err: fmt.Errorf("column %q is not declared in the schema", name),
			}
		}
		dataType, err := arrowFieldType(col.Type)
		if err != nil {
			return &ParquetWriterError{
				Op:  "schema",
				Err: fmt.Errorf("column %q: %w", name, err),
			}
		}
		fields = append(fields, arrow.Field{Name: name, Type: dataType, Nullable: true})
	}

	return p.openFileWriter(fields)
}

// initializeSchemaFromRow creates an Arrow schema from the first row and
// opens the file writer.
func (p *ParquetWriter) initializeSchemaFromRow(row core.Row) error {
	columnNames := p.columnOrder
	if columnNames == nil {
		columnNames = make([]string, 0, len(row))
		for name := range row {
			columnNames = append(columnNames, name)
		}
		sort.Strings(columnNames)
		p.columnOrder = columnNames
	}

	var fields []arrow.Field
	for _, name := range columnNames {
		value, exists := row[name]

		var dataType arrow.DataType
		var err error

		if exists && value != nil {
			if dataType, err = inferArrowType(value); err != nil {
				return &ParquetWriterError{
					Op:  "schema",
					Err: fmt.Errorf("column %q: %w", name, err),
				}
			}
		} else {
			// Column missing or null in the first row - default to string
			dataType = arrow.BinaryTypes.String
		}

		fields = append(fields, arrow.Field{Name: name, Type: dataType, Nullable: true})
	}

	return p.openFileWriter(fields)
}

// openFileWriter finalizes the Arrow schema and creates the pqarrow writer
// and the per-column builders.
func (p *ParquetWriter) openFileWriter(fields []arrow.Field) error {
	var md *arrow.Metadata
	if len(p.opts.Metadata) > 0 {
		m := arrow.MetadataFrom(p.opts.Metadata)
		md = &m
	}
	p.schema = arrow.NewSchema(fields, md)

	props := parquet.NewWriterProperties(
		parquet.WithCompression(p.opts.Compression),
		parquet.WithMaxRowGroupLength(p.opts.RowGroupSize),
	)

	writer, err := pqarrow.NewFileWriter(p.schema, p.file, props, pqarrow.DefaultWriterProps())
	if err != nil {
		return &ParquetWriterError{
			Op:  "create_writer",
			Err: fmt.Errorf("failed to create parquet file writer: %w", err),
		}
	}
	p.writer = writer

	p.builders = make([]array.Builder, len(fields))
	for i, field := range fields {
		p.builders[i] = array.NewBuilder(p.allocator, field.Type)
	}
	return nil
}

// inferArrowType infers the Arrow data type from a Go value.
func inferArrowType(value any) (arrow.DataType, error) {
	switch v := value.(type) {
	case bool:
		return arrow.FixedWidthTypes.Boolean, nil
	case int8:
		return arrow.PrimitiveTypes.Int8, nil
	case int16:
		return arrow.PrimitiveTypes.Int16, nil
	case int32:
		return arrow.PrimitiveTypes.Int32, nil
	case int64:
		return arrow.PrimitiveTypes.Int64, nil
	case int:
		// Use int64 for consistency unless value fits in int32
		if v >= math.MinInt32 && v <= math.MaxInt32 {
			return arrow.PrimitiveTypes.Int32, nil
		}
		return arrow.PrimitiveTypes.Int64, nil
	case uint8:
		return arrow.PrimitiveTypes.Uint8, nil
	case uint16:
		return arrow.PrimitiveTypes.Uint16, nil
	case uint32:
		return arrow.PrimitiveTypes.Uint32, nil
	case uint64:
		return arrow.PrimitiveTypes.Uint64, nil
	case float32:
		return arrow.PrimitiveTypes.Float32, nil
	case float64:
		return arrow.PrimitiveTypes.Float64, nil
	case string:
		return arrow.BinaryTypes.String, nil
	case time.Time:
		return arrow.FixedWidthTypes.Timestamp_us, nil
	case []byte:
		return arrow.BinaryTypes.Binary, nil
	case []any:
		return nil, fmt.Errorf("multi-element cell is not representable in parquet output")
	default:
		return nil, fmt.Errorf("unsupported type %T for value %v", value, value)
	}
}

// arrowFieldType maps a declared column type onto its Arrow data type.
func arrowFieldType(t core.ColumnType) (arrow.DataType, error) {
	switch t {
	case core.TypeBool:
		return arrow.FixedWidthTypes.Boolean, nil
	case core.TypeInt8:
		return arrow.PrimitiveTypes.Int8, nil
	case core.TypeInt16:
		return arrow.PrimitiveTypes.Int16, nil
	case core.TypeInt32:
		return arrow.PrimitiveTypes.Int32, nil
	case core.TypeInt64:
		return arrow.PrimitiveTypes.Int64, nil
	case core.TypeUInt8:
		return arrow.PrimitiveTypes.Uint8, nil
	case core.TypeUInt16:
		return arrow.PrimitiveTypes.Uint16, nil
	case core.TypeUInt32:
		return arrow.PrimitiveTypes.Uint32, nil
	case core.TypeUInt64:
		return arrow.PrimitiveTypes.Uint64, nil
	case core.TypeFloat32:
		return arrow.PrimitiveTypes.Float32, nil
	case core.TypeFloat64:
		return arrow.PrimitiveTypes.Float64, nil
	case core.TypeString:
		return arrow.BinaryTypes.String, nil
	case core.TypeBytes:
		return arrow.BinaryTypes.Binary, nil
	}
	return nil, fmt.Errorf("column type %s has no parquet mapping", t)
}

// flushBatch writes the current buffer to the Parquet file.
func (p *ParquetWriter) flushBatch() error {
	if len(p.rowBuffer) == 0 {
		return nil
	}

	startTime := time.Now()

	// Create Arrow record from buffer
	record, err := p.createArrowRecord(p.rowBuffer)
	if err != nil {
		return err
	}
	defer record.Release()

	// Write to parquet file
	if err := p.writer.Write(record); err != nil {
		return &ParquetWriterError{
			Op:  "write_batch",
			Err: fmt.Errorf("failed to write record batch: %w", err),
		}
	}

	p.stats.BatchesWritten++
	p.stats.FlushDuration += time.Since(startTime)
	p.stats.LastFlushTime = time.Now()

	// Clear buffer
	p.rowBuffer = p.rowBuffer[:0]

	return nil
}

// createArrowRecord converts buffered rows to an Arrow Record.
func (p *ParquetWriter) createArrowRecord(rows []core.Row) (arrow.Record, error) {
	if len(rows) == 0 {
		return nil, &ParquetWriterError{
			Op:  "create_arrow_record",
			Err: fmt.Errorf("no rows to convert"),
		}
	}

	for _, row := range rows {
		for i, column := range p.columnOrder {
			value, exists := row[column]

			// Track null values immediately when encountered
			if !exists || value == nil {
				p.builders[i].AppendNull()
				p.stats.NullValueCounts[column]++
				continue
			}

			if err := p.appendCell(p.builders[i], value, column); err != nil {
				return nil, &ParquetWriterError{
					Op:  "append_value",
					Err: fmt.Errorf("column %q: %w", column, err),
				}
			}
		}
	}

	// Build arrays from builders
	arrays := make([]arrow.Array, len(p.builders))
	for i, builder := range p.builders {
		arrays[i] = builder.NewArray()
		defer arrays[i].Release()
	}

	return array.NewRecord(p.schema, arrays, int64(len(rows))), nil
}

// appendCell appends a value to the appropriate Arrow array builder.
func (p *ParquetWriter) appendCell(builder array.Builder, value any, column string) error {
	switch b := builder.(type) {
	case *array.BooleanBuilder:
		v, ok := value.(bool)
		if !ok {
			return fmt.Errorf("cannot write %T as bool", value)
		}
		b.Append(v)
	case *array.Int8Builder:
		v, ok := value.(int8)
		if !ok {
			return fmt.Errorf("cannot write %T as int8", value)
		}
		b.Append(v)
	case *array.Int16Builder:
		v, ok := value.(int16)
		if !ok {
			return fmt.Errorf("cannot write %T as int16", value)
		}
		b.Append(v)
	case *array.Int32Builder:
		switch v := value.(type) {
		case int32:
			b.Append(v)
		case int:
			if v < math.MinInt32 || v > math.MaxInt32 {
				return fmt.Errorf("int value %d out of range for int32 column", v)
			}
			b.Append(int32(v))
		default:
			return fmt.Errorf("cannot write %T as int32", value)
		}
	case *array.Int64Builder:
		switch v := value.(type) {
		case int64:
			b.Append(v)
		case int:
			b.Append(int64(v))
		case int32:
			b.Append(int64(v))
		default:
			return fmt.Errorf("cannot write %T as int64", value)
		}
	case *array.Uint8Builder:
		v, ok := value.(uint8)
		if !ok {
			return fmt.Errorf("cannot write %T as uint8", value)
		}
		b.Append(v)
	case *array.Uint16Builder:
		v, ok := value.(uint16)
		if !ok {
			return fmt.Errorf("cannot write %T as uint16", value)
		}
		b.Append(v)
	case *array.Uint32Builder:
		v, ok := value.(uint32)
		if !ok {
			return fmt.Errorf("cannot write %T as uint32", value)
		}
		b.Append(v)
	case *array.Uint64Builder:
		v, ok := value.(uint64)
		if !ok {
			return fmt.Errorf("cannot write %T as uint64", value)
		}
		b.Append(v)
	case *array.Float32Builder:
		switch v := value.(type) {
		case float32:
			b.Append(v)
		case float64:
			b.Append(float32(v))
		default:
			return fmt.Errorf("cannot write %T as float32", value)
		}
	case *array.Float64Builder:
		switch v := value.(type) {
		case float64:
			b.Append(v)
		case float32:
			b.Append(float64(v))
		default:
			return fmt.Errorf("cannot write %T as float64", value)
		}
	case *array.StringBuilder:
		if v, ok := value.(string); ok {
			b.Append(v)
		} else {
			b.Append(fmt.Sprintf("%v", value))
		}
	case *array.BinaryBuilder:
		switch v := value.(type) {
		case []byte:
			b.Append(v)
		case string:
			b.Append([]byte(v))
		default:
			return fmt.Errorf("cannot write %T as binary", value)
		}
	case *array.TimestampBuilder:
		v, ok := value.(time.Time)
		if !ok {
			return fmt.Errorf("cannot write %T as timestamp", value)
		}
		b.Append(arrow.Timestamp(v.UnixMicro()))
	default:
		return fmt.Errorf("unsupported builder type %T", builder)
	}
	return nil
}

// validateRow checks that a row's cells match the file schema. Missing
// columns are allowed and become nulls.
func (p *ParquetWriter) validateRow(row core.Row) error {
	for _, field := range p.schema.Fields() {
		value, exists := row[field.Name]
		if !exists || value == nil {
			continue
		}

		if err := validateCellType(field, value); err != nil {
			return fmt.Errorf("column %q: %w", field.Name, err)
		}
	}
	return nil
}

// validateCellType checks that a value matches the Arrow field type.
func validateCellType(field arrow.Field, value any) error {
	switch field.Type.ID() {
	case arrow.BOOL:
		if _, ok := value.(bool); !ok {
			return fmt.Errorf("expected bool, got %T", value)
		}
	case arrow.INT8:
		if _, ok := value.(int8); !ok {
			return fmt.Errorf("expected int8, got %T", value)
		}
	case arrow.INT16:
		if _, ok := value.(int16); !ok {
			return fmt.Errorf("expected int16, got %T", value)
		}
	case arrow.INT32:
		switch value.(type) {
		case int, int32:
		default:
			return fmt.Errorf("expected int/int32, got %T", value)
		}
	case arrow.INT64:
		switch value.(type) {
		case int, int32, int64:
		default:
			return fmt.Errorf("expected int/int64, got %T", value)
		}
	case arrow.UINT8:
		if _, ok := value.(uint8); !ok {
			return fmt.Errorf("expected uint8, got %T", value)
		}
	case arrow.UINT16:
		if _, ok := value.(uint16); !ok {
			return fmt.Errorf("expected uint16, got %T", value)
		}
	case arrow.UINT32:
		if _, ok := value.(uint32); !ok {
			return fmt.Errorf("expected uint32, got %T", value)
		}
	case arrow.UINT64:
		if _, ok := value.(uint64); !ok {
			return fmt.Errorf("expected uint64, got %T", value)
		}
	case arrow.FLOAT32, arrow.FLOAT64:
		switch value.(type) {
		case float32, float64:
		default:
			return fmt.Errorf("expected float32/float64, got %T", value)
		}
	case arrow.STRING:
		if _, ok := value.(string); !ok {
			return fmt.Errorf("expected string, got %T", value)
		}
	case arrow.BINARY:
		switch value.(type) {
		case []byte, string:
		default:
			return fmt.Errorf("expected bytes, got %T", value)
		}
	case arrow.TIMESTAMP:
		if _, ok := value.(time.Time); !ok {
			return fmt.Errorf("expected time.Time, got %T", value)
		}
	default:
		return fmt.Errorf("unsupported arrow type %s for validation", field.Type.String())
	}
	return nil
}
