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
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/aaronlmathis/godataset/core"
)

// CSVReaderError wraps structured error information for the CSV reader.
type CSVReaderError struct {
	Op  string
	Err error
}

func (e *CSVReaderError) Error() string {
	return fmt.Sprintf("csv reader %s: %v", e.Op, e.Err)
}

func (e *CSVReaderError) Unwrap() error {
	return e.Err
}

// CSVReaderStats holds statistics about the CSV reader's performance.
type CSVReaderStats struct {
	RecordsRead     int64
	ReadDuration    time.Duration
	LastReadTime    time.Time
	NullValueCounts map[string]int64
}

// CSVReaderOptions configures the CSV reader.
type CSVReaderOptions struct {
	Comma            rune
	Comment          rune
	FieldsPerRecord  int
	LazyQuotes       bool
	TrimLeadingSpace bool
	ColumnNames      []string
	ColumnTypes      []core.ColumnType
}

// ReaderOptionCSV allows functional customization of CSVReader.
type ReaderOptionCSV func(*CSVReaderOptions)

func WithCSVComma(r rune) ReaderOptionCSV {
	return func(o *CSVReaderOptions) { o.Comma = r }
}

// WithCSVColumnNames names the columns explicitly; the first file row is then
// treated as data, not a header.
func WithCSVColumnNames(names []string) ReaderOptionCSV {
	return func(o *CSVReaderOptions) {
		o.ColumnNames = make([]string, len(names))
		copy(o.ColumnNames, names)
	}
}

// WithCSVColumnTypes declares per-column parse types, positionally matching
// the resolved column names. Undeclared columns fall back to inference.
func WithCSVColumnTypes(types []core.ColumnType) ReaderOptionCSV {
	return func(o *CSVReaderOptions) {
		o.ColumnTypes = make([]core.ColumnType, len(types))
		copy(o.ColumnTypes, types)
	}
}

func WithCSVTrimSpace(trim bool) ReaderOptionCSV {
	return func(o *CSVReaderOptions) { o.TrimLeadingSpace = trim }
}

// CSVReader reads one delimited file as a row stream. The first row is the
// header unless column names were supplied.
type CSVReader struct {
	reader  *csv.Reader
	columns []string
	types   []core.ColumnType
	closer  io.Closer
	stats   CSVReaderStats
	opts    CSVReaderOptions
}

// NewCSVReader creates a CSVReader with default or overridden options.
func NewCSVReader(r io.ReadCloser, options ...ReaderOptionCSV) (*CSVReader, error) {
	opts := CSVReaderOptions{
		Comma:            ',',
		TrimLeadingSpace: true,
	}

	for _, opt := range options {
		opt(&opts)
	}

	csvReader := csv.NewReader(r)
	csvReader.Comma = opts.Comma
	csvReader.Comment = opts.Comment
	csvReader.FieldsPerRecord = opts.FieldsPerRecord
	csvReader.LazyQuotes = opts.LazyQuotes
	csvReader.TrimLeadingSpace = opts.TrimLeadingSpace

	reader := &CSVReader{
		reader: csvReader,
		closer: r,
		opts:   opts,
		stats:  CSVReaderStats{NullValueCounts: make(map[string]int64)},
	}

	if len(opts.ColumnNames) > 0 {
		reader.columns = opts.ColumnNames
	} else {
		header, err := csvReader.Read()
		if err != nil {
			return nil, &CSVReaderError{Op: "read_header", Err: err}
		}
		reader.columns = header
	}

	if len(opts.ColumnTypes) > 0 {
		if len(opts.ColumnTypes) != len(reader.columns) {
			return nil, &CSVReaderError{
				Op:  "column_types",
				Err: fmt.Errorf("%d types declared for %d columns", len(opts.ColumnTypes), len(reader.columns)),
			}
		}
		reader.types = opts.ColumnTypes
	}

	return reader, nil
}

// Next implements the RowReader interface.
func (c *CSVReader) Next(ctx context.Context) (core.Row, error) {
	start := time.Now()

	select {
	case <-ctx.Done():
		return nil, &CSVReaderError{Op: "read", Err: ctx.Err()}
	default:
	}

	record, err := c.reader.Read()
	if err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, &CSVReaderError{Op: "read_record", Err: err}
	}
	if len(record) != len(c.columns) {
		return nil, &CSVReaderError{
			Op:  "read_record",
			Err: fmt.Errorf("row has %d fields, want %d", len(record), len(c.columns)),
		}
	}

	res := make(core.Row, len(c.columns))
	for i, val := range record {
		key := c.columns[i]
		if strings.TrimSpace(val) == "" {
			c.stats.NullValueCounts[key]++
			res[key] = nil
			continue
		}
		if c.types != nil && c.types[i].Valid() && c.types[i] != core.TypeUnknown {
			parsed, perr := parseTyped(val, c.types[i])
			if perr != nil {
				return nil, &CSVReaderError{Op: "parse_field", Err: fmt.Errorf("column %q: %w", key, perr)}
			}
			res[key] = parsed
		} else {
			res[key] = c.parseValue(val)
		}
	}

	c.stats.RecordsRead++
	c.stats.LastReadTime = time.Now()
	c.stats.ReadDuration += time.Since(start)

	return res, nil
}

// Columns implements the RowReader interface.
func (c *CSVReader) Columns() []string {
	return c.columns
}

// Close implements the RowReader interface.
func (c *CSVReader) Close() error {
	if c.closer != nil {
		return c.closer.Close()
	}
	return nil
}

// Stats returns CSV reader performance stats.
func (c *CSVReader) Stats() CSVReaderStats {
	return c.stats
}

// parseValue attempts to infer int, float, bool, or fallback to string.
func (c *CSVReader) parseValue(value string) any {
	value = strings.TrimSpace(value)

	// Try parsing in common order
	if i, err := strconv.ParseInt(value, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(value, 64); err == nil {
		return f
	}
	if b, err := strconv.ParseBool(value); err == nil {
		return b
	}
	return value
}

// parseTyped parses a field under a declared column type.
func parseTyped(value string, t core.ColumnType) (any, error) {
	value = strings.TrimSpace(value)
	switch t {
	case core.TypeBool:
		return strconv.ParseBool(value)
	case core.TypeInt8:
		n, err := strconv.ParseInt(value, 10, 8)
		return int8(n), err
	case core.TypeInt16:
		n, err := strconv.ParseInt(value, 10, 16)
		return int16(n), err
	case core.TypeInt32:
		n, err := strconv.ParseInt(value, 10, 32)
		return int32(n), err
	case core.TypeInt64:
		return strconv.ParseInt(value, 10, 64)
	case core.TypeUInt8:
		n, err := strconv.ParseUint(value, 10, 8)
		return uint8(n), err
	case core.TypeUInt16:
		n, err := strconv.ParseUint(value, 10, 16)
		return uint16(n), err
	case core.TypeUInt32:
		n, err := strconv.ParseUint(value, 10, 32)
		return uint32(n), err
	case core.TypeUInt64:
		return strconv.ParseUint(value, 10, 64)
	case core.TypeFloat32:
		f, err := strconv.ParseFloat(value, 32)
		return float32(f), err
	case core.TypeFloat64:
		return strconv.ParseFloat(value, 64)
	case core.TypeString:
		return value, nil
	case core.TypeBytes:
		return []byte(value), nil
	}
	return nil, fmt.Errorf("unsupported column type %s", t)
}
