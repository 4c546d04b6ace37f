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
	"fmt"
	"os"

	"github.com/aaronlmathis/godataset/core"
	"github.com/aaronlmathis/godataset/ops"
	"github.com/aaronlmathis/godataset/readers"
	"github.com/aaronlmathis/godataset/schema"
	"github.com/aaronlmathis/godataset/validators"
)

// CSV declares a stream source over one or more delimiter-separated files.
// Each file contributes a header row naming its columns unless
// WithColumnNames overrides it; values are parsed by WithColumnTypes when
// given and by inspection otherwise. File existence is checked at build time.
func CSV(files []string, opts ...SourceOption) *Dataset {
	return newNode(&csvSpec{files: files, cfg: applySourceOptions(opts)})
}

type csvSpec struct {
	files []string
	cfg   sourceOptions
}

func (s *csvSpec) Kind() string     { return "CSVNode" }
func (s *csvSpec) Class() NodeClass { return ClassSource }

func (s *csvSpec) ValidateParams() error {
	kind := s.Kind()
	if err := validators.FilesNonEmpty(kind, "dataset_files", s.files); err != nil {
		return err
	}
	if err := validateSourceCommon(kind, &s.cfg); err != nil {
		return err
	}
	if err := validateStreamShuffle(kind, &s.cfg); err != nil {
		return err
	}
	if err := validators.UniqueNonEmptyAllowed(kind, "column_names", s.cfg.columnNames); err != nil {
		return err
	}
	if len(s.cfg.columnTypes) > 0 && len(s.cfg.columnNames) > 0 &&
		len(s.cfg.columnTypes) != len(s.cfg.columnNames) {
		return core.Validationf(kind, "column_types", "got %d types for %d columns",
			len(s.cfg.columnTypes), len(s.cfg.columnNames))
	}
	for i, t := range s.cfg.columnTypes {
		if !t.Valid() {
			return core.Validationf(kind, "column_types", "entry %d is not a valid column type", i)
		}
	}
	return nil
}

func (s *csvSpec) OutputColumns(inputs [][]string) []string {
	if s.cfg.columns != nil {
		return s.cfg.columns
	}
	return s.cfg.columnNames
}

func (s *csvSpec) Build(ctx context.Context, node *Dataset, inputs []ops.Operator) ([]ops.Operator, error) {
	if err := readers.CheckFiles(s.files...); err != nil {
		return nil, &core.BuildError{Node: s.Kind(), Op: "check_files", Err: err}
	}

	var ropts []readers.ReaderOptionCSV
	if s.cfg.fieldDelim != 0 {
		ropts = append(ropts, readers.WithCSVComma(s.cfg.fieldDelim))
	}
	if s.cfg.columnNames != nil {
		ropts = append(ropts, readers.WithCSVColumnNames(s.cfg.columnNames))
	}
	if s.cfg.columnTypes != nil {
		ropts = append(ropts, readers.WithCSVColumnTypes(s.cfg.columnTypes))
	}

	openers := make([]readers.OpenFunc, 0, len(s.files))
	for _, file := range s.files {
		openers = append(openers, func(ctx context.Context) (readers.RowReader, error) {
			f, err := os.Open(file)
			if err != nil {
				return nil, err
			}
			r, err := readers.NewCSVReader(f, ropts...)
			if err != nil {
				f.Close()
				return nil, err
			}
			return r, nil
		})
	}
	return streamOperators(node, "csv_source", s.cfg.columnNames, openers, &s.cfg), nil
}

// TextFile declares a stream source reading one row per line from the given
// files, under the single column "text". File existence is checked at build
// time.
func TextFile(files []string, opts ...SourceOption) *Dataset {
	return newNode(&textFileSpec{files: files, cfg: applySourceOptions(opts)})
}

type textFileSpec struct {
	files []string
	cfg   sourceOptions
}

func (s *textFileSpec) Kind() string     { return "TextFileNode" }
func (s *textFileSpec) Class() NodeClass { return ClassSource }

func (s *textFileSpec) ValidateParams() error {
	kind := s.Kind()
	if err := validators.FilesNonEmpty(kind, "dataset_files", s.files); err != nil {
		return err
	}
	if err := validateSourceCommon(kind, &s.cfg); err != nil {
		return err
	}
	return validateStreamShuffle(kind, &s.cfg)
}

func (s *textFileSpec) OutputColumns(inputs [][]string) []string {
	if s.cfg.columns != nil {
		return s.cfg.columns
	}
	return []string{"text"}
}

func (s *textFileSpec) Build(ctx context.Context, node *Dataset, inputs []ops.Operator) ([]ops.Operator, error) {
	if err := readers.CheckFiles(s.files...); err != nil {
		return nil, &core.BuildError{Node: s.Kind(), Op: "check_files", Err: err}
	}

	openers := make([]readers.OpenFunc, 0, len(s.files))
	for _, file := range s.files {
		openers = append(openers, func(ctx context.Context) (readers.RowReader, error) {
			f, err := os.Open(file)
			if err != nil {
				return nil, err
			}
			return readers.NewTextReader(f), nil
		})
	}
	return streamOperators(node, "text_source", []string{"text"}, openers, &s.cfg), nil
}

// Parquet declares a stream source over Parquet files, read through Arrow
// record batches. Columns and types come from each file's own schema; a
// reference attached with WithSchemaRef is cross-checked against every file
// at build time, and WithColumns pushes a column projection into the file
// reader. File existence is checked at build time.
func Parquet(files []string, opts ...SourceOption) *Dataset {
	return newNode(&parquetSpec{files: files, cfg: applySourceOptions(opts)})
}

type parquetSpec struct {
	files []string
	cfg   sourceOptions
}

func (s *parquetSpec) Kind() string     { return "ParquetNode" }
func (s *parquetSpec) Class() NodeClass { return ClassSource }

func (s *parquetSpec) ValidateParams() error {
	kind := s.Kind()
	if err := validators.FilesNonEmpty(kind, "dataset_files", s.files); err != nil {
		return err
	}
	if err := validateSourceCommon(kind, &s.cfg); err != nil {
		return err
	}
	return validateStreamShuffle(kind, &s.cfg)
}

func (s *parquetSpec) OutputColumns(inputs [][]string) []string {
	if s.cfg.columns != nil {
		return s.cfg.columns
	}
	if sch := s.cfg.schemaRef.Value(); sch != nil {
		return sch.ColumnNames()
	}
	return nil
}

func (s *parquetSpec) Build(ctx context.Context, node *Dataset, inputs []ops.Operator) ([]ops.Operator, error) {
	kind := s.Kind()
	if err := readers.CheckFiles(s.files...); err != nil {
		return nil, &core.BuildError{Node: kind, Op: "check_files", Err: err}
	}

	if !s.cfg.schemaRef.IsZero() {
		resolved, err := s.cfg.schemaRef.Resolve()
		if err != nil {
			return nil, &core.BuildError{Node: kind, Op: "resolve_schema", Err: err}
		}
		if err := s.checkFileSchemas(resolved); err != nil {
			return nil, err
		}
	}

	var ropts []readers.ReaderOption
	if s.cfg.columns != nil {
		ropts = append(ropts, readers.WithColumnProjection(s.cfg.columns...))
	}
	openers := make([]readers.OpenFunc, 0, len(s.files))
	for _, file := range s.files {
		openers = append(openers, func(ctx context.Context) (readers.RowReader, error) {
			return readers.NewParquetReader(file, ropts...)
		})
	}

	var columns []string
	if sch := s.cfg.schemaRef.Value(); sch != nil {
		columns = sch.ColumnNames()
	}
	return streamOperators(node, "parquet_source", columns, openers, &s.cfg), nil
}

// checkFileSchemas verifies every file carries the referenced columns with
// matching types, opening each file once.
func (s *parquetSpec) checkFileSchemas(ref *schema.Schema) error {
	kind := s.Kind()
	for _, file := range s.files {
		r, err := readers.NewParquetReader(file)
		if err != nil {
			return &core.BuildError{Node: kind, Op: "open_file", Err: err}
		}
		types := r.ColumnTypes()
		if cerr := r.Close(); cerr != nil {
			return &core.BuildError{Node: kind, Op: "close", Err: cerr}
		}
		for _, col := range ref.Columns() {
			got, ok := types[col.Name]
			if !ok {
				return &core.BuildError{Node: kind, Op: "resolve_schema", Err: &core.SchemaMismatchError{
					Column: col.Name,
					Reason: fmt.Sprintf("missing from %s", file),
				}}
			}
			if col.Type != core.TypeUnknown && got != col.Type {
				return &core.BuildError{Node: kind, Op: "resolve_schema", Err: &core.SchemaMismatchError{
					Column: col.Name,
					Reason: fmt.Sprintf("%s holds %s, schema declares %s", file, got, col.Type),
				}}
			}
		}
	}
	return nil
}
