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

	"github.com/aaronlmathis/godataset/core"
	"github.com/aaronlmathis/godataset/ops"
	"github.com/aaronlmathis/godataset/transform"
	"github.com/aaronlmathis/godataset/validators"
)

// PadSpec declares padding for one batched column; see ops.PadSpec.
type PadSpec = ops.PadSpec

// batchOptions collects the options of Batch and BucketBatchByLength.
type batchOptions struct {
	dropRemainder bool
	pad           map[string]PadSpec
	lengthFn      core.LengthFunc
	padToBoundary bool
}

// BatchOption configures Batch and BucketBatchByLength.
type BatchOption func(*batchOptions)

// WithDropRemainder discards a final batch smaller than the configured size
// instead of forwarding it short.
func WithDropRemainder() BatchOption {
	return func(o *batchOptions) { o.dropRemainder = true }
}

// WithPad pads the named sequence-valued columns to the given shapes while
// batching. Dimensions set to -1 resolve to the batch's maximum observed
// size for that dimension.
func WithPad(pad map[string]PadSpec) BatchOption {
	return func(o *batchOptions) { o.pad = pad }
}

// WithLengthFunc supplies the function BucketBatchByLength measures rows
// with, applied to the named columns' values. Without it exactly one column
// must be named and its value's leading dimension is the length. Batch
// ignores this option.
func WithLengthFunc(fn core.LengthFunc) BatchOption {
	return func(o *batchOptions) { o.lengthFn = fn }
}

// WithPadToBucketBoundary pads every unspecified pad dimension to the
// assigned bucket's upper boundary minus one. Rows landing in the unbounded
// last bucket fail the pipeline under this flag. Batch ignores this option.
func WithPadToBucketBoundary() BatchOption {
	return func(o *batchOptions) { o.padToBoundary = true }
}

func applyBatchOptions(opts []BatchOption) batchOptions {
	var cfg batchOptions
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// mapOptions collects the options of Map.
type mapOptions struct {
	outputColumns  []string
	projectColumns []string
}

// MapOption configures Map.
type MapOption func(*mapOptions)

// WithOutputColumns names the columns the operation chain's results are
// written under. The default reuses the input column names in place.
func WithOutputColumns(columns ...string) MapOption {
	return func(o *mapOptions) { o.outputColumns = columns }
}

// WithMapProject projects the mapped rows down to the named columns, as if a
// Project followed the Map.
func WithMapProject(columns ...string) MapOption {
	return func(o *mapOptions) { o.projectColumns = columns }
}

// validatePad checks a padding table: non-empty column names and dimensions
// of -1 or a size.
func validatePad(kind string, pad map[string]PadSpec) error {
	for col, spec := range pad {
		if col == "" {
			return core.Validationf(kind, "pad", "column names must be non-empty")
		}
		for i, dim := range spec.Shape {
			if dim < -1 {
				return core.Validationf(kind, "pad", "column %q dimension %d must be >= -1, got %d", col, i, dim)
			}
		}
	}
	return nil
}

// Batch groups every batchSize consecutive rows into one batched row whose
// column values are []any slices in row order. Only the final batch may be
// short; WithDropRemainder discards it. WithPad pads sequence columns to a
// target shape.
func (d *Dataset) Batch(batchSize int, opts ...BatchOption) *Dataset {
	cfg := applyBatchOptions(opts)
	return newNode(&batchSpec{batchSize: batchSize, drop: cfg.dropRemainder, pad: cfg.pad}, d)
}

type batchSpec struct {
	batchSize int
	drop      bool
	pad       map[string]PadSpec
}

func (s *batchSpec) Kind() string     { return "BatchNode" }
func (s *batchSpec) Class() NodeClass { return ClassTransform }

func (s *batchSpec) ValidateParams() error {
	if err := validators.Positive(s.Kind(), "batch_size", int64(s.batchSize)); err != nil {
		return err
	}
	return validatePad(s.Kind(), s.pad)
}

func (s *batchSpec) OutputColumns(inputs [][]string) []string {
	return inputs[0]
}

func (s *batchSpec) Build(ctx context.Context, node *Dataset, inputs []ops.Operator) ([]ops.Operator, error) {
	return []ops.Operator{
		ops.NewBatchOp("batch", node.Tuning(), inputs[0], s.batchSize, s.drop, s.pad),
	}, nil
}

// BucketBatchByLength routes each row into a bucket by a measured length and
// batches every bucket independently. boundaries partition the length axis
// into len(boundaries)+1 buckets (the last unbounded); batchSizes gives each
// bucket's batch size positionally. The length is taken from the single
// named column's leading dimension, or from WithLengthFunc over the named
// columns. WithDropRemainder discards partial buckets at end of stream
// instead of flushing them in bucket order.
func (d *Dataset) BucketBatchByLength(columns []string, boundaries []int64, batchSizes []int, opts ...BatchOption) *Dataset {
	cfg := applyBatchOptions(opts)
	return newNode(&bucketBatchSpec{
		columns:       columns,
		boundaries:    boundaries,
		batchSizes:    batchSizes,
		lengthFn:      cfg.lengthFn,
		drop:          cfg.dropRemainder,
		padToBoundary: cfg.padToBoundary,
		pad:           cfg.pad,
	}, d)
}

type bucketBatchSpec struct {
	columns       []string
	boundaries    []int64
	batchSizes    []int
	lengthFn      core.LengthFunc
	drop          bool
	padToBoundary bool
	pad           map[string]PadSpec
}

func (s *bucketBatchSpec) Kind() string     { return "BucketBatchByLengthNode" }
func (s *bucketBatchSpec) Class() NodeClass { return ClassTransform }

func (s *bucketBatchSpec) ValidateParams() error {
	kind := s.Kind()
	if err := validators.UniqueNonEmpty(kind, "column_names", s.columns); err != nil {
		return err
	}
	if err := validators.StrictlyIncreasing(kind, "bucket_boundaries", s.boundaries); err != nil {
		return err
	}
	if len(s.batchSizes) != len(s.boundaries)+1 {
		return core.Validationf(kind, "bucket_batch_sizes", "need %d sizes for %d boundaries, got %d",
			len(s.boundaries)+1, len(s.boundaries), len(s.batchSizes))
	}
	for i, size := range s.batchSizes {
		if size <= 0 {
			return core.Validationf(kind, "bucket_batch_sizes", "must contain only positive values, got %d at index %d", size, i)
		}
	}
	if s.lengthFn == nil && len(s.columns) != 1 {
		return core.Validationf(kind, "element_length_function", "required when more than one column is named")
	}
	return validatePad(kind, s.pad)
}

func (s *bucketBatchSpec) OutputColumns(inputs [][]string) []string {
	return inputs[0]
}

func (s *bucketBatchSpec) Build(ctx context.Context, node *Dataset, inputs []ops.Operator) ([]ops.Operator, error) {
	return []ops.Operator{
		ops.NewBucketBatchOp("bucket_batch", node.Tuning(), inputs[0], s.columns,
			s.boundaries, s.batchSizes, s.lengthFn, s.drop, s.padToBoundary, s.pad),
	}, nil
}

// Map applies the operation chain to every row: the input columns' values
// are passed through each operation in order and the results written back
// under the output columns (the input names unless WithOutputColumns renames
// them). Input columns not re-listed as outputs are consumed; untouched
// columns pass through. WithMapProject narrows the result columns in the
// same step.
func (d *Dataset) Map(operations []transform.Op, inputColumns []string, opts ...MapOption) *Dataset {
	var cfg mapOptions
	for _, opt := range opts {
		opt(&cfg)
	}
	return newNode(&mapSpec{
		operations:     operations,
		inputColumns:   inputColumns,
		outputColumns:  cfg.outputColumns,
		projectColumns: cfg.projectColumns,
	}, d)
}

type mapSpec struct {
	operations     []transform.Op
	inputColumns   []string
	outputColumns  []string
	projectColumns []string
}

func (s *mapSpec) Kind() string     { return "MapNode" }
func (s *mapSpec) Class() NodeClass { return ClassTransform }

func (s *mapSpec) ValidateParams() error {
	kind := s.Kind()
	if len(s.operations) == 0 {
		return core.Validationf(kind, "operations", "at least one operation is required")
	}
	for i, op := range s.operations {
		if op == nil {
			return core.Validationf(kind, "operations", "operation %d is nil", i)
		}
	}
	if err := validators.UniqueNonEmpty(kind, "input_columns", s.inputColumns); err != nil {
		return err
	}
	if err := validators.UniqueNonEmptyAllowed(kind, "output_columns", s.outputColumns); err != nil {
		return err
	}
	return validators.UniqueNonEmptyAllowed(kind, "project_columns", s.projectColumns)
}

func (s *mapSpec) effectiveOutputs() []string {
	if len(s.outputColumns) > 0 {
		return s.outputColumns
	}
	return s.inputColumns
}

func (s *mapSpec) OutputColumns(inputs [][]string) []string {
	if s.projectColumns != nil {
		return s.projectColumns
	}
	return ops.MappedColumns(inputs[0], s.inputColumns, s.effectiveOutputs())
}

func (s *mapSpec) Build(ctx context.Context, node *Dataset, inputs []ops.Operator) ([]ops.Operator, error) {
	m := ops.NewMapOp("map", node.Tuning(), inputs[0], s.operations, s.inputColumns, s.effectiveOutputs())
	built := []ops.Operator{m}
	if s.projectColumns != nil {
		built = append(built, ops.NewProjectOp("map_project", node.Tuning(), m, s.projectColumns))
	}
	return built, nil
}

// Filter keeps the rows the predicate accepts and drops the rest. A
// predicate error stops the pipeline.
func (d *Dataset) Filter(predicate core.Predicate) *Dataset {
	return newNode(&filterSpec{predicate: predicate}, d)
}

type filterSpec struct {
	predicate core.Predicate
}

func (s *filterSpec) Kind() string     { return "FilterNode" }
func (s *filterSpec) Class() NodeClass { return ClassTransform }

func (s *filterSpec) ValidateParams() error {
	if s.predicate == nil {
		return core.Validationf(s.Kind(), "predicate", "a predicate function is required")
	}
	return nil
}

func (s *filterSpec) OutputColumns(inputs [][]string) []string {
	return inputs[0]
}

func (s *filterSpec) Build(ctx context.Context, node *Dataset, inputs []ops.Operator) ([]ops.Operator, error) {
	return []ops.Operator{
		ops.NewFilterOp("filter", node.Tuning(), inputs[0], s.predicate),
	}, nil
}

// Shuffle reorders rows through a seeded reservoir window of bufferSize
// rows. A window at least the dataset size yields a full permutation; the
// seed comes from the node (SetSeed), advanced per epoch.
func (d *Dataset) Shuffle(bufferSize int) *Dataset {
	return newNode(&shuffleSpec{bufferSize: bufferSize}, d)
}

type shuffleSpec struct {
	bufferSize int
}

func (s *shuffleSpec) Kind() string     { return "ShuffleNode" }
func (s *shuffleSpec) Class() NodeClass { return ClassTransform }

func (s *shuffleSpec) ValidateParams() error {
	if s.bufferSize < 2 {
		return core.Validationf(s.Kind(), "buffer_size", "must be at least 2, got %d", s.bufferSize)
	}
	return nil
}

func (s *shuffleSpec) OutputColumns(inputs [][]string) []string {
	return inputs[0]
}

func (s *shuffleSpec) Build(ctx context.Context, node *Dataset, inputs []ops.Operator) ([]ops.Operator, error) {
	return []ops.Operator{
		ops.NewShuffleOp("shuffle", node.Tuning(), inputs[0], s.bufferSize, node.Seed()),
	}, nil
}

// Repeat replays the upstream rows count times, resetting the upstream
// between passes. A count of -1 repeats forever.
func (d *Dataset) Repeat(count int64) *Dataset {
	return newNode(&repeatSpec{count: count}, d)
}

type repeatSpec struct {
	count int64
}

func (s *repeatSpec) Kind() string     { return "RepeatNode" }
func (s *repeatSpec) Class() NodeClass { return ClassTransform }

func (s *repeatSpec) ValidateParams() error {
	return validators.CountSentinel(s.Kind(), "count", s.count)
}

func (s *repeatSpec) OutputColumns(inputs [][]string) []string {
	return inputs[0]
}

func (s *repeatSpec) Build(ctx context.Context, node *Dataset, inputs []ops.Operator) ([]ops.Operator, error) {
	return []ops.Operator{
		ops.NewRepeatOp("repeat", node.Tuning(), inputs[0], s.count),
	}, nil
}

// Skip drops the first count rows and forwards the rest.
func (d *Dataset) Skip(count int64) *Dataset {
	return newNode(&skipSpec{count: count}, d)
}

type skipSpec struct {
	count int64
}

func (s *skipSpec) Kind() string     { return "SkipNode" }
func (s *skipSpec) Class() NodeClass { return ClassTransform }

func (s *skipSpec) ValidateParams() error {
	return validators.NonNegative(s.Kind(), "count", s.count)
}

func (s *skipSpec) OutputColumns(inputs [][]string) []string {
	return inputs[0]
}

func (s *skipSpec) Build(ctx context.Context, node *Dataset, inputs []ops.Operator) ([]ops.Operator, error) {
	return []ops.Operator{
		ops.NewSkipOp("skip", node.Tuning(), inputs[0], s.count),
	}, nil
}

// Take forwards the first count rows and ends the stream. A count of -1
// takes everything.
func (d *Dataset) Take(count int64) *Dataset {
	return newNode(&takeSpec{count: count}, d)
}

type takeSpec struct {
	count int64
}

func (s *takeSpec) Kind() string     { return "TakeNode" }
func (s *takeSpec) Class() NodeClass { return ClassTransform }

func (s *takeSpec) ValidateParams() error {
	return validators.CountSentinel(s.Kind(), "count", s.count)
}

func (s *takeSpec) OutputColumns(inputs [][]string) []string {
	return inputs[0]
}

func (s *takeSpec) Build(ctx context.Context, node *Dataset, inputs []ops.Operator) ([]ops.Operator, error) {
	return []ops.Operator{
		ops.NewTakeOp("take", node.Tuning(), inputs[0], s.count),
	}, nil
}

// Project narrows rows to the named columns, in the given order. Rows
// missing one of them fail the pipeline.
func (d *Dataset) Project(columns ...string) *Dataset {
	return newNode(&projectSpec{columns: columns}, d)
}

type projectSpec struct {
	columns []string
}

func (s *projectSpec) Kind() string     { return "ProjectNode" }
func (s *projectSpec) Class() NodeClass { return ClassTransform }

func (s *projectSpec) ValidateParams() error {
	return validators.UniqueNonEmpty(s.Kind(), "columns", s.columns)
}

func (s *projectSpec) OutputColumns(inputs [][]string) []string {
	return s.columns
}

func (s *projectSpec) Build(ctx context.Context, node *Dataset, inputs []ops.Operator) ([]ops.Operator, error) {
	return []ops.Operator{
		ops.NewProjectOp("project", node.Tuning(), inputs[0], s.columns),
	}, nil
}

// Rename renames the column from[i] to to[i] in every row, leaving values
// untouched.
func (d *Dataset) Rename(from, to []string) *Dataset {
	return newNode(&renameSpec{from: from, to: to}, d)
}

type renameSpec struct {
	from []string
	to   []string
}

func (s *renameSpec) Kind() string     { return "RenameNode" }
func (s *renameSpec) Class() NodeClass { return ClassTransform }

func (s *renameSpec) ValidateParams() error {
	kind := s.Kind()
	if err := validators.UniqueNonEmpty(kind, "input_columns", s.from); err != nil {
		return err
	}
	if err := validators.UniqueNonEmpty(kind, "output_columns", s.to); err != nil {
		return err
	}
	if len(s.from) != len(s.to) {
		return core.Validationf(kind, "output_columns", "got %d output names for %d input names",
			len(s.to), len(s.from))
	}
	return nil
}

func (s *renameSpec) OutputColumns(inputs [][]string) []string {
	return ops.RenamedColumns(inputs[0], s.from, s.to)
}

func (s *renameSpec) Build(ctx context.Context, node *Dataset, inputs []ops.Operator) ([]ops.Operator, error) {
	return []ops.Operator{
		ops.NewRenameOp("rename", node.Tuning(), inputs[0], s.from, s.to),
	}, nil
}
