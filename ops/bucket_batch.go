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

package ops

import (
	"context"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/aaronlmathis/godataset/core"
)

// BucketBatchOp partitions upstream rows into length buckets and batches each
// bucket independently. Bucket i covers lengths [boundaries[i-1],
// boundaries[i]); the first covers [0, boundaries[0]) and the last is
// unbounded. A bucket emits as soon as it reaches its batch size. At end of
// stream, partial buckets flush in ascending bucket order unless
// dropRemainder is set.
type BucketBatchOp struct {
	Base
	columns       []string
	boundaries    []int64
	batchSizes    []int
	lengthFn      core.LengthFunc
	dropRemainder bool
	padToBoundary bool
	pad           map[string]PadSpec

	buckets  [][]core.Row
	draining bool
	flushIdx int
}

// NewBucketBatchOp wraps input with length-bucketed batching. lengthFn may be
// nil when exactly one column is named; its value's leading dimension is the
// length then. batchSizes holds one entry per bucket (len(boundaries)+1).
func NewBucketBatchOp(name string, tuning Tuning, input Operator, columns []string,
	boundaries []int64, batchSizes []int, lengthFn core.LengthFunc,
	dropRemainder, padToBoundary bool, pad map[string]PadSpec) *BucketBatchOp {

	return &BucketBatchOp{
		Base:          NewBase(name, input.Columns(), tuning, input),
		columns:       columns,
		boundaries:    boundaries,
		batchSizes:    batchSizes,
		lengthFn:      lengthFn,
		dropRemainder: dropRemainder,
		padToBoundary: padToBoundary,
		pad:           pad,
		buckets:       make([][]core.Row, len(boundaries)+1),
	}
}

func (b *BucketBatchOp) Next(ctx context.Context) (core.Row, error) {
	input := b.inputs[0]

	for !b.draining {
		row, err := input.Next(ctx)
		if err == io.EOF {
			b.draining = true
			break
		}
		if err != nil {
			return nil, err
		}

		length, err := b.rowLength(row)
		if err != nil {
			return nil, &core.BuildError{Node: b.Name(), Op: "length", Err: err}
		}

		bucket := b.bucketFor(length)
		if b.padToBoundary && bucket == len(b.boundaries) {
			return nil, &core.BuildError{Node: b.Name(), Op: "bucket",
				Err: fmt.Errorf("row length %d falls in the unbounded last bucket; boundary padding needs a finite bucket", length)}
		}

		b.buckets[bucket] = append(b.buckets[bucket], row)
		if len(b.buckets[bucket]) >= b.batchSizes[bucket] {
			group := b.buckets[bucket]
			b.buckets[bucket] = nil
			return b.emit(group, bucket)
		}
	}

	if !b.dropRemainder {
		for b.flushIdx < len(b.buckets) {
			bucket := b.flushIdx
			group := b.buckets[bucket]
			b.buckets[bucket] = nil
			b.flushIdx++
			if len(group) > 0 {
				return b.emit(group, bucket)
			}
		}
	}
	return nil, io.EOF
}

// emit assembles a bucket's group into one batched row, resolving pad shapes
// against the bucket's upper boundary when boundary padding is on.
func (b *BucketBatchOp) emit(group []core.Row, bucket int) (core.Row, error) {
	pad := b.pad
	if b.padToBoundary && len(pad) > 0 {
		target := b.boundaries[bucket] - 1
		pad = make(map[string]PadSpec, len(b.pad))
		for col, spec := range b.pad {
			shape := make([]int64, len(spec.Shape))
			for d, size := range spec.Shape {
				if size < 0 {
					size = target
				}
				shape[d] = size
			}
			pad[col] = PadSpec{Shape: shape, Value: spec.Value}
		}
	}

	batched, err := assembleBatch(group, pad)
	if err != nil {
		return nil, &core.BuildError{Node: b.Name(), Op: "pad", Err: err}
	}
	return batched, nil
}

// rowLength computes the bucketing length for a row: the extraction function
// over the named columns' values when given, otherwise the sole named
// column's leading dimension (sequence length, rune count, or byte count).
func (b *BucketBatchOp) rowLength(row core.Row) (int64, error) {
	if b.lengthFn != nil {
		values := make([]any, len(b.columns))
		for i, col := range b.columns {
			v, ok := row[col]
			if !ok {
				return 0, fmt.Errorf("column %q not present in row", col)
			}
			values[i] = v
		}
		length, err := b.lengthFn(values)
		if err != nil {
			return 0, err
		}
		if length < 0 {
			return 0, fmt.Errorf("length function returned %d", length)
		}
		return int64(length), nil
	}

	v, ok := row[b.columns[0]]
	if !ok {
		return 0, fmt.Errorf("column %q not present in row", b.columns[0])
	}
	switch t := v.(type) {
	case []any:
		return int64(len(t)), nil
	case string:
		return int64(utf8.RuneCountInString(t)), nil
	case []byte:
		return int64(len(t)), nil
	default:
		return 0, fmt.Errorf("cannot derive a length from %T in column %q", v, b.columns[0])
	}
}

// bucketFor returns the index of the bucket covering the given length.
func (b *BucketBatchOp) bucketFor(length int64) int {
	for i, boundary := range b.boundaries {
		if length < boundary {
			return i
		}
	}
	return len(b.boundaries)
}

func (b *BucketBatchOp) Reset(ctx context.Context) error {
	if err := b.resetInputs(ctx); err != nil {
		return err
	}
	b.buckets = make([][]core.Row, len(b.boundaries)+1)
	b.draining = false
	b.flushIdx = 0
	return nil
}

func (b *BucketBatchOp) Close() error {
	b.buckets = nil
	return nil
}
