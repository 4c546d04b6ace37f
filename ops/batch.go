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

	"github.com/aaronlmathis/godataset/core"
)

// PadSpec declares padding for one batched column. Dimensions of Shape set
// to -1 resolve to the batch's maximum observed size for that dimension
// (or to the bucket boundary under boundary padding). Value is the fill.
type PadSpec struct {
	Shape []int64
	Value any
}

// BatchOp groups consecutive upstream rows into fixed-size batches. Each
// column of a batched row holds a []any of the group's values in order. Only
// the final batch may be short; dropRemainder discards it instead.
type BatchOp struct {
	Base
	batchSize     int
	dropRemainder bool
	pad           map[string]PadSpec
}

// NewBatchOp wraps input with fixed-size batching.
func NewBatchOp(name string, tuning Tuning, input Operator, batchSize int, dropRemainder bool, pad map[string]PadSpec) *BatchOp {
	return &BatchOp{
		Base:          NewBase(name, input.Columns(), tuning, input),
		batchSize:     batchSize,
		dropRemainder: dropRemainder,
		pad:           pad,
	}
}

func (b *BatchOp) Next(ctx context.Context) (core.Row, error) {
	input := b.inputs[0]

	group := make([]core.Row, 0, b.batchSize)
	for len(group) < b.batchSize {
		row, err := input.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		group = append(group, row)
	}

	if len(group) == 0 {
		return nil, io.EOF
	}
	if len(group) < b.batchSize && b.dropRemainder {
		return nil, io.EOF
	}

	batched, err := assembleBatch(group, b.pad)
	if err != nil {
		return nil, &core.BuildError{Node: b.Name(), Op: "pad", Err: err}
	}
	return batched, nil
}

func (b *BatchOp) Reset(ctx context.Context) error {
	return b.resetInputs(ctx)
}

func (b *BatchOp) Close() error {
	return nil
}

// assembleBatch turns a group of rows into one batched row and applies the
// padding specs. Column order of appearance across the group decides which
// columns exist; a row missing a column contributes nil at its position.
func assembleBatch(group []core.Row, pad map[string]PadSpec) (core.Row, error) {
	columns := make([]string, 0, len(group[0]))
	seen := make(map[string]bool, len(group[0]))
	for _, row := range group {
		for col := range row {
			if !seen[col] {
				seen[col] = true
				columns = append(columns, col)
			}
		}
	}

	batched := make(core.Row, len(columns))
	for _, col := range columns {
		values := make([]any, len(group))
		for i, row := range group {
			values[i] = row[col]
		}

		if spec, ok := pad[col]; ok {
			shape := resolvePadShape(values, spec.Shape)
			for i, v := range values {
				padded, err := padToShape(v, shape, spec.Value)
				if err != nil {
					return nil, fmt.Errorf("column %q: %w", col, err)
				}
				values[i] = padded
			}
		}

		batched[col] = values
	}
	return batched, nil
}

// resolvePadShape fills the -1 dimensions of spec with the largest size
// observed across the batch at that nesting depth.
func resolvePadShape(values []any, spec []int64) []int64 {
	shape := make([]int64, len(spec))
	copy(shape, spec)
	for d, size := range shape {
		if size >= 0 {
			continue
		}
		var max int64
		for _, v := range values {
			if l := dimSize(v, d); l > max {
				max = l
			}
		}
		shape[d] = max
	}
	return shape
}

// dimSize reports the largest sequence length at the given nesting depth.
func dimSize(v any, depth int) int64 {
	seq, ok := v.([]any)
	if !ok {
		return 0
	}
	if depth == 0 {
		return int64(len(seq))
	}
	var max int64
	for _, elem := range seq {
		if l := dimSize(elem, depth-1); l > max {
			max = l
		}
	}
	return max
}

// padToShape pads a nested sequence out to shape with the fill value. A
// sequence longer than its target dimension is an error; -1 dimensions are
// resolved before this runs, so that can only happen with an explicit target.
func padToShape(v any, shape []int64, fill any) (any, error) {
	if len(shape) == 0 {
		return v, nil
	}
	seq, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("cannot pad %T: not a sequence", v)
	}
	if int64(len(seq)) > shape[0] {
		return nil, fmt.Errorf("sequence length %d exceeds pad target %d", len(seq), shape[0])
	}

	out := make([]any, 0, shape[0])
	for _, elem := range seq {
		padded, err := padToShape(elem, shape[1:], fill)
		if err != nil {
			return nil, err
		}
		out = append(out, padded)
	}
	for int64(len(out)) < shape[0] {
		out = append(out, filledValue(shape[1:], fill))
	}
	return out, nil
}

// filledValue builds a fully filled nested sequence of the given shape.
func filledValue(shape []int64, fill any) any {
	if len(shape) == 0 {
		return fill
	}
	out := make([]any, shape[0])
	for i := range out {
		out[i] = filledValue(shape[1:], fill)
	}
	return out
}
