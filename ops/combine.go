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
	"io"

	"github.com/aaronlmathis/godataset/core"
)

// Combinator operators: Concat, Zip.

// ConcatOp emits its inputs' rows sequentially, first input first.
type ConcatOp struct {
	Base
	current int
}

// NewConcatOp concatenates two or more inputs.
func NewConcatOp(name string, tuning Tuning, inputs ...Operator) *ConcatOp {
	return &ConcatOp{
		Base: NewBase(name, inputs[0].Columns(), tuning, inputs...),
	}
}

func (c *ConcatOp) Next(ctx context.Context) (core.Row, error) {
	for c.current < len(c.inputs) {
		row, err := c.inputs[c.current].Next(ctx)
		if err == io.EOF {
			c.current++
			continue
		}
		return row, err
	}
	return nil, io.EOF
}

func (c *ConcatOp) Reset(ctx context.Context) error {
	if err := c.resetInputs(ctx); err != nil {
		return err
	}
	c.current = 0
	return nil
}

func (c *ConcatOp) Close() error {
	return nil
}

// ZipOp merges one row from each input per step and ends at the shortest
// input. Inputs must produce disjoint column sets; a collision while merging
// is a data error naming this operator.
type ZipOp struct {
	Base
}

// NewZipOp zips two or more inputs with disjoint column sets.
func NewZipOp(name string, tuning Tuning, inputs ...Operator) *ZipOp {
	columns := make([]string, 0)
	for _, in := range inputs {
		cols := in.Columns()
		if cols == nil {
			columns = nil
			break
		}
		columns = append(columns, cols...)
	}
	return &ZipOp{
		Base: NewBase(name, columns, tuning, inputs...),
	}
}

func (z *ZipOp) Next(ctx context.Context) (core.Row, error) {
	merged := make(core.Row)
	for _, in := range z.inputs {
		row, err := in.Next(ctx)
		if err != nil {
			// io.EOF here means the shortest input ended the zip
			return nil, err
		}
		for col, v := range row {
			if _, exists := merged[col]; exists {
				return nil, core.Buildf(z.Name(), "zip", "column %q produced by more than one input", col)
			}
			merged[col] = v
		}
	}
	return merged, nil
}

func (z *ZipOp) Reset(ctx context.Context) error {
	return z.resetInputs(ctx)
}

func (z *ZipOp) Close() error {
	return nil
}
