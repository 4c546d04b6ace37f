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
	"github.com/aaronlmathis/godataset/transform"
)

// MapOp applies an operation chain to each upstream row. The input columns'
// values are extracted in order, passed through every operation, and the
// results are written back under the output columns. Input columns not
// re-listed as outputs are consumed; untouched columns pass through.
type MapOp struct {
	Base
	operations    []transform.Op
	inputColumns  []string
	outputColumns []string
}

// NewMapOp wraps input with the operation chain. outputColumns must be
// non-empty; the caller defaults it to inputColumns.
func NewMapOp(name string, tuning Tuning, input Operator, operations []transform.Op,
	inputColumns, outputColumns []string) *MapOp {

	return &MapOp{
		Base:          NewBase(name, MappedColumns(input.Columns(), inputColumns, outputColumns), tuning, input),
		operations:    operations,
		inputColumns:  inputColumns,
		outputColumns: outputColumns,
	}
}

// MappedColumns splices the output columns into the upstream column order at
// the first input column's position. Unknown upstream columns stay unknown.
// Node declarations use the same rule before any operator exists.
func MappedColumns(upstream, inputs, outputs []string) []string {
	if upstream == nil {
		return nil
	}
	inputSet := make(map[string]bool, len(inputs))
	for _, col := range inputs {
		inputSet[col] = true
	}

	columns := make([]string, 0, len(upstream)+len(outputs))
	spliced := false
	for _, col := range upstream {
		if inputSet[col] {
			if !spliced {
				columns = append(columns, outputs...)
				spliced = true
			}
			continue
		}
		columns = append(columns, col)
	}
	if !spliced {
		columns = append(columns, outputs...)
	}
	return columns
}

func (m *MapOp) Next(ctx context.Context) (core.Row, error) {
	row, err := m.inputs[0].Next(ctx)
	if err == io.EOF {
		return nil, io.EOF
	}
	if err != nil {
		return nil, err
	}

	values := make([]any, len(m.inputColumns))
	for i, col := range m.inputColumns {
		v, ok := row[col]
		if !ok {
			return nil, core.Buildf(m.Name(), "map", "input column %q not present in row", col)
		}
		values[i] = v
	}

	for _, op := range m.operations {
		values, err = op.Apply(ctx, values)
		if err != nil {
			return nil, &core.BuildError{Node: m.Name(), Op: op.Name(), Err: err}
		}
	}

	if len(values) != len(m.outputColumns) {
		return nil, core.Buildf(m.Name(), "map",
			"operation chain produced %d values for %d output columns", len(values), len(m.outputColumns))
	}

	out := row.Clone()
	for _, col := range m.inputColumns {
		delete(out, col)
	}
	for i, col := range m.outputColumns {
		out[col] = values[i]
	}
	return out, nil
}

func (m *MapOp) Reset(ctx context.Context) error {
	return m.resetInputs(ctx)
}

func (m *MapOp) Close() error {
	return nil
}
