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

// ProjectOp narrows every upstream row to the named columns, which must all
// be present in each row.
type ProjectOp struct {
	Base
	project []string
}

// NewProjectOp wraps input with a column projection.
func NewProjectOp(name string, tuning Tuning, input Operator, columns []string) *ProjectOp {
	return &ProjectOp{
		Base:    NewBase(name, columns, tuning, input),
		project: columns,
	}
}

func (p *ProjectOp) Next(ctx context.Context) (core.Row, error) {
	row, err := p.inputs[0].Next(ctx)
	if err != nil {
		return nil, err
	}

	out := make(core.Row, len(p.project))
	for _, col := range p.project {
		v, ok := row[col]
		if !ok {
			return nil, core.Buildf(p.Name(), "project", "column %q not present in row", col)
		}
		out[col] = v
	}
	return out, nil
}

func (p *ProjectOp) Reset(ctx context.Context) error {
	return p.resetInputs(ctx)
}

func (p *ProjectOp) Close() error {
	return nil
}

// RenameOp renames columns of every upstream row; each source column must be
// present.
type RenameOp struct {
	Base
	from []string
	to   []string
}

// NewRenameOp wraps input with a positional column rename of from[i] to
// to[i].
func NewRenameOp(name string, tuning Tuning, input Operator, from, to []string) *RenameOp {
	return &RenameOp{
		Base: NewBase(name, RenamedColumns(input.Columns(), from, to), tuning, input),
		from: from,
		to:   to,
	}
}

// RenamedColumns applies the rename mapping to the upstream column order.
// Node declarations use the same rule before any operator exists.
func RenamedColumns(upstream, from, to []string) []string {
	if upstream == nil {
		return nil
	}
	mapping := make(map[string]string, len(from))
	for i, col := range from {
		mapping[col] = to[i]
	}
	columns := make([]string, len(upstream))
	for i, col := range upstream {
		if renamed, ok := mapping[col]; ok {
			col = renamed
		}
		columns[i] = col
	}
	return columns
}

func (r *RenameOp) Next(ctx context.Context) (core.Row, error) {
	row, err := r.inputs[0].Next(ctx)
	if err == io.EOF {
		return nil, io.EOF
	}
	if err != nil {
		return nil, err
	}

	// read all values before deleting so swap renames stay correct
	values := make([]any, len(r.from))
	for i, col := range r.from {
		v, ok := row[col]
		if !ok {
			return nil, core.Buildf(r.Name(), "rename", "column %q not present in row", col)
		}
		values[i] = v
	}

	out := row.Clone()
	for _, col := range r.from {
		delete(out, col)
	}
	for i, col := range r.to {
		out[col] = values[i]
	}
	return out, nil
}

func (r *RenameOp) Reset(ctx context.Context) error {
	return r.resetInputs(ctx)
}

func (r *RenameOp) Close() error {
	return nil
}
