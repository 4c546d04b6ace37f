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
	"io"

	"github.com/aaronlmathis/godataset/core"
	"github.com/aaronlmathis/godataset/ops"
)

// Iterator pulls rows one at a time from a materialized plan's terminal
// stage, on the caller's goroutine. It owns the plan: Close releases every
// stage's resources. An Iterator is not safe for concurrent use.
type Iterator struct {
	plan     *ops.Plan
	terminal ops.Operator
}

// CreateIterator materializes the tree rooted at this node and returns an
// iterator over its terminal stage. Validation and build failures are
// returned unchanged from Materialize.
func (d *Dataset) CreateIterator(ctx context.Context, opts ...MaterializeOption) (*Iterator, error) {
	plan, err := Materialize(ctx, d, opts...)
	if err != nil {
		return nil, err
	}
	return &Iterator{plan: plan, terminal: plan.Terminal()}, nil
}

// Next returns the next row, or io.EOF when the pipeline is exhausted. Any
// other error reflects a failure in some upstream stage and ends the run.
func (it *Iterator) Next(ctx context.Context) (core.Row, error) {
	if it.terminal == nil {
		return nil, io.EOF
	}
	return it.terminal.Next(ctx)
}

// Reset rewinds the pipeline to the start of a fresh epoch. Stages that
// draw randomness advance to their next epoch ordering.
func (it *Iterator) Reset(ctx context.Context) error {
	if it.terminal == nil {
		return nil
	}
	return it.terminal.Reset(ctx)
}

// Plan exposes the underlying plan for inspection.
func (it *Iterator) Plan() *ops.Plan {
	return it.plan
}

// Close releases every stage of the plan. The iterator is unusable
// afterwards.
func (it *Iterator) Close() error {
	if it.plan == nil {
		return nil
	}
	return it.plan.Close()
}
