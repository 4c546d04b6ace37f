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

	"github.com/aaronlmathis/godataset/core"
)

// Package ops contains the executable operators a materialized dataset tree
// compiles into. Every operator is a single-goroutine pull stage: Next yields
// one row at a time and io.EOF at end of stream. The Tuning fields are
// carried through unmodified for an execution runtime to consume; nothing in
// this package spawns goroutines.

// Operator is one executable stage of a materialized plan.
//
// Next returns io.EOF at end of stream; data errors surface as
// *core.BuildError with the operator's name. Reset rewinds the operator and
// everything upstream of it for another epoch pass. Close releases only the
// operator's own resources; a Plan closes every stage exactly once, so Close
// must not cascade to inputs.
type Operator interface {
	Name() string
	Columns() []string
	Inputs() []Operator
	Tuning() Tuning
	Next(ctx context.Context) (core.Row, error)
	Reset(ctx context.Context) error
	Close() error
}

// Tuning holds the execution-tuning fields resolved on the originating node.
type Tuning struct {
	NumWorkers          int // Worker count a parallel runtime would assign
	RowsPerBuffer       int // Rows per exchanged buffer
	ConnectorQueueSize  int // Depth of the inter-stage connector queue
	WorkerConnectorSize int // Depth of the per-worker feeder queue
}

// Base provides the shared bookkeeping every operator embeds.
type Base struct {
	name    string
	columns []string
	inputs  []Operator
	tuning  Tuning
}

// NewBase constructs the embedded bookkeeping for an operator. columns may be
// nil when the output column set is only discoverable from flowing rows.
func NewBase(name string, columns []string, tuning Tuning, inputs ...Operator) Base {
	return Base{name: name, columns: columns, inputs: inputs, tuning: tuning}
}

func (b *Base) Name() string {
	return b.name
}

func (b *Base) Columns() []string {
	return b.columns
}

func (b *Base) Inputs() []Operator {
	return b.inputs
}

func (b *Base) Tuning() Tuning {
	return b.tuning
}

// resetInputs rewinds every input of the operator, failing on the first error.
func (b *Base) resetInputs(ctx context.Context) error {
	for _, in := range b.inputs {
		if err := in.Reset(ctx); err != nil {
			return err
		}
	}
	return nil
}
