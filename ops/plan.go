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
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Plan is the ordered operator list a dataset tree materializes into. The
// operators appear in dependency order with the terminal stage last; Inputs
// in a stage description reference earlier positions.
type Plan struct {
	id        string
	operators []Operator
}

// NewPlan wraps the materializer's operator list under a fresh run id.
func NewPlan(operators []Operator) *Plan {
	return &Plan{
		id:        uuid.NewString(),
		operators: operators,
	}
}

// ID returns the plan's run id.
func (p *Plan) ID() string {
	return p.id
}

// Operators returns the executable stages in dependency order.
func (p *Plan) Operators() []Operator {
	return p.operators
}

// Terminal returns the stage iteration pulls from.
func (p *Plan) Terminal() Operator {
	if len(p.operators) == 0 {
		return nil
	}
	return p.operators[len(p.operators)-1]
}

// StageInfo describes one plan stage for inspection and logging.
type StageInfo struct {
	Position            int
	Name                string
	NumWorkers          int
	RowsPerBuffer       int
	ConnectorQueueSize  int
	WorkerConnectorSize int
	Inputs              []int
}

// Describe lists every stage with its tuning fields and the positions of its
// inputs.
func (p *Plan) Describe() []StageInfo {
	position := make(map[Operator]int, len(p.operators))
	for i, op := range p.operators {
		position[op] = i
	}

	stages := make([]StageInfo, len(p.operators))
	for i, op := range p.operators {
		tuning := op.Tuning()
		inputs := make([]int, 0, len(op.Inputs()))
		for _, in := range op.Inputs() {
			if pos, ok := position[in]; ok {
				inputs = append(inputs, pos)
			}
		}
		stages[i] = StageInfo{
			Position:            i,
			Name:                op.Name(),
			NumWorkers:          tuning.NumWorkers,
			RowsPerBuffer:       tuning.RowsPerBuffer,
			ConnectorQueueSize:  tuning.ConnectorQueueSize,
			WorkerConnectorSize: tuning.WorkerConnectorSize,
			Inputs:              inputs,
		}
	}
	return stages
}

// String renders the plan one stage per line, terminal last.
func (p *Plan) String() string {
	out := fmt.Sprintf("plan %s\n", p.id)
	for _, stage := range p.Describe() {
		out += fmt.Sprintf("  [%d] %s workers=%d rows_per_buffer=%d queue=%d worker_queue=%d inputs=%v\n",
			stage.Position, stage.Name, stage.NumWorkers, stage.RowsPerBuffer,
			stage.ConnectorQueueSize, stage.WorkerConnectorSize, stage.Inputs)
	}
	return out
}

// Close closes every stage exactly once, aggregating failures.
func (p *Plan) Close() error {
	errs := make([]error, 0)
	for _, op := range p.operators {
		if err := op.Close(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", op.Name(), err))
		}
	}
	return errors.Join(errs...)
}
