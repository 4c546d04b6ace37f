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

// FilterOp keeps the upstream rows for which the predicate returns true.
type FilterOp struct {
	Base
	predicate core.Predicate
}

// NewFilterOp wraps input with a row predicate.
func NewFilterOp(name string, tuning Tuning, input Operator, predicate core.Predicate) *FilterOp {
	return &FilterOp{
		Base:      NewBase(name, input.Columns(), tuning, input),
		predicate: predicate,
	}
}

func (f *FilterOp) Next(ctx context.Context) (core.Row, error) {
	for {
		row, err := f.inputs[0].Next(ctx)
		if err != nil {
			return nil, err
		}

		keep, err := f.predicate(ctx, row)
		if err != nil {
			return nil, &core.BuildError{Node: f.Name(), Op: "filter", Err: err}
		}
		if keep {
			return row, nil
		}
	}
}

func (f *FilterOp) Reset(ctx context.Context) error {
	return f.resetInputs(ctx)
}

func (f *FilterOp) Close() error {
	return nil
}
