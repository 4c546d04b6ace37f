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

// Count-based flow operators: Skip, Take, Repeat.

// SkipOp discards the first count upstream rows.
type SkipOp struct {
	Base
	count   int64
	skipped int64
}

// NewSkipOp wraps input, dropping its first count rows.
func NewSkipOp(name string, tuning Tuning, input Operator, count int64) *SkipOp {
	return &SkipOp{
		Base:  NewBase(name, input.Columns(), tuning, input),
		count: count,
	}
}

func (s *SkipOp) Next(ctx context.Context) (core.Row, error) {
	for s.skipped < s.count {
		if _, err := s.inputs[0].Next(ctx); err != nil {
			return nil, err
		}
		s.skipped++
	}
	return s.inputs[0].Next(ctx)
}

func (s *SkipOp) Reset(ctx context.Context) error {
	if err := s.resetInputs(ctx); err != nil {
		return err
	}
	s.skipped = 0
	return nil
}

func (s *SkipOp) Close() error {
	return nil
}

// TakeOp passes through the first count upstream rows and then reports end
// of stream. A count of -1 passes everything through.
type TakeOp struct {
	Base
	count int64
	taken int64
}

// NewTakeOp wraps input, capping it at count rows (-1 for no cap).
func NewTakeOp(name string, tuning Tuning, input Operator, count int64) *TakeOp {
	return &TakeOp{
		Base:  NewBase(name, input.Columns(), tuning, input),
		count: count,
	}
}

func (t *TakeOp) Next(ctx context.Context) (core.Row, error) {
	if t.count >= 0 && t.taken >= t.count {
		return nil, io.EOF
	}
	row, err := t.inputs[0].Next(ctx)
	if err != nil {
		return nil, err
	}
	t.taken++
	return row, nil
}

func (t *TakeOp) Reset(ctx context.Context) error {
	if err := t.resetInputs(ctx); err != nil {
		return err
	}
	t.taken = 0
	return nil
}

func (t *TakeOp) Close() error {
	return nil
}

// RepeatOp replays its input for count epochs, resetting the upstream chain
// between passes. A count of -1 repeats indefinitely; an epoch that produces
// zero rows ends the stream instead of spinning on empty resets.
type RepeatOp struct {
	Base
	count int64

	epochsDone int64
	sawRow     bool
}

// NewRepeatOp wraps input with an epoch repeat (-1 for unbounded).
func NewRepeatOp(name string, tuning Tuning, input Operator, count int64) *RepeatOp {
	return &RepeatOp{
		Base:  NewBase(name, input.Columns(), tuning, input),
		count: count,
	}
}

func (r *RepeatOp) Next(ctx context.Context) (core.Row, error) {
	for {
		row, err := r.inputs[0].Next(ctx)
		if err == nil {
			r.sawRow = true
			return row, nil
		}
		if err != io.EOF {
			return nil, err
		}

		r.epochsDone++
		if r.count >= 0 && r.epochsDone >= r.count {
			return nil, io.EOF
		}
		if !r.sawRow {
			return nil, io.EOF
		}
		r.sawRow = false

		if err := r.resetInputs(ctx); err != nil {
			return nil, err
		}
	}
}

func (r *RepeatOp) Reset(ctx context.Context) error {
	if err := r.resetInputs(ctx); err != nil {
		return err
	}
	r.epochsDone = 0
	r.sawRow = false
	return nil
}

func (r *RepeatOp) Close() error {
	return nil
}
