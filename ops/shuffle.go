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
	"math/rand"

	"github.com/aaronlmathis/godataset/core"
)

// ShuffleOp reorders upstream rows through a seeded sliding window. The
// window is filled to bufferSize, then each emitted row is drawn from a
// random window slot and replaced by the next upstream row. A window at
// least as large as the stream gives a full permutation. Reset advances the
// epoch so the next pass draws a different order from the same seed.
type ShuffleOp struct {
	Base
	bufferSize int
	seed       int64

	epoch     int64
	rng       *rand.Rand
	window    []core.Row
	filled    bool
	exhausted bool
}

// NewShuffleOp wraps input with a window shuffle of the given size and seed.
func NewShuffleOp(name string, tuning Tuning, input Operator, bufferSize int, seed int64) *ShuffleOp {
	return &ShuffleOp{
		Base:       NewBase(name, input.Columns(), tuning, input),
		bufferSize: bufferSize,
		seed:       seed,
		rng:        rand.New(rand.NewSource(seed)),
	}
}

func (s *ShuffleOp) Next(ctx context.Context) (core.Row, error) {
	input := s.inputs[0]

	if !s.filled {
		for len(s.window) < s.bufferSize {
			row, err := input.Next(ctx)
			if err == io.EOF {
				s.exhausted = true
				break
			}
			if err != nil {
				return nil, err
			}
			s.window = append(s.window, row)
		}
		s.filled = true
	}

	if len(s.window) == 0 {
		return nil, io.EOF
	}

	slot := s.rng.Intn(len(s.window))
	out := s.window[slot]

	if !s.exhausted {
		row, err := input.Next(ctx)
		if err == io.EOF {
			s.exhausted = true
		} else if err != nil {
			return nil, err
		} else {
			s.window[slot] = row
			return out, nil
		}
	}

	last := len(s.window) - 1
	s.window[slot] = s.window[last]
	s.window[last] = nil
	s.window = s.window[:last]
	return out, nil
}

func (s *ShuffleOp) Reset(ctx context.Context) error {
	if err := s.resetInputs(ctx); err != nil {
		return err
	}
	s.epoch++
	s.rng = rand.New(rand.NewSource(s.seed + s.epoch))
	s.window = nil
	s.filled = false
	s.exhausted = false
	return nil
}

func (s *ShuffleOp) Close() error {
	s.window = nil
	return nil
}
