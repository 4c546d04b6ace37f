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
	"github.com/aaronlmathis/godataset/readers"
)

// SampledSource pulls rows from an indexed (mappable) reader in the order an
// attached sampler produces, then applies sharding and the numSamples cap.
// Reset re-queries the sampler, so samplers that advance an epoch on each
// call reshuffle between passes.
type SampledSource struct {
	Base
	reader     readers.IndexedReader
	sampler    core.Sampler
	shardID    int
	numShards  int
	numSamples int64
	project    []string

	order []int64
	pos   int
}

// NewSampledSource resolves the first epoch's row order. project narrows the
// emitted columns when non-nil; numShards <= 1 disables sharding and
// numSamples <= 0 disables the cap.
func NewSampledSource(name string, tuning Tuning, reader readers.IndexedReader, smp core.Sampler,
	shardID, numShards int, numSamples int64, project []string) (*SampledSource, error) {

	columns := reader.Columns()
	if project != nil {
		columns = project
	}

	s := &SampledSource{
		Base:       NewBase(name, columns, tuning),
		reader:     reader,
		sampler:    smp,
		shardID:    shardID,
		numShards:  numShards,
		numSamples: numSamples,
		project:    project,
	}
	if err := s.resolveOrder(); err != nil {
		return nil, err
	}
	return s, nil
}

// resolveOrder queries the sampler and applies sharding plus the row cap.
func (s *SampledSource) resolveOrder() error {
	indices, err := s.sampler.Indices(s.reader.Len())
	if err != nil {
		return &core.BuildError{Node: s.Name(), Op: "sample", Err: err}
	}

	if s.numShards > 1 {
		sharded := make([]int64, 0, len(indices)/s.numShards+1)
		for pos, idx := range indices {
			if pos%s.numShards == s.shardID {
				sharded = append(sharded, idx)
			}
		}
		indices = sharded
	}

	if s.numSamples > 0 && int64(len(indices)) > s.numSamples {
		indices = indices[:s.numSamples]
	}

	s.order = indices
	s.pos = 0
	return nil
}

func (s *SampledSource) Next(ctx context.Context) (core.Row, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	if s.pos >= len(s.order) {
		return nil, io.EOF
	}

	row, err := s.reader.At(ctx, s.order[s.pos])
	if err != nil {
		return nil, &core.BuildError{Node: s.Name(), Op: "read", Err: err}
	}
	s.pos++

	return projectRow(row, s.project), nil
}

func (s *SampledSource) Reset(ctx context.Context) error {
	return s.resolveOrder()
}

func (s *SampledSource) Close() error {
	return s.reader.Close()
}

// StreamSource pulls rows from a sequence of stream locations, each opened on
// demand through its OpenFunc. Location order is reshuffled per epoch when
// shuffleLocations is set; sharding keeps running row ordinals congruent to
// the shard id; the numSamples cap applies after sharding.
type StreamSource struct {
	Base
	openers          []readers.OpenFunc
	seed             int64
	shuffleLocations bool
	shardID          int
	numShards        int
	numSamples       int64
	project          []string

	epoch   int64
	order   []int
	locPos  int
	current readers.RowReader
	ordinal int64
	emitted int64
}

// NewStreamSource assembles a stream source over the given location openers.
// columns may be nil when the column set is only discoverable from rows.
func NewStreamSource(name string, columns []string, tuning Tuning, openers []readers.OpenFunc,
	seed int64, shuffleLocations bool, shardID, numShards int, numSamples int64, project []string) *StreamSource {

	if project != nil {
		columns = project
	}

	s := &StreamSource{
		Base:             NewBase(name, columns, tuning),
		openers:          openers,
		seed:             seed,
		shuffleLocations: shuffleLocations,
		shardID:          shardID,
		numShards:        numShards,
		numSamples:       numSamples,
		project:          project,
	}
	s.resolveLocationOrder()
	return s
}

// resolveLocationOrder lays out the location visit order for the current
// epoch. The identity order is used unless location shuffling is on.
func (s *StreamSource) resolveLocationOrder() {
	order := make([]int, len(s.openers))
	for i := range order {
		order[i] = i
	}
	if s.shuffleLocations {
		rng := rand.New(rand.NewSource(s.seed + s.epoch))
		rng.Shuffle(len(order), func(i, j int) {
			order[i], order[j] = order[j], order[i]
		})
	}
	s.order = order
	s.locPos = 0
	s.ordinal = 0
	s.emitted = 0
}

func (s *StreamSource) Next(ctx context.Context) (core.Row, error) {
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		if s.numSamples > 0 && s.emitted >= s.numSamples {
			return nil, io.EOF
		}

		if s.current == nil {
			if s.locPos >= len(s.order) {
				return nil, io.EOF
			}
			reader, err := s.openers[s.order[s.locPos]](ctx)
			if err != nil {
				return nil, &core.BuildError{Node: s.Name(), Op: "open", Err: err}
			}
			s.current = reader
		}

		row, err := s.current.Next(ctx)
		if err == io.EOF {
			if cerr := s.current.Close(); cerr != nil {
				s.current = nil
				return nil, &core.BuildError{Node: s.Name(), Op: "close", Err: cerr}
			}
			s.current = nil
			s.locPos++
			continue
		}
		if err != nil {
			return nil, &core.BuildError{Node: s.Name(), Op: "read", Err: err}
		}

		ordinal := s.ordinal
		s.ordinal++
		if s.numShards > 1 && ordinal%int64(s.numShards) != int64(s.shardID) {
			continue
		}

		s.emitted++
		return projectRow(row, s.project), nil
	}
}

func (s *StreamSource) Reset(ctx context.Context) error {
	if err := s.Close(); err != nil {
		return &core.BuildError{Node: s.Name(), Op: "close", Err: err}
	}
	s.epoch++
	s.resolveLocationOrder()
	return nil
}

func (s *StreamSource) Close() error {
	if s.current == nil {
		return nil
	}
	err := s.current.Close()
	s.current = nil
	return err
}

// projectRow narrows row to the allow-listed columns. A nil list passes the
// row through untouched.
func projectRow(row core.Row, project []string) core.Row {
	if project == nil {
		return row
	}
	out := make(core.Row, len(project))
	for _, col := range project {
		if v, ok := row[col]; ok {
			out[col] = v
		}
	}
	return out
}
