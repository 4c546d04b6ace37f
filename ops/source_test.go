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
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aaronlmathis/godataset/core"
	"github.com/aaronlmathis/godataset/readers"
	"github.com/aaronlmathis/godataset/sampler"
)

// memIndexed is an in-memory IndexedReader for source tests.
type memIndexed struct {
	rows    []core.Row
	columns []string
	closed  bool
}

func (m *memIndexed) Len() int64 {
	return int64(len(m.rows))
}

func (m *memIndexed) At(ctx context.Context, index int64) (core.Row, error) {
	if index < 0 || index >= int64(len(m.rows)) {
		return nil, fmt.Errorf("index %d out of range", index)
	}
	return m.rows[index].Clone(), nil
}

func (m *memIndexed) Columns() []string {
	return m.columns
}

func (m *memIndexed) Close() error {
	m.closed = true
	return nil
}

// memStream is an in-memory RowReader; openerFor rebuilds it per epoch.
type memStream struct {
	rows []core.Row
	pos  int
}

func (m *memStream) Next(ctx context.Context) (core.Row, error) {
	if m.pos >= len(m.rows) {
		return nil, io.EOF
	}
	row := m.rows[m.pos].Clone()
	m.pos++
	return row, nil
}

func (m *memStream) Columns() []string { return nil }
func (m *memStream) Close() error     { return nil }

func openerFor(rows []core.Row) readers.OpenFunc {
	return func(ctx context.Context) (readers.RowReader, error) {
		return &memStream{rows: rows}, nil
	}
}

// TestSampledSource_SequentialOrder tests the identity pass
func TestSampledSource_SequentialOrder(t *testing.T) {
	reader := &memIndexed{rows: intRows("v", 5), columns: []string{"v"}}
	source, err := NewSampledSource("source", Tuning{}, reader,
		sampler.NewSequentialSampler(0, 0), 0, 1, 0, nil)
	require.NoError(t, err)

	out := drainAll(t, source)
	assert.Equal(t, []any{int64(0), int64(1), int64(2), int64(3), int64(4)},
		columnValues(out, "v"))
	assert.Equal(t, []string{"v"}, source.Columns())
}

// TestSampledSource_RandomReshufflesPerEpoch tests sampler epoch advance on Reset
func TestSampledSource_RandomReshufflesPerEpoch(t *testing.T) {
	reader := &memIndexed{rows: intRows("v", 40), columns: []string{"v"}}
	source, err := NewSampledSource("source", Tuning{}, reader,
		sampler.NewRandomSampler(5, 0), 0, 1, 0, nil)
	require.NoError(t, err)

	first := columnValues(drainAll(t, source), "v")
	require.NoError(t, source.Reset(context.Background()))
	second := columnValues(drainAll(t, source), "v")

	assert.ElementsMatch(t, first, second)
	assert.NotEqual(t, first, second)
}

// TestSampledSource_Sharding tests position-based shard selection
func TestSampledSource_Sharding(t *testing.T) {
	reader := &memIndexed{rows: intRows("v", 6), columns: []string{"v"}}

	shard0, err := NewSampledSource("source", Tuning{}, reader,
		sampler.NewSequentialSampler(0, 0), 0, 2, 0, nil)
	require.NoError(t, err)
	shard1, err := NewSampledSource("source", Tuning{}, reader,
		sampler.NewSequentialSampler(0, 0), 1, 2, 0, nil)
	require.NoError(t, err)

	assert.Equal(t, []any{int64(0), int64(2), int64(4)},
		columnValues(drainAll(t, shard0), "v"))
	assert.Equal(t, []any{int64(1), int64(3), int64(5)},
		columnValues(drainAll(t, shard1), "v"))
}

// TestSampledSource_NumSamplesCap tests the row cap after sharding
func TestSampledSource_NumSamplesCap(t *testing.T) {
	reader := &memIndexed{rows: intRows("v", 10), columns: []string{"v"}}
	source, err := NewSampledSource("source", Tuning{}, reader,
		sampler.NewSequentialSampler(0, 0), 0, 2, 3, nil)
	require.NoError(t, err)

	out := drainAll(t, source)
	assert.Equal(t, []any{int64(0), int64(2), int64(4)}, columnValues(out, "v"))
}

// TestSampledSource_Projection tests the column allow-list
func TestSampledSource_Projection(t *testing.T) {
	rows := []core.Row{{"a": int64(1), "b": "x"}}
	reader := &memIndexed{rows: rows, columns: []string{"a", "b"}}
	source, err := NewSampledSource("source", Tuning{}, reader,
		sampler.NewSequentialSampler(0, 0), 0, 1, 0, []string{"b"})
	require.NoError(t, err)

	assert.Equal(t, []string{"b"}, source.Columns())
	out := drainAll(t, source)
	require.Len(t, out, 1)
	assert.Equal(t, core.Row{"b": "x"}, out[0])
}

// TestSampledSource_Close tests the reader is released
func TestSampledSource_Close(t *testing.T) {
	reader := &memIndexed{rows: intRows("v", 1), columns: []string{"v"}}
	source, err := NewSampledSource("source", Tuning{}, reader,
		sampler.NewSequentialSampler(0, 0), 0, 1, 0, nil)
	require.NoError(t, err)

	require.NoError(t, source.Close())
	assert.True(t, reader.closed)
}

// TestStreamSource_LocationOrder tests sequential location reads
func TestStreamSource_LocationOrder(t *testing.T) {
	openers := []readers.OpenFunc{
		openerFor(intRows("v", 2)),
		openerFor([]core.Row{{"v": int64(10)}, {"v": int64(11)}}),
	}
	source := NewStreamSource("source", []string{"v"}, Tuning{}, openers,
		0, false, 0, 1, 0, nil)

	out := drainAll(t, source)
	assert.Equal(t, []any{int64(0), int64(1), int64(10), int64(11)},
		columnValues(out, "v"))
}

// TestStreamSource_FileShuffle tests seeded location reordering per epoch
func TestStreamSource_FileShuffle(t *testing.T) {
	build := func(seed int64) *StreamSource {
		openers := make([]readers.OpenFunc, 12)
		for i := range openers {
			openers[i] = openerFor([]core.Row{{"loc": int64(i)}})
		}
		return NewStreamSource("source", []string{"loc"}, Tuning{}, openers,
			seed, true, 0, 1, 0, nil)
	}

	first := columnValues(drainAll(t, build(9)), "loc")
	same := columnValues(drainAll(t, build(9)), "loc")
	assert.Equal(t, first, same)

	other := columnValues(drainAll(t, build(10)), "loc")
	assert.NotEqual(t, first, other)
	assert.ElementsMatch(t, first, other)

	// reset advances the epoch and reshuffles
	source := build(9)
	initial := columnValues(drainAll(t, source), "loc")
	require.NoError(t, source.Reset(context.Background()))
	next := columnValues(drainAll(t, source), "loc")
	assert.NotEqual(t, initial, next)
	assert.ElementsMatch(t, initial, next)
}

// TestStreamSource_OrdinalSharding tests running-ordinal shard selection
func TestStreamSource_OrdinalSharding(t *testing.T) {
	openers := []readers.OpenFunc{
		openerFor(intRows("v", 3)),
		openerFor([]core.Row{{"v": int64(10)}, {"v": int64(11)}, {"v": int64(12)}}),
	}
	source := NewStreamSource("source", []string{"v"}, Tuning{}, openers,
		0, false, 1, 2, 0, nil)

	out := drainAll(t, source)
	// ordinals 0..5 over [0,1,2,10,11,12]; shard 1 keeps odd ordinals
	assert.Equal(t, []any{int64(1), int64(10), int64(12)}, columnValues(out, "v"))
}

// TestStreamSource_NumSamplesCap tests the cap applies after sharding
func TestStreamSource_NumSamplesCap(t *testing.T) {
	source := NewStreamSource("source", []string{"v"}, Tuning{},
		[]readers.OpenFunc{openerFor(intRows("v", 10))},
		0, false, 0, 2, 2, nil)

	out := drainAll(t, source)
	assert.Equal(t, []any{int64(0), int64(2)}, columnValues(out, "v"))
}

// TestStreamSource_ResetReplays tests a clean second epoch
func TestStreamSource_ResetReplays(t *testing.T) {
	source := NewStreamSource("source", []string{"v"}, Tuning{},
		[]readers.OpenFunc{openerFor(intRows("v", 3))},
		0, false, 0, 1, 0, nil)

	first := drainAll(t, source)
	require.NoError(t, source.Reset(context.Background()))
	second := drainAll(t, source)
	assert.Equal(t, first, second)
}

// TestStreamSource_OpenFailure tests the build error naming the operator
func TestStreamSource_OpenFailure(t *testing.T) {
	failing := func(ctx context.Context) (readers.RowReader, error) {
		return nil, fmt.Errorf("no such object")
	}
	source := NewStreamSource("s3_source", nil, Tuning{},
		[]readers.OpenFunc{failing}, 0, false, 0, 1, 0, nil)

	_, err := source.Next(context.Background())
	require.Error(t, err)

	var berr *core.BuildError
	require.ErrorAs(t, err, &berr)
	assert.Equal(t, "s3_source", berr.Node)
	assert.Equal(t, "open", berr.Op)
}

// TestStreamSource_ContextCancellation tests early exit
func TestStreamSource_ContextCancellation(t *testing.T) {
	source := NewStreamSource("source", nil, Tuning{},
		[]readers.OpenFunc{openerFor(intRows("v", 3))}, 0, false, 0, 1, 0, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := source.Next(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
