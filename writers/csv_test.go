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

package writers

import (
	"context"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aaronlmathis/godataset/core"
)

// Mock destination for CSV testing
type mockCSVWriteCloser struct {
	*strings.Builder
	closed    bool
	failWrite bool
	failClose bool
	mu        sync.Mutex
}

func (m *mockCSVWriteCloser) Write(p []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWrite {
		return 0, io.ErrUnexpectedEOF
	}
	return m.Builder.Write(p)
}

func (m *mockCSVWriteCloser) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	if m.failClose {
		return io.ErrClosedPipe
	}
	return nil
}

func newMockCSVWriteCloser() *mockCSVWriteCloser {
	return &mockCSVWriteCloser{Builder: &strings.Builder{}}
}

// TestCSVWriter_BasicWrite tests writing rows with a sorted inferred header.
func TestCSVWriter_BasicWrite(t *testing.T) {
	ctx := context.Background()
	mock := newMockCSVWriteCloser()

	writer, err := NewCSVWriter(mock)
	require.NoError(t, err)

	rows := []core.Row{
		{"name": "ada", "score": 0.5, "label": int64(1)},
		{"name": "grace", "score": 0.75, "label": int64(0)},
	}
	for _, row := range rows {
		require.NoError(t, writer.Write(ctx, row))
	}
	require.NoError(t, writer.Close())

	lines := strings.Split(strings.TrimSpace(mock.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "label,name,score", lines[0])
	assert.Equal(t, "1,ada,0.5", lines[1])
	assert.Equal(t, "0,grace,0.75", lines[2])
	assert.True(t, mock.closed)

	stats := writer.Stats()
	assert.Equal(t, int64(2), stats.RecordsWritten)
	assert.GreaterOrEqual(t, stats.FlushCount, int64(1))
}

// TestCSVWriter_ColumnOrder tests explicit column ordering and missing cells.
func TestCSVWriter_ColumnOrder(t *testing.T) {
	ctx := context.Background()
	mock := newMockCSVWriteCloser()

	writer, err := NewCSVWriter(mock, WithCSVColumns([]string{"b", "a"}))
	require.NoError(t, err)

	require.NoError(t, writer.Write(ctx, core.Row{"a": "left", "b": "right"}))
	require.NoError(t, writer.Write(ctx, core.Row{"a": "only"}))
	require.NoError(t, writer.Close())

	lines := strings.Split(strings.TrimSpace(mock.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "b,a", lines[0])
	assert.Equal(t, "right,left", lines[1])
	assert.Equal(t, ",only", lines[2])
}

// TestCSVWriter_Options tests delimiter, header, and line ending options.
func TestCSVWriter_Options(t *testing.T) {
	ctx := context.Background()

	t.Run("custom_delimiter", func(t *testing.T) {
		mock := newMockCSVWriteCloser()
		writer, err := NewCSVWriter(mock, WithCSVComma('\t'))
		require.NoError(t, err)

		require.NoError(t, writer.Write(ctx, core.Row{"x": int64(1), "y": int64(2)}))
		require.NoError(t, writer.Close())

		lines := strings.Split(strings.TrimSpace(mock.String()), "\n")
		require.Len(t, lines, 2)
		assert.Equal(t, "x\ty", lines[0])
		assert.Equal(t, "1\t2", lines[1])
	})

	t.Run("no_header", func(t *testing.T) {
		mock := newMockCSVWriteCloser()
		writer, err := NewCSVWriter(mock, WithCSVWriteHeader(false))
		require.NoError(t, err)

		require.NoError(t, writer.Write(ctx, core.Row{"x": int64(1)}))
		require.NoError(t, writer.Close())

		assert.Equal(t, "1\n", mock.String())
	})

	t.Run("crlf", func(t *testing.T) {
		mock := newMockCSVWriteCloser()
		writer, err := NewCSVWriter(mock, WithCSVUseCRLF(true), WithCSVWriteHeader(false))
		require.NoError(t, err)

		require.NoError(t, writer.Write(ctx, core.Row{"x": "a"}))
		require.NoError(t, writer.Close())

		assert.Equal(t, "a\r\n", mock.String())
	})
}

// TestCSVWriter_Batching tests that rows stay buffered until the batch fills.
func TestCSVWriter_Batching(t *testing.T) {
	ctx := context.Background()
	mock := newMockCSVWriteCloser()

	writer, err := NewCSVWriter(mock, WithCSVBatchSize(2))
	require.NoError(t, err)

	require.NoError(t, writer.Write(ctx, core.Row{"n": int64(1)}))
	assert.Empty(t, mock.String(), "nothing should reach the destination before the batch fills")

	require.NoError(t, writer.Write(ctx, core.Row{"n": int64(2)}))
	lines := strings.Split(strings.TrimSpace(mock.String()), "\n")
	assert.Len(t, lines, 3)

	stats := writer.Stats()
	assert.Equal(t, int64(1), stats.FlushCount)
	assert.Equal(t, int64(2), stats.RecordsWritten)

	require.NoError(t, writer.Close())
}

// TestCSVWriter_CellFormatting tests per-type cell rendering.
func TestCSVWriter_CellFormatting(t *testing.T) {
	ctx := context.Background()
	mock := newMockCSVWriteCloser()

	writer, err := NewCSVWriter(mock, WithCSVColumns([]string{
		"b", "f32", "f64", "i", "bytes", "ts", "missing", "null",
	}))
	require.NoError(t, err)

	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	require.NoError(t, writer.Write(ctx, core.Row{
		"b":     true,
		"f32":   float32(0.25),
		"f64":   2.5,
		"i":     int64(42),
		"bytes": []byte("raw"),
		"ts":    ts,
		"null":  nil,
	}))
	require.NoError(t, writer.Close())

	lines := strings.Split(strings.TrimSpace(mock.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "true,0.25,2.5,42,raw,2024-01-02T03:04:05Z,,", lines[1])

	stats := writer.Stats()
	assert.Equal(t, int64(1), stats.NullValueCounts["null"])
}

// TestCSVWriter_ErrorState tests that a failed flush latches the writer.
func TestCSVWriter_ErrorState(t *testing.T) {
	ctx := context.Background()
	mock := newMockCSVWriteCloser()
	mock.failWrite = true

	writer, err := NewCSVWriter(mock, WithCSVBatchSize(1))
	require.NoError(t, err)

	err = writer.Write(ctx, core.Row{"x": int64(1)})
	require.Error(t, err)
	var werr *CSVWriterError
	require.ErrorAs(t, err, &werr)
	assert.Equal(t, "flush_batch", werr.Op)

	err = writer.Write(ctx, core.Row{"x": int64(2)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error state")
}

// TestCSVWriter_CloseError tests that close failures surface.
func TestCSVWriter_CloseError(t *testing.T) {
	ctx := context.Background()
	mock := newMockCSVWriteCloser()
	mock.failClose = true

	writer, err := NewCSVWriter(mock)
	require.NoError(t, err)
	require.NoError(t, writer.Write(ctx, core.Row{"x": int64(1)}))

	err = writer.Close()
	require.Error(t, err)
	assert.ErrorIs(t, err, io.ErrClosedPipe)
}

// BenchmarkCSVWriter_Write benchmarks throughput with batching enabled.
func BenchmarkCSVWriter_Write(b *testing.B) {
	ctx := context.Background()
	mock := newMockCSVWriteCloser()
	writer, err := NewCSVWriter(mock, WithCSVBatchSize(1000))
	if err != nil {
		b.Fatal(err)
	}

	row := core.Row{"id": int64(7), "name": "bench", "score": 0.99}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := writer.Write(ctx, row); err != nil {
			b.Fatal(err)
		}
	}
	writer.Close()
}
