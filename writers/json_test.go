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
	"encoding/json"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aaronlmathis/godataset/core"
)

// Mock destination for JSON lines testing
type mockWriteCloser struct {
	*strings.Builder
	closed    bool
	failWrite bool
	failClose bool
	mu        sync.Mutex
}

func (m *mockWriteCloser) Write(p []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWrite {
		return 0, io.ErrUnexpectedEOF
	}
	return m.Builder.Write(p)
}

func (m *mockWriteCloser) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	if m.failClose {
		return io.ErrUnexpectedEOF
	}
	return nil
}

func (m *mockWriteCloser) IsClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

func newMockWriteCloser() *mockWriteCloser {
	return &mockWriteCloser{Builder: &strings.Builder{}}
}

// TestJSONLinesWriter_BasicWrite tests writing rows as one JSON object per line.
func TestJSONLinesWriter_BasicWrite(t *testing.T) {
	ctx := context.Background()
	mock := newMockWriteCloser()

	writer := NewJSONLinesWriter(mock)
	require.NoError(t, writer.Write(ctx, core.Row{"name": "ada", "score": 0.5}))
	require.NoError(t, writer.Write(ctx, core.Row{"name": "grace", "score": 0.75}))
	require.NoError(t, writer.Close())

	assert.Equal(t, int64(2), writer.RowsWritten())
	assert.True(t, mock.IsClosed())

	out := mock.String()
	assert.True(t, strings.HasSuffix(out, "\n"), "output should end with a newline")

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)

	var first map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	assert.Equal(t, "ada", first["name"])
	assert.Equal(t, 0.5, first["score"])

	var second map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &second))
	assert.Equal(t, "grace", second["name"])
}

// TestJSONLinesWriter_NullAndNested tests null cells and nested values.
func TestJSONLinesWriter_NullAndNested(t *testing.T) {
	ctx := context.Background()
	mock := newMockWriteCloser()

	writer := NewJSONLinesWriter(mock)
	require.NoError(t, writer.Write(ctx, core.Row{
		"label":  nil,
		"tokens": []any{"a", "b"},
	}))
	require.NoError(t, writer.Close())

	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(mock.String())), &decoded))
	assert.Nil(t, decoded["label"])
	assert.Equal(t, []any{"a", "b"}, decoded["tokens"])
}

// TestJSONLinesWriter_WriteError tests that destination failures surface.
func TestJSONLinesWriter_WriteError(t *testing.T) {
	ctx := context.Background()
	mock := newMockWriteCloser()
	mock.failWrite = true

	writer := NewJSONLinesWriter(mock)
	err := writer.Write(ctx, core.Row{"x": int64(1)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "json lines writer")
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
	assert.Equal(t, int64(0), writer.RowsWritten())
}

// TestJSONLinesWriter_MarshalError tests that unmarshalable cells surface.
func TestJSONLinesWriter_MarshalError(t *testing.T) {
	ctx := context.Background()
	mock := newMockWriteCloser()

	writer := NewJSONLinesWriter(mock)
	err := writer.Write(ctx, core.Row{"fn": func() {}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "marshal")
}

// TestJSONLinesWriter_CloseError tests close failure propagation.
func TestJSONLinesWriter_CloseError(t *testing.T) {
	mock := newMockWriteCloser()
	mock.failClose = true

	writer := NewJSONLinesWriter(mock)
	err := writer.Close()
	require.Error(t, err)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

// BenchmarkJSONLinesWriter_Write benchmarks serialization throughput.
func BenchmarkJSONLinesWriter_Write(b *testing.B) {
	ctx := context.Background()
	mock := newMockWriteCloser()
	writer := NewJSONLinesWriter(mock)

	row := core.Row{"id": int64(7), "name": "bench", "score": 0.99}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := writer.Write(ctx, row); err != nil {
			b.Fatal(err)
		}
	}
	writer.Close()
}
