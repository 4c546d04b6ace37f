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

package readers

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestTextReader_Lines tests line-by-line reading into the text column
func TestTextReader_Lines(t *testing.T) {
	reader := NewTextReader(io.NopCloser(strings.NewReader("hello\nworld\n")))
	defer reader.Close()

	assert.Equal(t, []string{TextColumn}, reader.Columns())

	ctx := context.Background()
	row, err := reader.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, "hello", row[TextColumn])

	row, err = reader.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, "world", row[TextColumn])

	_, err = reader.Next(ctx)
	assert.Equal(t, io.EOF, err)
	assert.Equal(t, int64(2), reader.LinesRead())
}

// TestTextReader_EmptyLines tests that blank lines are kept as rows
func TestTextReader_EmptyLines(t *testing.T) {
	reader := NewTextReader(io.NopCloser(strings.NewReader("a\n\nb\n")))
	defer reader.Close()

	ctx := context.Background()
	lines := []string{}
	for {
		row, err := reader.Next(ctx)
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		lines = append(lines, row[TextColumn].(string))
	}
	assert.Equal(t, []string{"a", "", "b"}, lines)
}

// TestTextReader_NoTrailingNewline tests the final unterminated line
func TestTextReader_NoTrailingNewline(t *testing.T) {
	reader := NewTextReader(io.NopCloser(strings.NewReader("last line")))
	defer reader.Close()

	row, err := reader.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "last line", row[TextColumn])

	_, err = reader.Next(context.Background())
	assert.Equal(t, io.EOF, err)
}

// TestTextReader_ContextCancellation tests early exit on cancelled context
func TestTextReader_ContextCancellation(t *testing.T) {
	reader := NewTextReader(io.NopCloser(strings.NewReader("a\nb\n")))
	defer reader.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := reader.Next(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
