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
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/apache/arrow/go/v12/arrow"
	"github.com/apache/arrow/go/v12/arrow/array"
	"github.com/apache/arrow/go/v12/arrow/memory"
	"github.com/apache/arrow/go/v12/parquet"
	"github.com/apache/arrow/go/v12/parquet/pqarrow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aaronlmathis/godataset/core"
)

func writeParquetFixture(t *testing.T, rows int) string {
	t.Helper()

	sch := arrow.NewSchema([]arrow.Field{
		{Name: "id", Type: arrow.PrimitiveTypes.Int64, Nullable: true},
		{Name: "name", Type: arrow.BinaryTypes.String, Nullable: true},
		{Name: "score", Type: arrow.PrimitiveTypes.Float64, Nullable: true},
	}, nil)

	builder := array.NewRecordBuilder(memory.NewGoAllocator(), sch)
	defer builder.Release()
	for i := 0; i < rows; i++ {
		builder.Field(0).(*array.Int64Builder).Append(int64(i))
		builder.Field(1).(*array.StringBuilder).Append(fmt.Sprintf("row-%d", i))
		builder.Field(2).(*array.Float64Builder).Append(float64(i) / 2)
	}
	record := builder.NewRecord()
	defer record.Release()

	path := filepath.Join(t.TempDir(), "fixture.parquet")
	file, err := os.Create(path)
	require.NoError(t, err)

	writer, err := pqarrow.NewFileWriter(sch, file, parquet.NewWriterProperties(), pqarrow.DefaultWriterProps())
	require.NoError(t, err)
	require.NoError(t, writer.Write(record))
	require.NoError(t, writer.Close())

	return path
}

// TestParquetReader_RoundTrip tests reading typed rows back from a file
func TestParquetReader_RoundTrip(t *testing.T) {
	path := writeParquetFixture(t, 5)

	reader, err := NewParquetReader(path)
	require.NoError(t, err)
	defer reader.Close()

	assert.Equal(t, []string{"id", "name", "score"}, reader.Columns())
	assert.Equal(t, int64(5), reader.NumRows())

	types := reader.ColumnTypes()
	assert.Equal(t, core.TypeInt64, types["id"])
	assert.Equal(t, core.TypeString, types["name"])
	assert.Equal(t, core.TypeFloat64, types["score"])

	ctx := context.Background()
	count := 0
	for {
		row, err := reader.Next(ctx)
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		assert.Equal(t, int64(count), row["id"])
		assert.Equal(t, fmt.Sprintf("row-%d", count), row["name"])
		assert.Equal(t, float64(count)/2, row["score"])
		count++
	}
	assert.Equal(t, 5, count)
	assert.Equal(t, int64(5), reader.Stats().RecordsRead)
}

// TestParquetReader_ColumnProjection tests reading a subset of columns
func TestParquetReader_ColumnProjection(t *testing.T) {
	path := writeParquetFixture(t, 3)

	reader, err := NewParquetReader(path, WithColumnProjection("name"))
	require.NoError(t, err)
	defer reader.Close()

	assert.Equal(t, []string{"name"}, reader.Columns())

	row, err := reader.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "row-0", row["name"])
	_, hasID := row["id"]
	assert.False(t, hasID)
}

// TestParquetReader_MissingColumn tests projection onto an absent column
func TestParquetReader_MissingColumn(t *testing.T) {
	path := writeParquetFixture(t, 1)

	_, err := NewParquetReader(path, WithColumnProjection("ghost"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ghost")
}

// TestParquetReader_SmallBatches tests batch boundaries smaller than the file
func TestParquetReader_SmallBatches(t *testing.T) {
	path := writeParquetFixture(t, 10)

	reader, err := NewParquetReader(path, WithBatchSize(3))
	require.NoError(t, err)
	defer reader.Close()

	ctx := context.Background()
	count := 0
	for {
		_, err := reader.Next(ctx)
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		count++
	}
	assert.Equal(t, 10, count)
}

// TestParquetReader_MissingFile tests the open error path
func TestParquetReader_MissingFile(t *testing.T) {
	_, err := NewParquetReader(filepath.Join(t.TempDir(), "absent.parquet"))
	require.Error(t, err)

	var perr *ParquetReaderError
	assert.ErrorAs(t, err, &perr)
}
