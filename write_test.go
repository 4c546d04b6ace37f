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

package godataset

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aaronlmathis/godataset/core"
	"github.com/aaronlmathis/godataset/writers"
)

// TestWriteTo_CSV tests streaming a filtered pipeline into a CSV writer
func TestWriteTo_CSV(t *testing.T) {
	dir := t.TempDir()
	src := writeFile(t, dir, "rows.csv", "id,name\n1,ada\n2,grace\n3,linus\n")

	out := filepath.Join(dir, "out.csv")
	file, err := os.Create(out)
	require.NoError(t, err)
	w, err := writers.NewCSVWriter(file, writers.WithCSVColumns([]string{"id", "name"}))
	require.NoError(t, err)

	d := CSV([]string{src}, WithShuffle(core.ShuffleNone)).
		Filter(func(ctx context.Context, row core.Row) (bool, error) {
			return row["id"].(int64) != 2, nil
		})

	n, err := d.WriteTo(context.Background(), w)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	require.NoError(t, w.Close())

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "id,name\n1,ada\n3,linus\n", string(data))
}

// TestWriteTo_ValidationError tests that tree validation failures surface
// before any row is written
func TestWriteTo_ValidationError(t *testing.T) {
	mock := nopRowWriter{}
	_, err := CSV(nil).WriteTo(context.Background(), mock)
	require.Error(t, err)

	var verr *core.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "CSVNode", verr.Node)
}

// nopRowWriter discards rows.
type nopRowWriter struct{}

func (nopRowWriter) Write(context.Context, core.Row) error { return nil }
func (nopRowWriter) Flush() error                          { return nil }
func (nopRowWriter) Close() error                          { return nil }

// TestSaveFile_JSONLines tests extension-inferred export
func TestSaveFile_JSONLines(t *testing.T) {
	dir := t.TempDir()
	src := writeFile(t, dir, "rows.csv", "id\n1\n2\n")

	out := filepath.Join(dir, "rows.jsonl")
	n, err := CSV([]string{src}, WithShuffle(core.ShuffleNone)).
		SaveFile(context.Background(), out)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.JSONEq(t, `{"id": 1}`, lines[0])
	assert.JSONEq(t, `{"id": 2}`, lines[1])
}

// TestSaveFile_UnknownExtension tests format inference failure
func TestSaveFile_UnknownExtension(t *testing.T) {
	dir := t.TempDir()
	src := writeFile(t, dir, "rows.csv", "id\n1\n")

	_, err := CSV([]string{src}).SaveFile(context.Background(), filepath.Join(dir, "rows.xyz"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot infer")
}

// TestSave_ParquetRoundTrip tests exporting to parquet and reading the file
// back through a parquet source node
func TestSave_ParquetRoundTrip(t *testing.T) {
	dir := t.TempDir()
	src := writeFile(t, dir, "rows.csv", "id,score\n1,0.5\n2,0.75\n3,1.25\n")

	out := filepath.Join(dir, "rows.parquet")
	n, err := CSV([]string{src}, WithShuffle(core.ShuffleNone)).
		Save(context.Background(), writers.FileLocation{Path: out}, writers.FormatParquet)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	rows := drainDataset(t, Parquet([]string{out}, WithShuffle(core.ShuffleNone)))
	require.Len(t, rows, 3)
	assert.Equal(t, []any{int64(1), int64(2), int64(3)}, column(rows, "id"))
	assert.Equal(t, []any{0.5, 0.75, 1.25}, column(rows, "score"))
}
