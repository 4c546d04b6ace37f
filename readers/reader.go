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
	"os"

	"github.com/aaronlmathis/godataset/core"
)

// Package readers provides the per-format row readers behind dataset source
// nodes. Stream formats (CSV, text, JSON lines, Parquet, database cursors)
// implement RowReader; fully enumerable formats (image folders, manifests,
// generated data) implement IndexedReader so samplers can drive access order.

// RowReader streams rows from a single location until io.EOF.
type RowReader interface {
	// Next returns the next row, or io.EOF when the location is drained.
	Next(ctx context.Context) (core.Row, error)
	// Columns returns the column names this reader produces, when known
	// up front. Readers over schemaless data may return nil.
	Columns() []string
	// Close releases the underlying resources.
	Close() error
}

// IndexedReader provides random access over a fully enumerated source.
type IndexedReader interface {
	// Len returns the total number of rows.
	Len() int64
	// At returns the row at the given index.
	At(ctx context.Context, index int64) (core.Row, error)
	// Columns returns the column names this reader produces.
	Columns() []string
	// Close releases the underlying resources.
	Close() error
}

// OpenFunc opens a RowReader for one location. Stream sources hold one
// OpenFunc per location so epochs can re-open from the start.
type OpenFunc func(ctx context.Context) (RowReader, error)

// CheckFiles verifies every path exists and is a regular file, naming the
// first offender.
func CheckFiles(paths ...string) error {
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return fmt.Errorf("readers: %w", err)
		}
		if info.IsDir() {
			return fmt.Errorf("readers: %s is a directory, want a file", p)
		}
	}
	return nil
}
