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

	"github.com/aaronlmathis/godataset/core"
)

// Package writers exports materialized dataset rows to external stores.
// Each format (CSV, JSON lines, Parquet, PostgreSQL) implements RowWriter;
// Location values bind a writer to a destination such as a local file or an
// S3 object.

// RowWriter receives rows one at a time from a drained pipeline.
type RowWriter interface {
	// Write appends one row. Implementations may buffer internally.
	Write(ctx context.Context, row core.Row) error
	// Flush forces buffered rows out to the destination.
	Flush() error
	// Close flushes remaining rows and releases the destination.
	Close() error
}
