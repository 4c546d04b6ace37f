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
	"io"

	"github.com/aaronlmathis/godataset/writers"
)

// WriteTo materializes the tree rooted at this node and streams every row of
// the terminal stage into w. The writer is flushed but not closed; the
// caller owns it. Returns the number of rows written. Validation and build
// failures are returned unchanged from Materialize.
//
// Batched rows carry multi-element cells, which CSV and Parquet writers
// reject; export unbatched pipelines or use the JSON lines writer for those.
func (d *Dataset) WriteTo(ctx context.Context, w writers.RowWriter, opts ...MaterializeOption) (int64, error) {
	it, err := d.CreateIterator(ctx, opts...)
	if err != nil {
		return 0, err
	}
	defer it.Close()

	var written int64
	for {
		row, err := it.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			return written, err
		}
		if err := w.Write(ctx, row); err != nil {
			return written, err
		}
		written++
	}

	if err := w.Flush(); err != nil {
		return written, err
	}
	return written, nil
}

// Save materializes the dataset into a location using the given format. The
// writer opened from the location is closed before returning, so footers are
// finalized and staged uploads complete. Returns the number of rows written.
func (d *Dataset) Save(ctx context.Context, loc writers.Location, format writers.OutputFormat, opts ...MaterializeOption) (int64, error) {
	w, err := loc.Open(ctx, format)
	if err != nil {
		return 0, err
	}

	written, writeErr := d.WriteTo(ctx, w, opts...)
	closeErr := w.Close()
	if writeErr != nil {
		return written, writeErr
	}
	if closeErr != nil {
		return written, closeErr
	}
	return written, nil
}

// SaveFile writes the dataset to a local path, inferring the format from the
// file extension.
func (d *Dataset) SaveFile(ctx context.Context, path string, opts ...MaterializeOption) (int64, error) {
	format, err := writers.FormatForPath(path)
	if err != nil {
		return 0, err
	}
	return d.Save(ctx, writers.FileLocation{Path: path}, format, opts...)
}
