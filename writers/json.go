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
	"fmt"
	"io"

	"github.com/aaronlmathis/godataset/core"
)

// JSONLinesWriter writes rows as line-delimited JSON objects. Byte-slice
// cells marshal to base64 strings, following encoding/json.
type JSONLinesWriter struct {
	writer io.Writer
	closer io.Closer
	rows   int64
}

// NewJSONLinesWriter creates a writer for line-delimited JSON output.
func NewJSONLinesWriter(w io.WriteCloser) *JSONLinesWriter {
	return &JSONLinesWriter{
		writer: w,
		closer: w,
	}
}

// Write implements the RowWriter interface.
func (j *JSONLinesWriter) Write(ctx context.Context, row core.Row) error {
	data, err := json.Marshal(row)
	if err != nil {
		return fmt.Errorf("json lines writer: marshal: %w", err)
	}

	if _, err := j.writer.Write(data); err != nil {
		return fmt.Errorf("json lines writer: %w", err)
	}

	if _, err := j.writer.Write([]byte("\n")); err != nil {
		return fmt.Errorf("json lines writer: %w", err)
	}

	j.rows++
	return nil
}

// Flush implements the RowWriter interface.
func (j *JSONLinesWriter) Flush() error {
	if flusher, ok := j.writer.(interface{ Flush() error }); ok {
		return flusher.Flush()
	}
	return nil
}

// Close implements the RowWriter interface.
func (j *JSONLinesWriter) Close() error {
	if j.closer != nil {
		return j.closer.Close()
	}
	return nil
}

// RowsWritten returns the number of rows written so far.
func (j *JSONLinesWriter) RowsWritten() int64 {
	return j.rows
}
