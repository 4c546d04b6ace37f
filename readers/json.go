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
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/aaronlmathis/godataset/core"
)

// JSONLinesReader reads line-delimited JSON objects as rows. Blank lines are
// skipped. Column names are whatever keys the objects carry.
type JSONLinesReader struct {
	scanner *bufio.Scanner
	closer  io.Closer
	line    int64
}

// NewJSONLinesReader creates a reader for line-delimited JSON.
func NewJSONLinesReader(r io.ReadCloser) *JSONLinesReader {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)
	return &JSONLinesReader{
		scanner: scanner,
		closer:  r,
	}
}

// Next implements the RowReader interface.
func (j *JSONLinesReader) Next(ctx context.Context) (core.Row, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	for j.scanner.Scan() {
		j.line++
		text := j.scanner.Text()
		if len(text) == 0 {
			continue
		}

		var row core.Row
		if err := json.Unmarshal([]byte(text), &row); err != nil {
			return nil, fmt.Errorf("json lines reader: line %d: %w", j.line, err)
		}
		return row, nil
	}
	if err := j.scanner.Err(); err != nil {
		return nil, fmt.Errorf("json lines reader: %w", err)
	}
	return nil, io.EOF
}

// Columns implements the RowReader interface. JSON objects carry their own
// keys, so no column set is known up front.
func (j *JSONLinesReader) Columns() []string {
	return nil
}

// Close implements the RowReader interface.
func (j *JSONLinesReader) Close() error {
	if j.closer != nil {
		return j.closer.Close()
	}
	return nil
}
