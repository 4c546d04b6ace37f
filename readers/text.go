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
	"fmt"
	"io"

	"github.com/aaronlmathis/godataset/core"
)

// TextColumn is the single column name text readers emit.
const TextColumn = "text"

// maxLineBytes bounds a single text line.
const maxLineBytes = 1 << 20

// TextReaderError wraps structured error information for the text reader.
type TextReaderError struct {
	Op  string
	Err error
}

func (e *TextReaderError) Error() string {
	return fmt.Sprintf("text reader %s: %v", e.Op, e.Err)
}

func (e *TextReaderError) Unwrap() error {
	return e.Err
}

// TextReader reads one plain-text file as a row stream, one line per row
// under the "text" column. Line terminators are stripped.
type TextReader struct {
	scanner *bufio.Scanner
	closer  io.Closer
	lines   int64
}

// NewTextReader creates a TextReader over the given stream.
func NewTextReader(r io.ReadCloser) *TextReader {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)
	return &TextReader{scanner: scanner, closer: r}
}

// Next implements the RowReader interface.
func (t *TextReader) Next(ctx context.Context) (core.Row, error) {
	select {
	case <-ctx.Done():
		return nil, &TextReaderError{Op: "read", Err: ctx.Err()}
	default:
	}

	if !t.scanner.Scan() {
		if err := t.scanner.Err(); err != nil {
			return nil, &TextReaderError{Op: "scan", Err: err}
		}
		return nil, io.EOF
	}

	t.lines++
	return core.Row{TextColumn: t.scanner.Text()}, nil
}

// Columns implements the RowReader interface.
func (t *TextReader) Columns() []string {
	return []string{TextColumn}
}

// Close implements the RowReader interface.
func (t *TextReader) Close() error {
	if t.closer != nil {
		return t.closer.Close()
	}
	return nil
}

// LinesRead returns the number of lines consumed so far.
func (t *TextReader) LinesRead() int64 {
	return t.lines
}
