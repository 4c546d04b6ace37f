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

package ops

import (
	"context"
	"fmt"
	"io"

	"github.com/aaronlmathis/godataset/core"
	"github.com/aaronlmathis/godataset/vocab"
)

// BuildVocabOp is a terminal consumer: the first Next drains the whole
// upstream, tallies tokens from the named text columns, fills the
// caller-supplied Vocab, and reports end of stream. It produces no rows.
type BuildVocabOp struct {
	Base
	target  *vocab.Vocab
	columns []string
	opts    vocab.BuildOptions
	done    bool
}

// NewBuildVocabOp wraps input with a vocabulary builder over the named
// columns. A string value counts as one token; a []any value contributes
// each of its string elements.
func NewBuildVocabOp(name string, tuning Tuning, input Operator, target *vocab.Vocab,
	columns []string, opts vocab.BuildOptions) *BuildVocabOp {

	return &BuildVocabOp{
		Base:    NewBase(name, nil, tuning, input),
		target:  target,
		columns: columns,
		opts:    opts,
	}
}

func (b *BuildVocabOp) Next(ctx context.Context) (core.Row, error) {
	if b.done {
		return nil, io.EOF
	}

	builder := vocab.NewBuilder()
	for {
		row, err := b.inputs[0].Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		for _, col := range b.columns {
			v, ok := row[col]
			if !ok {
				return nil, core.Buildf(b.Name(), "vocab", "column %q not present in row", col)
			}
			if err := addTokens(builder, col, v); err != nil {
				return nil, &core.BuildError{Node: b.Name(), Op: "vocab", Err: err}
			}
		}
	}

	tokens, err := builder.Tokens(b.opts)
	if err != nil {
		return nil, &core.BuildError{Node: b.Name(), Op: "vocab", Err: err}
	}
	if err := b.target.Assign(tokens); err != nil {
		return nil, &core.BuildError{Node: b.Name(), Op: "vocab", Err: err}
	}

	b.done = true
	return nil, io.EOF
}

// addTokens feeds one column value into the frequency builder.
func addTokens(builder *vocab.Builder, col string, v any) error {
	switch t := v.(type) {
	case string:
		builder.Add(t)
	case []any:
		for _, elem := range t {
			s, ok := elem.(string)
			if !ok {
				return fmt.Errorf("column %q holds a %T element, not text", col, elem)
			}
			builder.Add(s)
		}
	default:
		return fmt.Errorf("column %q holds %T, not text", col, v)
	}
	return nil
}

func (b *BuildVocabOp) Reset(ctx context.Context) error {
	if err := b.resetInputs(ctx); err != nil {
		return err
	}
	b.done = false
	return nil
}

func (b *BuildVocabOp) Close() error {
	return nil
}
