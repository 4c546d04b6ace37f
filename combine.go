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
	"fmt"

	"github.com/aaronlmathis/godataset/core"
	"github.com/aaronlmathis/godataset/ops"
	"github.com/aaronlmathis/godataset/validators"
	"github.com/aaronlmathis/godataset/vocab"
)

// Concat chains this dataset with the others: all of this dataset's rows,
// then each other dataset's rows in order. Every input must produce the same
// column set, checked at build time once schemas are known.
func (d *Dataset) Concat(others ...*Dataset) *Dataset {
	return Concat(append([]*Dataset{d}, others...)...)
}

// Concat chains two or more datasets sequentially; see Dataset.Concat.
func Concat(datasets ...*Dataset) *Dataset {
	return newNode(&concatSpec{}, datasets...)
}

type concatSpec struct{}

func (s *concatSpec) Kind() string     { return "ConcatNode" }
func (s *concatSpec) Class() NodeClass { return ClassCombinator }

func (s *concatSpec) ValidateParams() error {
	return nil
}

func (s *concatSpec) OutputColumns(inputs [][]string) []string {
	return inputs[0]
}

func (s *concatSpec) Build(ctx context.Context, node *Dataset, inputs []ops.Operator) ([]ops.Operator, error) {
	// Inputs with unknown columns are exempt; every declared pair must agree.
	var refCols []string
	var refName string
	for _, in := range inputs {
		cols := in.Columns()
		if cols == nil {
			continue
		}
		if refCols == nil {
			refCols, refName = cols, in.Name()
			continue
		}
		if err := s.sameColumnSet(refName, refCols, in.Name(), cols); err != nil {
			return nil, err
		}
	}
	return []ops.Operator{
		ops.NewConcatOp("concat", node.Tuning(), inputs...),
	}, nil
}

// sameColumnSet checks two declared column sets for equality by name,
// ignoring order.
func (s *concatSpec) sameColumnSet(refName string, refCols []string, name string, cols []string) error {
	refSet := make(map[string]bool, len(refCols))
	for _, c := range refCols {
		refSet[c] = true
	}
	set := make(map[string]bool, len(cols))
	for _, c := range cols {
		set[c] = true
		if !refSet[c] {
			return &core.BuildError{Node: s.Kind(), Op: "resolve_schema", Err: &core.SchemaMismatchError{
				Column: c,
				Reason: fmt.Sprintf("produced by %s but not by %s", name, refName),
			}}
		}
	}
	for _, c := range refCols {
		if !set[c] {
			return &core.BuildError{Node: s.Kind(), Op: "resolve_schema", Err: &core.SchemaMismatchError{
				Column: c,
				Reason: fmt.Sprintf("produced by %s but not by %s", refName, name),
			}}
		}
	}
	return nil
}

// Zip pairs one row from this dataset with one row from each other dataset
// per step, merging their columns into a single row; the stream ends at the
// shortest input. Inputs must expose disjoint column sets: collisions among
// declared columns fail validation, and build re-checks the resolved sets.
func (d *Dataset) Zip(others ...*Dataset) *Dataset {
	return Zip(append([]*Dataset{d}, others...)...)
}

// Zip pairs rows across two or more datasets; see Dataset.Zip.
func Zip(datasets ...*Dataset) *Dataset {
	declared := make([][]string, len(datasets))
	for i, ds := range datasets {
		if ds != nil {
			declared[i] = ds.OutputColumns()
		}
	}
	return newNode(&zipSpec{declared: declared}, datasets...)
}

type zipSpec struct {
	// declared snapshots each input's declared columns at attach time, so
	// collisions among known names are caught before any build I/O.
	declared [][]string
}

func (s *zipSpec) Kind() string     { return "ZipNode" }
func (s *zipSpec) Class() NodeClass { return ClassCombinator }

func (s *zipSpec) ValidateParams() error {
	seen := make(map[string]bool)
	for _, cols := range s.declared {
		for _, c := range cols {
			if seen[c] {
				return core.Validationf(s.Kind(), "column_names", "column %q appears in more than one input", c)
			}
			seen[c] = true
		}
	}
	return nil
}

func (s *zipSpec) OutputColumns(inputs [][]string) []string {
	var merged []string
	for _, cols := range inputs {
		if cols == nil {
			return nil
		}
		merged = append(merged, cols...)
	}
	return merged
}

func (s *zipSpec) Build(ctx context.Context, node *Dataset, inputs []ops.Operator) ([]ops.Operator, error) {
	seen := make(map[string]string, 8)
	for _, in := range inputs {
		for _, c := range in.Columns() {
			if prev, dup := seen[c]; dup {
				return nil, &core.BuildError{Node: s.Kind(), Op: "resolve_schema", Err: &core.SchemaMismatchError{
					Column: c,
					Reason: fmt.Sprintf("produced by both %s and %s", prev, in.Name()),
				}}
			}
			seen[c] = in.Name()
		}
	}
	return []ops.Operator{
		ops.NewZipOp("zip", node.Tuning(), inputs...),
	}, nil
}

// vocabOptions collects the options of BuildVocab.
type vocabOptions struct {
	freqMin       int64
	freqMax       int64
	topK          int64
	specialTokens []string
	specialFirst  bool
}

// VocabOption configures BuildVocab.
type VocabOption func(*vocabOptions)

// WithFreqRange keeps only tokens whose frequency lies in [min, max]. A max
// of 0 leaves the upper bound open.
func WithFreqRange(min, max int64) VocabOption {
	return func(o *vocabOptions) {
		o.freqMin = min
		o.freqMax = max
	}
}

// WithTopK caps the vocabulary at the k most frequent tokens, ties broken
// lexically. Zero keeps every surviving token.
func WithTopK(k int64) VocabOption {
	return func(o *vocabOptions) { o.topK = k }
}

// WithSpecialTokens reserves ids for the given tokens, such as "<pad>" and
// "<unk>".
func WithSpecialTokens(tokens ...string) VocabOption {
	return func(o *vocabOptions) { o.specialTokens = tokens }
}

// WithSpecialFirst places the special tokens before the corpus tokens
// (true, the default) or after them (false).
func WithSpecialFirst(first bool) VocabOption {
	return func(o *vocabOptions) { o.specialFirst = first }
}

// BuildVocab declares a terminal stage that drains the upstream rows,
// tallies tokens from the named text columns, and fills target with the
// frequency-windowed vocabulary. Tokens are ordered by descending frequency,
// ties lexical. The stage produces no rows; iterate it once (or hand it to a
// vocabulary-building helper) before using target in a Lookup transform.
func (d *Dataset) BuildVocab(target *vocab.Vocab, columns []string, opts ...VocabOption) *Dataset {
	cfg := vocabOptions{specialFirst: true}
	for _, opt := range opts {
		opt(&cfg)
	}
	return newNode(&buildVocabSpec{
		target:        target,
		columns:       columns,
		freqMin:       cfg.freqMin,
		freqMax:       cfg.freqMax,
		topK:          cfg.topK,
		specialTokens: cfg.specialTokens,
		specialFirst:  cfg.specialFirst,
	}, d)
}

type buildVocabSpec struct {
	target        *vocab.Vocab
	columns       []string
	freqMin       int64
	freqMax       int64
	topK          int64
	specialTokens []string
	specialFirst  bool
}

func (s *buildVocabSpec) Kind() string     { return "BuildVocabNode" }
func (s *buildVocabSpec) Class() NodeClass { return ClassTransform }

func (s *buildVocabSpec) ValidateParams() error {
	kind := s.Kind()
	if s.target == nil {
		return core.Validationf(kind, "vocab", "a target vocabulary is required")
	}
	if err := validators.UniqueNonEmpty(kind, "columns", s.columns); err != nil {
		return err
	}
	if err := validators.NonNegative(kind, "freq_min", s.freqMin); err != nil {
		return err
	}
	if s.freqMax != 0 && s.freqMax < s.freqMin {
		return core.Validationf(kind, "freq_range", "max %d is below min %d", s.freqMax, s.freqMin)
	}
	if err := validators.NonNegative(kind, "top_k", s.topK); err != nil {
		return err
	}
	return validators.UniqueNonEmptyAllowed(kind, "special_tokens", s.specialTokens)
}

func (s *buildVocabSpec) OutputColumns(inputs [][]string) []string {
	return nil
}

func (s *buildVocabSpec) Build(ctx context.Context, node *Dataset, inputs []ops.Operator) ([]ops.Operator, error) {
	return []ops.Operator{
		ops.NewBuildVocabOp("build_vocab", node.Tuning(), inputs[0], s.target, s.columns, vocab.BuildOptions{
			FreqMin:       s.freqMin,
			FreqMax:       s.freqMax,
			TopK:          s.topK,
			SpecialTokens: s.specialTokens,
			SpecialFirst:  s.specialFirst,
		}),
	}, nil
}
