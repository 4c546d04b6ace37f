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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aaronlmathis/godataset/core"
	"github.com/aaronlmathis/godataset/transform"
	"github.com/aaronlmathis/godataset/vocab"
)

// TestConcat tests sequential chaining of inputs
func TestConcat(t *testing.T) {
	first := memorySource([]string{"v"}, seqRows("v", 3))
	second := memorySource([]string{"v"}, seqRows("v", 2))

	rows := drainDataset(t, first.Concat(second))
	assert.Equal(t, []any{int64(0), int64(1), int64(2), int64(0), int64(1)}, column(rows, "v"))
}

// TestConcat_ThreeWay tests the package-level constructor
func TestConcat_ThreeWay(t *testing.T) {
	d := Concat(
		memorySource([]string{"v"}, seqRows("v", 1)),
		memorySource([]string{"v"}, seqRows("v", 1)),
		memorySource([]string{"v"}, seqRows("v", 1)),
	)
	assert.Len(t, drainDataset(t, d), 3)
	assert.Equal(t, []string{"v"}, d.OutputColumns())
}

// TestConcat_SchemaMismatch tests inputs with different column sets
func TestConcat_SchemaMismatch(t *testing.T) {
	first := memorySource([]string{"a"}, seqRows("a", 2))
	second := memorySource([]string{"b"}, seqRows("b", 2))

	_, err := first.Concat(second).CreateIterator(context.Background())
	require.Error(t, err)

	var berr *core.BuildError
	require.ErrorAs(t, err, &berr)
	assert.Equal(t, "ConcatNode", berr.Node)
	assert.Equal(t, "resolve_schema", berr.Op)

	var merr *core.SchemaMismatchError
	require.ErrorAs(t, err, &merr)
	assert.Equal(t, "b", merr.Column)
}

// TestConcat_UnknownColumns tests that undeclared inputs skip the match check
func TestConcat_UnknownColumns(t *testing.T) {
	declared := memorySource([]string{"a"}, seqRows("a", 3))
	undeclared := memorySource(nil, seqRows("a", 2))

	rows := drainDataset(t, declared.Concat(undeclared))
	assert.Len(t, rows, 5)
}

// TestConcat_NeedsTwoInputs tests the combinator arity check
func TestConcat_NeedsTwoInputs(t *testing.T) {
	d := Concat(memorySource([]string{"v"}, nil))

	_, err := d.CreateIterator(context.Background())
	require.Error(t, err)

	var verr *core.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "ConcatNode", verr.Node)
	assert.Equal(t, "children", verr.Field)
}

// TestZip tests pairwise merging up to the shortest input
func TestZip(t *testing.T) {
	left := memorySource([]string{"a"}, seqRows("a", 4))
	right := memorySource([]string{"b"}, seqRows("b", 2))

	d := left.Zip(right)
	assert.Equal(t, []string{"a", "b"}, d.OutputColumns())

	rows := drainDataset(t, d)
	require.Len(t, rows, 2)
	assert.Equal(t, core.Row{"a": int64(0), "b": int64(0)}, rows[0])
	assert.Equal(t, core.Row{"a": int64(1), "b": int64(1)}, rows[1])
}

// TestZip_DeclaredCollision tests the attach-time column collision check
func TestZip_DeclaredCollision(t *testing.T) {
	left := memorySource([]string{"x"}, nil)
	right := memorySource([]string{"x"}, nil)

	err := left.Zip(right).ValidateParams()
	require.Error(t, err)

	var verr *core.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "ZipNode", verr.Node)
	assert.Equal(t, "column_names", verr.Field)
}

// TestZip_RuntimeCollision tests a collision only visible in the data
func TestZip_RuntimeCollision(t *testing.T) {
	left := memorySource(nil, seqRows("x", 2))
	right := memorySource(nil, seqRows("x", 2))

	err := drainError(t, left.Zip(right))
	var berr *core.BuildError
	require.ErrorAs(t, err, &berr)
	assert.Equal(t, "zip", berr.Node)
	assert.ErrorContains(t, err, `column "x" produced by more than one input`)
}

// corpusRows is a tiny token corpus: the=3, sat=2, cat=dog=end=1.
func corpusRows() []core.Row {
	return []core.Row{
		{"text": []any{"the", "cat", "sat"}},
		{"text": []any{"the", "dog", "sat"}},
		{"text": []any{"the", "end"}},
	}
}

// buildVocabFrom drains a vocabulary-building pipeline over the rows.
func buildVocabFrom(t *testing.T, rows []core.Row, opts ...VocabOption) *vocab.Vocab {
	t.Helper()
	v := vocab.New()
	d := memorySource([]string{"text"}, rows).BuildVocab(v, []string{"text"}, opts...)
	assert.Nil(t, d.OutputColumns())
	assert.Empty(t, drainDataset(t, d))
	return v
}

// TestBuildVocab tests frequency-ordered vocabulary construction
func TestBuildVocab(t *testing.T) {
	v := buildVocabFrom(t, corpusRows())
	assert.Equal(t, []string{"the", "sat", "cat", "dog", "end"}, v.Tokens())

	id, ok := v.TokenToID("the")
	require.True(t, ok)
	assert.Equal(t, int64(0), id)
}

// TestBuildVocab_Options tests the frequency window, top-k, and special tokens
func TestBuildVocab_Options(t *testing.T) {
	t.Run("freq_range", func(t *testing.T) {
		v := buildVocabFrom(t, corpusRows(), WithFreqRange(2, 0))
		assert.Equal(t, []string{"the", "sat"}, v.Tokens())
	})

	t.Run("freq_range_upper_bound", func(t *testing.T) {
		v := buildVocabFrom(t, corpusRows(), WithFreqRange(1, 1))
		assert.Equal(t, []string{"cat", "dog", "end"}, v.Tokens())
	})

	t.Run("top_k", func(t *testing.T) {
		v := buildVocabFrom(t, corpusRows(), WithTopK(2))
		assert.Equal(t, []string{"the", "sat"}, v.Tokens())
	})

	t.Run("special_tokens_first", func(t *testing.T) {
		v := buildVocabFrom(t, corpusRows(), WithSpecialTokens("<pad>", "<unk>"))
		assert.Equal(t, []string{"<pad>", "<unk>", "the", "sat", "cat", "dog", "end"}, v.Tokens())

		id, ok := v.TokenToID("<pad>")
		require.True(t, ok)
		assert.Equal(t, int64(0), id)
	})

	t.Run("special_tokens_last", func(t *testing.T) {
		v := buildVocabFrom(t, corpusRows(),
			WithSpecialTokens("<pad>"), WithSpecialFirst(false))
		assert.Equal(t, []string{"the", "sat", "cat", "dog", "end", "<pad>"}, v.Tokens())
	})
}

// TestBuildVocab_ScalarColumn tests tallying a plain string column
func TestBuildVocab_ScalarColumn(t *testing.T) {
	rows := []core.Row{
		{"label": "spam"},
		{"label": "ham"},
		{"label": "spam"},
	}
	v := vocab.New()
	d := memorySource([]string{"label"}, rows).BuildVocab(v, []string{"label"})
	assert.Empty(t, drainDataset(t, d))
	assert.Equal(t, []string{"spam", "ham"}, v.Tokens())
}

// TestBuildVocab_ThenLookup tests feeding the trained vocabulary to a lookup
func TestBuildVocab_ThenLookup(t *testing.T) {
	v := buildVocabFrom(t, corpusRows(), WithSpecialTokens("<unk>"))

	d := memorySource([]string{"text"}, []core.Row{
		{"text": []any{"the", "sat", "unseen"}},
	}).Map([]transform.Op{transform.Lookup(v, "<unk>")}, []string{"text"})

	rows := drainDataset(t, d)
	require.Len(t, rows, 1)

	unk, ok := v.TokenToID("<unk>")
	require.True(t, ok)
	the, _ := v.TokenToID("the")
	sat, _ := v.TokenToID("sat")
	assert.Equal(t, []any{the, sat, unk}, rows[0]["text"])
}

// TestBuildVocab_NonText tests a column that cannot be tallied
func TestBuildVocab_NonText(t *testing.T) {
	v := vocab.New()
	d := memorySource([]string{"n"}, seqRows("n", 2)).BuildVocab(v, []string{"n"})

	err := drainError(t, d)
	var berr *core.BuildError
	require.ErrorAs(t, err, &berr)
	assert.Equal(t, "build_vocab", berr.Node)
	assert.Equal(t, "vocab", berr.Op)
}

// TestBuildVocab_Validation tests parameter rejection
func TestBuildVocab_Validation(t *testing.T) {
	src := func() *Dataset { return memorySource([]string{"text"}, nil) }
	v := vocab.New()
	cases := []struct {
		name  string
		ds    *Dataset
		field string
	}{
		{"nil_target", src().BuildVocab(nil, []string{"text"}), "vocab"},
		{"no_columns", src().BuildVocab(v, nil), "columns"},
		{"duplicate_columns", src().BuildVocab(v, []string{"a", "a"}), "columns"},
		{"negative_freq_min", src().BuildVocab(v, []string{"text"}, WithFreqRange(-1, 0)), "freq_min"},
		{"max_below_min", src().BuildVocab(v, []string{"text"}, WithFreqRange(5, 2)), "freq_range"},
		{"negative_top_k", src().BuildVocab(v, []string{"text"}, WithTopK(-1)), "top_k"},
		{"duplicate_special", src().BuildVocab(v, []string{"text"}, WithSpecialTokens("<p>", "<p>")), "special_tokens"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.ds.ValidateParams()
			require.Error(t, err)

			var verr *core.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, "BuildVocabNode", verr.Node)
			assert.Equal(t, tc.field, verr.Field)
		})
	}
}
