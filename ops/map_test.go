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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aaronlmathis/godataset/core"
	"github.com/aaronlmathis/godataset/transform"
)

// TestMapOp_OperationChain tests chained transforms over one column
func TestMapOp_OperationChain(t *testing.T) {
	rows := []core.Row{
		{"text": "Hello World", "id": int64(1)},
	}
	source := newSliceSource("source", []string{"text", "id"}, rows)
	mapped := NewMapOp("map", Tuning{}, source,
		[]transform.Op{transform.Lowercase(), transform.Tokenize("")},
		[]string{"text"}, []string{"tokens"})

	out := drainAll(t, mapped)
	require.Len(t, out, 1)
	assert.Equal(t, []any{"hello", "world"}, out[0]["tokens"])

	// input column consumed, untouched column passed through
	_, hasText := out[0]["text"]
	assert.False(t, hasText)
	assert.Equal(t, int64(1), out[0]["id"])
}

// TestMapOp_SameColumnInPlace tests output defaulting back onto the input
func TestMapOp_SameColumnInPlace(t *testing.T) {
	source := newSliceSource("source", []string{"text"}, []core.Row{{"text": "ABC"}})
	mapped := NewMapOp("map", Tuning{}, source,
		[]transform.Op{transform.Lowercase()},
		[]string{"text"}, []string{"text"})

	out := drainAll(t, mapped)
	require.Len(t, out, 1)
	assert.Equal(t, "abc", out[0]["text"])
}

// TestMapOp_OutputCountMismatch tests the runtime arity error naming the node
func TestMapOp_OutputCountMismatch(t *testing.T) {
	source := newSliceSource("source", []string{"text"}, []core.Row{{"text": "x"}})
	mapped := NewMapOp("tokenizer_map", Tuning{}, source,
		[]transform.Op{transform.Duplicate()},
		[]string{"text"}, []string{"text"})

	_, err := mapped.Next(context.Background())
	require.Error(t, err)

	var berr *core.BuildError
	require.ErrorAs(t, err, &berr)
	assert.Equal(t, "tokenizer_map", berr.Node)
	assert.Contains(t, err.Error(), "2 values for 1 output columns")
}

// TestMapOp_MissingInputColumn tests the absent-column error
func TestMapOp_MissingInputColumn(t *testing.T) {
	source := newSliceSource("source", []string{"text"}, []core.Row{{"text": "x"}})
	mapped := NewMapOp("map", Tuning{}, source,
		[]transform.Op{transform.Lowercase()},
		[]string{"ghost"}, []string{"ghost"})

	_, err := mapped.Next(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"ghost"`)
}

// TestMapOp_OperationError tests transform errors carrying the op name
func TestMapOp_OperationError(t *testing.T) {
	source := newSliceSource("source", []string{"text"}, []core.Row{{"text": int64(5)}})
	mapped := NewMapOp("map", Tuning{}, source,
		[]transform.Op{transform.Tokenize("")},
		[]string{"text"}, []string{"text"})

	_, err := mapped.Next(context.Background())
	require.Error(t, err)

	var berr *core.BuildError
	require.ErrorAs(t, err, &berr)
	assert.Equal(t, "map", berr.Node)
	assert.Equal(t, "tokenize", berr.Op)
}

// TestMappedColumns tests output-column splicing into the upstream order
func TestMappedColumns(t *testing.T) {
	t.Run("splices_at_first_input", func(t *testing.T) {
		cols := MappedColumns([]string{"a", "text", "b"}, []string{"text"}, []string{"t1", "t2"})
		assert.Equal(t, []string{"a", "t1", "t2", "b"}, cols)
	})

	t.Run("multiple_inputs_collapse", func(t *testing.T) {
		cols := MappedColumns([]string{"x", "y", "z"}, []string{"x", "z"}, []string{"out"})
		assert.Equal(t, []string{"out", "y"}, cols)
	})

	t.Run("unknown_upstream_stays_unknown", func(t *testing.T) {
		assert.Nil(t, MappedColumns(nil, []string{"a"}, []string{"b"}))
	})
}
