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
)

// sequenceRows builds rows whose "seq" column holds int64 runs of the given
// lengths, so the leading dimension is the bucketing length.
func sequenceRows(lengths ...int) []core.Row {
	rows := make([]core.Row, len(lengths))
	for i, length := range lengths {
		seq := make([]any, length)
		for j := range seq {
			seq[j] = int64(j)
		}
		rows[i] = core.Row{"seq": seq}
	}
	return rows
}

// batchLengths reports each emitted batch's group size.
func batchLengths(rows []core.Row) []int {
	sizes := make([]int, len(rows))
	for i, row := range rows {
		sizes[i] = len(row["seq"].([]any))
	}
	return sizes
}

// TestBucketBatchOp_WorkedExample tests boundaries [5,10], sizes [2,2,2]
// over lengths [1,6,11,2,7,3]
func TestBucketBatchOp_WorkedExample(t *testing.T) {
	t.Run("keep_remainder", func(t *testing.T) {
		source := newSliceSource("source", []string{"seq"}, sequenceRows(1, 6, 11, 2, 7, 3))
		bucket := NewBucketBatchOp("bucket", Tuning{}, source, []string{"seq"},
			[]int64{5, 10}, []int{2, 2, 2}, nil, false, false, nil)

		batches := drainAll(t, bucket)
		// bucket 0 fills with lengths [1,2]; bucket 1 with [6,7];
		// flush: bucket 0 partial [3], bucket 2 partial [11]
		require.Len(t, batches, 4)
		assert.Equal(t, []int{2, 2, 1, 1}, batchLengths(batches))

		first := batches[0]["seq"].([]any)
		assert.Len(t, first[0], 1)
		assert.Len(t, first[1], 2)

		second := batches[1]["seq"].([]any)
		assert.Len(t, second[0], 6)
		assert.Len(t, second[1], 7)

		assert.Len(t, batches[2]["seq"].([]any)[0], 3)
		assert.Len(t, batches[3]["seq"].([]any)[0], 11)
	})

	t.Run("drop_remainder", func(t *testing.T) {
		source := newSliceSource("source", []string{"seq"}, sequenceRows(1, 6, 11, 2, 7, 3))
		bucket := NewBucketBatchOp("bucket", Tuning{}, source, []string{"seq"},
			[]int64{5, 10}, []int{2, 2, 2}, nil, true, false, nil)

		batches := drainAll(t, bucket)
		require.Len(t, batches, 2)
		assert.Equal(t, []int{2, 2}, batchLengths(batches))
	})
}

// TestBucketBatchOp_LengthFunc tests the custom length extraction path
func TestBucketBatchOp_LengthFunc(t *testing.T) {
	rows := []core.Row{
		{"a": int64(3), "b": int64(4)},
		{"a": int64(1), "b": int64(1)},
	}
	lengthFn := func(values []any) (int, error) {
		return int(values[0].(int64) + values[1].(int64)), nil
	}

	source := newSliceSource("source", []string{"a", "b"}, rows)
	bucket := NewBucketBatchOp("bucket", Tuning{}, source, []string{"a", "b"},
		[]int64{5}, []int{1, 1}, lengthFn, false, false, nil)

	batches := drainAll(t, bucket)
	require.Len(t, batches, 2)
	// 3+4=7 lands in the unbounded bucket, 1+1=2 in bucket 0; the first
	// emission is bucket 1 filling at size 1
	assert.Equal(t, []any{int64(3)}, batches[0]["a"])
	assert.Equal(t, []any{int64(1)}, batches[1]["a"])
}

// TestBucketBatchOp_StringLength tests rune-count lengths for text columns
func TestBucketBatchOp_StringLength(t *testing.T) {
	rows := []core.Row{
		{"seq": "ab"},
		{"seq": "abcdefgh"},
	}
	source := newSliceSource("source", []string{"seq"}, rows)
	bucket := NewBucketBatchOp("bucket", Tuning{}, source, []string{"seq"},
		[]int64{5}, []int{1, 1}, nil, false, false, nil)

	batches := drainAll(t, bucket)
	require.Len(t, batches, 2)
	assert.Equal(t, []any{"ab"}, batches[0]["seq"])
	assert.Equal(t, []any{"abcdefgh"}, batches[1]["seq"])
}

// TestBucketBatchOp_BoundaryPadding tests pad-to-boundary shapes and the
// unbounded-bucket failure
func TestBucketBatchOp_BoundaryPadding(t *testing.T) {
	t.Run("pads_to_boundary_minus_one", func(t *testing.T) {
		source := newSliceSource("source", []string{"seq"}, sequenceRows(1, 2))
		bucket := NewBucketBatchOp("bucket", Tuning{}, source, []string{"seq"},
			[]int64{5}, []int{2, 2}, nil, false, true,
			map[string]PadSpec{"seq": {Shape: []int64{-1}, Value: int64(0)}})

		batches := drainAll(t, bucket)
		require.Len(t, batches, 1)
		padded := batches[0]["seq"].([]any)
		assert.Len(t, padded[0], 4)
		assert.Len(t, padded[1], 4)
		assert.Equal(t, []any{int64(0), int64(0), int64(0), int64(0)}, padded[0])
	})

	t.Run("unbounded_bucket_fails", func(t *testing.T) {
		source := newSliceSource("source", []string{"seq"}, sequenceRows(1, 9))
		bucket := NewBucketBatchOp("bucket", Tuning{}, source, []string{"seq"},
			[]int64{5}, []int{2, 2}, nil, false, true,
			map[string]PadSpec{"seq": {Shape: []int64{-1}, Value: int64(0)}})

		_, err := bucket.Next(context.Background())
		require.Error(t, err)

		var berr *core.BuildError
		require.ErrorAs(t, err, &berr)
		assert.Equal(t, "bucket", berr.Node)
		assert.Contains(t, err.Error(), "unbounded")
	})
}

// TestBucketBatchOp_Reset tests a second pass over the same input
func TestBucketBatchOp_Reset(t *testing.T) {
	source := newSliceSource("source", []string{"seq"}, sequenceRows(1, 6, 11, 2, 7, 3))
	bucket := NewBucketBatchOp("bucket", Tuning{}, source, []string{"seq"},
		[]int64{5, 10}, []int{2, 2, 2}, nil, false, false, nil)

	first := drainAll(t, bucket)
	require.NoError(t, bucket.Reset(context.Background()))
	second := drainAll(t, bucket)

	assert.Equal(t, batchLengths(first), batchLengths(second))
}
