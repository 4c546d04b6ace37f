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
	"context"
	"fmt"
	"math/rand"

	"github.com/aaronlmathis/godataset/core"
	"github.com/aaronlmathis/godataset/schema"
)

// Bounds for generated data when the schema leaves them open.
const (
	maxRandomRows     = 64
	maxRandomDimValue = 32
)

// RandomDataReader generates schema-conforming rows. Every row is
// deterministic in (seed, index), so repeated reads and shard splits agree.
// A non-positive total picks a seed-derived count in [1, 64].
type RandomDataReader struct {
	total   int64
	columns []schema.Column
	names   []string
	seed    int64
}

// NewRandomDataReader builds a generator over the schema's columns.
func NewRandomDataReader(total int64, sch *schema.Schema, seed int64) (*RandomDataReader, error) {
	if sch == nil || sch.NumColumns() == 0 {
		return nil, fmt.Errorf("random data reader: schema with at least one column required")
	}

	if total <= 0 {
		rng := rand.New(rand.NewSource(seed))
		total = rng.Int63n(maxRandomRows) + 1
	}

	cols := sch.Columns()
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name
	}

	return &RandomDataReader{
		total:   total,
		columns: cols,
		names:   names,
		seed:    seed,
	}, nil
}

// Len implements the IndexedReader interface.
func (r *RandomDataReader) Len() int64 {
	return r.total
}

// At implements the IndexedReader interface.
func (r *RandomDataReader) At(ctx context.Context, index int64) (core.Row, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	if index < 0 || index >= r.total {
		return nil, fmt.Errorf("random data reader: index %d out of range [0, %d)", index, r.total)
	}

	rng := rand.New(rand.NewSource(r.seed + index + 1))
	row := make(core.Row, len(r.columns))
	for _, col := range r.columns {
		count := int64(1)
		for _, dim := range col.Shape {
			if dim < 0 {
				dim = rng.Int63n(maxRandomDimValue) + 1
			}
			count *= dim
		}
		if len(col.Shape) == 0 || count == 1 {
			row[col.Name] = randomValue(rng, col.Type)
			continue
		}
		values := make([]any, count)
		for i := range values {
			values[i] = randomValue(rng, col.Type)
		}
		row[col.Name] = values
	}
	return row, nil
}

// Columns implements the IndexedReader interface.
func (r *RandomDataReader) Columns() []string {
	return r.names
}

// Close implements the IndexedReader interface.
func (r *RandomDataReader) Close() error {
	return nil
}

func randomValue(rng *rand.Rand, t core.ColumnType) any {
	switch t {
	case core.TypeBool:
		return rng.Intn(2) == 1
	case core.TypeInt8:
		return int8(rng.Intn(1 << 7))
	case core.TypeInt16:
		return int16(rng.Intn(1 << 15))
	case core.TypeInt32:
		return rng.Int31()
	case core.TypeInt64:
		return rng.Int63()
	case core.TypeUInt8:
		return uint8(rng.Intn(1 << 8))
	case core.TypeUInt16:
		return uint16(rng.Intn(1 << 16))
	case core.TypeUInt32:
		return uint32(rng.Int63n(1 << 32))
	case core.TypeUInt64:
		return uint64(rng.Int63())
	case core.TypeFloat32:
		return rng.Float32()
	case core.TypeFloat64:
		return rng.Float64()
	case core.TypeString:
		return randomString(rng, 8)
	case core.TypeBytes:
		b := make([]byte, 8)
		for i := range b {
			b[i] = byte(rng.Intn(256))
		}
		return b
	}
	return nil
}

func randomString(rng *rand.Rand, n int) string {
	const letters = "abcdefghijklmnopqrstuvwxyz"
	b := make([]byte, n)
	for i := range b {
		b[i] = letters[rng.Intn(len(letters))]
	}
	return string(b)
}
