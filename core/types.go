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

package core

import "fmt"

// Package core defines the value types shared across the GoDataset library.
//
// GoDataset is a declarative dataset-pipeline construction library for Go:
// a tree of lazily-declared dataset nodes (sources, transforms, combinators)
// is validated and materialized into an executable operator list for a
// machine-learning training loop.
//
// This file contains the row type and the closed cross-boundary enums.

// Row represents a single sample flowing through the pipeline.
// Each row is a map from column names to values, supporting heterogeneous data.
// Column values are scalars (bool, sized integers, floats, string, []byte) or
// sequences ([]any, possibly nested). After batching, every column value is a
// []any holding the grouped per-row values, batch dimension first.
type Row map[string]any

// Clone returns a shallow copy of the row. Column values are shared; callers
// that mutate sequence values must copy them separately.
func (r Row) Clone() Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// ColumnType is the closed enumeration of column element types understood by
// the schema descriptor and the sources.
type ColumnType int

const (
	TypeUnknown ColumnType = iota
	TypeBool
	TypeInt8
	TypeInt16
	TypeInt32
	TypeInt64
	TypeUInt8
	TypeUInt16
	TypeUInt32
	TypeUInt64
	TypeFloat32
	TypeFloat64
	TypeString
	TypeBytes
)

var columnTypeNames = map[ColumnType]string{
	TypeUnknown: "unknown",
	TypeBool:    "bool",
	TypeInt8:    "int8",
	TypeInt16:   "int16",
	TypeInt32:   "int32",
	TypeInt64:   "int64",
	TypeUInt8:   "uint8",
	TypeUInt16:  "uint16",
	TypeUInt32:  "uint32",
	TypeUInt64:  "uint64",
	TypeFloat32: "float32",
	TypeFloat64: "float64",
	TypeString:  "string",
	TypeBytes:   "bytes",
}

// String returns the canonical tag used in schema files and error messages.
func (t ColumnType) String() string {
	if name, ok := columnTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("columntype(%d)", int(t))
}

// Valid reports whether t is a known concrete type tag.
func (t ColumnType) Valid() bool {
	return t > TypeUnknown && t <= TypeBytes
}

// ParseColumnType resolves a canonical tag back to its ColumnType.
// Unknown tags return TypeUnknown and an error naming the tag.
func ParseColumnType(tag string) (ColumnType, error) {
	for t, name := range columnTypeNames {
		if name == tag && t != TypeUnknown {
			return t, nil
		}
	}
	return TypeUnknown, fmt.Errorf("unknown column type %q", tag)
}

// ShuffleMode is the closed enumeration of source shuffling behaviors.
type ShuffleMode int

const (
	// ShuffleNone reads locations and rows in their native order.
	ShuffleNone ShuffleMode = iota
	// ShuffleFiles shuffles the order of input locations only.
	ShuffleFiles
	// ShuffleGlobal shuffles input locations and the in-shard sample order.
	ShuffleGlobal
)

// String returns the mode's name for error messages and plan descriptions.
func (m ShuffleMode) String() string {
	switch m {
	case ShuffleNone:
		return "none"
	case ShuffleFiles:
		return "files"
	case ShuffleGlobal:
		return "global"
	default:
		return fmt.Sprintf("shufflemode(%d)", int(m))
	}
}

// Valid reports whether m is one of the closed set.
func (m ShuffleMode) Valid() bool {
	return m >= ShuffleNone && m <= ShuffleGlobal
}
