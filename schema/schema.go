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

package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/aaronlmathis/godataset/core"
)

// Package schema implements the dataset schema descriptor: an ordered mapping
// from unique column names to (type tag, shape), plus an optional declared row
// count and a dataset-type label.
//
// The wire form is JSON. Parsing accepts the columns block as either a JSON
// array of {name, type, shape} objects or a JSON object keyed by column name;
// serialization always produces the object form, preserving column order.

// Column declares one column: a unique name, an element type, and an ordered
// shape whose dimensions are sizes >= 0 or -1 for a dynamic dimension.
type Column struct {
	Name  string
	Type  core.ColumnType
	Shape []int64
}

// Schema is the descriptor. The zero value is not usable; construct with New,
// Parse or Load.
type Schema struct {
	DatasetType string
	NumRows     int64

	columns []Column
	byName  map[string]int
}

// SchemaError provides structured error information for descriptor operations.
type SchemaError struct {
	Op  string // Operation that failed (e.g. "parse", "add_column", "load")
	Err error  // Underlying error
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema %s: %v", e.Op, e.Err)
}

func (e *SchemaError) Unwrap() error {
	return e.Err
}

// New creates an empty schema to be filled via AddColumn.
func New() *Schema {
	return &Schema{byName: make(map[string]int)}
}

// Load reads and parses a schema file.
func Load(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &SchemaError{Op: "load", Err: err}
	}
	return Parse(data)
}

// AddColumn appends a column declaration. Names must be unique and non-empty,
// the type must be a known tag, and every shape dimension must be -1 or >= 0.
func (s *Schema) AddColumn(name string, t core.ColumnType, shape []int64) error {
	if name == "" {
		return &SchemaError{Op: "add_column", Err: fmt.Errorf("column name must not be empty")}
	}
	if _, dup := s.byName[name]; dup {
		return &SchemaError{Op: "add_column", Err: fmt.Errorf("duplicate column name %q", name)}
	}
	if !t.Valid() {
		return &SchemaError{Op: "add_column", Err: fmt.Errorf("column %q has unknown type", name)}
	}
	for i, d := range shape {
		if d < -1 {
			return &SchemaError{Op: "add_column", Err: fmt.Errorf("column %q shape dimension %d must be -1 or non-negative, got %d", name, i, d)}
		}
	}
	dims := make([]int64, len(shape))
	copy(dims, shape)
	if s.byName == nil {
		s.byName = make(map[string]int)
	}
	s.byName[name] = len(s.columns)
	s.columns = append(s.columns, Column{Name: name, Type: t, Shape: dims})
	return nil
}

// NumColumns returns the number of declared columns.
func (s *Schema) NumColumns() int {
	return len(s.columns)
}

// Columns returns a copy of the declarations in declaration order.
func (s *Schema) Columns() []Column {
	out := make([]Column, len(s.columns))
	copy(out, s.columns)
	return out
}

// ColumnNames returns the column names in declaration order.
func (s *Schema) ColumnNames() []string {
	out := make([]string, len(s.columns))
	for i, c := range s.columns {
		out[i] = c.Name
	}
	return out
}

// Column looks a declaration up by name.
func (s *Schema) Column(name string) (Column, bool) {
	i, ok := s.byName[name]
	if !ok {
		return Column{}, false
	}
	return s.columns[i], true
}

// Equal reports whether two schemas declare the same column mapping
// (name -> type and shape), row count and dataset type. Column order is not
// part of the mapping and does not affect equality.
func (s *Schema) Equal(other *Schema) bool {
	if other == nil || s.DatasetType != other.DatasetType || s.NumRows != other.NumRows {
		return false
	}
	if len(s.columns) != len(other.columns) {
		return false
	}
	for _, c := range s.columns {
		oc, ok := other.Column(c.Name)
		if !ok || oc.Type != c.Type || len(oc.Shape) != len(c.Shape) {
			return false
		}
		for i := range c.Shape {
			if c.Shape[i] != oc.Shape[i] {
				return false
			}
		}
	}
	return true
}

type columnJSON struct {
	Name  string  `json:"name,omitempty"`
	Type  string  `json:"type"`
	Shape []int64 `json:"shape,omitempty"`
}

type schemaJSON struct {
	DatasetType string          `json:"datasetType,omitempty"`
	NumRows     int64           `json:"numRows,omitempty"`
	Columns     json.RawMessage `json:"columns"`
}

// Parse decodes a schema document. The columns block may be an array of
// {name, type, shape} objects or an object keyed by column name; the object
// form's document order is preserved.
func Parse(data []byte) (*Schema, error) {
	var raw schemaJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &SchemaError{Op: "parse", Err: err}
	}
	s := New()
	s.DatasetType = raw.DatasetType
	s.NumRows = raw.NumRows
	if raw.NumRows < 0 {
		return nil, &SchemaError{Op: "parse", Err: fmt.Errorf("numRows must not be negative, got %d", raw.NumRows)}
	}
	if len(raw.Columns) == 0 {
		return nil, &SchemaError{Op: "parse", Err: fmt.Errorf("missing columns block")}
	}

	trimmed := bytes.TrimSpace(raw.Columns)
	switch {
	case len(trimmed) > 0 && trimmed[0] == '[':
		var cols []columnJSON
		if err := json.Unmarshal(trimmed, &cols); err != nil {
			return nil, &SchemaError{Op: "parse", Err: err}
		}
		for i, c := range cols {
			if c.Name == "" {
				return nil, &SchemaError{Op: "parse", Err: fmt.Errorf("array-form column %d is missing a name", i)}
			}
			if err := s.addParsed(c.Name, c); err != nil {
				return nil, err
			}
		}
	case len(trimmed) > 0 && trimmed[0] == '{':
		if err := s.parseColumnObject(trimmed); err != nil {
			return nil, err
		}
	default:
		return nil, &SchemaError{Op: "parse", Err: fmt.Errorf("columns must be a JSON array or object")}
	}
	return s, nil
}

// parseColumnObject walks the object form with a token decoder so that the
// document's column order survives the round trip.
func (s *Schema) parseColumnObject(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	if _, err := dec.Token(); err != nil { // opening brace
		return &SchemaError{Op: "parse", Err: err}
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return &SchemaError{Op: "parse", Err: err}
		}
		name, ok := tok.(string)
		if !ok {
			return &SchemaError{Op: "parse", Err: fmt.Errorf("column key is not a string")}
		}
		var c columnJSON
		if err := dec.Decode(&c); err != nil {
			return &SchemaError{Op: "parse", Err: fmt.Errorf("column %q: %w", name, err)}
		}
		if c.Name != "" && c.Name != name {
			return &SchemaError{Op: "parse", Err: fmt.Errorf("column %q declares conflicting name %q", name, c.Name)}
		}
		if err := s.addParsed(name, c); err != nil {
			return err
		}
	}
	return nil
}

func (s *Schema) addParsed(name string, c columnJSON) error {
	t, err := core.ParseColumnType(c.Type)
	if err != nil {
		return &SchemaError{Op: "parse", Err: fmt.Errorf("column %q: %w", name, err)}
	}
	if err := s.AddColumn(name, t, c.Shape); err != nil {
		return err
	}
	return nil
}

// ToJSON serializes the schema in the canonical object form, columns in
// declaration order.
func (s *Schema) ToJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("{\n")
	if s.DatasetType != "" {
		fmt.Fprintf(&buf, "  %q: %q,\n", "datasetType", s.DatasetType)
	}
	if s.NumRows > 0 {
		fmt.Fprintf(&buf, "  %q: %d,\n", "numRows", s.NumRows)
	}
	buf.WriteString("  \"columns\": {")
	for i, c := range s.columns {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteString("\n    ")
		entry := columnJSON{Type: c.Type.String(), Shape: c.Shape}
		body, err := json.Marshal(entry)
		if err != nil {
			return nil, &SchemaError{Op: "serialize", Err: err}
		}
		fmt.Fprintf(&buf, "%q: %s", c.Name, body)
	}
	if len(s.columns) > 0 {
		buf.WriteString("\n  ")
	}
	buf.WriteString("}\n}\n")
	return buf.Bytes(), nil
}

// Save writes the canonical form to a file.
func (s *Schema) Save(path string) error {
	data, err := s.ToJSON()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return &SchemaError{Op: "save", Err: err}
	}
	return nil
}

// String returns the canonical serialized form, used in error messages.
func (s *Schema) String() string {
	data, err := s.ToJSON()
	if err != nil {
		return fmt.Sprintf("schema(serialize error: %v)", err)
	}
	return string(data)
}
