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

// Ref is a deferred schema reference: either a file path parsed at build time
// or an in-memory descriptor supplied directly. The zero Ref means "no schema"
// and resolves to nil.
type Ref struct {
	path  string
	value *Schema
}

// FromPath defers to a schema file; the file is read and parsed only when the
// owning node builds.
func FromPath(path string) Ref {
	return Ref{path: path}
}

// FromValue wraps an already-constructed descriptor.
func FromValue(s *Schema) Ref {
	return Ref{value: s}
}

// IsZero reports whether the reference is the "no schema" zero value.
func (r Ref) IsZero() bool {
	return r.path == "" && r.value == nil
}

// Value returns the in-memory descriptor when the reference wraps one, and
// nil for path and zero references. It never performs I/O, so callers can
// inspect value-backed references before build time.
func (r Ref) Value() *Schema {
	return r.value
}

// Resolve produces the descriptor. Path references hit the filesystem here
// and nowhere earlier; the zero Ref resolves to (nil, nil).
func (r Ref) Resolve() (*Schema, error) {
	switch {
	case r.value != nil:
		return r.value, nil
	case r.path != "":
		return Load(r.path)
	default:
		return nil, nil
	}
}

// String names the reference form for plan descriptions.
func (r Ref) String() string {
	switch {
	case r.value != nil:
		return "schema(inline)"
	case r.path != "":
		return "schema(" + r.path + ")"
	default:
		return "schema(none)"
	}
}
