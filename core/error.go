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

// Package core defines the error tiers for the GoDataset library.
//
// This file contains the two-tier error model of the construction layer:
// ValidationError for structurally invalid caller parameters (detected before
// any I/O) and BuildError for environment-dependent failures discovered while
// resolving real inputs. Either tier aborts the entire materialization of a
// tree and names the first failing node.

// ValidationError reports structurally invalid node parameters: wrong arity,
// non-positive sizes, duplicate or empty names, non-increasing boundaries,
// mismatched list lengths. It is always detected before any I/O and is
// recoverable by the caller fixing arguments; nothing retries it.
type ValidationError struct {
	Node  string // Kind of the failing node (e.g. "BatchNode")
	Field string // Offending parameter
	Msg   string // Violated constraint
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", e.Node, e.Msg)
	}
	return fmt.Sprintf("%s: %s %s", e.Node, e.Field, e.Msg)
}

// Validationf builds a ValidationError with a formatted constraint message.
func Validationf(node, field, format string, args ...any) *ValidationError {
	return &ValidationError{Node: node, Field: field, Msg: fmt.Sprintf(format, args...)}
}

// BuildError reports an environment-dependent failure while resolving a
// node's real inputs: a file that vanished after validation, an unlistable
// bucket, an unreadable schema, a column-set mismatch across combined
// sources. The same type carries data errors raised by materialized
// operators during iteration, with Node naming the operator.
type BuildError struct {
	Node string // Kind of the failing node or name of the failing operator
	Op   string // Operation that failed (e.g. "list_dir", "resolve_schema")
	Err  error  // Underlying error
}

func (e *BuildError) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("%s: %v", e.Node, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Node, e.Op, e.Err)
}

func (e *BuildError) Unwrap() error {
	return e.Err
}

// Buildf builds a BuildError wrapping a formatted cause.
func Buildf(node, op, format string, args ...any) *BuildError {
	return &BuildError{Node: node, Op: op, Err: fmt.Errorf(format, args...)}
}

// SchemaMismatchError names the column on which two combined inputs diverge.
// It is always wrapped inside a BuildError so callers can match either the
// tier or the specific cause with errors.As.
type SchemaMismatchError struct {
	Column string // Divergent column name
	Reason string // Human-readable divergence
}

func (e *SchemaMismatchError) Error() string {
	return fmt.Sprintf("schema mismatch on column %q: %s", e.Column, e.Reason)
}
