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

// validators.go - Shared parameter checks behind every node's ValidateParams
package validators

import (
	"runtime"

	"github.com/aaronlmathis/godataset/core"
)

// Package validators provides the reusable parameter checks that node
// variants call from ValidateParams. Every check is pure (no I/O), idempotent,
// and returns a *core.ValidationError naming the node, the field and the
// violated constraint, or nil.

// Positive checks v > 0.
func Positive(node, field string, v int64) error {
	if v <= 0 {
		return core.Validationf(node, field, "must be greater than 0, got %d", v)
	}
	return nil
}

// NonNegative checks v >= 0.
func NonNegative(node, field string, v int64) error {
	if v < 0 {
		return core.Validationf(node, field, "must not be negative, got %d", v)
	}
	return nil
}

// CountSentinel checks a count parameter that accepts -1 as "unbounded"
// alongside strictly positive values (repeat counts, take counts).
func CountSentinel(node, field string, v int64) error {
	if v != -1 && v <= 0 {
		return core.Validationf(node, field, "must be -1 or greater than 0, got %d", v)
	}
	return nil
}

// NonEmpty checks a required string parameter.
func NonEmpty(node, field, v string) error {
	if v == "" {
		return core.Validationf(node, field, "must not be empty")
	}
	return nil
}

// UniqueNonEmpty checks a column name list: at least one entry, no empty
// names, no duplicates.
func UniqueNonEmpty(node, field string, names []string) error {
	if len(names) == 0 {
		return core.Validationf(node, field, "must name at least one column")
	}
	seen := make(map[string]struct{}, len(names))
	for _, name := range names {
		if name == "" {
			return core.Validationf(node, field, "must not contain empty column names")
		}
		if _, dup := seen[name]; dup {
			return core.Validationf(node, field, "must not contain duplicate column name %q", name)
		}
		seen[name] = struct{}{}
	}
	return nil
}

// UniqueNonEmptyAllowed is UniqueNonEmpty for optional lists: an absent list
// passes, a present one must be well-formed.
func UniqueNonEmptyAllowed(node, field string, names []string) error {
	if len(names) == 0 {
		return nil
	}
	return UniqueNonEmpty(node, field, names)
}

// StrictlyIncreasing checks that vals is non-empty, all entries positive and
// each entry greater than its predecessor.
func StrictlyIncreasing(node, field string, vals []int64) error {
	if len(vals) == 0 {
		return core.Validationf(node, field, "must not be empty")
	}
	prev := int64(0)
	for i, v := range vals {
		if v <= 0 {
			return core.Validationf(node, field, "must contain only positive values, got %d at index %d", v, i)
		}
		if i > 0 && v <= prev {
			return core.Validationf(node, field, "must be strictly increasing, got %d after %d", v, prev)
		}
		prev = v
	}
	return nil
}

// AllPositive checks that every entry of vals is > 0.
func AllPositive(node, field string, vals []int64) error {
	for i, v := range vals {
		if v <= 0 {
			return core.Validationf(node, field, "must contain only positive values, got %d at index %d", v, i)
		}
	}
	return nil
}

// ShardParams checks a (numShards, shardID) pair: at least one shard and an
// id inside [0, numShards).
func ShardParams(node string, numShards, shardID int32) error {
	if numShards < 1 {
		return core.Validationf(node, "num_shards", "must be at least 1, got %d", numShards)
	}
	if shardID < 0 || shardID >= numShards {
		return core.Validationf(node, "shard_id", "must be in [0, %d), got %d", numShards, shardID)
	}
	return nil
}

// WorkerCount checks a worker count against the host's available parallelism.
func WorkerCount(node string, n int) error {
	max := runtime.NumCPU()
	if n < 1 || n > max {
		return core.Validationf(node, "num_workers", "must be between 1 and %d, got %d", max, n)
	}
	return nil
}

// QueueSize checks a pass-through queue or buffer size.
func QueueSize(node, field string, n int) error {
	if n <= 0 {
		return core.Validationf(node, field, "must be greater than 0, got %d", n)
	}
	return nil
}

// FilesNonEmpty checks a file list: at least one entry and no empty paths.
// Existence is deliberately not checked here; that happens at build time.
func FilesNonEmpty(node, field string, files []string) error {
	if len(files) == 0 {
		return core.Validationf(node, field, "must name at least one file")
	}
	for i, f := range files {
		if f == "" {
			return core.Validationf(node, field, "must not contain an empty path (index %d)", i)
		}
	}
	return nil
}

// ShuffleMode checks membership in the closed shuffle-mode enum.
func ShuffleMode(node string, m core.ShuffleMode) error {
	if !m.Valid() {
		return core.Validationf(node, "shuffle_mode", "must be one of none, files, global, got %s", m)
	}
	return nil
}
