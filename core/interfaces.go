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

import (
	"context"
)

// Package core defines the core contracts for the GoDataset library.
//
// This file contains the sampler capability consumed by source nodes and the
// row-predicate contract consumed by the filter transform.

// Sampler produces an ordering or subset of row indices for an indexed source.
// The node tree treats samplers as opaque handles: a sampler supplied at
// construction is validated for presence only and passed through to the
// source's build output.
//
// Implementations may keep internal state across calls (the bundled random
// sampler advances an epoch on every call so repeated pipeline passes
// reshuffle); every returned index must lie in [0, total).
type Sampler interface {
	// Name identifies the sampler in plan descriptions and error messages.
	Name() string
	// Indices returns the visit order over a dataset of the given total size.
	Indices(total int64) ([]int64, error)
}

// Predicate decides whether a row is kept by a filter transform.
// Returning false drops the row; a non-nil error aborts iteration.
type Predicate func(ctx context.Context, row Row) (bool, error)

// LengthFunc extracts a single scalar length from the values of the columns
// named by a bucketed-batch transform, in the order the columns were named.
type LengthFunc func(values []any) (int, error)
