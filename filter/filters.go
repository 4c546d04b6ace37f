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

package filter

import (
	"context"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/aaronlmathis/godataset/core"
)

// Package filter provides reusable, composable row predicates for dataset
// Filter nodes.
//
// This package includes column-based, value-based, and custom logic
// predicates for conditional row removal or selection. All functions return
// core.Predicate implementations for use with Dataset.Filter.

// NotNull keeps rows where the column is present, non-nil, and non-empty.
func NotNull(column string) core.Predicate {
	return func(ctx context.Context, row core.Row) (bool, error) {
		value, exists := row[column]
		if !exists {
			return false, nil
		}
		if value == nil {
			return false, nil
		}
		if str, ok := value.(string); ok && str == "" {
			return false, nil
		}
		return true, nil
	}
}

// Equals keeps rows where the column equals the expected value.
func Equals(column string, expected any) core.Predicate {
	return func(ctx context.Context, row core.Row) (bool, error) {
		value, exists := row[column]
		if !exists {
			return false, nil
		}
		return reflect.DeepEqual(value, expected), nil
	}
}

// Contains keeps rows where the string column contains the substring.
func Contains(column, substring string) core.Predicate {
	return func(ctx context.Context, row core.Row) (bool, error) {
		value, exists := row[column]
		if !exists {
			return false, nil
		}
		if str, ok := value.(string); ok {
			return strings.Contains(str, substring), nil
		}
		return false, nil
	}
}

// StartsWith keeps rows where the string column starts with the prefix.
func StartsWith(column, prefix string) core.Predicate {
	return func(ctx context.Context, row core.Row) (bool, error) {
		value, exists := row[column]
		if !exists {
			return false, nil
		}
		if str, ok := value.(string); ok {
			return strings.HasPrefix(str, prefix), nil
		}
		return false, nil
	}
}

// MatchesRegex keeps rows where the string column matches the pattern.
// The pattern is compiled once; an invalid pattern fails every row.
func MatchesRegex(column, pattern string) core.Predicate {
	re, compileErr := regexp.Compile(pattern)
	return func(ctx context.Context, row core.Row) (bool, error) {
		if compileErr != nil {
			return false, fmt.Errorf("filter: invalid pattern %q: %w", pattern, compileErr)
		}
		value, exists := row[column]
		if !exists {
			return false, nil
		}
		if str, ok := value.(string); ok {
			return re.MatchString(str), nil
		}
		return false, nil
	}
}

// GreaterThan keeps rows where the numeric column exceeds the threshold.
func GreaterThan(column string, threshold float64) core.Predicate {
	return func(ctx context.Context, row core.Row) (bool, error) {
		value, exists := row[column]
		if !exists {
			return false, nil
		}
		num, ok := toFloat64(value)
		if !ok {
			return false, nil
		}
		return num > threshold, nil
	}
}

// LessThan keeps rows where the numeric column is below the threshold.
func LessThan(column string, threshold float64) core.Predicate {
	return func(ctx context.Context, row core.Row) (bool, error) {
		value, exists := row[column]
		if !exists {
			return false, nil
		}
		num, ok := toFloat64(value)
		if !ok {
			return false, nil
		}
		return num < threshold, nil
	}
}

// Between keeps rows where the numeric column lies in [low, high].
func Between(column string, low, high float64) core.Predicate {
	return func(ctx context.Context, row core.Row) (bool, error) {
		value, exists := row[column]
		if !exists {
			return false, nil
		}
		num, ok := toFloat64(value)
		if !ok {
			return false, nil
		}
		return num >= low && num <= high, nil
	}
}

// In keeps rows where the column equals one of the allowed values.
func In(column string, allowed ...any) core.Predicate {
	return func(ctx context.Context, row core.Row) (bool, error) {
		value, exists := row[column]
		if !exists {
			return false, nil
		}
		for _, a := range allowed {
			if reflect.DeepEqual(value, a) {
				return true, nil
			}
		}
		return false, nil
	}
}

// And keeps rows that pass every predicate.
func And(predicates ...core.Predicate) core.Predicate {
	return func(ctx context.Context, row core.Row) (bool, error) {
		for _, p := range predicates {
			keep, err := p(ctx, row)
			if err != nil {
				return false, err
			}
			if !keep {
				return false, nil
			}
		}
		return true, nil
	}
}

// Or keeps rows that pass at least one predicate.
func Or(predicates ...core.Predicate) core.Predicate {
	return func(ctx context.Context, row core.Row) (bool, error) {
		for _, p := range predicates {
			keep, err := p(ctx, row)
			if err != nil {
				return false, err
			}
			if keep {
				return true, nil
			}
		}
		return false, nil
	}
}

// Not inverts a predicate.
func Not(predicate core.Predicate) core.Predicate {
	return func(ctx context.Context, row core.Row) (bool, error) {
		keep, err := predicate(ctx, row)
		if err != nil {
			return false, err
		}
		return !keep, nil
	}
}

func toFloat64(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int8:
		return float64(t), true
	case int16:
		return float64(t), true
	case int32:
		return float64(t), true
	case int64:
		return float64(t), true
	case uint8:
		return float64(t), true
	case uint16:
		return float64(t), true
	case uint32:
		return float64(t), true
	case uint64:
		return float64(t), true
	}
	return 0, false
}
