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

package transform

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/aaronlmathis/godataset/core"
	"github.com/aaronlmathis/godataset/vocab"
)

// Package transform provides the reusable row operations applied by the Map
// node. An operation receives the values of the map's input columns in order
// and returns the replacement values; the value count may change (the map
// node checks the final count against its output columns at runtime).
//
// All builders here return Op implementations; Fn wraps ad-hoc functions.

// Op is one step of a Map operation chain.
type Op interface {
	// Name identifies the operation in error messages.
	Name() string
	// Apply transforms the input-column values into the replacement values.
	Apply(ctx context.Context, values []any) ([]any, error)
}

type opFunc struct {
	name string
	fn   func(ctx context.Context, values []any) ([]any, error)
}

func (o *opFunc) Name() string { return o.name }

func (o *opFunc) Apply(ctx context.Context, values []any) ([]any, error) {
	return o.fn(ctx, values)
}

// Fn wraps an ordinary function as an Op.
func Fn(name string, fn func(ctx context.Context, values []any) ([]any, error)) Op {
	return &opFunc{name: name, fn: fn}
}

// Tokenize splits each string value into a []any of tokens. An empty
// separator splits on whitespace runs.
func Tokenize(sep string) Op {
	return Fn("tokenize", func(ctx context.Context, values []any) ([]any, error) {
		out := make([]any, len(values))
		for i, v := range values {
			s, ok := v.(string)
			if !ok {
				return nil, fmt.Errorf("tokenize: value %d is %T, want string", i, v)
			}
			var parts []string
			if sep == "" {
				parts = strings.Fields(s)
			} else {
				parts = strings.Split(s, sep)
			}
			tokens := make([]any, 0, len(parts))
			for _, p := range parts {
				if p != "" {
					tokens = append(tokens, p)
				}
			}
			out[i] = tokens
		}
		return out, nil
	})
}

// Lowercase lower-cases string values and the string elements of sequence
// values.
func Lowercase() Op {
	return Fn("lowercase", func(ctx context.Context, values []any) ([]any, error) {
		out := make([]any, len(values))
		for i, v := range values {
			switch t := v.(type) {
			case string:
				out[i] = strings.ToLower(t)
			case []any:
				seq := make([]any, len(t))
				for j, e := range t {
					s, ok := e.(string)
					if !ok {
						return nil, fmt.Errorf("lowercase: sequence element %d is %T, want string", j, e)
					}
					seq[j] = strings.ToLower(s)
				}
				out[i] = seq
			default:
				return nil, fmt.Errorf("lowercase: value %d is %T, want string or sequence", i, v)
			}
		}
		return out, nil
	})
}

// TypeCast converts each scalar value to the target column type.
func TypeCast(to core.ColumnType) Op {
	return Fn("type_cast", func(ctx context.Context, values []any) ([]any, error) {
		out := make([]any, len(values))
		for i, v := range values {
			cast, err := castValue(v, to)
			if err != nil {
				return nil, fmt.Errorf("type_cast: value %d: %w", i, err)
			}
			out[i] = cast
		}
		return out, nil
	})
}

// OneHot expands each integer value into a []any of length depth holding
// int64 zeros with a one at the value's position.
func OneHot(depth int) Op {
	return Fn("one_hot", func(ctx context.Context, values []any) ([]any, error) {
		if depth <= 0 {
			return nil, fmt.Errorf("one_hot: depth must be greater than 0, got %d", depth)
		}
		out := make([]any, len(values))
		for i, v := range values {
			idx, ok := toInt64(v)
			if !ok {
				return nil, fmt.Errorf("one_hot: value %d is %T, want integer", i, v)
			}
			if idx < 0 || idx >= int64(depth) {
				return nil, fmt.Errorf("one_hot: value %d out of range [0, %d)", idx, depth)
			}
			hot := make([]any, depth)
			for j := range hot {
				hot[j] = int64(0)
			}
			hot[idx] = int64(1)
			out[i] = hot
		}
		return out, nil
	})
}

// PadEnd pads each sequence value with fill up to length; longer sequences
// pass through unchanged.
func PadEnd(length int, fill any) Op {
	return Fn("pad_end", func(ctx context.Context, values []any) ([]any, error) {
		if length <= 0 {
			return nil, fmt.Errorf("pad_end: length must be greater than 0, got %d", length)
		}
		out := make([]any, len(values))
		for i, v := range values {
			seq, ok := v.([]any)
			if !ok {
				return nil, fmt.Errorf("pad_end: value %d is %T, want sequence", i, v)
			}
			if len(seq) >= length {
				out[i] = seq
				continue
			}
			padded := make([]any, length)
			copy(padded, seq)
			for j := len(seq); j < length; j++ {
				padded[j] = fill
			}
			out[i] = padded
		}
		return out, nil
	})
}

// Duplicate appends a copy of every input value, doubling the value count.
func Duplicate() Op {
	return Fn("duplicate", func(ctx context.Context, values []any) ([]any, error) {
		out := make([]any, 0, 2*len(values))
		out = append(out, values...)
		out = append(out, values...)
		return out, nil
	})
}

// Lookup replaces string tokens with their vocabulary ids. Sequence values
// are looked up element-wise. Tokens outside the vocabulary resolve to the
// unknown token's id; with no unknown token configured they are an error.
func Lookup(v *vocab.Vocab, unknownToken string) Op {
	return Fn("lookup", func(ctx context.Context, values []any) ([]any, error) {
		if v == nil {
			return nil, fmt.Errorf("lookup: vocabulary is nil")
		}
		unknownID := int64(-1)
		if unknownToken != "" {
			id, ok := v.TokenToID(unknownToken)
			if !ok {
				return nil, fmt.Errorf("lookup: unknown token %q is not in the vocabulary", unknownToken)
			}
			unknownID = id
		}
		lookupOne := func(tok string) (int64, error) {
			if id, ok := v.TokenToID(tok); ok {
				return id, nil
			}
			if unknownID >= 0 {
				return unknownID, nil
			}
			return 0, fmt.Errorf("lookup: token %q is not in the vocabulary", tok)
		}

		out := make([]any, len(values))
		for i, val := range values {
			switch t := val.(type) {
			case string:
				id, err := lookupOne(t)
				if err != nil {
					return nil, err
				}
				out[i] = id
			case []any:
				ids := make([]any, len(t))
				for j, e := range t {
					s, ok := e.(string)
					if !ok {
						return nil, fmt.Errorf("lookup: sequence element %d is %T, want string", j, e)
					}
					id, err := lookupOne(s)
					if err != nil {
						return nil, err
					}
					ids[j] = id
				}
				out[i] = ids
			default:
				return nil, fmt.Errorf("lookup: value %d is %T, want string or sequence", i, val)
			}
		}
		return out, nil
	})
}

// castValue converts a scalar to the target type, accepting the usual numeric
// widths plus string round-trips.
func castValue(v any, to core.ColumnType) (any, error) {
	switch to {
	case core.TypeString:
		return fmt.Sprintf("%v", v), nil
	case core.TypeBool:
		switch t := v.(type) {
		case bool:
			return t, nil
		case string:
			b, err := strconv.ParseBool(t)
			if err != nil {
				return nil, fmt.Errorf("cannot cast %q to bool", t)
			}
			return b, nil
		}
	case core.TypeInt8, core.TypeInt16, core.TypeInt32, core.TypeInt64:
		n, ok := toInt64(v)
		if !ok {
			if s, isStr := v.(string); isStr {
				parsed, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
				if err != nil {
					return nil, fmt.Errorf("cannot cast %q to %s", s, to)
				}
				n, ok = parsed, true
			}
		}
		if ok {
			switch to {
			case core.TypeInt8:
				return int8(n), nil
			case core.TypeInt16:
				return int16(n), nil
			case core.TypeInt32:
				return int32(n), nil
			default:
				return n, nil
			}
		}
	case core.TypeUInt8, core.TypeUInt16, core.TypeUInt32, core.TypeUInt64:
		n, ok := toInt64(v)
		if ok && n >= 0 {
			switch to {
			case core.TypeUInt8:
				return uint8(n), nil
			case core.TypeUInt16:
				return uint16(n), nil
			case core.TypeUInt32:
				return uint32(n), nil
			default:
				return uint64(n), nil
			}
		}
	case core.TypeFloat32, core.TypeFloat64:
		f, ok := toFloat64(v)
		if !ok {
			if s, isStr := v.(string); isStr {
				parsed, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
				if err != nil {
					return nil, fmt.Errorf("cannot cast %q to %s", s, to)
				}
				f, ok = parsed, true
			}
		}
		if ok {
			if to == core.TypeFloat32 {
				return float32(f), nil
			}
			return f, nil
		}
	}
	return nil, fmt.Errorf("cannot cast %T to %s", v, to)
}

func toInt64(v any) (int64, bool) {
	switch t := v.(type) {
	case int:
		return int64(t), true
	case int8:
		return int64(t), true
	case int16:
		return int64(t), true
	case int32:
		return int64(t), true
	case int64:
		return t, true
	case uint8:
		return int64(t), true
	case uint16:
		return int64(t), true
	case uint32:
		return int64(t), true
	case uint64:
		return int64(t), true
	}
	return 0, false
}

func toFloat64(v any) (float64, bool) {
	switch t := v.(type) {
	case float32:
		return float64(t), true
	case float64:
		return t, true
	default:
		if n, ok := toInt64(v); ok {
			return float64(n), true
		}
	}
	return 0, false
}
