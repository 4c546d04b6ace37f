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
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/aaronlmathis/godataset/core"
)

// Usage splits a manifest can select.
const (
	UsageTrain     = "train"
	UsageEval      = "eval"
	UsageInference = "inference"
)

// ManifestOptions configures the manifest reader.
type ManifestOptions struct {
	Usage         string
	ClassIndexing map[string]int32
	Decode        bool
}

// ManifestOption allows functional customization of ManifestReader.
type ManifestOption func(*ManifestOptions)

// WithManifestUsage selects which split to read; empty keeps every entry.
func WithManifestUsage(usage string) ManifestOption {
	return func(o *ManifestOptions) { o.Usage = usage }
}

// WithManifestDecode records that the consumer wants decoded pixels rather
// than raw file bytes. Rows always carry the raw bytes; decoding is the
// execution runtime's job, which queries the flag through Decode.
func WithManifestDecode(decode bool) ManifestOption {
	return func(o *ManifestOptions) { o.Decode = decode }
}

// WithManifestClassIndexing assigns explicit labels to class names. Entries
// whose class is not listed are excluded.
func WithManifestClassIndexing(classes map[string]int32) ManifestOption {
	return func(o *ManifestOptions) {
		o.ClassIndexing = make(map[string]int32, len(classes))
		for k, v := range classes {
			o.ClassIndexing[k] = v
		}
	}
}

type manifestEntry struct {
	path  string
	label int32
}

// ManifestReader enumerates an annotation manifest: one JSON object per
// line, {"image": path, "label": class, "usage": split}. Entries missing a
// usage default to "train". Image paths resolve relative to the manifest
// file. Without explicit class indexing, labels number the distinct class
// names of the selected split in lexical order starting at 0.
type ManifestReader struct {
	file    string
	entries []manifestEntry
	classes map[string]int32
	decode  bool
}

// NewManifestReader parses the manifest and builds the sample list.
func NewManifestReader(manifestFile string, options ...ManifestOption) (*ManifestReader, error) {
	opts := ManifestOptions{Usage: UsageTrain}
	for _, opt := range options {
		opt(&opts)
	}

	f, err := os.Open(manifestFile)
	if err != nil {
		return nil, fmt.Errorf("manifest reader: %w", err)
	}
	lines := NewJSONLinesReader(f)
	defer lines.Close()

	baseDir := filepath.Dir(manifestFile)
	type rawEntry struct {
		path  string
		class string
	}
	var raw []rawEntry
	ctx := context.Background()
	for {
		row, err := lines.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("manifest reader: %w", err)
		}

		image, _ := row["image"].(string)
		class, _ := row["label"].(string)
		if image == "" || class == "" {
			return nil, fmt.Errorf("manifest reader: entry missing image or label: %v", row)
		}
		usage, _ := row["usage"].(string)
		if usage == "" {
			usage = UsageTrain
		}
		if opts.Usage != "" && usage != opts.Usage {
			continue
		}
		if !filepath.IsAbs(image) {
			image = filepath.Join(baseDir, image)
		}
		raw = append(raw, rawEntry{path: image, class: class})
	}

	if len(raw) == 0 {
		return nil, fmt.Errorf("manifest reader: no entries for usage %q in %s", opts.Usage, manifestFile)
	}

	classes := opts.ClassIndexing
	if len(classes) == 0 {
		names := make(map[string]bool)
		for _, e := range raw {
			names[e.class] = true
		}
		sorted := make([]string, 0, len(names))
		for n := range names {
			sorted = append(sorted, n)
		}
		sort.Strings(sorted)
		classes = make(map[string]int32, len(sorted))
		for i, n := range sorted {
			classes[n] = int32(i)
		}
	}

	r := &ManifestReader{file: manifestFile, classes: classes, decode: opts.Decode}
	for _, e := range raw {
		label, ok := classes[e.class]
		if !ok {
			continue
		}
		r.entries = append(r.entries, manifestEntry{path: e.path, label: label})
	}
	if len(r.entries) == 0 {
		return nil, fmt.Errorf("manifest reader: class indexing excludes every entry in %s", manifestFile)
	}

	return r, nil
}

// Len implements the IndexedReader interface.
func (r *ManifestReader) Len() int64 {
	return int64(len(r.entries))
}

// At implements the IndexedReader interface.
func (r *ManifestReader) At(ctx context.Context, index int64) (core.Row, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	if index < 0 || index >= int64(len(r.entries)) {
		return nil, fmt.Errorf("manifest reader: index %d out of range [0, %d)", index, len(r.entries))
	}

	e := r.entries[index]
	data, err := os.ReadFile(e.path)
	if err != nil {
		return nil, fmt.Errorf("manifest reader: %w", err)
	}
	return core.Row{ImageColumn: data, LabelColumn: e.label}, nil
}

// Columns implements the IndexedReader interface.
func (r *ManifestReader) Columns() []string {
	return []string{ImageColumn, LabelColumn}
}

// Close implements the IndexedReader interface.
func (r *ManifestReader) Close() error {
	return nil
}

// ClassIndexing returns the resolved class name to label mapping.
func (r *ManifestReader) ClassIndexing() map[string]int32 {
	out := make(map[string]int32, len(r.classes))
	for k, v := range r.classes {
		out[k] = v
	}
	return out
}

// Decode reports whether the consumer asked for decoded pixels.
func (r *ManifestReader) Decode() bool {
	return r.decode
}
