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
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aaronlmathis/godataset/core"
)

// Column names shared by the image-bearing readers.
const (
	ImageColumn = "image"
	LabelColumn = "label"
)

// defaultImageExtensions is the allow-list applied when none is configured.
var defaultImageExtensions = []string{".jpg", ".jpeg", ".png", ".bmp"}

// ImageFolderOptions configures the image folder reader.
type ImageFolderOptions struct {
	Extensions    []string
	ClassIndexing map[string]int32
	Decode        bool
}

// ImageFolderOption allows functional customization of ImageFolderReader.
type ImageFolderOption func(*ImageFolderOptions)

// WithImageExtensions replaces the extension allow-list.
func WithImageExtensions(exts []string) ImageFolderOption {
	return func(o *ImageFolderOptions) {
		o.Extensions = make([]string, len(exts))
		copy(o.Extensions, exts)
	}
}

// WithImageDecode records that the consumer wants decoded pixels rather than
// raw file bytes. Rows always carry the raw bytes; decoding is the execution
// runtime's job, which queries the flag through Decode.
func WithImageDecode(decode bool) ImageFolderOption {
	return func(o *ImageFolderOptions) { o.Decode = decode }
}

// WithImageClassIndexing assigns explicit labels to class folders. Folders
// not listed are excluded.
func WithImageClassIndexing(classes map[string]int32) ImageFolderOption {
	return func(o *ImageFolderOptions) {
		o.ClassIndexing = make(map[string]int32, len(classes))
		for k, v := range classes {
			o.ClassIndexing[k] = v
		}
	}
}

type imageSample struct {
	path  string
	label int32
}

// ImageFolderReader enumerates a class-per-subdirectory image tree. Each row
// carries the raw file bytes under "image" and the class label under
// "label". Without explicit class indexing, labels number the class folders
// in lexical order starting at 0.
type ImageFolderReader struct {
	dir     string
	samples []imageSample
	classes map[string]int32
	decode  bool
}

// NewImageFolderReader scans the directory tree and builds the sample list.
func NewImageFolderReader(dir string, options ...ImageFolderOption) (*ImageFolderReader, error) {
	opts := ImageFolderOptions{Extensions: defaultImageExtensions}
	for _, opt := range options {
		opt(&opts)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("image folder reader: %w", err)
	}

	var classNames []string
	for _, e := range entries {
		if e.IsDir() {
			classNames = append(classNames, e.Name())
		}
	}
	sort.Strings(classNames)
	if len(classNames) == 0 {
		return nil, fmt.Errorf("image folder reader: no class directories under %s", dir)
	}

	classes := make(map[string]int32, len(classNames))
	if len(opts.ClassIndexing) > 0 {
		for name, label := range opts.ClassIndexing {
			found := false
			for _, cn := range classNames {
				if cn == name {
					found = true
					break
				}
			}
			if !found {
				return nil, fmt.Errorf("image folder reader: class %q has no directory under %s", name, dir)
			}
			classes[name] = label
		}
	} else {
		for i, name := range classNames {
			classes[name] = int32(i)
		}
	}

	r := &ImageFolderReader{dir: dir, classes: classes, decode: opts.Decode}
	for _, name := range classNames {
		label, ok := classes[name]
		if !ok {
			continue
		}
		classDir := filepath.Join(dir, name)
		walkErr := filepath.WalkDir(classDir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			if !extensionAllowed(path, opts.Extensions) {
				return nil
			}
			r.samples = append(r.samples, imageSample{path: path, label: label})
			return nil
		})
		if walkErr != nil {
			return nil, fmt.Errorf("image folder reader: %w", walkErr)
		}
	}

	if len(r.samples) == 0 {
		return nil, fmt.Errorf("image folder reader: no image files under %s", dir)
	}

	return r, nil
}

// Len implements the IndexedReader interface.
func (r *ImageFolderReader) Len() int64 {
	return int64(len(r.samples))
}

// At implements the IndexedReader interface.
func (r *ImageFolderReader) At(ctx context.Context, index int64) (core.Row, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	if index < 0 || index >= int64(len(r.samples)) {
		return nil, fmt.Errorf("image folder reader: index %d out of range [0, %d)", index, len(r.samples))
	}

	s := r.samples[index]
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("image folder reader: %w", err)
	}
	return core.Row{ImageColumn: data, LabelColumn: s.label}, nil
}

// Columns implements the IndexedReader interface.
func (r *ImageFolderReader) Columns() []string {
	return []string{ImageColumn, LabelColumn}
}

// Close implements the IndexedReader interface.
func (r *ImageFolderReader) Close() error {
	return nil
}

// ClassIndexing returns the resolved class name to label mapping.
func (r *ImageFolderReader) ClassIndexing() map[string]int32 {
	out := make(map[string]int32, len(r.classes))
	for k, v := range r.classes {
		out[k] = v
	}
	return out
}

// Decode reports whether the consumer asked for decoded pixels.
func (r *ImageFolderReader) Decode() bool {
	return r.decode
}

func extensionAllowed(path string, allowed []string) bool {
	if len(allowed) == 0 {
		return true
	}
	ext := strings.ToLower(filepath.Ext(path))
	for _, a := range allowed {
		if ext == strings.ToLower(a) {
			return true
		}
	}
	return false
}
