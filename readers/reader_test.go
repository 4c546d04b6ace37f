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
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestCheckFiles tests file existence validation
func TestCheckFiles(t *testing.T) {
	dir := t.TempDir()
	existing := filepath.Join(dir, "data.csv")
	require.NoError(t, os.WriteFile(existing, []byte("a,b\n"), 0o644))

	t.Run("existing_files", func(t *testing.T) {
		assert.NoError(t, CheckFiles(existing))
	})

	t.Run("missing_file", func(t *testing.T) {
		err := CheckFiles(existing, filepath.Join(dir, "absent.csv"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "absent.csv")
	})

	t.Run("directory_rejected", func(t *testing.T) {
		err := CheckFiles(dir)
		assert.Error(t, err)
	})

	t.Run("no_paths", func(t *testing.T) {
		assert.NoError(t, CheckFiles())
	})
}
