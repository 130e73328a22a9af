// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package walker

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraklabs/ctxforge/pkg/semantic"
)

func writeWalkerFixture(t *testing.T, base, rel string, data []byte) {
	t.Helper()
	abs := filepath.Join(base, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(abs), 0o755))
	require.NoError(t, os.WriteFile(abs, data, 0o644))
}

func relPaths(entries []*semantic.FileEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.RelPath
	}
	return out
}

func TestWalk_CollectsAndTagsByExtension(t *testing.T) {
	base := t.TempDir()
	writeWalkerFixture(t, base, "main.go", []byte("package main\n"))
	writeWalkerFixture(t, base, "script.py", []byte("print('x')\n"))

	entries, err := Walk(base, nil, nil)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	byPath := map[string]*semantic.FileEntry{}
	for _, e := range entries {
		byPath[e.RelPath] = e
	}
	assert.Equal(t, semantic.LangGo, byPath["main.go"].Language)
	assert.Equal(t, semantic.LangPython, byPath["script.py"].Language)
}

func TestWalk_DefaultExcludesVendorAndGit(t *testing.T) {
	base := t.TempDir()
	writeWalkerFixture(t, base, "main.go", []byte("package main\n"))
	writeWalkerFixture(t, base, "vendor/pkg/a.go", []byte("package pkg\n"))
	writeWalkerFixture(t, base, ".git/HEAD", []byte("ref: refs/heads/main\n"))

	entries, err := Walk(base, nil, nil)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"main.go"}, relPaths(entries))
}

func TestWalk_CustomExcludeGlob(t *testing.T) {
	base := t.TempDir()
	writeWalkerFixture(t, base, "main.go", []byte("package main\n"))
	writeWalkerFixture(t, base, "main_test.go", []byte("package main\n"))

	entries, err := Walk(base, nil, []string{"*_test.go"})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"main.go"}, relPaths(entries))
}

func TestWalk_IncludeRestrictsSet(t *testing.T) {
	base := t.TempDir()
	writeWalkerFixture(t, base, "main.go", []byte("package main\n"))
	writeWalkerFixture(t, base, "README.md", []byte("# hi\n"))

	entries, err := Walk(base, []string{"**/*.go"}, nil)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"main.go"}, relPaths(entries))
}

func TestWalk_SkipsBinaryFiles(t *testing.T) {
	base := t.TempDir()
	writeWalkerFixture(t, base, "main.go", []byte("package main\n"))
	writeWalkerFixture(t, base, "data.bin", []byte{0x00, 0x01, 0x02, 0x03})

	entries, err := Walk(base, nil, nil)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"main.go"}, relPaths(entries))
}

func TestWalk_EmptyDirectory(t *testing.T) {
	base := t.TempDir()
	entries, err := Walk(base, nil, nil)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
