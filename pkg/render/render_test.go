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

package render

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraklabs/ctxforge/pkg/semantic"
)

func writeRenderFixture(t *testing.T, dir, rel, content string) *semantic.FileEntry {
	t.Helper()
	abs := filepath.Join(dir, rel)
	require.NoError(t, os.WriteFile(abs, []byte(content), 0o644))
	return &semantic.FileEntry{AbsPath: abs, RelPath: rel, Language: semantic.LangGo}
}

func TestRender_Markdown(t *testing.T) {
	dir := t.TempDir()
	e := writeRenderFixture(t, dir, "main.go", "package main\n")

	out, err := Render([]*semantic.FileEntry{e}, FormatMarkdown)
	require.NoError(t, err)
	assert.Contains(t, out, "## main.go")
	assert.Contains(t, out, "```go")
	assert.Contains(t, out, "package main")
}

func TestRender_Plain(t *testing.T) {
	dir := t.TempDir()
	e := writeRenderFixture(t, dir, "main.go", "package main\n")

	out, err := Render([]*semantic.FileEntry{e}, FormatPlain)
	require.NoError(t, err)
	assert.Contains(t, out, "=== main.go ===")
	assert.NotContains(t, out, "```")
}

func TestRender_Paths(t *testing.T) {
	dir := t.TempDir()
	e := writeRenderFixture(t, dir, "main.go", "package main\n")

	out, err := Render([]*semantic.FileEntry{e}, FormatPaths)
	require.NoError(t, err)
	assert.Equal(t, "main.go\n", out)
}

func TestRender_UnknownFormat(t *testing.T) {
	dir := t.TempDir()
	e := writeRenderFixture(t, dir, "main.go", "package main\n")

	_, err := Render([]*semantic.FileEntry{e}, Format("xml"))
	assert.Error(t, err)
}

func TestRender_MissingFileErrors(t *testing.T) {
	e := &semantic.FileEntry{AbsPath: "/nonexistent/path.go", RelPath: "path.go"}
	_, err := Render([]*semantic.FileEntry{e}, FormatMarkdown)
	assert.Error(t, err)
}
