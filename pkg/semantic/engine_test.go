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

package semantic

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeGoFile(t *testing.T, base, rel, content string) *FileEntry {
	t.Helper()
	abs := filepath.Join(base, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(abs), 0o755))
	require.NoError(t, os.WriteFile(abs, []byte(content), 0o644))
	info, err := os.Stat(abs)
	require.NoError(t, err)
	return &FileEntry{AbsPath: abs, RelPath: rel, Language: LangGo, Size: info.Size()}
}

func newTestEngine() *Engine {
	pool := NewParserPool(nil, nil)
	cache := NewASTCache(pool, 0, nil, nil)
	return NewEngineWithCache(pool, cache, nil, nil)
}

// Spec §3/§6: a successful PerformAnalysis populates every FileEntry slot
// and a follow-up graph query sees a deterministic result.
func TestEngine_PerformAnalysis_PopulatesEntriesAndGraph(t *testing.T) {
	base := t.TempDir()
	utils := writeGoFile(t, base, "pkg/utils/util.go", `package utils

func Helper() string { return "ok" }
`)
	main := writeGoFile(t, base, "main.go", `package main

import "pkg/utils"

func run() string {
	return utils.Helper()
}
`)

	e := newTestEngine()
	cfg := DefaultAnalysisConfig()
	result, err := e.PerformAnalysis(context.Background(), []*FileEntry{main, utils}, base, cfg)
	require.NoError(t, err)
	assert.Equal(t, 2, result.FilesAnalyzed)
	assert.Equal(t, 0, result.FilesFailed)

	assert.NotZero(t, main.ContentHash)
	assert.NotZero(t, utils.ContentHash)
	assert.Contains(t, defNames(utils.ExportedFunctions), "Helper")

	g := e.Graph()
	require.NotNil(t, g)
	assert.Contains(t, g.Dependencies(main.RelPath, 5), utils.RelPath)
}

// Spec §8 "Isolation": a syntax error in one file doesn't taint another.
func TestEngine_PerformAnalysis_IsolatesPerFileFailure(t *testing.T) {
	base := t.TempDir()
	good := writeGoFile(t, base, "good.go", `package main

func Good() string { return "fine" }
`)
	// Not actually a parse-breaking input for a permissive grammar, but
	// exercises the path where content is unreadable — the entry names a
	// file that was never written to disk.
	missing := &FileEntry{AbsPath: filepath.Join(base, "missing.go"), RelPath: "missing.go", Language: LangGo}

	e := newTestEngine()
	result, err := e.PerformAnalysis(context.Background(), []*FileEntry{good, missing}, base, DefaultAnalysisConfig())
	require.NoError(t, err)
	assert.Equal(t, 1, result.FilesFailed)
	assert.NotEmpty(t, missing.AnalysisError)
	assert.Empty(t, good.AnalysisError)
	assert.Contains(t, defNames(good.ExportedFunctions), "Good")
}

// Spec §9 open question: tsconfig path-mapping must resolve through
// loadTSConfigPaths and resolveJSLike end to end, not just in isolation —
// loadTSConfigPaths' stored target must already be repo-relative, since
// that's the contract resolveJSLike joins it under (r.repoBase + target).
func TestEngine_PerformAnalysis_ResolvesTSConfigPathMapping(t *testing.T) {
	base := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(base, "tsconfig.json"), []byte(`{
  "compilerOptions": {
    "baseUrl": "src",
    "paths": { "@app/*": ["app/*"] }
  }
}`), 0o644))

	widget := writeTSFile(t, base, "src/app/widget.ts", `export function render(): string { return "ok"; }`)
	index := writeTSFile(t, base, "src/index.ts", `import { render } from "@app/widget";

render();
`)

	e := newTestEngine()
	cfg := DefaultAnalysisConfig()
	cfg.TSConfigPath = filepath.Join(base, "tsconfig.json")
	result, err := e.PerformAnalysis(context.Background(), []*FileEntry{index, widget}, base, cfg)
	require.NoError(t, err)
	assert.Equal(t, 0, result.FilesFailed)

	require.Len(t, index.Imports, 1)
	assert.False(t, index.Imports[0].IsExternal, "an aliased import with a tsconfig path match must resolve internally, not fall through to external")
	assert.Equal(t, widget.RelPath, index.Imports[0].ResolvedPath)

	assert.Contains(t, e.Graph().Dependencies(index.RelPath, 1), widget.RelPath)
}

func writeTSFile(t *testing.T, base, rel, content string) *FileEntry {
	t.Helper()
	abs := filepath.Join(base, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(abs), 0o755))
	require.NoError(t, os.WriteFile(abs, []byte(content), 0o644))
	info, err := os.Stat(abs)
	require.NoError(t, err)
	return &FileEntry{AbsPath: abs, RelPath: rel, Language: LangTypeScript, Size: info.Size()}
}

// Spec §8 boundary: empty file set.
func TestEngine_PerformAnalysis_EmptyFileSet(t *testing.T) {
	e := newTestEngine()
	result, err := e.PerformAnalysis(context.Background(), nil, t.TempDir(), DefaultAnalysisConfig())
	require.NoError(t, err)
	assert.Equal(t, 0, result.FilesAnalyzed)
	assert.Empty(t, e.Graph().Nodes())
}
