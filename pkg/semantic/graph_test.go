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
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

// Spec §8 scenario 1: a.rs with `mod b;`, b.rs empty.
func TestGraph_SimpleImportEdge(t *testing.T) {
	a := &FileEntry{RelPath: "a.rs", Language: LangRust, Imports: []Import{{ModuleReference: "mod b", ResolvedPath: "b.rs"}}}
	b := &FileEntry{RelPath: "b.rs", Language: LangRust}

	g := BuildGraph([]*FileEntry{a, b})

	assert.Equal(t, []string{"b.rs"}, g.DirectImports("a.rs"))
	assert.Equal(t, []string{"a.rs"}, g.DirectImporters("b.rs"))
}

// Spec §8 scenario 2: a.rs -> b.rs -> a.rs mutual imports.
func TestGraph_MutualImportIsCycle(t *testing.T) {
	a := &FileEntry{RelPath: "a.rs", Language: LangRust, Imports: []Import{{ResolvedPath: "b.rs"}}}
	b := &FileEntry{RelPath: "b.rs", Language: LangRust, Imports: []Import{{ResolvedPath: "a.rs"}}}

	g := BuildGraph([]*FileEntry{a, b})

	cycles := g.Cycles()
	if assert.Len(t, cycles, 1) {
		assert.Equal(t, []string{"a.rs", "b.rs"}, cycles[0].Files)
	}

	deps := g.Dependencies("a.rs", 10)
	assert.ElementsMatch(t, []string{"a.rs", "b.rs"}, deps)
	assert.Len(t, deps, 2, "each file visited exactly once despite the cycle")
}

// Spec §8 boundary: a single self-referential file.
func TestGraph_SelfLoop(t *testing.T) {
	a := &FileEntry{RelPath: "a.rs", Language: LangRust, Imports: []Import{{ResolvedPath: "a.rs"}}}

	g := BuildGraph([]*FileEntry{a})

	cycles := g.Cycles()
	if assert.Len(t, cycles, 1) {
		assert.Equal(t, []string{"a.rs"}, cycles[0].Files)
	}
	assert.Equal(t, []string{"a.rs"}, g.Dependencies("a.rs", 999))
}

// Spec §8 boundary: empty file set.
func TestGraph_Empty(t *testing.T) {
	g := BuildGraph(nil)
	assert.Empty(t, g.Nodes())
	assert.Empty(t, g.Cycles())
}

func TestGraph_TypeReferenceEdge(t *testing.T) {
	main := &FileEntry{
		RelPath:        "main.go",
		TypeReferences: []TypeReference{{Name: "Widget", DefinitionPath: "widget.go"}},
	}
	widget := &FileEntry{RelPath: "widget.go"}

	g := BuildGraph([]*FileEntry{main, widget})

	deps := g.Dependencies("main.go", 1)
	assert.Contains(t, deps, "widget.go")
}

func TestGraph_FunctionCallEdge_ModuleQualifiedThenFallback(t *testing.T) {
	main := &FileEntry{
		RelPath:       "main.go",
		FunctionCalls: []FunctionCall{{Name: "Helper", Module: "utils"}},
	}
	utils := &FileEntry{
		RelPath:           "pkg/utils/utils.go",
		ExportedFunctions: []FunctionDefinition{{Name: "Helper", IsExported: true}},
	}

	g := BuildGraph([]*FileEntry{main, utils})
	assert.Contains(t, g.Dependencies("main.go", 1), "pkg/utils/utils.go")
}

func TestGraph_DependenciesAlong_FiltersByTag(t *testing.T) {
	main := &FileEntry{
		RelPath:        "main.go",
		Imports:        []Import{{ResolvedPath: "util.go"}},
		TypeReferences: []TypeReference{{Name: "Widget", DefinitionPath: "widget.go"}},
	}
	util := &FileEntry{RelPath: "util.go"}
	widget := &FileEntry{RelPath: "widget.go"}

	g := BuildGraph([]*FileEntry{main, util, widget})

	imports := g.DependenciesAlong("main.go", 5, RelImport)
	assert.Contains(t, imports, "util.go")
	assert.NotContains(t, imports, "widget.go")

	types := g.DependenciesAlong("main.go", 5, RelTypeReference)
	assert.Contains(t, types, "widget.go")
	assert.NotContains(t, types, "util.go")
}

func TestGraph_ReverseDependenciesAlong_FiltersByTag(t *testing.T) {
	main := &FileEntry{RelPath: "main.go", Imports: []Import{{ResolvedPath: "util.go"}}}
	util := &FileEntry{RelPath: "util.go"}

	g := BuildGraph([]*FileEntry{main, util})

	assert.Contains(t, g.ReverseDependenciesAlong("util.go", 5, RelImport), "main.go")
	assert.NotContains(t, g.ReverseDependenciesAlong("util.go", 5, RelTypeReference), "main.go")
}

// Node order must be the sorted RelPath order regardless of construction
// order; cmp.Diff gives a readable failure for a misordered slice where
// testify's assert.Equal would just print two whole slices.
func TestGraph_Nodes_SortedRegardlessOfInputOrder(t *testing.T) {
	c := &FileEntry{RelPath: "c.go"}
	a := &FileEntry{RelPath: "a.go"}
	b := &FileEntry{RelPath: "b.go"}

	g := BuildGraph([]*FileEntry{c, a, b})

	want := []string{"a.go", "b.go", "c.go"}
	if diff := cmp.Diff(want, g.Nodes()); diff != "" {
		t.Errorf("Nodes() mismatch (-want +got):\n%s", diff)
	}
}

func TestGraph_HasPath(t *testing.T) {
	a := &FileEntry{RelPath: "a.go", Imports: []Import{{ResolvedPath: "b.go"}}}
	b := &FileEntry{RelPath: "b.go", Imports: []Import{{ResolvedPath: "c.go"}}}
	c := &FileEntry{RelPath: "c.go"}

	g := BuildGraph([]*FileEntry{a, b, c})

	assert.True(t, g.HasPath("a.go", "c.go"))
	assert.False(t, g.HasPath("c.go", "a.go"))
}
