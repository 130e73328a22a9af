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

// Package semantic implements the cross-file semantic analysis engine: it
// parses source files through a pooled tree-sitter front end, extracts
// imports/calls/type references/definitions per language, resolves symbolic
// references to concrete repo paths, and builds a typed dependency graph
// that the outer selection expander queries.
package semantic

import "time"

// Language identifies one of the analyzer's supported source languages.
type Language string

const (
	LangGo         Language = "go"
	LangPython     Language = "python"
	LangJavaScript Language = "javascript"
	LangTypeScript Language = "typescript"
	LangRust       Language = "rust"
)

// RelationshipType tags an edge in the DependencyGraph.
type RelationshipType string

const (
	RelImport        RelationshipType = "import"
	RelTypeReference RelationshipType = "type_reference"
	RelFunctionCall  RelationshipType = "function_call"
)

// FileEntry is a concrete file under analysis. Owned by the engine's
// working collection; mutated in place by PerformAnalysis; consumed by the
// caller's selection expander and formatter.
type FileEntry struct {
	AbsPath  string
	RelPath  string
	Language Language
	Size     int64

	// Populated by PerformAnalysis.
	Imports           []Import
	ImportedBy        []string // RelPath of files that import this one
	FunctionCalls     []FunctionCall
	TypeReferences    []TypeReference
	ExportedFunctions []FunctionDefinition
	ContentHash       uint64

	// AnalysisError is non-empty when this file's analysis failed; the file
	// stays in the set with no semantic enrichment (spec §7).
	AnalysisError string
}

// Import is a single module/file reference found in a source file.
//
// Invariant: if IsExternal is true, ResolvedPath is empty; otherwise it is
// either empty (unresolved) or names an existing repo-relative file.
type Import struct {
	ModuleReference string
	Line            uint32
	IsRelative      bool
	ResolvedPath    string // repo-relative; empty if unresolved or external
	IsExternal      bool
	ExternalPackage string // set when IsExternal
}

// TypeReference is a use of a named type in a type-requiring syntactic
// position (parameter/return annotation, field declaration, generic
// argument, downcast).
//
// Invariant: if DefinitionPath is set, it names a repo file that
// syntactically defines a type with this Name.
type TypeReference struct {
	Name            string
	Module          string
	Line            uint32
	DefinitionPath  string
	IsExternal      bool
	ExternalPackage string
	Truncated       bool // set when C5's circuit breakers aborted resolution
}

// FunctionCall is an applied-function expression.
type FunctionCall struct {
	Name     string
	Module   string
	Line     uint32
	IsMethod bool
	Receiver string
}

// FunctionDefinition is a top-level function definition visible outside the
// file under the language's visibility rules.
type FunctionDefinition struct {
	Name       string
	IsExported bool
	Line       uint32
}

// TypeDefinition is a top-level type/struct/interface/class declaration.
// Spec.md's data model (§3) does not name this record explicitly, but C5/C6
// need a per-file index of "what type names does this file define" to
// resolve TypeReference.DefinitionPath and build TypeReference edges (§4.5,
// §4.6); this is the bookkeeping that makes those operations implementable
// and is kept internal to the engine (not part of FileEntry's public
// fields, which match spec.md exactly).
type TypeDefinition struct {
	Name       string
	Kind       string // "struct", "interface", "class", "type_alias", "enum", "trait"
	IsExported bool
	Line       uint32
}

// ResolutionLimits bounds C5's type-reference traversal.
type ResolutionLimits struct {
	MaxDepth          int
	MaxVisitedTypes   int
	MaxResolutionTime time.Duration
}
