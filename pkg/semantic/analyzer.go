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
	sitter "github.com/smacker/go-tree-sitter"
)

// Analyzer extracts imports, calls, type references, and exported
// definitions from one parsed file (spec §4.3). Analyzers are stateless
// with respect to other files; all cross-file resolution is deferred to
// C4/C6.
type Analyzer interface {
	// Analyze runs the language's syntactic queries against tree and
	// returns the extracted results (ContentHash and AnalysisError are
	// filled in by the caller onto FileEntry, not by the analyzer).
	// typeDefs is engine-internal bookkeeping (see TypeDefinition) used to
	// resolve TypeReference edges; it is never stored on FileEntry.
	Analyze(tree *SyntaxTree, content []byte) (imports []Import, calls []FunctionCall, typeRefs []TypeReference, defs []FunctionDefinition, typeDefs []TypeDefinition)
}

// analyzers maps each supported language to its Analyzer. A language with
// no entry here still produces an empty, error-free FileEntry (spec §4.3:
// "A non-supported language yields an empty analysis result with no
// error").
var analyzers = map[Language]Analyzer{
	LangGo:         goAnalyzer{},
	LangPython:     pythonAnalyzer{},
	LangJavaScript: jsAnalyzer{typescript: false},
	LangTypeScript: jsAnalyzer{typescript: true},
	LangRust:       rustAnalyzer{},
}

// nodeText returns the source slice covered by node.
func nodeText(node *sitter.Node, content []byte) string {
	if node == nil {
		return ""
	}
	return string(content[node.StartByte():node.EndByte()])
}

// line1 converts a tree-sitter 0-based row to spec's 1-based line numbers.
func line1(node *sitter.Node) uint32 {
	if node == nil {
		return 0
	}
	return uint32(node.StartPoint().Row) + 1
}

// walk calls visit for node and every descendant, depth-first, stopping
// the descent into a subtree when visit returns false.
func walk(node *sitter.Node, visit func(*sitter.Node) bool) {
	if node == nil {
		return
	}
	if !visit(node) {
		return
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		walk(node.Child(i), visit)
	}
}

// namedChildren returns the named (non-punctuation) children of node.
func namedChildren(node *sitter.Node) []*sitter.Node {
	if node == nil {
		return nil
	}
	out := make([]*sitter.Node, 0, node.NamedChildCount())
	for i := 0; i < int(node.NamedChildCount()); i++ {
		out = append(out, node.NamedChild(i))
	}
	return out
}
