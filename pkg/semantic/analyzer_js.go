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
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// jsAnalyzer extracts imports, calls, type references, and definitions
// from JavaScript and TypeScript source. The grammars are close enough
// that one analyzer handles both; `typescript` only gates the
// interface/type-alias/annotation extraction the JS grammar doesn't have.
type jsAnalyzer struct {
	typescript bool
}

func (a jsAnalyzer) Analyze(tree *SyntaxTree, content []byte) ([]Import, []FunctionCall, []TypeReference, []FunctionDefinition, []TypeDefinition) {
	root := tree.Tree.RootNode()

	imports := jsImports(root, content)
	calls := jsCalls(root, content)
	defs, typeDefs := jsTopLevelDefs(root, content)

	var typeRefs []TypeReference
	if a.typescript {
		typeRefs = tsTypeRefs(root, content)
	}

	return imports, calls, typeRefs, defs, typeDefs
}

func jsImports(root *sitter.Node, content []byte) []Import {
	var out []Import
	walk(root, func(n *sitter.Node) bool {
		switch n.Type() {
		case "import_statement":
			if src := n.ChildByFieldName("source"); src != nil {
				ref := strings.Trim(nodeText(src, content), `"'`)
				out = append(out, Import{ModuleReference: ref, Line: line1(n), IsRelative: jsIsRelative(ref)})
			}
			return false
		case "export_statement":
			// Re-exports: export { x } from './mod'
			if src := n.ChildByFieldName("source"); src != nil {
				ref := strings.Trim(nodeText(src, content), `"'`)
				out = append(out, Import{ModuleReference: ref, Line: line1(n), IsRelative: jsIsRelative(ref)})
			}
		case "call_expression":
			// require('mod') and dynamic import('mod').
			fnNode := n.ChildByFieldName("function")
			if fnNode == nil {
				return true
			}
			fnName := nodeText(fnNode, content)
			if fnName != "require" && fnName != "import" {
				return true
			}
			args := n.ChildByFieldName("arguments")
			if args == nil {
				return true
			}
			for _, arg := range namedChildren(args) {
				if arg.Type() == "string" {
					ref := strings.Trim(nodeText(arg, content), `"'`)
					out = append(out, Import{ModuleReference: ref, Line: line1(n), IsRelative: jsIsRelative(ref)})
					break
				}
			}
		}
		return true
	})
	return out
}

func jsIsRelative(ref string) bool {
	return strings.HasPrefix(ref, "./") || strings.HasPrefix(ref, "../")
}

func jsCalls(root *sitter.Node, content []byte) []FunctionCall {
	var calls []FunctionCall
	walk(root, func(n *sitter.Node) bool {
		if n.Type() != "call_expression" {
			return true
		}
		fnNode := n.ChildByFieldName("function")
		if fnNode == nil {
			return true
		}
		switch fnNode.Type() {
		case "identifier":
			name := nodeText(fnNode, content)
			if name == "require" || name == "import" {
				return true
			}
			calls = append(calls, FunctionCall{Name: name, Line: line1(n)})
		case "member_expression":
			prop := fnNode.ChildByFieldName("property")
			obj := fnNode.ChildByFieldName("object")
			if prop == nil {
				return true
			}
			fc := FunctionCall{Name: nodeText(prop, content), Line: line1(n), IsMethod: true}
			if obj != nil && obj.Type() == "identifier" {
				fc.Receiver = nodeText(obj, content)
				fc.Module = fc.Receiver
			}
			calls = append(calls, fc)
		}
		return true
	})
	return calls
}

func jsTopLevelDefs(root *sitter.Node, content []byte) ([]FunctionDefinition, []TypeDefinition) {
	var defs []FunctionDefinition
	var types []TypeDefinition

	walk(root, func(n *sitter.Node) bool {
		declNode := n
		exported := false
		if n.Type() == "export_statement" {
			exported = true
			if d := n.ChildByFieldName("declaration"); d != nil {
				declNode = d
			} else {
				return true
			}
		}

		switch declNode.Type() {
		case "function_declaration", "generator_function_declaration":
			if nameNode := declNode.ChildByFieldName("name"); nameNode != nil {
				defs = append(defs, FunctionDefinition{
					Name: nodeText(nameNode, content), IsExported: exported, Line: line1(declNode),
				})
			}
		case "class_declaration":
			if nameNode := declNode.ChildByFieldName("name"); nameNode != nil {
				types = append(types, TypeDefinition{
					Name: nodeText(nameNode, content), Kind: "class", IsExported: exported, Line: line1(declNode),
				})
			}
		case "interface_declaration":
			if nameNode := declNode.ChildByFieldName("name"); nameNode != nil {
				types = append(types, TypeDefinition{
					Name: nodeText(nameNode, content), Kind: "interface", IsExported: exported, Line: line1(declNode),
				})
			}
		case "type_alias_declaration":
			if nameNode := declNode.ChildByFieldName("name"); nameNode != nil {
				types = append(types, TypeDefinition{
					Name: nodeText(nameNode, content), Kind: "type_alias", IsExported: exported, Line: line1(declNode),
				})
			}
		}
		return declNode == n // don't double-descend into the export wrapper's declaration
	})
	return defs, types
}

// tsTypeRefs collects type references from TypeScript's type_annotation
// positions: parameter/return annotations, generic type arguments.
func tsTypeRefs(root *sitter.Node, content []byte) []TypeReference {
	var out []TypeReference
	walk(root, func(n *sitter.Node) bool {
		if n.Type() != "type_annotation" {
			return true
		}
		walk(n, func(t *sitter.Node) bool {
			switch t.Type() {
			case "type_identifier":
				name := nodeText(t, content)
				if !tsIsBuiltinType(name) {
					out = append(out, TypeReference{Name: name, Line: line1(t)})
				}
			case "nested_type_identifier":
				// module.Type
				if module := t.Child(0); module != nil && int(t.ChildCount()) >= 3 {
					name := t.Child(int(t.ChildCount()) - 1)
					out = append(out, TypeReference{
						Name: nodeText(name, content), Module: nodeText(module, content), Line: line1(t),
					})
					return false
				}
			}
			return true
		})
		return false
	})
	return out
}

func tsIsBuiltinType(name string) bool {
	switch name {
	case "string", "number", "boolean", "any", "unknown", "void", "never",
		"object", "undefined", "null", "symbol", "bigint":
		return true
	}
	return false
}
