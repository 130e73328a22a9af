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

// pythonAnalyzer extracts imports, calls, type references, and definitions
// from Python source. Python has no visibility keywords; spec §3 treats
// every top-level def/class as exported.
type pythonAnalyzer struct{}

func (pythonAnalyzer) Analyze(tree *SyntaxTree, content []byte) ([]Import, []FunctionCall, []TypeReference, []FunctionDefinition, []TypeDefinition) {
	root := tree.Tree.RootNode()

	imports := pythonImports(root, content)
	defs, typeDefs := pythonTopLevelDefs(root, content)
	calls := pythonCalls(root, content)
	typeRefs := pythonAnnotationTypeRefs(root, content)

	return imports, calls, typeRefs, defs, typeDefs
}

func pythonImports(root *sitter.Node, content []byte) []Import {
	var out []Import
	walk(root, func(n *sitter.Node) bool {
		switch n.Type() {
		case "import_statement":
			for _, c := range namedChildren(n) {
				out = append(out, pythonImportTargets(c, content, line1(n))...)
			}
			return false
		case "import_from_statement":
			moduleNode := n.ChildByFieldName("module_name")
			ref := ""
			relative := false
			if moduleNode != nil {
				ref = nodeText(moduleNode, content)
			}
			// "from . import x" / "from .. import x": tree-sitter-python
			// represents the leading dots as part of a relative_import
			// node, or as "." tokens preceding module_name when a module
			// follows the dots. When module_name is itself that node, its
			// text already carries the dots and is not prepended again.
			walk(n, func(t *sitter.Node) bool {
				if t.Type() == "relative_import" || t.Type() == "import_prefix" {
					relative = true
					if moduleNode == nil || t.StartByte() != moduleNode.StartByte() || t.EndByte() != moduleNode.EndByte() {
						ref = nodeText(t, content) + ref
					}
				}
				return t == n
			})
			if strings.HasPrefix(ref, ".") {
				relative = true
			}
			if ref != "" {
				out = append(out, Import{ModuleReference: ref, Line: line1(n), IsRelative: relative})
			}
			return false
		}
		return true
	})
	return out
}

func pythonImportTargets(n *sitter.Node, content []byte, line uint32) []Import {
	switch n.Type() {
	case "dotted_name":
		return []Import{{ModuleReference: nodeText(n, content), Line: line}}
	case "aliased_import":
		if name := n.ChildByFieldName("name"); name != nil {
			return []Import{{ModuleReference: nodeText(name, content), Line: line}}
		}
	}
	return nil
}

func pythonTopLevelDefs(root *sitter.Node, content []byte) ([]FunctionDefinition, []TypeDefinition) {
	var defs []FunctionDefinition
	var types []TypeDefinition

	var visit func(n *sitter.Node, classPrefix string)
	visit = func(n *sitter.Node, classPrefix string) {
		if n == nil {
			return
		}
		switch n.Type() {
		case "function_definition":
			if nameNode := n.ChildByFieldName("name"); nameNode != nil {
				name := nodeText(nameNode, content)
				if classPrefix != "" {
					name = classPrefix + "." + name
				}
				defs = append(defs, FunctionDefinition{Name: name, IsExported: true, Line: line1(n)})
			}
			return // don't descend into nested function bodies for defs
		case "class_definition":
			if nameNode := n.ChildByFieldName("name"); nameNode != nil {
				name := nodeText(nameNode, content)
				types = append(types, TypeDefinition{Name: name, Kind: "class", IsExported: true, Line: line1(n)})
				if body := n.ChildByFieldName("body"); body != nil {
					for _, c := range namedChildren(body) {
						visit(c, name)
					}
				}
			}
			return
		}
		for _, c := range namedChildren(n) {
			visit(c, classPrefix)
		}
	}
	visit(root, "")
	return defs, types
}

func pythonCalls(root *sitter.Node, content []byte) []FunctionCall {
	var calls []FunctionCall
	walk(root, func(n *sitter.Node) bool {
		if n.Type() != "call" {
			return true
		}
		fnNode := n.ChildByFieldName("function")
		if fnNode == nil {
			return true
		}
		switch fnNode.Type() {
		case "identifier":
			calls = append(calls, FunctionCall{Name: nodeText(fnNode, content), Line: line1(n)})
		case "attribute":
			attr := fnNode.ChildByFieldName("attribute")
			obj := fnNode.ChildByFieldName("object")
			if attr == nil {
				return true
			}
			fc := FunctionCall{Name: nodeText(attr, content), Line: line1(n), IsMethod: true}
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

// pythonAnnotationTypeRefs collects type references from parameter and
// return annotations (spec §4.3: "parameter/return annotations").
func pythonAnnotationTypeRefs(root *sitter.Node, content []byte) []TypeReference {
	var out []TypeReference
	walk(root, func(n *sitter.Node) bool {
		switch n.Type() {
		case "typed_parameter", "typed_default_parameter":
			if t := n.ChildByFieldName("type"); t != nil {
				out = append(out, pythonTypeRefsFromAnnotation(t, content)...)
			}
		case "function_definition":
			if t := n.ChildByFieldName("return_type"); t != nil {
				out = append(out, pythonTypeRefsFromAnnotation(t, content)...)
			}
		}
		return true
	})
	return out
}

func pythonTypeRefsFromAnnotation(n *sitter.Node, content []byte) []TypeReference {
	var out []TypeReference
	walk(n, func(t *sitter.Node) bool {
		switch t.Type() {
		case "identifier":
			name := nodeText(t, content)
			if !pythonIsBuiltinType(name) {
				out = append(out, TypeReference{Name: name, Line: line1(t)})
			}
		case "attribute":
			// module.Type annotations, e.g. "typing.Optional".
			if attr := t.ChildByFieldName("attribute"); attr != nil {
				if obj := t.ChildByFieldName("object"); obj != nil {
					out = append(out, TypeReference{
						Name:   nodeText(attr, content),
						Module: nodeText(obj, content),
						Line:   line1(t),
					})
					return false
				}
			}
		}
		return true
	})
	return out
}

func pythonIsBuiltinType(name string) bool {
	switch name {
	case "int", "str", "float", "bool", "bytes", "list", "dict", "set", "tuple",
		"None", "object", "Any", "frozenset", "complex":
		return true
	}
	return false
}
