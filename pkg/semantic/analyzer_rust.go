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

// rustAnalyzer extracts imports, calls, type references, and definitions
// from Rust source. Rust has no counterpart in the teacher repo; the node
// types below follow tree-sitter-rust's published grammar rather than a
// ported reference implementation. Visibility follows the `pub` keyword
// (spec §3); items with no visibility_modifier child are crate-private.
type rustAnalyzer struct{}

func (rustAnalyzer) Analyze(tree *SyntaxTree, content []byte) ([]Import, []FunctionCall, []TypeReference, []FunctionDefinition, []TypeDefinition) {
	root := tree.Tree.RootNode()

	imports := rustUseDecls(root, content)
	defs := rustFunctionDefs(root, content)
	typeDefs, typeRefsFromDecls := rustTypeDecls(root, content)
	calls, typeRefsFromCalls := rustCallsAndCasts(root, content)

	typeRefs := append(typeRefsFromDecls, typeRefsFromCalls...)

	return imports, calls, typeRefs, defs, typeDefs
}

func rustUseDecls(root *sitter.Node, content []byte) []Import {
	var out []Import
	walk(root, func(n *sitter.Node) bool {
		if n.Type() != "use_declaration" {
			return true
		}
		arg := n.ChildByFieldName("argument")
		if arg == nil {
			return false
		}
		rustCollectUsePaths(arg, content, "", &out, line1(n))
		return false
	})
	return out
}

// rustCollectUsePaths walks a use-tree argument (scoped_identifier,
// use_list, use_as_clause, use_wildcard, identifier) collecting one Import
// per leaf path. prefix accumulates the "::"-joined path seen so far.
func rustCollectUsePaths(n *sitter.Node, content []byte, prefix string, out *[]Import, line uint32) {
	switch n.Type() {
	case "scoped_identifier":
		path := nodeText(n, content)
		if prefix != "" {
			path = prefix + "::" + path
		}
		*out = append(*out, Import{ModuleReference: path, Line: line, IsRelative: rustIsRelativeUse(path)})
	case "scoped_use_list":
		base := n.ChildByFieldName("path")
		list := n.ChildByFieldName("list")
		basePath := prefix
		if base != nil {
			basePath = nodeText(base, content)
			if prefix != "" {
				basePath = prefix + "::" + basePath
			}
		}
		if list != nil {
			for _, c := range namedChildren(list) {
				rustCollectUsePaths(c, content, basePath, out, line)
			}
		}
	case "use_list":
		for _, c := range namedChildren(n) {
			rustCollectUsePaths(c, content, prefix, out, line)
		}
	case "use_as_clause":
		if p := n.ChildByFieldName("path"); p != nil {
			rustCollectUsePaths(p, content, prefix, out, line)
		}
	case "use_wildcard":
		if p := n.Child(0); p != nil {
			rustCollectUsePaths(p, content, prefix, out, line)
		}
	case "identifier", "self", "crate", "super":
		path := nodeText(n, content)
		if prefix != "" {
			path = prefix + "::" + path
		}
		*out = append(*out, Import{ModuleReference: path, Line: line, IsRelative: rustIsRelativeUse(path)})
	}
}

func rustIsRelativeUse(path string) bool {
	return strings.HasPrefix(path, "self") || strings.HasPrefix(path, "super") || strings.HasPrefix(path, "crate")
}

func rustFunctionDefs(root *sitter.Node, content []byte) []FunctionDefinition {
	var defs []FunctionDefinition
	walk(root, func(n *sitter.Node) bool {
		if n.Type() != "function_item" {
			return true
		}
		nameNode := n.ChildByFieldName("name")
		if nameNode == nil {
			return true
		}
		defs = append(defs, FunctionDefinition{
			Name:       nodeText(nameNode, content),
			IsExported: rustHasPubModifier(n),
			Line:       line1(n),
		})
		return true
	})
	return defs
}

func rustTypeDecls(root *sitter.Node, content []byte) ([]TypeDefinition, []TypeReference) {
	var defs []TypeDefinition
	var refs []TypeReference

	walk(root, func(n *sitter.Node) bool {
		var kind string
		switch n.Type() {
		case "struct_item":
			kind = "struct"
		case "enum_item":
			kind = "enum"
		case "trait_item":
			kind = "trait"
		case "type_item":
			kind = "type_alias"
		default:
			return true
		}
		nameNode := n.ChildByFieldName("name")
		if nameNode == nil {
			return true
		}
		defs = append(defs, TypeDefinition{
			Name:       nodeText(nameNode, content),
			Kind:       kind,
			IsExported: rustHasPubModifier(n),
			Line:       line1(n),
		})
		// Field/variant types reference other named types.
		if body := n.ChildByFieldName("body"); body != nil {
			walk(body, func(t *sitter.Node) bool {
				if ref, ok := rustTypeRefFromNode(t, content); ok {
					refs = append(refs, ref)
				}
				return true
			})
		}
		return true
	})
	return defs, refs
}

func rustTypeRefFromNode(n *sitter.Node, content []byte) (TypeReference, bool) {
	switch n.Type() {
	case "type_identifier":
		name := nodeText(n, content)
		if rustIsBuiltinType(name) {
			return TypeReference{}, false
		}
		return TypeReference{Name: name, Line: line1(n)}, true
	case "scoped_type_identifier":
		pathNode := n.ChildByFieldName("path")
		nameNode := n.ChildByFieldName("name")
		if pathNode == nil || nameNode == nil {
			return TypeReference{}, false
		}
		return TypeReference{
			Name:   nodeText(nameNode, content),
			Module: nodeText(pathNode, content),
			Line:   line1(n),
		}, true
	}
	return TypeReference{}, false
}

func rustCallsAndCasts(root *sitter.Node, content []byte) ([]FunctionCall, []TypeReference) {
	var calls []FunctionCall
	var typeRefs []TypeReference

	walk(root, func(n *sitter.Node) bool {
		switch n.Type() {
		case "call_expression":
			fnNode := n.ChildByFieldName("function")
			if fnNode == nil {
				return true
			}
			if call, ok := rustCallFromFunctionNode(fnNode, content); ok {
				call.Line = line1(n)
				calls = append(calls, call)
			}
		case "type_cast_expression":
			if t := n.ChildByFieldName("type"); t != nil {
				if ref, ok := rustTypeRefFromNode(t, content); ok {
					typeRefs = append(typeRefs, ref)
				}
			}
		}
		return true
	})
	return calls, typeRefs
}

func rustCallFromFunctionNode(fnNode *sitter.Node, content []byte) (FunctionCall, bool) {
	switch fnNode.Type() {
	case "identifier":
		return FunctionCall{Name: nodeText(fnNode, content)}, true
	case "scoped_identifier":
		pathNode := fnNode.ChildByFieldName("path")
		nameNode := fnNode.ChildByFieldName("name")
		if nameNode == nil {
			return FunctionCall{}, false
		}
		fc := FunctionCall{Name: nodeText(nameNode, content)}
		if pathNode != nil {
			fc.Module = nodeText(pathNode, content)
		}
		return fc, true
	case "field_expression":
		fieldNode := fnNode.ChildByFieldName("field")
		valueNode := fnNode.ChildByFieldName("value")
		if fieldNode == nil {
			return FunctionCall{}, false
		}
		fc := FunctionCall{Name: nodeText(fieldNode, content), IsMethod: true}
		if valueNode != nil && valueNode.Type() == "identifier" {
			fc.Receiver = nodeText(valueNode, content)
			fc.Module = fc.Receiver
		}
		return fc, true
	}
	return FunctionCall{}, false
}

// rustHasPubModifier reports whether item carries a `pub` (or `pub(...)`)
// visibility_modifier as one of its direct children.
func rustHasPubModifier(item *sitter.Node) bool {
	for i := 0; i < int(item.ChildCount()); i++ {
		if item.Child(i).Type() == "visibility_modifier" {
			return true
		}
	}
	return false
}

func rustIsBuiltinType(name string) bool {
	switch name {
	case "bool", "char", "str",
		"i8", "i16", "i32", "i64", "i128", "isize",
		"u8", "u16", "u32", "u64", "u128", "usize",
		"f32", "f64", "Self":
		return true
	}
	return false
}
