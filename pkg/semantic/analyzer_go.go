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
	"unicode"

	sitter "github.com/smacker/go-tree-sitter"
)

// goAnalyzer extracts imports, calls, type references, and definitions from
// Go source using tree-sitter's Go grammar. Visibility follows Go's
// capitalization rule (spec §3).
type goAnalyzer struct{}

func (goAnalyzer) Analyze(tree *SyntaxTree, content []byte) ([]Import, []FunctionCall, []TypeReference, []FunctionDefinition, []TypeDefinition) {
	root := tree.Tree.RootNode()

	imports := goImports(root, content)
	defs, typeRefsFromSigs := goFunctionDefs(root, content)
	typeDefs, typeRefsFromDecls := goTypeDecls(root, content)
	calls, typeRefsFromCalls := goCallsAndDowncasts(root, content)

	typeRefs := append(typeRefsFromSigs, typeRefsFromDecls...)
	typeRefs = append(typeRefs, typeRefsFromCalls...)

	return imports, calls, typeRefs, defs, typeDefs
}

func goImports(root *sitter.Node, content []byte) []Import {
	var out []Import
	for i := 0; i < int(root.ChildCount()); i++ {
		child := root.Child(i)
		if child.Type() != "import_declaration" {
			continue
		}
		walk(child, func(n *sitter.Node) bool {
			if n.Type() != "import_spec" {
				return true
			}
			pathNode := n.ChildByFieldName("path")
			if pathNode == nil {
				return false
			}
			ref := strings.Trim(nodeText(pathNode, content), `"`)
			out = append(out, Import{
				ModuleReference: ref,
				Line:            line1(n),
				IsRelative:      false, // Go has no relative import syntax
			})
			return false
		})
	}
	return out
}

func goFunctionDefs(root *sitter.Node, content []byte) ([]FunctionDefinition, []TypeReference) {
	var defs []FunctionDefinition
	var typeRefs []TypeReference

	walk(root, func(n *sitter.Node) bool {
		switch n.Type() {
		case "function_declaration", "method_declaration":
			nameNode := n.ChildByFieldName("name")
			if nameNode == nil {
				return true
			}
			name := nodeText(nameNode, content)
			defs = append(defs, FunctionDefinition{
				Name:       name,
				IsExported: isGoExported(name),
				Line:       line1(n),
			})
			typeRefs = append(typeRefs, goSignatureTypeRefs(n, content)...)
			return true
		}
		return true
	})
	return defs, typeRefs
}

func goSignatureTypeRefs(fn *sitter.Node, content []byte) []TypeReference {
	var out []TypeReference
	collect := func(n *sitter.Node) {
		if n == nil {
			return
		}
		walk(n, func(t *sitter.Node) bool {
			if ref, ok := goTypeRefFromNode(t, content); ok {
				out = append(out, ref)
			}
			return true
		})
	}
	if recv := fn.ChildByFieldName("receiver"); recv != nil {
		collect(recv)
	}
	collect(fn.ChildByFieldName("parameters"))
	collect(fn.ChildByFieldName("result"))
	return out
}

// goTypeRefFromNode recognizes the handful of node types that denote a
// reference to a named type in Go's grammar: a bare identifier used as a
// type, or a qualified_type (pkg.Type) for types imported from elsewhere.
func goTypeRefFromNode(n *sitter.Node, content []byte) (TypeReference, bool) {
	switch n.Type() {
	case "type_identifier":
		name := nodeText(n, content)
		if isGoBuiltinType(name) {
			return TypeReference{}, false
		}
		return TypeReference{Name: name, Line: line1(n)}, true
	case "qualified_type":
		pkgNode := n.ChildByFieldName("package")
		nameNode := n.ChildByFieldName("name")
		if pkgNode == nil || nameNode == nil {
			return TypeReference{}, false
		}
		return TypeReference{
			Name:   nodeText(nameNode, content),
			Module: nodeText(pkgNode, content),
			Line:   line1(n),
		}, true
	}
	return TypeReference{}, false
}

func goTypeDecls(root *sitter.Node, content []byte) ([]TypeDefinition, []TypeReference) {
	var defs []TypeDefinition
	var refs []TypeReference

	walk(root, func(n *sitter.Node) bool {
		if n.Type() != "type_declaration" {
			return true
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			spec := n.Child(i)
			if spec.Type() != "type_spec" {
				continue
			}
			nameNode := spec.ChildByFieldName("name")
			typeNode := spec.ChildByFieldName("type")
			if nameNode == nil {
				continue
			}
			name := nodeText(nameNode, content)
			kind := "type_alias"
			if typeNode != nil {
				switch typeNode.Type() {
				case "struct_type":
					kind = "struct"
				case "interface_type":
					kind = "interface"
				}
				// Field/embedded type references inside the declaration
				// (struct fields, interface method signatures).
				walk(typeNode, func(t *sitter.Node) bool {
					if ref, ok := goTypeRefFromNode(t, content); ok {
						refs = append(refs, ref)
					}
					return true
				})
			}
			defs = append(defs, TypeDefinition{
				Name:       name,
				Kind:       kind,
				IsExported: isGoExported(name),
				Line:       line1(spec),
			})
		}
		return true
	})
	return defs, refs
}

func goCallsAndDowncasts(root *sitter.Node, content []byte) ([]FunctionCall, []TypeReference) {
	var calls []FunctionCall
	var typeRefs []TypeReference

	walk(root, func(n *sitter.Node) bool {
		switch n.Type() {
		case "call_expression":
			fnNode := n.ChildByFieldName("function")
			if fnNode == nil {
				return true
			}
			call, ok := goCallFromFunctionNode(fnNode, content)
			if ok {
				call.Line = line1(n)
				calls = append(calls, call)
			}
		case "type_assertion_expression":
			// x.(SomeType) — a downcast, a type-requiring position per
			// spec §4.3.
			// The asserted type may be wrapped (x.(*T), x.([]T)), so the
			// whole type subtree is searched.
			if t := n.ChildByFieldName("type"); t != nil {
				walk(t, func(c *sitter.Node) bool {
					ref, ok := goTypeRefFromNode(c, content)
					if ok {
						typeRefs = append(typeRefs, ref)
					}
					return !ok
				})
			}
		}
		return true
	})
	return calls, typeRefs
}

// goCallFromFunctionNode classifies the callee expression of a
// call_expression: a bare identifier is a function call; a
// selector_expression is either "pkg.Func" (module-qualified call) or
// "recv.Method" (method call).
func goCallFromFunctionNode(fnNode *sitter.Node, content []byte) (FunctionCall, bool) {
	switch fnNode.Type() {
	case "identifier":
		return FunctionCall{Name: nodeText(fnNode, content)}, true
	case "selector_expression":
		operand := fnNode.ChildByFieldName("operand")
		field := fnNode.ChildByFieldName("field")
		if field == nil {
			return FunctionCall{}, false
		}
		name := nodeText(field, content)
		if operand != nil && operand.Type() == "identifier" {
			qualifier := nodeText(operand, content)
			// Heuristic shared with the module resolver: a lowercase
			// identifier operand used as a package qualifier is
			// indistinguishable syntactically from a receiver variable, so
			// both module and receiver are recorded; the graph builder
			// tries module-qualified matching first, falling back to
			// name-only (spec §4.6, §9).
			return FunctionCall{Name: name, Module: qualifier, IsMethod: true, Receiver: qualifier}, true
		}
		return FunctionCall{Name: name, IsMethod: true}, true
	}
	return FunctionCall{}, false
}

func isGoExported(name string) bool {
	if name == "" {
		return false
	}
	r := []rune(name)[0]
	return unicode.IsUpper(r)
}

func isGoBuiltinType(name string) bool {
	switch name {
	case "bool", "string", "error", "any",
		"int", "int8", "int16", "int32", "int64",
		"uint", "uint8", "uint16", "uint32", "uint64", "uintptr",
		"byte", "rune", "float32", "float64", "complex64", "complex128":
		return true
	}
	return false
}
