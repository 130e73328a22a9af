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

import "sort"

// Edge is one tagged arc of the DependencyGraph.
type Edge struct {
	Target string
	Tag    RelationshipType
}

// DependencyGraph is a directed multigraph over repo-relative file paths,
// built once per run from resolved FileAnalyses (spec §4.6). It owns only
// node identifiers and edge tags, never file contents.
type DependencyGraph struct {
	nodes    map[string]struct{}
	order    []string // all node paths, sorted — gives deterministic construction/query order
	outEdges map[string][]Edge
	inEdges  map[string][]Edge
}

// funcSite is one place in the repo where an exported function of a given
// name is defined.
type funcSite struct {
	path string
	def  FunctionDefinition
}

// BuildGraph performs the two-pass construction described in spec §4.6:
// first every file becomes a node, then resolved imports, type references,
// and function calls become tagged edges. entries must already have Imports
// and TypeReferences populated with resolution results (C4/C5 have run).
func BuildGraph(entries []*FileEntry) *DependencyGraph {
	g := &DependencyGraph{
		nodes:    make(map[string]struct{}, len(entries)),
		outEdges: make(map[string][]Edge),
		inEdges:  make(map[string][]Edge),
	}

	sorted := make([]*FileEntry, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].RelPath < sorted[j].RelPath })

	for _, e := range sorted {
		g.nodes[e.RelPath] = struct{}{}
		g.order = append(g.order, e.RelPath)
	}

	funcsByName := make(map[string][]funcSite)
	for _, e := range sorted {
		for _, fn := range e.ExportedFunctions {
			if fn.IsExported {
				funcsByName[fn.Name] = append(funcsByName[fn.Name], funcSite{path: e.RelPath, def: fn})
			}
		}
	}
	for name := range funcsByName {
		sort.Slice(funcsByName[name], func(i, j int) bool { return funcsByName[name][i].path < funcsByName[name][j].path })
	}

	for _, e := range sorted {
		for _, imp := range e.Imports {
			if imp.IsExternal || imp.ResolvedPath == "" {
				continue
			}
			if _, ok := g.nodes[imp.ResolvedPath]; ok {
				g.addEdge(e.RelPath, imp.ResolvedPath, RelImport)
			}
		}
		for _, tr := range e.TypeReferences {
			if tr.DefinitionPath == "" {
				continue
			}
			if _, ok := g.nodes[tr.DefinitionPath]; ok {
				g.addEdge(e.RelPath, tr.DefinitionPath, RelTypeReference)
			}
		}
		for _, call := range e.FunctionCalls {
			for _, target := range matchFunctionCall(call, funcsByName) {
				g.addEdge(e.RelPath, target, RelFunctionCall)
			}
		}
	}

	return g
}

// matchFunctionCall implements the best-effort FunctionCall edge rule (spec
// §4.6, §9): match by name, refined by module qualifier when present;
// multiple surviving candidates each get an edge.
func matchFunctionCall(call FunctionCall, funcsByName map[string][]funcSite) []string {
	sites := funcsByName[call.Name]
	if len(sites) == 0 {
		return nil
	}
	if call.Module == "" {
		return sitePaths(sites)
	}
	var matched []string
	for _, s := range sites {
		if pathMatchesQualifier(s.path, call.Module) {
			matched = append(matched, s.path)
		}
	}
	if len(matched) > 0 {
		return matched
	}
	return sitePaths(sites) // fallback: match by name alone
}

func sitePaths(sites []funcSite) []string {
	out := make([]string, len(sites))
	for i, s := range sites {
		out[i] = s.path
	}
	return out
}

func (g *DependencyGraph) addEdge(from, to string, tag RelationshipType) {
	g.outEdges[from] = append(g.outEdges[from], Edge{Target: to, Tag: tag})
	g.inEdges[to] = append(g.inEdges[to], Edge{Target: from, Tag: tag})
}

// Nodes returns every node path in sorted order.
func (g *DependencyGraph) Nodes() []string {
	out := make([]string, len(g.order))
	copy(out, g.order)
	return out
}

type pathDepth struct {
	path  string
	depth int
}

// Dependencies runs BFS along outgoing edges of any tag from file, stopping
// at maxDepth, in deterministic (depth, path) order. The start file is
// included at depth 0.
func (g *DependencyGraph) Dependencies(file string, maxDepth int) []string {
	return g.bfs(file, maxDepth, g.outEdges)
}

// ReverseDependencies is Dependencies along incoming edges.
func (g *DependencyGraph) ReverseDependencies(file string, maxDepth int) []string {
	return g.bfs(file, maxDepth, g.inEdges)
}

// DependenciesAlong is Dependencies restricted to edges tagged with one of
// tags — the selection expander's trace-imports/include-types knobs each
// follow a single tag rather than the full multigraph (spec §7's
// trace-imports/include-types/include-callers flags).
func (g *DependencyGraph) DependenciesAlong(file string, maxDepth int, tags ...RelationshipType) []string {
	return g.bfs(file, maxDepth, filterEdgesByTag(g.outEdges, tags))
}

// ReverseDependenciesAlong is ReverseDependencies restricted to tags.
func (g *DependencyGraph) ReverseDependenciesAlong(file string, maxDepth int, tags ...RelationshipType) []string {
	return g.bfs(file, maxDepth, filterEdgesByTag(g.inEdges, tags))
}

func filterEdgesByTag(edges map[string][]Edge, tags []RelationshipType) map[string][]Edge {
	allowed := make(map[RelationshipType]bool, len(tags))
	for _, t := range tags {
		allowed[t] = true
	}
	out := make(map[string][]Edge, len(edges))
	for node, es := range edges {
		var kept []Edge
		for _, e := range es {
			if allowed[e.Tag] {
				kept = append(kept, e)
			}
		}
		if kept != nil {
			out[node] = kept
		}
	}
	return out
}

func (g *DependencyGraph) bfs(start string, maxDepth int, edges map[string][]Edge) []string {
	if _, ok := g.nodes[start]; !ok {
		return nil
	}
	visited := map[string]int{start: 0}
	frontier := []string{start}
	var result []pathDepth
	result = append(result, pathDepth{start, 0})

	for depth := 0; depth < maxDepth && len(frontier) > 0; depth++ {
		var next []string
		sort.Strings(frontier)
		for _, node := range frontier {
			targets := make([]string, 0, len(edges[node]))
			for _, e := range edges[node] {
				targets = append(targets, e.Target)
			}
			sort.Strings(targets)
			for _, t := range targets {
				if _, seen := visited[t]; seen {
					continue
				}
				visited[t] = depth + 1
				result = append(result, pathDepth{t, depth + 1})
				next = append(next, t)
			}
		}
		frontier = next
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].depth != result[j].depth {
			return result[i].depth < result[j].depth
		}
		return result[i].path < result[j].path
	})
	out := make([]string, len(result))
	for i, pd := range result {
		out[i] = pd.path
	}
	return out
}

// DirectImporters returns the direct predecessors of file along Import
// edges only.
func (g *DependencyGraph) DirectImporters(file string) []string {
	return g.directTagged(file, g.inEdges, RelImport)
}

// DirectImports returns the direct successors of file along Import edges
// only.
func (g *DependencyGraph) DirectImports(file string) []string {
	return g.directTagged(file, g.outEdges, RelImport)
}

func (g *DependencyGraph) directTagged(file string, edges map[string][]Edge, tag RelationshipType) []string {
	seen := make(map[string]struct{})
	for _, e := range edges[file] {
		if e.Tag == tag {
			seen[e.Target] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for p := range seen {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// HasPath reports reachability from "from" to "to" under any edge tag.
func (g *DependencyGraph) HasPath(from, to string) bool {
	if from == to {
		if _, ok := g.nodes[from]; ok {
			return true
		}
		return false
	}
	if _, ok := g.nodes[from]; !ok {
		return false
	}
	visited := map[string]struct{}{from: {}}
	queue := []string{from}
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		for _, e := range g.outEdges[node] {
			if e.Target == to {
				return true
			}
			if _, seen := visited[e.Target]; !seen {
				visited[e.Target] = struct{}{}
				queue = append(queue, e.Target)
			}
		}
	}
	return false
}
