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
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// pathMatchesQualifier reports whether path's file stem or parent directory
// name equals qualifier, the same weak heuristic used to refine
// FunctionCall edge matching (spec §9).
func pathMatchesQualifier(path, qualifier string) bool {
	base := filepath.Base(path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if stem == qualifier {
		return true
	}
	return filepath.Base(filepath.Dir(path)) == qualifier
}

// typeDefSite is one place in the repo where a type of a given name is
// defined.
type typeDefSite struct {
	path string
	def  TypeDefinition
}

// TypeIndex is a name-keyed index over every TypeDefinition produced by
// Stage 1, used by the Type Resolver to find candidate definition files.
type TypeIndex struct {
	byName map[string][]typeDefSite
	// refsByPath holds, per file, the TypeReferences that file's own
	// analysis recorded — used to continue the chain when a type's
	// definition itself references other named types (spec §4.5).
	refsByPath map[string][]TypeReference
}

// BuildTypeIndex assembles a TypeIndex from every file's per-file
// TypeDefinition and TypeReference lists (engine-internal; see
// TypeDefinition's doc comment).
func BuildTypeIndex(typeDefsByPath map[string][]TypeDefinition, typeRefsByPath map[string][]TypeReference) *TypeIndex {
	idx := &TypeIndex{
		byName:     make(map[string][]typeDefSite),
		refsByPath: typeRefsByPath,
	}
	for path, defs := range typeDefsByPath {
		for _, d := range defs {
			idx.byName[d.Name] = append(idx.byName[d.Name], typeDefSite{path: path, def: d})
		}
	}
	for name := range idx.byName {
		sites := idx.byName[name]
		sort.Slice(sites, func(i, j int) bool { return sites[i].path < sites[j].path })
		idx.byName[name] = sites
	}
	return idx
}

// candidates returns the definition sites matching name, preferring ones
// whose containing file matches module when module is non-empty. Module
// matching is a best-effort heuristic: a file "matches" a module qualifier
// when its path's final component (minus extension) or parent directory
// name equals the qualifier, mirroring the same weak-qualifier approach
// used for FunctionCall edges (spec §9).
func (idx *TypeIndex) candidates(name, module string) []typeDefSite {
	sites := idx.byName[name]
	if module == "" || len(sites) == 0 {
		return sites
	}
	var matched []typeDefSite
	for _, s := range sites {
		if pathMatchesQualifier(s.path, module) {
			matched = append(matched, s)
		}
	}
	if len(matched) > 0 {
		return matched
	}
	return sites // fallback: match by name alone (spec §4.6, §9)
}

// TypeResolver resolves TypeReferences to their defining file, bounded by
// three circuit breakers applied on every recursion step (spec §4.5).
type TypeResolver struct {
	index  *TypeIndex
	limits ResolutionLimits
}

func NewTypeResolver(index *TypeIndex, limits ResolutionLimits) *TypeResolver {
	return &TypeResolver{index: index, limits: limits}
}

// TypeResolution is the outcome of a root-level type resolution: the
// reference enriched with DefinitionPath/Truncated (spec §4.5's
// resolve_with_limits return), plus the full set of files transitively
// reachable through the type's own definition. The engine keeps only Ref;
// selection expansion's include-types flag walks TypeReference graph edges
// and does not read Closure.
type TypeResolution struct {
	Ref       TypeReference
	Truncated bool
	Reason    string
	Closure   []string // repo-relative paths, sorted
}

// ResolveRoot starts a fresh walk for one top-level TypeReference: a clean
// cache and visited set, a deadline max_resolution_time from now. The cache
// is cleared between top-level resolutions, as required by spec §4.5, by
// virtue of being allocated fresh here rather than held on the resolver.
func (tr *TypeResolver) ResolveRoot(ref TypeReference) TypeResolution {
	w := &typeWalk{
		index:    tr.index,
		limits:   tr.limits,
		cache:    make(map[typeKey]string),
		visited:  make(map[typeKey]bool),
		deadline: time.Now().Add(tr.limits.MaxResolutionTime),
	}
	path, truncated, reason := w.resolve(ref, 0)
	ref.DefinitionPath = path
	ref.Truncated = truncated

	closure := make([]string, 0, len(w.closure))
	for p := range w.closure {
		closure = append(closure, p)
	}
	sort.Strings(closure)

	return TypeResolution{Ref: ref, Truncated: truncated, Reason: reason, Closure: closure}
}

type typeKey struct {
	name   string
	module string
}

func keyOf(ref TypeReference) typeKey { return typeKey{name: ref.Name, module: ref.Module} }

// typeWalk holds the mutable state of a single ResolveRoot call: the
// resolution cache, the visited set (both circuit breakers and cycle
// guards), the accumulated reachable-file closure, and the wall-clock
// deadline.
type typeWalk struct {
	index    *TypeIndex
	limits   ResolutionLimits
	cache    map[typeKey]string
	visited  map[typeKey]bool
	closure  map[string]struct{}
	deadline time.Time
}

// resolve implements resolve_with_limits: finds ref's definition file,
// records it in the closure, and — budget permitting — follows every type
// reference found in that file's own analysis, one hop deeper. Returns the
// resolved path (empty if no candidate exists), whether any circuit breaker
// fired during this or a descendant call, and the reason for the first
// breaker that fired.
func (w *typeWalk) resolve(ref TypeReference, depth int) (path string, truncated bool, reason string) {
	if time.Now().After(w.deadline) {
		return "", true, "max_resolution_time exceeded"
	}
	if depth >= w.limits.MaxDepth {
		return "", true, "max_depth exceeded"
	}

	key := keyOf(ref)
	if p, ok := w.cache[key]; ok {
		return p, false, ""
	}
	if w.visited[key] {
		// Already on this walk: skip to prevent cycles, not an error.
		return "", false, ""
	}
	if len(w.visited) >= w.limits.MaxVisitedTypes {
		return "", true, "max_visited_types exceeded"
	}
	w.visited[key] = true

	sites := w.index.candidates(ref.Name, ref.Module)
	if len(sites) == 0 {
		return "", false, ""
	}
	site := sites[0]
	w.cache[key] = site.path
	if w.closure == nil {
		w.closure = make(map[string]struct{})
	}
	w.closure[site.path] = struct{}{}

	for _, nested := range w.index.refsByPath[site.path] {
		if nested.Name == ref.Name && nested.Module == ref.Module {
			continue // a type referencing itself by name within its own file
		}
		_, childTruncated, childReason := w.resolve(nested, depth+1)
		if childTruncated {
			return site.path, true, childReason
		}
	}

	return site.path, false, ""
}
