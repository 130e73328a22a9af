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
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode"
)

// Resolution records what happened when resolving a module reference: its
// Outcome is Resolved (path found), External (ecosystem package), or
// Unresolved (neither, see UnresolvedReason).
type Resolution struct {
	Outcome  ResolutionOutcome
	Path     string // repo-relative; set iff Outcome == ResolutionResolved
	Package  string // set iff Outcome == External
	Reason   UnresolvedReason
	Rejected bool // true when rejectReference refused the reference up front (empty, absolute, control chars); path escapes report ReasonPathEscape instead
}

// ModuleResolver maps a symbolic module reference to a concrete file within
// one repository root, per-language (spec §4.4).
type ModuleResolver struct {
	repoBase string // absolute, cleaned

	// rustManifestCrates is the set of third-party crate names declared in
	// the project's Cargo.toml, when available (see SPEC_FULL open question
	// on Rust external-package detection).
	rustManifestCrates map[string]struct{}

	// tsConfigPaths maps a bare tsconfig.json "paths" alias prefix to a
	// repo-relative directory it redirects into (spec §4.4, §9 open
	// question: honoring tsconfig path mapping is preferred over ignoring).
	tsConfigPaths map[string]string

	// tsConfigAliasesByLength holds tsConfigPaths' keys sorted longest-first
	// (ties broken lexically) so resolveJSLike always picks the same alias
	// when more than one prefixes a reference (spec §8 determinism).
	tsConfigAliasesByLength []string

	// exists abstracts os.Stat so tests can substitute an in-memory set.
	exists func(absPath string) bool
}

// NewModuleResolver builds a resolver rooted at repoBase. rustManifestCrates
// and tsConfigPaths may be nil when no manifest/tsconfig was found.
func NewModuleResolver(repoBase string, rustManifestCrates map[string]struct{}, tsConfigPaths map[string]string) *ModuleResolver {
	clean := filepath.Clean(repoBase)
	aliases := make([]string, 0, len(tsConfigPaths))
	for alias := range tsConfigPaths {
		aliases = append(aliases, alias)
	}
	sort.Slice(aliases, func(i, j int) bool {
		if len(aliases[i]) != len(aliases[j]) {
			return len(aliases[i]) > len(aliases[j])
		}
		return aliases[i] < aliases[j]
	})
	return &ModuleResolver{
		repoBase:                clean,
		rustManifestCrates:      rustManifestCrates,
		tsConfigPaths:           tsConfigPaths,
		tsConfigAliasesByLength: aliases,
		exists:                  fileExists,
	}
}

func fileExists(absPath string) bool {
	info, err := os.Stat(absPath)
	return err == nil && !info.IsDir()
}

var extensionsByLanguage = map[Language][]string{
	LangGo:         {".go"},
	LangRust:       {".rs"},
	LangPython:     {".py"},
	LangJavaScript: {".js", ".jsx"},
	LangTypeScript: {".ts", ".tsx"},
}

var indexFileByLanguage = map[Language][]string{
	LangRust:       {"mod.rs"},
	LangPython:     {"__init__.py"},
	LangJavaScript: {"index.js", "index.jsx"},
	LangTypeScript: {"index.ts", "index.tsx"},
}

// Resolve maps ref (as written in fromFile's source) to a Resolution. ref is
// rejected up front if it contains control characters, null bytes, or is an
// absolute filesystem path — these never reach the filesystem (spec §4.4
// security invariants, scenario 6).
func (r *ModuleResolver) Resolve(lang Language, ref string, fromFile string) Resolution {
	if rejectReference(ref) {
		return Resolution{Outcome: ResolutionUnresolved, Reason: ReasonInvalidSyntax, Rejected: true}
	}

	switch lang {
	case LangRust:
		return r.resolveRust(ref, fromFile)
	case LangGo:
		return r.resolveGo(ref, fromFile)
	case LangPython:
		return r.resolvePython(ref, fromFile)
	case LangJavaScript, LangTypeScript:
		return r.resolveJSLike(lang, ref, fromFile)
	default:
		return Resolution{Outcome: ResolutionUnresolved, Reason: ReasonUnsupportedLanguage}
	}
}

// rejectReference implements the "absolute or otherwise suspicious module
// references" up-front rejection (spec §4.4).
func rejectReference(ref string) bool {
	if ref == "" {
		return true
	}
	if filepath.IsAbs(ref) {
		return true
	}
	for _, r := range ref {
		if r == 0 || (unicode.IsControl(r) && r != '\t') {
			return true
		}
	}
	return false
}

// --- Rust -------------------------------------------------------------

func (r *ModuleResolver) resolveRust(ref string, fromFile string) Resolution {
	segments := strings.Split(ref, "::")
	head := segments[0]

	switch head {
	case "std", "core", "alloc":
		return Resolution{Outcome: ResolutionExternal, Package: head}
	case "crate":
		// The crate root is the nearest enclosing directory holding lib.rs
		// or main.rs, falling back to repoBase.
		root := r.repoBase
		for dir := filepath.Dir(fromFile); r.withinRepo(dir); dir = filepath.Dir(dir) {
			if r.exists(filepath.Join(dir, "lib.rs")) || r.exists(filepath.Join(dir, "main.rs")) {
				root = dir
				break
			}
			if dir == r.repoBase {
				break
			}
		}
		return r.resolveInternalRust(segments[1:], root)
	case "self":
		return r.resolveInternalRust(segments[1:], filepath.Dir(fromFile))
	case "super":
		return r.resolveInternalRust(segments[1:], filepath.Dir(filepath.Dir(fromFile)))
	}

	if r.rustManifestCrates != nil {
		if _, ok := r.rustManifestCrates[head]; ok {
			return Resolution{Outcome: ResolutionExternal, Package: head}
		}
		// Manifest present and doesn't name this crate: try as an internal
		// single-segment module before giving up.
		res := r.resolveInternalRust(segments, r.repoBase)
		if res.Outcome == ResolutionResolved {
			return res
		}
		return Resolution{Outcome: ResolutionExternal, Package: head}
	}

	// No manifest available: spec §9 open question — classify anything not
	// matching a sibling file/module as external. Documented, not changed.
	res := r.resolveInternalRust(segments, r.repoBase)
	if res.Outcome == ResolutionResolved {
		return res
	}
	return Resolution{Outcome: ResolutionExternal, Package: head}
}

func (r *ModuleResolver) resolveInternalRust(segments []string, base string) Resolution {
	if len(segments) == 0 {
		return Resolution{Outcome: ResolutionUnresolved, Reason: ReasonNoCandidate}
	}
	dir := base
	for _, seg := range segments[:len(segments)-1] {
		dir = filepath.Join(dir, seg)
	}
	leaf := segments[len(segments)-1]
	return r.tryCandidates(dir, leaf, LangRust)
}

// --- Go -----------------------------------------------------------------

func (r *ModuleResolver) resolveGo(ref string, fromFile string) Resolution {
	firstSlash := strings.IndexByte(ref, '/')
	firstSegment := ref
	if firstSlash >= 0 {
		firstSegment = ref[:firstSlash]
	}
	if strings.Contains(firstSegment, ".") {
		return Resolution{Outcome: ResolutionExternal, Package: ref}
	}
	// No dot before the first slash: treat as a repo-relative package path
	// rooted at repoBase (spec §4.4: "Paths without dots and matching a
	// repo package are internal").
	dir := filepath.Join(r.repoBase, filepath.FromSlash(ref))
	if !r.withinRepo(dir) {
		return Resolution{Outcome: ResolutionUnresolved, Reason: ReasonPathEscape}
	}
	if info, err := os.Stat(dir); err == nil && info.IsDir() {
		// A Go import names a package directory, not a file; any .go file
		// in it satisfies containment for edge-building purposes (spec §8
		// property 1). The first non-test .go file in the directory (in
		// sorted name order) stands in for the package; when there is none,
		// the directory itself is recorded as resolved_path, which matches
		// no graph node, since the graph links exact file paths only.
		if f := firstGoFileIn(dir); f != "" {
			return r.asResolved(f)
		}
		rel, err := filepath.Rel(r.repoBase, dir)
		if err == nil {
			return Resolution{Outcome: ResolutionResolved, Path: filepath.ToSlash(rel)}
		}
	}
	return Resolution{Outcome: ResolutionExternal, Package: ref}
}

func firstGoFileIn(dir string) string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".go") && !strings.HasSuffix(e.Name(), "_test.go") {
			return filepath.Join(dir, e.Name())
		}
	}
	return ""
}

// --- Python ---------------------------------------------------------------

func (r *ModuleResolver) resolvePython(ref string, fromFile string) Resolution {
	isRelative := strings.HasPrefix(ref, ".")
	if isRelative {
		dots := 0
		for dots < len(ref) && ref[dots] == '.' {
			dots++
		}
		base := filepath.Dir(fromFile)
		for i := 1; i < dots; i++ {
			base = filepath.Dir(base)
		}
		rest := strings.TrimPrefix(ref[dots:], ".")
		segments := strings.Split(rest, ".")
		if rest == "" {
			segments = nil
		}
		return r.resolvePythonSegments(segments, base)
	}

	segments := strings.Split(ref, ".")
	top := segments[0]
	if !r.repoHasTopLevelPythonPackage(top) {
		return Resolution{Outcome: ResolutionExternal, Package: top}
	}
	return r.resolvePythonSegments(segments, r.repoBase)
}

func (r *ModuleResolver) repoHasTopLevelPythonPackage(name string) bool {
	dir := filepath.Join(r.repoBase, name)
	if info, err := os.Stat(dir); err == nil && info.IsDir() {
		return true
	}
	return r.exists(filepath.Join(r.repoBase, name+".py"))
}

func (r *ModuleResolver) resolvePythonSegments(segments []string, base string) Resolution {
	if len(segments) == 0 {
		return r.tryCandidates(base, "", LangPython)
	}
	dir := base
	for _, seg := range segments[:len(segments)-1] {
		dir = filepath.Join(dir, seg)
	}
	leaf := segments[len(segments)-1]
	return r.tryCandidates(dir, leaf, LangPython)
}

// --- TypeScript / JavaScript ----------------------------------------------

func (r *ModuleResolver) resolveJSLike(lang Language, ref string, fromFile string) Resolution {
	if strings.HasPrefix(ref, "./") || strings.HasPrefix(ref, "../") {
		dir := filepath.Dir(fromFile)
		return r.resolveJSPath(lang, filepath.Join(dir, filepath.FromSlash(ref)))
	}

	for _, alias := range r.tsConfigAliasesByLength {
		if ref == alias || strings.HasPrefix(ref, alias+"/") {
			target := r.tsConfigPaths[alias]
			rest := strings.TrimPrefix(ref, alias)
			rest = strings.TrimPrefix(rest, "/")
			return r.resolveJSPath(lang, filepath.Join(r.repoBase, target, filepath.FromSlash(rest)))
		}
	}

	return Resolution{Outcome: ResolutionExternal, Package: ref}
}

func (r *ModuleResolver) resolveJSPath(lang Language, absNoExt string) Resolution {
	if !r.withinRepo(absNoExt) {
		return Resolution{Outcome: ResolutionUnresolved, Reason: ReasonPathEscape}
	}
	dir := filepath.Dir(absNoExt)
	leaf := filepath.Base(absNoExt)
	return r.tryCandidates(dir, leaf, lang)
}

// --- shared candidate search -----------------------------------------------

// tryCandidates implements spec §4.4's ordered candidate search: direct file
// match, package/module index file, parent-directory module file.
func (r *ModuleResolver) tryCandidates(dir string, leaf string, lang Language) Resolution {
	if !r.withinRepo(dir) {
		return Resolution{Outcome: ResolutionUnresolved, Reason: ReasonPathEscape}
	}

	if leaf != "" {
		for _, ext := range extensionsByLanguage[lang] {
			candidate := filepath.Join(dir, leaf+ext)
			if r.withinRepo(candidate) && r.exists(candidate) {
				return r.asResolved(candidate)
			}
		}

		// Package/module index file, e.g. foo/bar/__init__.py for "bar".
		pkgDir := filepath.Join(dir, leaf)
		for _, idx := range indexFileByLanguage[lang] {
			candidate := filepath.Join(pkgDir, idx)
			if r.withinRepo(candidate) && r.exists(candidate) {
				return r.asResolved(candidate)
			}
		}

		// Parent-directory module file, e.g. foo.rs for foo::bar when
		// foo/bar.rs is absent.
		for _, ext := range extensionsByLanguage[lang] {
			candidate := filepath.Join(filepath.Dir(dir), filepath.Base(dir)+ext)
			if r.withinRepo(candidate) && r.exists(candidate) {
				return r.asResolved(candidate)
			}
		}
	} else {
		for _, idx := range indexFileByLanguage[lang] {
			candidate := filepath.Join(dir, idx)
			if r.withinRepo(candidate) && r.exists(candidate) {
				return r.asResolved(candidate)
			}
		}
	}

	return Resolution{Outcome: ResolutionUnresolved, Reason: ReasonNoCandidate}
}

// withinRepo enforces the path-escape security invariant: the candidate,
// after Clean, must remain a subpath of repoBase (spec §4.4, §8 "Path
// safety").
func (r *ModuleResolver) withinRepo(candidate string) bool {
	clean := filepath.Clean(candidate)
	rel, err := filepath.Rel(r.repoBase, clean)
	if err != nil {
		return false
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return false
	}
	return true
}

func (r *ModuleResolver) asResolved(absPath string) Resolution {
	rel, err := filepath.Rel(r.repoBase, absPath)
	if err != nil {
		return Resolution{Outcome: ResolutionUnresolved, Reason: ReasonPathEscape}
	}
	return Resolution{Outcome: ResolutionResolved, Path: filepath.ToSlash(rel)}
}
