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
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// Engine wires the six components together behind the single programmatic
// façade described in spec §6: perform_analysis in from the walker, and
// dependency/reverse_dependency/direct_importers/direct_imports queries out
// to the file-expander.
type Engine struct {
	pool    *ParserPool
	cache   *ASTCache
	logger  *slog.Logger
	metrics *metrics

	graph *DependencyGraph // nil until PerformAnalysis has run
}

// NewEngineWithCache builds an Engine from an already-constructed pool and
// cache, letting callers share them across multiple Engine instances (e.g.
// multiple repositories analyzed in one process) as spec §4.2 allows.
func NewEngineWithCache(pool *ParserPool, cache *ASTCache, logger *slog.Logger, m *metrics) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	if m == nil {
		m = noopMetrics()
	}
	return &Engine{pool: pool, cache: cache, logger: logger, metrics: m}
}

// AnalysisResult summarizes a PerformAnalysis run: it never carries a
// per-file error list (those live on each FileEntry), only counts and the
// cycle warning text spec §7 calls for.
type AnalysisResult struct {
	FilesAnalyzed int
	FilesFailed   int
	CyclesWarning string // empty if no cycles detected
}

// PerformAnalysis runs the full 4-stage pipeline over files in place: Stage
// 1 parses and analyzes every file in parallel; Stage 2 resolves imports and
// type references sequentially; Stage 3 builds the dependency graph. After
// this returns, every FileEntry has Imports, ImportedBy, FunctionCalls,
// TypeReferences, ExportedFunctions, and ContentHash populated (spec §6).
//
// Only a wholly unrecoverable condition returns an error; per-file failures
// are recorded on the affected FileEntry and counted in the result.
func (e *Engine) PerformAnalysis(ctx context.Context, files []*FileEntry, repoBase string, cfg AnalysisConfig) (*AnalysisResult, error) {
	if len(files) == 0 {
		e.graph = BuildGraph(nil)
		return &AnalysisResult{}, nil
	}

	if err := e.verifyParsersAvailable(files); err != nil {
		return nil, err
	}

	analyses := e.stage1ParseAndAnalyze(ctx, files, cfg)

	typeDefsByPath := make(map[string][]TypeDefinition, len(files))
	typeRefsByPath := make(map[string][]TypeReference, len(files))
	failed := 0
	for i, fe := range files {
		a := analyses[i]
		fe.FunctionCalls = a.calls
		fe.TypeReferences = a.typeRefs
		fe.ExportedFunctions = a.defs
		fe.ContentHash = a.hash
		fe.AnalysisError = a.errText
		fe.Imports = a.imports
		if a.errText != "" {
			failed++
		}
		typeDefsByPath[fe.RelPath] = a.typeDefs
		typeRefsByPath[fe.RelPath] = a.typeRefs
	}

	rustCrates := loadRustManifestCrates(cfg.RustManifestPath)
	tsConfigPaths := loadTSConfigPaths(cfg.TSConfigPath, repoBase)
	resolver := NewModuleResolver(repoBase, rustCrates, tsConfigPaths)

	e.stage2Resolve(files, resolver, typeDefsByPath, typeRefsByPath, cfg.ResolutionLimits)

	byPath := make(map[string]*FileEntry, len(files))
	for _, fe := range files {
		byPath[fe.RelPath] = fe
	}
	for _, fe := range files {
		for _, imp := range fe.Imports {
			if !imp.IsExternal && imp.ResolvedPath != "" {
				if target, ok := byPath[imp.ResolvedPath]; ok {
					target.ImportedBy = append(target.ImportedBy, fe.RelPath)
				}
			}
		}
	}
	for _, fe := range files {
		sort.Strings(fe.ImportedBy)
	}

	graph := BuildGraph(files)
	e.graph = graph

	result := &AnalysisResult{FilesAnalyzed: len(files), FilesFailed: failed}
	if cycles := graph.Cycles(); len(cycles) > 0 {
		involved := 0
		for _, c := range cycles {
			involved += len(c.Files)
		}
		result.CyclesWarning = fmt.Sprintf("detected %d cycles (%d files involved)", len(cycles), involved)
		e.metrics.cyclesDetected.Add(float64(len(cycles)))
		e.logger.Warn("semantic.cycles_detected", "count", len(cycles), "files_involved", involved)
	}

	return result, nil
}

// verifyParsersAvailable implements spec §7's one fatal precondition: the
// engine must be able to create at least one parser for at least one
// language actually present in files, or the whole analysis is aborted.
func (e *Engine) verifyParsersAvailable(files []*FileEntry) error {
	needed := make(map[Language]struct{})
	for _, f := range files {
		needed[f.Language] = struct{}{}
	}
	var lastErr error
	for lang := range needed {
		token, err := e.pool.Acquire(lang)
		if err == nil {
			token.Release()
			return nil
		}
		lastErr = err
	}
	if len(needed) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrNoParserAvailable, lastErr)
}

type fileAnalysisResult struct {
	imports  []Import
	calls    []FunctionCall
	typeRefs []TypeReference
	defs     []FunctionDefinition
	typeDefs []TypeDefinition
	hash     uint64
	errText  string
}

// stage1ParseAndAnalyze fans the file set out across an OS-thread worker
// pool sized to available CPUs (spec §5: "data-parallel fan-out... across
// OS threads"). Each worker is synchronous with respect to its own file; a
// parse/analysis failure is isolated to that file's result and never fails
// the group.
func (e *Engine) stage1ParseAndAnalyze(ctx context.Context, files []*FileEntry, cfg AnalysisConfig) []fileAnalysisResult {
	results := make([]fileAnalysisResult, len(files))

	workers := cfg.Concurrency.ParseWorkers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(files) {
		workers = len(files)
	}

	g, gctx := errgroup.WithContext(ctx)
	sem := make(chan struct{}, workers)

	var done int64
	total := int64(len(files))

	for i, fe := range files {
		i, fe := i, fe
		g.Go(func() error {
			select {
			case sem <- struct{}{}:
			case <-gctx.Done():
				return nil
			}
			defer func() { <-sem }()

			results[i] = e.analyzeOneFile(gctx, fe)
			if cfg.ProgressCallback != nil {
				cfg.ProgressCallback(atomic.AddInt64(&done, 1), total, "parse")
			}
			return nil // per-file errors never fail the group (spec §7)
		})
	}
	_ = g.Wait()

	return results
}

func (e *Engine) analyzeOneFile(ctx context.Context, fe *FileEntry) fileAnalysisResult {
	content, err := os.ReadFile(fe.AbsPath)
	if err != nil {
		return fileAnalysisResult{errText: fmt.Sprintf("read: %s", err)}
	}

	hash := ContentHash(content)

	analyzer, ok := analyzers[fe.Language]
	if !ok {
		// Non-supported language: empty analysis result, no error (spec §4.3).
		return fileAnalysisResult{hash: hash}
	}

	tree, err := e.cache.GetOrParse(ctx, fe.RelPath, hash, fe.Language, content)
	if err != nil {
		e.logger.Debug("semantic.parse_failed", "path", fe.RelPath, "error", err)
		return fileAnalysisResult{hash: hash, errText: err.Error()}
	}

	imports, calls, typeRefs, defs, typeDefs := analyzer.Analyze(tree, content)
	return fileAnalysisResult{
		imports:  imports,
		calls:    calls,
		typeRefs: typeRefs,
		defs:     defs,
		typeDefs: typeDefs,
		hash:     hash,
	}
}

// stage2Resolve runs C4 and C5 sequentially over every file's extracted
// imports and type references (spec §5: "Stages 2-4... executed on a single
// thread").
func (e *Engine) stage2Resolve(
	files []*FileEntry,
	resolver *ModuleResolver,
	typeDefsByPath map[string][]TypeDefinition,
	typeRefsByPath map[string][]TypeReference,
	limits ResolutionLimits,
) {
	typeIndex := BuildTypeIndex(typeDefsByPath, typeRefsByPath)
	typeResolver := NewTypeResolver(typeIndex, limits)

	sorted := make([]*FileEntry, len(files))
	copy(sorted, files)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].RelPath < sorted[j].RelPath })

	for _, fe := range sorted {
		resolvedImports := make([]Import, len(fe.Imports))
		for i, imp := range fe.Imports {
			resolvedImports[i] = resolveImport(resolver, fe, imp)
		}
		fe.Imports = resolvedImports

		resolvedTypeRefs := make([]TypeReference, len(fe.TypeReferences))
		for i, tr := range fe.TypeReferences {
			res := typeResolver.ResolveRoot(tr)
			resolvedTypeRefs[i] = res.Ref
			if res.Truncated {
				e.metrics.typeResolutionTruncated.WithLabelValues(res.Reason).Inc()
			}
		}
		fe.TypeReferences = resolvedTypeRefs
	}
}

func resolveImport(resolver *ModuleResolver, fe *FileEntry, imp Import) Import {
	res := resolver.Resolve(fe.Language, imp.ModuleReference, fe.AbsPath)
	switch res.Outcome {
	case ResolutionResolved:
		imp.ResolvedPath = res.Path
	case ResolutionExternal:
		imp.IsExternal = true
		imp.ExternalPackage = res.Package
	}
	return imp
}

// Graph returns the dependency graph built by the most recent
// PerformAnalysis call, or nil if none has run.
func (e *Engine) Graph() *DependencyGraph { return e.graph }

// loadRustManifestCrates reads the [dependencies]/[dev-dependencies] table
// keys out of a Cargo.toml, used to classify external crates (spec §4.4,
// §9's Rust open question). A missing or unreadable manifest yields nil,
// which resolveRust documents as "classify anything not matching a sibling
// file/module as external."
func loadRustManifestCrates(manifestPath string) map[string]struct{} {
	if manifestPath == "" {
		return nil
	}
	data, err := os.ReadFile(manifestPath)
	if err != nil {
		return nil
	}
	return parseCargoTomlCrateNames(data)
}

// loadTSConfigPaths reads compilerOptions.paths out of a tsconfig.json,
// mapping each alias prefix (stripped of its trailing "/*") to the first
// redirect target's directory, expressed relative to repoBase — the
// contract resolveJSLike consumes it under (it joins r.repoBase with the
// stored target) (spec §9: tsconfig path mapping is "preferred" to honor
// over ignoring).
func loadTSConfigPaths(tsconfigPath string, repoBase string) map[string]string {
	if tsconfigPath == "" {
		return nil
	}
	data, err := os.ReadFile(tsconfigPath)
	if err != nil {
		return nil
	}
	paths, err := parseTSConfigPaths(data)
	if err != nil {
		return nil
	}

	baseDir, err := filepath.Abs(filepath.Dir(tsconfigPath))
	if err != nil {
		return nil
	}
	absRepoBase, err := filepath.Abs(repoBase)
	if err != nil {
		return nil
	}

	out := make(map[string]string, len(paths))
	for alias, target := range paths {
		targetDir := filepath.Join(baseDir, target)
		rel, err := filepath.Rel(absRepoBase, targetDir)
		if err != nil {
			continue // target resolves outside repoBase's volume; drop the alias rather than guess
		}
		out[alias] = rel
	}
	return out
}
