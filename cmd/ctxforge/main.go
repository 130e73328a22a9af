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

// Package main implements the ctxforge CLI: it walks a repository, runs the
// semantic analysis engine over it, expands a file selection along the
// resulting dependency graph, and prints the rendered result.
//
// Usage:
//
//	ctxforge [path] [flags]
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sort"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	flag "github.com/spf13/pflag"

	"github.com/kraklabs/ctxforge/internal/errors"
	"github.com/kraklabs/ctxforge/internal/ui"
	"github.com/kraklabs/ctxforge/pkg/render"
	"github.com/kraklabs/ctxforge/pkg/semantic"
	"github.com/kraklabs/ctxforge/pkg/walker"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// GlobalFlags holds parsed CLI flags that affect every run.
type GlobalFlags struct {
	JSON    bool
	NoColor bool
	Verbose int
	Quiet   bool
}

func main() {
	var (
		showVersion    = flag.BoolP("version", "V", false, "Show version and exit")
		configPath     = flag.StringP("config", "c", "", "Path to .ctxforge/project.yaml (default: auto-discover)")
		jsonOutput     = flag.Bool("json", false, "Emit run summary as JSON instead of human-readable text")
		noColor        = flag.Bool("no-color", false, "Disable color output")
		verbose        = flag.CountP("verbose", "v", "Increase verbosity (-v for info, -vv for debug)")
		quiet          = flag.BoolP("quiet", "q", false, "Suppress progress bar and summary output")
		traceImports   = flag.Bool("trace-imports", false, "Follow Import edges during selection expansion")
		includeTypes   = flag.Bool("include-types", false, "Follow TypeReference edges during selection expansion")
		includeCallers = flag.Bool("include-callers", false, "Follow reverse edges (callers/importers) during selection expansion")
		semanticDepth  = flag.Uint32("semantic-depth", 0, "Max BFS depth for selection expansion (0: use config default)")
		include        = flag.StringArray("include", nil, "Glob pattern to restrict the initial file selection (repeatable)")
		ignore         = flag.StringArray("ignore", nil, "Glob pattern to exclude from the walk (repeatable)")
		format         = flag.String("format", "", "Output format: markdown, plain, paths (default: config or markdown)")
		rustManifest   = flag.String("rust-manifest", "", "Path to Cargo.toml for Rust external-crate classification")
		tsconfigPath   = flag.String("tsconfig", "", "Path to tsconfig.json for TypeScript path-mapping")
		metricsAddr    = flag.String("metrics-addr", "", "Serve Prometheus metrics at this address (e.g. :9090) while the run lasts")
	)

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `ctxforge - repository context compiler

Walks a repository, analyzes cross-file semantic relationships, expands a
file selection along them, and prints the result as a single formatted
artifact suitable for feeding to a downstream LLM tool.

Usage:
  ctxforge [path] [flags]

Flags:
  --trace-imports          Follow Import edges during selection expansion
  --include-types          Follow TypeReference edges during selection expansion
  --include-callers        Follow reverse edges (callers) during selection expansion
  --semantic-depth N       Max BFS depth for selection expansion
  --include <glob>         Restrict the initial selection (repeatable)
  --ignore <glob>          Exclude from the walk (repeatable)
  --format <markdown|plain|paths>
  -c, --config <path>      Path to .ctxforge/project.yaml
  --json                   Emit run summary as JSON
  --no-color               Disable color output
  -v, --verbose            Increase verbosity
  -q, --quiet              Suppress progress bar and summary output
  -V, --version            Show version and exit

`)
	}

	flag.Parse()

	if *showVersion {
		fmt.Printf("ctxforge version %s\ncommit: %s\nbuilt: %s\n", version, commit, date)
		os.Exit(0)
	}

	if *jsonOutput {
		*quiet = true
	}
	globals := GlobalFlags{JSON: *jsonOutput, NoColor: *noColor, Verbose: *verbose, Quiet: *quiet}
	ui.InitColors(globals.NoColor)

	root := "."
	if args := flag.Args(); len(args) > 0 {
		root = args[0]
	}
	absRoot, err := absPath(root)
	if err != nil {
		errors.FatalError(errors.NewWalkError("Cannot resolve repository path", root, "Check the path exists", err), globals.JSON)
	}

	cfg, err := LoadConfig(*configPath)
	if err != nil {
		errors.FatalError(err, globals.JSON)
	}
	applyFlagOverrides(cfg, traceImports, includeTypes, includeCallers, semanticDepth, include, ignore, format, rustManifest, tsconfigPath)

	logger := newLogger(globals)

	reg := prometheus.NewRegistry()
	if *metricsAddr != "" {
		serveMetrics(*metricsAddr, reg, logger)
	}

	entries, err := walker.Walk(absRoot, cfg.Walk.Include, cfg.Walk.Ignore)
	if err != nil {
		errors.FatalError(errors.NewWalkError("Cannot walk repository", absRoot, "Check directory permissions", err), globals.JSON)
	}
	if len(entries) == 0 {
		if !globals.Quiet {
			fmt.Fprintln(os.Stderr, "No files matched the walk configuration.")
		}
		os.Exit(0)
	}

	engine := newEngine(logger, reg)
	analysisCfg := buildAnalysisConfig(cfg, globals, int64(len(entries)))

	result, err := engine.PerformAnalysis(context.Background(), entries, absRoot, analysisCfg)
	if err != nil {
		errors.FatalError(errors.NewAnalysisError(
			"Analysis failed",
			err.Error(),
			"No parser grammar is registered for any file in the walked set",
			err,
		), globals.JSON)
	}

	if !globals.Quiet {
		printSummary(result, len(entries), globals)
	}

	selected := expandSelection(engine.Graph(), entries, cfg.Select)

	out, err := render.Render(selected, render.Format(cfg.Output.Format))
	if err != nil {
		errors.FatalError(errors.NewInternalError("Cannot render output", err.Error(), "This is a bug", err), globals.JSON)
	}
	fmt.Print(out)
}

func absPath(p string) (string, error) {
	return filepath.Abs(p)
}

func applyFlagOverrides(
	cfg *Config,
	traceImports, includeTypes, includeCallers *bool,
	semanticDepth *uint32,
	include, ignore *[]string,
	format, rustManifest, tsconfigPath *string,
) {
	if flag.CommandLine.Changed("trace-imports") {
		cfg.Select.TraceImports = *traceImports
	}
	if flag.CommandLine.Changed("include-types") {
		cfg.Select.IncludeTypes = *includeTypes
	}
	if flag.CommandLine.Changed("include-callers") {
		cfg.Select.IncludeCallers = *includeCallers
	}
	if flag.CommandLine.Changed("semantic-depth") && *semanticDepth > 0 {
		cfg.Select.SemanticDepth = *semanticDepth
	}
	if len(*include) > 0 {
		cfg.Walk.Include = append(cfg.Walk.Include, *include...)
	}
	if len(*ignore) > 0 {
		cfg.Walk.Ignore = append(cfg.Walk.Ignore, *ignore...)
	}
	if *format != "" {
		cfg.Output.Format = *format
	}
	if *rustManifest != "" {
		cfg.Rust.ManifestPath = *rustManifest
	}
	if *tsconfigPath != "" {
		cfg.TS.ConfigPath = *tsconfigPath
	}
}

func newLogger(globals GlobalFlags) *slog.Logger {
	level := slog.LevelWarn
	switch {
	case globals.Verbose >= 2:
		level = slog.LevelDebug
	case globals.Verbose == 1:
		level = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func newEngine(logger *slog.Logger, reg prometheus.Registerer) *semantic.Engine {
	m := semantic.NewMetrics(reg)
	pool := semantic.NewParserPool(logger, m)
	cache := semantic.NewASTCache(pool, 0, logger, m)
	return semantic.NewEngineWithCache(pool, cache, logger, m)
}

// serveMetrics exposes reg on addr for the lifetime of the process. A run
// that wants metrics stays up only as long as the analysis itself takes —
// there's no background scrape server beyond this bare promhttp handle.
func serveMetrics(addr string, reg *prometheus.Registry, logger *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Warn("semantic.metrics.serve_failed", "addr", addr, "error", err)
		}
	}()
}

func buildAnalysisConfig(cfg *Config, globals GlobalFlags, fileCount int64) semantic.AnalysisConfig {
	analysisCfg := semantic.DefaultAnalysisConfig()
	analysisCfg.RustManifestPath = cfg.Rust.ManifestPath
	analysisCfg.TSConfigPath = cfg.TS.ConfigPath

	if !globals.Quiet {
		bar := newProgressBar(fileCount)
		analysisCfg.ProgressCallback = func(current, _ int64, _ string) {
			_ = bar.Set64(current)
		}
	}
	return analysisCfg
}

func printSummary(result *semantic.AnalysisResult, filesWalked int, globals GlobalFlags) {
	if globals.JSON {
		data, _ := json.Marshal(map[string]interface{}{
			"files_walked":   filesWalked,
			"files_analyzed": result.FilesAnalyzed,
			"files_failed":   result.FilesFailed,
			"cycles_warning": result.CyclesWarning,
		})
		fmt.Fprintln(os.Stderr, string(data))
		return
	}

	ui.Header("Analysis Complete")
	fmt.Fprintf(os.Stderr, "%s %s\n", ui.Label("Files analyzed:"), ui.CountText(result.FilesAnalyzed))
	if result.FilesFailed > 0 {
		_, _ = ui.Yellow.Fprintf(os.Stderr, "Files failed: %d\n", result.FilesFailed)
	}
	if result.CyclesWarning != "" {
		_, _ = ui.Yellow.Fprintf(os.Stderr, "Warning: %s\n", result.CyclesWarning)
	}
}

// expandSelection builds the initial file selection (everything the walker
// returned) and grows it along the graph per cfg's flags, up to
// cfg.SemanticDepth (spec.md §6/§7: trace-imports/include-types/
// include-callers).
func expandSelection(graph *semantic.DependencyGraph, entries []*semantic.FileEntry, cfg SelectConfig) []*semantic.FileEntry {
	byPath := make(map[string]*semantic.FileEntry, len(entries))
	selected := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		byPath[e.RelPath] = e
		selected[e.RelPath] = struct{}{}
	}

	depth := int(cfg.SemanticDepth)
	if depth <= 0 {
		depth = 1
	}

	seeds := make([]string, 0, len(selected))
	for path := range selected {
		seeds = append(seeds, path)
	}

	if cfg.TraceImports {
		for _, path := range seeds {
			for _, p := range graph.DependenciesAlong(path, depth, semantic.RelImport) {
				selected[p] = struct{}{}
			}
		}
	}
	if cfg.IncludeTypes {
		for _, path := range seeds {
			for _, p := range graph.DependenciesAlong(path, depth, semantic.RelTypeReference) {
				selected[p] = struct{}{}
			}
		}
	}
	if cfg.IncludeCallers {
		for _, path := range seeds {
			for _, p := range graph.ReverseDependencies(path, depth) {
				selected[p] = struct{}{}
			}
		}
	}

	out := make([]*semantic.FileEntry, 0, len(selected))
	for path := range selected {
		if e, ok := byPath[path]; ok {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RelPath < out[j].RelPath })
	return out
}
