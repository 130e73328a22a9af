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

// Package walker collects the file set a ctxforge run operates on. It is
// deliberately thin: glob-based include/exclude filtering, a binary-content
// sniff, and extension-based language tagging. It has no knowledge of
// imports, types, or any other semantic concept.
package walker

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/kraklabs/ctxforge/pkg/semantic"
)

// defaultExcludes mirrors the teacher's DefaultConfig.ExcludeGlobs list.
var defaultExcludes = []string{
	".git/**",
	"node_modules/**",
	"vendor/**",
	"dist/**",
	"build/**",
	"target/**",
	"*.o",
	"*.so",
	"*.dylib",
	"*.exe",
}

// extensionLanguages maps file extensions to the semantic package's
// Language tag. Files whose extension isn't listed are still collected (the
// engine treats an unrecognized language as "parse nothing, no error").
var extensionLanguages = map[string]semantic.Language{
	".go":  semantic.LangGo,
	".py":  semantic.LangPython,
	".js":  semantic.LangJavaScript,
	".jsx": semantic.LangJavaScript,
	".mjs": semantic.LangJavaScript,
	".ts":  semantic.LangTypeScript,
	".tsx": semantic.LangTypeScript,
	".rs":  semantic.LangRust,
}

const sniffBytes = 8192

// Walk collects every regular, non-binary file under root not matched by an
// exclude pattern, tagging each with its Language by extension. include, if
// non-empty, additionally restricts the set to paths matching at least one
// of its patterns. Patterns are doublestar globs matched against the
// slash-normalized path relative to root.
func Walk(root string, include, exclude []string) ([]*semantic.FileEntry, error) {
	excludes := append(append([]string{}, defaultExcludes...), exclude...)

	var entries []*semantic.FileEntry
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return relErr
		}
		if rel == "." {
			return nil
		}
		normalized := filepath.ToSlash(rel)

		if d.IsDir() {
			if matchesAny(excludes, normalized+"/") || matchesAny(excludes, normalized) {
				return filepath.SkipDir
			}
			return nil
		}

		if matchesAny(excludes, normalized) {
			return nil
		}
		if len(include) > 0 && !matchesAny(include, normalized) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return nil //nolint:nilerr // unreadable entry, skip rather than abort the whole walk
		}
		if info.Mode()&os.ModeSymlink != 0 || !info.Mode().IsRegular() {
			return nil
		}
		if isBinaryFile(path) {
			return nil
		}

		entries = append(entries, &semantic.FileEntry{
			AbsPath:  path,
			RelPath:  normalized,
			Language: languageFor(normalized),
			Size:     info.Size(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}
	return entries, nil
}

func languageFor(path string) semantic.Language {
	ext := filepath.Ext(path)
	if lang, ok := extensionLanguages[ext]; ok {
		return lang
	}
	return semantic.Language(ext)
}

func matchesAny(patterns []string, path string) bool {
	for _, p := range patterns {
		if ok, _ := doublestar.Match(p, path); ok {
			return true
		}
	}
	return false
}

// isBinaryFile scans the first sniffBytes bytes for a NUL byte, the same
// heuristic the teacher's ingestion pipeline uses to skip non-text files.
func isBinaryFile(path string) bool {
	f, err := os.Open(path) //nolint:gosec // G304: path comes from our own WalkDir callback
	if err != nil {
		return false
	}
	defer func() { _ = f.Close() }()

	buf := make([]byte, sniffBytes)
	n, _ := io.ReadFull(f, buf)
	if n <= 0 {
		return false
	}
	return bytes.IndexByte(buf[:n], 0x00) >= 0
}
