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

// Package render turns a selected file set into the text ctxforge prints.
// It does no token counting or budget-aware prioritization; cmd/ctxforge
// hands it the full post-expansion set and it concatenates.
package render

import (
	"fmt"
	"os"
	"strings"

	"github.com/kraklabs/ctxforge/pkg/semantic"
)

// Format selects how selected files are concatenated.
type Format string

const (
	// FormatMarkdown wraps each file in a fenced code block with a path
	// heading, the default and most LLM-friendly form.
	FormatMarkdown Format = "markdown"
	// FormatPlain separates files with a plain "=== path ===" banner.
	FormatPlain Format = "plain"
	// FormatPaths prints only the selected paths, one per line, with no
	// file content at all.
	FormatPaths Format = "paths"
)

// languageFence maps a semantic.Language to the fenced-code-block tag
// markdown renderers expect.
var languageFence = map[semantic.Language]string{
	semantic.LangGo:         "go",
	semantic.LangPython:     "python",
	semantic.LangJavaScript: "javascript",
	semantic.LangTypeScript: "typescript",
	semantic.LangRust:       "rust",
}

// Render reads each entry's content from disk and concatenates it according
// to format. Entries are rendered in the order given; callers wanting
// deterministic output should sort first.
func Render(entries []*semantic.FileEntry, format Format) (string, error) {
	var b strings.Builder
	for _, e := range entries {
		if format == FormatPaths {
			b.WriteString(e.RelPath)
			b.WriteByte('\n')
			continue
		}

		content, err := os.ReadFile(e.AbsPath)
		if err != nil {
			return "", fmt.Errorf("render %s: %w", e.RelPath, err)
		}

		switch format {
		case FormatMarkdown:
			fence := languageFence[e.Language]
			fmt.Fprintf(&b, "## %s\n\n```%s\n%s\n```\n\n", e.RelPath, fence, strings.TrimRight(string(content), "\n"))
		case FormatPlain:
			fmt.Fprintf(&b, "=== %s ===\n%s\n\n", e.RelPath, strings.TrimRight(string(content), "\n"))
		default:
			return "", fmt.Errorf("render: unknown format %q", format)
		}
	}
	return b.String(), nil
}
