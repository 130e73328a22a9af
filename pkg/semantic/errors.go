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

import "errors"

// Per-file errors (spec §7). These are attached to FileEntry.AnalysisError
// and never propagate out of PerformAnalysis.
var (
	ErrParseTimeout        = errors.New("semantic: parse timeout")
	ErrUnsupportedLanguage = errors.New("semantic: unsupported language")
	ErrParse               = errors.New("semantic: parse error")
)

// Fatal errors (spec §7): these propagate as a single top-level analysis
// error because no per-file isolation can recover from them.
var (
	// ErrNoParserAvailable means the pool could not create a parser for any
	// supported language — e.g. the process is out of memory, or every
	// bundled tree-sitter grammar failed to link.
	ErrNoParserAvailable = errors.New("semantic: no parser available for any supported language")
)

// ResolutionOutcome is the tri-state result of a module-reference
// resolution (spec §4.4).
type ResolutionOutcome int

const (
	ResolutionUnresolved ResolutionOutcome = iota
	ResolutionResolved
	ResolutionExternal
)

// UnresolvedReason documents why C4 could not resolve a reference. Not an
// error — recorded for diagnostics only.
type UnresolvedReason string

const (
	ReasonNoCandidate         UnresolvedReason = "no_candidate_file"
	ReasonPathEscape          UnresolvedReason = "path_escape_rejected"
	ReasonInvalidSyntax       UnresolvedReason = "invalid_module_reference"
	ReasonAmbiguous           UnresolvedReason = "ambiguous_resolution"
	ReasonUnsupportedLanguage UnresolvedReason = "unsupported_language"
)
