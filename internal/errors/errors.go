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

// Package errors wraps CLI-facing failures with a title, a detail line, and
// a hint the user can act on, so every fatal path in cmd/ctxforge prints the
// same three-part shape instead of a bare Go error string.
package errors

import (
	"encoding/json"
	"fmt"
	"os"
)

// UserError is a CLI-facing error: a short title, what actually happened,
// and a hint for fixing it. Err is the underlying cause, if any.
type UserError struct {
	Title  string
	Detail string
	Hint   string
	Err    error
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Title, e.Detail, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Title, e.Detail)
}

func (e *UserError) Unwrap() error { return e.Err }

func newUserError(title, detail, hint string, err error) *UserError {
	return &UserError{Title: title, Detail: detail, Hint: hint, Err: err}
}

// NewConfigError reports a problem loading or parsing .ctxforge/project.yaml.
func NewConfigError(title, detail, hint string, err error) *UserError {
	return newUserError(title, detail, hint, err)
}

// NewWalkError reports a problem collecting the repository's file set.
func NewWalkError(title, detail, hint string, err error) *UserError {
	return newUserError(title, detail, hint, err)
}

// NewAnalysisError reports a fatal (not per-file) semantic-analysis failure.
func NewAnalysisError(title, detail, hint string, err error) *UserError {
	return newUserError(title, detail, hint, err)
}

// NewInternalError reports a condition that should never happen.
func NewInternalError(title, detail, hint string, err error) *UserError {
	return newUserError(title, detail, hint, err)
}

// FatalError prints err to stderr and exits the process with status 1. In
// jsonMode the error is emitted as a single JSON object instead of the
// human-readable three-line form, so scripted callers get a parseable
// failure instead of prose mixed into stdout.
func FatalError(err error, jsonMode bool) {
	if jsonMode {
		payload := map[string]string{"error": err.Error()}
		if ue, ok := err.(*UserError); ok {
			payload = map[string]string{"title": ue.Title, "detail": ue.Detail, "hint": ue.Hint}
		}
		data, _ := json.Marshal(payload)
		fmt.Fprintln(os.Stderr, string(data))
		os.Exit(1)
	}

	if ue, ok := err.(*UserError); ok {
		fmt.Fprintf(os.Stderr, "Error: %s\n", ue.Title)
		fmt.Fprintf(os.Stderr, "  %s\n", ue.Detail)
		if ue.Hint != "" {
			fmt.Fprintf(os.Stderr, "  Hint: %s\n", ue.Hint)
		}
	} else {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	os.Exit(1)
}
