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

// Package ui centralizes cmd/ctxforge's terminal output styling so every
// subcommand prints headers, counts, and dimmed text the same way.
package ui

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

var (
	Green  = color.New(color.FgGreen)
	Yellow = color.New(color.FgYellow)
	Red    = color.New(color.FgRed, color.Bold)
	Dim    = color.New(color.Faint)
	Bold   = color.New(color.Bold)
)

// InitColors disables color output when noColor is set, NO_COLOR is
// present in the environment, or stdout isn't a terminal.
func InitColors(noColor bool) {
	if noColor || os.Getenv("NO_COLOR") != "" || !isatty.IsTerminal(os.Stdout.Fd()) {
		color.NoColor = true
	}
}

// Header prints a bold section title on its own line.
func Header(text string) {
	_, _ = Bold.Println(text)
}

// SubHeader prints a dimmed subsection title.
func SubHeader(text string) {
	_, _ = Dim.Println(text)
}

// Label formats a field label for "Label: value" lines.
func Label(text string) string {
	return Bold.Sprint(text)
}

// CountText formats an integer count, bold.
func CountText(n int) string {
	return Bold.Sprint(fmt.Sprintf("%d", n))
}

// DimText renders text in the dimmed/faint style.
func DimText(text string) string {
	return Dim.Sprint(text)
}
