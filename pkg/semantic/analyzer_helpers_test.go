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
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

// analyzeFixture parses fixturePath through a fresh pool/cache and runs
// lang's analyzer against it, returning the five extraction results.
func analyzeFixture(t *testing.T, lang Language, fixturePath string) ([]Import, []FunctionCall, []TypeReference, []FunctionDefinition, []TypeDefinition) {
	t.Helper()

	content, err := os.ReadFile(fixturePath)
	require.NoError(t, err)

	pool := NewParserPool(nil, nil)
	cache := NewASTCache(pool, 0, nil, nil)

	tree, err := cache.GetOrParse(context.Background(), fixturePath, ContentHash(content), lang, content)
	require.NoError(t, err)

	analyzer, ok := analyzers[lang]
	require.True(t, ok, "no analyzer registered for %s", lang)

	return analyzer.Analyze(tree, content)
}

func importRefs(imports []Import) []string {
	out := make([]string, len(imports))
	for i, imp := range imports {
		out[i] = imp.ModuleReference
	}
	return out
}

func callNames(calls []FunctionCall) []string {
	out := make([]string, len(calls))
	for i, c := range calls {
		out[i] = c.Name
	}
	return out
}

func defNames(defs []FunctionDefinition) []string {
	out := make([]string, len(defs))
	for i, d := range defs {
		out[i] = d.Name
	}
	return out
}

func typeDefNames(defs []TypeDefinition) []string {
	out := make([]string, len(defs))
	for i, d := range defs {
		out[i] = d.Name
	}
	return out
}

func typeRefNames(refs []TypeReference) []string {
	out := make([]string, len(refs))
	for i, r := range refs {
		out[i] = r.Name
	}
	return out
}
