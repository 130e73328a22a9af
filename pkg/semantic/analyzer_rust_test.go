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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRustAnalyzer_UseDecls(t *testing.T) {
	imports, _, _, _, _ := analyzeFixture(t, LangRust, "testdata/rust/simple.rs")

	refs := importRefs(imports)
	assert.Contains(t, refs, "std::collections::HashMap")

	var sawCrateOrSuper bool
	for _, imp := range imports {
		if imp.IsRelative {
			sawCrateOrSuper = true
		}
	}
	assert.True(t, sawCrateOrSuper, "crate::/super:: use paths should be flagged relative")
}

func TestRustAnalyzer_TypeDeclsAndDefs(t *testing.T) {
	_, calls, _, defs, typeDefs := analyzeFixture(t, LangRust, "testdata/rust/simple.rs")

	assert.Contains(t, defNames(defs), "build")

	var widget, status, describable *TypeDefinition
	for i := range typeDefs {
		switch typeDefs[i].Name {
		case "Widget":
			widget = &typeDefs[i]
		case "Status":
			status = &typeDefs[i]
		case "Describable":
			describable = &typeDefs[i]
		}
	}
	if widget != nil {
		assert.Equal(t, "struct", widget.Kind)
		assert.True(t, widget.IsExported)
	}
	if status != nil {
		assert.Equal(t, "enum", status.Kind)
	}
	if describable != nil {
		assert.Equal(t, "trait", describable.Kind)
		assert.False(t, describable.IsExported, "trait has no pub modifier in the fixture")
	}

	names := callNames(calls)
	assert.Contains(t, names, "touch")
	assert.Contains(t, names, "push")
}
