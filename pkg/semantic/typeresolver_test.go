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
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTypeResolver_SimpleChain(t *testing.T) {
	typeDefs := map[string][]TypeDefinition{
		"a.go": {{Name: "A", Kind: "struct"}},
		"b.go": {{Name: "B", Kind: "struct"}},
	}
	typeRefs := map[string][]TypeReference{
		"a.go": {{Name: "B"}},
		"b.go": nil,
	}
	idx := BuildTypeIndex(typeDefs, typeRefs)
	resolver := NewTypeResolver(idx, DefaultResolutionLimits())

	res := resolver.ResolveRoot(TypeReference{Name: "A"})
	assert.Equal(t, "a.go", res.Ref.DefinitionPath)
	assert.False(t, res.Truncated)
	assert.Contains(t, res.Closure, "a.go")
	assert.Contains(t, res.Closure, "b.go")
}

// Spec §8 scenario 5: A->B->C->...->Z (26 levels), depth limit 10. Expect
// truncated with <= 10 visited nodes.
func TestTypeResolver_DepthCircuitBreaker(t *testing.T) {
	typeDefs := make(map[string][]TypeDefinition)
	typeRefs := make(map[string][]TypeReference)

	letters := "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	for i, letter := range letters {
		name := string(letter)
		path := fmt.Sprintf("%s.go", name)
		typeDefs[path] = []TypeDefinition{{Name: name, Kind: "struct"}}
		if i+1 < len(letters) {
			next := string(letters[i+1])
			typeRefs[path] = []TypeReference{{Name: next}}
		}
	}

	idx := BuildTypeIndex(typeDefs, typeRefs)
	limits := ResolutionLimits{MaxDepth: 10, MaxVisitedTypes: 100, MaxResolutionTime: 10 * time.Second}
	resolver := NewTypeResolver(idx, limits)

	res := resolver.ResolveRoot(TypeReference{Name: "A"})
	assert.True(t, res.Truncated)
	assert.LessOrEqual(t, len(res.Closure), 10)
}

func TestTypeResolver_VisitedSetCircuitBreaker(t *testing.T) {
	typeDefs := make(map[string][]TypeDefinition)
	typeRefs := make(map[string][]TypeReference)
	for i := 0; i < 50; i++ {
		name := fmt.Sprintf("T%d", i)
		path := fmt.Sprintf("%s.go", name)
		typeDefs[path] = []TypeDefinition{{Name: name}}
		if i+1 < 50 {
			typeRefs[path] = []TypeReference{{Name: fmt.Sprintf("T%d", i+1)}}
		}
	}
	idx := BuildTypeIndex(typeDefs, typeRefs)
	limits := ResolutionLimits{MaxDepth: 1000, MaxVisitedTypes: 5, MaxResolutionTime: 10 * time.Second}
	resolver := NewTypeResolver(idx, limits)

	res := resolver.ResolveRoot(TypeReference{Name: "T0"})
	assert.True(t, res.Truncated)
	assert.LessOrEqual(t, len(res.Closure), 5)
}

func TestTypeResolver_UnresolvedWhenNoDefinition(t *testing.T) {
	idx := BuildTypeIndex(nil, nil)
	resolver := NewTypeResolver(idx, DefaultResolutionLimits())

	res := resolver.ResolveRoot(TypeReference{Name: "Missing"})
	assert.Empty(t, res.Ref.DefinitionPath)
	assert.False(t, res.Truncated)
}

func TestTypeResolver_ModuleQualifierPrefersMatchingFile(t *testing.T) {
	typeDefs := map[string][]TypeDefinition{
		"pkg/alpha/widget.go": {{Name: "Widget"}},
		"pkg/beta/widget.go":  {{Name: "Widget"}},
	}
	idx := BuildTypeIndex(typeDefs, nil)
	resolver := NewTypeResolver(idx, DefaultResolutionLimits())

	res := resolver.ResolveRoot(TypeReference{Name: "Widget", Module: "beta"})
	require.Equal(t, "pkg/beta/widget.go", res.Ref.DefinitionPath)
}
